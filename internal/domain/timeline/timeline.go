// Package timeline provides media timeline primitives: classification,
// ranges and the seekable window.
package timeline

import "time"

// Classification categorizes a media timeline.
type Classification int

const (
	Unknown  Classification = iota // Not known yet (item not ready)
	OnDemand                       // Finite, fully seekable content
	Live                           // Live content without backlog
	DVR                            // Live content with a seekable backlog
)

// String returns the string representation of the classification.
func (c Classification) String() string {
	switch c {
	case OnDemand:
		return "on_demand"
	case Live:
		return "live"
	case DVR:
		return "dvr"
	default:
		return "unknown"
	}
}

// ParseClassification parses a classification name. Unrecognized names map
// to Unknown.
func ParseClassification(s string) Classification {
	switch s {
	case "on_demand", "ondemand", "vod":
		return OnDemand
	case "live":
		return Live
	case "dvr":
		return DVR
	default:
		return Unknown
	}
}

// Window is the seekable part of a timeline.
type Window struct {
	Start time.Duration
	End   time.Duration
}

// IsEmpty reports whether nothing can be seeked in the window.
func (w Window) IsEmpty() bool {
	return w.End <= w.Start
}

// Contains reports whether t lies within the window (both ends inclusive).
func (w Window) Contains(t time.Duration) bool {
	return !w.IsEmpty() && t >= w.Start && t <= w.End
}

// Clamp returns t constrained to the window.
func (w Window) Clamp(t time.Duration) time.Duration {
	if t < w.Start {
		return w.Start
	}
	if t > w.End {
		return w.End
	}
	return t
}
