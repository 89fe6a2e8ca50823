// Package playback orchestrates the queue, its policies and the playback
// engine.
package playback

// State represents the playback state.
type State int

const (
	StateIdle      State = iota // No current item
	StateBuffering              // Current item loading or stalled
	StatePlaying                // Current item is playing
	StatePaused                 // Current item is paused
	StateEnded                  // Current item played to its end
	StateFailed                 // Current item failed
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateBuffering:
		return "buffering"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateEnded:
		return "ended"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}
