package timeline

import (
	"sort"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
)

// ErrInvalidRange is returned when a range does not end after it starts.
var ErrInvalidRange = errors.New("range end must be after start")

// RangeKind identifies what a time range marks.
type RangeKind int

const (
	Blocked        RangeKind = iota // Playback must never remain inside
	OpeningCredits                  // Skippable opening credits
	ClosingCredits                  // Skippable closing credits
)

// String returns the string representation of the range kind.
func (k RangeKind) String() string {
	switch k {
	case Blocked:
		return "blocked"
	case OpeningCredits:
		return "opening_credits"
	case ClosingCredits:
		return "closing_credits"
	default:
		return "unknown"
	}
}

// ParseRangeKind parses a range kind name.
func ParseRangeKind(s string) (RangeKind, error) {
	switch s {
	case "blocked":
		return Blocked, nil
	case "opening_credits", "opening":
		return OpeningCredits, nil
	case "closing_credits", "closing":
		return ClosingCredits, nil
	default:
		return Blocked, errors.Newf("unknown range kind: %s", s)
	}
}

// Range is a half-open interval [Start, End) of a timeline.
type Range struct {
	Kind  RangeKind
	Start time.Duration
	End   time.Duration
}

// NewRange creates a range, rejecting empty or inverted intervals.
func NewRange(kind RangeKind, start, end time.Duration) (Range, error) {
	if end <= start {
		return Range{}, errors.Wrapf(ErrInvalidRange, "%s [%v, %v)", kind, start, end)
	}
	return Range{Kind: kind, Start: start, End: end}, nil
}

// Contains reports whether t lies in [Start, End).
func (r Range) Contains(t time.Duration) bool {
	return t >= r.Start && t < r.End
}

// Blocks returns the blocked ranges of rs.
func Blocks(rs []Range) []Range {
	return lo.Filter(rs, func(r Range, _ int) bool { return r.Kind == Blocked })
}

// Credits returns the credits ranges of rs.
func Credits(rs []Range) []Range {
	return lo.Filter(rs, func(r Range, _ int) bool { return r.Kind != Blocked })
}

// Union merges overlapping, nested and adjacent ranges until no two of the
// results touch. The result is sorted by start and every input point is
// covered by exactly one output range. Kinds are not mixed: callers pass
// ranges of a single kind.
func Union(rs []Range) []Range {
	merged := append([]Range(nil), rs...)
	for {
		next, changed := unionPass(merged)
		merged = next
		if !changed {
			return merged
		}
	}
}

func unionPass(rs []Range) ([]Range, bool) {
	if len(rs) < 2 {
		return rs, false
	}
	sort.SliceStable(rs, func(i, j int) bool {
		if rs[i].Start == rs[j].Start {
			return rs[i].End > rs[j].End
		}
		return rs[i].Start < rs[j].Start
	})

	changed := false
	out := make([]Range, 0, len(rs))
	for _, r := range rs {
		if n := len(out); n > 0 && r.Start <= out[n-1].End {
			if r.End > out[n-1].End {
				out[n-1].End = r.End
			}
			changed = true
			continue
		}
		out = append(out, r)
	}
	return out, changed
}

// Find returns the range of rs containing t.
func Find(rs []Range, t time.Duration) (Range, bool) {
	return lo.Find(rs, func(r Range) bool { return r.Contains(t) })
}
