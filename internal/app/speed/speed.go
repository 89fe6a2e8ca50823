// Package speed implements the playback speed state machine: a desired value
// folded together with the permissible range derived from the timeline.
package speed

import (
	"fmt"
	"time"

	zlog "github.com/rs/zerolog/log"
	"github.com/samber/mo"

	"github.com/osa030/playqueue/internal/domain/timeline"
)

// Neutral is the speed used when no range is defined.
const Neutral = 1.0

// Range is a closed interval of permissible speeds.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Clamp returns v constrained to the range.
func (r Range) Clamp(v float64) float64 {
	if v < r.Min {
		return r.Min
	}
	if v > r.Max {
		return r.Max
	}
	return v
}

// Contains reports whether v lies within the range.
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// String returns the string representation of the range.
func (r Range) String() string {
	return fmt.Sprintf("[%g,%g]", r.Min, r.Max)
}

// Ranges by classification
var (
	LiveRange      = Range{Min: 1, Max: 1}
	DVRAtEdgeRange = Range{Min: 1, Max: 1}
	DVRBehindRange = Range{Min: 0.1, Max: 1}
	OnDemandRange  = Range{Min: 0.1, Max: 2}
)

// RangeFor returns the range for a timeline. behindEdge is the distance
// between the current position and the live edge, only used for DVR.
// false means no range must be emitted.
func RangeFor(c timeline.Classification, behindEdge, tolerance time.Duration) (Range, bool) {
	switch c {
	case timeline.Live:
		return LiveRange, true
	case timeline.DVR:
		if behindEdge <= tolerance {
			return DVRAtEdgeRange, true
		}
		return DVRBehindRange, true
	case timeline.OnDemand:
		return OnDemandRange, true
	default:
		return Range{}, false
	}
}

type dimension int

const (
	dimensionValue dimension = iota
	dimensionRange
)

// Update targets one dimension of the state. The other dimension is kept.
type Update struct {
	dimension dimension
	value     float64
	rng       mo.Option[Range]
}

// ValueUpdate requests a new desired value.
func ValueUpdate(v float64) Update {
	return Update{dimension: dimensionValue, value: v}
}

// RangeUpdate sets the permissible range. An absent range is indefinite.
func RangeUpdate(r mo.Option[Range]) Update {
	return Update{dimension: dimensionRange, rng: r}
}

// String returns the string representation of the update.
func (u Update) String() string {
	if u.dimension == dimensionValue {
		return fmt.Sprintf("value(%g)", u.value)
	}
	if r, ok := u.rng.Get(); ok {
		return fmt.Sprintf("range(%s)", r)
	}
	return "range(indefinite)"
}

// State is the folded speed state.
type State struct {
	Desired float64          // Last requested value, possibly outside the range
	Range   mo.Option[Range] // Absent while indefinite
}

// Initial returns the state before any update.
func Initial() State {
	return State{Desired: Neutral, Range: mo.None[Range]()}
}

// Apply folds u into the state. Non-positive values are ignored.
func (s State) Apply(u Update) State {
	switch u.dimension {
	case dimensionValue:
		if u.value > 0 {
			s.Desired = u.value
		}
	case dimensionRange:
		s.Range = u.rng
	}
	return s
}

// Fold applies updates in order.
func Fold(s State, updates ...Update) State {
	for _, u := range updates {
		s = s.Apply(u)
	}
	return s
}

// Effective returns the speed the engine must run at.
func (s State) Effective() float64 {
	if r, ok := s.Range.Get(); ok {
		return r.Clamp(s.Desired)
	}
	return Neutral
}

// Speed is the exposed speed value.
type Speed struct {
	Value float64          `json:"value"`
	Range mo.Option[Range] `json:"range"`
}

// Speed returns the exposed value of the state.
func (s State) Speed() Speed {
	return Speed{Value: s.Effective(), Range: s.Range}
}

// Machine tracks the speed state and reports effective changes.
type Machine struct {
	tolerance time.Duration
	state     State
}

// NewMachine creates a machine. tolerance is the DVR live edge tolerance.
func NewMachine(tolerance time.Duration) *Machine {
	return &Machine{tolerance: tolerance, state: Initial()}
}

// State returns the folded state.
func (m *Machine) State() State {
	return m.state
}

// Apply folds u and returns true if the exposed speed changed.
func (m *Machine) Apply(u Update) bool {
	before := m.state.Speed()
	m.state = m.state.Apply(u)
	after := m.state.Speed()
	changed := before.Value != after.Value || !sameRange(before.Range, after.Range)
	if changed {
		zlog.Debug().Msgf("speed: update=%s effective=%g desired=%g", u, after.Value, m.state.Desired)
	}
	return changed
}

// Request applies a desired value.
func (m *Machine) Request(v float64) bool {
	return m.Apply(ValueUpdate(v))
}

// Observe applies the range of the given timeline. Unknown classification
// emits nothing.
func (m *Machine) Observe(c timeline.Classification, behindEdge time.Duration) bool {
	r, ok := RangeFor(c, behindEdge, m.tolerance)
	if !ok {
		return false
	}
	return m.Apply(RangeUpdate(mo.Some(r)))
}

// Suspend makes the range indefinite; the desired value is kept.
func (m *Machine) Suspend() bool {
	return m.Apply(RangeUpdate(mo.None[Range]()))
}

func sameRange(a, b mo.Option[Range]) bool {
	ra, okA := a.Get()
	rb, okB := b.Get()
	return okA == okB && ra == rb
}
