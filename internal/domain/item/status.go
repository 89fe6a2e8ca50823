package item

// Status is the resolution status of an item.
type Status int

const (
	StatusUnresolved Status = iota // Descriptor not resolved yet
	StatusResolving                // Resolution in flight
	StatusReady                    // Resource available
	StatusFailed                   // Resolution or playback failed
)

// String returns the string representation of the status.
func (s Status) String() string {
	switch s {
	case StatusUnresolved:
		return "unresolved"
	case StatusResolving:
		return "resolving"
	case StatusReady:
		return "ready"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

var allowedTransitions = map[Status]map[Status]bool{
	StatusUnresolved: {
		StatusResolving: true,
	},
	StatusResolving: {
		StatusReady:  true,
		StatusFailed: true,
	},
	StatusReady: {
		StatusFailed: true, // playback failure reported by the engine
	},
	StatusFailed: {},
}

// CanTransition reports whether from -> to is a legal status change.
// Resetting to unresolved happens through SetDescriptor only.
func CanTransition(from, to Status) bool {
	next, ok := allowedTransitions[from]
	if !ok {
		return false
	}
	return next[to]
}
