package playback

import "github.com/osa030/playqueue/internal/domain/item"

// EventType represents a playback event type.
type EventType int

const (
	EventItemChanged   EventType = iota // Current item changed
	EventItemEnded                      // Current item played to its end
	EventItemFailed                     // An item failed (resolution or engine)
	EventRangeSkipped                   // A blocked range was skipped
	EventResumeApplied                  // A stored resume position was applied
	EventStateChanged                   // Playback state changed
	EventQueueEmpty                     // Queue became empty
)

// String returns the string representation of the event type.
func (e EventType) String() string {
	switch e {
	case EventItemChanged:
		return "item_changed"
	case EventItemEnded:
		return "item_ended"
	case EventItemFailed:
		return "item_failed"
	case EventRangeSkipped:
		return "range_skipped"
	case EventResumeApplied:
		return "resume_applied"
	case EventStateChanged:
		return "state_changed"
	case EventQueueEmpty:
		return "queue_empty"
	default:
		return "unknown"
	}
}

// Event represents a playback event.
type Event struct {
	Type   EventType
	ItemID item.ID // Item concerned (empty for some events)
	State  State   // Playback state when the event was emitted
	Err    error   // EventItemFailed
}
