package metrics

import (
	"time"

	"github.com/samber/lo"

	"github.com/osa030/playqueue/internal/domain/item"
)

// EventKind identifies an item event.
type EventKind string

// Event kinds
const (
	EventResolutionStarted   EventKind = "resolution_started"
	EventResolutionSucceeded EventKind = "resolution_succeeded"
	EventResolutionFailed    EventKind = "resolution_failed"
	EventEngineReady         EventKind = "engine_ready"
	EventEngineFailed        EventKind = "engine_failed"
	EventEnded               EventKind = "ended"
	EventSkipped             EventKind = "skipped"
	EventResumed             EventKind = "resumed"
)

// Event is one entry of an item's event log.
type Event struct {
	ItemID  item.ID   `json:"item_id"`
	Kind    EventKind `json:"kind"`
	Time    time.Time `json:"time"`
	Message string    `json:"message,omitempty"`
}

// Log appends an event to the item's log, dropping its oldest events beyond
// the limit.
func (a *Aggregator) Log(id item.ID, kind EventKind, message string) Event {
	e := Event{ItemID: id, Kind: kind, Time: a.now(), Message: message}
	log := append(a.events[id], e)
	if over := len(log) - a.limit; over > 0 {
		log = append([]Event(nil), log[over:]...)
	}
	a.events[id] = log
	if a.sink != nil {
		a.sink.Log(e)
	}
	return e
}

// Events returns a copy of the item's event log, oldest first.
func (a *Aggregator) Events(id item.ID) []Event {
	return append([]Event(nil), a.events[id]...)
}

// Prune drops the event logs of items not in keep.
func (a *Aggregator) Prune(keep []item.ID) {
	for _, id := range lo.Keys(a.events) {
		if !lo.Contains(keep, id) {
			delete(a.events, id)
		}
	}
}
