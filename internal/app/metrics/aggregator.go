// Package metrics aggregates engine counters and item events into a bounded
// diagnostic history.
package metrics

import (
	"time"

	zlog "github.com/rs/zerolog/log"
	"github.com/samber/mo"

	"github.com/osa030/playqueue/internal/domain/item"
)

// Counters are the cumulative counters reported by the engine for the
// current resource.
type Counters struct {
	Stalls           int           `json:"stalls"`
	StallDuration    time.Duration `json:"stall_duration"`
	PlayingDuration  time.Duration `json:"playing_duration"`
	BytesTransferred int64         `json:"bytes_transferred"`
	DroppedFrames    int           `json:"dropped_frames"`
	Bitrate          float64       `json:"bitrate"` // Indicated bitrate, not cumulative
}

// Sub returns c - o for cumulative counters. Bitrate is kept from c.
func (c Counters) Sub(o Counters) Counters {
	return Counters{
		Stalls:           c.Stalls - o.Stalls,
		StallDuration:    c.StallDuration - o.StallDuration,
		PlayingDuration:  c.PlayingDuration - o.PlayingDuration,
		BytesTransferred: c.BytesTransferred - o.BytesTransferred,
		DroppedFrames:    c.DroppedFrames - o.DroppedFrames,
		Bitrate:          c.Bitrate,
	}
}

// Trigger is what caused a snapshot.
type Trigger string

// Triggers
const (
	TriggerPeriodic Trigger = "periodic"
	TriggerSeek     Trigger = "seek"
	TriggerPlay     Trigger = "play"
	TriggerPause    Trigger = "pause"
)

// Entry is one delta of the history.
type Entry struct {
	ItemID   item.ID       `json:"item_id"`
	Identity string        `json:"identity"`
	Trigger  Trigger       `json:"trigger"`
	Time     time.Time     `json:"time"`
	Interval time.Duration `json:"interval"` // Time since the previous snapshot
	Delta    Counters      `json:"delta"`
	Total    Counters      `json:"total"`
}

type sample struct {
	time     time.Time
	counters Counters
}

// Sink receives entries and events as they are recorded.
type Sink interface {
	Observe(e Entry)
	Log(e Event)
}

// Aggregator keeps the delta history of the current resource and the event
// log of every queued item. It is owned by one executor.
type Aggregator struct {
	limit int
	now   func() time.Time
	sink  Sink

	itemID   mo.Option[item.ID]
	identity string
	baseline mo.Option[sample]
	history  []Entry

	events map[item.ID][]Event
}

// NewAggregator creates an aggregator keeping at most limit entries in the
// history and in each item's event log. sink may be nil.
func NewAggregator(limit int, now func() time.Time, sink Sink) *Aggregator {
	if limit <= 0 {
		limit = 1
	}
	if now == nil {
		now = time.Now
	}
	return &Aggregator{
		limit:  limit,
		now:    now,
		sink:   sink,
		events: make(map[item.ID][]Event),
	}
}

// Track sets the resource the history refers to. A different identity resets
// the baseline and the history; returns true in that case.
func (a *Aggregator) Track(id item.ID, identity string) bool {
	cur, ok := a.itemID.Get()
	if ok && cur == id && a.identity == identity {
		return false
	}
	a.itemID = mo.Some(id)
	a.identity = identity
	a.baseline = mo.None[sample]()
	a.history = nil
	zlog.Debug().Msgf("metrics: baseline reset item_id=%s identity=%s", id, identity)
	return true
}

// Untrack stops tracking any resource.
func (a *Aggregator) Untrack() {
	a.itemID = mo.None[item.ID]()
	a.identity = ""
	a.baseline = mo.None[sample]()
	a.history = nil
}

// Tracking returns the tracked item.
func (a *Aggregator) Tracking() mo.Option[item.ID] {
	return a.itemID
}

// Record appends the delta between counters and the previous snapshot.
// Nothing is recorded while no resource is tracked.
func (a *Aggregator) Record(trigger Trigger, counters Counters) (Entry, bool) {
	id, ok := a.itemID.Get()
	if !ok {
		return Entry{}, false
	}

	now := a.now()
	prev := a.baseline.OrElse(sample{time: now})
	e := Entry{
		ItemID:   id,
		Identity: a.identity,
		Trigger:  trigger,
		Time:     now,
		Interval: now.Sub(prev.time),
		Delta:    counters.Sub(prev.counters),
		Total:    counters,
	}
	a.baseline = mo.Some(sample{time: now, counters: counters})

	a.history = append(a.history, e)
	if over := len(a.history) - a.limit; over > 0 {
		a.history = append([]Entry(nil), a.history[over:]...)
	}
	if a.sink != nil {
		a.sink.Observe(e)
	}
	return e, true
}

// History returns a copy of the delta history, oldest first.
func (a *Aggregator) History() []Entry {
	return append([]Entry(nil), a.history...)
}

// Last returns the most recent entry.
func (a *Aggregator) Last() (Entry, bool) {
	if len(a.history) == 0 {
		return Entry{}, false
	}
	return a.history[len(a.history)-1], true
}
