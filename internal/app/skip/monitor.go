// Package skip provides the monitor that keeps playback out of blocked
// timeline ranges.
package skip

import (
	"time"

	zlog "github.com/rs/zerolog/log"
	"github.com/samber/mo"

	"github.com/osa030/playqueue/internal/domain/item"
	"github.com/osa030/playqueue/internal/domain/timeline"
)

// Skip is a seek the monitor asks for.
type Skip struct {
	ItemID item.ID
	From   time.Duration
	To     time.Duration
	Range  timeline.Range // Unioned blocked range being left
}

// Monitor watches periodic time ticks of the current item. It is owned by
// one executor.
type Monitor struct {
	itemID  mo.Option[item.ID]
	blocked []timeline.Range
	pending mo.Option[Skip]
}

// NewMonitor creates a disabled monitor.
func NewMonitor() *Monitor {
	return &Monitor{}
}

// Reset arms the monitor for an item with the given ranges. Only blocked
// ranges are kept, unioned.
func (m *Monitor) Reset(id item.ID, ranges []timeline.Range) {
	m.itemID = mo.Some(id)
	m.blocked = timeline.Union(timeline.Blocks(ranges))
	m.pending = mo.None[Skip]()
	zlog.Debug().Msgf("skip: armed item_id=%s blocked=%d", id, len(m.blocked))
}

// Disable stops monitoring. Any pending skip is forgotten.
func (m *Monitor) Disable() {
	if m.itemID.IsPresent() {
		zlog.Debug().Msgf("skip: disabled item_id=%s", m.itemID.OrEmpty())
	}
	m.itemID = mo.None[item.ID]()
	m.blocked = nil
	m.pending = mo.None[Skip]()
}

// ItemID returns the monitored item.
func (m *Monitor) ItemID() mo.Option[item.ID] {
	return m.itemID
}

// Active reports whether ticks can trigger skips.
func (m *Monitor) Active() bool {
	return m.itemID.IsPresent() && len(m.blocked) > 0
}

// Blocked returns the unioned blocked ranges.
func (m *Monitor) Blocked() []timeline.Range {
	return append([]timeline.Range(nil), m.blocked...)
}

// Pending returns the skip awaiting seek completion.
func (m *Monitor) Pending() mo.Option[Skip] {
	return m.pending
}

// Tick evaluates a time tick for the monitored item. It returns the skip to
// perform, if the position lies in a blocked range and no skip is in flight.
func (m *Monitor) Tick(id item.ID, position time.Duration) (Skip, bool) {
	if !m.Active() || m.itemID.OrEmpty() != id || m.pending.IsPresent() {
		return Skip{}, false
	}
	r, ok := timeline.Find(m.blocked, position)
	if !ok {
		return Skip{}, false
	}

	s := Skip{ItemID: id, From: position, To: r.End, Range: r}
	m.pending = mo.Some(s)
	zlog.Info().Msgf("skip: leaving blocked range item_id=%s from=%v to=%v", id, position, r.End)
	return s, true
}

// Completed is called when the seek of a skip completed, successfully or
// not. Further ticks may trigger new skips.
func (m *Monitor) Completed(s Skip, finished bool) {
	p, ok := m.pending.Get()
	if !ok || p != s {
		return
	}
	m.pending = mo.None[Skip]()
	if !finished {
		zlog.Debug().Msgf("skip: seek superseded item_id=%s to=%v", s.ItemID, s.To)
	}
}
