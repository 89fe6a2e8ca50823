// Package resume provides one-shot start position overrides for queued items.
package resume

import (
	"time"

	zlog "github.com/rs/zerolog/log"
	"github.com/samber/mo"

	"github.com/osa030/playqueue/internal/domain/item"
	"github.com/osa030/playqueue/internal/domain/timeline"
)

// Position is an explicit time or the default marker. The default position
// is the start for on-demand content and the live edge otherwise.
type Position struct {
	at mo.Option[time.Duration]
}

// At returns an explicit position.
func At(d time.Duration) Position {
	return Position{at: mo.Some(d)}
}

// Default returns the default marker.
func Default() Position {
	return Position{at: mo.None[time.Duration]()}
}

// Time returns the explicit time, if any.
func (p Position) Time() (time.Duration, bool) {
	return p.at.Get()
}

// IsDefault reports whether p is the default marker.
func (p Position) IsDefault() bool {
	return p.at.IsAbsent()
}

// String returns the string representation of the position.
func (p Position) String() string {
	if d, ok := p.at.Get(); ok {
		return d.String()
	}
	return "default"
}

// Request is a pending resume for an item.
type Request struct {
	ItemID   item.ID
	Position Position
}

// Action is what a resume request requires from the caller.
type Action int

const (
	ActionNone  Action = iota // Nothing to do
	ActionSeek                // Seek the current item now
	ActionDefer               // Make the item current and apply when ready
)

// String returns the string representation of the action.
func (a Action) String() string {
	switch a {
	case ActionSeek:
		return "seek"
	case ActionDefer:
		return "defer"
	default:
		return "none"
	}
}

// Target describes the requested item at the time of the request.
type Target struct {
	Queued   bool
	Current  bool
	Ready    bool
	Seekable timeline.Window // Seekable window of the item when current and ready
}

// Decide returns the action for a resume request at p against target, and
// the seek time for ActionSeek.
func Decide(target Target, p Position) (Action, time.Duration) {
	if !target.Queued {
		return ActionNone, 0
	}
	if !target.Current || !target.Ready {
		return ActionDefer, 0
	}
	at, ok := p.Time()
	if !ok {
		return ActionNone, 0
	}
	if target.Seekable.Contains(at) {
		return ActionSeek, at
	}
	if target.Seekable.IsEmpty() {
		return ActionNone, 0
	}
	return ActionSeek, target.Seekable.Clamp(at)
}

// Injector holds at most one pending request. It is owned by one executor.
type Injector struct {
	pending mo.Option[Request]
}

// NewInjector creates an injector without pending request.
func NewInjector() *Injector {
	return &Injector{}
}

// Store records r, superseding any pending request.
func (in *Injector) Store(r Request) {
	if old, ok := in.pending.Get(); ok {
		zlog.Debug().Msgf("resume: superseded item_id=%s position=%s", old.ItemID, old.Position)
	}
	in.pending = mo.Some(r)
	zlog.Debug().Msgf("resume: stored item_id=%s position=%s", r.ItemID, r.Position)
}

// Pending returns the pending request.
func (in *Injector) Pending() mo.Option[Request] {
	return in.pending
}

// CurrentChanged discards the pending request unless id is its target.
func (in *Injector) CurrentChanged(id mo.Option[item.ID]) {
	r, ok := in.pending.Get()
	if !ok {
		return
	}
	if cur, ok := id.Get(); ok && cur == r.ItemID {
		return
	}
	zlog.Debug().Msgf("resume: discarded item_id=%s position=%s", r.ItemID, r.Position)
	in.pending = mo.None[Request]()
}

// Ready consumes the pending request if it targets id. The returned position
// is applied exactly once.
func (in *Injector) Ready(id item.ID) (Position, bool) {
	r, ok := in.pending.Get()
	if !ok || r.ItemID != id {
		return Position{}, false
	}
	in.pending = mo.None[Request]()
	zlog.Debug().Msgf("resume: applied item_id=%s position=%s", id, r.Position)
	return r.Position, true
}

// Discard drops any pending request.
func (in *Injector) Discard() {
	in.pending = mo.None[Request]()
}
