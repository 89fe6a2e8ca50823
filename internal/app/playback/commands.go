package playback

import (
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/playqueue/internal/app/metrics"
	"github.com/osa030/playqueue/internal/app/queue"
	"github.com/osa030/playqueue/internal/app/resume"
	"github.com/osa030/playqueue/internal/domain/item"
)

func (p *Player) mutate(name string, fn func() error) error {
	if err := fn(); err != nil {
		return err
	}
	p.dispatch(input{kind: inputContentChanged, command: name})
	return nil
}

func (p *Player) command(name string) {
	p.dispatch(input{kind: inputUserCommand, command: name})
}

// Append adds items to the end of the queue.
func (p *Player) Append(items ...*item.Item) error {
	return p.mutate("append", func() error { return p.queue.Append(items...) })
}

// Prepend adds items to the beginning of the queue.
func (p *Player) Prepend(items ...*item.Item) error {
	return p.mutate("prepend", func() error { return p.queue.Prepend(items...) })
}

// InsertBefore adds items right before the given item.
func (p *Player) InsertBefore(before item.ID, items ...*item.Item) error {
	return p.mutate("insert_before", func() error { return p.queue.InsertBefore(before, items...) })
}

// InsertAfter adds items right after the given item.
func (p *Player) InsertAfter(after item.ID, items ...*item.Item) error {
	return p.mutate("insert_after", func() error { return p.queue.InsertAfter(after, items...) })
}

// Remove removes an item.
func (p *Player) Remove(id item.ID) error {
	return p.mutate("remove", func() error { return p.queue.Remove(id) })
}

// RemoveAll empties the queue.
func (p *Player) RemoveAll() {
	_ = p.mutate("remove_all", func() error {
		p.queue.RemoveAll()
		return nil
	})
}

// Move moves an item to index.
func (p *Player) Move(id item.ID, index int) error {
	return p.mutate("move", func() error { return p.queue.Move(id, index) })
}

// MoveBefore moves an item right before target.
func (p *Player) MoveBefore(id, target item.ID) error {
	return p.mutate("move_before", func() error { return p.queue.MoveBefore(id, target) })
}

// MoveAfter moves an item right after target.
func (p *Player) MoveAfter(id, target item.ID) error {
	return p.mutate("move_after", func() error { return p.queue.MoveAfter(id, target) })
}

// ReplaceCurrent replaces the current item, see queue.Queue.ReplaceCurrent.
func (p *Player) ReplaceCurrent(it *item.Item) error {
	return p.mutate("replace_current", func() error {
		_, err := p.queue.ReplaceCurrent(it)
		return err
	})
}

// SetCurrent makes an item current.
func (p *Player) SetCurrent(id item.ID) error {
	return p.mutate("set_current", func() error { return p.queue.SetCurrent(id) })
}

// UpdateDescriptor replaces the content descriptor of an item. The item is
// resolved again; this is the way to recover a failed item.
func (p *Player) UpdateDescriptor(id item.ID, d item.Descriptor) error {
	return p.mutate("update_descriptor", func() error { return p.queue.UpdateDescriptor(id, d) })
}

// Play starts or resumes playback.
func (p *Player) Play() {
	if !p.playing {
		p.playing = true
		p.deps.Engine.Play()
		p.record(metrics.TriggerPlay)
	}
	p.command("play")
}

// Pause pauses playback.
func (p *Player) Pause() {
	if p.playing {
		p.playing = false
		p.deps.Engine.Pause()
		p.record(metrics.TriggerPause)
	}
	p.command("pause")
}

// TogglePlayPause plays when paused and pauses when playing.
func (p *Player) TogglePlayPause() {
	if p.playing {
		p.Pause()
		return
	}
	p.Play()
}

// IsPlaying reports whether playback is requested.
func (p *Player) IsPlaying() bool {
	return p.playing
}

// CanAdvanceToNext reports whether Next can be called.
func (p *Player) CanAdvanceToNext() bool {
	return p.navigation.CanAdvanceToNext(p.queue, p.repeat)
}

// CanReturnToPrevious reports whether Previous can be called.
func (p *Player) CanReturnToPrevious() bool {
	return p.navigation.CanReturnToPrevious(p.queue, p.repeat, p.position())
}

// Next moves to the next item. Failed items never block navigation.
func (p *Player) Next() error {
	next, ok := p.queue.Next(p.repeat)
	if !ok {
		return ErrNoNextItem
	}
	if p.isCurrent(next.ID()) {
		p.restart()
		p.command("next")
		return nil
	}
	return p.mutate("next", func() error { return p.queue.SetCurrent(next.ID()) })
}

// Previous returns to the previous item, or to the start of the current one
// depending on the navigation mode.
func (p *Player) Previous() error {
	action := p.navigation.ReturnToPrevious(p.queue, p.repeat, p.position())
	zlog.Debug().Msgf("player: previous action=%s", action)
	switch action {
	case queue.PreviousMove:
		prev, _ := p.queue.Previous(p.repeat)
		if p.isCurrent(prev.ID()) {
			p.restart()
			p.command("previous")
			return nil
		}
		return p.mutate("previous", func() error { return p.queue.SetCurrent(prev.ID()) })
	case queue.PreviousSeekToStart:
		start, ok := p.startOf()
		if !ok {
			return ErrNotSeekable
		}
		p.seek(start, nil)
		p.command("previous")
		return nil
	default:
		return ErrNoPreviousItem
	}
}

// CanSeek reports whether the current item can be seeked.
func (p *Player) CanSeek() bool {
	_, ok := p.seekable()
	return ok
}

// Seek seeks the current item, clamped to its seekable window.
func (p *Player) Seek(to time.Duration) error {
	if p.queue.IsEmpty() {
		return ErrNoCurrentItem
	}
	t, ok := p.seekable()
	if !ok {
		return ErrNotSeekable
	}
	p.seek(t.Seekable.Clamp(to), nil)
	p.command("seek")
	return nil
}

// SkipForward seeks forward by the configured interval.
func (p *Player) SkipForward() error {
	return p.skipBy(p.config.SkipForward)
}

// SkipBackward seeks backward by the configured interval.
func (p *Player) SkipBackward() error {
	return p.skipBy(-p.config.SkipBackward)
}

func (p *Player) skipBy(d time.Duration) error {
	if p.queue.IsEmpty() {
		return ErrNoCurrentItem
	}
	t, ok := p.seekable()
	if !ok {
		return ErrNotSeekable
	}
	return p.Seek(t.Position + d)
}

// Resume plays item from position. It is a no-op when the item is not queued.
// Otherwise the item becomes current and position is applied once the engine
// reports it ready, unless the item is already current and ready in which
// case the seek is immediate.
func (p *Player) Resume(position resume.Position, id item.ID) {
	target := resume.Target{Queued: p.queue.Contains(id), Current: p.isCurrent(id)}
	if it, _, ok := p.currentReady(); ok && it.ID() == id {
		target.Ready = true
		if t, ok := p.seekable(); ok {
			target.Seekable = t.Seekable
		}
	}

	action, at := resume.Decide(target, position)
	zlog.Debug().Msgf("player: resume item_id=%s position=%s action=%s", id, position, action)
	switch action {
	case resume.ActionSeek:
		p.seek(at, nil)
		p.command("resume")
	case resume.ActionDefer:
		p.resume.Store(resume.Request{ItemID: id, Position: position})
		_ = p.mutate("resume", func() error { return p.queue.SetCurrent(id) })
	}
}

// SetSpeed requests a playback speed. It is clamped to the range allowed by
// the current item.
func (p *Player) SetSpeed(v float64) error {
	if v <= 0 {
		return errors.Wrapf(ErrInvalidSpeed, "%g", v)
	}
	p.speed.Request(v)
	p.command("set_speed")
	return nil
}

// SetRepeat sets the repeat mode.
func (p *Player) SetRepeat(mode queue.RepeatMode) {
	p.repeat = mode
	p.command("set_repeat")
}
