package queue

import (
	"time"

	"github.com/samber/mo"

	"github.com/osa030/playqueue/internal/domain/item"
	"github.com/osa030/playqueue/internal/domain/timeline"
)

// RepeatMode controls wrap-around at the ends of the queue.
type RepeatMode int

const (
	RepeatOff RepeatMode = iota // Stop at the ends
	RepeatOne                   // Loop the current item
	RepeatAll                   // Wrap to the opposite end
)

// String returns the string representation of the repeat mode.
func (m RepeatMode) String() string {
	switch m {
	case RepeatOne:
		return "one"
	case RepeatAll:
		return "all"
	default:
		return "off"
	}
}

// ParseRepeatMode parses a repeat mode name.
func ParseRepeatMode(s string) (RepeatMode, bool) {
	switch s {
	case "off", "":
		return RepeatOff, true
	case "one":
		return RepeatOne, true
	case "all":
		return RepeatAll, true
	default:
		return RepeatOff, false
	}
}

// NextIndex returns the index following current in a sequence of count items.
func NextIndex(current, count int, mode RepeatMode) mo.Option[int] {
	if count == 0 || current < 0 || current >= count {
		return mo.None[int]()
	}
	if current+1 < count {
		return mo.Some(current + 1)
	}
	if mode == RepeatAll {
		return mo.Some(0)
	}
	return mo.None[int]()
}

// PreviousIndex returns the index preceding current in a sequence of count items.
func PreviousIndex(current, count int, mode RepeatMode) mo.Option[int] {
	if count == 0 || current < 0 || current >= count {
		return mo.None[int]()
	}
	if current > 0 {
		return mo.Some(current - 1)
	}
	if mode == RepeatAll {
		return mo.Some(count - 1)
	}
	return mo.None[int]()
}

// Next returns the item following the current one.
func (q *Queue) Next(mode RepeatMode) (*item.Item, bool) {
	return q.neighbor(mode, NextIndex)
}

// Previous returns the item preceding the current one.
func (q *Queue) Previous(mode RepeatMode) (*item.Item, bool) {
	return q.neighbor(mode, PreviousIndex)
}

func (q *Queue) neighbor(mode RepeatMode, fn func(int, int, RepeatMode) mo.Option[int]) (*item.Item, bool) {
	cur, ok := q.CurrentIndex().Get()
	if !ok {
		return nil, false
	}
	i, ok := fn(cur, q.Len(), mode).Get()
	if !ok {
		return nil, false
	}
	return q.At(i)
}

// NavigationMode selects how "previous" behaves.
type NavigationMode int

const (
	NavigationImmediate NavigationMode = iota // Always move the pointer
	NavigationSmart                           // Seek to start once past a threshold
)

// String returns the string representation of the navigation mode.
func (m NavigationMode) String() string {
	if m == NavigationSmart {
		return "smart"
	}
	return "immediate"
}

// ParseNavigationMode parses a navigation mode name.
func ParseNavigationMode(s string) (NavigationMode, bool) {
	switch s {
	case "immediate", "":
		return NavigationImmediate, true
	case "smart":
		return NavigationSmart, true
	default:
		return NavigationImmediate, false
	}
}

// Position describes where playback of the current item stands.
type Position struct {
	Classification timeline.Classification
	Elapsed        time.Duration // Time since the start of the seekable window
}

// PreviousAction is the outcome of returning to the previous item.
type PreviousAction int

const (
	PreviousNone        PreviousAction = iota // Nothing to do
	PreviousMove                              // Move the pointer to the previous item
	PreviousSeekToStart                       // Seek the current item to its start
)

// String returns the string representation of the action.
func (a PreviousAction) String() string {
	switch a {
	case PreviousMove:
		return "move"
	case PreviousSeekToStart:
		return "seek_to_start"
	default:
		return "none"
	}
}

// Navigation evaluates previous/next reachability for a queue.
type Navigation struct {
	Mode      NavigationMode
	Threshold time.Duration // Smart mode: elapsed time from which previous seeks to start
}

// CanAdvanceToNext reports whether a next item is reachable.
func (n Navigation) CanAdvanceToNext(q *Queue, repeat RepeatMode) bool {
	_, ok := q.Next(repeat)
	return ok
}

// CanReturnToPrevious reports whether the previous command is enabled.
func (n Navigation) CanReturnToPrevious(q *Queue, repeat RepeatMode, pos Position) bool {
	if q.IsEmpty() {
		return false
	}
	_, hasPrevious := q.Previous(repeat)
	if n.Mode == NavigationImmediate {
		return hasPrevious
	}

	switch pos.Classification {
	case timeline.OnDemand, timeline.DVR:
		return true
	default:
		return hasPrevious
	}
}

// ReturnToPrevious decides what the previous command does.
func (n Navigation) ReturnToPrevious(q *Queue, repeat RepeatMode, pos Position) PreviousAction {
	if !n.CanReturnToPrevious(q, repeat, pos) {
		return PreviousNone
	}
	_, hasPrevious := q.Previous(repeat)
	if n.Mode == NavigationImmediate {
		return PreviousMove
	}

	nearStart := pos.Classification != timeline.OnDemand || pos.Elapsed < n.Threshold
	if hasPrevious && nearStart {
		return PreviousMove
	}
	return PreviousSeekToStart
}
