// Package queue provides the ordered item collection with its current
// pointer, and the navigation policies working on it.
package queue

import (
	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"github.com/samber/mo"

	"github.com/osa030/playqueue/internal/domain/item"
)

// Errors
var (
	ErrItemNotFound  = errors.New("item not in queue")
	ErrDuplicateItem = errors.New("item already in queue")
	ErrNilItem       = errors.New("nil item")
)

// Queue is an arena of items keyed by ID plus their explicit order.
// The current pointer is set iff the queue is not empty.
type Queue struct {
	items   map[item.ID]*item.Item
	order   []item.ID
	current mo.Option[item.ID]
	err     error
}

// New creates a queue seeded with items. The first item becomes current.
func New(items ...*item.Item) (*Queue, error) {
	q := &Queue{
		items:   make(map[item.ID]*item.Item),
		order:   make([]item.ID, 0, len(items)),
		current: mo.None[item.ID](),
	}
	if err := q.Append(items...); err != nil {
		return nil, err
	}
	return q, nil
}

// Len returns the number of items.
func (q *Queue) Len() int {
	return len(q.order)
}

// IsEmpty returns true if the queue has no items.
func (q *Queue) IsEmpty() bool {
	return len(q.order) == 0
}

// IDs returns a copy of the ordered item IDs.
func (q *Queue) IDs() []item.ID {
	return append([]item.ID(nil), q.order...)
}

// Items returns the items in order.
func (q *Queue) Items() []*item.Item {
	return lo.Map(q.order, func(id item.ID, _ int) *item.Item { return q.items[id] })
}

// Get returns the item with the given ID.
func (q *Queue) Get(id item.ID) (*item.Item, bool) {
	it, ok := q.items[id]
	return it, ok
}

// Contains reports whether an item with the given ID is queued.
func (q *Queue) Contains(id item.ID) bool {
	_, ok := q.items[id]
	return ok
}

// IndexOf returns the position of id, or -1.
func (q *Queue) IndexOf(id item.ID) int {
	return lo.IndexOf(q.order, id)
}

// At returns the item at index i.
func (q *Queue) At(i int) (*item.Item, bool) {
	if i < 0 || i >= len(q.order) {
		return nil, false
	}
	return q.items[q.order[i]], true
}

// Current returns the current item.
func (q *Queue) Current() (*item.Item, bool) {
	id, ok := q.current.Get()
	if !ok {
		return nil, false
	}
	return q.items[id], true
}

// CurrentID returns the current item ID.
func (q *Queue) CurrentID() mo.Option[item.ID] {
	return q.current
}

// CurrentIndex returns the position of the current item.
func (q *Queue) CurrentIndex() mo.Option[int] {
	id, ok := q.current.Get()
	if !ok {
		return mo.None[int]()
	}
	return mo.Some(q.IndexOf(id))
}

// Err returns the aggregate error.
func (q *Queue) Err() error {
	return q.err
}

// SetErr sets the aggregate error.
func (q *Queue) SetErr(err error) {
	q.err = err
}

// ClearErr clears the aggregate error.
func (q *Queue) ClearErr() {
	q.err = nil
}

// Append adds items to the end of the queue.
func (q *Queue) Append(items ...*item.Item) error {
	return q.insertAt(len(q.order), items)
}

// Prepend adds items to the beginning of the queue.
func (q *Queue) Prepend(items ...*item.Item) error {
	return q.insertAt(0, items)
}

// InsertBefore adds items right before the item with the given ID.
func (q *Queue) InsertBefore(before item.ID, items ...*item.Item) error {
	i := q.IndexOf(before)
	if i < 0 {
		return errors.Wrapf(ErrItemNotFound, "insert before %s", before)
	}
	return q.insertAt(i, items)
}

// InsertAfter adds items right after the item with the given ID.
func (q *Queue) InsertAfter(after item.ID, items ...*item.Item) error {
	i := q.IndexOf(after)
	if i < 0 {
		return errors.Wrapf(ErrItemNotFound, "insert after %s", after)
	}
	return q.insertAt(i+1, items)
}

func (q *Queue) insertAt(index int, items []*item.Item) error {
	if len(items) == 0 {
		return nil
	}

	seen := make(map[item.ID]bool, len(items))
	for _, it := range items {
		if it == nil {
			return ErrNilItem
		}
		if q.Contains(it.ID()) || seen[it.ID()] {
			return errors.Wrapf(ErrDuplicateItem, "item %s", it.ID())
		}
		seen[it.ID()] = true
	}

	ids := lo.Map(items, func(it *item.Item, _ int) item.ID { return it.ID() })
	order := make([]item.ID, 0, len(q.order)+len(ids))
	order = append(order, q.order[:index]...)
	order = append(order, ids...)
	order = append(order, q.order[index:]...)
	q.order = order
	for _, it := range items {
		q.items[it.ID()] = it
	}

	if q.current.IsAbsent() {
		q.current = mo.Some(q.order[0])
	}
	zlog.Debug().Msgf("queue: inserted items: count=%d index=%d len=%d", len(items), index, len(q.order))
	return nil
}

// Remove removes the item with the given ID. Removing the current item moves
// the pointer to the following item, or to the new last item.
func (q *Queue) Remove(id item.ID) error {
	i := q.IndexOf(id)
	if i < 0 {
		return errors.Wrapf(ErrItemNotFound, "remove %s", id)
	}

	q.order = append(q.order[:i:i], q.order[i+1:]...)
	delete(q.items, id)

	if cur, ok := q.current.Get(); ok && cur == id {
		switch {
		case len(q.order) == 0:
			q.current = mo.None[item.ID]()
		case i < len(q.order):
			q.current = mo.Some(q.order[i])
		default:
			q.current = mo.Some(q.order[len(q.order)-1])
		}
	}
	if len(q.order) == 0 {
		q.err = nil
	}
	zlog.Debug().Msgf("queue: removed item: item_id=%s len=%d", id, len(q.order))
	return nil
}

// RemoveAll empties the queue and clears the aggregate error.
func (q *Queue) RemoveAll() []*item.Item {
	removed := q.Items()
	q.items = make(map[item.ID]*item.Item)
	q.order = q.order[:0]
	q.current = mo.None[item.ID]()
	q.err = nil
	return removed
}

// Move moves the item with the given ID to index (clamped to the queue
// bounds, expressed in the order after removal of the moved item).
func (q *Queue) Move(id item.ID, index int) error {
	i := q.IndexOf(id)
	if i < 0 {
		return errors.Wrapf(ErrItemNotFound, "move %s", id)
	}
	rest := append(q.order[:i:i], q.order[i+1:]...)
	index = lo.Clamp(index, 0, len(rest))

	order := make([]item.ID, 0, len(q.order))
	order = append(order, rest[:index]...)
	order = append(order, id)
	order = append(order, rest[index:]...)
	q.order = order
	return nil
}

// MoveBefore moves the item with the given ID right before target.
func (q *Queue) MoveBefore(id, target item.ID) error {
	if id == target {
		return nil
	}
	if !q.Contains(target) {
		return errors.Wrapf(ErrItemNotFound, "move before %s", target)
	}
	if !q.Contains(id) {
		return errors.Wrapf(ErrItemNotFound, "move %s", id)
	}
	rest := lo.Without(q.order, id)
	return q.Move(id, lo.IndexOf(rest, target))
}

// MoveAfter moves the item with the given ID right after target.
func (q *Queue) MoveAfter(id, target item.ID) error {
	if id == target {
		return nil
	}
	if !q.Contains(target) {
		return errors.Wrapf(ErrItemNotFound, "move after %s", target)
	}
	if !q.Contains(id) {
		return errors.Wrapf(ErrItemNotFound, "move %s", id)
	}
	rest := lo.Without(q.order, id)
	return q.Move(id, lo.IndexOf(rest, target)+1)
}

// SetCurrent moves the current pointer to the item with the given ID.
func (q *Queue) SetCurrent(id item.ID) error {
	if !q.Contains(id) {
		return errors.Wrapf(ErrItemNotFound, "set current %s", id)
	}
	q.current = mo.Some(id)
	return nil
}

// ReplaceCurrent replaces the current item with it. An item not yet queued
// takes the place of the current one, which is removed. An already queued
// item simply becomes current. Returns true when the pointer was re-targeted
// to an existing item.
func (q *Queue) ReplaceCurrent(it *item.Item) (bool, error) {
	if it == nil {
		return false, ErrNilItem
	}
	if q.Contains(it.ID()) {
		q.current = mo.Some(it.ID())
		return true, nil
	}

	cur, ok := q.current.Get()
	if !ok {
		return false, q.Append(it)
	}
	i := q.IndexOf(cur)
	delete(q.items, cur)
	q.order[i] = it.ID()
	q.items[it.ID()] = it
	q.current = mo.Some(it.ID())
	zlog.Debug().Msgf("queue: substituted current item: old=%s new=%s index=%d", cur, it.ID(), i)
	return false, nil
}

// UpdateDescriptor replaces the content descriptor of the item in place.
func (q *Queue) UpdateDescriptor(id item.ID, d item.Descriptor) error {
	it, ok := q.items[id]
	if !ok {
		return errors.Wrapf(ErrItemNotFound, "update %s", id)
	}
	it.SetDescriptor(d)
	return nil
}
