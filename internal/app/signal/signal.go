// Package signal provides broadcast values that replay their latest value to
// new subscribers.
package signal

import (
	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

// subscription represents a subscriber's subscription.
type subscription[T any] struct {
	id string
	fn func(T)
}

// Value holds the latest value of a derived property and delivers changes to
// subscribers. A Value is owned by one executor: Set, Subscribe and
// Unsubscribe must all be called from it.
type Value[T any] struct {
	name          string
	current       T
	equal         func(a, b T) bool
	subscriptions []subscription[T]
}

// New creates a value. equal decides whether a Set is a change; nil means
// every Set publishes.
func New[T any](name string, initial T, equal func(a, b T) bool) *Value[T] {
	return &Value[T]{
		name:    name,
		current: initial,
		equal:   equal,
	}
}

// NewComparable creates a value for a comparable type.
func NewComparable[T comparable](name string, initial T) *Value[T] {
	return New(name, initial, func(a, b T) bool { return a == b })
}

// Name returns the value name.
func (v *Value[T]) Name() string {
	return v.name
}

// Get returns the latest value.
func (v *Value[T]) Get() T {
	return v.current
}

// Set stores x and publishes it if it differs from the latest value.
// Returns true if subscribers were notified.
func (v *Value[T]) Set(x T) bool {
	if v.equal != nil && v.equal(v.current, x) {
		return false
	}
	v.current = x

	// Copy so subscribers may unsubscribe during delivery
	subs := append([]subscription[T](nil), v.subscriptions...)
	zlog.Trace().Msgf("signal: publish name=%s subscribers=%d", v.name, len(subs))
	for _, s := range subs {
		s.fn(x)
	}
	return true
}

// Subscribe registers fn and immediately delivers the latest value to it.
// Returns the subscription ID.
func (v *Value[T]) Subscribe(fn func(T)) string {
	id := uuid.New().String()
	v.subscriptions = append(v.subscriptions, subscription[T]{id: id, fn: fn})
	fn(v.current)
	return id
}

// Watch registers fn to be called on every change, without the value.
func (v *Value[T]) Watch(fn func()) string {
	return v.Subscribe(func(T) { fn() })
}

// Unsubscribe removes a subscription.
func (v *Value[T]) Unsubscribe(id string) {
	v.subscriptions = lo.Filter(v.subscriptions, func(s subscription[T], _ int) bool {
		return s.id != id
	})
}

// SubscriberCount returns the number of active subscribers.
func (v *Value[T]) SubscriberCount() int {
	return len(v.subscriptions)
}
