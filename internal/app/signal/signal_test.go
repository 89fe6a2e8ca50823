package signal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValue_ReplaysLatestOnSubscribe(t *testing.T) {
	v := NewComparable("speed", 1.0)
	v.Set(1.5)

	var received []float64
	v.Subscribe(func(x float64) { received = append(received, x) })

	assert.Equal(t, []float64{1.5}, received)
}

func TestValue_PublishesOnlyChanges(t *testing.T) {
	v := NewComparable("index", 0)

	var received []int
	v.Subscribe(func(x int) { received = append(received, x) })

	assert.False(t, v.Set(0))
	assert.True(t, v.Set(1))
	assert.False(t, v.Set(1))
	assert.True(t, v.Set(2))

	assert.Equal(t, []int{0, 1, 2}, received)
	assert.Equal(t, 2, v.Get())
}

func TestValue_NilEqualAlwaysPublishes(t *testing.T) {
	v := New[[]string]("items", nil, nil)

	count := 0
	v.Subscribe(func([]string) { count++ })
	v.Set([]string{"a"})
	v.Set([]string{"a"})

	assert.Equal(t, 3, count)
}

func TestValue_Unsubscribe(t *testing.T) {
	v := NewComparable("state", "idle")

	var a, b []string
	idA := v.Subscribe(func(s string) { a = append(a, s) })
	v.Subscribe(func(s string) { b = append(b, s) })
	assert.Equal(t, 2, v.SubscriberCount())

	v.Unsubscribe(idA)
	v.Set("playing")

	assert.Equal(t, []string{"idle"}, a)
	assert.Equal(t, []string{"idle", "playing"}, b)
	assert.Equal(t, 1, v.SubscriberCount())
}

func TestValue_UnsubscribeDuringDelivery(t *testing.T) {
	v := NewComparable("n", 0)

	var id string
	calls := 0
	id = v.Subscribe(func(x int) {
		calls++
		if x == 1 {
			v.Unsubscribe(id)
		}
	})

	v.Set(1)
	v.Set(2)
	assert.Equal(t, 2, calls)
}

func TestValue_Watch(t *testing.T) {
	v := NewComparable("watched", 1)
	calls := 0
	id := v.Watch(func() { calls++ })
	assert.Equal(t, 1, calls)

	v.Set(1)
	v.Set(2)
	assert.Equal(t, 2, calls)

	v.Unsubscribe(id)
	v.Set(3)
	assert.Equal(t, 2, calls)
}
