package queue

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/playqueue/internal/domain/item"
)

func newItems(ids ...string) []*item.Item {
	items := make([]*item.Item, 0, len(ids))
	for _, id := range ids {
		items = append(items, item.NewWithID(item.ID(id), item.Descriptor{Kind: "static", Locator: id, Title: id}))
	}
	return items
}

func newQueue(t *testing.T, ids ...string) *Queue {
	t.Helper()
	q, err := New(newItems(ids...)...)
	require.NoError(t, err)
	return q
}

func currentID(q *Queue) string {
	id, ok := q.CurrentID().Get()
	if !ok {
		return ""
	}
	return string(id)
}

func ids(q *Queue) []string {
	out := []string{}
	for _, id := range q.IDs() {
		out = append(out, string(id))
	}
	return out
}

func TestNew(t *testing.T) {
	t.Run("empty queue has no current", func(t *testing.T) {
		q := newQueue(t)
		assert.True(t, q.IsEmpty())
		assert.True(t, q.CurrentIndex().IsAbsent())
		_, ok := q.Current()
		assert.False(t, ok)
	})

	t.Run("first item becomes current", func(t *testing.T) {
		q := newQueue(t, "a", "b")
		assert.Equal(t, "a", currentID(q))
		assert.Equal(t, 0, q.CurrentIndex().MustGet())
	})

	t.Run("duplicate ids rejected", func(t *testing.T) {
		_, err := New(newItems("a", "a")...)
		assert.True(t, errors.Is(err, ErrDuplicateItem))
	})
}

func TestQueue_Insert(t *testing.T) {
	tests := []struct {
		name     string
		op       func(q *Queue) error
		expected []string
		current  string
	}{
		{
			name:     "append",
			op:       func(q *Queue) error { return q.Append(newItems("x", "y")...) },
			expected: []string{"a", "b", "x", "y"},
			current:  "a",
		},
		{
			name:     "prepend keeps current",
			op:       func(q *Queue) error { return q.Prepend(newItems("x")...) },
			expected: []string{"x", "a", "b"},
			current:  "a",
		},
		{
			name:     "insert before",
			op:       func(q *Queue) error { return q.InsertBefore("b", newItems("x")...) },
			expected: []string{"a", "x", "b"},
			current:  "a",
		},
		{
			name:     "insert after",
			op:       func(q *Queue) error { return q.InsertAfter("b", newItems("x")...) },
			expected: []string{"a", "b", "x"},
			current:  "a",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := newQueue(t, "a", "b")
			require.NoError(t, tt.op(q))
			assert.Equal(t, tt.expected, ids(q))
			assert.Equal(t, tt.current, currentID(q))
		})
	}
}

func TestQueue_InsertErrors(t *testing.T) {
	q := newQueue(t, "a", "b")

	err := q.Append(newItems("b")...)
	assert.True(t, errors.Is(err, ErrDuplicateItem))

	err = q.InsertAfter("missing", newItems("x")...)
	assert.True(t, errors.Is(err, ErrItemNotFound))

	err = q.Append(nil)
	assert.True(t, errors.Is(err, ErrNilItem))

	assert.Equal(t, []string{"a", "b"}, ids(q), "failed inserts leave the queue untouched")
}

func TestQueue_Remove(t *testing.T) {
	tests := []struct {
		name     string
		current  string
		remove   string
		expected string
	}{
		{name: "non-current keeps pointer", current: "a", remove: "b", expected: "a"},
		{name: "current moves to next", current: "b", remove: "b", expected: "c"},
		{name: "current last moves to new last", current: "c", remove: "c", expected: "b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := newQueue(t, "a", "b", "c")
			require.NoError(t, q.SetCurrent(item.ID(tt.current)))
			require.NoError(t, q.Remove(item.ID(tt.remove)))
			assert.Equal(t, tt.expected, currentID(q))
			assert.False(t, q.Contains(item.ID(tt.remove)))
		})
	}

	t.Run("unknown item", func(t *testing.T) {
		q := newQueue(t, "a")
		assert.True(t, errors.Is(q.Remove("x"), ErrItemNotFound))
	})
}

func TestQueue_CurrentNilIffEmpty(t *testing.T) {
	q := newQueue(t)
	check := func() {
		assert.Equal(t, q.IsEmpty(), q.CurrentIndex().IsAbsent())
	}

	check()
	require.NoError(t, q.Append(newItems("a", "b", "c")...))
	check()
	require.NoError(t, q.Remove("a"))
	check()
	require.NoError(t, q.Move("c", 0))
	check()
	require.NoError(t, q.Remove("b"))
	check()
	require.NoError(t, q.Remove("c"))
	check()
	require.NoError(t, q.Prepend(newItems("d")...))
	check()
	q.RemoveAll()
	check()
}

func TestQueue_RemoveLastClearsError(t *testing.T) {
	q := newQueue(t, "a")
	q.SetErr(errors.New("boom"))
	require.NoError(t, q.Remove("a"))
	assert.NoError(t, q.Err())

	q = newQueue(t, "a", "b")
	q.SetErr(errors.New("boom"))
	q.RemoveAll()
	assert.NoError(t, q.Err())
	assert.True(t, q.IsEmpty())
}

func TestQueue_Move(t *testing.T) {
	q := newQueue(t, "a", "b", "c", "d")

	require.NoError(t, q.Move("a", 10))
	assert.Equal(t, []string{"b", "c", "d", "a"}, ids(q))

	require.NoError(t, q.MoveBefore("d", "b"))
	assert.Equal(t, []string{"d", "b", "c", "a"}, ids(q))

	require.NoError(t, q.MoveAfter("d", "c"))
	assert.Equal(t, []string{"b", "c", "d", "a"}, ids(q))

	require.NoError(t, q.MoveAfter("b", "b"))
	assert.Equal(t, []string{"b", "c", "d", "a"}, ids(q))

	assert.Equal(t, "a", currentID(q), "moving does not change the current item")
	assert.True(t, errors.Is(q.MoveBefore("x", "b"), ErrItemNotFound))
	assert.True(t, errors.Is(q.MoveAfter("b", "x"), ErrItemNotFound))
}

func TestQueue_ReplaceCurrent(t *testing.T) {
	t.Run("absent item substituted in place", func(t *testing.T) {
		q := newQueue(t, "a", "b", "c")
		require.NoError(t, q.SetCurrent("b"))

		retargeted, err := q.ReplaceCurrent(newItems("x")[0])
		require.NoError(t, err)
		assert.False(t, retargeted)
		assert.Equal(t, []string{"a", "x", "c"}, ids(q))
		assert.Equal(t, "x", currentID(q))
		assert.False(t, q.Contains("b"))
	})

	t.Run("present item re-targets current", func(t *testing.T) {
		q := newQueue(t, "a", "b", "c")
		c, _ := q.Get("c")

		retargeted, err := q.ReplaceCurrent(c)
		require.NoError(t, err)
		assert.True(t, retargeted)
		assert.Equal(t, []string{"a", "b", "c"}, ids(q))
		assert.Equal(t, "c", currentID(q))
	})

	t.Run("empty queue appends", func(t *testing.T) {
		q := newQueue(t)
		_, err := q.ReplaceCurrent(newItems("x")[0])
		require.NoError(t, err)
		assert.Equal(t, "x", currentID(q))
	})
}

func TestQueue_UpdateDescriptor(t *testing.T) {
	q := newQueue(t, "a")
	it, _ := q.Get("a")
	gen := it.Generation()

	require.NoError(t, q.UpdateDescriptor("a", item.Descriptor{Kind: "static", Locator: "a2", Title: "A2"}))
	assert.Equal(t, "A2", it.Title())
	assert.Equal(t, gen+1, it.Generation())
	assert.Equal(t, item.StatusUnresolved, it.Status())

	assert.True(t, errors.Is(q.UpdateDescriptor("x", item.Descriptor{}), ErrItemNotFound))
}
