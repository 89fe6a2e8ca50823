package queue

import "github.com/osa030/playqueue/internal/domain/item"

// Window returns the current item followed by at most length-1 downstream
// items, in playback order. Repeat one limits the window to the current item;
// repeat all wraps around without ever repeating the current item.
func (q *Queue) Window(repeat RepeatMode, length int) []*item.Item {
	cur, ok := q.CurrentIndex().Get()
	if !ok {
		return nil
	}
	return q.WindowAt(cur, repeat, length)
}

// WindowAt is Window with the item at index as head.
func (q *Queue) WindowAt(index int, repeat RepeatMode, length int) []*item.Item {
	head, ok := q.At(index)
	if !ok || length <= 0 {
		return nil
	}

	window := []*item.Item{head}
	if repeat == RepeatOne {
		return window
	}

	i := index
	for len(window) < length {
		next, ok := NextIndex(i, q.Len(), repeat).Get()
		if !ok || next == index {
			break
		}
		it, _ := q.At(next)
		window = append(window, it)
		i = next
	}
	return window
}
