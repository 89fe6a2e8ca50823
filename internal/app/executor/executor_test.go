package executor

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManual_DrainRunsInOrder(t *testing.T) {
	m := NewManual()
	var order []int

	m.Post(func() { order = append(order, 1) })
	m.Post(func() {
		order = append(order, 2)
		m.Post(func() { order = append(order, 4) })
	})
	m.Post(func() { order = append(order, 3) })

	assert.Equal(t, 3, m.Pending())
	assert.Equal(t, 4, m.Drain())
	assert.Equal(t, []int{1, 2, 3, 4}, order)
	assert.Equal(t, 0, m.Pending())
}

func TestLoop_CallRunsOnLoop(t *testing.T) {
	l := NewLoop()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = l.Run(ctx) }()

	var counter int64
	for i := 0; i < 100; i++ {
		go l.Post(func() { atomic.AddInt64(&counter, 1) })
	}

	var seen int64
	require.Eventually(t, func() bool {
		_ = l.Call(ctx, func() { seen = atomic.LoadInt64(&counter) })
		return seen == 100
	}, time.Second, 10*time.Millisecond)
}

func TestLoop_SurvivesPanics(t *testing.T) {
	l := NewLoop()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = l.Run(ctx) }()

	l.Post(func() { panic("boom") })

	ran := false
	require.NoError(t, l.Call(ctx, func() { ran = true }))
	assert.True(t, ran)
}

func TestLoop_CallAfterStop(t *testing.T) {
	l := NewLoop()
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = l.Run(ctx) }()
	cancel()
	<-l.Done()

	err := l.Call(context.Background(), func() {})
	assert.ErrorIs(t, err, ErrStopped)
}
