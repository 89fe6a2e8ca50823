package simengine

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/playqueue/internal/app/executor"
	"github.com/osa030/playqueue/internal/app/playback"
	"github.com/osa030/playqueue/internal/app/queue"
	"github.com/osa030/playqueue/internal/app/resolver"
	"github.com/osa030/playqueue/internal/domain/item"
	"github.com/osa030/playqueue/internal/domain/timeline"
	"github.com/osa030/playqueue/internal/infra/config"
)

type recorder struct {
	signals []playback.Signal
}

func (r *recorder) record(s playback.Signal) {
	r.signals = append(r.signals, s)
}

func (r *recorder) statuses() []string {
	var out []string
	for _, s := range r.signals {
		switch s.Kind {
		case playback.SignalCurrentChanged:
			out = append(out, "current:"+string(s.ItemID))
		case playback.SignalStatus:
			out = append(out, s.Status.String()+":"+string(s.ItemID))
		}
	}
	return out
}

func (r *recorder) lastTime() playback.TimeInfo {
	for i := len(r.signals) - 1; i >= 0; i-- {
		if r.signals[i].Kind == playback.SignalTime {
			return r.signals[i].Time
		}
	}
	return playback.TimeInfo{}
}

func onDemand(id string, d time.Duration) playback.EngineItem {
	return playback.EngineItem{ItemID: item.ID(id), Resource: &item.Resource{
		Identity:       id + "-1",
		Classification: timeline.OnDemand,
		Duration:       d,
	}}
}

func newEngine(t *testing.T, latency time.Duration) (*Engine, *recorder) {
	t.Helper()
	e := New(Config{TickInterval: time.Second, LoadLatency: latency})
	r := &recorder{}
	cancel := e.Subscribe(r.record)
	t.Cleanup(cancel)
	e.Play()
	return e, r
}

func TestEngine_LoadAndPlay(t *testing.T) {
	e, r := newEngine(t, 2*time.Second)
	e.SetItems([]playback.EngineItem{onDemand("a", 3*time.Second), onDemand("b", 10*time.Second)})

	id, ok := e.CurrentItem()
	require.True(t, ok)
	assert.Equal(t, item.ID("a"), id)
	assert.Equal(t, []string{"current:a", "loading:a"}, r.statuses())

	e.Advance(time.Second)
	assert.Equal(t, []string{"current:a", "loading:a"}, r.statuses(), "still loading")

	e.Advance(time.Second)
	assert.Equal(t, []string{"current:a", "loading:a", "ready:a"}, r.statuses())
	assert.Equal(t, time.Second, r.lastTime().Position)

	e.Advance(time.Second)
	e.Advance(time.Second)
	assert.Equal(t, []string{"current:a", "loading:a", "ready:a", "ended:a", "current:b", "loading:b"}, r.statuses())

	id, _ = e.CurrentItem()
	assert.Equal(t, item.ID("b"), id)
}

func TestEngine_KeepsCurrentWithSameIdentity(t *testing.T) {
	e, r := newEngine(t, 0)
	a := onDemand("a", time.Minute)
	e.SetItems([]playback.EngineItem{a})
	e.Advance(5 * time.Second)
	r.signals = nil

	e.SetItems([]playback.EngineItem{a, onDemand("b", time.Minute)})
	assert.Empty(t, r.statuses())

	reloaded := onDemand("a", time.Minute)
	reloaded.Resource.Identity = "a-2"
	e.SetItems([]playback.EngineItem{reloaded})
	assert.Equal(t, []string{"current:a", "loading:a", "ready:a"}, r.statuses())
}

func TestEngine_PlaceholderFails(t *testing.T) {
	e, r := newEngine(t, 0)
	cause := errors.New("content unavailable")
	e.SetItems([]playback.EngineItem{{ItemID: "b", Err: cause}, onDemand("c", time.Minute)})

	assert.Equal(t, []string{"current:b", "failed:b"}, r.statuses())
	assert.Equal(t, cause, r.signals[1].Err)

	e.Advance(time.Minute)
	id, _ := e.CurrentItem()
	assert.Equal(t, item.ID("b"), id, "never moves past a failed item")
}

func TestEngine_Seek(t *testing.T) {
	e, r := newEngine(t, 0)
	e.SetItems([]playback.EngineItem{onDemand("a", time.Minute)})

	var results []bool
	e.Seek(10*time.Second, func(finished bool) { results = append(results, finished) })
	e.Seek(20*time.Second, func(finished bool) { results = append(results, finished) })
	assert.Equal(t, []bool{false}, results, "superseded seek completes with false")

	e.Advance(time.Second)
	assert.Equal(t, []bool{false, true}, results)
	assert.Equal(t, 20*time.Second, r.lastTime().Position)

	e.Seek(5*time.Minute, nil)
	e.Advance(time.Second)
	assert.Equal(t, time.Minute, r.lastTime().Position, "clamped to the seekable window")
}

func TestEngine_SeekAfterEnd(t *testing.T) {
	e, r := newEngine(t, 0)
	e.SetItems([]playback.EngineItem{onDemand("a", 2*time.Second)})
	e.Advance(2 * time.Second)
	require.Equal(t, []string{"current:a", "loading:a", "ready:a", "ended:a"}, r.statuses())

	e.Advance(time.Second)
	assert.Equal(t, 2*time.Second, r.lastTime().Position, "ended items do not advance")

	var finished bool
	e.Seek(0, func(f bool) { finished = f })
	assert.Equal(t, []string{"current:a", "loading:a", "ready:a", "ended:a", "ready:a"}, r.statuses())

	e.Advance(time.Second)
	assert.True(t, finished)
	assert.Equal(t, time.Duration(0), r.lastTime().Position)
	e.Advance(time.Second)
	assert.Equal(t, time.Second, r.lastTime().Position)
}

func TestEngine_RepeatOneWithPlayer(t *testing.T) {
	registry, err := resolver.NewRegistryFromConfig(config.DefaultResolvers)
	require.NoError(t, err)

	e, r := newEngine(t, 0)
	exec := executor.NewManual()
	cfg := playback.DefaultConfig()
	cfg.Repeat = queue.RepeatOne
	player, err := playback.New(playback.Deps{
		Engine:   e,
		Executor: exec,
		Resolver: registry,
		Spawn:    func(fn func()) { fn() },
	}, cfg)
	require.NoError(t, err)
	t.Cleanup(player.Close)

	require.NoError(t, player.Append(item.NewWithID("a", item.Descriptor{
		Kind:     resolver.KindStatic,
		Locator:  "a",
		Title:    "a",
		Settings: map[string]any{"classification": "on_demand", "duration": "3s"},
	})))
	exec.Drain()
	require.Equal(t, playback.StatePlaying, player.State().Get())

	var positions []time.Duration
	for i := 0; i < 8; i++ {
		e.Advance(time.Second)
		exec.Drain()
		positions = append(positions, r.lastTime().Position)
	}
	assert.Equal(t, []time.Duration{
		time.Second, 2 * time.Second, 3 * time.Second, 0,
		time.Second, 2 * time.Second, 3 * time.Second, 0,
	}, positions, "the item plays again after each end")
	assert.Equal(t, playback.StatePlaying, player.State().Get())
	assert.Equal(t, time.Duration(0), player.Time().Get().Position)
}

func TestEngine_Rate(t *testing.T) {
	e, r := newEngine(t, 0)
	e.SetItems([]playback.EngineItem{onDemand("a", time.Minute)})

	e.SetRate(2)
	assert.Equal(t, 2.0, e.Rate())
	require.Equal(t, playback.SignalRate, r.signals[len(r.signals)-1].Kind)

	e.Advance(time.Second)
	assert.Equal(t, 2*time.Second, r.lastTime().Position)
	assert.Equal(t, time.Second, e.Counters().PlayingDuration)
	assert.Equal(t, float64(Bitrate), e.Counters().Bitrate)
}

func TestEngine_Paused(t *testing.T) {
	e, r := newEngine(t, 0)
	e.Pause()
	e.SetItems([]playback.EngineItem{onDemand("a", time.Minute)})
	e.Advance(time.Second)
	assert.Equal(t, time.Duration(0), r.lastTime().Position)
}

func TestEngine_DVRWindow(t *testing.T) {
	e, r := newEngine(t, 0)
	e.SetItems([]playback.EngineItem{{ItemID: "d", Resource: &item.Resource{
		Identity:       "d-1",
		Classification: timeline.DVR,
		Duration:       time.Hour,
	}}})

	e.Advance(time.Second)
	ti := r.lastTime()
	assert.Equal(t, timeline.Window{Start: time.Second, End: time.Hour + time.Second}, ti.Seekable)
	assert.Equal(t, ti.Seekable.End, ti.Position, "follows the live edge")

	e.Seek(30*time.Minute, nil)
	e.Advance(time.Second)
	assert.Equal(t, 30*time.Minute, r.lastTime().Position)
}

func TestEngine_EmptyList(t *testing.T) {
	e, r := newEngine(t, 0)
	e.SetItems([]playback.EngineItem{onDemand("a", time.Minute)})
	r.signals = nil

	e.SetItems(nil)
	_, ok := e.CurrentItem()
	assert.False(t, ok)
	assert.Equal(t, []string{"current:"}, r.statuses())

	var finished *bool
	e.Seek(time.Second, func(f bool) { finished = &f })
	require.NotNil(t, finished)
	assert.False(t, *finished)
}

func TestEngine_Run(t *testing.T) {
	e := New(Config{TickInterval: 10 * time.Millisecond})
	ticks := make(chan struct{}, 16)
	e.Subscribe(func(s playback.Signal) {
		if s.Kind == playback.SignalTime {
			select {
			case ticks <- struct{}{}:
			default:
			}
		}
	})
	e.SetItems([]playback.EngineItem{onDemand("a", time.Hour)})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- e.Run(ctx) }()

	select {
	case <-ticks:
	case <-time.After(2 * time.Second):
		t.Fatal("no time signal")
	}
	cancel()
	assert.NoError(t, <-done)
}
