// Package simengine provides a simulated playback engine. It plays resources
// on a virtual clock advanced by a ticker, which is enough to run the player
// end to end without decoding anything.
package simengine

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/osa030/playqueue/internal/app/metrics"
	"github.com/osa030/playqueue/internal/app/playback"
	"github.com/osa030/playqueue/internal/domain/item"
	"github.com/osa030/playqueue/internal/domain/timeline"
)

// Bitrate is reported for every resource, in bits per second.
const Bitrate = 2_500_000

// Config represents the engine configuration.
type Config struct {
	TickInterval time.Duration    // Period of Run's ticker
	LoadLatency  time.Duration    // Virtual time a resource takes to become ready
	Now          func() time.Time // Wall clock for time signal dates
}

// entry is the engine's current item.
type entry struct {
	id       item.ID
	identity string
	resource *item.Resource
}

type pendingSeek struct {
	to         time.Duration
	completion func(bool)
}

// Engine is a simulated playback engine. It is safe for concurrent use.
// Signals are delivered on the goroutine that caused them, never while the
// engine lock is held.
type Engine struct {
	config Config

	mu       sync.Mutex
	items    []playback.EngineItem
	index    int
	current  *entry
	status   playback.ItemStatus
	loading  time.Duration // Virtual time spent loading the current item
	live     time.Duration // Virtual time since the current item became ready
	position time.Duration
	rate     float64
	playing  bool
	counters metrics.Counters
	seek     *pendingSeek

	subsMu sync.Mutex
	subs   map[string]func(playback.Signal)
}

var _ playback.Engine = (*Engine)(nil)

// New creates a new engine.
func New(config Config) *Engine {
	if config.TickInterval <= 0 {
		config.TickInterval = 250 * time.Millisecond
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	return &Engine{
		config: config,
		rate:   1,
		subs:   make(map[string]func(playback.Signal)),
	}
}

// Run advances the virtual clock every tick interval until ctx is done.
func (e *Engine) Run(ctx context.Context) error {
	ticker := time.NewTicker(e.config.TickInterval)
	defer ticker.Stop()
	zlog.Info().Msgf("simengine: started tick_interval=%v load_latency=%v", e.config.TickInterval, e.config.LoadLatency)
	for {
		select {
		case <-ctx.Done():
			zlog.Info().Msg("simengine: stopped")
			return nil
		case <-ticker.C:
			e.Advance(e.config.TickInterval)
		}
	}
}

// Subscribe registers fn for engine signals and returns its cancel function.
func (e *Engine) Subscribe(fn func(playback.Signal)) func() {
	id := uuid.New().String()
	e.subsMu.Lock()
	e.subs[id] = fn
	e.subsMu.Unlock()
	return func() {
		e.subsMu.Lock()
		delete(e.subs, id)
		e.subsMu.Unlock()
	}
}

// deliver runs deferred completions and sends signals. It must be called
// without e.mu held.
func (e *Engine) deliver(completions []func(), signals []playback.Signal) {
	for _, fn := range completions {
		fn()
	}
	if len(signals) == 0 {
		return
	}
	e.subsMu.Lock()
	subs := lo.Values(e.subs)
	e.subsMu.Unlock()
	for _, s := range signals {
		for _, fn := range subs {
			fn(s)
		}
	}
}

// SetItems replaces the item list. The current item keeps playing when it
// heads the new list with the same resource identity.
func (e *Engine) SetItems(items []playback.EngineItem) {
	e.mu.Lock()
	e.items = append([]playback.EngineItem(nil), items...)

	var completions []func()
	var signals []playback.Signal
	switch {
	case len(items) == 0:
		if e.current != nil {
			completions = e.cancelSeekLocked()
			e.current = nil
			signals = append(signals, playback.Signal{Kind: playback.SignalCurrentChanged})
		}
	case e.current != nil && items[0].ItemID == e.current.id && items[0].Identity() == e.current.identity:
		e.index = 0
	default:
		completions, signals = e.loadLocked(0)
	}
	e.mu.Unlock()

	e.deliver(completions, signals)
}

// loadLocked makes the entry at index current.
func (e *Engine) loadLocked(index int) ([]func(), []playback.Signal) {
	completions := e.cancelSeekLocked()
	it := e.items[index]
	e.index = index
	e.current = &entry{id: it.ItemID, identity: it.Identity(), resource: it.Resource}
	e.loading = 0
	e.live = 0
	e.position = 0
	e.counters = metrics.Counters{}

	signals := []playback.Signal{{Kind: playback.SignalCurrentChanged, ItemID: it.ItemID}}
	if it.IsPlaceholder() {
		e.status = playback.ItemFailed
		zlog.Debug().Msgf("simengine: placeholder reached: item_id=%s", it.ItemID)
		return completions, append(signals, playback.Signal{Kind: playback.SignalStatus, ItemID: it.ItemID, Status: playback.ItemFailed, Err: it.Err})
	}

	e.status = playback.ItemLoading
	zlog.Debug().Msgf("simengine: loading: item_id=%s url=%s", it.ItemID, it.Resource.URL)
	signals = append(signals, playback.Signal{Kind: playback.SignalStatus, ItemID: it.ItemID, Status: playback.ItemLoading})
	if e.config.LoadLatency <= 0 {
		signals = append(signals, e.readyLocked())
	}
	return completions, signals
}

func (e *Engine) readyLocked() playback.Signal {
	e.status = playback.ItemReady
	if e.current.resource.Classification == timeline.DVR {
		// DVR starts at the live edge
		e.position = e.current.resource.Duration
	}
	return playback.Signal{Kind: playback.SignalStatus, ItemID: e.current.id, Status: playback.ItemReady}
}

func (e *Engine) cancelSeekLocked() []func() {
	if e.seek == nil {
		return nil
	}
	s := e.seek
	e.seek = nil
	return []func(){func() { s.completion(false) }}
}

// CurrentItem returns the current item.
func (e *Engine) CurrentItem() (item.ID, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.current == nil {
		return "", false
	}
	return e.current.id, true
}

// Seek requests a seek, applied on the next advance. A pending seek is
// superseded and completes with false. Seeking an ended item makes it ready
// to play again.
func (e *Engine) Seek(to time.Duration, completion func(bool)) {
	if completion == nil {
		completion = func(bool) {}
	}
	e.mu.Lock()
	completions := e.cancelSeekLocked()
	if e.current == nil {
		e.mu.Unlock()
		e.deliver(append(completions, func() { completion(false) }), nil)
		return
	}
	e.seek = &pendingSeek{to: to, completion: completion}
	var signals []playback.Signal
	if e.status == playback.ItemEnded {
		e.status = playback.ItemReady
		zlog.Debug().Msgf("simengine: restarted: item_id=%s", e.current.id)
		signals = append(signals, playback.Signal{Kind: playback.SignalStatus, ItemID: e.current.id, Status: playback.ItemReady})
	}
	e.mu.Unlock()

	e.deliver(completions, signals)
}

// Rate returns the playback rate.
func (e *Engine) Rate() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rate
}

// SetRate sets the playback rate.
func (e *Engine) SetRate(rate float64) {
	e.mu.Lock()
	if rate <= 0 || rate == e.rate {
		e.mu.Unlock()
		return
	}
	e.rate = rate
	e.mu.Unlock()

	e.deliver(nil, []playback.Signal{{Kind: playback.SignalRate, Rate: rate}})
}

// Play starts playback.
func (e *Engine) Play() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.playing = true
}

// Pause pauses playback.
func (e *Engine) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.playing = false
}

// Counters returns the counters of the current resource.
func (e *Engine) Counters() metrics.Counters {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.counters
}

// Advance moves the virtual clock forward by d.
func (e *Engine) Advance(d time.Duration) {
	e.mu.Lock()
	completions, signals := e.advanceLocked(d)
	e.mu.Unlock()

	e.deliver(completions, signals)
}

func (e *Engine) advanceLocked(d time.Duration) ([]func(), []playback.Signal) {
	if e.current == nil {
		return nil, nil
	}
	var completions []func()
	var signals []playback.Signal

	switch e.status {
	case playback.ItemLoading:
		e.loading += d
		if e.loading < e.config.LoadLatency {
			return nil, nil
		}
		signals = append(signals, e.readyLocked())
	case playback.ItemFailed, playback.ItemEnded:
		return nil, nil
	}

	res := e.current.resource
	e.live += d

	if s := e.seek; s != nil {
		e.seek = nil
		e.position = e.windowLocked().Clamp(s.to)
		completions = append(completions, func() { s.completion(true) })
	} else if e.playing {
		step := time.Duration(float64(d) * e.rate)
		e.position += step
		e.counters.PlayingDuration += d
		e.counters.BytesTransferred += int64(Bitrate / 8 * d.Seconds())
	}
	e.counters.Bitrate = Bitrate
	if res.Classification == timeline.DVR {
		// Behind the live edge playback cannot overtake it
		e.position = min(e.position, e.windowLocked().End)
	}

	signals = append(signals, playback.Signal{
		Kind:   playback.SignalTime,
		ItemID: e.current.id,
		Time: playback.TimeInfo{
			ItemID:   e.current.id,
			Position: e.position,
			Seekable: e.windowLocked(),
			Date:     e.config.Now(),
		},
	})

	if res.Classification == timeline.OnDemand && e.position >= res.Duration {
		e.position = res.Duration
		e.status = playback.ItemEnded
		zlog.Debug().Msgf("simengine: ended: item_id=%s", e.current.id)
		signals = append(signals, playback.Signal{Kind: playback.SignalStatus, ItemID: e.current.id, Status: playback.ItemEnded})
		if e.index+1 < len(e.items) {
			c, s := e.loadLocked(e.index + 1)
			completions = append(completions, c...)
			signals = append(signals, s...)
		}
	}
	return completions, signals
}

// windowLocked returns the seekable window of the current resource.
func (e *Engine) windowLocked() timeline.Window {
	res := e.current.resource
	switch res.Classification {
	case timeline.OnDemand:
		return timeline.Window{End: res.Duration}
	case timeline.DVR:
		edge := res.Duration + e.live
		return timeline.Window{Start: edge - res.Duration, End: edge}
	default:
		return timeline.Window{}
	}
}
