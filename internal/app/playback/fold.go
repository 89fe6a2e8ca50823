package playback

import (
	"fmt"
	"time"

	zlog "github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"github.com/samber/mo"

	"github.com/osa030/playqueue/internal/app/metrics"
	"github.com/osa030/playqueue/internal/app/queue"
	"github.com/osa030/playqueue/internal/domain/item"
	"github.com/osa030/playqueue/internal/domain/timeline"
)

// inputKind identifies an input of the fold.
type inputKind int

const (
	inputContentChanged inputKind = iota // Queue contents or current pointer changed
	inputEngineStatus                    // Engine current item, status or buffering
	inputEngineTick                      // Engine periodic time
	inputEngineRate                      // Engine rate
	inputUserCommand                     // Playback command
	inputResolved                        // Resolution result
	inputSeekCompleted                   // Seek completion
)

// String returns the string representation of the input kind.
func (k inputKind) String() string {
	switch k {
	case inputContentChanged:
		return "content_changed"
	case inputEngineStatus:
		return "engine_status"
	case inputEngineTick:
		return "engine_tick"
	case inputEngineRate:
		return "engine_rate"
	case inputUserCommand:
		return "user_command"
	case inputResolved:
		return "resolved"
	case inputSeekCompleted:
		return "seek_completed"
	default:
		return "unknown"
	}
}

type resolution struct {
	itemID     item.ID
	generation int
	resource   *item.Resource
	err        error
}

type seekResult struct {
	itemID     item.ID
	to         time.Duration
	finished   bool
	completion func(finished bool)
}

type input struct {
	kind       inputKind
	command    string
	signal     Signal
	resolution resolution
	seek       seekResult
}

func inputOf(s Signal) inputKind {
	switch s.Kind {
	case SignalTime:
		return inputEngineTick
	case SignalRate:
		return inputEngineRate
	default:
		return inputEngineStatus
	}
}

// dispatch folds one input into the state, then reconciles.
func (p *Player) dispatch(in input) {
	if p.closed {
		return
	}
	if in.kind != inputEngineTick {
		zlog.Trace().Msgf("player: input kind=%s command=%s signal=%s", in.kind, in.command, in.signal.Kind)
	}

	switch in.kind {
	case inputEngineStatus:
		p.onEngineStatus(in.signal)
	case inputEngineTick:
		p.onTick(in.signal.Time)
	case inputEngineRate:
		p.onRate(in.signal.Rate)
	case inputResolved:
		p.onResolved(in.resolution)
	case inputSeekCompleted:
		p.onSeekCompleted(in.seek)
	}
	p.reconcile()
}

func (p *Player) startResolution(it *item.Item) {
	gen, err := it.BeginResolve()
	if err != nil {
		zlog.Warn().Msgf("player: cannot resolve item: item_id=%s error=%v", it.ID(), err)
		return
	}
	id, d := it.ID(), it.Descriptor()
	p.metrics.Log(id, metrics.EventResolutionStarted, d.Locator)
	zlog.Debug().Msgf("player: resolving item: item_id=%s kind=%s generation=%d", id, d.Kind, gen)

	ctx, exec, resolver := p.ctx, p.deps.Executor, p.deps.Resolver
	p.deps.Spawn(func() {
		res, err := resolver.Resolve(ctx, d)
		exec.Post(func() {
			p.dispatch(input{kind: inputResolved, resolution: resolution{itemID: id, generation: gen, resource: res, err: err}})
		})
	})
}

func (p *Player) onResolved(r resolution) {
	it, ok := p.queue.Get(r.itemID)
	if !ok {
		zlog.Debug().Msgf("player: resolution for removed item dropped: item_id=%s", r.itemID)
		return
	}

	if r.err != nil {
		if it.Fail(r.generation, item.OriginResolution, r.err) {
			zlog.Warn().Msgf("player: item resolution failed: item_id=%s error=%v", r.itemID, r.err)
			p.metrics.Log(r.itemID, metrics.EventResolutionFailed, r.err.Error())
			p.emit(EventItemFailed, r.itemID, it.Err())
		}
		return
	}
	if it.Resolve(r.generation, r.resource) {
		p.metrics.Log(r.itemID, metrics.EventResolutionSucceeded, r.resource.Identity)
		return
	}
	zlog.Debug().Msgf("player: stale resolution dropped: item_id=%s generation=%d", r.itemID, r.generation)
}

func (p *Player) onEngineStatus(s Signal) {
	switch s.Kind {
	case SignalCurrentChanged:
		p.engine = engineState{status: ItemLoading}
		if s.ItemID == "" {
			p.engine.itemID = mo.None[item.ID]()
			return
		}
		p.engine.itemID = mo.Some(s.ItemID)
		if cur, ok := p.queue.CurrentID().Get(); ok && cur != s.ItemID && p.engineAdvanced(s.ItemID) {
			zlog.Debug().Msgf("player: engine advanced: from=%s to=%s", cur, s.ItemID)
			_ = p.queue.SetCurrent(s.ItemID)
		}

	case SignalStatus:
		p.engine.itemID = mo.Some(s.ItemID)
		p.engine.status = s.Status
		switch s.Status {
		case ItemReady:
			p.onEngineReady(s.ItemID)
		case ItemFailed:
			p.onEngineFailed(s.ItemID, s.Err)
		case ItemEnded:
			p.onEngineEnded(s.ItemID)
		}

	case SignalBuffering:
		p.engine.buffering = s.Buffering
	}
}

// engineAdvanced reports whether the engine moved on by itself to a following
// entry of the issued list. Signals of loads superseded by a later SetItems
// do not match the engine's current item and are ignored.
func (p *Player) engineAdvanced(id item.ID) bool {
	if len(p.issued) < 2 || !p.queue.Contains(id) {
		return false
	}
	if engineCur, ok := p.deps.Engine.CurrentItem(); !ok || engineCur != id {
		return false
	}
	return lo.ContainsBy(p.issued[1:], func(e EngineItem) bool { return e.ItemID == id })
}

func (p *Player) isCurrent(id item.ID) bool {
	cur, ok := p.queue.CurrentID().Get()
	return ok && cur == id
}

func (p *Player) onEngineReady(id item.ID) {
	if !p.isCurrent(id) {
		return
	}
	it, _ := p.queue.Get(id)
	res, ok := it.Resource()
	if !ok {
		return
	}

	p.queue.ClearErr()
	p.skip.Reset(id, res.Ranges)
	p.rangesValue.Set(append([]timeline.Range{}, res.Ranges...))
	if p.metrics.Track(id, res.Identity) {
		p.metricsValue.Set(p.metrics.History())
	}
	p.metrics.Log(id, metrics.EventEngineReady, res.Classification.String())
	p.speed.Observe(res.Classification, 0)
	zlog.Info().Msgf("player: item ready: item_id=%s classification=%s", id, res.Classification)

	pos, ok := p.resume.Ready(id)
	if !ok {
		return
	}
	if at, ok := pos.Time(); ok {
		p.seek(at, nil)
		p.metrics.Log(id, metrics.EventResumed, pos.String())
		p.emit(EventResumeApplied, id, nil)
	}
}

func (p *Player) onEngineFailed(id item.ID, cause error) {
	it, ok := p.queue.Get(id)
	if !ok {
		return
	}
	if it.Status() == item.StatusReady && it.Fail(it.Generation(), item.OriginEngine, cause) {
		p.metrics.Log(id, metrics.EventEngineFailed, fmt.Sprint(cause))
		p.emit(EventItemFailed, id, it.Err())
	}
	if !p.isCurrent(id) {
		return
	}
	err := it.Err()
	if err == nil {
		err = item.NewError(id, item.OriginEngine, cause)
	}
	zlog.Error().Msgf("player: current item failed: item_id=%s error=%v", id, err)
	p.queue.SetErr(err)
}

func (p *Player) onEngineEnded(id item.ID) {
	if !p.isCurrent(id) {
		return
	}
	p.metrics.Log(id, metrics.EventEnded, "")
	p.emit(EventItemEnded, id, nil)

	if engineCur, ok := p.deps.Engine.CurrentItem(); ok && engineCur != id {
		// The engine already moved on to the following entry
		return
	}

	if p.repeat == queue.RepeatOne {
		p.restart()
		return
	}
	next, ok := p.queue.Next(p.repeat)
	if !ok {
		zlog.Info().Msgf("player: reached end of queue: item_id=%s", id)
		return
	}
	if next.ID() == id {
		p.restart()
		return
	}
	_ = p.queue.SetCurrent(next.ID())
}

func (p *Player) onTick(t TimeInfo) {
	if !p.isCurrent(t.ItemID) {
		return
	}
	p.timeValue.Set(t)

	if s, ok := p.skip.Tick(t.ItemID, t.Position); ok {
		p.metrics.Log(t.ItemID, metrics.EventSkipped, fmt.Sprintf("%v-%v", s.Range.Start, s.Range.End))
		p.emit(EventRangeSkipped, t.ItemID, nil)
		p.seek(s.To, func(finished bool) { p.skip.Completed(s, finished) })
	}

	_, res, ok := p.currentReady()
	if !ok {
		return
	}
	p.speed.Observe(res.Classification, t.Seekable.End-t.Position)

	now := p.deps.Now()
	if now.Sub(p.lastPeriodic) >= p.config.MetricsInterval {
		p.lastPeriodic = now
		p.record(metrics.TriggerPeriodic)
	}
}

// onRate folds a rate change. The echo of the last requested rate is
// consumed once; any other rate is an external change.
func (p *Player) onRate(rate float64) {
	requested, pending := p.requestedRate.Get()
	p.requestedRate = mo.None[float64]()
	if pending && requested == rate {
		return
	}
	zlog.Debug().Msgf("player: external rate change: rate=%g", rate)
	p.speed.Request(rate)
}

func (p *Player) onSeekCompleted(s seekResult) {
	zlog.Debug().Msgf("player: seek completed: item_id=%s to=%v finished=%t", s.itemID, s.to, s.finished)
	if s.completion != nil {
		s.completion(s.finished)
	}
}
