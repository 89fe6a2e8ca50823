package playback

import (
	"context"
	"slices"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"github.com/samber/mo"

	"github.com/osa030/playqueue/internal/app/executor"
	"github.com/osa030/playqueue/internal/app/metrics"
	"github.com/osa030/playqueue/internal/app/queue"
	"github.com/osa030/playqueue/internal/app/resume"
	"github.com/osa030/playqueue/internal/app/signal"
	"github.com/osa030/playqueue/internal/app/skip"
	"github.com/osa030/playqueue/internal/app/speed"
	"github.com/osa030/playqueue/internal/domain/item"
	"github.com/osa030/playqueue/internal/domain/timeline"
)

// Errors
var (
	ErrNoCurrentItem  = errors.New("no current item")
	ErrNotSeekable    = errors.New("current item is not seekable")
	ErrNoNextItem     = errors.New("no next item")
	ErrNoPreviousItem = errors.New("no previous item")
	ErrInvalidSpeed   = errors.New("invalid speed")
)

// Resolver resolves content descriptors.
type Resolver interface {
	Resolve(ctx context.Context, d item.Descriptor) (*item.Resource, error)
}

// Deps holds the collaborators of a player.
type Deps struct {
	Engine   Engine
	Executor executor.Executor
	Resolver Resolver
	Spawn    func(fn func())  // Runs resolutions; a new goroutine when nil
	Now      func() time.Time // Clock; time.Now when nil
	Sink     metrics.Sink     // Optional metrics sink
}

type engineState struct {
	itemID    mo.Option[item.ID]
	status    ItemStatus
	buffering bool
}

// Player owns the queue and is the only writer of engine commands. Every
// method must be called on the executor given in Deps; engine signals and
// resolution results are posted to it.
type Player struct {
	deps        Deps
	config      Config
	ctx         context.Context
	cancel      context.CancelFunc
	unsubscribe func()
	closed      bool

	queue      *queue.Queue
	repeat     queue.RepeatMode
	navigation queue.Navigation
	speed      *speed.Machine
	skip       *skip.Monitor
	resume     *resume.Injector
	metrics    *metrics.Aggregator

	issued        []EngineItem
	engine        engineState
	lastCurrent   mo.Option[item.ID]
	playing       bool
	requestedRate mo.Option[float64]
	lastPeriodic  time.Time

	currentValue      *signal.Value[mo.Option[item.ID]]
	itemsValue        *signal.Value[[]ItemView]
	navigabilityValue *signal.Value[Navigability]
	speedValue        *signal.Value[speed.Speed]
	timeValue         *signal.Value[TimeInfo]
	metricsValue      *signal.Value[[]metrics.Entry]
	rangesValue       *signal.Value[[]timeline.Range]
	errValue          *signal.Value[error]
	stateValue        *signal.Value[State]
	eventsValue       *signal.Value[Event]
}

// New creates a player with an empty queue. It must be called on the
// executor, or before the executor starts running.
func New(deps Deps, config Config) (*Player, error) {
	if deps.Engine == nil {
		return nil, errors.New("engine is required")
	}
	if deps.Executor == nil {
		return nil, errors.New("executor is required")
	}
	if deps.Resolver == nil {
		return nil, errors.New("resolver is required")
	}
	if deps.Spawn == nil {
		deps.Spawn = func(fn func()) { go fn() }
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	config = config.normalized()

	q, err := queue.New()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &Player{
		deps:       deps,
		config:     config,
		ctx:        ctx,
		cancel:     cancel,
		queue:      q,
		repeat:     config.Repeat,
		navigation: config.Navigation,
		speed:      speed.NewMachine(config.DVREdgeTolerance),
		skip:       skip.NewMonitor(),
		resume:     resume.NewInjector(),
		metrics:    metrics.NewAggregator(config.MetricsLimit, deps.Now, deps.Sink),
		playing:    !config.StartPaused,

		currentValue:      signal.NewComparable("current", mo.None[item.ID]()),
		itemsValue:        signal.New("items", []ItemView{}, slices.Equal[[]ItemView, ItemView]),
		navigabilityValue: signal.NewComparable("navigability", Navigability{}),
		speedValue:        signal.NewComparable("speed", speed.Initial().Speed()),
		timeValue:         signal.New[TimeInfo]("time", TimeInfo{}, nil),
		metricsValue:      signal.New[[]metrics.Entry]("metrics", nil, nil),
		rangesValue:       signal.New("ranges", []timeline.Range{}, slices.Equal[[]timeline.Range, timeline.Range]),
		errValue:          signal.New[error]("error", nil, func(a, b error) bool { return a == b }),
		stateValue:        signal.NewComparable("state", StateIdle),
		eventsValue:       signal.New("events", Event{Type: EventStateChanged, State: StateIdle}, nil),
	}

	p.unsubscribe = deps.Engine.Subscribe(func(s Signal) {
		deps.Executor.Post(func() {
			p.dispatch(input{kind: inputOf(s), signal: s})
		})
	})
	if p.playing {
		deps.Engine.Play()
	} else {
		deps.Engine.Pause()
	}
	zlog.Info().Msgf("player: created preload_window=%d repeat=%s navigation=%s", config.PreloadWindow, config.Repeat, config.Navigation.Mode)
	return p, nil
}

// Close stops listening to the engine and cancels in-flight resolutions.
func (p *Player) Close() {
	if p.closed {
		return
	}
	p.closed = true
	p.cancel()
	p.unsubscribe()
	zlog.Info().Msg("player: closed")
}

// CurrentItem returns the current item signal.
func (p *Player) CurrentItem() *signal.Value[mo.Option[item.ID]] { return p.currentValue }

// Items returns the ordered item list signal.
func (p *Player) Items() *signal.Value[[]ItemView] { return p.itemsValue }

// Navigability returns the previous/next navigability signal.
func (p *Player) Navigability() *signal.Value[Navigability] { return p.navigabilityValue }

// Speed returns the speed signal.
func (p *Player) Speed() *signal.Value[speed.Speed] { return p.speedValue }

// Time returns the time signal of the current item.
func (p *Player) Time() *signal.Value[TimeInfo] { return p.timeValue }

// Metrics returns the metrics history signal of the current item.
func (p *Player) Metrics() *signal.Value[[]metrics.Entry] { return p.metricsValue }

// Ranges returns the blocked and credits ranges signal of the current item.
func (p *Player) Ranges() *signal.Value[[]timeline.Range] { return p.rangesValue }

// Error returns the queue error signal.
func (p *Player) Error() *signal.Value[error] { return p.errValue }

// State returns the playback state signal.
func (p *Player) State() *signal.Value[State] { return p.stateValue }

// Events returns the playback event signal. Every event is delivered, equal
// or not to the previous one.
func (p *Player) Events() *signal.Value[Event] { return p.eventsValue }

// Item returns a queued item.
func (p *Player) Item(id item.ID) (*item.Item, bool) {
	return p.queue.Get(id)
}

// ItemEvents returns the event log of a queued item.
func (p *Player) ItemEvents(id item.ID) []metrics.Event {
	return p.metrics.Events(id)
}

// Repeat returns the repeat mode.
func (p *Player) Repeat() queue.RepeatMode {
	return p.repeat
}

// Snapshot returns the consolidated state.
func (p *Player) Snapshot() Snapshot {
	return Snapshot{
		Current:      p.currentValue.Get(),
		State:        p.stateValue.Get(),
		Repeat:       p.repeat,
		Navigation:   p.navigation.Mode,
		Items:        p.itemsValue.Get(),
		Navigability: p.navigabilityValue.Get(),
		Speed:        p.speedValue.Get(),
		Time:         p.timeValue.Get(),
		Ranges:       p.rangesValue.Get(),
		Err:          p.errValue.Get(),
		Metrics:      p.metricsValue.Get(),
	}
}

// reconcile derives everything downstream of the queue and the engine state,
// then publishes the outward signals.
func (p *Player) reconcile() {
	p.followCurrent()
	p.resolveWindow()
	p.syncEngine()
	p.applySpeed()
	p.publish()
}

func (p *Player) followCurrent() {
	cur := p.queue.CurrentID()
	if cur == p.lastCurrent {
		return
	}
	p.lastCurrent = cur

	p.resume.CurrentChanged(cur)
	p.skip.Disable()
	p.rangesValue.Set([]timeline.Range{})
	p.metrics.Untrack()
	p.metricsValue.Set(p.metrics.History())
	p.metrics.Prune(p.queue.IDs())
	p.lastPeriodic = time.Time{}

	id, ok := cur.Get()
	if !ok {
		p.speed.Suspend()
		p.timeValue.Set(TimeInfo{})
		zlog.Info().Msg("player: queue empty")
		p.emit(EventQueueEmpty, "", nil)
		return
	}
	zlog.Info().Msgf("player: current item changed: item_id=%s", id)
	p.emit(EventItemChanged, id, nil)
}

func (p *Player) resolveWindow() {
	for _, it := range p.queue.Window(p.repeat, p.config.PreloadWindow) {
		if it.Status() == item.StatusUnresolved {
			p.startResolution(it)
		}
	}
}

func (p *Player) syncEngine() {
	target := targetItems(p.queue, p.repeat, p.config.PreloadWindow, p.resume.Pending())
	if sameItems(target, p.issued) {
		return
	}
	p.issued = target
	zlog.Debug().Msgf("player: engine items updated: count=%d ids=%v", len(target), lo.Map(target, func(e EngineItem, _ int) item.ID { return e.ItemID }))
	p.deps.Engine.SetItems(target)
}

func (p *Player) applySpeed() {
	effective := p.speed.State().Effective()
	if p.deps.Engine.Rate() == effective {
		return
	}
	p.requestedRate = mo.Some(effective)
	p.deps.Engine.SetRate(effective)
}

func (p *Player) publish() {
	p.currentValue.Set(p.queue.CurrentID())
	p.itemsValue.Set(lo.Map(p.queue.Items(), func(it *item.Item, _ int) ItemView { return viewOf(it) }))
	p.navigabilityValue.Set(Navigability{
		CanReturnToPrevious: p.CanReturnToPrevious(),
		CanAdvanceToNext:    p.CanAdvanceToNext(),
	})
	p.speedValue.Set(p.speed.State().Speed())
	p.errValue.Set(p.queue.Err())

	cur := p.queue.CurrentID().OrEmpty()
	if p.stateValue.Set(p.computeState()) {
		p.emit(EventStateChanged, cur, nil)
	}
}

func (p *Player) computeState() State {
	cur, ok := p.queue.CurrentID().Get()
	if !ok {
		return StateIdle
	}
	if it, ok := p.queue.Get(cur); ok && it.Status() == item.StatusFailed {
		return StateFailed
	}

	onEngine := p.engine.itemID == mo.Some(cur)
	if onEngine {
		switch p.engine.status {
		case ItemFailed:
			return StateFailed
		case ItemEnded:
			return StateEnded
		}
	}
	if !p.playing {
		return StatePaused
	}
	if !onEngine || p.engine.status == ItemLoading || p.engine.buffering {
		return StateBuffering
	}
	return StatePlaying
}

func (p *Player) emit(t EventType, id item.ID, err error) {
	p.eventsValue.Set(Event{Type: t, ItemID: id, State: p.stateValue.Get(), Err: err})
}

// currentReady returns the current item when the engine reported it ready.
func (p *Player) currentReady() (*item.Item, *item.Resource, bool) {
	cur, ok := p.queue.CurrentID().Get()
	if !ok || p.engine.itemID != mo.Some(cur) {
		return nil, nil, false
	}
	if p.engine.status != ItemReady && p.engine.status != ItemEnded {
		return nil, nil, false
	}
	it, ok := p.queue.Get(cur)
	if !ok {
		return nil, nil, false
	}
	res, ok := it.Resource()
	if !ok {
		return nil, nil, false
	}
	return it, res, true
}

// seekable returns the seekable window of the current item.
func (p *Player) seekable() (TimeInfo, bool) {
	it, _, ok := p.currentReady()
	if !ok {
		return TimeInfo{}, false
	}
	t := p.timeValue.Get()
	if t.ItemID != it.ID() || t.Seekable.IsEmpty() {
		return TimeInfo{}, false
	}
	return t, true
}

// startOf returns the start of the current item's seekable window. On-demand
// items start at zero before their first time signal.
func (p *Player) startOf() (time.Duration, bool) {
	if t, ok := p.seekable(); ok {
		return t.Seekable.Start, true
	}
	_, res, ok := p.currentReady()
	return 0, ok && res.Classification == timeline.OnDemand
}

func (p *Player) position() queue.Position {
	_, res, ok := p.currentReady()
	if !ok {
		return queue.Position{Classification: timeline.Unknown}
	}
	pos := queue.Position{Classification: res.Classification}
	if t, ok := p.seekable(); ok {
		pos.Elapsed = t.Position - t.Seekable.Start
	}
	return pos
}

func (p *Player) record(trigger metrics.Trigger) {
	if _, ok := p.metrics.Record(trigger, p.deps.Engine.Counters()); ok {
		p.metricsValue.Set(p.metrics.History())
	}
}

// seek issues an engine seek. completion runs on the executor.
func (p *Player) seek(to time.Duration, completion func(finished bool)) {
	id := p.queue.CurrentID().OrEmpty()
	p.record(metrics.TriggerSeek)
	zlog.Debug().Msgf("player: seek item_id=%s to=%v", id, to)
	p.deps.Engine.Seek(to, func(finished bool) {
		p.deps.Executor.Post(func() {
			p.dispatch(input{kind: inputSeekCompleted, seek: seekResult{itemID: id, to: to, finished: finished, completion: completion}})
		})
	})
}

// restart plays the current item again from the start.
func (p *Player) restart() {
	start, _ := p.startOf()
	p.seek(start, nil)
	if p.playing {
		p.deps.Engine.Play()
	}
}
