package playback

import (
	"time"

	"github.com/osa030/playqueue/internal/app/metrics"
	"github.com/osa030/playqueue/internal/domain/item"
	"github.com/osa030/playqueue/internal/domain/timeline"
)

type pendingSeek struct {
	to         time.Duration
	completion func(bool)
}

// fakeEngine follows the Engine contract but only moves when told to.
type fakeEngine struct {
	items       []EngineItem
	index       int
	current     item.ID
	identity    string
	ended       bool
	position    time.Duration
	rate        float64
	playing     bool
	counters    metrics.Counters
	seeks       []pendingSeek
	seekLog     []time.Duration
	setItems    int
	subscribers map[int]func(Signal)
	nextSub     int
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{rate: 1, subscribers: make(map[int]func(Signal))}
}

func (f *fakeEngine) emit(s Signal) {
	for _, fn := range f.subscribers {
		fn(s)
	}
}

func (f *fakeEngine) SetItems(items []EngineItem) {
	f.setItems++
	f.items = items
	if len(items) == 0 {
		if f.current != "" {
			f.cancelSeeks()
			f.current, f.identity = "", ""
			f.emit(Signal{Kind: SignalCurrentChanged})
		}
		return
	}
	head := items[0]
	if head.ItemID == f.current && head.Identity() == f.identity {
		f.index = 0
		return
	}
	f.load(0)
}

func (f *fakeEngine) load(index int) {
	f.cancelSeeks()
	e := f.items[index]
	f.index = index
	f.current = e.ItemID
	f.identity = e.Identity()
	f.ended = false
	f.position = 0
	f.emit(Signal{Kind: SignalCurrentChanged, ItemID: e.ItemID})
	if e.IsPlaceholder() {
		f.emit(Signal{Kind: SignalStatus, ItemID: e.ItemID, Status: ItemFailed, Err: e.Err})
		return
	}
	f.emit(Signal{Kind: SignalStatus, ItemID: e.ItemID, Status: ItemLoading})
}

func (f *fakeEngine) cancelSeeks() {
	seeks := f.seeks
	f.seeks = nil
	for _, s := range seeks {
		s.completion(false)
	}
}

func (f *fakeEngine) CurrentItem() (item.ID, bool) {
	return f.current, f.current != ""
}

func (f *fakeEngine) Seek(to time.Duration, completion func(bool)) {
	f.cancelSeeks()
	f.seekLog = append(f.seekLog, to)
	f.seeks = append(f.seeks, pendingSeek{to: to, completion: completion})
	if f.ended {
		f.ended = false
		f.ready()
	}
}

func (f *fakeEngine) Rate() float64 {
	return f.rate
}

func (f *fakeEngine) SetRate(rate float64) {
	f.rate = rate
	f.emit(Signal{Kind: SignalRate, Rate: rate})
}

func (f *fakeEngine) Play() {
	f.playing = true
}

func (f *fakeEngine) Pause() {
	f.playing = false
}

func (f *fakeEngine) Counters() metrics.Counters {
	return f.counters
}

func (f *fakeEngine) Subscribe(fn func(Signal)) func() {
	id := f.nextSub
	f.nextSub++
	f.subscribers[id] = fn
	return func() { delete(f.subscribers, id) }
}

// Scripting helpers

func (f *fakeEngine) resource() *item.Resource {
	if f.index < len(f.items) {
		return f.items[f.index].Resource
	}
	return nil
}

func (f *fakeEngine) ready() {
	f.emit(Signal{Kind: SignalStatus, ItemID: f.current, Status: ItemReady})
}

func (f *fakeEngine) fail(err error) {
	f.emit(Signal{Kind: SignalStatus, ItemID: f.current, Status: ItemFailed, Err: err})
}

func (f *fakeEngine) tick(position time.Duration) {
	f.position = position
	window := timeline.Window{}
	if res := f.resource(); res != nil {
		window.End = res.Duration
	}
	f.emit(Signal{Kind: SignalTime, ItemID: f.current, Time: TimeInfo{ItemID: f.current, Position: position, Seekable: window}})
}

func (f *fakeEngine) completeSeek() {
	if len(f.seeks) == 0 {
		return
	}
	s := f.seeks[0]
	f.seeks = f.seeks[1:]
	s.completion(true)
	f.tick(s.to)
}

// end plays the current item to its end and moves to the following entry.
func (f *fakeEngine) end() {
	f.ended = true
	f.emit(Signal{Kind: SignalStatus, ItemID: f.current, Status: ItemEnded})
	if f.index+1 < len(f.items) {
		f.load(f.index + 1)
	}
}

func (f *fakeEngine) externalRate(rate float64) {
	f.rate = rate
	f.emit(Signal{Kind: SignalRate, Rate: rate})
}
