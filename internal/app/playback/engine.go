package playback

import (
	"time"

	"github.com/osa030/playqueue/internal/app/metrics"
	"github.com/osa030/playqueue/internal/domain/item"
	"github.com/osa030/playqueue/internal/domain/timeline"
)

// EngineItem is one entry of the list handed to the engine. A failed item is
// handed as a placeholder without resource; the engine reports its error when
// it reaches it.
type EngineItem struct {
	ItemID   item.ID
	Resource *item.Resource
	Err      error
}

// Identity returns the resource identity, empty for placeholders.
func (e EngineItem) Identity() string {
	if e.Resource == nil {
		return ""
	}
	return e.Resource.Identity
}

// IsPlaceholder reports whether e stands for a failed item.
func (e EngineItem) IsPlaceholder() bool {
	return e.Resource == nil
}

// ItemStatus is the status of the engine's current item.
type ItemStatus int

const (
	ItemLoading ItemStatus = iota // Loading the resource
	ItemReady                     // Ready to play
	ItemFailed                    // Failed (network, decode, placeholder)
	ItemEnded                     // Played to its end
)

// String returns the string representation of the item status.
func (s ItemStatus) String() string {
	switch s {
	case ItemLoading:
		return "loading"
	case ItemReady:
		return "ready"
	case ItemFailed:
		return "failed"
	case ItemEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// SignalKind identifies an engine signal.
type SignalKind int

const (
	SignalCurrentChanged SignalKind = iota // Engine moved to another item of its list
	SignalStatus                           // Current item status changed
	SignalTime                             // Periodic time
	SignalRate                             // Rate changed
	SignalBuffering                        // Buffering started or stopped
)

// String returns the string representation of the signal kind.
func (k SignalKind) String() string {
	switch k {
	case SignalCurrentChanged:
		return "current_changed"
	case SignalStatus:
		return "status"
	case SignalTime:
		return "time"
	case SignalRate:
		return "rate"
	case SignalBuffering:
		return "buffering"
	default:
		return "unknown"
	}
}

// TimeInfo is the time of the engine's current item.
type TimeInfo struct {
	ItemID   item.ID         `json:"item_id"`
	Position time.Duration   `json:"position"`
	Seekable timeline.Window `json:"seekable"`
	Date     time.Time       `json:"date"` // Wall-clock date of the position, zero when unknown
}

// Signal is emitted by the engine. Which fields are set depends on Kind.
type Signal struct {
	Kind      SignalKind
	ItemID    item.ID    // Current item (empty when the engine has none)
	Status    ItemStatus // SignalStatus
	Err       error      // SignalStatus with ItemFailed
	Time      TimeInfo   // SignalTime
	Rate      float64    // SignalRate
	Buffering bool       // SignalBuffering
}

// Engine is the playback engine contract. Signals may be delivered on any
// goroutine; the player redispatches them onto its executor.
//
// The engine plays the first entry of the last list it was given. When the
// first entry is its current item with the same resource identity it keeps
// playing it; otherwise it loads that entry. At the end of an item it moves
// on to the following entry, if any, and reports it with SignalCurrentChanged.
// It never moves past a failed item by itself.
type Engine interface {
	// SetItems replaces the engine's item list.
	SetItems(items []EngineItem)

	// CurrentItem returns the engine's current item.
	CurrentItem() (item.ID, bool)

	// Seek seeks the current item. completion is called once with false when
	// a newer seek superseded this one or the item changed. Seeking an ended
	// item signals it ready again.
	Seek(to time.Duration, completion func(finished bool))

	// Rate returns the current rate.
	Rate() float64

	// SetRate sets the rate.
	SetRate(rate float64)

	// Play starts or resumes playback.
	Play()

	// Pause pauses playback.
	Pause()

	// Counters returns the cumulative counters of the current item.
	Counters() metrics.Counters

	// Subscribe registers fn for every signal. The returned function cancels
	// the subscription.
	Subscribe(fn func(Signal)) (cancel func())
}
