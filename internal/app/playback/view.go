package playback

import (
	"github.com/samber/mo"

	"github.com/osa030/playqueue/internal/app/metrics"
	"github.com/osa030/playqueue/internal/app/queue"
	"github.com/osa030/playqueue/internal/app/speed"
	"github.com/osa030/playqueue/internal/domain/item"
	"github.com/osa030/playqueue/internal/domain/timeline"
)

// ItemView is the exposed state of a queued item.
type ItemView struct {
	ID     item.ID     `json:"id"`
	Title  string      `json:"title"`
	Kind   string      `json:"kind"`
	Status item.Status `json:"status"`
	Error  string      `json:"error,omitempty"`
}

func viewOf(it *item.Item) ItemView {
	v := ItemView{
		ID:     it.ID(),
		Title:  it.Title(),
		Kind:   it.Descriptor().Kind,
		Status: it.Status(),
	}
	if err := it.Err(); err != nil {
		v.Error = err.Error()
	}
	return v
}

// Navigability tells which navigation commands are enabled.
type Navigability struct {
	CanReturnToPrevious bool `json:"can_return_to_previous"`
	CanAdvanceToNext    bool `json:"can_advance_to_next"`
}

// Snapshot is the consolidated player state.
type Snapshot struct {
	Current      mo.Option[item.ID]
	State        State
	Repeat       queue.RepeatMode
	Navigation   queue.NavigationMode
	Items        []ItemView
	Navigability Navigability
	Speed        speed.Speed
	Time         TimeInfo
	Ranges       []timeline.Range
	Err          error
	Metrics      []metrics.Entry
}
