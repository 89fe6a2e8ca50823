package playback

import (
	"github.com/samber/lo"
	"github.com/samber/mo"

	"github.com/osa030/playqueue/internal/app/queue"
	"github.com/osa030/playqueue/internal/app/resume"
	"github.com/osa030/playqueue/internal/domain/item"
)

// targetItems computes the engine list. The head is the pending resume
// target when it is queued, the current item otherwise. The list stops at
// the first item not resolved yet so that the engine never skips over it.
func targetItems(q *queue.Queue, repeat queue.RepeatMode, window int, pending mo.Option[resume.Request]) []EngineItem {
	head, ok := q.CurrentIndex().Get()
	if !ok {
		return nil
	}
	if r, ok := pending.Get(); ok && q.Contains(r.ItemID) {
		head = q.IndexOf(r.ItemID)
	}

	items := q.WindowAt(head, repeat, window)
	out := make([]EngineItem, 0, len(items))
	for _, it := range items {
		switch it.Status() {
		case item.StatusReady:
			res, _ := it.Resource()
			out = append(out, EngineItem{ItemID: it.ID(), Resource: res})
		case item.StatusFailed:
			out = append(out, EngineItem{ItemID: it.ID(), Err: it.Err()})
		default:
			return out
		}
	}
	return out
}

type entryKey struct {
	id       item.ID
	identity string
	failed   bool
}

func keyOf(e EngineItem) entryKey {
	return entryKey{id: e.ItemID, identity: e.Identity(), failed: e.IsPlaceholder()}
}

// sameItems reports whether two engine lists are equivalent.
func sameItems(a, b []EngineItem) bool {
	if len(a) != len(b) {
		return false
	}
	ka := lo.Map(a, func(e EngineItem, _ int) entryKey { return keyOf(e) })
	kb := lo.Map(b, func(e EngineItem, _ int) entryKey { return keyOf(e) })
	for i := range ka {
		if ka[i] != kb[i] {
			return false
		}
	}
	return true
}
