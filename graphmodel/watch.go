package graphmodel

import (
	"sync/atomic"

	"flowedit/model"
)

// locationWatcher turns value notifications of one location into node
// events on the dispatcher's goroutine. busy keeps a write made while
// handling the event from firing again.
type locationWatcher struct {
	a    *Adapter
	busy atomic.Bool
}

func (w *locationWatcher) ValueChanged(e *model.Element) {
	w.a.dispatcher.Invoke(func() {
		if !w.busy.CompareAndSwap(false, true) {
			return
		}
		defer w.busy.Store(false)
		w.a.emit(Event{Kind: NodeChanged, Root: w.a.root, Element: e})
	})
}

// syncWatchers attaches watchers to new locations and detaches them from
// locations that left the tree. Callers hold a.mu.
func (a *Adapter) syncWatchers(locations map[*model.Element]bool) {
	for loc, w := range a.watchers {
		if !locations[loc] {
			loc.RemoveValueListener(w)
			delete(a.watchers, loc)
		}
	}
	for loc := range locations {
		if _, ok := a.watchers[loc]; ok {
			continue
		}
		w := &locationWatcher{a: a}
		loc.AddValueListener(w)
		a.watchers[loc] = w
	}
}
