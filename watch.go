package store

import (
	"sync/atomic"

	"github.com/goliatone/go-store/layering"
)

// WatchFunc selects the watched value. It runs under the store lock and must
// not call back into the store.
type WatchFunc func(state State, getters Getters) any

// WatchCallback receives the new and previous watched values.
type WatchCallback func(value, old any)

type watcher struct {
	active atomic.Bool
	fn     WatchFunc
	cb     WatchCallback
	value  any
}

type watchChange struct {
	cb         WatchCallback
	value, old any
}

// Watch re-evaluates fn after every commit, state replacement and module
// registration change, and calls cb when the result differs from the last
// one. The returned function stops the watcher.
func (s *Store) Watch(fn WatchFunc, cb WatchCallback, opts ...WatchOption) func() {
	if fn == nil || cb == nil {
		return func() {}
	}
	cfg := watchConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	w := &watcher{fn: fn, cb: cb}
	w.active.Store(true)

	s.mu.Lock()
	w.value = s.watchValueLocked(w)
	s.watchers = append(s.watchers, w)
	value := w.value
	s.mu.Unlock()

	if cfg.immediate {
		cb(value, nil)
	}

	return func() {
		w.active.Store(false)
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, existing := range s.watchers {
			if existing == w {
				s.watchers = append(s.watchers[:i:i], s.watchers[i+1:]...)
				return
			}
		}
	}
}

// watchValueLocked copies the selected value so later in-place writes to the
// state tree are seen as changes.
func (s *Store) watchValueLocked(w *watcher) any {
	return layering.Clone(w.fn(s.state, getterView{store: s, held: true}))
}

func (s *Store) runWatchers() {
	for _, change := range s.collectWatchChanges() {
		change.cb(change.value, change.old)
	}
}

func (s *Store) collectWatchChanges() []watchChange {
	s.mu.Lock()
	defer s.mu.Unlock()
	var changes []watchChange
	for _, w := range s.watchers {
		if !w.active.Load() {
			continue
		}
		next := s.watchValueLocked(w)
		if layering.Equal(next, w.value) {
			continue
		}
		changes = append(changes, watchChange{cb: w.cb, value: next, old: w.value})
		w.value = next
	}
	return changes
}
