package store

import (
	"sync"

	"github.com/goliatone/go-store/layering"
	"github.com/goliatone/go-store/pkg/activity"
)

// Store is a centralized state container built from a tree of modules.
// State changes only through Commit; Dispatch runs actions that orchestrate
// commits.
//
// A Store is safe for concurrent use. Mutation handlers, getters, watch
// functions and diagnostic loggers run while the store lock is held and must
// not call back into the store. Action handlers, subscribers and watch
// callbacks run without the lock and receive copies of state and getter
// values.
type Store struct {
	mu  sync.Mutex
	cfg storeConfig

	modules *moduleCollection
	state   State

	mutations  map[string][]*mutationEntry
	actions    map[string][]*actionEntry
	getters    map[string]*getterEntry
	getterKeys []string
	namespaces map[string]*module

	committing bool
	version    uint64
	baseline   State

	subscribers       []*subscription
	actionSubscribers []*subscription
	watchers          []*watcher

	emitter *activity.Emitter
}

// New builds the module tree from root, installs every module and runs the
// configured plugins.
func New(root *Module, opts ...Option) (*Store, error) {
	cfg := applyOptions(opts)
	modules, err := newModuleCollection(root)
	if err != nil {
		return nil, err
	}

	s := &Store{
		cfg:     cfg,
		modules: modules,
		state:   modules.root.state,
		emitter: newActivityEmitter(cfg),
	}

	s.mu.Lock()
	s.resetTablesLocked()
	s.installModule(nil, modules.root, installFresh)
	s.afterStateChangeLocked()
	s.mu.Unlock()

	for _, plugin := range cfg.plugins {
		plugin(s)
	}
	return s, nil
}

// State returns the live root state. Callers must treat it as read-only:
// writes outside mutation handlers bypass subscribers and getter caches and
// are reported in strict mode. Readers that race with commits from other
// goroutines should use Snapshot.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Snapshot returns a deep copy of the root state.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return layering.Clone(s.state)
}

// ReplaceState swaps the root state wholesale. Module handlers resolve their
// local state by path at call time, so they follow the new tree.
func (s *Store) ReplaceState(state State) {
	if state == nil {
		state = State{}
	}
	s.mu.Lock()
	s.withCommit(func() error {
		s.state = state
		return nil
	})
	s.afterStateChangeLocked()
	s.mu.Unlock()

	s.runWatchers()
}

func (s *Store) resetTablesLocked() {
	s.mutations = map[string][]*mutationEntry{}
	s.actions = map[string][]*actionEntry{}
	s.getters = map[string]*getterEntry{}
	s.getterKeys = nil
	s.namespaces = map[string]*module{}
}

// nestedState walks the root state through path. A missing or non-map
// segment yields nil.
func (s *Store) nestedState(path []string) State {
	current := s.state
	for _, key := range path {
		next, ok := current[key].(State)
		if !ok {
			return nil
		}
		current = next
	}
	return current
}

// withCommit runs fn with the committing flag set, restoring the previous
// value even when fn panics.
func (s *Store) withCommit(fn func() error) error {
	committing := s.committing
	s.committing = true
	defer func() {
		s.committing = committing
	}()
	return fn()
}

// afterStateChangeLocked invalidates cached getters and, in strict mode,
// records the sanctioned state as the new baseline.
func (s *Store) afterStateChangeLocked() {
	s.version++
	if s.cfg.strict {
		s.baseline = layering.Clone(s.state)
	}
}
