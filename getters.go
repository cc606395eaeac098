package store

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-store/layering"
)

// getterEntry memoizes one fully qualified getter. The cached value is valid
// while version matches the store version.
type getterEntry struct {
	name       string
	compute    func() any
	value      any
	version    uint64
	ready      bool
	evaluating bool
}

// evaluateGetter returns the cached value of name, recomputing it when state
// changed since the last read. Callers hold s.mu.
func (s *Store) evaluateGetter(name string) (any, bool) {
	entry, ok := s.getters[name]
	if !ok {
		return nil, false
	}
	if entry.ready && entry.version == s.version {
		return entry.value, true
	}
	if entry.evaluating {
		s.report(Diagnostic{
			Kind: DiagnosticGetterCycle,
			Type: name,
			Err:  fmt.Errorf("%w: %q", ErrGetterCycle, name),
		})
		return nil, true
	}

	entry.evaluating = true
	defer func() {
		entry.evaluating = false
	}()
	value := entry.compute()
	entry.value = value
	entry.version = s.version
	entry.ready = true
	return value, true
}

// Getters returns the root getter view keyed by fully qualified names.
func (s *Store) Getters() Getters {
	return getterView{store: s}
}

// Getter reads one getter by fully qualified name. The value is a copy, so
// it stays valid while other goroutines commit.
func (s *Store) Getter(name string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value, ok := s.evaluateGetter(name)
	return layering.Clone(value), ok
}

// getterView exposes the getters under namespace with the prefix stripped.
// An empty namespace is the root view. held marks views handed to code that
// already runs under s.mu.
type getterView struct {
	store     *Store
	namespace string
	held      bool
}

func (v getterView) Get(name string) any {
	value, _ := v.Lookup(name)
	return value
}

func (v getterView) Lookup(name string) (any, bool) {
	if v.held {
		return v.store.evaluateGetter(v.namespace + name)
	}
	v.store.mu.Lock()
	defer v.store.mu.Unlock()
	value, ok := v.store.evaluateGetter(v.namespace + name)
	return layering.Clone(value), ok
}

func (v getterView) Names() []string {
	if !v.held {
		v.store.mu.Lock()
		defer v.store.mu.Unlock()
	}
	var names []string
	for _, key := range v.store.getterKeys {
		if local, ok := strings.CutPrefix(key, v.namespace); ok {
			names = append(names, local)
		}
	}
	return names
}
