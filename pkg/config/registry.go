package config

import (
	"fmt"
	"strings"
	"sync"

	store "github.com/goliatone/go-store"
)

// Registry maps handler reference names used in definitions to functions.
type Registry struct {
	mu        sync.RWMutex
	mutations map[string]store.Mutation
	actions   map[string]store.Action
}

func NewRegistry() *Registry {
	return &Registry{
		mutations: map[string]store.Mutation{},
		actions:   map[string]store.Action{},
	}
}

// RegisterMutation adds fn under name. Names must be unique per kind.
func (r *Registry) RegisterMutation(name string, fn store.Mutation) error {
	name = strings.TrimSpace(name)
	if name == "" || fn == nil {
		return fmt.Errorf("config: mutation name and handler are required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.mutations[name]; exists {
		return fmt.Errorf("config: mutation %q already registered", name)
	}
	r.mutations[name] = fn
	return nil
}

// RegisterAction adds fn under name. Names must be unique per kind.
func (r *Registry) RegisterAction(name string, fn store.Action) error {
	name = strings.TrimSpace(name)
	if name == "" || fn == nil {
		return fmt.Errorf("config: action name and handler are required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.actions[name]; exists {
		return fmt.Errorf("config: action %q already registered", name)
	}
	r.actions[name] = fn
	return nil
}

func (r *Registry) Mutation(name string) (store.Mutation, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.mutations[strings.TrimSpace(name)]
	return fn, ok
}

func (r *Registry) Action(name string) (store.Action, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.actions[strings.TrimSpace(name)]
	return fn, ok
}
