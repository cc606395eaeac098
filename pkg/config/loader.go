// Package config builds store module trees from YAML definitions.
//
// A definition names its handlers instead of embedding them: mutations and
// actions reference functions registered by name in a Registry, getters are
// expressions evaluated by the store evaluator.
//
//	namespaced: false
//	state:
//	  count: 0
//	getters:
//	  double: count * 2
//	mutations:
//	  increment: counter.increment
//	modules:
//	  cart:
//	    namespaced: true
//	    state:
//	      items: []
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	store "github.com/goliatone/go-store"
	"github.com/goliatone/go-store/layering"
	"gopkg.in/yaml.v3"
)

// MaxDefinitionSize bounds the size of a YAML definition file.
const MaxDefinitionSize = 1024 * 1024

var ErrUnknownHandler = errors.New("config: unknown handler reference")

// Definition is the YAML shape of one module.
type Definition struct {
	Namespaced bool                   `yaml:"namespaced"`
	State      map[string]any         `yaml:"state"`
	Getters    map[string]string      `yaml:"getters"`
	Mutations  map[string]string      `yaml:"mutations"`
	Actions    map[string]string      `yaml:"actions"`
	Modules    map[string]*Definition `yaml:"modules"`
}

// Parse decodes a YAML definition without resolving handler references.
// Unknown fields are errors.
func Parse(data []byte) (*Definition, error) {
	if len(data) > MaxDefinitionSize {
		return nil, fmt.Errorf("config: definition is %d bytes, limit %d", len(data), MaxDefinitionSize)
	}
	def := &Definition{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(def); err != nil {
		return nil, fmt.Errorf("config: parse definition: %w", err)
	}
	return def, nil
}

// Load parses data and builds the module tree, resolving handler references
// against registry.
func Load(data []byte, registry *Registry) (*store.Module, error) {
	def, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return def.Build(registry)
}

// LoadFile reads and loads the definition at path.
func LoadFile(path string, registry *Registry) (*store.Module, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("config: stat %s: %w", path, err)
	}
	if info.Size() > MaxDefinitionSize {
		return nil, fmt.Errorf("config: %s is %d bytes, limit %d", path, info.Size(), MaxDefinitionSize)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Load(data, registry)
}

// Build converts the definition into a store module. Every reference must
// resolve; the first missing one fails the whole build.
func (d *Definition) Build(registry *Registry) (*store.Module, error) {
	if registry == nil {
		registry = NewRegistry()
	}
	return d.build(registry, nil)
}

func (d *Definition) build(registry *Registry, path []string) (*store.Module, error) {
	if d == nil {
		return &store.Module{}, nil
	}
	out := &store.Module{
		Namespaced: d.Namespaced,
		State:      stateFactory(d.State),
	}

	if len(d.Getters) > 0 {
		out.ExprGetters = make(map[string]string, len(d.Getters))
		for name, expr := range d.Getters {
			if strings.TrimSpace(expr) == "" {
				return nil, fmt.Errorf("config: %s: getter %q has empty expression", label(path), name)
			}
			out.ExprGetters[name] = expr
		}
	}

	for _, name := range sortedKeys(d.Mutations) {
		ref := d.Mutations[name]
		fn, ok := registry.Mutation(ref)
		if !ok {
			return nil, fmt.Errorf("%w: %s: mutation %q references %q", ErrUnknownHandler, label(path), name, ref)
		}
		if out.Mutations == nil {
			out.Mutations = map[string]store.Mutation{}
		}
		out.Mutations[name] = fn
	}

	for _, name := range sortedKeys(d.Actions) {
		ref := d.Actions[name]
		fn, ok := registry.Action(ref)
		if !ok {
			return nil, fmt.Errorf("%w: %s: action %q references %q", ErrUnknownHandler, label(path), name, ref)
		}
		if out.Actions == nil {
			out.Actions = map[string]store.Action{}
		}
		out.Actions[name] = fn
	}

	for _, key := range sortedKeys(d.Modules) {
		child, err := d.Modules[key].build(registry, append(path[:len(path):len(path)], key))
		if err != nil {
			return nil, err
		}
		if out.Modules == nil {
			out.Modules = map[string]*store.Module{}
		}
		out.Modules[key] = child
	}
	return out, nil
}

// stateFactory returns a factory handing out deep copies of the declared
// state, so re-registered modules start fresh.
func stateFactory(initial map[string]any) func() store.State {
	return func() store.State {
		if initial == nil {
			return store.State{}
		}
		return layering.Clone(store.State(initial))
	}
}

func label(path []string) string {
	if len(path) == 0 {
		return "<root>"
	}
	return strings.Join(path, "/")
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
