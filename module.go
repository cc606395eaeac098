package store

import (
	"fmt"
	"sort"
)

// Module is the raw configuration of one node of the state tree.
//
// State is either a State value or a func() State factory. Factories are
// invoked once per instantiation, so the same Module can be registered,
// unregistered and registered again with fresh state. A plain State value is
// shared by every instantiation.
//
// Nested Modules are registered in lexical key order, which is also the
// order handlers sharing a type run in.
type Module struct {
	State       any
	Namespaced  bool
	Mutations   map[string]Mutation
	Actions     map[string]Action
	Getters     map[string]Getter
	ExprGetters map[string]string
	Modules     map[string]*Module
}

// module is the runtime node built from a Module. Children are owned by key;
// there is no back-pointer to the parent.
type module struct {
	raw      *Module
	runtime  bool
	state    State
	children map[string]*module
	order    []string
	// seq is the registration sequence; table rebuilds install in seq order.
	seq uint64
	// exprFailures holds the expression last reported as broken per getter.
	exprFailures map[string]string
}

func newModule(raw *Module, runtime bool) (*module, error) {
	if raw == nil {
		raw = &Module{}
	}
	state, err := instantiateState(raw.State)
	if err != nil {
		return nil, err
	}
	return &module{
		raw:      raw,
		runtime:  runtime,
		state:    state,
		children: map[string]*module{},
	}, nil
}

func instantiateState(raw any) (State, error) {
	switch value := raw.(type) {
	case nil:
		return State{}, nil
	case State:
		if value == nil {
			return State{}, nil
		}
		return value, nil
	case func() State:
		if value == nil {
			return State{}, nil
		}
		state := value()
		if state == nil {
			return State{}, nil
		}
		return state, nil
	default:
		return nil, fmt.Errorf("%w: got %T", ErrInvalidState, raw)
	}
}

func validateModule(raw *Module, path []string) error {
	if raw == nil {
		return nil
	}
	switch raw.State.(type) {
	case nil, State, func() State:
	default:
		return fmt.Errorf("%w: module %q got %T", ErrInvalidState, joinPath(path), raw.State)
	}
	for _, key := range sortedKeys(raw.Modules) {
		if err := validateModule(raw.Modules[key], appendPath(path, key)); err != nil {
			return err
		}
	}
	return nil
}

func (m *module) namespaced() bool {
	return m.raw.Namespaced
}

func (m *module) child(key string) (*module, bool) {
	child, ok := m.children[key]
	return child, ok
}

func (m *module) addChild(key string, child *module) {
	if _, exists := m.children[key]; !exists {
		m.order = append(m.order, key)
	}
	m.children[key] = child
}

func (m *module) removeChild(key string) {
	if _, exists := m.children[key]; !exists {
		return
	}
	delete(m.children, key)
	for i, existing := range m.order {
		if existing == key {
			m.order = append(m.order[:i:i], m.order[i+1:]...)
			break
		}
	}
}

func (m *module) forEachChild(fn func(key string, child *module)) {
	for _, key := range m.order {
		fn(key, m.children[key])
	}
}

type installStep struct {
	path []string
	node *module
}

// installOrder lists the subtree rooted at m in the order its modules were
// registered. Parents always precede their children.
func installOrder(path []string, m *module) []installStep {
	var steps []installStep
	var walk func(path []string, m *module)
	walk = func(path []string, m *module) {
		steps = append(steps, installStep{path: path, node: m})
		m.forEachChild(func(key string, child *module) {
			walk(appendPath(path, key), child)
		})
	}
	walk(path, m)
	sort.SliceStable(steps, func(i, j int) bool {
		return steps[i].node.seq < steps[j].node.seq
	})
	return steps
}

// noteExprFailure reports whether the failure of expression under name is
// new for this module.
func (m *module) noteExprFailure(name, expression string) bool {
	if previous, ok := m.exprFailures[name]; ok && previous == expression {
		return false
	}
	if m.exprFailures == nil {
		m.exprFailures = map[string]string{}
	}
	m.exprFailures[name] = expression
	return true
}

// update swaps handler definitions in place. State is never touched. The
// namespaced flag is always taken from raw; handler maps only when set.
func (m *module) update(raw *Module) {
	next := *m.raw
	next.Namespaced = raw.Namespaced
	if raw.Mutations != nil {
		next.Mutations = raw.Mutations
	}
	if raw.Actions != nil {
		next.Actions = raw.Actions
	}
	if raw.Getters != nil {
		next.Getters = raw.Getters
	}
	if raw.ExprGetters != nil {
		next.ExprGetters = raw.ExprGetters
	}
	m.raw = &next
}

func sortedKeys[V any](m map[string]V) []string {
	if len(m) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func appendPath(path []string, key string) []string {
	out := make([]string, len(path), len(path)+1)
	copy(out, path)
	return append(out, key)
}

func clonePath(path []string) []string {
	if len(path) == 0 {
		return nil
	}
	out := make([]string, len(path))
	copy(out, path)
	return out
}

func joinPath(path []string) string {
	if len(path) == 0 {
		return "<root>"
	}
	out := path[0]
	for _, key := range path[1:] {
		out += "/" + key
	}
	return out
}
