package store

import (
	"fmt"
	"sort"
)

type installMode int

const (
	// installFresh grafts module state into the parent state.
	installFresh installMode = iota
	// installPreserve keeps state already present at the module path.
	installPreserve
	// installHot leaves state untouched and only rebuilds dispatch tables.
	installHot
)

type mutationEntry struct {
	path    []string
	handler Mutation
}

type actionEntry struct {
	handler Action
	context *ActionContext
}

// installModule registers every module of the subtree rooted at m in
// registration order, so a rebuild reproduces the handler order and getter
// winners of the original registrations. Callers hold s.mu.
func (s *Store) installModule(path []string, m *module, mode installMode) {
	for _, step := range installOrder(path, m) {
		s.installNode(step.path, step.node, mode)
	}
}

// installNode registers the handlers of one module under their namespaced
// types and, depending on mode, grafts its state.
func (s *Store) installNode(path []string, m *module, mode installMode) {
	isRoot := len(path) == 0
	namespace := s.modules.getNamespace(path)

	if m.namespaced() && !isRoot {
		if existing, ok := s.namespaces[namespace]; ok && existing != m {
			s.report(Diagnostic{
				Kind:      DiagnosticDuplicateNamespace,
				Path:      clonePath(path),
				Namespace: namespace,
				Err:       fmt.Errorf("%w: %q for %s", ErrDuplicateNamespace, namespace, joinPath(path)),
			})
		}
		s.namespaces[namespace] = m
	}

	if !isRoot && mode != installHot {
		s.graftState(path, m, mode)
	}

	local := &ActionContext{store: s, namespace: namespace, path: clonePath(path)}

	for _, name := range sortedKeys(m.raw.Mutations) {
		handler := m.raw.Mutations[name]
		if handler == nil {
			continue
		}
		typ := namespace + name
		s.mutations[typ] = append(s.mutations[typ], &mutationEntry{
			path:    local.path,
			handler: handler,
		})
	}

	for _, name := range sortedKeys(m.raw.Actions) {
		handler := m.raw.Actions[name]
		if handler == nil {
			continue
		}
		typ := namespace + name
		s.actions[typ] = append(s.actions[typ], &actionEntry{
			handler: handler,
			context: local,
		})
	}

	for _, name := range sortedKeys(m.raw.Getters) {
		getter := m.raw.Getters[name]
		if getter == nil {
			continue
		}
		s.registerGetter(namespace+name, local.path, namespace, s.functionGetter(local.path, namespace, getter))
	}

	for _, name := range sortedKeys(m.raw.ExprGetters) {
		expression := m.raw.ExprGetters[name]
		compute, err := s.expressionGetter(namespace+name, local.path, namespace, expression)
		if err != nil {
			if m.noteExprFailure(name, expression) {
				s.report(Diagnostic{
					Kind:      DiagnosticExpression,
					Type:      namespace + name,
					Path:      clonePath(path),
					Namespace: namespace,
					Err:       err,
				})
			}
			continue
		}
		delete(m.exprFailures, name)
		s.registerGetter(namespace+name, local.path, namespace, compute)
	}
}

func (s *Store) graftState(path []string, m *module, mode installMode) {
	parent := s.nestedState(path[:len(path)-1])
	if parent == nil {
		return
	}
	key := path[len(path)-1]
	existing, exists := parent[key]
	if mode == installPreserve {
		if _, ok := existing.(State); ok {
			return
		}
	}
	s.withCommit(func() error {
		if exists {
			s.report(Diagnostic{
				Kind:    DiagnosticStateOverride,
				Path:    clonePath(path),
				Message: fmt.Sprintf("state field %q was overridden by a module with the same name at %s", key, joinPath(path)),
			})
		}
		parent[key] = m.state
		return nil
	})
}

// registerGetter keeps the first registration of a name; later ones are
// reported and dropped. Rebuilds install in registration order, so the same
// registration keeps winning.
func (s *Store) registerGetter(name string, path []string, namespace string, compute func() any) {
	if _, exists := s.getters[name]; exists {
		s.report(Diagnostic{
			Kind:      DiagnosticDuplicateGetter,
			Type:      name,
			Path:      clonePath(path),
			Namespace: namespace,
			Err:       fmt.Errorf("%w: %q", ErrDuplicateGetter, name),
		})
		return
	}
	s.getters[name] = &getterEntry{name: name, compute: compute}
	idx := sort.SearchStrings(s.getterKeys, name)
	s.getterKeys = append(s.getterKeys, "")
	copy(s.getterKeys[idx+1:], s.getterKeys[idx:])
	s.getterKeys[idx] = name
}

func (s *Store) functionGetter(path []string, namespace string, getter Getter) func() any {
	local := getterView{store: s, namespace: namespace, held: true}
	root := getterView{store: s, held: true}
	return func() any {
		return getter(s.nestedState(path), local, s.state, root)
	}
}

// resetStoreLocked rebuilds every dispatch table from the module tree
// without touching state. Cached getter values are discarded with the old
// entries.
func (s *Store) resetStoreLocked() {
	s.resetTablesLocked()
	s.installModule(nil, s.modules.root, installHot)
}
