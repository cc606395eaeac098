package store

import (
	"sort"
	"strings"
)

// Description is an inventory of the registered modules.
type Description struct {
	Modules []ModuleDescription `json:"modules"`
}

// ModuleDescription lists what one module contributes, with local names.
type ModuleDescription struct {
	Path        []string `json:"path"`
	Namespace   string   `json:"namespace,omitempty"`
	Namespaced  bool     `json:"namespaced"`
	Runtime     bool     `json:"runtime"`
	Mutations   []string `json:"mutations,omitempty"`
	Actions     []string `json:"actions,omitempty"`
	Getters     []string `json:"getters,omitempty"`
	ExprGetters []string `json:"expr_getters,omitempty"`
}

// Describe walks the module tree depth first. Modules are sorted by path.
func (s *Store) Describe() Description {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []ModuleDescription
	var walk func(path []string, m *module)
	walk = func(path []string, m *module) {
		out = append(out, ModuleDescription{
			Path:        clonePath(path),
			Namespace:   s.modules.getNamespace(path),
			Namespaced:  m.namespaced() && len(path) > 0,
			Runtime:     m.runtime,
			Mutations:   sortedKeys(m.raw.Mutations),
			Actions:     sortedKeys(m.raw.Actions),
			Getters:     sortedKeys(m.raw.Getters),
			ExprGetters: sortedKeys(m.raw.ExprGetters),
		})
		m.forEachChild(func(key string, child *module) {
			walk(appendPath(path, key), child)
		})
	}
	if s.modules.root != nil {
		walk(nil, s.modules.root)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return strings.Join(out[i].Path, "/") < strings.Join(out[j].Path, "/")
	})
	return Description{Modules: out}
}
