package store

import (
	"fmt"
	"strings"
)

// moduleCollection owns the module tree. Every lookup walks child links from
// the root.
type moduleCollection struct {
	root *module
	seq  uint64
}

func newModuleCollection(raw *Module) (*moduleCollection, error) {
	c := &moduleCollection{}
	if err := c.register(nil, raw, false); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *moduleCollection) get(path []string) (*module, bool) {
	current := c.root
	if current == nil {
		return nil, false
	}
	for _, key := range path {
		child, ok := current.child(key)
		if !ok {
			return nil, false
		}
		current = child
	}
	return current, true
}

// getNamespace folds over path, appending `key/` for every namespaced module
// along the way. The root module never contributes.
func (c *moduleCollection) getNamespace(path []string) string {
	current := c.root
	var b strings.Builder
	for _, key := range path {
		if current == nil {
			break
		}
		child, ok := current.child(key)
		if !ok {
			break
		}
		if child.namespaced() {
			b.WriteString(key)
			b.WriteByte('/')
		}
		current = child
	}
	return b.String()
}

func (c *moduleCollection) isRegistered(path []string) bool {
	_, ok := c.get(path)
	return ok
}

// register instantiates raw at path and recurses into its nested modules
// with the same runtime flag. The whole subtree is validated before anything
// is attached.
func (c *moduleCollection) register(path []string, raw *Module, runtime bool) error {
	if err := validateModule(raw, path); err != nil {
		return err
	}
	var parent *module
	if len(path) > 0 {
		var ok bool
		parent, ok = c.get(path[:len(path)-1])
		if !ok {
			return fmt.Errorf("%w: %s", ErrParentNotFound, joinPath(path[:len(path)-1]))
		}
		if _, exists := parent.child(path[len(path)-1]); exists {
			return fmt.Errorf("%w: %s", ErrModuleExists, joinPath(path))
		}
	}
	node, err := c.build(raw, runtime)
	if err != nil {
		return err
	}
	if parent == nil {
		c.root = node
		return nil
	}
	parent.addChild(path[len(path)-1], node)
	return nil
}

func (c *moduleCollection) build(raw *Module, runtime bool) (*module, error) {
	node, err := newModule(raw, runtime)
	if err != nil {
		return nil, err
	}
	c.seq++
	node.seq = c.seq
	for _, key := range sortedKeys(node.raw.Modules) {
		child, err := c.build(node.raw.Modules[key], runtime)
		if err != nil {
			return nil, err
		}
		node.addChild(key, child)
	}
	return node, nil
}

// unregister detaches a runtime module from its parent. Static modules and
// missing paths are rejected.
func (c *moduleCollection) unregister(path []string) error {
	if len(path) == 0 {
		return fmt.Errorf("%w: cannot unregister the root module", ErrRootModule)
	}
	parent, ok := c.get(path[:len(path)-1])
	if !ok {
		return fmt.Errorf("%w: %s", ErrModuleNotFound, joinPath(path))
	}
	key := path[len(path)-1]
	child, ok := parent.child(key)
	if !ok {
		return fmt.Errorf("%w: %s", ErrModuleNotFound, joinPath(path))
	}
	if !child.runtime {
		return fmt.Errorf("%w: %s", ErrStaticModule, joinPath(path))
	}
	parent.removeChild(key)
	return nil
}

// update merges handler definitions from raw onto the live tree. Nothing is
// applied when raw names a module that is not registered.
func (c *moduleCollection) update(raw *Module) error {
	if raw == nil {
		return nil
	}
	if c.root == nil {
		return fmt.Errorf("%w: %s", ErrModuleNotFound, joinPath(nil))
	}
	if err := checkUpdate(nil, c.root, raw); err != nil {
		return err
	}
	applyUpdate(c.root, raw)
	return nil
}

func checkUpdate(path []string, target *module, raw *Module) error {
	for _, key := range sortedKeys(raw.Modules) {
		childPath := appendPath(path, key)
		child, ok := target.child(key)
		if !ok {
			return fmt.Errorf("%w: %s", ErrNewModuleOnHotUpdate, joinPath(childPath))
		}
		if next := raw.Modules[key]; next != nil {
			if err := checkUpdate(childPath, child, next); err != nil {
				return err
			}
		}
	}
	return nil
}

func applyUpdate(target *module, raw *Module) {
	target.update(raw)
	for _, key := range sortedKeys(raw.Modules) {
		next := raw.Modules[key]
		if next == nil {
			continue
		}
		child, _ := target.child(key)
		applyUpdate(child, next)
	}
}
