package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-store/layering"
)

// ActionContext is the local context handed to actions. Commit and Dispatch
// resolve types inside the module namespace unless WithRoot is passed.
type ActionContext struct {
	store     *Store
	namespace string
	path      []string
}

// Namespace returns the module namespace, empty for modules that are not
// namespaced.
func (ac *ActionContext) Namespace() string {
	return ac.namespace
}

// Path returns the module path inside the state tree.
func (ac *ActionContext) Path() []string {
	return clonePath(ac.path)
}

// State returns a copy of the module state. Sibling actions may run
// concurrently, so actions never see the live tree. Modules that were
// unregistered in the meantime see nil.
func (ac *ActionContext) State() State {
	ac.store.mu.Lock()
	defer ac.store.mu.Unlock()
	return layering.Clone(ac.store.nestedState(ac.path))
}

// RootState returns a copy of the root state.
func (ac *ActionContext) RootState() State {
	return ac.store.Snapshot()
}

// Getters returns the module getters with the namespace stripped. Values are
// copies, as with State.
func (ac *ActionContext) Getters() Getters {
	return getterView{store: ac.store, namespace: ac.namespace}
}

// RootGetters returns every getter by fully qualified name.
func (ac *ActionContext) RootGetters() Getters {
	return ac.store.Getters()
}

// Commit commits a mutation from the module.
func (ac *ActionContext) Commit(typ any, payload any, opts ...CallOption) error {
	record, err := normalizeRecord(typ, payload)
	if err != nil {
		return err
	}
	cfg := applyCallOptions(opts)
	if cfg.root || ac.namespace == "" {
		return ac.store.commitRecord(record)
	}

	record.Type = ac.namespace + record.Type
	if !ac.store.hasMutation(record.Type) {
		ac.store.report(Diagnostic{
			Kind:      DiagnosticUnknownLocalMutation,
			Type:      record.Type,
			Path:      clonePath(ac.path),
			Namespace: ac.namespace,
			Err:       fmt.Errorf("%w: %q in namespace %q", ErrUnknownMutation, strings.TrimPrefix(record.Type, ac.namespace), ac.namespace),
		})
		return nil
	}
	return ac.store.commitRecord(record)
}

// Dispatch dispatches an action from the module.
func (ac *ActionContext) Dispatch(ctx context.Context, typ any, payload any, opts ...CallOption) (any, error) {
	record, err := normalizeRecord(typ, payload)
	if err != nil {
		return nil, err
	}
	cfg := applyCallOptions(opts)
	if cfg.root || ac.namespace == "" {
		return ac.store.dispatchRecord(ctx, record)
	}

	record.Type = ac.namespace + record.Type
	if !ac.store.hasAction(record.Type) {
		ac.store.report(Diagnostic{
			Kind:      DiagnosticUnknownLocalAction,
			Type:      record.Type,
			Path:      clonePath(ac.path),
			Namespace: ac.namespace,
			Err:       fmt.Errorf("%w: %q in namespace %q", ErrUnknownAction, strings.TrimPrefix(record.Type, ac.namespace), ac.namespace),
		})
		return nil, nil
	}
	return ac.store.dispatchRecord(ctx, record)
}
