package store

import "errors"

var (
	// ErrInvalidType indicates Commit or Dispatch received a type that is not a string.
	ErrInvalidType = errors.New("store: type must be a string")
	// ErrUnknownMutation is attached to diagnostics for commits without a handler.
	ErrUnknownMutation = errors.New("store: unknown mutation type")
	// ErrUnknownAction is attached to diagnostics for dispatches without a handler.
	ErrUnknownAction = errors.New("store: unknown action type")
	// ErrInvalidState indicates a module state that is neither a State nor a factory.
	ErrInvalidState = errors.New("store: module state must be State or func() State")
	// ErrModuleNotFound indicates a path that does not resolve to a module.
	ErrModuleNotFound = errors.New("store: module not found")
	// ErrParentNotFound indicates a registration under a missing parent path.
	ErrParentNotFound = errors.New("store: parent module not found")
	// ErrModuleExists indicates a registration at a path already in use.
	ErrModuleExists = errors.New("store: module already registered")
	// ErrStaticModule indicates an attempt to unregister a module declared at construction.
	ErrStaticModule = errors.New("store: cannot unregister a static module")
	// ErrRootModule indicates an operation that cannot target the root module.
	ErrRootModule = errors.New("store: operation not allowed on the root module")
	// ErrDuplicateNamespace is reported when two modules resolve to the same namespace.
	ErrDuplicateNamespace = errors.New("store: duplicate namespace")
	// ErrDuplicateGetter is reported when a getter name is registered twice.
	ErrDuplicateGetter = errors.New("store: duplicate getter")
	// ErrNewModuleOnHotUpdate indicates HotUpdate named a module that is not registered.
	ErrNewModuleOnHotUpdate = errors.New("store: hot update cannot add modules")
	// ErrStrictViolation indicates state changed outside a mutation handler.
	ErrStrictViolation = errors.New("store: state mutated outside mutation handlers")
	// ErrActionPanic wraps a panic recovered from a fanned-out action handler.
	ErrActionPanic = errors.New("store: action handler panicked")
	// ErrGetterCycle is reported when a getter depends on itself.
	ErrGetterCycle = errors.New("store: getter cycle")
	// ErrEvaluationTimeout is returned when a script exceeds JSWithTimeout.
	ErrEvaluationTimeout = errors.New("store: expression evaluation timed out")
)
