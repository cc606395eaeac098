package store

import "github.com/goliatone/go-store/pkg/activity"

// Option configures a Store at construction time.
type Option func(*storeConfig)

type storeConfig struct {
	strict          bool
	diagnostics     DiagnosticLogger
	evaluator       Evaluator
	programCache    ProgramCache
	functions       *FunctionRegistry
	evaluatorLogger EvaluatorLogger
	schemaGenerator SchemaGenerator
	activityHooks   activity.Hooks
	activityConfig  *activity.Config
	plugins         []Plugin
}

func applyOptions(opts []Option) storeConfig {
	cfg := storeConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// WithStrict enables strict mode: any state change observed outside a
// mutation handler is reported as ErrStrictViolation by the next Commit,
// Dispatch or Verify call.
func WithStrict(strict bool) Option {
	return func(cfg *storeConfig) {
		cfg.strict = strict
	}
}

// WithEvaluator configures the evaluator used by expression getters and
// subscription filters. A nil evaluator keeps the expr default.
func WithEvaluator(e Evaluator) Option {
	return func(cfg *storeConfig) {
		cfg.evaluator = e
	}
}

// WithSchemaGenerator configures a custom schema generator implementation.
func WithSchemaGenerator(generator SchemaGenerator) Option {
	return func(cfg *storeConfig) {
		cfg.schemaGenerator = generator
	}
}

// WithPlugins registers plugins invoked once the store is constructed, in
// the order given.
func WithPlugins(plugins ...Plugin) Option {
	return func(cfg *storeConfig) {
		for _, plugin := range plugins {
			if plugin != nil {
				cfg.plugins = append(cfg.plugins, plugin)
			}
		}
	}
}

// CallOption configures a single Commit or Dispatch call.
type CallOption func(*callConfig)

type callConfig struct {
	root bool
}

func applyCallOptions(opts []CallOption) callConfig {
	cfg := callConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// WithRoot addresses the type at the root namespace when committing or
// dispatching from an action context.
func WithRoot() CallOption {
	return func(cfg *callConfig) {
		cfg.root = true
	}
}

// SubscribeOption configures Subscribe and SubscribeAction.
type SubscribeOption func(*subscribeConfig)

type subscribeConfig struct {
	prepend bool
	filter  string
}

func applySubscribeOptions(opts []SubscribeOption) subscribeConfig {
	cfg := subscribeConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// WithPrepend inserts the subscriber in front of the existing ones.
func WithPrepend() SubscribeOption {
	return func(cfg *subscribeConfig) {
		cfg.prepend = true
	}
}

// WithFilter only notifies the subscriber when expression evaluates to true.
// The expression sees the record type as `name` and its `payload`.
func WithFilter(expression string) SubscribeOption {
	return func(cfg *subscribeConfig) {
		cfg.filter = expression
	}
}

// WatchOption configures Watch.
type WatchOption func(*watchConfig)

type watchConfig struct {
	immediate bool
}

// WithImmediate invokes the callback with the current value on registration.
func WithImmediate() WatchOption {
	return func(cfg *watchConfig) {
		cfg.immediate = true
	}
}

// RegisterOption configures RegisterModule.
type RegisterOption func(*registerConfig)

type registerConfig struct {
	preserveState bool
}

// WithPreserveState keeps state already present at the module path instead
// of grafting the module's initial state, e.g. after server-side hydration.
func WithPreserveState() RegisterOption {
	return func(cfg *registerConfig) {
		cfg.preserveState = true
	}
}
