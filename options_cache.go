package store

import "sync"

// ProgramCache stores compiled expression programs. Keys are prefixed with
// the engine name so evaluators can share one cache.
type ProgramCache interface {
	Get(key string) (any, bool)
	Set(key string, value any)
}

// WithProgramCache shares compiled programs across the default evaluator's
// compilations. It has no effect on an evaluator passed to WithEvaluator.
func WithProgramCache(cache ProgramCache) Option {
	return func(cfg *storeConfig) {
		cfg.programCache = cache
	}
}

// MapProgramCache is an unbounded ProgramCache safe for concurrent use.
type MapProgramCache struct {
	programs sync.Map
}

// Get implements ProgramCache.
func (c *MapProgramCache) Get(key string) (any, bool) {
	return c.programs.Load(key)
}

// Set implements ProgramCache.
func (c *MapProgramCache) Set(key string, value any) {
	c.programs.Store(key, value)
}
