package store

import (
	"context"
	"time"
)

// State is the plain map backing the state tree. The state of a child module
// lives under its key in the parent state, whether the child is namespaced
// or not.
type State = map[string]any

// Mutation is a synchronous state change handler. It receives the state of
// the module that registered it and the raw payload passed to Commit.
type Mutation func(state State, payload any) error

// Action orchestrates side effects and commits through the local context of
// the module that registered it.
type Action func(ctx context.Context, ac *ActionContext, payload any) (any, error)

// Getter derives a value from module state, local getters and the root
// context. Getter results are cached until the next state change.
type Getter func(state State, getters Getters, rootState State, rootGetters Getters) any

// Getters is a read-only view over registered getters. Views handed to
// getters are scoped to the module namespace; the store view exposes fully
// qualified names.
type Getters interface {
	Get(name string) any
	Lookup(name string) (any, bool)
	Names() []string
}

// Record is the normalized form of a commit or dispatch. It is also the
// value subscribers receive.
type Record struct {
	Type    string
	Payload any
}

// Typed lets a payload carry its own mutation or action type. When passed
// as the type argument of Commit or Dispatch the value itself becomes the
// payload.
type Typed interface {
	StoreType() string
}

// Plugin runs once against a freshly constructed store.
type Plugin func(*Store)

// EvalContext carries inputs needed when evaluating an expression getter or
// a subscription filter.
type EvalContext struct {
	Snapshot  any
	Now       *time.Time
	Args      map[string]any
	Metadata  map[string]any
	Namespace string
}

func (ctx EvalContext) withDefaultNow() EvalContext {
	if ctx.Now != nil {
		return ctx
	}
	now := time.Now()
	ctx.Now = &now
	return ctx
}

func (ctx EvalContext) timestamp() time.Time {
	ctx = ctx.withDefaultNow()
	return *ctx.Now
}

func (ctx EvalContext) withDefaultMaps() EvalContext {
	if ctx.Args == nil {
		ctx.Args = map[string]any{}
	}
	if ctx.Metadata == nil {
		ctx.Metadata = map[string]any{}
	}
	return ctx
}

func (ctx EvalContext) withDefaults() EvalContext {
	return ctx.withDefaultNow().withDefaultMaps()
}

func (ctx EvalContext) label() string {
	if ctx.Namespace != "" {
		return ctx.Namespace
	}
	return "root"
}

// Evaluator executes expressions against an evaluation context.
type Evaluator interface {
	Evaluate(ctx EvalContext, expr string) (any, error)
	Compile(expr string, opts ...CompileOption) (CompiledRule, error)
}

// CompiledRule represents a reusable expression program.
type CompiledRule interface {
	Evaluate(ctx EvalContext) (any, error)
}

// CompileOption configures evaluator compile behaviour.
type CompileOption interface {
	applyCompileOption(*compileConfig)
}

type compileConfig struct{}

type compileOptionFunc func(*compileConfig)

func (f compileOptionFunc) applyCompileOption(cfg *compileConfig) {
	if f != nil {
		f(cfg)
	}
}
