package store

import (
	"errors"
	"fmt"
	"time"
)

var ErrNoEvaluator = errors.New("store: evaluator not configured")

// resolveEvaluator returns the configured evaluator, building the expr
// default on first use. Callers hold s.mu or run before the store is shared.
func (s *Store) resolveEvaluator() (Evaluator, error) {
	if s.cfg.evaluator != nil {
		return s.cfg.evaluator, nil
	}
	var exprOpts []ExprEvaluatorOption
	if s.cfg.programCache != nil {
		exprOpts = append(exprOpts, ExprWithProgramCache(s.cfg.programCache))
	}
	if s.cfg.functions != nil {
		exprOpts = append(exprOpts, ExprWithFunctionRegistry(s.cfg.functions))
	}
	evaluator := NewExprEvaluator(exprOpts...)
	if evaluator == nil {
		return nil, ErrNoEvaluator
	}
	s.cfg.evaluator = evaluator
	return evaluator, nil
}

func evaluatorEngineName(e Evaluator) string {
	switch e.(type) {
	case nil:
		return "unknown"
	case *exprEvaluator:
		return "expr"
	case *celEvaluator:
		return "cel"
	default:
		if name := fmt.Sprintf("%T", e); name == "*store.jsEvaluator" {
			return "js"
		}
		return "custom"
	}
}

// expressionGetter compiles expression once and returns a getter body that
// evaluates it against the module state. The environment exposes the local
// state fields at the top level plus state and rootState.
// Callers hold s.mu.
func (s *Store) expressionGetter(name string, path []string, namespace, expression string) (func() any, error) {
	evaluator, err := s.resolveEvaluator()
	if err != nil {
		return nil, err
	}
	engine := evaluatorEngineName(evaluator)
	rule, err := evaluator.Compile(expression)
	if err != nil {
		return nil, forGetter(wrapEvaluationError(engine, expression, namespace, err), name)
	}

	return func() any {
		state := s.nestedState(path)
		snapshot := make(map[string]any, len(state)+2)
		for key, value := range state {
			snapshot[key] = value
		}
		snapshot["state"] = state
		snapshot["rootState"] = s.state

		ctx := EvalContext{Snapshot: snapshot, Namespace: namespace}.withDefaults()
		start := time.Now()
		value, evalErr := rule.Evaluate(ctx)
		evalErr = forGetter(wrapEvaluationError(engine, expression, ctx.label(), evalErr), name)
		s.evaluatorLogger().LogEvaluation(EvaluatorLogEvent{
			Engine:    engine,
			Expr:      expression,
			Namespace: ctx.label(),
			Duration:  time.Since(start),
			Err:       evalErr,
		})
		if evalErr != nil {
			s.report(Diagnostic{
				Kind:      DiagnosticExpression,
				Type:      name,
				Path:      clonePath(path),
				Namespace: namespace,
				Err:       evalErr,
			})
			return nil
		}
		return value
	}, nil
}

// compileFilter compiles a subscription filter with the store evaluator.
func (s *Store) compileFilter(expression string) (CompiledRule, error) {
	s.mu.Lock()
	evaluator, err := s.resolveEvaluator()
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	rule, err := evaluator.Compile(expression)
	if err != nil {
		return nil, wrapEvaluationError(evaluatorEngineName(evaluator), expression, "", err)
	}
	return rule, nil
}

// matchFilter evaluates rule against the record, exposed as name and
// payload. Non-boolean results are errors.
func matchFilter(rule CompiledRule, record Record) (bool, error) {
	value, err := rule.Evaluate(EvalContext{
		Snapshot: map[string]any{"name": record.Type, "payload": record.Payload},
	}.withDefaults())
	if err != nil {
		return false, err
	}
	ok, isBool := value.(bool)
	if !isBool {
		return false, fmt.Errorf("store: filter must evaluate to bool, got %T", value)
	}
	return ok, nil
}
