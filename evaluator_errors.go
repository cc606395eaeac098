package store

import (
	"errors"
	"fmt"
	"strings"
)

// EvaluationError reports a failed expression getter or subscription filter.
// Getter holds the fully qualified getter name and is empty for filters.
// Namespace is the module namespace the expression ran in.
type EvaluationError struct {
	Engine    string
	Expr      string
	Getter    string
	Namespace string
	Err       error
}

func (e *EvaluationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	var b strings.Builder
	b.WriteString("store: ")
	b.WriteString(e.Engine)
	if e.Getter != "" {
		fmt.Fprintf(&b, " getter %q", e.Getter)
	} else {
		b.WriteString(" expression")
	}
	if e.Expr == "" {
		b.WriteString(" <empty>")
	} else {
		fmt.Fprintf(&b, " %q", e.Expr)
	}
	if e.Namespace != "" {
		fmt.Fprintf(&b, " in %s", e.Namespace)
	}
	fmt.Fprintf(&b, ": %v", e.Err)
	return b.String()
}

func (e *EvaluationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// wrapEvaluatorError prefixes engine failures that carry no expression, such
// as an empty input. Errors that already name the store pass through.
func wrapEvaluatorError(engine string, err error) error {
	if err == nil {
		return nil
	}
	var evalErr *EvaluationError
	if errors.As(err, &evalErr) || strings.HasPrefix(err.Error(), "store:") {
		return err
	}
	return fmt.Errorf("store: %s evaluator: %w", engine, err)
}

// wrapEvaluationError attaches expression metadata to err. An existing
// EvaluationError only has its empty fields filled.
func wrapEvaluationError(engine, expr, namespace string, err error) error {
	if err == nil {
		return nil
	}

	var evalErr *EvaluationError
	if !errors.As(err, &evalErr) {
		return &EvaluationError{Engine: engine, Expr: expr, Namespace: namespace, Err: err}
	}
	if evalErr.Engine == "" {
		evalErr.Engine = engine
	}
	if evalErr.Expr == "" {
		evalErr.Expr = expr
	}
	if evalErr.Namespace == "" {
		evalErr.Namespace = namespace
	}
	return evalErr
}

// forGetter names the getter an evaluation failure belongs to.
func forGetter(err error, name string) error {
	var evalErr *EvaluationError
	if errors.As(err, &evalErr) && evalErr.Getter == "" {
		evalErr.Getter = name
	}
	return err
}
