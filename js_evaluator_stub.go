//go:build !js_eval

package store

// NewJSEvaluator returns nil unless the module is built with the js_eval
// tag. WithEvaluator treats nil as "use the default engine".
func NewJSEvaluator(opts ...JSEvaluatorOption) Evaluator {
	_ = applyJSEvaluatorOptions(opts)
	return nil
}

func jsEvaluatorAvailable() bool {
	return false
}
