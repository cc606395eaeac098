package store

import (
	"context"
	"log/slog"
	"strings"
)

// DiagnosticKind classifies a reported condition.
type DiagnosticKind string

const (
	DiagnosticUnknownMutation      DiagnosticKind = "unknown_mutation"
	DiagnosticUnknownAction        DiagnosticKind = "unknown_action"
	DiagnosticUnknownLocalMutation DiagnosticKind = "unknown_local_mutation"
	DiagnosticUnknownLocalAction   DiagnosticKind = "unknown_local_action"
	DiagnosticDuplicateNamespace   DiagnosticKind = "duplicate_namespace"
	DiagnosticDuplicateGetter      DiagnosticKind = "duplicate_getter"
	DiagnosticStateOverride        DiagnosticKind = "state_override"
	DiagnosticRegisterModule       DiagnosticKind = "register_module"
	DiagnosticUnregisterModule     DiagnosticKind = "unregister_module"
	DiagnosticHotUpdate            DiagnosticKind = "hot_update"
	DiagnosticStrictViolation      DiagnosticKind = "strict_violation"
	DiagnosticGetterCycle          DiagnosticKind = "getter_cycle"
	DiagnosticExpression           DiagnosticKind = "expression"
	DiagnosticSubscriber           DiagnosticKind = "subscriber"
	DiagnosticActivity             DiagnosticKind = "activity"
)

// Diagnostic describes a recoverable condition the store reported instead of
// failing: unknown types, configuration conflicts, strict-mode violations.
type Diagnostic struct {
	Kind      DiagnosticKind
	Type      string
	Path      []string
	Namespace string
	Message   string
	Err       error
}

// DiagnosticLogger receives store diagnostics. Loggers may be invoked while
// the store holds its lock and must not call back into the store.
type DiagnosticLogger interface {
	LogDiagnostic(Diagnostic)
}

// DiagnosticLoggerFunc adapts a function to DiagnosticLogger.
type DiagnosticLoggerFunc func(Diagnostic)

// LogDiagnostic implements DiagnosticLogger.
func (f DiagnosticLoggerFunc) LogDiagnostic(d Diagnostic) {
	if f != nil {
		f(d)
	}
}

type noopDiagnosticLogger struct{}

func (noopDiagnosticLogger) LogDiagnostic(Diagnostic) {}

// WithDiagnosticLogger attaches a diagnostic logger to the store.
func WithDiagnosticLogger(logger DiagnosticLogger) Option {
	return func(cfg *storeConfig) {
		if logger == nil {
			cfg.diagnostics = noopDiagnosticLogger{}
			return
		}
		cfg.diagnostics = logger
	}
}

// SlogDiagnostics forwards diagnostics to logger, falling back to
// slog.Default when logger is nil. Strict-mode violations log at error
// level, everything else at warn.
func SlogDiagnostics(logger *slog.Logger) DiagnosticLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return DiagnosticLoggerFunc(func(d Diagnostic) {
		level := slog.LevelWarn
		if d.Kind == DiagnosticStrictViolation {
			level = slog.LevelError
		}
		attrs := []any{"kind", string(d.Kind)}
		if d.Type != "" {
			attrs = append(attrs, "type", d.Type)
		}
		if len(d.Path) > 0 {
			attrs = append(attrs, "path", strings.Join(d.Path, "/"))
		}
		if d.Namespace != "" {
			attrs = append(attrs, "namespace", d.Namespace)
		}
		if d.Err != nil {
			attrs = append(attrs, "error", d.Err)
		}
		logger.Log(context.Background(), level, d.Message, attrs...)
	})
}

func (s *Store) report(d Diagnostic) {
	if d.Message == "" && d.Err != nil {
		d.Message = d.Err.Error()
	}
	if s.cfg.diagnostics != nil {
		s.cfg.diagnostics.LogDiagnostic(d)
	}
}
