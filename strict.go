package store

import (
	"fmt"

	"github.com/goliatone/go-store/layering"
)

// checkStrictLocked compares the live state with the copy taken after the
// last sanctioned change. A mismatch is reported once: the baseline moves to
// the current state so the same write does not fail every later call.
// Callers hold s.mu.
func (s *Store) checkStrictLocked() error {
	if !s.cfg.strict || s.committing {
		return nil
	}
	if layering.Equal(s.baseline, s.state) {
		return nil
	}
	s.baseline = layering.Clone(s.state)
	s.version++
	err := fmt.Errorf("%w: do not mutate store state outside mutation handlers", ErrStrictViolation)
	s.report(Diagnostic{
		Kind: DiagnosticStrictViolation,
		Err:  err,
	})
	return err
}

// auditStrictLocked reports a violation found at the start of a sanctioned
// call without failing that call. Callers hold s.mu.
func (s *Store) auditStrictLocked() {
	_ = s.checkStrictLocked()
}

// Verify runs the strict-mode check on demand. It always returns nil when
// strict mode is off.
func (s *Store) Verify() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.checkStrictLocked()
}
