package store

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Dispatch runs every action handler registered under the type and returns
// once the result is settled.
//
// A single handler runs in the caller goroutine and its result is returned as
// is. Several handlers run concurrently and their results are returned as a
// []any in registration order; the first failure is returned without waiting
// for the remaining handlers. A type without handlers is reported and
// resolves to (nil, nil).
func (s *Store) Dispatch(ctx context.Context, typ any, payload any, _ ...CallOption) (any, error) {
	record, err := normalizeRecord(typ, payload)
	if err != nil {
		return nil, err
	}
	return s.dispatchRecord(ctx, record)
}

func (s *Store) dispatchRecord(ctx context.Context, record Record) (any, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	entries, subs := s.lookupActions(record.Type)
	if len(entries) == 0 {
		s.report(Diagnostic{
			Kind: DiagnosticUnknownAction,
			Type: record.Type,
			Err:  fmt.Errorf("%w: %q", ErrUnknownAction, record.Type),
		})
		return nil, nil
	}

	s.notifyAction(subs, phaseBefore, record, nil)

	result, err := runActions(ctx, entries, record.Payload)

	s.mu.Lock()
	subs = snapshotSubscriptions(s.actionSubscribers)
	s.mu.Unlock()

	if err != nil {
		s.notifyAction(subs, phaseError, record, err)
		s.emitActionFailed(ctx, record, err)
		return nil, err
	}
	s.notifyAction(subs, phaseAfter, record, nil)
	s.emitAction(ctx, record)
	return result, nil
}

func (s *Store) lookupActions(typ string) ([]*actionEntry, []*subscription) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.auditStrictLocked()
	entries := s.actions[typ]
	if len(entries) == 0 {
		return nil, nil
	}
	out := make([]*actionEntry, len(entries))
	copy(out, entries)
	return out, snapshotSubscriptions(s.actionSubscribers)
}

func (s *Store) hasAction(typ string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.actions[typ]) > 0
}

func runActions(ctx context.Context, entries []*actionEntry, payload any) (any, error) {
	if len(entries) == 1 {
		return entries[0].handler(ctx, entries[0].context, payload)
	}

	results := make([]any, len(entries))
	failed := make(chan error, 1)
	var g errgroup.Group
	for i, entry := range entries {
		g.Go(func() error {
			value, err := invokeSafely(ctx, entry, payload)
			if err != nil {
				select {
				case failed <- err:
				default:
				}
				return err
			}
			results[i] = value
			return nil
		})
	}

	done := make(chan error, 1)
	go func() {
		done <- g.Wait()
	}()

	select {
	case err := <-failed:
		return nil, err
	case err := <-done:
		if err != nil {
			return nil, err
		}
		return results, nil
	}
}

// invokeSafely runs a fan-out handler, turning a panic into ErrActionPanic.
func invokeSafely(ctx context.Context, entry *actionEntry, payload any) (value any, err error) {
	defer func() {
		if r := recover(); r != nil {
			value = nil
			err = fmt.Errorf("%w: %v", ErrActionPanic, r)
		}
	}()
	return entry.handler(ctx, entry.context, payload)
}
