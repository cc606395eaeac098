package store

import (
	"fmt"

	"github.com/goliatone/go-store/layering"
)

// normalizeRecord accepts the string, Record, map and Typed call styles.
func normalizeRecord(typ any, payload any) (Record, error) {
	switch value := typ.(type) {
	case string:
		return Record{Type: value, Payload: payload}, nil
	case Record:
		return value, nil
	case *Record:
		if value == nil {
			return Record{}, fmt.Errorf("%w: got nil *Record", ErrInvalidType)
		}
		return *value, nil
	case map[string]any:
		name, ok := value["type"].(string)
		if !ok {
			return Record{}, fmt.Errorf("%w: object style call has %T type field", ErrInvalidType, value["type"])
		}
		rest := make(map[string]any, len(value))
		for key, field := range value {
			if key != "type" {
				rest[key] = field
			}
		}
		return Record{Type: name, Payload: rest}, nil
	case Typed:
		return Record{Type: value.StoreType(), Payload: value}, nil
	default:
		return Record{}, fmt.Errorf("%w: got %T", ErrInvalidType, typ)
	}
}

// Commit runs every mutation handler registered under the type, in
// registration order, then notifies mutation subscribers.
//
// A type without handlers is reported and ignored. A handler error stops the
// remaining handlers, skips subscribers and is returned as is.
func (s *Store) Commit(typ any, payload any, _ ...CallOption) error {
	record, err := normalizeRecord(typ, payload)
	if err != nil {
		return err
	}
	return s.commitRecord(record)
}

func (s *Store) commitRecord(record Record) error {
	subs, state, found, err := s.runMutations(record)
	if err != nil {
		return err
	}
	if !found {
		s.report(Diagnostic{
			Kind: DiagnosticUnknownMutation,
			Type: record.Type,
			Err:  fmt.Errorf("%w: %q", ErrUnknownMutation, record.Type),
		})
		return nil
	}

	s.notifyMutation(subs, record, state)
	s.runWatchers()
	s.emitMutation(record)
	return nil
}

func (s *Store) runMutations(record Record) ([]*subscription, State, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.auditStrictLocked()

	entries := s.mutations[record.Type]
	if len(entries) == 0 {
		return nil, nil, false, nil
	}

	defer s.afterStateChangeLocked()
	err := s.withCommit(func() error {
		for _, entry := range entries {
			if err := entry.handler(s.nestedState(entry.path), record.Payload); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, true, err
	}
	subs := snapshotSubscriptions(s.subscribers)
	if len(subs) == 0 {
		return nil, nil, true, nil
	}
	return subs, layering.Clone(s.state), true, nil
}

func (s *Store) hasMutation(typ string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.mutations[typ]) > 0
}
