package store

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
)

// MutationSubscriber observes committed mutations together with the root
// state after the commit.
type MutationSubscriber func(mutation Record, state State)

// ActionSubscriber observes dispatched actions. Before runs ahead of the
// handlers, After once they all succeeded and Error when one of them failed.
// Any of the hooks may be nil.
type ActionSubscriber struct {
	Before func(action Record, state State)
	After  func(action Record, state State)
	Error  func(action Record, state State, err error)
}

type subscription struct {
	id       uuid.UUID
	active   atomic.Bool
	filter   CompiledRule
	filterOn string
	mutation MutationSubscriber
	action   ActionSubscriber
}

// Subscribe registers fn for every committed mutation. The returned function
// removes the subscriber; calling it during a notification pass skips the
// remaining calls to fn in that pass.
func (s *Store) Subscribe(fn MutationSubscriber, opts ...SubscribeOption) func() {
	if fn == nil {
		return func() {}
	}
	cfg := applySubscribeOptions(opts)
	sub, ok := s.newSubscription(cfg)
	if !ok {
		return func() {}
	}
	sub.mutation = fn
	return s.addSubscription(&s.subscribers, sub, cfg.prepend)
}

// SubscribeAction registers sub for every dispatched action.
func (s *Store) SubscribeAction(sub ActionSubscriber, opts ...SubscribeOption) func() {
	if sub.Before == nil && sub.After == nil && sub.Error == nil {
		return func() {}
	}
	cfg := applySubscribeOptions(opts)
	entry, ok := s.newSubscription(cfg)
	if !ok {
		return func() {}
	}
	entry.action = sub
	return s.addSubscription(&s.actionSubscribers, entry, cfg.prepend)
}

func (s *Store) newSubscription(cfg subscribeConfig) (*subscription, bool) {
	sub := &subscription{id: uuid.New(), filterOn: cfg.filter}
	if cfg.filter != "" {
		rule, err := s.compileFilter(cfg.filter)
		if err != nil {
			s.report(Diagnostic{
				Kind:    DiagnosticSubscriber,
				Message: fmt.Sprintf("subscriber filter %q rejected", cfg.filter),
				Err:     err,
			})
			return nil, false
		}
		sub.filter = rule
	}
	sub.active.Store(true)
	return sub, true
}

func (s *Store) addSubscription(list *[]*subscription, sub *subscription, prepend bool) func() {
	s.mu.Lock()
	if prepend {
		*list = append([]*subscription{sub}, *list...)
	} else {
		*list = append(*list, sub)
	}
	s.mu.Unlock()

	return func() {
		sub.active.Store(false)
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, existing := range *list {
			if existing.id == sub.id {
				*list = append((*list)[:i:i], (*list)[i+1:]...)
				return
			}
		}
	}
}

// snapshotSubscriptions copies the list so subscribers added during a
// notification pass wait for the next one.
func snapshotSubscriptions(list []*subscription) []*subscription {
	if len(list) == 0 {
		return nil
	}
	out := make([]*subscription, len(list))
	copy(out, list)
	return out
}

// accepts reports whether sub is still registered and its filter, if any,
// matches record.
func (s *Store) accepts(sub *subscription, record Record) bool {
	if !sub.active.Load() {
		return false
	}
	if sub.filter == nil {
		return true
	}
	ok, err := matchFilter(sub.filter, record)
	if err != nil {
		s.report(Diagnostic{
			Kind:    DiagnosticSubscriber,
			Type:    record.Type,
			Message: fmt.Sprintf("subscriber filter %q failed", sub.filterOn),
			Err:     err,
		})
		return false
	}
	return ok
}

func (s *Store) notifyMutation(subs []*subscription, record Record, state State) {
	for _, sub := range subs {
		if !s.accepts(sub, record) {
			continue
		}
		s.guardSubscriber(record, func() {
			sub.mutation(record, state)
		})
	}
}

type actionPhase int

const (
	phaseBefore actionPhase = iota
	phaseAfter
	phaseError
)

func (s *Store) notifyAction(subs []*subscription, phase actionPhase, record Record, err error) {
	if len(subs) == 0 {
		return
	}
	state := s.Snapshot()
	for _, sub := range subs {
		var hook func()
		switch phase {
		case phaseBefore:
			if before := sub.action.Before; before != nil {
				hook = func() { before(record, state) }
			}
		case phaseAfter:
			if after := sub.action.After; after != nil {
				hook = func() { after(record, state) }
			}
		case phaseError:
			if onError := sub.action.Error; onError != nil {
				hook = func() { onError(record, state, err) }
			}
		}
		if hook == nil || !s.accepts(sub, record) {
			continue
		}
		s.guardSubscriber(record, hook)
	}
}

// guardSubscriber runs fn and turns a panic into a diagnostic so one
// subscriber cannot break delivery to the rest.
func (s *Store) guardSubscriber(record Record, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			s.report(Diagnostic{
				Kind:    DiagnosticSubscriber,
				Type:    record.Type,
				Message: fmt.Sprintf("subscriber panicked: %v", r),
			})
		}
	}()
	fn()
}
