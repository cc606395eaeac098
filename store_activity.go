package store

import (
	"context"
	"fmt"

	"github.com/goliatone/go-store/pkg/activity"
)

// WithActivityHooks attaches activity hooks to the store. Nil entries are
// dropped. Emission is enabled unless WithActivityConfig says otherwise.
func WithActivityHooks(hooks activity.Hooks) Option {
	normalized := hooks.Compact()
	return func(cfg *storeConfig) {
		cfg.activityHooks = normalized
	}
}

// WithActivityConfig overrides emission defaults such as the channel, actor
// and tenant stamped on every event.
func WithActivityConfig(config activity.Config) Option {
	return func(cfg *storeConfig) {
		c := config
		cfg.activityConfig = &c
	}
}

// ActivityHooks returns a copy of the configured hooks.
func (s *Store) ActivityHooks() activity.Hooks {
	if s == nil || len(s.cfg.activityHooks) == 0 {
		return nil
	}
	return append(activity.Hooks(nil), s.cfg.activityHooks...)
}

func newActivityEmitter(cfg storeConfig) *activity.Emitter {
	config := activity.Config{Enabled: true}
	if cfg.activityConfig != nil {
		config = *cfg.activityConfig
	}
	return activity.NewEmitter(cfg.activityHooks, config)
}

func (s *Store) emit(ctx context.Context, event activity.Event) {
	if !s.emitter.Enabled() {
		return
	}
	if err := s.emitter.Emit(ctx, event); err != nil {
		s.report(Diagnostic{
			Kind:    DiagnosticActivity,
			Type:    event.ObjectID,
			Message: fmt.Sprintf("activity hook failed for %s", event.Verb),
			Err:     err,
		})
	}
}

func (s *Store) emitMutation(record Record) {
	s.emit(context.Background(), activity.BuildMutationCommittedEvent(activity.StoreEventInput{
		Type:    record.Type,
		Payload: record.Payload,
	}))
}

func (s *Store) emitAction(ctx context.Context, record Record) {
	s.emit(ctx, activity.BuildActionDispatchedEvent(activity.StoreEventInput{
		Type:    record.Type,
		Payload: record.Payload,
	}))
}

func (s *Store) emitActionFailed(ctx context.Context, record Record, err error) {
	s.emit(ctx, activity.BuildActionFailedEvent(activity.StoreEventInput{
		Type:    record.Type,
		Payload: record.Payload,
		Err:     err,
	}))
}

func (s *Store) emitModule(registered bool, path []string, namespace string) {
	input := activity.StoreEventInput{Path: path, Namespace: namespace}
	if registered {
		s.emit(context.Background(), activity.BuildModuleRegisteredEvent(input))
		return
	}
	s.emit(context.Background(), activity.BuildModuleUnregisteredEvent(input))
}

func (s *Store) emitHotUpdate() {
	s.emit(context.Background(), activity.BuildHotUpdatedEvent(activity.StoreEventInput{}))
}
