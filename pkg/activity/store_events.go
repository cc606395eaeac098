package activity

import (
	"strings"
	"time"
)

// Verbs emitted by the store.
const (
	VerbMutationCommitted  = "store.mutation.committed"
	VerbActionDispatched   = "store.action.dispatched"
	VerbActionFailed       = "store.action.failed"
	VerbModuleRegistered   = "store.module.registered"
	VerbModuleUnregistered = "store.module.unregistered"
	VerbHotUpdated         = "store.hot_updated"
)

// Object types attached to store events.
const (
	ObjectMutation = "store.mutation"
	ObjectAction   = "store.action"
	ObjectModule   = "store.module"
	ObjectStore    = "store"
)

// StoreEventInput carries the fields shared by store lifecycle events.
type StoreEventInput struct {
	ActorID    string
	TenantID   string
	Channel    string
	Type       string
	Path       []string
	Namespace  string
	Payload    any
	Err        error
	Metadata   map[string]any
	OccurredAt time.Time
}

// BuildMutationCommittedEvent describes a successful commit.
func BuildMutationCommittedEvent(input StoreEventInput) Event {
	return buildStoreEvent(VerbMutationCommitted, ObjectMutation, input)
}

// BuildActionDispatchedEvent describes an action whose handlers all succeeded.
func BuildActionDispatchedEvent(input StoreEventInput) Event {
	return buildStoreEvent(VerbActionDispatched, ObjectAction, input)
}

// BuildActionFailedEvent describes an action that returned an error.
func BuildActionFailedEvent(input StoreEventInput) Event {
	return buildStoreEvent(VerbActionFailed, ObjectAction, input)
}

// BuildModuleRegisteredEvent describes a runtime module registration.
func BuildModuleRegisteredEvent(input StoreEventInput) Event {
	return buildStoreEvent(VerbModuleRegistered, ObjectModule, input)
}

// BuildModuleUnregisteredEvent describes a runtime module removal.
func BuildModuleUnregisteredEvent(input StoreEventInput) Event {
	return buildStoreEvent(VerbModuleUnregistered, ObjectModule, input)
}

// BuildHotUpdatedEvent describes a hot update of handler definitions.
func BuildHotUpdatedEvent(input StoreEventInput) Event {
	return buildStoreEvent(VerbHotUpdated, ObjectStore, input)
}

func buildStoreEvent(verb, objectType string, input StoreEventInput) Event {
	metadata := cloneMap(input.Metadata)
	set := func(key string, value any) {
		if metadata == nil {
			metadata = map[string]any{}
		}
		metadata[key] = value
	}

	path := strings.Join(input.Path, "/")
	if input.Type != "" {
		set("type", input.Type)
	}
	if path != "" {
		set("path", path)
	}
	if input.Namespace != "" {
		set("namespace", input.Namespace)
	}
	if input.Payload != nil {
		set("payload", input.Payload)
	}
	if input.Err != nil {
		set("error", input.Err.Error())
	}

	objectID := strings.TrimSpace(input.Type)
	if objectID == "" {
		objectID = path
	}
	if objectID == "" {
		objectID = "root"
	}

	return Event{
		Verb:       verb,
		ActorID:    strings.TrimSpace(input.ActorID),
		TenantID:   strings.TrimSpace(input.TenantID),
		ObjectType: objectType,
		ObjectID:   objectID,
		Channel:    strings.TrimSpace(input.Channel),
		Metadata:   metadata,
		OccurredAt: input.OccurredAt,
	}
}
