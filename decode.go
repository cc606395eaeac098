package store

import (
	"github.com/goliatone/go-store/internal/hydrate"
	"github.com/goliatone/go-store/layering"
)

// Decode converts a payload or state slice into T. Map payloads are decoded
// by JSON field name and unknown keys are ignored; a value that already is a
// T is returned as is.
func Decode[T any](value any) (T, error) {
	return hydrate.NewDecoder[T]().Decode(hydrate.Context{}, value)
}

// DecodeStrict is Decode with unknown keys rejected.
func DecodeStrict[T any](value any) (T, error) {
	return hydrate.NewDecoder(hydrate.WithDisallowUnknownFields[T]()).Decode(hydrate.Context{}, value)
}

// DecodeValidated decodes value and runs validate on the result.
func DecodeValidated[T any](value any, validate func(*T) error) (T, error) {
	var opts []hydrate.DecoderOption[T]
	if validate != nil {
		opts = append(opts, hydrate.WithPostHook[T](func(_ hydrate.Context, v *T) error {
			return validate(v)
		}))
	}
	return hydrate.NewDecoder(opts...).Decode(hydrate.Context{}, value)
}

// DecodeState decodes the state of the module registered at path.
func DecodeState[T any](s *Store, path []string) (T, error) {
	s.mu.Lock()
	state := s.nestedState(path)
	var value any
	if state != nil {
		value = layering.Clone(state)
	}
	s.mu.Unlock()
	return hydrate.NewDecoder[T]().Decode(hydrate.Context{Namespace: joinPath(path)}, value)
}
