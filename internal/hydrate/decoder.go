// Package hydrate converts loosely typed payloads and state slices into
// structs through a JSON round trip.
package hydrate

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Context names the value being decoded in error messages.
type Context struct {
	Type      string
	Namespace string
}

func (c Context) String() string {
	switch {
	case c.Type != "":
		return c.Type
	case c.Namespace != "":
		return c.Namespace
	default:
		return "value"
	}
}

// PreHook rewrites the payload before decoding.
type PreHook func(Context, map[string]any) (map[string]any, error)

// PostHook validates or adjusts the decoded value.
type PostHook[T any] func(Context, *T) error

// DecoderOption configures a Decoder.
type DecoderOption[T any] func(*Decoder[T])

// Decoder converts payloads into T.
type Decoder[T any] struct {
	preHooks     []PreHook
	postHooks    []PostHook[T]
	configureDec []func(*json.Decoder)
}

// WithPreHook runs hook on map payloads before decoding.
func WithPreHook[T any](hook PreHook) DecoderOption[T] {
	return func(d *Decoder[T]) {
		if hook != nil {
			d.preHooks = append(d.preHooks, hook)
		}
	}
}

// WithPostHook runs hook on the decoded value.
func WithPostHook[T any](hook PostHook[T]) DecoderOption[T] {
	return func(d *Decoder[T]) {
		if hook != nil {
			d.postHooks = append(d.postHooks, hook)
		}
	}
}

// WithUseNumber decodes numbers held in interface fields as json.Number.
func WithUseNumber[T any]() DecoderOption[T] {
	return func(d *Decoder[T]) {
		d.configureDec = append(d.configureDec, (*json.Decoder).UseNumber)
	}
}

// WithDisallowUnknownFields rejects payload keys without a matching field.
func WithDisallowUnknownFields[T any]() DecoderOption[T] {
	return func(d *Decoder[T]) {
		d.configureDec = append(d.configureDec, (*json.Decoder).DisallowUnknownFields)
	}
}

// NewDecoder builds a Decoder.
func NewDecoder[T any](opts ...DecoderOption[T]) *Decoder[T] {
	d := &Decoder[T]{}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	return d
}

// Decode converts payload into T. A payload that already is a T is returned
// unchanged apart from post hooks.
func (d *Decoder[T]) Decode(ctx Context, payload any) (T, error) {
	var zero T
	if payload == nil {
		return zero, fmt.Errorf("hydrate: %s payload is nil", ctx)
	}

	result, ok := payload.(T)
	if !ok {
		var err error
		if result, err = d.decode(ctx, payload); err != nil {
			return zero, err
		}
	}

	for _, hook := range d.postHooks {
		if err := hook(ctx, &result); err != nil {
			return zero, fmt.Errorf("hydrate: post-hook for %s failed: %w", ctx, err)
		}
	}
	return result, nil
}

func (d *Decoder[T]) decode(ctx Context, payload any) (T, error) {
	var zero T
	buffer, err := json.Marshal(payload)
	if err != nil {
		return zero, fmt.Errorf("hydrate: marshal %s: %w", ctx, err)
	}

	if len(d.preHooks) > 0 {
		var current map[string]any
		if err := json.Unmarshal(buffer, &current); err != nil {
			return zero, fmt.Errorf("hydrate: pre-hooks need an object payload for %s: %w", ctx, err)
		}
		for _, hook := range d.preHooks {
			next, err := hook(ctx, current)
			if err != nil {
				return zero, fmt.Errorf("hydrate: pre-hook for %s failed: %w", ctx, err)
			}
			if next != nil {
				current = next
			}
		}
		if buffer, err = json.Marshal(current); err != nil {
			return zero, fmt.Errorf("hydrate: marshal %s: %w", ctx, err)
		}
	}

	decoder := json.NewDecoder(bytes.NewReader(buffer))
	for _, configure := range d.configureDec {
		configure(decoder)
	}
	var result T
	if err := decoder.Decode(&result); err != nil {
		return zero, fmt.Errorf("hydrate: decode %s: %w", ctx, err)
	}
	return result, nil
}
