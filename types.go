package schematic

import (
	"context"
	"reflect"
)

// Optional distinguishes "not set" from "zero value".
type Optional[T any] struct {
	Value T
	Set   bool
}

// Some returns a set Optional holding v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Value: v, Set: true}
}

// Get returns the wrapped value and whether it was set.
func (o Optional[T]) Get() (T, bool) {
	return o.Value, o.Set
}

// OrDefault returns the wrapped value or the provided default.
func (o Optional[T]) OrDefault(defaultVal T) T {
	if o.Set {
		return o.Value
	}
	return defaultVal
}

func (o Optional[T]) optionalValue() (any, bool) {
	return o.Value, o.Set
}

type optional interface {
	optionalValue() (any, bool)
}

var optionalInterface = reflect.TypeOf((*optional)(nil)).Elem()

// isOptionalType reports whether t is an instantiation of Optional.
func isOptionalType(t reflect.Type) bool {
	return t.Kind() == reflect.Struct && t.Implements(optionalInterface)
}

// ExtendsFrom lists the sources a document extends. In a document it may be
// written as a single string or as a list of strings.
type ExtendsFrom []string

var extendsFromType = reflect.TypeOf(ExtendsFrom(nil))

// Validator performs custom validation after field validation.
// Use for cross-field, semantic, or external validation.
type Validator[T any] interface {
	// Validate checks configuration. Return *ValidationError for field-level errors.
	Validate(ctx context.Context, cfg *T) error
}

// ValidatorFunc is a function adapter for Validator interface.
type ValidatorFunc[T any] func(ctx context.Context, cfg *T) error

func (f ValidatorFunc[T]) Validate(ctx context.Context, cfg *T) error {
	return f(ctx, cfg)
}
