// Package optional provides an explicit present/absent wrapper for criteria fields,
// so that "not supplied" never collapses into a zero value such as false or 0.
package optional

import (
	"bytes"
	"encoding/json"
)

// Value holds a T that may or may not be present.
// The zero Value is absent.
type Value[T any] struct {
	v   T
	set bool
}

// Of returns a present value.
func Of[T any](v T) Value[T] {
	return Value[T]{v: v, set: true}
}

// None returns an absent value.
func None[T any]() Value[T] {
	return Value[T]{}
}

// Get returns the value and whether it is present.
func (o Value[T]) Get() (T, bool) {
	return o.v, o.set
}

func (o Value[T]) IsSet() bool {
	return o.set
}

// IsZero reports absence, so `omitzero` struct tags drop absent fields.
func (o Value[T]) IsZero() bool {
	return !o.set
}

// OrElse returns the value if present, otherwise def.
func (o Value[T]) OrElse(def T) T {
	if o.set {
		return o.v
	}
	return def
}

// MarshalJSON writes null for an absent value.
func (o Value[T]) MarshalJSON() ([]byte, error) {
	if !o.set {
		return []byte("null"), nil
	}
	return json.Marshal(o.v)
}

// UnmarshalJSON treats an explicit null the same as a missing key.
func (o *Value[T]) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*o = Value[T]{}
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*o = Of(v)
	return nil
}
