package policy

import "reflect"

type conditionKind int

const (
	condValue conditionKind = iota
	condNullary
	condLiteral
)

// Condition is the evaluatable part of a policy. It is a tagged union of the
// three supported forms: a predicate over the candidate value, a predicate
// taking no value, and a constant. The zero Condition is invalid; construct
// one through Value, Nullary, or Literal.
type Condition[T any] struct {
	kind    conditionKind
	value   func(T) bool
	nullary func() bool
	literal bool
}

// Value builds a condition from a single-argument predicate. Type narrowing
// is a static-typing concern of the caller; the runtime only sees a boolean.
func Value[T any](fn func(T) bool) Condition[T] {
	if fn == nil {
		panic("policy: nil value predicate")
	}
	return Condition[T]{kind: condValue, value: fn}
}

// Nullary builds a condition from a zero-argument predicate, typically a
// closure over context captured at definition time. Evaluation ignores the
// candidate value.
func Nullary[T any](fn func() bool) Condition[T] {
	if fn == nil {
		panic("policy: nil nullary predicate")
	}
	return Condition[T]{kind: condNullary, nullary: fn}
}

// Literal builds a constant, argument-independent condition.
func Literal[T any](v bool) Condition[T] {
	return Condition[T]{kind: condLiteral, literal: v}
}

// Eval resolves the condition against the candidate value. A panic raised by
// a user predicate propagates unchanged.
func (c Condition[T]) Eval(v T) bool {
	switch c.kind {
	case condNullary:
		return c.nullary()
	case condLiteral:
		return c.literal
	default:
		if c.value == nil {
			panic("policy: zero Condition")
		}
		return c.value(v)
	}
}

// takesValue reports whether the candidate value participates in evaluation.
// The default error factory substitutes a sentinel when it does not.
func (c Condition[T]) takesValue() bool {
	return c.kind == condValue || c.kind == condLiteral
}

// Validator is the external validation collaborator contract: anything that
// can inspect an arbitrary value and report success by returning nil.
type Validator interface {
	Validate(v any) error
}

// FromValidator adapts a validation collaborator into a condition. The
// condition holds when Validate returns nil.
func FromValidator[T any](v Validator) Condition[T] {
	if v == nil {
		panic("policy: nil validator")
	}
	return Value(func(candidate T) bool {
		return v.Validate(candidate) == nil
	})
}

// NotNil returns a condition rejecting nil pointers, slices, maps, channels,
// functions, and interfaces. Values of non-nilable kinds always pass; this is
// a best-effort presence check, not a type guard.
func NotNil[T any]() Condition[T] {
	return Value(func(candidate T) bool {
		return !isNil(candidate)
	})
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func, reflect.Interface:
		return rv.IsNil()
	default:
		return false
	}
}
