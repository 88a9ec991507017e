package policy

import (
	"fmt"
	"sort"
)

// Set is an immutable name-indexed collection of policies over one candidate
// type. Construction copies the input list; the set never changes afterwards,
// so concurrent lookups and evaluations are safe without coordination.
type Set[T any] struct {
	entries map[string]*Policy[T]
}

// NewSet builds a set from a finite list of policies. When two policies share
// a name, the later one replaces the earlier silently; insertion order is
// final precedence.
func NewSet[T any](policies ...*Policy[T]) *Set[T] {
	entries := make(map[string]*Policy[T], len(policies))
	for _, p := range policies {
		entries[p.name] = p
	}
	return &Set[T]{entries: entries}
}

// Policy returns the policy registered under name. Asking for a name that was
// never registered is a programming error and panics; use Lookup when absence
// is an expected condition.
func (s *Set[T]) Policy(name string) *Policy[T] {
	p, ok := s.entries[name]
	if !ok {
		panic(fmt.Sprintf("policy: unknown policy %q", name))
	}
	return p
}

// Lookup returns the policy registered under name and whether it exists.
func (s *Set[T]) Lookup(name string) (*Policy[T], bool) {
	p, ok := s.entries[name]
	return p, ok
}

// Names returns the registered policy names in sorted order.
func (s *Set[T]) Names() []string {
	names := make([]string, 0, len(s.entries))
	for name := range s.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered policies.
func (s *Set[T]) Len() int {
	return len(s.entries)
}

// DefineSet turns a context-receiving list builder into a set factory. The
// builder runs once per context; the resulting set closes over whatever the
// builder captured.
func DefineSet[C, T any](build func(C) []*Policy[T]) func(C) *Set[T] {
	if build == nil {
		panic("policy: nil set builder")
	}
	return func(ctx C) *Set[T] {
		return NewSet(build(ctx)...)
	}
}

// DefineKeyedSet turns a curried list builder into a curried set factory:
// the context is supplied once and the inner builder is evaluated once for
// it, then every key invocation constructs a fresh set from a fresh list.
// Callers needing a stable instance per key must cache it themselves.
func DefineKeyedSet[C, K, T any](build func(C) func(K) []*Policy[T]) func(C) func(K) *Set[T] {
	if build == nil {
		panic("policy: nil set builder")
	}
	return func(ctx C) func(K) *Set[T] {
		inner := build(ctx)
		return func(key K) *Set[T] {
			return NewSet(inner(key)...)
		}
	}
}
