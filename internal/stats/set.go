package stats

import (
	"cmp"
	"slices"
)

// Set is an unordered collection of unique values.
type Set[T cmp.Ordered] map[T]struct{}

// NewSet creates a set holding values.
func NewSet[T cmp.Ordered](values ...T) Set[T] {
	s := make(Set[T], len(values))
	for _, v := range values {
		s[v] = struct{}{}
	}
	return s
}

// Add inserts v.
func (s Set[T]) Add(v T) {
	s[v] = struct{}{}
}

// Has reports whether v is in the set.
func (s Set[T]) Has(v T) bool {
	_, ok := s[v]
	return ok
}

// Union inserts all values of other.
func (s Set[T]) Union(other Set[T]) {
	for v := range other {
		s[v] = struct{}{}
	}
}

// Sorted returns the values in ascending order.
func (s Set[T]) Sorted() []T {
	values := make([]T, 0, len(s))
	for v := range s {
		values = append(values, v)
	}
	slices.Sort(values)
	return values
}
