// Package normalization maps free-form configuration strings onto typed
// enum values.
package normalization

import "strings"

// Normalizer resolves user-supplied strings to values of an enum type,
// falling back to a default for anything unrecognized.
type Normalizer[T comparable] struct {
	values       map[string]T
	defaultValue T
}

// NewNormalizer builds a normalizer from valid string->value pairs. Keys
// are matched case-insensitively with surrounding whitespace ignored.
func NewNormalizer[T comparable](values map[string]T, defaultValue T) *Normalizer[T] {
	normalized := make(map[string]T, len(values))
	for k, v := range values {
		normalized[clean(k)] = v
	}
	return &Normalizer[T]{values: normalized, defaultValue: defaultValue}
}

// Normalize converts raw to the enum type, returning the default value
// when raw is not a known variant.
func (n *Normalizer[T]) Normalize(raw string) T {
	if value, ok := n.values[clean(raw)]; ok {
		return value
	}
	return n.defaultValue
}

func clean(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
