package policy

import (
	"fmt"
	"regexp"
	"strings"
)

// Rule binds a path pattern (and optionally a method) to a value such as
// a timeout, a size limit, or a header override. Patterns are anchored at
// the start of the path, matching prefix semantics.
type Rule[T any] struct {
	Pattern string
	Method  string // empty means all methods
	Value   T

	re *regexp.Regexp
}

// Resolver evaluates rules in declaration order; the first match wins.
// It is immutable after construction and safe for concurrent use.
type Resolver[T any] struct {
	rules    []Rule[T]
	fallback T
}

// NewResolver compiles the rule patterns once. Rules with invalid patterns
// are a configuration error, not a runtime condition.
func NewResolver[T any](rules []Rule[T], fallback T) (*Resolver[T], error) {
	compiled := make([]Rule[T], 0, len(rules))
	for _, r := range rules {
		pattern := r.Pattern
		if !strings.HasPrefix(pattern, "^") {
			pattern = "^" + pattern
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("policy: invalid pattern %q: %w", r.Pattern, err)
		}
		r.re = re
		compiled = append(compiled, r)
	}
	return &Resolver[T]{rules: compiled, fallback: fallback}, nil
}

// Resolve returns the value of the first rule whose method filter (if any)
// matches case-insensitively and whose pattern matches the path prefix.
// Always returns a value; with no match the fallback applies.
func (r *Resolver[T]) Resolve(path, method string) T {
	for _, rule := range r.rules {
		if rule.Method != "" && !strings.EqualFold(rule.Method, method) {
			continue
		}
		if rule.re.MatchString(path) {
			return rule.Value
		}
	}
	return r.fallback
}

// Default returns the configured fallback value.
func (r *Resolver[T]) Default() T {
	return r.fallback
}
