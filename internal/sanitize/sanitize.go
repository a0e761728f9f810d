package sanitize

import (
	"errors"

	"github.com/microcosm-cc/bluemonday"
)

// ErrDepthExceeded is returned when a JSON body nests deeper than the
// configured maximum. The body is rejected before any sanitization work,
// so adversarial depth never pays for a recursive walk.
var ErrDepthExceeded = errors.New("sanitize: json depth limit exceeded")

const DefaultMaxDepth = 10

// Pair is a single query parameter. Order and duplicates are preserved
// across sanitization.
type Pair struct {
	Key   string
	Value string
}

// Sanitizer strips disallowed markup from string values using an
// allow-list policy. Safe for concurrent use.
type Sanitizer struct {
	policy   *bluemonday.Policy
	maxDepth int
}

// Config lists the markup that survives sanitization. Everything else is
// stripped, not escaped.
type Config struct {
	AllowedTags       []string
	AllowedAttributes map[string][]string // element -> attributes
	MaxDepth          int
}

func New(cfg Config) *Sanitizer {
	p := bluemonday.NewPolicy()
	p.AllowElements(cfg.AllowedTags...)
	for element, attrs := range cfg.AllowedAttributes {
		p.AllowAttrs(attrs...).OnElements(element)
	}

	maxDepth := cfg.MaxDepth
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}

	return &Sanitizer{policy: p, maxDepth: maxDepth}
}

// Clean sanitizes a single string value.
func (s *Sanitizer) Clean(value string) string {
	return s.policy.Sanitize(value)
}

// Query sanitizes the values of query pairs, preserving key order and
// duplicate keys.
func (s *Sanitizer) Query(pairs []Pair) []Pair {
	out := make([]Pair, len(pairs))
	for i, p := range pairs {
		out[i] = Pair{Key: p.Key, Value: s.policy.Sanitize(p.Value)}
	}
	return out
}

// JSONBody checks nesting depth first, then returns a sanitized copy of
// the decoded JSON value. Maps and slices are rebuilt rather than mutated
// so the result never aliases the input.
func (s *Sanitizer) JSONBody(v any) (any, error) {
	if err := checkDepth(v, 0, s.maxDepth); err != nil {
		return nil, err
	}
	return s.rebuild(v), nil
}

func checkDepth(v any, depth, max int) error {
	if depth > max {
		return ErrDepthExceeded
	}
	switch val := v.(type) {
	case map[string]any:
		for _, child := range val {
			if err := checkDepth(child, depth+1, max); err != nil {
				return err
			}
		}
	case []any:
		for _, child := range val {
			if err := checkDepth(child, depth+1, max); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Sanitizer) rebuild(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, child := range val {
			out[k] = s.rebuild(child)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, child := range val {
			out[i] = s.rebuild(child)
		}
		return out
	case string:
		return s.policy.Sanitize(val)
	default:
		return v
	}
}
