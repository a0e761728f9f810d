package validation

import (
	"fmt"
	"net/mail"
	"regexp"
	"strconv"

	"github.com/google/uuid"
)

// FieldType enumerates the supported query parameter types.
type FieldType string

const (
	TypeString FieldType = "string"
	TypeInt    FieldType = "int"
	TypeUUID   FieldType = "uuid"
	TypeEmail  FieldType = "email"
)

// Field declares the expected shape of a single query parameter.
type Field struct {
	Type     FieldType
	Required bool
	MinLen   int
	MaxLen   int // 0 means no limit
	Min      *int
	Max      *int
	Pattern  string

	re *regexp.Regexp
}

// Schema is the full expected-parameter set for one path. Parameters not
// declared here are rejected.
type Schema struct {
	fields map[string]Field
}

// NewSchema compiles field patterns once at construction.
func NewSchema(fields map[string]Field) (*Schema, error) {
	compiled := make(map[string]Field, len(fields))
	for name, f := range fields {
		if f.Pattern != "" {
			re, err := regexp.Compile(f.Pattern)
			if err != nil {
				return nil, fmt.Errorf("validation: field %q pattern: %w", name, err)
			}
			f.re = re
		}
		compiled[name] = f
	}
	return &Schema{fields: compiled}, nil
}

// MustSchema panics on an invalid field pattern. For static declarations.
func MustSchema(fields map[string]Field) *Schema {
	s, err := NewSchema(fields)
	if err != nil {
		panic(err)
	}
	return s
}

// Validate checks params against the schema. Unknown keys are an error,
// as are missing required fields and constraint violations.
func (s *Schema) Validate(params map[string]string) error {
	for key := range params {
		if _, ok := s.fields[key]; !ok {
			return fmt.Errorf("validation: unknown parameter %q", key)
		}
	}

	for name, f := range s.fields {
		value, present := params[name]
		if !present {
			if f.Required {
				return fmt.Errorf("validation: missing required parameter %q", name)
			}
			continue
		}
		if err := f.check(name, value); err != nil {
			return err
		}
	}
	return nil
}

func (f Field) check(name, value string) error {
	switch f.Type {
	case TypeInt:
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("validation: parameter %q must be an integer", name)
		}
		if f.Min != nil && n < *f.Min {
			return fmt.Errorf("validation: parameter %q below minimum %d", name, *f.Min)
		}
		if f.Max != nil && n > *f.Max {
			return fmt.Errorf("validation: parameter %q above maximum %d", name, *f.Max)
		}
	case TypeUUID:
		if _, err := uuid.Parse(value); err != nil {
			return fmt.Errorf("validation: parameter %q must be a uuid", name)
		}
	case TypeEmail:
		if _, err := mail.ParseAddress(value); err != nil {
			return fmt.Errorf("validation: parameter %q must be an email address", name)
		}
	case TypeString, "":
		if f.MinLen > 0 && len(value) < f.MinLen {
			return fmt.Errorf("validation: parameter %q shorter than %d", name, f.MinLen)
		}
		if f.MaxLen > 0 && len(value) > f.MaxLen {
			return fmt.Errorf("validation: parameter %q longer than %d", name, f.MaxLen)
		}
		if f.re != nil && !f.re.MatchString(value) {
			return fmt.Errorf("validation: parameter %q has invalid format", name)
		}
	default:
		return fmt.Errorf("validation: parameter %q has unsupported type %q", name, f.Type)
	}
	return nil
}

// Registry maps request paths to their schemas. Paths without an entry
// fall under strict-mode handling in the gate middleware.
type Registry struct {
	schemas map[string]*Schema
}

func NewRegistry() *Registry {
	return &Registry{schemas: make(map[string]*Schema)}
}

func (r *Registry) Register(path string, s *Schema) {
	r.schemas[path] = s
}

func (r *Registry) Lookup(path string) (*Schema, bool) {
	s, ok := r.schemas[path]
	return s, ok
}

// IntRange is a convenience for Min/Max constraints on int fields.
func IntRange(min, max int) (lo *int, hi *int) {
	return &min, &max
}
