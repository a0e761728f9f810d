package validation

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func paginationSchema(t *testing.T) *Schema {
	t.Helper()
	pageMin, pageMax := IntRange(1, 1000)
	sizeMin, sizeMax := IntRange(1, 100)
	s, err := NewSchema(map[string]Field{
		"page":    {Type: TypeInt, Min: pageMin, Max: pageMax},
		"size":    {Type: TypeInt, Min: sizeMin, Max: sizeMax},
		"sort_by": {Type: TypeString, Pattern: `^[a-zA-Z0-9_]+$`},
		"order":   {Type: TypeString, Pattern: `^(asc|desc)$`},
		"q":       {Type: TypeString, MinLen: 1, MaxLen: 100},
	})
	require.NoError(t, err)
	return s
}

func TestValidateAccepts(t *testing.T) {
	s := paginationSchema(t)

	tests := []struct {
		name   string
		params map[string]string
	}{
		{"empty params, nothing required", map[string]string{}},
		{"valid pagination", map[string]string{"page": "2", "size": "50"}},
		{"valid sort", map[string]string{"sort_by": "created_at", "order": "desc"}},
		{"search term", map[string]string{"q": "hello"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, s.Validate(tt.params))
		})
	}
}

func TestValidateRejects(t *testing.T) {
	s := paginationSchema(t)

	tests := []struct {
		name   string
		params map[string]string
	}{
		{"unknown key", map[string]string{"evil": "1"}},
		{"non-integer page", map[string]string{"page": "abc"}},
		{"page below minimum", map[string]string{"page": "0"}},
		{"size above maximum", map[string]string{"size": "101"}},
		{"order pattern mismatch", map[string]string{"order": "sideways"}},
		{"q too long", map[string]string{"q": string(make([]byte, 101))}},
		{"q too short", map[string]string{"q": ""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Error(t, s.Validate(tt.params))
		})
	}
}

func TestValidateRequired(t *testing.T) {
	s, err := NewSchema(map[string]Field{
		"id": {Type: TypeUUID, Required: true},
	})
	require.NoError(t, err)

	require.Error(t, s.Validate(map[string]string{}))
	require.Error(t, s.Validate(map[string]string{"id": "not-a-uuid"}))
	require.NoError(t, s.Validate(map[string]string{
		"id": "0b906c5f-2c9d-4c44-b9f7-0a6a2f1b2c3d",
	}))
}

func TestValidateEmailField(t *testing.T) {
	s, err := NewSchema(map[string]Field{
		"email": {Type: TypeEmail},
	})
	require.NoError(t, err)

	require.NoError(t, s.Validate(map[string]string{"email": "a@x.com"}))
	require.Error(t, s.Validate(map[string]string{"email": "not-an-email"}))
}

func TestNewSchemaInvalidPattern(t *testing.T) {
	_, err := NewSchema(map[string]Field{
		"bad": {Type: TypeString, Pattern: "(["},
	})
	require.Error(t, err)
}

func TestRegistryLookup(t *testing.T) {
	r := NewRegistry()
	s := MustSchema(map[string]Field{"q": {Type: TypeString, MaxLen: 10}})
	r.Register("/items", s)

	got, ok := r.Lookup("/items")
	require.True(t, ok)
	require.Same(t, s, got)

	_, ok = r.Lookup("/unknown")
	require.False(t, ok)
}
