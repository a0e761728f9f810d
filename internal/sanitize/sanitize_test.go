package sanitize

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestSanitizer() *Sanitizer {
	return New(Config{
		AllowedTags: []string{"b", "i", "a"},
		AllowedAttributes: map[string][]string{
			"a": {"href", "title"},
		},
	})
}

func TestCleanStripsDisallowedMarkup(t *testing.T) {
	s := newTestSanitizer()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"script stripped", `<script>alert(1)</script>hello`, "hello"},
		{"allowed tag kept", `<b>bold</b>`, "<b>bold</b>"},
		{"disallowed attribute stripped", `<b onclick="x">bold</b>`, "<b>bold</b>"},
		{"plain text untouched", "plain text", "plain text"},
		{"img stripped", `<img src=x onerror=alert(1)>text`, "text"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, s.Clean(tt.in))
		})
	}
}

func TestQueryPreservesOrderAndDuplicates(t *testing.T) {
	s := newTestSanitizer()

	in := []Pair{
		{Key: "q", Value: `<script>x</script>first`},
		{Key: "tag", Value: "a"},
		{Key: "tag", Value: "b"},
		{Key: "q", Value: "second"},
	}

	out := s.Query(in)
	require.Len(t, out, 4)
	require.Equal(t, Pair{Key: "q", Value: "first"}, out[0])
	require.Equal(t, Pair{Key: "tag", Value: "a"}, out[1])
	require.Equal(t, Pair{Key: "tag", Value: "b"}, out[2])
	require.Equal(t, Pair{Key: "q", Value: "second"}, out[3])

	// input untouched
	require.Equal(t, `<script>x</script>first`, in[0].Value)
}

func TestJSONBodySanitizesStringLeaves(t *testing.T) {
	s := newTestSanitizer()

	in := map[string]any{
		"name": `<script>bad</script>alice`,
		"nested": map[string]any{
			"bio": `<b>ok</b><iframe></iframe>`,
		},
		"tags":  []any{`<i>x</i>`, float64(3), true},
		"count": float64(7),
	}

	out, err := s.JSONBody(in)
	require.NoError(t, err)

	m, ok := out.(map[string]any)
	require.True(t, ok)
	require.Equal(t, "alice", m["name"])
	require.Equal(t, "<b>ok</b>", m["nested"].(map[string]any)["bio"])
	require.Equal(t, []any{"<i>x</i>", float64(3), true}, m["tags"])
	require.Equal(t, float64(7), m["count"])
}

func TestJSONBodyDoesNotAliasInput(t *testing.T) {
	s := newTestSanitizer()

	in := map[string]any{"list": []any{"a"}}
	out, err := s.JSONBody(in)
	require.NoError(t, err)

	out.(map[string]any)["list"].([]any)[0] = "mutated"
	require.Equal(t, "a", in["list"].([]any)[0])
}

func TestJSONBodyDepthLimit(t *testing.T) {
	s := New(Config{MaxDepth: 3})

	deep := any("leaf")
	for i := 0; i < 5; i++ {
		deep = map[string]any{"child": deep}
	}

	_, err := s.JSONBody(deep)
	require.ErrorIs(t, err, ErrDepthExceeded)

	shallow := map[string]any{"a": map[string]any{"b": "c"}}
	_, err = s.JSONBody(shallow)
	require.NoError(t, err)
}

func TestJSONBodyDepthCheckedBeforeSanitization(t *testing.T) {
	// A structure over the limit must fail even if every leaf is clean.
	s := New(Config{MaxDepth: 2})

	v := []any{[]any{[]any{[]any{"clean"}}}}
	_, err := s.JSONBody(v)
	require.ErrorIs(t, err, ErrDepthExceeded)
}
