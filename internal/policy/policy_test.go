package policy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestResolveFirstMatchWins(t *testing.T) {
	r, err := NewResolver([]Rule[int]{
		{Pattern: "/upload", Value: 50},
		{Pattern: "/upload/avatar", Value: 5},
		{Pattern: "/api", Method: "POST", Value: 20},
	}, 10)
	require.NoError(t, err)

	tests := []struct {
		name   string
		path   string
		method string
		want   int
	}{
		{"first declared rule wins over later more specific", "/upload/avatar", "POST", 50},
		{"prefix match", "/upload/anything/else", "GET", 50},
		{"method filter matches case-insensitively", "/api/items", "post", 20},
		{"method filter excludes", "/api/items", "GET", 10},
		{"no match falls back to default", "/health", "GET", 10},
		{"pattern anchored at path start", "/v1/upload", "GET", 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, r.Resolve(tt.path, tt.method))
		})
	}
}

func TestResolveEmptyRules(t *testing.T) {
	r, err := NewResolver(nil, 5*time.Second)
	require.NoError(t, err)
	require.Equal(t, 5*time.Second, r.Resolve("/anything", "GET"))
	require.Equal(t, 5*time.Second, r.Default())
}

func TestResolveRegexPatterns(t *testing.T) {
	r, err := NewResolver([]Rule[string]{
		{Pattern: `^/docs(/.*)?$`, Value: "relaxed"},
	}, "strict")
	require.NoError(t, err)

	require.Equal(t, "relaxed", r.Resolve("/docs", "GET"))
	require.Equal(t, "relaxed", r.Resolve("/docs/openapi", "GET"))
	require.Equal(t, "strict", r.Resolve("/docsx", "GET"))
}

func TestNewResolverInvalidPattern(t *testing.T) {
	_, err := NewResolver([]Rule[int]{{Pattern: "([", Value: 1}}, 0)
	require.Error(t, err)
}

func TestResolveDeterministic(t *testing.T) {
	r, err := NewResolver([]Rule[int]{
		{Pattern: "/a", Value: 1},
		{Pattern: "/a", Value: 2},
	}, 0)
	require.NoError(t, err)

	for i := 0; i < 100; i++ {
		require.Equal(t, 1, r.Resolve("/a", "GET"))
	}
}
