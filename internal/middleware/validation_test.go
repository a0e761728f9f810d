package middleware

import (
	"bytes"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"auth-gateway/internal/sanitize"
	"auth-gateway/internal/validation"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func validationRouter(t *testing.T, cfg ValidationConfig, schemas *validation.Registry, handler gin.HandlerFunc) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	sanitizer := sanitize.New(sanitize.Config{
		AllowedTags: []string{"b"},
		MaxDepth:    5,
	})

	if handler == nil {
		handler = func(c *gin.Context) { c.String(http.StatusOK, "ok") }
	}

	r := gin.New()
	r.Use(Validation(cfg, sanitizer, schemas))
	r.Any("/*any", handler)
	return r
}

func searchRegistry(t *testing.T) *validation.Registry {
	t.Helper()
	reg := validation.NewRegistry()
	sizeMin, sizeMax := validation.IntRange(1, 100)
	reg.Register("/items", validation.MustSchema(map[string]validation.Field{
		"q":    {Type: validation.TypeString, MaxLen: 50},
		"size": {Type: validation.TypeInt, Min: sizeMin, Max: sizeMax},
	}))
	return reg
}

func TestValidationSchemaViolations(t *testing.T) {
	cfg := ValidationConfig{Enabled: true, StrictMode: true}

	tests := []struct {
		name  string
		query string
		want  int
	}{
		{"valid params pass", "q=books&size=10", http.StatusOK},
		{"unknown key rejected", "q=books&evil=1", http.StatusBadRequest},
		{"constraint violation rejected", "size=500", http.StatusBadRequest},
		{"no params pass", "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validationRouter(t, cfg, searchRegistry(t), nil)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/items?"+tt.query, nil))
			require.Equal(t, tt.want, w.Code)
		})
	}
}

func TestValidationStrictModeUnknownPath(t *testing.T) {
	reg := validation.NewRegistry()

	strict := ValidationConfig{Enabled: true, StrictMode: true}
	r := validationRouter(t, strict, reg, nil)

	// Params on a schema-less path are refused in strict mode.
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/undeclared?x=1", nil))
	require.Equal(t, http.StatusBadRequest, w.Code)

	// No params is logged and passes through.
	var logged bytes.Buffer
	log.SetOutput(&logged)
	defer log.SetOutput(os.Stdout)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/undeclared", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, logged.String(), "no validation schema for path")
	log.SetOutput(os.Stdout)

	// Non-strict lets both through.
	lax := ValidationConfig{Enabled: true, StrictMode: false}
	r = validationRouter(t, lax, reg, nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/undeclared?x=1", nil))
	require.Equal(t, http.StatusOK, w.Code)
}

func TestValidationQueryReplacedWithSanitized(t *testing.T) {
	var seen string
	r := validationRouter(t,
		ValidationConfig{Enabled: true, StrictMode: true},
		searchRegistry(t),
		func(c *gin.Context) {
			seen = c.Query("q")
			c.String(http.StatusOK, "ok")
		})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet,
		"/items?q=%3Cscript%3Ex%3C%2Fscript%3Esafe", nil))

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "safe", seen)
}

func TestValidationBodySanitized(t *testing.T) {
	var seen map[string]any
	r := validationRouter(t,
		ValidationConfig{Enabled: true, StrictMode: true},
		validation.NewRegistry(),
		func(c *gin.Context) {
			require.NoError(t, json.NewDecoder(c.Request.Body).Decode(&seen))
			c.String(http.StatusOK, "ok")
		})

	body := `{"name":"<script>alert(1)</script>alice","keep":"<b>bold</b>"}`
	req := httptest.NewRequest(http.MethodPost, "/profile", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "alice", seen["name"])
	require.Equal(t, "<b>bold</b>", seen["keep"])
}

func TestValidationBodyDepthRejected(t *testing.T) {
	r := validationRouter(t,
		ValidationConfig{Enabled: true, StrictMode: true},
		validation.NewRegistry(), nil)

	deep := `{"a":{"b":{"c":{"d":{"e":{"f":{"g":"h"}}}}}}}`
	req := httptest.NewRequest(http.MethodPost, "/profile", strings.NewReader(deep))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "Invalid request body", w.Body.String())
}

func TestValidationInvalidJSONRejected(t *testing.T) {
	r := validationRouter(t,
		ValidationConfig{Enabled: true, StrictMode: true},
		validation.NewRegistry(), nil)

	req := httptest.NewRequest(http.MethodPost, "/profile", strings.NewReader(`{broken`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestValidationNonJSONBodyIgnored(t *testing.T) {
	r := validationRouter(t,
		ValidationConfig{Enabled: true, StrictMode: true},
		validation.NewRegistry(), nil)

	req := httptest.NewRequest(http.MethodPost, "/profile", strings.NewReader("a=b"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
}

func TestValidationExcludedPathSkipped(t *testing.T) {
	cfg := ValidationConfig{
		Enabled:       true,
		StrictMode:    true,
		ExcludedPaths: []string{"/health"},
	}
	r := validationRouter(t, cfg, validation.NewRegistry(), nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health?verbose=1", nil))
	require.Equal(t, http.StatusOK, w.Code)
}

func TestValidationDisabledSkipsEverything(t *testing.T) {
	cfg := ValidationConfig{Enabled: false, StrictMode: true}
	r := validationRouter(t, cfg, validation.NewRegistry(), nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/anything?x=1", nil))
	require.Equal(t, http.StatusOK, w.Code)
}
