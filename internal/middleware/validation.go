package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"

	"auth-gateway/internal/logger"
	"auth-gateway/internal/sanitize"
	"auth-gateway/internal/validation"

	"github.com/gin-gonic/gin"
)

// ValidationConfig controls the sanitization/validation gate.
type ValidationConfig struct {
	Enabled       bool
	StrictMode    bool
	ExcludedPaths []string
}

// Validation sanitizes query parameters and JSON bodies, then validates
// query parameters against the per-path schema. Downstream handlers only
// ever see the sanitized, validated input.
func Validation(cfg ValidationConfig, sanitizer *sanitize.Sanitizer, schemas *validation.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !cfg.Enabled {
			c.Next()
			return
		}

		path := c.Request.URL.Path
		for _, excluded := range cfg.ExcludedPaths {
			if strings.HasPrefix(path, excluded) {
				c.Next()
				return
			}
		}

		if !validateQuery(c, cfg, sanitizer, schemas) {
			return
		}

		if !sanitizeBody(c, sanitizer) {
			return
		}

		c.Next()
	}
}

func validateQuery(c *gin.Context, cfg ValidationConfig, sanitizer *sanitize.Sanitizer, schemas *validation.Registry) bool {
	pairs, err := parseQueryOrdered(c.Request.URL.RawQuery)
	if err != nil {
		logViolation(c, "query_parsing_error", err.Error())
		rejectParams(c)
		return false
	}

	sanitized := sanitizer.Query(pairs)

	params := make(map[string]string, len(sanitized))
	for _, p := range sanitized {
		params[p.Key] = p.Value
	}

	path := c.Request.URL.Path
	schema, ok := schemas.Lookup(path)
	switch {
	case ok:
		if err := schema.Validate(params); err != nil {
			logViolation(c, "query_validation_error", err.Error())
			rejectParams(c)
			return false
		}
	case cfg.StrictMode && len(params) > 0:
		// Strict mode refuses parameters no schema has declared.
		logViolation(c, "strict_mode_violation",
			"no validation schema defined for path but parameters present")
		rejectParams(c)
		return false
	case cfg.StrictMode:
		logger.Debug("no validation schema for path", map[string]any{
			"request_id": RequestIDFromContext(c.Request.Context()),
			"method":     c.Request.Method,
			"path":       path,
		})
	}

	// Replace the query string so handlers never see un-sanitized input.
	c.Request.URL.RawQuery = encodeQueryOrdered(sanitized)

	return true
}

func sanitizeBody(c *gin.Context, sanitizer *sanitize.Sanitizer) bool {
	switch c.Request.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
	default:
		return true
	}
	if !strings.Contains(c.GetHeader("Content-Type"), "application/json") {
		return true
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		logViolation(c, "body_read_error", err.Error())
		rejectBody(c)
		return false
	}
	if len(body) == 0 {
		return true
	}

	var decoded any
	if err := json.Unmarshal(body, &decoded); err != nil {
		logViolation(c, "body_parsing_error", "invalid JSON body")
		rejectBody(c)
		return false
	}

	cleaned, err := sanitizer.JSONBody(decoded)
	if err != nil {
		if errors.Is(err, sanitize.ErrDepthExceeded) {
			logViolation(c, "body_validation_error", err.Error())
		} else {
			logViolation(c, "body_processing_error", err.Error())
		}
		rejectBody(c)
		return false
	}

	replacement, err := json.Marshal(cleaned)
	if err != nil {
		logViolation(c, "body_processing_error", err.Error())
		rejectBody(c)
		return false
	}

	c.Request.Body = io.NopCloser(bytes.NewReader(replacement))
	c.Request.ContentLength = int64(len(replacement))

	return true
}

// parseQueryOrdered preserves key order and duplicate keys, which
// url.Values cannot.
func parseQueryOrdered(rawQuery string) ([]sanitize.Pair, error) {
	if rawQuery == "" {
		return nil, nil
	}

	var pairs []sanitize.Pair
	for _, segment := range strings.Split(rawQuery, "&") {
		if segment == "" {
			continue
		}
		key, value, _ := strings.Cut(segment, "=")
		decodedKey, err := url.QueryUnescape(key)
		if err != nil {
			return nil, err
		}
		decodedValue, err := url.QueryUnescape(value)
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, sanitize.Pair{Key: decodedKey, Value: decodedValue})
	}
	return pairs, nil
}

func encodeQueryOrdered(pairs []sanitize.Pair) string {
	var sb strings.Builder
	for i, p := range pairs {
		if i > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(url.QueryEscape(p.Key))
		sb.WriteByte('=')
		sb.WriteString(url.QueryEscape(p.Value))
	}
	return sb.String()
}

func rejectParams(c *gin.Context) {
	c.String(http.StatusBadRequest, "Invalid request parameters")
	c.Abort()
}

func rejectBody(c *gin.Context) {
	c.String(http.StatusBadRequest, "Invalid request body")
	c.Abort()
}

func logViolation(c *gin.Context, violationType, details string) {
	logger.Warn("security violation", map[string]any{
		"violation_type": violationType,
		"request_id":     RequestIDFromContext(c.Request.Context()),
		"method":         c.Request.Method,
		"path":           c.Request.URL.Path,
		"client":         c.ClientIP(),
		"details":        details,
	})
}
