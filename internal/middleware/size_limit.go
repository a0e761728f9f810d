package middleware

import (
	"net/http"
	"strconv"

	"auth-gateway/internal/logger"
	"auth-gateway/internal/policy"

	"github.com/gin-gonic/gin"
)

// SizeLimit rejects oversized request bodies before they are read, based
// on the declared Content-Length and the per-path resolved limit.
type SizeLimit struct {
	limits   *policy.Resolver[int64]
	rejected *rejectionCounters
}

func NewSizeLimit(limits *policy.Resolver[int64]) *SizeLimit {
	return &SizeLimit{
		limits:   limits,
		rejected: newRejectionCounters(),
	}
}

// Rejections exposes counters to operational tooling.
func (s *SizeLimit) Rejections() (int64, map[string]int64) {
	return s.rejected.snapshot()
}

func (s *SizeLimit) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Content-Length")
		if header == "" {
			// Size unknown ahead of read; streaming accounting is out of
			// this guard's scope.
			c.Next()
			return
		}

		limit := s.limits.Resolve(c.Request.URL.Path, c.Request.Method)

		contentLength, err := strconv.ParseInt(header, 10, 64)
		if err != nil {
			// Malformed header fails open, favoring availability.
			logger.Warn("invalid content-length header", map[string]any{
				"request_id":   RequestIDFromContext(c.Request.Context()),
				"method":       c.Request.Method,
				"path":         c.Request.URL.Path,
				"header_value": header,
			})
			c.Next()
			return
		}

		if contentLength > limit {
			s.rejected.inc(c.Request.URL.Path)

			logger.Warn("request rejected by size limit", map[string]any{
				"request_id":     RequestIDFromContext(c.Request.Context()),
				"method":         c.Request.Method,
				"path":           c.Request.URL.Path,
				"client":         c.ClientIP(),
				"content_length": contentLength,
				"limit":          limit,
			})

			c.Header("X-Max-Content-Length", strconv.FormatInt(limit, 10))
			c.String(http.StatusRequestEntityTooLarge, "Request entity too large")
			c.Abort()
			return
		}

		c.Next()
	}
}
