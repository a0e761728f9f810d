package middleware

import (
	"fmt"
	"time"

	"auth-gateway/internal/logger"

	"github.com/gin-gonic/gin"
)

// Logging emits one structured event per request with method, path,
// status, duration, and resolved identity. Level follows status class.
func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start)
		if !c.Writer.Written() {
			c.Header("X-Process-Time", fmt.Sprintf("%.4f", duration.Seconds()))
		}

		fields := map[string]any{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"duration":   duration.Seconds(),
			"client":     c.ClientIP(),
			"user_agent": c.Request.UserAgent(),
		}
		if id := RequestIDFromContext(c.Request.Context()); id != "" {
			fields["request_id"] = id
		}
		if identity, ok := IdentityFromContext(c.Request.Context()); ok {
			fields["user_id"] = identity.UserID
		}

		switch status := c.Writer.Status(); {
		case status >= 500:
			logger.Error("request processed", fields)
		case status >= 400:
			logger.Warn("request processed", fields)
		default:
			logger.Info("request processed", fields)
		}
	}
}
