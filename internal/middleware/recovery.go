package middleware

import (
	"net/http"

	"auth-gateway/internal/logger"

	"github.com/gin-gonic/gin"
)

// Recovery converts panics into a generic 500 carrying the correlation
// id. Internal error text is logged, never sent to the client.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				requestID := RequestIDFromContext(c.Request.Context())

				logger.Error("unhandled panic", map[string]any{
					"request_id": requestID,
					"method":     c.Request.Method,
					"path":       c.Request.URL.Path,
					"error":      rec,
				})

				if !c.Writer.Written() {
					c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
						"detail":     "Internal Server Error",
						"request_id": requestID,
						"code":       "INTERNAL_ERROR",
					})
				} else {
					c.Abort()
				}
			}
		}()

		c.Next()
	}
}
