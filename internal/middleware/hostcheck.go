package middleware

import (
	"net"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// HostCheck rejects requests whose Host header is not on the allow
// list. A leading dot allows subdomains.
func HostCheck(allowedHosts []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		host := c.Request.Host
		if h, _, err := net.SplitHostPort(host); err == nil {
			host = h
		}

		for _, allowed := range allowedHosts {
			if strings.EqualFold(host, allowed) {
				c.Next()
				return
			}
			if strings.HasPrefix(allowed, ".") &&
				strings.HasSuffix(strings.ToLower(host), strings.ToLower(allowed)) {
				c.Next()
				return
			}
		}

		c.String(http.StatusBadRequest, "Invalid host header")
		c.Abort()
	}
}
