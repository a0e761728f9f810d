package middleware

import (
	"fmt"

	"auth-gateway/internal/policy"

	"github.com/gin-gonic/gin"
)

// HeaderOverride carries per-path header values; empty fields fall back
// to the global defaults.
type HeaderOverride struct {
	XFrameOptions         string
	ContentSecurityPolicy string
	PermissionsPolicy     string
}

// SecurityHeadersConfig is the global header policy.
type SecurityHeadersConfig struct {
	XFrameOptions         string
	ContentSecurityPolicy string
	PermissionsPolicy     string
	ForceHTTPS            bool
	HSTSMaxAge            int
	HSTSIncludeSubdomains bool
	HSTSPreload           bool
}

// SecurityHeaders attaches protective headers to every response,
// honoring per-path overrides and HTTPS-conditional HSTS.
func SecurityHeaders(cfg SecurityHeadersConfig, overrides *policy.Resolver[HeaderOverride]) gin.HandlerFunc {
	return func(c *gin.Context) {
		effective := overrides.Resolve(c.Request.URL.Path, c.Request.Method)

		xFrame := cfg.XFrameOptions
		if effective.XFrameOptions != "" {
			xFrame = effective.XFrameOptions
		}
		csp := cfg.ContentSecurityPolicy
		if effective.ContentSecurityPolicy != "" {
			csp = effective.ContentSecurityPolicy
		}
		permissions := cfg.PermissionsPolicy
		if effective.PermissionsPolicy != "" {
			permissions = effective.PermissionsPolicy
		}

		// Unconditional protections.
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-XSS-Protection", "1; mode=block")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		c.Header("X-Frame-Options", xFrame)
		c.Header("Content-Security-Policy", csp)
		c.Header("Permissions-Policy", permissions)

		isHTTPS := c.Request.TLS != nil ||
			c.GetHeader("X-Forwarded-Proto") == "https"

		if cfg.ForceHTTPS || isHTTPS {
			hsts := fmt.Sprintf("max-age=%d", cfg.HSTSMaxAge)
			if cfg.HSTSIncludeSubdomains {
				hsts += "; includeSubDomains"
			}
			if cfg.HSTSPreload {
				hsts += "; preload"
			}
			c.Header("Strict-Transport-Security", hsts)
		}

		c.Next()
	}
}
