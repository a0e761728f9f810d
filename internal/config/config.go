package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// TimeoutRule binds a path pattern (and optionally a method) to a
// handler execution bound.
type TimeoutRule struct {
	PathPattern string
	Method      string
	Timeout     time.Duration
}

// SizeLimitRule binds a path pattern (and optionally a method) to a
// maximum request body size in bytes.
type SizeLimitRule struct {
	PathPattern string
	Method      string
	Limit       int64
}

// SecurityOverride carries per-path header values; unset fields fall
// back to the global defaults.
type SecurityOverride struct {
	PathPattern           string
	XFrameOptions         string
	ContentSecurityPolicy string
	PermissionsPolicy     string
}

// Config is an immutable snapshot of the process configuration. Request
// handling always works from one snapshot; runtime reconfiguration goes
// through Manager.Reload, never through field mutation.
type Config struct {
	AppPort string `env:"APP_PORT" envDefault:"8080"`

	AllowedHosts []string `env:"ALLOWED_HOSTS" envSeparator:"," envDefault:"localhost,127.0.0.1"`

	// Token service
	SecretKey         string        `env:"SECRET_KEY,notEmpty"`
	AccessTokenTTL    time.Duration `env:"ACCESS_TOKEN_TTL" envDefault:"30m"`
	RefreshHintWindow time.Duration `env:"REFRESH_HINT_WINDOW" envDefault:"5m"`

	// Security headers
	HSTSMaxAge            int    `env:"SECURITY_HSTS_MAX_AGE" envDefault:"31536000"`
	HSTSIncludeSubdomains bool   `env:"SECURITY_HSTS_INCLUDE_SUBDOMAINS" envDefault:"true"`
	HSTSPreload           bool   `env:"SECURITY_HSTS_PRELOAD" envDefault:"false"`
	ForceHTTPS            bool   `env:"SECURITY_FORCE_HTTPS" envDefault:"false"`
	XFrameOptions         string `env:"SECURITY_X_FRAME_OPTIONS" envDefault:"DENY"`
	ContentSecurityPolicy string `env:"SECURITY_CONTENT_SECURITY_POLICY" envDefault:"default-src 'self'"`
	PermissionsPolicy     string `env:"SECURITY_PERMISSIONS_POLICY" envDefault:"geolocation=(), microphone=(), camera=()"`

	// Guards
	MaxUploadSize  int64         `env:"MAX_UPLOAD_SIZE" envDefault:"10000000"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"10s"`

	// Validation & sanitization
	ValidationEnabled    bool     `env:"VALIDATION_ENABLED" envDefault:"true"`
	ValidationStrictMode bool     `env:"VALIDATION_STRICT_MODE" envDefault:"true"`
	ExcludedPaths        []string `env:"VALIDATION_EXCLUDED_PATHS" envSeparator:"," envDefault:"/health"`
	MaxJSONDepth         int      `env:"MAX_JSON_DEPTH" envDefault:"10"`

	// Federated providers
	GoogleClientID    string `env:"GOOGLE_CLIENT_ID"`
	AppleClientID     string `env:"APPLE_CLIENT_ID"`
	FacebookGraphURL  string `env:"FACEBOOK_GRAPH_URL" envDefault:"https://graph.facebook.com"`

	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`

	DatabaseDSN string `env:"DATABASE_DSN"`

	// Ordered rule lists, first match wins. Populated in code or by
	// operational tooling through Reload; not env-driven.
	TimeoutRules      []TimeoutRule
	SizeLimitRules    []SizeLimitRule
	SecurityOverrides []SecurityOverride

	AllowedTags       []string
	AllowedAttributes map[string][]string
}

var defaultAllowedTags = []string{
	"a", "abbr", "acronym", "b", "blockquote", "code", "em", "i",
	"li", "ol", "strong", "ul", "p", "br",
}

var defaultAllowedAttributes = map[string][]string{
	"a":       {"href", "title"},
	"abbr":    {"title"},
	"acronym": {"title"},
}

// Load parses a snapshot from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}

	cfg.AllowedTags = defaultAllowedTags
	cfg.AllowedAttributes = defaultAllowedAttributes

	return cfg, nil
}
