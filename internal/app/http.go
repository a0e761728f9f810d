package app

import (
	"context"
	"time"

	"auth-gateway/internal/auth/credentials"
	"auth-gateway/internal/auth/handler"
	"auth-gateway/internal/auth/provider"
	"auth-gateway/internal/auth/provider/apple"
	"auth-gateway/internal/auth/provider/facebook"
	"auth-gateway/internal/auth/provider/google"
	"auth-gateway/internal/auth/resolver"
	"auth-gateway/internal/config"
	"auth-gateway/internal/middleware"
	"auth-gateway/internal/policy"
	"auth-gateway/internal/sanitize"
	"auth-gateway/internal/session"
	"auth-gateway/internal/token"
	"auth-gateway/internal/validation"

	"github.com/gin-gonic/gin"
)

func setupHTTP(ctx context.Context, manager *config.Manager) (*gin.Engine, func() error, error) {
	cfg := manager.Snapshot()

	infra, err := setupInfra(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	// ----------------------------
	// Dependencies
	// ----------------------------

	sessionStore := session.NewRedisStore(infra.Redis.Client)
	tokenService := token.NewService([]byte(cfg.SecretKey), infra.Redis.Client)
	credentialService := credentials.NewService(infra.DB)
	identityResolver := resolver.NewDBResolver(infra.DB)

	providers, err := setupProviders(ctx, cfg)
	if err != nil {
		_ = infra.Close()
		return nil, nil, err
	}

	authHandler := handler.New(handler.Options{
		Credentials:   credentialService,
		Providers:     providers,
		Resolver:      identityResolver,
		Sessions:      sessionStore,
		Tokens:        tokenService,
		TokenTTL:      cfg.AccessTokenTTL,
		SecureCookies: cfg.ForceHTTPS,
	})

	authResolver := middleware.NewAuthResolver(tokenService, sessionStore, cfg.RefreshHintWindow)

	timeouts, err := timeoutResolver(cfg)
	if err != nil {
		_ = infra.Close()
		return nil, nil, err
	}
	sizeLimits, err := sizeLimitResolver(cfg)
	if err != nil {
		_ = infra.Close()
		return nil, nil, err
	}
	headerOverrides, err := headerOverrideResolver(cfg)
	if err != nil {
		_ = infra.Close()
		return nil, nil, err
	}

	sanitizer := sanitize.New(sanitize.Config{
		AllowedTags:       cfg.AllowedTags,
		AllowedAttributes: cfg.AllowedAttributes,
		MaxDepth:          cfg.MaxJSONDepth,
	})

	// ----------------------------
	// Router & pipeline
	// ----------------------------

	router := gin.New()
	router.Use(
		middleware.Recovery(),
		middleware.Logging(),
		middleware.RequestID(),
		authResolver.Handler(),
		middleware.Validation(middleware.ValidationConfig{
			Enabled:       cfg.ValidationEnabled,
			StrictMode:    cfg.ValidationStrictMode,
			ExcludedPaths: cfg.ExcludedPaths,
		}, sanitizer, validation.NewRegistry()),
		middleware.NewTimeout(timeouts).Handler(),
		middleware.NewSizeLimit(sizeLimits).Handler(),
		middleware.SecurityHeaders(middleware.SecurityHeadersConfig{
			XFrameOptions:         cfg.XFrameOptions,
			ContentSecurityPolicy: cfg.ContentSecurityPolicy,
			PermissionsPolicy:     cfg.PermissionsPolicy,
			ForceHTTPS:            cfg.ForceHTTPS,
			HSTSMaxAge:            cfg.HSTSMaxAge,
			HSTSIncludeSubdomains: cfg.HSTSIncludeSubdomains,
			HSTSPreload:           cfg.HSTSPreload,
		}, headerOverrides),
		middleware.HostCheck(cfg.AllowedHosts),
	)

	// ----------------------------
	// Public routes
	// ----------------------------

	authHandler.RegisterRoutes(router)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":         "ok",
			"config_version": manager.Version(),
		})
	})

	// ----------------------------
	// Protected API routes
	// ----------------------------

	api := router.Group("/api")
	api.Use(middleware.RequireAuth())

	api.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"ok": true})
	})

	return router, infra.Close, nil
}

// setupProviders constructs verifiers for the providers that have
// credentials configured. Unconfigured providers stay nil; a login
// attempt against one fails with a clear error instead of a panic.
func setupProviders(ctx context.Context, cfg *config.Config) (*provider.Set, error) {
	set := &provider.Set{
		Facebook: facebook.New(cfg.FacebookGraphURL),
	}

	if cfg.GoogleClientID != "" {
		p, err := google.New(ctx, cfg.GoogleClientID)
		if err != nil {
			return nil, err
		}
		set.Google = p
	}

	if cfg.AppleClientID != "" {
		p, err := apple.New(ctx, cfg.AppleClientID)
		if err != nil {
			return nil, err
		}
		set.Apple = p
	}

	return set, nil
}

func timeoutResolver(cfg *config.Config) (*policy.Resolver[time.Duration], error) {
	rules := make([]policy.Rule[time.Duration], 0, len(cfg.TimeoutRules))
	for _, r := range cfg.TimeoutRules {
		rules = append(rules, policy.Rule[time.Duration]{
			Pattern: r.PathPattern,
			Method:  r.Method,
			Value:   r.Timeout,
		})
	}
	return policy.NewResolver(rules, cfg.RequestTimeout)
}

func sizeLimitResolver(cfg *config.Config) (*policy.Resolver[int64], error) {
	rules := make([]policy.Rule[int64], 0, len(cfg.SizeLimitRules))
	for _, r := range cfg.SizeLimitRules {
		rules = append(rules, policy.Rule[int64]{
			Pattern: r.PathPattern,
			Method:  r.Method,
			Value:   r.Limit,
		})
	}
	return policy.NewResolver(rules, cfg.MaxUploadSize)
}

func headerOverrideResolver(cfg *config.Config) (*policy.Resolver[middleware.HeaderOverride], error) {
	rules := make([]policy.Rule[middleware.HeaderOverride], 0, len(cfg.SecurityOverrides))
	for _, r := range cfg.SecurityOverrides {
		rules = append(rules, policy.Rule[middleware.HeaderOverride]{
			Pattern: r.PathPattern,
			Value: middleware.HeaderOverride{
				XFrameOptions:         r.XFrameOptions,
				ContentSecurityPolicy: r.ContentSecurityPolicy,
				PermissionsPolicy:     r.PermissionsPolicy,
			},
		})
	}
	return policy.NewResolver(rules, middleware.HeaderOverride{})
}
