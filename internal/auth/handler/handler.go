package handler

import (
	"context"
	"net/http"
	"time"

	"auth-gateway/internal/auth/credentials"
	"auth-gateway/internal/auth/provider"
	"auth-gateway/internal/auth/resolver"
	"auth-gateway/internal/logger"
	"auth-gateway/internal/middleware"
	"auth-gateway/internal/session"
	"auth-gateway/internal/token"

	"github.com/gin-gonic/gin"
)

// CredentialService is the slice of the credentials layer the handlers
// need. Satisfied by *credentials.Service.
type CredentialService interface {
	Register(ctx context.Context, email, password string) (*credentials.User, error)
	Authenticate(ctx context.Context, email, password string) (*credentials.User, error)
}

type Handler struct {
	credentials CredentialService
	providers   *provider.Set
	resolver    resolver.Resolver
	sessions    session.Store
	tokens      *token.Service

	tokenTTL      time.Duration
	secureCookies bool
}

// Options wires the auth surface together. All fields are required
// except SecureCookies, which defaults to off for plain-HTTP dev setups.
type Options struct {
	Credentials   CredentialService
	Providers     *provider.Set
	Resolver      resolver.Resolver
	Sessions      session.Store
	Tokens        *token.Service
	TokenTTL      time.Duration
	SecureCookies bool
}

func New(opts Options) *Handler {
	return &Handler{
		credentials:   opts.Credentials,
		providers:     opts.Providers,
		resolver:      opts.Resolver,
		sessions:      opts.Sessions,
		tokens:        opts.Tokens,
		tokenTTL:      opts.TokenTTL,
		secureCookies: opts.SecureCookies,
	}
}

func (h *Handler) RegisterRoutes(r gin.IRouter) {
	auth := r.Group("/auth")
	auth.POST("/register", h.Register)
	auth.POST("/login", h.Login)
	auth.POST("/logout", h.Logout)
	auth.GET("/me", h.Me)
	auth.POST("/token", h.IssueToken)
	auth.POST("/token/revoke", h.RevokeToken)
	auth.POST("/social/:provider", h.SocialLogin)
	auth.POST("/session/refresh", h.RefreshSession)
}

// startSession persists a session record and issues the cookie. Shared
// by every flow that ends in a logged-in browser.
func (h *Handler) startSession(c *gin.Context, userID, email string) bool {
	sessionID, err := h.sessions.Create(c.Request.Context(), userID, email, nil)
	if err != nil {
		logger.Error("session create failed", map[string]any{
			"request_id": middleware.RequestIDFromContext(c.Request.Context()),
			"error":      err.Error(),
		})
		c.JSON(http.StatusInternalServerError, gin.H{"error": "session error"})
		return false
	}

	session.SetCookie(c.Writer, sessionID, session.CookieOptions{
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	return true
}

func (h *Handler) Logout(c *gin.Context) {
	// Best-effort delete; logout must succeed even without a live session.
	if cookie, err := c.Request.Cookie(session.CookieName); err == nil && cookie.Value != "" {
		if err := h.sessions.Delete(c.Request.Context(), cookie.Value); err != nil {
			logger.Warn("session delete failed on logout", map[string]any{
				"request_id": middleware.RequestIDFromContext(c.Request.Context()),
				"error":      err.Error(),
			})
		}
	}

	session.ClearCookie(c.Writer, session.CookieOptions{
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})

	c.Status(http.StatusNoContent)
}

// Me reports the resolved identity. Anonymous requests get 401; the
// resolver middleware never enforces, so this endpoint checks itself.
func (h *Handler) Me(c *gin.Context) {
	id, ok := middleware.IdentityFromContext(c.Request.Context())
	if !ok {
		c.Header("WWW-Authenticate", "Bearer")
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "Not authenticated"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id":   id.UserID,
		"email":     id.Email,
		"mechanism": string(id.Mechanism),
	})
}

// RefreshSession slides the server-side TTL of the presented session and
// re-issues the cookie. Requests without a session cookie get 401.
func (h *Handler) RefreshSession(c *gin.Context) {
	cookie, err := c.Request.Cookie(session.CookieName)
	if err != nil || cookie.Value == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "Not authenticated"})
		return
	}

	rec, err := h.sessions.Get(c.Request.Context(), cookie.Value)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "session error"})
		return
	}
	if rec == nil {
		session.ClearCookie(c.Writer, session.CookieOptions{
			Secure:   h.secureCookies,
			SameSite: http.SameSiteLaxMode,
		})
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "Not authenticated"})
		return
	}

	if err := h.sessions.Refresh(c.Request.Context(), cookie.Value); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "session error"})
		return
	}

	session.SetCookie(c.Writer, cookie.Value, session.CookieOptions{
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})

	c.Status(http.StatusNoContent)
}
