package handler

import (
	"net/http"

	"auth-gateway/internal/auth/provider"
	"auth-gateway/internal/logger"
	"auth-gateway/internal/middleware"

	"github.com/gin-gonic/gin"
)

type socialLoginRequest struct {
	Credential string `json:"credential" binding:"required"`
}

// SocialLogin verifies a provider-issued credential (an ID token for
// google/apple, an access token for facebook), resolves the federated
// identity to an internal user, and starts a session.
func (h *Handler) SocialLogin(c *gin.Context) {
	kind, err := provider.ParseKind(c.Param("provider"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown provider"})
		return
	}

	var req socialLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	verifier, err := h.providers.ForKind(kind)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown provider"})
		return
	}

	identity, err := verifier.Verify(c.Request.Context(), req.Credential)
	if err != nil {
		// Signature mismatch, expired credential, audience mismatch, and
		// upstream trouble all collapse to one response.
		logger.Warn("social credential rejected", map[string]any{
			"request_id": middleware.RequestIDFromContext(c.Request.Context()),
			"provider":   string(kind),
			"client":     c.ClientIP(),
		})
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication failed"})
		return
	}

	userID, err := h.resolver.Resolve(c.Request.Context(), identity)
	if err != nil {
		logger.Error("identity resolution failed", map[string]any{
			"request_id": middleware.RequestIDFromContext(c.Request.Context()),
			"provider":   string(kind),
			"error":      err.Error(),
		})
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to resolve user"})
		return
	}

	if !h.startSession(c, userID, identity.Email) {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "authenticated",
		"user_id": userID,
	})
}
