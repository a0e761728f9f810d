package handler

import (
	"net/http"
	"strings"
	"time"

	"auth-gateway/internal/logger"
	"auth-gateway/internal/middleware"

	"github.com/gin-gonic/gin"
)

type issueTokenRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Scope    string `json:"scope"`
}

// IssueToken exchanges a password credential for a bearer token. Token
// auth and session auth are independent; this endpoint does not touch
// cookies.
func (h *Handler) IssueToken(c *gin.Context) {
	var req issueTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	user, err := h.credentials.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	// Email rides along so token-authenticated requests resolve the same
	// identity fields as session-authenticated ones.
	claims := map[string]any{"sub": user.ID, "email": user.Email}
	if req.Scope != "" {
		claims["scope"] = req.Scope
	}

	signed, err := h.tokens.Issue(claims, h.tokenTTL)
	if err != nil {
		logger.Error("token issue failed", map[string]any{
			"request_id": middleware.RequestIDFromContext(c.Request.Context()),
			"error":      err.Error(),
		})
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token": signed,
		"token_type":   "bearer",
		"expires_in":   int(h.tokenTTL.Seconds()),
	})
}

// RevokeToken invalidates the presented bearer token for its remaining
// lifetime. Revoking an already-invalid token still returns 401, so the
// endpoint leaks nothing about why a token stopped working.
func (h *Handler) RevokeToken(c *gin.Context) {
	raw := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	if raw == "" || raw == c.GetHeader("Authorization") {
		c.Header("WWW-Authenticate", "Bearer")
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "Not authenticated"})
		return
	}

	claims, err := h.tokens.Decode(c.Request.Context(), raw)
	if err != nil {
		c.Header("WWW-Authenticate", "Bearer")
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "Not authenticated"})
		return
	}

	if err := h.tokens.Revoke(c.Request.Context(), claims.JTI, time.Until(claims.Expiry)); err != nil {
		logger.Error("token revoke failed", map[string]any{
			"request_id": middleware.RequestIDFromContext(c.Request.Context()),
			"error":      err.Error(),
		})
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token error"})
		return
	}

	c.Status(http.StatusNoContent)
}
