package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/bustrack/bus-tracking-backend/internal/metrics"
	"github.com/bustrack/bus-tracking-backend/internal/middleware"
	"github.com/bustrack/bus-tracking-backend/internal/services"
)

// AuthHandler handles authentication HTTP requests
type AuthHandler struct {
	authService *services.AuthService
	collector   *metrics.Collector
	logger      *logrus.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *services.AuthService, collector *metrics.Collector, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		collector:   collector,
		logger:      logger,
	}
}

// Login authenticates a user and returns a token pair
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Email and password are required"})
		return
	}

	response, err := h.authService.Login(req.Email, req.Password, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		h.collector.LoginAttempts.WithLabelValues("failure").Inc()
		switch {
		case errors.Is(err, services.ErrInvalidCredentials):
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid credentials"})
		case errors.Is(err, services.ErrAccountInactive):
			c.JSON(http.StatusForbidden, gin.H{"message": "Account is inactive"})
		default:
			h.logger.WithError(err).Error("login failed")
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		}
		return
	}

	h.collector.LoginAttempts.WithLabelValues("success").Inc()
	c.JSON(http.StatusOK, response)
}

// Refresh exchanges a refresh token for a fresh token pair
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "refresh_token is required"})
		return
	}

	response, err := h.authService.Refresh(req.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidRefreshToken):
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid refresh token"})
		case errors.Is(err, services.ErrAccountInactive):
			c.JSON(http.StatusForbidden, gin.H{"message": "Account is inactive"})
		default:
			h.logger.WithError(err).Error("token refresh failed")
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		}
		return
	}

	c.JSON(http.StatusOK, response)
}

// Profile returns the authenticated user's account
func (h *AuthHandler) Profile(c *gin.Context) {
	userCtx, exists := middleware.GetUserContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "User context not found"})
		return
	}

	user, err := h.authService.GetUser(userCtx.UserID)
	if err != nil {
		writeStoreError(c, h.logger, err, "User not found", "")
		return
	}

	c.JSON(http.StatusOK, user)
}

// ChangePassword replaces the authenticated user's password
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	userCtx, exists := middleware.GetUserContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "User context not found"})
		return
	}

	var req struct {
		OldPassword string `json:"old_password" binding:"required"`
		NewPassword string `json:"new_password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "old_password and new_password are required"})
		return
	}
	if len(req.NewPassword) < 6 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "New password must be at least 6 characters"})
		return
	}

	if err := h.authService.ChangePassword(userCtx.UserID, req.OldPassword, req.NewPassword); err != nil {
		if errors.Is(err, services.ErrWrongPassword) {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Current password is incorrect"})
			return
		}
		writeStoreError(c, h.logger, err, "User not found", "")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password updated"})
}
