package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	iauth "github.com/gramlabs/gramd/internal/auth"
	"github.com/gramlabs/gramd/internal/middleware"
	"github.com/gramlabs/gramd/internal/models"
	apperrors "github.com/gramlabs/gramd/pkg/errors"
	"github.com/gramlabs/gramd/pkg/metrics"
	"github.com/gramlabs/gramd/pkg/response"
)

// AuthHandler manages vendor authentication flows (login/refresh/logout/me).
type AuthHandler struct {
	db       *gorm.DB
	guard    *iauth.VendorAuthService
	sessions *iauth.SessionService
}

func NewAuthHandler(db *gorm.DB, guard *iauth.VendorAuthService, sessions *iauth.SessionService) *AuthHandler {
	return &AuthHandler{db: db, guard: guard, sessions: sessions}
}

type loginRequest struct {
	BusinessID string `json:"business_id" validate:"required"`
	Secret     string `json:"secret" validate:"required"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// POST /api/vendor/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindAndValidate(c, &req) {
		return
	}

	business, err := h.guard.Authenticate(requestContext(c), iauth.AuthenticateInput{
		BusinessID: req.BusinessID,
		Secret:     req.Secret,
	})
	if err != nil {
		// All authentication failures collapse to the same response.
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		response.Error(c, apperrors.ErrInvalidCredentials)
		return
	}

	pair, _, err := h.sessions.CreateSession(business.ID, iauth.SessionMetadata{
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	})
	if err != nil {
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		response.Error(c, apperrors.ErrInternalServer)
		return
	}

	metrics.AuthAttempts.WithLabelValues("success").Inc()

	response.Success(c, http.StatusOK, gin.H{
		"tokens": tokenResponse{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken},
		"business": gin.H{
			"id":   business.ID,
			"name": business.Name,
			"slug": business.Slug,
		},
	})
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// POST /api/vendor/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if !bindAndValidate(c, &req) {
		return
	}

	pair, _, err := h.sessions.RefreshSession(req.RefreshToken)
	if err != nil {
		response.Error(c, apperrors.ErrUnauthorized)
		return
	}

	response.Success(c, http.StatusOK, tokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

// POST /api/vendor/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	sid := strings.TrimSpace(c.GetString(middleware.CtxSessionIDKey))
	if sid == "" {
		response.Error(c, apperrors.ErrUnauthorized)
		return
	}

	if err := h.sessions.RevokeSession(sid); err != nil {
		if errors.Is(err, iauth.ErrSessionNotFound) {
			response.Error(c, apperrors.ErrUnauthorized)
			return
		}
		response.Error(c, apperrors.ErrInternalServer)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"revoked": true})
}

// GET /api/vendor/me
func (h *AuthHandler) Me(c *gin.Context) {
	businessID := strings.TrimSpace(c.GetString(middleware.CtxBusinessIDKey))
	if businessID == "" {
		response.Error(c, apperrors.ErrUnauthorized)
		return
	}

	var business models.Business
	err := h.db.WithContext(requestContext(c)).Take(&business, "id = ?", businessID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		response.Error(c, apperrors.ErrUnauthorized)
		return
	}
	if err != nil {
		response.Error(c, apperrors.ErrInternalServer.WithInternal(err))
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"id":      business.ID,
		"name":    business.Name,
		"slug":    business.Slug,
		"enabled": business.Enabled,
	})
}
