package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gramlabs/gramd/internal/middleware"
	"github.com/gramlabs/gramd/internal/models"
	"github.com/gramlabs/gramd/internal/services"
	"github.com/gramlabs/gramd/internal/store"
	apperrors "github.com/gramlabs/gramd/pkg/errors"
	"github.com/gramlabs/gramd/pkg/metrics"
	"github.com/gramlabs/gramd/pkg/response"
)

// RedemptionHandler exposes the two-phase validate → approve protocol.
type RedemptionHandler struct {
	validation *services.ValidationService
	approval   *services.ApprovalService
}

func NewRedemptionHandler(validation *services.ValidationService, approval *services.ApprovalService) *RedemptionHandler {
	return &RedemptionHandler{validation: validation, approval: approval}
}

type perkStatusDTO struct {
	ID                  string         `json:"id"`
	Type                string         `json:"type"`
	BusinessID          string         `json:"business_id"`
	BusinessName        string         `json:"business_name"`
	Metadata            map[string]any `json:"metadata,omitempty"`
	CooldownSeconds     int            `json:"cooldown_seconds"`
	State               string         `json:"state"`
	CooldownRemainingMS int64          `json:"cooldown_remaining_ms,omitempty"`
}

type gramDTO struct {
	ID          string         `json:"id"`
	Slug        string         `json:"slug"`
	Title       string         `json:"title"`
	ImageURL    string         `json:"image_url,omitempty"`
	Description string         `json:"description,omitempty"`
	Effects     map[string]any `json:"effects,omitempty"`
	Claimed     bool           `json:"claimed"`
}

type redemptionDTO struct {
	ID         string `json:"id"`
	GramID     string `json:"gram_id"`
	PerkID     string `json:"perk_id"`
	BusinessID string `json:"business_id"`
	RedeemedAt string `json:"redeemed_at"`
}

func mapGram(gram *models.Gram) gramDTO {
	dto := gramDTO{
		ID:          gram.ID,
		Slug:        gram.Slug,
		Title:       gram.Title,
		ImageURL:    gram.ImageURL,
		Description: gram.Description,
		Claimed:     gram.OwnerID != nil,
	}
	if len(gram.Effects) > 0 {
		_ = json.Unmarshal(gram.Effects, &dto.Effects)
	}
	return dto
}

func mapPerkStatus(status services.PerkStatus) perkStatusDTO {
	dto := perkStatusDTO{
		ID:                  status.Perk.ID,
		Type:                string(status.Perk.Type),
		BusinessID:          status.Perk.BusinessID,
		BusinessName:        status.Perk.BusinessName,
		CooldownSeconds:     status.Perk.CooldownSeconds,
		State:               string(status.State),
		CooldownRemainingMS: status.CooldownRemainingMS,
	}
	if len(status.Perk.Metadata) > 0 {
		_ = json.Unmarshal(status.Perk.Metadata, &dto.Metadata)
	}
	return dto
}

func mapRedemption(redemption *models.Redemption) redemptionDTO {
	return redemptionDTO{
		ID:         redemption.ID,
		GramID:     redemption.GramID,
		PerkID:     redemption.PerkID,
		BusinessID: redemption.BusinessID,
		RedeemedAt: redemption.RedeemedAt.UTC().Format(time.RFC3339),
	}
}

type validateRequest struct {
	NFCTagID string `json:"nfc_tag_id" validate:"required"`
}

// POST /api/redemptions/validate
func (h *RedemptionHandler) Validate(c *gin.Context) {
	businessID := strings.TrimSpace(c.GetString(middleware.CtxBusinessIDKey))
	if businessID == "" {
		response.Error(c, apperrors.ErrUnauthorized)
		return
	}

	var req validateRequest
	if !bindAndValidate(c, &req) {
		return
	}

	result, err := h.validation.Validate(requestContext(c), req.NFCTagID, businessID)
	if err != nil {
		if errors.Is(err, store.ErrGramNotFound) {
			metrics.Validations.WithLabelValues("not_found").Inc()
			response.Error(c, apperrors.ErrGramNotFound)
			return
		}
		metrics.Validations.WithLabelValues("error").Inc()
		response.Error(c, apperrors.ErrInternalServer.WithInternal(err))
		return
	}

	metrics.Validations.WithLabelValues("ok").Inc()

	perks := make([]perkStatusDTO, 0, len(result.Perks))
	for _, status := range result.Perks {
		perks = append(perks, mapPerkStatus(status))
	}

	response.Success(c, http.StatusOK, gin.H{
		"gram":  mapGram(result.Gram),
		"perks": perks,
	})
}

type approveRequest struct {
	NFCTagID string `json:"nfc_tag_id" validate:"required"`
	PerkID   string `json:"perk_id" validate:"required"`
}

// POST /api/redemptions/approve
func (h *RedemptionHandler) Approve(c *gin.Context) {
	businessID := strings.TrimSpace(c.GetString(middleware.CtxBusinessIDKey))
	if businessID == "" {
		response.Error(c, apperrors.ErrUnauthorized)
		return
	}

	var req approveRequest
	if !bindAndValidate(c, &req) {
		return
	}

	redemption, err := h.approval.Approve(requestContext(c), req.NFCTagID, req.PerkID, businessID)
	if err != nil {
		response.Error(c, mapApprovalError(err))
		return
	}

	metrics.RedemptionAttempts.WithLabelValues("approved").Inc()
	response.Success(c, http.StatusCreated, mapRedemption(redemption))
}

func mapApprovalError(err error) error {
	var cooldownErr *services.CooldownError
	switch {
	case errors.Is(err, store.ErrGramNotFound):
		metrics.RedemptionAttempts.WithLabelValues("not_found").Inc()
		return apperrors.ErrGramNotFound
	case errors.Is(err, services.ErrPerkNotFound):
		metrics.RedemptionAttempts.WithLabelValues("not_found").Inc()
		return apperrors.ErrPerkNotFound
	case errors.Is(err, services.ErrPerkUnauthorized):
		metrics.RedemptionAttempts.WithLabelValues("denied").Inc()
		return apperrors.ErrPerkUnauthorized
	case errors.Is(err, services.ErrPerkDisabled):
		metrics.RedemptionAttempts.WithLabelValues("denied").Inc()
		return apperrors.ErrPerkDisabled
	case errors.As(err, &cooldownErr):
		metrics.RedemptionAttempts.WithLabelValues("cooldown").Inc()
		return apperrors.NewPerkOnCooldown(cooldownErr.RemainingMS)
	case errors.Is(err, store.ErrRedemptionConflict):
		metrics.RedemptionAttempts.WithLabelValues("conflict").Inc()
		return apperrors.ErrRedemptionConflict
	default:
		metrics.RedemptionAttempts.WithLabelValues("error").Inc()
		return apperrors.ErrInternalServer.WithInternal(err)
	}
}
