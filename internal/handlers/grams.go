package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/gramlabs/gramd/internal/models"
	"github.com/gramlabs/gramd/internal/services"
	"github.com/gramlabs/gramd/internal/store"
	apperrors "github.com/gramlabs/gramd/pkg/errors"
	"github.com/gramlabs/gramd/pkg/response"
)

// GramHandler covers the producer and public gram surface.
type GramHandler struct {
	svc       *services.GramService
	publicURL string
}

func NewGramHandler(svc *services.GramService, publicURL string) *GramHandler {
	return &GramHandler{svc: svc, publicURL: strings.TrimRight(publicURL, "/")}
}

type createPerkRequest struct {
	BusinessID      string         `json:"business_id" validate:"required"`
	BusinessName    string         `json:"business_name" validate:"required"`
	Type            string         `json:"type" validate:"required"`
	Metadata        map[string]any `json:"metadata"`
	CooldownSeconds int            `json:"cooldown_seconds" validate:"min=0"`
	Enabled         *bool          `json:"enabled"`
}

type createGramRequest struct {
	Slug        string              `json:"slug" validate:"required"`
	NFCTagID    string              `json:"nfc_tag_id" validate:"required"`
	Title       string              `json:"title" validate:"required"`
	ImageURL    string              `json:"image_url"`
	Description string              `json:"description"`
	Effects     map[string]any      `json:"effects"`
	Perks       []createPerkRequest `json:"perks"`
}

// POST /api/grams (producer key)
func (h *GramHandler) Create(c *gin.Context) {
	var req createGramRequest
	if !bindAndValidate(c, &req) {
		return
	}

	input := services.CreateGramInput{
		Slug:        req.Slug,
		NFCTagID:    req.NFCTagID,
		Title:       req.Title,
		ImageURL:    req.ImageURL,
		Description: req.Description,
		Effects:     req.Effects,
	}
	for _, perk := range req.Perks {
		enabled := true
		if perk.Enabled != nil {
			enabled = *perk.Enabled
		}
		input.Perks = append(input.Perks, services.CreatePerkInput{
			BusinessID:      perk.BusinessID,
			BusinessName:    perk.BusinessName,
			Type:            models.PerkType(perk.Type),
			Metadata:        perk.Metadata,
			CooldownSeconds: perk.CooldownSeconds,
			Enabled:         enabled,
		})
	}

	gram, err := h.svc.Create(requestContext(c), input)
	if err != nil {
		if errors.Is(err, store.ErrDuplicateGram) {
			response.Error(c, apperrors.New("DUPLICATE_GRAM",
				"A gram with this slug or tag already exists", http.StatusConflict))
			return
		}
		response.Error(c, apperrors.NewBadRequest(err.Error()))
		return
	}

	response.Success(c, http.StatusCreated, gram)
}

type claimRequest struct {
	OwnerID string `json:"owner_id" validate:"required"`
}

// POST /api/grams/:id/claim
func (h *GramHandler) Claim(c *gin.Context) {
	gramID := strings.TrimSpace(c.Param("id"))
	if gramID == "" {
		response.Error(c, apperrors.NewBadRequest("gram id is required"))
		return
	}

	var req claimRequest
	if !bindAndValidate(c, &req) {
		return
	}

	gram, err := h.svc.Claim(requestContext(c), gramID, req.OwnerID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrGramNotFound):
			response.Error(c, apperrors.ErrGramNotFound)
		case errors.Is(err, store.ErrGramAlreadyClaimed):
			response.Error(c, apperrors.ErrGramAlreadyClaimed)
		default:
			response.Error(c, apperrors.ErrInternalServer.WithInternal(err))
		}
		return
	}

	response.Success(c, http.StatusOK, gram)
}

// GET /api/grams/slug/:slug
func (h *GramHandler) GetBySlug(c *gin.Context) {
	slug := strings.TrimSpace(c.Param("slug"))
	if slug == "" {
		response.Error(c, apperrors.NewBadRequest("slug is required"))
		return
	}

	gram, err := h.svc.GetBySlug(requestContext(c), slug)
	if err != nil {
		if errors.Is(err, store.ErrGramNotFound) {
			response.Error(c, apperrors.ErrGramNotFound)
			return
		}
		response.Error(c, apperrors.ErrInternalServer.WithInternal(err))
		return
	}

	response.Success(c, http.StatusOK, gram)
}

// GET /api/grams/slug/:slug/qr
func (h *GramHandler) QRCode(c *gin.Context) {
	slug := strings.TrimSpace(c.Param("slug"))
	if slug == "" {
		response.Error(c, apperrors.NewBadRequest("slug is required"))
		return
	}

	gram, err := h.svc.GetBySlug(requestContext(c), slug)
	if err != nil {
		if errors.Is(err, store.ErrGramNotFound) {
			response.Error(c, apperrors.ErrGramNotFound)
			return
		}
		response.Error(c, apperrors.ErrInternalServer.WithInternal(err))
		return
	}

	url := fmt.Sprintf("%s/g/%s", h.publicURL, gram.Slug)
	png, err := qrcode.Encode(url, qrcode.Medium, 256)
	if err != nil {
		response.Error(c, apperrors.Wrap(err, "encode qr code"))
		return
	}

	c.Data(http.StatusOK, "image/png", png)
}
