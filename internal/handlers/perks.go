package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/gramlabs/gramd/internal/middleware"
	"github.com/gramlabs/gramd/internal/services"
	"github.com/gramlabs/gramd/internal/store"
	apperrors "github.com/gramlabs/gramd/pkg/errors"
	"github.com/gramlabs/gramd/pkg/response"
)

// PerkHandler covers vendor administration of perks.
type PerkHandler struct {
	svc *services.GramService
}

func NewPerkHandler(svc *services.GramService) *PerkHandler {
	return &PerkHandler{svc: svc}
}

type setEnabledRequest struct {
	Enabled *bool `json:"enabled" validate:"required"`
}

// PATCH /api/grams/:id/perks/:perkID/enabled
func (h *PerkHandler) SetEnabled(c *gin.Context) {
	businessID := strings.TrimSpace(c.GetString(middleware.CtxBusinessIDKey))
	if businessID == "" {
		response.Error(c, apperrors.ErrUnauthorized)
		return
	}

	gramID := strings.TrimSpace(c.Param("id"))
	perkID := strings.TrimSpace(c.Param("perkID"))
	if gramID == "" || perkID == "" {
		response.Error(c, apperrors.NewBadRequest("gram id and perk id are required"))
		return
	}

	var req setEnabledRequest
	if !bindAndValidate(c, &req) {
		return
	}

	perk, err := h.svc.SetPerkEnabled(requestContext(c), gramID, perkID, businessID, *req.Enabled)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrGramNotFound):
			response.Error(c, apperrors.ErrGramNotFound)
		case errors.Is(err, services.ErrPerkNotFound), errors.Is(err, store.ErrPerkNotFound):
			response.Error(c, apperrors.ErrPerkNotFound)
		case errors.Is(err, services.ErrPerkUnauthorized):
			response.Error(c, apperrors.ErrPerkUnauthorized)
		default:
			response.Error(c, apperrors.ErrInternalServer.WithInternal(err))
		}
		return
	}

	response.Success(c, http.StatusOK, perk)
}
