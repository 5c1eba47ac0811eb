package api

import (
	"github.com/gin-gonic/gin"

	"github.com/gramlabs/gramd/internal/handlers"
)

func registerRedemptionRoutes(r *gin.Engine, handler *handlers.RedemptionHandler, requireAuth gin.HandlerFunc) {
	if r == nil || handler == nil {
		return
	}

	redemptions := r.Group("/api/redemptions")
	redemptions.Use(requireAuth)
	{
		redemptions.POST("/validate", handler.Validate)
		redemptions.POST("/approve", handler.Approve)
	}
}
