package api

import (
	"github.com/gin-gonic/gin"

	"github.com/gramlabs/gramd/internal/handlers"
	"github.com/gramlabs/gramd/internal/middleware"
)

func registerGramRoutes(r *gin.Engine, gramHandler *handlers.GramHandler, perkHandler *handlers.PerkHandler, requireAuth gin.HandlerFunc, producerKey string) {
	if r == nil || gramHandler == nil {
		return
	}

	grams := r.Group("/api/grams")
	{
		// Producer workflow
		grams.POST("", middleware.ProducerKey(producerKey), gramHandler.Create)

		// Public landing page surface
		grams.GET("/slug/:slug", gramHandler.GetBySlug)
		grams.GET("/slug/:slug/qr", gramHandler.QRCode)

		// Claim-once ownership
		grams.POST("/:id/claim", gramHandler.Claim)

		// Vendor administration
		if perkHandler != nil {
			grams.PATCH("/:id/perks/:perkID/enabled", requireAuth, perkHandler.SetEnabled)
		}
	}
}
