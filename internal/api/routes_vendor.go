package api

import (
	"github.com/gin-gonic/gin"

	"github.com/gramlabs/gramd/internal/handlers"
)

func registerVendorRoutes(r *gin.Engine, handler *handlers.AuthHandler, requireAuth gin.HandlerFunc) {
	if r == nil || handler == nil {
		return
	}

	vendor := r.Group("/api/vendor")
	{
		vendor.POST("/login", handler.Login)
		vendor.POST("/refresh", handler.Refresh)
		vendor.POST("/logout", requireAuth, handler.Logout)
		vendor.GET("/me", requireAuth, handler.Me)
	}
}
