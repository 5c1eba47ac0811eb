package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/gramlabs/gramd/pkg/response"
)

// Health returns a status payload useful for readiness checks, including
// database connectivity.
func Health(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		dbStatus := "ok"
		if db != nil {
			sqlDB, err := db.DB()
			if err != nil || sqlDB.PingContext(requestContext(c)) != nil {
				dbStatus = "unavailable"
			}
		}

		if dbStatus != "ok" {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"success":  false,
				"status":   "degraded",
				"database": dbStatus,
			})
			return
		}
		response.Success(c, http.StatusOK, gin.H{"status": "ok", "database": dbStatus})
	}
}
