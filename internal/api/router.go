package api

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/gramlabs/gramd/internal/app"
	iauth "github.com/gramlabs/gramd/internal/auth"
	"github.com/gramlabs/gramd/internal/catalog"
	"github.com/gramlabs/gramd/internal/handlers"
	"github.com/gramlabs/gramd/internal/middleware"
	"github.com/gramlabs/gramd/internal/services"
	"github.com/gramlabs/gramd/internal/store"
)

// NewRouter builds the Gin engine, wires middleware and registers routes.
func NewRouter(db *gorm.DB, jwt *iauth.JWTService, cfg *app.Config, sessions *iauth.SessionService) (*gin.Engine, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle must be provided")
	}
	if jwt == nil {
		return nil, fmt.Errorf("jwt service must be provided")
	}
	if sessions == nil {
		return nil, fmt.Errorf("session service must be provided")
	}
	if cfg == nil {
		return nil, fmt.Errorf("config must be provided")
	}

	identity, err := store.NewGormStore(db)
	if err != nil {
		return nil, err
	}

	guard, err := iauth.NewVendorAuthService(db, iauth.VendorAuthConfig{})
	if err != nil {
		return nil, err
	}

	validation, err := services.NewValidationService(identity, nil)
	if err != nil {
		return nil, err
	}
	approval, err := services.NewApprovalService(identity, nil)
	if err != nil {
		return nil, err
	}

	gramOpts := []services.GramServiceOption{}
	if cfg.Catalog.Notion.Enabled {
		mirror, err := catalog.NewNotionMirror(catalog.NotionConfig{
			Token:      cfg.Catalog.Notion.Token,
			DatabaseID: cfg.Catalog.Notion.DatabaseID,
		})
		if err != nil {
			return nil, fmt.Errorf("build notion mirror: %w", err)
		}
		gramOpts = append(gramOpts, services.WithMirror(mirror))
	}
	if cfg.Catalog.Shopify.Enabled {
		shopify, err := catalog.NewShopifyClient(catalog.ShopifyConfig{
			ShopDomain:  cfg.Catalog.Shopify.ShopDomain,
			AccessToken: cfg.Catalog.Shopify.AccessToken,
		})
		if err != nil {
			return nil, fmt.Errorf("build shopify client: %w", err)
		}
		gramOpts = append(gramOpts, services.WithProductChecker(shopify))
	}

	grams, err := services.NewGramService(identity, gramOpts...)
	if err != nil {
		return nil, err
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS())
	// Basic rate limiting: 100 requests/minute per IP+path
	r.Use(middleware.RateLimit(100, time.Minute))

	// Health endpoint (public)
	r.GET("/health", handlers.Health(db))

	authHandler := handlers.NewAuthHandler(db, guard, sessions)
	redemptionHandler := handlers.NewRedemptionHandler(validation, approval)
	gramHandler := handlers.NewGramHandler(grams, cfg.Server.PublicURL)
	perkHandler := handlers.NewPerkHandler(grams)

	requireAuth := middleware.Auth(jwt)

	registerVendorRoutes(r, authHandler, requireAuth)
	registerRedemptionRoutes(r, redemptionHandler, requireAuth)
	registerGramRoutes(r, gramHandler, perkHandler, requireAuth, cfg.Auth.ProducerKey)

	// Metrics endpoint
	if cfg.Monitoring.Prometheus.Enabled {
		r.GET(cfg.Monitoring.Prometheus.Endpoint, gin.WrapH(promhttp.Handler()))
	}

	// NotFound fallback
	r.NoRoute(middleware.NotFoundHandler)

	return r, nil
}
