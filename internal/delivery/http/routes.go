package http

import (
	"github.com/gin-gonic/gin"

	"github.com/aishopping/backend/config"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(RecoveryMiddleware())
	router.Use(LoggerMiddleware())
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))
	router.Use(RateLimitMiddleware(cfg.RateLimit.PerIP))

	// Meta endpoints
	router.GET("/", handler.Root)
	router.GET("/health", handler.HealthCheck)
	router.GET("/version", handler.Version)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		v1.POST("/identify", handler.Identify)
		v1.GET("/offers", handler.Offers)
	}

	return router
}
