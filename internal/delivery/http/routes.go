package http

import (
	"github.com/gin-gonic/gin"
	"github.com/productscan/backend/config"
	"github.com/productscan/backend/internal/infrastructure/telemetry"
)

// SetupRouter creates and configures the Gin router. A nil metrics skips /metrics.
func SetupRouter(cfg *config.Config, handler *Handler, metrics *telemetry.Metrics) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(RecoveryMiddleware())
	router.Use(RequestIDMiddleware())
	router.Use(LoggerMiddleware())
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))
	router.Use(BodySizeLimitMiddleware(cfg.Server.MaxUploadBytes))

	router.GET("/health", handler.HealthCheck)

	if metrics != nil {
		router.GET("/metrics", gin.WrapH(metrics.Handler()))
	}

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		v1.POST("/scan", handler.ScanImage)
		v1.GET("/products/:barcode", handler.GetProduct)
	}

	return router
}
