package http

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/foodcart/backend/config"
	"github.com/foodcart/backend/internal/metrics"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler, logger *slog.Logger) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(RecoveryMiddleware(logger))
	router.Use(RequestIDMiddleware())
	router.Use(LoggerMiddleware(logger))
	router.Use(MetricsMiddleware())
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	router.GET("/health", handler.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})))

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		dispatch := v1.Group("/dispatch")
		{
			dispatch.GET("/orders", handler.DispatchOrders)
		}

		catalog := v1.Group("/catalog")
		{
			catalog.GET("/availability", handler.Availability)
			catalog.GET("/restaurants", handler.Restaurants)
		}

		locations := v1.Group("/locations")
		{
			locations.GET("/resolve", handler.ResolveLocation)
		}
	}

	return router
}
