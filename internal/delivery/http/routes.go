package http

import (
	"github.com/gin-gonic/gin"
	"github.com/greenscope/backend/config"
	"go.uber.org/zap"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler, logger *zap.Logger) *gin.Engine {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()

	// Global middleware
	router.Use(RecoveryMiddleware(logger))
	router.Use(LoggerMiddleware(logger.Named("access")))
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	router.GET("/health", handler.HealthCheck)

	v1 := router.Group("/api/v1")
	v1.Use(RateLimitMiddleware(cfg.RateLimit.PerIP))
	{
		v1.GET("/products/:barcode", handler.GetProduct)

		scans := v1.Group("/scans")
		{
			scans.POST("", handler.StartScan)
			scans.GET("/:barcode", handler.GetScan)
		}

		v1.GET("/score", handler.ComputeScore)

		conversations := v1.Group("/conversations/:id")
		{
			conversations.GET("/messages", handler.ListMessages)
			conversations.POST("/messages", handler.PostMessage)
		}
	}

	return router
}
