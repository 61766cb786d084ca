package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/localrank/backend/config"
	"go.uber.org/zap"
)

// SetupRouter creates and configures the Gin router.
// metricsHandler is mounted at /metrics when not nil.
func SetupRouter(cfg *config.Config, handler *Handler, metricsHandler http.Handler, logger *zap.Logger) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(RecoveryMiddleware(logger))
	router.Use(LoggerMiddleware(logger))
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	// Health check endpoint
	router.GET("/health", handler.HealthCheck)
	if metricsHandler != nil {
		router.GET("/metrics", gin.WrapH(metricsHandler))
	}

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Uploads
		upload := v1.Group("", BodyLimitMiddleware(cfg.Server.MaxUploadBytes))
		{
			upload.POST("/process-csv", handler.ProcessCSV)
			upload.POST("/process-csv-stream", handler.ProcessCSVStream)
		}

		// Run history and downloads
		runs := v1.Group("/runs")
		{
			runs.GET("", handler.ListRuns)
			runs.GET("/:id", handler.GetRun)
			runs.GET("/:id/export", handler.ExportRun)
		}

		v1.GET("/sample.csv", handler.SampleCSV)
	}

	return router
}
