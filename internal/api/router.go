package api

import (
	"github.com/gin-gonic/gin"
	"github.com/timmy/trendharvest/internal/api/handler"
	"github.com/timmy/trendharvest/internal/api/middleware"
	"github.com/timmy/trendharvest/internal/config"
	"github.com/timmy/trendharvest/internal/logger"
)

// SetupRouter configures the Gin router with all routes
func SetupRouter(svc handler.TrendService, cfg *config.ServerConfig, log *logger.Logger) *gin.Engine {
	switch cfg.Mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	r := gin.New()

	r.Use(middleware.LoggerMiddleware(log))
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins:  cfg.CORS.AllowedOrigins,
		AllowAllOrigins: cfg.CORS.AllowAllOrigins,
	}))

	healthHandler := handler.NewHealthHandler(svc)
	trendsHandler := handler.NewTrendsHandler(svc)

	r.GET("/health", healthHandler.Health)

	trends := r.Group("/api/trends")
	{
		trends.POST("/analyze", trendsHandler.Analyze)
		trends.GET("/runs/:id/status", trendsHandler.Status)
		trends.GET("/runs/:id/results", trendsHandler.Results)
		trends.GET("/categories", trendsHandler.Categories)
		trends.GET("/health", healthHandler.Health)
	}

	return r
}
