// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"

	"nedlog/internal/domain/session"
	"nedlog/internal/infrastructure/http/v1/handlers"
	"nedlog/internal/infrastructure/http/v1/middleware"
	"nedlog/pkg/logger"
)

// RouterConfig holds router dependencies.
type RouterConfig struct {
	// Logger for request logging
	Logger *logger.Logger

	// JWTValidator for token validation
	JWTValidator middleware.JWTValidator

	// Sessions serves analysis sessions and their exports
	Sessions *session.Service

	// MaterialRequests runs the bulk material request action of the order list
	MaterialRequests handlers.MaterialRequestCreator

	// HealthChecks are probed by /health/ready
	HealthChecks map[string]handlers.Pinger

	// AllowedOrigins enables CORS for the listed UI origins; empty disables CORS
	AllowedOrigins []string

	Version string
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	if cfg.Logger == nil {
		cfg.Logger = logger.Default()
	}
	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	if len(cfg.AllowedOrigins) > 0 {
		router.Use(cors.New(corsConfig(cfg.AllowedOrigins)))
	}
	router.Use(gzip.Gzip(gzip.DefaultCompression))
	router.Use(middleware.ErrorHandler())

	healthHandler := handlers.NewHealthHandler(cfg.Version, cfg.HealthChecks)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	v1 := router.Group("/api/v1")
	protected := v1.Group("")
	protected.Use(middleware.Auth(cfg.JWTValidator))
	registerAnalysisRoutes(protected, cfg)

	return router
}

func corsConfig(origins []string) cors.Config {
	c := cors.DefaultConfig()
	c.AllowOrigins = origins
	c.AddAllowMethods("GET", "POST", "PUT", "DELETE", "OPTIONS")
	c.AddAllowHeaders("Origin", "Content-Type", "Authorization", middleware.HeaderRequestID)
	c.AddExposeHeaders("Content-Length", "Content-Disposition", middleware.HeaderRequestID, middleware.HeaderTraceID)
	c.AllowCredentials = true
	return c
}

// registerAnalysisRoutes registers the column registry, sessions and the list bulk action.
func registerAnalysisRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	group := rg.Group("/analysis")
	base := handlers.NewBaseHandler()

	meta := handlers.NewMetadataHandler(base, cfg.Sessions.Registry())
	RegisterColumnRoutes(group.Group("/columns"), meta)

	analysisHandler := handlers.NewAnalysisHandler(base, cfg.Sessions, cfg.MaterialRequests)
	RegisterSessionRoutes(group.Group("/sessions"), analysisHandler)

	group.POST("/material-requests", requireMaterialRequestCreate, analysisHandler.CreateMaterialRequests)
}
