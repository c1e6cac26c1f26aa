package api

import (
	"github.com/gin-gonic/gin"
	"github.com/use-agent/pagecast/api/handler"
	"github.com/use-agent/pagecast/api/middleware"
	"github.com/use-agent/pagecast/config"
	"github.com/use-agent/pagecast/logbuf"
)

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → Logger
//	API:     Auth (if enabled) → RateLimit
//
// Health stays outside auth so monitoring probes always work.
func NewRouter(svc handler.Service, log *logbuf.Logger, cfg *config.Config) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())

	v1 := r.Group("/api/v1")
	v1.GET("/health", handler.Health(svc))

	protected := v1.Group("")
	if cfg.Auth.Enabled {
		protected.Use(middleware.Auth(cfg.Auth.APIKeys))
	}
	protected.Use(middleware.RateLimit(cfg.RateLimit))

	protected.POST("/extract", handler.Extract(svc))
	protected.POST("/youtube", handler.YouTube(svc))
	protected.POST("/generate", handler.Generate(svc))
	protected.GET("/models", handler.Models())

	protected.GET("/logs", handler.Logs(log))
	protected.DELETE("/logs", handler.ClearLogs(log))

	return r
}
