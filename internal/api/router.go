package api

import (
	"github.com/gin-gonic/gin"

	"glucose-levels-backend/config"
	"glucose-levels-backend/internal/mw"
	"glucose-levels-backend/internal/service"
	"glucose-levels-backend/internal/store"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(cfg config.ServerConfig, s store.Store, levels *service.LevelService) *gin.Engine {
	r := gin.Default()
	if cfg.RequestIPHeader != "" {
		r.TrustedPlatform = cfg.RequestIPHeader
	}

	handler := NewHandler(s, levels)

	r.GET("/healthz", handler.Health)

	limiter := mw.NewIPRateLimiter(mw.PerMinute(cfg.RateLimitPerMinute), cfg.RateLimitBurst)

	api := r.Group("/api/v1")
	api.Use(mw.RateLimiter(limiter))
	{
		api.GET("/levels", handler.ListLevels)
		api.POST("/levels", handler.CreateLevel)
		api.GET("/levels/:id", handler.GetLevel)
	}

	return r
}
