package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/surya021104/bug-tracker/internal/http/handler"
	"github.com/surya021104/bug-tracker/internal/http/middleware"
	"github.com/surya021104/bug-tracker/internal/service"
)

type RouterConfig struct {
	AdminAPIKey    string
	StorageBackend string
}

func SetupRoutes(router *gin.Engine, services *service.Services, cfg RouterConfig) {
	started := time.Now()
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"storage":   cfg.StorageBackend,
			"uptime":    time.Since(started).Seconds(),
			"timestamp": time.Now().UTC(),
		})
	})

	api := router.Group("/api")
	{
		BugRouter(api.Group("/bugs"),
			handler.NewIngestHandler(services.Ingest()),
			handler.NewReportHandler(services.Reports()))

		IssueRouter(api.Group("/issues"), handler.NewIssueHandler(services.Issues()))

		keys := api.Group("/keys")
		keys.Use(middleware.RequireAdminAPIKey(cfg.AdminAPIKey))
		APIKeyRouter(keys, handler.NewAPIKeyHandler(services.APIKeys()))
	}
}
