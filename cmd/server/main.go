package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/surya021104/bug-tracker/core/config"
	"github.com/surya021104/bug-tracker/internal/bootstrap"
	"github.com/surya021104/bug-tracker/internal/http/middleware"
	httprouter "github.com/surya021104/bug-tracker/internal/http/router"
	"github.com/surya021104/bug-tracker/internal/service"
)

func main() {
	fmt.Printf("%s\n", banner)
	ctx := context.Background()

	rt, err := bootstrap.Start(ctx, config.ServiceTypeServer)
	if err != nil {
		slog.ErrorContext(ctx, "failed to start", "error", err)
		os.Exit(1)
	}
	cfg := rt.Config

	if rt.Telemetry != nil {
		slog.InfoContext(ctx, "otel initialized", "endpoint", cfg.OTel.Endpoint)
	} else {
		slog.InfoContext(ctx, "otel disabled (no endpoint configured)")
	}
	slog.InfoContext(ctx, "bug tracker starting",
		"env", cfg.Env,
		"service", cfg.OTel.ServiceName,
		"storage", rt.Backend.Name())

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := setupRouter(cfg, rt.Services, rt.Backend.Name())
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// Enrichment may take up to its own timeout before the response is written.
		WriteTimeout: cfg.Enrichment.Timeout + 15*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.InfoContext(ctx, "http server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.ErrorContext(ctx, "http server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.InfoContext(ctx, "shutting down...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.ErrorContext(shutdownCtx, "http server shutdown error", "error", err)
	}
	rt.Close(shutdownCtx)

	slog.InfoContext(shutdownCtx, "shutdown complete")
}

func setupRouter(cfg config.Config, services *service.Services, storage string) *gin.Engine {
	router := gin.New()

	// Order matters: OTel creates span → Recovery catches panics → Logger logs with trace context
	if cfg.OTel.Enabled() {
		router.Use(otelgin.Middleware(cfg.OTel.ServiceName))
	}
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())

	httprouter.SetupRoutes(router, services, httprouter.RouterConfig{
		AdminAPIKey:    cfg.AdminAPIKey,
		StorageBackend: storage,
	})

	return router
}

const banner = `
 _                      _                  _
| |__  _   _  __ _     | |_ _ __ __ _  ___| | _____ _ __
| '_ \| | | |/ _' |____| __| '__/ _' |/ __| |/ / _ \ '__|
| |_) | |_| | (_| |____| |_| | | (_| | (__|   <  __/ |
|_.__/ \__,_|\__, |     \__|_|  \__,_|\___|_|\_\___|_|
             |___/                                server
`
