// Package bootstrap wires the process-wide dependencies shared by the
// server, the worker and bugctl.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/redis/go-redis/v9"

	"github.com/surya021104/bug-tracker/common/id"
	"github.com/surya021104/bug-tracker/common/llm"
	"github.com/surya021104/bug-tracker/common/logger"
	"github.com/surya021104/bug-tracker/common/otel"
	"github.com/surya021104/bug-tracker/core/config"
	"github.com/surya021104/bug-tracker/internal/enrich"
	"github.com/surya021104/bug-tracker/internal/queue"
	"github.com/surya021104/bug-tracker/internal/service"
	"github.com/surya021104/bug-tracker/internal/store"
)

type Runtime struct {
	Config    config.Config
	Telemetry *otel.Telemetry
	Backend   store.Backend
	Redis     *redis.Client // nil when notifications are log-only
	Producer  queue.Producer
	Services  *service.Services
}

// Start loads config and brings up telemetry, logging, ids, storage and the
// notification producer, in that order.
func Start(ctx context.Context, serviceType config.ServiceType) (*Runtime, error) {
	cfg, err := config.Load(serviceType)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	// OTel must init before logger (logger uses OTel provider when enabled)
	telemetry, err := otel.Setup(ctx, cfg.OTel)
	if err != nil {
		_, _ = os.Stderr.WriteString("failed to initialize otel: " + err.Error() + "\n")
		return nil, fmt.Errorf("initializing otel: %w", err)
	}
	logger.Setup(cfg)

	if err := id.Init(cfg.NodeID); err != nil {
		return nil, fmt.Errorf("initializing id generator: %w", err)
	}

	rt := &Runtime{Config: cfg, Telemetry: telemetry}

	rt.Backend, err = store.Open(ctx, cfg)
	if err != nil {
		rt.Close(ctx)
		return nil, fmt.Errorf("opening storage: %w", err)
	}

	if cfg.Notify.Enabled() {
		rt.Redis, err = NewRedis(ctx, cfg.Notify.RedisURL)
		if err != nil {
			rt.Close(ctx)
			return nil, err
		}
		rt.Producer = queue.NewRedisProducer(rt.Redis, cfg.Notify.Stream, slog.Default())
		slog.InfoContext(ctx, "notifications publish to redis", "stream", cfg.Notify.Stream)
	} else {
		rt.Producer = queue.NewLogProducer(slog.Default())
		slog.InfoContext(ctx, "notifications are log-only (REDIS_URL not set)")
	}

	rt.Services = service.NewServices(rt.Backend, rt.Producer, NewComposer(ctx, cfg))
	return rt, nil
}

// NewRedis parses url and checks the connection.
func NewRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}
	return client, nil
}

// NewComposer returns an AI-backed composer when a report LLM is configured
// and a fallback-only composer otherwise.
func NewComposer(ctx context.Context, cfg config.Config) *enrich.Composer {
	if !cfg.ReportLLM.Enabled() {
		slog.InfoContext(ctx, "report llm disabled, using deterministic enrichment")
		return enrich.NewComposer(nil, cfg.Enrichment.Timeout)
	}

	client, err := llm.New(llm.Config{
		Provider:  cfg.ReportLLM.Provider,
		APIKey:    cfg.ReportLLM.APIKey,
		BaseURL:   cfg.ReportLLM.BaseURL,
		Model:     cfg.ReportLLM.Model,
		MaxTokens: cfg.ReportLLM.MaxTokens,
	})
	if err != nil {
		slog.WarnContext(ctx, "report llm unavailable, using deterministic enrichment", "error", err)
		return enrich.NewComposer(nil, cfg.Enrichment.Timeout)
	}

	slog.InfoContext(ctx, "report llm enabled", "provider", cfg.ReportLLM.Provider, "model", client.Model())
	return enrich.NewComposer(client, cfg.Enrichment.Timeout)
}

// Close releases everything Start opened. Safe on a partial Runtime.
func (r *Runtime) Close(ctx context.Context) {
	var errs []error
	if r.Producer != nil {
		// Closing the redis producer closes r.Redis as well.
		errs = append(errs, r.Producer.Close())
	} else if r.Redis != nil {
		errs = append(errs, r.Redis.Close())
	}
	if r.Backend != nil {
		r.Backend.Close()
	}
	if r.Telemetry != nil {
		errs = append(errs, r.Telemetry.Shutdown(ctx))
	}
	if err := errors.Join(errs...); err != nil {
		slog.ErrorContext(ctx, "shutdown error", "error", err)
	}
}
