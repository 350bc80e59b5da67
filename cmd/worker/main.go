package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/surya021104/bug-tracker/core/config"
	"github.com/surya021104/bug-tracker/internal/bootstrap"
	"github.com/surya021104/bug-tracker/internal/queue"
	"github.com/surya021104/bug-tracker/internal/sink"
	"github.com/surya021104/bug-tracker/internal/worker"
)

func main() {
	fmt.Printf("%s\n", banner)
	ctx := context.Background()

	rt, err := bootstrap.Start(ctx, config.ServiceTypeWorker)
	if err != nil {
		slog.ErrorContext(ctx, "failed to start", "error", err)
		os.Exit(1)
	}
	cfg := rt.Config
	defer rt.Close(context.Background())

	if rt.Redis == nil {
		slog.ErrorContext(ctx, "worker requires REDIS_URL")
		os.Exit(1)
	}

	slog.InfoContext(ctx, "bug tracker worker starting",
		"env", cfg.Env,
		"consumer_group", cfg.Notify.Group,
		"consumer_name", cfg.Notify.Consumer)

	consumer, err := queue.NewRedisConsumer(rt.Redis, queue.ConsumerConfig{
		Stream:       cfg.Notify.Stream,
		Group:        cfg.Notify.Group,
		Consumer:     cfg.Notify.Consumer,
		DLQStream:    cfg.Notify.DLQStream,
		BatchSize:    10,
		Block:        5 * time.Second,
		MaxAttempts:  cfg.Notify.MaxAttempts,
		RequeueDelay: cfg.Notify.RequeueDelay,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to create consumer", "error", err)
		os.Exit(1)
	}

	sinks := []sink.Sink{sink.NewWebhookSink(rt.Backend.APIKeys(), cfg.Webhook)}
	if cfg.GitLab.Enabled() {
		gitlabSink, err := sink.NewGitLabSink(cfg.GitLab)
		if err != nil {
			slog.ErrorContext(ctx, "failed to create gitlab sink", "error", err)
			os.Exit(1)
		}
		sinks = append(sinks, gitlabSink)
		slog.InfoContext(ctx, "gitlab export enabled", "project_id", cfg.GitLab.ProjectID)
	}

	w := worker.New(consumer, worker.NewProcessor(sinks...), worker.Config{
		MaxAttempts: cfg.Notify.MaxAttempts,
	})

	reclaimer := worker.NewRedisReclaimer(rt.Redis, worker.RedisReclaimerConfig{
		Stream:    cfg.Notify.Stream,
		Group:     cfg.Notify.Group,
		Consumer:  cfg.Notify.Consumer + "-reclaimer",
		MinIdle:   5 * time.Minute,
		Interval:  1 * time.Minute,
		BatchSize: 10,
	}, consumer, w.Handle)

	runCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error { return w.Run(gctx) })
	g.Go(func() error { return reclaimer.Run(gctx) })

	slog.InfoContext(ctx, "worker initialized and running", "sinks", len(sinks))

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		slog.ErrorContext(ctx, "worker stopped with error", "error", err)
	}

	slog.InfoContext(ctx, "worker shutdown complete")
}

const banner = `
 _                      _                  _
| |__  _   _  __ _     | |_ _ __ __ _  ___| | _____ _ __
| '_ \| | | |/ _' |____| __| '__/ _' |/ __| |/ / _ \ '__|
| |_) | |_| | (_| |____| |_| | | (_| | (__|   <  __/ |
|_.__/ \__,_|\__, |     \__|_|  \__,_|\___|_|\_\___|_|
             |___/                                worker
`
