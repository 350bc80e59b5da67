package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/surya021104/bug-tracker/common/otel"
	"github.com/surya021104/bug-tracker/internal/model"
)

// Producer publishes issue notifications for downstream consumers.
type Producer interface {
	Publish(ctx context.Context, n model.Notification) error
	Close() error
}

type redisProducer struct {
	client *redis.Client
	stream string
	logger *slog.Logger
}

func NewRedisProducer(client *redis.Client, stream string, logger *slog.Logger) Producer {
	if logger == nil {
		logger = slog.Default()
	}
	return &redisProducer{
		client: client,
		stream: stream,
		logger: logger,
	}
}

func (p *redisProducer) Publish(ctx context.Context, n model.Notification) error {
	values, err := notificationValues(n, 1)
	if err != nil {
		return err
	}
	if traceID := otel.TraceID(ctx); traceID != "" {
		values["trace_id"] = traceID
	}

	if err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: values,
	}).Err(); err != nil {
		return fmt.Errorf("publish notification: %w", err)
	}

	p.logger.InfoContext(ctx, "notification published", "kind", n.Kind, "bug_id", n.BugID)
	return nil
}

func (p *redisProducer) Close() error {
	return p.client.Close()
}

type logProducer struct {
	logger *slog.Logger
}

// NewLogProducer records notifications in the log only. Used when no stream
// is configured.
func NewLogProducer(logger *slog.Logger) Producer {
	if logger == nil {
		logger = slog.Default()
	}
	return &logProducer{logger: logger}
}

func (p *logProducer) Publish(ctx context.Context, n model.Notification) error {
	p.logger.InfoContext(ctx, "notification", "kind", n.Kind, "bug_id", n.BugID, "app_id", n.AppID)
	return nil
}

func (p *logProducer) Close() error { return nil }

func notificationValues(n model.Notification, attempt int) (map[string]any, error) {
	if attempt <= 0 {
		attempt = 1
	}
	values := map[string]any{
		"kind":    string(n.Kind),
		"bug_id":  n.BugID,
		"attempt": attempt,
	}
	if n.AppID != "" {
		values["app_id"] = n.AppID
	}
	if n.Issue != nil {
		payload, err := json.Marshal(n.Issue)
		if err != nil {
			return nil, fmt.Errorf("encoding notification payload: %w", err)
		}
		values["payload"] = string(payload)
	}
	return values, nil
}
