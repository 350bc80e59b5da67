package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/surya021104/bug-tracker/common/arangodb"
	"github.com/surya021104/bug-tracker/core/config"
	"github.com/surya021104/bug-tracker/core/db"
)

// Open connects the configured backend. When the durable backend cannot be
// reached and Storage.FallbackMemory is set, it degrades to memory and logs a
// warning instead of failing.
func Open(ctx context.Context, cfg config.Config) (Backend, error) {
	backend, err := openDurable(ctx, cfg)
	if err == nil {
		slog.InfoContext(ctx, "storage backend ready", "backend", backend.Name())
		return backend, nil
	}
	if !cfg.Storage.FallbackMemory {
		return nil, err
	}

	slog.WarnContext(ctx, "durable storage unavailable, falling back to in-memory store",
		"backend", cfg.Storage.Backend,
		"error", err)
	return NewMemory(), nil
}

func openDurable(ctx context.Context, cfg config.Config) (Backend, error) {
	switch cfg.Storage.Backend {
	case config.BackendMemory:
		return NewMemory(), nil

	case config.BackendArangoDB:
		client, err := arangodb.New(ctx, arangodb.Config{
			URL:      cfg.ArangoDB.URL,
			Username: cfg.ArangoDB.Username,
			Password: cfg.ArangoDB.Password,
			Database: cfg.ArangoDB.Database,
		})
		if err != nil {
			return nil, fmt.Errorf("connecting to arangodb: %w", err)
		}
		return NewArango(ctx, client)

	default:
		database, err := db.New(ctx, cfg.DB)
		if err != nil {
			return nil, fmt.Errorf("connecting to database: %w", err)
		}
		if err := database.Migrate(ctx); err != nil {
			database.Close()
			return nil, fmt.Errorf("migrating database: %w", err)
		}
		return NewPostgres(database), nil
	}
}
