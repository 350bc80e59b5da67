package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/surya021104/bug-tracker/core/db"
)

const pgUniqueViolation = "23505"

// PostgresBackend stores issues and keys in postgres through pgx.
type PostgresBackend struct {
	db *db.DB
}

func NewPostgres(database *db.DB) *PostgresBackend {
	return &PostgresBackend{db: database}
}

func (b *PostgresBackend) Issues() IssueStore   { return &pgIssueStore{q: b.db.Querier()} }
func (b *PostgresBackend) APIKeys() APIKeyStore { return &pgAPIKeyStore{q: b.db.Querier()} }
func (b *PostgresBackend) Name() string         { return "postgres" }
func (b *PostgresBackend) Close()               { b.db.Close() }

func (b *PostgresBackend) WithTx(ctx context.Context, fn func(stores Provider) error) error {
	return b.db.WithTx(ctx, func(q db.Querier) error {
		return fn(pgProvider{q: q})
	})
}

type pgProvider struct {
	q db.Querier
}

func (p pgProvider) Issues() IssueStore   { return &pgIssueStore{q: p.q} }
func (p pgProvider) APIKeys() APIKeyStore { return &pgAPIKeyStore{q: p.q} }

func mapPgError(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return ErrConflict
	}
	return err
}
