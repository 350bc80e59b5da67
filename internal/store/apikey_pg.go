package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/surya021104/bug-tracker/core/db"
	"github.com/surya021104/bug-tracker/internal/model"
)

const apiKeyColumns = `id, key, preview, app_id, app_name, environment, is_active, rate_limit,
	owner, webhook_url, created_at, last_used_at`

type pgAPIKeyStore struct {
	q db.Querier
}

func (s *pgAPIKeyStore) GetByKey(ctx context.Context, key string) (*model.APIKey, error) {
	return scanAPIKey(s.q.QueryRow(ctx, `SELECT `+apiKeyColumns+` FROM api_keys WHERE key = $1`, key))
}

func (s *pgAPIKeyStore) GetByID(ctx context.Context, id int64) (*model.APIKey, error) {
	return scanAPIKey(s.q.QueryRow(ctx, `SELECT `+apiKeyColumns+` FROM api_keys WHERE id = $1`, id))
}

func (s *pgAPIKeyStore) GetByAppID(ctx context.Context, appID string) (*model.APIKey, error) {
	return scanAPIKey(s.q.QueryRow(ctx, `SELECT `+apiKeyColumns+` FROM api_keys
		WHERE app_id = $1 AND is_active
		ORDER BY created_at ASC
		LIMIT 1`, appID))
}

func (s *pgAPIKeyStore) Create(ctx context.Context, key *model.APIKey) error {
	_, err := s.q.Exec(ctx, `INSERT INTO api_keys (`+apiKeyColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		key.ID, key.Key, key.Preview, key.AppID, key.AppName, key.Environment, key.IsActive,
		key.RateLimit, key.Owner, key.WebhookURL, key.CreatedAt, key.LastUsedAt)
	if err != nil {
		return fmt.Errorf("inserting api key: %w", mapPgError(err))
	}
	return nil
}

func (s *pgAPIKeyStore) List(ctx context.Context) ([]model.APIKey, error) {
	rows, err := s.q.Query(ctx, `SELECT `+apiKeyColumns+` FROM api_keys ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing api keys: %w", err)
	}
	defer rows.Close()

	var out []model.APIKey
	for rows.Next() {
		k, err := scanAPIKey(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *k)
	}
	return out, rows.Err()
}

func (s *pgAPIKeyStore) SetActive(ctx context.Context, id int64, active bool) error {
	return s.exec(ctx, `UPDATE api_keys SET is_active = $2 WHERE id = $1`, id, active)
}

func (s *pgAPIKeyStore) Touch(ctx context.Context, id int64, at time.Time) error {
	return s.exec(ctx, `UPDATE api_keys SET last_used_at = $2 WHERE id = $1`, id, at)
}

func (s *pgAPIKeyStore) Delete(ctx context.Context, id int64) error {
	return s.exec(ctx, `DELETE FROM api_keys WHERE id = $1`, id)
}

func (s *pgAPIKeyStore) exec(ctx context.Context, sql string, args ...any) error {
	tag, err := s.q.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanAPIKey(row pgx.Row) (*model.APIKey, error) {
	var k model.APIKey
	err := row.Scan(&k.ID, &k.Key, &k.Preview, &k.AppID, &k.AppName, &k.Environment, &k.IsActive,
		&k.RateLimit, &k.Owner, &k.WebhookURL, &k.CreatedAt, &k.LastUsedAt)
	if err != nil {
		return nil, mapPgError(err)
	}
	return &k, nil
}
