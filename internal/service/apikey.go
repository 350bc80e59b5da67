package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/surya021104/bug-tracker/common/id"
	"github.com/surya021104/bug-tracker/common/logger"
	"github.com/surya021104/bug-tracker/internal/model"
	"github.com/surya021104/bug-tracker/internal/store"
)

const rateWindow = time.Hour

// DefaultTenant is stamped on signals ingested without an API key.
var DefaultTenant = model.AppMeta{AppID: "default", AppName: "Legacy", Environment: "unknown"}

type GenerateKeyParams struct {
	AppName     string
	Environment string
	RateLimit   int // 0 selects the environment default
	Owner       string
	WebhookURL  string
}

// GeneratedKey carries the full key. It is only ever returned here.
type GeneratedKey struct {
	Key    string
	APIKey *model.APIKey
}

// KeyUsage is a key with its issue count over the trailing hour.
type KeyUsage struct {
	model.APIKey
	CurrentUsage int64 `json:"currentUsage"`
	UsagePercent int   `json:"usagePercent"`
}

type APIKeyService interface {
	// Admit resolves a key to its tenant and enforces the hourly quota.
	// An empty key maps to DefaultTenant.
	Admit(ctx context.Context, key string) (model.AppMeta, error)
	Generate(ctx context.Context, params GenerateKeyParams) (*GeneratedKey, error)
	List(ctx context.Context) ([]KeyUsage, error)
	Toggle(ctx context.Context, keyID int64) (*model.APIKey, error)
	Delete(ctx context.Context, keyID int64) error
}

type apiKeyService struct {
	stores store.Provider
	now    func() time.Time
}

func NewAPIKeyService(stores store.Provider, now func() time.Time) APIKeyService {
	if now == nil {
		now = time.Now
	}
	return &apiKeyService{stores: stores, now: now}
}

func (s *apiKeyService) Admit(ctx context.Context, key string) (model.AppMeta, error) {
	if key == "" {
		return DefaultTenant, nil
	}

	k, err := s.stores.APIKeys().GetByKey(ctx, key)
	if errors.Is(err, store.ErrNotFound) {
		return model.AppMeta{}, ErrInvalidAPIKey
	}
	if err != nil {
		return model.AppMeta{}, fmt.Errorf("fetching api key: %w", err)
	}
	if !k.IsActive {
		return model.AppMeta{}, ErrInvalidAPIKey
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{AppID: logger.Ptr(k.AppID)})

	now := s.now()
	usage, err := s.stores.Issues().CountSince(ctx, k.AppID, now.Add(-rateWindow))
	if err != nil {
		return model.AppMeta{}, fmt.Errorf("counting usage: %w", err)
	}
	if usage >= int64(k.RateLimit) {
		slog.WarnContext(ctx, "rate limit exceeded", "usage", usage, "rate_limit", k.RateLimit)
		return model.AppMeta{}, ErrRateLimited
	}

	if err := s.stores.APIKeys().Touch(ctx, k.ID, now); err != nil {
		slog.WarnContext(ctx, "failed to record api key use", "error", err)
	}

	return model.AppMeta{AppID: k.AppID, AppName: k.AppName, Environment: k.Environment}, nil
}

var whitespaceRe = regexp.MustCompile(`\s+`)

func (s *apiKeyService) Generate(ctx context.Context, params GenerateKeyParams) (*GeneratedKey, error) {
	appName := strings.TrimSpace(params.AppName)
	if appName == "" {
		return nil, ErrAppNameRequired
	}
	if !model.ValidEnvironment(params.Environment) {
		return nil, ErrInvalidEnvironment
	}

	rateLimit := params.RateLimit
	if rateLimit <= 0 {
		rateLimit = model.DefaultRateLimit(params.Environment)
	}

	now := s.now()
	raw := id.NewAPIKey(params.Environment, now)
	key := &model.APIKey{
		ID:          id.New(),
		Key:         raw,
		Preview:     id.MaskAPIKey(raw),
		AppID:       whitespaceRe.ReplaceAllString(strings.ToLower(appName), "-") + "-" + params.Environment,
		AppName:     appName,
		Environment: params.Environment,
		IsActive:    true,
		RateLimit:   rateLimit,
		Owner:       params.Owner,
		WebhookURL:  params.WebhookURL,
		CreatedAt:   now,
	}
	if err := s.stores.APIKeys().Create(ctx, key); err != nil {
		return nil, fmt.Errorf("creating api key: %w", err)
	}

	slog.InfoContext(ctx, "api key generated",
		"app_id", key.AppID,
		"environment", key.Environment,
		"preview", key.Preview)

	return &GeneratedKey{Key: raw, APIKey: key}, nil
}

func (s *apiKeyService) List(ctx context.Context) ([]KeyUsage, error) {
	keys, err := s.stores.APIKeys().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing api keys: %w", err)
	}

	since := s.now().Add(-rateWindow)
	out := make([]KeyUsage, 0, len(keys))
	for _, k := range keys {
		usage, err := s.stores.Issues().CountSince(ctx, k.AppID, since)
		if err != nil {
			return nil, fmt.Errorf("counting usage for %s: %w", k.AppID, err)
		}
		ku := KeyUsage{APIKey: k, CurrentUsage: usage}
		if k.RateLimit > 0 {
			ku.UsagePercent = int((usage*100 + int64(k.RateLimit)/2) / int64(k.RateLimit))
		}
		out = append(out, ku)
	}
	return out, nil
}

func (s *apiKeyService) Toggle(ctx context.Context, keyID int64) (*model.APIKey, error) {
	k, err := s.stores.APIKeys().GetByID(ctx, keyID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrAPIKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetching api key: %w", err)
	}

	k.IsActive = !k.IsActive
	if err := s.stores.APIKeys().SetActive(ctx, k.ID, k.IsActive); err != nil {
		return nil, fmt.Errorf("toggling api key: %w", err)
	}

	slog.InfoContext(ctx, "api key toggled", "app_id", k.AppID, "active", k.IsActive)
	return k, nil
}

func (s *apiKeyService) Delete(ctx context.Context, keyID int64) error {
	err := s.stores.APIKeys().Delete(ctx, keyID)
	if errors.Is(err, store.ErrNotFound) {
		return ErrAPIKeyNotFound
	}
	if err != nil {
		return fmt.Errorf("deleting api key: %w", err)
	}
	return nil
}
