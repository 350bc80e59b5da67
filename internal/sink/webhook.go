package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/surya021104/bug-tracker/core/config"
	"github.com/surya021104/bug-tracker/internal/model"
	"github.com/surya021104/bug-tracker/internal/store"
)

// WebhookPayload is the body posted to a tenant's webhook URL.
type WebhookPayload struct {
	Event     model.NotificationKind `json:"event"`
	BugID     string                 `json:"bugId"`
	AppID     string                 `json:"appId"`
	Issue     *model.Issue           `json:"issue,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

type webhookSink struct {
	keys   store.APIKeyStore
	client *retryablehttp.Client
}

// NewWebhookSink posts notifications to the webhook URL of the tenant key
// that owns the issue. Tenants without a URL are skipped.
func NewWebhookSink(keys store.APIKeyStore, cfg config.WebhookConfig) Sink {
	client := retryablehttp.NewClient()
	client.RetryMax = cfg.RetryMax
	client.RetryWaitMin = 200 * time.Millisecond
	client.RetryWaitMax = 2 * time.Second
	client.HTTPClient.Timeout = cfg.Timeout
	client.Logger = slog.Default()

	return &webhookSink{keys: keys, client: client}
}

func (s *webhookSink) Name() string { return "webhook" }

func (s *webhookSink) Deliver(ctx context.Context, n model.Notification) error {
	if n.AppID == "" {
		return nil
	}

	key, err := s.keys.GetByAppID(ctx, n.AppID)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("fetching api key for %s: %w", n.AppID, err)
	}
	if key.WebhookURL == "" {
		return nil
	}

	body, err := json.Marshal(WebhookPayload{
		Event:     n.Kind,
		BugID:     n.BugID,
		AppID:     n.AppID,
		Issue:     n.Issue,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("encoding webhook payload: %w", err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, key.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Bug-Event", string(n.Kind))

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("delivering webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook responded %d", resp.StatusCode)
	}

	slog.DebugContext(ctx, "webhook delivered", "app_id", n.AppID, "status", resp.StatusCode)
	return nil
}
