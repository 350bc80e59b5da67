package store

import (
	"context"
	"errors"
	"time"

	"github.com/surya021104/bug-tracker/internal/model"
)

var (
	// ErrNotFound is returned when a requested entity does not exist
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a unique key (bug id, api key) is taken
	ErrConflict = errors.New("conflict")
)

// IssueFilter narrows List. Zero values match everything.
type IssueFilter struct {
	AppID   string
	AppName string
	Status  model.Status
	Limit   int
}

// IssueStore defines the contract for issue data access.
// Lookups that find several candidates return the oldest.
type IssueStore interface {
	GetByBugID(ctx context.Context, bugID string) (*model.Issue, error)
	// GetByBugIDForUpdate locks the row until the surrounding transaction ends
	// on backends that support it.
	GetByBugIDForUpdate(ctx context.Context, bugID string) (*model.Issue, error)
	FindBySignature(ctx context.Context, signature string) (*model.Issue, error)
	FindByNormalizedTitle(ctx context.Context, normalizedTitle string) (*model.Issue, error)
	Insert(ctx context.Context, issue *model.Issue) error
	// RecordOccurrence applies the increment in a single atomic update and
	// returns the issue as stored afterwards.
	RecordOccurrence(ctx context.Context, bugID string, occ model.Occurrence) (*model.Issue, error)
	// UpdateStatus persists status and the ownership stamps.
	UpdateStatus(ctx context.Context, issue *model.Issue) error
	CountSince(ctx context.Context, appID string, since time.Time) (int64, error)
	List(ctx context.Context, filter IssueFilter) ([]model.Issue, error)
	Delete(ctx context.Context, bugID string) (*model.Issue, error)
}

// APIKeyStore defines the contract for tenant key data access
type APIKeyStore interface {
	GetByKey(ctx context.Context, key string) (*model.APIKey, error)
	GetByID(ctx context.Context, id int64) (*model.APIKey, error)
	GetByAppID(ctx context.Context, appID string) (*model.APIKey, error)
	Create(ctx context.Context, key *model.APIKey) error
	List(ctx context.Context) ([]model.APIKey, error)
	SetActive(ctx context.Context, id int64, active bool) error
	Touch(ctx context.Context, id int64, at time.Time) error
	Delete(ctx context.Context, id int64) error
}

// Provider exposes the stores of one backend, optionally bound to a transaction.
type Provider interface {
	Issues() IssueStore
	APIKeys() APIKeyStore
}

// Backend is a storage engine chosen at startup.
type Backend interface {
	Provider
	WithTx(ctx context.Context, fn func(stores Provider) error) error
	Name() string
	Close()
}
