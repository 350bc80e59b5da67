package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/surya021104/bug-tracker/common/arangodb"
	"github.com/surya021104/bug-tracker/internal/model"
)

const (
	issuesCollection  = "issues"
	apiKeysCollection = "api_keys"
)

var arangoCollections = []arangodb.Collection{
	{Name: issuesCollection, Indexes: [][]string{{"signature"}, {"title_norm"}, {"app_id", "created_at"}}},
	{Name: apiKeysCollection, Indexes: [][]string{{"key"}, {"app_id"}}},
}

// ArangoBackend stores issues as documents keyed by bug id. Every mutation is
// a single AQL statement; WithTx serializes callers within the process.
type ArangoBackend struct {
	client arangodb.Client
	txMu   sync.Mutex
}

// NewArango prepares the database and collections before returning.
func NewArango(ctx context.Context, client arangodb.Client) (*ArangoBackend, error) {
	if err := client.EnsureDatabase(ctx); err != nil {
		return nil, fmt.Errorf("ensuring arangodb database: %w", err)
	}
	if err := client.EnsureCollections(ctx, arangoCollections...); err != nil {
		return nil, fmt.Errorf("ensuring arangodb collections: %w", err)
	}
	return &ArangoBackend{client: client}, nil
}

func (b *ArangoBackend) Issues() IssueStore   { return arangoIssues{b.client} }
func (b *ArangoBackend) APIKeys() APIKeyStore { return arangoKeys{b.client} }
func (b *ArangoBackend) Name() string         { return "arangodb" }
func (b *ArangoBackend) Close()               { _ = b.client.Close() }

func (b *ArangoBackend) WithTx(ctx context.Context, fn func(stores Provider) error) error {
	b.txMu.Lock()
	defer b.txMu.Unlock()
	return fn(b)
}

// issueDoc timestamps are unix milliseconds.
type issueDoc struct {
	Key            string   `json:"_key"`
	ID             int64    `json:"id"`
	Signature      string   `json:"signature"`
	Title          string   `json:"title"`
	TitleNorm      string   `json:"title_norm"`
	Description    string   `json:"description"`
	Module         string   `json:"module"`
	Category       string   `json:"category"`
	SignalType     string   `json:"signal_type"`
	Status         string   `json:"status"`
	Severity       string   `json:"severity"`
	Priority       string   `json:"priority"`
	Steps          string   `json:"steps"`
	Expected       string   `json:"expected"`
	Actual         string   `json:"actual"`
	Assignee       string   `json:"assignee"`
	Labels         []string `json:"labels"`
	ApplicationURL string   `json:"application_url"`
	Browser        string   `json:"browser"`

	CreatedBy  string `json:"created_by"`
	OpenedBy   string `json:"opened_by"`
	OpenedAt   *int64 `json:"opened_at"`
	FixedBy    string `json:"fixed_by"`
	FixedAt    *int64 `json:"fixed_at"`
	ClosedAt   *int64 `json:"closed_at"`
	ResolvedAt *int64 `json:"resolved_at"`

	IsAuto           bool  `json:"is_auto"`
	AIAnalyzed       bool  `json:"ai_analyzed"`
	Occurrences      int64 `json:"occurrences"`
	LastOccurrence   int64 `json:"last_occurrence"`
	AffectedUsers    int64 `json:"affected_users"`
	AffectedSessions int64 `json:"affected_sessions"`

	AppID       string `json:"app_id"`
	AppName     string `json:"app_name"`
	Environment string `json:"environment"`
	CreatedAt   int64  `json:"created_at"`
	UpdatedAt   int64  `json:"updated_at"`
}

func millis(t time.Time) int64 { return t.UnixMilli() }

func millisPtr(t *time.Time) *int64 {
	if t == nil {
		return nil
	}
	ms := t.UnixMilli()
	return &ms
}

func fromMillis(ms int64) time.Time { return time.UnixMilli(ms).UTC() }

func fromMillisPtr(ms *int64) *time.Time {
	if ms == nil {
		return nil
	}
	t := fromMillis(*ms)
	return &t
}

func toIssueDoc(i *model.Issue) issueDoc {
	labels := i.Labels
	if labels == nil {
		labels = []string{}
	}
	return issueDoc{
		Key: i.BugID, ID: i.ID, Signature: i.Signature, Title: i.Title,
		TitleNorm: model.NormalizeTitle(i.Title), Description: i.Description, Module: i.Module,
		Category: i.Category, SignalType: string(i.SignalType), Status: string(i.Status),
		Severity: string(i.Severity), Priority: string(i.Priority), Steps: i.Steps,
		Expected: i.Expected, Actual: i.Actual, Assignee: i.Assignee, Labels: labels,
		ApplicationURL: i.ApplicationURL, Browser: i.Browser,
		CreatedBy: i.CreatedBy, OpenedBy: i.OpenedBy, OpenedAt: millisPtr(i.OpenedAt),
		FixedBy: i.FixedBy, FixedAt: millisPtr(i.FixedAt), ClosedAt: millisPtr(i.ClosedAt),
		ResolvedAt: millisPtr(i.ResolvedAt),
		IsAuto: i.IsAuto, AIAnalyzed: i.AIAnalyzed, Occurrences: i.Occurrences,
		LastOccurrence: millis(i.LastOccurrence), AffectedUsers: i.AffectedUsers,
		AffectedSessions: i.AffectedSessions,
		AppID: i.AppID, AppName: i.AppName, Environment: i.Environment,
		CreatedAt: millis(i.CreatedAt), UpdatedAt: millis(i.UpdatedAt),
	}
}

func (d issueDoc) toModel() *model.Issue {
	return &model.Issue{
		ID: d.ID, BugID: d.Key, Signature: d.Signature, Title: d.Title, Description: d.Description,
		Module: d.Module, Category: d.Category, SignalType: model.SignalType(d.SignalType),
		Status: model.Status(d.Status), Severity: model.Severity(d.Severity),
		Priority: model.Priority(d.Priority), Steps: d.Steps, Expected: d.Expected, Actual: d.Actual,
		Assignee: d.Assignee, Labels: d.Labels, ApplicationURL: d.ApplicationURL, Browser: d.Browser,
		CreatedBy: d.CreatedBy, OpenedBy: d.OpenedBy, OpenedAt: fromMillisPtr(d.OpenedAt),
		FixedBy: d.FixedBy, FixedAt: fromMillisPtr(d.FixedAt), ClosedAt: fromMillisPtr(d.ClosedAt),
		ResolvedAt: fromMillisPtr(d.ResolvedAt),
		IsAuto: d.IsAuto, AIAnalyzed: d.AIAnalyzed, Occurrences: d.Occurrences,
		LastOccurrence: fromMillis(d.LastOccurrence), AffectedUsers: d.AffectedUsers,
		AffectedSessions: d.AffectedSessions,
		AppID: d.AppID, AppName: d.AppName, Environment: d.Environment,
		CreatedAt: fromMillis(d.CreatedAt), UpdatedAt: fromMillis(d.UpdatedAt),
	}
}

type arangoIssues struct {
	c arangodb.Client
}

func (s arangoIssues) one(ctx context.Context, aql string, vars map[string]any) (*model.Issue, error) {
	doc, found, err := arangodb.QueryOne[issueDoc](ctx, s.c, aql, vars)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrNotFound
	}
	return doc.toModel(), nil
}

func (s arangoIssues) GetByBugID(ctx context.Context, bugID string) (*model.Issue, error) {
	return s.one(ctx, `FOR i IN issues FILTER i._key == @key RETURN i`, map[string]any{"key": bugID})
}

func (s arangoIssues) GetByBugIDForUpdate(ctx context.Context, bugID string) (*model.Issue, error) {
	return s.GetByBugID(ctx, bugID)
}

func (s arangoIssues) FindBySignature(ctx context.Context, signature string) (*model.Issue, error) {
	if signature == "" {
		return nil, ErrNotFound
	}
	return s.one(ctx, `FOR i IN issues FILTER i.signature == @sig SORT i.created_at ASC LIMIT 1 RETURN i`,
		map[string]any{"sig": signature})
}

func (s arangoIssues) FindByNormalizedTitle(ctx context.Context, normalizedTitle string) (*model.Issue, error) {
	return s.one(ctx, `FOR i IN issues FILTER i.title_norm == @title SORT i.created_at ASC LIMIT 1 RETURN i`,
		map[string]any{"title": normalizedTitle})
}

func (s arangoIssues) Insert(ctx context.Context, issue *model.Issue) error {
	doc := toIssueDoc(issue)
	_, found, err := arangodb.QueryOne[string](ctx, s.c, `
		LET existing = DOCUMENT(issues, @key)
		FILTER existing == null
		INSERT @doc INTO issues
		RETURN NEW._key`, map[string]any{"key": doc.Key, "doc": doc})
	if err != nil {
		return fmt.Errorf("inserting issue: %w", err)
	}
	if !found {
		return ErrConflict
	}
	return nil
}

func (s arangoIssues) RecordOccurrence(ctx context.Context, bugID string, occ model.Occurrence) (*model.Issue, error) {
	return s.one(ctx, `
		FOR i IN issues FILTER i._key == @key
		UPDATE i WITH {
			occurrences: i.occurrences + @count,
			affected_users: i.affected_users + @users,
			affected_sessions: i.affected_sessions + @sessions,
			last_occurrence: MAX([i.last_occurrence, @at]),
			updated_at: @at
		} IN issues
		RETURN NEW`, map[string]any{
		"key": bugID, "count": occ.Count, "users": occ.Users, "sessions": occ.Sessions, "at": millis(occ.At),
	})
}

func (s arangoIssues) UpdateStatus(ctx context.Context, issue *model.Issue) error {
	doc := toIssueDoc(issue)
	_, err := s.one(ctx, `
		FOR i IN issues FILTER i._key == @key
		UPDATE i WITH {
			status: @status, opened_by: @openedBy, opened_at: @openedAt, fixed_by: @fixedBy,
			fixed_at: @fixedAt, closed_at: @closedAt, resolved_at: @resolvedAt, updated_at: @updatedAt
		} IN issues OPTIONS { keepNull: true }
		RETURN NEW`, map[string]any{
		"key": doc.Key, "status": doc.Status, "openedBy": doc.OpenedBy, "openedAt": doc.OpenedAt,
		"fixedBy": doc.FixedBy, "fixedAt": doc.FixedAt, "closedAt": doc.ClosedAt,
		"resolvedAt": doc.ResolvedAt, "updatedAt": doc.UpdatedAt,
	})
	return err
}

func (s arangoIssues) CountSince(ctx context.Context, appID string, since time.Time) (int64, error) {
	n, _, err := arangodb.QueryOne[int64](ctx, s.c, `
		RETURN LENGTH(FOR i IN issues FILTER i.app_id == @app AND i.created_at >= @since RETURN 1)`,
		map[string]any{"app": appID, "since": millis(since)})
	if err != nil {
		return 0, fmt.Errorf("counting issues: %w", err)
	}
	return n, nil
}

func (s arangoIssues) List(ctx context.Context, filter IssueFilter) ([]model.Issue, error) {
	limit := filter.Limit
	if limit <= 0 {
		// AQL has no unlimited LIMIT
		limit = 1 << 30
	}
	docs, err := arangodb.QueryAll[issueDoc](ctx, s.c, `
		FOR i IN issues
		FILTER @app == "" OR i.app_id == @app
		FILTER @appName == "" OR i.app_name == @appName
		FILTER @status == "" OR i.status == @status
		SORT i.created_at DESC
		LIMIT @limit
		RETURN i`, map[string]any{
		"app": filter.AppID, "appName": filter.AppName, "status": string(filter.Status), "limit": limit,
	})
	if err != nil {
		return nil, fmt.Errorf("listing issues: %w", err)
	}

	out := make([]model.Issue, 0, len(docs))
	for _, d := range docs {
		out = append(out, *d.toModel())
	}
	return out, nil
}

func (s arangoIssues) Delete(ctx context.Context, bugID string) (*model.Issue, error) {
	return s.one(ctx, `FOR i IN issues FILTER i._key == @key REMOVE i IN issues RETURN OLD`,
		map[string]any{"key": bugID})
}

type apiKeyDoc struct {
	ID          int64  `json:"id"`
	Key         string `json:"key"`
	Preview     string `json:"preview"`
	AppID       string `json:"app_id"`
	AppName     string `json:"app_name"`
	Environment string `json:"environment"`
	IsActive    bool   `json:"is_active"`
	RateLimit   int    `json:"rate_limit"`
	Owner       string `json:"owner"`
	WebhookURL  string `json:"webhook_url"`
	CreatedAt   int64  `json:"created_at"`
	LastUsedAt  *int64 `json:"last_used_at"`
}

func (d apiKeyDoc) toModel() *model.APIKey {
	return &model.APIKey{
		ID: d.ID, Key: d.Key, Preview: d.Preview, AppID: d.AppID, AppName: d.AppName,
		Environment: d.Environment, IsActive: d.IsActive, RateLimit: d.RateLimit, Owner: d.Owner,
		WebhookURL: d.WebhookURL, CreatedAt: fromMillis(d.CreatedAt), LastUsedAt: fromMillisPtr(d.LastUsedAt),
	}
}

type arangoKeys struct {
	c arangodb.Client
}

func (s arangoKeys) one(ctx context.Context, aql string, vars map[string]any) (*model.APIKey, error) {
	doc, found, err := arangodb.QueryOne[apiKeyDoc](ctx, s.c, aql, vars)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrNotFound
	}
	return doc.toModel(), nil
}

func (s arangoKeys) GetByKey(ctx context.Context, key string) (*model.APIKey, error) {
	return s.one(ctx, `FOR k IN api_keys FILTER k.key == @key RETURN k`, map[string]any{"key": key})
}

func (s arangoKeys) GetByID(ctx context.Context, id int64) (*model.APIKey, error) {
	return s.one(ctx, `FOR k IN api_keys FILTER k.id == @id RETURN k`, map[string]any{"id": id})
}

func (s arangoKeys) GetByAppID(ctx context.Context, appID string) (*model.APIKey, error) {
	return s.one(ctx, `FOR k IN api_keys FILTER k.app_id == @app AND k.is_active SORT k.created_at ASC LIMIT 1 RETURN k`,
		map[string]any{"app": appID})
}

func (s arangoKeys) Create(ctx context.Context, key *model.APIKey) error {
	doc := apiKeyDoc{
		ID: key.ID, Key: key.Key, Preview: key.Preview, AppID: key.AppID, AppName: key.AppName,
		Environment: key.Environment, IsActive: key.IsActive, RateLimit: key.RateLimit, Owner: key.Owner,
		WebhookURL: key.WebhookURL, CreatedAt: millis(key.CreatedAt), LastUsedAt: millisPtr(key.LastUsedAt),
	}
	_, found, err := arangodb.QueryOne[int64](ctx, s.c, `
		LET taken = LENGTH(FOR k IN api_keys FILTER k.key == @key OR k.id == @id LIMIT 1 RETURN 1)
		FILTER taken == 0
		INSERT @doc INTO api_keys
		RETURN NEW.id`, map[string]any{"key": doc.Key, "id": doc.ID, "doc": doc})
	if err != nil {
		return fmt.Errorf("inserting api key: %w", err)
	}
	if !found {
		return ErrConflict
	}
	return nil
}

func (s arangoKeys) List(ctx context.Context) ([]model.APIKey, error) {
	docs, err := arangodb.QueryAll[apiKeyDoc](ctx, s.c, `FOR k IN api_keys SORT k.created_at DESC RETURN k`, nil)
	if err != nil {
		return nil, fmt.Errorf("listing api keys: %w", err)
	}
	out := make([]model.APIKey, 0, len(docs))
	for _, d := range docs {
		out = append(out, *d.toModel())
	}
	return out, nil
}

func (s arangoKeys) SetActive(ctx context.Context, id int64, active bool) error {
	_, err := s.one(ctx, `FOR k IN api_keys FILTER k.id == @id UPDATE k WITH { is_active: @active } IN api_keys RETURN NEW`,
		map[string]any{"id": id, "active": active})
	return err
}

func (s arangoKeys) Touch(ctx context.Context, id int64, at time.Time) error {
	_, err := s.one(ctx, `FOR k IN api_keys FILTER k.id == @id UPDATE k WITH { last_used_at: @at } IN api_keys RETURN NEW`,
		map[string]any{"id": id, "at": millis(at)})
	return err
}

func (s arangoKeys) Delete(ctx context.Context, id int64) error {
	_, err := s.one(ctx, `FOR k IN api_keys FILTER k.id == @id REMOVE k IN api_keys RETURN OLD`,
		map[string]any{"id": id})
	return err
}
