package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/surya021104/bug-tracker/common/id"
	"github.com/surya021104/bug-tracker/common/logger"
	"github.com/surya021104/bug-tracker/internal/analyzer"
	"github.com/surya021104/bug-tracker/internal/enrich"
	"github.com/surya021104/bug-tracker/internal/model"
	"github.com/surya021104/bug-tracker/internal/queue"
	"github.com/surya021104/bug-tracker/internal/store"
)

const (
	createdByMonitor = "Auto-Monitor"
	createdByTests   = "BugBuddy"
	moduleTests      = "BugBuddy Tests"
	moduleDefault    = "Application"
)

type IngestStatus string

const (
	IngestCreated   IngestStatus = "created"
	IngestDuplicate IngestStatus = "duplicate"
	IngestIgnored   IngestStatus = "ignored"
)

// IngestRequest is one raw signal from a monitor. URL and Identity default
// to the values carried inside the signal.
type IngestRequest struct {
	Signal   model.RawSignal
	URL      string
	APIKey   string
	Identity *model.Identity
}

type IngestResult struct {
	Status IngestStatus
	BugID  string
	Issue  *model.Issue
}

type IngestService interface {
	Ingest(ctx context.Context, req IngestRequest) (*IngestResult, error)
}

type ingestService struct {
	stores   store.Provider
	keys     APIKeyService
	composer *enrich.Composer
	producer queue.Producer
	now      func() time.Time
}

func NewIngestService(
	stores store.Provider,
	keys APIKeyService,
	composer *enrich.Composer,
	producer queue.Producer,
	now func() time.Time,
) IngestService {
	if now == nil {
		now = time.Now
	}
	return &ingestService{
		stores:   stores,
		keys:     keys,
		composer: composer,
		producer: producer,
		now:      now,
	}
}

func (s *ingestService) Ingest(ctx context.Context, req IngestRequest) (*IngestResult, error) {
	span := logger.StartSpan(ctx, "ingest.signal")
	defer span.End()
	ctx = logger.WithLogFields(span.Context(), logger.LogFields{Component: "bugtracker.service.ingest"})

	raw := req.Signal
	identity := model.IdentityOf(raw)
	if req.Identity != nil {
		identity = *req.Identity
	}
	url := req.URL
	if url == "" {
		url = raw.String("url")
	}

	internalTest := isInternalTest(raw)
	tenant := DefaultTenant
	if !internalTest {
		meta, err := s.keys.Admit(ctx, req.APIKey)
		if err != nil {
			return nil, err
		}
		tenant = meta
	}
	if len(raw) == 0 {
		return &IngestResult{Status: IngestIgnored}, nil
	}

	sig := analyzer.Interpret(raw)
	signature := analyzer.Signature(sig, url)
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		AppID:     logger.Ptr(tenant.AppID),
		Signature: logger.Ptr(signature),
	})

	existing, err := s.findDuplicate(ctx, signature, sig.Title)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if existing != nil {
		return s.recordDuplicate(ctx, existing.BugID, identity)
	}

	issue := s.buildIssue(ctx, sig, url, signature, identity, tenant, raw, internalTest)
	if err := s.stores.Issues().Insert(ctx, issue); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("creating issue: %w", err)
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{BugID: logger.Ptr(issue.BugID)})
	slog.InfoContext(ctx, "issue created from signal",
		"signal_type", sig.Type,
		"severity", issue.Severity,
		"ai_analyzed", issue.AIAnalyzed)

	publish(ctx, s.producer, model.NotificationNewBug, issue.BugID, issue)
	return &IngestResult{Status: IngestCreated, BugID: issue.BugID, Issue: issue}, nil
}

// findDuplicate matches on signature first, then on the normalized
// interpreted title.
func (s *ingestService) findDuplicate(ctx context.Context, signature, title string) (*model.Issue, error) {
	existing, err := s.stores.Issues().FindBySignature(ctx, signature)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("finding issue by signature: %w", err)
	}

	if title == "" {
		return nil, nil
	}
	existing, err = s.stores.Issues().FindByNormalizedTitle(ctx, model.NormalizeTitle(title))
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("finding issue by title: %w", err)
	}
	return existing, nil
}

func (s *ingestService) recordDuplicate(ctx context.Context, bugID string, identity model.Identity) (*IngestResult, error) {
	occ := model.Occurrence{At: s.now(), Count: 1}
	if identity.UserID != "" {
		occ.Users = 1
	}
	if identity.SessionID != "" {
		occ.Sessions = 1
	}

	issue, err := s.stores.Issues().RecordOccurrence(ctx, bugID, occ)
	if err != nil {
		return nil, fmt.Errorf("recording occurrence: %w", err)
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{BugID: logger.Ptr(bugID)})
	slog.InfoContext(ctx, "duplicate signal recorded", "occurrences", issue.Occurrences)

	publish(ctx, s.producer, model.NotificationBugUpdated, bugID, issue)
	return &IngestResult{Status: IngestDuplicate, BugID: bugID, Issue: issue}, nil
}

func (s *ingestService) buildIssue(
	ctx context.Context,
	sig model.InterpretedSignal,
	url, signature string,
	identity model.Identity,
	tenant model.AppMeta,
	raw model.RawSignal,
	internalTest bool,
) *model.Issue {
	enriched := s.composer.Compose(ctx, sig, url)
	guess := analyzer.Classify(sig.Title, sig.Message)

	createdBy := createdByMonitor
	module := enriched.Module
	if module == "" {
		module = moduleDefault
	}
	if internalTest {
		createdBy = createdByTests
		module = moduleTests
		appName := raw.String("testFile")
		if appName == "" {
			appName = "BugBuddy Test Suite"
		}
		tenant = model.AppMeta{AppID: "bugbuddy-tests", AppName: appName, Environment: "Test"}
	}

	severity := enriched.Severity
	if severity == "" {
		severity = guess.Severity
	}
	environment := tenant.Environment
	if environment == "" {
		environment = enriched.Environment
	}

	now := s.now()
	issue := &model.Issue{
		ID:             id.New(),
		BugID:          id.NewBugID(now),
		Signature:      signature,
		Title:          enriched.Title,
		Description:    enriched.Description,
		Module:         module,
		Category:       guess.Category,
		SignalType:     sig.Type,
		Status:         model.StatusTodo,
		Severity:       severity,
		Priority:       enriched.Priority,
		Steps:          enriched.Steps,
		Expected:       enriched.Expected,
		Actual:         enriched.Actual,
		Assignee:       enriched.Assignee,
		Labels:         enriched.Labels,
		ApplicationURL: url,
		Browser:        raw.String("browser", "userAgent"),
		CreatedBy:      createdBy,
		IsAuto:         true,
		AIAnalyzed:     enriched.AIAnalyzed,
		Occurrences:    1,
		LastOccurrence: now,
		AppID:          tenant.AppID,
		AppName:        tenant.AppName,
		Environment:    environment,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if identity.UserID != "" {
		issue.AffectedUsers = 1
	}
	if identity.SessionID != "" {
		issue.AffectedSessions = 1
	}
	return issue
}

// isInternalTest reports signals from the product's own E2E suite. They skip
// tenant admission.
func isInternalTest(raw model.RawSignal) bool {
	switch model.SignalType(raw.String("type", "signalType")) {
	case model.SignalPlaywrightTestFailure, model.SignalPlaywrightE2EError:
		return true
	}
	return raw.String("source") == "playwright" || raw.String("testName") != ""
}
