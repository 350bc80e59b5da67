package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/surya021104/bug-tracker/common/id"
	"github.com/surya021104/bug-tracker/common/logger"
	"github.com/surya021104/bug-tracker/internal/model"
	"github.com/surya021104/bug-tracker/internal/queue"
	"github.com/surya021104/bug-tracker/internal/store"
)

const DuplicateManualMessage = "Similar issue already exists. Occurrence count incremented."

// ManualIssue is a report filed by a person. Empty fields take defaults.
type ManualIssue struct {
	Title       string
	Description string
	Severity    model.Severity
	CreatedBy   string
	Category    string
	AppName     string
	Steps       string
	Expected    string
	Actual      string
	Browser     string
	Environment string
}

type CreateIssueResult struct {
	Issue     *model.Issue
	Duplicate bool
	Message   string
}

type IssueService interface {
	Create(ctx context.Context, params ManualIssue) (*CreateIssueResult, error)
	UpdateStatus(ctx context.Context, bugID string, status model.Status, actor *model.Actor) (*model.Issue, error)
	Get(ctx context.Context, bugID string) (*model.Issue, error)
	List(ctx context.Context, filter store.IssueFilter) ([]model.Issue, error)
	Delete(ctx context.Context, bugID string) (*model.Issue, error)
}

type issueService struct {
	stores   store.Provider
	txRunner TxRunner
	producer queue.Producer
	now      func() time.Time
}

func NewIssueService(stores store.Provider, txRunner TxRunner, producer queue.Producer, now func() time.Time) IssueService {
	if now == nil {
		now = time.Now
	}
	return &issueService{
		stores:   stores,
		txRunner: txRunner,
		producer: producer,
		now:      now,
	}
}

func (s *issueService) Create(ctx context.Context, params ManualIssue) (*CreateIssueResult, error) {
	title := strings.TrimSpace(params.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}

	existing, err := s.stores.Issues().FindByNormalizedTitle(ctx, model.NormalizeTitle(title))
	switch {
	case err == nil:
		issue, err := s.stores.Issues().RecordOccurrence(ctx, existing.BugID, model.Occurrence{At: s.now(), Count: 1})
		if err != nil {
			return nil, fmt.Errorf("recording occurrence: %w", err)
		}
		slog.InfoContext(ctx, "duplicate manual issue", "bug_id", issue.BugID, "occurrences", issue.Occurrences)
		publish(ctx, s.producer, model.NotificationBugUpdated, issue.BugID, issue)
		return &CreateIssueResult{Issue: issue, Duplicate: true, Message: DuplicateManualMessage}, nil
	case !errors.Is(err, store.ErrNotFound):
		return nil, fmt.Errorf("finding issue by title: %w", err)
	}

	now := s.now()
	issue := &model.Issue{
		ID:             id.New(),
		BugID:          id.NewBugID(now),
		Title:          title,
		Description:    params.Description,
		Severity:       orDefault(params.Severity, model.SeverityMedium),
		Status:         model.StatusTodo,
		CreatedBy:      orDefault(params.CreatedBy, "Manual"),
		Category:       orDefault(params.Category, model.CategoryFunctional),
		AppName:        orDefault(params.AppName, "Unknown"),
		Steps:          params.Steps,
		Expected:       params.Expected,
		Actual:         params.Actual,
		Browser:        orDefault(params.Browser, "Unknown"),
		Environment:    orDefault(params.Environment, "Production"),
		Labels:         []string{},
		Occurrences:    1,
		LastOccurrence: now,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.stores.Issues().Insert(ctx, issue); err != nil {
		return nil, fmt.Errorf("creating issue: %w", err)
	}

	slog.InfoContext(ctx, "manual issue created", "bug_id", issue.BugID)
	publish(ctx, s.producer, model.NotificationNewBug, issue.BugID, issue)
	return &CreateIssueResult{Issue: issue}, nil
}

func (s *issueService) UpdateStatus(ctx context.Context, bugID string, status model.Status, actor *model.Actor) (*model.Issue, error) {
	if status == "" {
		return nil, ErrStatusRequired
	}
	ctx = logger.WithLogFields(ctx, logger.LogFields{BugID: logger.Ptr(bugID)})
	label := model.ActorLabel(actor)

	var updated *model.Issue
	err := s.txRunner.WithTx(ctx, func(stores store.Provider) error {
		issue, err := stores.Issues().GetByBugIDForUpdate(ctx, bugID)
		if errors.Is(err, store.ErrNotFound) {
			return ErrIssueNotFound
		}
		if err != nil {
			return fmt.Errorf("fetching issue: %w", err)
		}

		model.ApplyStatus(issue, status, label, s.now())
		if err := stores.Issues().UpdateStatus(ctx, issue); err != nil {
			return fmt.Errorf("updating status: %w", err)
		}
		updated = issue
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "issue status updated", "status", status, "actor", label)
	publish(ctx, s.producer, model.NotificationBugUpdated, bugID, updated)
	return updated, nil
}

func (s *issueService) Get(ctx context.Context, bugID string) (*model.Issue, error) {
	issue, err := s.stores.Issues().GetByBugID(ctx, bugID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrIssueNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetching issue: %w", err)
	}
	return issue, nil
}

func (s *issueService) List(ctx context.Context, filter store.IssueFilter) ([]model.Issue, error) {
	issues, err := s.stores.Issues().List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("listing issues: %w", err)
	}
	return issues, nil
}

func (s *issueService) Delete(ctx context.Context, bugID string) (*model.Issue, error) {
	issue, err := s.stores.Issues().Delete(ctx, bugID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrIssueNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("deleting issue: %w", err)
	}

	slog.InfoContext(ctx, "issue deleted", "bug_id", bugID)
	publish(ctx, s.producer, model.NotificationIssueDeleted, bugID, issue)
	return issue, nil
}

func orDefault[T ~string](v, fallback T) T {
	if strings.TrimSpace(string(v)) == "" {
		return fallback
	}
	return v
}
