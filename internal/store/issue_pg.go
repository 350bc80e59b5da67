package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/surya021104/bug-tracker/core/db"
	"github.com/surya021104/bug-tracker/internal/model"
)

const issueColumns = `id, bug_id, signature, title, description, module, category, signal_type,
	status, severity, priority, steps, expected, actual, assignee, labels, application_url, browser,
	created_by, opened_by, opened_at, fixed_by, fixed_at, closed_at, resolved_at,
	is_auto, ai_analyzed, occurrences, last_occurrence, affected_users, affected_sessions,
	app_id, app_name, environment, created_at, updated_at`

type pgIssueStore struct {
	q db.Querier
}

func (s *pgIssueStore) GetByBugID(ctx context.Context, bugID string) (*model.Issue, error) {
	row := s.q.QueryRow(ctx, `SELECT `+issueColumns+` FROM issues WHERE bug_id = $1`, bugID)
	return scanIssue(row)
}

func (s *pgIssueStore) GetByBugIDForUpdate(ctx context.Context, bugID string) (*model.Issue, error) {
	row := s.q.QueryRow(ctx, `SELECT `+issueColumns+` FROM issues WHERE bug_id = $1 FOR UPDATE`, bugID)
	return scanIssue(row)
}

func (s *pgIssueStore) FindBySignature(ctx context.Context, signature string) (*model.Issue, error) {
	if signature == "" {
		return nil, ErrNotFound
	}
	row := s.q.QueryRow(ctx, `SELECT `+issueColumns+` FROM issues
		WHERE signature = $1
		ORDER BY created_at ASC
		LIMIT 1`, signature)
	return scanIssue(row)
}

func (s *pgIssueStore) FindByNormalizedTitle(ctx context.Context, normalizedTitle string) (*model.Issue, error) {
	row := s.q.QueryRow(ctx, `SELECT `+issueColumns+` FROM issues
		WHERE title_norm = $1
		ORDER BY created_at ASC
		LIMIT 1`, normalizedTitle)
	return scanIssue(row)
}

func (s *pgIssueStore) Insert(ctx context.Context, issue *model.Issue) error {
	labels := issue.Labels
	if labels == nil {
		labels = []string{}
	}
	_, err := s.q.Exec(ctx, `INSERT INTO issues (`+issueColumns+`, title_norm) VALUES (
		$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18,
		$19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29, $30, $31, $32, $33, $34, $35, $36, $37)`,
		issue.ID, issue.BugID, issue.Signature, issue.Title, issue.Description, issue.Module,
		issue.Category, string(issue.SignalType), string(issue.Status), string(issue.Severity),
		string(issue.Priority), issue.Steps, issue.Expected, issue.Actual, issue.Assignee, labels,
		issue.ApplicationURL, issue.Browser, issue.CreatedBy, issue.OpenedBy, issue.OpenedAt,
		issue.FixedBy, issue.FixedAt, issue.ClosedAt, issue.ResolvedAt, issue.IsAuto, issue.AIAnalyzed,
		issue.Occurrences, issue.LastOccurrence, issue.AffectedUsers, issue.AffectedSessions,
		issue.AppID, issue.AppName, issue.Environment, issue.CreatedAt, issue.UpdatedAt,
		model.NormalizeTitle(issue.Title),
	)
	if err != nil {
		return fmt.Errorf("inserting issue: %w", mapPgError(err))
	}
	return nil
}

func (s *pgIssueStore) RecordOccurrence(ctx context.Context, bugID string, occ model.Occurrence) (*model.Issue, error) {
	row := s.q.QueryRow(ctx, `UPDATE issues SET
			occurrences = occurrences + $2,
			affected_users = affected_users + $3,
			affected_sessions = affected_sessions + $4,
			last_occurrence = GREATEST(last_occurrence, $5),
			updated_at = $5
		WHERE bug_id = $1
		RETURNING `+issueColumns,
		bugID, occ.Count, occ.Users, occ.Sessions, occ.At)
	return scanIssue(row)
}

func (s *pgIssueStore) UpdateStatus(ctx context.Context, issue *model.Issue) error {
	tag, err := s.q.Exec(ctx, `UPDATE issues SET
			status = $2, opened_by = $3, opened_at = $4, fixed_by = $5, fixed_at = $6,
			closed_at = $7, resolved_at = $8, updated_at = $9
		WHERE bug_id = $1`,
		issue.BugID, string(issue.Status), issue.OpenedBy, issue.OpenedAt, issue.FixedBy,
		issue.FixedAt, issue.ClosedAt, issue.ResolvedAt, issue.UpdatedAt)
	if err != nil {
		return fmt.Errorf("updating issue status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *pgIssueStore) CountSince(ctx context.Context, appID string, since time.Time) (int64, error) {
	var n int64
	err := s.q.QueryRow(ctx, `SELECT count(*) FROM issues WHERE app_id = $1 AND created_at >= $2`,
		appID, since).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting issues: %w", err)
	}
	return n, nil
}

func (s *pgIssueStore) List(ctx context.Context, filter IssueFilter) ([]model.Issue, error) {
	var (
		where []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if filter.AppID != "" {
		add("app_id = $%d", filter.AppID)
	}
	if filter.AppName != "" {
		add("app_name = $%d", filter.AppName)
	}
	if filter.Status != "" {
		add("status = $%d", string(filter.Status))
	}

	query := `SELECT ` + issueColumns + ` FROM issues`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(` LIMIT $%d`, len(args))
	}

	rows, err := s.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing issues: %w", err)
	}
	defer rows.Close()

	var out []model.Issue
	for rows.Next() {
		issue, err := scanIssue(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *issue)
	}
	return out, rows.Err()
}

func (s *pgIssueStore) Delete(ctx context.Context, bugID string) (*model.Issue, error) {
	row := s.q.QueryRow(ctx, `DELETE FROM issues WHERE bug_id = $1 RETURNING `+issueColumns, bugID)
	return scanIssue(row)
}

func scanIssue(row pgx.Row) (*model.Issue, error) {
	var (
		i                                      model.Issue
		signalType, status, severity, priority string
	)
	err := row.Scan(
		&i.ID, &i.BugID, &i.Signature, &i.Title, &i.Description, &i.Module, &i.Category, &signalType,
		&status, &severity, &priority, &i.Steps, &i.Expected, &i.Actual, &i.Assignee, &i.Labels,
		&i.ApplicationURL, &i.Browser,
		&i.CreatedBy, &i.OpenedBy, &i.OpenedAt, &i.FixedBy, &i.FixedAt, &i.ClosedAt, &i.ResolvedAt,
		&i.IsAuto, &i.AIAnalyzed, &i.Occurrences, &i.LastOccurrence, &i.AffectedUsers, &i.AffectedSessions,
		&i.AppID, &i.AppName, &i.Environment, &i.CreatedAt, &i.UpdatedAt,
	)
	if err != nil {
		return nil, mapPgError(err)
	}
	i.SignalType = model.SignalType(signalType)
	i.Status = model.Status(status)
	i.Severity = model.Severity(severity)
	i.Priority = model.Priority(priority)
	return &i, nil
}
