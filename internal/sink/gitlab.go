package sink

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	gitlab "gitlab.com/gitlab-org/api/client-go"

	"github.com/surya021104/bug-tracker/core/config"
	"github.com/surya021104/bug-tracker/internal/model"
)

const gitlabBugLabelPrefix = "bug-tracker::"

type gitlabSink struct {
	client    *gitlab.Client
	projectID string
}

// NewGitLabSink mirrors new bugs into a GitLab project and closes the mirror
// when the bug is deleted. Each mirror carries a scoped label with the bug id.
func NewGitLabSink(cfg config.GitLabConfig) (Sink, error) {
	opts := []gitlab.ClientOptionFunc{}
	if cfg.BaseURL != "" {
		opts = append(opts, gitlab.WithBaseURL(strings.TrimSuffix(cfg.BaseURL, "/")))
	}
	client, err := gitlab.NewClient(cfg.Token, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating gitlab client: %w", err)
	}
	return &gitlabSink{client: client, projectID: cfg.ProjectID}, nil
}

func (s *gitlabSink) Name() string { return "gitlab" }

func (s *gitlabSink) Deliver(ctx context.Context, n model.Notification) error {
	switch n.Kind {
	case model.NotificationNewBug:
		return s.create(ctx, n)
	case model.NotificationIssueDeleted:
		return s.close(ctx, n.BugID)
	}
	return nil
}

func (s *gitlabSink) create(ctx context.Context, n model.Notification) error {
	if n.Issue == nil {
		return fmt.Errorf("new-bug notification for %s has no issue payload", n.BugID)
	}
	issue := n.Issue

	labels := gitlab.LabelOptions{gitlabBugLabelPrefix + issue.BugID, "severity::" + string(issue.Severity)}
	created, _, err := s.client.Issues.CreateIssue(s.projectID, &gitlab.CreateIssueOptions{
		Title:       gitlab.Ptr(fmt.Sprintf("[%s] %s", issue.BugID, issue.Title)),
		Description: gitlab.Ptr(gitlabDescription(issue)),
		Labels:      &labels,
	}, gitlab.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("creating gitlab issue: %w", err)
	}

	slog.InfoContext(ctx, "gitlab issue created", "bug_id", issue.BugID, "gitlab_url", created.WebURL)
	return nil
}

func (s *gitlabSink) close(ctx context.Context, bugID string) error {
	labels := gitlab.LabelOptions{gitlabBugLabelPrefix + bugID}
	found, _, err := s.client.Issues.ListProjectIssues(s.projectID, &gitlab.ListProjectIssuesOptions{
		Labels: &labels,
		State:  gitlab.Ptr("opened"),
	}, gitlab.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("finding gitlab issue for %s: %w", bugID, err)
	}

	for _, gi := range found {
		_, _, err := s.client.Issues.UpdateIssue(s.projectID, gi.IID, &gitlab.UpdateIssueOptions{
			StateEvent: gitlab.Ptr("close"),
		}, gitlab.WithContext(ctx))
		if err != nil {
			return fmt.Errorf("closing gitlab issue %d: %w", gi.IID, err)
		}
		slog.InfoContext(ctx, "gitlab issue closed", "bug_id", bugID, "gitlab_iid", gi.IID)
	}
	return nil
}

func gitlabDescription(issue *model.Issue) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n", issue.Description)
	fmt.Fprintf(&b, "| Field | Value |\n|---|---|\n")
	fmt.Fprintf(&b, "| Severity | %s |\n", issue.Severity)
	if issue.Priority != "" {
		fmt.Fprintf(&b, "| Priority | %s |\n", issue.Priority)
	}
	fmt.Fprintf(&b, "| Module | %s |\n", issue.Module)
	fmt.Fprintf(&b, "| App | %s (%s) |\n", issue.AppName, issue.Environment)
	if issue.ApplicationURL != "" {
		fmt.Fprintf(&b, "| URL | %s |\n", issue.ApplicationURL)
	}
	if issue.Steps != "" {
		fmt.Fprintf(&b, "\n### Steps to reproduce\n%s\n", issue.Steps)
	}
	if issue.Expected != "" {
		fmt.Fprintf(&b, "\n### Expected\n%s\n", issue.Expected)
	}
	if issue.Actual != "" {
		fmt.Fprintf(&b, "\n### Actual\n%s\n", issue.Actual)
	}
	return b.String()
}
