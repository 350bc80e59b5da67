package service

import (
	"context"
	"log/slog"

	"github.com/surya021104/bug-tracker/common/logger"
	"github.com/surya021104/bug-tracker/internal/model"
	"github.com/surya021104/bug-tracker/internal/queue"
)

// publish runs after the write it reports on has returned. Failures are
// logged and never fail the caller.
func publish(ctx context.Context, producer queue.Producer, kind model.NotificationKind, bugID string, issue *model.Issue) {
	if producer == nil {
		return
	}
	n := model.Notification{Kind: kind, BugID: bugID, Issue: issue}
	if issue != nil {
		n.AppID = issue.AppID
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{
		BugID:            logger.Ptr(bugID),
		NotificationKind: logger.Ptr(string(kind)),
	})
	if err := producer.Publish(ctx, n); err != nil {
		slog.ErrorContext(ctx, "failed to publish notification", "error", err)
	}
}
