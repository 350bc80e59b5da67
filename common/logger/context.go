package logger

import "context"

type contextKey string

const logFieldsKey contextKey = "log_fields"

// LogFields are attached to every log record emitted with the context.
type LogFields struct {
	BugID            *string // External issue id (BUG-...)
	AppID            *string // Tenant application id
	Signature        *string // Content signature of the signal being ingested
	NotificationKind *string // new-bug, bug-updated, issue-deleted
	MessageID        *string // Redis stream message ID
	Component        string  // e.g. "bugtracker.service.ingest"
}

// WithLogFields merges fields into the context. Newer non-empty values win.
func WithLogFields(ctx context.Context, fields LogFields) context.Context {
	existing := GetLogFields(ctx)
	merged := mergeFields(existing, fields)
	return context.WithValue(ctx, logFieldsKey, merged)
}

func GetLogFields(ctx context.Context) LogFields {
	if fields, ok := ctx.Value(logFieldsKey).(LogFields); ok {
		return fields
	}
	return LogFields{}
}

func mergeFields(existing, next LogFields) LogFields {
	result := existing

	if next.BugID != nil {
		result.BugID = next.BugID
	}
	if next.AppID != nil {
		result.AppID = next.AppID
	}
	if next.Signature != nil {
		result.Signature = next.Signature
	}
	if next.NotificationKind != nil {
		result.NotificationKind = next.NotificationKind
	}
	if next.MessageID != nil {
		result.MessageID = next.MessageID
	}
	if next.Component != "" {
		result.Component = next.Component
	}

	return result
}

// Ptr returns a pointer to v, for inline LogFields literals.
func Ptr[T any](v T) *T {
	return &v
}

// Truncate cuts s to maxLen bytes and appends "..." when it was longer.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
