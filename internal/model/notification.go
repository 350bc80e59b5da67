package model

type NotificationKind string

const (
	NotificationNewBug       NotificationKind = "new-bug"
	NotificationBugUpdated   NotificationKind = "bug-updated"
	NotificationIssueDeleted NotificationKind = "issue-deleted"
)

// Notification tells downstream consumers an issue changed. For deletions
// Issue is the removed record when it is known.
type Notification struct {
	Kind  NotificationKind `json:"kind"`
	BugID string           `json:"bugId"`
	AppID string           `json:"appId,omitempty"`
	Issue *Issue           `json:"issue,omitempty"`
}
