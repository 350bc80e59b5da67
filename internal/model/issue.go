package model

import (
	"strings"
	"time"
)

type (
	Severity string
	Status   string
	Priority string
)

const (
	SeverityCritical Severity = "Critical"
	SeverityHigh     Severity = "High"
	SeverityMedium   Severity = "Medium"
	SeverityLow      Severity = "Low"
)

const (
	StatusTodo       Status = "Todo"
	StatusOpen       Status = "Open"
	StatusNew        Status = "New"
	StatusInProgress Status = "In Progress"
	StatusFixed      Status = "Fixed"
	StatusResolved   Status = "Resolved"
	StatusClosed     Status = "Closed"
	StatusReopened   Status = "Reopened"
)

const (
	PriorityBlocker  Priority = "Blocker"
	PriorityCritical Priority = "Critical"
	PriorityHigh     Priority = "High"
	PriorityMedium   Priority = "Medium"
	PriorityLow      Priority = "Low"
)

// Issue categories assigned by the heuristic classifier or manual entry.
const (
	CategoryFunctional     = "Functional"
	CategoryNetwork        = "Network"
	CategoryAuthentication = "Authentication"
	CategoryUIUX           = "UI/UX"
	CategoryPerformance    = "Performance"
)

// ParseSeverity matches case-insensitively. ok is false for anything else.
func ParseSeverity(s string) (Severity, bool) {
	for _, sev := range []Severity{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow} {
		if strings.EqualFold(strings.TrimSpace(s), string(sev)) {
			return sev, true
		}
	}
	return "", false
}

func ParsePriority(s string) (Priority, bool) {
	for _, p := range []Priority{PriorityBlocker, PriorityCritical, PriorityHigh, PriorityMedium, PriorityLow} {
		if strings.EqualFold(strings.TrimSpace(s), string(p)) {
			return p, true
		}
	}
	return "", false
}

// Issue is the deduplicated bug record. ID is storage-internal; BugID is the
// immutable external join key.
type Issue struct {
	ID             int64      `json:"-"`
	BugID          string     `json:"id"`
	Signature      string     `json:"signature,omitempty"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	Module         string     `json:"module"`
	Category       string     `json:"type"`
	SignalType     SignalType `json:"signalType,omitempty"`
	Status         Status     `json:"status"`
	Severity       Severity   `json:"severity"`
	Priority       Priority   `json:"priority,omitempty"`
	Steps          string     `json:"steps"`
	Expected       string     `json:"expected"`
	Actual         string     `json:"actual"`
	Assignee       string     `json:"assignee,omitempty"`
	Labels         []string   `json:"labels"`
	ApplicationURL string     `json:"applicationUrl,omitempty"`
	Browser        string     `json:"browser,omitempty"`

	CreatedBy  string     `json:"createdBy"`
	OpenedBy   string     `json:"openedBy,omitempty"`
	OpenedAt   *time.Time `json:"openedAt,omitempty"`
	FixedBy    string     `json:"fixedBy,omitempty"`
	FixedAt    *time.Time `json:"fixedAt,omitempty"`
	ClosedAt   *time.Time `json:"closedAt,omitempty"`
	ResolvedAt *time.Time `json:"resolvedAt,omitempty"`

	IsAuto     bool `json:"isAuto"`
	AIAnalyzed bool `json:"aiAnalyzed"`

	Occurrences      int64     `json:"occurrences"`
	LastOccurrence   time.Time `json:"lastOccurrence"`
	AffectedUsers    int64     `json:"affectedUsers"`
	AffectedSessions int64     `json:"affectedSessions"`

	AppID       string `json:"appId"`
	AppName     string `json:"appName"`
	Environment string `json:"environment"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Occurrence is an increment applied atomically to an existing issue.
type Occurrence struct {
	At       time.Time
	Count    int64
	Users    int64
	Sessions int64
}

// NormalizeTitle is the fallback duplicate key: lowercased and trimmed.
func NormalizeTitle(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}
