package model

import "time"

// Actor identifies who requested a status change.
type Actor struct {
	EmpID string `json:"empId"`
	Name  string `json:"name"`
}

// ActorLabel renders "<empId> - <name>", defaulting each part, or "System"
// when no actor was supplied.
func ActorLabel(a *Actor) string {
	if a == nil {
		return "System"
	}
	emp := a.EmpID
	if emp == "" {
		emp = "SYS"
	}
	name := a.Name
	if name == "" {
		name = "System"
	}
	return emp + " - " + name
}

// ApplyStatus writes status onto the issue and stamps ownership fields.
// Transitions are not validated; any status is accepted. Only the first
// opener is recorded.
func ApplyStatus(issue *Issue, status Status, actor string, now time.Time) {
	issue.Status = status
	issue.UpdatedAt = now

	switch status {
	case StatusOpen, StatusNew:
		if issue.OpenedBy == "" && issue.OpenedAt == nil {
			issue.OpenedBy = actor
			issue.OpenedAt = &now
		}
	case StatusFixed, StatusResolved:
		issue.FixedBy = actor
		issue.FixedAt = &now
		issue.ResolvedAt = &now
	case StatusClosed:
		issue.ClosedAt = &now
		if issue.ResolvedAt == nil {
			issue.ResolvedAt = &now
		}
	}
}
