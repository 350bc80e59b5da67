package dto

import "github.com/surya021104/bug-tracker/internal/model"

type CreateIssueRequest struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Severity    model.Severity `json:"severity"`
	CreatedBy   string         `json:"createdBy"`
	Type        string         `json:"type"`
	AppName     string         `json:"appName"`
	Steps       string         `json:"steps"`
	Expected    string         `json:"expected"`
	Actual      string         `json:"actual"`
	Browser     string         `json:"browser"`
	Environment string         `json:"environment"`
}

type IssueResponse struct {
	Success   bool         `json:"success"`
	Issue     *model.Issue `json:"issue"`
	Duplicate bool         `json:"duplicate"`
	Message   string       `json:"message,omitempty"`
}

type UpdateStatusRequest struct {
	Status      model.Status `json:"status"`
	CurrentUser *model.Actor `json:"currentUser,omitempty"`
}

type DeleteIssueResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	ID      string `json:"id"`
}

// ListIssuesQuery binds the optional filters of GET /api/issues.
type ListIssuesQuery struct {
	AppID   string `form:"appId"`
	AppName string `form:"appName"`
	Status  string `form:"status"`
	Limit   int    `form:"limit" binding:"omitempty,min=0,max=1000"`
}
