package dto

type IngestResponse struct {
	Status string `json:"status"`
	BugID  string `json:"bugId,omitempty"`
}
