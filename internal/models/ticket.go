package models

// Ticket is an issue-tracker record as consumed by the prompt builder.
type Ticket struct {
	Key         string `json:"key"`
	Summary     string `json:"summary"`
	Description string `json:"description"`
	IssueType   string `json:"issue_type"`
	Status      string `json:"status"`
	URL         string `json:"url,omitempty"`
}
