package models

type TokenUsage struct {
	InputTokens  int    `json:"input_tokens"`
	OutputTokens int    `json:"output_tokens"`
	TotalTokens  int    `json:"total_tokens"`
	Model        string `json:"model,omitempty"`
	Provider     string `json:"provider,omitempty"`
	DurationMs   int64  `json:"duration_ms,omitempty"`
}

// Add accumulates another usage record into u.
func (u *TokenUsage) Add(other *TokenUsage) {
	if other == nil {
		return
	}
	u.InputTokens += other.InputTokens
	u.OutputTokens += other.OutputTokens
	u.TotalTokens += other.TotalTokens
	u.DurationMs += other.DurationMs
	if other.Model != "" {
		u.Model = other.Model
	}
	if other.Provider != "" {
		u.Provider = other.Provider
	}
}
