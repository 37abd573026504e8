package llm

import "time"

// GenerationResponse is the backend's reply to a GenerationRequest.
type GenerationResponse struct {
	// Model that generated the response
	Model string `json:"model"`

	// Text is the raw, unsanitized generation output
	Text string `json:"response"`

	// Context is the opaque continuation handle returned by the backend, if any
	Context []int `json:"context,omitempty"`

	// Done reports whether the backend finished generating
	Done bool `json:"done"`

	// Usage metrics reported by the backend
	Usage *Usage `json:"usage,omitempty"`

	CreatedAt time.Time `json:"created_at,omitzero"`
}

// Usage contains token counts and timing information.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens,omitempty"`
	CompletionTokens int `json:"completion_tokens,omitempty"`
	TotalTokens      int `json:"total_tokens,omitempty"`

	// Timing, normalized to nanoseconds
	TotalDurationNs  int64 `json:"total_duration_ns,omitempty"`
	PromptDurationNs int64 `json:"prompt_duration_ns,omitempty"`
}

// ErrorResponse is the JSON error body returned by pearl's HTTP surfaces.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
