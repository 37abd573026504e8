package llm

// GenerationParams is the static sampling configuration sent with every
// generation call. It is built once from config and never mutated.
type GenerationParams struct {
	Temperature      float64 `json:"temperature"`
	TopP             float64 `json:"top_p"`
	TopK             int     `json:"top_k"`
	RepeatPenalty    float64 `json:"repeat_penalty,omitempty"`
	PresencePenalty  float64 `json:"presence_penalty,omitempty"`
	FrequencyPenalty float64 `json:"frequency_penalty,omitempty"`
	MaxTokens        int     `json:"max_tokens,omitempty"`
}

// WithTemperature returns a copy of p using the given temperature.
func (p GenerationParams) WithTemperature(t float64) GenerationParams {
	p.Temperature = t
	return p
}

// GenerationRequest is a single, fully assembled call to the generation backend.
type GenerationRequest struct {
	// Model name (e.g., "dolphin-mistral")
	Model string `json:"model"`

	// Prompt is the exact text sent to the backend
	Prompt string `json:"prompt"`

	// Params are the sampling parameters for this call
	Params GenerationParams `json:"params"`

	// Stop sequences, in order
	Stop []string `json:"stop,omitempty"`

	// Context is the backend's opaque continuation handle. It is sent back
	// verbatim when set.
	Context []int `json:"context,omitempty"`
}
