// Package provider defines the generation backend abstraction and its
// supported implementations.
package provider

import (
	"context"

	"github.com/papercomputeco/pearl/pkg/llm"
)

// Generator is a text-generation backend. Implementations must return an
// error wrapping their transport error type when the backend cannot be
// reached, so callers can tell unreachable backends from bad replies.
type Generator interface {
	// Name returns the canonical provider name (e.g., "ollama")
	Name() string

	// Generate issues a single, blocking generation call.
	Generate(ctx context.Context, req llm.GenerationRequest) (*llm.GenerationResponse, error)
}
