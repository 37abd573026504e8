package provider

import (
	"fmt"
	"time"

	"github.com/papercomputeco/pearl/pkg/llm/provider/ollama"
)

// Supported provider type constants
const (
	Ollama = "ollama"
)

// SupportedProviders returns the list of all supported provider type names.
func SupportedProviders() []string {
	return []string{Ollama}
}

// NewGeneratorOpts configures New.
type NewGeneratorOpts struct {
	ProviderType string
	TargetURL    string
	Timeout      time.Duration
}

// New creates a Generator for the given provider type.
// Returns an error if the provider type is not recognized.
func New(opts *NewGeneratorOpts) (Generator, error) {
	switch opts.ProviderType {
	case Ollama, "":
		return ollama.New(opts.TargetURL, opts.Timeout), nil
	default:
		return nil, fmt.Errorf("unknown provider type: %q (supported: %v)", opts.ProviderType, SupportedProviders())
	}
}
