package proxy

import (
	"github.com/papercomputeco/pearl/pkg/eventstream"
	"github.com/papercomputeco/pearl/pkg/metrics"
)

// Config is the front end server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":5000")
	ListenAddr string

	// UpstreamURL is the generation backend URL, for logging only
	// (e.g., "http://localhost:11434")
	UpstreamURL string

	// ProviderType names the generation backend (e.g., "ollama")
	ProviderType string

	// AllowOrigins is the CORS allow-list. Defaults to "*".
	AllowOrigins string

	// Publisher is an optional event stream for answered exchanges.
	// If nil, events are not published.
	Publisher eventstream.Publisher

	// Metrics is optional request instrumentation.
	Metrics *metrics.Metrics
}
