// Package api provides the admin HTTP server for inspecting and managing a
// running Pearl instance.
package api

// Config is the API server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":5001")
	ListenAddr string

	// DisableMCP serves an empty MCP server with no tools.
	DisableMCP bool
}
