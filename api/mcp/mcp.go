// Package mcp provides an MCP (Model Context Protocol) server exposing the
// Pearl conversation as tools.
package mcp

import (
	"context"
	"errors"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/papercomputeco/pearl/pkg/pipeline"
	"github.com/papercomputeco/pearl/pkg/utils"
)

const (
	generateToolName    = "generate"
	generateDescription = "Ask Pearl a question. Runs the full pipeline (optional web search, conversation context, generation, sanitization) and records the exchange in the shared conversation."

	clearToolName    = "clear_conversation"
	clearDescription = "Forget the current conversation. The next question starts with an empty context window."
)

type Config struct {
	// Pipeline handles generate calls and owns the conversation store
	Pipeline *pipeline.Pipeline

	// Noop for empty MCP server
	Noop bool

	// Logger is the configured zap logger
	Logger *zap.Logger
}

type Server struct {
	config    Config
	mcpServer *mcp.Server
	handler   *mcp.StreamableHTTPHandler
}

// GenerateInput is the input for the generate tool.
type GenerateInput struct {
	Prompt string `json:"prompt" jsonschema:"the question to ask Pearl"`
}

// GenerateOutput is the structured output of the generate tool.
type GenerateOutput struct {
	Response      string `json:"response"`
	Model         string `json:"model"`
	ContextLength int    `json:"context_length"`
	HasWebContext bool   `json:"has_web_context"`
}

// ClearInput is the (empty) input for the clear_conversation tool.
type ClearInput struct{}

// ClearOutput reports how many turns were dropped.
type ClearOutput struct {
	Cleared int `json:"cleared"`
}

// NewServer creates a new MCP server with the generate and clear tools.
func NewServer(c Config) (*Server, error) {
	s := &Server{
		config: c,
	}

	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "pearl",
			Version: utils.Version,
		},
		&mcp.ServerOptions{},
	)

	if !c.Noop {
		if c.Pipeline == nil {
			return nil, errors.New("pipeline is required")
		}
		if c.Logger == nil {
			return nil, errors.New("logger is required")
		}

		mcp.AddTool(mcpServer, &mcp.Tool{
			Name:        generateToolName,
			Description: generateDescription,
		}, s.handleGenerate)

		mcp.AddTool(mcpServer, &mcp.Tool{
			Name:        clearToolName,
			Description: clearDescription,
		}, s.handleClear)
	}

	s.mcpServer = mcpServer

	// Create a streamable HTTP net/http handler for stateless operations
	s.handler = mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server {
			return mcpServer
		},
		&mcp.StreamableHTTPOptions{
			Stateless: true,
		},
	)

	return s, nil
}

// Handler returns the HTTP handler for the MCP server.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// MCPServer returns the underlying MCP server, for in-process transports.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcpServer
}

func (s *Server) handleGenerate(ctx context.Context, _ *mcp.CallToolRequest, input GenerateInput) (*mcp.CallToolResult, GenerateOutput, error) {
	res, err := s.config.Pipeline.Handle(ctx, input.Prompt)
	if err != nil {
		s.config.Logger.Warn("mcp generate failed", zap.Error(err))
		return errorResult(err.Error()), GenerateOutput{}, nil
	}

	return nil, GenerateOutput{
		Response:      res.Response,
		Model:         res.Model,
		ContextLength: res.ContextLength,
		HasWebContext: res.HasWebContext(),
	}, nil
}

func (s *Server) handleClear(_ context.Context, _ *mcp.CallToolRequest, _ ClearInput) (*mcp.CallToolResult, ClearOutput, error) {
	store := s.config.Pipeline.Store()
	n := store.Len()
	store.Clear()
	s.config.Logger.Info("conversation cleared via mcp", zap.Int("turns", n))
	return nil, ClearOutput{Cleared: n}, nil
}

func errorResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: msg},
		},
	}
}
