package api

import (
	"errors"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/papercomputeco/pearl/api/mcp"
	"github.com/papercomputeco/pearl/pkg/metrics"
	"github.com/papercomputeco/pearl/pkg/pipeline"
	"github.com/papercomputeco/pearl/pkg/storage"
)

// Server is the admin API server. It shares the pipeline, transcript driver
// and metrics with the front end.
type Server struct {
	config  Config
	pipe    *pipeline.Pipeline
	driver  storage.Driver
	metrics *metrics.Metrics
	mcp     *mcp.Server
	logger  *zap.Logger
	app     *fiber.App
}

// NewServer creates a new API server.
func NewServer(config Config, pipe *pipeline.Pipeline, driver storage.Driver, m *metrics.Metrics, logger *zap.Logger) (*Server, error) {
	if pipe == nil {
		return nil, errors.New("pipeline is required")
	}
	if driver == nil {
		return nil, errors.New("storage driver is required")
	}
	if logger == nil {
		return nil, errors.New("logger is required")
	}

	mcpServer, err := mcp.NewServer(mcp.Config{
		Pipeline: pipe,
		Noop:     config.DisableMCP,
		Logger:   logger,
	})
	if err != nil {
		return nil, err
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		config:  config,
		pipe:    pipe,
		driver:  driver,
		metrics: m,
		mcp:     mcpServer,
		logger:  logger,
		app:     app,
	}

	app.Get("/ping", s.handlePing)
	app.Get("/conversation", s.handleGetConversation)
	app.Delete("/conversation", s.handleClearConversation)
	app.Get("/transcript", s.handleListTranscript)
	app.Get("/transcript/:id", s.handleGetTranscript)
	app.Get("/metrics", adaptor.HTTPHandler(m.Handler()))
	app.All("/mcp", adaptor.HTTPHandler(mcpServer.Handler()))

	return s, nil
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server",
		zap.String("listen", s.config.ListenAddr),
	)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
