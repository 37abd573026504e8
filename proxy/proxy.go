// Package proxy provides the pearl HTTP front end: a single POST /generate
// endpoint that runs each prompt through the request pipeline.
package proxy

import (
	"encoding/json"
	"errors"
	"net"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"go.uber.org/zap"

	"github.com/papercomputeco/pearl/pkg/llm"
	"github.com/papercomputeco/pearl/pkg/pipeline"
	"github.com/papercomputeco/pearl/pkg/storage"
	"github.com/papercomputeco/pearl/pkg/utils"
	"github.com/papercomputeco/pearl/proxy/header"
	"github.com/papercomputeco/pearl/proxy/worker"
)

const (
	generatePath = "/generate"

	errUpstream = "Failed to communicate with upstream generation backend"
	errInternal = "Internal server error"
)

// GenerateRequest is the /generate request body. Unknown fields are ignored.
type GenerateRequest struct {
	Prompt string `json:"prompt"`
}

// GenerateResponse is the /generate success body.
type GenerateResponse struct {
	Response      string `json:"response"`
	Model         string `json:"model"`
	ContextLength int    `json:"context_length"`
	HasWebContext bool   `json:"has_web_context"`
}

// Proxy is the front end server. Each answered exchange is enqueued for
// async transcript storage and event publishing via its worker pool.
type Proxy struct {
	config        Config
	pipeline      *pipeline.Pipeline
	workerPool    *worker.Pool
	logger        *zap.Logger
	server        *fiber.App
	headerHandler *header.Handler
}

// New creates a new Proxy.
// The driver is injected to handle async persistence of transcripts and may
// be nil to disable them.
func New(config Config, pipe *pipeline.Pipeline, driver storage.Driver, logger *zap.Logger) (*Proxy, error) {
	if pipe == nil {
		return nil, errors.New("pipeline is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.AllowOrigins == "" {
		config.AllowOrigins = "*"
	}

	app := fiber.New(fiber.Config{
		// Disable startup message for cleaner logs
		DisableStartupMessage: true,
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins: config.AllowOrigins,
		AllowMethods: "POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept",
	}))

	// Add compression middleware to handle responses
	app.Use(compress.New())

	wp, err := worker.NewPool(&worker.Config{
		Driver:    driver,
		Publisher: config.Publisher,
		Logger:    logger,
	})
	if err != nil {
		return nil, err
	}

	p := &Proxy{
		config:        config,
		pipeline:      pipe,
		workerPool:    wp,
		logger:        logger,
		server:        app,
		headerHandler: header.NewHandler(),
	}

	app.Post(generatePath, p.handleGenerate)

	return p, nil
}

// Run starts the front end on the configured listening address
func (p *Proxy) Run() error {
	p.logger.Info("starting pearl front end",
		zap.String("listen", p.config.ListenAddr),
		zap.String("upstream", p.config.UpstreamURL),
		zap.String("model", p.pipeline.Model()),
	)

	return p.server.Listen(p.config.ListenAddr)
}

// RunWithListener starts the front end using the provided listener.
func (p *Proxy) RunWithListener(listener net.Listener) error {
	p.logger.Info("starting pearl front end",
		zap.String("listen", listener.Addr().String()),
		zap.String("upstream", p.config.UpstreamURL),
		zap.String("model", p.pipeline.Model()),
	)

	return p.server.Listener(listener)
}

// Close gracefully shuts down the server and waits for the worker pool to drain
func (p *Proxy) Close() error {
	err := p.server.Shutdown()
	p.workerPool.Close()
	return err
}

// handleGenerate runs one prompt through the pipeline and maps the outcome
// onto the HTTP contract.
func (p *Proxy) handleGenerate(c *fiber.Ctx) error {
	startTime := time.Now()

	// Invalid JSON and a missing prompt both reach the pipeline as an empty
	// prompt, which it rejects as a validation error.
	var req GenerateRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		p.logger.Debug("invalid generate request body", zap.Error(err))
		req.Prompt = ""
	}

	p.logger.Debug("generate request",
		zap.String("prompt", utils.Truncate(req.Prompt, 80)),
	)

	res, err := p.pipeline.Handle(c.UserContext(), req.Prompt)
	if err != nil {
		status, body := p.errorResponse(err)
		p.config.Metrics.ObserveRequest(status)
		return c.Status(status).JSON(body)
	}

	p.headerHandler.SetResultHeaders(c, res)
	p.config.Metrics.ObserveRequest(fiber.StatusOK)

	p.workerPool.Enqueue(worker.Job{
		Provider:   p.config.ProviderType,
		Path:       c.Path(),
		HTTPStatus: fiber.StatusOK,
		Result:     res,
	})

	p.logger.Debug("generate response",
		zap.String("request_id", res.ID),
		zap.Bool("has_web_context", res.HasWebContext()),
		zap.Int("context_length", res.ContextLength),
		zap.Duration("duration", time.Since(startTime)),
	)

	return c.JSON(GenerateResponse{
		Response:      res.Response,
		Model:         res.Model,
		ContextLength: res.ContextLength,
		HasWebContext: res.HasWebContext(),
	})
}

// errorResponse maps a pipeline error onto a status code and stable body.
func (p *Proxy) errorResponse(err error) (int, llm.ErrorResponse) {
	var (
		validation *pipeline.ValidationError
		upstream   *pipeline.UpstreamError
	)

	switch {
	case errors.As(err, &validation):
		return fiber.StatusBadRequest, llm.ErrorResponse{Error: validation.Reason}

	case errors.As(err, &upstream):
		p.logger.Warn("generation backend unavailable", zap.Error(err))
		return fiber.StatusServiceUnavailable, llm.ErrorResponse{
			Error:   errUpstream,
			Details: upstream.Err.Error(),
		}

	default:
		p.logger.Error("generate request failed", zap.Error(err))
		return fiber.StatusInternalServerError, llm.ErrorResponse{
			Error:   errInternal,
			Details: err.Error(),
		}
	}
}
