// Package pipeline runs one user query through search, prompt assembly,
// generation, sanitization and conversation storage.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/papercomputeco/pearl/pkg/conversation"
	"github.com/papercomputeco/pearl/pkg/llm"
	"github.com/papercomputeco/pearl/pkg/llm/provider"
	"github.com/papercomputeco/pearl/pkg/llm/provider/ollama"
	"github.com/papercomputeco/pearl/pkg/metrics"
	"github.com/papercomputeco/pearl/pkg/prompt"
	"github.com/papercomputeco/pearl/pkg/sanitize"
	"github.com/papercomputeco/pearl/pkg/search"
)

// MsgNoPrompt is the validation failure for an empty query.
const MsgNoPrompt = "No prompt provided"

// Decider is the subset of search.Decider the pipeline needs.
type Decider interface {
	Decide(ctx context.Context, query string) (search.Fact, bool)
}

// Config wires a Pipeline's collaborators.
type Config struct {
	Decider   Decider
	Store     *conversation.Store
	Assembler *prompt.Assembler
	Persona   *prompt.PersonaHolder
	Generator provider.Generator
	Sanitizer *sanitize.Sanitizer

	Logger  *zap.Logger
	Metrics *metrics.Metrics
}

// Pipeline handles queries one at a time against a single conversation.
type Pipeline struct {
	// mu serializes everything from reading the conversation context to
	// storing the new exchange. Search runs outside it.
	mu sync.Mutex

	decider   Decider
	store     *conversation.Store
	assembler *prompt.Assembler
	persona   *prompt.PersonaHolder
	generator provider.Generator
	sanitizer *sanitize.Sanitizer
	logger    *zap.Logger
	metrics   *metrics.Metrics
}

// Result is the outcome of one request.
type Result struct {
	ID            string
	Prompt        string
	Response      string
	Model         string
	Fact          *search.Fact
	ContextLength int
	StartedAt     time.Time
	Duration      time.Duration

	// Trace lists every state the request passed through, in order.
	Trace []State
}

// HasWebContext reports whether a search returned usable content for the
// request.
func (r *Result) HasWebContext() bool {
	return r.Fact != nil && r.Fact.Informative()
}

// New creates a Pipeline.
func New(cfg Config) (*Pipeline, error) {
	switch {
	case cfg.Decider == nil:
		return nil, errors.New("pipeline: decider is required")
	case cfg.Store == nil:
		return nil, errors.New("pipeline: conversation store is required")
	case cfg.Assembler == nil:
		return nil, errors.New("pipeline: prompt assembler is required")
	case cfg.Generator == nil:
		return nil, errors.New("pipeline: generator is required")
	}

	persona := cfg.Persona
	if persona == nil {
		persona = prompt.NewPersonaHolder(prompt.DefaultPersona())
	}
	sanitizer := cfg.Sanitizer
	if sanitizer == nil {
		sanitizer = sanitize.New()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Pipeline{
		decider:   cfg.Decider,
		store:     cfg.Store,
		assembler: cfg.Assembler,
		persona:   persona,
		generator: cfg.Generator,
		sanitizer: sanitizer,
		logger:    logger,
		metrics:   cfg.Metrics,
	}, nil
}

// Store returns the conversation store the pipeline writes to.
func (p *Pipeline) Store() *conversation.Store {
	return p.store
}

// Model returns the model requests are sent to.
func (p *Pipeline) Model() string {
	return p.assembler.Model()
}

// Handle runs query through every state. On failure the returned Result
// still carries the trace up to FAILED, and the conversation is unchanged.
func (p *Pipeline) Handle(ctx context.Context, query string) (*Result, error) {
	res := &Result{
		ID:        uuid.NewString(),
		Prompt:    query,
		Model:     p.assembler.Model(),
		StartedAt: time.Now(),
	}
	log := p.logger.With(zap.String("request_id", res.ID))

	p.advance(log, res, StateReceived)
	if strings.TrimSpace(query) == "" {
		return p.fail(log, res, &ValidationError{Reason: MsgNoPrompt})
	}

	fact, found := p.decider.Decide(ctx, query)
	if found {
		res.Fact = &fact
	}
	p.advance(log, res, StateSearched)

	p.mu.Lock()
	defer p.mu.Unlock()

	history := ""
	if conversation.IsReferential(query) {
		history = p.store.FormattedContext()
	}
	p.advance(log, res, StateContextBuilt)

	req := p.assembler.Assemble(p.persona.Load(), query, res.Fact, history)
	p.advance(log, res, StatePromptBuilt)

	start := time.Now()
	resp, err := p.generator.Generate(ctx, req)
	p.metrics.ObserveGeneration(start, err)
	if err != nil {
		return p.fail(log, res, classify(err))
	}
	if resp.Model != "" {
		res.Model = resp.Model
	}
	p.advance(log, res, StateGenerated)

	res.Response = p.sanitizer.Clean(resp.Text)
	p.advance(log, res, StateSanitized)

	p.store.MaybeSummarize(ctx)
	p.store.Append(ctx, llm.NewUserTurn(query))
	p.store.Append(ctx, llm.NewAssistantTurn(res.Response))
	res.ContextLength = p.store.Len()
	p.advance(log, res, StateStored)

	res.Duration = time.Since(res.StartedAt)
	p.advance(log, res, StateResponded)

	return res, nil
}

func (p *Pipeline) advance(log *zap.Logger, res *Result, s State) {
	res.Trace = append(res.Trace, s)
	p.metrics.ObserveState(string(s))
	log.Debug("pipeline state", zap.String("state", string(s)))
}

func (p *Pipeline) fail(log *zap.Logger, res *Result, err error) (*Result, error) {
	res.Duration = time.Since(res.StartedAt)
	res.Trace = append(res.Trace, StateFailed)
	p.metrics.ObserveState(string(StateFailed))
	log.Debug("pipeline failed", zap.Error(err))
	return res, err
}

// classify maps a generation error onto the error taxonomy.
func classify(err error) error {
	var transportErr *ollama.TransportError
	if errors.As(err, &transportErr) {
		return &UpstreamError{Err: err}
	}
	return &InternalError{Err: fmt.Errorf("generation: %w", err)}
}
