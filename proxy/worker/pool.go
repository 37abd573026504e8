// Package worker provides an asynchronous worker pool for recording answered
// exchanges to the transcript storage.Driver and the eventstream.Publisher.
//
// The pool keeps audit writes off the /generate hot path: a slow database or
// broker never delays a reply, and a failed write never fails one.
package worker

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/papercomputeco/pearl/pkg/eventstream"
	"github.com/papercomputeco/pearl/pkg/pipeline"
	"github.com/papercomputeco/pearl/pkg/storage"
)

var (
	defaultNumWorkers   uint = 3
	defaultJobQueueSize uint = 256
	defaultJobTimeout        = 30 * time.Second
)

// Job is a unit of work for the worker pool to execute against.
type Job struct {
	Provider   string
	Path       string
	HTTPStatus int
	Result     *pipeline.Result
}

// Config is the configuration options for the worker pool.
type Config struct {
	// Driver is the optional transcript storage backend.
	Driver storage.Driver

	// Publisher is the optional event stream publisher.
	Publisher eventstream.Publisher

	// NumWorkers is the number of background workers in the pool.
	NumWorkers uint

	// QueueSize is the capacity of the buffered job channel (defaults to 256).
	QueueSize uint

	// Logger is the provided zap logger
	Logger *zap.Logger
}

// Pool processes audit jobs asynchronously via a worker pool.
type Pool struct {
	config *Config
	queue  chan Job
	wg     sync.WaitGroup
	logger *zap.Logger
}

// NewPool creates a new Pool and starts its worker goroutines.
func NewPool(c *Config) (*Pool, error) {
	if c.NumWorkers == 0 {
		c.NumWorkers = defaultNumWorkers
	}

	if c.QueueSize == 0 {
		c.QueueSize = defaultJobQueueSize
	}

	if c.NumWorkers > uint(math.MaxInt) {
		return nil, fmt.Errorf("NumWorkers %d exceeds max int", c.NumWorkers)
	}

	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}

	wp := &Pool{
		config: c,
		queue:  make(chan Job, c.QueueSize),
		logger: c.Logger,
	}

	wp.wg.Add(int(c.NumWorkers))
	for i := range c.NumWorkers {
		go wp.worker(i)
	}

	return wp, nil
}

// Enqueue submits a job for processing by the worker pool.
// Returns true if enqueued, false if the queue is full, resulting in the job being dropped
func (p *Pool) Enqueue(job Job) bool {
	if job.Result == nil {
		return false
	}

	select {
	case p.queue <- job:
		p.logger.Debug("job queued",
			zap.String("request_id", job.Result.ID),
			zap.String("model", job.Result.Model),
		)
		return true
	default:
		p.logger.Error("job not queued, queue full, job dropped",
			zap.String("request_id", job.Result.ID),
			zap.String("model", job.Result.Model),
		)
		return false
	}
}

// Close signals workers to stop and waits for in-flight jobs to drain.
// Call this during graceful shutdown after the HTTP server has stopped.
func (p *Pool) Close() {
	close(p.queue)
	p.wg.Wait()
}

// worker is the inner worker thread that continuously pulls jobs off the jobs queue
func (p *Pool) worker(id uint) {
	defer p.wg.Done()
	p.logger.Debug("worker started", zap.Uint("worker_id", id))

	for job := range p.queue {
		p.processJob(job)
	}

	p.logger.Debug("audit worker stopped", zap.Uint("worker_id", id))
}

// processJob records the exchange to storage and publishes its event.
// The two sinks are independent: a storage failure does not skip the event.
func (p *Pool) processJob(job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultJobTimeout)
	defer cancel()

	res := job.Result

	if p.config.Driver != nil {
		isNew, err := p.config.Driver.Put(ctx, NewRecord(res))
		if err != nil {
			p.logger.Error("async transcript storage failed",
				zap.String("request_id", res.ID),
				zap.Error(err),
			)
		} else {
			p.logger.Debug("transcript stored",
				zap.String("request_id", res.ID),
				zap.Bool("is_new", isNew),
			)
		}
	}

	if p.config.Publisher != nil {
		if err := p.config.Publisher.PublishExchange(ctx, NewEvent(job)); err != nil {
			p.logger.Warn("exchange event publish failed",
				zap.String("request_id", res.ID),
				zap.Error(err),
			)
		}
	}
}

// NewRecord converts a pipeline result into a transcript record.
func NewRecord(res *pipeline.Result) *storage.Record {
	rec := &storage.Record{
		ID:            res.ID,
		Prompt:        res.Prompt,
		Response:      res.Response,
		Model:         res.Model,
		HasWebContext: res.HasWebContext(),
		ContextLength: res.ContextLength,
		StartedAt:     res.StartedAt.UTC(),
		DurationMs:    res.Duration.Milliseconds(),
	}
	if res.Fact != nil {
		rec.FactCategory = string(res.Fact.Category)
	}
	return rec
}

// NewEvent converts a job into an exchange event.
func NewEvent(job Job) *eventstream.ExchangeCompletedEvent {
	res := job.Result

	body := eventstream.ExchangeBody{
		Prompt:        res.Prompt,
		Response:      res.Response,
		HasWebContext: res.HasWebContext(),
		ContextLength: res.ContextLength,
	}
	if res.Fact != nil {
		body.FactCategory = string(res.Fact.Category)
	}

	return eventstream.NewExchangeCompletedEvent(
		eventstream.EventSource{
			Service:  "pearl",
			Provider: job.Provider,
			Model:    res.Model,
		},
		eventstream.RequestMeta{
			RequestID:   res.ID,
			Path:        job.Path,
			StartedAt:   res.StartedAt.UTC(),
			CompletedAt: res.StartedAt.Add(res.Duration).UTC(),
			DurationMs:  res.Duration.Milliseconds(),
			HTTPStatus:  job.HTTPStatus,
		},
		body,
	)
}
