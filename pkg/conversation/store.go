// Package conversation holds the bounded window of recent turns that is
// re-injected into prompts on backward-referencing queries.
package conversation

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/papercomputeco/pearl/pkg/llm"
	"github.com/papercomputeco/pearl/pkg/metrics"
)

const (
	// DefaultCapacity is the window size used when none is configured.
	DefaultCapacity = 10

	// MinCapacity is the smallest usable window: a summary plus one exchange.
	MinCapacity = 3

	// PlaceholderSummary replaces a summary that could not be generated.
	PlaceholderSummary = "Previous topics: general conversation"

	summaryPrefix = "Summary: "
)

// Config configures a Store.
type Config struct {
	// Capacity is the maximum number of turns held. Values below MinCapacity
	// are raised to it; zero means DefaultCapacity.
	Capacity int

	// Summarizer compresses the window on overflow. When nil the placeholder
	// summary is always used.
	Summarizer Summarizer

	Logger  *zap.Logger
	Metrics *metrics.Metrics
}

// Store is a thread-safe, bounded, ordered window of turns.
// The zero value is not usable; construct with NewStore.
type Store struct {
	mu    sync.RWMutex
	turns []llm.Turn

	capacity   int
	summarizer Summarizer
	logger     *zap.Logger
	metrics    *metrics.Metrics
}

// NewStore creates an empty Store.
func NewStore(cfg Config) *Store {
	capacity := cfg.Capacity
	switch {
	case capacity == 0:
		capacity = DefaultCapacity
	case capacity < MinCapacity:
		capacity = MinCapacity
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Store{
		turns:      make([]llm.Turn, 0, capacity),
		capacity:   capacity,
		summarizer: cfg.Summarizer,
		logger:     logger,
		metrics:    cfg.Metrics,
	}
}

// Capacity returns the configured window size.
func (s *Store) Capacity() int {
	return s.capacity
}

// Len returns the number of turns currently held.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.turns)
}

// Turns returns a copy of the window, oldest first.
func (s *Store) Turns() []llm.Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]llm.Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

// Append adds a turn. If the window is full it is first collapsed into a
// single summary turn, so the length never exceeds the capacity.
func (s *Store) Append(ctx context.Context, turn llm.Turn) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.turns)+1 > s.capacity {
		s.collapseLocked(ctx)
	}
	s.turns = append(s.turns, turn)
	s.metrics.SetWindowSize(len(s.turns))
}

// MaybeSummarize collapses the window when it is within one turn of its
// capacity. It reports whether a collapse happened.
func (s *Store) MaybeSummarize(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.turns) < s.capacity-1 {
		return false
	}
	s.collapseLocked(ctx)
	s.metrics.SetWindowSize(len(s.turns))
	return true
}

// Clear drops every turn.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.turns = s.turns[:0]
	s.metrics.SetWindowSize(0)
}

// FormattedContext renders the most recent turns for prompt injection.
func (s *Store) FormattedContext() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return FormatTurns(s.turns)
}

// collapseLocked replaces the window with one summary turn. s.mu must be held.
// A summarizer error or an empty summary falls back to the placeholder.
func (s *Store) collapseLocked(ctx context.Context) {
	if len(s.turns) == 0 {
		return
	}

	text := ""
	if s.summarizer != nil {
		summary, err := s.summarizer.Summarize(ctx, s.turns)
		if err != nil {
			s.logger.Warn("conversation summarization failed, using placeholder", zap.Error(err))
		} else {
			text = strings.TrimSpace(summary)
		}
	}

	fallback := text == ""
	if fallback {
		text = PlaceholderSummary
	}
	s.metrics.ObserveSummarization(fallback)

	s.logger.Debug("conversation window collapsed",
		zap.Int("turns", len(s.turns)),
		zap.Bool("placeholder", fallback),
	)

	s.turns = append(s.turns[:0], llm.NewAssistantTurn(summaryPrefix+text))
}
