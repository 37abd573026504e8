package search

import (
	"context"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/papercomputeco/pearl/pkg/metrics"
)

const (
	// DefaultPrefix is the explicit search directive a user can lead with.
	DefaultPrefix = "search:"

	// DefaultNumResults is the number of results requested per lookup.
	DefaultNumResults = 3
)

// DefaultTriggerTerms are words that suggest a query needs fresh data.
var DefaultTriggerTerms = []string{
	"price",
	"cost",
	"bitcoin",
	"btc",
	"ethereum",
	"crypto",
	"stock",
	"market",
	"exchange rate",
	"currency",
	"usd",
	"eur",
	"weather",
	"forecast",
	"temperature",
	"news",
	"headlines",
}

// Config configures a Decider.
type Config struct {
	// Prefix is the case-insensitive search directive. Defaults to "search:".
	Prefix string

	// TriggerTerms are case-insensitive whole words or phrases that force a
	// lookup. A plural "s" or "es" suffix also matches. Defaults to
	// DefaultTriggerTerms when nil.
	TriggerTerms []string

	// NumResults is passed to the Searcher. Defaults to 3.
	NumResults int

	// Searcher performs the lookup. A nil Searcher disables web context.
	Searcher Searcher

	Logger  *zap.Logger
	Metrics *metrics.Metrics
}

// Decider decides whether a query needs web context and, if so, fetches and
// reduces it into a Fact.
type Decider struct {
	prefix     string
	triggers   *regexp.Regexp
	numResults int
	searcher   Searcher
	logger     *zap.Logger
	metrics    *metrics.Metrics
}

// NewDecider creates a new Decider.
func NewDecider(cfg Config) *Decider {
	d := &Decider{
		prefix:     strings.ToLower(strings.TrimSpace(cfg.Prefix)),
		numResults: cfg.NumResults,
		searcher:   cfg.Searcher,
		logger:     cfg.Logger,
		metrics:    cfg.Metrics,
	}
	if d.prefix == "" {
		d.prefix = DefaultPrefix
	}
	if d.numResults <= 0 {
		d.numResults = DefaultNumResults
	}
	if d.logger == nil {
		d.logger = zap.NewNop()
	}

	terms := cfg.TriggerTerms
	if terms == nil {
		terms = DefaultTriggerTerms
	}
	d.triggers = compileTriggers(terms)

	return d
}

// compileTriggers builds one case-insensitive, word-bounded alternation so
// "eur" never fires inside "Europe". Returns nil when no term is usable.
func compileTriggers(terms []string) *regexp.Regexp {
	alts := make([]string, 0, len(terms))
	for _, t := range terms {
		t = strings.TrimSpace(t)
		if t != "" {
			alts = append(alts, regexp.QuoteMeta(t))
		}
	}
	if len(alts) == 0 {
		return nil
	}
	return regexp.MustCompile(`(?i)\b(?:` + strings.Join(alts, "|") + `)(?:e?s)?\b`)
}

// Enabled reports whether a Searcher is configured.
func (d *Decider) Enabled() bool {
	return d.searcher != nil
}

// ShouldSearch reports whether the query triggers a lookup and returns the
// query to send, with any directive prefix stripped.
func (d *Decider) ShouldSearch(query string) (string, bool) {
	trimmed := strings.TrimSpace(query)
	lower := strings.ToLower(trimmed)

	if strings.HasPrefix(lower, d.prefix) {
		return strings.TrimSpace(trimmed[len(d.prefix):]), true
	}

	if d.triggers != nil && d.triggers.MatchString(trimmed) {
		return trimmed, true
	}

	return "", false
}

// Decide returns the reduced Fact for the query. The bool is false when no
// lookup was needed. Lookup failures never surface as errors; they become a
// Fact with CategoryError.
func (d *Decider) Decide(ctx context.Context, query string) (Fact, bool) {
	q, ok := d.ShouldSearch(query)
	if !ok || !d.Enabled() {
		return Fact{}, false
	}

	fact := d.lookup(ctx, q)

	d.metrics.ObserveSearchFact(string(fact.Category))
	d.logger.Debug("search fact",
		zap.String("query", q),
		zap.String("category", string(fact.Category)),
	)

	return fact, true
}

func (d *Decider) lookup(ctx context.Context, q string) Fact {
	if q == "" {
		return Fact{Category: CategoryNoResult, Text: NoResultText}
	}

	payload, err := d.searcher.Search(ctx, q, d.numResults)
	if err != nil {
		d.logger.Warn("search request failed", zap.String("query", q), zap.Error(err))
		return Fact{Category: CategoryError, Text: ErrorText}
	}

	fact, err := Reduce(payload)
	if err != nil {
		d.logger.Warn("search response unusable", zap.String("query", q), zap.Error(err))
		return Fact{Category: CategoryError, Text: ErrorText}
	}

	return fact
}
