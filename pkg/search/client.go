package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/avast/retry-go/v4"
)

const (
	defaultSerperEndpoint = "https://google.serper.dev/search"
	apiKeyHeader          = "X-API-KEY"
)

// Searcher issues a web search and returns the provider's raw JSON document.
type Searcher interface {
	Search(ctx context.Context, query string, num int) ([]byte, error)
}

// SerperOpts configures a SerperClient.
type SerperOpts struct {
	// Endpoint overrides the search URL (defaults to google.serper.dev).
	Endpoint string

	// APIKey is sent in the X-API-KEY header.
	APIKey string

	// Timeout bounds each HTTP attempt (defaults to 15s).
	Timeout time.Duration

	// Attempts is the total number of tries for transient failures (defaults to 2).
	Attempts uint

	// RetryDelay is the base backoff between attempts (defaults to 250ms).
	RetryDelay time.Duration
}

// SerperClient is a Searcher backed by the Serper Google search API.
type SerperClient struct {
	endpoint   string
	apiKey     string
	attempts   uint
	retryDelay time.Duration
	httpClient *http.Client
}

type serperRequest struct {
	Q   string `json:"q"`
	Num int    `json:"num"`
}

// statusError is a non-2xx reply from the search provider.
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("search provider status %d: %s", e.code, e.body)
}

// NewSerperClient creates a new SerperClient.
func NewSerperClient(opts *SerperOpts) *SerperClient {
	c := &SerperClient{
		endpoint:   opts.Endpoint,
		apiKey:     opts.APIKey,
		attempts:   opts.Attempts,
		retryDelay: opts.RetryDelay,
	}
	if c.endpoint == "" {
		c.endpoint = defaultSerperEndpoint
	}
	if c.attempts == 0 {
		c.attempts = 2
	}
	if c.retryDelay <= 0 {
		c.retryDelay = 250 * time.Millisecond
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	c.httpClient = &http.Client{Timeout: timeout}

	return c
}

// Search posts {q, num} to the provider. Network errors and 5xx replies are
// retried; anything else fails immediately.
func (c *SerperClient) Search(ctx context.Context, query string, num int) ([]byte, error) {
	payload, err := json.Marshal(serperRequest{Q: query, Num: num})
	if err != nil {
		return nil, fmt.Errorf("marshal search request: %w", err)
	}

	return retry.DoWithData(
		func() ([]byte, error) {
			return c.do(ctx, payload)
		},
		retry.Context(ctx),
		retry.Attempts(c.attempts),
		retry.Delay(c.retryDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(isTransient),
	)
}

func (c *SerperClient) do(ctx context.Context, payload []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, retry.Unrecoverable(fmt.Errorf("create search request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(apiKeyHeader, c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send search request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read search response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &statusError{code: resp.StatusCode, body: string(body)}
	}

	return body, nil
}

func isTransient(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		return se.code >= http.StatusInternalServerError
	}
	return true
}
