package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/papercomputeco/pearl/pkg/llm"
)

const (
	defaultBaseURL = "http://localhost:11434"
	generatePath   = "/api/generate"
)

// TransportError reports a failure to reach the backend or a non-2xx reply.
// It is the only error the pipeline maps to 503.
type TransportError struct {
	// StatusCode is the HTTP status returned by the backend, 0 when the
	// request never got a response.
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("ollama status %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("ollama request failed: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Client calls the Ollama generate endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a new Client. An empty baseURL defaults to localhost:11434 and a
// zero timeout defaults to 5 minutes.
func New(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if timeout <= 0 {
		// LLM requests can be slow, especially on cold model loads
		timeout = 5 * time.Minute
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *Client) Name() string {
	return "ollama"
}

// Generate issues a single non-streaming generate call.
func (c *Client) Generate(ctx context.Context, req llm.GenerationRequest) (*llm.GenerationResponse, error) {
	payload, err := json.Marshal(toGenerateRequest(req))
	if err != nil {
		return nil, fmt.Errorf("marshal ollama request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+generatePath, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create ollama request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return nil, &TransportError{
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("%s", strings.TrimSpace(string(body))),
		}
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode ollama response: %w", err)
	}
	if out.Error != "" {
		return nil, fmt.Errorf("ollama error: %s", out.Error)
	}

	return fromGenerateResponse(out), nil
}

func toGenerateRequest(req llm.GenerationRequest) generateRequest {
	p := req.Params
	opts := &ollamaOptions{
		Temperature: &p.Temperature,
		TopP:        &p.TopP,
		Stop:        req.Stop,
	}
	if p.TopK > 0 {
		opts.TopK = &p.TopK
	}
	if p.MaxTokens > 0 {
		opts.NumPredict = &p.MaxTokens
	}
	if p.RepeatPenalty != 0 {
		opts.RepeatPenalty = &p.RepeatPenalty
	}
	if p.PresencePenalty != 0 {
		opts.PresencePenalty = &p.PresencePenalty
	}
	if p.FrequencyPenalty != 0 {
		opts.FrequencyPenalty = &p.FrequencyPenalty
	}

	return generateRequest{
		Model:   req.Model,
		Prompt:  req.Prompt,
		Stream:  false,
		Options: opts,
		Context: req.Context,
	}
}

func fromGenerateResponse(resp generateResponse) *llm.GenerationResponse {
	var usage *llm.Usage
	if resp.PromptEvalCount > 0 || resp.EvalCount > 0 || resp.TotalDuration > 0 {
		usage = &llm.Usage{
			PromptTokens:     resp.PromptEvalCount,
			CompletionTokens: resp.EvalCount,
			TotalTokens:      resp.PromptEvalCount + resp.EvalCount,
			TotalDurationNs:  resp.TotalDuration,
			PromptDurationNs: resp.PromptEvalDuration,
		}
	}

	return &llm.GenerationResponse{
		Model:     resp.Model,
		Text:      resp.Response,
		Context:   resp.Context,
		Done:      resp.Done,
		Usage:     usage,
		CreatedAt: resp.CreatedAt,
	}
}
