package testutils

import (
	"context"
	"sync"

	"github.com/papercomputeco/pearl/pkg/llm"
)

// MockGenerator is a test generator that replies with a fixed text
type MockGenerator struct {
	mu       sync.Mutex
	requests []llm.GenerationRequest

	// Reply is returned as the generated text
	Reply string

	// Err causes Generate to fail
	Err error
}

func NewMockGenerator(reply string) *MockGenerator {
	return &MockGenerator{Reply: reply}
}

func (m *MockGenerator) Name() string {
	return "mock"
}

func (m *MockGenerator) Generate(_ context.Context, req llm.GenerationRequest) (*llm.GenerationResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests = append(m.requests, req)
	if m.Err != nil {
		return nil, m.Err
	}

	return &llm.GenerationResponse{Model: req.Model, Text: m.Reply, Done: true}, nil
}

// Requests returns every request received so far
func (m *MockGenerator) Requests() []llm.GenerationRequest {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]llm.GenerationRequest, len(m.requests))
	copy(out, m.requests)
	return out
}
