package testutils

import "context"

// BitcoinAnswerBox is a search payload whose answer box holds a BTC price
const BitcoinAnswerBox = `{"answerBox":{"title":"1 Bitcoin =","answer":"84,531.40 United States Dollar"}}`

// MockSearcher is a test searcher that returns a fixed payload
type MockSearcher struct {
	Payload string
	Err     error
}

func (m *MockSearcher) Search(_ context.Context, _ string, _ int) ([]byte, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return []byte(m.Payload), nil
}
