package testutils

import (
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/pearl/pkg/storage"
)

// NewTestRecord creates a transcript record for testing
func NewTestRecord(prompt string, startedAt time.Time) *storage.Record {
	return &storage.Record{
		ID:            uuid.NewString(),
		Prompt:        prompt,
		Response:      "reply to " + prompt,
		Model:         "test-model",
		ContextLength: 2,
		StartedAt:     startedAt.UTC().Truncate(time.Millisecond),
		DurationMs:    42,
	}
}
