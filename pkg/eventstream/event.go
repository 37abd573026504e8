package eventstream

import (
	"time"

	"github.com/google/uuid"
)

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeExchangeCompleted is emitted after a request has been answered.
	EventTypeExchangeCompleted = "pearl.exchange.completed"
)

// ExchangeCompletedEvent is a transport-neutral event payload for one
// answered request.
type ExchangeCompletedEvent struct {
	SchemaVersion int          `json:"schema_version"`
	EventType     string       `json:"event_type"`
	EventID       string       `json:"event_id"`
	EmittedAt     time.Time    `json:"emitted_at"`
	Source        EventSource  `json:"source"`
	RequestMeta   RequestMeta  `json:"request_meta"`
	Exchange      ExchangeBody `json:"exchange"`
}

// EventSource identifies where the exchange originated.
type EventSource struct {
	Service  string `json:"service"`
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

// RequestMeta captures request lifecycle metadata for the event.
type RequestMeta struct {
	RequestID   string    `json:"request_id"`
	Path        string    `json:"path,omitempty"`
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`
	DurationMs  int64     `json:"duration_ms"`
	HTTPStatus  int       `json:"http_status"`
}

// ExchangeBody is the prompt and sanitized response.
type ExchangeBody struct {
	Prompt        string `json:"prompt"`
	Response      string `json:"response"`
	FactCategory  string `json:"fact_category,omitempty"`
	HasWebContext bool   `json:"has_web_context"`
	ContextLength int    `json:"context_length"`
}

// NewExchangeCompletedEvent stamps a fresh event ID and emission time onto
// the given payload parts.
func NewExchangeCompletedEvent(source EventSource, meta RequestMeta, body ExchangeBody) *ExchangeCompletedEvent {
	return &ExchangeCompletedEvent{
		SchemaVersion: SchemaVersionV1,
		EventType:     EventTypeExchangeCompleted,
		EventID:       "evt_" + uuid.NewString(),
		EmittedAt:     time.Now().UTC(),
		Source:        source,
		RequestMeta:   meta,
		Exchange:      body,
	}
}
