// Package storage persists a write-only audit log of completed exchanges.
// Records are never read back into the live conversation.
package storage

import (
	"context"
	"time"
)

// DefaultListLimit caps List when no limit is given.
const DefaultListLimit = 50

// Record is one completed request/response exchange.
type Record struct {
	ID            string    `json:"id"`
	Prompt        string    `json:"prompt"`
	Response      string    `json:"response"`
	Model         string    `json:"model"`
	FactCategory  string    `json:"fact_category,omitempty"`
	HasWebContext bool      `json:"has_web_context"`
	ContextLength int       `json:"context_length"`
	StartedAt     time.Time `json:"started_at"`
	DurationMs    int64     `json:"duration_ms"`
}

// Driver defines the interface for persisting and reading transcript records.
type Driver interface {
	// Put stores a record. Returns true if the record was newly inserted,
	// false if a record with the same ID already exists.
	Put(ctx context.Context, rec *Record) (bool, error)

	// Get retrieves a record by its ID.
	Get(ctx context.Context, id string) (*Record, error)

	// List returns up to limit records, newest first. A limit <= 0 uses
	// DefaultListLimit.
	List(ctx context.Context, limit int) ([]*Record, error)

	// Close closes the store and releases any resources.
	Close() error
}

// NormalizeLimit applies DefaultListLimit to non-positive limits.
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	return limit
}
