// Package sqldriver implements storage.Driver over database/sql. The sqlite
// and postgres packages embed it and supply the connection and dialect.
package sqldriver

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/papercomputeco/pearl/pkg/storage"
)

// Dialect captures the SQL differences between backends.
type Dialect struct {
	// Name is used in error messages.
	Name string

	// Placeholder renders the n-th (1-based) bind parameter.
	Placeholder func(n int) string

	// Schema statements create the transcript table if it is missing.
	Schema []string
}

// Driver implements storage.Driver on a *sql.DB.
type Driver struct {
	DB      *sql.DB
	Dialect Dialect
}

// Migrate applies the dialect's schema.
func (d *Driver) Migrate(ctx context.Context) error {
	for _, stmt := range d.Dialect.Schema {
		if _, err := d.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create %s schema: %w", d.Dialect.Name, err)
		}
	}
	return nil
}

func (d *Driver) bind(query string) string {
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString(d.Dialect.Placeholder(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Put stores a record. Returns false if the ID already exists.
func (d *Driver) Put(ctx context.Context, rec *storage.Record) (bool, error) {
	if rec == nil {
		return false, errors.New("cannot store nil record")
	}

	res, err := d.DB.ExecContext(ctx, d.bind(`
		INSERT INTO transcripts
			(id, prompt, response, model, fact_category, has_web_context, context_length, started_at, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO NOTHING`),
		rec.ID,
		rec.Prompt,
		rec.Response,
		rec.Model,
		rec.FactCategory,
		rec.HasWebContext,
		rec.ContextLength,
		rec.StartedAt.UTC(),
		rec.DurationMs,
	)
	if err != nil {
		return false, fmt.Errorf("insert transcript: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert transcript: %w", err)
	}
	return n > 0, nil
}

// Get retrieves a record by ID.
func (d *Driver) Get(ctx context.Context, id string) (*storage.Record, error) {
	row := d.DB.QueryRowContext(ctx, d.bind(selectColumns+` WHERE id = ?`), id)

	rec, err := scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound{ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("get transcript: %w", err)
	}
	return rec, nil
}

// List returns up to limit records, newest first.
func (d *Driver) List(ctx context.Context, limit int) ([]*storage.Record, error) {
	rows, err := d.DB.QueryContext(ctx,
		d.bind(selectColumns+` ORDER BY started_at DESC, id DESC LIMIT ?`),
		storage.NormalizeLimit(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("list transcripts: %w", err)
	}
	defer rows.Close()

	var out []*storage.Record
	for rows.Next() {
		rec, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("list transcripts: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list transcripts: %w", err)
	}
	return out, nil
}

// Close closes the underlying database.
func (d *Driver) Close() error {
	return d.DB.Close()
}

const selectColumns = `
	SELECT id, prompt, response, model, fact_category, has_web_context, context_length, started_at, duration_ms
	FROM transcripts`

type scanner interface {
	Scan(dest ...any) error
}

func scan(s scanner) (*storage.Record, error) {
	var (
		rec       storage.Record
		startedAt time.Time
	)
	err := s.Scan(
		&rec.ID,
		&rec.Prompt,
		&rec.Response,
		&rec.Model,
		&rec.FactCategory,
		&rec.HasWebContext,
		&rec.ContextLength,
		&startedAt,
		&rec.DurationMs,
	)
	if err != nil {
		return nil, err
	}
	rec.StartedAt = startedAt.UTC()
	return &rec, nil
}
