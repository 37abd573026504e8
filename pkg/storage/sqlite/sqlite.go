// Package sqlite provides a SQLite-backed transcript driver.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/papercomputeco/pearl/pkg/storage/sqldriver"
)

var schema = []string{`
CREATE TABLE IF NOT EXISTS transcripts (
	id              TEXT PRIMARY KEY,
	prompt          TEXT NOT NULL,
	response        TEXT NOT NULL,
	model           TEXT NOT NULL,
	fact_category   TEXT NOT NULL DEFAULT '',
	has_web_context BOOLEAN NOT NULL DEFAULT 0,
	context_length  INTEGER NOT NULL DEFAULT 0,
	started_at      DATETIME NOT NULL,
	duration_ms     INTEGER NOT NULL DEFAULT 0
)`,
	`CREATE INDEX IF NOT EXISTS transcripts_started_at ON transcripts (started_at)`,
}

// SQLiteDriver implements storage.Driver using SQLite.
type SQLiteDriver struct {
	*sqldriver.Driver
}

// NewSQLiteDriver creates a new SQLite-backed driver.
// The dbPath can be a file path or ":memory:" for an in-memory database.
func NewSQLiteDriver(dbPath string) (*SQLiteDriver, error) {
	// Open the database using the github.com/mattn/go-sqlite3 driver (registered as "sqlite3")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Every connection to ":memory:" is a separate database
	db.SetMaxOpenConns(1)

	drv := &sqldriver.Driver{
		DB: db,
		Dialect: sqldriver.Dialect{
			Name:        "sqlite",
			Placeholder: func(int) string { return "?" },
			Schema:      schema,
		},
	}

	if err := drv.Migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteDriver{Driver: drv}, nil
}
