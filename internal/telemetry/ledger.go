// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package telemetry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	ErrClosed        = errors.New("usage ledger closed")
	ErrDatabaseError = errors.New("database error")
)

// schema creates the ledger table. One row per stream that reported usage;
// stream_id is the natural key so re-recording the same stream is rejected.
const schema = `
CREATE TABLE IF NOT EXISTS usage (
    stream_id         TEXT PRIMARY KEY,
    provider          TEXT NOT NULL,
    model             TEXT NOT NULL,
    prompt_tokens     INTEGER NOT NULL,
    completion_tokens INTEGER NOT NULL,
    total_tokens      INTEGER NOT NULL,
    recorded_at       TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_usage_model ON usage(model);
`

// =============================================================================
// USAGE LEDGER
// =============================================================================

// UsageRecord is one row of the ledger.
type UsageRecord struct {
	StreamID         string
	Provider         string
	Model            string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	RecordedAt       time.Time
}

// ModelTotals aggregates usage across all recorded streams of one model.
type ModelTotals struct {
	Model            string
	Streams          int
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Ledger is a SQLite-backed usage store.
type Ledger struct {
	db *sql.DB
}

// Open opens (creating if needed) the ledger database at path.
func Open(path string) (*Ledger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create ledger directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &Ledger{db: db}, nil
}

// Close releases the database.
func (l *Ledger) Close() error {
	if l.db == nil {
		return nil
	}
	err := l.db.Close()
	l.db = nil
	return err
}

// Record inserts one usage row. A zero RecordedAt is filled with the
// current time. Recording the same stream id twice is an error.
func (l *Ledger) Record(ctx context.Context, rec UsageRecord) error {
	if l.db == nil {
		return ErrClosed
	}
	if rec.StreamID == "" {
		return errors.New("usage record requires a stream id")
	}
	if rec.RecordedAt.IsZero() {
		rec.RecordedAt = time.Now().UTC()
	}

	_, err := l.db.ExecContext(ctx, `
		INSERT INTO usage (stream_id, provider, model, prompt_tokens, completion_tokens, total_tokens, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.StreamID, rec.Provider, rec.Model,
		rec.PromptTokens, rec.CompletionTokens, rec.TotalTokens,
		rec.RecordedAt,
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	return nil
}

// TotalsByModel returns per-model aggregates, largest total first.
func (l *Ledger) TotalsByModel(ctx context.Context) ([]ModelTotals, error) {
	if l.db == nil {
		return nil, ErrClosed
	}

	rows, err := l.db.QueryContext(ctx, `
		SELECT model, COUNT(*), SUM(prompt_tokens), SUM(completion_tokens), SUM(total_tokens)
		FROM usage
		GROUP BY model
		ORDER BY SUM(total_tokens) DESC`)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	var totals []ModelTotals
	for rows.Next() {
		var t ModelTotals
		if err := rows.Scan(&t.Model, &t.Streams, &t.PromptTokens, &t.CompletionTokens, &t.TotalTokens); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
		}
		totals = append(totals, t)
	}
	return totals, rows.Err()
}

// StreamCount returns the number of recorded streams.
func (l *Ledger) StreamCount(ctx context.Context) (int, error) {
	if l.db == nil {
		return 0, ErrClosed
	}
	var n int
	if err := l.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM usage").Scan(&n); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	return n, nil
}
