package core

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// HistoryEntry records one transform run, successful or not.
type HistoryEntry struct {
	ID          uuid.UUID `json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	FileName    string    `json:"file_name"`
	FileSize    int       `json:"file_size"`
	Column      string    `json:"column"`
	Pattern     string    `json:"pattern"`
	Replacement string    `json:"replacement"`
	Preset      string    `json:"preset,omitempty"`
	Rows        int       `json:"rows"`
	Changed     int       `json:"changed"`
	ErrorCode   string    `json:"error_code,omitempty"`
	DurationMs  int64     `json:"duration_ms"`
	IPAddress   string    `json:"ip_address,omitempty"`
	UserAgent   string    `json:"user_agent,omitempty"`
}

// HistoryStore persists transform runs.
type HistoryStore interface {
	Record(ctx context.Context, e HistoryEntry) error
	Recent(ctx context.Context, limit int) ([]HistoryEntry, error)
}

// ----------------------------------------------------------------------------
// PostgreSQL
// ----------------------------------------------------------------------------

const createHistoryTable = `
CREATE TABLE IF NOT EXISTS transform_history (
	id           UUID PRIMARY KEY,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	file_name    TEXT NOT NULL,
	file_size    INTEGER NOT NULL,
	column_name  TEXT NOT NULL,
	pattern      TEXT NOT NULL,
	replacement  TEXT NOT NULL,
	preset       TEXT NOT NULL DEFAULT '',
	row_count    INTEGER NOT NULL DEFAULT 0,
	changed      INTEGER NOT NULL DEFAULT 0,
	error_code   TEXT NOT NULL DEFAULT '',
	duration_ms  BIGINT NOT NULL DEFAULT 0,
	ip_address   TEXT NOT NULL DEFAULT '',
	user_agent   TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS transform_history_created_at_idx ON transform_history (created_at DESC);
`

const insertHistory = `
INSERT INTO transform_history (
	id, created_at, file_name, file_size, column_name, pattern, replacement,
	preset, row_count, changed, error_code, duration_ms, ip_address, user_agent
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

const selectRecentHistory = `
SELECT id, created_at, file_name, file_size, column_name, pattern, replacement,
       preset, row_count, changed, error_code, duration_ms, ip_address, user_agent
FROM transform_history
ORDER BY created_at DESC
LIMIT $1`

// PostgresHistory stores runs in the transform_history table.
type PostgresHistory struct {
	pool *pgxpool.Pool
}

// NewPostgresHistory creates the table if needed and returns the store.
func NewPostgresHistory(ctx context.Context, pool *pgxpool.Pool) (*PostgresHistory, error) {
	if _, err := pool.Exec(ctx, createHistoryTable); err != nil {
		return nil, fmt.Errorf("create transform_history: %w", err)
	}
	return &PostgresHistory{pool: pool}, nil
}

// Record inserts e.
func (h *PostgresHistory) Record(ctx context.Context, e HistoryEntry) error {
	_, err := h.pool.Exec(ctx, insertHistory,
		e.ID, e.CreatedAt, e.FileName, e.FileSize, e.Column, e.Pattern, e.Replacement,
		e.Preset, e.Rows, e.Changed, e.ErrorCode, e.DurationMs, e.IPAddress, e.UserAgent,
	)
	if err != nil {
		return fmt.Errorf("insert transform history: %w", err)
	}
	return nil
}

// Recent returns up to limit runs, newest first.
func (h *PostgresHistory) Recent(ctx context.Context, limit int) ([]HistoryEntry, error) {
	rows, err := h.pool.Query(ctx, selectRecentHistory, limit)
	if err != nil {
		return nil, fmt.Errorf("query transform history: %w", err)
	}

	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (HistoryEntry, error) {
		var e HistoryEntry
		err := row.Scan(
			&e.ID, &e.CreatedAt, &e.FileName, &e.FileSize, &e.Column, &e.Pattern, &e.Replacement,
			&e.Preset, &e.Rows, &e.Changed, &e.ErrorCode, &e.DurationMs, &e.IPAddress, &e.UserAgent,
		)
		return e, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan transform history: %w", err)
	}
	return entries, nil
}

// ----------------------------------------------------------------------------
// In-memory
// ----------------------------------------------------------------------------

// MemoryHistory keeps the most recent runs in a ring buffer. It is used when
// no database is configured.
type MemoryHistory struct {
	mu      sync.Mutex
	entries []HistoryEntry
	next    int
	full    bool
}

// NewMemoryHistory keeps at most capacity entries.
func NewMemoryHistory(capacity int) *MemoryHistory {
	if capacity <= 0 {
		capacity = 100
	}
	return &MemoryHistory{entries: make([]HistoryEntry, capacity)}
}

// Record stores e, evicting the oldest entry when full.
func (h *MemoryHistory) Record(_ context.Context, e HistoryEntry) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.entries[h.next] = e
	h.next = (h.next + 1) % len(h.entries)
	if h.next == 0 {
		h.full = true
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (h *MemoryHistory) Recent(_ context.Context, limit int) ([]HistoryEntry, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	n := h.next
	if h.full {
		n = len(h.entries)
	}
	if limit <= 0 || limit > n {
		limit = n
	}

	out := make([]HistoryEntry, 0, limit)
	for i := 0; i < limit; i++ {
		idx := (h.next - 1 - i + len(h.entries)) % len(h.entries)
		out = append(out, h.entries[idx])
	}
	return out, nil
}
