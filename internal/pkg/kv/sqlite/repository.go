// Package sqlite provides a SQLite-backed kv.Store.
//
// WAL mode is enabled on Open so readers never block the single writer.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jcmexdev/necs-cart/internal/pkg/kv"
	"github.com/jcmexdev/necs-cart/internal/pkg/telemetry"

	// Pure-Go driver, no CGO needed.
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS kv_entries (
    key         TEXT PRIMARY KEY,
    value       TEXT NOT NULL,

    -- W3C ids of the span that performed the last write, '' outside a trace.
    trace_id    TEXT NOT NULL DEFAULT '',
    span_id     TEXT NOT NULL DEFAULT '',

    -- RFC3339 TEXT; SQLite has no datetime type.
    updated_at  TEXT NOT NULL
);
`

// entry is a stored value together with its write metadata. The metadata is
// for inspecting the database; the Store interface only exposes Value.
type entry struct {
	Key       string
	Value     string
	TraceID   string
	SpanID    string
	UpdatedAt time.Time
}

type Repository struct {
	db  *sql.DB
	now func() time.Time
}

var _ kv.Store = (*Repository)(nil)

// Open opens (or creates) the database at path and applies the schema.
//
//	repo, err := sqlite.Open("./data/cart.db")
func Open(path string) (*Repository, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %q: %w", path, err)
	}

	// One writer connection; SQLite serialises writes anyway.
	db.SetMaxOpenConns(1)

	if err := applySchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Repository{db: db, now: time.Now}, nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}

func (r *Repository) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM kv_entries WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("sqlite: get %q: %w", key, err)
	}
	return value, nil
}

// Set replaces the value under key inside a transaction, so a failed write
// leaves the previous value in place.
func (r *Repository) Set(ctx context.Context, key, value string) error {
	const q = `
		INSERT INTO kv_entries (key, value, trace_id, span_id, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value      = excluded.value,
			trace_id   = excluded.trace_id,
			span_id    = excluded.span_id,
			updated_at = excluded.updated_at`

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin set %q: %w", key, err)
	}
	defer func() { _ = tx.Rollback() }()

	ti := telemetry.ExtractTraceInfo(ctx)
	if _, err := tx.ExecContext(ctx, q,
		key,
		value,
		ti.TraceID,
		ti.SpanID,
		formatTime(r.now()),
	); err != nil {
		return fmt.Errorf("sqlite: set %q: %w", key, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit set %q: %w", key, err)
	}
	return nil
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// getEntry returns the value under key with its write metadata.
func (r *Repository) getEntry(ctx context.Context, key string) (*entry, error) {
	const q = `
		SELECT key, value, trace_id, span_id, updated_at
		FROM   kv_entries
		WHERE  key = ?`

	var e entry
	var updatedAt string
	err := r.db.QueryRowContext(ctx, q, key).Scan(
		&e.Key,
		&e.Value,
		&e.TraceID,
		&e.SpanID,
		&updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("sqlite: key %q not found", key)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: get entry %q: %w", key, err)
	}

	e.UpdatedAt, err = parseRFC3339(updatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("sqlite: apply schema: %w", err)
	}
	return nil
}
