// Package sqlite provides the embedded SQLite client with optional query tracing
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite" // registers the "sqlite" database/sql driver
)

// Config configures the database file and connection pool
type Config struct {
	Path          string
	MaxConns      int
	BusyTimeoutMs int
	SlowMs        int
}

// DB is an embedded SQLite client with pool and optional tracer
type DB struct {
	SQL    *sql.DB
	Tracer QueryTracer
	SlowMs int
	Path   string
}

const (
	defaultMaxConns    = 8
	defaultBusyTimeout = 5000
)

// DSN builds the connection string with the per-connection pragmas the
// pipeline relies on: WAL for concurrent readers, a generous busy timeout
// so two writers race cleanly, foreign keys, and mmap-backed reads
func DSN(cfg Config) string {
	busy := cfg.BusyTimeoutMs
	if busy <= 0 {
		busy = defaultBusyTimeout
	}
	pragmas := []string{
		fmt.Sprintf("_pragma=busy_timeout(%d)", busy),
		"_pragma=journal_mode(WAL)",
		"_pragma=foreign_keys(1)",
		"_pragma=synchronous(NORMAL)",
		"_pragma=cache_size(-64000)",
		"_pragma=temp_store(2)",
		"_pragma=mmap_size(268435456)",
	}
	return "file:" + cfg.Path + "?" + strings.Join(pragmas, "&")
}

// Open creates the parent directory if needed and opens the pool.
// The schema is NOT applied here; see EnsureSchema
func Open(ctx context.Context, cfg Config, tracer QueryTracer) (*DB, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, fmt.Errorf("sqlite: empty database path")
	}
	if dir := filepath.Dir(cfg.Path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("sqlite: create data dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", DSN(cfg))
	if err != nil {
		return nil, err
	}

	maxConns := cfg.MaxConns
	if maxConns <= 0 {
		maxConns = defaultMaxConns
	}
	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(maxConns)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &DB{
		SQL:    db,
		Tracer: tracer,
		SlowMs: cfg.SlowMs,
		Path:   cfg.Path,
	}, nil
}

// Close closes the pool
func (d *DB) Close() error {
	if d == nil || d.SQL == nil {
		return nil
	}
	return d.SQL.Close()
}
