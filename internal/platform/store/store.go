// Package store provides the embedded storage seam shared by all services
package store

import (
	"context"
	"errors"

	"newsdesk/internal/platform/logger"
)

// Store is the facade over the embedded database
// zero value is safe but does nothing
type Store struct {
	// Log is the logger used by subclients
	// zero means a no op zerolog logger
	Log logger.Logger

	// DB is the sql seam, nil until opened
	DB TxRunner

	// Maint exposes maintenance operations (backup, vacuum, reset)
	Maint Maintainer
}

// Row exposes the minimal scan contract a single row needs
type Row interface {
	Scan(dest ...any) error
}

// Rows exposes the minimal iteration and scan for a result set
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close()
	Columns() []string
}

// CommandTag is a tiny interface to inspect command results
type CommandTag interface {
	String() string
	RowsAffected() int64
}

// RowQuerier is the read and write surface repos use for sql
type RowQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) Row
}

// TxRunner wraps transaction execution around a function
type TxRunner interface {
	RowQuerier
	Tx(ctx context.Context, fn func(q RowQuerier) error) error
}

// Maintainer is the seam for database file maintenance
type Maintainer interface {
	// Backup writes a consistent snapshot of the live database to dst
	Backup(ctx context.Context, dst string) error
	// FreePages reports the freelist size and total page count
	FreePages(ctx context.Context) (free, total int64, err error)
	// Vacuum rebuilds the database file reclaiming free pages
	Vacuum(ctx context.Context) error
	// Reset truncates all mutable tables, keeping rule tables intact
	Reset(ctx context.Context) error
}

// Pinger is any seam that can report readiness
type Pinger interface{ Ping(context.Context) error }

// Open constructs a Store backed by the embedded database at cfg.Path
func Open(ctx context.Context, cfg Config, opts ...Option) (*Store, error) {
	s := &Store{}
	for _, o := range opts {
		if err := o(s); err != nil {
			return nil, err
		}
	}

	// defaults for zero logger to avoid nil checks
	s.Log = s.Log.With().Logger()

	if err := openSQLite(ctx, cfg, s); err != nil {
		return nil, err
	}
	return s, nil
}

// Guard verifies the database answers a trivial query
func (s *Store) Guard(ctx context.Context) error {
	if s == nil {
		return errors.New("nil store")
	}
	if s.DB == nil {
		return errors.New("store not opened")
	}
	if p, ok := any(s.DB).(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

// Close closes the database gracefully
func (s *Store) Close(ctx context.Context) error {
	if c, ok := s.DB.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}
