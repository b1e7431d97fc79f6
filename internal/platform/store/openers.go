package store

import (
	"context"

	"newsdesk/internal/platform/store/sqlite"
)

// openSQLite opens the embedded database, applies the schema, and wires
// the adapter onto the store
func openSQLite(ctx context.Context, cfg Config, s *Store) error {
	var tracer sqlite.QueryTracer
	if cfg.SQLite.LogSQL {
		tracer = sqlite.Tracer(s.Log)
	}

	d, err := sqlite.Open(ctx, sqlite.Config{
		Path:          cfg.SQLite.Path,
		MaxConns:      cfg.SQLite.MaxConns,
		BusyTimeoutMs: cfg.SQLite.BusyTimeoutMs,
		SlowMs:        cfg.SQLite.SlowQueryMs,
	}, tracer)
	if err != nil {
		return err
	}

	if err := d.EnsureSchema(ctx); err != nil {
		_ = d.Close()
		return err
	}

	a := newSQLiteAdapter(d)
	s.DB = a
	s.Maint = a
	return nil
}
