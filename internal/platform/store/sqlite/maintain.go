package sqlite

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Backup writes a consistent snapshot of the live database to dst using
// VACUUM INTO. The destination must not exist; any stale file is removed first
func (d *DB) Backup(ctx context.Context, dst string) error {
	if dir := filepath.Dir(dst); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("sqlite: create backup dir: %w", err)
		}
	}
	if err := os.Remove(dst); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("sqlite: clear stale backup: %w", err)
	}
	if _, err := d.SQL.ExecContext(ctx, "VACUUM INTO ?", dst); err != nil {
		return fmt.Errorf("sqlite: vacuum into %s: %w", dst, err)
	}
	return nil
}

// FreePages reports the freelist size and total page count
func (d *DB) FreePages(ctx context.Context) (free, total int64, err error) {
	if err = d.SQL.QueryRowContext(ctx, "PRAGMA freelist_count").Scan(&free); err != nil {
		return 0, 0, err
	}
	if err = d.SQL.QueryRowContext(ctx, "PRAGMA page_count").Scan(&total); err != nil {
		return 0, 0, err
	}
	return free, total, nil
}

// Vacuum rebuilds the database file reclaiming free pages
func (d *DB) Vacuum(ctx context.Context) error {
	_, err := d.SQL.ExecContext(ctx, "VACUUM")
	return err
}

// resetTables are truncated by Reset. Rule tables survive a reset so a
// curated word/domain setup is not lost with the story data
var resetTables = []string{
	"history",
	"read_later",
	"dismissed",
	"usage_log",
	"usage_summary",
	"fetched_urls",
	"stories",
}

// Reset truncates all mutable tables, children before parents
func (d *DB) Reset(ctx context.Context) error {
	for _, t := range resetTables {
		if _, err := d.SQL.ExecContext(ctx, "DELETE FROM "+t); err != nil {
			return fmt.Errorf("sqlite: reset %s: %w", t, err)
		}
	}
	return nil
}
