// Package repo provides sqlite access for retention and maintenance
package repo

import (
	"context"
	"strings"

	"newsdesk/internal/modkit/repokit"
	"newsdesk/internal/platform/store"
)

// deleteChunk bounds the IN list so huge cleanups stay under the sqlite
// bound-parameter limit
const deleteChunk = 500

// ContentRow is one story body awaiting compression
type ContentRow struct {
	ID      int64
	Content string
}

// Repo defines the repository contract for maintenance
type Repo interface {
	// DismissedExpired lists stories whose dismissal is past the grace
	// period, cutoff in unix seconds
	DismissedExpired(ctx context.Context, cutoff int64) ([]int64, error)

	// AgedOut lists stories older than cutoff that are neither saved for
	// later nor dismissed
	AgedOut(ctx context.Context, cutoff int64) ([]int64, error)

	// DeleteStories removes stories and their child rows. Dismissal
	// markers go too; the caller decides which ids are safe
	DeleteStories(ctx context.Context, ids []int64) error

	DeleteDismissedMarkersBefore(ctx context.Context, cutoff int64) error
	DeleteCachedBefore(ctx context.Context, cutoff int64) error

	UncompressedCount(ctx context.Context) (int, error)
	UncompressedBatch(ctx context.Context, limit int) ([]ContentRow, error)
	SetContent(ctx context.Context, id int64, packed string) error
	CompressedCount(ctx context.Context) (int, error)
}

type (
	// SQL implements the Repo interface on sqlite
	SQL struct{}

	queries struct{ q repokit.Queryer }
)

// NewSQL creates a new sqlite repository binder
func NewSQL() repokit.Binder[Repo] { return SQL{} }

// Bind binds a queryer to the Repo implementation
func (SQL) Bind(q repokit.Queryer) Repo { return &queries{q: q} }

func (r *queries) DismissedExpired(ctx context.Context, cutoff int64) ([]int64, error) {
	const sql = `
SELECT s.id FROM stories s
INNER JOIN dismissed d ON s.id = d.story_id
WHERE d.created_at < datetime(?, 'unixepoch')`
	return r.idList(ctx, sql, cutoff)
}

func (r *queries) AgedOut(ctx context.Context, cutoff int64) ([]int64, error) {
	const sql = `
SELECT s.id FROM stories s
WHERE s.time < ?
  AND s.id NOT IN (SELECT story_id FROM read_later)
  AND s.id NOT IN (SELECT story_id FROM dismissed)`
	return r.idList(ctx, sql, cutoff)
}

func (r *queries) idList(ctx context.Context, sql string, args ...any) ([]int64, error) {
	return store.Many(ctx, r.q, func(row store.Row) (int64, error) {
		var id int64
		err := row.Scan(&id)
		return id, err
	}, sql, args...)
}

func (r *queries) DeleteStories(ctx context.Context, ids []int64) error {
	for len(ids) > 0 {
		n := min(len(ids), deleteChunk)
		if err := r.deleteChunk(ctx, ids[:n]); err != nil {
			return err
		}
		ids = ids[n:]
	}
	return nil
}

func (r *queries) deleteChunk(ctx context.Context, ids []int64) error {
	in := "(" + strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",") + ")"
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	// children first, the stories row last
	for _, table := range []string{"history", "read_later", "dismissed"} {
		if _, err := r.q.Exec(ctx, "DELETE FROM "+table+" WHERE story_id IN "+in, args...); err != nil {
			return err
		}
	}
	_, err := r.q.Exec(ctx, "DELETE FROM stories WHERE id IN "+in, args...)
	return err
}

func (r *queries) DeleteDismissedMarkersBefore(ctx context.Context, cutoff int64) error {
	_, err := r.q.Exec(ctx,
		"DELETE FROM dismissed WHERE created_at < datetime(?, 'unixepoch')", cutoff)
	return err
}

func (r *queries) DeleteCachedBefore(ctx context.Context, cutoff int64) error {
	_, err := r.q.Exec(ctx,
		"DELETE FROM fetched_urls WHERE fetched_at < datetime(?, 'unixepoch')", cutoff)
	return err
}

// plain bodies are anything without the packed sentinel
const uncompressedWhere = " WHERE content IS NOT NULL AND content != '' AND content NOT LIKE 'z:%'"

func (r *queries) UncompressedCount(ctx context.Context) (int, error) {
	return r.count(ctx, "SELECT COUNT(*) FROM stories"+uncompressedWhere)
}

func (r *queries) UncompressedBatch(ctx context.Context, limit int) ([]ContentRow, error) {
	sql := "SELECT id, content FROM stories" + uncompressedWhere + " LIMIT ?"
	return store.Many(ctx, r.q, func(row store.Row) (ContentRow, error) {
		var c ContentRow
		err := row.Scan(&c.ID, &c.Content)
		return c, err
	}, sql, limit)
}

func (r *queries) SetContent(ctx context.Context, id int64, packed string) error {
	_, err := r.q.Exec(ctx, "UPDATE stories SET content = ? WHERE id = ?", packed, id)
	return err
}

func (r *queries) CompressedCount(ctx context.Context) (int, error) {
	return r.count(ctx, "SELECT COUNT(*) FROM stories WHERE content LIKE 'z:%'")
}

func (r *queries) count(ctx context.Context, sql string) (int, error) {
	return store.One(ctx, r.q, func(row store.Row) (int, error) {
		var n int
		err := row.Scan(&n)
		return n, err
	}, sql)
}
