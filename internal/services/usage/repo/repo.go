// Package repo provides sqlite access for the usage log
package repo

import (
	"context"

	"newsdesk/internal/modkit/repokit"
	"newsdesk/internal/platform/store"
)

// BucketRow is one aggregated window
type BucketRow struct {
	BrowserMs float64
	Requests  int
}

// SourceRow is one per-source aggregate
type SourceRow struct {
	Source    string
	BrowserMs float64
	Requests  int
}

// Repo defines the repository contract for usage tracking
type Repo interface {
	Insert(ctx context.Context, storyID int64, url string, browserMs float64, source string) error

	Today(ctx context.Context) (BucketRow, error)
	Week(ctx context.Context) (BucketRow, error)
	Month(ctx context.Context) (BucketRow, error)
	Total(ctx context.Context) (BucketRow, error)
	BySource(ctx context.Context) ([]SourceRow, error)

	// RollupBefore folds logs older than cutoffDay (YYYY-MM-DD) into
	// usage_summary, adding onto months that already have a summary row
	RollupBefore(ctx context.Context, cutoffDay string) error
	DeleteLogsBefore(ctx context.Context, cutoffDay string) error
	DeleteSummariesBefore(ctx context.Context, cutoffMonth string) error
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

func (r *queries) Insert(ctx context.Context, storyID int64, url string, browserMs float64, source string) error {
	_, err := r.q.Exec(ctx,
		"INSERT INTO usage_log (story_id, url, browser_ms, source) VALUES (?, ?, ?, ?)",
		storyID, url, browserMs, source)
	return err
}

func (r *queries) Today(ctx context.Context) (BucketRow, error) {
	return r.window(ctx, " WHERE date(created_at) = date('now')")
}

func (r *queries) Week(ctx context.Context) (BucketRow, error) {
	return r.window(ctx, " WHERE created_at >= datetime('now', '-7 days')")
}

func (r *queries) Month(ctx context.Context) (BucketRow, error) {
	return r.window(ctx, " WHERE created_at >= datetime('now', '-30 days')")
}

func (r *queries) Total(ctx context.Context) (BucketRow, error) {
	return r.window(ctx, "")
}

func (r *queries) window(ctx context.Context, where string) (BucketRow, error) {
	sql := "SELECT COALESCE(SUM(browser_ms), 0), COUNT(*) FROM usage_log" + where
	return store.One(ctx, r.q, func(row store.Row) (BucketRow, error) {
		var b BucketRow
		err := row.Scan(&b.BrowserMs, &b.Requests)
		return b, err
	}, sql)
}

func (r *queries) BySource(ctx context.Context) ([]SourceRow, error) {
	const sql = `
SELECT COALESCE(source, ''), COALESCE(SUM(browser_ms), 0), COUNT(*)
FROM usage_log GROUP BY source`
	return store.Many(ctx, r.q, func(row store.Row) (SourceRow, error) {
		var s SourceRow
		err := row.Scan(&s.Source, &s.BrowserMs, &s.Requests)
		return s, err
	}, sql)
}

func (r *queries) RollupBefore(ctx context.Context, cutoffDay string) error {
	const sql = `
INSERT INTO usage_summary (month, request_count, total_browser_ms)
SELECT
    strftime('%Y-%m', created_at) AS month,
    COUNT(*) AS request_count,
    SUM(browser_ms) AS total_browser_ms
FROM usage_log
WHERE created_at < ?
GROUP BY strftime('%Y-%m', created_at)
ON CONFLICT(month) DO UPDATE SET
    request_count = usage_summary.request_count + excluded.request_count,
    total_browser_ms = usage_summary.total_browser_ms + excluded.total_browser_ms`
	_, err := r.q.Exec(ctx, sql, cutoffDay)
	return err
}

func (r *queries) DeleteLogsBefore(ctx context.Context, cutoffDay string) error {
	_, err := r.q.Exec(ctx, "DELETE FROM usage_log WHERE created_at < ?", cutoffDay)
	return err
}

func (r *queries) DeleteSummariesBefore(ctx context.Context, cutoffMonth string) error {
	_, err := r.q.Exec(ctx, "DELETE FROM usage_summary WHERE month < ?", cutoffMonth)
	return err
}
