// Package repo provides sqlite access for the content extraction queue
package repo

import (
	"context"

	"newsdesk/internal/modkit/repokit"
	"newsdesk/internal/platform/store"
)

// JobRow is one atomically claimed story
type JobRow struct {
	ID       int64
	URL      *string
	Domain   *string
	Attempts int
}

// CacheRow is a previously fetched URL
type CacheRow struct {
	Content   string
	Source    string
	BrowserMs float64
}

// StatsRow counts linkable stories per status
type StatsRow struct {
	Pending  int
	Retry    int
	Fetching int
	Done     int
	Failed   int
	Blocked  int
	Skipped  int
}

// DiagnosticRow is the detailed queue breakdown
type DiagnosticRow struct {
	PendingFresh        int
	PendingWithAttempts int
	Retry               int
	Fetching            int
	Done                int
	Failed              int
	Blocked             int
	Skipped             int
	NoURL               int
	ExhaustedNotFailed  int
}

// Repo defines the repository contract for the extraction queue
type Repo interface {
	// Claim flips the best eligible story to 'fetching' and returns it,
	// consuming one attempt. perr.ErrNotFound means the queue is idle
	Claim(ctx context.Context, maxAttempts int) (JobRow, error)

	// Complete stores the final verdict for a job. content and teaser are
	// nil for empty bodies so the columns stay NULL
	Complete(ctx context.Context, id int64, content, teaser *string, status, source string, browserMs float64) error
	Retry(ctx context.Context, id int64) error

	SkipMissingURL(ctx context.Context) (int64, error)
	ResetStuckFetching(ctx context.Context, maxAttempts int) (int64, error)
	FailExhausted(ctx context.Context, maxAttempts int) (int64, error)

	QueueStats(ctx context.Context) (StatsRow, error)
	Diagnostic(ctx context.Context) (DiagnosticRow, error)

	CachedContent(ctx context.Context, url string) (CacheRow, error)
	CacheContent(ctx context.Context, url, content, source string, browserMs float64) error
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

// terminal statuses never re-enter the queue
const terminalStatuses = "('done', 'failed', 'blocked', 'skipped')"

func (r *queries) Claim(ctx context.Context, maxAttempts int) (JobRow, error) {
	// UPDATE with a subquery so the pick and the claim are one statement;
	// concurrent workers can never grab the same story
	const sql = `
UPDATE stories
SET content_status = 'fetching',
    content_attempts = content_attempts + 1,
    updated_at = CURRENT_TIMESTAMP
WHERE id = (
    SELECT id FROM stories
    WHERE content_status IN ('pending', 'retry')
      AND url IS NOT NULL
      AND content_attempts < ?
    ORDER BY content_attempts ASC, time ASC
    LIMIT 1
)
RETURNING id, url, domain, content_attempts`
	return store.One(ctx, r.q, func(row store.Row) (JobRow, error) {
		var j JobRow
		err := row.Scan(&j.ID, &j.URL, &j.Domain, &j.Attempts)
		return j, err
	}, sql, maxAttempts)
}

func (r *queries) Complete(
	ctx context.Context, id int64, content, teaser *string, status, source string, browserMs float64,
) error {
	const sql = `
UPDATE stories
SET content = ?, content_status = ?, content_source = ?,
    browser_ms = ?, teaser = ?, updated_at = CURRENT_TIMESTAMP
WHERE id = ?`
	_, err := r.q.Exec(ctx, sql, content, status, source, browserMs, teaser, id)
	return err
}

func (r *queries) Retry(ctx context.Context, id int64) error {
	_, err := r.q.Exec(ctx,
		"UPDATE stories SET content_status = 'retry', updated_at = CURRENT_TIMESTAMP WHERE id = ?", id)
	return err
}

// SkipMissingURL parks self posts (Ask HN, Tell HN) that have nothing to fetch
func (r *queries) SkipMissingURL(ctx context.Context) (int64, error) {
	tag, err := r.q.Exec(ctx, `
UPDATE stories
SET content_status = 'skipped', updated_at = CURRENT_TIMESTAMP
WHERE url IS NULL
  AND content_status NOT IN `+terminalStatuses)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// ResetStuckFetching returns crashed 'fetching' jobs to the queue
func (r *queries) ResetStuckFetching(ctx context.Context, maxAttempts int) (int64, error) {
	tag, err := r.q.Exec(ctx, `
UPDATE stories
SET content_status = 'retry', updated_at = CURRENT_TIMESTAMP
WHERE content_status = 'fetching'
  AND content_attempts < ?`, maxAttempts)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// FailExhausted closes out anything non terminal that is out of attempts
func (r *queries) FailExhausted(ctx context.Context, maxAttempts int) (int64, error) {
	tag, err := r.q.Exec(ctx, `
UPDATE stories
SET content_status = 'failed', updated_at = CURRENT_TIMESTAMP
WHERE content_status NOT IN `+terminalStatuses+`
  AND content_attempts >= ?`, maxAttempts)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *queries) QueueStats(ctx context.Context) (StatsRow, error) {
	const sql = `
SELECT
    COALESCE(SUM(CASE WHEN content_status = 'pending' THEN 1 ELSE 0 END), 0),
    COALESCE(SUM(CASE WHEN content_status = 'retry' THEN 1 ELSE 0 END), 0),
    COALESCE(SUM(CASE WHEN content_status = 'fetching' THEN 1 ELSE 0 END), 0),
    COALESCE(SUM(CASE WHEN content_status = 'done' THEN 1 ELSE 0 END), 0),
    COALESCE(SUM(CASE WHEN content_status = 'failed' THEN 1 ELSE 0 END), 0),
    COALESCE(SUM(CASE WHEN content_status = 'blocked' THEN 1 ELSE 0 END), 0),
    COALESCE(SUM(CASE WHEN content_status = 'skipped' THEN 1 ELSE 0 END), 0)
FROM stories WHERE url IS NOT NULL`
	return store.One(ctx, r.q, func(row store.Row) (StatsRow, error) {
		var s StatsRow
		err := row.Scan(&s.Pending, &s.Retry, &s.Fetching, &s.Done, &s.Failed, &s.Blocked, &s.Skipped)
		return s, err
	}, sql)
}

func (r *queries) Diagnostic(ctx context.Context) (DiagnosticRow, error) {
	const sql = `
SELECT
    COALESCE(SUM(CASE WHEN content_status = 'pending' AND content_attempts = 0 THEN 1 ELSE 0 END), 0),
    COALESCE(SUM(CASE WHEN content_status = 'pending' AND content_attempts > 0 THEN 1 ELSE 0 END), 0),
    COALESCE(SUM(CASE WHEN content_status = 'retry' THEN 1 ELSE 0 END), 0),
    COALESCE(SUM(CASE WHEN content_status = 'fetching' THEN 1 ELSE 0 END), 0),
    COALESCE(SUM(CASE WHEN content_status = 'done' THEN 1 ELSE 0 END), 0),
    COALESCE(SUM(CASE WHEN content_status = 'failed' THEN 1 ELSE 0 END), 0),
    COALESCE(SUM(CASE WHEN content_status = 'blocked' THEN 1 ELSE 0 END), 0),
    COALESCE(SUM(CASE WHEN content_status = 'skipped' THEN 1 ELSE 0 END), 0),
    COALESCE(SUM(CASE WHEN url IS NULL THEN 1 ELSE 0 END), 0),
    COALESCE(SUM(CASE WHEN content_attempts >= 3 AND content_status NOT IN ` + terminalStatuses + ` THEN 1 ELSE 0 END), 0)
FROM stories`
	return store.One(ctx, r.q, func(row store.Row) (DiagnosticRow, error) {
		var d DiagnosticRow
		err := row.Scan(
			&d.PendingFresh, &d.PendingWithAttempts, &d.Retry, &d.Fetching, &d.Done,
			&d.Failed, &d.Blocked, &d.Skipped, &d.NoURL, &d.ExhaustedNotFailed,
		)
		return d, err
	}, sql)
}

func (r *queries) CachedContent(ctx context.Context, url string) (CacheRow, error) {
	const sql = `
SELECT COALESCE(content, ''), COALESCE(content_source, ''), COALESCE(browser_ms, 0)
FROM fetched_urls WHERE url = ?`
	return store.One(ctx, r.q, func(row store.Row) (CacheRow, error) {
		var c CacheRow
		err := row.Scan(&c.Content, &c.Source, &c.BrowserMs)
		return c, err
	}, sql, url)
}

func (r *queries) CacheContent(ctx context.Context, url, content, source string, browserMs float64) error {
	const sql = `
INSERT OR REPLACE INTO fetched_urls (url, content, content_source, browser_ms, fetched_at)
VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)`
	_, err := r.q.Exec(ctx, sql, url, content, source, browserMs)
	return err
}
