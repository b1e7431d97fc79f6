// Package repo provides sqlite access for stories
package repo

import (
	"context"
	"strings"

	"newsdesk/internal/modkit/repokit"
	"newsdesk/internal/platform/store"
)

// Repo defines the repository contract for stories
type Repo interface {
	ListBatch(ctx context.Context, f BatchFilter) ([]Row, error)
	ReadLaterBatch(ctx context.Context, f BatchFilter) ([]Row, error)

	MeritWords(ctx context.Context) (map[string]int, error)
	DemeritWords(ctx context.Context) (map[string]int, error)
	BlockedWords(ctx context.Context) ([]string, error)

	Get(ctx context.Context, id int64) (DetailRow, error)
	Content(ctx context.Context, id int64) (ContentRow, error)
	Updates(ctx context.Context) ([]UpdateRow, error)
	Stats(ctx context.Context) (StatsRow, error)

	MarkOpened(ctx context.Context, id int64) error
	Dismiss(ctx context.Context, id int64) error
	Undismiss(ctx context.Context, id int64) error
	ClearDismissed(ctx context.Context) error
	AddReadLater(ctx context.Context, id int64) error
	RemoveReadLater(ctx context.Context, id int64) error
}

// Row is one scored listing row straight from SQL
type Row struct {
	ID            int64
	Title         string
	URL           *string
	Domain        *string
	By            *string
	Time          int64
	Score         int
	Descendants   int
	ContentStatus string
	Teaser        *string
	HitFrontPage  int
	FrontPageRank *int

	DomainMerit   int
	DomainDemerit int

	IsReadLater     int
	IsDismissed     int
	IsRead          int
	IsDomainBlocked int
}

// DetailRow is the full stories row, content still compressed
type DetailRow struct {
	ID              int64
	Title           string
	URL             *string
	Domain          *string
	By              *string
	Time            int64
	Score           int
	Descendants     int
	Content         *string
	ContentStatus   string
	ContentAttempts int
	ContentSource   *string
	BrowserMs       float64
	Teaser          *string
	HitFrontPage    int
	FrontPageRank   *int
	CreatedAt       string
	UpdatedAt       string
}

// ContentRow is the content column pair for one story
type ContentRow struct {
	Content *string
	Status  string
}

// UpdateRow is one recently finished story, content still compressed
type UpdateRow struct {
	ID            int64
	Title         string
	Content       *string
	ContentStatus string
}

// StatsRow holds the corpus counters for the stats endpoint
type StatsRow struct {
	TotalStories     int
	PendingContent   int
	FetchingContent  int
	DoneContent      int
	FailedContent    int
	BlockedContent   int
	BlockedDomains   int
	BlockedWords     int
	ReadLater        int
	Dismissed        int
	FrontPageStories int
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

func (r *queries) MeritWords(ctx context.Context) (map[string]int, error) {
	return r.weights(ctx, "SELECT word, weight FROM merit_words")
}

func (r *queries) DemeritWords(ctx context.Context) (map[string]int, error) {
	return r.weights(ctx, "SELECT word, weight FROM demerit_words")
}

func (r *queries) weights(ctx context.Context, sql string) (map[string]int, error) {
	rows, err := r.q.Query(ctx, sql)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var word string
		var weight int
		if err := rows.Scan(&word, &weight); err != nil {
			return nil, err
		}
		out[strings.ToLower(word)] = weight
	}
	return out, rows.Err()
}

func (r *queries) BlockedWords(ctx context.Context) ([]string, error) {
	words, err := store.Many(ctx, r.q, func(row store.Row) (string, error) {
		var w string
		err := row.Scan(&w)
		return strings.ToLower(w), err
	}, "SELECT word FROM blocked_words")
	if err != nil {
		return nil, err
	}
	return words, nil
}

func (r *queries) Get(ctx context.Context, id int64) (DetailRow, error) {
	const sql = `
SELECT id, title, url, domain, by, time, score, descendants,
       content, content_status, content_attempts, content_source, browser_ms, teaser,
       hit_front_page, front_page_rank, created_at, updated_at
FROM stories WHERE id = ?`
	return store.One(ctx, r.q, scanDetail, sql, id)
}

func scanDetail(row store.Row) (DetailRow, error) {
	var d DetailRow
	err := row.Scan(
		&d.ID, &d.Title, &d.URL, &d.Domain, &d.By, &d.Time, &d.Score, &d.Descendants,
		&d.Content, &d.ContentStatus, &d.ContentAttempts, &d.ContentSource, &d.BrowserMs, &d.Teaser,
		&d.HitFrontPage, &d.FrontPageRank, &d.CreatedAt, &d.UpdatedAt,
	)
	return d, err
}

func (r *queries) Content(ctx context.Context, id int64) (ContentRow, error) {
	const sql = `SELECT content, content_status FROM stories WHERE id = ?`
	return store.One(ctx, r.q, func(row store.Row) (ContentRow, error) {
		var c ContentRow
		err := row.Scan(&c.Content, &c.Status)
		return c, err
	}, sql, id)
}

func (r *queries) Updates(ctx context.Context) ([]UpdateRow, error) {
	const sql = `
SELECT id, title, content, content_status
FROM stories
WHERE content_status IN ('done', 'blocked', 'failed')
  AND updated_at >= datetime('now', '-60 seconds')
ORDER BY updated_at DESC
LIMIT 50`
	return store.Many(ctx, r.q, func(row store.Row) (UpdateRow, error) {
		var u UpdateRow
		err := row.Scan(&u.ID, &u.Title, &u.Content, &u.ContentStatus)
		return u, err
	}, sql)
}

func (r *queries) Stats(ctx context.Context) (StatsRow, error) {
	const sql = `
SELECT
  (SELECT COUNT(*) FROM stories),
  (SELECT COUNT(*) FROM stories WHERE content_status IN ('pending', 'retry', 'fetching')),
  (SELECT COUNT(*) FROM stories WHERE content_status = 'fetching'),
  (SELECT COUNT(*) FROM stories WHERE content_status = 'done'),
  (SELECT COUNT(*) FROM stories WHERE content_status = 'failed'),
  (SELECT COUNT(*) FROM stories WHERE content_status = 'blocked'),
  (SELECT COUNT(*) FROM blocked_domains),
  (SELECT COUNT(*) FROM blocked_words),
  (SELECT COUNT(*) FROM read_later),
  (SELECT COUNT(*) FROM dismissed),
  (SELECT COUNT(*) FROM stories WHERE hit_front_page = 1)`
	return store.One(ctx, r.q, func(row store.Row) (StatsRow, error) {
		var s StatsRow
		err := row.Scan(
			&s.TotalStories, &s.PendingContent, &s.FetchingContent, &s.DoneContent,
			&s.FailedContent, &s.BlockedContent, &s.BlockedDomains, &s.BlockedWords,
			&s.ReadLater, &s.Dismissed, &s.FrontPageStories,
		)
		return s, err
	}, sql)
}

func (r *queries) MarkOpened(ctx context.Context, id int64) error {
	_, err := r.q.Exec(ctx,
		"INSERT OR REPLACE INTO history (story_id, opened_at) VALUES (?, CURRENT_TIMESTAMP)", id)
	return err
}

// Dismiss leaves any read_later marker in place; the janitor removes it once
// the dismissal ages out, so dismissed read-later stories stay visible under
// the show-dismissed view until then
func (r *queries) Dismiss(ctx context.Context, id int64) error {
	_, err := r.q.Exec(ctx, "INSERT OR IGNORE INTO dismissed (story_id) VALUES (?)", id)
	return err
}

func (r *queries) Undismiss(ctx context.Context, id int64) error {
	_, err := r.q.Exec(ctx, "DELETE FROM dismissed WHERE story_id = ?", id)
	return err
}

func (r *queries) ClearDismissed(ctx context.Context) error {
	_, err := r.q.Exec(ctx, "DELETE FROM dismissed")
	return err
}

func (r *queries) AddReadLater(ctx context.Context, id int64) error {
	_, err := r.q.Exec(ctx, "INSERT OR IGNORE INTO read_later (story_id) VALUES (?)", id)
	return err
}

func (r *queries) RemoveReadLater(ctx context.Context, id int64) error {
	_, err := r.q.Exec(ctx, "DELETE FROM read_later WHERE story_id = ?", id)
	return err
}
