// Package repo provides sqlite access for story ingestion
package repo

import (
	"context"

	"newsdesk/internal/core/compress"
	"newsdesk/internal/modkit/repokit"
	"newsdesk/internal/platform/store"
	"newsdesk/internal/services/ingest/domain"
)

// Repo defines the repository contract for ingestion
type Repo interface {
	// Upsert inserts a story or refreshes its live counters. Self posts
	// arrive with their HN text as finished content
	Upsert(ctx context.Context, s domain.Story) error

	// NewestTime is the ingestion checkpoint, zero when the table is empty
	NewestTime(ctx context.Context) (int64, error)
	OldestTime(ctx context.Context) (int64, error)
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

func (r *queries) Upsert(ctx context.Context, s domain.Story) error {
	if s.URL == "" && s.Text != "" {
		return r.upsertSelfPost(ctx, s)
	}

	const sql = `
INSERT INTO stories (id, title, url, domain, by, time, score, descendants)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    score = excluded.score,
    descendants = excluded.descendants,
    updated_at = CURRENT_TIMESTAMP`
	_, err := r.q.Exec(ctx, sql,
		s.ID, s.Title, nullable(s.URL), nullable(s.Domain), nullable(s.By),
		s.Time, s.Score, s.Descendants)
	return err
}

// upsertSelfPost stores the HN text as already-done content so Ask HN and
// Tell HN posts never enter the render queue
func (r *queries) upsertSelfPost(ctx context.Context, s domain.Story) error {
	const sql = `
INSERT INTO stories (id, title, url, domain, by, time, score, descendants, content, content_status, content_source)
VALUES (?, ?, NULL, NULL, ?, ?, ?, ?, ?, 'done', 'hn_text')
ON CONFLICT(id) DO UPDATE SET
    score = excluded.score,
    descendants = excluded.descendants,
    content = COALESCE(stories.content, excluded.content),
    content_status = CASE WHEN stories.content IS NULL THEN 'done' ELSE stories.content_status END,
    content_source = CASE WHEN stories.content IS NULL THEN 'hn_text' ELSE stories.content_source END,
    updated_at = CURRENT_TIMESTAMP`
	_, err := r.q.Exec(ctx, sql,
		s.ID, s.Title, nullable(s.By), s.Time, s.Score, s.Descendants,
		compress.Pack(s.Text))
	return err
}

func (r *queries) NewestTime(ctx context.Context) (int64, error) {
	return r.edgeTime(ctx, "SELECT MAX(time) FROM stories")
}

func (r *queries) OldestTime(ctx context.Context) (int64, error) {
	return r.edgeTime(ctx, "SELECT MIN(time) FROM stories")
}

func (r *queries) edgeTime(ctx context.Context, sql string) (int64, error) {
	return store.One(ctx, r.q, func(row store.Row) (int64, error) {
		var t *int64
		if err := row.Scan(&t); err != nil {
			return 0, err
		}
		if t == nil {
			return 0, nil
		}
		return *t, nil
	}, sql)
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
