// Package repo provides sqlite access for front page tracking
package repo

import (
	"context"

	"newsdesk/internal/modkit/repokit"
)

// Repo defines the repository contract for front page tracking
type Repo interface {
	// MarkFrontPage flags a story as having hit the front page and keeps
	// the best (lowest) rank it ever reached. Returns rows changed, which
	// is zero when the story is unknown or already ranked at least as well
	MarkFrontPage(ctx context.Context, id int64, rank int) (int64, error)
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

func (r *queries) MarkFrontPage(ctx context.Context, id int64, rank int) (int64, error) {
	const sql = `
UPDATE stories
SET hit_front_page = 1,
    front_page_rank = CASE
        WHEN front_page_rank IS NULL THEN ?
        WHEN ? < front_page_rank THEN ?
        ELSE front_page_rank
    END,
    updated_at = CURRENT_TIMESTAMP
WHERE id = ? AND (hit_front_page = 0 OR front_page_rank IS NULL OR front_page_rank > ?)`
	tag, err := r.q.Exec(ctx, sql, rank, rank, rank, id, rank)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
