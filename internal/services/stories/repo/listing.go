package repo

import (
	"context"
	"fmt"
	"strings"

	"newsdesk/internal/platform/store"
)

// BatchFilter is one keyset batch request from the listing loop
type BatchFilter struct {
	DismissedOnly    bool
	IncludeBlocked   bool
	IncludeReadLater bool
	Oldest           bool

	CursorTime int64
	CursorID   int64
	HasCursor  bool

	// Limit is the SQL limit, already over-fetched by the service
	Limit int
}

// ListBatch runs the scored CTE over all stories with the filter's keyset
// window. Word level filtering and scoring happen in the service; only
// domain weights and the user state flags are joined here
func (r *queries) ListBatch(ctx context.Context, f BatchFilter) ([]Row, error) {
	var b strings.Builder
	b.WriteString(`
WITH scored AS (
    SELECT
        s.id, s.title, s.url, s.domain, s.by, s.time, s.score, s.descendants,
        s.content_status, s.teaser, s.hit_front_page, s.front_page_rank,
        COALESCE(md.weight, 0) AS domain_merit,
        COALESCE(dd.weight, 0) AS domain_demerit,
        CASE WHEN rl.story_id IS NOT NULL THEN 1 ELSE 0 END AS is_read_later,
        CASE WHEN d.story_id IS NOT NULL THEN 1 ELSE 0 END AS is_dismissed,
        CASE WHEN h.story_id IS NOT NULL THEN 1 ELSE 0 END AS is_read,
        CASE WHEN bd.domain IS NOT NULL THEN 1 ELSE 0 END AS is_domain_blocked
    FROM stories s
    LEFT JOIN merit_domains md ON s.domain = md.domain
    LEFT JOIN demerit_domains dd ON s.domain = dd.domain
    LEFT JOIN read_later rl ON s.id = rl.story_id
    LEFT JOIN dismissed d ON s.id = d.story_id
    LEFT JOIN history h ON s.id = h.story_id
    LEFT JOIN blocked_domains bd ON s.domain = bd.domain
)
SELECT id, title, url, domain, by, time, score, descendants,
       content_status, teaser, hit_front_page, front_page_rank,
       domain_merit, domain_demerit, is_read_later, is_dismissed, is_read, is_domain_blocked
FROM scored
WHERE 1=1`)

	var args []any
	if f.DismissedOnly {
		b.WriteString(" AND is_dismissed = 1")
	} else {
		b.WriteString(" AND is_dismissed = 0")
	}
	if !f.IncludeBlocked {
		b.WriteString(" AND is_domain_blocked = 0")
	}
	if !f.IncludeReadLater {
		b.WriteString(" AND is_read_later = 0")
	}
	args = appendKeyset(&b, args, f, "")
	appendOrder(&b, f.Oldest, "")
	b.WriteString(" LIMIT ?")
	args = append(args, f.Limit)

	return store.Many(ctx, r.q, scanRow, b.String(), args...)
}

// ReadLaterBatch is the read-later variant: inner join on the marker table,
// no domain blocking, and dismissed as the only exclusive filter
func (r *queries) ReadLaterBatch(ctx context.Context, f BatchFilter) ([]Row, error) {
	var b strings.Builder
	b.WriteString(`
SELECT s.id, s.title, s.url, s.domain, s.by, s.time, s.score, s.descendants,
       s.content_status, s.teaser, s.hit_front_page, s.front_page_rank,
       COALESCE(md.weight, 0) AS domain_merit,
       COALESCE(dd.weight, 0) AS domain_demerit,
       1 AS is_read_later,
       CASE WHEN d.story_id IS NOT NULL THEN 1 ELSE 0 END AS is_dismissed,
       CASE WHEN h.story_id IS NOT NULL THEN 1 ELSE 0 END AS is_read,
       0 AS is_domain_blocked
FROM stories s
JOIN read_later rl ON s.id = rl.story_id
LEFT JOIN dismissed d ON s.id = d.story_id
LEFT JOIN history h ON s.id = h.story_id
LEFT JOIN merit_domains md ON s.domain = md.domain
LEFT JOIN demerit_domains dd ON s.domain = dd.domain`)

	var args []any
	if f.DismissedOnly {
		b.WriteString(" WHERE d.story_id IS NOT NULL")
	} else {
		b.WriteString(" WHERE d.story_id IS NULL")
	}
	args = appendKeyset(&b, args, f, "s.")
	appendOrder(&b, f.Oldest, "s.")
	b.WriteString(" LIMIT ?")
	args = append(args, f.Limit)

	return store.Many(ctx, r.q, scanRow, b.String(), args...)
}

func appendKeyset(b *strings.Builder, args []any, f BatchFilter, col string) []any {
	if !f.HasCursor {
		return args
	}
	if f.Oldest {
		fmt.Fprintf(b, " AND (%[1]stime > ? OR (%[1]stime = ? AND %[1]sid > ?))", col)
	} else {
		fmt.Fprintf(b, " AND (%[1]stime < ? OR (%[1]stime = ? AND %[1]sid < ?))", col)
	}
	return append(args, f.CursorTime, f.CursorTime, f.CursorID)
}

func appendOrder(b *strings.Builder, oldest bool, col string) {
	if oldest {
		fmt.Fprintf(b, " ORDER BY %[1]stime ASC, %[1]sid ASC", col)
	} else {
		fmt.Fprintf(b, " ORDER BY %[1]stime DESC, %[1]sid DESC", col)
	}
}

func scanRow(row store.Row) (Row, error) {
	var r Row
	err := row.Scan(
		&r.ID, &r.Title, &r.URL, &r.Domain, &r.By, &r.Time, &r.Score, &r.Descendants,
		&r.ContentStatus, &r.Teaser, &r.HitFrontPage, &r.FrontPageRank,
		&r.DomainMerit, &r.DomainDemerit, &r.IsReadLater, &r.IsDismissed, &r.IsRead, &r.IsDomainBlocked,
	)
	return r, err
}
