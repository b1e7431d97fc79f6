// Package service contains story listing and curation workflows
package service

import (
	"context"
	"fmt"
	"strings"

	"newsdesk/internal/core/compress"
	"newsdesk/internal/core/teaser"
	"newsdesk/internal/modkit/repokit"
	str "newsdesk/internal/platform/strings"
	"newsdesk/internal/services/stories/domain"
	"newsdesk/internal/services/stories/repo"
)

// sqlMultiplier over-fetches each batch so the post-SQL word filter and URL
// dedup rarely force a second round trip
const sqlMultiplier = 3

// Service defines the service contract for stories
type Service interface{ domain.ServicePort }

// Svc implements the Service interface
type Svc struct {
	Repo   repo.Repo
	binder repokit.Binder[repo.Repo]
	db     repokit.TxRunner
}

// New creates a new stories service
func New(db repokit.TxRunner, binder repokit.Binder[repo.Repo]) *Svc {
	if db == nil {
		panic("stories.Service requires a non nil TxRunner")
	}
	if binder == nil {
		panic("stories.Service requires a non nil Repo binder")
	}
	return &Svc{Repo: binder.Bind(db), binder: binder, db: db}
}

// List pages through scored stories with keyset pagination. SQL handles the
// joins and the exclusive dismissed filter; blocked title words, URL dedup,
// and word scoring run here against over-fetched batches
func (s *Svc) List(ctx context.Context, in domain.ListInput) (domain.ListResult, error) {
	limit := clampLimit(in.Limit)
	if in.ReadLaterOnly {
		return s.listReadLater(ctx, in, limit)
	}

	merit, err := s.Repo.MeritWords(ctx)
	if err != nil {
		return domain.ListResult{}, err
	}
	demerit, err := s.Repo.DemeritWords(ctx)
	if err != nil {
		return domain.ListResult{}, err
	}
	blocked, err := s.Repo.BlockedWords(ctx)
	if err != nil {
		return domain.ListResult{}, err
	}

	f := repo.BatchFilter{
		DismissedOnly:    in.DismissedOnly,
		IncludeBlocked:   in.IncludeBlocked,
		IncludeReadLater: in.IncludeReadLater,
		Oldest:           in.Sort == domain.SortOldest,
		Limit:            limit * sqlMultiplier,
	}
	f.CursorTime, f.CursorID, f.HasCursor = domain.ParseCursor(in.Cursor)

	stories := make([]domain.Story, 0, limit)
	seen := make(map[string]struct{}, limit)
	hasMore := true

	for len(stories) < limit && hasMore {
		rows, err := s.Repo.ListBatch(ctx, f)
		if err != nil {
			return domain.ListResult{}, err
		}
		hasMore = len(rows) == f.Limit
		if len(rows) == 0 {
			break
		}

		for i := range rows {
			titleLower := strings.ToLower(rows[i].Title)
			if !in.IncludeBlocked && containsAny(titleLower, blocked) {
				continue
			}

			// dedup by URL, first occurrence in sort order wins
			key := str.Deref(rows[i].URL)
			if key == "" {
				key = fmt.Sprintf("hn:%d", rows[i].ID)
			}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}

			stories = append(stories, scoreRow(rows[i], titleLower, merit, demerit))
			if len(stories) >= limit {
				break
			}
		}

		// advance the keyset past the whole batch, not just the kept rows
		last := rows[len(rows)-1]
		f.CursorTime, f.CursorID, f.HasCursor = last.Time, last.ID, true
	}

	return finishPage(stories, limit, hasMore), nil
}

func (s *Svc) listReadLater(ctx context.Context, in domain.ListInput, limit int) (domain.ListResult, error) {
	merit, err := s.Repo.MeritWords(ctx)
	if err != nil {
		return domain.ListResult{}, err
	}
	demerit, err := s.Repo.DemeritWords(ctx)
	if err != nil {
		return domain.ListResult{}, err
	}

	f := repo.BatchFilter{
		DismissedOnly: in.DismissedOnly,
		Oldest:        in.Sort == domain.SortOldest,
		Limit:         limit * sqlMultiplier,
	}
	f.CursorTime, f.CursorID, f.HasCursor = domain.ParseCursor(in.Cursor)

	stories := make([]domain.Story, 0, limit)
	hasMore := true

	for len(stories) < limit && hasMore {
		rows, err := s.Repo.ReadLaterBatch(ctx, f)
		if err != nil {
			return domain.ListResult{}, err
		}
		hasMore = len(rows) == f.Limit
		if len(rows) == 0 {
			break
		}

		for i := range rows {
			stories = append(stories, scoreRow(rows[i], strings.ToLower(rows[i].Title), merit, demerit))
			if len(stories) >= limit {
				break
			}
		}

		last := rows[len(rows)-1]
		f.CursorTime, f.CursorID, f.HasCursor = last.Time, last.ID, true
	}

	return finishPage(stories, limit, hasMore), nil
}

// Get returns the full story row with content decompressed
func (s *Svc) Get(ctx context.Context, id int64) (domain.StoryDetail, error) {
	d, err := s.Repo.Get(ctx, id)
	if err != nil {
		return domain.StoryDetail{}, err
	}
	out := domain.StoryDetail{
		ID:              d.ID,
		Title:           d.Title,
		URL:             str.Deref(d.URL),
		Domain:          str.Deref(d.Domain),
		By:              str.Deref(d.By),
		Time:            d.Time,
		Score:           d.Score,
		Descendants:     d.Descendants,
		ContentStatus:   d.ContentStatus,
		ContentAttempts: d.ContentAttempts,
		ContentSource:   str.Deref(d.ContentSource),
		BrowserMs:       d.BrowserMs,
		Teaser:          str.Deref(d.Teaser),
		HitFrontPage:    d.HitFrontPage != 0,
		FrontPageRank:   d.FrontPageRank,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
	if d.Content != nil {
		out.Content = compress.Unpack(*d.Content)
	}
	return out, nil
}

// GetContent returns just the decompressed content and its status
func (s *Svc) GetContent(ctx context.Context, id int64) (domain.Content, error) {
	c, err := s.Repo.Content(ctx, id)
	if err != nil {
		return domain.Content{}, err
	}
	out := domain.Content{Status: c.Status}
	if c.Content != nil {
		out.Content = compress.Unpack(*c.Content)
	}
	return out, nil
}

// MarkOpened records the story in the read history
func (s *Svc) MarkOpened(ctx context.Context, id int64) error {
	return s.Repo.MarkOpened(ctx, id)
}

// Dismiss hides a story from the default listing
func (s *Svc) Dismiss(ctx context.Context, id int64) error {
	return s.Repo.Dismiss(ctx, id)
}

// Undismiss restores a dismissed story
func (s *Svc) Undismiss(ctx context.Context, id int64) error {
	return s.Repo.Undismiss(ctx, id)
}

// ClearDismissed drops every dismissal marker
func (s *Svc) ClearDismissed(ctx context.Context) error {
	return s.Repo.ClearDismissed(ctx)
}

// AddReadLater marks a story for later reading
func (s *Svc) AddReadLater(ctx context.Context, id int64) error {
	return s.Repo.AddReadLater(ctx, id)
}

// RemoveReadLater clears the read later marker
func (s *Svc) RemoveReadLater(ctx context.Context, id int64) error {
	return s.Repo.RemoveReadLater(ctx, id)
}

// Stats returns the corpus counters
func (s *Svc) Stats(ctx context.Context) (domain.Stats, error) {
	r, err := s.Repo.Stats(ctx)
	if err != nil {
		return domain.Stats{}, err
	}
	return domain.Stats{
		TotalStories:     r.TotalStories,
		PendingContent:   r.PendingContent,
		FetchingContent:  r.FetchingContent,
		DoneContent:      r.DoneContent,
		FailedContent:    r.FailedContent,
		BlockedContent:   r.BlockedContent,
		BlockedDomains:   r.BlockedDomains,
		BlockedWords:     r.BlockedWords,
		ReadLater:        r.ReadLater,
		Dismissed:        r.Dismissed,
		FrontPageStories: r.FrontPageStories,
	}, nil
}

// Updates returns stories whose extraction finished in the last minute,
// content decompressed and teaser regenerated for the poller
func (s *Svc) Updates(ctx context.Context) ([]domain.Update, error) {
	rows, err := s.Repo.Updates(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Update, 0, len(rows))
	for _, r := range rows {
		u := domain.Update{ID: r.ID, Title: r.Title, ContentStatus: r.ContentStatus}
		if r.Content != nil {
			text := compress.Unpack(*r.Content)
			u.Content = text
			u.Teaser = teaser.Make(text)
		}
		out = append(out, u)
	}
	return out, nil
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > 200 {
		return 50
	}
	return limit
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if sub != "" && strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func scoreRow(r repo.Row, titleLower string, merit, demerit map[string]int) domain.Story {
	st := domain.Story{
		ID:              r.ID,
		Title:           r.Title,
		URL:             str.Deref(r.URL),
		Domain:          str.Deref(r.Domain),
		By:              str.Deref(r.By),
		Time:            r.Time,
		Score:           r.Score,
		Descendants:     r.Descendants,
		ContentStatus:   r.ContentStatus,
		Teaser:          str.Deref(r.Teaser),
		HitFrontPage:    r.HitFrontPage != 0,
		FrontPageRank:   r.FrontPageRank,
		DomainMerit:     r.DomainMerit,
		DomainDemerit:   r.DomainDemerit,
		IsReadLater:     r.IsReadLater != 0,
		IsDismissed:     r.IsDismissed != 0,
		IsRead:          r.IsRead != 0,
		IsDomainBlocked: r.IsDomainBlocked != 0,
	}
	for w, weight := range merit {
		if strings.Contains(titleLower, w) {
			st.WordMerit += weight
		}
	}
	for w, weight := range demerit {
		if strings.Contains(titleLower, w) {
			st.WordDemerit += weight
		}
	}
	st.MeritScore = st.DomainMerit + st.WordMerit
	st.DemeritScore = st.DomainDemerit + st.WordDemerit
	st.NetScore = st.MeritScore - st.DemeritScore
	return st
}

func finishPage(stories []domain.Story, limit int, hasMore bool) domain.ListResult {
	var next string
	if len(stories) > 0 && (hasMore || len(stories) >= limit) {
		last := stories[len(stories)-1]
		next = domain.FormatCursor(last.Time, last.ID)
	}
	return domain.ListResult{Stories: stories, HasMore: hasMore, NextCursor: next}
}
