// Package service contains usage tracking workflows
package service

import (
	"context"
	"time"

	"newsdesk/internal/modkit/repokit"
	"newsdesk/internal/services/usage/domain"
	"newsdesk/internal/services/usage/repo"
)

// retention windows, in 30-day months to keep cutoff math simple
const (
	logRetentionDays     = 6 * 30
	summaryRetentionDays = 36 * 30
)

// Service defines the service contract for usage tracking
type Service interface{ domain.ServicePort }

// Svc implements the Service interface
type Svc struct {
	Repo   repo.Repo
	binder repokit.Binder[repo.Repo]
	db     repokit.TxRunner

	now func() time.Time
}

// New creates a new usage service
func New(db repokit.TxRunner, binder repokit.Binder[repo.Repo]) *Svc {
	if db == nil {
		panic("usage.Service requires a non nil TxRunner")
	}
	if binder == nil {
		panic("usage.Service requires a non nil Repo binder")
	}
	return &Svc{Repo: binder.Bind(db), binder: binder, db: db, now: time.Now}
}

// Log appends one billed render to the usage log
func (s *Svc) Log(ctx context.Context, e domain.Entry) error {
	return s.Repo.Insert(ctx, e.StoryID, e.URL, e.BrowserMs, e.Source)
}

// Stats aggregates the usage log for the billing endpoint
func (s *Svc) Stats(ctx context.Context) (domain.Stats, error) {
	var out domain.Stats
	var err error

	windows := []struct {
		dst  *domain.Bucket
		load func(context.Context) (repo.BucketRow, error)
	}{
		{&out.Today, s.Repo.Today},
		{&out.Week, s.Repo.Week},
		{&out.Month, s.Repo.Month},
		{&out.Total, s.Repo.Total},
	}
	for _, w := range windows {
		var b repo.BucketRow
		if b, err = w.load(ctx); err != nil {
			return domain.Stats{}, err
		}
		*w.dst = domain.Bucket{BrowserMs: b.BrowserMs, Requests: b.Requests}
	}

	rows, err := s.Repo.BySource(ctx)
	if err != nil {
		return domain.Stats{}, err
	}
	out.BySource = make(map[string]domain.Bucket, len(rows))
	for _, r := range rows {
		out.BySource[r.Source] = domain.Bucket{BrowserMs: r.BrowserMs, Requests: r.Requests}
	}
	return out, nil
}

// Rollup folds logs older than six months into monthly summaries, deletes
// the folded logs, and drops summaries older than three years. Cutoffs are
// anchored to the start of the current month so a partial month never rolls up
func (s *Svc) Rollup(ctx context.Context) error {
	now := s.now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	logCutoff := monthStart.AddDate(0, 0, -logRetentionDays).Format("2006-01-02")
	summaryCutoff := monthStart.AddDate(0, 0, -summaryRetentionDays).Format("2006-01")

	if err := s.Repo.RollupBefore(ctx, logCutoff); err != nil {
		return err
	}
	if err := s.Repo.DeleteLogsBefore(ctx, logCutoff); err != nil {
		return err
	}
	return s.Repo.DeleteSummariesBefore(ctx, summaryCutoff)
}
