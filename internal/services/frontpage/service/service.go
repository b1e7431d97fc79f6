// Package service polls the top stories list and records front page visits
package service

import (
	"context"
	"time"

	"newsdesk/internal/modkit/repokit"
	"newsdesk/internal/platform/logger"
	"newsdesk/internal/services/frontpage/domain"
	"newsdesk/internal/services/frontpage/repo"
)

const (
	defaultInterval = 5 * time.Minute

	// only the first thirty ranks count as the front page
	frontPageSize = 30
)

// TopSource supplies the ranked top stories id list
type TopSource interface {
	TopStories(ctx context.Context) ([]int64, error)
}

// Config tunes the poll schedule
type Config struct {
	Interval time.Duration
}

// Service defines the service contract for front page tracking
type Service interface{ domain.ServicePort }

// Svc implements the Service interface
type Svc struct {
	Repo   repo.Repo
	binder repokit.Binder[repo.Repo]
	db     repokit.TxRunner

	top TopSource
	cfg Config
	log logger.Logger

	sleep func(ctx context.Context, d time.Duration)
}

// New creates a new front page tracker
func New(db repokit.TxRunner, binder repokit.Binder[repo.Repo], top TopSource, cfg Config) *Svc {
	if db == nil {
		panic("frontpage.Service requires a non nil TxRunner")
	}
	if binder == nil {
		panic("frontpage.Service requires a non nil Repo binder")
	}
	if top == nil {
		panic("frontpage.Service requires a non nil TopSource")
	}
	if cfg.Interval <= 0 {
		cfg.Interval = defaultInterval
	}
	return &Svc{
		Repo:   binder.Bind(db),
		binder: binder,
		db:     db,
		top:    top,
		cfg:    cfg,
		log:    *logger.Named("frontpage"),
		sleep:  sleepCtx,
	}
}

// Run polls the top stories list until ctx is cancelled
func (s *Svc) Run(ctx context.Context) error {
	s.log.Info().Dur("interval", s.cfg.Interval).Msg("frontpage: tracker started")

	for {
		if ctx.Err() != nil {
			s.log.Info().Msg("frontpage: tracker stopped")
			return nil
		}

		ids, err := s.top.TopStories(ctx)
		if err != nil {
			s.log.Error().Err(err).Msg("frontpage: top stories poll failed")
		} else if updated, err := s.Apply(ctx, ids); err != nil {
			s.log.Error().Err(err).Msg("frontpage: rank update failed")
		} else if updated > 0 {
			s.log.Info().Int("updated", updated).Msg("frontpage: ranks updated")
		}

		s.sleep(ctx, s.cfg.Interval)
	}
}

// Apply marks the first thirty ids as front page stories, keeping each
// story's best rank
func (s *Svc) Apply(ctx context.Context, topIDs []int64) (int, error) {
	if len(topIDs) > frontPageSize {
		topIDs = topIDs[:frontPageSize]
	}

	updated := 0
	for i, id := range topIDs {
		n, err := s.Repo.MarkFrontPage(ctx, id, i+1)
		if err != nil {
			return updated, err
		}
		updated += int(n)
	}
	return updated, nil
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
