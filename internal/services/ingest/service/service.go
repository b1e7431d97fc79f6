// Package service runs scheduled and on-demand story ingestion
package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"newsdesk/internal/adapters/ingest/algolia"
	"newsdesk/internal/adapters/ingest/firebase"
	"newsdesk/internal/core/hndomain"
	"newsdesk/internal/modkit/repokit"
	perr "newsdesk/internal/platform/errors"
	"newsdesk/internal/platform/logger"
	"newsdesk/internal/services/ingest/domain"
	"newsdesk/internal/services/ingest/repo"
)

const (
	defaultInterval = time.Hour

	// how far back the very first fetch reaches on an empty database
	defaultLookback = 80 * time.Hour
)

// Primary is the search API used for normal ingestion
type Primary interface {
	FetchSince(ctx context.Context, since int64) ([]algolia.Story, error)
}

// Fallback walks the official feed when the search API is down
type Fallback interface {
	FetchSince(ctx context.Context, since int64) ([]firebase.Item, error)
}

// Config tunes the fetch schedule
type Config struct {
	Interval time.Duration
	Lookback time.Duration
}

// Service defines the service contract for ingestion
type Service interface{ domain.ServicePort }

// Svc implements the Service interface
type Svc struct {
	Repo   repo.Repo
	binder repokit.Binder[repo.Repo]
	db     repokit.TxRunner

	primary  Primary
	fallback Fallback
	cfg      Config
	log      logger.Logger

	fetchMu sync.Mutex // held for the duration of one fetch

	mu        sync.Mutex
	lastFetch time.Time

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration)
}

// New creates a new ingestion service
func New(db repokit.TxRunner, binder repokit.Binder[repo.Repo], primary Primary, fallback Fallback, cfg Config) *Svc {
	if db == nil {
		panic("ingest.Service requires a non nil TxRunner")
	}
	if binder == nil {
		panic("ingest.Service requires a non nil Repo binder")
	}
	if primary == nil {
		panic("ingest.Service requires a non nil Primary source")
	}
	if fallback == nil {
		panic("ingest.Service requires a non nil Fallback source")
	}
	if cfg.Interval <= 0 {
		cfg.Interval = defaultInterval
	}
	if cfg.Lookback <= 0 {
		cfg.Lookback = defaultLookback
	}
	return &Svc{
		Repo:     binder.Bind(db),
		binder:   binder,
		db:       db,
		primary:  primary,
		fallback: fallback,
		cfg:      cfg,
		log:      *logger.Named("ingest"),
		now:      time.Now,
		sleep:    sleepCtx,
	}
}

// Run fetches once immediately, then on every wall-clock interval boundary
func (s *Svc) Run(ctx context.Context) error {
	s.log.Info().Dur("interval", s.cfg.Interval).Msg("ingest: fetcher started")

	if res, err := s.FetchNow(ctx); err != nil {
		s.log.Error().Err(err).Msg("ingest: initial fetch failed")
	} else {
		s.log.Info().Int("fetched", res.Fetched).Msg("ingest: initial fetch complete")
	}

	for {
		now := s.now()
		next := now.Truncate(s.cfg.Interval).Add(s.cfg.Interval)
		s.sleep(ctx, next.Sub(now))
		if ctx.Err() != nil {
			s.log.Info().Msg("ingest: fetcher stopped")
			return nil
		}

		if res, err := s.FetchNow(ctx); err != nil {
			s.log.Error().Err(err).Msg("ingest: scheduled fetch failed")
		} else {
			s.log.Info().Int("fetched", res.Fetched).Msg("ingest: scheduled fetch complete")
		}
	}
}

// FetchNow runs one fetch, refusing to overlap another in-flight fetch
func (s *Svc) FetchNow(ctx context.Context) (domain.FetchResult, error) {
	if !s.fetchMu.TryLock() {
		return domain.FetchResult{Error: "already fetching"}, nil
	}
	defer s.fetchMu.Unlock()

	n, err := s.fetch(ctx)
	if err != nil {
		return domain.FetchResult{}, perr.Wrapf(err, perr.ErrorCodeUnknown, "manual fetch failed")
	}

	s.mu.Lock()
	s.lastFetch = s.now()
	s.mu.Unlock()
	return domain.FetchResult{OK: true, Fetched: n}, nil
}

// LastFetch is the finish time of the most recent successful fetch
func (s *Svc) LastFetch() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastFetch
}

// fetch pulls everything between the checkpoint and now, oldest first so a
// mid-run crash leaves a usable checkpoint behind
func (s *Svc) fetch(ctx context.Context) (int, error) {
	now := s.now().Unix()

	since, err := s.Repo.NewestTime(ctx)
	if err != nil {
		return 0, err
	}
	if since == 0 {
		since = now - int64(s.cfg.Lookback/time.Second)
		s.log.Info().Int64("since", since).Msg("ingest: empty table, using lookback window")
	} else {
		s.log.Info().Int64("since", since).Msg("ingest: resuming from checkpoint")
	}
	if since >= now {
		s.log.Info().Msg("ingest: already up to date")
		return 0, nil
	}

	stories, err := s.primary.FetchSince(ctx, since)
	if err != nil {
		s.log.Warn().Err(err).Msg("ingest: search api failed, walking firebase")
		items, ferr := s.fallback.FetchSince(ctx, since)
		if ferr != nil {
			return 0, ferr
		}
		return s.insert(ctx, fromItems(items))
	}
	return s.insert(ctx, fromAlgolia(stories))
}

func (s *Svc) insert(ctx context.Context, stories []domain.Story) (int, error) {
	sort.Slice(stories, func(i, j int) bool { return stories[i].Time < stories[j].Time })
	for _, st := range stories {
		if err := s.Repo.Upsert(ctx, st); err != nil {
			return 0, err
		}
	}
	return len(stories), nil
}

func fromAlgolia(in []algolia.Story) []domain.Story {
	out := make([]domain.Story, 0, len(in))
	for _, s := range in {
		out = append(out, domain.Story{
			ID:          s.ID,
			Title:       s.Title,
			URL:         s.URL,
			Text:        s.Text,
			Domain:      hndomain.FromURL(s.URL),
			By:          s.By,
			Time:        s.Time,
			Score:       s.Score,
			Descendants: s.Descendants,
		})
	}
	return out
}

func fromItems(in []firebase.Item) []domain.Story {
	out := make([]domain.Story, 0, len(in))
	for _, it := range in {
		out = append(out, domain.Story{
			ID:          it.ID,
			Title:       it.Title,
			URL:         it.URL,
			Text:        it.Text,
			Domain:      hndomain.FromURL(it.URL),
			By:          it.By,
			Time:        it.Time,
			Score:       it.Score,
			Descendants: it.Descendants,
		})
	}
	return out
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
