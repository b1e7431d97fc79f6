// Package service keeps the database bounded: retention, backups, vacuum
package service

import (
	"context"
	"time"

	"newsdesk/internal/core/compress"
	"newsdesk/internal/modkit/repokit"
	perr "newsdesk/internal/platform/errors"
	"newsdesk/internal/platform/logger"
	"newsdesk/internal/platform/store"
	"newsdesk/internal/services/janitor/domain"
	"newsdesk/internal/services/janitor/repo"
)

const (
	defaultInterval       = time.Hour
	defaultDismissedAfter = 24 * time.Hour
	defaultMaxAge         = 14 * 24 * time.Hour
	defaultCacheAfter     = 90 * 24 * time.Hour

	// dismissal markers outlive their stories so re-ingestion cannot
	// resurface them; after this the ids have left the new feed for good
	markerAfter = 60 * 24 * time.Hour

	// cleanup passes between vacuum checks, one per day at the default interval
	vacuumEvery = 24

	migrateBatch = 100

	minFreePages   = 1000
	minFreePercent = 5.0
)

// UsageRollup folds aged usage logs into monthly summaries
type UsageRollup interface {
	Rollup(ctx context.Context) error
}

// Config tunes retention windows and the backup location
type Config struct {
	Interval       time.Duration
	DismissedAfter time.Duration
	MaxAge         time.Duration
	CacheAfter     time.Duration
	BackupDir      string
}

// Service defines the service contract for maintenance
type Service interface{ domain.ServicePort }

// Svc implements the Service interface
type Svc struct {
	Repo   repo.Repo
	binder repokit.Binder[repo.Repo]
	db     repokit.TxRunner

	maint store.Maintainer
	usage UsageRollup
	cfg   Config
	log   logger.Logger

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration)
}

// New creates a new maintenance service
func New(db repokit.TxRunner, binder repokit.Binder[repo.Repo], maint store.Maintainer, usage UsageRollup, cfg Config) *Svc {
	if db == nil {
		panic("janitor.Service requires a non nil TxRunner")
	}
	if binder == nil {
		panic("janitor.Service requires a non nil Repo binder")
	}
	if maint == nil {
		panic("janitor.Service requires a non nil Maintainer")
	}
	if usage == nil {
		panic("janitor.Service requires a non nil UsageRollup")
	}
	if cfg.Interval <= 0 {
		cfg.Interval = defaultInterval
	}
	if cfg.DismissedAfter <= 0 {
		cfg.DismissedAfter = defaultDismissedAfter
	}
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = defaultMaxAge
	}
	if cfg.CacheAfter <= 0 {
		cfg.CacheAfter = defaultCacheAfter
	}
	if cfg.BackupDir == "" {
		cfg.BackupDir = "backups"
	}
	return &Svc{
		Repo:   binder.Bind(db),
		binder: binder,
		db:     db,
		maint:  maint,
		usage:  usage,
		cfg:    cfg,
		log:    *logger.Named("janitor"),
		now:    time.Now,
		sleep:  sleepCtx,
	}
}

// Run cleans up and rotates backups immediately, then on every interval.
// Individual steps log and carry on; only cancellation stops the loop
func (s *Svc) Run(ctx context.Context) error {
	s.log.Info().Dur("interval", s.cfg.Interval).
		Dur("dismissed_after", s.cfg.DismissedAfter).
		Dur("max_age", s.cfg.MaxAge).Msg("janitor: started")

	passes := 0
	for {
		if ctx.Err() != nil {
			s.log.Info().Msg("janitor: stopped")
			return nil
		}

		if _, err := s.CleanupOnce(ctx); err != nil {
			s.log.Error().Err(err).Msg("janitor: cleanup failed")
		}
		if _, err := s.BackupRotate(ctx); err != nil {
			s.log.Error().Err(err).Msg("janitor: backup failed")
		}

		passes++
		if passes%vacuumEvery == 0 {
			if _, err := s.MaybeVacuum(ctx); err != nil {
				s.log.Error().Err(err).Msg("janitor: vacuum failed")
			}
		}

		s.sleep(ctx, s.cfg.Interval)
	}
}

// CleanupOnce removes expired stories and their child rows, prunes old
// dismissal markers and cached fetches, and rolls up aged usage logs
func (s *Svc) CleanupOnce(ctx context.Context) (domain.CleanupResult, error) {
	now := s.now()

	dismissed, err := s.Repo.DismissedExpired(ctx, now.Add(-s.cfg.DismissedAfter).Unix())
	if err != nil {
		return domain.CleanupResult{}, err
	}
	aged, err := s.Repo.AgedOut(ctx, now.Add(-s.cfg.MaxAge).Unix())
	if err != nil {
		return domain.CleanupResult{}, err
	}

	all := make([]int64, 0, len(dismissed)+len(aged))
	all = append(all, dismissed...)
	all = append(all, aged...)
	if len(all) > 0 {
		if err := s.Repo.DeleteStories(ctx, all); err != nil {
			return domain.CleanupResult{}, err
		}
	}

	if err := s.Repo.DeleteDismissedMarkersBefore(ctx, now.Add(-markerAfter).Unix()); err != nil {
		return domain.CleanupResult{}, err
	}
	if err := s.Repo.DeleteCachedBefore(ctx, now.Add(-s.cfg.CacheAfter).Unix()); err != nil {
		return domain.CleanupResult{}, err
	}
	if err := s.usage.Rollup(ctx); err != nil {
		return domain.CleanupResult{}, err
	}

	res := domain.CleanupResult{Dismissed: len(dismissed), Old: len(aged)}
	if res.Dismissed+res.Old > 0 {
		s.log.Info().Int("dismissed", res.Dismissed).Int("old", res.Old).Msg("janitor: stories deleted")
	}
	return res, nil
}

// MaybeVacuum rebuilds the file when the freelist is worth reclaiming
func (s *Svc) MaybeVacuum(ctx context.Context) (bool, error) {
	free, total, err := s.maint.FreePages(ctx)
	if err != nil {
		return false, err
	}
	if total == 0 {
		return false, nil
	}

	pct := float64(free) / float64(total) * 100
	if free < minFreePages && pct < minFreePercent {
		return false, nil
	}

	s.log.Info().Int64("free_pages", free).Float64("free_percent", pct).Msg("janitor: running vacuum")
	if err := s.maint.Vacuum(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// Vacuum rebuilds the database file unconditionally
func (s *Svc) Vacuum(ctx context.Context) error { return s.maint.Vacuum(ctx) }

// MigrateCompress packs plain-text story bodies in place. A backup is taken
// first, every row is verified by unpacking before it is written, and the
// file is vacuumed afterwards to reclaim the space
func (s *Svc) MigrateCompress(ctx context.Context) (domain.MigrateResult, error) {
	backup, err := s.BackupRotate(ctx)
	if err != nil {
		return domain.MigrateResult{}, perr.Wrapf(err, perr.ErrorCodeUnknown, "backup before migration failed")
	}

	total, err := s.Repo.UncompressedCount(ctx)
	if err != nil {
		return domain.MigrateResult{}, err
	}
	if total == 0 {
		s.log.Info().Msg("janitor: no plain content to migrate")
		return domain.MigrateResult{Backup: backup}, nil
	}
	s.log.Info().Int("total", total).Msg("janitor: compressing stored content")

	res := domain.MigrateResult{Backup: backup}
	for {
		rows, err := s.Repo.UncompressedBatch(ctx, migrateBatch)
		if err != nil {
			return res, err
		}
		if len(rows) == 0 {
			break
		}

		progressed := false
		for _, row := range rows {
			packed := compress.Pack(row.Content)
			if compress.Unpack(packed) != row.Content {
				s.log.Error().Int64("story", row.ID).Msg("janitor: compression verify failed")
				res.Errors++
				continue
			}
			if err := s.Repo.SetContent(ctx, row.ID, packed); err != nil {
				return res, err
			}
			res.Migrated++
			progressed = true
		}
		// rows that fail verification stay plain; stop rather than respin
		if !progressed {
			break
		}
		s.log.Info().Int("migrated", res.Migrated).Int("total", total).Msg("janitor: migration progress")
	}

	if res.TotalCompressed, err = s.Repo.CompressedCount(ctx); err != nil {
		return res, err
	}

	s.log.Info().Msg("janitor: vacuuming after migration")
	if err := s.maint.Vacuum(ctx); err != nil {
		return res, err
	}
	return res, nil
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
