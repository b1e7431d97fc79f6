// Package service runs the content extraction worker pool
package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"newsdesk/internal/adapters/render/cloudflare"
	"newsdesk/internal/core/compress"
	"newsdesk/internal/core/hndomain"
	"newsdesk/internal/core/teaser"
	"newsdesk/internal/modkit/repokit"
	perr "newsdesk/internal/platform/errors"
	"newsdesk/internal/platform/logger"
	str "newsdesk/internal/platform/strings"
	"newsdesk/internal/services/extract/domain"
	"newsdesk/internal/services/extract/repo"
	usagedom "newsdesk/internal/services/usage/domain"
)

const (
	defaultWorkers     = 3
	defaultMaxAttempts = 3

	// delay between requests to the same site, shared across workers
	domainDelay = 2 * time.Second

	idlePoll = 5 * time.Second
	// idle polls before the lead worker sweeps the queue for stuck jobs
	idleSweepAfter = 12

	// rate limit waits are sliced so cancellation stays responsive
	rateWaitSlice = 30 * time.Second
	quotaPoll     = time.Minute

	sourceCloudflare = "cloudflare"
)

// Renderer turns a URL into readable article text
type Renderer interface {
	Render(ctx context.Context, url string) cloudflare.Result
}

// UsageLog receives one entry per billed render
type UsageLog interface {
	Log(ctx context.Context, e usagedom.Entry) error
}

// Config tunes the worker pool
type Config struct {
	Workers     int
	MaxAttempts int
}

// Service defines the service contract for content extraction
type Service interface{ domain.ServicePort }

// Svc implements the Service interface
type Svc struct {
	Repo   repo.Repo
	binder repokit.Binder[repo.Repo]
	db     repokit.TxRunner

	render Renderer
	usage  UsageLog
	cfg    Config
	log    logger.Logger

	mu         sync.Mutex
	rateUntil  time.Time
	quotaUntil time.Time
	domainLast map[string]time.Time

	// claimant identifies this process in worker logs, useful when two
	// instances accidentally share a database file
	claimant string

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration)
}

// New creates a new extraction service
func New(db repokit.TxRunner, binder repokit.Binder[repo.Repo], render Renderer, usage UsageLog, cfg Config) *Svc {
	if db == nil {
		panic("extract.Service requires a non nil TxRunner")
	}
	if binder == nil {
		panic("extract.Service requires a non nil Repo binder")
	}
	if render == nil {
		panic("extract.Service requires a non nil Renderer")
	}
	if usage == nil {
		panic("extract.Service requires a non nil UsageLog")
	}
	if cfg.Workers <= 0 {
		cfg.Workers = defaultWorkers
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultMaxAttempts
	}
	return &Svc{
		Repo:       binder.Bind(db),
		binder:     binder,
		db:         db,
		render:     render,
		usage:      usage,
		cfg:        cfg,
		log:        *logger.Named("extract"),
		claimant:   uuid.NewString(),
		domainLast: make(map[string]time.Time),
		now:        time.Now,
		sleep:      sleepCtx,
	}
}

// Run repairs the queue, then drives the worker pool until ctx is cancelled
func (s *Svc) Run(ctx context.Context) error {
	if _, err := s.StuckCleanup(ctx); err != nil {
		s.log.Error().Err(err).Msg("extract: startup queue sweep failed")
	}

	g, ctx := errgroup.WithContext(ctx)
	for i := 1; i <= s.cfg.Workers; i++ {
		g.Go(func() error { return s.worker(ctx, i) })
	}
	return g.Wait()
}

func (s *Svc) worker(ctx context.Context, id int) error {
	l := s.log.With().Int("worker", id).Str("claimant", s.claimant).Logger()
	l.Info().Msg("extract: worker started")

	idle := 0
	for {
		if ctx.Err() != nil {
			l.Info().Msg("extract: worker stopped")
			return nil
		}

		if wait, gated := s.gateWait(); gated {
			s.sleep(ctx, wait)
			continue
		}

		job, err := s.Repo.Claim(ctx, s.cfg.MaxAttempts)
		if err != nil {
			switch {
			case errors.Is(err, perr.ErrNotFound):
				idle++
				// only the lead worker sweeps, so the repair runs once
				if id == 1 && idle >= idleSweepAfter {
					idle = 0
					if _, cerr := s.StuckCleanup(ctx); cerr != nil {
						l.Error().Err(cerr).Msg("extract: queue sweep failed")
					}
				}
			case perr.Retryable(err):
				// a contended database is not an idle queue
				l.Warn().Err(err).Msg("extract: claim contended, will retry")
			default:
				l.Error().Err(err).Msg("extract: claim failed")
			}
			s.sleep(ctx, idlePoll)
			continue
		}

		idle = 0
		s.process(ctx, l, job)
	}
}

// gateWait reports whether the shared backoff state forbids work right now
func (s *Svc) gateWait() (time.Duration, bool) {
	now := s.now()
	s.mu.Lock()
	rate, quota := s.rateUntil, s.quotaUntil
	s.mu.Unlock()

	if rate.After(now) {
		return min(rate.Sub(now), rateWaitSlice), true
	}
	if quota.After(now) {
		return min(quota.Sub(now), quotaPoll), true
	}
	return 0, false
}

func (s *Svc) process(ctx context.Context, l logger.Logger, row repo.JobRow) {
	job := domain.Job{
		ID:       row.ID,
		URL:      str.Deref(row.URL),
		Domain:   str.Deref(row.Domain),
		Attempts: row.Attempts,
	}
	if job.Domain == "" {
		job.Domain = hndomain.FromURL(job.URL)
	}

	// a URL fetched for an earlier story never hits the browser again
	hit, err := s.Repo.CachedContent(ctx, job.URL)
	if err == nil {
		s.finish(ctx, l, job, hit.Content, "done", hit.Source, hit.BrowserMs)
		l.Info().Int64("story", job.ID).Str("domain", job.Domain).Msg("extract: cache hit")
		return
	}
	if !errors.Is(err, perr.ErrNotFound) {
		l.Error().Err(err).Int64("story", job.ID).Msg("extract: cache lookup failed")
	}

	s.paceDomain(ctx, job.Domain)

	res := s.render.Render(ctx, job.URL)
	switch res.Outcome {
	case cloudflare.OutcomeDone:
		if cerr := s.Repo.CacheContent(ctx, job.URL, res.Content, sourceCloudflare, res.BilledMs); cerr != nil {
			l.Error().Err(cerr).Int64("story", job.ID).Msg("extract: cache write failed")
		}
		s.finish(ctx, l, job, res.Content, "done", sourceCloudflare, res.BilledMs)
		s.logUsage(ctx, l, job, res.BilledMs)
		l.Info().Int64("story", job.ID).Str("domain", job.Domain).
			Float64("browser_ms", res.BilledMs).Msg("extract: done")

	case cloudflare.OutcomeBlocked:
		if job.Attempts >= s.cfg.MaxAttempts {
			// keep the body; the block page itself is sometimes readable
			s.finish(ctx, l, job, res.Content, "blocked", sourceCloudflare, res.BilledMs)
			if res.BilledMs > 0 {
				s.logUsage(ctx, l, job, res.BilledMs)
			}
			l.Warn().Int64("story", job.ID).Str("domain", job.Domain).
				Int("attempts", job.Attempts).Msg("extract: blocked, giving up")
		} else {
			s.requeue(ctx, l, job, "blocked")
		}

	case cloudflare.OutcomeTimeout:
		if job.Attempts >= s.cfg.MaxAttempts {
			s.finish(ctx, l, job, "", "failed", sourceCloudflare, 0)
			l.Warn().Int64("story", job.ID).Str("domain", job.Domain).
				Int("attempts", job.Attempts).Msg("extract: timeouts, giving up")
		} else {
			s.requeue(ctx, l, job, "timeout")
		}

	case cloudflare.OutcomeQuotaExceeded:
		// daily browser budget is spent; park everything until UTC midnight
		s.requeue(ctx, l, job, "quota")
		until := nextUTCMidnight(s.now())
		s.mu.Lock()
		s.quotaUntil = until
		s.mu.Unlock()
		l.Warn().Time("until", until).Msg("extract: daily quota exceeded")

	case cloudflare.OutcomeRateLimited:
		s.requeue(ctx, l, job, "rate limit")
		wait := res.RetryAfter
		if wait <= 0 {
			wait = time.Minute
		}
		s.mu.Lock()
		s.rateUntil = s.now().Add(wait)
		s.mu.Unlock()
		l.Warn().Dur("wait", wait).Msg("extract: rate limited, all workers backing off")

	default:
		if job.Attempts >= s.cfg.MaxAttempts {
			s.finish(ctx, l, job, "", "failed", sourceCloudflare, 0)
			l.Warn().Int64("story", job.ID).Str("domain", job.Domain).
				Str("detail", res.Detail).Msg("extract: failed, giving up")
		} else {
			l.Info().Int64("story", job.ID).Str("domain", job.Domain).
				Int("attempts", job.Attempts).Str("detail", res.Detail).Msg("extract: failed, will retry")
			if err := s.Repo.Retry(ctx, job.ID); err != nil {
				l.Error().Err(err).Int64("story", job.ID).Msg("extract: retry failed")
			}
		}
	}
}

// finish packs the body, derives the listing teaser, and closes out the job
func (s *Svc) finish(ctx context.Context, l logger.Logger, job domain.Job, content, status, source string, browserMs float64) {
	var packed, tease *string
	if content != "" {
		p := compress.Pack(content)
		t := teaser.Make(content)
		packed, tease = &p, &t
	}
	if err := s.Repo.Complete(ctx, job.ID, packed, tease, status, source, browserMs); err != nil {
		l.Error().Err(err).Int64("story", job.ID).Msg("extract: complete failed")
	}
}

func (s *Svc) requeue(ctx context.Context, l logger.Logger, job domain.Job, why string) {
	l.Info().Int64("story", job.ID).Str("domain", job.Domain).
		Int("attempts", job.Attempts).Str("cause", why).Msg("extract: requeued")
	if err := s.Repo.Retry(ctx, job.ID); err != nil {
		l.Error().Err(err).Int64("story", job.ID).Msg("extract: retry failed")
	}
}

func (s *Svc) logUsage(ctx context.Context, l logger.Logger, job domain.Job, browserMs float64) {
	e := usagedom.Entry{StoryID: job.ID, URL: job.URL, BrowserMs: browserMs, Source: sourceCloudflare}
	if err := s.usage.Log(ctx, e); err != nil {
		l.Error().Err(err).Int64("story", job.ID).Msg("extract: usage log failed")
	}
}

// paceDomain reserves the next request slot for a site and waits for it,
// so concurrent workers never hammer one host
func (s *Svc) paceDomain(ctx context.Context, d string) {
	if d == "" {
		return
	}
	now := s.now()
	s.mu.Lock()
	wait := domainDelay - now.Sub(s.domainLast[d])
	if wait < 0 {
		wait = 0
	}
	s.domainLast[d] = now.Add(wait)
	s.mu.Unlock()

	if wait > 0 {
		s.sleep(ctx, wait)
	}
}

// StuckCleanup repairs jobs stranded by a crash: self posts without a URL are
// skipped, stale 'fetching' rows go back to retry, and anything out of
// attempts is marked failed
func (s *Svc) StuckCleanup(ctx context.Context) (int, error) {
	diag, err := s.Repo.Diagnostic(ctx)
	if err != nil {
		return 0, err
	}
	if diag.Fetching > 0 || diag.ExhaustedNotFailed > 0 || diag.NoURL > 0 {
		s.log.Info().Int("fetching", diag.Fetching).Int("exhausted", diag.ExhaustedNotFailed).
			Int("no_url", diag.NoURL).Msg("extract: queue needs repair")
	}

	skipped, err := s.Repo.SkipMissingURL(ctx)
	if err != nil {
		return 0, err
	}
	reset, err := s.Repo.ResetStuckFetching(ctx, s.cfg.MaxAttempts)
	if err != nil {
		return 0, err
	}
	failed, err := s.Repo.FailExhausted(ctx, s.cfg.MaxAttempts)
	if err != nil {
		return 0, err
	}

	total := int(skipped + reset + failed)
	if total > 0 {
		s.log.Info().Int64("skipped", skipped).Int64("reset", reset).
			Int64("failed", failed).Msg("extract: queue repaired")
	}
	return total, nil
}

// QueueStats summarizes the extraction queue for the status endpoint
func (s *Svc) QueueStats(ctx context.Context) (domain.QueueStats, error) {
	row, err := s.Repo.QueueStats(ctx)
	if err != nil {
		return domain.QueueStats{}, err
	}
	return domain.QueueStats{
		Pending:  row.Pending,
		Retry:    row.Retry,
		Fetching: row.Fetching,
		Done:     row.Done,
		Failed:   row.Failed,
		Blocked:  row.Blocked,
		Skipped:  row.Skipped,
	}, nil
}

// Diagnostic returns the detailed queue breakdown
func (s *Svc) Diagnostic(ctx context.Context) (domain.Diagnostic, error) {
	row, err := s.Repo.Diagnostic(ctx)
	if err != nil {
		return domain.Diagnostic{}, err
	}
	return domain.Diagnostic{
		PendingFresh:        row.PendingFresh,
		PendingWithAttempts: row.PendingWithAttempts,
		Retry:               row.Retry,
		Fetching:            row.Fetching,
		Done:                row.Done,
		Failed:              row.Failed,
		Blocked:             row.Blocked,
		Skipped:             row.Skipped,
		NoURL:               row.NoURL,
		ExhaustedNotFailed:  row.ExhaustedNotFailed,
	}, nil
}

// GateState snapshots the shared backoff timers
func (s *Svc) GateState() domain.Gates {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.Gates{RateLimitedUntil: s.rateUntil, QuotaExceededUntil: s.quotaUntil}
}

// Workers reports the configured pool size
func (s *Svc) Workers() int { return s.cfg.Workers }

func nextUTCMidnight(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
}

// sleepCtx waits for d or until ctx is cancelled, whichever comes first
func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
