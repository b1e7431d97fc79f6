package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"newsdesk/internal/adapters/render/cloudflare"
	"newsdesk/internal/core/compress"
	"newsdesk/internal/modkit/repokit"
	perr "newsdesk/internal/platform/errors"
	"newsdesk/internal/platform/store"
	"newsdesk/internal/services/extract/repo"
	usagedom "newsdesk/internal/services/usage/domain"
)

type fakeTx struct{}

func (fakeTx) Tx(ctx context.Context, fn func(q store.RowQuerier) error) error { return fn(fakeTx{}) }

func (fakeTx) Exec(ctx context.Context, sql string, args ...any) (store.CommandTag, error) {
	var z store.CommandTag
	return z, nil
}

func (fakeTx) Query(ctx context.Context, sql string, args ...any) (store.Rows, error) {
	var z store.Rows
	return z, nil
}

func (fakeTx) QueryRow(ctx context.Context, sql string, args ...any) store.Row {
	var z store.Row
	return z
}

type completeCall struct {
	id        int64
	content   *string
	teaser    *string
	status    string
	source    string
	browserMs float64
}

type cacheWrite struct {
	url       string
	content   string
	source    string
	browserMs float64
}

type fakeRepo struct {
	cache map[string]repo.CacheRow

	completes []completeCall
	retries   []int64
	writes    []cacheWrite

	claimErr             error
	skipN, resetN, failN int64
	sweeps               int
	diag                 repo.DiagnosticRow
	stats                repo.StatsRow
}

func (f *fakeRepo) Claim(context.Context, int) (repo.JobRow, error) {
	if f.claimErr != nil {
		return repo.JobRow{}, f.claimErr
	}
	return repo.JobRow{}, perr.ErrNotFound
}

func (f *fakeRepo) Complete(
	_ context.Context, id int64, content, teaser *string, status, source string, browserMs float64,
) error {
	f.completes = append(f.completes, completeCall{id, content, teaser, status, source, browserMs})
	return nil
}

func (f *fakeRepo) Retry(_ context.Context, id int64) error {
	f.retries = append(f.retries, id)
	return nil
}

func (f *fakeRepo) SkipMissingURL(context.Context) (int64, error) {
	f.sweeps++
	return f.skipN, nil
}

func (f *fakeRepo) ResetStuckFetching(context.Context, int) (int64, error) { return f.resetN, nil }

func (f *fakeRepo) FailExhausted(context.Context, int) (int64, error) { return f.failN, nil }

func (f *fakeRepo) QueueStats(context.Context) (repo.StatsRow, error) { return f.stats, nil }

func (f *fakeRepo) Diagnostic(context.Context) (repo.DiagnosticRow, error) { return f.diag, nil }

func (f *fakeRepo) CachedContent(_ context.Context, url string) (repo.CacheRow, error) {
	if c, ok := f.cache[url]; ok {
		return c, nil
	}
	return repo.CacheRow{}, perr.ErrNotFound
}

func (f *fakeRepo) CacheContent(_ context.Context, url, content, source string, browserMs float64) error {
	f.writes = append(f.writes, cacheWrite{url, content, source, browserMs})
	return nil
}

type fakeRenderer struct {
	res    cloudflare.Result
	called int
}

func (f *fakeRenderer) Render(context.Context, string) cloudflare.Result {
	f.called++
	return f.res
}

type fakeUsage struct{ entries []usagedom.Entry }

func (f *fakeUsage) Log(_ context.Context, e usagedom.Entry) error {
	f.entries = append(f.entries, e)
	return nil
}

func newSvc(fr *fakeRepo, rd *fakeRenderer, u *fakeUsage) *Svc {
	s := New(fakeTx{}, repokit.BindFunc[repo.Repo](func(repokit.Queryer) repo.Repo { return fr }), rd, u, Config{})
	s.sleep = func(context.Context, time.Duration) {}
	return s
}

func jobRow(id int64, url, dom string, attempts int) repo.JobRow {
	return repo.JobRow{ID: id, URL: &url, Domain: &dom, Attempts: attempts}
}

func TestProcess_CacheHitSkipsRender(t *testing.T) {
	fr := &fakeRepo{cache: map[string]repo.CacheRow{
		"https://a.test/x": {Content: "cached article body text", Source: "cloudflare", BrowserMs: 120},
	}}
	rd := &fakeRenderer{}
	u := &fakeUsage{}
	s := newSvc(fr, rd, u)

	s.process(context.Background(), s.log, jobRow(1, "https://a.test/x", "a.test", 1))

	if rd.called != 0 {
		t.Fatalf("renderer called %d times for a cache hit", rd.called)
	}
	if len(fr.completes) != 1 {
		t.Fatalf("completes = %+v", fr.completes)
	}
	c := fr.completes[0]
	if c.status != "done" || c.source != "cloudflare" || c.browserMs != 120 {
		t.Fatalf("complete = %+v", c)
	}
	if c.content == nil || compress.Unpack(*c.content) != "cached article body text" {
		t.Fatalf("content not packed round-trippable: %+v", c.content)
	}
	if c.teaser == nil || *c.teaser != "cached article body text" {
		t.Fatalf("teaser = %v", c.teaser)
	}
	if len(u.entries) != 0 {
		t.Fatalf("cache hit logged usage: %+v", u.entries)
	}
}

func TestProcess_DoneCachesAndLogsUsage(t *testing.T) {
	fr := &fakeRepo{}
	rd := &fakeRenderer{res: cloudflare.Result{
		Content: "fresh article body", Outcome: cloudflare.OutcomeDone, BilledMs: 450,
	}}
	u := &fakeUsage{}
	s := newSvc(fr, rd, u)

	s.process(context.Background(), s.log, jobRow(2, "https://b.test/y", "b.test", 1))

	if rd.called != 1 {
		t.Fatalf("renderer called %d times", rd.called)
	}
	if len(fr.writes) != 1 || fr.writes[0].content != "fresh article body" {
		t.Fatalf("cache writes = %+v", fr.writes)
	}
	if len(fr.completes) != 1 || fr.completes[0].status != "done" || fr.completes[0].browserMs != 450 {
		t.Fatalf("completes = %+v", fr.completes)
	}
	if len(u.entries) != 1 || u.entries[0].StoryID != 2 || u.entries[0].BrowserMs != 450 {
		t.Fatalf("usage = %+v", u.entries)
	}
}

func TestProcess_BlockedBelowMaxRequeues(t *testing.T) {
	fr := &fakeRepo{}
	rd := &fakeRenderer{res: cloudflare.Result{
		Content: "verify you are human", Outcome: cloudflare.OutcomeBlocked, BilledMs: 90,
	}}
	u := &fakeUsage{}
	s := newSvc(fr, rd, u)

	s.process(context.Background(), s.log, jobRow(3, "https://c.test/z", "c.test", 1))

	if len(fr.retries) != 1 || fr.retries[0] != 3 {
		t.Fatalf("retries = %v", fr.retries)
	}
	if len(fr.completes) != 0 {
		t.Fatalf("completes = %+v", fr.completes)
	}
}

func TestProcess_BlockedAtMaxKeepsBodyAndBills(t *testing.T) {
	fr := &fakeRepo{}
	rd := &fakeRenderer{res: cloudflare.Result{
		Content: "verify you are human", Outcome: cloudflare.OutcomeBlocked, BilledMs: 90,
	}}
	u := &fakeUsage{}
	s := newSvc(fr, rd, u)

	s.process(context.Background(), s.log, jobRow(4, "https://c.test/z", "c.test", 3))

	if len(fr.completes) != 1 {
		t.Fatalf("completes = %+v", fr.completes)
	}
	c := fr.completes[0]
	if c.status != "blocked" || c.content == nil {
		t.Fatalf("complete = %+v", c)
	}
	if len(u.entries) != 1 || u.entries[0].BrowserMs != 90 {
		t.Fatalf("usage = %+v", u.entries)
	}
}

func TestProcess_TimeoutAtMaxFails(t *testing.T) {
	fr := &fakeRepo{}
	rd := &fakeRenderer{res: cloudflare.Result{Outcome: cloudflare.OutcomeTimeout}}
	s := newSvc(fr, rd, &fakeUsage{})

	s.process(context.Background(), s.log, jobRow(5, "https://d.test/w", "d.test", 3))

	if len(fr.completes) != 1 || fr.completes[0].status != "failed" {
		t.Fatalf("completes = %+v", fr.completes)
	}
	if fr.completes[0].content != nil {
		t.Fatalf("failed job stored content: %v", *fr.completes[0].content)
	}
}

func TestProcess_RateLimitSetsSharedGate(t *testing.T) {
	fr := &fakeRepo{}
	rd := &fakeRenderer{res: cloudflare.Result{
		Outcome: cloudflare.OutcomeRateLimited, RetryAfter: 90 * time.Second,
	}}
	s := newSvc(fr, rd, &fakeUsage{})
	base := time.Date(2026, time.August, 25, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return base }

	s.process(context.Background(), s.log, jobRow(6, "https://e.test/v", "e.test", 1))

	if len(fr.retries) != 1 {
		t.Fatalf("retries = %v", fr.retries)
	}
	if got := s.GateState().RateLimitedUntil; !got.Equal(base.Add(90 * time.Second)) {
		t.Fatalf("rate gate = %v", got)
	}
	if wait, gated := s.gateWait(); !gated || wait != 30*time.Second {
		t.Fatalf("gateWait = %v %v, want sliced 30s", wait, gated)
	}
}

func TestProcess_QuotaParksUntilUTCMidnight(t *testing.T) {
	fr := &fakeRepo{}
	rd := &fakeRenderer{res: cloudflare.Result{Outcome: cloudflare.OutcomeQuotaExceeded}}
	s := newSvc(fr, rd, &fakeUsage{})
	base := time.Date(2026, time.August, 25, 23, 30, 0, 0, time.UTC)
	s.now = func() time.Time { return base }

	s.process(context.Background(), s.log, jobRow(7, "https://f.test/u", "f.test", 1))

	want := time.Date(2026, time.August, 26, 0, 0, 0, 0, time.UTC)
	if got := s.GateState().QuotaExceededUntil; !got.Equal(want) {
		t.Fatalf("quota gate = %v, want %v", got, want)
	}
	if len(fr.retries) != 1 {
		t.Fatalf("retries = %v", fr.retries)
	}
	if wait, gated := s.gateWait(); !gated || wait != time.Minute {
		t.Fatalf("gateWait = %v %v, want minute poll", wait, gated)
	}
}

func TestPaceDomain_SpacesSameHost(t *testing.T) {
	s := newSvc(&fakeRepo{}, &fakeRenderer{}, &fakeUsage{})
	base := time.Date(2026, time.August, 25, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return base }

	var slept []time.Duration
	s.sleep = func(_ context.Context, d time.Duration) { slept = append(slept, d) }

	s.paceDomain(context.Background(), "a.test")
	s.paceDomain(context.Background(), "a.test")
	s.paceDomain(context.Background(), "b.test")

	if len(slept) != 1 || slept[0] != 2*time.Second {
		t.Fatalf("slept = %v", slept)
	}
}

func TestStuckCleanup_SumsRepairCounts(t *testing.T) {
	fr := &fakeRepo{skipN: 2, resetN: 3, failN: 4}
	s := newSvc(fr, &fakeRenderer{}, &fakeUsage{})

	n, err := s.StuckCleanup(context.Background())
	if err != nil {
		t.Fatalf("StuckCleanup: %v", err)
	}
	if n != 9 {
		t.Fatalf("repaired = %d, want 9", n)
	}
}

func TestQueueStats_MapsRow(t *testing.T) {
	fr := &fakeRepo{stats: repo.StatsRow{Pending: 5, Done: 40, Blocked: 2}}
	s := newSvc(fr, &fakeRenderer{}, &fakeUsage{})

	got, err := s.QueueStats(context.Background())
	if err != nil {
		t.Fatalf("QueueStats: %v", err)
	}
	if got.Pending != 5 || got.Done != 40 || got.Blocked != 2 {
		t.Fatalf("stats = %+v", got)
	}
}

func TestWorker_LeadWorkerSweepsWhenIdle(t *testing.T) {
	fr := &fakeRepo{}
	s := newSvc(fr, &fakeRenderer{}, &fakeUsage{})

	ctx, cancel := context.WithCancel(context.Background())
	polls := 0
	s.sleep = func(context.Context, time.Duration) {
		polls++
		if polls > idleSweepAfter {
			cancel()
		}
	}

	if err := s.worker(ctx, 1); err != nil {
		t.Fatalf("worker: %v", err)
	}
	if fr.sweeps != 1 {
		t.Fatalf("sweeps = %d, want one after %d idle polls", fr.sweeps, idleSweepAfter)
	}
}

func TestWorker_ContendedClaimIsNotIdle(t *testing.T) {
	fr := &fakeRepo{claimErr: errors.New("database is locked")}
	s := newSvc(fr, &fakeRenderer{}, &fakeUsage{})

	ctx, cancel := context.WithCancel(context.Background())
	polls := 0
	s.sleep = func(context.Context, time.Duration) {
		polls++
		if polls > 2*idleSweepAfter {
			cancel()
		}
	}

	if err := s.worker(ctx, 1); err != nil {
		t.Fatalf("worker: %v", err)
	}
	if fr.sweeps != 0 {
		t.Fatalf("sweeps = %d, a contended claim must not trigger the idle sweep", fr.sweeps)
	}
}
