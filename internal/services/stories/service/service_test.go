package service

import (
	"context"
	"strings"
	"testing"

	"newsdesk/internal/core/compress"
	"newsdesk/internal/modkit/repokit"
	"newsdesk/internal/platform/store"
	"newsdesk/internal/services/stories/domain"
	"newsdesk/internal/services/stories/repo"
)

func ptr[T any](v T) *T { return &v }

// fakeTx satisfies repokit.TxRunner without a database
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

type fakeRepo struct {
	batches   [][]repo.Row
	rlBatches [][]repo.Row
	calls     []repo.BatchFilter
	rlCalls   []repo.BatchFilter

	merit   map[string]int
	demerit map[string]int
	blocked []string

	detail  repo.DetailRow
	content repo.ContentRow
	updates []repo.UpdateRow
	stats   repo.StatsRow
}

func (f *fakeRepo) ListBatch(_ context.Context, bf repo.BatchFilter) ([]repo.Row, error) {
	f.calls = append(f.calls, bf)
	if len(f.batches) == 0 {
		return nil, nil
	}
	b := f.batches[0]
	f.batches = f.batches[1:]
	return b, nil
}

func (f *fakeRepo) ReadLaterBatch(_ context.Context, bf repo.BatchFilter) ([]repo.Row, error) {
	f.rlCalls = append(f.rlCalls, bf)
	if len(f.rlBatches) == 0 {
		return nil, nil
	}
	b := f.rlBatches[0]
	f.rlBatches = f.rlBatches[1:]
	return b, nil
}

func (f *fakeRepo) MeritWords(context.Context) (map[string]int, error)   { return f.merit, nil }
func (f *fakeRepo) DemeritWords(context.Context) (map[string]int, error) { return f.demerit, nil }
func (f *fakeRepo) BlockedWords(context.Context) ([]string, error)       { return f.blocked, nil }

func (f *fakeRepo) Get(context.Context, int64) (repo.DetailRow, error)     { return f.detail, nil }
func (f *fakeRepo) Content(context.Context, int64) (repo.ContentRow, error) { return f.content, nil }
func (f *fakeRepo) Updates(context.Context) ([]repo.UpdateRow, error)       { return f.updates, nil }
func (f *fakeRepo) Stats(context.Context) (repo.StatsRow, error)            { return f.stats, nil }

func (f *fakeRepo) MarkOpened(context.Context, int64) error      { return nil }
func (f *fakeRepo) Dismiss(context.Context, int64) error         { return nil }
func (f *fakeRepo) Undismiss(context.Context, int64) error       { return nil }
func (f *fakeRepo) ClearDismissed(context.Context) error         { return nil }
func (f *fakeRepo) AddReadLater(context.Context, int64) error    { return nil }
func (f *fakeRepo) RemoveReadLater(context.Context, int64) error { return nil }

func newSvc(fr *fakeRepo) *Svc {
	return New(fakeTx{}, repokit.BindFunc[repo.Repo](func(repokit.Queryer) repo.Repo { return fr }))
}

func row(id, t int64, title, url string) repo.Row {
	r := repo.Row{ID: id, Time: t, Title: title, ContentStatus: "pending"}
	if url != "" {
		r.URL = ptr(url)
	}
	return r
}

func TestList_ScoresFiltersAndDedups(t *testing.T) {
	fr := &fakeRepo{
		merit:   map[string]int{"rust": 2},
		demerit: map[string]int{"legacy": 1},
		blocked: []string{"crypto"},
		batches: [][]repo.Row{{
			row(10, 100, "Rust rewrite of a legacy parser", "https://a.test/x"),
			row(9, 99, "Crypto exchange launches token", "https://b.test/x"),
			row(8, 98, "Duplicate submission", "https://a.test/x"),
			row(7, 97, "Compilers for fun", "https://c.test/x"),
			row(6, 96, "Never reached", "https://d.test/x"),
			row(5, 95, "Never reached either", "https://e.test/x"),
		}},
	}
	fr.batches[0][0].DomainMerit = 3

	got, err := newSvc(fr).List(context.Background(), domain.ListInput{Limit: 2})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got.Stories) != 2 || got.Stories[0].ID != 10 || got.Stories[1].ID != 7 {
		t.Fatalf("unexpected page: %+v", got.Stories)
	}

	first := got.Stories[0]
	if first.WordMerit != 2 || first.WordDemerit != 1 {
		t.Fatalf("word scores = %d/%d", first.WordMerit, first.WordDemerit)
	}
	if first.MeritScore != 5 || first.DemeritScore != 1 || first.NetScore != 4 {
		t.Fatalf("scores = %d/%d/%d", first.MeritScore, first.DemeritScore, first.NetScore)
	}

	if !got.HasMore {
		t.Fatal("full batch should report has_more")
	}
	if got.NextCursor != "97:7" {
		t.Fatalf("next_cursor = %q", got.NextCursor)
	}
	if len(fr.calls) != 1 {
		t.Fatalf("expected a single batch, got %d", len(fr.calls))
	}
	if fr.calls[0].Limit != 6 {
		t.Fatalf("sql limit = %d, want 3x over-fetch", fr.calls[0].Limit)
	}
}

func TestList_ShortBatchEndsPage(t *testing.T) {
	fr := &fakeRepo{
		blocked: []string{"spam"},
		batches: [][]repo.Row{{
			row(4, 40, "Fine story", "https://a.test/1"),
			row(3, 39, "Pure spam here", "https://b.test/1"),
			row(2, 38, "Another fine story", "https://c.test/1"),
		}},
	}

	got, err := newSvc(fr).List(context.Background(), domain.ListInput{Limit: 3})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got.Stories) != 2 {
		t.Fatalf("stories = %d", len(got.Stories))
	}
	if got.HasMore {
		t.Fatal("short batch means no more rows")
	}
	if got.NextCursor != "" {
		t.Fatalf("next_cursor = %q, want empty on final page", got.NextCursor)
	}
}

func TestList_CursorAndSortReachRepo(t *testing.T) {
	fr := &fakeRepo{}
	svc := newSvc(fr)

	if _, err := svc.List(context.Background(), domain.ListInput{Cursor: "100:5", Sort: domain.SortOldest}); err != nil {
		t.Fatalf("List: %v", err)
	}
	f := fr.calls[0]
	if !f.HasCursor || f.CursorTime != 100 || f.CursorID != 5 || !f.Oldest {
		t.Fatalf("filter = %+v", f)
	}

	// malformed cursor falls back to the first page
	fr.calls = nil
	if _, err := svc.List(context.Background(), domain.ListInput{Cursor: "not-a-cursor"}); err != nil {
		t.Fatalf("List: %v", err)
	}
	if fr.calls[0].HasCursor {
		t.Fatal("malformed cursor should read as absent")
	}
}

func TestList_ReadLaterOnlySkipsWordBlocking(t *testing.T) {
	fr := &fakeRepo{
		merit:   map[string]int{"go": 1},
		blocked: []string{"go"},
		rlBatches: [][]repo.Row{{
			row(2, 20, "Go generics in anger", "https://a.test/1"),
		}},
	}

	got, err := newSvc(fr).List(context.Background(), domain.ListInput{ReadLaterOnly: true, Limit: 5})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(fr.calls) != 0 || len(fr.rlCalls) != 1 {
		t.Fatalf("wrong repo path: list=%d readlater=%d", len(fr.calls), len(fr.rlCalls))
	}
	if len(got.Stories) != 1 || got.Stories[0].WordMerit != 1 {
		t.Fatalf("read later page: %+v", got.Stories)
	}
}

func TestGet_DecompressesContent(t *testing.T) {
	packed := compress.Pack("the full article body, stored packed")
	fr := &fakeRepo{detail: repo.DetailRow{ID: 7, Title: "t", Content: ptr(packed), ContentStatus: "done"}}

	got, err := newSvc(fr).Get(context.Background(), 7)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Content != "the full article body, stored packed" {
		t.Fatalf("content = %q", got.Content)
	}
}

func TestUpdates_DecompressesAndRebuildsTeaser(t *testing.T) {
	long := strings.Repeat("x", 400)
	fr := &fakeRepo{updates: []repo.UpdateRow{
		{ID: 1, Title: "a", Content: ptr(compress.Pack(long)), ContentStatus: "done"},
		{ID: 2, Title: "b", ContentStatus: "failed"},
	}}

	got, err := newSvc(fr).Updates(context.Background())
	if err != nil {
		t.Fatalf("Updates: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("updates = %d", len(got))
	}
	if got[0].Content != long {
		t.Fatal("content should come back decompressed")
	}
	if !strings.HasSuffix(got[0].Teaser, "...") || len([]rune(got[0].Teaser)) != 303 {
		t.Fatalf("teaser = %q", got[0].Teaser)
	}
	if got[1].Content != "" || got[1].Teaser != "" {
		t.Fatalf("failed story should have no content: %+v", got[1])
	}
}

func TestList_ClampsLimit(t *testing.T) {
	fr := &fakeRepo{}
	if _, err := newSvc(fr).List(context.Background(), domain.ListInput{Limit: 9999}); err != nil {
		t.Fatalf("List: %v", err)
	}
	if fr.calls[0].Limit != 150 {
		t.Fatalf("sql limit = %d, want clamped default times 3", fr.calls[0].Limit)
	}
}
