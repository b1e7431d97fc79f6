package service

import (
	"context"
	"testing"

	"newsdesk/internal/modkit/repokit"
	"newsdesk/internal/platform/store"
	"newsdesk/internal/services/rules/repo"
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

// fakeRepo records the keys and weights mutations arrive with
type fakeRepo struct {
	repo.Repo

	keys    []string
	weights []int
	rows    []repo.WeightedRow
}

func (f *fakeRepo) AddBlockedWord(_ context.Context, w string) error {
	f.keys = append(f.keys, w)
	return nil
}

func (f *fakeRepo) SetMeritWord(_ context.Context, w string, weight int) error {
	f.keys = append(f.keys, w)
	f.weights = append(f.weights, weight)
	return nil
}

func (f *fakeRepo) SetMeritDomain(_ context.Context, d string, weight int) error {
	f.keys = append(f.keys, d)
	f.weights = append(f.weights, weight)
	return nil
}

func (f *fakeRepo) MeritWords(context.Context) ([]repo.WeightedRow, error) { return f.rows, nil }

func newSvc(fr *fakeRepo) *Svc {
	return New(fakeTx{}, repokit.BindFunc[repo.Repo](func(repokit.Queryer) repo.Repo { return fr }))
}

func TestWords_AreLowercased(t *testing.T) {
	fr := &fakeRepo{}
	s := newSvc(fr)

	if err := s.AddBlockedWord(context.Background(), "CrYpTo"); err != nil {
		t.Fatalf("AddBlockedWord: %v", err)
	}
	if err := s.SetMeritWord(context.Background(), "RuSt", 3); err != nil {
		t.Fatalf("SetMeritWord: %v", err)
	}
	if fr.keys[0] != "crypto" || fr.keys[1] != "rust" {
		t.Fatalf("keys = %v", fr.keys)
	}
	if fr.weights[0] != 3 {
		t.Fatalf("weights = %v", fr.weights)
	}
}

func TestDomains_KeepCase(t *testing.T) {
	fr := &fakeRepo{}
	if err := newSvc(fr).SetMeritDomain(context.Background(), "Example.ORG", 2); err != nil {
		t.Fatalf("SetMeritDomain: %v", err)
	}
	if fr.keys[0] != "Example.ORG" {
		t.Fatalf("domain mangled: %v", fr.keys)
	}
}

func TestMeritWords_MapsRows(t *testing.T) {
	fr := &fakeRepo{rows: []repo.WeightedRow{{Key: "go", Weight: 2}, {Key: "zig", Weight: 1}}}
	got, err := newSvc(fr).MeritWords(context.Background())
	if err != nil {
		t.Fatalf("MeritWords: %v", err)
	}
	if len(got) != 2 || got[0].Word != "go" || got[0].Weight != 2 {
		t.Fatalf("rows = %+v", got)
	}
}
