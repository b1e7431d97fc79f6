// Package repo provides sqlite access for the curation rule tables
package repo

import (
	"context"
	"fmt"

	"newsdesk/internal/modkit/repokit"
	"newsdesk/internal/platform/store"
)

// WeightedRow is one weighted rule entry
type WeightedRow struct {
	Key    string
	Weight int
}

// Repo defines the repository contract for curation rules
type Repo interface {
	BlockedDomains(ctx context.Context) ([]string, error)
	AddBlockedDomain(ctx context.Context, domain string) error
	RemoveBlockedDomain(ctx context.Context, domain string) error

	BlockedWords(ctx context.Context) ([]string, error)
	AddBlockedWord(ctx context.Context, word string) error
	RemoveBlockedWord(ctx context.Context, word string) error

	MeritWords(ctx context.Context) ([]WeightedRow, error)
	SetMeritWord(ctx context.Context, word string, weight int) error
	RemoveMeritWord(ctx context.Context, word string) error

	DemeritWords(ctx context.Context) ([]WeightedRow, error)
	SetDemeritWord(ctx context.Context, word string, weight int) error
	RemoveDemeritWord(ctx context.Context, word string) error

	MeritDomains(ctx context.Context) ([]WeightedRow, error)
	SetMeritDomain(ctx context.Context, domain string, weight int) error
	RemoveMeritDomain(ctx context.Context, domain string) error

	DemeritDomains(ctx context.Context) ([]WeightedRow, error)
	SetDemeritDomain(ctx context.Context, domain string, weight int) error
	RemoveDemeritDomain(ctx context.Context, domain string) error
}

type (
	// SQL implements the Repo interface on sqlite
	SQL struct{}

	queries struct{ q repokit.Queryer }
)

// NewSQL creates a new sqlite repository binder
func NewSQL() repokit.Binder[Repo] { return SQL{} }

// Bind binds a queryer to the Repo implementation
func (SQL) Bind(q repokit.Queryer) Repo { return &queries{q: q} }

// plain rule tables: single key column, INSERT OR IGNORE on add

func (r *queries) BlockedDomains(ctx context.Context) ([]string, error) {
	return r.keyList(ctx, "blocked_domains", "domain")
}

func (r *queries) AddBlockedDomain(ctx context.Context, domain string) error {
	_, err := r.q.Exec(ctx, "INSERT OR IGNORE INTO blocked_domains (domain) VALUES (?)", domain)
	return err
}

func (r *queries) RemoveBlockedDomain(ctx context.Context, domain string) error {
	_, err := r.q.Exec(ctx, "DELETE FROM blocked_domains WHERE domain = ?", domain)
	return err
}

func (r *queries) BlockedWords(ctx context.Context) ([]string, error) {
	return r.keyList(ctx, "blocked_words", "word")
}

func (r *queries) AddBlockedWord(ctx context.Context, word string) error {
	_, err := r.q.Exec(ctx, "INSERT OR IGNORE INTO blocked_words (word) VALUES (?)", word)
	return err
}

func (r *queries) RemoveBlockedWord(ctx context.Context, word string) error {
	_, err := r.q.Exec(ctx, "DELETE FROM blocked_words WHERE word = ?", word)
	return err
}

// weighted rule tables: INSERT OR REPLACE so re-adding adjusts the weight

func (r *queries) MeritWords(ctx context.Context) ([]WeightedRow, error) {
	return r.weightedList(ctx, "merit_words", "word")
}

func (r *queries) SetMeritWord(ctx context.Context, word string, weight int) error {
	return r.setWeighted(ctx, "merit_words", "word", word, weight)
}

func (r *queries) RemoveMeritWord(ctx context.Context, word string) error {
	return r.removeWeighted(ctx, "merit_words", "word", word)
}

func (r *queries) DemeritWords(ctx context.Context) ([]WeightedRow, error) {
	return r.weightedList(ctx, "demerit_words", "word")
}

func (r *queries) SetDemeritWord(ctx context.Context, word string, weight int) error {
	return r.setWeighted(ctx, "demerit_words", "word", word, weight)
}

func (r *queries) RemoveDemeritWord(ctx context.Context, word string) error {
	return r.removeWeighted(ctx, "demerit_words", "word", word)
}

func (r *queries) MeritDomains(ctx context.Context) ([]WeightedRow, error) {
	return r.weightedList(ctx, "merit_domains", "domain")
}

func (r *queries) SetMeritDomain(ctx context.Context, domain string, weight int) error {
	return r.setWeighted(ctx, "merit_domains", "domain", domain, weight)
}

func (r *queries) RemoveMeritDomain(ctx context.Context, domain string) error {
	return r.removeWeighted(ctx, "merit_domains", "domain", domain)
}

func (r *queries) DemeritDomains(ctx context.Context) ([]WeightedRow, error) {
	return r.weightedList(ctx, "demerit_domains", "domain")
}

func (r *queries) SetDemeritDomain(ctx context.Context, domain string, weight int) error {
	return r.setWeighted(ctx, "demerit_domains", "domain", domain, weight)
}

func (r *queries) RemoveDemeritDomain(ctx context.Context, domain string) error {
	return r.removeWeighted(ctx, "demerit_domains", "domain", domain)
}

// table and col are compile-time constants from the methods above, never user input

func (r *queries) keyList(ctx context.Context, table, col string) ([]string, error) {
	sql := fmt.Sprintf("SELECT %s FROM %s ORDER BY %s", col, table, col)
	return store.Many(ctx, r.q, func(row store.Row) (string, error) {
		var s string
		err := row.Scan(&s)
		return s, err
	}, sql)
}

func (r *queries) weightedList(ctx context.Context, table, col string) ([]WeightedRow, error) {
	sql := fmt.Sprintf("SELECT %s, weight FROM %s ORDER BY %s", col, table, col)
	return store.Many(ctx, r.q, func(row store.Row) (WeightedRow, error) {
		var w WeightedRow
		err := row.Scan(&w.Key, &w.Weight)
		return w, err
	}, sql)
}

func (r *queries) setWeighted(ctx context.Context, table, col, key string, weight int) error {
	sql := fmt.Sprintf("INSERT OR REPLACE INTO %s (%s, weight) VALUES (?, ?)", table, col)
	_, err := r.q.Exec(ctx, sql, key, weight)
	return err
}

func (r *queries) removeWeighted(ctx context.Context, table, col, key string) error {
	sql := fmt.Sprintf("DELETE FROM %s WHERE %s = ?", table, col)
	_, err := r.q.Exec(ctx, sql, key)
	return err
}
