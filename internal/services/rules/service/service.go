// Package service contains curation rule workflows
package service

import (
	"context"
	"strings"

	"newsdesk/internal/modkit/repokit"
	"newsdesk/internal/services/rules/domain"
	"newsdesk/internal/services/rules/repo"
)

// Service defines the service contract for curation rules
type Service interface{ domain.ServicePort }

// Svc implements the Service interface
type Svc struct {
	Repo   repo.Repo
	binder repokit.Binder[repo.Repo]
	db     repokit.TxRunner
}

// New creates a new rules service
func New(db repokit.TxRunner, binder repokit.Binder[repo.Repo]) *Svc {
	if db == nil {
		panic("rules.Service requires a non nil TxRunner")
	}
	if binder == nil {
		panic("rules.Service requires a non nil Repo binder")
	}
	return &Svc{Repo: binder.Bind(db), binder: binder, db: db}
}

// BlockedDomains lists blocked domains alphabetically
func (s *Svc) BlockedDomains(ctx context.Context) ([]string, error) {
	return s.Repo.BlockedDomains(ctx)
}

// AddBlockedDomain blocks a domain. Domains are stored as given; the ingest
// side already normalizes them to bare lowercase hosts
func (s *Svc) AddBlockedDomain(ctx context.Context, domain string) error {
	return s.Repo.AddBlockedDomain(ctx, domain)
}

// RemoveBlockedDomain unblocks a domain
func (s *Svc) RemoveBlockedDomain(ctx context.Context, domain string) error {
	return s.Repo.RemoveBlockedDomain(ctx, domain)
}

// BlockedWords lists blocked title words alphabetically
func (s *Svc) BlockedWords(ctx context.Context) ([]string, error) {
	return s.Repo.BlockedWords(ctx)
}

// AddBlockedWord blocks a title word. Words are matched case insensitively
// against lowercased titles, so they are stored lowercased
func (s *Svc) AddBlockedWord(ctx context.Context, word string) error {
	return s.Repo.AddBlockedWord(ctx, strings.ToLower(word))
}

// RemoveBlockedWord unblocks a title word
func (s *Svc) RemoveBlockedWord(ctx context.Context, word string) error {
	return s.Repo.RemoveBlockedWord(ctx, strings.ToLower(word))
}

// MeritWords lists merit words with weights
func (s *Svc) MeritWords(ctx context.Context) ([]domain.WeightedWord, error) {
	rows, err := s.Repo.MeritWords(ctx)
	return toWords(rows), err
}

// SetMeritWord adds or reweights a merit word
func (s *Svc) SetMeritWord(ctx context.Context, word string, weight int) error {
	return s.Repo.SetMeritWord(ctx, strings.ToLower(word), weight)
}

// RemoveMeritWord removes a merit word
func (s *Svc) RemoveMeritWord(ctx context.Context, word string) error {
	return s.Repo.RemoveMeritWord(ctx, strings.ToLower(word))
}

// DemeritWords lists demerit words with weights
func (s *Svc) DemeritWords(ctx context.Context) ([]domain.WeightedWord, error) {
	rows, err := s.Repo.DemeritWords(ctx)
	return toWords(rows), err
}

// SetDemeritWord adds or reweights a demerit word
func (s *Svc) SetDemeritWord(ctx context.Context, word string, weight int) error {
	return s.Repo.SetDemeritWord(ctx, strings.ToLower(word), weight)
}

// RemoveDemeritWord removes a demerit word
func (s *Svc) RemoveDemeritWord(ctx context.Context, word string) error {
	return s.Repo.RemoveDemeritWord(ctx, strings.ToLower(word))
}

// MeritDomains lists merit domains with weights
func (s *Svc) MeritDomains(ctx context.Context) ([]domain.WeightedDomain, error) {
	rows, err := s.Repo.MeritDomains(ctx)
	return toDomains(rows), err
}

// SetMeritDomain adds or reweights a merit domain
func (s *Svc) SetMeritDomain(ctx context.Context, domain string, weight int) error {
	return s.Repo.SetMeritDomain(ctx, domain, weight)
}

// RemoveMeritDomain removes a merit domain
func (s *Svc) RemoveMeritDomain(ctx context.Context, domain string) error {
	return s.Repo.RemoveMeritDomain(ctx, domain)
}

// DemeritDomains lists demerit domains with weights
func (s *Svc) DemeritDomains(ctx context.Context) ([]domain.WeightedDomain, error) {
	rows, err := s.Repo.DemeritDomains(ctx)
	return toDomains(rows), err
}

// SetDemeritDomain adds or reweights a demerit domain
func (s *Svc) SetDemeritDomain(ctx context.Context, domain string, weight int) error {
	return s.Repo.SetDemeritDomain(ctx, domain, weight)
}

// RemoveDemeritDomain removes a demerit domain
func (s *Svc) RemoveDemeritDomain(ctx context.Context, domain string) error {
	return s.Repo.RemoveDemeritDomain(ctx, domain)
}

func toWords(rows []repo.WeightedRow) []domain.WeightedWord {
	out := make([]domain.WeightedWord, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.WeightedWord{Word: r.Key, Weight: r.Weight})
	}
	return out
}

func toDomains(rows []repo.WeightedRow) []domain.WeightedDomain {
	out := make([]domain.WeightedDomain, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.WeightedDomain{Domain: r.Key, Weight: r.Weight})
	}
	return out
}
