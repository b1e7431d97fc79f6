package domain

import "context"

// ServicePort defines the service contract for curation rules
type ServicePort interface {
	BlockedDomains(ctx context.Context) ([]string, error)
	AddBlockedDomain(ctx context.Context, domain string) error
	RemoveBlockedDomain(ctx context.Context, domain string) error

	BlockedWords(ctx context.Context) ([]string, error)
	AddBlockedWord(ctx context.Context, word string) error
	RemoveBlockedWord(ctx context.Context, word string) error

	MeritWords(ctx context.Context) ([]WeightedWord, error)
	SetMeritWord(ctx context.Context, word string, weight int) error
	RemoveMeritWord(ctx context.Context, word string) error

	DemeritWords(ctx context.Context) ([]WeightedWord, error)
	SetDemeritWord(ctx context.Context, word string, weight int) error
	RemoveDemeritWord(ctx context.Context, word string) error

	MeritDomains(ctx context.Context) ([]WeightedDomain, error)
	SetMeritDomain(ctx context.Context, domain string, weight int) error
	RemoveMeritDomain(ctx context.Context, domain string) error

	DemeritDomains(ctx context.Context) ([]WeightedDomain, error)
	SetDemeritDomain(ctx context.Context, domain string, weight int) error
	RemoveDemeritDomain(ctx context.Context, domain string) error
}
