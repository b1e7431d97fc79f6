package domain

import (
	"context"
	"time"
)

// ServicePort is the ingestion surface exposed to other modules
type ServicePort interface {
	// Run blocks, fetching on a wall-clock aligned schedule until ctx is
	// cancelled
	Run(ctx context.Context) error

	// FetchNow runs one fetch immediately. An overlap with a running fetch
	// is refused in the result; a failed fetch returns an error
	FetchNow(ctx context.Context) (FetchResult, error)

	// LastFetch is the finish time of the most recent successful fetch,
	// zero before the first one
	LastFetch() time.Time
}
