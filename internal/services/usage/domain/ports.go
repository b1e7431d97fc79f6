package domain

import "context"

// ServicePort defines the service contract for usage tracking
type ServicePort interface {
	// Log appends one billed render to the usage log
	Log(ctx context.Context, e Entry) error
	// Stats aggregates the usage log for the billing endpoint
	Stats(ctx context.Context) (Stats, error)
	// Rollup folds logs older than six months into monthly summaries and
	// drops summaries older than three years
	Rollup(ctx context.Context) error
}
