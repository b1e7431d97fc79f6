// Package domain holds the front page tracker contract
package domain

import "context"

// ServicePort is the tracker surface exposed to other modules
type ServicePort interface {
	// Run blocks, polling the top stories list until ctx is cancelled
	Run(ctx context.Context) error

	// Apply records one top stories snapshot and returns how many rows
	// gained a first or better rank
	Apply(ctx context.Context, topIDs []int64) (int, error)
}
