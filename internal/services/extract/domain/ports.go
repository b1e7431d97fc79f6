package domain

import "context"

// ServicePort is the extraction surface exposed to other modules
type ServicePort interface {
	// Run blocks, driving the worker pool until ctx is cancelled
	Run(ctx context.Context) error

	// StuckCleanup repairs jobs left mid-flight by a crash and returns
	// how many rows it touched
	StuckCleanup(ctx context.Context) (int, error)

	QueueStats(ctx context.Context) (QueueStats, error)
	Diagnostic(ctx context.Context) (Diagnostic, error)
	GateState() Gates
	Workers() int
}
