package domain

import "context"

// ServicePort is the maintenance surface exposed to other modules
type ServicePort interface {
	// Run blocks, cleaning up and rotating backups on a schedule until ctx
	// is cancelled
	Run(ctx context.Context) error

	CleanupOnce(ctx context.Context) (CleanupResult, error)

	// BackupRotate snapshots the database and rotates the retention slots,
	// returning the fresh backup path
	BackupRotate(ctx context.Context) (string, error)

	// MaybeVacuum rebuilds the database file when enough space is free
	MaybeVacuum(ctx context.Context) (bool, error)
	Vacuum(ctx context.Context) error

	// MigrateCompress packs any plain-text story content in place
	MigrateCompress(ctx context.Context) (MigrateResult, error)
}
