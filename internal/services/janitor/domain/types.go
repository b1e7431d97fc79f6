// Package domain holds the retention and maintenance types
package domain

// CleanupResult counts stories removed in one pass, by reason
type CleanupResult struct {
	Dismissed int `json:"dismissed"`
	Old       int `json:"old"`
}

// MigrateResult reports one content compression migration
type MigrateResult struct {
	Migrated        int    `json:"migrated"`
	Errors          int    `json:"errors"`
	TotalCompressed int    `json:"total_compressed"`
	Backup          string `json:"backup"`
}
