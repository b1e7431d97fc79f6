// Package domain holds the content extraction queue types
package domain

import "time"

// Job is one claimed story awaiting content extraction
type Job struct {
	ID       int64
	URL      string
	Domain   string
	Attempts int
}

// QueueStats counts linkable stories per extraction status
type QueueStats struct {
	Pending  int `json:"pending"`
	Retry    int `json:"retry"`
	Fetching int `json:"fetching"`
	Done     int `json:"done"`
	Failed   int `json:"failed"`
	Blocked  int `json:"blocked"`
	Skipped  int `json:"skipped"`
}

// Diagnostic is the fine-grained queue breakdown used to spot stalls
type Diagnostic struct {
	PendingFresh        int `json:"pending_fresh"`
	PendingWithAttempts int `json:"pending_with_attempts"`
	Retry               int `json:"retry"`
	Fetching            int `json:"fetching"`
	Done                int `json:"done"`
	Failed              int `json:"failed"`
	Blocked             int `json:"blocked"`
	Skipped             int `json:"skipped"`
	NoURL               int `json:"no_url"`
	ExhaustedNotFailed  int `json:"exhausted_not_failed"`
}

// Gates is a snapshot of the shared renderer backoff state
type Gates struct {
	RateLimitedUntil   time.Time `json:"rate_limited_until,omitzero"`
	QuotaExceededUntil time.Time `json:"quota_exceeded_until,omitzero"`
}
