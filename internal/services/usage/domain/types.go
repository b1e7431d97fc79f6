// Package domain holds DTOs for browser-time usage tracking
package domain

// Entry is one billed render, logged per story fetch
type Entry struct {
	StoryID   int64
	URL       string
	BrowserMs float64
	Source    string
}

// Bucket aggregates billed milliseconds and request count over a window
type Bucket struct {
	BrowserMs float64 `json:"browser_ms"`
	Requests  int     `json:"requests"`
}

// Stats is the usage overview for the usage endpoint
type Stats struct {
	Today    Bucket            `json:"today"`
	Week     Bucket            `json:"week"`
	Month    Bucket            `json:"month"`
	Total    Bucket            `json:"total"`
	BySource map[string]Bucket `json:"by_source"`
}
