// Package domain holds the story ingestion types
package domain

// Story is a normalized item ready for upsert, whichever API it came from
type Story struct {
	ID          int64
	Title       string
	URL         string
	Text        string
	Domain      string
	By          string
	Time        int64
	Score       int
	Descendants int
}

// FetchResult reports one manual fetch trigger
type FetchResult struct {
	OK      bool   `json:"ok"`
	Fetched int    `json:"fetched,omitzero"`
	Error   string `json:"error,omitzero"`
}
