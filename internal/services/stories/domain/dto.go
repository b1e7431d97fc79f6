package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Sort orders for listings
const (
	SortNewest = "newest"
	SortOldest = "oldest"
)

// ListInput is the set of listing filters
type ListInput struct {
	DismissedOnly    bool
	IncludeBlocked   bool
	IncludeReadLater bool
	ReadLaterOnly    bool
	Limit            int
	Cursor           string
	Sort             string
}

// ListResult is one page of scored stories
type ListResult struct {
	Stories    []Story `json:"stories"`
	HasMore    bool    `json:"has_more"`
	NextCursor string  `json:"next_cursor,omitempty"`
}

// ParseCursor splits a "time:id" keyset cursor. Malformed cursors read as
// absent so a stale client falls back to the first page
func ParseCursor(s string) (int64, int64, bool) {
	if s == "" {
		return 0, 0, false
	}
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	t, terr := strconv.ParseInt(parts[0], 10, 64)
	id, iderr := strconv.ParseInt(parts[1], 10, 64)
	if terr != nil || iderr != nil {
		return 0, 0, false
	}
	return t, id, true
}

// FormatCursor builds the "time:id" keyset cursor
func FormatCursor(t, id int64) string { return fmt.Sprintf("%d:%d", t, id) }

// BatchInput carries several curation mutations in one request
type BatchInput struct {
	Requests []BatchRequest `json:"requests"`
}

// BatchRequest is one method and path pair in a batch
type BatchRequest struct {
	Method string `json:"method"`
	Path   string `json:"path"`
}

// BatchResult reports how many batch entries were applied
type BatchResult struct {
	OK        bool `json:"ok"`
	Processed int  `json:"processed"`
}
