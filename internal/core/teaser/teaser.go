// Package teaser derives the short listing preview stored alongside a story
package teaser

import "strings"

// Max is the preview length in characters before the ellipsis
const Max = 300

// Make returns the first Max characters of content, trimmed, with an
// ellipsis appended only when the content was actually truncated
func Make(content string) string {
	r := []rune(content)
	if len(r) <= Max {
		return strings.TrimSpace(content)
	}
	return strings.TrimSpace(string(r[:Max])) + "..."
}
