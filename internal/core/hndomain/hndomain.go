// Package hndomain derives the display domain shown next to a story title
package hndomain

import (
	"net/url"
	"strings"
)

// FromURL extracts the lowercased host from a story URL with any leading
// "www." stripped. Self posts (empty URL) and unparseable values yield ""
func FromURL(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	host = strings.TrimPrefix(host, "www.")
	return host
}
