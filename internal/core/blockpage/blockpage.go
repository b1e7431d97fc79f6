// Package blockpage decides whether rendered page text is an anti-bot or
// captcha interstitial rather than real article content
package blockpage

import "strings"

// patterns are matched as substrings of the lowercased page head
var patterns = []string{
	"captcha",
	"please verify",
	"access denied",
	"forbidden",
	"rate limit",
	"too many requests",
	"blocked",
	"unusual traffic",
	"security check",
	"ddos protection",
	"challenge-platform",
	"hcaptcha",
	"recaptcha",
	"just a moment",
	"checking your browser",
	"enable javascript",
	"redirecting",
}

// headChars bounds the scan window; long articles may legitimately mention
// these words further down
const headChars = 2000

// shortLimit and longLimit implement the length rules: anything under
// shortLimit with a match is a block page, a match in the head only counts
// up to longLimit total length
const (
	shortLimit = 200
	longLimit  = 3000
)

// Detect reports whether text looks like a block page
func Detect(text string) bool {
	if text == "" {
		return false
	}
	r := []rune(strings.ToLower(text))
	head := r
	if len(head) > headChars {
		head = head[:headChars]
	}
	hs := string(head)

	found := false
	for _, p := range patterns {
		if strings.Contains(hs, p) {
			found = true
			break
		}
	}
	if !found {
		return false
	}
	if len(r) < shortLimit {
		return true
	}
	return len(r) <= longLimit
}
