package teaser

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestMake_ShortContent(t *testing.T) {
	if got := Make("  hello world  "); got != "hello world" {
		t.Fatalf("got %q", got)
	}
	if got := Make(""); got != "" {
		t.Fatalf("empty content should stay empty, got %q", got)
	}
}

func TestMake_ExactBoundary(t *testing.T) {
	s := strings.Repeat("x", Max)
	if got := Make(s); got != s {
		t.Fatalf("content of exactly %d chars must not get an ellipsis", Max)
	}
}

func TestMake_Truncates(t *testing.T) {
	s := strings.Repeat("y", Max+1)
	got := Make(s)
	if !strings.HasSuffix(got, "...") {
		t.Fatalf("expected ellipsis on truncated content, got %q", got[len(got)-10:])
	}
	if want := strings.Repeat("y", Max) + "..."; got != want {
		t.Fatalf("unexpected teaser length %d", len(got))
	}
}

func TestMake_CountsRunesNotBytes(t *testing.T) {
	s := strings.Repeat("é", Max+50)
	got := Make(s)
	if !strings.HasSuffix(got, "...") {
		t.Fatal("expected truncation")
	}
	if n := utf8.RuneCountInString(strings.TrimSuffix(got, "...")); n != Max {
		t.Fatalf("expected %d runes before ellipsis, got %d", Max, n)
	}
}

func TestMake_TrimsTruncatedEdge(t *testing.T) {
	// a space landing at the cut point gets trimmed before the ellipsis
	s := strings.Repeat("z", Max-1) + " " + strings.Repeat("w", 50)
	got := Make(s)
	if want := strings.Repeat("z", Max-1) + "..."; got != want {
		t.Fatalf("expected trailing space trimmed before ellipsis, got tail %q", got[len(got)-6:])
	}
}
