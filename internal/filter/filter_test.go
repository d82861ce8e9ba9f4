package filter

import (
	"fmt"
	"testing"
	"time"

	"github.com/pdiddy/learning-engine/pkg/types"
)

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func candidate(title, url string, ageHours float64) types.RawCandidate {
	return types.RawCandidate{
		Title:       title,
		URL:         url,
		Source:      "test",
		PublishedAt: testNow.Add(-time.Duration(ageHours * float64(time.Hour))),
	}
}

// --- Age cutoff ---

func TestApplyRejectsOldCandidates(t *testing.T) {
	candidates := []types.RawCandidate{
		candidate("Fresh", "https://example.com/fresh", 10),
		candidate("Stale", "https://example.com/stale", 72),
	}

	kept, report := Apply(candidates, 48, 10, testNow)
	if len(kept) != 1 {
		t.Fatalf("len(kept) = %d, want 1", len(kept))
	}
	if kept[0].Title != "Fresh" {
		t.Errorf("kept[0].Title = %q, want %q", kept[0].Title, "Fresh")
	}
	if report.TooOld != 1 {
		t.Errorf("report.TooOld = %d, want 1", report.TooOld)
	}
}

func TestApplyKeepsUndatedCandidates(t *testing.T) {
	candidates := []types.RawCandidate{
		{Title: "No date", URL: "https://example.com/undated"},
	}

	kept, report := Apply(candidates, 48, 10, testNow)
	if len(kept) != 1 {
		t.Fatalf("len(kept) = %d, want 1", len(kept))
	}
	if kept[0].AgeHours != 0 {
		t.Errorf("AgeHours = %f, want 0 for undated candidate", kept[0].AgeHours)
	}
	if report.TooOld != 0 {
		t.Errorf("report.TooOld = %d, want 0", report.TooOld)
	}
}

func TestApplyAgeAnnotation(t *testing.T) {
	candidates := []types.RawCandidate{
		candidate("Ten hours", "https://example.com/a", 10),
	}

	kept, _ := Apply(candidates, 48, 10, testNow)
	if len(kept) != 1 {
		t.Fatalf("len(kept) = %d, want 1", len(kept))
	}
	if kept[0].AgeHours < 9.9 || kept[0].AgeHours > 10.1 {
		t.Errorf("AgeHours = %f, want ~10", kept[0].AgeHours)
	}
	if !kept[0].Accepted {
		t.Error("Accepted = false, want true")
	}
}

// --- Deduplication ---

func TestApplyDeduplicatesByURL(t *testing.T) {
	candidates := []types.RawCandidate{
		candidate("First", "https://example.com/article", 5),
		candidate("Second copy", "https://example.com/article", 6),
	}

	kept, report := Apply(candidates, 48, 10, testNow)
	if len(kept) != 1 {
		t.Fatalf("len(kept) = %d, want 1", len(kept))
	}
	if kept[0].Title != "First" {
		t.Errorf("first occurrence should win, got %q", kept[0].Title)
	}
	if report.DuplicateURL != 1 {
		t.Errorf("report.DuplicateURL = %d, want 1", report.DuplicateURL)
	}
}

func TestApplyDeduplicatesNormalizedURLs(t *testing.T) {
	candidates := []types.RawCandidate{
		candidate("One", "https://Example.com/path/", 5),
		candidate("Two", "https://example.com/path#section", 6),
	}

	kept, _ := Apply(candidates, 48, 10, testNow)
	if len(kept) != 1 {
		t.Fatalf("len(kept) = %d, want 1: host case, trailing slash, and fragment should not distinguish URLs", len(kept))
	}
}

func TestApplyDeduplicatesNearDuplicateTitles(t *testing.T) {
	candidates := []types.RawCandidate{
		candidate("Attention Is All You Need", "https://a.example.com/1", 5),
		candidate("attention is all you need!", "https://b.example.com/2", 6),
	}

	kept, report := Apply(candidates, 48, 10, testNow)
	if len(kept) != 1 {
		t.Fatalf("len(kept) = %d, want 1", len(kept))
	}
	if report.DuplicateTitle != 1 {
		t.Errorf("report.DuplicateTitle = %d, want 1", report.DuplicateTitle)
	}
}

func TestApplyDuplicateAndAgeScenario(t *testing.T) {
	// URLs {A, A, B} with ages {10h, 10h, 60h} and a 48h cutoff: exactly
	// one item survives, with URL A.
	candidates := []types.RawCandidate{
		candidate("Article A", "https://example.com/a", 10),
		candidate("Article A again", "https://example.com/a", 10),
		candidate("Article B", "https://example.com/b", 60),
	}

	kept, _ := Apply(candidates, 48, 10, testNow)
	if len(kept) != 1 {
		t.Fatalf("len(kept) = %d, want 1", len(kept))
	}
	if kept[0].URL != "https://example.com/a" {
		t.Errorf("kept URL = %q, want A", kept[0].URL)
	}
}

// --- Cap and ordering ---

func TestApplyCapsAtMaxItems(t *testing.T) {
	var candidates []types.RawCandidate
	for i := 0; i < 8; i++ {
		candidates = append(candidates, candidate(
			fmt.Sprintf("Article %d", i),
			fmt.Sprintf("https://example.com/%d", i),
			float64(i),
		))
	}

	kept, report := Apply(candidates, 48, 5, testNow)
	if len(kept) != 5 {
		t.Fatalf("len(kept) = %d, want 5", len(kept))
	}
	if report.Truncated != 3 {
		t.Errorf("report.Truncated = %d, want 3", report.Truncated)
	}
}

func TestApplyPreservesInputOrder(t *testing.T) {
	candidates := []types.RawCandidate{
		candidate("Newest", "https://example.com/1", 1),
		candidate("Middle", "https://example.com/2", 5),
		candidate("Oldest kept", "https://example.com/3", 20),
	}

	kept, _ := Apply(candidates, 48, 10, testNow)
	if len(kept) != 3 {
		t.Fatalf("len(kept) = %d, want 3", len(kept))
	}
	for i, want := range []string{"Newest", "Middle", "Oldest kept"} {
		if kept[i].Title != want {
			t.Errorf("kept[%d].Title = %q, want %q", i, kept[i].Title, want)
		}
	}
}

func TestApplyNoUnorderedPairViolations(t *testing.T) {
	// Survivors must contain no two items with equal normalized URL or
	// equal normalized title, for any input.
	candidates := []types.RawCandidate{
		candidate("Go Generics Explained", "https://example.com/g1", 2),
		candidate("go generics explained", "https://example.com/g2", 3),
		candidate("Other Article", "https://example.com/other", 4),
		candidate("Other Article", "https://example.com/other/", 4),
	}

	kept, _ := Apply(candidates, 48, 10, testNow)

	urls := make(map[string]bool)
	titles := make(map[string]bool)
	for _, item := range kept {
		u := normalizeURL(item.URL)
		if urls[u] {
			t.Errorf("duplicate normalized URL in output: %s", u)
		}
		urls[u] = true

		ti := normalizeTitle(item.Title)
		if titles[ti] {
			t.Errorf("duplicate normalized title in output: %s", ti)
		}
		titles[ti] = true
	}
}

func TestApplyEmptyInput(t *testing.T) {
	kept, report := Apply(nil, 48, 5, testNow)
	if len(kept) != 0 {
		t.Errorf("len(kept) = %d, want 0", len(kept))
	}
	if report.Examined != 0 || report.Kept != 0 {
		t.Errorf("report = %+v, want zero counts", report)
	}
}

// --- Normalization helpers ---

func TestNormalizeTitle(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Attention Is All You Need", "attention is all you need"},
		{"  Spaces   and\tTabs ", "spaces and tabs"},
		{"Punctuation, stripped: here!", "punctuation stripped here"},
		{"", ""},
		{"123 Numbers kept", "123 numbers kept"},
	}
	for _, tt := range tests {
		if got := normalizeTitle(tt.in); got != tt.want {
			t.Errorf("normalizeTitle(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://Example.COM/Path/", "https://example.com/Path"},
		{"https://example.com/a#frag", "https://example.com/a"},
		{" https://example.com/b ", "https://example.com/b"},
		{"not a url/", "not a url"},
	}
	for _, tt := range tests {
		if got := normalizeURL(tt.in); got != tt.want {
			t.Errorf("normalizeURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
