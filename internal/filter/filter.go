// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package filter rejects stale and duplicate discovery candidates before
// summarization.
package filter

import (
	"net/url"
	"strings"
	"time"
	"unicode"

	"github.com/pdiddy/learning-engine/pkg/types"
)

// Report holds per-reason counts from one filter pass.
type Report struct {
	Examined       int
	Kept           int
	TooOld         int
	DuplicateURL   int
	DuplicateTitle int
	Truncated      int
}

// Apply screens candidates against the age cutoff, removes URL and
// near-duplicate-title duplicates, and caps the result at maxItems.
// Input order is preserved for survivors, so a newest-first input stays
// newest-first. The first occurrence of a duplicate wins. Candidates
// without a publication time pass the age check; an unknown age is not
// grounds for rejection.
func Apply(candidates []types.RawCandidate, maxAgeHours, maxItems int, now time.Time) ([]types.FilteredItem, Report) {
	report := Report{Examined: len(candidates)}

	seenURL := make(map[string]bool)
	seenTitle := make(map[string]bool)
	var kept []types.FilteredItem

	for _, c := range candidates {
		var ageHours float64
		if !c.PublishedAt.IsZero() {
			ageHours = now.Sub(c.PublishedAt).Hours()
			if ageHours > float64(maxAgeHours) {
				report.TooOld++
				continue
			}
		}

		urlKey := normalizeURL(c.URL)
		if seenURL[urlKey] {
			report.DuplicateURL++
			continue
		}

		titleKey := normalizeTitle(c.Title)
		if titleKey != "" && seenTitle[titleKey] {
			report.DuplicateTitle++
			continue
		}

		seenURL[urlKey] = true
		if titleKey != "" {
			seenTitle[titleKey] = true
		}

		kept = append(kept, types.FilteredItem{
			RawCandidate: c,
			AgeHours:     ageHours,
			Accepted:     true,
		})
	}

	if maxItems > 0 && len(kept) > maxItems {
		report.Truncated = len(kept) - maxItems
		kept = kept[:maxItems]
	}

	report.Kept = len(kept)
	return kept, report
}

// normalizeURL canonicalizes a URL for dedup: trimmed, scheme and host
// lowercased, fragment dropped, trailing slash removed. Unparseable URLs
// fall back to the trimmed string.
func normalizeURL(raw string) string {
	trimmed := strings.TrimSpace(raw)
	u, err := url.Parse(trimmed)
	if err != nil || u.Host == "" {
		return strings.TrimSuffix(trimmed, "/")
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.Path = strings.TrimSuffix(u.Path, "/")
	return u.String()
}

// normalizeTitle returns a lowercased, punctuation-stripped version of the
// title. Two candidates with equal normalized titles are near-duplicates.
func normalizeTitle(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
