// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fetch discovers candidate articles for a topic. A primary discovery
// backend is queried first; when it fails or comes back empty, configured
// RSS/Atom feeds are polled instead.
package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/pdiddy/learning-engine/pkg/types"
)

// Source discovers candidates for a topic. Each backend (Perplexity, RSS)
// implements this interface.
type Source interface {
	Name() string
	Fetch(ctx context.Context, topic string, cfg types.FetchConfig) ([]types.RawCandidate, error)
}

// Adapter binds sources and configuration into the single-topic fetch
// operation the orchestrator drives.
type Adapter struct {
	Primary  Source
	Fallback Source
	Cfg      types.FetchConfig
	// Log receives fallback warnings. Nil means discard.
	Log io.Writer
}

// Fetch discovers candidates for one topic.
func (a *Adapter) Fetch(ctx context.Context, topic string) ([]types.RawCandidate, error) {
	log := a.Log
	if log == nil {
		log = io.Discard
	}
	return FetchTopic(ctx, topic, a.Cfg, a.Primary, a.Fallback, log)
}

// FetchTopic runs discovery for one topic: primary first, fallback when the
// primary fails or finds nothing. Either source may be nil. Candidates come
// back newest first, capped at cfg.MaxItems. The returned error is non-nil
// only when every configured source failed; warnings along the way go to w.
func FetchTopic(ctx context.Context, topic string, cfg types.FetchConfig, primary, fallback Source, w io.Writer) ([]types.RawCandidate, error) {
	var primaryErr error

	if primary != nil {
		candidates, err := primary.Fetch(ctx, topic, cfg)
		if err == nil && len(candidates) > 0 {
			return finalize(candidates, cfg.MaxItems), nil
		}
		primaryErr = err
		if err != nil {
			fmt.Fprintf(w, "warning: %s failed for topic %q: %v\n", primary.Name(), topic, err)
		} else if fallback != nil {
			fmt.Fprintf(w, "%s returned no candidates for topic %q, trying %s\n", primary.Name(), topic, fallback.Name())
		}
	}

	if fallback == nil {
		if primaryErr != nil {
			return nil, fmt.Errorf("%s: %w", primary.Name(), primaryErr)
		}
		return nil, nil
	}

	candidates, err := fallback.Fetch(ctx, topic, cfg)
	if err != nil {
		if primaryErr != nil {
			return nil, fmt.Errorf("%s: %v; %s: %w", primary.Name(), primaryErr, fallback.Name(), err)
		}
		return nil, fmt.Errorf("%s: %w", fallback.Name(), err)
	}
	return finalize(candidates, cfg.MaxItems), nil
}

// finalize orders candidates newest first and truncates to maxItems.
// Candidates from the primary backend rank above feed entries with the same
// timestamp; undated candidates sink to the end.
func finalize(candidates []types.RawCandidate, maxItems int) []types.RawCandidate {
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.PublishedAt.IsZero() != b.PublishedAt.IsZero() {
			return !a.PublishedAt.IsZero()
		}
		if !a.PublishedAt.Equal(b.PublishedAt) {
			return a.PublishedAt.After(b.PublishedAt)
		}
		return a.FromPrimary && !b.FromPrimary
	})

	if maxItems > 0 && len(candidates) > maxItems {
		candidates = candidates[:maxItems]
	}
	return candidates
}

// FormatTable writes candidates as a human-readable table to w. Column
// widths are computed from display width so CJK titles stay aligned.
func FormatTable(candidates []types.RawCandidate, w io.Writer) {
	if len(candidates) == 0 {
		fmt.Fprintln(w, "No candidates found.")
		return
	}

	const (
		titleWidth  = 56
		sourceWidth = 22
	)

	fmt.Fprintf(w, "%-4s  %s  %s  %-16s  %s\n",
		"Rank", pad("Title", titleWidth), pad("Source", sourceWidth), "Published", "URL")
	fmt.Fprintln(w, strings.Repeat("-", 120))

	for i, c := range candidates {
		published := ""
		if !c.PublishedAt.IsZero() {
			published = c.PublishedAt.Format("2006-01-02 15:04")
		}
		fmt.Fprintf(w, "%-4d  %s  %s  %-16s  %s\n",
			i+1,
			pad(clip(c.Title, titleWidth), titleWidth),
			pad(clip(c.Source, sourceWidth), sourceWidth),
			published,
			c.URL)
	}

	fmt.Fprintf(w, "\n%d candidates\n", len(candidates))
}

// FormatJSON writes candidates as indented JSON to w.
func FormatJSON(candidates []types.RawCandidate, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(candidates)
}

// clip truncates s to max display cells, appending "..." when cut.
func clip(s string, max int) string {
	return runewidth.Truncate(s, max, "...")
}

// pad right-pads s with spaces to the given display width.
func pad(s string, width int) string {
	gap := width - runewidth.StringWidth(s)
	if gap <= 0 {
		return s
	}
	return s + strings.Repeat(" ", gap)
}
