// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/pdiddy/learning-engine/pkg/types"
)

// stubSource returns canned candidates or a canned error.
type stubSource struct {
	name       string
	candidates []types.RawCandidate
	err        error
	calls      int
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) Fetch(ctx context.Context, topic string, cfg types.FetchConfig) ([]types.RawCandidate, error) {
	s.calls++
	return s.candidates, s.err
}

func testCfg() types.FetchConfig {
	return types.FetchConfig{MaxItems: 5, MaxAgeHours: 48}
}

func named(title string, published time.Time, primary bool) types.RawCandidate {
	return types.RawCandidate{
		Title:       title,
		URL:         "https://example.com/" + strings.ReplaceAll(strings.ToLower(title), " ", "-"),
		PublishedAt: published,
		FromPrimary: primary,
	}
}

// --- FetchTopic fallback chain ---

func TestFetchTopicPrimarySucceeds(t *testing.T) {
	primary := &stubSource{name: "perplexity", candidates: []types.RawCandidate{
		named("Primary Article", time.Now(), true),
	}}
	fallback := &stubSource{name: "rss"}

	got, err := FetchTopic(context.Background(), "go", testCfg(), primary, fallback, io.Discard)
	if err != nil {
		t.Fatalf("FetchTopic() error = %v", err)
	}
	if len(got) != 1 || got[0].Title != "Primary Article" {
		t.Errorf("got %+v, want the primary candidate", got)
	}
	if fallback.calls != 0 {
		t.Errorf("fallback called %d times, want 0", fallback.calls)
	}
}

func TestFetchTopicFallsBackOnPrimaryError(t *testing.T) {
	primary := &stubSource{name: "perplexity", err: fmt.Errorf("connection refused")}
	fallback := &stubSource{name: "rss", candidates: []types.RawCandidate{
		named("Feed Article One", time.Now(), false),
		named("Feed Article Two", time.Now().Add(-time.Hour), false),
	}}

	var log bytes.Buffer
	got, err := FetchTopic(context.Background(), "go", testCfg(), primary, fallback, &log)
	if err != nil {
		t.Fatalf("FetchTopic() error = %v, want nil when fallback succeeds", err)
	}
	if len(got) != 2 {
		t.Errorf("len(got) = %d, want 2", len(got))
	}
	if !strings.Contains(log.String(), "perplexity failed") {
		t.Errorf("primary failure not logged: %q", log.String())
	}
}

func TestFetchTopicFallsBackOnEmptyPrimary(t *testing.T) {
	primary := &stubSource{name: "perplexity"}
	fallback := &stubSource{name: "rss", candidates: []types.RawCandidate{
		named("Feed Article", time.Now(), false),
	}}

	got, err := FetchTopic(context.Background(), "go", testCfg(), primary, fallback, io.Discard)
	if err != nil {
		t.Fatalf("FetchTopic() error = %v", err)
	}
	if len(got) != 1 {
		t.Errorf("len(got) = %d, want 1 from fallback", len(got))
	}
	if fallback.calls != 1 {
		t.Errorf("fallback calls = %d, want 1", fallback.calls)
	}
}

func TestFetchTopicBothSourcesFail(t *testing.T) {
	primary := &stubSource{name: "perplexity", err: fmt.Errorf("timeout")}
	fallback := &stubSource{name: "rss", err: fmt.Errorf("all feeds failed")}

	_, err := FetchTopic(context.Background(), "go", testCfg(), primary, fallback, io.Discard)
	if err == nil {
		t.Fatal("FetchTopic() error = nil, want error when both sources fail")
	}
	for _, want := range []string{"perplexity", "rss"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err, want)
		}
	}
}

func TestFetchTopicNoFallback(t *testing.T) {
	primary := &stubSource{name: "perplexity", err: fmt.Errorf("timeout")}

	_, err := FetchTopic(context.Background(), "go", testCfg(), primary, nil, io.Discard)
	if err == nil {
		t.Fatal("FetchTopic() error = nil, want error when the only source fails")
	}

	primary = &stubSource{name: "perplexity"}
	got, err := FetchTopic(context.Background(), "go", testCfg(), primary, nil, io.Discard)
	if err != nil {
		t.Fatalf("FetchTopic() error = %v, want nil for an empty primary with no fallback", err)
	}
	if len(got) != 0 {
		t.Errorf("len(got) = %d, want 0", len(got))
	}
}

func TestFetchTopicNoPrimary(t *testing.T) {
	fallback := &stubSource{name: "rss", candidates: []types.RawCandidate{
		named("Feed Article", time.Now(), false),
	}}

	got, err := FetchTopic(context.Background(), "go", testCfg(), nil, fallback, io.Discard)
	if err != nil {
		t.Fatalf("FetchTopic() error = %v", err)
	}
	if len(got) != 1 {
		t.Errorf("len(got) = %d, want 1", len(got))
	}
}

// --- ordering and cap ---

func TestFinalizeNewestFirst(t *testing.T) {
	now := time.Now()
	in := []types.RawCandidate{
		named("Old", now.Add(-10*time.Hour), false),
		named("New", now, false),
		named("Middle", now.Add(-5*time.Hour), false),
	}

	got := finalize(in, 5)
	for i, want := range []string{"New", "Middle", "Old"} {
		if got[i].Title != want {
			t.Errorf("got[%d].Title = %q, want %q", i, got[i].Title, want)
		}
	}
}

func TestFinalizePrimaryWinsTies(t *testing.T) {
	at := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	in := []types.RawCandidate{
		named("Feed Entry", at, false),
		named("Primary Entry", at, true),
	}

	got := finalize(in, 5)
	if got[0].Title != "Primary Entry" {
		t.Errorf("got[0].Title = %q, want the primary candidate first on equal timestamps", got[0].Title)
	}
}

func TestFinalizeUndatedSinkToEnd(t *testing.T) {
	in := []types.RawCandidate{
		{Title: "Undated", URL: "https://example.com/u"},
		named("Dated", time.Now(), false),
	}

	got := finalize(in, 5)
	if got[0].Title != "Dated" || got[1].Title != "Undated" {
		t.Errorf("undated candidate should sort last, got %q then %q", got[0].Title, got[1].Title)
	}
}

func TestFinalizeCapsAtMaxItems(t *testing.T) {
	now := time.Now()
	var in []types.RawCandidate
	for i := 0; i < 8; i++ {
		in = append(in, named(fmt.Sprintf("Article %d", i), now.Add(-time.Duration(i)*time.Hour), false))
	}

	got := finalize(in, 3)
	if len(got) != 3 {
		t.Fatalf("len(got) = %d, want 3", len(got))
	}
	if got[0].Title != "Article 0" {
		t.Errorf("got[0].Title = %q, want the newest kept", got[0].Title)
	}
}

// --- output formatting ---

func TestFormatTableEmpty(t *testing.T) {
	var buf bytes.Buffer
	FormatTable(nil, &buf)
	if !strings.Contains(buf.String(), "No candidates") {
		t.Errorf("empty table output = %q", buf.String())
	}
}

func TestFormatTableListsCandidates(t *testing.T) {
	var buf bytes.Buffer
	FormatTable([]types.RawCandidate{
		named("Go Generics Explained", time.Date(2026, 3, 9, 10, 0, 0, 0, time.UTC), true),
	}, &buf)

	out := buf.String()
	for _, want := range []string{"Go Generics Explained", "2026-03-09", "1 candidates"} {
		if !strings.Contains(out, want) {
			t.Errorf("table output missing %q:\n%s", want, out)
		}
	}
}
