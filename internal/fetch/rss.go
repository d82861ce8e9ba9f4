// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/pdiddy/learning-engine/internal/httputil"
	"github.com/pdiddy/learning-engine/pkg/types"
)

// RSSBackend polls configured RSS/Atom feeds as the fallback discovery
// source. Per-feed failures are reported on Log and skipped; the backend
// fails only when every feed for the topic is unreachable.
type RSSBackend struct {
	Client *http.Client
	// Feeds overrides the built-in per-topic feed sets when non-nil.
	Feeds map[string][]Feed
	// Log receives per-feed warnings. Nil means discard.
	Log io.Writer
}

// Name returns the backend identifier.
func (b *RSSBackend) Name() string { return "rss" }

// Fetch polls each feed configured for the topic, keeps entries that match
// the topic keywords and fall inside the age window, and returns them
// unordered (the caller sorts).
func (b *RSSBackend) Fetch(ctx context.Context, topic string, cfg types.FetchConfig) ([]types.RawCandidate, error) {
	log := b.Log
	if log == nil {
		log = io.Discard
	}

	feeds := FeedsForTopic(topic, b.Feeds)
	if len(feeds) == 0 {
		return nil, fmt.Errorf("no feeds configured for topic %q", topic)
	}

	cutoff := time.Now().Add(-time.Duration(cfg.MaxAgeHours) * time.Hour)
	keywords := topicKeywords(topic)

	var candidates []types.RawCandidate
	failed := 0
	for _, feed := range feeds {
		entries, err := b.fetchFeed(ctx, feed, cfg)
		if err != nil {
			fmt.Fprintf(log, "warning: feed %s (%s) failed: %v\n", feed.Label, feed.URL, err)
			failed++
			continue
		}

		for _, e := range entries {
			if !e.PublishedAt.IsZero() && e.PublishedAt.Before(cutoff) {
				continue
			}
			if !matchesTopic(e, keywords) {
				continue
			}
			candidates = append(candidates, e)
		}
	}

	if failed == len(feeds) {
		return nil, fmt.Errorf("all %d feeds for topic %q failed", len(feeds), topic)
	}
	return candidates, nil
}

// fetchFeed downloads and parses one feed. Both RSS 2.0 and Atom documents
// are accepted.
func (b *RSSBackend) fetchFeed(ctx context.Context, feed Feed, cfg types.FetchConfig) ([]types.RawCandidate, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feed.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)

	client := b.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := httputil.DoWithRetry(ctx, client, req, 2)
	if err != nil {
		return nil, fmt.Errorf("fetching feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed returned HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading feed body: %w", err)
	}

	return parseFeed(data, feed.Label)
}

// parseFeed decodes an RSS 2.0 or Atom document into candidates.
func parseFeed(data []byte, label string) ([]types.RawCandidate, error) {
	var rss rssDocument
	if err := xml.Unmarshal(data, &rss); err == nil && len(rss.Channel.Items) > 0 {
		var out []types.RawCandidate
		for _, item := range rss.Channel.Items {
			c := types.RawCandidate{
				Title:       strings.TrimSpace(item.Title),
				URL:         strings.TrimSpace(item.Link),
				Source:      label,
				PublishedAt: parseFeedTime(item.PubDate),
				RawText:     stripHTML(firstNonEmpty(item.Content, item.Description)),
			}
			if c.Title == "" || c.URL == "" {
				continue
			}
			out = append(out, c)
		}
		return out, nil
	}

	var atom atomDocument
	if err := xml.Unmarshal(data, &atom); err != nil {
		return nil, fmt.Errorf("parsing feed: %w", err)
	}
	if len(atom.Entries) == 0 {
		return nil, nil
	}

	var out []types.RawCandidate
	for _, entry := range atom.Entries {
		c := types.RawCandidate{
			Title:       strings.TrimSpace(entry.Title),
			URL:         atomLink(entry.Links),
			Source:      label,
			PublishedAt: parseFeedTime(firstNonEmpty(entry.Published, entry.Updated)),
			RawText:     stripHTML(firstNonEmpty(entry.Content, entry.Summary)),
		}
		if c.Title == "" || c.URL == "" {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

// stripHTML reduces an entry body to plain text. Feed descriptions routinely
// embed markup; the summarizer wants prose.
func stripHTML(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return strings.TrimSpace(s)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.TrimSpace(s)
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}

// feedTimeLayouts covers the date formats seen in the wild across RSS 2.0
// and Atom feeds.
var feedTimeLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	time.RFC3339,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"2006-01-02T15:04:05Z",
	"2006-01-02",
}

// parseFeedTime tries each known layout; the zero time means unparseable.
func parseFeedTime(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range feedTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// topicKeywords lowercases the topic and drops short stop-ish tokens, leaving
// the words an entry must mention.
func topicKeywords(topic string) []string {
	var out []string
	for _, tok := range strings.Fields(strings.ToLower(topic)) {
		if len(tok) > 2 {
			out = append(out, tok)
		}
	}
	return out
}

// matchesTopic reports whether any topic keyword appears in the entry title
// or body. Feeds are already topic-curated, so one keyword hit is enough;
// an empty keyword list matches everything.
func matchesTopic(c types.RawCandidate, keywords []string) bool {
	if len(keywords) == 0 {
		return true
	}
	haystack := strings.ToLower(c.Title + " " + c.RawText)
	for _, kw := range keywords {
		if strings.Contains(haystack, kw) {
			return true
		}
	}
	return false
}

func firstNonEmpty(a, b string) string {
	if strings.TrimSpace(a) != "" {
		return a
	}
	return b
}

// atomLink picks the alternate link, falling back to the first link present.
func atomLink(links []atomLinkElem) string {
	for _, l := range links {
		if l.Rel == "alternate" || l.Rel == "" {
			return l.Href
		}
	}
	if len(links) > 0 {
		return links[0].Href
	}
	return ""
}

// RSS 2.0 XML structures.
type rssDocument struct {
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Items []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	PubDate     string `xml:"pubDate"`
	Description string `xml:"description"`
	Content     string `xml:"encoded"`
}

// Atom XML structures.
type atomDocument struct {
	XMLName xml.Name    `xml:"feed"`
	Entries []atomEntry `xml:"entry"`
}

type atomEntry struct {
	Title     string         `xml:"title"`
	Links     []atomLinkElem `xml:"link"`
	Published string         `xml:"published"`
	Updated   string         `xml:"updated"`
	Summary   string         `xml:"summary"`
	Content   string         `xml:"content"`
}

type atomLinkElem struct {
	Rel  string `xml:"rel,attr"`
	Href string `xml:"href,attr"`
}
