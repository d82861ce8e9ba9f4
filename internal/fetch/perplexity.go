// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pdiddy/learning-engine/internal/httputil"
	"github.com/pdiddy/learning-engine/pkg/types"
)

// perplexityAPIBase is the Perplexity chat completions endpoint. Declared as
// a var so tests can substitute an httptest server.
var perplexityAPIBase = "https://api.perplexity.ai/chat/completions"

// PerplexityBackend queries the Perplexity search API as the primary
// discovery source. The search-tuned model returns an answer plus the web
// sources it consulted; the sources become candidates.
type PerplexityBackend struct {
	Client *http.Client
	APIKey string
	Model  string
}

// Name returns the backend identifier.
func (b *PerplexityBackend) Name() string { return "perplexity" }

// Fetch queries Perplexity for recent articles about the topic. The recency
// window is mapped onto the API's coarse recency filter, so results may still
// need age screening downstream.
func (b *PerplexityBackend) Fetch(ctx context.Context, topic string, cfg types.FetchConfig) ([]types.RawCandidate, error) {
	if b.APIKey == "" {
		return nil, fmt.Errorf("no Perplexity API key configured")
	}

	model := b.Model
	if model == "" {
		model = "sonar"
	}

	reqBody := perplexityRequest{
		Model: model,
		Messages: []perplexityMessage{
			{
				Role:    "system",
				Content: "You are a content curator. Find recent, high-quality educational articles and summarize what they teach.",
			},
			{
				Role: "user",
				Content: fmt.Sprintf(
					"Find %d recent educational articles about %s. Summarize the key developments they cover.",
					cfg.MaxItems, topic),
			},
		},
		SearchRecencyFilter: recencyFilter(cfg.MaxAgeHours),
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, perplexityAPIBase, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+b.APIKey)
	req.Header.Set("User-Agent", cfg.UserAgent)

	client := b.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := httputil.DoWithRetry(ctx, client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("Perplexity API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("Perplexity API returned HTTP %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	var pr perplexityResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return nil, fmt.Errorf("parsing Perplexity response: %w", err)
	}

	answer := ""
	if len(pr.Choices) > 0 {
		answer = pr.Choices[0].Message.Content
	}

	var candidates []types.RawCandidate
	for _, sr := range pr.SearchResults {
		if sr.URL == "" || sr.Title == "" {
			continue
		}
		c := types.RawCandidate{
			Title:       strings.TrimSpace(sr.Title),
			URL:         sr.URL,
			Source:      "perplexity",
			FromPrimary: true,
			// The answer synthesizes every source; each candidate carries
			// it as summarization input until the article body is known.
			RawText: answer,
		}
		if sr.Date != "" {
			if t, parseErr := time.Parse("2006-01-02", sr.Date); parseErr == nil {
				c.PublishedAt = t
			}
		}
		candidates = append(candidates, c)
	}
	return candidates, nil
}

// recencyFilter maps an hour window onto Perplexity's coarse recency buckets.
func recencyFilter(maxAgeHours int) string {
	switch {
	case maxAgeHours <= 24:
		return "day"
	case maxAgeHours <= 7*24:
		return "week"
	case maxAgeHours <= 31*24:
		return "month"
	default:
		return "year"
	}
}

// truncate shortens s for inclusion in an error message.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

// Perplexity API JSON structures.
type perplexityRequest struct {
	Model               string              `json:"model"`
	Messages            []perplexityMessage `json:"messages"`
	SearchRecencyFilter string              `json:"search_recency_filter,omitempty"`
}

type perplexityMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type perplexityResponse struct {
	Choices       []perplexityChoice       `json:"choices"`
	SearchResults []perplexitySearchResult `json:"search_results"`
}

type perplexityChoice struct {
	Message perplexityMessage `json:"message"`
}

type perplexitySearchResult struct {
	Title string `json:"title"`
	URL   string `json:"url"`
	Date  string `json:"date"`
}
