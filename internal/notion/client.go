// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package notion writes finalized learning items into a Notion database and
// manages its schema. Persistence is idempotent by source URL: an item whose
// URL already has a page is skipped, never duplicated.
package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pdiddy/learning-engine/internal/httputil"
	"github.com/pdiddy/learning-engine/pkg/types"
)

// notionAPIBase is the Notion REST API root. Declared as a var so tests can
// substitute an httptest server.
var notionAPIBase = "https://api.notion.com/v1"

// notionVersion pins the API revision every request is made against.
const notionVersion = "2022-06-28"

// Client is a minimal Notion API client covering the operations the
// pipeline needs: query by property, create page, create database, update
// page. All calls share one rate-limited HTTP client.
type Client struct {
	httpClient *http.Client
	apiKey     string
	userAgent  string

	// DatabaseID is the target learning-items database. Empty until
	// EnsureDatabase creates one.
	DatabaseID string
}

// NewClient builds a client from the persistence configuration. Notion
// enforces roughly three requests per second per integration; the limiter
// keeps every call site inside that budget.
func NewClient(cfg types.NotionConfig) *Client {
	base := &http.Client{Timeout: cfg.Timeout}
	if base.Timeout == 0 {
		base.Timeout = 30 * time.Second
	}
	return &Client{
		httpClient: httputil.NewLimitedClient(base, cfg.RequestsPerSecond),
		apiKey:     cfg.APIKey,
		userAgent:  cfg.UserAgent,
		DatabaseID: cfg.DatabaseID,
	}
}

// apiError is the JSON error body Notion returns on non-2xx responses.
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// call performs one API request and decodes the response into out (when
// non-nil). Retryable statuses (429, 5xx) are handled by the shared retry
// helper before an error surfaces here.
func (c *Client) call(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, notionAPIBase+path, reqBody)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Notion-Version", notionVersion)
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := httputil.DoWithRetry(ctx, c.httpClient, req, 3)
	if err != nil {
		return fmt.Errorf("Notion API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var ae apiError
		if decodeErr := json.NewDecoder(resp.Body).Decode(&ae); decodeErr == nil && ae.Message != "" {
			return fmt.Errorf("Notion API returned HTTP %d (%s): %s", resp.StatusCode, ae.Code, ae.Message)
		}
		return fmt.Errorf("Notion API returned HTTP %d", resp.StatusCode)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("parsing Notion response: %w", err)
		}
	}
	return nil
}

// Notion API JSON structures, limited to the fields the pipeline reads.

type queryRequest struct {
	Filter      any    `json:"filter,omitempty"`
	Sorts       []sort `json:"sorts,omitempty"`
	PageSize    int    `json:"page_size,omitempty"`
	StartCursor string `json:"start_cursor,omitempty"`
}

type sort struct {
	Property  string `json:"property"`
	Direction string `json:"direction"`
}

type queryResponse struct {
	Results    []page `json:"results"`
	HasMore    bool   `json:"has_more"`
	NextCursor string `json:"next_cursor"`
}

type page struct {
	ID         string              `json:"id"`
	Properties map[string]property `json:"properties"`
}

type property struct {
	Type        string       `json:"type"`
	Title       []richText   `json:"title,omitempty"`
	RichText    []richText   `json:"rich_text,omitempty"`
	URL         string       `json:"url,omitempty"`
	Select      *selectValue `json:"select,omitempty"`
	MultiSelect []selectValue `json:"multi_select,omitempty"`
	Date        *dateValue   `json:"date,omitempty"`
}

type richText struct {
	Type string   `json:"type,omitempty"`
	Text textBody `json:"text"`
}

type textBody struct {
	Content string `json:"content"`
}

type selectValue struct {
	Name string `json:"name"`
}

type dateValue struct {
	Start string `json:"start"`
}

// plainText joins the text runs of a title or rich_text property.
func plainText(runs []richText) string {
	out := ""
	for _, r := range runs {
		out += r.Text.Content
	}
	return out
}

// Property constructors for page creation. Notion caps a text run at 2000
// characters; longer content is clipped rather than rejected.

const maxTextRun = 2000

func clipRun(s string) string {
	if r := []rune(s); len(r) > maxTextRun {
		return string(r[:maxTextRun])
	}
	return s
}

func titleProp(s string) map[string]any {
	// Keep titles short; Notion renders the first line only anyway.
	if r := []rune(s); len(r) > 100 {
		s = string(r[:100])
	}
	return map[string]any{"title": []map[string]any{{"text": map[string]any{"content": s}}}}
}

func richTextProp(s string) map[string]any {
	return map[string]any{"rich_text": []map[string]any{{"text": map[string]any{"content": clipRun(s)}}}}
}

func urlProp(s string) map[string]any {
	return map[string]any{"url": s}
}

func dateProp(t time.Time) map[string]any {
	return map[string]any{"date": map[string]any{"start": t.Format(time.RFC3339)}}
}

func selectProp(name string) map[string]any {
	return map[string]any{"select": map[string]any{"name": name}}
}

func multiSelectProp(names ...string) map[string]any {
	opts := make([]map[string]any, len(names))
	for i, n := range names {
		opts[i] = map[string]any{"name": n}
	}
	return map[string]any{"multi_select": opts}
}
