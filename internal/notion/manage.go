// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package notion

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// databaseTitle names the database EnsureDatabase creates.
const databaseTitle = "Learning Items"

// learningSchema is the property set expected by the persistence mapping.
// Select options carry colors so a freshly created database looks usable
// without manual setup.
func learningSchema() map[string]any {
	return map[string]any{
		propTitle: map[string]any{"title": map[string]any{}},
		propTopic: map[string]any{"multi_select": map[string]any{"options": []map[string]any{
			{"name": "Artificial Intelligence", "color": "blue"},
			{"name": "Machine Learning", "color": "green"},
			{"name": "Software Development", "color": "purple"},
			{"name": "Data Science", "color": "orange"},
			{"name": "General", "color": "gray"},
		}}},
		propSummary:   map[string]any{"rich_text": map[string]any{}},
		propSourceURL: map[string]any{"url": map[string]any{}},
		propDateAdded: map[string]any{"date": map[string]any{}},
		propQuizQuestions: map[string]any{"rich_text": map[string]any{}},
		propFlashcards:    map[string]any{"rich_text": map[string]any{}},
		propStatus: map[string]any{"select": map[string]any{"options": []map[string]any{
			{"name": "New", "color": "blue"},
			{"name": "Reviewed", "color": "green"},
			{"name": "Archived", "color": "gray"},
		}}},
		propPriority: map[string]any{"select": map[string]any{"options": []map[string]any{
			{"name": "High", "color": "red"},
			{"name": "Medium", "color": "yellow"},
			{"name": "Low", "color": "gray"},
		}}},
		propKeyPoints:          map[string]any{"rich_text": map[string]any{}},
		propLearningObjectives: map[string]any{"rich_text": map[string]any{}},
	}
}

// EnsureDatabase creates the learning-items database under the given parent
// page and returns its ID. When the client already has a database ID, that
// ID is returned unchanged.
func (c *Client) EnsureDatabase(ctx context.Context, parentPageID string) (string, error) {
	if c.DatabaseID != "" {
		return c.DatabaseID, nil
	}
	if parentPageID == "" {
		return "", fmt.Errorf("no database ID configured and no parent page to create one under")
	}

	body := map[string]any{
		"parent": map[string]any{"type": "page_id", "page_id": parentPageID},
		"title": []map[string]any{
			{"type": "text", "text": map[string]any{"content": databaseTitle}},
		},
		"properties": learningSchema(),
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := c.call(ctx, http.MethodPost, "/databases", body, &created); err != nil {
		return "", fmt.Errorf("creating database: %w", err)
	}
	c.DatabaseID = created.ID
	return created.ID, nil
}

// Stats summarizes database contents for the stats command.
type Stats struct {
	Total    int
	ByTopic  map[string]int
	ByStatus map[string]int
}

// Stats walks every page in the database, following pagination, and counts
// entries by topic and status.
func (c *Client) Stats(ctx context.Context) (Stats, error) {
	stats := Stats{ByTopic: make(map[string]int), ByStatus: make(map[string]int)}

	cursor := ""
	for {
		req := queryRequest{PageSize: 100, StartCursor: cursor}
		var resp queryResponse
		if err := c.call(ctx, http.MethodPost, "/databases/"+c.DatabaseID+"/query", req, &resp); err != nil {
			return Stats{}, fmt.Errorf("querying database: %w", err)
		}

		for _, p := range resp.Results {
			stats.Total++
			for _, topic := range p.Properties[propTopic].MultiSelect {
				stats.ByTopic[topic.Name]++
			}
			if sel := p.Properties[propStatus].Select; sel != nil {
				stats.ByStatus[sel.Name]++
			}
		}

		if !resp.HasMore {
			return stats, nil
		}
		cursor = resp.NextCursor
	}
}

// Entry is one database row as the recent listing shows it.
type Entry struct {
	PageID    string
	Title     string
	SourceURL string
	Status    string
	AddedAt   time.Time
}

// Recent returns entries added within the last days days, newest first.
func (c *Client) Recent(ctx context.Context, days int) ([]Entry, error) {
	if days <= 0 {
		days = 7
	}
	cutoff := time.Now().AddDate(0, 0, -days)

	req := queryRequest{
		Filter: map[string]any{
			"property": propDateAdded,
			"date":     map[string]any{"after": cutoff.Format(time.RFC3339)},
		},
		Sorts:    []sort{{Property: propDateAdded, Direction: "descending"}},
		PageSize: 100,
	}

	var resp queryResponse
	if err := c.call(ctx, http.MethodPost, "/databases/"+c.DatabaseID+"/query", req, &resp); err != nil {
		return nil, fmt.Errorf("querying recent entries: %w", err)
	}

	entries := make([]Entry, 0, len(resp.Results))
	for _, p := range resp.Results {
		e := Entry{
			PageID:    p.ID,
			Title:     plainText(p.Properties[propTitle].Title),
			SourceURL: p.Properties[propSourceURL].URL,
		}
		if sel := p.Properties[propStatus].Select; sel != nil {
			e.Status = sel.Name
		}
		if d := p.Properties[propDateAdded].Date; d != nil {
			if t, err := time.Parse(time.RFC3339, d.Start); err == nil {
				e.AddedAt = t
			}
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// validStatuses guards UpdateStatus against typos reaching the API.
var validStatuses = map[string]bool{"New": true, "Reviewed": true, "Archived": true}

// UpdateStatus moves one entry through the review workflow.
func (c *Client) UpdateStatus(ctx context.Context, pageID, status string) error {
	if !validStatuses[status] {
		return fmt.Errorf("invalid status %q: want New, Reviewed, or Archived", status)
	}
	body := map[string]any{
		"properties": map[string]any{
			propStatus: selectProp(status),
		},
	}
	if err := c.call(ctx, http.MethodPatch, "/pages/"+pageID, body, nil); err != nil {
		return fmt.Errorf("updating status: %w", err)
	}
	return nil
}
