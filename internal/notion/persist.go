// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package notion

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/pdiddy/learning-engine/pkg/types"
)

// Schema property names of the learning-items database.
const (
	propTitle              = "Title"
	propTopic              = "Topic"
	propSummary            = "Summary"
	propSourceURL          = "Source URL"
	propDateAdded          = "Date Added"
	propQuizQuestions      = "Quiz Questions"
	propFlashcards         = "Flashcards"
	propStatus             = "Status"
	propPriority           = "Priority"
	propKeyPoints          = "Key Points"
	propLearningObjectives = "Learning Objectives"
)

// FindBySourceURL returns the page ID holding the given source URL, or ""
// when no page does.
func (c *Client) FindBySourceURL(ctx context.Context, sourceURL string) (string, error) {
	req := queryRequest{
		Filter: map[string]any{
			"property": propSourceURL,
			"url":      map[string]any{"equals": sourceURL},
		},
		PageSize: 1,
	}

	var resp queryResponse
	if err := c.call(ctx, http.MethodPost, "/databases/"+c.DatabaseID+"/query", req, &resp); err != nil {
		return "", fmt.Errorf("querying by source URL: %w", err)
	}
	if len(resp.Results) == 0 {
		return "", nil
	}
	return resp.Results[0].ID, nil
}

// Persist writes one learning item, skipping items whose source URL already
// has a page. The check and the write are two API calls, which is fine at
// one sequential pipeline per process.
func (c *Client) Persist(ctx context.Context, item types.LearningItem) (types.PersistStatus, error) {
	existing, err := c.FindBySourceURL(ctx, item.SourceURL)
	if err != nil {
		return types.PersistFailed, err
	}
	if existing != "" {
		return types.PersistSkipped, nil
	}

	body := map[string]any{
		"parent":     map[string]any{"database_id": c.DatabaseID},
		"properties": pageProperties(item),
	}
	if err := c.call(ctx, http.MethodPost, "/pages", body, nil); err != nil {
		return types.PersistFailed, fmt.Errorf("creating page: %w", err)
	}
	return types.PersistCreated, nil
}

// pageProperties maps every LearningItem field onto the database schema.
func pageProperties(item types.LearningItem) map[string]any {
	return map[string]any{
		propTitle:              titleProp(item.Title),
		propTopic:              multiSelectProp(item.Topic),
		propSummary:            richTextProp(item.Summary),
		propSourceURL:          urlProp(item.SourceURL),
		propDateAdded:          dateProp(item.CreatedAt),
		propQuizQuestions:      richTextProp(renderQuiz(item.QuizQuestions)),
		propFlashcards:         richTextProp(renderFlashcards(item.Flashcards)),
		propStatus:             selectProp(string(item.Status)),
		propPriority:           selectProp(string(item.Priority)),
		propKeyPoints:          richTextProp(renderBullets(item.KeyPoints)),
		propLearningObjectives: richTextProp(renderBullets(item.LearningObjectives)),
	}
}

// renderQuiz flattens question/answer pairs into the rich-text layout the
// review workflow reads.
func renderQuiz(questions []types.QuizQuestion) string {
	var b strings.Builder
	for i, q := range questions {
		fmt.Fprintf(&b, "Q%d: %s\nA%d: %s\n\n", i+1, q.Question, i+1, q.Answer)
	}
	return strings.TrimRight(b.String(), "\n")
}

// renderFlashcards flattens front/back pairs, one card per block.
func renderFlashcards(cards []types.Flashcard) string {
	var b strings.Builder
	for i, card := range cards {
		fmt.Fprintf(&b, "Card %d:\nFront: %s\nBack: %s\n\n", i+1, card.Front, card.Back)
	}
	return strings.TrimRight(b.String(), "\n")
}

// renderBullets renders a string list as bullet lines.
func renderBullets(items []string) string {
	var b strings.Builder
	for _, item := range items {
		fmt.Fprintf(&b, "• %s\n", item)
	}
	return strings.TrimRight(b.String(), "\n")
}

// BatchResult holds counts from persisting one batch of items.
type BatchResult struct {
	Created int
	Skipped int
	Failed  int
}

// Total returns the number of items processed.
func (r BatchResult) Total() int {
	return r.Created + r.Skipped + r.Failed
}

// HasFailures reports whether any item failed to persist.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// PersistBatch writes items one at a time, reporting a status line per item.
// Failures are recorded and skipped; the batch always runs to completion.
func (c *Client) PersistBatch(ctx context.Context, items []types.LearningItem, w io.Writer) BatchResult {
	var result BatchResult
	for _, item := range items {
		status, err := c.Persist(ctx, item)
		switch status {
		case types.PersistCreated:
			fmt.Fprintf(w, "created: %s\n", item.Title)
			result.Created++
		case types.PersistSkipped:
			fmt.Fprintf(w, "skipped: %s (already stored)\n", item.Title)
			result.Skipped++
		default:
			fmt.Fprintf(w, "failed:  %s: %v\n", item.Title, err)
			result.Failed++
		}
	}
	return result
}
