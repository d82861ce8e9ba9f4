// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package summarize turns filtered candidates into finalized learning items:
// a fixed-length summary, quiz questions, flashcards, and key points produced
// by a language model and validated against the requested shape.
package summarize

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/pdiddy/learning-engine/pkg/types"
)

// AIBackend abstracts the language-model API so tests can supply a mock.
type AIBackend interface {
	Name() string
	Complete(ctx context.Context, prompt string) (string, error)
}

// Summarizer drives the summarization stage for one item at a time.
type Summarizer struct {
	Backend AIBackend
	Cfg     types.SummarizeConfig

	// Now stamps CreatedAt on produced items. Nil means time.Now.
	Now func() time.Time
}

// New returns a Summarizer over the given backend.
func New(backend AIBackend, cfg types.SummarizeConfig) *Summarizer {
	return &Summarizer{Backend: backend, Cfg: cfg}
}

// aiContent is the structured response expected from the model.
type aiContent struct {
	Summary            string               `json:"summary"`
	KeyPoints          []string             `json:"key_points"`
	LearningObjectives []string             `json:"learning_objectives"`
	QuizQuestions      []types.QuizQuestion `json:"quiz_questions"`
	Flashcards         []types.Flashcard    `json:"flashcards"`
}

// backoffBase controls the base duration for exponential backoff between
// attempts. Tests override this to avoid real sleeps.
var backoffBase = time.Second

// Summarize produces a LearningItem from one filtered candidate. Transient
// API failures are retried with exponential backoff up to the configured
// attempt count; a malformed or empty response fails the item without
// retrying. The returned item always carries exactly the configured number
// of quiz questions and flashcards: overlong sequences are truncated and
// short ones padded with deterministic review placeholders.
func (s *Summarizer) Summarize(ctx context.Context, topic string, item types.FilteredItem) (types.LearningItem, error) {
	prompt, err := renderPrompt(topic, item, s.Cfg)
	if err != nil {
		return types.LearningItem{}, fmt.Errorf("rendering prompt: %w", err)
	}

	raw, err := s.callWithRetry(ctx, prompt)
	if err != nil {
		return types.LearningItem{}, err
	}

	content, err := parseContent(raw)
	if err != nil {
		return types.LearningItem{}, err
	}

	now := time.Now
	if s.Now != nil {
		now = s.Now
	}

	return types.LearningItem{
		Title:              item.Title,
		Topic:              topic,
		Summary:            content.Summary,
		SourceURL:          item.URL,
		QuizQuestions:      shapeQuiz(content.QuizQuestions, s.Cfg.QuizCount, item.Title),
		Flashcards:         shapeFlashcards(content.Flashcards, s.Cfg.FlashcardCount, item.Title),
		KeyPoints:          content.KeyPoints,
		LearningObjectives: content.LearningObjectives,
		Status:             types.StatusNew,
		Priority:           priorityFor(item),
		CreatedAt:          now(),
	}, nil
}

// callWithRetry calls the backend up to Cfg.MaxRetries times, backing off
// exponentially, and retries only transient failures.
func (s *Summarizer) callWithRetry(ctx context.Context, prompt string) (string, error) {
	attempts := s.Cfg.MaxRetries
	if attempts <= 0 {
		attempts = 3
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * backoffBase
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
		}

		raw, err := s.Backend.Complete(ctx, prompt)
		if err == nil {
			return raw, nil
		}
		lastErr = err
		if !Transient(err) {
			return "", fmt.Errorf("%s: %w", s.Backend.Name(), err)
		}
	}
	return "", fmt.Errorf("%s: after %d attempts: %w", s.Backend.Name(), attempts, lastErr)
}

// parseContent decodes the model response, tolerating Markdown code fences
// around the JSON body. An empty summary is a validation failure.
func parseContent(raw string) (aiContent, error) {
	var content aiContent
	if err := json.Unmarshal([]byte(stripFences(raw)), &content); err != nil {
		return aiContent{}, fmt.Errorf("parsing model response: %w", err)
	}
	if strings.TrimSpace(content.Summary) == "" {
		return aiContent{}, fmt.Errorf("model response has no summary")
	}
	return content, nil
}

// stripFences removes a surrounding ```json ... ``` (or bare ```) fence.
// Models add them despite instructions not to.
func stripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	if idx := strings.LastIndex(s, "```"); idx >= 0 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}

// shapeQuiz enforces exactly count questions: truncate when long, pad with
// deterministic review placeholders when short.
func shapeQuiz(questions []types.QuizQuestion, count int, title string) []types.QuizQuestion {
	if count <= 0 {
		return nil
	}
	if len(questions) > count {
		return questions[:count]
	}
	for i := len(questions); i < count; i++ {
		questions = append(questions, types.QuizQuestion{
			Question: fmt.Sprintf("Review question %d: what is a key takeaway of %q?", i+1, title),
			Answer:   "See the article summary.",
		})
	}
	return questions
}

// shapeFlashcards enforces exactly count cards, same policy as shapeQuiz.
func shapeFlashcards(cards []types.Flashcard, count int, title string) []types.Flashcard {
	if count <= 0 {
		return nil
	}
	if len(cards) > count {
		return cards[:count]
	}
	for i := len(cards); i < count; i++ {
		cards = append(cards, types.Flashcard{
			Front: fmt.Sprintf("Key idea %d from %q", i+1, title),
			Back:  "Review the article summary.",
		})
	}
	return cards
}

// priorityFor applies the source reliability tier: primary discovery results
// rank High, feed entries Medium, and candidates without usable body text
// Low regardless of source.
func priorityFor(item types.FilteredItem) types.Priority {
	switch {
	case strings.TrimSpace(item.RawText) == "":
		return types.PriorityLow
	case item.FromPrimary:
		return types.PriorityHigh
	default:
		return types.PriorityMedium
	}
}
