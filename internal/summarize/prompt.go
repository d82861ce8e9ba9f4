// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package summarize

import (
	"bytes"
	"strings"
	"text/template"

	"github.com/pdiddy/learning-engine/pkg/types"
)

// summaryPromptTmpl asks the model for the full learning package in one
// round trip: summary, quiz, flashcards, key points, and objectives, as
// strict JSON with exact counts.
var summaryPromptTmpl = template.Must(template.New("summary").Parse(`You are an educational content curator. Summarize the article below for someone learning about {{.Topic}}.

Produce:
1. A summary of exactly {{.SentenceCount}} sentences capturing the most important learning points.
2. Exactly {{.QuizCount}} quiz questions with answers that test understanding of the core concepts.
3. Exactly {{.FlashcardCount}} flashcards, each with a short front (a term or question) and a back (the answer or definition).
4. 3-5 key points as short phrases.
5. 2-3 learning objectives ("After reading, you can ...").

Respond with a single JSON object and no text outside it:
{"summary": "...", "quiz_questions": [{"question": "...", "answer": "..."}], "flashcards": [{"front": "...", "back": "..."}], "key_points": ["..."], "learning_objectives": ["..."]}

Title: {{.Title}}
Source: {{.Source}}
Article:
{{.Content}}
`))

// promptData feeds summaryPromptTmpl.
type promptData struct {
	Topic          string
	Title          string
	Source         string
	Content        string
	SentenceCount  int
	QuizCount      int
	FlashcardCount int
}

// renderPrompt builds the model prompt for one candidate, truncating the
// article body to the configured input budget. A candidate without body
// text falls back to its title so the model still has something to work
// from.
func renderPrompt(topic string, item types.FilteredItem, cfg types.SummarizeConfig) (string, error) {
	content := strings.TrimSpace(item.RawText)
	if content == "" {
		content = item.Title
	}
	if cfg.MaxInputChars > 0 {
		if r := []rune(content); len(r) > cfg.MaxInputChars {
			content = string(r[:cfg.MaxInputChars])
		}
	}

	var buf bytes.Buffer
	err := summaryPromptTmpl.Execute(&buf, promptData{
		Topic:          topic,
		Title:          item.Title,
		Source:         item.Source,
		Content:        content,
		SentenceCount:  cfg.SentenceCount,
		QuizCount:      cfg.QuizCount,
		FlashcardCount: cfg.FlashcardCount,
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
