// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package summarize

import (
	"context"
	"fmt"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/pdiddy/learning-engine/pkg/types"
)

// mockBackend returns scripted responses, one per call.
type mockBackend struct {
	responses []string
	errs      []error
	calls     int
	prompts   []string
}

func (m *mockBackend) Name() string { return "mock" }

func (m *mockBackend) Complete(ctx context.Context, prompt string) (string, error) {
	i := m.calls
	m.calls++
	m.prompts = append(m.prompts, prompt)
	if i < len(m.errs) && m.errs[i] != nil {
		return "", m.errs[i]
	}
	if i < len(m.responses) {
		return m.responses[i], nil
	}
	return "", fmt.Errorf("mock exhausted after %d calls", i)
}

// timeoutErr satisfies net.Error with Timeout() == true.
type timeoutErr struct{}

func (timeoutErr) Error() string   { return "dial tcp: i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

var _ net.Error = timeoutErr{}

const goodResponse = `{
  "summary": "Go generics reduce duplication. They were added in 1.18. Constraints bound type parameters. Use them sparingly.",
  "key_points": ["generics added in 1.18", "constraints bound type parameters"],
  "learning_objectives": ["After reading, you can write a generic function"],
  "quiz_questions": [
    {"question": "When were generics added?", "answer": "Go 1.18"},
    {"question": "What bounds a type parameter?", "answer": "A constraint"}
  ],
  "flashcards": [
    {"front": "Type parameter", "back": "A placeholder type on a function or type"},
    {"front": "Constraint", "back": "An interface bounding a type parameter"},
    {"front": "Instantiation", "back": "Supplying concrete types for parameters"}
  ]
}`

func testSummarizeCfg() types.SummarizeConfig {
	return types.SummarizeConfig{
		AIConfig:       types.AIConfig{Model: "test-model", MaxRetries: 3},
		SentenceCount:  4,
		QuizCount:      2,
		FlashcardCount: 3,
		MaxInputChars:  6000,
	}
}

func testItem() types.FilteredItem {
	return types.FilteredItem{
		RawCandidate: types.RawCandidate{
			Title:       "Understanding Go Generics",
			URL:         "https://example.com/generics",
			Source:      "Example Blog",
			RawText:     "A long article about generics in Go.",
			FromPrimary: true,
		},
		AgeHours: 10,
		Accepted: true,
	}
}

func init() {
	backoffBase = time.Millisecond
}

// --- happy path ---

func TestSummarize(t *testing.T) {
	backend := &mockBackend{responses: []string{goodResponse}}
	stamp := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	s := New(backend, testSummarizeCfg())
	s.Now = func() time.Time { return stamp }

	item, err := s.Summarize(context.Background(), "golang", testItem())
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}

	if item.Title != "Understanding Go Generics" {
		t.Errorf("Title = %q", item.Title)
	}
	if item.Topic != "golang" {
		t.Errorf("Topic = %q", item.Topic)
	}
	if item.SourceURL != "https://example.com/generics" {
		t.Errorf("SourceURL = %q", item.SourceURL)
	}
	if len(item.QuizQuestions) != 2 {
		t.Errorf("len(QuizQuestions) = %d, want 2", len(item.QuizQuestions))
	}
	if len(item.Flashcards) != 3 {
		t.Errorf("len(Flashcards) = %d, want 3", len(item.Flashcards))
	}
	if item.Status != types.StatusNew {
		t.Errorf("Status = %q, want New", item.Status)
	}
	if item.Priority != types.PriorityHigh {
		t.Errorf("Priority = %q, want High for a primary-source candidate", item.Priority)
	}
	if !item.CreatedAt.Equal(stamp) {
		t.Errorf("CreatedAt = %v, want %v", item.CreatedAt, stamp)
	}
}

func TestSummarizePromptContents(t *testing.T) {
	backend := &mockBackend{responses: []string{goodResponse}}
	s := New(backend, testSummarizeCfg())

	if _, err := s.Summarize(context.Background(), "golang", testItem()); err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}

	prompt := backend.prompts[0]
	for _, want := range []string{
		"exactly 4 sentences",
		"Exactly 2 quiz questions",
		"Exactly 3 flashcards",
		"Understanding Go Generics",
		"A long article about generics",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestSummarizeTruncatesInput(t *testing.T) {
	cfg := testSummarizeCfg()
	cfg.MaxInputChars = 50
	backend := &mockBackend{responses: []string{goodResponse}}
	s := New(backend, cfg)

	item := testItem()
	item.RawText = strings.Repeat("word ", 100)

	if _, err := s.Summarize(context.Background(), "golang", item); err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if strings.Count(backend.prompts[0], "word") > 11 {
		t.Error("article body not truncated to the input budget")
	}
}

// --- fenced and malformed responses ---

func TestSummarizeStripsCodeFences(t *testing.T) {
	fenced := "```json\n" + goodResponse + "\n```"
	backend := &mockBackend{responses: []string{fenced}}
	s := New(backend, testSummarizeCfg())

	item, err := s.Summarize(context.Background(), "golang", testItem())
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if !strings.Contains(item.Summary, "generics") {
		t.Errorf("Summary = %q", item.Summary)
	}
}

func TestSummarizeMalformedResponseFailsWithoutRetry(t *testing.T) {
	backend := &mockBackend{responses: []string{"I could not process that article."}}
	s := New(backend, testSummarizeCfg())

	if _, err := s.Summarize(context.Background(), "golang", testItem()); err == nil {
		t.Fatal("Summarize() error = nil, want parse error")
	}
	if backend.calls != 1 {
		t.Errorf("backend called %d times, want 1 (no retry for malformed responses)", backend.calls)
	}
}

func TestSummarizeEmptySummaryFails(t *testing.T) {
	backend := &mockBackend{responses: []string{`{"summary": "  ", "quiz_questions": [], "flashcards": []}`}}
	s := New(backend, testSummarizeCfg())

	if _, err := s.Summarize(context.Background(), "golang", testItem()); err == nil {
		t.Error("Summarize() error = nil, want validation failure for empty summary")
	}
}

// --- shape policy ---

func TestSummarizePadsShortSequences(t *testing.T) {
	short := `{"summary": "One sentence only.", "quiz_questions": [{"question": "Q1?", "answer": "A1"}], "flashcards": []}`
	backend := &mockBackend{responses: []string{short}}
	s := New(backend, testSummarizeCfg())

	item, err := s.Summarize(context.Background(), "golang", testItem())
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if len(item.QuizQuestions) != 2 {
		t.Fatalf("len(QuizQuestions) = %d, want 2 after padding", len(item.QuizQuestions))
	}
	if item.QuizQuestions[0].Question != "Q1?" {
		t.Errorf("model-provided question displaced: %q", item.QuizQuestions[0].Question)
	}
	if !strings.Contains(item.QuizQuestions[1].Question, "Understanding Go Generics") {
		t.Errorf("placeholder should name the article: %q", item.QuizQuestions[1].Question)
	}
	if len(item.Flashcards) != 3 {
		t.Errorf("len(Flashcards) = %d, want 3 after padding", len(item.Flashcards))
	}
}

func TestSummarizeTruncatesLongSequences(t *testing.T) {
	cfg := testSummarizeCfg()
	cfg.QuizCount = 1
	cfg.FlashcardCount = 1
	backend := &mockBackend{responses: []string{goodResponse}}
	s := New(backend, cfg)

	item, err := s.Summarize(context.Background(), "golang", testItem())
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if len(item.QuizQuestions) != 1 || len(item.Flashcards) != 1 {
		t.Errorf("shape = (%d quiz, %d cards), want (1, 1)",
			len(item.QuizQuestions), len(item.Flashcards))
	}
}

func TestShapePlaceholdersAreDeterministic(t *testing.T) {
	a := shapeQuiz(nil, 2, "Some Article")
	b := shapeQuiz(nil, 2, "Some Article")
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("placeholder %d differs across calls: %+v vs %+v", i, a[i], b[i])
		}
	}
}

// --- retry policy ---

func TestSummarizeRetriesTransientErrors(t *testing.T) {
	backend := &mockBackend{
		errs:      []error{timeoutErr{}, timeoutErr{}},
		responses: []string{"", "", goodResponse},
	}
	s := New(backend, testSummarizeCfg())

	if _, err := s.Summarize(context.Background(), "golang", testItem()); err != nil {
		t.Fatalf("Summarize() error = %v, want success on the third attempt", err)
	}
	if backend.calls != 3 {
		t.Errorf("backend called %d times, want 3", backend.calls)
	}
}

func TestSummarizeExhaustsRetries(t *testing.T) {
	backend := &mockBackend{
		errs: []error{timeoutErr{}, timeoutErr{}, timeoutErr{}},
	}
	s := New(backend, testSummarizeCfg())

	_, err := s.Summarize(context.Background(), "golang", testItem())
	if err == nil {
		t.Fatal("Summarize() error = nil, want failure after exhausting retries")
	}
	if backend.calls != 3 {
		t.Errorf("backend called %d times, want 3 (configured attempt count)", backend.calls)
	}
	if !strings.Contains(err.Error(), "after 3 attempts") {
		t.Errorf("error should report the attempt count: %v", err)
	}
}

func TestSummarizePermanentErrorNotRetried(t *testing.T) {
	backend := &mockBackend{errs: []error{fmt.Errorf("invalid request")}}
	s := New(backend, testSummarizeCfg())

	if _, err := s.Summarize(context.Background(), "golang", testItem()); err == nil {
		t.Fatal("Summarize() error = nil, want error")
	}
	if backend.calls != 1 {
		t.Errorf("backend called %d times, want 1 for a permanent error", backend.calls)
	}
}

// --- priority heuristic ---

func TestPriorityFor(t *testing.T) {
	tests := []struct {
		name string
		item types.FilteredItem
		want types.Priority
	}{
		{
			"primary with body",
			types.FilteredItem{RawCandidate: types.RawCandidate{FromPrimary: true, RawText: "body"}},
			types.PriorityHigh,
		},
		{
			"feed with body",
			types.FilteredItem{RawCandidate: types.RawCandidate{RawText: "body"}},
			types.PriorityMedium,
		},
		{
			"no body text",
			types.FilteredItem{RawCandidate: types.RawCandidate{FromPrimary: true, RawText: "  "}},
			types.PriorityLow,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := priorityFor(tt.item); got != tt.want {
				t.Errorf("priorityFor() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestStripFences(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`{"a": 1}`, `{"a": 1}`},
		{"```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"```\n{\"a\": 1}\n```", `{"a": 1}`},
		{"  {\"a\": 1}  ", `{"a": 1}`},
	}
	for _, tt := range tests {
		if got := stripFences(tt.in); got != tt.want {
			t.Errorf("stripFences(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
