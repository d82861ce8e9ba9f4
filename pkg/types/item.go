// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the learning-engine pipeline:
// discovery candidates, filtered items, finalized learning items, run results,
// and the configuration tree.
package types

import "time"

// Status tracks where a learning item sits in the review workflow.
type Status string

const (
	StatusNew      Status = "New"
	StatusReviewed Status = "Reviewed"
	StatusArchived Status = "Archived"
)

// Priority ranks a learning item for review ordering.
type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

// RawCandidate is an unvalidated content item produced by the discovery stage.
// Candidates are ephemeral; they are discarded after quality filtering.
type RawCandidate struct {
	// Title is the article title as returned by the source.
	Title string `json:"title" yaml:"title"`

	// URL is the article location. Candidates without a URL are dropped at
	// the source boundary.
	URL string `json:"url" yaml:"url"`

	// Source identifies where the candidate came from: the discovery backend
	// name ("perplexity") or the feed label for RSS entries.
	Source string `json:"source" yaml:"source"`

	// PublishedAt is the publication time. The zero value means the source
	// did not report one.
	PublishedAt time.Time `json:"published_at" yaml:"published_at"`

	// RawText is the article body or snippet used as summarization input.
	RawText string `json:"raw_text,omitempty" yaml:"raw_text,omitempty"`

	// FromPrimary marks candidates found by the primary discovery API, which
	// rank above feed entries on equal timestamps.
	FromPrimary bool `json:"from_primary" yaml:"from_primary"`
}

// FilteredItem is a candidate that passed the quality filter, annotated with
// its computed age at filter time.
type FilteredItem struct {
	RawCandidate `yaml:",inline"`

	// AgeHours is the candidate age at filter invocation. Zero when the
	// source reported no publication time.
	AgeHours float64 `json:"age_hours" yaml:"age_hours"`

	// Accepted is always true for items the filter returns; it exists so a
	// rejected candidate can be represented in diagnostics.
	Accepted bool `json:"accepted" yaml:"accepted"`
}

// QuizQuestion is one question/answer pair generated for a learning item.
type QuizQuestion struct {
	Question string `json:"question" yaml:"question"`
	Answer   string `json:"answer" yaml:"answer"`
}

// Flashcard is one front/back pair generated for a learning item.
type Flashcard struct {
	Front string `json:"front" yaml:"front"`
	Back  string `json:"back" yaml:"back"`
}

// LearningItem is the finalized unit of curated content. It is created by the
// summarization stage, persisted verbatim, and never mutated within a run.
// Status and Priority may change later through the review workflow.
type LearningItem struct {
	// Title is the article title, carried over from the candidate.
	Title string `json:"title" yaml:"title"`

	// Topic is the subject label the item was discovered under.
	Topic string `json:"topic" yaml:"topic"`

	// Summary is the fixed-length article summary.
	Summary string `json:"summary" yaml:"summary"`

	// SourceURL is the canonical article URL and the idempotency key for
	// persistence.
	SourceURL string `json:"source_url" yaml:"source_url"`

	// QuizQuestions holds exactly the configured number of pairs.
	QuizQuestions []QuizQuestion `json:"quiz_questions" yaml:"quiz_questions"`

	// Flashcards holds exactly the configured number of cards.
	Flashcards []Flashcard `json:"flashcards" yaml:"flashcards"`

	// KeyPoints are short takeaways extracted alongside the summary.
	KeyPoints []string `json:"key_points" yaml:"key_points"`

	// LearningObjectives describe what a reader should be able to do after
	// studying the item.
	LearningObjectives []string `json:"learning_objectives" yaml:"learning_objectives"`

	// Status starts at New for every freshly created item.
	Status Status `json:"status" yaml:"status"`

	// Priority is assigned from the source reliability tier.
	Priority Priority `json:"priority" yaml:"priority"`

	// CreatedAt records when the item was assembled.
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}
