// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// PersistStatus is the outcome of persisting one learning item.
type PersistStatus string

const (
	PersistCreated PersistStatus = "created"
	PersistSkipped PersistStatus = "skipped"
	PersistFailed  PersistStatus = "failed"
)

// Stage names identify where in the pipeline an error occurred.
const (
	StageFetch     = "fetch"
	StageSummarize = "summarize"
	StagePersist   = "persist"
)

// ItemError records one caught failure with enough context to trace it back
// to a topic and article.
type ItemError struct {
	// Stage is one of StageFetch, StageSummarize, StagePersist.
	Stage string `json:"stage" yaml:"stage"`

	// Topic is the topic being processed when the error occurred.
	Topic string `json:"topic" yaml:"topic"`

	// URL identifies the article for item-level failures; empty for
	// topic-level fetch failures.
	URL string `json:"url,omitempty" yaml:"url,omitempty"`

	// Title is the article title when known.
	Title string `json:"title,omitempty" yaml:"title,omitempty"`

	// Err is the error text.
	Err string `json:"error" yaml:"error"`
}

// ItemRecord is the per-article trail kept for one run: how far the article
// got and how it ended up. The ledger stores one row per record.
type ItemRecord struct {
	Title     string `json:"title" yaml:"title"`
	SourceURL string `json:"source_url" yaml:"source_url"`

	// Stage is the last pipeline stage the item reached.
	Stage string `json:"stage" yaml:"stage"`

	// Status is the terminal outcome: created, skipped, or failed.
	Status PersistStatus `json:"status" yaml:"status"`

	// Error is the failure text when Status is failed.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}

// TopicResult aggregates per-topic counts for one run.
type TopicResult struct {
	Topic      string `json:"topic" yaml:"topic"`
	Fetched    int    `json:"fetched" yaml:"fetched"`
	Filtered   int    `json:"filtered" yaml:"filtered"`
	Summarized int    `json:"summarized" yaml:"summarized"`
	Persisted  int    `json:"persisted" yaml:"persisted"`
	Skipped    int    `json:"skipped" yaml:"skipped"`

	// Aborted is set when the fetch stage failed and the topic's remaining
	// stages were skipped.
	Aborted bool `json:"aborted" yaml:"aborted"`

	// Items traces every article that entered the summarize stage.
	Items []ItemRecord `json:"items,omitempty" yaml:"items,omitempty"`

	Errors []ItemError `json:"errors,omitempty" yaml:"errors,omitempty"`
}

// RunSummary is the terminal record of one pipeline run across all topics.
type RunSummary struct {
	// RunID uniquely identifies the run in logs and the ledger.
	RunID string `json:"run_id" yaml:"run_id"`

	StartedAt  time.Time `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time `json:"finished_at" yaml:"finished_at"`

	// DryRun marks runs that skipped persistence.
	DryRun bool `json:"dry_run" yaml:"dry_run"`

	Topics []TopicResult `json:"topics" yaml:"topics"`
}

// Succeeded reports whether at least one topic completed without a
// fetch-stage abort.
func (r RunSummary) Succeeded() bool {
	for _, t := range r.Topics {
		if !t.Aborted {
			return true
		}
	}
	return false
}

// TotalErrors counts every recorded error across topics.
func (r RunSummary) TotalErrors() int {
	n := 0
	for _, t := range r.Topics {
		n += len(t.Errors)
	}
	return n
}

// Totals sums the per-topic counters.
func (r RunSummary) Totals() TopicResult {
	var sum TopicResult
	for _, t := range r.Topics {
		sum.Fetched += t.Fetched
		sum.Filtered += t.Filtered
		sum.Summarized += t.Summarized
		sum.Persisted += t.Persisted
		sum.Skipped += t.Skipped
	}
	return sum
}
