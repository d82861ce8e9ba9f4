// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline sequences the run: for each topic, fetch candidates,
// filter them, summarize the survivors, and persist the results. Failures
// are contained at the smallest possible scope. A bad article costs one
// item, a dead topic costs one topic, and only invalid configuration stops
// the process.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/pdiddy/learning-engine/internal/filter"
	"github.com/pdiddy/learning-engine/pkg/types"
)

// Fetcher discovers raw candidates for one topic.
type Fetcher interface {
	Fetch(ctx context.Context, topic string) ([]types.RawCandidate, error)
}

// Summarizer turns one filtered article into a learning item.
type Summarizer interface {
	Summarize(ctx context.Context, topic string, item types.FilteredItem) (types.LearningItem, error)
}

// Persister writes one learning item to the external database.
type Persister interface {
	Persist(ctx context.Context, item types.LearningItem) (types.PersistStatus, error)
}

// Recorder stores the terminal summary of a run and answers whether an
// earlier run already persisted a URL. Recording is best effort; a recorder
// failure never fails the run.
type Recorder interface {
	RecordRun(summary types.RunSummary) error
	HasPersisted(sourceURL string) (bool, error)
}

// Runner wires the pipeline stages together. Stage fields are interfaces so
// tests can substitute fakes; Ledger may be nil.
type Runner struct {
	Fetch     Fetcher
	Summarize Summarizer
	Persist   Persister
	Ledger    Recorder

	Cfg types.Config

	// DryRun runs fetch, filter, and summarize but skips persistence.
	DryRun bool

	// Now is the clock used for the filter age cutoff; nil means time.Now.
	Now func() time.Time
}

func (r *Runner) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

// Run executes the pipeline over topics, writing progress to w, and returns
// the run summary. The only error it returns is context cancellation;
// everything else is contained and reported in the summary.
func (r *Runner) Run(ctx context.Context, topics []string, w io.Writer) (*types.RunSummary, error) {
	summary := &types.RunSummary{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
		DryRun:    r.DryRun,
	}
	fmt.Fprintf(w, "run %s: %d topics\n", summary.RunID, len(topics))

	for i, topic := range topics {
		if i > 0 && r.Cfg.Fetch.InterTopicDelay > 0 {
			if err := sleep(ctx, r.Cfg.Fetch.InterTopicDelay); err != nil {
				return summary, err
			}
		}
		if ctx.Err() != nil {
			return summary, ctx.Err()
		}

		summary.Topics = append(summary.Topics, r.runTopic(ctx, topic, w))
	}

	summary.FinishedAt = time.Now()
	r.record(summary, w)
	return summary, ctx.Err()
}

// runTopic runs every stage for one topic and returns its result. A fetch
// failure aborts the topic; later stages fail item by item.
func (r *Runner) runTopic(ctx context.Context, topic string, w io.Writer) types.TopicResult {
	result := types.TopicResult{Topic: topic}
	fmt.Fprintf(w, "\n[%s]\n", topic)

	candidates, err := r.Fetch.Fetch(ctx, topic)
	if err != nil {
		ferr := &types.FetchError{Topic: topic, Err: err}
		fmt.Fprintf(w, "  %v\n", ferr)
		result.Aborted = true
		result.Errors = append(result.Errors, types.ItemError{
			Stage: types.StageFetch,
			Topic: topic,
			Err:   ferr.Error(),
		})
		return result
	}
	result.Fetched = len(candidates)

	items, report := filter.Apply(candidates, r.Cfg.Fetch.MaxAgeHours, r.Cfg.Fetch.MaxItems, r.now())
	result.Filtered = len(items)
	fmt.Fprintf(w, "  fetched %d, kept %d (%d too old, %d duplicates)\n",
		report.Examined, report.Kept, report.TooOld, report.DuplicateURL+report.DuplicateTitle)

	for _, item := range items {
		if ctx.Err() != nil {
			return result
		}
		r.runItem(ctx, topic, item, &result, w)
	}
	return result
}

// runItem summarizes and persists one article, appending its trail to result.
func (r *Runner) runItem(ctx context.Context, topic string, item types.FilteredItem, result *types.TopicResult, w io.Writer) {
	record := types.ItemRecord{Title: item.Title, SourceURL: item.URL}

	learning, err := r.Summarize.Summarize(ctx, topic, item)
	if err != nil {
		serr := &types.SummarizationError{
			Topic:    topic,
			URL:      item.URL,
			Attempts: attempts(r.Cfg.Summarize.MaxRetries),
			Err:      err,
		}
		fmt.Fprintf(w, "  %v\n", serr)
		record.Stage = types.StageSummarize
		record.Status = types.PersistFailed
		record.Error = serr.Error()
		result.Items = append(result.Items, record)
		result.Errors = append(result.Errors, types.ItemError{
			Stage: types.StageSummarize,
			Topic: topic,
			URL:   item.URL,
			Title: item.Title,
			Err:   serr.Error(),
		})
		return
	}
	result.Summarized++
	record.Stage = types.StageSummarize

	if r.DryRun {
		fmt.Fprintf(w, "  summarized (dry run): %s\n", learning.Title)
		record.Status = types.PersistSkipped
		result.Items = append(result.Items, record)
		return
	}

	// The ledger short-circuits only on a recorded create; a miss or a
	// ledger error falls through to the durable check in Notion.
	if r.Ledger != nil {
		if seen, err := r.Ledger.HasPersisted(item.URL); err == nil && seen {
			result.Skipped++
			fmt.Fprintf(w, "  skipped: %s (already stored)\n", learning.Title)
			record.Stage = types.StagePersist
			record.Status = types.PersistSkipped
			result.Items = append(result.Items, record)
			return
		}
	}

	status, err := r.Persist.Persist(ctx, learning)
	record.Stage = types.StagePersist
	record.Status = status
	switch status {
	case types.PersistCreated:
		result.Persisted++
		fmt.Fprintf(w, "  created: %s\n", learning.Title)
	case types.PersistSkipped:
		result.Skipped++
		fmt.Fprintf(w, "  skipped: %s (already stored)\n", learning.Title)
	default:
		perr := &types.PersistenceError{Topic: topic, URL: item.URL, Err: err}
		fmt.Fprintf(w, "  %v\n", perr)
		record.Error = perr.Error()
		result.Errors = append(result.Errors, types.ItemError{
			Stage: types.StagePersist,
			Topic: topic,
			URL:   item.URL,
			Title: item.Title,
			Err:   perr.Error(),
		})
	}
	result.Items = append(result.Items, record)
}

// record writes the summary to the ledger when one is wired.
func (r *Runner) record(summary *types.RunSummary, w io.Writer) {
	if r.Ledger == nil {
		return
	}
	if err := r.Ledger.RecordRun(*summary); err != nil {
		fmt.Fprintf(w, "warning: recording run: %v\n", err)
	}
}

func attempts(maxRetries int) int {
	if maxRetries <= 0 {
		return 3
	}
	return maxRetries
}

// sleep waits for d or until the context ends.
func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// IsConfigurationError reports whether err is the one error class that
// should make the process exit non-zero.
func IsConfigurationError(err error) bool {
	var ce *types.ConfigurationError
	return errors.As(err, &ce)
}
