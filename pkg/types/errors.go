// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"strings"
)

// FetchError reports that discovery failed for a topic: the primary backend
// and every fallback feed were unreachable. It aborts the topic but not the
// run.
type FetchError struct {
	Topic string
	Err   error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetching topic %q: %v", e.Topic, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// SummarizationError reports that the language-model call for one item failed
// after exhausting retries. The item is dropped; the topic continues.
type SummarizationError struct {
	Topic    string
	URL      string
	Attempts int
	Err      error
}

func (e *SummarizationError) Error() string {
	return fmt.Sprintf("summarizing %s (topic %q) after %d attempts: %v", e.URL, e.Topic, e.Attempts, e.Err)
}

func (e *SummarizationError) Unwrap() error { return e.Err }

// PersistenceError reports that writing one item to the external database
// failed. The item is recorded as failed; the topic continues.
type PersistenceError struct {
	Topic string
	URL   string
	Err   error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persisting %s (topic %q): %v", e.URL, e.Topic, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// ConfigurationError reports invalid configuration. It is raised before any
// run starts and is the only error class that makes the process exit
// non-zero.
type ConfigurationError struct {
	Problems []string
}

func (e *ConfigurationError) Error() string {
	return "invalid configuration: " + strings.Join(e.Problems, "; ")
}
