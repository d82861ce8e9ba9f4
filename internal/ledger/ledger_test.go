// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ledger

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pdiddy/learning-engine/pkg/types"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(types.LedgerConfig{Path: filepath.Join(t.TempDir(), "test.db")})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleSummary(runID string, started time.Time) types.RunSummary {
	return types.RunSummary{
		RunID:      runID,
		StartedAt:  started,
		FinishedAt: started.Add(2 * time.Minute),
		Topics: []types.TopicResult{
			{
				Topic:      "golang",
				Fetched:    3,
				Filtered:   2,
				Summarized: 2,
				Persisted:  1,
				Skipped:    1,
				Items: []types.ItemRecord{
					{Title: "Article A", SourceURL: "https://example.com/a", Stage: types.StagePersist, Status: types.PersistCreated},
					{Title: "Article B", SourceURL: "https://example.com/b", Stage: types.StagePersist, Status: types.PersistSkipped},
				},
			},
			{
				Topic:   "databases",
				Fetched: 1,
				Items: []types.ItemRecord{
					{Title: "Article C", SourceURL: "https://example.com/c", Stage: types.StageSummarize, Status: types.PersistFailed, Error: "model unavailable"},
				},
				Errors: []types.ItemError{
					{Stage: types.StageSummarize, Topic: "databases", URL: "https://example.com/c", Err: "model unavailable"},
				},
			},
		},
	}
}

func TestRecordAndGetRun(t *testing.T) {
	s := openStore(t)
	started := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)

	if err := s.RecordRun(sampleSummary("run-1", started)); err != nil {
		t.Fatalf("RecordRun() error = %v", err)
	}

	got, err := s.GetRun("run-1")
	if err != nil {
		t.Fatalf("GetRun() error = %v", err)
	}
	if got == nil {
		t.Fatal("GetRun() = nil for a recorded run")
	}
	if got.RunID != "run-1" || len(got.Topics) != 2 {
		t.Errorf("GetRun() = %+v", got)
	}
	if got.Topics[0].Items[0].SourceURL != "https://example.com/a" {
		t.Errorf("stored summary lost item detail: %+v", got.Topics[0].Items)
	}

	missing, err := s.GetRun("no-such-run")
	if err != nil {
		t.Fatalf("GetRun(missing) error = %v", err)
	}
	if missing != nil {
		t.Errorf("GetRun(missing) = %+v, want nil", missing)
	}
}

func TestRecordRunTwiceReplacesRows(t *testing.T) {
	s := openStore(t)
	started := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	summary := sampleSummary("run-1", started)

	if err := s.RecordRun(summary); err != nil {
		t.Fatalf("first RecordRun() error = %v", err)
	}
	summary.Topics[1].Items[0].Status = types.PersistCreated
	summary.Topics[1].Items[0].Error = ""
	if err := s.RecordRun(summary); err != nil {
		t.Fatalf("second RecordRun() error = %v", err)
	}

	runs, err := s.ListRuns(0, time.Time{})
	if err != nil {
		t.Fatalf("ListRuns() error = %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("len(runs) = %d after re-recording, want 1", len(runs))
	}

	items, err := s.RunItems("run-1")
	if err != nil {
		t.Fatalf("RunItems() error = %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("len(items) = %d after re-recording, want 3", len(items))
	}
	for _, it := range items {
		if it.SourceURL == "https://example.com/c" && it.Status != types.PersistCreated {
			t.Errorf("re-recorded item kept stale status %q", it.Status)
		}
	}
}

func TestListRunsLimitAndSince(t *testing.T) {
	s := openStore(t)
	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	for i, id := range []string{"run-1", "run-2", "run-3"} {
		if err := s.RecordRun(sampleSummary(id, base.AddDate(0, 0, i))); err != nil {
			t.Fatalf("RecordRun(%s) error = %v", id, err)
		}
	}

	runs, err := s.ListRuns(2, time.Time{})
	if err != nil {
		t.Fatalf("ListRuns() error = %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("len(runs) = %d with limit 2", len(runs))
	}
	if runs[0].RunID != "run-3" || runs[1].RunID != "run-2" {
		t.Errorf("runs not newest first: %s, %s", runs[0].RunID, runs[1].RunID)
	}

	runs, err = s.ListRuns(0, base.AddDate(0, 0, 2))
	if err != nil {
		t.Fatalf("ListRuns(since) error = %v", err)
	}
	if len(runs) != 1 || runs[0].RunID != "run-3" {
		t.Errorf("ListRuns(since) = %+v, want only run-3", runs)
	}

	row := runs[0]
	if row.Fetched != 4 || row.Created != 1 || row.Skipped != 1 || row.Errors != 1 {
		t.Errorf("run row totals = %+v", row)
	}
}

func TestFailures(t *testing.T) {
	s := openStore(t)
	if err := s.RecordRun(sampleSummary("run-1", time.Now())); err != nil {
		t.Fatalf("RecordRun() error = %v", err)
	}

	failures, err := s.Failures(10)
	if err != nil {
		t.Fatalf("Failures() error = %v", err)
	}
	if len(failures) != 1 {
		t.Fatalf("len(failures) = %d, want 1", len(failures))
	}
	if failures[0].SourceURL != "https://example.com/c" || failures[0].Error == "" {
		t.Errorf("failure row = %+v", failures[0])
	}
}

func TestHasPersisted(t *testing.T) {
	s := openStore(t)
	if err := s.RecordRun(sampleSummary("run-1", time.Now())); err != nil {
		t.Fatalf("RecordRun() error = %v", err)
	}

	for _, tt := range []struct {
		url  string
		want bool
	}{
		{"https://example.com/a", true},  // created
		{"https://example.com/b", false}, // skipped, not created here
		{"https://example.com/zzz", false},
	} {
		got, err := s.HasPersisted(tt.url)
		if err != nil {
			t.Fatalf("HasPersisted(%s) error = %v", tt.url, err)
		}
		if got != tt.want {
			t.Errorf("HasPersisted(%s) = %v, want %v", tt.url, got, tt.want)
		}
	}
}

func TestExport(t *testing.T) {
	s := openStore(t)
	started := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	if err := s.RecordRun(sampleSummary("run-1", started)); err != nil {
		t.Fatalf("RecordRun() error = %v", err)
	}

	var yamlOut bytes.Buffer
	if err := s.Export(&yamlOut, "yaml", time.Time{}); err != nil {
		t.Fatalf("Export(yaml) error = %v", err)
	}
	if !strings.Contains(yamlOut.String(), "run_id: run-1") {
		t.Errorf("YAML export missing run:\n%s", yamlOut.String())
	}

	var jsonOut bytes.Buffer
	if err := s.Export(&jsonOut, "json", time.Time{}); err != nil {
		t.Fatalf("Export(json) error = %v", err)
	}
	var decoded []types.RunSummary
	if err := json.Unmarshal(jsonOut.Bytes(), &decoded); err != nil {
		t.Fatalf("JSON export does not parse: %v", err)
	}
	if len(decoded) != 1 || decoded[0].RunID != "run-1" {
		t.Errorf("JSON export = %+v", decoded)
	}

	if err := s.Export(&bytes.Buffer{}, "xml", time.Time{}); err == nil {
		t.Error("Export(xml) error = nil, want unknown-format error")
	}
}

func TestFormatRuns(t *testing.T) {
	var out bytes.Buffer
	FormatRuns(nil, &out)
	if !strings.Contains(out.String(), "No runs recorded.") {
		t.Errorf("empty listing = %q", out.String())
	}

	out.Reset()
	FormatRuns([]RunRow{{
		RunID:     "run-1",
		StartedAt: time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC),
		Succeeded: true,
		Fetched:   4, Created: 2, Skipped: 1,
	}}, &out)
	for _, want := range []string{"run-1", "2026-03-10 08:00", "ok"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("listing missing %q:\n%s", want, out.String())
		}
	}
}
