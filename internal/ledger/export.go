// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ledger

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	sq "github.com/Masterminds/squirrel"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/learning-engine/pkg/types"
)

// summaries loads the full stored summaries, oldest first. A non-zero since
// drops runs that started earlier.
func (s *Store) summaries(since time.Time) ([]types.RunSummary, error) {
	q := sq.Select("summary").From("runs").OrderBy("started_at ASC")
	if !since.IsZero() {
		q = q.Where(sq.GtOrEq{"started_at": since.UTC().Format(time.RFC3339)})
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building query: %w", err)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("loading summaries: %w", err)
	}
	defer rows.Close()

	var out []types.RunSummary
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scanning summary: %w", err)
		}
		var summary types.RunSummary
		if err := json.Unmarshal([]byte(raw), &summary); err != nil {
			return nil, fmt.Errorf("decoding summary: %w", err)
		}
		out = append(out, summary)
	}
	return out, rows.Err()
}

// Export writes the full run history to w as "yaml" or "json".
func (s *Store) Export(w io.Writer, format string, since time.Time) error {
	summaries, err := s.summaries(since)
	if err != nil {
		return err
	}

	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(summaries)
	case "yaml", "":
		return yaml.NewEncoder(w).Encode(summaries)
	default:
		return fmt.Errorf("unknown export format %q: want yaml or json", format)
	}
}

// FormatRuns writes run rows as a human-readable table to w.
func FormatRuns(runs []RunRow, w io.Writer) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return
	}

	fmt.Fprintf(w, "%-36s  %-16s  %-7s  %7s  %7s  %7s  %6s\n",
		"Run ID", "Started", "Result", "Fetched", "Created", "Skipped", "Errors")

	for _, r := range runs {
		result := "ok"
		switch {
		case r.DryRun:
			result = "dry-run"
		case !r.Succeeded:
			result = "failed"
		}
		fmt.Fprintf(w, "%-36s  %-16s  %-7s  %7d  %7d  %7d  %6d\n",
			r.RunID,
			r.StartedAt.Format("2006-01-02 15:04"),
			result,
			r.Fetched, r.Created, r.Skipped, r.Errors)
	}

	fmt.Fprintf(w, "\n%d runs\n", len(runs))
}

// FormatItems writes item trail rows as a human-readable table to w.
func FormatItems(items []ItemRow, w io.Writer) {
	if len(items) == 0 {
		fmt.Fprintln(w, "No items recorded.")
		return
	}

	fmt.Fprintf(w, "%-24s  %-9s  %-7s  %s\n", "Topic", "Stage", "Status", "Title")
	for _, it := range items {
		fmt.Fprintf(w, "%-24s  %-9s  %-7s  %s\n", it.Topic, it.Stage, it.Status, it.Title)
		if it.Error != "" {
			fmt.Fprintf(w, "%26s%s\n", "", it.Error)
		}
	}
}
