// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"fmt"
	"io"
	"time"

	"github.com/pdiddy/learning-engine/pkg/types"
)

// WriteReport prints the closing report for one run: a line per topic and
// the cross-topic totals.
func WriteReport(w io.Writer, summary *types.RunSummary) {
	fmt.Fprintf(w, "\nrun %s finished in %s\n", summary.RunID,
		summary.FinishedAt.Sub(summary.StartedAt).Round(10*time.Millisecond))

	for _, t := range summary.Topics {
		if t.Aborted {
			fmt.Fprintf(w, "  %-28s aborted (fetch failed)\n", t.Topic)
			continue
		}
		fmt.Fprintf(w, "  %-28s fetched %d, kept %d, summarized %d, created %d, skipped %d\n",
			t.Topic, t.Fetched, t.Filtered, t.Summarized, t.Persisted, t.Skipped)
	}

	totals := summary.Totals()
	if summary.DryRun {
		fmt.Fprintf(w, "totals: %d summarized (dry run, nothing persisted)", totals.Summarized)
	} else {
		fmt.Fprintf(w, "totals: %d created, %d skipped", totals.Persisted, totals.Skipped)
	}
	if n := summary.TotalErrors(); n > 0 {
		fmt.Fprintf(w, ", %d errors", n)
	}
	fmt.Fprintln(w)
}
