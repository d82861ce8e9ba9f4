// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/learning-engine/internal/ledger"
	"github.com/pdiddy/learning-engine/internal/pipeline"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect past runs recorded in the local ledger",
	Long: `History reads the local SQLite ledger. list shows recent runs, show
prints the full record of one run, failures lists articles that failed, and
export writes the whole history as YAML or JSON.`,
}

func openLedger() (*ledger.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return ledger.Open(cfg.Ledger)
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent runs, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openLedger()
		if err != nil {
			return err
		}
		defer store.Close()

		limit, _ := cmd.Flags().GetInt("limit")
		days, _ := cmd.Flags().GetInt("days")
		var since time.Time
		if days > 0 {
			since = time.Now().AddDate(0, 0, -days)
		}

		runs, err := store.ListRuns(limit, since)
		if err != nil {
			return err
		}
		ledger.FormatRuns(runs, os.Stdout)
		return nil
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Print the full record of one run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openLedger()
		if err != nil {
			return err
		}
		defer store.Close()

		summary, err := store.GetRun(args[0])
		if err != nil {
			return err
		}
		if summary == nil {
			return fmt.Errorf("run %s not found", args[0])
		}

		pipeline.WriteReport(os.Stdout, summary)

		items, err := store.RunItems(args[0])
		if err != nil {
			return err
		}
		fmt.Println()
		ledger.FormatItems(items, os.Stdout)
		return nil
	},
}

var historyFailuresCmd = &cobra.Command{
	Use:   "failures",
	Short: "List recently failed articles across all runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openLedger()
		if err != nil {
			return err
		}
		defer store.Close()

		limit, _ := cmd.Flags().GetInt("limit")
		items, err := store.Failures(limit)
		if err != nil {
			return err
		}
		ledger.FormatItems(items, os.Stdout)
		return nil
	},
}

var historyExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the run history as YAML or JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openLedger()
		if err != nil {
			return err
		}
		defer store.Close()

		format, _ := cmd.Flags().GetString("format")
		days, _ := cmd.Flags().GetInt("days")
		var since time.Time
		if days > 0 {
			since = time.Now().AddDate(0, 0, -days)
		}

		return store.Export(os.Stdout, format, since)
	},
}

func init() {
	historyListCmd.Flags().Int("limit", 20, "maximum runs to list")
	historyListCmd.Flags().Int("days", 0, "only runs from the last N days")
	historyFailuresCmd.Flags().Int("limit", 20, "maximum failures to list")
	historyExportCmd.Flags().String("format", "yaml", "export format: yaml or json")
	historyExportCmd.Flags().Int("days", 0, "only runs from the last N days")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyFailuresCmd)
	historyCmd.AddCommand(historyExportCmd)
	rootCmd.AddCommand(historyCmd)
}
