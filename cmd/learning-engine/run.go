package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pdiddy/learning-engine/internal/pipeline"
)

var runCmd = &cobra.Command{
	Use:   "run [topics...]",
	Short: "Run the curation pipeline once across all topics",
	Long: `Run executes the full pipeline for every configured topic: discover
recent articles, filter out stale and duplicate candidates, summarize each
survivor into a learning item, and persist the items to Notion.

Failures are contained: a failed article is dropped, a failed topic is
skipped, and the remaining topics still run. The exit code is non-zero only
when the configuration is invalid.`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().Bool("dry-run", false, "summarize but do not write to Notion")
	runCmd.Flags().Int("max-items", 0, "override the per-topic candidate cap")
	runCmd.Flags().String("topics-file", "", "YAML file of topic definitions")

	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if maxItems, _ := cmd.Flags().GetInt("max-items"); maxItems > 0 {
		cfg.Fetch.MaxItems = maxItems
	}
	if len(args) > 0 {
		cfg.Topics = args
	}
	if topicsFile, _ := cmd.Flags().GetString("topics-file"); topicsFile != "" {
		cfg.Fetch.TopicsFile = topicsFile
	}
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	topics, feeds, err := resolveTopics(cfg)
	if err != nil {
		return err
	}

	runner, store := buildRunner(cfg, feeds, dryRun)
	if store != nil {
		defer store.Close()
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary, err := runner.Run(ctx, topics, os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "run interrupted: %v\n", err)
	}
	pipeline.WriteReport(os.Stdout, summary)
	return nil
}
