package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/learning-engine/internal/fetch"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch [topic]",
	Short: "Preview article discovery without summarizing or persisting",
	Long: `Fetch runs only the discovery and filter stages and prints the
candidates that would enter the pipeline. With a topic argument it queries
that topic; without one it walks the configured topic list.`,
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().Bool("json", false, "output candidates as JSON")

	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	topics, feeds, err := resolveTopics(cfg)
	if err != nil {
		return err
	}
	if len(args) > 0 {
		topics = args[:1]
	}

	adapter := buildFetcher(cfg, feeds)
	jsonOutput, _ := cmd.Flags().GetBool("json")

	for _, topic := range topics {
		if !jsonOutput {
			fmt.Printf("\nTopic: %s\n", topic)
		}
		candidates, err := adapter.Fetch(cmd.Context(), topic)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			continue
		}

		if jsonOutput {
			if err := fetch.FormatJSON(candidates, os.Stdout); err != nil {
				return err
			}
			continue
		}
		fetch.FormatTable(candidates, os.Stdout)
	}
	return nil
}
