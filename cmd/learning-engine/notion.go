package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/pdiddy/learning-engine/internal/notion"
)

var notionCmd = &cobra.Command{
	Use:   "notion",
	Short: "Manage the Notion learning database",
	Long: `Notion manages the target database: setup creates it with the expected
schema, stats summarizes its contents, recent lists new entries, and
update-status moves an entry through the review workflow.`,
}

var notionSetupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Create the learning database under the configured parent page",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		client := notion.NewClient(cfg.Notion)
		id, err := client.EnsureDatabase(cmd.Context(), cfg.Notion.ParentPageID)
		if err != nil {
			return err
		}
		fmt.Printf("Database ready: %s\n", id)
		if cfg.Notion.DatabaseID == "" {
			fmt.Println("Store this ID in .secrets/notion-database-id or the config file.")
		}
		return nil
	},
}

var notionStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize database contents by topic and status",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		stats, err := notion.NewClient(cfg.Notion).Stats(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Printf("Total entries: %d\n", stats.Total)
		fmt.Println("\nBy topic:")
		printCounts(stats.ByTopic)
		fmt.Println("\nBy status:")
		printCounts(stats.ByStatus)
		return nil
	},
}

var notionRecentCmd = &cobra.Command{
	Use:   "recent",
	Short: "List entries added in the last days",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		days, _ := cmd.Flags().GetInt("days")

		entries, err := notion.NewClient(cfg.Notion).Recent(cmd.Context(), days)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Println("No recent entries.")
			return nil
		}

		fmt.Printf("%-36s  %-12s  %-8s  %s\n", "Page ID", "Added", "Status", "Title")
		for _, e := range entries {
			added := ""
			if !e.AddedAt.IsZero() {
				added = e.AddedAt.Format("2006-01-02")
			}
			fmt.Printf("%-36s  %-12s  %-8s  %s\n", e.PageID, added, e.Status, e.Title)
		}
		return nil
	},
}

var notionUpdateStatusCmd = &cobra.Command{
	Use:   "update-status <page-id> <status>",
	Short: "Set an entry's review status (New, Reviewed, Archived)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		if err := notion.NewClient(cfg.Notion).UpdateStatus(cmd.Context(), args[0], args[1]); err != nil {
			return err
		}
		fmt.Printf("Updated %s to %s\n", args[0], args[1])
		return nil
	},
}

func printCounts(counts map[string]int) {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Printf("  %-28s %d\n", k, counts[k])
	}
}

func init() {
	notionRecentCmd.Flags().Int("days", 7, "look-back window in days")

	notionCmd.AddCommand(notionSetupCmd)
	notionCmd.AddCommand(notionStatsCmd)
	notionCmd.AddCommand(notionRecentCmd)
	notionCmd.AddCommand(notionUpdateStatusCmd)
	rootCmd.AddCommand(notionCmd)
}
