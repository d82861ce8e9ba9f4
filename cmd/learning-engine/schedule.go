package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/learning-engine/internal/pipeline"
	"github.com/pdiddy/learning-engine/internal/schedule"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run the pipeline as a daemon on a cron schedule",
	Long: `Schedule blocks and fires a full pipeline run at every trigger of the
configured cron expression. A failed run is retried after the retry delay;
a trigger that lands while a run is still in progress is skipped. Stop the
daemon with SIGINT or SIGTERM.`,
	RunE: runSchedule,
}

var scheduleNextCmd = &cobra.Command{
	Use:   "next [n]",
	Short: "Print the next trigger times without starting the daemon",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runScheduleNext,
}

func init() {
	scheduleCmd.AddCommand(scheduleNextCmd)
	rootCmd.AddCommand(scheduleCmd)
}

func runSchedule(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	sched, err := schedule.Parse(cfg.Schedule.Cron)
	if err != nil {
		return err
	}

	topics, feeds, err := resolveTopics(cfg)
	if err != nil {
		return err
	}

	runner, store := buildRunner(cfg, feeds, false)
	if store != nil {
		defer store.Close()
	}

	daemon := &schedule.Runner{
		Schedule: sched,
		Cfg:      cfg.Schedule,
		Log:      os.Stderr,
		Run: func(ctx context.Context) error {
			summary, err := runner.Run(ctx, topics, os.Stdout)
			if err != nil {
				return err
			}
			pipeline.WriteReport(os.Stdout, summary)
			if !summary.Succeeded() {
				return fmt.Errorf("every topic aborted")
			}
			return nil
		},
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(os.Stderr, "scheduler started: %s\n", cfg.Schedule.Cron)
	if err := daemon.Start(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	fmt.Fprintln(os.Stderr, "scheduler stopped")
	return nil
}

func runScheduleNext(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	sched, err := schedule.Parse(cfg.Schedule.Cron)
	if err != nil {
		return err
	}

	n := 5
	if len(args) > 0 {
		n, err = strconv.Atoi(args[0])
		if err != nil || n <= 0 {
			return fmt.Errorf("invalid count %q", args[0])
		}
	}

	for _, t := range sched.Upcoming(time.Now(), n) {
		skipped := ""
		if cfg.Schedule.WeekdaysOnly && (t.Weekday() == time.Saturday || t.Weekday() == time.Sunday) {
			skipped = "  (skipped: weekend)"
		}
		fmt.Printf("%s%s\n", t.Format(time.RFC3339), skipped)
	}
	return nil
}
