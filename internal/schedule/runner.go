// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package schedule

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/pdiddy/learning-engine/pkg/types"
)

// alertThreshold is the consecutive-failure count that produces an alert
// line in the log. The daemon keeps running; the operator decides.
const alertThreshold = 3

// RunFunc executes one pipeline run.
type RunFunc func(ctx context.Context) error

// Runner fires RunFunc on a cron schedule. A trigger that lands while the
// previous run (or its retries) is still in progress is skipped, never
// queued.
type Runner struct {
	Schedule *Schedule
	Cfg      types.ScheduleConfig
	Run      RunFunc
	Log      io.Writer

	// mu serializes runs; failures is the consecutive-failure count and is
	// only touched while mu is held.
	mu       sync.Mutex
	failures int
}

func (r *Runner) log() io.Writer {
	if r.Log == nil {
		return io.Discard
	}
	return r.Log
}

// Start blocks, firing runs until the context ends. Each trigger runs in
// its own goroutine so a long run never delays the schedule clock.
func (r *Runner) Start(ctx context.Context) error {
	for {
		next := r.Schedule.Next(time.Now())
		if next.IsZero() {
			return fmt.Errorf("schedule has no upcoming trigger")
		}
		fmt.Fprintf(r.log(), "next trigger at %s\n", next.Format(time.RFC3339))

		if err := sleepUntil(ctx, next); err != nil {
			return err
		}

		if r.Cfg.WeekdaysOnly && isWeekend(next) {
			fmt.Fprintf(r.log(), "skipping weekend trigger at %s\n", next.Format(time.RFC3339))
			continue
		}

		go r.trigger(ctx, next)
	}
}

// trigger runs the pipeline for one schedule slot, or skips the slot when a
// previous run still holds the lock.
func (r *Runner) trigger(ctx context.Context, slot time.Time) {
	if !r.mu.TryLock() {
		fmt.Fprintf(r.log(), "previous run still in progress, skipping trigger at %s\n", slot.Format(time.RFC3339))
		return
	}
	defer r.mu.Unlock()
	r.execute(ctx, slot)
}

// execute runs once, retrying failures up to RetryAttempts times. Retries
// are abandoned once the next schedule slot would be reached; the fresh
// trigger supersedes them.
func (r *Runner) execute(ctx context.Context, slot time.Time) {
	deadline := r.Schedule.Next(slot)

	for attempt := 0; ; attempt++ {
		err := r.Run(ctx)
		if err == nil {
			r.failures = 0
			return
		}
		fmt.Fprintf(r.log(), "run failed (attempt %d): %v\n", attempt+1, err)

		if ctx.Err() != nil {
			return
		}
		if attempt >= r.Cfg.RetryAttempts {
			break
		}
		retryAt := time.Now().Add(r.Cfg.RetryDelay)
		if !deadline.IsZero() && retryAt.After(deadline) {
			fmt.Fprintf(r.log(), "abandoning retries: next trigger at %s comes first\n", deadline.Format(time.RFC3339))
			break
		}
		if err := sleepFor(ctx, r.Cfg.RetryDelay); err != nil {
			return
		}
	}

	r.failures++
	if r.failures >= alertThreshold {
		fmt.Fprintf(r.log(), "ALERT: %d consecutive runs have failed\n", r.failures)
	}
}

func isWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

func sleepUntil(ctx context.Context, t time.Time) error {
	return sleepFor(ctx, time.Until(t))
}

func sleepFor(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
