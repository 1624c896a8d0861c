package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/existflow/irontime/internal/db"
	"github.com/existflow/irontime/internal/textlog"
	"github.com/existflow/irontime/internal/timer"
	"github.com/spf13/cobra"
)

var timerCmd = &cobra.Command{
	Use:   "timer",
	Short: "Time an activity as it happens",
	Long: `Run a stopwatch, or a countdown with --for, against a category.
Stopping the timer logs the elapsed whole minutes.

Examples:
  irontime timer start Deep Work
  irontime timer start Health/Running --for 30m
  irontime timer stop -n "intervals"`,
}

var timerStartCmd = &cobra.Command{
	Use:   "start [category]",
	Short: "Start a timer",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runTimerStart,
}

var timerPauseCmd = &cobra.Command{
	Use:   "pause",
	Short: "Pause the running timer",
	RunE:  runTimerPause,
}

var timerResumeCmd = &cobra.Command{
	Use:   "resume",
	Short: "Resume a paused timer",
	RunE:  runTimerResume,
}

var timerStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the timer and log the time",
	RunE:  runTimerStop,
}

var timerCancelCmd = &cobra.Command{
	Use:   "cancel",
	Short: "Discard the timer without logging",
	RunE:  runTimerCancel,
}

var timerStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current timer",
	RunE:  runTimerStatus,
}

var (
	timerFor   string
	timerNotes string
)

func init() {
	timerCmd.AddCommand(timerStartCmd)
	timerCmd.AddCommand(timerPauseCmd)
	timerCmd.AddCommand(timerResumeCmd)
	timerCmd.AddCommand(timerStopCmd)
	timerCmd.AddCommand(timerCancelCmd)
	timerCmd.AddCommand(timerStatusCmd)

	timerStartCmd.Flags().StringVar(&timerFor, "for", "", "Count down from a duration, e.g. 25m")
	timerStopCmd.Flags().StringVarP(&timerNotes, "notes", "n", "", "Notes for the activity")
}

func runTimerStart(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	local, err := openLocal()
	if err != nil {
		return err
	}
	defer local.Close()

	if current, err := local.LoadTimer(ctx); err == nil {
		return fmt.Errorf("%w: %s", timer.ErrRunning, current.CategoryPath)
	} else if !errors.Is(err, timer.ErrNoTimer) {
		return err
	}

	c, err := newClient()
	if err != nil {
		return err
	}
	tree, err := forest(ctx, c, local)
	if err != nil {
		return err
	}
	cat, path, ok := textlog.Resolve(tree, strings.Join(args, " "))
	if !ok {
		return fmt.Errorf("category not found: %s", strings.Join(args, " "))
	}

	var target time.Duration
	if timerFor != "" {
		minutes, err := textlog.ParseDuration(timerFor)
		if err != nil {
			return err
		}
		target = time.Duration(minutes) * time.Minute
	}

	t, err := timer.Start(cat.ID, path, target, time.Now())
	if err != nil {
		return err
	}
	if err := local.SaveTimer(ctx, t); err != nil {
		return err
	}

	if t.IsCountdown() {
		fmt.Printf("⏳ Counting down %s on %s\n", formatMinutes(int(target/time.Minute)), path)
	} else {
		fmt.Printf("⏱  Timing %s\n", path)
	}
	return nil
}

// withTimer loads the timer, applies fn and saves it back
func withTimer(fn func(*timer.Timer, time.Time) error) (*timer.Timer, error) {
	ctx := context.Background()
	local, err := openLocal()
	if err != nil {
		return nil, err
	}
	defer local.Close()

	t, err := local.LoadTimer(ctx)
	if err != nil {
		return nil, err
	}
	if err := fn(t, time.Now()); err != nil {
		return nil, err
	}
	return t, local.SaveTimer(ctx, t)
}

func runTimerPause(cmd *cobra.Command, args []string) error {
	t, err := withTimer((*timer.Timer).Pause)
	if err != nil {
		return err
	}
	fmt.Printf("⏸  Paused %s at %s\n", t.CategoryPath, clock(t.Elapsed(time.Now())))
	return nil
}

func runTimerResume(cmd *cobra.Command, args []string) error {
	t, err := withTimer((*timer.Timer).Resume)
	if err != nil {
		return err
	}
	fmt.Printf("▶  Resumed %s\n", t.CategoryPath)
	return nil
}

func runTimerStop(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	local, err := openLocal()
	if err != nil {
		return err
	}
	defer local.Close()

	t, err := local.LoadTimer(ctx)
	if err != nil {
		return err
	}
	if timerNotes != "" {
		t.Notes = timerNotes
	}
	activity, err := t.Stop(time.Now())
	if err != nil {
		if errors.Is(err, timer.ErrTooShort) {
			_ = local.ClearTimer(ctx)
		}
		return err
	}

	c, err := newClient()
	if err != nil {
		return err
	}
	queued, err := submit(ctx, c, local, activity)
	if err != nil {
		// Keep the timer so the stop can be retried
		return err
	}
	if err := local.ClearTimer(ctx); err != nil {
		return err
	}

	if queued {
		fmt.Printf("📦 Queued %s on %s\n", formatMinutes(activity.DurationMinutes), t.CategoryPath)
		return nil
	}
	fmt.Printf("✓ Logged %s on %s\n", formatMinutes(activity.DurationMinutes), t.CategoryPath)
	return nil
}

func runTimerCancel(cmd *cobra.Command, args []string) error {
	local, err := openLocal()
	if err != nil {
		return err
	}
	defer local.Close()

	if err := local.ClearTimer(context.Background()); err != nil {
		return err
	}
	fmt.Println("🗑  Timer discarded")
	return nil
}

func runTimerStatus(cmd *cobra.Command, args []string) error {
	local, err := openLocal()
	if err != nil {
		return err
	}
	defer local.Close()

	t, err := local.LoadTimer(context.Background())
	if errors.Is(err, timer.ErrNoTimer) {
		fmt.Println("No timer running.")
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Println(describeTimer(t, time.Now()))
	return nil
}

func describeTimer(t *timer.Timer, now time.Time) string {
	state := "⏱ "
	if !t.Running() {
		state = "⏸ "
	}
	if !t.IsCountdown() {
		return fmt.Sprintf("%s %s  %s", state, t.CategoryPath, clock(t.Elapsed(now)))
	}
	if t.Expired(now) {
		return fmt.Sprintf("⏰ %s  done (%s), run 'irontime timer stop'", t.CategoryPath, clock(t.Elapsed(now)))
	}
	return fmt.Sprintf("%s %s  %s left", state, t.CategoryPath, clock(t.Remaining(now)))
}

// clock formats d as H:MM:SS
func clock(d time.Duration) string {
	d = d.Truncate(time.Second)
	h := d / time.Hour
	m := (d % time.Hour) / time.Minute
	s := (d % time.Minute) / time.Second
	return fmt.Sprintf("%d:%02d:%02d", h, m, s)
}

var _ timer.Store = (*db.DB)(nil)
