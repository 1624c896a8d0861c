package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/existflow/irontime/internal/textlog"
	"github.com/spf13/cobra"
)

var logCmd = &cobra.Command{
	Use:   "log [duration] [category]",
	Short: "Log time against a category",
	Long: `Log time spent on a category. The duration can come first or last.

Examples:
  irontime log 45m Health/Running
  irontime log Deep Work 1h30m -n "design review"
  irontime log 1.5h reading --at 07:30`,
	Args: cobra.MinimumNArgs(2),
	RunE: runLog,
}

var (
	logNotes string
	logAt    string
)

func init() {
	logCmd.Flags().StringVarP(&logNotes, "notes", "n", "", "Notes for the activity")
	logCmd.Flags().StringVar(&logAt, "at", "", "Start time HH:MM (default: ends now)")
}

func runLog(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	c, err := newClient()
	if err != nil {
		return err
	}
	local, err := openLocal()
	if err != nil {
		return err
	}
	defer local.Close()

	tree, err := forest(ctx, c, local)
	if err != nil {
		return err
	}

	now := time.Now()
	res := textlog.Parse(strings.Join(args, " "), tree, now)
	if len(res.Errors) > 0 {
		return fmt.Errorf("%s", res.Errors[0].Reason)
	}
	if len(res.Entries) == 0 {
		return fmt.Errorf("nothing to log")
	}
	entry := res.Entries[0]

	if logAt != "" {
		at, err := parseClock(logAt, now)
		if err != nil {
			return err
		}
		entry.StartedAt = at
	}
	if logNotes != "" {
		entry.Notes = logNotes
	}

	queued, err := submit(ctx, c, local, entry.Activity())
	if err != nil {
		return err
	}
	if queued {
		fmt.Printf("📦 Queued %s on %s, run 'irontime push' when back online\n",
			formatMinutes(entry.DurationMinutes), entry.CategoryPath)
		return nil
	}
	fmt.Printf("✓ Logged %s on %s\n", formatMinutes(entry.DurationMinutes), entry.CategoryPath)
	return nil
}
