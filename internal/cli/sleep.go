package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var sleepCmd = &cobra.Command{
	Use:   "sleep",
	Short: "Track sleep",
}

var sleepAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Record a night of sleep",
	Long: `Record a night of sleep. Times are HH:MM; a bed time later than the
wake time is taken to be on the previous evening.

Example:
  irontime sleep add --bed 23:15 --wake 07:00 --quality 4`,
	RunE: runSleepAdd,
}

var sleepListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "Show recent nights",
	RunE:    runSleepList,
}

var (
	sleepBed     string
	sleepWake    string
	sleepQuality int
	sleepNotes   string
	sleepDays    int
)

func init() {
	sleepCmd.AddCommand(sleepAddCmd)
	sleepCmd.AddCommand(sleepListCmd)

	sleepAddCmd.Flags().StringVar(&sleepBed, "bed", "", "Bed time HH:MM")
	sleepAddCmd.Flags().StringVar(&sleepWake, "wake", "", "Wake time HH:MM (default: now)")
	sleepAddCmd.Flags().IntVarP(&sleepQuality, "quality", "q", 0, "Quality from 1 to 5")
	sleepAddCmd.Flags().StringVarP(&sleepNotes, "notes", "n", "", "Notes")
	_ = sleepAddCmd.MarkFlagRequired("bed")

	sleepListCmd.Flags().IntVarP(&sleepDays, "days", "d", 14, "How many days back")
}

func runSleepAdd(cmd *cobra.Command, args []string) error {
	now := time.Now()
	wake := now
	if sleepWake != "" {
		var err error
		if wake, err = parseClock(sleepWake, now); err != nil {
			return err
		}
	}
	bed, err := parseClock(sleepBed, wake)
	if err != nil {
		return err
	}

	var quality *int
	if cmd.Flags().Changed("quality") {
		quality = &sleepQuality
	}

	c, err := newClient()
	if err != nil {
		return err
	}
	entry, err := c.LogSleep(context.Background(), bed, wake, quality, sleepNotes)
	if err != nil {
		return err
	}
	fmt.Printf("😴 Recorded %s of sleep\n", formatMinutes(entry.Minutes()))
	return nil
}

func runSleepList(cmd *cobra.Command, args []string) error {
	c, err := newClient()
	if err != nil {
		return err
	}
	entries, err := c.Sleep(context.Background(), sleepDays)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("No sleep recorded.")
		return nil
	}

	fmt.Println()
	for _, e := range entries {
		line := fmt.Sprintf("  %s  %s → %s  %s",
			e.WakeTime.Local().Format("Mon Jan 2"),
			e.BedTime.Local().Format("15:04"),
			e.WakeTime.Local().Format("15:04"),
			formatMinutes(e.Minutes()))
		if e.Quality != nil {
			line += fmt.Sprintf("  %d/5", *e.Quality)
		}
		if e.Notes != "" {
			line += "  " + e.Notes
		}
		fmt.Println(line)
	}
	fmt.Println()
	return nil
}
