package cli

import (
	"context"
	"fmt"

	"github.com/existflow/irontime/internal/aggregate"
	"github.com/spf13/cobra"
)

var summaryCmd = &cobra.Command{
	Use:     "summary",
	Aliases: []string{"sum"},
	Short:   "Show time and goal progress per category",
	RunE:    runSummary,
}

var summaryDays int

func init() {
	summaryCmd.Flags().IntVarP(&summaryDays, "days", "d", 30, "History window in days (0 for all)")
}

func runSummary(cmd *cobra.Command, args []string) error {
	c, err := newClient()
	if err != nil {
		return err
	}
	view, err := c.Dashboard(context.Background(), summaryDays)
	if err != nil {
		return err
	}

	if len(view.Tree) == 0 {
		fmt.Println("No categories yet. Create some with: irontime category seed")
		return nil
	}

	fmt.Println()
	for _, root := range view.Tree {
		s := view.Summaries[root.ID]
		fmt.Printf("📁 %-20s total %s\n", root.Name, formatMinutes(s.TotalTime))
		printGoal("today", s.DailyTime, s.DailyGoal, s.DailyGoalProgress)
		printGoal("week", s.WeeklyTime, s.WeeklyGoal, s.WeeklyGoalProgress)
		for _, child := range root.Children {
			if m := s.SubcategoryTimes[child.ID]; m > 0 {
				fmt.Printf("   └─ %-17s %s\n", child.Name, formatMinutes(m))
			}
		}
	}

	printSleep(view.Sleep)
	fmt.Printf("\nWeek starts on %s\n", view.WeekStart)
	return nil
}

func printGoal(label string, minutes int, goal *int, pct *float64) {
	if goal == nil || pct == nil {
		fmt.Printf("   %-6s %s\n", label, formatMinutes(minutes))
		return
	}
	fmt.Printf("   %-6s %s %3.0f%%  %s / %s\n", label, bar(*pct, 20), *pct, formatMinutes(minutes), formatMinutes(*goal))
}

func printSleep(s aggregate.SleepSummary) {
	if s.Nights == 0 {
		return
	}
	fmt.Printf("\n😴 Sleep  last night %s, this week %s over %d nights (avg %s)\n",
		formatMinutes(s.LastNight), formatMinutes(s.WeeklyTotal), s.Nights, formatMinutes(int(s.WeeklyAverage)))
	if s.AvgQuality > 0 {
		fmt.Printf("   quality %.1f/5\n", s.AvgQuality)
	}
}
