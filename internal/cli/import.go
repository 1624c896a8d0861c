package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Log many activities from a text file",
	Long: `Import a free-text log, one activity per line. Use - to read stdin.

  # morning
  07:30 45m Health/Running - easy pace
  Deep Work 1h30m

Lines are parsed against your categories on the server. With --dry-run
nothing is stored.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

var importDryRun bool

func init() {
	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "Only show what would be logged")
}

func runImport(cmd *cobra.Command, args []string) error {
	var text []byte
	var err error
	if args[0] == "-" {
		text, err = io.ReadAll(os.Stdin)
	} else {
		text, err = os.ReadFile(args[0])
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", args[0], err)
	}

	c, err := newClient()
	if err != nil {
		return err
	}
	res, err := c.ParseText(context.Background(), string(text), !importDryRun)
	if err != nil {
		return err
	}

	for _, e := range res.Entries {
		fmt.Printf("  %s  %-6s %s", e.StartedAt.Local().Format("Mon 15:04"), formatMinutes(e.DurationMinutes), e.CategoryPath)
		if e.Notes != "" {
			fmt.Printf(" - %s", e.Notes)
		}
		fmt.Println()
	}
	for _, e := range res.Errors {
		fmt.Printf("  ✗ line %d: %s (%s)\n", e.Line, e.Reason, e.Text)
	}

	if importDryRun {
		fmt.Printf("\n%d entries parsed, %d lines rejected (dry run)\n", len(res.Entries), len(res.Errors))
		return nil
	}
	fmt.Printf("\n✓ Logged %d activities, %d lines rejected\n", len(res.Created), len(res.Errors))
	return nil
}
