package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/existflow/irontime/internal/events"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print changes to your data as they happen",
	RunE:  runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	c, err := newClient()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Println("👀 Watching for changes, Ctrl+C to stop")
	err = c.Watch(ctx, func(e events.Event) {
		line := fmt.Sprintf("%s  %s", e.At.Local().Format("15:04:05"), e.Type)
		if e.EntityID != "" {
			line += " " + e.EntityID
		}
		if e.Count > 0 {
			line += fmt.Sprintf(" (%d)", e.Count)
		}
		fmt.Println(line)
	})
	if ctx.Err() != nil {
		return nil
	}
	return err
}
