package cli

import (
	"context"
	"fmt"

	"github.com/existflow/irontime/internal/client"
	"github.com/spf13/cobra"
)

var pushCmd = &cobra.Command{
	Use:   "push",
	Short: "Upload activities queued while offline",
	RunE:  runPush,
}

func runPush(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	c, err := newClient()
	if err != nil {
		return err
	}
	if !c.IsLoggedIn() {
		return client.ErrNotLoggedIn
	}
	local, err := openLocal()
	if err != nil {
		return err
	}
	defer local.Close()

	pending, err := local.PendingCount(ctx)
	if err != nil {
		return err
	}
	if pending == 0 {
		fmt.Println("✓ Nothing to upload")
		return nil
	}

	up := client.NewUploader(c, local)
	crypto, err := notesCrypto(c)
	if err != nil {
		return err
	}
	if crypto != nil {
		up.WithCrypto(crypto)
	}

	fmt.Printf("🔄 Uploading %d queued activities...\n", pending)
	sent, err := up.Flush(ctx)
	if err != nil {
		return fmt.Errorf("uploaded %d before failing: %w", sent, err)
	}

	fmt.Printf("✅ Uploaded %d activities\n", sent)
	rejected, err := local.Rejected(ctx)
	if err != nil {
		return err
	}
	if len(rejected) > 0 {
		fmt.Printf("%d rejected entries kept in the local queue:\n", len(rejected))
		for _, p := range rejected {
			fmt.Printf("  #%d %s %dm: %s\n", p.ID, p.StartedAt.Local().Format("2006-01-02 15:04"), p.DurationMinutes, p.LastError)
		}
	}
	return nil
}
