package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/existflow/irontime/internal/category"
	"github.com/existflow/irontime/internal/client"
	"github.com/existflow/irontime/internal/config"
	"github.com/existflow/irontime/internal/db"
	"github.com/existflow/irontime/internal/logger"
	"github.com/existflow/irontime/internal/model"
	"golang.org/x/term"
)

func cfg() *config.Config {
	if appConfig == nil {
		appConfig = config.DefaultConfig()
	}
	return appConfig
}

func newClient() (*client.Client, error) {
	return client.NewFromConfig(cfg())
}

func openLocal() (*db.DB, error) {
	local, err := db.OpenDefault()
	if err != nil {
		return nil, fmt.Errorf("failed to open local database: %w", err)
	}
	return local, nil
}

// forest returns the category tree from the server, refreshing the local
// snapshot, or the snapshot when the server is unreachable.
func forest(ctx context.Context, c *client.Client, local *db.DB) ([]category.Node, error) {
	cats, err := c.Categories(ctx)
	if err == nil {
		if err := local.SaveCategories(ctx, c.Session().UserID, cats); err != nil {
			logger.Warn("Failed to save category snapshot", logger.F("error", err))
		}
		return category.Build(cats), nil
	}
	if !offline(err) {
		return nil, err
	}

	cached, cerr := local.Categories(ctx, c.Session().UserID)
	if cerr != nil || len(cached) == 0 {
		return nil, err
	}
	fmt.Println("⚠️  Server unreachable, using cached categories")
	return category.Build(cached), nil
}

// offline reports a transport failure rather than a server answer
func offline(err error) bool {
	if err == nil || errors.Is(err, client.ErrNotLoggedIn) {
		return false
	}
	var apiErr *client.APIError
	return !errors.As(err, &apiErr)
}

// notesCrypto returns the notes cipher when encryption is enabled
func notesCrypto(c *client.Client) (*client.Crypto, error) {
	if !cfg().EncryptNotes {
		return nil, nil
	}
	pass := os.Getenv("IRONTIME_PASSPHRASE")
	if pass == "" {
		var err error
		pass, err = promptSecret("Notes passphrase: ")
		if err != nil {
			return nil, err
		}
	}
	if pass == "" {
		return nil, fmt.Errorf("a passphrase is required when encrypt_notes is on")
	}
	return c.Crypto(pass)
}

// submit logs an activity, queueing it locally when the server is unreachable
func submit(ctx context.Context, c *client.Client, local *db.DB, a model.Activity) (queued bool, err error) {
	crypto, err := notesCrypto(c)
	if err != nil {
		return false, err
	}
	req := client.FromActivity(a)
	if crypto != nil {
		if req.Notes, err = crypto.EncryptNotes(req.Notes); err != nil {
			return false, err
		}
	}

	_, err = c.LogActivity(ctx, req)
	if err == nil {
		return false, nil
	}
	if !offline(err) {
		return false, err
	}

	// Queued notes stay plain; the uploader seals them
	if _, qerr := local.Enqueue(ctx, a); qerr != nil {
		return false, fmt.Errorf("failed to queue activity: %w (upload error: %v)", qerr, err)
	}
	logger.Info("Activity queued for upload", logger.F("error", err))
	return true, nil
}

func prompt(label string) string {
	fmt.Print(label)
	reader := bufio.NewReader(os.Stdin)
	line, _ := reader.ReadString('\n')
	return strings.TrimSpace(line)
}

func promptSecret(label string) (string, error) {
	fmt.Print(label)
	secret, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", err
	}
	return string(secret), nil
}

func confirm(question string) bool {
	if !cfg().ConfirmDelete {
		return true
	}
	answer := strings.ToLower(prompt(question + " [y/N]: "))
	return answer == "y" || answer == "yes"
}

// parseClock reads HH:MM on the day of ref. A time later than ref is
// taken to mean the previous day.
func parseClock(s string, ref time.Time) (time.Time, error) {
	t, err := time.ParseInLocation("15:04", s, ref.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q, expected HH:MM", s)
	}
	at := time.Date(ref.Year(), ref.Month(), ref.Day(), t.Hour(), t.Minute(), 0, 0, ref.Location())
	if at.After(ref) {
		at = at.AddDate(0, 0, -1)
	}
	return at, nil
}

// bar renders pct in [0, 100] as a text progress bar
func bar(pct float64, width int) string {
	filled := int(pct / 100 * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func formatMinutes(m int) string {
	if m < 60 {
		return fmt.Sprintf("%dm", m)
	}
	if m%60 == 0 {
		return fmt.Sprintf("%dh", m/60)
	}
	return fmt.Sprintf("%dh%02dm", m/60, m%60)
}
