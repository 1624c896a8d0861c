package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the server-side cache",
}

var cacheGetCmd = &cobra.Command{
	Use:   "get [type] [key=value...]",
	Short: "Read categories, tree, activities, sleep or dashboard through the cache",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runCacheGet,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear [type]",
	Short: "Drop cached data, all of it when no type is given",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCacheClear,
}

func init() {
	cacheCmd.AddCommand(cacheGetCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}

func runCacheGet(cmd *cobra.Command, args []string) error {
	params := map[string]string{}
	for _, kv := range args[1:] {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			return fmt.Errorf("invalid parameter %q, expected key=value", kv)
		}
		params[k] = v
	}

	c, err := newClient()
	if err != nil {
		return err
	}
	res, err := c.Lookup(context.Background(), args[0], params)
	if err != nil {
		return err
	}

	state := "miss"
	if res.Cached {
		state = "hit"
	}
	fmt.Printf("# %s (%s)\n%s\n", res.CacheKey, state, res.Data)
	return nil
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	kind := "all"
	if len(args) == 1 {
		kind = args[0]
	}
	c, err := newClient()
	if err != nil {
		return err
	}
	if err := c.Invalidate(context.Background(), kind); err != nil {
		return err
	}
	fmt.Printf("✓ Cleared %s\n", kind)
	return nil
}
