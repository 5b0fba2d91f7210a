package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/refgraph/refgraph/internal/config"
	"github.com/refgraph/refgraph/pkg/cache"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the response and model cache",
		Long: `Manage the local file cache of backend responses and render models.

A redis cache is shared with other processes and expires entries by TTL; it
cannot be managed from here.`,
	}
	cmd.AddCommand(
		c.fileCacheCommand("clear", "Remove every cached entry", func(fc *cache.FileCache) error {
			n, err := fc.Clear()
			if err != nil {
				return err
			}
			printSuccess("Cleared %d cached entries", n)
			printDetail("Directory: %s", fc.Dir())
			return nil
		}),
		c.fileCacheCommand("prune", "Remove expired entries", func(fc *cache.FileCache) error {
			n, err := fc.Prune()
			if err != nil {
				return err
			}
			printSuccess("Pruned %d expired entries", n)
			return nil
		}),
		c.fileCacheCommand("stats", "Show entry count and size", func(fc *cache.FileCache) error {
			n, size, err := fc.Stats()
			if err != nil {
				return err
			}
			printKeyValue("Directory", fc.Dir())
			printKeyValue("Entries", fmt.Sprint(n))
			printKeyValue("Size", formatBytes(size))
			return nil
		}),
		c.cachePathCommand(),
	)
	return cmd
}

// fileCacheDir returns the file cache directory, or "" when the file cache
// is not in use.
func (c *CLI) fileCacheDir() (string, error) {
	cfg, err := c.config()
	if err != nil {
		return "", err
	}
	if cfg.Cache.Backend != config.CacheFile {
		return "", nil
	}
	if cfg.Cache.Dir != "" {
		return cfg.Cache.Dir, nil
	}
	return config.CacheDir()
}

// fileCacheCommand builds a subcommand that runs fn on the file cache.
func (c *CLI) fileCacheCommand(use, short string, fn func(*cache.FileCache) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := c.fileCacheDir()
			if err != nil {
				return err
			}
			if dir == "" {
				printWarning("The file cache is not in use")
				return nil
			}
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				printInfo("Cache is empty")
				return nil
			}
			fc, err := cache.NewFileCache(dir)
			if err != nil {
				return err
			}
			return fn(fc)
		},
	}
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache directory path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := c.fileCacheDir()
			if err != nil {
				return err
			}
			if dir == "" {
				cfg, _ := c.config()
				printKeyValue("backend", cfg.Cache.Backend)
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), dir)
			return nil
		},
	}
}
