package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/gridstitch/gridstitch/pkg/cache"
	"github.com/gridstitch/gridstitch/pkg/config"
)

// newCommandCache opens the cache backend configured for the dataset.
// With disabled set, caching is off regardless of configuration.
func newCommandCache(ctx context.Context, cfg config.Config, dir string, disabled bool) (cache.Cache, cache.Keyer, error) {
	if disabled {
		return cache.NewNullCache(), cache.NewDefaultKeyer(), nil
	}
	return cfg.OpenCache(ctx, dir)
}

// newCacheCmd creates the cache management command.
func newCacheCmd() *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the per-dataset offset cache",
	}
	cmd.PersistentFlags().StringVarP(&path, "path", "p", ".", "tile directory")

	cmd.AddCommand(newCacheClearCmd(&path))
	cmd.AddCommand(newCachePathCmd(&path))

	return cmd
}

// newCacheClearCmd creates the "cache clear" subcommand.
func newCacheClearCmd(path *string) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear cached offset estimates for a dataset",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*path)
			if err != nil {
				return err
			}
			dir := cfg.CacheDir(*path)

			if _, err := os.Stat(dir); os.IsNotExist(err) {
				printInfo("Cache is empty")
				return nil
			}

			count := 0
			err = filepath.Walk(dir, func(p string, info os.FileInfo, err error) error {
				if err != nil {
					return nil // Skip errors, continue walking
				}
				if p == dir {
					return nil
				}
				if !info.IsDir() {
					if err := os.Remove(p); err == nil {
						count++
					}
				}
				return nil
			})
			if err != nil {
				return err
			}

			// Clean up empty subdirectories
			_ = filepath.Walk(dir, func(p string, info os.FileInfo, err error) error {
				if err != nil || p == dir {
					return nil
				}
				if info.IsDir() {
					os.Remove(p)
				}
				return nil
			})

			printSuccess("Cleared %d cached entries", count)
			printDetail("Directory: %s", dir)
			return nil
		},
	}
}

// newCachePathCmd creates the "cache path" subcommand.
func newCachePathCmd(path *string) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache directory path",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*path)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			fmt.Println(cfg.CacheDir(*path))
			return nil
		},
	}
}
