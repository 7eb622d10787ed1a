package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/openzoom/squaregrid/pkg/cache"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the fetch cache of pages and images",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached response",
		Long: `Clear empties the fetch cache: the redis keys of this tool when the
config sets redis_url, otherwise the cache directory. Build artifacts in
the build cache directory are not touched; delete them or use
"build --force" to rebuild.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := c.loadOptions()
			if err != nil {
				return err
			}

			if opts.RedisURL != "" {
				rc, err := cache.NewRedisCache(cmd.Context(), opts.RedisURL, redisPrefix)
				if err != nil {
					return fmt.Errorf("connect fetch cache: %w", err)
				}
				defer rc.Close()
				if err := rc.Clear(cmd.Context()); err != nil {
					return err
				}
				printSuccess("Cleared redis fetch cache")
				return nil
			}

			dir, err := cacheDir()
			if err != nil {
				return fmt.Errorf("get cache dir: %w", err)
			}
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				printInfo("Cache is empty")
				return nil
			}
			fc, err := cache.NewFileCache(dir)
			if err != nil {
				return err
			}
			if err := fc.Clear(); err != nil {
				return err
			}
			printSuccess("Cleared fetch cache")
			printDetail("Directory: %s", dir)
			return nil
		},
	}
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache directory path",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := cacheDir()
			if err != nil {
				return fmt.Errorf("get cache dir: %w", err)
			}
			fmt.Fprintln(stdout, dir)
			return nil
		},
	}
}
