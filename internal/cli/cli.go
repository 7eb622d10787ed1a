// Package cli implements the squaregrid command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/openzoom/squaregrid/pkg/buildinfo"
	"github.com/openzoom/squaregrid/pkg/cache"
	"github.com/openzoom/squaregrid/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "squaregrid"

	// redisPrefix namespaces the fetch cache in a shared redis.
	redisPrefix = appName + ":"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// configPath is set by the persistent --config flag. Empty means the
	// optional squaregrid.toml of the working directory.
	configPath string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// Verbose reports whether debug logging is enabled.
func (c *CLI) Verbose() bool {
	return c.Logger.GetLevel() <= log.DebugLevel
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Squaregrid turns an artwork grid page into a zoomable image",
		Long:         `Squaregrid scrapes a gallery grid page, places every artwork square in its column and row, stitches the squares into one canvas and slices it into a Deep Zoom pyramid with a grid descriptor for the viewer.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "config file (default ./"+pipeline.DefaultConfigFile+" if present)")

	root.AddCommand(c.buildCommand())
	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Configuration
// =============================================================================

// loadOptions reads the config file. An explicit --config must exist; the
// default file is optional.
func (c *CLI) loadOptions() (pipeline.Options, error) {
	if c.configPath != "" {
		opts, err := pipeline.LoadConfig(c.configPath)
		if err != nil {
			return pipeline.Options{}, err
		}
		c.Logger.Debug("loaded config", "path", c.configPath)
		return opts, nil
	}
	opts, found, err := pipeline.LoadConfigIfExists(pipeline.DefaultConfigFile)
	if err != nil {
		return pipeline.Options{}, err
	}
	if found {
		c.Logger.Debug("loaded config", "path", pipeline.DefaultConfigFile)
	}
	return opts, nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use. The returned cache must
// be closed by the caller.
func (c *CLI) newRunner(ctx context.Context, opts pipeline.Options, noCache bool) (*pipeline.Runner, cache.Cache, error) {
	fc, err := c.newCache(ctx, opts, noCache)
	if err != nil {
		return nil, nil, err
	}
	return pipeline.NewRunner(fc, nil, c.Logger), fc, nil
}

// newCache picks the fetch cache: none with --no-cache, redis when the
// config names one, otherwise files under the user cache directory.
func (c *CLI) newCache(ctx context.Context, opts pipeline.Options, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	if opts.RedisURL != "" {
		rc, err := cache.NewRedisCache(ctx, opts.RedisURL, redisPrefix)
		if err != nil {
			return nil, fmt.Errorf("connect fetch cache: %w", err)
		}
		c.Logger.Debug("using redis fetch cache")
		return rc, nil
	}
	dir, err := cacheDir()
	if err != nil {
		c.Logger.Warn("no user cache directory, fetch cache disabled", "err", err)
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the fetch cache directory using XDG standard
// (~/.cache/squaregrid/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
