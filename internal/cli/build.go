package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	sgerrors "github.com/openzoom/squaregrid/pkg/errors"
	"github.com/openzoom/squaregrid/pkg/observability"
	"github.com/openzoom/squaregrid/pkg/pipeline"
)

// buildFlags holds the command-line overrides of a build. Only flags the
// user set replace config file values.
type buildFlags struct {
	baseURL   string
	pagePath  string
	cacheDir  string
	outputDir string
	name      string
	workers   int
	tileSize  int
	format    string
	force     bool
	refresh   bool
	noCache   bool
}

func (f *buildFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.baseURL, "base-url", pipeline.DefaultBaseURL, "gallery site root")
	fs.StringVar(&f.pagePath, "page", pipeline.DefaultPagePath, "grid page path under the base URL")
	fs.StringVar(&f.cacheDir, "cache-dir", pipeline.DefaultCacheDir, "directory for the page, records, images and canvas")
	fs.StringVarP(&f.outputDir, "output", "o", pipeline.DefaultOutputDir, "directory for the descriptor and pyramid")
	fs.StringVar(&f.name, "name", pipeline.DefaultName, "base name of the canvas and pyramid")
	fs.IntVarP(&f.workers, "workers", "w", 0, "parallel downloads and tile encoders (default 8)")
	fs.IntVar(&f.tileSize, "tile-size", 0, "pyramid tile size in pixels (default 254)")
	fs.StringVar(&f.format, "format", "", "pyramid tile format: jpg or png (default jpg)")
	fs.BoolVarP(&f.force, "force", "f", false, "rebuild every artifact even if it exists")
	fs.BoolVar(&f.refresh, "refresh", false, "bypass the fetch cache for reads")
	fs.BoolVar(&f.noCache, "no-cache", false, "disable the fetch cache")
}

// apply copies the flags the user set onto opts.
func (f *buildFlags) apply(cmd *cobra.Command, opts *pipeline.Options) {
	fs := cmd.Flags()
	if fs.Changed("base-url") {
		opts.BaseURL = f.baseURL
	}
	if fs.Changed("page") {
		opts.PagePath = f.pagePath
	}
	if fs.Changed("cache-dir") {
		opts.CacheDir = f.cacheDir
	}
	if fs.Changed("output") {
		opts.OutputDir = f.outputDir
	}
	if fs.Changed("name") {
		opts.Name = f.name
	}
	if fs.Changed("workers") {
		opts.Workers = f.workers
	}
	if fs.Changed("tile-size") {
		opts.Pyramid.TileSize = f.tileSize
	}
	if fs.Changed("format") {
		opts.Pyramid.Format = f.format
	}
	opts.Force = f.force
	opts.Refresh = f.refresh
}

// buildCommand creates the build command.
func (c *CLI) buildCommand() *cobra.Command {
	var flags buildFlags

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Scrape the grid and build the descriptor, canvas and pyramid",
		Long: `Build runs the whole pipeline: fetch the grid page, extract the artwork
records, resolve their grid positions, download the images, write the grid
descriptor, stitch the canvas and slice it into a Deep Zoom pyramid.

Phases whose artifact already exists are skipped, so an interrupted build
resumes where it stopped. Use --force to rebuild everything.

Settings come from squaregrid.toml (or --config) and are overridden by flags.`,
		Example: `  # Build with defaults into ./allsquares
  squaregrid build

  # Rebuild from scratch with PNG tiles
  squaregrid build --force --format png`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := c.loadOptions()
			if err != nil {
				return err
			}
			flags.apply(cmd, &opts)
			return c.runBuild(cmd.Context(), opts, flags.noCache)
		},
	}

	flags.register(cmd)
	return cmd
}

func (c *CLI) runBuild(ctx context.Context, opts pipeline.Options, noCache bool) error {
	prog := newProgress(c.Logger)
	stopSpinner := func() {}
	if c.Verbose() {
		observability.NewLogHooks(c.Logger).Install()
		defer observability.Reset()
		opts.Logger = c.Logger
	} else {
		// The spinner owns the terminal line; only warnings get through.
		quiet := c.Logger.With()
		quiet.SetLevel(log.WarnLevel)
		opts.Logger = quiet

		spinner := newSpinnerWithContext(ctx, "Building")
		spinner.Start()
		stopSpinner = spinner.Stop
		defer spinner.Stop()
		opts.Progress = spinner.Phase
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return err
	}

	runner, fc, err := c.newRunner(ctx, opts, noCache)
	if err != nil {
		return err
	}
	defer fc.Close()

	result, err := runner.Execute(ctx, opts)
	stopSpinner()
	if err != nil {
		c.Logger.Debug("build failed", "code", sgerrors.GetCode(err), "err", err)
		return err
	}
	if c.Verbose() {
		prog.done(fmt.Sprintf("Built %d squares", result.Cells))
	}
	printBuildResult(result, prog.elapsed())
	return nil
}

func printBuildResult(r *pipeline.Result, took time.Duration) {
	printNewline()
	printSuccess("Built %s in %s", StyleTitle.Render(r.Artifacts.Manifest), took)
	if r.NumColumns > 0 {
		printGridStats(r.NumColumns, r.NumRows, r.Cells)
	}
	for _, p := range r.Phases {
		printPhase(p.Name, p.Skipped, p.Duration.Round(time.Millisecond).String())
	}
	if n := len(r.Download.Missing); n > 0 {
		printWarning("%d images were not found on the server", n)
	}
	printNewline()
	printFile(r.Artifacts.Descriptor)
	printFile(r.Artifacts.Manifest)
	printFile(r.Artifacts.Canvas)
	printNewline()
	printNextStep("Preview", fmt.Sprintf("%s serve %s", appName, filepath.Dir(r.Artifacts.Descriptor)))
}
