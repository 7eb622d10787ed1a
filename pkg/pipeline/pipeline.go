// Package pipeline builds a zoomable gallery from the grid page.
//
// A build runs these phases in order:
//
//  1. fetch-page: download the grid page into the work cache
//  2. extract: apply text fixups and extract artwork records
//  3. resolve: place every record on the column/row grid
//  4. fetch-images: download the full-size artwork images
//  5. descriptor: write the dense XML grid descriptor
//  6. canvas: composite all squares into one large image
//  7. pyramid: slice the canvas into a Deep Zoom tile pyramid
//
// Phases that produce a file are skipped when that file already exists,
// unless [Options.Force] is set. Deleting an artifact re-runs its phase on
// the next build. A failure is reported as an [errors.PhaseError] naming
// the phase.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts, err := pipeline.LoadConfig("squaregrid.toml")
//	result, err := runner.Execute(ctx, opts)
//	fmt.Println(result.NumColumns, result.NumRows, result.Artifacts.Manifest)
package pipeline

import (
	"io"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	sgerrors "github.com/openzoom/squaregrid/pkg/errors"
	"github.com/openzoom/squaregrid/pkg/fetch"
	"github.com/openzoom/squaregrid/pkg/grid"
	"github.com/openzoom/squaregrid/pkg/pyramid"
	"github.com/openzoom/squaregrid/pkg/scrape"
)

// Defaults for a build of the Imagination Squared gallery.
const (
	DefaultBaseURL        = "http://imaginationsquared.com"
	DefaultPagePath       = "/grid.html"
	DefaultCacheDir       = "cache"
	DefaultOutputDir      = "allsquares"
	DefaultName           = "allsquares"
	DefaultDescriptorName = "squaresdescriptor.xml"
)

// Phase names.
const (
	PhaseFetchPage   = "fetch-page"
	PhaseExtract     = "extract"
	PhaseResolve     = "resolve"
	PhaseFetchImages = "fetch-images"
	PhaseDescriptor  = "descriptor"
	PhaseCanvas      = "canvas"
	PhasePyramid     = "pyramid"
)

// Phases lists the phase names in execution order.
var Phases = []string{
	PhaseFetchPage,
	PhaseExtract,
	PhaseResolve,
	PhaseFetchImages,
	PhaseDescriptor,
	PhaseCanvas,
	PhasePyramid,
}

// PyramidOptions configures the Deep Zoom output.
type PyramidOptions struct {
	TileSize int    `toml:"tile_size"`
	Overlap  int    `toml:"overlap"`
	Format   string `toml:"format"`
	Quality  int    `toml:"quality"`
}

// Options configures a build. The toml tags define the config file format.
type Options struct {
	BaseURL   string `toml:"base_url"`
	PagePath  string `toml:"page_path"`
	CacheDir  string `toml:"cache_dir"`
	OutputDir string `toml:"output_dir"`
	Name      string `toml:"name"` // base name of the canvas and pyramid

	Layout    grid.Layout    `toml:"layout"`
	Sentinels []string       `toml:"sentinels"`
	Fixups    []scrape.Fixup `toml:"fixups"`
	Pyramid   PyramidOptions `toml:"pyramid"`

	Workers  int    `toml:"workers"`   // parallel image downloads
	RedisURL string `toml:"redis_url"` // shared fetch cache; empty uses the file cache

	// Runtime options (not read from the config file)
	Force    bool                                  `toml:"-"`
	Refresh  bool                                  `toml:"-"`
	Logger   *log.Logger                           `toml:"-"`
	Progress func(phase string, done, total int) `toml:"-"`

	validated bool
}

// DefaultOptions returns the options of a plain `squaregrid build`.
func DefaultOptions() Options {
	var o Options
	_ = o.ValidateAndSetDefaults()
	o.validated = false
	o.Logger = nil
	return o
}

// ValidateAndSetDefaults fills zero fields with defaults and validates the
// result. It is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.BaseURL == "" {
		o.BaseURL = DefaultBaseURL
	}
	if o.PagePath == "" {
		o.PagePath = DefaultPagePath
	}
	if o.CacheDir == "" {
		o.CacheDir = DefaultCacheDir
	}
	if o.OutputDir == "" {
		o.OutputDir = DefaultOutputDir
	}
	if o.Name == "" {
		o.Name = DefaultName
	}
	def := grid.DefaultLayout()
	if o.Layout == (grid.Layout{}) {
		o.Layout = def
	}
	if o.Layout.SquareWidth == 0 {
		o.Layout.SquareWidth = def.SquareWidth
	}
	if o.Layout.SquareHeight == 0 {
		o.Layout.SquareHeight = def.SquareHeight
	}
	if o.Sentinels == nil {
		o.Sentinels = append([]string(nil), scrape.DefaultSentinels...)
	}
	if o.Fixups == nil {
		o.Fixups = append([]scrape.Fixup(nil), scrape.DefaultFixups...)
	}
	if o.Pyramid == (PyramidOptions{}) {
		o.Pyramid.Overlap = pyramid.DefaultOverlap
	}
	if o.Pyramid.TileSize == 0 {
		o.Pyramid.TileSize = pyramid.DefaultTileSize
	}
	if o.Pyramid.Format == "" {
		o.Pyramid.Format = pyramid.DefaultFormat
	}
	if o.Pyramid.Quality == 0 {
		o.Pyramid.Quality = pyramid.DefaultQuality
	}
	if o.Workers <= 0 {
		o.Workers = fetch.DefaultWorkers
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}

	if err := sgerrors.ValidateURL(o.BaseURL); err != nil {
		return err
	}
	if err := sgerrors.ValidatePagePath(o.PagePath); err != nil {
		return err
	}
	if err := sgerrors.ValidateName(o.Name); err != nil {
		return err
	}
	if err := o.Layout.Validate(); err != nil {
		return sgerrors.Wrap(sgerrors.ErrCodeInvalidConfig, err, "layout")
	}
	if o.Pyramid.TileSize < 0 || o.Pyramid.Overlap < 0 || o.Pyramid.Overlap >= o.Pyramid.TileSize {
		return sgerrors.New(sgerrors.ErrCodeInvalidConfig,
			"pyramid: invalid tile size %d / overlap %d", o.Pyramid.TileSize, o.Pyramid.Overlap)
	}
	if o.Pyramid.Format != "jpg" && o.Pyramid.Format != "png" {
		return sgerrors.New(sgerrors.ErrCodeInvalidConfig, "pyramid: format must be jpg or png, got %q", o.Pyramid.Format)
	}
	if o.Pyramid.Quality < 1 || o.Pyramid.Quality > 100 {
		return sgerrors.New(sgerrors.ErrCodeInvalidConfig, "pyramid: quality must be in 1..100, got %d", o.Pyramid.Quality)
	}
	o.validated = true
	return nil
}

// PageURL returns the absolute URL of the grid page.
func (o *Options) PageURL() (string, error) {
	return scrape.ResolveURL(o.BaseURL, trimLeadingSlash(o.PagePath))
}

func trimLeadingSlash(p string) string {
	for len(p) > 0 && p[0] == '/' {
		p = p[1:]
	}
	return p
}

// Paths are the files a build reads and writes.
type Paths struct {
	Page       string // cached grid page
	Records    string // extracted records, JSON
	Images     string // directory of downloaded artwork
	Canvas     string // composited image
	Descriptor string
	Manifest   string // .dzi
	Tiles      string // pyramid tile directory
}

// Paths returns the artifact locations for o.
func (o *Options) Paths() Paths {
	manifest, tiles := pyramid.Paths(o.OutputDir, o.Name)
	return Paths{
		Page:       filepath.Join(o.CacheDir, "grid.html"),
		Records:    filepath.Join(o.CacheDir, "records.json"),
		Images:     filepath.Join(o.CacheDir, "images"),
		Canvas:     filepath.Join(o.CacheDir, o.Name+".jpg"),
		Descriptor: filepath.Join(o.OutputDir, DefaultDescriptorName),
		Manifest:   manifest,
		Tiles:      tiles,
	}
}

// Result describes a finished build.
type Result struct {
	RunID string

	NumColumns int
	NumRows    int
	Cells      int // populated cells
	Extract    scrape.Stats
	Fixups     int // fixups that matched the page
	Download   fetch.Download

	Phases    []PhaseResult
	Artifacts Paths
	Manifest  *pyramid.Manifest // nil when the pyramid phase was skipped
}

// PhaseResult records one phase of a build.
type PhaseResult struct {
	Name     string
	Skipped  bool
	Duration time.Duration
}

// Skipped returns the names of the phases that were skipped.
func (r *Result) Skipped() []string {
	var out []string
	for _, p := range r.Phases {
		if p.Skipped {
			out = append(out, p.Name)
		}
	}
	return out
}
