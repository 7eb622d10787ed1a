package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	"github.com/openzoom/squaregrid/pkg/cache"
	"github.com/openzoom/squaregrid/pkg/canvas"
	"github.com/openzoom/squaregrid/pkg/descriptor"
	sgerrors "github.com/openzoom/squaregrid/pkg/errors"
	"github.com/openzoom/squaregrid/pkg/fetch"
	"github.com/openzoom/squaregrid/pkg/grid"
	sgio "github.com/openzoom/squaregrid/pkg/io"
	"github.com/openzoom/squaregrid/pkg/observability"
	"github.com/openzoom/squaregrid/pkg/pyramid"
	"github.com/openzoom/squaregrid/pkg/scrape"
)

// Runner executes builds.
//
// The Runner holds no build state; several goroutines may call Execute
// with different options as long as their output directories differ.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	// PageFetcher and ImageFetcher default to an HTTP fetcher over Cache.
	PageFetcher  fetch.Fetcher
	ImageFetcher fetch.Fetcher

	// Engine defaults to canvas.NewDrawEngine().
	Engine canvas.Engine
}

// NewRunner creates a runner. A nil cache disables fetch caching; a nil
// keyer means cache.DefaultKeyer.
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// build carries the values phases hand to each other.
type build struct {
	opts    Options
	paths   Paths
	logger  *log.Logger
	page    []byte
	records []grid.Record
	grid    *grid.Grid
	canvas  image.Image
	result  *Result
}

type phase struct {
	name string
	// skipIf returns the artifact whose presence makes the phase redundant.
	skipIf func(b *build) string
	run    func(ctx context.Context, b *build) error
}

// Execute runs every phase of a build.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	runID := uuid.NewString()
	b := &build{
		opts:   opts,
		paths:  opts.Paths(),
		logger: opts.Logger.With("run", runID[:8]),
		result: &Result{RunID: runID},
	}
	b.result.Artifacts = b.paths

	pageFetcher, imageFetcher := r.fetchers(opts)
	phases := []phase{
		{PhaseFetchPage, func(b *build) string { return b.paths.Page }, func(ctx context.Context, b *build) error {
			return r.fetchPage(ctx, b, pageFetcher)
		}},
		{PhaseExtract, nil, r.extract},
		{PhaseResolve, nil, r.resolve},
		{PhaseFetchImages, func(b *build) string { return b.paths.Canvas }, func(ctx context.Context, b *build) error {
			return r.fetchImages(ctx, b, imageFetcher)
		}},
		{PhaseDescriptor, func(b *build) string { return b.paths.Descriptor }, r.writeDescriptor},
		{PhaseCanvas, func(b *build) string { return b.paths.Canvas }, r.composeCanvas},
		{PhasePyramid, func(b *build) string { return b.paths.Manifest }, r.emitPyramid},
	}

	b.logger.Info("build started", "base", opts.BaseURL, "cache", opts.CacheDir, "output", opts.OutputDir)
	for _, p := range phases {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := r.runPhase(ctx, b, p); err != nil {
			return nil, err
		}
	}
	b.logger.Info("build finished",
		"columns", b.result.NumColumns,
		"rows", b.result.NumRows,
		"squares", b.result.Cells,
		"skipped", len(b.result.Skipped()))
	return b.result, nil
}

func (r *Runner) runPhase(ctx context.Context, b *build, p phase) error {
	hooks := observability.Pipeline()
	if p.skipIf != nil && !b.opts.Force {
		if artifact := p.skipIf(b); exists(artifact) {
			b.logger.Info("skipping phase", "phase", p.name, "exists", artifact)
			hooks.OnPhaseSkipped(ctx, p.name, artifact)
			b.result.Phases = append(b.result.Phases, PhaseResult{Name: p.name, Skipped: true})
			return nil
		}
	}

	b.logger.Debug("phase start", "phase", p.name)
	hooks.OnPhaseStart(ctx, p.name)
	start := time.Now()
	err := p.run(ctx, b)
	d := time.Since(start)
	hooks.OnPhaseComplete(ctx, p.name, d, err)
	if err != nil {
		return sgerrors.InPhase(p.name, classify(err))
	}
	b.logger.Debug("phase done", "phase", p.name, "duration", d.Round(time.Millisecond))
	b.result.Phases = append(b.result.Phases, PhaseResult{Name: p.name, Duration: d})
	return nil
}

func (r *Runner) fetchers(opts Options) (page, images fetch.Fetcher) {
	page, images = r.PageFetcher, r.ImageFetcher
	if page != nil && images != nil {
		return page, images
	}
	keyer := r.Keyer
	if u, err := url.Parse(opts.BaseURL); err == nil && u.Host != "" {
		keyer = cache.NewScopedKeyer(r.Keyer, "site:"+u.Host+":")
	}
	hf := fetch.New(fetch.Options{Cache: r.Cache, Keyer: keyer, Refresh: opts.Refresh})
	if page == nil {
		page = hf
	}
	if images == nil {
		images = hf.Images()
	}
	return page, images
}

func (r *Runner) fetchPage(ctx context.Context, b *build, f fetch.Fetcher) error {
	pageURL, err := b.opts.PageURL()
	if err != nil {
		return sgerrors.Wrap(sgerrors.ErrCodeInvalidConfig, err, "page url")
	}
	body, err := f.Fetch(ctx, pageURL)
	if err != nil {
		return err
	}
	if err := sgio.WriteFileAtomic(b.paths.Page, func(w io.Writer) error {
		_, err := w.Write(body)
		return err
	}); err != nil {
		return err
	}
	b.page = body
	b.logger.Info("fetched grid page", "url", pageURL, "bytes", len(body))
	return nil
}

func (r *Runner) extract(_ context.Context, b *build) error {
	if b.page == nil {
		page, err := os.ReadFile(b.paths.Page)
		if err != nil {
			return err
		}
		b.page = page
	}
	html, applied := scrape.Cleanup(string(b.page), b.opts.Fixups)
	b.result.Fixups = applied
	if applied < len(b.opts.Fixups) {
		b.logger.Warn("some fixups did not match the page", "applied", applied, "configured", len(b.opts.Fixups))
	}

	records, stats, err := scrape.Extract(bytes.NewReader([]byte(html)), scrape.Options{
		BaseURL:   b.opts.BaseURL,
		Sentinels: b.opts.Sentinels,
	})
	if err != nil {
		return sgerrors.Wrap(sgerrors.ErrCodeInvalidInput, err, "extract records")
	}
	b.records = records
	b.result.Extract = stats

	pageURL, _ := b.opts.PageURL()
	if err := sgio.ExportJSON(pageURL, records, b.paths.Records); err != nil {
		return err
	}
	b.logger.Info("extracted records",
		"squares", stats.Squares,
		"records", stats.Extracted,
		"dropped", stats.Dropped,
		"fixups", applied)
	return nil
}

func (r *Runner) resolve(_ context.Context, b *build) error {
	g, err := grid.Resolve(b.records)
	if err != nil {
		return err
	}
	b.grid = g
	b.result.NumColumns = g.NumColumns
	b.result.NumRows = g.NumRows
	b.result.Cells = g.Len()
	b.logger.Info("resolved grid", "columns", g.NumColumns, "rows", g.NumRows, "squares", g.Len())
	return nil
}

// ImageURL returns the absolute URL of rec's full-size image.
func ImageURL(base string, rec grid.Record) (string, error) {
	return scrape.ResolveURL(base, rec.ImagePath)
}

func (r *Runner) fetchImages(ctx context.Context, b *build, f fetch.Fetcher) error {
	src := canvas.DirSource{Dir: b.paths.Images}
	cells := b.grid.Cells()
	jobs := make([]fetch.Job, 0, len(cells))
	for _, c := range cells {
		u, err := ImageURL(b.opts.BaseURL, *c.Record)
		if err != nil {
			return fmt.Errorf("image url of %q: %w", c.Record.ImagePath, err)
		}
		jobs = append(jobs, fetch.Job{URL: u, Path: src.Path(*c.Record)})
	}

	d := &fetch.Downloader{
		Fetcher:  f,
		Workers:  b.opts.Workers,
		Progress: b.progress(PhaseFetchImages),
	}
	res, err := d.Run(ctx, jobs)
	b.result.Download = res
	if err != nil {
		return err
	}
	if len(res.Missing) > 0 {
		b.logger.Warn("images not found on server", "count", len(res.Missing), "first", res.Missing[0])
	}
	b.logger.Info("fetched images", "downloaded", res.Fetched, "cached", res.Present, "missing", len(res.Missing))
	return nil
}

func (r *Runner) writeDescriptor(_ context.Context, b *build) error {
	if err := sgio.WriteFileAtomic(b.paths.Descriptor, func(w io.Writer) error {
		return descriptor.Write(w, b.grid, b.opts.Layout)
	}); err != nil {
		return err
	}
	b.logger.Info("wrote descriptor", "path", b.paths.Descriptor)
	return nil
}

func (r *Runner) composeCanvas(ctx context.Context, b *build) error {
	engine := r.Engine
	if engine == nil {
		engine = canvas.NewDrawEngine()
	}
	c := &canvas.Compositor{
		Layout:   b.opts.Layout,
		Source:   canvas.DirSource{Dir: b.paths.Images},
		Engine:   engine,
		Progress: b.progress(PhaseCanvas),
	}
	img, err := c.Compose(ctx, b.grid)
	if err != nil {
		return err
	}
	if err := canvas.Save(b.paths.Canvas, img, canvas.DefaultQuality); err != nil {
		return err
	}
	b.canvas = img
	bounds := img.Bounds()
	b.logger.Info("wrote canvas", "path", b.paths.Canvas, "width", bounds.Dx(), "height", bounds.Dy())
	return nil
}

func (r *Runner) emitPyramid(ctx context.Context, b *build) error {
	img := b.canvas
	if img == nil {
		loaded, err := imaging.Open(b.paths.Canvas)
		if err != nil {
			return fmt.Errorf("load canvas: %w", err)
		}
		img = loaded
	}
	e := &pyramid.Emitter{
		TileSize: b.opts.Pyramid.TileSize,
		Overlap:  b.opts.Pyramid.Overlap,
		Format:   b.opts.Pyramid.Format,
		Quality:  b.opts.Pyramid.Quality,
		Workers:  b.opts.Workers,
	}
	if b.opts.Progress != nil {
		e.Progress = func(level, maxLevel int) {
			b.opts.Progress(PhasePyramid, maxLevel-level+1, maxLevel+1)
		}
	}
	m, err := e.Create(ctx, img, b.opts.OutputDir, b.opts.Name)
	if err != nil {
		return err
	}
	b.result.Manifest = m
	b.logger.Info("wrote pyramid", "path", b.paths.Manifest, "levels", m.MaxLevel()+1)
	return nil
}

func (b *build) progress(phase string) func(done, total int) {
	if b.opts.Progress == nil {
		return nil
	}
	return func(done, total int) { b.opts.Progress(phase, done, total) }
}

// classify attaches error codes to the sentinel errors of the domain
// packages. Errors that already carry a code pass through.
func classify(err error) error {
	if sgerrors.GetCode(err) != "" {
		return err
	}
	var rl *sgerrors.RateLimitedError
	switch {
	case errors.Is(err, grid.ErrMalformedColumnKey):
		return sgerrors.Wrap(sgerrors.ErrCodeMalformedColumnKey, err, "resolve grid")
	case errors.Is(err, grid.ErrDuplicateCell):
		return sgerrors.Wrap(sgerrors.ErrCodeDuplicateCell, err, "resolve grid")
	case errors.Is(err, canvas.ErrMissingImage):
		return sgerrors.Wrap(sgerrors.ErrCodeMissingImage, err, "compose canvas")
	case errors.As(err, &rl):
		return sgerrors.Wrap(sgerrors.ErrCodeRateLimited, err, "fetch")
	case errors.Is(err, fetch.ErrNotFound):
		return sgerrors.Wrap(sgerrors.ErrCodeNotFound, err, "fetch")
	case errors.Is(err, fetch.ErrNetwork):
		return sgerrors.Wrap(sgerrors.ErrCodeNetwork, err, "fetch")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	default:
		return sgerrors.Wrap(sgerrors.ErrCodeInternal, err, "unexpected failure")
	}
}

func exists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(filepath.Clean(path))
	return err == nil
}
