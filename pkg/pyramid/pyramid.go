// Package pyramid slices a large image into a Deep Zoom tile pyramid.
//
// The output is the layout Deep Zoom viewers expect:
//
//	<name>.dzi              manifest (tile size, overlap, format, full size)
//	<name>_files/<level>/<column>_<row>.<format>
//
// Level maxLevel holds the image at full size, where maxLevel is
// ceil(log2(max(width, height))). Each lower level halves the previous one
// (rounding up) down to a single pixel at level 0. Tiles are TileSize
// pixels square plus Overlap pixels shared with each neighbour.
//
// The tile directory is built under a temporary name and renamed into place
// before the manifest is written, so an interrupted run leaves no manifest
// pointing at a partial pyramid.
package pyramid

import (
	"context"
	"encoding/xml"
	"fmt"
	"image"
	"io"
	"math"
	"os"
	"path/filepath"
	"sync"

	"github.com/disintegration/imaging"

	sgio "github.com/openzoom/squaregrid/pkg/io"
)

// Deep Zoom defaults.
const (
	DefaultTileSize = 254
	DefaultOverlap  = 1
	DefaultFormat   = "jpg"
	DefaultQuality  = 90
	DefaultWorkers  = 4

	// Namespace is the XML namespace of a .dzi manifest.
	Namespace = "http://schemas.microsoft.com/deepzoom/2008"
)

// Manifest is the content of a .dzi file.
type Manifest struct {
	XMLName  xml.Name `xml:"Image"`
	Xmlns    string   `xml:"xmlns,attr"`
	TileSize int      `xml:"TileSize,attr"`
	Overlap  int      `xml:"Overlap,attr"`
	Format   string   `xml:"Format,attr"`
	Size     Size     `xml:"Size"`
}

// Size is the full-resolution image size.
type Size struct {
	Width  int `xml:"Width,attr"`
	Height int `xml:"Height,attr"`
}

// MaxLevel returns the index of the full-resolution level.
func (m *Manifest) MaxLevel() int {
	return MaxLevel(m.Size.Width, m.Size.Height)
}

// LevelSize returns the image size at level.
func (m *Manifest) LevelSize(level int) (int, int) {
	return LevelSize(m.Size.Width, m.Size.Height, level)
}

// TileCount returns the number of tile columns and rows at level.
func (m *Manifest) TileCount(level int) (int, int) {
	w, h := m.LevelSize(level)
	return ceilDiv(w, m.TileSize), ceilDiv(h, m.TileSize)
}

// TileRect returns the pixel bounds of tile (col, row) within level.
func (m *Manifest) TileRect(level, col, row int) image.Rectangle {
	w, h := m.LevelSize(level)
	x0 := col*m.TileSize - boolInt(col > 0)*m.Overlap
	y0 := row*m.TileSize - boolInt(row > 0)*m.Overlap
	x1 := min((col+1)*m.TileSize+m.Overlap, w)
	y1 := min((row+1)*m.TileSize+m.Overlap, h)
	return image.Rect(x0, y0, x1, y1)
}

// ReadManifest decodes a .dzi file.
func ReadManifest(r io.Reader) (*Manifest, error) {
	var m Manifest
	if err := xml.NewDecoder(r).Decode(&m); err != nil {
		return nil, fmt.Errorf("decode dzi: %w", err)
	}
	return &m, nil
}

// MaxLevel returns ceil(log2(max(width, height))).
func MaxLevel(width, height int) int {
	d := max(width, height)
	if d <= 1 {
		return 0
	}
	return int(math.Ceil(math.Log2(float64(d))))
}

// LevelSize returns the size of an image of width x height at level.
func LevelSize(width, height, level int) (int, int) {
	scale := 1 << (MaxLevel(width, height) - level)
	return max(ceilDiv(width, scale), 1), max(ceilDiv(height, scale), 1)
}

// Emitter writes Deep Zoom pyramids.
type Emitter struct {
	TileSize int
	Overlap  int
	Format   string // "jpg" or "png"
	Quality  int    // JPEG quality
	Workers  int    // parallel tile encoders per level

	// Progress, when set, is called after each level is written.
	Progress func(level, maxLevel int)
}

// NewEmitter returns an emitter with Deep Zoom defaults.
func NewEmitter() *Emitter {
	return &Emitter{
		TileSize: DefaultTileSize,
		Overlap:  DefaultOverlap,
		Format:   DefaultFormat,
		Quality:  DefaultQuality,
		Workers:  DefaultWorkers,
	}
}

func (e *Emitter) validate() error {
	if e.TileSize <= 0 {
		return fmt.Errorf("tile size must be positive, got %d", e.TileSize)
	}
	if e.Overlap < 0 || e.Overlap >= e.TileSize {
		return fmt.Errorf("overlap must be in [0,%d), got %d", e.TileSize, e.Overlap)
	}
	if _, err := imaging.FormatFromExtension(e.Format); err != nil {
		return fmt.Errorf("tile format %q: %w", e.Format, err)
	}
	if e.Quality <= 0 {
		e.Quality = DefaultQuality
	}
	return nil
}

// Paths returns the manifest path and tile directory of a pyramid called
// name in dir.
func Paths(dir, name string) (manifest, tiles string) {
	return filepath.Join(dir, name+".dzi"), filepath.Join(dir, name+"_files")
}

// Create writes the pyramid of img to dir as name.dzi and name_files/.
// An existing pyramid of the same name is replaced.
func (e *Emitter) Create(ctx context.Context, img image.Image, dir, name string) (*Manifest, error) {
	if err := e.validate(); err != nil {
		return nil, err
	}
	b := img.Bounds()
	if b.Empty() {
		return nil, fmt.Errorf("cannot tile an empty image")
	}
	m := &Manifest{
		Xmlns:    Namespace,
		TileSize: e.TileSize,
		Overlap:  e.Overlap,
		Format:   e.Format,
		Size:     Size{Width: b.Dx(), Height: b.Dy()},
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	manifestPath, tilesDir := Paths(dir, name)
	tmpDir, err := os.MkdirTemp(dir, "."+name+"_files.*.tmp")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(tmpDir)

	level := m.MaxLevel()
	current := img
	for ; level >= 0; level-- {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		w, h := m.LevelSize(level)
		if cb := current.Bounds(); cb.Dx() != w || cb.Dy() != h {
			current = imaging.Resize(current, w, h, imaging.Lanczos)
		}
		if err := e.writeLevel(m, current, level, filepath.Join(tmpDir, fmt.Sprint(level))); err != nil {
			return nil, fmt.Errorf("level %d: %w", level, err)
		}
		if e.Progress != nil {
			e.Progress(level, m.MaxLevel())
		}
	}

	if err := os.RemoveAll(tilesDir); err != nil {
		return nil, err
	}
	if err := os.Rename(tmpDir, tilesDir); err != nil {
		return nil, err
	}
	if err := sgio.WriteFileAtomic(manifestPath, func(w io.Writer) error {
		return WriteManifest(w, m)
	}); err != nil {
		return nil, err
	}
	return m, nil
}

// WriteManifest encodes m as a .dzi document.
func WriteManifest(w io.Writer, m *Manifest) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(m); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

func (e *Emitter) writeLevel(m *Manifest, img image.Image, level int, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	format, _ := imaging.FormatFromExtension(e.Format)
	cols, rows := m.TileCount(level)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	sem := make(chan struct{}, max(e.Workers, 1))
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			wg.Add(1)
			go func(col, row int) {
				defer wg.Done()
				sem <- struct{}{}
				defer func() { <-sem }()

				tile := imaging.Crop(img, m.TileRect(level, col, row).Add(img.Bounds().Min))
				path := filepath.Join(dir, fmt.Sprintf("%d_%d.%s", col, row, e.Format))
				if err := saveTile(path, tile, format, e.Quality); err != nil {
					mu.Lock()
					if firstErr == nil {
						firstErr = err
					}
					mu.Unlock()
				}
			}(col, row)
		}
	}
	wg.Wait()
	return firstErr
}

func saveTile(path string, tile image.Image, format imaging.Format, quality int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := imaging.Encode(f, tile, format, imaging.JPEGQuality(quality)); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}

func ceilDiv(a, b int) int { return (a + b - 1) / b }

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
