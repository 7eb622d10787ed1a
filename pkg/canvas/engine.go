package canvas

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"io"
	"net/url"
	"path"
	"path/filepath"

	"github.com/disintegration/imaging"
	xdraw "golang.org/x/image/draw"

	"github.com/openzoom/squaregrid/pkg/grid"
	sgio "github.com/openzoom/squaregrid/pkg/io"
)

// DefaultQuality is the JPEG quality used when saving a canvas.
const DefaultQuality = 90

// DrawEngine is the production Engine. Canvases are NRGBA images filled
// with Background; squares are drawn with the Porter-Duff "over" operator,
// which on an opaque canvas keeps the canvas opaque where a square covers it.
// Squares whose size differs from the target rectangle are resampled.
type DrawEngine struct {
	Background color.Color
	Scaler     xdraw.Scaler
}

// NewDrawEngine returns an engine with a white background and Catmull-Rom
// resampling.
func NewDrawEngine() *DrawEngine {
	return &DrawEngine{Background: color.White, Scaler: xdraw.CatmullRom}
}

// NewCanvas returns a width x height canvas filled with the background.
func (e *DrawEngine) NewCanvas(width, height int) xdraw.Image {
	bg := e.Background
	if bg == nil {
		bg = color.White
	}
	return imaging.New(width, height, bg)
}

// Compose draws src into at, in place.
func (e *DrawEngine) Compose(dst xdraw.Image, src image.Image, at image.Rectangle) {
	sb := src.Bounds()
	if sb.Dx() == at.Dx() && sb.Dy() == at.Dy() {
		xdraw.Draw(dst, at, src, sb.Min, xdraw.Over)
		return
	}
	scaler := e.Scaler
	if scaler == nil {
		scaler = xdraw.CatmullRom
	}
	scaler.Scale(dst, at, src, sb, xdraw.Over, nil)
}

// FileName returns the local file name of a record's image: the last
// segment of its image path, unescaped.
func FileName(rec grid.Record) string {
	p := rec.ImagePath
	if dec, err := url.PathUnescape(p); err == nil {
		p = dec
	}
	return path.Base(p)
}

// DirSource loads images from a directory, one file per record named by
// FileName.
type DirSource struct {
	Dir string
}

// Path returns the file path of rec's image inside the directory.
func (s DirSource) Path(rec grid.Record) string {
	return filepath.Join(s.Dir, FileName(rec))
}

// Open decodes the image file of rec.
func (s DirSource) Open(ctx context.Context, rec grid.Record) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	img, err := imaging.Open(s.Path(rec), imaging.AutoOrientation(true))
	if err != nil {
		return nil, err
	}
	return img, nil
}

// Encode writes img to w in the format implied by name's extension.
func Encode(w io.Writer, img image.Image, name string, quality int) error {
	format, err := imaging.FormatFromFilename(name)
	if err != nil {
		return err
	}
	if quality <= 0 {
		quality = DefaultQuality
	}
	return imaging.Encode(w, img, format, imaging.JPEGQuality(quality))
}

// Save writes img to path atomically, choosing the format from the
// extension.
func Save(path string, img image.Image, quality int) error {
	if err := sgio.WriteFileAtomic(path, func(w io.Writer) error {
		return Encode(w, img, path, quality)
	}); err != nil {
		return fmt.Errorf("save canvas %s: %w", path, err)
	}
	return nil
}
