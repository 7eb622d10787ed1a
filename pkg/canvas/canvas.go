// Package canvas stitches the artwork squares of a grid into one image.
//
// Every populated cell is loaded from a [Source], placed at
// [grid.Layout.Offset] and drawn into a single canvas in place. Only one
// square is decoded at a time and the canvas is never copied, so peak
// memory is the canvas plus one square. That matters: the canvas of a full
// gallery is several hundred megapixels.
//
// Image handling sits behind [Engine] so the placement logic can be tested
// without decoding real files; [DrawEngine] is the production engine.
package canvas

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"

	"github.com/openzoom/squaregrid/pkg/grid"
)

// ErrMissingImage is returned when the image of a populated cell cannot be
// loaded.
var ErrMissingImage = errors.New("missing backing image")

// MissingImageError identifies the cell whose image could not be loaded.
type MissingImageError struct {
	Cell  grid.Cell
	Cause error
}

func (e *MissingImageError) Error() string {
	return fmt.Sprintf("%v: column %d row %d (%s): %v",
		ErrMissingImage, e.Cell.Column, e.Cell.Row, e.Cell.Record.ImagePath, e.Cause)
}

func (e *MissingImageError) Unwrap() []error { return []error{ErrMissingImage, e.Cause} }

// Source loads the full-resolution image of a record.
type Source interface {
	Open(ctx context.Context, rec grid.Record) (image.Image, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context, rec grid.Record) (image.Image, error)

// Open calls f.
func (f SourceFunc) Open(ctx context.Context, rec grid.Record) (image.Image, error) {
	return f(ctx, rec)
}

// Engine allocates canvases and draws squares onto them.
type Engine interface {
	// NewCanvas returns a blank canvas of the given size.
	NewCanvas(width, height int) draw.Image
	// Compose draws src into the rectangle at of dst, in place.
	Compose(dst draw.Image, src image.Image, at image.Rectangle)
}

// Compositor places the squares of a grid on a canvas.
type Compositor struct {
	Layout grid.Layout
	Source Source
	Engine Engine

	// Progress, when set, is called after each square with the number of
	// squares drawn so far and the total.
	Progress func(done, total int)
}

// Placement is where a cell lands on the canvas.
type Placement struct {
	Cell grid.Cell
	Rect image.Rectangle
}

// Plan returns the canvas placement of every populated cell of g, in grid
// order.
func Plan(g *grid.Grid, l grid.Layout) []Placement {
	cells := g.Cells()
	out := make([]Placement, len(cells))
	for i, c := range cells {
		x, y := l.Offset(c.Pos)
		out[i] = Placement{
			Cell: c,
			Rect: image.Rect(x, y, x+l.SquareWidth, y+l.SquareHeight),
		}
	}
	return out
}

// Compose draws every populated cell of g onto a new canvas and returns it.
//
// Squares are drawn one at a time in grid order; each decoded square is
// dropped before the next one is loaded. If any image is missing, Compose
// returns a *MissingImageError and no canvas. Cancelling ctx stops the loop
// before the next square and returns ctx.Err().
func (c *Compositor) Compose(ctx context.Context, g *grid.Grid) (draw.Image, error) {
	w, h := c.Layout.CanvasSize(g)
	dst := c.Engine.NewCanvas(w, h)

	plan := Plan(g, c.Layout)
	for i, p := range plan {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		src, err := c.Source.Open(ctx, *p.Cell.Record)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, &MissingImageError{Cell: p.Cell, Cause: err}
		}
		if src == nil {
			return nil, &MissingImageError{Cell: p.Cell, Cause: errors.New("source returned no image")}
		}
		c.Engine.Compose(dst, src, p.Rect)
		if c.Progress != nil {
			c.Progress(i+1, len(plan))
		}
	}
	return dst, nil
}
