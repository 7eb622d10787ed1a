package grid

import "fmt"

// Default layout metrics of the gallery squares, in pixels.
const (
	DefaultSquareWidth       = 300
	DefaultSquareHeight      = 300
	DefaultHorizontalSpacing = 10
	DefaultVerticalSpacing   = 10
)

// Layout holds the pixel metrics of a square and the gaps between squares.
// The values are written into the descriptor so the viewer can follow them.
type Layout struct {
	SquareWidth       int `toml:"square_width" json:"square_width"`
	SquareHeight      int `toml:"square_height" json:"square_height"`
	HorizontalSpacing int `toml:"horizontal_spacing" json:"horizontal_spacing"`
	VerticalSpacing   int `toml:"vertical_spacing" json:"vertical_spacing"`
}

// DefaultLayout returns the 300x300 squares with 10px gaps used by the site.
func DefaultLayout() Layout {
	return Layout{
		SquareWidth:       DefaultSquareWidth,
		SquareHeight:      DefaultSquareHeight,
		HorizontalSpacing: DefaultHorizontalSpacing,
		VerticalSpacing:   DefaultVerticalSpacing,
	}
}

// Validate checks that square sizes are positive and spacings non-negative.
func (l Layout) Validate() error {
	if l.SquareWidth <= 0 || l.SquareHeight <= 0 {
		return fmt.Errorf("square size must be positive, got %dx%d", l.SquareWidth, l.SquareHeight)
	}
	if l.HorizontalSpacing < 0 || l.VerticalSpacing < 0 {
		return fmt.Errorf("spacing must not be negative, got %d/%d", l.HorizontalSpacing, l.VerticalSpacing)
	}
	return nil
}

// ColumnPitch is the horizontal distance between the origins of two
// neighbouring columns on the canvas.
//
// The pitch is built from the square height and the vertical spacing. The
// viewer was written against canvases produced this way, so the cross-over is
// kept; with square squares and equal spacings it makes no difference.
func (l Layout) ColumnPitch() int { return l.SquareHeight + l.VerticalSpacing }

// RowPitch is the vertical distance between neighbouring rows on the canvas.
// Like ColumnPitch it takes the opposite axis' metrics.
func (l Layout) RowPitch() int { return l.SquareWidth + l.HorizontalSpacing }

// Offset returns the top-left canvas pixel of the square at p.
func (l Layout) Offset(p Pos) (x, y int) {
	return (p.Column - 1) * l.ColumnPitch(), (p.Row - 1) * l.RowPitch()
}

// CanvasSize returns the pixel size of a canvas holding g.
func (l Layout) CanvasSize(g *Grid) (width, height int) {
	return g.NumColumns * (l.SquareWidth + l.HorizontalSpacing),
		g.NumRows * (l.SquareHeight + l.VerticalSpacing)
}
