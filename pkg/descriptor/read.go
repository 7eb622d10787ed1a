package descriptor

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"

	"github.com/openzoom/squaregrid/pkg/grid"
)

// Document is a decoded descriptor.
type Document struct {
	XMLName           xml.Name `xml:"grid"`
	NumColumns        int      `xml:"numColumns,attr"`
	NumRows           int      `xml:"numRows,attr"`
	SquareWidth       int      `xml:"squareWidth,attr"`
	SquareHeight      int      `xml:"squareHeight,attr"`
	HorizontalSpacing int      `xml:"horizontalSpacing,attr"`
	VerticalSpacing   int      `xml:"verticalSpacing,attr"`
	Columns           []Column `xml:"column"`
}

// Column is one <column> group, squares in row order.
type Column struct {
	Squares []Square `xml:"square"`
}

// Square is one entry. Both fields are empty for a placeholder.
type Square struct {
	Label string `xml:"label,attr,omitempty"`
	URL   string `xml:"url,attr,omitempty"`
}

// Empty reports whether the square is a placeholder.
func (s Square) Empty() bool { return s.Label == "" && s.URL == "" }

// Layout returns the layout metrics recorded on the root element.
func (d *Document) Layout() grid.Layout {
	return grid.Layout{
		SquareWidth:       d.SquareWidth,
		SquareHeight:      d.SquareHeight,
		HorizontalSpacing: d.HorizontalSpacing,
		VerticalSpacing:   d.VerticalSpacing,
	}
}

// Square returns the entry at the 1-based (column, row).
func (d *Document) Square(column, row int) (Square, bool) {
	if column < 1 || column > len(d.Columns) {
		return Square{}, false
	}
	sq := d.Columns[column-1].Squares
	if row < 1 || row > len(sq) {
		return Square{}, false
	}
	return sq[row-1], true
}

// Populated counts the non-placeholder squares.
func (d *Document) Populated() int {
	n := 0
	for _, c := range d.Columns {
		for _, s := range c.Squares {
			if !s.Empty() {
				n++
			}
		}
	}
	return n
}

// Validate checks that the document is a dense numColumns x numRows
// rectangle.
func (d *Document) Validate() error {
	if len(d.Columns) != d.NumColumns {
		return fmt.Errorf("numColumns is %d but %d columns present", d.NumColumns, len(d.Columns))
	}
	for i, c := range d.Columns {
		if len(c.Squares) != d.NumRows {
			return fmt.Errorf("column %d has %d squares, want %d", i+1, len(c.Squares), d.NumRows)
		}
	}
	return d.Layout().Validate()
}

// Read decodes a descriptor from r. It does not validate the shape; call
// Validate for that.
func Read(r io.Reader) (*Document, error) {
	var d Document
	if err := xml.NewDecoder(r).Decode(&d); err != nil {
		return nil, fmt.Errorf("decode descriptor: %w", err)
	}
	return &d, nil
}

// ReadFile decodes the descriptor at path.
func ReadFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return Read(f)
}
