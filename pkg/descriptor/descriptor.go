// Package descriptor writes and reads the squares descriptor, the XML file
// the Deep Zoom viewer uses to map a (column, row) on the canvas to an artist
// label and link.
//
// The descriptor is a dense rectangle: every column holds exactly numRows
// squares, with empty <square /> placeholders where the gallery has no
// artwork. That lets the viewer index squares directly instead of searching
// a sparse list.
//
//	<?xml version="1.0" encoding="utf-8"?>
//	<grid numColumns="2" numRows="2" squareWidth="300" squareHeight="300" horizontalSpacing="10" verticalSpacing="10">
//	  <!-- Column #1 -->
//	  <column>
//	    <square label="Ann Lee" url="http://example.com/bios/Ann%20Lee.html"/>
//	    <square />
//	  </column>
//	  ...
//	</grid>
//
// Attribute names and the dense shape are a contract with the viewer and
// must not change.
package descriptor

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/openzoom/squaregrid/pkg/grid"
)

const (
	header  = `<?xml version="1.0" encoding="utf-8"?>`
	indent1 = "  "
	indent2 = "    "
)

var escaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	"'", "&apos;",
	`"`, "&quot;",
)

// Escape replaces the five XML special characters with their named
// entities.
func Escape(s string) string {
	return escaper.Replace(s)
}

// Write serializes g as a descriptor to w.
//
// Columns are written 1..NumColumns, and within each column rows
// 1..NumRows. Each position is looked up once: a hit becomes a labelled
// square, a miss an empty one. The output therefore has exactly
// NumColumns*NumRows squares regardless of how sparse g is.
func Write(w io.Writer, g *grid.Grid, l grid.Layout) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintln(bw, header)
	fmt.Fprintf(bw, `<grid numColumns="%d" numRows="%d" squareWidth="%d" squareHeight="%d" horizontalSpacing="%d" verticalSpacing="%d">`+"\n",
		g.NumColumns, g.NumRows, l.SquareWidth, l.SquareHeight, l.HorizontalSpacing, l.VerticalSpacing)

	for c := 1; c <= g.NumColumns; c++ {
		fmt.Fprintf(bw, "%s<!-- Column #%d -->\n", indent1, c)
		fmt.Fprintf(bw, "%s<column>\n", indent1)
		for r := 1; r <= g.NumRows; r++ {
			writeSquare(bw, g.At(c, r))
		}
		fmt.Fprintf(bw, "%s</column>\n", indent1)
		fmt.Fprintln(bw, indent1)
	}
	fmt.Fprintln(bw, "</grid>")

	return bw.Flush()
}

func writeSquare(w io.Writer, cell grid.Cell) {
	if cell.Empty() {
		fmt.Fprintf(w, "%s<square />\n", indent2)
		return
	}
	fmt.Fprintf(w, "%s<square label=\"%s\" url=\"%s\"/>\n",
		indent2, Escape(cell.Record.Label), Escape(cell.Record.DetailURL))
}
