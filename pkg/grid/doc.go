// Package grid reconstructs the logical column/row layout of the gallery.
//
// The gallery page lists squares in document order, but the only reliable
// placement information is the column hint encoded in each image path, such
// as:
//
//	Squares_images/col_101_to_110/col103/Monica-Mays.jpg
//
// A [Resolver] walks the records once, in order, assigning each record the
// next free row of its column. Columns 1 and 2 share a single directory
// ([SharedColumnKey]); records found there alternate between the two columns
// for the whole run.
//
// The result is a sparse [Grid]: bounds plus a set of populated cells. Dense
// consumers (the descriptor writer) walk every position and treat misses as
// empty placeholders; the compositor walks only the populated cells and uses
// [Layout.Offset] to place them.
//
// # Usage
//
//	g, err := grid.Resolve(records)
//	if err != nil {
//	    return err // grid.ErrMalformedColumnKey or grid.ErrDuplicateCell
//	}
//	for c := 1; c <= g.NumColumns; c++ {
//	    for r := 1; r <= g.NumRows; r++ {
//	        cell, ok := g.Lookup(c, r)
//	        ...
//	    }
//	}
package grid
