package grid

// Pos is a 1-based logical grid position.
type Pos struct {
	Column int `json:"column"`
	Row    int `json:"row"`
}

// Cell is one position of the grid. A nil Record marks an empty placeholder.
type Cell struct {
	Pos
	Record *Record `json:"record,omitempty"`
}

// Empty reports whether the cell is a placeholder.
func (c Cell) Empty() bool { return c.Record == nil }

// Grid is the resolved, sparse layout of the gallery.
//
// NumColumns and NumRows bound the dense rectangle; not every position inside
// it is populated. A Grid is read-only once returned by a Resolver.
type Grid struct {
	NumColumns int
	NumRows    int

	cells map[Pos]*Cell
	order []*Cell
}

func newGrid(capacity int) *Grid {
	return &Grid{
		cells: make(map[Pos]*Cell, capacity),
		order: make([]*Cell, 0, capacity),
	}
}

func (g *Grid) add(pos Pos, rec Record) error {
	if existing, ok := g.cells[pos]; ok {
		return &DuplicateCellError{Pos: pos, Existing: *existing.Record, Incoming: rec}
	}
	cell := &Cell{Pos: pos, Record: &rec}
	g.cells[pos] = cell
	g.order = append(g.order, cell)
	return nil
}

// Lookup returns the populated cell at (column, row).
func (g *Grid) Lookup(column, row int) (Cell, bool) {
	c, ok := g.cells[Pos{Column: column, Row: row}]
	if !ok {
		return Cell{}, false
	}
	return *c, true
}

// At returns the cell at (column, row), or a placeholder when it is empty.
func (g *Grid) At(column, row int) Cell {
	if c, ok := g.Lookup(column, row); ok {
		return c
	}
	return Cell{Pos: Pos{Column: column, Row: row}}
}

// Cells returns the populated cells in resolution order.
func (g *Grid) Cells() []Cell {
	out := make([]Cell, len(g.order))
	for i, c := range g.order {
		out[i] = *c
	}
	return out
}

// Len returns the number of populated cells.
func (g *Grid) Len() int { return len(g.order) }

// Column returns the dense contents of column c: exactly NumRows cells,
// placeholders included.
func (g *Grid) Column(c int) []Cell {
	out := make([]Cell, g.NumRows)
	for r := 1; r <= g.NumRows; r++ {
		out[r-1] = g.At(c, r)
	}
	return out
}

// ColumnCounts returns the number of populated cells per column, indexed
// from 1; index 0 is unused.
func (g *Grid) ColumnCounts() []int {
	counts := make([]int, g.NumColumns+1)
	for _, c := range g.order {
		counts[c.Column]++
	}
	return counts
}

// Equal reports whether two grids have the same bounds and the same record
// at every position.
func (g *Grid) Equal(o *Grid) bool {
	if g.NumColumns != o.NumColumns || g.NumRows != o.NumRows || len(g.cells) != len(o.cells) {
		return false
	}
	for pos, c := range g.cells {
		oc, ok := o.cells[pos]
		if !ok || *c.Record != *oc.Record {
			return false
		}
	}
	return true
}
