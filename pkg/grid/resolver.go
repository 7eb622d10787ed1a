package grid

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the resolver. Use errors.Is to test for them.
var (
	// ErrMalformedColumnKey is returned when the column hint of an image path
	// is neither SharedColumnKey nor "col<N>".
	ErrMalformedColumnKey = errors.New("malformed column key")

	// ErrDuplicateCell is returned when two records resolve to the same
	// position. It indicates a resolver bug or corrupt input.
	ErrDuplicateCell = errors.New("duplicate cell assignment")
)

// ColumnKeyError describes a record whose column hint could not be parsed.
type ColumnKeyError struct {
	Index int    // position of the record in the input sequence
	Path  string // image path of the record
	Key   string // derived column key
}

func (e *ColumnKeyError) Error() string {
	return fmt.Sprintf("%v: record %d: %q (from %s)", ErrMalformedColumnKey, e.Index, e.Key, e.Path)
}

func (e *ColumnKeyError) Unwrap() error { return ErrMalformedColumnKey }

// DuplicateCellError describes two records competing for one position.
type DuplicateCellError struct {
	Pos      Pos
	Existing Record
	Incoming Record
}

func (e *DuplicateCellError) Error() string {
	return fmt.Sprintf("%v: column %d row %d held by %q, claimed by %q",
		ErrDuplicateCell, e.Pos.Column, e.Pos.Row, e.Existing.Label, e.Incoming.Label)
}

func (e *DuplicateCellError) Unwrap() error { return ErrDuplicateCell }

// Resolver assigns grid positions to records in a single forward pass.
//
// A Resolver carries the per-column row counters and the shared-column
// alternation state for one pass. It is not safe for concurrent use; create
// one per run with NewResolver.
type Resolver struct {
	counters   map[int]int
	sharedNext int
}

// NewResolver returns a Resolver with empty state.
func NewResolver() *Resolver {
	r := &Resolver{}
	r.Reset()
	return r
}

// Reset clears the row counters and restarts the alternation at column 1.
func (r *Resolver) Reset() {
	r.counters = make(map[int]int)
	r.sharedNext = 1
}

// Column maps a column key to a column number, advancing the shared-column
// alternation when key is SharedColumnKey.
func (r *Resolver) Column(key string) (int, error) {
	if key == SharedColumnKey {
		c := r.sharedNext
		r.sharedNext = 3 - r.sharedNext
		return c, nil
	}
	c, ok := parseColumnKey(key)
	if !ok {
		return 0, ErrMalformedColumnKey
	}
	return c, nil
}

// Next assigns the next row of column c.
func (r *Resolver) Next(c int) int {
	r.counters[c]++
	return r.counters[c]
}

// Place derives the position of rec and advances the resolver state.
func (r *Resolver) Place(rec Record) (Pos, error) {
	c, err := r.Column(ColumnKey(rec.ImagePath))
	if err != nil {
		return Pos{}, err
	}
	return Pos{Column: c, Row: r.Next(c)}, nil
}

// Resolve places every record in order and builds the grid.
// Order is significant: it decides which row each record lands on.
// Each call starts from empty state, so the same records always yield the
// same grid.
func (r *Resolver) Resolve(records []Record) (*Grid, error) {
	r.Reset()
	g := newGrid(len(records))
	for i, rec := range records {
		pos, err := r.Place(rec)
		if err != nil {
			return nil, &ColumnKeyError{Index: i, Path: rec.ImagePath, Key: ColumnKey(rec.ImagePath)}
		}
		if err := g.add(pos, rec); err != nil {
			return nil, err
		}
	}
	for c, last := range r.counters {
		g.NumColumns = max(g.NumColumns, c)
		g.NumRows = max(g.NumRows, last)
	}
	return g, nil
}

// Counters returns a copy of the last-assigned row per column.
func (r *Resolver) Counters() map[int]int {
	out := make(map[int]int, len(r.counters))
	for c, n := range r.counters {
		out[c] = n
	}
	return out
}

// Resolve runs a fresh Resolver over records.
func Resolve(records []Record) (*Grid, error) {
	return NewResolver().Resolve(records)
}
