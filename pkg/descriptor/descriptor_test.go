package descriptor

import (
	"bytes"
	"strings"
	"testing"

	"github.com/openzoom/squaregrid/pkg/grid"
)

func resolve(t *testing.T, records ...grid.Record) *grid.Grid {
	t.Helper()
	g, err := grid.Resolve(records)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	return g
}

func scenarioGrid(t *testing.T) *grid.Grid {
	return resolve(t,
		grid.Record{ImagePath: "s/col3/a.jpg", Label: "A", DetailURL: "http://x/a.html"},
		grid.Record{ImagePath: "s/col3/b.jpg", Label: "B", DetailURL: "http://x/b.html"},
		grid.Record{ImagePath: "s/col5/c.jpg", Label: "C", DetailURL: "http://x/c.html"},
	)
}

func TestEscape(t *testing.T) {
	got := Escape(`O'Brien & Sons <Art>`)
	want := "O&apos;Brien &amp; Sons &lt;Art&gt;"
	if got != want {
		t.Errorf("Escape() = %q, want %q", got, want)
	}
	if got := Escape(`say "hi"`); got != "say &quot;hi&quot;" {
		t.Errorf("Escape() = %q", got)
	}
}

func TestWriteExactOutput(t *testing.T) {
	g := resolve(t,
		grid.Record{ImagePath: "s/col1and2pics/a.jpg", Label: "O'Brien & Sons <Art>", DetailURL: "http://x/a.html?p=1&q=2"},
		grid.Record{ImagePath: "s/col2/b.jpg", Label: "B", DetailURL: "http://x/b.html"},
		grid.Record{ImagePath: "s/col2/c.jpg", Label: "C", DetailURL: "http://x/c.html"},
	)
	var buf bytes.Buffer
	if err := Write(&buf, g, grid.DefaultLayout()); err != nil {
		t.Fatalf("Write: %v", err)
	}

	want := `<?xml version="1.0" encoding="utf-8"?>` + "\n" +
		`<grid numColumns="2" numRows="2" squareWidth="300" squareHeight="300" horizontalSpacing="10" verticalSpacing="10">` + "\n" +
		"  <!-- Column #1 -->\n" +
		"  <column>\n" +
		`    <square label="O&apos;Brien &amp; Sons &lt;Art&gt;" url="http://x/a.html?p=1&amp;q=2"/>` + "\n" +
		"    <square />\n" +
		"  </column>\n" +
		"  \n" +
		"  <!-- Column #2 -->\n" +
		"  <column>\n" +
		`    <square label="B" url="http://x/b.html"/>` + "\n" +
		`    <square label="C" url="http://x/c.html"/>` + "\n" +
		"  </column>\n" +
		"  \n" +
		"</grid>\n"
	if got := buf.String(); got != want {
		t.Errorf("Write() output mismatch\ngot:\n%s\nwant:\n%s", got, want)
	}
}

func TestWriteDenseScenario(t *testing.T) {
	g := scenarioGrid(t)
	var buf bytes.Buffer
	if err := Write(&buf, g, grid.DefaultLayout()); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if n := strings.Count(buf.String(), "<square"); n != 10 {
		t.Errorf("got %d squares, want 5*2=10", n)
	}

	doc, err := Read(&buf)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if err := doc.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if doc.NumColumns != 5 || doc.NumRows != 2 {
		t.Fatalf("bounds = %dx%d, want 5x2", doc.NumColumns, doc.NumRows)
	}

	for r := 1; r <= 2; r++ {
		if sq, _ := doc.Square(4, r); !sq.Empty() {
			t.Errorf("column 4 row %d = %+v, want placeholder", r, sq)
		}
	}
	if sq, _ := doc.Square(5, 1); sq.Label != "C" {
		t.Errorf("column 5 row 1 = %+v, want C", sq)
	}
	if sq, _ := doc.Square(5, 2); !sq.Empty() {
		t.Errorf("column 5 row 2 = %+v, want placeholder", sq)
	}
	if doc.Populated() != g.Len() {
		t.Errorf("Populated() = %d, want %d", doc.Populated(), g.Len())
	}
}

func TestWriteRoundTrip(t *testing.T) {
	g := resolve(t,
		grid.Record{ImagePath: "s/col1and2pics/a.jpg", Label: `Zoë "Z" O'Hara`, DetailURL: "http://x/z.html"},
		grid.Record{ImagePath: "s/col4/b.jpg", Label: "Ben & Jerry", DetailURL: "http://x/b.html?a=1&b=2"},
		grid.Record{ImagePath: "s/col1and2pics/c.jpg", Label: "<Cee>", DetailURL: "http://x/c.html"},
		grid.Record{ImagePath: "s/col4/d.jpg", Label: "Dee", DetailURL: "http://x/d.html"},
		grid.Record{ImagePath: "s/col4/e.jpg", Label: "Eee", DetailURL: "http://x/e.html"},
	)
	l := grid.Layout{SquareWidth: 200, SquareHeight: 150, HorizontalSpacing: 4, VerticalSpacing: 6}

	var buf bytes.Buffer
	if err := Write(&buf, g, l); err != nil {
		t.Fatalf("Write: %v", err)
	}
	doc, err := Read(&buf)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if err := doc.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if doc.Layout() != l {
		t.Errorf("Layout() = %+v, want %+v", doc.Layout(), l)
	}

	for c := 1; c <= g.NumColumns; c++ {
		for r := 1; r <= g.NumRows; r++ {
			sq, ok := doc.Square(c, r)
			if !ok {
				t.Fatalf("missing square at %d,%d", c, r)
			}
			cell, populated := g.Lookup(c, r)
			if !populated {
				if !sq.Empty() {
					t.Errorf("(%d,%d) = %+v, want placeholder", c, r, sq)
				}
				continue
			}
			if sq.Label != cell.Record.Label || sq.URL != cell.Record.DetailURL {
				t.Errorf("(%d,%d) = %+v, want %q %q", c, r, sq, cell.Record.Label, cell.Record.DetailURL)
			}
		}
	}
}

func TestWriteEmptyGrid(t *testing.T) {
	g := resolve(t)
	var buf bytes.Buffer
	if err := Write(&buf, g, grid.DefaultLayout()); err != nil {
		t.Fatalf("Write: %v", err)
	}
	doc, err := Read(&buf)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if err := doc.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
	if len(doc.Columns) != 0 {
		t.Errorf("got %d columns, want 0", len(doc.Columns))
	}
}

func TestValidateRejectsRagged(t *testing.T) {
	doc := &Document{
		NumColumns: 2, NumRows: 2,
		SquareWidth: 300, SquareHeight: 300,
		Columns: []Column{
			{Squares: []Square{{Label: "a"}, {}}},
			{Squares: []Square{{Label: "b"}}},
		},
	}
	if err := doc.Validate(); err == nil {
		t.Error("ragged column should fail validation")
	}
	doc.Columns = doc.Columns[:1]
	if err := doc.Validate(); err == nil {
		t.Error("missing column should fail validation")
	}
}
