package cli

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/openzoom/squaregrid/pkg/grid"
	sgio "github.com/openzoom/squaregrid/pkg/io"
	"github.com/openzoom/squaregrid/pkg/pipeline"
)

const testPage = `<html><body>
<div class="square"><a href="bios/grid.html"><img src="Squares_images/col 1/col1and2pics/The-GridSM.jpg" alt="The Grid"></a></div>
<div class="square"><a href="bios/a.html"><img src="Squares_images/col 1/col1and2pics/Ann LeeSM.jpg" alt="Ann Lee"></a></div>
<div class="square"><a href="bios/b.html"><img src="Squares_images/col 1/col2/BobSM.jpg" alt="Bob"></a></div>
<div class="square"><a href="bios/c.html"><img src="Squares_images/col 1/col1and2pics/CySM.jpg" alt="Cy"></a></div>
<div class="square"><a href="bios/d.html"><img src="Squares_images/col 1/col2/DeeSM.jpg" alt="Dee"></a></div>
<div class="square"><a href="bios/blank.html"><img src="Squares_images/col 1/col2/blankSM.jpg" alt="blank"></a></div>
</body></html>`

const badPage = `<div class="square"><a href="x.html"><img src="Squares_images/colX/aSM.jpg" alt="A"></a></div>`

func defaultOptions(t *testing.T) pipeline.Options {
	t.Helper()
	opts := pipeline.DefaultOptions()
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	return opts
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestResolveLayoutFromPage(t *testing.T) {
	report, err := resolveLayout(writeFile(t, "grid.html", testPage), defaultOptions(t))
	if err != nil {
		t.Fatalf("resolveLayout: %v", err)
	}

	g := report.Grid
	if g.NumColumns != 2 || g.NumRows != 3 || g.Len() != 4 {
		t.Fatalf("grid = %dx%d with %d squares, want 2x3 with 4", g.NumColumns, g.NumRows, g.Len())
	}
	if diff := cmp.Diff([]int{0, 1, 3}, g.ColumnCounts()); diff != "" {
		t.Errorf("column counts mismatch (-want +got):\n%s", diff)
	}
	if report.Extract == nil || report.Extract.Dropped != 2 || report.Records != 4 {
		t.Errorf("extract stats = %+v, records = %d", report.Extract, report.Records)
	}
	if report.Width != 620 || report.Height != 930 {
		t.Errorf("canvas = %dx%d, want 620x930", report.Width, report.Height)
	}
	if cell, ok := g.Lookup(2, 2); !ok || cell.Record.Label != "Cy" {
		t.Errorf("(2,2) = %+v, want Cy", cell)
	}
}

func TestResolveLayoutFromRecords(t *testing.T) {
	opts := defaultOptions(t)
	fromPage, err := resolveLayout(writeFile(t, "grid.html", testPage), opts)
	if err != nil {
		t.Fatal(err)
	}

	var records []grid.Record
	for _, c := range fromPage.Grid.Cells() {
		records = append(records, *c.Record)
	}
	path := filepath.Join(t.TempDir(), "records.json")
	if err := sgio.ExportJSON("test", records, path); err != nil {
		t.Fatal(err)
	}

	fromRecords, err := resolveLayout(path, opts)
	if err != nil {
		t.Fatalf("resolveLayout: %v", err)
	}
	if fromRecords.Extract != nil {
		t.Error("record files have no extract stats")
	}
	if !fromRecords.Grid.Equal(fromPage.Grid) {
		t.Error("grid from records.json should equal the grid from the page")
	}
}

func TestResolveLayoutMalformedKey(t *testing.T) {
	_, err := resolveLayout(writeFile(t, "grid.html", badPage), defaultOptions(t))
	if !errors.Is(err, grid.ErrMalformedColumnKey) {
		t.Errorf("err = %v, want ErrMalformedColumnKey", err)
	}
}

func TestLayoutCommandJSON(t *testing.T) {
	t.Chdir(t.TempDir())
	out := captureStdout(t)
	path := writeFile(t, "grid.html", testPage)

	root := New(os.Stderr, LogInfo).RootCommand()
	root.SetArgs([]string{"layout", path, "--json"})
	if err := root.Execute(); err != nil {
		t.Fatalf("layout: %v", err)
	}

	var cells []grid.Cell
	if err := json.Unmarshal(out.Bytes(), &cells); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out.String())
	}
	if len(cells) != 4 || cells[0].Column != 1 || cells[0].Row != 1 {
		t.Errorf("cells = %+v", cells)
	}
}

func TestLayoutCommandReport(t *testing.T) {
	t.Chdir(t.TempDir())
	out := captureStdout(t)

	root := New(os.Stderr, LogInfo).RootCommand()
	root.SetArgs([]string{"layout", writeFile(t, "grid.html", testPage)})
	if err := root.Execute(); err != nil {
		t.Fatalf("layout: %v", err)
	}
	for _, want := range []string{"Columns", "620x930", "column  2"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("report missing %q:\n%s", want, out.String())
		}
	}
}
