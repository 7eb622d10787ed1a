package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	sgerrors "github.com/openzoom/squaregrid/pkg/errors"
	"github.com/openzoom/squaregrid/pkg/grid"
	sgio "github.com/openzoom/squaregrid/pkg/io"
	"github.com/openzoom/squaregrid/pkg/pipeline"
	"github.com/openzoom/squaregrid/pkg/scrape"
)

// layoutReport is what the layout command found in a local file.
type layoutReport struct {
	Source  string
	Records int
	Extract *scrape.Stats // nil for record files
	Fixups  int
	Grid    *grid.Grid
	Width   int // canvas size under the configured layout
	Height  int
}

// layoutCommand creates the layout command.
func (c *CLI) layoutCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "layout <grid.html|records.json>",
		Short: "Resolve the grid of a local page or record file",
		Long: `Layout runs the extract and resolve phases offline against a saved grid
page (or a records.json written by a previous build) and prints the grid
bounds, the number of squares per column and the resulting canvas size.`,
		Example: `  squaregrid layout cache/grid.html
  squaregrid layout cache/records.json --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := c.loadOptions()
			if err != nil {
				return err
			}
			if err := opts.ValidateAndSetDefaults(); err != nil {
				return err
			}
			report, err := resolveLayout(args[0], opts)
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(report.Grid.Cells())
			}
			printLayoutReport(report)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the resolved cells as JSON")
	return cmd
}

// resolveLayout extracts (for HTML) or imports (for .json) the records of
// path and resolves them into a grid.
func resolveLayout(path string, opts pipeline.Options) (*layoutReport, error) {
	report := &layoutReport{Source: path}

	var records []grid.Record
	if strings.EqualFold(filepath.Ext(path), ".json") {
		_, recs, err := sgio.ImportJSON(path)
		if err != nil {
			return nil, sgerrors.Wrap(sgerrors.ErrCodeInvalidInput, err, "read records")
		}
		records = recs
	} else {
		page, err := os.ReadFile(path)
		if err != nil {
			return nil, sgerrors.Wrap(sgerrors.ErrCodeInvalidPath, err, "read page")
		}
		html, applied := scrape.Cleanup(string(page), opts.Fixups)
		recs, stats, err := scrape.Extract(bytes.NewReader([]byte(html)), scrape.Options{
			BaseURL:   opts.BaseURL,
			Sentinels: opts.Sentinels,
		})
		if err != nil {
			return nil, sgerrors.Wrap(sgerrors.ErrCodeInvalidInput, err, "extract records")
		}
		records = recs
		report.Extract = &stats
		report.Fixups = applied
	}
	report.Records = len(records)

	g, err := grid.Resolve(records)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}
	report.Grid = g
	report.Width, report.Height = opts.Layout.CanvasSize(g)
	return report, nil
}

func printLayoutReport(r *layoutReport) {
	fmt.Fprintln(stdout, StyleTitle.Render(r.Source))
	if r.Extract != nil {
		printStatLine(
			fmt.Sprintf("%d squares", r.Extract.Squares),
			fmt.Sprintf("%d records", r.Extract.Extracted),
			fmt.Sprintf("%d dropped", r.Extract.Dropped),
			fmt.Sprintf("%d fixups", r.Fixups),
		)
	}
	printNewline()

	g := r.Grid
	printKeyValue("Columns", StyleNumber.Render(fmt.Sprint(g.NumColumns)))
	printKeyValue("Rows", StyleNumber.Render(fmt.Sprint(g.NumRows)))
	printKeyValue("Squares", StyleNumber.Render(fmt.Sprint(g.Len())))
	printKeyValue("Canvas", fmt.Sprintf("%dx%d", r.Width, r.Height))
	printNewline()

	counts := g.ColumnCounts()
	for col := 1; col < len(counts); col++ {
		printDetail("column %2d  %3d squares", col, counts[col])
	}
}
