package pipeline

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	sgerrors "github.com/openzoom/squaregrid/pkg/errors"
	"github.com/openzoom/squaregrid/pkg/grid"
	"github.com/openzoom/squaregrid/pkg/scrape"
)

func TestDefaults(t *testing.T) {
	o := DefaultOptions()
	if o.BaseURL != DefaultBaseURL || o.PagePath != DefaultPagePath || o.Name != DefaultName {
		t.Errorf("defaults = %+v", o)
	}
	if o.Layout != grid.DefaultLayout() {
		t.Errorf("Layout = %+v", o.Layout)
	}
	if o.Pyramid != (PyramidOptions{TileSize: 254, Overlap: 1, Format: "jpg", Quality: 90}) {
		t.Errorf("Pyramid = %+v", o.Pyramid)
	}
	if diff := cmp.Diff(scrape.DefaultSentinels, o.Sentinels); diff != "" {
		t.Errorf("Sentinels mismatch (-want +got):\n%s", diff)
	}
	if len(o.Fixups) != len(scrape.DefaultFixups) {
		t.Errorf("Fixups = %v", o.Fixups)
	}
	if o.Logger != nil {
		t.Error("DefaultOptions should leave Logger unset")
	}
}

func TestValidateAndSetDefaultsKeepsExplicitValues(t *testing.T) {
	o := Options{
		Layout:    grid.Layout{SquareWidth: 100, SquareHeight: 80, HorizontalSpacing: 0, VerticalSpacing: 2},
		Pyramid:   PyramidOptions{TileSize: 512, Overlap: 0, Format: "png"},
		Sentinels: []string{},
		Fixups:    []scrape.Fixup{},
	}
	if err := o.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	if o.Layout.SquareWidth != 100 || o.Layout.HorizontalSpacing != 0 {
		t.Errorf("Layout = %+v", o.Layout)
	}
	if o.Pyramid.Overlap != 0 || o.Pyramid.TileSize != 512 || o.Pyramid.Quality != 90 {
		t.Errorf("Pyramid = %+v", o.Pyramid)
	}
	if len(o.Sentinels) != 0 || len(o.Fixups) != 0 {
		t.Error("explicitly empty lists should stay empty")
	}
}

func TestValidateAndSetDefaultsFillsSquareSize(t *testing.T) {
	o := Options{Layout: grid.Layout{SquareWidth: 200}}
	if err := o.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("ValidateAndSetDefaults: %v", err)
	}
	if o.Layout.SquareWidth != 200 || o.Layout.SquareHeight != grid.DefaultSquareHeight {
		t.Errorf("Layout = %+v", o.Layout)
	}
}

func TestValidateAndSetDefaultsRejects(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		code sgerrors.Code
	}{
		{"bad url", Options{BaseURL: "ftp://x"}, sgerrors.ErrCodeInvalidInput},
		{"traversal", Options{PagePath: "/../x"}, sgerrors.ErrCodeInvalidPath},
		{"name with slash", Options{Name: "a/b"}, sgerrors.ErrCodeInvalidName},
		{"negative spacing", Options{Layout: grid.Layout{SquareWidth: 1, SquareHeight: 1, VerticalSpacing: -1}}, sgerrors.ErrCodeInvalidConfig},
		{"overlap too big", Options{Pyramid: PyramidOptions{TileSize: 4, Overlap: 4}}, sgerrors.ErrCodeInvalidConfig},
		{"format", Options{Pyramid: PyramidOptions{Format: "gif"}}, sgerrors.ErrCodeInvalidConfig},
		{"quality", Options{Pyramid: PyramidOptions{Quality: 101}}, sgerrors.ErrCodeInvalidConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.ValidateAndSetDefaults()
			if err == nil {
				t.Fatal("expected an error")
			}
			if !sgerrors.Is(err, tt.code) {
				t.Errorf("code = %v, want %v (%v)", sgerrors.GetCode(err), tt.code, err)
			}
		})
	}
}

func TestPaths(t *testing.T) {
	o := Options{CacheDir: "c", OutputDir: "out", Name: "zoom"}
	if err := o.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	want := Paths{
		Page:       filepath.Join("c", "grid.html"),
		Records:    filepath.Join("c", "records.json"),
		Images:     filepath.Join("c", "images"),
		Canvas:     filepath.Join("c", "zoom.jpg"),
		Descriptor: filepath.Join("out", "squaresdescriptor.xml"),
		Manifest:   filepath.Join("out", "zoom.dzi"),
		Tiles:      filepath.Join("out", "zoom_files"),
	}
	if diff := cmp.Diff(want, o.Paths()); diff != "" {
		t.Errorf("Paths mismatch (-want +got):\n%s", diff)
	}
}

func TestPageURL(t *testing.T) {
	tests := []struct {
		base, page, want string
	}{
		{"http://imaginationsquared.com", "/grid.html", "http://imaginationsquared.com/grid.html"},
		{"http://example.com/gallery/", "grid.html", "http://example.com/gallery/grid.html"},
		{"http://example.com/gallery", "/pages/grid.html", "http://example.com/gallery/pages/grid.html"},
	}
	for _, tt := range tests {
		o := Options{BaseURL: tt.base, PagePath: tt.page}
		got, err := o.PageURL()
		if err != nil || got != tt.want {
			t.Errorf("PageURL(%q, %q) = %q, %v; want %q", tt.base, tt.page, got, err, tt.want)
		}
	}
}

func TestResultSkipped(t *testing.T) {
	r := &Result{Phases: []PhaseResult{
		{Name: PhaseFetchPage, Skipped: true},
		{Name: PhaseExtract},
		{Name: PhaseCanvas, Skipped: true},
	}}
	if diff := cmp.Diff([]string{PhaseFetchPage, PhaseCanvas}, r.Skipped(), cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("Skipped mismatch (-want +got):\n%s", diff)
	}
}
