package io

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/openzoom/squaregrid/pkg/grid"
)

func TestJSONRoundTrip(t *testing.T) {
	records := []grid.Record{
		{ImagePath: "s/col3/b.jpg", Label: "B", DetailURL: "http://x/b.html"},
		{ImagePath: "s/col1and2pics/a.jpg", Label: "A & Co", DetailURL: "http://x/a.html"},
	}
	var buf bytes.Buffer
	if err := WriteJSON("http://x/grid.html", records, &buf); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	source, got, err := ReadJSON(&buf)
	if err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if source != "http://x/grid.html" {
		t.Errorf("source = %q", source)
	}
	if diff := cmp.Diff(records, got); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}
}

func TestReadJSONRejectsMissingPath(t *testing.T) {
	_, _, err := ReadJSON(strings.NewReader(`{"records":[{"label":"x"}]}`))
	if err == nil {
		t.Error("record without image_path should be rejected")
	}
}

func TestExportImport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "records.json")
	records := []grid.Record{{ImagePath: "s/col2/a.jpg", Label: "A"}}
	if err := ExportJSON("", records, path); err != nil {
		t.Fatalf("ExportJSON: %v", err)
	}
	_, got, err := ImportJSON(path)
	if err != nil {
		t.Fatalf("ImportJSON: %v", err)
	}
	if diff := cmp.Diff(records, got); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteFileAtomicFailureLeavesNothing(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.xml")
	boom := errors.New("boom")

	err := WriteFileAtomic(path, func(w io.Writer) error {
		w.Write([]byte("partial"))
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("error = %v, want boom", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("failed write must not create the destination")
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("temp files left behind: %v", entries)
	}
}

func TestWriteFileAtomicReplaces(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")
	if err := os.WriteFile(path, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}
	err := WriteFileAtomic(path, func(w io.Writer) error {
		_, err := w.Write([]byte("new"))
		return err
	})
	if err != nil {
		t.Fatalf("WriteFileAtomic: %v", err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "new" {
		t.Errorf("content = %q, want new", data)
	}
}
