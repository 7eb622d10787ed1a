package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/openzoom/squaregrid/pkg/grid"
)

type recordFile struct {
	Source  string        `json:"source,omitempty"`
	Records []grid.Record `json:"records"`
}

// WriteJSON encodes records as JSON and writes them to w.
// The output can be re-imported with [ReadJSON].
func WriteJSON(source string, records []grid.Record, w io.Writer) error {
	if records == nil {
		records = []grid.Record{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(recordFile{Source: source, Records: records}); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ExportJSON writes records to a JSON file at path.
// This is a convenience wrapper around [WriteJSON] using [WriteFileAtomic].
func ExportJSON(source string, records []grid.Record, path string) error {
	return WriteFileAtomic(path, func(w io.Writer) error {
		return WriteJSON(source, records, w)
	})
}

// WriteFileAtomic creates path by calling write on a temporary file in the
// same directory and renaming it into place on success. Parent directories
// are created as needed. On any error the temporary file is removed and path
// is left untouched.
func WriteFileAtomic(path string, write func(w io.Writer) error) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", path, err)
	}
	tmp := f.Name()
	defer func() {
		if err != nil {
			f.Close()
			os.Remove(tmp)
		}
	}()

	if err = write(f); err != nil {
		return err
	}
	if err = f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp, err)
	}
	if err = os.Chmod(tmp, 0o644); err != nil {
		return fmt.Errorf("chmod %s: %w", tmp, err)
	}
	if err = os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}
