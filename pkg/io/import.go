package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/openzoom/squaregrid/pkg/grid"
)

// ReadJSON decodes a record file from r.
//
// The input must be an object with a "records" array; see the package
// documentation for the format. Records are returned in file order. A
// record without an image path is rejected, since the resolver could not
// place it.
//
// ReadJSON does not close r.
func ReadJSON(r io.Reader) (source string, records []grid.Record, err error) {
	var data recordFile
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return "", nil, fmt.Errorf("decode: %w", err)
	}
	for i, rec := range data.Records {
		if rec.ImagePath == "" {
			return "", nil, fmt.Errorf("record %d (%q): missing image_path", i, rec.Label)
		}
	}
	return data.Source, data.Records, nil
}

// ImportJSON reads the record file at path.
func ImportJSON(path string) (string, []grid.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadJSON(f)
}
