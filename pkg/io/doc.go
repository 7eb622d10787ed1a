// Package io provides JSON import and export of extracted records and atomic
// file output for the generated artifacts.
//
// # JSON Format
//
// Records are stored as a single object holding the source page and the
// records in document order:
//
//	{
//	  "source": "http://imaginationsquared.com/grid.html",
//	  "records": [
//	    {
//	      "image_path": "Squares_images/col%201%20to%2010/col1and2pics/Ann-Lee.jpg",
//	      "label": "Ann Lee",
//	      "detail_url": "http://imaginationsquared.com/bios/col_1_to_10/col1and2pics/Ann%20Lee.html"
//	    }
//	  ]
//	}
//
// Order matters: the resolver assigns rows in the order records appear, so
// [ReadJSON] preserves it exactly.
//
// # Atomic Output
//
// [WriteFileAtomic] writes to a temporary file in the destination directory
// and renames it into place only after the writer callback succeeds. A
// failed run therefore never leaves a truncated descriptor or canvas that a
// later run would mistake for a finished artifact.
package io
