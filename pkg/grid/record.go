package grid

import (
	"net/url"
	"path"
	"strconv"
	"strings"
)

// SharedColumnKey is the directory that holds the squares of both column 1
// and column 2. Records found there alternate between the two columns.
const SharedColumnKey = "col1and2pics"

// columnPrefix precedes the column number in an ordinary column key.
const columnPrefix = "col"

// MaxColumn is the largest column number a "col<N>" key may name.
const MaxColumn = 10000

// Record is one artwork square as listed on the gallery page.
type Record struct {
	// ImagePath is the URL path of the full-resolution image.
	ImagePath string `json:"image_path"`
	// Label is the artist name taken from the image alt text.
	Label string `json:"label"`
	// DetailURL is the absolute URL of the artist page.
	DetailURL string `json:"detail_url"`
}

// ColumnKey returns the lower-cased path segment immediately preceding the
// file name of imagePath, e.g. "col103" for
// "Squares_images/col_101_to_110/COL103/Monica-Mays.jpg".
// Percent-escapes are decoded first. An empty string is returned if the path
// has no directory component.
func ColumnKey(imagePath string) string {
	p := imagePath
	if u, err := url.Parse(imagePath); err == nil && u.Path != "" {
		p = u.Path
	} else if dec, err := url.PathUnescape(imagePath); err == nil {
		p = dec
	}
	dir := path.Dir(strings.TrimSuffix(p, "/"))
	if dir == "." || dir == "/" {
		return ""
	}
	return strings.ToLower(path.Base(dir))
}

// parseColumnKey parses an ordinary "col<N>" key into N. N is plain
// decimal digits without sign or leading zero, at most MaxColumn.
func parseColumnKey(key string) (int, bool) {
	digits, ok := strings.CutPrefix(key, columnPrefix)
	if !ok || digits == "" || digits[0] == '0' {
		return 0, false
	}
	for _, ch := range digits {
		if ch < '0' || ch > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(digits)
	if err != nil || n > MaxColumn {
		return 0, false
	}
	return n, true
}
