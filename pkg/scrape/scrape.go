// Package scrape extracts artwork records from the gallery's grid page.
//
// The page is a flat list of <div class="square"> elements, each holding a
// link to the artist page and a thumbnail:
//
//	<div class="square">
//	    <a href="bios/col_111_to_col120/col112/Suvarna Shah.html">
//	        <img src="Squares_images/col 111 to 120/col112/Suvarna-ShahSM.jpg"
//	             alt="Suvarna Shah">
//	    </a>
//	</div>
//
// [Extract] turns those into [grid.Record] values in document order. The
// thumbnail name is rewritten to the full-resolution image and both paths
// are percent-escaped, since the page carries raw spaces.
package scrape

import (
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/openzoom/squaregrid/pkg/grid"
)

// Defaults describing the grid page markup.
const (
	DefaultSelector        = "div.square"
	DefaultThumbnailSuffix = "SM.jpg"
	DefaultImageSuffix     = ".jpg"
)

// DefaultSentinels are alt texts of squares that are not artwork: the cover
// square and the blank fillers.
var DefaultSentinels = []string{"The Grid", "blank"}

// Options controls extraction.
type Options struct {
	// BaseURL is prepended to link hrefs to form absolute detail URLs.
	BaseURL string
	// Selector matches the square containers.
	Selector string
	// Sentinels lists alt texts whose squares are dropped.
	Sentinels []string
	// ThumbnailSuffix is replaced by ImageSuffix to get the large image.
	ThumbnailSuffix string
	ImageSuffix     string
}

func (o *Options) setDefaults() {
	if o.Selector == "" {
		o.Selector = DefaultSelector
	}
	if o.Sentinels == nil {
		o.Sentinels = DefaultSentinels
	}
	if o.ThumbnailSuffix == "" {
		o.ThumbnailSuffix = DefaultThumbnailSuffix
	}
	if o.ImageSuffix == "" {
		o.ImageSuffix = DefaultImageSuffix
	}
}

// Stats counts what Extract saw.
type Stats struct {
	Squares   int // matched containers
	Dropped   int // sentinel squares
	NoImage   int // links without an image
	Extracted int
}

// Extract parses the grid page from r and returns its artwork records in
// document order.
func Extract(r io.Reader, opts Options) ([]grid.Record, Stats, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("parse html: %w", err)
	}
	return ExtractDocument(doc, opts)
}

// ExtractDocument is Extract over an already parsed document.
func ExtractDocument(doc *goquery.Document, opts Options) ([]grid.Record, Stats, error) {
	opts.setDefaults()
	sentinels := make(map[string]bool, len(opts.Sentinels))
	for _, s := range opts.Sentinels {
		sentinels[s] = true
	}

	var (
		records []grid.Record
		stats   Stats
		failed  error
	)
	doc.Find(opts.Selector).EachWithBreak(func(_ int, square *goquery.Selection) bool {
		stats.Squares++
		square.Find("a").EachWithBreak(func(_ int, a *goquery.Selection) bool {
			img := a.Find("img").First()
			if img.Length() == 0 {
				stats.NoImage++
				return true
			}
			alt, _ := img.Attr("alt")
			if sentinels[alt] {
				stats.Dropped++
				return true
			}
			src, _ := img.Attr("src")
			href, _ := a.Attr("href")
			rec, err := newRecord(src, alt, href, opts)
			if err != nil {
				failed = err
				return false
			}
			records = append(records, rec)
			return true
		})
		return failed == nil
	})
	if failed != nil {
		return nil, stats, failed
	}
	stats.Extracted = len(records)
	return records, stats, nil
}

func newRecord(src, alt, href string, opts Options) (grid.Record, error) {
	if src == "" {
		return grid.Record{}, fmt.Errorf("square %q has no image source", alt)
	}
	imagePath := EscapePath(strings.Replace(src, opts.ThumbnailSuffix, opts.ImageSuffix, 1))
	detail, err := ResolveURL(opts.BaseURL, EscapePath(href))
	if err != nil {
		return grid.Record{}, fmt.Errorf("square %q: detail url: %w", alt, err)
	}
	return grid.Record{
		ImagePath: imagePath,
		Label:     alt,
		DetailURL: detail,
	}, nil
}

// EscapePath percent-escapes characters a browser would escape in a link
// (spaces and the like) while keeping existing escapes and separators.
func EscapePath(p string) string {
	if dec, err := url.PathUnescape(p); err == nil {
		p = dec
	}
	return (&url.URL{Path: p}).EscapedPath()
}

// ResolveURL joins an escaped relative reference onto base. An empty base
// returns ref unchanged.
func ResolveURL(base, ref string) (string, error) {
	if base == "" {
		return ref, nil
	}
	b, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	if !strings.HasSuffix(b.Path, "/") {
		b.Path += "/"
	}
	r, err := url.Parse(ref)
	if err != nil {
		return "", err
	}
	return b.ResolveReference(r).String(), nil
}
