// Package cache stores fetched bytes between runs.
//
// The gallery page and every artwork image are fetched over HTTP. A run
// that is interrupted, or re-run with different layout settings, should not
// download them again, so the fetcher consults a [Cache] first.
//
// Three backends are provided:
//
//   - [FileCache]: one file per entry under a local directory (CLI default)
//   - [RedisCache]: a shared Redis instance, for several builders on one site
//   - [NullCache]: stores nothing (caching disabled)
//
// Keys come from a [Keyer] so every backend agrees on the key layout.
package cache

import (
	"context"
	"time"
)

// Default TTLs.
const (
	// PageTTL bounds how long a fetched gallery page is reused.
	PageTTL = 24 * time.Hour

	// ImageTTL bounds how long a fetched artwork image is reused. Artwork
	// changes rarely; a week keeps repeated builds off the network.
	ImageTTL = 7 * 24 * time.Hour
)

// Cache is a byte store with per-entry expiry.
type Cache interface {
	// Get returns the data stored under key. A miss is not an error:
	// it returns (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Keyer builds cache keys.
type Keyer interface {
	// HTTPKey is the key of a raw HTTP response body.
	HTTPKey(namespace, key string) string

	// PageKey is the key of the gallery page at url.
	PageKey(url string) string

	// ImageKey is the key of the artwork image at url.
	ImageKey(url string) string
}

// DefaultKeyer is the standard key layout.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// HTTPKey returns "http:<namespace>:<key>".
func (DefaultKeyer) HTTPKey(namespace, key string) string {
	return "http:" + namespace + ":" + key
}

// PageKey returns a hashed page key; URLs can exceed backend key limits.
func (DefaultKeyer) PageKey(url string) string {
	return urlKey("page", url)
}

// ImageKey returns a hashed image key.
func (DefaultKeyer) ImageKey(url string) string {
	return urlKey("image", url)
}
