package cache

import (
	"context"
	"time"
)

// NullCache backs --no-cache: every Get misses and writes are dropped, so
// each build fetches the page and all images again.
type NullCache struct{}

// NewNullCache returns the cache used when caching is off.
func NewNullCache() Cache { return &NullCache{} }

func (*NullCache) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
func (*NullCache) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (*NullCache) Delete(context.Context, string) error { return nil }
func (*NullCache) Close() error { return nil }
