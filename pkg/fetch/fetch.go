// Package fetch downloads the gallery page and its artwork images.
//
// [HTTPFetcher] wraps a resty client with a byte cache and retries:
// transient failures (network errors, 5xx, 429) are retried with backoff,
// a 404 is reported as [ErrNotFound] at once, and successful bodies are
// stored in the cache so later runs work offline.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/openzoom/squaregrid/pkg/buildinfo"
	"github.com/openzoom/squaregrid/pkg/cache"
	sgerrors "github.com/openzoom/squaregrid/pkg/errors"
	"github.com/openzoom/squaregrid/pkg/httputil"
	"github.com/openzoom/squaregrid/pkg/observability"
)

const (
	// DefaultTimeout bounds a single request.
	DefaultTimeout = 30 * time.Second

	defaultAttempts = 3
	defaultDelay    = time.Second
	defaultMaxWait  = time.Minute
)

var (
	// ErrNotFound is returned when the server answers 404.
	ErrNotFound = errors.New("resource not found")

	// ErrNetwork is returned for transport failures and unexpected statuses.
	ErrNetwork = errors.New("network error")
)

// Fetcher returns the body at a URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Func adapts a function to Fetcher.
type Func func(ctx context.Context, url string) ([]byte, error)

// Fetch calls f.
func (f Func) Fetch(ctx context.Context, url string) ([]byte, error) { return f(ctx, url) }

// Options configures an HTTPFetcher.
type Options struct {
	Cache   cache.Cache // nil disables caching
	Keyer   cache.Keyer // nil means cache.DefaultKeyer
	Refresh bool        // skip cache reads; fresh bodies are still stored
	Timeout time.Duration

	// Attempts and Delay tune retries; zero values mean 3 and 1s.
	Attempts int
	Delay    time.Duration

	// MaxWait caps how long a Retry-After header may stall a retry.
	// Zero means one minute.
	MaxWait time.Duration
}

// HTTPFetcher fetches over HTTP with caching and retries.
//
// The zero-configuration fetcher returned by New caches under page keys
// with cache.PageTTL; use Images for artwork downloads.
type HTTPFetcher struct {
	client   *resty.Client
	cache    cache.Cache
	keyer    cache.Keyer
	refresh  bool
	attempts int
	delay    time.Duration
	maxWait  time.Duration

	kind string
	key  func(string) string
	ttl  time.Duration
}

// New returns a page fetcher.
func New(opts Options) *HTTPFetcher {
	if opts.Cache == nil {
		opts.Cache = cache.NewNullCache()
	}
	if opts.Keyer == nil {
		opts.Keyer = cache.NewDefaultKeyer()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Attempts <= 0 {
		opts.Attempts = defaultAttempts
	}
	if opts.Delay <= 0 {
		opts.Delay = defaultDelay
	}
	if opts.MaxWait <= 0 {
		opts.MaxWait = defaultMaxWait
	}

	client := resty.New().
		SetTimeout(opts.Timeout).
		SetHeader("User-Agent", buildinfo.UserAgent())

	return &HTTPFetcher{
		client:   client,
		cache:    opts.Cache,
		keyer:    opts.Keyer,
		refresh:  opts.Refresh,
		attempts: opts.Attempts,
		delay:    opts.Delay,
		maxWait:  opts.MaxWait,
		kind:     "page",
		key:      opts.Keyer.PageKey,
		ttl:      cache.PageTTL,
	}
}

// Images returns a fetcher sharing f's client and cache that stores
// bodies under image keys with cache.ImageTTL.
func (f *HTTPFetcher) Images() *HTTPFetcher {
	img := *f
	img.kind = "image"
	img.key = f.keyer.ImageKey
	img.ttl = cache.ImageTTL
	return &img
}

// Client exposes the underlying resty client, e.g. to set a transport in
// tests or extra headers.
func (f *HTTPFetcher) Client() *resty.Client { return f.client }

// Fetch returns the body at rawURL, from the cache when possible.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	key := f.key(rawURL)
	if !f.refresh {
		data, ok, err := f.cache.Get(ctx, key)
		if err == nil && ok {
			observability.Cache().OnCacheHit(ctx, f.kind)
			return data, nil
		}
		observability.Cache().OnCacheMiss(ctx, f.kind)
	}

	var body []byte
	err := httputil.Retry(ctx, f.attempts, f.delay, func() error {
		var err error
		body, err = f.get(ctx, rawURL)
		return err
	})
	if err != nil {
		return nil, err
	}

	if err := f.cache.Set(ctx, key, body, f.ttl); err == nil {
		observability.Cache().OnCacheSet(ctx, f.kind, len(body))
	}
	return body, nil
}

func (f *HTTPFetcher) get(ctx context.Context, rawURL string) ([]byte, error) {
	host, path := splitURL(rawURL)
	hooks := observability.HTTP()
	hooks.OnRequest(ctx, http.MethodGet, host, path)

	start := time.Now()
	resp, err := f.client.R().SetContext(ctx).Get(rawURL)
	if err != nil {
		hooks.OnError(ctx, http.MethodGet, host, path, err)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &httputil.RetryableError{Err: fmt.Errorf("%w: %v", ErrNetwork, err)}
	}
	hooks.OnResponse(ctx, http.MethodGet, host, path, resp.StatusCode(), time.Since(start))

	if err := f.checkStatus(rawURL, resp); err != nil {
		return nil, err
	}
	return resp.Body(), nil
}

func (f *HTTPFetcher) checkStatus(rawURL string, resp *resty.Response) error {
	code := resp.StatusCode()
	switch {
	case code == http.StatusOK:
		return nil
	case code == http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, rawURL)
	case code == http.StatusTooManyRequests:
		wait := httputil.ParseRetryAfter(resp.Header().Get("Retry-After"), time.Now())
		return &httputil.RetryableError{
			Err: &sgerrors.RateLimitedError{
				RetryAfter: int(wait / time.Second),
				URL:        rawURL,
			},
			After: min(wait, f.maxWait),
		}
	case code >= 500:
		return &httputil.RetryableError{Err: fmt.Errorf("%w: status %d: %s", ErrNetwork, code, rawURL)}
	default:
		return fmt.Errorf("%w: status %d: %s", ErrNetwork, code, rawURL)
	}
}

func splitURL(rawURL string) (host, path string) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", rawURL
	}
	return u.Host, u.Path
}
