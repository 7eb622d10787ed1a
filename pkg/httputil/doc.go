// Package httputil provides retry helpers for the gallery fetcher.
//
// [Retry] re-runs an operation with exponential backoff while it keeps
// failing with a [RetryableError]. The fetcher wraps transient failures in
// RetryableError:
//
//   - network errors and timeouts
//   - 5xx server errors
//   - 429 rate limit responses
//
// Anything else, such as a 404 for an artwork image, is returned at once.
//
//	err := httputil.RetryWithBackoff(ctx, func() error {
//	    return fetchOnce(ctx, url)
//	})
//
// Defaults: 3 attempts, 1 second initial delay doubling after each failure.
// [ParseRetryAfter] reads the Retry-After header of a 429 response so the
// caller can honour a longer server-requested delay.
package httputil
