package errors

import (
	"net/url"
	"strings"
	"unicode"
)

// ValidateURL checks that rawURL is an absolute http or https URL with a
// host. It is applied to the gallery base URL.
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return Wrap(ErrCodeInvalidInput, err, "invalid URL %q", rawURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}
	if u.Host == "" {
		return New(ErrCodeInvalidInput, "URL must have a host")
	}
	return nil
}

// ValidatePagePath checks a page path relative to the base URL, such as
// "/grid.html".
//
// Rules:
//   - Path cannot be empty
//   - No control characters
//   - No path traversal sequences (..)
//   - No scheme or host
func ValidatePagePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "page path cannot be empty")
	}
	for _, r := range path {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "page path contains invalid characters")
		}
	}
	if strings.Contains(path, "..") {
		return New(ErrCodeInvalidPath, "page path cannot contain path traversal sequences (..)")
	}
	if strings.Contains(path, "://") || strings.HasPrefix(path, "//") {
		return New(ErrCodeInvalidPath, "page path must be relative to the base URL")
	}
	return nil
}

// ValidateName checks an artifact base name (descriptor, canvas, pyramid).
// It must be a plain file name: non-empty, not hidden, no separators.
func ValidateName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidName, "name cannot be empty")
	}
	if len(name) > 200 {
		return New(ErrCodeInvalidName, "name too long (max 200 characters)")
	}
	if strings.ContainsAny(name, "/\\") {
		return New(ErrCodeInvalidName, "name %q cannot contain path separators", name)
	}
	if strings.HasPrefix(name, ".") {
		return New(ErrCodeInvalidName, "name %q cannot be a hidden file", name)
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidName, "name contains invalid characters")
		}
	}
	return nil
}
