package errors

import (
	"net/url"
	"strings"
	"unicode"
)

const maxEntityIDLength = 256

// ValidateEntityID checks an operator-typed identifier before it becomes a
// backend path segment. Empty, overlong, control-character and
// path-like identifiers are rejected.
func ValidateEntityID(id string) error {
	switch {
	case strings.TrimSpace(id) == "":
		return New(ErrCodeInvalidQuery, "identifier cannot be empty")
	case len(id) > maxEntityIDLength:
		return New(ErrCodeInvalidQuery, "identifier too long (max %d characters)", maxEntityIDLength)
	case strings.IndexFunc(id, unicode.IsControl) >= 0:
		return New(ErrCodeInvalidQuery, "identifier contains control characters")
	}
	for _, bad := range []string{"..", "/", "\\"} {
		if strings.Contains(id, bad) {
			return New(ErrCodeInvalidQuery, "identifier contains %q", bad)
		}
	}
	return nil
}

// ValidateURL accepts absolute http and https URLs with a host.
func ValidateURL(raw string) error {
	if raw == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return Wrap(ErrCodeInvalidInput, err, "invalid URL %q", raw)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return New(ErrCodeInvalidInput, "URL must use http or https: %q", raw)
	}
	if u.Host == "" {
		return New(ErrCodeInvalidInput, "URL has no host: %q", raw)
	}
	return nil
}
