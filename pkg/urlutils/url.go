// Package urlutils provides URL and common helper functions.
package urlutils

import (
	"net/url"
	"strings"
)

// IsValidURL checks if a URL is valid
func IsValidURL(urlStr string) bool {
	u, err := url.Parse(urlStr)
	return err == nil && u.Scheme != "" && u.Host != ""
}

// StripScheme removes a leading http:// or https:// from a URL, leaving the bare host and path.
// Values without a scheme are returned unchanged, so stripping is idempotent.
func StripScheme(rawURL string) string {
	lower := strings.ToLower(rawURL)
	switch {
	case strings.HasPrefix(lower, "https://"):
		return rawURL[len("https://"):]
	case strings.HasPrefix(lower, "http://"):
		return rawURL[len("http://"):]
	}
	return rawURL
}

// ResolveURL resolves a relative URL against a base URL
// If the URL is already absolute, it returns it unchanged
func ResolveURL(baseURL, relativeURL string) (string, error) {
	// Parse the relative URL
	rel, err := url.Parse(relativeURL)
	if err != nil {
		return "", err
	}

	// If it's already absolute, return as-is
	if rel.IsAbs() {
		return relativeURL, nil
	}

	// Parse the base URL
	base, err := url.Parse(baseURL)
	if err != nil {
		return "", err
	}

	// Resolve the relative URL against the base
	resolved := base.ResolveReference(rel)
	return resolved.String(), nil
}

// JoinPath appends an endpoint path to a base URL, keeping any path prefix on the base.
func JoinPath(baseURL, endpoint string) (string, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return "", err
	}
	return base.JoinPath(endpoint).String(), nil
}
