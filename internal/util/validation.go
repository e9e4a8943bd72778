package util

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var resourceNameRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_-]*$`)

// ValidateURL checks that a string is a valid absolute http/https URL.
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return NewValidationError("url", rawURL, "URL cannot be empty")
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return NewValidationError("url", rawURL, fmt.Sprintf("invalid URL: %v", err))
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return NewValidationError("url", rawURL, "URL scheme must be http or https")
	}
	if u.Host == "" {
		return NewValidationError("url", rawURL, "URL must have a host")
	}
	return nil
}

// ValidateResourceName checks that a collection name is safe to embed in
// an upstream path segment.
func ValidateResourceName(name string) error {
	if name == "" {
		return NewValidationError("resource", name, "resource name cannot be empty")
	}
	if strings.Contains(name, "/") || strings.Contains(name, "..") {
		return NewValidationError("resource", name, "resource name cannot contain path separators")
	}
	if !resourceNameRegex.MatchString(name) {
		return NewValidationError("resource", name, "resource name contains invalid characters")
	}
	return nil
}
