package vault

import (
	"fmt"
	"strings"
)

// NormalizePath removes leading and trailing slashes from a path.
func NormalizePath(path string) string {
	return strings.Trim(path, "/")
}

// JoinPath joins non-empty path components with slashes.
func JoinPath(parts ...string) string {
	nonEmpty := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			nonEmpty = append(nonEmpty, strings.Trim(p, "/"))
		}
	}
	return strings.Join(nonEmpty, "/")
}

// ValidatePath rejects empty paths and traversal sequences.
func ValidatePath(path string) error {
	if NormalizePath(path) == "" {
		return fmt.Errorf("%w: empty path", ErrInvalidPath)
	}
	if strings.Contains(path, "..") {
		return fmt.Errorf("%w: %q contains a traversal sequence", ErrInvalidPath, path)
	}
	return nil
}
