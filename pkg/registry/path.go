package registry

import (
	"fmt"
	"regexp"
	"strings"
)

// validPath matches the characters accepted in prefix-match paths.
var validPath = regexp.MustCompile(`^[0-9a-zA-Z/\-._~]*$`)

// splitPath validates path and returns its non-empty segments.
// "", "/" and "//" all name the root and yield no segments.
func splitPath(path string) ([]string, error) {
	if !validPath.MatchString(path) {
		return nil, fmt.Errorf("%w: %q contains characters outside [0-9a-zA-Z/-._~]", ErrInvalidPath, path)
	}
	return segments(path), nil
}

// segments splits path without validating it.
func segments(path string) []string {
	parts := strings.Split(path, "/")
	segs := parts[:0]
	for _, part := range parts {
		if part != "" {
			segs = append(segs, part)
		}
	}
	return segs
}

// joinPath rebuilds the canonical form of a path from its segments.
func joinPath(segs []string) string {
	return "/" + strings.Join(segs, "/")
}
