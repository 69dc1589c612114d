package security

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	// Target and project names end up in file names, SQL rows and URLs.
	namePattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_.-]*$`)
)

// MaxNameLength caps target and project identifiers.
const MaxNameLength = 128

// ValidateName ensures a target or project name is safe for use in paths and URLs.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("name cannot be empty")
	}
	if len(name) > MaxNameLength {
		return fmt.Errorf("name is longer than %d characters", MaxNameLength)
	}
	if strings.HasPrefix(name, "-") || strings.HasPrefix(name, ".") {
		return fmt.Errorf("name cannot start with '-' or '.'")
	}
	if !namePattern.MatchString(name) {
		return fmt.Errorf("name contains invalid characters (only a-z, A-Z, 0-9, _, ., - allowed)")
	}
	return nil
}

// ContainedPath reports the cleaned target path if it lies within basePath.
// The check is lexical; neither path has to exist.
func ContainedPath(basePath, targetPath string) (string, error) {
	absBase, err := filepath.Abs(basePath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve base path: %w", err)
	}

	absTarget, err := filepath.Abs(targetPath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve target path: %w", err)
	}

	relPath, err := filepath.Rel(absBase, absTarget)
	if err != nil || relPath == ".." || strings.HasPrefix(relPath, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path traversal detected: target '%s' is outside base '%s'", absTarget, absBase)
	}

	return absTarget, nil
}

// SanitizePath ensures a path is absolute and doesn't contain traversal attempts.
func SanitizePath(path string) (string, error) {
	if !filepath.IsAbs(path) {
		return "", fmt.Errorf("path must be absolute: %s", path)
	}

	// Check for .. before cleaning (filepath.Clean removes them)
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == ".." {
			return "", fmt.Errorf("path contains traversal elements: %s", path)
		}
	}

	return filepath.Clean(path), nil
}
