// Package target describes deployment targets: a named destination whose
// location is either inherited from the workspace default or resolved from a
// possibly-relative path.
package target

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"autodeploy/internal/security"
)

// ErrInvalidPath is matched (via errors.Is) by every InvalidPathError.
var ErrInvalidPath = errors.New("invalid target path")

// InvalidPathError reports a target path that cannot be resolved to a valid
// absolute location.
type InvalidPathError struct {
	Path   string
	Base   string
	Reason string
}

func (e *InvalidPathError) Error() string {
	if e.Base == "" {
		return fmt.Sprintf("invalid target path %q: %s", e.Path, e.Reason)
	}
	return fmt.Sprintf("invalid target path %q (base %q): %s", e.Path, e.Base, e.Reason)
}

// Is makes errors.Is(err, ErrInvalidPath) succeed.
func (e *InvalidPathError) Is(target error) bool {
	return target == ErrInvalidPath
}

// Info is a deployment target as confirmed by a view.
// It is a value type; copies are independent.
type Info struct {
	Name    string `json:"name" yaml:"name"`
	Inherit bool   `json:"inherit" yaml:"inherit"`
	Path    string `json:"path" yaml:"path"`
}

// New builds a validated Info.
func New(name, path string, inherit bool) (Info, error) {
	info := Info{Name: name, Path: path, Inherit: inherit}
	if err := info.Validate(); err != nil {
		return Info{}, err
	}
	return info, nil
}

// Validate checks the target name.
func (i Info) Validate() error {
	if err := security.ValidateName(i.Name); err != nil {
		return fmt.Errorf("invalid target name %q: %w", i.Name, err)
	}
	return nil
}

// Resolve returns the absolute location of the target. An absolute Path is
// returned unchanged; a relative one is joined to basePath and cleaned.
//
// Resolve is pure. It succeeds for inherited targets too; whether the result
// may be remembered is the caller's decision.
func (i Info) Resolve(basePath string) (string, error) {
	if strings.TrimSpace(i.Path) == "" {
		return "", &InvalidPathError{Path: i.Path, Base: basePath, Reason: "path is empty"}
	}
	if strings.ContainsRune(i.Path, 0) {
		return "", &InvalidPathError{Path: i.Path, Base: basePath, Reason: "path contains a NUL byte"}
	}

	if filepath.IsAbs(i.Path) {
		return i.Path, nil
	}

	if strings.TrimSpace(basePath) == "" {
		return "", &InvalidPathError{Path: i.Path, Reason: "relative path needs a base directory"}
	}
	if strings.ContainsRune(basePath, 0) {
		return "", &InvalidPathError{Path: i.Path, Base: basePath, Reason: "base contains a NUL byte"}
	}
	if !filepath.IsAbs(basePath) {
		return "", &InvalidPathError{Path: i.Path, Base: basePath, Reason: "base directory must be absolute"}
	}

	resolved := filepath.Clean(filepath.Join(basePath, filepath.FromSlash(i.Path)))
	if !filepath.IsAbs(resolved) {
		return "", &InvalidPathError{Path: i.Path, Base: basePath, Reason: "resolved path is not absolute"}
	}
	return resolved, nil
}

// String renders the target for log lines and prompts.
func (i Info) String() string {
	if i.Inherit {
		return i.Name + " (inherited)"
	}
	return fmt.Sprintf("%s -> %s", i.Name, i.Path)
}
