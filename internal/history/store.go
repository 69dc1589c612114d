package history

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"autodeploy/internal/security"
)

// Store loads history once at startup and persists it after every change.
// Durability is entirely the store's concern.
type Store interface {
	Load(ctx context.Context) (Locations, error)
	Persist(ctx context.Context, locations Locations) error
	Close() error
}

// Supported history backends.
const (
	BackendYAML   = "yaml"
	BackendSQLite = "sqlite"
)

// OpenStore creates the store for backend at path, creating the parent
// directory when needed.
func OpenStore(backend, path string) (Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("history path is empty")
	}
	if err := security.CreateSecureDir(filepath.Dir(path), security.PermDirectory); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", BackendYAML:
		return NewYAMLStore(path), nil
	case BackendSQLite:
		return NewSQLiteStore(path)
	default:
		return nil, fmt.Errorf("unknown history backend %q (expected %q or %q)", backend, BackendYAML, BackendSQLite)
	}
}
