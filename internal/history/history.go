// Package history remembers, per deployment target, the absolute locations
// previously deployed to so they can be offered again.
package history

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
)

// ErrInvalidLocation is returned when RecordLocation preconditions fail.
var ErrInvalidLocation = errors.New("invalid location")

// UpdateLocations returns seq with path moved (or inserted) at the front,
// truncated to limit entries. A limit of zero or less means unbounded.
// seq is never modified.
func UpdateLocations(seq []string, path string, limit int) []string {
	size := len(seq) + 1
	if limit > 0 && size > limit {
		size = limit
	}

	next := make([]string, 0, size)
	next = append(next, path)
	for _, entry := range seq {
		if limit > 0 && len(next) >= limit {
			break
		}
		if entry == path {
			continue
		}
		next = append(next, entry)
	}
	return next
}

// Manager owns the in-memory location history and persists it through a
// Store after every change.
//
// Deployments run one at a time, so writes are effectively single-writer.
// Manager still guards its map with a mutex because the HTTP boundary reads
// history from request goroutines.
type Manager struct {
	mu         sync.RWMutex
	locations  Locations
	maxEntries int
	store      Store
	logger     *slog.Logger
}

// NewManager loads history from store and returns a manager bound to it.
// A nil store keeps history in memory only. maxEntries <= 0 selects
// DefaultMaxEntries.
func NewManager(ctx context.Context, store Store, maxEntries int, logger *slog.Logger) (*Manager, error) {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	if logger == nil {
		logger = slog.Default()
	}

	locations := Locations{}
	if store != nil {
		loaded, err := store.Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load location history: %w", err)
		}
		for name, paths := range loaded {
			// Stored lists may predate a smaller bound or carry duplicates
			var cleaned []string
			for i := len(paths) - 1; i >= 0; i-- {
				cleaned = UpdateLocations(cleaned, paths[i], 0)
			}
			if len(cleaned) > maxEntries {
				cleaned = cleaned[:maxEntries]
			}
			if len(cleaned) > 0 {
				locations[name] = cleaned
			}
		}
	}

	return &Manager{
		locations:  locations,
		maxEntries: maxEntries,
		store:      store,
		logger:     logger,
	}, nil
}

// MaxEntries returns the per-target bound.
func (m *Manager) MaxEntries() int {
	return m.maxEntries
}

// RecordLocation puts the cleaned absolutePath at the front of name's history,
// evicting the oldest entries beyond the bound, then runs the store's persist hook.
//
// The caller resolves the path first and decides whether the target may be
// remembered at all; Manager has no notion of inherited targets.
func (m *Manager) RecordLocation(ctx context.Context, name, absolutePath string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: target name is empty", ErrInvalidLocation)
	}
	if strings.TrimSpace(absolutePath) == "" {
		return fmt.Errorf("%w: location for %q is empty", ErrInvalidLocation, name)
	}
	if !filepath.IsAbs(absolutePath) {
		return fmt.Errorf("%w: location %q for %q is not absolute", ErrInvalidLocation, absolutePath, name)
	}

	absolutePath = filepath.Clean(absolutePath)

	m.mu.Lock()
	m.locations[name] = UpdateLocations(m.locations[name], absolutePath, m.maxEntries)
	snapshot := m.locations.Clone()
	m.mu.Unlock()

	m.logger.Debug("Recorded target location", "target", name, "location", absolutePath)

	return m.persist(ctx, snapshot)
}

// LocationsFor returns a copy of name's history, most recent first.
// Unknown names yield an empty slice.
func (m *Manager) LocationsFor(name string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return append([]string{}, m.locations[name]...)
}

// Names returns the targets that have history, sorted.
func (m *Manager) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.locations.Names()
}

// Snapshot returns a deep copy of the whole history.
func (m *Manager) Snapshot() Locations {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.locations.Clone()
}

// Forget drops all history for name. It reports whether anything was removed.
func (m *Manager) Forget(ctx context.Context, name string) (bool, error) {
	m.mu.Lock()
	_, exists := m.locations[name]
	if !exists {
		m.mu.Unlock()
		return false, nil
	}
	delete(m.locations, name)
	snapshot := m.locations.Clone()
	m.mu.Unlock()

	if err := m.persist(ctx, snapshot); err != nil {
		return true, err
	}
	return true, nil
}

func (m *Manager) persist(ctx context.Context, snapshot Locations) error {
	if m.store == nil {
		return nil
	}
	if err := m.store.Persist(ctx, snapshot); err != nil {
		return fmt.Errorf("failed to persist location history: %w", err)
	}
	return nil
}
