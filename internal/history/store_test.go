package history

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestStores_PersistAndLoad(t *testing.T) {
	backends := []string{BackendYAML, BackendSQLite}

	for _, backend := range backends {
		t.Run(backend, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "state", "history."+backend)
			ctx := context.Background()

			store, err := OpenStore(backend, path)
			if err != nil {
				t.Fatalf("Failed to open store: %v", err)
			}

			empty, err := store.Load(ctx)
			if err != nil {
				t.Fatalf("Load() on fresh store error = %v", err)
			}
			if len(empty) != 0 {
				t.Errorf("Expected empty history, got %v", empty)
			}

			want := Locations{
				"staging": {"/repo/out/staging", "/srv/staging"},
				"prod":    {"/srv/prod"},
			}
			if err := store.Persist(ctx, want); err != nil {
				t.Fatalf("Persist() error = %v", err)
			}
			if err := store.Close(); err != nil {
				t.Fatalf("Close() error = %v", err)
			}

			// Reopen to prove the data is durable
			reopened, err := OpenStore(backend, path)
			if err != nil {
				t.Fatalf("Failed to reopen store: %v", err)
			}
			defer reopened.Close()

			got, err := reopened.Load(ctx)
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("Load() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestStores_PersistReplacesPreviousContent(t *testing.T) {
	for _, backend := range []string{BackendYAML, BackendSQLite} {
		t.Run(backend, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "history."+backend)
			ctx := context.Background()

			store, err := OpenStore(backend, path)
			if err != nil {
				t.Fatalf("Failed to open store: %v", err)
			}
			defer store.Close()

			if err := store.Persist(ctx, Locations{"old": {"/srv/old"}, "kept": {"/a", "/b"}}); err != nil {
				t.Fatalf("Persist() error = %v", err)
			}
			if err := store.Persist(ctx, Locations{"kept": {"/b"}}); err != nil {
				t.Fatalf("Persist() error = %v", err)
			}

			got, err := store.Load(ctx)
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if diff := cmp.Diff(Locations{"kept": {"/b"}}, got); diff != "" {
				t.Errorf("Load() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestManager_WithYAMLStore_SurvivesRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.yaml")
	ctx := context.Background()

	m := newTestManager(t, NewYAMLStore(path), 0)
	for _, p := range []string{"/srv/a", "/srv/b", "/srv/a"} {
		if err := m.RecordLocation(ctx, "staging", p); err != nil {
			t.Fatalf("RecordLocation() error = %v", err)
		}
	}

	restarted := newTestManager(t, NewYAMLStore(path), 0)
	if diff := cmp.Diff([]string{"/srv/a", "/srv/b"}, restarted.LocationsFor("staging")); diff != "" {
		t.Errorf("LocationsFor() after restart mismatch (-want +got):\n%s", diff)
	}
}

func TestYAMLStore_FileLayout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.yaml")
	store := NewYAMLStore(path)

	if err := store.Persist(context.Background(), Locations{"staging": {"/srv/staging"}}); err != nil {
		t.Fatalf("Persist() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read history file: %v", err)
	}
	content := string(data)
	for _, want := range []string{"locations:", "staging:", "- /srv/staging"} {
		if !strings.Contains(content, want) {
			t.Errorf("history file %q should contain %q", content, want)
		}
	}
}

func TestYAMLStore_InvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.yaml")
	if err := os.WriteFile(path, []byte("locations: [not, a, map"), 0640); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	if _, err := NewYAMLStore(path).Load(context.Background()); err == nil {
		t.Error("Expected parse error")
	}
}

func TestOpenStore_UnknownBackend(t *testing.T) {
	if _, err := OpenStore("redis", filepath.Join(t.TempDir(), "h")); err == nil {
		t.Error("Expected error for unknown backend")
	}
	if _, err := OpenStore(BackendYAML, ""); err == nil {
		t.Error("Expected error for empty path")
	}
}
