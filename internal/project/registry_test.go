package project

import (
	"testing"
)

func testRegistry() *Registry {
	return NewRegistry(map[string]*Project{
		"web":    {Name: "web", Path: "/repo/web"},
		"api":    {Name: "api", Path: "/repo/api"},
		"worker": {Name: "worker", Path: "/repo/worker"},
	})
}

func TestRegistry_Get(t *testing.T) {
	r := testRegistry()

	p, err := r.Get("api")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if p.Path != "/repo/api" {
		t.Errorf("Get() returned %q", p.Path)
	}

	if _, err := r.Get("missing"); err == nil {
		t.Error("Get() should fail for unknown project")
	}
}

func TestRegistry_ListSorted(t *testing.T) {
	r := testRegistry()

	got := r.List()
	want := []string{"api", "web", "worker"}
	if len(got) != len(want) {
		t.Fatalf("List() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("List()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	if r.Count() != 3 {
		t.Errorf("Count() = %d, want 3", r.Count())
	}
}

func TestRegistry_Resolve(t *testing.T) {
	r := testRegistry()

	projects, err := r.Resolve(NewSelection("worker", "api"))
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if len(projects) != 2 || projects[0].Name != "worker" || projects[1].Name != "api" {
		t.Errorf("Resolve() should keep selection order, got %v", projects)
	}

	if _, err := r.Resolve(NewSelection("api", "nope")); err == nil {
		t.Error("Resolve() should fail when a selected project is unknown")
	}
}

func TestNewRegistry_Nil(t *testing.T) {
	r := NewRegistry(nil)
	if r.Count() != 0 {
		t.Errorf("Count() = %d, want 0", r.Count())
	}
}
