package project

import (
	"fmt"
	"sort"
	"sync"
)

// Registry manages the collection of loaded projects
type Registry struct {
	mu       sync.RWMutex
	projects map[string]*Project
}

// NewRegistry creates a new project registry
func NewRegistry(projects map[string]*Project) *Registry {
	if projects == nil {
		projects = make(map[string]*Project)
	}
	return &Registry{
		projects: projects,
	}
}

// Get retrieves a project by name
func (r *Registry) Get(name string) (*Project, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	project, exists := r.projects[name]
	if !exists {
		return nil, fmt.Errorf("project '%s' not found", name)
	}

	return project, nil
}

// Resolve maps every name in the selection to its project, in selection order.
func (r *Registry) Resolve(selection Selection) ([]*Project, error) {
	projects := make([]*Project, 0, selection.Len())
	for _, name := range selection.Names() {
		project, err := r.Get(name)
		if err != nil {
			return nil, err
		}
		projects = append(projects, project)
	}
	return projects, nil
}

// List returns all project names, sorted
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.projects))
	for name := range r.projects {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

// Count returns the number of projects
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.projects)
}
