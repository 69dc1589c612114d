// Package view implements the interactive step of a deployment: asking for
// a target, copying build output there and reporting the confirmed target
// back to the orchestrator.
package view

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"autodeploy/internal/deployment"
	"autodeploy/internal/project"
	"autodeploy/internal/target"
)

const (
	namePromptPrefix     = "Target name"
	locationPromptPrefix = "Location for"
	inheritPromptPrefix  = "Inherit the workspace target"
)

// HistoryReader is the read side of the location history.
type HistoryReader interface {
	LocationsFor(name string) []string
	Names() []string
}

// Copier copies one project's output to an absolute destination.
type Copier interface {
	CopyOutput(ctx context.Context, proj *project.Project, destination string) (*deployment.CopyResult, error)
}

// Deps are the collaborators shared by both view variants.
type Deps struct {
	Projects      *project.Registry
	History       HistoryReader
	Prompter      Prompter
	Copier        Copier
	BasePath      string
	DefaultTarget *project.TargetConfig

	// OnCopied is called after every successful copy.
	OnCopied func(*deployment.CopyResult)
}

// NewFactory returns a deployment.ViewFactory building terminal views.
func NewFactory(deps Deps) deployment.ViewFactory {
	return func(kind deployment.Workflow, selection project.Selection) (deployment.View, error) {
		projects, err := deps.Projects.Resolve(selection)
		if err != nil {
			return nil, err
		}
		switch kind {
		case deployment.WorkflowMulti:
			return NewMultiProjectView(deps, projects), nil
		case deployment.WorkflowSingle:
			if len(projects) != 1 {
				return nil, fmt.Errorf("single project view needs exactly one project, got %d", len(projects))
			}
			return NewSingleProjectView(deps, projects[0]), nil
		default:
			return nil, fmt.Errorf("unknown workflow %q", kind)
		}
	}
}

// modal holds the prompting and copying shared by both variants.
type modal struct {
	deps     Deps
	projects []*project.Project
	label    string

	nameSuggestions []string
}

func (m *modal) loadNames(preferred []string) {
	seen := make(map[string]struct{})
	m.nameSuggestions = m.nameSuggestions[:0]
	add := func(name string) {
		if name == "" {
			return
		}
		if _, ok := seen[name]; ok {
			return
		}
		seen[name] = struct{}{}
		m.nameSuggestions = append(m.nameSuggestions, name)
	}
	for _, name := range preferred {
		add(name)
	}
	if m.deps.History != nil {
		for _, name := range m.deps.History.Names() {
			add(name)
		}
	}
}

func (m *modal) show(ctx context.Context, nested bool) (deployment.Result, error) {
	info, err := m.askTarget(ctx)
	if err != nil {
		if errors.Is(err, ErrCancelled) {
			return deployment.Cancelled(), nil
		}
		return deployment.Result{}, err
	}

	location, err := info.Resolve(m.deps.BasePath)
	if err != nil {
		// Nothing to copy to; the orchestrator reports the bad path
		return deployment.Result{Target: info, Confirmed: true}, nil
	}

	ok, err := m.deps.Prompter.Confirm(ctx, fmt.Sprintf("Deploy %s to %s?", m.label, location))
	if err != nil {
		if errors.Is(err, ErrCancelled) {
			return deployment.Cancelled(), nil
		}
		return deployment.Result{}, err
	}
	if !ok {
		return deployment.Cancelled(), nil
	}

	for _, proj := range m.projects {
		destination := location
		if nested {
			destination = filepath.Join(location, proj.Name)
		}
		result, err := m.deps.Copier.CopyOutput(ctx, proj, destination)
		if err != nil {
			return deployment.Result{}, fmt.Errorf("failed to deploy project '%s': %w", proj.Name, err)
		}
		if m.deps.OnCopied != nil {
			m.deps.OnCopied(result)
		}
	}

	return deployment.Result{Target: info, Confirmed: true}, nil
}

func (m *modal) askTarget(ctx context.Context) (target.Info, error) {
	if def := m.deps.DefaultTarget; def != nil {
		inherit, err := m.deps.Prompter.Confirm(ctx,
			fmt.Sprintf("%s '%s' (%s)?", inheritPromptPrefix, def.Name, def.Path))
		if err != nil {
			return target.Info{}, err
		}
		if inherit {
			return target.New(def.Name, def.Path, true)
		}
	}

	name, err := m.deps.Prompter.Input(ctx,
		fmt.Sprintf("%s for %s", namePromptPrefix, m.label),
		m.nameSuggestions,
		func(s string) error {
			return target.Info{Name: strings.TrimSpace(s)}.Validate()
		})
	if err != nil {
		return target.Info{}, err
	}
	name = strings.TrimSpace(name)

	var locations []string
	if m.deps.History != nil {
		locations = m.deps.History.LocationsFor(name)
	}
	path, err := m.deps.Prompter.Input(ctx,
		fmt.Sprintf("%s '%s'", locationPromptPrefix, name),
		locations,
		func(s string) error {
			if strings.TrimSpace(s) == "" {
				return errors.New("location cannot be empty")
			}
			return nil
		})
	if err != nil {
		return target.Info{}, err
	}

	return target.New(name, strings.TrimSpace(path), false)
}

// SingleProjectView deploys one project straight into the target location.
type SingleProjectView struct {
	modal
	project *project.Project
}

// NewSingleProjectView creates a view for proj.
func NewSingleProjectView(deps Deps, proj *project.Project) *SingleProjectView {
	return &SingleProjectView{
		modal: modal{
			deps:     deps,
			projects: []*project.Project{proj},
			label:    fmt.Sprintf("project '%s'", proj.Name),
		},
		project: proj,
	}
}

// LoadData suggests the project's configured target first, then every
// target name from history.
func (v *SingleProjectView) LoadData(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	v.loadNames([]string{v.project.Target})
	return nil
}

// ShowModal prompts for the target and copies the project's output.
func (v *SingleProjectView) ShowModal(ctx context.Context) (deployment.Result, error) {
	return v.show(ctx, false)
}

// MultiProjectView deploys several projects into one target, each into a
// subdirectory named after the project.
type MultiProjectView struct {
	modal
}

// NewMultiProjectView creates a view for projects.
func NewMultiProjectView(deps Deps, projects []*project.Project) *MultiProjectView {
	return &MultiProjectView{
		modal: modal{
			deps:     deps,
			projects: projects,
			label:    fmt.Sprintf("%d projects", len(projects)),
		},
	}
}

// LoadData suggests target names configured on any selected project, then
// every target name from history.
func (v *MultiProjectView) LoadData(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	preferred := make([]string, 0, len(v.projects))
	for _, proj := range v.projects {
		preferred = append(preferred, proj.Target)
	}
	v.loadNames(preferred)
	return nil
}

// ShowModal prompts for the target and copies every project's output.
func (v *MultiProjectView) ShowModal(ctx context.Context) (deployment.Result, error) {
	return v.show(ctx, true)
}
