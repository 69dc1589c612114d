package project

import (
	"fmt"
	"os"
	"strings"

	"github.com/kballard/go-shellquote"
)

// Environment variables read by EnvSelection. A host (editor, build script)
// exports them before invoking the CLI.
const (
	EnvSelected = "AUTODEPLOY_SELECTED"
	EnvActive   = "AUTODEPLOY_ACTIVE"
)

// Selection is an ordered set of selected project names.
type Selection struct {
	names []string
}

// NewSelection builds a selection, trimming names and dropping blanks and
// duplicates while keeping first-seen order.
func NewSelection(names ...string) Selection {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return Selection{names: out}
}

// Len returns the number of selected projects.
func (s Selection) Len() int {
	return len(s.names)
}

// Names returns a copy of the selected names in order.
func (s Selection) Names() []string {
	return append([]string{}, s.names...)
}

// Contains reports whether name is selected.
func (s Selection) Contains(name string) bool {
	for _, n := range s.names {
		if n == name {
			return true
		}
	}
	return false
}

// String renders the selection shell-quoted, as EnvSelected expects it.
func (s Selection) String() string {
	return shellquote.Join(s.names...)
}

// StaticSelection is a fixed selection, e.g. from CLI arguments or an HTTP request.
type StaticSelection struct {
	Selected Selection
	Active   string
}

// SelectedProjects returns the selection.
func (s StaticSelection) SelectedProjects() Selection {
	return s.Selected
}

// ActiveProject returns the active project, if any.
func (s StaticSelection) ActiveProject() (string, bool) {
	active := strings.TrimSpace(s.Active)
	return active, active != ""
}

// ParseSelection splits a shell-quoted project list such as
// `api "web app" worker`.
func ParseSelection(raw string) (Selection, error) {
	parts, err := shellquote.Split(raw)
	if err != nil {
		return Selection{}, fmt.Errorf("failed to parse project selection %q: %w", raw, err)
	}
	return NewSelection(parts...), nil
}

// NewEnvSelection reads EnvSelected and EnvActive through lookup
// (os.LookupEnv when nil).
func NewEnvSelection(lookup func(string) (string, bool)) (StaticSelection, error) {
	if lookup == nil {
		lookup = os.LookupEnv
	}

	var sel StaticSelection
	if raw, ok := lookup(EnvSelected); ok {
		parsed, err := ParseSelection(raw)
		if err != nil {
			return StaticSelection{}, err
		}
		sel.Selected = parsed
	}
	if active, ok := lookup(EnvActive); ok {
		sel.Active = strings.TrimSpace(active)
	}
	return sel, nil
}
