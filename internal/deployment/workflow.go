package deployment

import (
	"context"

	"autodeploy/internal/project"
	"autodeploy/internal/target"
)

// Workflow identifies which view variant handles a run.
type Workflow string

const (
	WorkflowSingle Workflow = "single"
	WorkflowMulti  Workflow = "multi"
)

// ChooseWorkflow returns WorkflowMulti for two or more selected projects and
// WorkflowSingle otherwise.
func ChooseWorkflow(selection project.Selection) Workflow {
	if selection.Len() >= 2 {
		return WorkflowMulti
	}
	return WorkflowSingle
}

// Result is what a view hands back once the user is done with it.
// Confirmed=false is a cancellation; Target is meaningless in that case.
type Result struct {
	Target     target.Info
	Confirmed  bool
	NewProject bool // target belongs to a project configured during this run
}

// Cancelled is the result a view returns when the user backs out.
func Cancelled() Result {
	return Result{}
}

// View is the interactive step of a workflow. ShowModal blocks until the user
// confirms or cancels, or ctx is done.
type View interface {
	LoadData(ctx context.Context) error
	ShowModal(ctx context.Context) (Result, error)
}

// ViewFactory builds the view for a workflow kind and the projects it covers.
type ViewFactory func(kind Workflow, selection project.Selection) (View, error)

// SelectionProvider reports what the user currently has selected.
type SelectionProvider interface {
	SelectedProjects() project.Selection
	ActiveProject() (string, bool)
}

// Notifier presents messages to the user. Implementations must not block
// indefinitely.
type Notifier interface {
	Warn(message string)
	Error(message string)
}

// DiagnosticLog records unexpected failures.
type DiagnosticLog interface {
	WriteError(message string)
}

// Recorder stores a confirmed absolute location for a target name.
type Recorder interface {
	RecordLocation(ctx context.Context, name, absolutePath string) error
}
