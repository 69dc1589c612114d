package deployment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"autodeploy/internal/project"
	"autodeploy/internal/target"
)

// State is a step of one deployment run.
type State string

const (
	StateIdle             State = "idle"
	StateSelectionChecked State = "selection_checked"
	StateWorkflowChosen   State = "workflow_chosen"
	StateTargetObtained   State = "target_obtained"
	StateHistoryUpdated   State = "history_updated"
	StateDone             State = "done"
	StateAborted          State = "aborted"
)

// workflowLockKey serializes runs that share a LockManager.
const workflowLockKey = "deploy"

// Outcome summarizes a finished run.
type Outcome struct {
	ID              string
	State           State // StateDone or StateAborted
	Workflow        Workflow
	Selection       project.Selection
	Target          target.Info
	Location        string // resolved absolute path, empty when not resolved
	HistoryRecorded bool
	Err             error
}

// Cancelled reports whether the user backed out of the view.
func (o Outcome) Cancelled() bool {
	return o.State == StateAborted && o.Err == nil
}

// Options wires an Orchestrator to its collaborators.
type Options struct {
	Selection   SelectionProvider
	Views       ViewFactory
	History     Recorder
	Notifier    Notifier
	Diagnostics DiagnosticLog
	Logger      *slog.Logger

	// BasePath resolves relative target paths.
	BasePath string

	// Locks is shared with other orchestrators that must not run concurrently.
	// A private manager is created when nil.
	Locks *LockManager
}

// Orchestrator drives a single deployment invocation from selection to
// history update. Only one run is active at a time; a concurrent Run returns
// immediately with ErrBusy.
type Orchestrator struct {
	selection   SelectionProvider
	views       ViewFactory
	history     Recorder
	notifier    Notifier
	diagnostics DiagnosticLog
	logger      *slog.Logger
	basePath    string
	locks       *LockManager

	mu    sync.Mutex
	state State
}

// NewOrchestrator validates opts and returns an idle orchestrator.
func NewOrchestrator(opts Options) (*Orchestrator, error) {
	if opts.Selection == nil {
		return nil, fmt.Errorf("selection provider is required")
	}
	if opts.Views == nil {
		return nil, fmt.Errorf("view factory is required")
	}
	if opts.History == nil {
		return nil, fmt.Errorf("history recorder is required")
	}
	if opts.Notifier == nil {
		return nil, fmt.Errorf("notifier is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	locks := opts.Locks
	if locks == nil {
		locks = NewLockManager()
	}

	return &Orchestrator{
		selection:   opts.Selection,
		views:       opts.Views,
		history:     opts.History,
		notifier:    opts.Notifier,
		diagnostics: opts.Diagnostics,
		logger:      logger,
		basePath:    opts.BasePath,
		locks:       locks,
		state:       StateIdle,
	}, nil
}

// State returns the step the current run is in, or StateIdle.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

func (o *Orchestrator) setState(s State) {
	o.mu.Lock()
	o.state = s
	o.mu.Unlock()
}

// Run performs one deployment invocation. It never panics and never returns
// an error directly; failures are reported through the notifier and the
// diagnostic log and recorded in Outcome.Err.
func (o *Orchestrator) Run(ctx context.Context) (outcome Outcome) {
	if ctx == nil {
		ctx = context.Background()
	}

	outcome = Outcome{ID: uuid.NewString(), State: StateAborted}
	logger := o.logger.With("run", outcome.ID)

	if !o.locks.TryLock(workflowLockKey) {
		logger.Warn("Deployment rejected, another run is active")
		o.notifier.Warn(MsgBusy)
		outcome.Err = ErrBusy
		return outcome
	}
	defer o.locks.Unlock(workflowLockKey)
	defer o.setState(StateIdle)

	stage := StateIdle
	defer func() {
		if r := recover(); r != nil {
			outcome = o.fail(logger, outcome, stage, fmt.Errorf("panic: %v", r))
		}
	}()

	// Idle -> SelectionChecked
	selection := o.selection.SelectedProjects()
	if selection.Len() == 0 {
		if active, ok := o.selection.ActiveProject(); ok {
			selection = project.NewSelection(active)
		}
	}
	if selection.Len() == 0 {
		logger.Info("Deployment aborted, nothing selected")
		o.notifier.Warn(MsgNoSelection)
		outcome.Err = ErrNoSelection
		return outcome
	}
	outcome.Selection = selection
	stage = StateSelectionChecked
	o.setState(stage)

	// SelectionChecked -> WorkflowChosen
	outcome.Workflow = ChooseWorkflow(selection)
	stage = StateWorkflowChosen
	o.setState(stage)
	logger.Info("Workflow chosen",
		"workflow", outcome.Workflow,
		"projects", selection.String())

	// WorkflowChosen -> TargetObtained
	view, err := o.views(outcome.Workflow, selection)
	if err != nil {
		return o.fail(logger, outcome, stage, fmt.Errorf("failed to create %s view: %w", outcome.Workflow, err))
	}
	if err := view.LoadData(ctx); err != nil {
		return o.fail(logger, outcome, stage, fmt.Errorf("failed to load view data: %w", err))
	}
	result, err := view.ShowModal(ctx)
	if err != nil {
		return o.fail(logger, outcome, stage, fmt.Errorf("view failed: %w", err))
	}
	if !result.Confirmed {
		logger.Info("Deployment cancelled by user")
		return outcome
	}
	outcome.Target = result.Target
	stage = StateTargetObtained
	o.setState(stage)

	// TargetObtained -> HistoryUpdated
	switch {
	case result.Target.Inherit:
		logger.Info("Target inherits the parent location, history untouched", "target", result.Target.Name)
	case result.NewProject:
		logger.Info("Target belongs to a new project, history untouched", "target", result.Target.Name)
	default:
		location, err := result.Target.Resolve(o.basePath)
		if err != nil {
			var pathErr *target.InvalidPathError
			if !errors.As(err, &pathErr) {
				return o.fail(logger, outcome, stage, err)
			}
			logger.Warn("Target path could not be resolved, history skipped",
				"target", result.Target.Name,
				"error", err)
			o.notifier.Error(err.Error())
			o.writeDiagnostic(err.Error())
			outcome.Err = err
			outcome.State = StateDone
			return outcome
		}
		outcome.Location = location

		if err := o.history.RecordLocation(ctx, result.Target.Name, location); err != nil {
			return o.fail(logger, outcome, stage, fmt.Errorf("failed to record location: %w", err))
		}
		outcome.HistoryRecorded = true
		stage = StateHistoryUpdated
		o.setState(stage)
		logger.Info("Location recorded", "target", result.Target.Name, "location", location)
	}

	// -> Done
	outcome.State = StateDone
	return outcome
}

func (o *Orchestrator) fail(logger *slog.Logger, outcome Outcome, stage State, err error) Outcome {
	failure := &UnexpectedFailure{Stage: stage, Err: err}
	logger.Error("Deployment failed", "stage", stage, "error", err)

	o.writeDiagnostic(FailureMessage(failure))
	o.notifier.Error(FailureMessage(err))

	outcome.State = StateAborted
	outcome.Err = failure
	return outcome
}

func (o *Orchestrator) writeDiagnostic(message string) {
	if o.diagnostics != nil {
		o.diagnostics.WriteError(message)
	}
}
