package deployment

import (
	"errors"
	"fmt"
)

var (
	// ErrNoSelection means neither a selection nor an active project exists.
	ErrNoSelection = errors.New("no project selected")

	// ErrBusy means another workflow holds the deployment lock.
	ErrBusy = errors.New("a deployment is already in progress")
)

// User-facing messages.
const (
	MsgNoSelection      = "There is no selected project."
	MsgBusy             = "A deployment is already in progress."
	msgUnexpectedPrefix = "Got an exception while handling deploy."
)

// UnexpectedFailure wraps anything that went wrong inside a run that is not
// one of the expected outcomes.
type UnexpectedFailure struct {
	Stage State
	Err   error
}

func (e *UnexpectedFailure) Error() string {
	return fmt.Sprintf("%s (stage %s)", e.Err, e.Stage)
}

func (e *UnexpectedFailure) Unwrap() error {
	return e.Err
}

// FailureMessage formats err the way it is shown to users and written to the
// diagnostic log.
func FailureMessage(err error) string {
	return fmt.Sprintf("%s %v", msgUnexpectedPrefix, err)
}
