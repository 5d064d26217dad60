package app

import (
	"errors"
	"fmt"
)

// Failure classes reported by Run.
var (
	// ErrStartup indicates the model could not be built or initialized.
	ErrStartup = errors.New("app: startup failed")

	// ErrQueue indicates an action could not be sent on the action queue.
	ErrQueue = errors.New("app: action queue closed")

	// ErrTaskJoin indicates a background task terminated abnormally.
	ErrTaskJoin = errors.New("app: background task failed")

	// ErrTerminal indicates a raw-mode or frame-draw failure.
	ErrTerminal = errors.New("app: terminal failure")
)

// TaskError wraps the failure of one background task. It matches both
// ErrTaskJoin and the task's own error.
type TaskError struct {
	Task string
	Err  error
}

func (e *TaskError) Error() string {
	return fmt.Sprintf("%s task: %v", e.Task, e.Err)
}

func (e *TaskError) Unwrap() []error {
	return []error{ErrTaskJoin, e.Err}
}
