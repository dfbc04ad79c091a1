package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Domain errors.
var (
	ErrEmptyPRD          = errors.New("PRD content is empty")
	ErrItemNotFound      = errors.New("backlog item not found")
	ErrNotASubtask       = errors.New("item is not a subtask")
	ErrNoSession         = errors.New("no session loaded")
	ErrSessionNotFound   = errors.New("session not found")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrNotGitRepository  = errors.New("not a git repository (or any of the parent directories)")
)

// ValidationError describes a single structural violation in a backlog.
// Path locates the offending value, e.g. backlog[0].milestones[2].tasks[1].id.
type ValidationError struct {
	Path   string
	Reason string
}

// Error returns the path-prefixed reason.
func (e ValidationError) Error() string {
	return e.Path + ": " + e.Reason
}

// ValidationErrors is the full set of violations found in one validation pass.
// Validation never stops at the first violation.
type ValidationErrors []ValidationError

// Error joins all violations into one message.
func (e ValidationErrors) Error() string {
	msgs := make([]string, len(e))
	for i, v := range e {
		msgs[i] = v.Error()
	}
	return fmt.Sprintf("backlog validation failed: %s", strings.Join(msgs, "; "))
}

// CycleError reports a dependency cycle in the subtask graph.
// Cycle is the full ordered path, first and last entries equal.
type CycleError struct {
	Cycle []string
}

// Error renders the cycle as an arrow-joined path.
func (e *CycleError) Error() string {
	return "dependency cycle: " + strings.Join(e.Cycle, " -> ")
}

// SessionFileError wraps an I/O or parse failure with the file path and
// operation name for diagnostics.
type SessionFileError struct {
	Op   string
	Path string
	Err  error
}

// Error returns "<op> <path>: <cause>".
func (e *SessionFileError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns the underlying cause.
func (e *SessionFileError) Unwrap() error {
	return e.Err
}
