package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrUserCancelled is returned when the operator interrupts a run or answers
// "no" at the confirmation prompt. The executor only observes cancellation
// at step boundaries.
var ErrUserCancelled = errors.New("cancelled by user")

// PreconditionError marks a step that refused to run because an external
// requirement does not hold (DNS mismatch, missing secret, ...). The step's
// side effect was NOT attempted.
type PreconditionError struct {
	Step   string
	Reason string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("precondition failed for %s: %s", e.Step, e.Reason)
}

// CommandError wraps a non-zero exit from an external tool.
type CommandError struct {
	Command  string
	ExitCode int
	Stderr   string
}

func (e *CommandError) Error() string {
	stderr := strings.TrimSpace(e.Stderr)
	if stderr == "" {
		return fmt.Sprintf("command %q exited with code %d", e.Command, e.ExitCode)
	}
	return fmt.Sprintf("command %q exited with code %d: %s", e.Command, e.ExitCode, stderr)
}

// TimeoutError marks a command that was killed after exceeding its deadline.
type TimeoutError struct {
	Command string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("command %q timed out after %s", e.Command, e.Timeout)
}

// StepError is the failure the executor reports to the caller: which step
// failed and why. It wraps the underlying cause so errors.As still reaches
// the typed failure kinds above.
type StepError struct {
	Step  string
	Phase Phase
	Err   error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %s (%s phase) failed: %v", e.Step, e.Phase, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}
