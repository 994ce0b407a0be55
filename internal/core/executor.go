package core

import (
	"errors"
	"fmt"
)

// RunRecorder persists per-step outcomes so an interrupted run can resume.
// The interface keeps the executor independent of the state package.
type RunRecorder interface {
	// Begin opens (or resumes) the record for the named plan. Statuses of
	// steps completed in a previous run are preserved.
	Begin(plan string, stepNames []string) error
	// Status returns the recorded status for a step, defaulting to pending.
	Status(stepName string) Status
	// SetStatus records a step transition and persists immediately.
	SetStatus(stepName string, status Status, stepErr error) error
	// Finish closes the record with the overall run outcome.
	Finish(failed bool) error
}

// Executor walks a plan strictly sequentially: skip steps whose effect is
// already present, apply and verify the rest, halt on the first failure.
// Nothing is rolled back; provisioning changes are re-entrant through their
// preconditions, not reversible.
type Executor struct {
	Plan     *Plan
	Recorder RunRecorder
}

func NewExecutor(plan *Plan, rec RunRecorder) *Executor {
	return &Executor{Plan: plan, Recorder: rec}
}

// nopRecorder discards every transition. Dry runs execute through it so the
// persisted run record of an earlier real run stays untouched.
type nopRecorder struct{}

func (nopRecorder) Begin(plan string, stepNames []string) error             { return nil }
func (nopRecorder) Status(stepName string) Status                           { return StatusPending }
func (nopRecorder) SetStatus(stepName string, status Status, _ error) error { return nil }
func (nopRecorder) Finish(failed bool) error                                { return nil }

// Run executes the plan against the given context. It returns the per-step
// results collected so far and the first fatal error, if any. Cancellation
// is observed only between steps.
func (e *Executor) Run(pc *ProvisionContext) ([]StepResult, error) {
	if err := e.Plan.Validate(); err != nil {
		return nil, err
	}

	// A dry run previews without mutating anything, the run record included.
	if pc.DryRun {
		e = &Executor{Plan: e.Plan, Recorder: nopRecorder{}}
	}

	names := make([]string, len(e.Plan.Steps))
	for i, s := range e.Plan.Steps {
		names[i] = s.Name()
	}
	if err := e.Recorder.Begin(e.Plan.Name, names); err != nil {
		return nil, fmt.Errorf("open run record: %w", err)
	}

	var results []StepResult
	for _, step := range e.Plan.Steps {
		if err := pc.Err(); err != nil {
			_ = e.Recorder.Finish(true)
			return results, fmt.Errorf("before step %s: %w", step.Name(), ErrUserCancelled)
		}

		res, err := e.runStep(pc, step)
		results = append(results, res)
		if err != nil {
			_ = e.Recorder.Finish(true)
			return results, err
		}
	}

	if err := e.Recorder.Finish(false); err != nil {
		return results, fmt.Errorf("close run record: %w", err)
	}
	return results, nil
}

func (e *Executor) runStep(pc *ProvisionContext, step Step) (StepResult, error) {
	log := pc.Logger.With("step", step.Name(), "phase", string(step.Phase()))

	// Steps finished in a previous run are not re-executed (resume).
	if e.Recorder.Status(step.Name()) == StatusDone {
		log.Debug("completed in a previous run")
		return Done(step, "completed in a previous run"), nil
	}

	// Condition gate.
	if cond, ok := step.(Conditional); ok && cond.When() != "" {
		match, err := EvaluateCondition(cond.When(), pc)
		if err != nil {
			return e.fail(step, err)
		}
		if !match {
			log.Debug("condition not met, skipping")
			if err := e.Recorder.SetStatus(step.Name(), StatusSkipped, nil); err != nil {
				return e.fail(step, err)
			}
			return Skipped(step, "condition not met"), nil
		}
	}

	// Idempotence gate: never re-apply an effect that already holds.
	satisfied, err := step.Precondition(pc)
	if err != nil {
		return e.fail(step, fmt.Errorf("precondition check: %w", err))
	}
	if satisfied {
		log.Info("already satisfied, skipping")
		if err := e.Recorder.SetStatus(step.Name(), StatusSkipped, nil); err != nil {
			return e.fail(step, err)
		}
		return Skipped(step, "already satisfied"), nil
	}

	if pc.DryRun {
		msg := "would apply"
		if d, ok := step.(Differ); ok {
			if diff, err := d.Diff(pc); err == nil && diff != "" {
				msg = "would apply:\n" + diff
			}
		}
		log.Info(msg)
		return StepResult{Step: step.Name(), Phase: step.Phase(), Status: StatusPending, Message: msg}, nil
	}

	log.Info("applying")
	if err := e.Recorder.SetStatus(step.Name(), StatusRunning, nil); err != nil {
		return e.fail(step, err)
	}

	if err := step.Apply(pc); err != nil {
		return e.fail(step, err)
	}
	if err := step.Verify(pc); err != nil {
		return e.fail(step, fmt.Errorf("verification: %w", err))
	}

	if err := e.Recorder.SetStatus(step.Name(), StatusDone, nil); err != nil {
		return e.fail(step, err)
	}
	log.Info("done")
	return Done(step, "applied"), nil
}

func (e *Executor) fail(step Step, cause error) (StepResult, error) {
	_ = e.Recorder.SetStatus(step.Name(), StatusFailed, cause)
	stepErr := &StepError{Step: step.Name(), Phase: step.Phase(), Err: cause}
	return Failed(step, cause), stepErr
}

// PlanChange is one pending change reported by Preview.
type PlanChange struct {
	Step   string
	Phase  Phase
	Action string // "apply" or "skip"
	Diff   string
}

// Preview checks every step's precondition without applying anything and
// reports which steps would run, with file diffs where available.
func (e *Executor) Preview(pc *ProvisionContext) ([]PlanChange, error) {
	if err := e.Plan.Validate(); err != nil {
		return nil, err
	}

	var changes []PlanChange
	for _, step := range e.Plan.Steps {
		change := PlanChange{Step: step.Name(), Phase: step.Phase(), Action: "apply"}

		if cond, ok := step.(Conditional); ok && cond.When() != "" {
			match, err := EvaluateCondition(cond.When(), pc)
			if err != nil {
				return nil, &StepError{Step: step.Name(), Phase: step.Phase(), Err: err}
			}
			if !match {
				change.Action = "skip"
				changes = append(changes, change)
				continue
			}
		}

		satisfied, err := step.Precondition(pc)
		if err != nil {
			// A probe that cannot run (tool missing yet) still means the
			// step would apply; record it rather than aborting the preview.
			var cmdErr *CommandError
			if !errors.As(err, &cmdErr) {
				return nil, &StepError{Step: step.Name(), Phase: step.Phase(), Err: err}
			}
		}
		if satisfied {
			change.Action = "skip"
		} else if d, ok := step.(Differ); ok {
			if diff, err := d.Diff(pc); err == nil {
				change.Diff = diff
			}
		}
		changes = append(changes, change)
	}
	return changes, nil
}
