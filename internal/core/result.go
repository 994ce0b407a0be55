package core

// StepResult is the outcome of executing one step. It carries the final
// status and a human readable message for the run report.
type StepResult struct {
	Step    string
	Phase   Phase
	Status  Status
	Message string
	Error   error
}

// Skipped returns a result for a step whose precondition already held.
func Skipped(step Step, msg string) StepResult {
	return StepResult{Step: step.Name(), Phase: step.Phase(), Status: StatusSkipped, Message: msg}
}

// Done returns a result for a successfully applied and verified step.
func Done(step Step, msg string) StepResult {
	return StepResult{Step: step.Name(), Phase: step.Phase(), Status: StatusDone, Message: msg}
}

// Failed returns a result for a step that could not be applied or verified.
func Failed(step Step, err error) StepResult {
	return StepResult{Step: step.Name(), Phase: step.Phase(), Status: StatusFailed, Message: err.Error(), Error: err}
}
