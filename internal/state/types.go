package state

import (
	"time"

	"github.com/wpforge/wpforge/internal/core"
)

// StepRecord is the persisted outcome of one step within a run.
type StepRecord struct {
	Name       string      `json:"name"`
	Status     core.Status `json:"status"`
	StartedAt  *time.Time  `json:"started_at,omitempty"`
	FinishedAt *time.Time  `json:"finished_at,omitempty"`
	Error      string      `json:"error,omitempty"`
}

// Run is the persisted record of one plan execution. It is created at run
// start, appended to as steps complete, and read back on resume.
type Run struct {
	ID        string       `json:"id"`
	Plan      string       `json:"plan"`
	Status    string       `json:"status"` // running, success, failed
	StartedAt time.Time    `json:"started_at"`
	UpdatedAt time.Time    `json:"updated_at"`
	Steps     []StepRecord `json:"steps"`
}

// Step returns the record for the named step, if present.
func (r *Run) Step(name string) (*StepRecord, bool) {
	for i := range r.Steps {
		if r.Steps[i].Name == name {
			return &r.Steps[i], true
		}
	}
	return nil, false
}
