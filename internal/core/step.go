package core

// Phase groups steps into the fixed provisioning order.
type Phase string

const (
	PhasePrep     Phase = "prep"
	PhaseSecurity Phase = "security"
	PhaseDatabase Phase = "database"
	PhaseWeb      Phase = "web"
	PhaseTLS      Phase = "tls"
	PhaseApp      Phase = "app"
)

// phaseOrder defines the only legal ordering of phases inside a Plan.
var phaseOrder = map[Phase]int{
	PhasePrep:     0,
	PhaseSecurity: 1,
	PhaseDatabase: 2,
	PhaseWeb:      3,
	PhaseTLS:      4,
	PhaseApp:      5,
}

// Status is the lifecycle state of a single step within a run.
type Status string

const (
	StatusPending Status = "pending"
	StatusRunning Status = "running"
	StatusSkipped Status = "skipped"
	StatusDone    Status = "done"
	StatusFailed  Status = "failed"
)

// Step is one idempotent unit of provisioning work.
//
// Precondition reports whether the step's effect is already present on the
// host; when it returns true the executor skips Apply entirely. Apply must
// therefore be safe to re-run against a partially applied host. Verify runs
// after Apply and must confirm the effect actually took hold.
type Step interface {
	Name() string
	Phase() Phase
	Precondition(ctx *ProvisionContext) (bool, error)
	Apply(ctx *ProvisionContext) error
	Verify(ctx *ProvisionContext) error
}

// Conditional is implemented by steps gated on an expression over host facts.
// A false condition skips the step without touching the host.
type Conditional interface {
	When() string
}

// Differ is implemented by steps that can preview the change they would make
// (typically file-writing steps). Used by dry-run and `wpforge plan`.
type Differ interface {
	Diff(ctx *ProvisionContext) (string, error)
}

// BaseStep holds the fields every step shares. Concrete steps embed it and
// implement the behaviour methods themselves.
type BaseStep struct {
	StepName  string
	StepPhase Phase
}

func (b *BaseStep) Name() string {
	return b.StepName
}

func (b *BaseStep) Phase() Phase {
	return b.StepPhase
}

// Verify defaults to a no-op for steps whose Apply is self-verifying.
func (b *BaseStep) Verify(ctx *ProvisionContext) error {
	return nil
}
