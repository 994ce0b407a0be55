package core

import "fmt"

// Plan is an ordered sequence of steps making up one workflow (full install
// or add-site). Steps within a phase run in listed order; phases must appear
// in the fixed provisioning order.
type Plan struct {
	Name  string
	Steps []Step
}

func NewPlan(name string, steps ...Step) *Plan {
	return &Plan{Name: name, Steps: steps}
}

// Validate rejects plans with duplicate step names or out-of-order phases.
func (p *Plan) Validate() error {
	if len(p.Steps) == 0 {
		return fmt.Errorf("plan %s has no steps", p.Name)
	}

	seen := make(map[string]bool, len(p.Steps))
	lastPhase := -1
	for _, s := range p.Steps {
		if seen[s.Name()] {
			return fmt.Errorf("plan %s: duplicate step name %q", p.Name, s.Name())
		}
		seen[s.Name()] = true

		order, ok := phaseOrder[s.Phase()]
		if !ok {
			return fmt.Errorf("plan %s: step %q has unknown phase %q", p.Name, s.Name(), s.Phase())
		}
		if order < lastPhase {
			return fmt.Errorf("plan %s: step %q of phase %q listed after a later phase", p.Name, s.Name(), s.Phase())
		}
		lastPhase = order
	}
	return nil
}
