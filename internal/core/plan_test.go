package core_test

import (
	"strings"
	"testing"

	"github.com/wpforge/wpforge/internal/core"
)

func TestPlanValidate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		plan := core.NewPlan("ok",
			newMockStep("upgrade", core.PhasePrep),
			newMockStep("firewall", core.PhaseSecurity),
			newMockStep("vhost", core.PhaseWeb),
		)
		if err := plan.Validate(); err != nil {
			t.Fatal(err)
		}
	})

	t.Run("empty", func(t *testing.T) {
		if err := core.NewPlan("empty").Validate(); err == nil {
			t.Error("empty plan accepted")
		}
	})

	t.Run("duplicate names", func(t *testing.T) {
		plan := core.NewPlan("dup",
			newMockStep("vhost", core.PhaseWeb),
			newMockStep("vhost", core.PhaseWeb),
		)
		err := plan.Validate()
		if err == nil || !strings.Contains(err.Error(), "duplicate") {
			t.Errorf("duplicate step name accepted: %v", err)
		}
	})

	t.Run("phase order", func(t *testing.T) {
		plan := core.NewPlan("backwards",
			newMockStep("vhost", core.PhaseWeb),
			newMockStep("firewall", core.PhaseSecurity),
		)
		if err := plan.Validate(); err == nil {
			t.Error("security after web accepted")
		}
	})
}
