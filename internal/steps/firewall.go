package steps

import (
	"fmt"
	"strings"

	"github.com/wpforge/wpforge/internal/core"
)

// FirewallStep configures ufw: default-deny inbound, allow ssh/http/https,
// then enables it.
type FirewallStep struct {
	core.BaseStep
}

func NewFirewallStep() *FirewallStep {
	return &FirewallStep{BaseStep: core.BaseStep{StepName: "configure-firewall", StepPhase: core.PhaseSecurity}}
}

func (s *FirewallStep) Precondition(ctx *core.ProvisionContext) (bool, error) {
	res, err := ctx.Runner.Run(ctx, "ufw status verbose")
	if err != nil {
		return false, err
	}
	if !res.Ok() {
		return false, nil
	}
	out := res.Stdout
	return strings.Contains(out, "Status: active") &&
		strings.Contains(out, "deny (incoming)") &&
		strings.Contains(out, "80") &&
		strings.Contains(out, "443"), nil
}

func (s *FirewallStep) Apply(ctx *core.ProvisionContext) error {
	commands := []string{
		"ufw default deny incoming",
		"ufw default allow outgoing",
		"ufw allow OpenSSH",
		"ufw allow 80/tcp",
		"ufw allow 443/tcp",
		"ufw --force enable",
	}
	for _, cmd := range commands {
		if _, err := ctx.Runner.MustRun(ctx, cmd); err != nil {
			return err
		}
	}
	return nil
}

func (s *FirewallStep) Verify(ctx *core.ProvisionContext) error {
	res, err := ctx.Runner.MustRun(ctx, "ufw status verbose")
	if err != nil {
		return err
	}
	out := res.Stdout
	if !strings.Contains(out, "Status: active") {
		return fmt.Errorf("ufw is not active")
	}
	if !strings.Contains(out, "deny (incoming)") {
		return fmt.Errorf("ufw default inbound policy is not deny")
	}
	for _, port := range []string{"OpenSSH", "80", "443"} {
		if !strings.Contains(out, port) {
			return fmt.Errorf("ufw rule for %s missing", port)
		}
	}
	return nil
}
