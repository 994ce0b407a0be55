package steps

import (
	"fmt"
	"strings"

	"github.com/wpforge/wpforge/internal/core"
)

const (
	crsDir            = "/etc/modsecurity/crs"
	crsSetupSample    = crsDir + "/crs-setup.conf.example"
	crsSetupActive    = crsDir + "/crs-setup.conf"
	modsecurityConf   = "/etc/modsecurity/modsecurity.conf"
	modsecRecommended = "/etc/modsecurity/modsecurity.conf-recommended"
)

// FetchWAFRulesStep clones the OWASP core rule set and activates its sample
// configuration.
type FetchWAFRulesStep struct {
	core.BaseStep
	RepoURL string
}

func NewFetchWAFRulesStep(repoURL string) *FetchWAFRulesStep {
	return &FetchWAFRulesStep{
		BaseStep: core.BaseStep{StepName: "fetch-waf-rules", StepPhase: core.PhaseSecurity},
		RepoURL:  repoURL,
	}
}

func (s *FetchWAFRulesStep) Precondition(ctx *core.ProvisionContext) (bool, error) {
	_, err := ctx.FS().Stat(crsSetupActive)
	return err == nil, nil
}

func (s *FetchWAFRulesStep) Apply(ctx *core.ProvisionContext) error {
	if _, err := ctx.FS().Stat(crsDir); err != nil {
		cmd := fmt.Sprintf("git clone --depth 1 %s %s", s.RepoURL, crsDir)
		if _, err := ctx.Runner.MustRun(ctx, cmd); err != nil {
			return err
		}
	}
	// A previous interrupted run may already have renamed the sample.
	if _, err := ctx.FS().Stat(crsSetupActive); err == nil {
		return nil
	}
	if err := ctx.FS().Rename(crsSetupSample, crsSetupActive); err != nil {
		return fmt.Errorf("activate crs-setup.conf: %w", err)
	}
	return nil
}

func (s *FetchWAFRulesStep) Verify(ctx *core.ProvisionContext) error {
	if _, err := ctx.FS().Stat(crsSetupActive); err != nil {
		return fmt.Errorf("crs-setup.conf not present: %w", err)
	}
	return nil
}

// EnableWAFEngineStep switches mod_security from detection-only to blocking
// mode.
type EnableWAFEngineStep struct {
	core.BaseStep
}

func NewEnableWAFEngineStep() *EnableWAFEngineStep {
	return &EnableWAFEngineStep{BaseStep: core.BaseStep{StepName: "enable-waf-engine", StepPhase: core.PhaseSecurity}}
}

func (s *EnableWAFEngineStep) Precondition(ctx *core.ProvisionContext) (bool, error) {
	data, err := ctx.FS().ReadFile(modsecurityConf)
	if err != nil {
		return false, nil
	}
	return strings.Contains(string(data), "SecRuleEngine On"), nil
}

func (s *EnableWAFEngineStep) Apply(ctx *core.ProvisionContext) error {
	fs := ctx.FS()

	data, err := fs.ReadFile(modsecurityConf)
	if err != nil {
		// Fresh install ships only the recommended sample.
		data, err = fs.ReadFile(modsecRecommended)
		if err != nil {
			return fmt.Errorf("modsecurity configuration not found: %w", err)
		}
	}

	updated := strings.Replace(string(data), "SecRuleEngine DetectionOnly", "SecRuleEngine On", 1)
	return fs.WriteFile(modsecurityConf, []byte(updated), 0o644)
}

func (s *EnableWAFEngineStep) Verify(ctx *core.ProvisionContext) error {
	data, err := ctx.FS().ReadFile(modsecurityConf)
	if err != nil {
		return err
	}
	if !strings.Contains(string(data), "SecRuleEngine On") {
		return fmt.Errorf("SecRuleEngine is still not On")
	}
	return nil
}
