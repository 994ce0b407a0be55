package steps

import (
	"fmt"
	"strings"

	"github.com/wpforge/wpforge/internal/core"
)

// InstallPackages are everything a WordPress LAMP host needs, installed in
// one apt transaction.
var InstallPackages = []string{
	"apache2",
	"mariadb-server",
	"php",
	"libapache2-mod-php",
	"php-mysql",
	"php-curl",
	"php-gd",
	"php-xml",
	"php-mbstring",
	"php-memcached",
	"memcached",
	"certbot",
	"python3-certbot-apache",
	"git",
	"libapache2-mod-security2",
}

// UpgradeSystemStep brings the package index and installed packages up to
// date before anything else touches the host.
type UpgradeSystemStep struct {
	core.BaseStep
}

func NewUpgradeSystemStep() *UpgradeSystemStep {
	return &UpgradeSystemStep{BaseStep: core.BaseStep{StepName: "upgrade-system", StepPhase: core.PhasePrep}}
}

func (s *UpgradeSystemStep) Precondition(ctx *core.ProvisionContext) (bool, error) {
	res, err := ctx.Runner.Run(ctx, "apt-get -s upgrade")
	if err != nil || !res.Ok() {
		// Index may be missing before the first apt-get update; run the step.
		return false, nil
	}
	return strings.Contains(res.Stdout, "0 upgraded, 0 newly installed"), nil
}

func (s *UpgradeSystemStep) Apply(ctx *core.ProvisionContext) error {
	if _, err := ctx.Runner.MustRun(ctx, "apt-get update"); err != nil {
		return err
	}
	_, err := ctx.Runner.MustRun(ctx, "DEBIAN_FRONTEND=noninteractive apt-get -y upgrade")
	return err
}

// InstallPackagesStep installs a fixed package set via apt.
type InstallPackagesStep struct {
	core.BaseStep
	Packages []string
}

func NewInstallPackagesStep(packages []string) *InstallPackagesStep {
	return &InstallPackagesStep{
		BaseStep: core.BaseStep{StepName: "install-packages", StepPhase: core.PhasePrep},
		Packages: packages,
	}
}

// Condition keeps the step on apt-based systems; wpforge currently targets
// Debian and Ubuntu only.
func (s *InstallPackagesStep) When() string {
	return `distro in ["ubuntu", "debian", ""]`
}

func (s *InstallPackagesStep) Precondition(ctx *core.ProvisionContext) (bool, error) {
	for _, pkg := range s.Packages {
		res, err := ctx.Runner.Run(ctx, fmt.Sprintf("dpkg -s %s", pkg))
		if err != nil {
			return false, err
		}
		if !res.Ok() {
			return false, nil
		}
	}
	return true, nil
}

func (s *InstallPackagesStep) Apply(ctx *core.ProvisionContext) error {
	cmd := fmt.Sprintf("DEBIAN_FRONTEND=noninteractive apt-get -y install %s", strings.Join(s.Packages, " "))
	_, err := ctx.Runner.MustRun(ctx, cmd)
	return err
}

func (s *InstallPackagesStep) Verify(ctx *core.ProvisionContext) error {
	for _, pkg := range s.Packages {
		res, err := ctx.Runner.Run(ctx, fmt.Sprintf("dpkg -s %s", pkg))
		if err != nil {
			return err
		}
		if !res.Ok() {
			return fmt.Errorf("package %s still not installed", pkg)
		}
	}
	return nil
}
