package steps

import (
	"fmt"
	"strings"

	"github.com/wpforge/wpforge/internal/config"
	"github.com/wpforge/wpforge/internal/core"
)

const sitesAvailable = "/etc/apache2/sites-available"

// ApacheModules are the modules WordPress hosting needs: pretty permalinks,
// TLS, header control, caching headers and the WAF engine.
var ApacheModules = []string{"rewrite", "ssl", "headers", "expires", "security2"}

// EnableApacheModulesStep runs a2enmod for each missing module and reloads
// apache once if anything changed.
type EnableApacheModulesStep struct {
	core.BaseStep
	Modules []string
}

func NewEnableApacheModulesStep(modules []string) *EnableApacheModulesStep {
	return &EnableApacheModulesStep{
		BaseStep: core.BaseStep{StepName: "enable-apache-modules", StepPhase: core.PhaseWeb},
		Modules:  modules,
	}
}

func (s *EnableApacheModulesStep) loadedModules(ctx *core.ProvisionContext) (string, error) {
	res, err := ctx.Runner.Run(ctx, "apache2ctl -M")
	if err != nil {
		return "", err
	}
	if !res.Ok() {
		return "", &core.CommandError{Command: "apache2ctl -M", ExitCode: res.ExitCode, Stderr: res.Stderr}
	}
	return res.Stdout, nil
}

func (s *EnableApacheModulesStep) Precondition(ctx *core.ProvisionContext) (bool, error) {
	loaded, err := s.loadedModules(ctx)
	if err != nil {
		return false, err
	}
	for _, mod := range s.Modules {
		if !strings.Contains(loaded, mod+"_module") {
			return false, nil
		}
	}
	return true, nil
}

func (s *EnableApacheModulesStep) Apply(ctx *core.ProvisionContext) error {
	cmd := fmt.Sprintf("a2enmod %s", strings.Join(s.Modules, " "))
	if _, err := ctx.Runner.MustRun(ctx, cmd); err != nil {
		return err
	}
	_, err := ctx.Runner.MustRun(ctx, "systemctl restart apache2")
	return err
}

func (s *EnableApacheModulesStep) Verify(ctx *core.ProvisionContext) error {
	loaded, err := s.loadedModules(ctx)
	if err != nil {
		return err
	}
	for _, mod := range s.Modules {
		if !strings.Contains(loaded, mod+"_module") {
			return fmt.Errorf("module %s still not loaded", mod)
		}
	}
	return nil
}

// VHostConfigStep renders the site's virtual host configuration into
// sites-available. Content comparison makes it idempotent; Diff previews
// the change.
type VHostConfigStep struct {
	core.BaseStep
	Site config.SiteConfig
}

func NewVHostConfigStep(site config.SiteConfig) *VHostConfigStep {
	return &VHostConfigStep{
		BaseStep: core.BaseStep{StepName: "write-vhost-config", StepPhase: core.PhaseWeb},
		Site:     site,
	}
}

func (s *VHostConfigStep) path() string {
	return fmt.Sprintf("%s/%s.conf", sitesAvailable, s.Site.Domain)
}

func (s *VHostConfigStep) render() (string, error) {
	return core.ExecuteTemplate(vhostTemplate, s.Site)
}

func (s *VHostConfigStep) Precondition(ctx *core.ProvisionContext) (bool, error) {
	desired, err := s.render()
	if err != nil {
		return false, err
	}
	current, err := ctx.FS().ReadFile(s.path())
	if err != nil {
		return false, nil
	}
	return string(current) == desired, nil
}

func (s *VHostConfigStep) Apply(ctx *core.ProvisionContext) error {
	content, err := s.render()
	if err != nil {
		return err
	}
	return ctx.FS().WriteFile(s.path(), []byte(content), 0o644)
}

func (s *VHostConfigStep) Verify(ctx *core.ProvisionContext) error {
	data, err := ctx.FS().ReadFile(s.path())
	if err != nil {
		return err
	}
	if !strings.Contains(string(data), "ServerName "+s.Site.Domain) {
		return fmt.Errorf("vhost config for %s missing ServerName", s.Site.Domain)
	}
	return nil
}

func (s *VHostConfigStep) Diff(ctx *core.ProvisionContext) (string, error) {
	desired, err := s.render()
	if err != nil {
		return "", err
	}
	current, _ := ctx.FS().ReadFile(s.path())
	return core.GenerateDiff(s.path(), string(current), desired), nil
}

// EnableSiteStep enables the new site, disables the distribution default
// site, and reloads apache after a config test.
type EnableSiteStep struct {
	core.BaseStep
	Site config.SiteConfig
}

func NewEnableSiteStep(site config.SiteConfig) *EnableSiteStep {
	return &EnableSiteStep{
		BaseStep: core.BaseStep{StepName: "enable-site", StepPhase: core.PhaseWeb},
		Site:     site,
	}
}

func (s *EnableSiteStep) Precondition(ctx *core.ProvisionContext) (bool, error) {
	res, err := ctx.Runner.Run(ctx, fmt.Sprintf("a2query -s %s", s.Site.Domain))
	if err != nil {
		return false, err
	}
	return res.Ok(), nil
}

func (s *EnableSiteStep) Apply(ctx *core.ProvisionContext) error {
	if _, err := ctx.Runner.MustRun(ctx, fmt.Sprintf("a2ensite %s.conf", s.Site.Domain)); err != nil {
		return err
	}
	// The default site would shadow name-based vhosts on bare-IP requests.
	res, err := ctx.Runner.Run(ctx, "a2query -s 000-default")
	if err != nil {
		return err
	}
	if res.Ok() {
		if _, err := ctx.Runner.MustRun(ctx, "a2dissite 000-default"); err != nil {
			return err
		}
	}

	if res, err := ctx.Runner.Run(ctx, "apachectl configtest"); err != nil {
		return err
	} else if !res.Ok() {
		return fmt.Errorf("apache config test failed: %s", strings.TrimSpace(res.Stderr))
	}
	_, err = ctx.Runner.MustRun(ctx, "systemctl reload apache2")
	return err
}

func (s *EnableSiteStep) Verify(ctx *core.ProvisionContext) error {
	if _, err := ctx.Runner.MustRun(ctx, fmt.Sprintf("a2query -s %s", s.Site.Domain)); err != nil {
		return fmt.Errorf("site %s not enabled: %w", s.Site.Domain, err)
	}
	return nil
}
