package steps

import (
	"github.com/wpforge/wpforge/internal/config"
	"github.com/wpforge/wpforge/internal/core"
	"github.com/wpforge/wpforge/internal/netcheck"
	"github.com/wpforge/wpforge/internal/secrets"
)

// Deps bundles the collaborators plan builders hand to steps.
type Deps struct {
	Settings config.Settings
	Secrets  *secrets.Store
	Checker  *netcheck.Checker
}

// BuildInstallPlan is the full LAMP provisioning workflow for a fresh host,
// ending with one deployed WordPress site.
func BuildInstallPlan(site config.SiteConfig, d Deps) *core.Plan {
	return core.NewPlan("install",
		// prep
		NewUpgradeSystemStep(),
		NewInstallPackagesStep(InstallPackages),
		// security
		NewFirewallStep(),
		NewFetchWAFRulesStep(d.Settings.CRSRepo),
		NewEnableWAFEngineStep(),
		// database
		NewSecureDatabaseStep(d.Secrets),
		NewCreateSiteDatabaseStep(site, d.Secrets),
		// web
		NewEnableApacheModulesStep(ApacheModules),
		NewCacheServiceStep(),
		NewDeployWordPressStep(site, d.Settings.WPTarball),
		NewVHostConfigStep(site),
		NewEnableSiteStep(site),
		// tls
		NewDNSGateStep(site, d.Checker),
		NewCertbotStep(site),
		// app
		NewWPConfigStep(site, d.Secrets, d.Checker, d.Settings.SaltsURL),
		NewPermissionsStep(site),
	)
}

// BuildAddSitePlan deploys one more WordPress site on a host wpforge
// installed earlier. No system-wide steps: it reuses the stored root
// credential and repeats only the per-site work.
func BuildAddSitePlan(site config.SiteConfig, d Deps) *core.Plan {
	return core.NewPlan("add-site",
		// database
		NewRequireRootPasswordStep(d.Secrets),
		NewCreateSiteDatabaseStep(site, d.Secrets),
		// web
		NewDeployWordPressStep(site, d.Settings.WPTarball),
		NewVHostConfigStep(site),
		NewEnableSiteStep(site),
		// tls
		NewDNSGateStep(site, d.Checker),
		NewCertbotStep(site),
		// app
		NewWPConfigStep(site, d.Secrets, d.Checker, d.Settings.SaltsURL),
		NewPermissionsStep(site),
	)
}
