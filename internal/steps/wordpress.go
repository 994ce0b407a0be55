package steps

import (
	"fmt"
	"strings"

	"github.com/wpforge/wpforge/internal/config"
	"github.com/wpforge/wpforge/internal/core"
	"github.com/wpforge/wpforge/internal/netcheck"
	"github.com/wpforge/wpforge/internal/secrets"
)

// DeployWordPressStep downloads the WordPress archive and unpacks it into
// the site root.
type DeployWordPressStep struct {
	core.BaseStep
	Site       config.SiteConfig
	TarballURL string
}

func NewDeployWordPressStep(site config.SiteConfig, tarballURL string) *DeployWordPressStep {
	return &DeployWordPressStep{
		BaseStep:   core.BaseStep{StepName: "deploy-wordpress", StepPhase: core.PhaseWeb},
		Site:       site,
		TarballURL: tarballURL,
	}
}

func (s *DeployWordPressStep) Precondition(ctx *core.ProvisionContext) (bool, error) {
	_, err := ctx.FS().Stat(s.Site.SiteRoot + "/wp-settings.php")
	return err == nil, nil
}

func (s *DeployWordPressStep) Apply(ctx *core.ProvisionContext) error {
	archive := fmt.Sprintf("/tmp/wordpress-%s.tar.gz", s.Site.Domain)

	if err := ctx.FS().MkdirAll(s.Site.SiteRoot, 0o755); err != nil {
		return err
	}
	if _, err := ctx.Runner.MustRun(ctx, fmt.Sprintf("curl -fsSL %s -o %s", s.TarballURL, archive)); err != nil {
		return err
	}
	if _, err := ctx.Runner.MustRun(ctx, fmt.Sprintf("tar -xzf %s -C %s --strip-components=1", archive, s.Site.SiteRoot)); err != nil {
		return err
	}
	_, err := ctx.Runner.Run(ctx, fmt.Sprintf("rm -f %s", archive))
	return err
}

func (s *DeployWordPressStep) Verify(ctx *core.ProvisionContext) error {
	if _, err := ctx.FS().Stat(s.Site.SiteRoot + "/wp-settings.php"); err != nil {
		return fmt.Errorf("wordpress tree missing after unpack: %w", err)
	}
	return nil
}

// WPConfigStep renders wp-config.php with the site's database credentials
// and its once-generated salts.
type WPConfigStep struct {
	core.BaseStep
	Site     config.SiteConfig
	Secrets  *secrets.Store
	Checker  *netcheck.Checker
	SaltsURL string
}

func NewWPConfigStep(site config.SiteConfig, store *secrets.Store, checker *netcheck.Checker, saltsURL string) *WPConfigStep {
	return &WPConfigStep{
		BaseStep: core.BaseStep{StepName: "write-wp-config", StepPhase: core.PhaseApp},
		Site:     site,
		Secrets:  store,
		Checker:  checker,
		SaltsURL: saltsURL,
	}
}

func (s *WPConfigStep) path() string {
	return s.Site.SiteRoot + "/wp-config.php"
}

type wpConfigData struct {
	DBName string
	DBUser string
	DBPass string
	Salts  string
}

func (s *WPConfigStep) render(salts string) (string, error) {
	return core.ExecuteTemplate(wpConfigTemplate, wpConfigData{
		DBName: s.Site.DBName,
		DBUser: s.Site.DBUser,
		DBPass: s.Site.DBPass,
		Salts:  salts,
	})
}

// salts fetches fresh salts from the wordpress.org endpoint, falling back to
// locally generated ones when the endpoint is unreachable. Either way the
// result is stored once per site and reused afterwards.
func (s *WPConfigStep) salts(ctx *core.ProvisionContext) (string, error) {
	return s.Secrets.GenerateOnceWith(secrets.SaltsKey(s.Site.Domain), func() (string, error) {
		salts, err := s.Checker.FetchSalts(ctx, s.SaltsURL)
		if err == nil {
			return salts, nil
		}
		ctx.Logger.Warn(fmt.Sprintf("salts endpoint unreachable, generating locally: %v", err))
		return localSalts()
	})
}

func (s *WPConfigStep) Precondition(ctx *core.ProvisionContext) (bool, error) {
	data, err := ctx.FS().ReadFile(s.path())
	if err != nil {
		return false, nil
	}
	content := string(data)
	// Salts are random, so compare the credential lines rather than the
	// whole rendered file.
	return strings.Contains(content, fmt.Sprintf("'DB_NAME', '%s'", s.Site.DBName)) &&
		strings.Contains(content, fmt.Sprintf("'DB_USER', '%s'", s.Site.DBUser)) &&
		strings.Contains(content, fmt.Sprintf("'DB_PASSWORD', '%s'", s.Site.DBPass)), nil
}

func (s *WPConfigStep) Apply(ctx *core.ProvisionContext) error {
	salts, err := s.salts(ctx)
	if err != nil {
		return err
	}
	content, err := s.render(salts)
	if err != nil {
		return err
	}
	// Group-readable for the web server, nothing for others.
	return ctx.FS().WriteFile(s.path(), []byte(content), 0o640)
}

func (s *WPConfigStep) Verify(ctx *core.ProvisionContext) error {
	data, err := ctx.FS().ReadFile(s.path())
	if err != nil {
		return err
	}
	if !strings.Contains(string(data), "AUTH_KEY") {
		return fmt.Errorf("wp-config.php has no salts")
	}
	return nil
}

func (s *WPConfigStep) Diff(ctx *core.ProvisionContext) (string, error) {
	// Use the stored salts when present; never generate new ones during a
	// preview.
	salts, err := s.Secrets.Lookup(secrets.SaltsKey(s.Site.Domain))
	if err != nil {
		salts = "/* salts generated on apply */"
	}
	desired, err := s.render(salts)
	if err != nil {
		return "", err
	}
	current, _ := ctx.FS().ReadFile(s.path())
	return core.GenerateDiff(s.path(), string(current), desired), nil
}

// localSalts builds a WordPress salt block from locally generated random
// values.
func localSalts() (string, error) {
	keys := []string{
		"AUTH_KEY", "SECURE_AUTH_KEY", "LOGGED_IN_KEY", "NONCE_KEY",
		"AUTH_SALT", "SECURE_AUTH_SALT", "LOGGED_IN_SALT", "NONCE_SALT",
	}
	var b strings.Builder
	for _, key := range keys {
		val, err := secrets.RandomCredential()
		if err != nil {
			return "", err
		}
		val2, err := secrets.RandomCredential()
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "define( '%s', '%s%s' );\n", key, val, val2)
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

// PermissionsStep hands the deployed tree to the web server user with
// conventional modes: directories 755, files 644.
type PermissionsStep struct {
	core.BaseStep
	Site config.SiteConfig
}

func NewPermissionsStep(site config.SiteConfig) *PermissionsStep {
	return &PermissionsStep{
		BaseStep: core.BaseStep{StepName: "set-permissions", StepPhase: core.PhaseApp},
		Site:     site,
	}
}

func (s *PermissionsStep) Precondition(ctx *core.ProvisionContext) (bool, error) {
	res, err := ctx.Runner.Run(ctx, fmt.Sprintf("stat -c %%U %s", s.Site.SiteRoot))
	if err != nil {
		return false, err
	}
	return res.Ok() && strings.TrimSpace(res.Stdout) == "www-data", nil
}

func (s *PermissionsStep) Apply(ctx *core.ProvisionContext) error {
	commands := []string{
		fmt.Sprintf("chown -R www-data:www-data %s", s.Site.SiteRoot),
		fmt.Sprintf("find %s -type d -exec chmod 755 {} +", s.Site.SiteRoot),
		fmt.Sprintf("find %s -type f -exec chmod 644 {} +", s.Site.SiteRoot),
		// wp-config holds credentials; tighter than the rest of the tree.
		fmt.Sprintf("chmod 640 %s/wp-config.php", s.Site.SiteRoot),
	}
	for _, cmd := range commands {
		if _, err := ctx.Runner.MustRun(ctx, cmd); err != nil {
			return err
		}
	}
	return nil
}

func (s *PermissionsStep) Verify(ctx *core.ProvisionContext) error {
	res, err := ctx.Runner.MustRun(ctx, fmt.Sprintf("stat -c %%U %s", s.Site.SiteRoot))
	if err != nil {
		return err
	}
	if strings.TrimSpace(res.Stdout) != "www-data" {
		return fmt.Errorf("site root owned by %q, want www-data", strings.TrimSpace(res.Stdout))
	}
	return nil
}
