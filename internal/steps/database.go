package steps

import (
	"errors"
	"fmt"
	"strings"

	"github.com/wpforge/wpforge/internal/config"
	"github.com/wpforge/wpforge/internal/core"
	"github.com/wpforge/wpforge/internal/secrets"
)

// SecureDatabaseStep sets the MariaDB root password (generated once, stored
// in the secret bundle) and removes the anonymous users and test database a
// fresh install ships with.
type SecureDatabaseStep struct {
	core.BaseStep
	Secrets *secrets.Store
}

func NewSecureDatabaseStep(store *secrets.Store) *SecureDatabaseStep {
	return &SecureDatabaseStep{
		BaseStep: core.BaseStep{StepName: "secure-database", StepPhase: core.PhaseDatabase},
		Secrets:  store,
	}
}

func (s *SecureDatabaseStep) Precondition(ctx *core.ProvisionContext) (bool, error) {
	pass, err := s.Secrets.Lookup(secrets.KeyDBRootPassword)
	if errors.Is(err, secrets.ErrSecretNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	// Root already authenticates with the stored password: nothing to do.
	res, err := ctx.Runner.Run(ctx, rootMySQL(pass, "SELECT 1;"))
	if err != nil {
		return false, err
	}
	return res.Ok(), nil
}

func (s *SecureDatabaseStep) Apply(ctx *core.ProvisionContext) error {
	pass, err := s.Secrets.GenerateOnce(secrets.KeyDBRootPassword)
	if err != nil {
		return err
	}

	statements := []string{
		fmt.Sprintf("ALTER USER 'root'@'localhost' IDENTIFIED BY '%s';", pass),
		"DELETE FROM mysql.global_priv WHERE User='';",
		"DROP DATABASE IF EXISTS test;",
		"FLUSH PRIVILEGES;",
	}
	// Fresh MariaDB installs let root in over the unix socket without a
	// password; fall back to the stored password when that was already
	// changed by an interrupted earlier run.
	cmd := fmt.Sprintf(`mysql -u root -e "%s"`, strings.Join(statements, " "))
	res, err := ctx.Runner.Run(ctx, cmd)
	if err != nil {
		return err
	}
	if !res.Ok() {
		cmd = rootMySQL(pass, strings.Join(statements, " "))
		if _, err := ctx.Runner.MustRun(ctx, cmd); err != nil {
			return err
		}
	}
	return nil
}

func (s *SecureDatabaseStep) Verify(ctx *core.ProvisionContext) error {
	pass, err := s.Secrets.Lookup(secrets.KeyDBRootPassword)
	if err != nil {
		return err
	}
	if _, err := ctx.Runner.MustRun(ctx, rootMySQL(pass, "SELECT 1;")); err != nil {
		return fmt.Errorf("root login with stored password: %w", err)
	}
	return nil
}

// RequireRootPasswordStep guards the add-site plan: the host must have been
// installed by wpforge before, otherwise there is no root credential to
// reuse and the plan aborts instead of guessing.
type RequireRootPasswordStep struct {
	core.BaseStep
	Secrets *secrets.Store
}

func NewRequireRootPasswordStep(store *secrets.Store) *RequireRootPasswordStep {
	return &RequireRootPasswordStep{
		BaseStep: core.BaseStep{StepName: "require-root-credential", StepPhase: core.PhaseDatabase},
		Secrets:  store,
	}
}

func (s *RequireRootPasswordStep) Precondition(ctx *core.ProvisionContext) (bool, error) {
	return false, nil
}

func (s *RequireRootPasswordStep) Apply(ctx *core.ProvisionContext) error {
	_, err := s.Secrets.Lookup(secrets.KeyDBRootPassword)
	if errors.Is(err, secrets.ErrSecretNotFound) {
		return &core.PreconditionError{
			Step:   s.Name(),
			Reason: "no stored database root password; run `wpforge install` on this host first",
		}
	}
	return err
}

// CreateSiteDatabaseStep creates the site's database and user and grants the
// user full privileges on it.
type CreateSiteDatabaseStep struct {
	core.BaseStep
	Site    config.SiteConfig
	Secrets *secrets.Store
}

func NewCreateSiteDatabaseStep(site config.SiteConfig, store *secrets.Store) *CreateSiteDatabaseStep {
	return &CreateSiteDatabaseStep{
		BaseStep: core.BaseStep{StepName: "create-site-database", StepPhase: core.PhaseDatabase},
		Site:     site,
		Secrets:  store,
	}
}

func (s *CreateSiteDatabaseStep) Precondition(ctx *core.ProvisionContext) (bool, error) {
	// The site user logging into the site database proves db, user and
	// grant all exist.
	res, err := ctx.Runner.Run(ctx, fmt.Sprintf(`mysql -u %s -p'%s' %s -e "SELECT 1;"`, s.Site.DBUser, s.Site.DBPass, s.Site.DBName))
	if err != nil {
		return false, err
	}
	return res.Ok(), nil
}

func (s *CreateSiteDatabaseStep) Apply(ctx *core.ProvisionContext) error {
	rootPass, err := s.Secrets.Lookup(secrets.KeyDBRootPassword)
	if err != nil {
		return err
	}

	statements := []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s CHARACTER SET utf8mb4 COLLATE utf8mb4_unicode_ci;", s.Site.DBName),
		fmt.Sprintf("CREATE USER IF NOT EXISTS '%s'@'localhost' IDENTIFIED BY '%s';", s.Site.DBUser, s.Site.DBPass),
		fmt.Sprintf("GRANT ALL PRIVILEGES ON %s.* TO '%s'@'localhost';", s.Site.DBName, s.Site.DBUser),
		"FLUSH PRIVILEGES;",
	}
	_, err = ctx.Runner.MustRun(ctx, rootMySQL(rootPass, strings.Join(statements, " ")))
	return err
}

func (s *CreateSiteDatabaseStep) Verify(ctx *core.ProvisionContext) error {
	cmd := fmt.Sprintf(`mysql -u %s -p'%s' %s -e "SELECT 1;"`, s.Site.DBUser, s.Site.DBPass, s.Site.DBName)
	if _, err := ctx.Runner.MustRun(ctx, cmd); err != nil {
		return fmt.Errorf("site user cannot reach database %s: %w", s.Site.DBName, err)
	}
	return nil
}

func rootMySQL(pass, sql string) string {
	return fmt.Sprintf(`mysql -u root -p'%s' -e "%s"`, pass, sql)
}
