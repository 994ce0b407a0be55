package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/wpforge/wpforge/internal/config"
	"github.com/wpforge/wpforge/internal/core"
	"github.com/wpforge/wpforge/internal/netcheck"
	"github.com/wpforge/wpforge/internal/secrets"
	"github.com/wpforge/wpforge/internal/state"
	"github.com/wpforge/wpforge/internal/steps"
	"github.com/wpforge/wpforge/internal/transport"
	"github.com/wpforge/wpforge/internal/ui"
)

func addSiteFlags(cmd *cobra.Command) {
	cmd.Flags().String("domain", "", "site domain name")
	cmd.Flags().String("db-name", "", "database name")
	cmd.Flags().String("db-user", "", "database user")
	cmd.Flags().String("db-pass", "", "database password")
	cmd.Flags().String("email", "", "admin email (TLS contact)")
	cmd.Flags().BoolP("yes", "y", false, "skip the confirmation prompt")
	cmd.Flags().Bool("dry-run", false, "preview without changing the host")
	cmd.Flags().Bool("fresh", false, "discard the previous run record instead of resuming")
}

func loadSettings(cmd *cobra.Command) (config.Settings, error) {
	path, _ := cmd.Flags().GetString("settings")
	return config.LoadSettings(path)
}

// collectSiteConfig fills the site config from flags, prompting for anything
// missing. The database password prompt is masked.
func collectSiteConfig(cmd *cobra.Command, settings config.Settings) (config.SiteConfig, error) {
	site := config.SiteConfig{}
	site.Domain, _ = cmd.Flags().GetString("domain")
	site.DBName, _ = cmd.Flags().GetString("db-name")
	site.DBUser, _ = cmd.Flags().GetString("db-user")
	site.DBPass, _ = cmd.Flags().GetString("db-pass")
	site.AdminEmail, _ = cmd.Flags().GetString("email")
	if site.AdminEmail == "" {
		site.AdminEmail = settings.AdminEmail
	}

	var err error
	if site.Domain == "" {
		site.Domain, err = pterm.DefaultInteractiveTextInput.WithDefaultText("Domain name").Show()
		if err != nil {
			return site, err
		}
	}
	if site.DBName == "" {
		site.DBName, err = pterm.DefaultInteractiveTextInput.WithDefaultText("Database name").Show()
		if err != nil {
			return site, err
		}
	}
	if site.DBUser == "" {
		site.DBUser, err = pterm.DefaultInteractiveTextInput.WithDefaultText("Database user").Show()
		if err != nil {
			return site, err
		}
	}
	if site.DBPass == "" {
		site.DBPass, err = pterm.DefaultInteractiveTextInput.WithDefaultText("Database password").WithMask("*").Show()
		if err != nil {
			return site, err
		}
	}
	if site.AdminEmail == "" {
		site.AdminEmail, err = pterm.DefaultInteractiveTextInput.WithDefaultText("Admin email").Show()
		if err != nil {
			return site, err
		}
	}

	site.SiteRoot = filepath.Join(settings.WebRoot, site.Domain)
	if err := site.Validate(); err != nil {
		return site, err
	}
	return site, nil
}

// confirmPlan shows the plan summary and asks before any mutation.
func confirmPlan(cmd *cobra.Command, out core.UI, plan *core.Plan, site config.SiteConfig) error {
	yes, _ := cmd.Flags().GetBool("yes")
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	out.Section("Plan: " + plan.Name)
	out.Printf("Domain:    %s\n", site.Domain)
	out.Printf("Site root: %s\n", site.SiteRoot)
	out.Printf("Database:  %s (user %s)\n", site.DBName, site.DBUser)
	out.Printf("Steps:     %d\n", len(plan.Steps))

	if yes || dryRun {
		return nil
	}
	confirm, err := pterm.DefaultInteractiveConfirm.
		WithDefaultText("Apply this plan?").
		WithDefaultValue(false).
		Show()
	if err != nil {
		return err
	}
	if !confirm {
		return core.ErrUserCancelled
	}
	return nil
}

func newTransport(settings config.Settings) (core.Transport, error) {
	if settings.Host.Address != "" {
		return transport.NewSSHTransport(settings.Host)
	}
	return transport.NewLocalTransport(), nil
}

// targetFS opens the filesystem of the configured target host. The read-only
// commands (status, secrets) use it so they inspect the same machine the
// plans ran against.
func targetFS(settings config.Settings) (core.FileSystem, func(), error) {
	t, err := newTransport(settings)
	if err != nil {
		return nil, nil, err
	}
	return t.FileSystem(), func() { _ = t.Close() }, nil
}

// openRunLog creates the timestamped plaintext installation log.
func openRunLog(settings config.Settings, plan string) (*os.File, string, error) {
	if err := os.MkdirAll(settings.LogDir, 0o755); err != nil {
		return nil, "", err
	}
	path := filepath.Join(settings.LogDir, fmt.Sprintf("%s-%s.log", plan, time.Now().Format("20060102-150405")))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	return f, path, err
}

// runPlan wires transport, state, secrets and logging together and executes
// the given plan builder. It is shared by install and add-site.
func runPlan(cmd *cobra.Command, planName string, build func(config.SiteConfig, steps.Deps) *core.Plan) {
	out := ui.NewPtermUI().WithWriter(os.Stderr)

	settings, err := loadSettings(cmd)
	if err != nil {
		out.Error(err.Error())
		os.Exit(1)
	}

	site, err := collectSiteConfig(cmd, settings)
	if err != nil {
		out.Error(err.Error())
		os.Exit(1)
	}

	dryRun, _ := cmd.Flags().GetBool("dry-run")
	fresh, _ := cmd.Flags().GetBool("fresh")

	t, err := newTransport(settings)
	if err != nil {
		out.Error(err.Error())
		os.Exit(1)
	}
	defer t.Close()

	ctx, cancel := interruptContext()
	defer cancel()

	pc := core.NewProvisionContext(ctx, t)
	pc.DryRun = dryRun
	pc.UI = out
	level := core.LevelInfo
	if verboseCount > 0 {
		level = core.LevelDebug
	}
	pc.Logger = core.NewDefaultLogger(os.Stderr, level)
	core.DetectFacts(pc)

	store := secrets.NewStore(filepath.Join(settings.DataDir, "secrets.json"), pc.FS())
	checker := netcheck.NewChecker()
	plan := build(site, steps.Deps{Settings: settings, Secrets: store, Checker: checker})

	if err := confirmPlan(cmd, out, plan, site); err != nil {
		if errors.Is(err, core.ErrUserCancelled) {
			out.Info("Aborted, nothing was changed.")
		} else {
			out.Error(err.Error())
		}
		os.Exit(1)
	}

	var logPath string
	if !dryRun {
		lock := state.NewLock(settings.DataDir)
		if err := lock.Acquire(); err != nil {
			out.Error(err.Error())
			os.Exit(1)
		}
		defer lock.Release()

		logFile, path, err := openRunLog(settings, planName)
		if err != nil {
			out.Error(err.Error())
			os.Exit(1)
		}
		defer logFile.Close()
		pc.RunLog = logFile
		logPath = path
	}

	recorder, err := state.NewManager(filepath.Join(settings.DataDir, "runs", planName+".json"), pc.FS())
	if err != nil {
		out.Error(err.Error())
		os.Exit(1)
	}
	if fresh {
		recorder.Discard()
	}

	executor := core.NewExecutor(plan, recorder)
	results, runErr := executor.Run(pc)

	printResults(out, results)

	if runErr != nil {
		if errors.Is(runErr, core.ErrUserCancelled) {
			out.Error("Run interrupted; re-run to resume from the last completed step.")
			os.Exit(130)
		}
		reportFailure(out, runErr, logPath)
		os.Exit(1)
	}

	if dryRun {
		out.Success("Dry run complete, no changes were made.")
		return
	}

	finishRun(pc, store, site, logPath)
}

func printResults(out core.UI, results []core.StepResult) {
	for _, r := range results {
		label := fmt.Sprintf("[%s] %s", r.Phase, r.Step)
		switch r.Status {
		case core.StatusDone:
			out.Success(fmt.Sprintf("%s: %s", label, r.Message))
		case core.StatusSkipped:
			out.Info(fmt.Sprintf("%s: skipped (%s)", label, r.Message))
		case core.StatusFailed:
			out.Error(fmt.Sprintf("%s: %s", label, r.Message))
		default:
			out.Info(fmt.Sprintf("%s: %s", label, r.Message))
		}
	}
}

func reportFailure(out core.UI, runErr error, logPath string) {
	var stepErr *core.StepError
	out.Println()
	if errors.As(runErr, &stepErr) {
		out.Title(fmt.Sprintf("FAILED: step %s (%s phase)", stepErr.Step, stepErr.Phase))
		out.Error(stepErr.Err.Error())
	} else {
		out.Error(runErr.Error())
	}
	if logPath != "" {
		out.Printf("Full output: %s\n", logPath)
	}
	out.Info("Fix the cause and re-run; completed steps will be skipped.")
}

// finishRun prints the summary and appends the root password line to the
// installation log.
func finishRun(pc *core.ProvisionContext, store *secrets.Store, site config.SiteConfig, logPath string) {
	pc.UI.Println()
	pc.UI.Success(fmt.Sprintf("Site %s is provisioned at %s", site.Domain, site.SiteRoot))

	if err := steps.WriteRootPasswordLine(pc.RunLog, store); err == nil {
		if rootPass, lookupErr := store.Lookup(secrets.KeyDBRootPassword); lookupErr == nil {
			pc.UI.Printf("%s: %s\n", steps.RootPasswordLabel, rootPass)
		}
	}
	if logPath != "" {
		pc.UI.Printf("Install log: %s\n", logPath)
	}
}
