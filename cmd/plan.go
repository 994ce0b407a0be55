package cmd

import (
	"os"
	"path/filepath"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/wpforge/wpforge/internal/core"
	"github.com/wpforge/wpforge/internal/netcheck"
	"github.com/wpforge/wpforge/internal/secrets"
	"github.com/wpforge/wpforge/internal/steps"
)

var planCmd = &cobra.Command{
	Use:   "plan [install|add-site]",
	Short: "Preview which steps would run, without changing the host",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		settings, err := loadSettings(cmd)
		if err != nil {
			pterm.Error.Println(err)
			os.Exit(1)
		}

		site, err := collectSiteConfig(cmd, settings)
		if err != nil {
			pterm.Error.Println(err)
			os.Exit(1)
		}

		name := "install"
		if len(args) == 1 {
			name = args[0]
		}

		t, err := newTransport(settings)
		if err != nil {
			pterm.Error.Println(err)
			os.Exit(1)
		}
		defer t.Close()

		ctx, cancel := interruptContext()
		defer cancel()

		pc := core.NewProvisionContext(ctx, t)
		core.DetectFacts(pc)

		store := secrets.NewStore(filepath.Join(settings.DataDir, "secrets.json"), pc.FS())
		deps := steps.Deps{Settings: settings, Secrets: store, Checker: netcheck.NewChecker()}

		var plan *core.Plan
		switch name {
		case "install":
			plan = steps.BuildInstallPlan(site, deps)
		case "add-site":
			plan = steps.BuildAddSitePlan(site, deps)
		default:
			pterm.Error.Printf("unknown plan %q\n", name)
			os.Exit(1)
		}

		executor := core.NewExecutor(plan, nil)
		changes, err := executor.Preview(pc)
		if err != nil {
			pterm.Error.Println(err)
			os.Exit(1)
		}

		pending := 0
		for _, c := range changes {
			if c.Action == "skip" {
				pterm.Info.Printf("[%s] %s: already satisfied\n", c.Phase, c.Step)
				continue
			}
			pending++
			pterm.Warning.Printf("[%s] %s: would apply\n", c.Phase, c.Step)
			if c.Diff != "" {
				pterm.Println(c.Diff)
			}
		}
		pterm.Println()
		pterm.Info.Printf("%d of %d steps pending.\n", pending, len(changes))
	},
}

func init() {
	rootCmd.AddCommand(planCmd)
	addSiteFlags(planCmd)
}
