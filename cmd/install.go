package cmd

import (
	"github.com/spf13/cobra"

	"github.com/wpforge/wpforge/internal/steps"
)

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Provision this host as a WordPress LAMP server",
	Long: `Runs the full install plan: system upgrade, packages, firewall, WAF
ruleset, MariaDB hardening, Apache vhost, DNS-gated TLS certificate and
wp-config for the first site. Re-running resumes after the last completed
step and skips everything already in place.`,
	Run: func(cmd *cobra.Command, args []string) {
		runPlan(cmd, "install", steps.BuildInstallPlan)
	},
}

func init() {
	rootCmd.AddCommand(installCmd)
	addSiteFlags(installCmd)
}
