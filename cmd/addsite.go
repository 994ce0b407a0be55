package cmd

import (
	"github.com/spf13/cobra"

	"github.com/wpforge/wpforge/internal/steps"
)

var addSiteCmd = &cobra.Command{
	Use:   "add-site",
	Short: "Deploy another WordPress site on an installed host",
	Long: `Adds a WordPress site to a host previously provisioned by wpforge:
new database and user (reusing the stored root credential), new site tree
and vhost, DNS-gated TLS certificate and wp-config. Aborts if the host has
no stored root credential.`,
	Run: func(cmd *cobra.Command, args []string) {
		runPlan(cmd, "add-site", steps.BuildAddSitePlan)
	},
}

func init() {
	rootCmd.AddCommand(addSiteCmd)
	addSiteFlags(addSiteCmd)
}
