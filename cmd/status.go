package cmd

import (
	"os"
	"path/filepath"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/wpforge/wpforge/internal/state"
)

var statusCmd = &cobra.Command{
	Use:   "status [install|add-site]",
	Short: "Show the step outcomes of the last run",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		settings, err := loadSettings(cmd)
		if err != nil {
			pterm.Error.Println(err)
			os.Exit(1)
		}

		plan := "install"
		if len(args) == 1 {
			plan = args[0]
		}

		// Read the record from the host the plans ran against, which may be
		// a remote target.
		fsys, closeFS, err := targetFS(settings)
		if err != nil {
			pterm.Error.Println(err)
			os.Exit(1)
		}
		defer closeFS()

		mgr, err := state.NewManager(filepath.Join(settings.DataDir, "runs", plan+".json"), fsys)
		if err != nil {
			pterm.Error.Println(err)
			os.Exit(1)
		}
		if mgr.Current == nil {
			pterm.Info.Printf("No recorded %s run on this host.\n", plan)
			return
		}

		run := mgr.Current
		pterm.DefaultSection.Printf("Plan %s — run %s (%s)\n", run.Plan, run.ID, run.Status)

		rows := pterm.TableData{{"Step", "Status", "Finished", "Error"}}
		for _, s := range run.Steps {
			finished := ""
			if s.FinishedAt != nil {
				finished = s.FinishedAt.Format("2006-01-02 15:04:05")
			}
			rows = append(rows, []string{s.Name, string(s.Status), finished, s.Error})
		}
		_ = pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
