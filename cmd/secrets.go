package cmd

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/wpforge/wpforge/internal/secrets"
)

var secretsCmd = &cobra.Command{
	Use:   "secrets",
	Short: "Inspect the stored credential bundle",
}

var secretsPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the secret bundle location",
	Run: func(cmd *cobra.Command, args []string) {
		settings, err := loadSettings(cmd)
		if err != nil {
			pterm.Error.Println(err)
			os.Exit(1)
		}
		cmd.Println(filepath.Join(settings.DataDir, "secrets.json"))
	},
}

var secretsShowCmd = &cobra.Command{
	Use:   "show <key>",
	Short: "Print one stored secret (e.g. dbRootPassword)",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		settings, err := loadSettings(cmd)
		if err != nil {
			pterm.Error.Println(err)
			os.Exit(1)
		}

		fsys, closeFS, err := targetFS(settings)
		if err != nil {
			pterm.Error.Println(err)
			os.Exit(1)
		}
		defer closeFS()

		store := secrets.NewStore(filepath.Join(settings.DataDir, "secrets.json"), fsys)
		val, err := store.Lookup(args[0])
		if err != nil {
			if errors.Is(err, secrets.ErrSecretNotFound) {
				pterm.Error.Printf("No secret %q on this host.\n", args[0])
			} else {
				pterm.Error.Println(err)
			}
			os.Exit(1)
		}
		cmd.Println(val)
	},
}

func init() {
	rootCmd.AddCommand(secretsCmd)
	secretsCmd.AddCommand(secretsPathCmd)
	secretsCmd.AddCommand(secretsShowCmd)
}
