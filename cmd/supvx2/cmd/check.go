package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vortex-fintech/supvx2/app"
)

var checkDBCmd = &cobra.Command{
	Use:   "check-db",
	Short: "Run the startup connectivity check and exit",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		settings, log, err := setup()
		if err != nil {
			return err
		}
		defer log.SafeSync()

		a, err := app.Open(cmd.Context(), settings, log)
		if err != nil {
			return err
		}
		if err := a.Start(cmd.Context()); err != nil {
			return err
		}
		a.Shutdown()

		fmt.Fprintf(cmd.OutOrStdout(), "database %s@%s:%d/%s reachable\n",
			settings.DatabaseUsername, settings.DatabaseHostname, settings.DatabasePort, settings.DatabaseName)
		return nil
	},
}

//nolint:gochecknoinits
func init() {
	rootCmd.AddCommand(checkDBCmd)
}
