package cmd

import (
	"github.com/spf13/cobra"

	"github.com/vortex-fintech/supvx2/app"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Verify the database and serve the HTTP API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	settings, log, err := setup()
	if err != nil {
		return err
	}
	defer log.SafeSync()

	ctx := cmd.Context()
	a, err := app.Open(ctx, settings, log)
	if err != nil {
		log.Errorw("failed to build database pool", "err", err)
		return err
	}
	return a.Run(ctx)
}

//nolint:gochecknoinits
func init() {
	rootCmd.AddCommand(serveCmd)
}
