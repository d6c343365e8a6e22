package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vortex-fintech/supvx2/config"
	"github.com/vortex-fintech/supvx2/logger"
)

var envFile string

// rootCmd runs the server when called without a subcommand.
var rootCmd = &cobra.Command{
	Use:           "supvx2",
	Short:         "Supvx2 backend",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

// Execute runs the command line and exits non-zero on any failure.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

//nolint:gochecknoinits
func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", config.DefaultEnvFile, "dotenv file read before the environment (missing file is ignored)")
}

// provider is built per invocation so --env-file is honoured.
func provider() *config.Provider {
	return config.NewProvider(config.Options{EnvFile: envFile})
}

// setup loads settings and builds the process logger.
func setup() (*config.Settings, *logger.Logger, error) {
	settings, err := provider().Get()
	if err != nil {
		return nil, nil, err
	}
	log, err := logger.New(settings.ServiceName, logger.EnvFor(bool(settings.Debug)))
	if err != nil {
		return nil, nil, err
	}
	return settings, log, nil
}
