// Package cli provides the pa-agent command-line interface.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"pa-agent/internal/di"
	"pa-agent/internal/infrastructure/env"

	"github.com/spf13/cobra"
)

// Version is set at build time.
var Version = "0.1.0"

var (
	container *di.Container

	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "pa-agent",
	Short: "Prior authorization portal automation",
	Long: `pa-agent fills prior authorization request forms on a payer portal
from CRM case data and tracks submitted requests until they are approved.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}

		cfg := env.LoadConfig(env.NewEnvService())
		if logLevel != "" {
			cfg.LogLevel = logLevel
		}

		var err error
		container, err = di.NewContainer(cfg)
		if err != nil {
			return fmt.Errorf("initialize: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if container != nil {
			container.Close()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override LOG_LEVEL (debug, info, warn, error)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(submitCmd)
	rootCmd.AddCommand(trackCmd)
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
