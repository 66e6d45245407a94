// Package main provides the CLI entrypoint for the domain enricher. It wires
// the subcommands (run, validate), loads configuration and initializes
// logging.
package main

import (
	"context"
	"enricher/internal/config"
	"enricher/pkg/logger"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// app carries state shared by the subcommands once the root command has
// loaded the configuration.
type app struct {
	ctx context.Context
	cfg *config.Config
}

func setup(a *app, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	var outputs []string
	if cfg.Log.File != "" {
		outputs = []string{"stderr", cfg.Log.File}
	}
	if err := logger.Setup(cfg.Environment, outputs...); err != nil {
		return fmt.Errorf("could not setup logger: %w", err)
	}

	a.cfg = cfg
	a.ctx = logger.WithFields(context.Background(), zap.String("runID", uuid.NewString()))

	return nil
}

// main sets up the root Cobra command and registers subcommands before
// executing the CLI.
func main() {
	a := &app{ctx: context.Background()}

	var configPath string
	rootCmd := &cobra.Command{
		Use:          "enricher",
		Short:        "Matches a domain list against infostealer intelligence",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setup(a, configPath)
		},
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yml", "Config File Path")

	defer func() {
		if p := recover(); p != nil {
			logger.Error(a.ctx, "captured panic, exiting...", zap.Any("panic", p))
			logger.Sync()

			panic(p)
		}
	}()

	rootCmd.AddCommand(
		runCommand(a),
		validateCommand(a),
	)

	err := rootCmd.Execute()
	logger.Sync()
	if err != nil {
		os.Exit(1) //nolint: gocritic
	}
}
