package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/nexusmind/internal/cli"
	"github.com/aretw0/nexusmind/internal/config"
	"github.com/aretw0/nexusmind/pkg/domain"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "nexusmind",
	Short: "NexusMind runs queries through a staged graph-of-thoughts pipeline",
	Long: `NexusMind answers a query by building a typed graph of dimensions, hypotheses
and evidence across eight stages, then reports the answer with a
four-component confidence vector and a per-stage trace.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().String("log-level", "", "Log level override: debug, info, warn, error")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
}

// setup loads the config named by the persistent flags and builds the logger.
func setup(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, err
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Log.Level = level
	}
	debug, _ := cmd.Flags().GetBool("debug")
	logger, err := cli.CreateLogger(cfg.Log.Level, debug)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

// openEngine is setup followed by cli.CreateEngine. The caller closes the resources.
func openEngine(ctx context.Context, cmd *cobra.Command, extra ...domain.LifecycleHooks) (*cli.Resources, *config.Config, *slog.Logger, error) {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return nil, nil, nil, err
	}
	res, err := cli.CreateEngine(ctx, cfg, logger, extra...)
	if err != nil {
		return nil, nil, nil, err
	}
	return res, cfg, logger, nil
}
