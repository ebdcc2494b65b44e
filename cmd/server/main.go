package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/example/assessly-billing/internal/config"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:           "assessly-billing",
	Short:         "Assessly billing backend: Stripe checkout, webhooks and renewal reminders",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "optional YAML config file; environment variables take precedence")
	rootCmd.AddCommand(serveCmd, renewalsCmd, configCmd)
}

func main() {
	// A .env file is a development convenience only.
	if os.Getenv("GIN_MODE") != "release" {
		_ = godotenv.Load()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// loadConfig loads the configuration and builds the matching logger.
func loadConfig() (*config.Config, *zap.Logger, error) {
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load application configuration: %w", err)
	}

	var logger *zap.Logger
	if cfg.IsRelease() {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize zap logger: %w", err)
	}
	return cfg, logger, nil
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration with secrets masked",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.LoadConfig(configFile)
		if err != nil {
			return err
		}
		out, err := cfg.YAML()
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(out)
		return err
	},
}
