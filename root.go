package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/vcscsvcscs/medadherence/internal/config"
	"go.uber.org/zap"
)

var rootCmd = &cobra.Command{
	Use:          "medadherence",
	Short:        "Medication adherence analytics service",
	Long:         `Tracks medication schedules and dose outcomes, computes adherence insights and correlates adherence with body metrics.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(migrateCmd)
}

// setup loads configuration and builds the logger every command shares
func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build logger: %w", err)
	}

	logger.Info("Configuration loaded successfully",
		zap.String("environment", cfg.Server.Environment),
		zap.String("driver", cfg.Database.Driver),
		zap.String("version", version),
	)
	return cfg, logger, nil
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	var zc zap.Config
	if cfg.Server.Environment == "production" {
		zc = zap.NewProductionConfig()
	} else {
		zc = zap.NewDevelopmentConfig()
	}

	switch cfg.Logging.Format {
	case "json":
		zc.Encoding = "json"
	case "console":
		zc.Encoding = "console"
	}

	if cfg.Logging.Level != "" {
		level, err := zap.ParseAtomicLevel(cfg.Logging.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", cfg.Logging.Level, err)
		}
		zc.Level = level
	}

	return zc.Build()
}
