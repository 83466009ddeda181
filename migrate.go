package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	Long:  `Apply pending PostgreSQL schema migrations. The sqlite store creates its schema when opened.`,
	RunE:  runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.Database.Driver != "postgres" {
		logger.Info("Nothing to migrate for driver", zap.String("driver", cfg.Database.Driver))
		return nil
	}
	return migratePostgres(cmd.Context(), cfg.Database.URL, logger)
}
