package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/vcscsvcscs/medadherence/internal/service"
	"go.uber.org/zap"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run correlation analysis once",
	Long:  `Recompute and persist medication and metric correlations for the given users, or for every user with an active medication.`,
	RunE:  runAnalyze,
}

var analyzeUsers []string

func init() {
	analyzeCmd.Flags().StringSliceVarP(&analyzeUsers, "user", "u", nil, "User ID to analyze (repeatable; default all users)")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx := cmd.Context()

	b, err := openBackend(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer b.close()

	svc := newServices(b, cfg, logger)
	runner := service.NewAnalysisRunner(b.users, svc.correlation, cfg.Analysis.Concurrency, logger)

	var summary service.RunSummary
	if len(analyzeUsers) > 0 {
		summary, err = runner.RunUsers(ctx, analyzeUsers)
	} else {
		summary, err = runner.RunAll(ctx)
	}
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	logger.Info("Analysis complete",
		zap.Int("users", summary.Users),
		zap.Int("failed", summary.Failed),
		zap.Int("results", summary.Results),
	)
	if summary.Failed > 0 {
		return fmt.Errorf("analysis failed for %d of %d users", summary.Failed, summary.Users)
	}
	return nil
}
