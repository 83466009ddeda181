package service

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/vcscsvcscs/medadherence/pkg/model"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// CorrelationRunner runs the persisted correlation analysis for one user
type CorrelationRunner interface {
	RunCorrelationAnalysis(ctx context.Context, userID string) ([]model.CorrelationResult, error)
}

// RunSummary reports the outcome of a batch pass
type RunSummary struct {
	Users   int `json:"users"`
	Failed  int `json:"failed"`
	Results int `json:"results"`
}

// AnalysisRunner runs correlation analysis across all users with bounded concurrency
type AnalysisRunner struct {
	users       UserLister
	analyzer    CorrelationRunner
	concurrency int
	logger      *zap.Logger
}

// NewAnalysisRunner creates a new AnalysisRunner
func NewAnalysisRunner(users UserLister, analyzer CorrelationRunner, concurrency int, logger *zap.Logger) *AnalysisRunner {
	if concurrency < 1 {
		concurrency = 1
	}
	return &AnalysisRunner{
		users:       users,
		analyzer:    analyzer,
		concurrency: concurrency,
		logger:      logger,
	}
}

// RunAll analyzes every user with an active medication. A failure for one user is
// logged and counted without stopping the others; only a failure to list users or a
// cancelled context is returned.
func (r *AnalysisRunner) RunAll(ctx context.Context) (RunSummary, error) {
	userIDs, err := r.users.ListUsersWithActiveMedications(ctx)
	if err != nil {
		r.logger.Error("failed to list users for analysis", zap.Error(err))
		return RunSummary{}, fmt.Errorf("failed to list users: %w", err)
	}
	return r.RunUsers(ctx, userIDs)
}

// RunUsers analyzes the given users
func (r *AnalysisRunner) RunUsers(ctx context.Context, userIDs []string) (RunSummary, error) {
	start := time.Now()
	var failed, results atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	for _, userID := range userIDs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := r.analyzer.RunCorrelationAnalysis(gctx, userID)
			if err != nil {
				failed.Add(1)
				r.logger.Error("correlation analysis failed for user",
					zap.Error(err),
					zap.String("user_id", userID),
				)
				return nil
			}
			results.Add(int64(len(res)))
			return nil
		})
	}

	err := g.Wait()
	summary := RunSummary{
		Users:   len(userIDs),
		Failed:  int(failed.Load()),
		Results: int(results.Load()),
	}

	r.logger.Info("analysis pass finished",
		zap.Int("users", summary.Users),
		zap.Int("failed", summary.Failed),
		zap.Int("results", summary.Results),
		zap.Duration("duration", time.Since(start)),
	)

	if err != nil {
		return summary, fmt.Errorf("analysis pass interrupted: %w", err)
	}
	return summary, nil
}

// Start runs RunAll every interval until ctx is cancelled. It blocks.
func (r *AnalysisRunner) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	r.logger.Info("periodic analysis started", zap.Duration("interval", interval))
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("periodic analysis stopped")
			return
		case <-ticker.C:
			if _, err := r.RunAll(ctx); err != nil {
				r.logger.Warn("periodic analysis pass failed", zap.Error(err))
			}
		}
	}
}
