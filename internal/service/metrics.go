package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vcscsvcscs/medadherence/internal/analytics"
	"github.com/vcscsvcscs/medadherence/pkg/model"
	"go.uber.org/zap"
)

// MetricService records and lists body metric samples
type MetricService struct {
	store    MetricSampleStore
	settings Settings
	logger   *zap.Logger
	now      func() time.Time
}

// NewMetricService creates a new MetricService
func NewMetricService(store MetricSampleStore, settings Settings, logger *zap.Logger) *MetricService {
	return &MetricService{
		store:    store,
		settings: settings,
		logger:   logger,
		now:      time.Now,
	}
}

// RecordMetric stores one sample for a calendar date, overwriting an earlier sample of
// the same metric on that date. A zero date means today.
func (s *MetricService) RecordMetric(ctx context.Context, userID string, metric model.MetricType, date time.Time, value float64, unit string) (*model.MetricSample, error) {
	if userID == "" {
		return nil, validationError("user ID is required")
	}
	if !metric.Recordable() {
		return nil, validationError("unsupported metric: %q", metric)
	}
	if math.IsNaN(value) || math.IsInf(value, 0) || value < 0 {
		return nil, validationError("metric value must be a non-negative number")
	}

	loc := s.settings.location(nil)
	now := s.now()
	if date.IsZero() {
		date = analytics.StartOfDay(now, loc)
	} else {
		date = analytics.CalendarDate(date, loc)
	}
	if date.After(analytics.StartOfDay(now, loc)) {
		return nil, validationError("metric date must not be in the future")
	}

	sample := &model.MetricSample{
		ID:        uuid.New().String(),
		UserID:    userID,
		Metric:    metric,
		Date:      date,
		Value:     value,
		Unit:      strings.TrimSpace(unit),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.store.UpsertMetricSample(ctx, sample); err != nil {
		s.logger.Error("failed to record metric",
			zap.Error(err),
			zap.String("user_id", userID),
			zap.String("metric", string(metric)),
		)
		return nil, fmt.Errorf("failed to record metric: %w", err)
	}

	s.logger.Info("metric recorded",
		zap.String("user_id", userID),
		zap.String("metric", string(metric)),
		zap.String("date", date.Format("2006-01-02")),
	)

	return sample, nil
}

// ListMetrics returns a user's samples of one metric over the trailing days, oldest first
func (s *MetricService) ListMetrics(ctx context.Context, userID string, metric model.MetricType, days int) ([]model.MetricSample, error) {
	if userID == "" {
		return nil, validationError("user ID is required")
	}
	if !metric.Recordable() {
		return nil, validationError("unsupported metric: %q", metric)
	}

	days = s.settings.clampDays(days, s.settings.DefaultLookbackDays)
	window := analytics.DayWindow(s.now(), days, s.settings.location(nil))

	samples, err := s.store.ListMetricSamples(ctx, userID, metric, window)
	if err != nil {
		s.logger.Error("failed to list metrics",
			zap.Error(err),
			zap.String("user_id", userID),
			zap.String("metric", string(metric)),
		)
		return nil, fmt.Errorf("failed to list metrics: %w", err)
	}

	return samples, nil
}
