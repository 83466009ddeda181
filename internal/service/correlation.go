package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vcscsvcscs/medadherence/internal/analytics"
	"github.com/vcscsvcscs/medadherence/internal/audit"
	"github.com/vcscsvcscs/medadherence/internal/repository"
	"github.com/vcscsvcscs/medadherence/pkg/model"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// CorrelationService correlates medication adherence with body metrics and persists the
// results of batch analysis passes
type CorrelationService struct {
	meds     MedicationStore
	doses    DoseRecordStore
	metrics  MetricSampleStore
	results  CorrelationStore
	audit    AuditRecorder
	settings Settings
	logger   *zap.Logger
	now      func() time.Time
}

// NewCorrelationService creates a new CorrelationService
func NewCorrelationService(meds MedicationStore, doses DoseRecordStore, metrics MetricSampleStore, results CorrelationStore, settings Settings, logger *zap.Logger) *CorrelationService {
	return &CorrelationService{
		meds:     meds,
		doses:    doses,
		metrics:  metrics,
		results:  results,
		settings: settings,
		logger:   logger,
		now:      time.Now,
	}
}

// WithAudit enables audit entries for analysis runs
func (s *CorrelationService) WithAudit(recorder AuditRecorder) *CorrelationService {
	s.audit = recorder
	return s
}

// AnalyzeMedicationMetricCorrelation correlates one medication's taken days with one
// metric over the trailing lookbackDays. It returns nil without error when the metric
// is unsupported, the medication is unknown to the user, or fewer than the minimum
// number of paired days exist. The result is not persisted.
func (s *CorrelationService) AnalyzeMedicationMetricCorrelation(ctx context.Context, userID, medicationID string, metric model.MetricType, lookbackDays int) (result *model.CorrelationResult, err error) {
	ctx, span := tracer.Start(ctx, "CorrelationService.AnalyzeMedicationMetricCorrelation")
	defer func() { endSpan(span, err) }()
	span.SetAttributes(
		attribute.String("user_id", userID),
		attribute.String("medication_id", medicationID),
		attribute.String("metric", string(metric)),
	)

	if !s.settings.supports(metric) {
		return nil, nil
	}

	med, err := s.meds.FindMedicationByID(ctx, medicationID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		s.logger.Error("failed to find medication", zap.Error(err), zap.String("medication_id", medicationID))
		return nil, fmt.Errorf("failed to find medication: %w", err)
	}
	if med.UserID != userID {
		return nil, nil
	}

	lookbackDays = s.settings.clampDays(lookbackDays, s.settings.DefaultLookbackDays)
	return s.analyze(ctx, *med, metric, lookbackDays)
}

// AnalyzeAllMedicationCorrelations analyzes every active medication against every
// supported metric. Pairs without enough data are omitted.
func (s *CorrelationService) AnalyzeAllMedicationCorrelations(ctx context.Context, userID string, lookbackDays int) ([]model.CorrelationResult, error) {
	lookbackDays = s.settings.clampDays(lookbackDays, s.settings.DefaultLookbackDays)

	meds, err := s.meds.ListActiveMedications(ctx, userID)
	if err != nil {
		s.logger.Error("failed to list active medications", zap.Error(err), zap.String("user_id", userID))
		return nil, fmt.Errorf("failed to list active medications: %w", err)
	}

	results := []model.CorrelationResult{}
	for _, med := range meds {
		for _, metric := range s.settings.SupportedMetrics {
			result, err := s.analyze(ctx, med, metric, lookbackDays)
			if err != nil {
				return nil, err
			}
			if result != nil {
				results = append(results, *result)
			}
		}
	}

	return results, nil
}

// RunCorrelationAnalysis analyzes all of a user's medications over the default lookback
// and upserts every result. Pairs that fall below the sample gate keep their last
// stored result.
func (s *CorrelationService) RunCorrelationAnalysis(ctx context.Context, userID string) (results []model.CorrelationResult, err error) {
	ctx, span := tracer.Start(ctx, "CorrelationService.RunCorrelationAnalysis")
	defer func() { endSpan(span, err) }()
	span.SetAttributes(attribute.String("user_id", userID))

	results, err = s.AnalyzeAllMedicationCorrelations(ctx, userID, s.settings.DefaultLookbackDays)
	if err != nil {
		return nil, err
	}

	for i := range results {
		if err := s.results.UpsertCorrelationResult(ctx, results[i].Key(), &results[i]); err != nil {
			s.logger.Error("failed to store correlation result",
				zap.Error(err),
				zap.String("user_id", userID),
				zap.String("medication_id", results[i].MedicationID),
				zap.String("metric", string(results[i].Metric)),
			)
			return nil, fmt.Errorf("failed to store correlation result: %w", err)
		}
	}

	recordAudit(ctx, s.audit, s.logger, audit.Entry{
		UserID:     userID,
		Action:     audit.ActionAnalyze,
		Resource:   audit.ResourceCorrelations,
		ResourceID: userID,
		Details:    map[string]any{"results": len(results)},
	})

	s.logger.Info("correlation analysis completed",
		zap.String("user_id", userID),
		zap.Int("results", len(results)),
	)
	span.SetAttributes(attribute.Int("results", len(results)))

	return results, nil
}

// GetCorrelationInsights returns the user's persisted correlation results enriched with
// medication names
func (s *CorrelationService) GetCorrelationInsights(ctx context.Context, userID string) ([]model.CorrelationResult, error) {
	results, err := s.results.ListCorrelationResults(ctx, userID)
	if err != nil {
		s.logger.Error("failed to list correlation results", zap.Error(err), zap.String("user_id", userID))
		return nil, fmt.Errorf("failed to list correlation results: %w", err)
	}
	return results, nil
}

func (s *CorrelationService) analyze(ctx context.Context, med model.Medication, metric model.MetricType, lookbackDays int) (*model.CorrelationResult, error) {
	loc := s.settings.location(nil)
	now := s.now()
	window := analytics.DayWindow(now, lookbackDays, loc)

	records, err := s.doses.ListDoseRecords(ctx, med.UserID, &med.ID, window)
	if err != nil {
		s.logger.Error("failed to list dose records",
			zap.Error(err),
			zap.String("user_id", med.UserID),
			zap.String("medication_id", med.ID),
		)
		return nil, fmt.Errorf("failed to list dose records: %w", err)
	}

	samples, err := s.metrics.ListMetricSamples(ctx, med.UserID, metric, window)
	if err != nil {
		s.logger.Error("failed to list metric samples",
			zap.Error(err),
			zap.String("user_id", med.UserID),
			zap.String("metric", string(metric)),
		)
		return nil, fmt.Errorf("failed to list metric samples: %w", err)
	}

	doses := analytics.ProjectDoses([]model.Medication{med}, records, window, now, loc)
	series := analytics.PairTakenWithMetric(doses, samples, window, loc)

	th := s.settings.Thresholds
	if series.Len() < th.MinCorrelationPoints {
		s.logger.Debug("not enough paired data points for correlation",
			zap.String("medication_id", med.ID),
			zap.String("metric", string(metric)),
			zap.Int("data_points", series.Len()),
		)
		return nil, nil
	}

	r := analytics.PearsonCorrelation(series.X, series.Y)
	confidence := analytics.DetermineConfidence(series.Len(), r, th)

	return &model.CorrelationResult{
		ID:                     uuid.New().String(),
		UserID:                 med.UserID,
		MedicationID:           med.ID,
		MedicationName:         med.Name,
		Metric:                 metric,
		CorrelationCoefficient: r,
		ImpactDirection:        analytics.DetermineDirection(r, th),
		DataPoints:             series.Len(),
		ConfidenceLevel:        confidence,
		Observations:           analytics.BuildObservations(series, metric, r, confidence, th),
		CreatedAt:              now,
		UpdatedAt:              now,
	}, nil
}
