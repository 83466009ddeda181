package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vcscsvcscs/medadherence/internal/analytics"
	"github.com/vcscsvcscs/medadherence/internal/repository"
	"github.com/vcscsvcscs/medadherence/pkg/model"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const (
	weekDays  = 7
	monthDays = 30
)

// AdherenceService computes adherence overviews and per-medication details. It never
// writes to storage.
type AdherenceService struct {
	meds     MedicationStore
	doses    DoseRecordStore
	settings Settings
	logger   *zap.Logger
	now      func() time.Time
}

// NewAdherenceService creates a new AdherenceService
func NewAdherenceService(meds MedicationStore, doses DoseRecordStore, settings Settings, logger *zap.Logger) *AdherenceService {
	return &AdherenceService{
		meds:     meds,
		doses:    doses,
		settings: settings,
		logger:   logger,
		now:      time.Now,
	}
}

// ComputeOverview builds the adherence overview of a user's active medications over the
// trailing windowDays calendar days, today included. A nil loc uses the configured zone.
func (s *AdherenceService) ComputeOverview(ctx context.Context, userID string, windowDays int, loc *time.Location) (overview *analytics.AdherenceOverview, err error) {
	ctx, span := tracer.Start(ctx, "AdherenceService.ComputeOverview")
	defer func() { endSpan(span, err) }()

	windowDays = s.settings.clampDays(windowDays, s.settings.DefaultWindowDays)
	loc = s.settings.location(loc)
	now := s.now()
	span.SetAttributes(attribute.String("user_id", userID), attribute.Int("window_days", windowDays))

	meds, err := s.meds.ListActiveMedications(ctx, userID)
	if err != nil {
		s.logger.Error("failed to list active medications", zap.Error(err), zap.String("user_id", userID))
		return nil, fmt.Errorf("failed to list active medications: %w", err)
	}

	// Full history up to the end of today; allTime is not limited by the window
	history := model.DateRange{End: analytics.StartOfDay(now, loc).AddDate(0, 0, 1)}
	var records []model.DoseRecord
	if len(meds) > 0 {
		records, err = s.doses.ListDoseRecords(ctx, userID, nil, history)
		if err != nil {
			s.logger.Error("failed to list dose records", zap.Error(err), zap.String("user_id", userID))
			return nil, fmt.Errorf("failed to list dose records: %w", err)
		}
	}

	doses := analytics.ProjectDoses(meds, records, history, now, loc)
	window := analytics.DayWindow(now, windowDays, loc)

	overview = &analytics.AdherenceOverview{
		WindowDays:    windowDays,
		DailySeries:   analytics.BucketByDay(doses, window, loc),
		WeeklySeries:  analytics.BucketByDay(doses, analytics.DayWindow(now, weekDays, loc), loc),
		MonthlySeries: analytics.BucketByDay(doses, analytics.DayWindow(now, monthDays, loc), loc),
		WeekBuckets:   analytics.BucketByISOWeek(doses, window, loc),
		MonthBuckets:  analytics.BucketByMonth(doses, window, loc),
		PerMedication: make([]analytics.MedicationBreakdown, 0, len(meds)),
		OverallStats: analytics.OverallStats{
			ThisWeek:  analytics.NewPeriodStats(analytics.CountDoses(doses, analytics.DayWindow(now, weekDays, loc))),
			ThisMonth: analytics.NewPeriodStats(analytics.CountDoses(doses, analytics.DayWindow(now, monthDays, loc))),
			AllTime:   analytics.NewPeriodStats(analytics.CountDoses(doses, history)),
		},
	}
	overview.Streak = analytics.CalculateStreak(analytics.Verdicts(overview.DailySeries))

	for _, med := range meds {
		medDoses := inWindow(analytics.FilterByMedication(doses, med.ID), window)
		counts := analytics.CountDoses(medDoses, window)
		overview.PerMedication = append(overview.PerMedication, analytics.MedicationBreakdown{
			MedicationID: med.ID,
			Name:         med.Name,
			Taken:        counts.Taken,
			Missed:       counts.Missed,
			Skipped:      counts.Skipped,
			Total:        counts.Total,
			Percentage:   analytics.RatePercentage(counts.Taken, counts.Total),
			TimeOfDay:    analytics.BucketByTimeOfDay(medDoses, loc),
		})
	}

	overview.Insights = analytics.GenerateInsights(overview, s.settings.Thresholds)

	s.logger.Info("adherence overview computed",
		zap.String("user_id", userID),
		zap.Int("window_days", windowDays),
		zap.Int("medications", len(meds)),
		zap.Int("insights", len(overview.Insights)),
	)

	return overview, nil
}

// GetMedicationAdherence runs the adherence pipeline for one medication. A medication
// that does not exist or belongs to another user yields an empty detail, not an error.
func (s *AdherenceService) GetMedicationAdherence(ctx context.Context, userID, medicationID string, windowDays int, loc *time.Location) (detail *analytics.MedicationAdherenceDetail, err error) {
	ctx, span := tracer.Start(ctx, "AdherenceService.GetMedicationAdherence")
	defer func() { endSpan(span, err) }()

	windowDays = s.settings.clampDays(windowDays, s.settings.DefaultWindowDays)
	loc = s.settings.location(loc)
	now := s.now()
	span.SetAttributes(
		attribute.String("user_id", userID),
		attribute.String("medication_id", medicationID),
		attribute.Int("window_days", windowDays),
	)

	med, err := s.meds.FindMedicationByID(ctx, medicationID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return &analytics.MedicationAdherenceDetail{}, nil
		}
		s.logger.Error("failed to find medication", zap.Error(err), zap.String("medication_id", medicationID))
		return nil, fmt.Errorf("failed to find medication: %w", err)
	}
	if med.UserID != userID {
		s.logger.Warn("medication requested by non-owner",
			zap.String("user_id", userID),
			zap.String("medication_id", medicationID),
		)
		return &analytics.MedicationAdherenceDetail{}, nil
	}

	window := analytics.DayWindow(now, windowDays, loc)
	records, err := s.doses.ListDoseRecords(ctx, userID, &med.ID, window)
	if err != nil {
		s.logger.Error("failed to list dose records",
			zap.Error(err),
			zap.String("user_id", userID),
			zap.String("medication_id", medicationID),
		)
		return nil, fmt.Errorf("failed to list dose records: %w", err)
	}

	doses := analytics.ProjectDoses([]model.Medication{*med}, records, window, now, loc)
	counts := analytics.CountDoses(doses, window)
	daily := analytics.BucketByDay(doses, window, loc)

	return &analytics.MedicationAdherenceDetail{
		Medication: med,
		Stats: &analytics.MedicationStats{
			Taken:        counts.Taken,
			Missed:       counts.Missed,
			Skipped:      counts.Skipped,
			Total:        counts.Total,
			Percentage:   analytics.RatePercentage(counts.Taken, counts.Total),
			DailySeries:  daily,
			Streak:       analytics.CalculateStreak(analytics.Verdicts(daily)),
			TimePatterns: analytics.BucketByTimeOfDay(doses, loc),
		},
	}, nil
}

func inWindow(doses []analytics.ProjectedDose, window model.DateRange) []analytics.ProjectedDose {
	var out []analytics.ProjectedDose
	for _, dose := range doses {
		if window.Contains(dose.ScheduledTime) {
			out = append(out, dose)
		}
	}
	return out
}
