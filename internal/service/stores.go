package service

import (
	"context"

	"github.com/vcscsvcscs/medadherence/internal/audit"
	"github.com/vcscsvcscs/medadherence/pkg/model"
)

// MedicationStore defines medication data access
type MedicationStore interface {
	CreateMedication(ctx context.Context, med *model.Medication) error
	FindMedicationByID(ctx context.Context, medicationID string) (*model.Medication, error)
	ListMedications(ctx context.Context, userID string) ([]model.Medication, error)
	ListActiveMedications(ctx context.Context, userID string) ([]model.Medication, error)
	UpdateMedication(ctx context.Context, med *model.Medication) error
	DeleteMedication(ctx context.Context, medicationID string) error
}

// DoseRecordStore defines dose record data access
type DoseRecordStore interface {
	UpsertDoseRecord(ctx context.Context, rec *model.DoseRecord) error
	ListDoseRecords(ctx context.Context, userID string, medicationID *string, dateRange model.DateRange) ([]model.DoseRecord, error)
}

// MetricSampleStore defines body metric data access
type MetricSampleStore interface {
	UpsertMetricSample(ctx context.Context, sample *model.MetricSample) error
	ListMetricSamples(ctx context.Context, userID string, metric model.MetricType, dateRange model.DateRange) ([]model.MetricSample, error)
}

// CorrelationStore defines correlation result persistence. Upserts must be atomic on
// the natural key.
type CorrelationStore interface {
	UpsertCorrelationResult(ctx context.Context, key model.CorrelationKey, result *model.CorrelationResult) error
	ListCorrelationResults(ctx context.Context, userID string) ([]model.CorrelationResult, error)
}

// UserLister lists users eligible for batch analysis
type UserLister interface {
	ListUsersWithActiveMedications(ctx context.Context) ([]string, error)
}

// AuditRecorder writes audit trail entries
type AuditRecorder interface {
	Log(ctx context.Context, entry audit.Entry) error
}
