package service

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/vcscsvcscs/medadherence/internal/audit"
	"github.com/vcscsvcscs/medadherence/pkg/model"
)

// MockMedicationStore is a mock implementation of MedicationStore
type MockMedicationStore struct {
	mock.Mock
}

func (m *MockMedicationStore) CreateMedication(ctx context.Context, med *model.Medication) error {
	return m.Called(ctx, med).Error(0)
}

func (m *MockMedicationStore) FindMedicationByID(ctx context.Context, medicationID string) (*model.Medication, error) {
	args := m.Called(ctx, medicationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Medication), args.Error(1)
}

func (m *MockMedicationStore) ListMedications(ctx context.Context, userID string) ([]model.Medication, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Medication), args.Error(1)
}

func (m *MockMedicationStore) ListActiveMedications(ctx context.Context, userID string) ([]model.Medication, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Medication), args.Error(1)
}

func (m *MockMedicationStore) UpdateMedication(ctx context.Context, med *model.Medication) error {
	return m.Called(ctx, med).Error(0)
}

func (m *MockMedicationStore) DeleteMedication(ctx context.Context, medicationID string) error {
	return m.Called(ctx, medicationID).Error(0)
}

// MockDoseRecordStore is a mock implementation of DoseRecordStore
type MockDoseRecordStore struct {
	mock.Mock
}

func (m *MockDoseRecordStore) UpsertDoseRecord(ctx context.Context, rec *model.DoseRecord) error {
	return m.Called(ctx, rec).Error(0)
}

func (m *MockDoseRecordStore) ListDoseRecords(ctx context.Context, userID string, medicationID *string, dateRange model.DateRange) ([]model.DoseRecord, error) {
	args := m.Called(ctx, userID, medicationID, dateRange)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.DoseRecord), args.Error(1)
}

// MockMetricSampleStore is a mock implementation of MetricSampleStore
type MockMetricSampleStore struct {
	mock.Mock
}

func (m *MockMetricSampleStore) UpsertMetricSample(ctx context.Context, sample *model.MetricSample) error {
	return m.Called(ctx, sample).Error(0)
}

func (m *MockMetricSampleStore) ListMetricSamples(ctx context.Context, userID string, metric model.MetricType, dateRange model.DateRange) ([]model.MetricSample, error) {
	args := m.Called(ctx, userID, metric, dateRange)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.MetricSample), args.Error(1)
}

// MockCorrelationStore is a mock implementation of CorrelationStore
type MockCorrelationStore struct {
	mock.Mock
}

func (m *MockCorrelationStore) UpsertCorrelationResult(ctx context.Context, key model.CorrelationKey, result *model.CorrelationResult) error {
	return m.Called(ctx, key, result).Error(0)
}

func (m *MockCorrelationStore) ListCorrelationResults(ctx context.Context, userID string) ([]model.CorrelationResult, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.CorrelationResult), args.Error(1)
}

// MockAuditRecorder is a mock implementation of AuditRecorder
type MockAuditRecorder struct {
	mock.Mock
}

func (m *MockAuditRecorder) Log(ctx context.Context, entry audit.Entry) error {
	return m.Called(ctx, entry).Error(0)
}
