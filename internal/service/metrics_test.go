package service

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/vcscsvcscs/medadherence/pkg/model"
	"go.uber.org/zap"
)

func newTestMetricService() (*MetricService, *MockMetricSampleStore) {
	store := new(MockMetricSampleStore)
	svc := NewMetricService(store, DefaultSettings(), zap.NewNop())
	svc.now = func() time.Time { return testNow }
	return svc, store
}

func TestRecordMetric_NormalizesDate(t *testing.T) {
	svc, store := newTestMetricService()
	store.On("UpsertMetricSample", mock.Anything, mock.AnythingOfType("*model.MetricSample")).Return(nil)

	sample, err := svc.RecordMetric(context.Background(), testUserID, model.MetricWeight,
		time.Date(2026, 3, 8, 18, 45, 0, 0, time.UTC), 81.4, " kg ")

	require.NoError(t, err)
	assert.Equal(t, march(8), sample.Date)
	assert.Equal(t, "kg", sample.Unit)
	assert.Equal(t, testUserID, sample.UserID)
	assert.NotEmpty(t, sample.ID)
	store.AssertExpectations(t)
}

func TestRecordMetric_DefaultsToToday(t *testing.T) {
	svc, store := newTestMetricService()
	store.On("UpsertMetricSample", mock.Anything, mock.Anything).Return(nil)

	sample, err := svc.RecordMetric(context.Background(), testUserID, model.MetricSteps, time.Time{}, 8500, "steps")

	require.NoError(t, err)
	assert.Equal(t, march(10), sample.Date)
}

func TestRecordMetric_ValidationErrors(t *testing.T) {
	svc, store := newTestMetricService()

	tests := []struct {
		name   string
		userID string
		metric model.MetricType
		date   time.Time
		value  float64
	}{
		{"missing user", "", model.MetricWeight, march(9), 80},
		{"unknown metric", testUserID, model.MetricType("mood"), march(9), 3},
		{"negative value", testUserID, model.MetricWeight, march(9), -1},
		{"not a number", testUserID, model.MetricWeight, march(9), math.NaN()},
		{"infinite", testUserID, model.MetricWeight, march(9), math.Inf(1)},
		{"future date", testUserID, model.MetricWeight, march(11), 80},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.RecordMetric(context.Background(), tt.userID, tt.metric, tt.date, tt.value, "kg")
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
	store.AssertNotCalled(t, "UpsertMetricSample", mock.Anything, mock.Anything)
}

func TestRecordMetric_StorageFailure(t *testing.T) {
	svc, store := newTestMetricService()
	storageErr := errors.New("connection reset")
	store.On("UpsertMetricSample", mock.Anything, mock.Anything).Return(storageErr)

	_, err := svc.RecordMetric(context.Background(), testUserID, model.MetricWeight, march(9), 80, "kg")

	assert.ErrorIs(t, err, storageErr)
}

func TestListMetrics_UsesTrailingWindow(t *testing.T) {
	svc, store := newTestMetricService()
	samples := []model.MetricSample{{UserID: testUserID, Metric: model.MetricWeight, Date: march(9), Value: 80}}
	store.On("ListMetricSamples", mock.Anything, testUserID, model.MetricWeight, model.DateRange{
		Start: march(4),
		End:   march(11),
	}).Return(samples, nil)

	got, err := svc.ListMetrics(context.Background(), testUserID, model.MetricWeight, 7)

	require.NoError(t, err)
	assert.Equal(t, samples, got)
	store.AssertExpectations(t)
}

func TestListMetrics_DefaultLookback(t *testing.T) {
	svc, store := newTestMetricService()
	store.On("ListMetricSamples", mock.Anything, testUserID, model.MetricWeight, mock.MatchedBy(func(r model.DateRange) bool {
		return r.End.Equal(march(11)) && r.End.Sub(r.Start) == 90*24*time.Hour
	})).Return([]model.MetricSample{}, nil)

	_, err := svc.ListMetrics(context.Background(), testUserID, model.MetricWeight, 0)

	require.NoError(t, err)
	store.AssertExpectations(t)
}
