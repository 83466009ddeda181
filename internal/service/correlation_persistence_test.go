package service

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vcscsvcscs/medadherence/internal/repository/sqlite"
	"github.com/vcscsvcscs/medadherence/pkg/model"
	"go.uber.org/zap"
)

type persistenceFixture struct {
	store  *sqlite.Store
	svc    *CorrelationService
	userID string
	med    *model.Medication
	clock  time.Time
}

func newPersistenceFixture(t *testing.T) *persistenceFixture {
	t.Helper()
	ctx := context.Background()

	store, err := sqlite.Open(ctx, filepath.Join(t.TempDir(), "analysis.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	f := &persistenceFixture{
		store:  store,
		userID: uuid.New().String(),
		clock:  time.Date(2026, 5, 20, 12, 0, 0, 0, time.UTC),
	}
	f.svc = NewCorrelationService(store, store, store, store, DefaultSettings(), zap.NewNop())
	f.svc.now = func() time.Time { return f.clock }

	f.med = &model.Medication{
		ID:        uuid.New().String(),
		UserID:    f.userID,
		Name:      "Semaglutide",
		Dosage:    "0.5mg",
		Schedule:  model.ClockTimesSchedule("08:00"),
		StartDate: time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
		Active:    true,
		CreatedAt: f.clock,
		UpdatedAt: f.clock,
	}
	require.NoError(t, store.CreateMedication(ctx, f.med))

	// Taken every other day since the start
	for day := f.med.StartDate; day.Before(f.clock); day = day.AddDate(0, 0, 2) {
		scheduled := day.Add(8 * time.Hour)
		require.NoError(t, store.UpsertDoseRecord(ctx, &model.DoseRecord{
			ID:            uuid.New().String(),
			UserID:        f.userID,
			MedicationID:  f.med.ID,
			ScheduledTime: scheduled,
			Status:        model.DoseStatusTaken,
			TakenAt:       &scheduled,
			CreatedAt:     scheduled,
			UpdatedAt:     scheduled,
		}))
	}
	return f
}

// addWeights records a weight sample for each May day in [from, to]
func (f *persistenceFixture) addWeights(t *testing.T, from, to int) {
	t.Helper()
	for day := from; day <= to; day++ {
		date := time.Date(2026, 5, day, 0, 0, 0, 0, time.UTC)
		require.NoError(t, f.store.UpsertMetricSample(context.Background(), &model.MetricSample{
			ID:        uuid.New().String(),
			UserID:    f.userID,
			Metric:    model.MetricWeight,
			Date:      date,
			Value:     90 - float64(day)*0.1 + float64(day%3),
			Unit:      "kg",
			CreatedAt: f.clock,
			UpdatedAt: f.clock,
		}))
	}
}

func TestCorrelationService_RunTwiceUpdatesExistingResult(t *testing.T) {
	f := newPersistenceFixture(t)
	ctx := context.Background()
	firstRun := f.clock

	f.addWeights(t, 1, 12)
	first, err := f.svc.RunCorrelationAnalysis(ctx, f.userID)
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, 12, first[0].DataPoints)

	f.addWeights(t, 13, 19)
	f.clock = f.clock.Add(time.Hour)
	second, err := f.svc.RunCorrelationAnalysis(ctx, f.userID)
	require.NoError(t, err)
	require.Len(t, second, 1)

	stored, err := f.svc.GetCorrelationInsights(ctx, f.userID)
	require.NoError(t, err)
	require.Len(t, stored, 1)

	got := stored[0]
	assert.Equal(t, first[0].ID, got.ID)
	assert.Equal(t, 19, got.DataPoints)
	assert.Greater(t, got.DataPoints, first[0].DataPoints)
	assert.True(t, got.CreatedAt.Equal(firstRun))
	assert.True(t, got.UpdatedAt.After(got.CreatedAt))
	assert.Equal(t, "Semaglutide", got.MedicationName)
}

func TestCorrelationService_BelowThresholdKeepsLastResult(t *testing.T) {
	f := newPersistenceFixture(t)
	ctx := context.Background()

	f.addWeights(t, 1, 12)
	_, err := f.svc.RunCorrelationAnalysis(ctx, f.userID)
	require.NoError(t, err)

	// Months later the lookback no longer covers enough samples
	f.clock = f.clock.AddDate(0, 6, 0)
	results, err := f.svc.RunCorrelationAnalysis(ctx, f.userID)
	require.NoError(t, err)
	assert.Empty(t, results)

	stored, err := f.svc.GetCorrelationInsights(ctx, f.userID)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, 12, stored[0].DataPoints)
}

func TestCorrelationService_ConcurrentRunsKeepOneRowPerPair(t *testing.T) {
	f := newPersistenceFixture(t)
	f.addWeights(t, 1, 15)

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.RunCorrelationAnalysis(context.Background(), f.userID)
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}

	stored, err := f.svc.GetCorrelationInsights(context.Background(), f.userID)
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}
