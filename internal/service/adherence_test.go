package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/vcscsvcscs/medadherence/internal/analytics"
	"github.com/vcscsvcscs/medadherence/internal/repository"
	"github.com/vcscsvcscs/medadherence/pkg/model"
	"go.uber.org/zap"
)

// Tuesday evening
var testNow = time.Date(2026, 3, 10, 21, 0, 0, 0, time.UTC)

const testUserID = "5f0c8f8e-6a55-4c3e-9f3e-0d7f3c1e2a10"

func march(day int) time.Time {
	return time.Date(2026, 3, day, 0, 0, 0, 0, time.UTC)
}

func dailyMedication(id, name string, start time.Time, schedule model.Schedule) model.Medication {
	return model.Medication{
		ID:        id,
		UserID:    testUserID,
		Name:      name,
		Dosage:    "10mg",
		Schedule:  schedule,
		StartDate: start,
		Active:    true,
	}
}

// doseOn builds a record for the given March day and clock time
func doseOn(med model.Medication, day, hour int, status model.DoseStatus) model.DoseRecord {
	scheduled := time.Date(2026, 3, day, hour, 0, 0, 0, time.UTC)
	rec := model.DoseRecord{
		ID:            fmt.Sprintf("%s-%d-%d", med.ID, day, hour),
		UserID:        med.UserID,
		MedicationID:  med.ID,
		ScheduledTime: scheduled,
		Status:        status,
	}
	if status == model.DoseStatusTaken {
		taken := scheduled.Add(5 * time.Minute)
		rec.TakenAt = &taken
	}
	return rec
}

func takenDays(med model.Medication, hour int, days ...int) []model.DoseRecord {
	var records []model.DoseRecord
	for _, day := range days {
		records = append(records, doseOn(med, day, hour, model.DoseStatusTaken))
	}
	return records
}

func newTestAdherenceService(meds *MockMedicationStore, doses *MockDoseRecordStore) *AdherenceService {
	svc := NewAdherenceService(meds, doses, DefaultSettings(), zap.NewNop())
	svc.now = func() time.Time { return testNow }
	return svc
}

func expectOverviewData(meds *MockMedicationStore, doses *MockDoseRecordStore, active []model.Medication, records []model.DoseRecord) {
	meds.On("ListActiveMedications", mock.Anything, testUserID).Return(active, nil)
	doses.On("ListDoseRecords", mock.Anything, testUserID, (*string)(nil), mock.Anything).Return(records, nil)
}

func TestAdherenceService_ComputeOverview_FiveOfSeven(t *testing.T) {
	meds, doses := new(MockMedicationStore), new(MockDoseRecordStore)
	med := dailyMedication("med-1", "Lisinopril", march(4), model.ClockTimesSchedule("08:00"))
	expectOverviewData(meds, doses, []model.Medication{med}, takenDays(med, 8, 4, 5, 6, 7, 8))

	overview, err := newTestAdherenceService(meds, doses).ComputeOverview(context.Background(), testUserID, 7, nil)

	require.NoError(t, err)
	require.Len(t, overview.PerMedication, 1)
	breakdown := overview.PerMedication[0]
	assert.Equal(t, 5, breakdown.Taken)
	assert.Equal(t, 2, breakdown.Missed)
	assert.Equal(t, 7, breakdown.Total)
	assert.Equal(t, 71, breakdown.Percentage)

	assert.Equal(t, analytics.PeriodStats{Taken: 5, Total: 7, Percentage: 71}, overview.OverallStats.ThisWeek)
	assert.Equal(t, analytics.PeriodStats{Taken: 5, Total: 7, Percentage: 71}, overview.OverallStats.AllTime)

	require.Len(t, overview.DailySeries, 7)
	assert.Equal(t, "2026-03-04", overview.DailySeries[0].Date)
	last := overview.DailySeries[6]
	assert.Equal(t, "2026-03-10", last.Date)
	assert.Equal(t, 0, last.Taken)
	assert.Equal(t, 1, last.Total)

	assert.Equal(t, analytics.Streak{Current: 0, Longest: 5}, overview.Streak)
	assert.Len(t, overview.WeeklySeries, 7)
	assert.Len(t, overview.MonthlySeries, 30)
	assert.Empty(t, overview.Insights)

	meds.AssertExpectations(t)
	doses.AssertExpectations(t)
}

func TestAdherenceService_ComputeOverview_StreakEndingToday(t *testing.T) {
	meds, doses := new(MockMedicationStore), new(MockDoseRecordStore)
	med := dailyMedication("med-1", "Vitamin D", march(4), model.ClockTimesSchedule("08:00"))
	expectOverviewData(meds, doses, []model.Medication{med}, takenDays(med, 8, 6, 7, 8, 9, 10))

	overview, err := newTestAdherenceService(meds, doses).ComputeOverview(context.Background(), testUserID, 7, nil)

	require.NoError(t, err)
	assert.Equal(t, 5, overview.Streak.Current)
	assert.Equal(t, 5, overview.Streak.Longest)
}

func TestAdherenceService_ComputeOverview_DayWithoutDosesKeepsStreak(t *testing.T) {
	meds, doses := new(MockMedicationStore), new(MockDoseRecordStore)
	// 2026-03-07 is a Saturday
	schedule := model.ClockTimesSchedule("08:00").OnDays(
		time.Sunday, time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday)
	med := dailyMedication("med-1", "Levothyroxine", march(4), schedule)
	expectOverviewData(meds, doses, []model.Medication{med}, takenDays(med, 8, 4, 5, 6, 8, 9, 10))

	overview, err := newTestAdherenceService(meds, doses).ComputeOverview(context.Background(), testUserID, 7, nil)

	require.NoError(t, err)
	saturday := overview.DailySeries[3]
	assert.Equal(t, "2026-03-07", saturday.Date)
	assert.Equal(t, 0, saturday.Total)
	assert.Equal(t, 0, saturday.Percentage)
	assert.Equal(t, analytics.Streak{Current: 6, Longest: 6}, overview.Streak)
}

func TestAdherenceService_ComputeOverview_StreakPraise(t *testing.T) {
	meds, doses := new(MockMedicationStore), new(MockDoseRecordStore)
	med := dailyMedication("med-1", "Omega 3", march(1), model.ClockTimesSchedule("08:00"))
	expectOverviewData(meds, doses, []model.Medication{med}, takenDays(med, 8, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10))

	overview, err := newTestAdherenceService(meds, doses).ComputeOverview(context.Background(), testUserID, 14, nil)

	require.NoError(t, err)
	assert.Equal(t, 10, overview.Streak.Current)
	require.NotEmpty(t, overview.Insights)
	assert.Equal(t, analytics.InsightStreak, overview.Insights[0].Type)
	assert.Equal(t, analytics.SeveritySuccess, overview.Insights[0].Severity)
	assert.Contains(t, overview.Insights[0].Title, "10-day")
}

func TestAdherenceService_ComputeOverview_LowAdherenceOrderedByPercentage(t *testing.T) {
	meds, doses := new(MockMedicationStore), new(MockDoseRecordStore)
	medA := dailyMedication("med-a", "Atorvastatin", march(1), model.ClockTimesSchedule("08:00"))
	medB := dailyMedication("med-b", "Bisoprolol", march(1), model.ClockTimesSchedule("08:00"))
	records := append(takenDays(medB, 8, 1, 2, 3, 4, 5, 6), takenDays(medA, 8, 1, 2, 3)...)
	expectOverviewData(meds, doses, []model.Medication{medB, medA}, records)

	overview, err := newTestAdherenceService(meds, doses).ComputeOverview(context.Background(), testUserID, 30, nil)

	require.NoError(t, err)
	require.Len(t, overview.Insights, 2)
	for _, insight := range overview.Insights {
		assert.Equal(t, analytics.InsightMedicationSpecific, insight.Type)
		assert.Equal(t, analytics.SeverityWarning, insight.Severity)
	}
	assert.Contains(t, overview.Insights[0].Title, "Atorvastatin")
	assert.Contains(t, overview.Insights[1].Title, "Bisoprolol")
}

func TestAdherenceService_ComputeOverview_PendingDosesAreNotCounted(t *testing.T) {
	meds, doses := new(MockMedicationStore), new(MockDoseRecordStore)
	med := dailyMedication("med-1", "Melatonin", march(10), model.ClockTimesSchedule("08:00", "22:00"))
	// A stored pending dose whose time has passed reads as missed
	expectOverviewData(meds, doses, []model.Medication{med},
		[]model.DoseRecord{doseOn(med, 10, 8, model.DoseStatusPending)})

	overview, err := newTestAdherenceService(meds, doses).ComputeOverview(context.Background(), testUserID, 1, nil)

	require.NoError(t, err)
	breakdown := overview.PerMedication[0]
	assert.Equal(t, 1, breakdown.Total)
	assert.Equal(t, 1, breakdown.Missed)
	assert.Equal(t, 0, breakdown.Percentage)
}

func TestAdherenceService_ComputeOverview_NoMedications(t *testing.T) {
	meds, doses := new(MockMedicationStore), new(MockDoseRecordStore)
	meds.On("ListActiveMedications", mock.Anything, testUserID).Return([]model.Medication{}, nil)

	overview, err := newTestAdherenceService(meds, doses).ComputeOverview(context.Background(), testUserID, 0, nil)

	require.NoError(t, err)
	assert.Equal(t, 30, overview.WindowDays)
	assert.Len(t, overview.DailySeries, 30)
	for _, point := range overview.DailySeries {
		assert.Equal(t, 0, point.Total)
		assert.Equal(t, 0, point.Percentage)
	}
	assert.NotNil(t, overview.PerMedication)
	assert.Empty(t, overview.PerMedication)
	assert.Empty(t, overview.Insights)
	assert.Equal(t, analytics.PeriodStats{Percentage: 100}, overview.OverallStats.AllTime)
	doses.AssertNotCalled(t, "ListDoseRecords", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAdherenceService_ComputeOverview_ClampsWindow(t *testing.T) {
	meds, doses := new(MockMedicationStore), new(MockDoseRecordStore)
	meds.On("ListActiveMedications", mock.Anything, testUserID).Return([]model.Medication{}, nil)

	overview, err := newTestAdherenceService(meds, doses).ComputeOverview(context.Background(), testUserID, 10000, nil)

	require.NoError(t, err)
	assert.Equal(t, 365, overview.WindowDays)
	assert.Len(t, overview.DailySeries, 365)
}

func TestAdherenceService_ComputeOverview_StorageFailure(t *testing.T) {
	meds, doses := new(MockMedicationStore), new(MockDoseRecordStore)
	storageErr := errors.New("connection refused")
	meds.On("ListActiveMedications", mock.Anything, testUserID).Return(nil, storageErr)

	overview, err := newTestAdherenceService(meds, doses).ComputeOverview(context.Background(), testUserID, 7, nil)

	assert.Nil(t, overview)
	assert.ErrorIs(t, err, storageErr)
}

func TestAdherenceService_ComputeOverview_UsesCallerTimeZone(t *testing.T) {
	meds, doses := new(MockMedicationStore), new(MockDoseRecordStore)
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)
	med := dailyMedication("med-1", "Iron", march(1), model.ClockTimesSchedule("08:00"))
	expectOverviewData(meds, doses, []model.Medication{med}, nil)

	// 21:00 UTC on the 10th is already the 11th in Tokyo
	overview, err := newTestAdherenceService(meds, doses).ComputeOverview(context.Background(), testUserID, 3, tokyo)

	require.NoError(t, err)
	require.Len(t, overview.DailySeries, 3)
	assert.Equal(t, "2026-03-11", overview.DailySeries[2].Date)
}

func TestAdherenceService_GetMedicationAdherence_NotFound(t *testing.T) {
	meds, doses := new(MockMedicationStore), new(MockDoseRecordStore)
	meds.On("FindMedicationByID", mock.Anything, "missing").
		Return(nil, fmt.Errorf("medication missing: %w", repository.ErrNotFound))

	detail, err := newTestAdherenceService(meds, doses).GetMedicationAdherence(context.Background(), testUserID, "missing", 30, nil)

	require.NoError(t, err)
	require.NotNil(t, detail)
	assert.Nil(t, detail.Medication)
	assert.Nil(t, detail.Stats)
}

func TestAdherenceService_GetMedicationAdherence_OtherUsersMedication(t *testing.T) {
	meds, doses := new(MockMedicationStore), new(MockDoseRecordStore)
	med := dailyMedication("med-1", "Warfarin", march(1), model.ClockTimesSchedule("08:00"))
	med.UserID = "someone-else"
	meds.On("FindMedicationByID", mock.Anything, "med-1").Return(&med, nil)

	detail, err := newTestAdherenceService(meds, doses).GetMedicationAdherence(context.Background(), testUserID, "med-1", 30, nil)

	require.NoError(t, err)
	assert.Nil(t, detail.Medication)
	assert.Nil(t, detail.Stats)
	doses.AssertNotCalled(t, "ListDoseRecords", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAdherenceService_GetMedicationAdherence_TimePatterns(t *testing.T) {
	meds, doses := new(MockMedicationStore), new(MockDoseRecordStore)
	med := dailyMedication("med-1", "Metformin", march(1), model.ClockTimesSchedule("08:00", "19:00"))
	meds.On("FindMedicationByID", mock.Anything, "med-1").Return(&med, nil)
	doses.On("ListDoseRecords", mock.Anything, testUserID, mock.Anything, mock.Anything).
		Return(takenDays(med, 8, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10), nil)

	detail, err := newTestAdherenceService(meds, doses).GetMedicationAdherence(context.Background(), testUserID, "med-1", 10, nil)

	require.NoError(t, err)
	require.NotNil(t, detail.Stats)
	assert.Equal(t, "med-1", detail.Medication.ID)
	assert.Equal(t, 20, detail.Stats.Total)
	assert.Equal(t, 10, detail.Stats.Taken)
	assert.Equal(t, 50, detail.Stats.Percentage)
	assert.Equal(t, []analytics.TimePattern{
		{Pattern: analytics.Morning, Taken: 10, Missed: 0, Total: 10, MissedPercentage: 0},
		{Pattern: analytics.Evening, Taken: 0, Missed: 10, Total: 10, MissedPercentage: 100},
	}, detail.Stats.TimePatterns)
}
