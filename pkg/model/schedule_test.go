package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchedule_Validate(t *testing.T) {
	tests := []struct {
		name     string
		schedule Schedule
		wantErr  bool
	}{
		{"once daily", TimesPerDaySchedule(1), false},
		{"clock times", ClockTimesSchedule("08:00", "20:30"), false},
		{"weekdays only", TimesPerDaySchedule(2).OnDays(time.Monday, time.Friday), false},
		{"zero times", TimesPerDaySchedule(0), true},
		{"too many times", TimesPerDaySchedule(MaxDosesPerDay + 1), true},
		{"no clock times", ClockTimesSchedule(), true},
		{"bad clock time", ClockTimesSchedule("8pm"), true},
		{"duplicate clock time", ClockTimesSchedule("08:00", "08:00"), true},
		{"both variants", Schedule{Kind: ScheduleTimesPerDay, TimesPerDay: 1, ClockTimes: []string{"08:00"}}, true},
		{"unknown kind", Schedule{Kind: "hourly"}, true},
		{"bad weekday mask", Schedule{Kind: ScheduleTimesPerDay, TimesPerDay: 1, DaysOfWeek: 0x80}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.schedule.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSchedule_DoseTimes(t *testing.T) {
	day := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)
	clock := func(h, m int) time.Time { return time.Date(2026, 3, 10, h, m, 0, 0, time.UTC) }

	assert.Equal(t, []time.Time{clock(8, 0)}, TimesPerDaySchedule(1).DoseTimes(day, time.UTC))
	assert.Equal(t, []time.Time{clock(8, 0), clock(20, 0)}, TimesPerDaySchedule(2).DoseTimes(day, time.UTC))
	assert.Equal(t, []time.Time{clock(8, 0), clock(14, 0), clock(20, 0)}, TimesPerDaySchedule(3).DoseTimes(day, time.UTC))
	assert.Equal(t, []time.Time{clock(7, 15), clock(21, 0)}, ClockTimesSchedule("21:00", "07:15").DoseTimes(day, time.UTC))
}

func TestSchedule_DoseTimesWeekdayMask(t *testing.T) {
	// 10 March 2026 is a Tuesday
	tuesday := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	s := TimesPerDaySchedule(1).OnDays(time.Monday, time.Wednesday)

	assert.Empty(t, s.DoseTimes(tuesday, time.UTC))
	assert.Len(t, s.DoseTimes(tuesday.AddDate(0, 0, 1), time.UTC), 1)
}

func TestSchedule_DoseTimesInLocation(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)

	// 23:30 UTC on 9 March is already 10 March in Berlin
	times := ClockTimesSchedule("08:00").DoseTimes(time.Date(2026, 3, 9, 23, 30, 0, 0, time.UTC), berlin)

	require.Len(t, times, 1)
	assert.Equal(t, time.Date(2026, 3, 10, 7, 0, 0, 0, time.UTC), times[0].UTC())
}

func TestSchedule_Describe(t *testing.T) {
	assert.Equal(t, "once daily", TimesPerDaySchedule(1).Describe())
	assert.Equal(t, "3 times daily", TimesPerDaySchedule(3).Describe())
	assert.Equal(t, "at 08:00, 20:00", ClockTimesSchedule("08:00", "20:00").Describe())
	assert.Equal(t, "once daily on Mon, Fri", TimesPerDaySchedule(1).OnDays(time.Friday, time.Monday).Describe())
}

func TestSchedule_JSON(t *testing.T) {
	s := ClockTimesSchedule("08:00").OnDays(time.Saturday, time.Sunday)

	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind":"clock_times","clock_times":["08:00"],"days_of_week":65}`, string(data))
}

func TestDateRange_Contains(t *testing.T) {
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	r := DateRange{Start: start, End: end}

	assert.True(t, r.Contains(start))
	assert.False(t, r.Contains(end))
	assert.False(t, r.Contains(start.Add(-time.Nanosecond)))
	assert.True(t, DateRange{}.Contains(end))
	assert.True(t, DateRange{End: end}.Contains(start.AddDate(-10, 0, 0)))
}

func TestDoseStatus_Valid(t *testing.T) {
	assert.True(t, DoseStatusTaken.Valid())
	assert.True(t, DoseStatusPending.Valid())
	assert.False(t, DoseStatus("forgotten").Valid())
}
