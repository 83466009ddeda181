package model

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// ScheduleKind tags which variant of Schedule is populated
type ScheduleKind string

const (
	ScheduleTimesPerDay ScheduleKind = "times_per_day"
	ScheduleClockTimes  ScheduleKind = "clock_times"
)

// MaxDosesPerDay bounds how many doses a single schedule may produce per day
const MaxDosesPerDay = 12

const (
	firstDefaultDoseMinute = 8 * 60
	lastDefaultDoseMinute  = 20 * 60
)

// Weekdays is a bitmask of time.Weekday values, bit i set for time.Weekday(i).
// The zero value means every day.
type Weekdays uint8

const allWeekdays Weekdays = 0x7F

// WeekdaysOf builds a mask from a list of weekdays
func WeekdaysOf(days ...time.Weekday) Weekdays {
	var mask Weekdays
	for _, d := range days {
		mask |= 1 << uint(d)
	}
	return mask
}

// Has reports whether the mask includes the weekday
func (w Weekdays) Has(day time.Weekday) bool {
	if w == 0 {
		return true
	}
	return w&(1<<uint(day)) != 0
}

// Schedule describes when a medication is expected to be taken
type Schedule struct {
	Kind        ScheduleKind `json:"kind"`
	TimesPerDay int          `json:"times_per_day,omitempty"`
	ClockTimes  []string     `json:"clock_times,omitempty"`
	DaysOfWeek  Weekdays     `json:"days_of_week,omitempty"`
}

// TimesPerDaySchedule returns a schedule of n doses per day at default clock times
func TimesPerDaySchedule(n int) Schedule {
	return Schedule{Kind: ScheduleTimesPerDay, TimesPerDay: n}
}

// ClockTimesSchedule returns a schedule at explicit "HH:MM" clock times
func ClockTimesSchedule(times ...string) Schedule {
	return Schedule{Kind: ScheduleClockTimes, ClockTimes: times}
}

// OnDays restricts the schedule to the given weekdays
func (s Schedule) OnDays(days ...time.Weekday) Schedule {
	s.DaysOfWeek = WeekdaysOf(days...)
	return s
}

// Validate checks that exactly one variant is populated with sane values
func (s Schedule) Validate() error {
	if s.DaysOfWeek&^allWeekdays != 0 {
		return fmt.Errorf("invalid days_of_week mask: %d", s.DaysOfWeek)
	}

	switch s.Kind {
	case ScheduleTimesPerDay:
		if len(s.ClockTimes) > 0 {
			return fmt.Errorf("clock_times must be empty for a times_per_day schedule")
		}
		if s.TimesPerDay < 1 || s.TimesPerDay > MaxDosesPerDay {
			return fmt.Errorf("times_per_day must be between 1 and %d", MaxDosesPerDay)
		}
	case ScheduleClockTimes:
		if len(s.ClockTimes) == 0 || len(s.ClockTimes) > MaxDosesPerDay {
			return fmt.Errorf("clock_times must contain between 1 and %d entries", MaxDosesPerDay)
		}
		seen := make(map[int]bool, len(s.ClockTimes))
		for _, raw := range s.ClockTimes {
			minute, err := parseClockTime(raw)
			if err != nil {
				return err
			}
			if seen[minute] {
				return fmt.Errorf("duplicate clock time: %s", raw)
			}
			seen[minute] = true
		}
	default:
		return fmt.Errorf("unknown schedule kind: %q", s.Kind)
	}

	return nil
}

// doseMinutes returns the minutes-after-midnight of each expected dose, ascending
func (s Schedule) doseMinutes() []int {
	switch s.Kind {
	case ScheduleClockTimes:
		minutes := make([]int, 0, len(s.ClockTimes))
		for _, raw := range s.ClockTimes {
			if minute, err := parseClockTime(raw); err == nil {
				minutes = append(minutes, minute)
			}
		}
		sort.Ints(minutes)
		return minutes
	case ScheduleTimesPerDay:
		n := s.TimesPerDay
		if n < 1 {
			return nil
		}
		if n > MaxDosesPerDay {
			n = MaxDosesPerDay
		}
		if n == 1 {
			return []int{firstDefaultDoseMinute}
		}
		minutes := make([]int, n)
		step := float64(lastDefaultDoseMinute-firstDefaultDoseMinute) / float64(n-1)
		for i := range minutes {
			minutes[i] = firstDefaultDoseMinute + int(float64(i)*step+0.5)
		}
		return minutes
	}
	return nil
}

// DoseTimes materializes the expected dose instants on the calendar day containing
// day, interpreted in loc. Days excluded by the weekday mask yield nil.
func (s Schedule) DoseTimes(day time.Time, loc *time.Location) []time.Time {
	if loc == nil {
		loc = time.UTC
	}
	local := day.In(loc)
	if !s.DaysOfWeek.Has(local.Weekday()) {
		return nil
	}

	y, m, d := local.Date()
	minutes := s.doseMinutes()
	times := make([]time.Time, 0, len(minutes))
	for _, minute := range minutes {
		times = append(times, time.Date(y, m, d, minute/60, minute%60, 0, 0, loc))
	}
	return times
}

// Describe renders a short human-readable form of the schedule
func (s Schedule) Describe() string {
	var base string
	switch s.Kind {
	case ScheduleTimesPerDay:
		if s.TimesPerDay == 1 {
			base = "once daily"
		} else {
			base = fmt.Sprintf("%d times daily", s.TimesPerDay)
		}
	case ScheduleClockTimes:
		base = "at " + strings.Join(s.ClockTimes, ", ")
	default:
		return "unscheduled"
	}

	if s.DaysOfWeek == 0 || s.DaysOfWeek == allWeekdays {
		return base
	}
	var days []string
	for d := time.Sunday; d <= time.Saturday; d++ {
		if s.DaysOfWeek.Has(d) {
			days = append(days, d.String()[:3])
		}
	}
	return base + " on " + strings.Join(days, ", ")
}

func parseClockTime(raw string) (int, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid clock time %q: expected HH:MM", raw)
	}
	return t.Hour()*60 + t.Minute(), nil
}
