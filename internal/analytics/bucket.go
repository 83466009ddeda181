package analytics

import (
	"fmt"
	"math"
	"time"

	"github.com/vcscsvcscs/medadherence/pkg/model"
)

const dayLayout = "2006-01-02"

// TimeOfDay is a coarse bucket of a dose's scheduled hour
type TimeOfDay string

const (
	Morning   TimeOfDay = "morning"
	Afternoon TimeOfDay = "afternoon"
	Evening   TimeOfDay = "evening"
	Night     TimeOfDay = "night"
)

// TimesOfDay lists the buckets in presentation order
var TimesOfDay = []TimeOfDay{Morning, Afternoon, Evening, Night}

// ClassifyTimeOfDay maps an instant to its bucket in loc.
// Lower bounds are inclusive: morning 05-12, afternoon 12-18, evening 18-24, night 00-05.
func ClassifyTimeOfDay(t time.Time, loc *time.Location) TimeOfDay {
	h := t.In(orUTC(loc)).Hour()
	switch {
	case h >= 5 && h < 12:
		return Morning
	case h >= 12 && h < 18:
		return Afternoon
	case h >= 18:
		return Evening
	default:
		return Night
	}
}

// DayPoint is the adherence of one calendar day. Total == 0 means nothing was due
// that day, which is distinct from doses that were due and missed.
type DayPoint struct {
	Date       string `json:"date"`
	Taken      int    `json:"taken"`
	Total      int    `json:"total"`
	Percentage int    `json:"percentage"`
}

// PeriodBucket aggregates doses over an ISO week or calendar month
type PeriodBucket struct {
	Key        string    `json:"key"`
	Start      time.Time `json:"start"`
	Taken      int       `json:"taken"`
	Total      int       `json:"total"`
	Percentage int       `json:"percentage"`
}

// DoseCounts tallies doses by status. Pending doses are not yet due and are not counted.
type DoseCounts struct {
	Taken   int `json:"taken"`
	Missed  int `json:"missed"`
	Skipped int `json:"skipped"`
	Total   int `json:"total"`
}

// Add counts one dose
func (c *DoseCounts) Add(status model.DoseStatus) {
	switch status {
	case model.DoseStatusTaken:
		c.Taken++
	case model.DoseStatusMissed:
		c.Missed++
	case model.DoseStatusSkipped:
		c.Skipped++
	default:
		return
	}
	c.Total++
}

// TimePattern is the adherence of one time-of-day bucket
type TimePattern struct {
	Pattern          TimeOfDay `json:"pattern"`
	Taken            int       `json:"taken"`
	Missed           int       `json:"missed"`
	Total            int       `json:"total"`
	MissedPercentage int       `json:"missed_percentage"`
}

// Percentage returns round(part/total*100), or 0 when total is 0
func Percentage(part, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(part) * 100 / float64(total)))
}

// RatePercentage is Percentage for summary rates, where nothing scheduled counts as 100
func RatePercentage(taken, total int) int {
	if total <= 0 {
		return 100
	}
	return Percentage(taken, total)
}

// StartOfDay returns local midnight of the day containing t
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(orUTC(loc)).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, orUTC(loc))
}

// CalendarDate reinterprets a date-only value (stored at midnight in any zone) as local
// midnight of the same calendar date in loc
func CalendarDate(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, orUTC(loc))
}

// DayKey formats the local calendar day of t
func DayKey(t time.Time, loc *time.Location) string {
	return t.In(orUTC(loc)).Format(dayLayout)
}

// DayWindow returns the half-open range covering days calendar days ending with the
// day that contains now
func DayWindow(now time.Time, days int, loc *time.Location) model.DateRange {
	today := StartOfDay(now, loc)
	y, m, d := today.Date()
	return model.DateRange{
		Start: time.Date(y, m, d-days+1, 0, 0, 0, 0, orUTC(loc)),
		End:   time.Date(y, m, d+1, 0, 0, 0, 0, orUTC(loc)),
	}
}

// BucketByDay builds one DayPoint per calendar day in window, including empty days
func BucketByDay(doses []ProjectedDose, window model.DateRange, loc *time.Location) []DayPoint {
	loc = orUTC(loc)
	counts := make(map[string]*DoseCounts)
	for _, dose := range doses {
		if !window.Contains(dose.ScheduledTime) {
			continue
		}
		key := DayKey(dose.ScheduledTime, loc)
		if counts[key] == nil {
			counts[key] = &DoseCounts{}
		}
		counts[key].Add(dose.Status)
	}

	var points []DayPoint
	y, m, d := window.Start.In(loc).Date()
	for i := 0; ; i++ {
		day := time.Date(y, m, d+i, 0, 0, 0, 0, loc)
		if !day.Before(window.End) {
			break
		}
		key := day.Format(dayLayout)
		point := DayPoint{Date: key}
		if c := counts[key]; c != nil {
			point.Taken = c.Taken
			point.Total = c.Total
			point.Percentage = Percentage(c.Taken, c.Total)
		}
		points = append(points, point)
	}
	return points
}

// ISOWeekKey formats the ISO week containing t, e.g. 2026-W07
func ISOWeekKey(t time.Time, loc *time.Location) string {
	year, week := t.In(orUTC(loc)).ISOWeek()
	return fmt.Sprintf("%04d-W%02d", year, week)
}

// StartOfISOWeek returns local midnight of the Monday starting t's ISO week
func StartOfISOWeek(t time.Time, loc *time.Location) time.Time {
	day := StartOfDay(t, loc)
	weekday := int(day.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	y, m, d := day.Date()
	return time.Date(y, m, d-(weekday-1), 0, 0, 0, 0, orUTC(loc))
}

// BucketByISOWeek groups doses in window into ISO weeks, ascending
func BucketByISOWeek(doses []ProjectedDose, window model.DateRange, loc *time.Location) []PeriodBucket {
	return bucketBy(doses, window, loc,
		func(t time.Time) string { return ISOWeekKey(t, loc) },
		func(t time.Time) time.Time { return StartOfISOWeek(t, loc) },
	)
}

// BucketByMonth groups doses in window into calendar months, ascending
func BucketByMonth(doses []ProjectedDose, window model.DateRange, loc *time.Location) []PeriodBucket {
	return bucketBy(doses, window, loc,
		func(t time.Time) string { return t.In(orUTC(loc)).Format("2006-01") },
		func(t time.Time) time.Time {
			y, m, _ := t.In(orUTC(loc)).Date()
			return time.Date(y, m, 1, 0, 0, 0, 0, orUTC(loc))
		},
	)
}

func bucketBy(doses []ProjectedDose, window model.DateRange, loc *time.Location, keyOf func(time.Time) string, startOf func(time.Time) time.Time) []PeriodBucket {
	index := make(map[string]int)
	var buckets []PeriodBucket

	// Walk the window day by day so periods without doses still appear
	y, m, d := window.Start.In(orUTC(loc)).Date()
	for i := 0; ; i++ {
		day := time.Date(y, m, d+i, 0, 0, 0, 0, orUTC(loc))
		if !day.Before(window.End) {
			break
		}
		key := keyOf(day)
		if _, ok := index[key]; !ok {
			index[key] = len(buckets)
			buckets = append(buckets, PeriodBucket{Key: key, Start: startOf(day)})
		}
	}

	counts := make([]DoseCounts, len(buckets))
	for _, dose := range doses {
		if !window.Contains(dose.ScheduledTime) {
			continue
		}
		if i, ok := index[keyOf(dose.ScheduledTime)]; ok {
			counts[i].Add(dose.Status)
		}
	}
	for i := range buckets {
		buckets[i].Taken = counts[i].Taken
		buckets[i].Total = counts[i].Total
		buckets[i].Percentage = Percentage(counts[i].Taken, counts[i].Total)
	}
	return buckets
}

// CountDoses tallies doses in window
func CountDoses(doses []ProjectedDose, window model.DateRange) DoseCounts {
	var c DoseCounts
	for _, dose := range doses {
		if window.Contains(dose.ScheduledTime) {
			c.Add(dose.Status)
		}
	}
	return c
}

// BucketByTimeOfDay builds the time-of-day breakdown, omitting buckets with no due doses
func BucketByTimeOfDay(doses []ProjectedDose, loc *time.Location) []TimePattern {
	counts := make(map[TimeOfDay]*DoseCounts, len(TimesOfDay))
	for _, tod := range TimesOfDay {
		counts[tod] = &DoseCounts{}
	}
	for _, dose := range doses {
		counts[ClassifyTimeOfDay(dose.ScheduledTime, loc)].Add(dose.Status)
	}

	var patterns []TimePattern
	for _, tod := range TimesOfDay {
		c := counts[tod]
		if c.Total == 0 {
			continue
		}
		patterns = append(patterns, TimePattern{
			Pattern:          tod,
			Taken:            c.Taken,
			Missed:           c.Missed,
			Total:            c.Total,
			MissedPercentage: Percentage(c.Missed, c.Total),
		})
	}
	return patterns
}

func orUTC(loc *time.Location) *time.Location {
	if loc == nil {
		return time.UTC
	}
	return loc
}
