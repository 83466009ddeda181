package analytics

import "github.com/vcscsvcscs/medadherence/pkg/model"

// PeriodStats summarizes adherence over a period
type PeriodStats struct {
	Taken      int `json:"taken"`
	Total      int `json:"total"`
	Percentage int `json:"percentage"`
}

// NewPeriodStats builds stats from counts using the summary-rate convention
func NewPeriodStats(c DoseCounts) PeriodStats {
	return PeriodStats{Taken: c.Taken, Total: c.Total, Percentage: RatePercentage(c.Taken, c.Total)}
}

// OverallStats compares recent and lifetime adherence
type OverallStats struct {
	ThisWeek  PeriodStats `json:"this_week"`
	ThisMonth PeriodStats `json:"this_month"`
	AllTime   PeriodStats `json:"all_time"`
}

// AdherenceOverview is a user's adherence over a window. It is computed per request
// and never persisted.
type AdherenceOverview struct {
	WindowDays    int                   `json:"window_days"`
	DailySeries   []DayPoint            `json:"daily_series"`
	WeeklySeries  []DayPoint            `json:"weekly_series"`
	MonthlySeries []DayPoint            `json:"monthly_series"`
	WeekBuckets   []PeriodBucket        `json:"week_buckets"`
	MonthBuckets  []PeriodBucket        `json:"month_buckets"`
	PerMedication []MedicationBreakdown `json:"per_medication"`
	Streak        Streak                `json:"streak"`
	Insights      []Insight             `json:"insights"`
	OverallStats  OverallStats          `json:"overall_stats"`
}

// MedicationStats is the per-medication view of the adherence pipeline
type MedicationStats struct {
	Taken        int           `json:"taken"`
	Missed       int           `json:"missed"`
	Skipped      int           `json:"skipped"`
	Total        int           `json:"total"`
	Percentage   int           `json:"percentage"`
	DailySeries  []DayPoint    `json:"daily_series"`
	Streak       Streak        `json:"streak"`
	TimePatterns []TimePattern `json:"time_patterns"`
}

// MedicationAdherenceDetail pairs a medication with its stats. Both are nil when the
// medication does not exist or belongs to another user.
type MedicationAdherenceDetail struct {
	Medication *model.Medication `json:"medication"`
	Stats      *MedicationStats  `json:"stats"`
}

// LastDays returns the trailing n points of an ascending series
func LastDays(series []DayPoint, n int) []DayPoint {
	if n <= 0 {
		return []DayPoint{}
	}
	if len(series) <= n {
		return series
	}
	return series[len(series)-n:]
}
