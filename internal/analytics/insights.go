package analytics

import (
	"fmt"
	"sort"
)

// InsightType categorizes an insight
type InsightType string

const (
	InsightStreak             InsightType = "streak"
	InsightMedicationSpecific InsightType = "medication_specific"
	InsightTimePattern        InsightType = "time_pattern"
)

// Severity of an insight
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

func (s Severity) rank() int {
	switch s {
	case SeverityWarning:
		return 2
	case SeverityInfo:
		return 1
	}
	return 0
}

// ActionType is a machine-readable follow-up a client may offer
type ActionType string

const ActionChangeTime ActionType = "change_time"

// Insight is a transient, human-readable observation about adherence
type Insight struct {
	Type       InsightType    `json:"type"`
	Severity   Severity       `json:"severity"`
	Title      string         `json:"title"`
	Message    string         `json:"message"`
	Suggestion *string        `json:"suggestion,omitempty"`
	ActionType *ActionType    `json:"action_type,omitempty"`
	ActionData map[string]any `json:"action_data,omitempty"`
}

// MedicationBreakdown is one medication's share of an overview
type MedicationBreakdown struct {
	MedicationID string        `json:"medication_id"`
	Name         string        `json:"name"`
	Taken        int           `json:"taken"`
	Missed       int           `json:"missed"`
	Skipped      int           `json:"skipped"`
	Total        int           `json:"total"`
	Percentage   int           `json:"percentage"`
	TimeOfDay    []TimePattern `json:"time_of_day,omitempty"`
}

// GenerateInsights evaluates the insight rules over a computed overview.
// Streak insights come first, then medication-specific ones by descending severity,
// then time-pattern ones.
func GenerateInsights(overview *AdherenceOverview, th Thresholds) []Insight {
	insights := []Insight{}
	if overview == nil {
		return insights
	}

	streak := overview.Streak
	if streak.Current >= th.StreakPraiseDays {
		insights = append(insights, Insight{
			Type:     InsightStreak,
			Severity: SeveritySuccess,
			Title:    fmt.Sprintf("%d-day streak!", streak.Current),
			Message: fmt.Sprintf("You have taken every scheduled dose for %d days in a row. Keep it up!",
				streak.Current),
		})
	}

	type ranked struct {
		insight    Insight
		percentage int
	}

	var medicationSpecific []ranked
	var timePatterns []Insight
	for _, med := range overview.PerMedication {
		if med.Total >= th.LowAdherenceMinDoses && med.Percentage < th.LowAdherencePercent {
			suggestion := "Try setting a reminder or pairing the dose with a daily habit."
			medicationSpecific = append(medicationSpecific, ranked{
				percentage: med.Percentage,
				insight: Insight{
					Type:     InsightMedicationSpecific,
					Severity: SeverityWarning,
					Title:    fmt.Sprintf("Low adherence for %s", med.Name),
					Message: fmt.Sprintf("You took %d of %d scheduled doses of %s (%d%%).",
						med.Taken, med.Total, med.Name, med.Percentage),
					Suggestion: &suggestion,
				},
			})
		}

		if insight, ok := timePatternInsight(med, th); ok {
			timePatterns = append(timePatterns, insight)
		}
	}

	sort.SliceStable(medicationSpecific, func(i, j int) bool {
		a, b := medicationSpecific[i], medicationSpecific[j]
		if a.insight.Severity.rank() != b.insight.Severity.rank() {
			return a.insight.Severity.rank() > b.insight.Severity.rank()
		}
		return a.percentage < b.percentage
	})
	for _, r := range medicationSpecific {
		insights = append(insights, r.insight)
	}

	sort.SliceStable(timePatterns, func(i, j int) bool {
		return timePatterns[i].Severity.rank() > timePatterns[j].Severity.rank()
	})
	insights = append(insights, timePatterns...)

	return insights
}

// timePatternInsight flags a time-of-day bucket whose missed share stands out from the
// medication's other buckets
func timePatternInsight(med MedicationBreakdown, th Thresholds) (Insight, bool) {
	var candidates []TimePattern
	for _, p := range med.TimeOfDay {
		if p.Total >= th.TimePatternMinDoses {
			candidates = append(candidates, p)
		}
	}
	if len(candidates) < 2 {
		return Insight{}, false
	}

	worst, best := candidates[0], candidates[0]
	for _, p := range candidates[1:] {
		if p.MissedPercentage > worst.MissedPercentage {
			worst = p
		}
		if p.MissedPercentage < best.MissedPercentage {
			best = p
		}
	}
	if worst.MissedPercentage < th.TimePatternMissedPercent ||
		worst.MissedPercentage-best.MissedPercentage < th.TimePatternGapPercent {
		return Insight{}, false
	}

	severity := SeverityInfo
	if worst.MissedPercentage >= th.TimePatternWarningPercent {
		severity = SeverityWarning
	}
	action := ActionChangeTime
	suggestion := fmt.Sprintf("Consider moving your %s dose of %s to the %s, when you rarely miss it.",
		worst.Pattern, med.Name, best.Pattern)

	return Insight{
		Type:     InsightTimePattern,
		Severity: severity,
		Title:    fmt.Sprintf("%s doses of %s are often missed", capitalize(string(worst.Pattern)), med.Name),
		Message: fmt.Sprintf("You missed %d%% of %s doses of %s, compared with %d%% in the %s.",
			worst.MissedPercentage, worst.Pattern, med.Name, best.MissedPercentage, best.Pattern),
		Suggestion: &suggestion,
		ActionType: &action,
		ActionData: map[string]any{
			"medication_id":     med.MedicationID,
			"pattern":           string(worst.Pattern),
			"suggested_pattern": string(best.Pattern),
		},
	}, true
}
