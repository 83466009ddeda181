package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateInsights_Nil(t *testing.T) {
	insights := GenerateInsights(nil, DefaultThresholds())
	assert.NotNil(t, insights)
	assert.Empty(t, insights)
}

func TestGenerateInsights_StreakPraise(t *testing.T) {
	th := DefaultThresholds()

	insights := GenerateInsights(&AdherenceOverview{Streak: Streak{Current: 7, Longest: 9}}, th)
	require.Len(t, insights, 1)
	assert.Equal(t, InsightStreak, insights[0].Type)
	assert.Equal(t, SeveritySuccess, insights[0].Severity)
	assert.Equal(t, "7-day streak!", insights[0].Title)

	assert.Empty(t, GenerateInsights(&AdherenceOverview{Streak: Streak{Current: 6, Longest: 9}}, th))
}

func TestGenerateInsights_LowAdherence(t *testing.T) {
	overview := &AdherenceOverview{
		Streak: Streak{Current: 8},
		PerMedication: []MedicationBreakdown{
			{MedicationID: "a", Name: "Bisoprolol", Taken: 6, Total: 10, Percentage: 60},
			{MedicationID: "b", Name: "Atorvastatin", Taken: 3, Total: 10, Percentage: 30},
			{MedicationID: "c", Name: "Vitamin D", Taken: 1, Total: 4, Percentage: 25},
			{MedicationID: "d", Name: "Aspirin", Taken: 9, Total: 10, Percentage: 90},
		},
	}

	insights := GenerateInsights(overview, DefaultThresholds())

	require.Len(t, insights, 3)
	assert.Equal(t, InsightStreak, insights[0].Type)
	assert.Equal(t, "Low adherence for Atorvastatin", insights[1].Title)
	assert.Equal(t, "Low adherence for Bisoprolol", insights[2].Title)
	assert.Equal(t, SeverityWarning, insights[1].Severity)
	require.NotNil(t, insights[1].Suggestion)
}

func TestGenerateInsights_TimePattern(t *testing.T) {
	overview := &AdherenceOverview{
		PerMedication: []MedicationBreakdown{{
			MedicationID: "med-1",
			Name:         "Metformin",
			Taken:        14,
			Total:        20,
			Percentage:   70,
			TimeOfDay: []TimePattern{
				{Pattern: Morning, Taken: 10, Total: 10},
				{Pattern: Evening, Taken: 4, Missed: 6, Total: 10, MissedPercentage: 60},
			},
		}},
	}

	insights := GenerateInsights(overview, DefaultThresholds())

	require.Len(t, insights, 1)
	insight := insights[0]
	assert.Equal(t, InsightTimePattern, insight.Type)
	assert.Equal(t, SeverityWarning, insight.Severity)
	assert.Equal(t, "Evening doses of Metformin are often missed", insight.Title)
	require.NotNil(t, insight.ActionType)
	assert.Equal(t, ActionChangeTime, *insight.ActionType)
	assert.Equal(t, "evening", insight.ActionData["pattern"])
	assert.Equal(t, "morning", insight.ActionData["suggested_pattern"])
}

func TestGenerateInsights_TimePatternNeedsContrast(t *testing.T) {
	th := DefaultThresholds()

	tests := []struct {
		name     string
		patterns []TimePattern
	}{
		{"single bucket", []TimePattern{
			{Pattern: Evening, Missed: 6, Total: 10, MissedPercentage: 60},
		}},
		{"gap too small", []TimePattern{
			{Pattern: Morning, Missed: 4, Total: 10, MissedPercentage: 40},
			{Pattern: Evening, Missed: 5, Total: 10, MissedPercentage: 50},
		}},
		{"too few doses", []TimePattern{
			{Pattern: Morning, Total: 2},
			{Pattern: Evening, Missed: 2, Total: 2, MissedPercentage: 100},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			overview := &AdherenceOverview{PerMedication: []MedicationBreakdown{
				{MedicationID: "m", Name: "X", Taken: 4, Total: 4, Percentage: 100, TimeOfDay: tt.patterns},
			}}
			assert.Empty(t, GenerateInsights(overview, th))
		})
	}
}
