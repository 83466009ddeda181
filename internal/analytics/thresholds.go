package analytics

// Thresholds holds every tunable cutoff used by the adherence and correlation engines
type Thresholds struct {
	// Insight rules
	StreakPraiseDays          int
	LowAdherencePercent       int
	LowAdherenceMinDoses      int
	TimePatternMinDoses       int
	TimePatternMissedPercent  int
	TimePatternGapPercent     int
	TimePatternWarningPercent int

	// Correlation gates
	MinCorrelationPoints     int
	MediumConfidencePoints   int
	MediumConfidenceStrength float64
	HighConfidencePoints     int
	HighConfidenceStrength   float64
	WeakStrength             float64
	DirectionEpsilon         float64
}

// DefaultThresholds returns the production defaults
func DefaultThresholds() Thresholds {
	return Thresholds{
		StreakPraiseDays:          7,
		LowAdherencePercent:       70,
		LowAdherenceMinDoses:      5,
		TimePatternMinDoses:       3,
		TimePatternMissedPercent:  40,
		TimePatternGapPercent:     25,
		TimePatternWarningPercent: 50,

		MinCorrelationPoints:     10,
		MediumConfidencePoints:   15,
		MediumConfidenceStrength: 0.4,
		HighConfidencePoints:     30,
		HighConfidenceStrength:   0.7,
		WeakStrength:             0.2,
		DirectionEpsilon:         1e-9,
	}
}
