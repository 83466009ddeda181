package model

import "time"

// DoseStatus represents the state of a scheduled or logged dose
type DoseStatus string

const (
	DoseStatusPending DoseStatus = "pending"
	DoseStatusTaken   DoseStatus = "taken"
	DoseStatusSkipped DoseStatus = "skipped"
	DoseStatusMissed  DoseStatus = "missed"
)

// Valid reports whether the status is one of the known dose statuses
func (s DoseStatus) Valid() bool {
	switch s {
	case DoseStatusPending, DoseStatusTaken, DoseStatusSkipped, DoseStatusMissed:
		return true
	}
	return false
}

// Medication represents a medication or supplement a user takes on a schedule
type Medication struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	Name      string     `json:"name"`
	Dosage    string     `json:"dosage"`
	Schedule  Schedule   `json:"schedule"`
	StartDate time.Time  `json:"start_date"`
	EndDate   *time.Time `json:"end_date,omitempty"`
	Notes     *string    `json:"notes,omitempty"`
	Active    bool       `json:"active"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// DoseRecord represents one scheduled or logged dose.
// At most one record exists per (medication, scheduled time).
type DoseRecord struct {
	ID            string     `json:"id"`
	UserID        string     `json:"user_id"`
	MedicationID  string     `json:"medication_id"`
	ScheduledTime time.Time  `json:"scheduled_time"`
	Status        DoseStatus `json:"status"`
	TakenAt       *time.Time `json:"taken_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// MetricType identifies a body metric
type MetricType string

const (
	MetricWeight                 MetricType = "weight"
	MetricHeartRate              MetricType = "heart_rate"
	MetricBloodPressureSystolic  MetricType = "blood_pressure_systolic"
	MetricBloodPressureDiastolic MetricType = "blood_pressure_diastolic"
	MetricSteps                  MetricType = "steps"
	MetricSleepHours             MetricType = "sleep_hours"
)

// RecordableMetrics lists every metric type that can be stored
var RecordableMetrics = []MetricType{
	MetricWeight,
	MetricHeartRate,
	MetricBloodPressureSystolic,
	MetricBloodPressureDiastolic,
	MetricSteps,
	MetricSleepHours,
}

// Recordable reports whether samples of this metric may be stored
func (m MetricType) Recordable() bool {
	for _, known := range RecordableMetrics {
		if m == known {
			return true
		}
	}
	return false
}

// MetricSample is one measurement of a body metric on a calendar date.
// At most one sample exists per (user, metric, date).
type MetricSample struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	Metric    MetricType `json:"metric"`
	Date      time.Time  `json:"date"`
	Value     float64    `json:"value"`
	Unit      string     `json:"unit"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// ImpactDirection is the sign of a correlation
type ImpactDirection string

const (
	ImpactPositive ImpactDirection = "positive"
	ImpactNegative ImpactDirection = "negative"
	ImpactNone     ImpactDirection = "none"
)

// ConfidenceLevel is a coarse trust classification for a correlation
type ConfidenceLevel string

const (
	ConfidenceLow    ConfidenceLevel = "low"
	ConfidenceMedium ConfidenceLevel = "medium"
	ConfidenceHigh   ConfidenceLevel = "high"
)

// CorrelationKey is the natural key of a persisted correlation result
type CorrelationKey struct {
	UserID       string
	MedicationID string
	Metric       MetricType
}

// CorrelationResult is the outcome of correlating a medication's taken days with a metric
type CorrelationResult struct {
	ID                     string          `json:"id"`
	UserID                 string          `json:"user_id"`
	MedicationID           string          `json:"medication_id"`
	MedicationName         string          `json:"medication_name,omitempty"`
	Metric                 MetricType      `json:"metric"`
	CorrelationCoefficient float64         `json:"correlation_coefficient"`
	ImpactDirection        ImpactDirection `json:"impact_direction"`
	DataPoints             int             `json:"data_points"`
	ConfidenceLevel        ConfidenceLevel `json:"confidence_level"`
	Observations           []string        `json:"observations"`
	CreatedAt              time.Time       `json:"created_at"`
	UpdatedAt              time.Time       `json:"updated_at"`
}

// Key returns the natural key of the result
func (r *CorrelationResult) Key() CorrelationKey {
	return CorrelationKey{UserID: r.UserID, MedicationID: r.MedicationID, Metric: r.Metric}
}

// DateRange is a half-open instant range [Start, End).
// A zero Start means unbounded in the past, a zero End unbounded in the future.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the range
func (r DateRange) Contains(t time.Time) bool {
	if !r.Start.IsZero() && t.Before(r.Start) {
		return false
	}
	if !r.End.IsZero() && !t.Before(r.End) {
		return false
	}
	return true
}
