// Package api holds the JSON request and response bodies of the HTTP API
package api

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/vcscsvcscs/medadherence/internal/analytics"
	"github.com/vcscsvcscs/medadherence/pkg/model"
)

// DateFormat is the wire format of calendar dates
const DateFormat = "2006-01-02"

// Date is a calendar date encoded as YYYY-MM-DD
type Date struct {
	time.Time
}

// MarshalJSON implements json.Marshaler
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Time.Format(DateFormat))
}

// UnmarshalJSON implements json.Unmarshaler
func (d *Date) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	t, err := time.Parse(DateFormat, strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid date %q: expected YYYY-MM-DD", raw)
	}
	d.Time = t
	return nil
}

// DatePtr converts an optional time to an optional Date
func DatePtr(t *time.Time) *Date {
	if t == nil {
		return nil
	}
	return &Date{Time: *t}
}

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Code    string  `json:"code"`
	Message string  `json:"message"`
	Details *string `json:"details,omitempty"`
}

// CreateMedicationRequest defines model for CreateMedicationRequest
type CreateMedicationRequest struct {
	UserId    string         `json:"user_id" binding:"required,uuid"`
	Name      string         `json:"name" binding:"required"`
	Dosage    string         `json:"dosage" binding:"required"`
	Schedule  model.Schedule `json:"schedule"`
	StartDate *Date          `json:"start_date,omitempty"`
	EndDate   *Date          `json:"end_date,omitempty"`
	Notes     *string        `json:"notes,omitempty"`
}

// UpdateMedicationRequest defines model for UpdateMedicationRequest
type UpdateMedicationRequest struct {
	UserId    string         `json:"user_id" binding:"required,uuid"`
	Name      string         `json:"name" binding:"required"`
	Dosage    string         `json:"dosage" binding:"required"`
	Schedule  model.Schedule `json:"schedule"`
	StartDate *Date          `json:"start_date,omitempty"`
	EndDate   *Date          `json:"end_date,omitempty"`
	Notes     *string        `json:"notes,omitempty"`
}

// UserRequest carries only the acting user
type UserRequest struct {
	UserId string `json:"user_id" binding:"required,uuid"`
}

// MedicationResponse defines model for MedicationResponse
type MedicationResponse struct {
	Id                  string         `json:"id"`
	UserId              string         `json:"user_id"`
	Name                string         `json:"name"`
	Dosage              string         `json:"dosage"`
	Schedule            model.Schedule `json:"schedule"`
	ScheduleDescription string         `json:"schedule_description"`
	StartDate           Date           `json:"start_date"`
	EndDate             *Date          `json:"end_date,omitempty"`
	Notes               *string        `json:"notes,omitempty"`
	Active              bool           `json:"active"`
	CreatedAt           time.Time      `json:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at"`
}

// NewMedicationResponse converts a medication for the wire
func NewMedicationResponse(med *model.Medication) MedicationResponse {
	return MedicationResponse{
		Id:                  med.ID,
		UserId:              med.UserID,
		Name:                med.Name,
		Dosage:              med.Dosage,
		Schedule:            med.Schedule,
		ScheduleDescription: med.Schedule.Describe(),
		StartDate:           Date{Time: med.StartDate},
		EndDate:             DatePtr(med.EndDate),
		Notes:               med.Notes,
		Active:              med.Active,
		CreatedAt:           med.CreatedAt,
		UpdatedAt:           med.UpdatedAt,
	}
}

// LogDoseRequest defines model for LogDoseRequest
type LogDoseRequest struct {
	UserId        string     `json:"user_id" binding:"required,uuid"`
	ScheduledTime time.Time  `json:"scheduled_time" binding:"required"`
	Status        string     `json:"status" binding:"required"`
	TakenAt       *time.Time `json:"taken_at,omitempty"`
}

// RecordMetricRequest defines model for RecordMetricRequest
type RecordMetricRequest struct {
	UserId string   `json:"user_id" binding:"required,uuid"`
	Metric string   `json:"metric" binding:"required"`
	Date   *Date    `json:"date,omitempty"`
	Value  *float64 `json:"value" binding:"required"`
	Unit   string   `json:"unit"`
}

// MetricSampleResponse defines model for MetricSampleResponse
type MetricSampleResponse struct {
	Id     string  `json:"id"`
	Metric string  `json:"metric"`
	Date   Date    `json:"date"`
	Value  float64 `json:"value"`
	Unit   string  `json:"unit"`
}

// NewMetricSampleResponse converts a sample for the wire
func NewMetricSampleResponse(sample *model.MetricSample) MetricSampleResponse {
	return MetricSampleResponse{
		Id:     sample.ID,
		Metric: string(sample.Metric),
		Date:   Date{Time: sample.Date},
		Value:  sample.Value,
		Unit:   sample.Unit,
	}
}

// MedicationAdherenceResponse defines model for MedicationAdherenceResponse
type MedicationAdherenceResponse struct {
	Medication MedicationResponse         `json:"medication"`
	Stats      *analytics.MedicationStats `json:"stats"`
}

// CorrelationListResponse wraps a list of correlation results
type CorrelationListResponse struct {
	Results []model.CorrelationResult `json:"results"`
	Count   int                       `json:"count"`
}

// CorrelationAnalysisResponse carries an ad-hoc analysis. Result is null when the
// metric is unsupported or there were too few paired days.
type CorrelationAnalysisResponse struct {
	Result *model.CorrelationResult `json:"result"`
}
