package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vcscsvcscs/medadherence/internal/analytics"
	"github.com/vcscsvcscs/medadherence/internal/audit"
	"github.com/vcscsvcscs/medadherence/internal/repository"
	"github.com/vcscsvcscs/medadherence/pkg/model"
	"go.uber.org/zap"
)

// MedicationService handles medication management and dose logging
type MedicationService struct {
	meds     MedicationStore
	doses    DoseRecordStore
	audit    AuditRecorder
	location *time.Location
	logger   *zap.Logger
	now      func() time.Time
}

// NewMedicationService creates a new MedicationService
func NewMedicationService(meds MedicationStore, doses DoseRecordStore, location *time.Location, logger *zap.Logger) *MedicationService {
	if location == nil {
		location = time.UTC
	}
	return &MedicationService{
		meds:     meds,
		doses:    doses,
		location: location,
		logger:   logger,
		now:      time.Now,
	}
}

// WithAudit enables audit entries for medication changes
func (s *MedicationService) WithAudit(recorder AuditRecorder) *MedicationService {
	s.audit = recorder
	return s
}

// DoseLog is a request to record what happened to a scheduled dose
type DoseLog struct {
	ScheduledTime time.Time
	Status        model.DoseStatus
	TakenAt       *time.Time
}

func validateMedication(med *model.Medication) error {
	if strings.TrimSpace(med.Name) == "" {
		return validationError("medication name is required")
	}
	if strings.TrimSpace(med.Dosage) == "" {
		return validationError("medication dosage is required")
	}
	if err := med.Schedule.Validate(); err != nil {
		return validationError("invalid schedule: %v", err)
	}
	if med.EndDate != nil && med.EndDate.Before(med.StartDate) {
		return validationError("end date must not be before start date")
	}
	return nil
}

// today returns the current calendar date at midnight in the service location
func (s *MedicationService) today() time.Time {
	return analytics.StartOfDay(s.now(), s.location)
}

// AddMedication adds a new medication for a user. A missing start date defaults to today.
func (s *MedicationService) AddMedication(ctx context.Context, userID string, med *model.Medication) error {
	if userID == "" {
		return validationError("user ID is required")
	}
	if med.StartDate.IsZero() {
		med.StartDate = s.today()
	}
	if err := validateMedication(med); err != nil {
		return err
	}

	if med.ID == "" {
		med.ID = uuid.New().String()
	}
	med.UserID = userID
	med.Active = med.EndDate == nil || !analytics.CalendarDate(*med.EndDate, s.location).Before(s.today())

	now := s.now()
	med.CreatedAt = now
	med.UpdatedAt = now

	if err := s.meds.CreateMedication(ctx, med); err != nil {
		s.logger.Error("failed to add medication",
			zap.Error(err),
			zap.String("user_id", userID),
			zap.String("medication_name", med.Name),
		)
		return fmt.Errorf("failed to add medication: %w", err)
	}

	recordAudit(ctx, s.audit, s.logger, audit.Entry{
		UserID:     userID,
		Action:     audit.ActionCreate,
		Resource:   audit.ResourceMedication,
		ResourceID: med.ID,
	})

	s.logger.Info("medication added successfully",
		zap.String("medication_id", med.ID),
		zap.String("user_id", userID),
		zap.String("name", med.Name),
		zap.String("schedule", med.Schedule.Describe()),
	)

	return nil
}

// ListMedications retrieves all medications for a user. Medications whose end date has
// passed are marked inactive on the way out.
func (s *MedicationService) ListMedications(ctx context.Context, userID string) ([]model.Medication, error) {
	if userID == "" {
		return nil, validationError("user ID is required")
	}

	medications, err := s.meds.ListMedications(ctx, userID)
	if err != nil {
		s.logger.Error("failed to list medications",
			zap.Error(err),
			zap.String("user_id", userID),
		)
		return nil, fmt.Errorf("failed to list medications: %w", err)
	}

	today := s.today()
	for i := range medications {
		med := &medications[i]
		if med.Active && med.EndDate != nil && analytics.CalendarDate(*med.EndDate, s.location).Before(today) {
			med.Active = false
			med.UpdatedAt = s.now()
			if err := s.meds.UpdateMedication(ctx, med); err != nil {
				s.logger.Warn("failed to update medication active status",
					zap.Error(err),
					zap.String("medication_id", med.ID),
				)
			}
		}
	}

	s.logger.Info("medications listed successfully",
		zap.String("user_id", userID),
		zap.Int("count", len(medications)),
	)

	return medications, nil
}

// owned fetches a medication and checks that it belongs to userID. Foreign medications
// are reported as not found.
func (s *MedicationService) owned(ctx context.Context, userID, medID string) (*model.Medication, error) {
	if userID == "" {
		return nil, validationError("user ID is required")
	}
	if medID == "" {
		return nil, validationError("medication ID is required")
	}

	med, err := s.meds.FindMedicationByID(ctx, medID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			s.logger.Error("failed to find medication",
				zap.Error(err),
				zap.String("medication_id", medID),
			)
		}
		return nil, fmt.Errorf("failed to find medication: %w", err)
	}
	if med.UserID != userID {
		return nil, fmt.Errorf("medication %s: %w", medID, repository.ErrNotFound)
	}
	return med, nil
}

// UpdateMedication replaces the editable fields of a user's medication
func (s *MedicationService) UpdateMedication(ctx context.Context, userID, medID string, updates *model.Medication) error {
	existing, err := s.owned(ctx, userID, medID)
	if err != nil {
		return err
	}

	updates.ID = existing.ID
	updates.UserID = existing.UserID
	updates.CreatedAt = existing.CreatedAt
	if updates.StartDate.IsZero() {
		updates.StartDate = existing.StartDate
	}
	if err := validateMedication(updates); err != nil {
		return err
	}
	updates.Active = updates.EndDate == nil || !analytics.CalendarDate(*updates.EndDate, s.location).Before(s.today())
	updates.UpdatedAt = s.now()

	if err := s.meds.UpdateMedication(ctx, updates); err != nil {
		s.logger.Error("failed to update medication",
			zap.Error(err),
			zap.String("medication_id", medID),
		)
		return fmt.Errorf("failed to update medication: %w", err)
	}

	recordAudit(ctx, s.audit, s.logger, audit.Entry{
		UserID:     userID,
		Action:     audit.ActionUpdate,
		Resource:   audit.ResourceMedication,
		ResourceID: medID,
	})

	s.logger.Info("medication updated successfully",
		zap.String("medication_id", medID),
		zap.String("name", updates.Name),
	)

	return nil
}

// DeactivateMedication soft-deletes a medication: it stops being active and is
// end-dated today. Its dose history is kept.
func (s *MedicationService) DeactivateMedication(ctx context.Context, userID, medID string) (*model.Medication, error) {
	med, err := s.owned(ctx, userID, medID)
	if err != nil {
		return nil, err
	}

	today := s.today()
	med.Active = false
	med.EndDate = &today
	med.UpdatedAt = s.now()

	if err := s.meds.UpdateMedication(ctx, med); err != nil {
		s.logger.Error("failed to deactivate medication",
			zap.Error(err),
			zap.String("medication_id", medID),
		)
		return nil, fmt.Errorf("failed to deactivate medication: %w", err)
	}

	recordAudit(ctx, s.audit, s.logger, audit.Entry{
		UserID:     userID,
		Action:     audit.ActionDeactivate,
		Resource:   audit.ResourceMedication,
		ResourceID: medID,
	})

	s.logger.Info("medication deactivated",
		zap.String("medication_id", medID),
		zap.String("user_id", userID),
	)

	return med, nil
}

// DeleteMedication hard-deletes a medication together with its dose records
func (s *MedicationService) DeleteMedication(ctx context.Context, userID, medID string) error {
	if _, err := s.owned(ctx, userID, medID); err != nil {
		return err
	}

	if err := s.meds.DeleteMedication(ctx, medID); err != nil {
		s.logger.Error("failed to delete medication",
			zap.Error(err),
			zap.String("medication_id", medID),
		)
		return fmt.Errorf("failed to delete medication: %w", err)
	}

	recordAudit(ctx, s.audit, s.logger, audit.Entry{
		UserID:     userID,
		Action:     audit.ActionDelete,
		Resource:   audit.ResourceMedication,
		ResourceID: medID,
	})

	s.logger.Info("medication deleted successfully",
		zap.String("medication_id", medID),
	)

	return nil
}

// LogDose records the outcome of a dose. Logging the same scheduled time again updates
// the existing record. A taken dose without taken_at is stamped with the current time.
func (s *MedicationService) LogDose(ctx context.Context, userID, medID string, entry DoseLog) (*model.DoseRecord, error) {
	if entry.ScheduledTime.IsZero() {
		return nil, validationError("scheduled time is required")
	}
	if !entry.Status.Valid() {
		return nil, validationError("invalid dose status: %q", entry.Status)
	}
	if entry.Status != model.DoseStatusTaken && entry.TakenAt != nil {
		return nil, validationError("taken_at is only allowed for taken doses")
	}

	med, err := s.owned(ctx, userID, medID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	rec := &model.DoseRecord{
		ID:            uuid.New().String(),
		UserID:        userID,
		MedicationID:  med.ID,
		ScheduledTime: entry.ScheduledTime,
		Status:        entry.Status,
		TakenAt:       entry.TakenAt,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if rec.Status == model.DoseStatusTaken && rec.TakenAt == nil {
		rec.TakenAt = &now
	}

	if err := s.doses.UpsertDoseRecord(ctx, rec); err != nil {
		s.logger.Error("failed to log dose",
			zap.Error(err),
			zap.String("medication_id", medID),
			zap.Time("scheduled_time", entry.ScheduledTime),
		)
		return nil, fmt.Errorf("failed to log dose: %w", err)
	}

	recordAudit(ctx, s.audit, s.logger, audit.Entry{
		UserID:     userID,
		Action:     audit.ActionLogDose,
		Resource:   audit.ResourceDoseRecord,
		ResourceID: rec.ID,
		Details:    map[string]any{"status": string(rec.Status)},
	})

	s.logger.Info("dose logged",
		zap.String("medication_id", medID),
		zap.String("status", string(rec.Status)),
		zap.Time("scheduled_time", rec.ScheduledTime),
	)

	return rec, nil
}
