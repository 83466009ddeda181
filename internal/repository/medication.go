package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vcscsvcscs/medadherence/pkg/model"
	"go.uber.org/zap"
)

// MedicationRepository manages medication data
type MedicationRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

// NewMedicationRepository creates a new MedicationRepository
func NewMedicationRepository(db *pgxpool.Pool, logger *zap.Logger) *MedicationRepository {
	return &MedicationRepository{
		db:     db,
		logger: logger,
	}
}

const medicationColumns = `
	id, user_id, name, dosage, schedule,
	start_date, end_date, notes, active,
	created_at, updated_at`

// CreateMedication creates a new medication record
func (r *MedicationRepository) CreateMedication(ctx context.Context, med *model.Medication) error {
	schedule, err := json.Marshal(med.Schedule)
	if err != nil {
		return fmt.Errorf("failed to encode schedule: %w", err)
	}

	query := `
		INSERT INTO medications (` + medicationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err = r.db.Exec(ctx, query,
		med.ID,
		med.UserID,
		med.Name,
		med.Dosage,
		schedule,
		med.StartDate,
		med.EndDate,
		med.Notes,
		med.Active,
		med.CreatedAt,
		med.UpdatedAt,
	)

	if err != nil {
		r.logger.Error("failed to create medication",
			zap.Error(err),
			zap.String("medication_id", med.ID),
			zap.String("user_id", med.UserID),
		)
		return fmt.Errorf("failed to create medication: %w", err)
	}

	return nil
}

// ListMedications retrieves all medications for a user, newest start date first
func (r *MedicationRepository) ListMedications(ctx context.Context, userID string) ([]model.Medication, error) {
	query := `
		SELECT ` + medicationColumns + `
		FROM medications
		WHERE user_id = $1
		ORDER BY start_date DESC, name
	`
	return r.list(ctx, query, userID)
}

// ListActiveMedications retrieves the medications a user is currently taking
func (r *MedicationRepository) ListActiveMedications(ctx context.Context, userID string) ([]model.Medication, error) {
	query := `
		SELECT ` + medicationColumns + `
		FROM medications
		WHERE user_id = $1 AND active = TRUE
		ORDER BY name
	`
	return r.list(ctx, query, userID)
}

// ListUsersWithActiveMedications returns the ids of users owning at least one active medication
func (r *MedicationRepository) ListUsersWithActiveMedications(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT DISTINCT user_id FROM medications WHERE active = TRUE ORDER BY user_id`)
	if err != nil {
		r.logger.Error("failed to list users with active medications", zap.Error(err))
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var userIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan user id: %w", err)
		}
		userIDs = append(userIDs, id)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error("error iterating users", zap.Error(err))
		return nil, fmt.Errorf("error iterating users: %w", err)
	}

	return userIDs, nil
}

// FindMedicationByID retrieves a medication by ID
func (r *MedicationRepository) FindMedicationByID(ctx context.Context, medicationID string) (*model.Medication, error) {
	query := `
		SELECT ` + medicationColumns + `
		FROM medications
		WHERE id = $1
	`

	med, err := scanMedication(r.db.QueryRow(ctx, query, medicationID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("medication %s: %w", medicationID, ErrNotFound)
		}
		r.logger.Error("failed to find medication", zap.Error(err), zap.String("medication_id", medicationID))
		return nil, fmt.Errorf("failed to find medication: %w", err)
	}

	return med, nil
}

// UpdateMedication updates an existing medication record
func (r *MedicationRepository) UpdateMedication(ctx context.Context, med *model.Medication) error {
	schedule, err := json.Marshal(med.Schedule)
	if err != nil {
		return fmt.Errorf("failed to encode schedule: %w", err)
	}

	query := `
		UPDATE medications
		SET name = $1, dosage = $2, schedule = $3,
		    start_date = $4, end_date = $5, notes = $6,
		    active = $7, updated_at = $8
		WHERE id = $9
	`

	result, err := r.db.Exec(ctx, query,
		med.Name,
		med.Dosage,
		schedule,
		med.StartDate,
		med.EndDate,
		med.Notes,
		med.Active,
		med.UpdatedAt,
		med.ID,
	)

	if err != nil {
		r.logger.Error("failed to update medication",
			zap.Error(err),
			zap.String("medication_id", med.ID),
		)
		return fmt.Errorf("failed to update medication: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("medication %s: %w", med.ID, ErrNotFound)
	}

	return nil
}

// DeleteMedication deletes a medication; its dose records and correlation results
// cascade with it
func (r *MedicationRepository) DeleteMedication(ctx context.Context, medicationID string) error {
	result, err := r.db.Exec(ctx, `DELETE FROM medications WHERE id = $1`, medicationID)
	if err != nil {
		r.logger.Error("failed to delete medication",
			zap.Error(err),
			zap.String("medication_id", medicationID),
		)
		return fmt.Errorf("failed to delete medication: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("medication %s: %w", medicationID, ErrNotFound)
	}

	return nil
}

func (r *MedicationRepository) list(ctx context.Context, query string, args ...any) ([]model.Medication, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("failed to find medications", zap.Error(err))
		return nil, fmt.Errorf("failed to find medications: %w", err)
	}
	defer rows.Close()

	medications := []model.Medication{}
	for rows.Next() {
		med, err := scanMedication(rows)
		if err != nil {
			r.logger.Error("failed to scan medication", zap.Error(err))
			return nil, fmt.Errorf("failed to scan medication: %w", err)
		}
		medications = append(medications, *med)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("error iterating medications", zap.Error(err))
		return nil, fmt.Errorf("error iterating medications: %w", err)
	}

	return medications, nil
}

func scanMedication(row pgx.Row) (*model.Medication, error) {
	var med model.Medication
	var schedule []byte
	err := row.Scan(
		&med.ID,
		&med.UserID,
		&med.Name,
		&med.Dosage,
		&schedule,
		&med.StartDate,
		&med.EndDate,
		&med.Notes,
		&med.Active,
		&med.CreatedAt,
		&med.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(schedule, &med.Schedule); err != nil {
		return nil, fmt.Errorf("failed to decode schedule: %w", err)
	}
	return &med, nil
}
