package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vcscsvcscs/medadherence/pkg/model"
	"go.uber.org/zap"
)

// DoseRecordRepository manages scheduled and logged doses
type DoseRecordRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

// NewDoseRecordRepository creates a new DoseRecordRepository
func NewDoseRecordRepository(db *pgxpool.Pool, logger *zap.Logger) *DoseRecordRepository {
	return &DoseRecordRepository{
		db:     db,
		logger: logger,
	}
}

// UpsertDoseRecord inserts a dose or, when one already exists for the same medication and
// scheduled time, updates its status in place. The stored id and created_at are written
// back into rec.
func (r *DoseRecordRepository) UpsertDoseRecord(ctx context.Context, rec *model.DoseRecord) error {
	query := `
		INSERT INTO dose_records (
			id, user_id, medication_id, scheduled_time,
			status, taken_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (medication_id, scheduled_time) DO UPDATE
		SET status = EXCLUDED.status,
		    taken_at = EXCLUDED.taken_at,
		    updated_at = EXCLUDED.updated_at
		RETURNING id, created_at
	`

	err := r.db.QueryRow(ctx, query,
		rec.ID,
		rec.UserID,
		rec.MedicationID,
		rec.ScheduledTime,
		rec.Status,
		rec.TakenAt,
		rec.CreatedAt,
		rec.UpdatedAt,
	).Scan(&rec.ID, &rec.CreatedAt)

	if err != nil {
		r.logger.Error("failed to upsert dose record",
			zap.Error(err),
			zap.String("medication_id", rec.MedicationID),
			zap.Time("scheduled_time", rec.ScheduledTime),
		)
		return fmt.Errorf("failed to upsert dose record: %w", err)
	}

	return nil
}

// ListDoseRecords retrieves a user's dose records in a half-open date range, optionally
// scoped to one medication, ordered by scheduled time
func (r *DoseRecordRepository) ListDoseRecords(ctx context.Context, userID string, medicationID *string, dateRange model.DateRange) ([]model.DoseRecord, error) {
	var where strings.Builder
	args := []any{userID}
	where.WriteString("user_id = $1")

	if medicationID != nil {
		args = append(args, *medicationID)
		fmt.Fprintf(&where, " AND medication_id = $%d", len(args))
	}
	if !dateRange.Start.IsZero() {
		args = append(args, dateRange.Start)
		fmt.Fprintf(&where, " AND scheduled_time >= $%d", len(args))
	}
	if !dateRange.End.IsZero() {
		args = append(args, dateRange.End)
		fmt.Fprintf(&where, " AND scheduled_time < $%d", len(args))
	}

	query := `
		SELECT id, user_id, medication_id, scheduled_time,
		       status, taken_at, created_at, updated_at
		FROM dose_records
		WHERE ` + where.String() + `
		ORDER BY scheduled_time, medication_id
	`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("failed to list dose records", zap.Error(err), zap.String("user_id", userID))
		return nil, fmt.Errorf("failed to list dose records: %w", err)
	}
	defer rows.Close()

	records := []model.DoseRecord{}
	for rows.Next() {
		var rec model.DoseRecord
		err := rows.Scan(
			&rec.ID,
			&rec.UserID,
			&rec.MedicationID,
			&rec.ScheduledTime,
			&rec.Status,
			&rec.TakenAt,
			&rec.CreatedAt,
			&rec.UpdatedAt,
		)
		if err != nil {
			r.logger.Error("failed to scan dose record", zap.Error(err))
			return nil, fmt.Errorf("failed to scan dose record: %w", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("error iterating dose records", zap.Error(err))
		return nil, fmt.Errorf("error iterating dose records: %w", err)
	}

	return records, nil
}
