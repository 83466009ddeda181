package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vcscsvcscs/medadherence/internal/repository"
	"github.com/vcscsvcscs/medadherence/pkg/model"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

const (
	timeLayout = "2006-01-02T15:04:05.000000000Z07:00"
	dateLayout = "2006-01-02"
)

// Store is a single-file SQLite implementation of every storage interface the services
// use. All access goes through one connection, which serializes writes.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

// Open opens (creating if needed) the database at path and initializes the schema.
// Use ":memory:" for a throwaway database.
func Open(ctx context.Context, path string, logger *zap.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		logger.Error("failed to open database", zap.Error(err), zap.String("path", path))
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	store := &Store{db: db, logger: logger}
	if err := store.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies the database is reachable
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) initSchema(ctx context.Context) error {
	schema := `
	PRAGMA foreign_keys = ON;

	CREATE TABLE IF NOT EXISTS medications (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		name TEXT NOT NULL,
		dosage TEXT NOT NULL,
		schedule TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT,
		notes TEXT,
		active INTEGER NOT NULL DEFAULT 1,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS dose_records (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		medication_id TEXT NOT NULL REFERENCES medications(id) ON DELETE CASCADE,
		scheduled_time TEXT NOT NULL,
		status TEXT NOT NULL,
		taken_at TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		UNIQUE (medication_id, scheduled_time)
	);

	CREATE TABLE IF NOT EXISTS metric_samples (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		metric TEXT NOT NULL,
		sample_date TEXT NOT NULL,
		value REAL NOT NULL,
		unit TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		UNIQUE (user_id, metric, sample_date)
	);

	CREATE TABLE IF NOT EXISTS correlation_results (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		medication_id TEXT NOT NULL REFERENCES medications(id) ON DELETE CASCADE,
		metric TEXT NOT NULL,
		correlation_coefficient REAL NOT NULL,
		impact_direction TEXT NOT NULL,
		data_points INTEGER NOT NULL,
		confidence_level TEXT NOT NULL,
		observations TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		UNIQUE (user_id, medication_id, metric)
	);

	CREATE INDEX IF NOT EXISTS idx_medications_user ON medications(user_id, active);
	CREATE INDEX IF NOT EXISTS idx_dose_records_user_time ON dose_records(user_id, scheduled_time);
	`

	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		s.logger.Error("failed to create schema", zap.Error(err))
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(raw string) (time.Time, error) {
	return time.Parse(timeLayout, raw)
}

func formatDate(t time.Time) string {
	return t.Format(dateLayout)
}

func parseDate(raw string) (time.Time, error) {
	return time.Parse(dateLayout, raw)
}

func nullTime(t *time.Time, format func(time.Time) string) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: format(*t), Valid: true}
}

func parseNullTime(ns sql.NullString, parse func(string) (time.Time, error)) (*time.Time, error) {
	if !ns.Valid {
		return nil, nil
	}
	t, err := parse(ns.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

// --- medications ---

const medicationColumns = `id, user_id, name, dosage, schedule, start_date, end_date, notes, active, created_at, updated_at`

// CreateMedication inserts a medication
func (s *Store) CreateMedication(ctx context.Context, med *model.Medication) error {
	schedule, err := json.Marshal(med.Schedule)
	if err != nil {
		s.logger.Error("failed to encode schedule", zap.Error(err), zap.String("medication_id", med.ID))
		return fmt.Errorf("failed to encode schedule: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO medications (`+medicationColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		med.ID, med.UserID, med.Name, med.Dosage, string(schedule),
		formatDate(med.StartDate), nullTime(med.EndDate, formatDate), med.Notes, med.Active,
		formatTime(med.CreatedAt), formatTime(med.UpdatedAt),
	)
	if err != nil {
		s.logger.Error("failed to create medication", zap.Error(err), zap.String("medication_id", med.ID))
		return fmt.Errorf("failed to create medication: %w", err)
	}
	return nil
}

// FindMedicationByID returns repository.ErrNotFound when no medication has the id
func (s *Store) FindMedicationByID(ctx context.Context, medicationID string) (*model.Medication, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+medicationColumns+` FROM medications WHERE id = ?`, medicationID)
	med, err := scanMedication(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("medication %s: %w", medicationID, repository.ErrNotFound)
		}
		s.logger.Error("failed to find medication", zap.Error(err), zap.String("medication_id", medicationID))
		return nil, fmt.Errorf("failed to find medication: %w", err)
	}
	return med, nil
}

// ListMedications returns all of a user's medications, newest start date first
func (s *Store) ListMedications(ctx context.Context, userID string) ([]model.Medication, error) {
	return s.listMedications(ctx, `
		SELECT `+medicationColumns+` FROM medications
		WHERE user_id = ? ORDER BY start_date DESC, name`, userID)
}

// ListActiveMedications returns the medications a user is currently taking
func (s *Store) ListActiveMedications(ctx context.Context, userID string) ([]model.Medication, error) {
	return s.listMedications(ctx, `
		SELECT `+medicationColumns+` FROM medications
		WHERE user_id = ? AND active = 1 ORDER BY name`, userID)
}

// ListUsersWithActiveMedications returns users owning at least one active medication
func (s *Store) ListUsersWithActiveMedications(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT user_id FROM medications WHERE active = 1 ORDER BY user_id`)
	if err != nil {
		s.logger.Error("failed to list users with active medications", zap.Error(err))
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var userIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			s.logger.Error("failed to scan user id", zap.Error(err))
			return nil, fmt.Errorf("failed to scan user id: %w", err)
		}
		userIDs = append(userIDs, id)
	}
	if err := rows.Err(); err != nil {
		s.logger.Error("error iterating users", zap.Error(err))
		return nil, fmt.Errorf("error iterating users: %w", err)
	}
	return userIDs, nil
}

// UpdateMedication replaces a medication's mutable columns
func (s *Store) UpdateMedication(ctx context.Context, med *model.Medication) error {
	schedule, err := json.Marshal(med.Schedule)
	if err != nil {
		s.logger.Error("failed to encode schedule", zap.Error(err), zap.String("medication_id", med.ID))
		return fmt.Errorf("failed to encode schedule: %w", err)
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE medications
		SET name = ?, dosage = ?, schedule = ?, start_date = ?, end_date = ?,
		    notes = ?, active = ?, updated_at = ?
		WHERE id = ?`,
		med.Name, med.Dosage, string(schedule), formatDate(med.StartDate),
		nullTime(med.EndDate, formatDate), med.Notes, med.Active, formatTime(med.UpdatedAt), med.ID,
	)
	if err != nil {
		s.logger.Error("failed to update medication", zap.Error(err), zap.String("medication_id", med.ID))
		return fmt.Errorf("failed to update medication: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("medication %s: %w", med.ID, repository.ErrNotFound)
	}
	return nil
}

// DeleteMedication removes a medication with its dose records and correlation results
func (s *Store) DeleteMedication(ctx context.Context, medicationID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("failed to start transaction", zap.Error(err), zap.String("medication_id", medicationID))
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range []string{
		`DELETE FROM dose_records WHERE medication_id = ?`,
		`DELETE FROM correlation_results WHERE medication_id = ?`,
	} {
		if _, err := tx.ExecContext(ctx, stmt, medicationID); err != nil {
			s.logger.Error("failed to delete medication children", zap.Error(err), zap.String("medication_id", medicationID))
			return fmt.Errorf("failed to delete medication children: %w", err)
		}
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM medications WHERE id = ?`, medicationID)
	if err != nil {
		s.logger.Error("failed to delete medication", zap.Error(err), zap.String("medication_id", medicationID))
		return fmt.Errorf("failed to delete medication: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("medication %s: %w", medicationID, repository.ErrNotFound)
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("failed to commit medication delete", zap.Error(err), zap.String("medication_id", medicationID))
		return fmt.Errorf("failed to commit medication delete: %w", err)
	}
	return nil
}

func (s *Store) listMedications(ctx context.Context, query string, args ...any) ([]model.Medication, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		s.logger.Error("failed to find medications", zap.Error(err))
		return nil, fmt.Errorf("failed to find medications: %w", err)
	}
	defer rows.Close()

	medications := []model.Medication{}
	for rows.Next() {
		med, err := scanMedication(rows)
		if err != nil {
			s.logger.Error("failed to scan medication", zap.Error(err))
			return nil, fmt.Errorf("failed to scan medication: %w", err)
		}
		medications = append(medications, *med)
	}
	if err := rows.Err(); err != nil {
		s.logger.Error("error iterating medications", zap.Error(err))
		return nil, fmt.Errorf("error iterating medications: %w", err)
	}
	return medications, nil
}

func scanMedication(row rowScanner) (*model.Medication, error) {
	var (
		med                  model.Medication
		schedule, start      string
		end, notes           sql.NullString
		createdAt, updatedAt string
	)
	err := row.Scan(&med.ID, &med.UserID, &med.Name, &med.Dosage, &schedule,
		&start, &end, &notes, &med.Active, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(schedule), &med.Schedule); err != nil {
		return nil, fmt.Errorf("failed to decode schedule: %w", err)
	}
	if med.StartDate, err = parseDate(start); err != nil {
		return nil, fmt.Errorf("invalid start_date: %w", err)
	}
	if med.EndDate, err = parseNullTime(end, parseDate); err != nil {
		return nil, fmt.Errorf("invalid end_date: %w", err)
	}
	if notes.Valid {
		med.Notes = &notes.String
	}
	if med.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("invalid created_at: %w", err)
	}
	if med.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("invalid updated_at: %w", err)
	}
	return &med, nil
}

// --- dose records ---

// UpsertDoseRecord inserts or updates the record for (medication, scheduled time)
func (s *Store) UpsertDoseRecord(ctx context.Context, rec *model.DoseRecord) error {
	var id, createdAt string
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO dose_records (id, user_id, medication_id, scheduled_time, status, taken_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (medication_id, scheduled_time) DO UPDATE
		SET status = excluded.status, taken_at = excluded.taken_at, updated_at = excluded.updated_at
		RETURNING id, created_at`,
		rec.ID, rec.UserID, rec.MedicationID, formatTime(rec.ScheduledTime), string(rec.Status),
		nullTime(rec.TakenAt, formatTime), formatTime(rec.CreatedAt), formatTime(rec.UpdatedAt),
	).Scan(&id, &createdAt)
	if err != nil {
		s.logger.Error("failed to upsert dose record", zap.Error(err), zap.String("medication_id", rec.MedicationID))
		return fmt.Errorf("failed to upsert dose record: %w", err)
	}

	rec.ID = id
	if rec.CreatedAt, err = parseTime(createdAt); err != nil {
		s.logger.Error("failed to parse dose record created_at", zap.Error(err), zap.String("dose_record_id", id))
		return fmt.Errorf("failed to parse dose record created_at: %w", err)
	}
	return nil
}

// ListDoseRecords returns a user's records in the range, optionally for one medication
func (s *Store) ListDoseRecords(ctx context.Context, userID string, medicationID *string, dateRange model.DateRange) ([]model.DoseRecord, error) {
	conditions := []string{"user_id = ?"}
	args := []any{userID}
	if medicationID != nil {
		conditions = append(conditions, "medication_id = ?")
		args = append(args, *medicationID)
	}
	if !dateRange.Start.IsZero() {
		conditions = append(conditions, "scheduled_time >= ?")
		args = append(args, formatTime(dateRange.Start))
	}
	if !dateRange.End.IsZero() {
		conditions = append(conditions, "scheduled_time < ?")
		args = append(args, formatTime(dateRange.End))
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, medication_id, scheduled_time, status, taken_at, created_at, updated_at
		FROM dose_records
		WHERE `+strings.Join(conditions, " AND ")+`
		ORDER BY scheduled_time, medication_id`, args...)
	if err != nil {
		s.logger.Error("failed to list dose records", zap.Error(err), zap.String("user_id", userID))
		return nil, fmt.Errorf("failed to list dose records: %w", err)
	}
	defer rows.Close()

	records := []model.DoseRecord{}
	for rows.Next() {
		rec, err := scanDoseRecord(rows)
		if err != nil {
			s.logger.Error("failed to scan dose record", zap.Error(err), zap.String("user_id", userID))
			return nil, fmt.Errorf("failed to scan dose record: %w", err)
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		s.logger.Error("error iterating dose records", zap.Error(err), zap.String("user_id", userID))
		return nil, fmt.Errorf("error iterating dose records: %w", err)
	}
	return records, nil
}

func scanDoseRecord(row rowScanner) (*model.DoseRecord, error) {
	var (
		rec                             model.DoseRecord
		scheduled, createdAt, updatedAt string
		status                          string
		takenAt                         sql.NullString
	)
	err := row.Scan(&rec.ID, &rec.UserID, &rec.MedicationID, &scheduled, &status,
		&takenAt, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	rec.Status = model.DoseStatus(status)
	if rec.ScheduledTime, err = parseTime(scheduled); err != nil {
		return nil, fmt.Errorf("invalid scheduled_time on %s: %w", rec.ID, err)
	}
	if rec.TakenAt, err = parseNullTime(takenAt, parseTime); err != nil {
		return nil, fmt.Errorf("invalid taken_at on %s: %w", rec.ID, err)
	}
	if rec.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("invalid created_at on %s: %w", rec.ID, err)
	}
	if rec.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("invalid updated_at on %s: %w", rec.ID, err)
	}
	return &rec, nil
}

// --- metric samples ---

// UpsertMetricSample stores a sample, replacing any sample for the same user, metric and date
func (s *Store) UpsertMetricSample(ctx context.Context, sample *model.MetricSample) error {
	var id, createdAt string
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO metric_samples (id, user_id, metric, sample_date, value, unit, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, metric, sample_date) DO UPDATE
		SET value = excluded.value, unit = excluded.unit, updated_at = excluded.updated_at
		RETURNING id, created_at`,
		sample.ID, sample.UserID, string(sample.Metric), formatDate(sample.Date), sample.Value,
		sample.Unit, formatTime(sample.CreatedAt), formatTime(sample.UpdatedAt),
	).Scan(&id, &createdAt)
	if err != nil {
		s.logger.Error("failed to upsert metric sample", zap.Error(err), zap.String("user_id", sample.UserID))
		return fmt.Errorf("failed to upsert metric sample: %w", err)
	}

	sample.ID = id
	if sample.CreatedAt, err = parseTime(createdAt); err != nil {
		s.logger.Error("failed to parse metric sample created_at", zap.Error(err), zap.String("metric_sample_id", id))
		return fmt.Errorf("failed to parse metric sample created_at: %w", err)
	}
	return nil
}

// ListMetricSamples returns a user's samples of one metric dated inside the range
func (s *Store) ListMetricSamples(ctx context.Context, userID string, metric model.MetricType, dateRange model.DateRange) ([]model.MetricSample, error) {
	conditions := []string{"user_id = ?", "metric = ?"}
	args := []any{userID, string(metric)}
	if !dateRange.Start.IsZero() {
		conditions = append(conditions, "sample_date >= ?")
		args = append(args, formatDate(dateRange.Start))
	}
	if !dateRange.End.IsZero() {
		conditions = append(conditions, "sample_date < ?")
		args = append(args, formatDate(dateRange.End))
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, metric, sample_date, value, unit, created_at, updated_at
		FROM metric_samples
		WHERE `+strings.Join(conditions, " AND ")+`
		ORDER BY sample_date`, args...)
	if err != nil {
		s.logger.Error("failed to list metric samples", zap.Error(err), zap.String("user_id", userID))
		return nil, fmt.Errorf("failed to list metric samples: %w", err)
	}
	defer rows.Close()

	samples := []model.MetricSample{}
	for rows.Next() {
		sample, err := scanMetricSample(rows)
		if err != nil {
			s.logger.Error("failed to scan metric sample",
				zap.Error(err),
				zap.String("user_id", userID),
				zap.String("metric", string(metric)),
			)
			return nil, fmt.Errorf("failed to scan metric sample: %w", err)
		}
		samples = append(samples, *sample)
	}
	if err := rows.Err(); err != nil {
		s.logger.Error("error iterating metric samples", zap.Error(err), zap.String("user_id", userID))
		return nil, fmt.Errorf("error iterating metric samples: %w", err)
	}
	return samples, nil
}

func scanMetricSample(row rowScanner) (*model.MetricSample, error) {
	var (
		sample               model.MetricSample
		metricName, date     string
		createdAt, updatedAt string
	)
	err := row.Scan(&sample.ID, &sample.UserID, &metricName, &date, &sample.Value,
		&sample.Unit, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	sample.Metric = model.MetricType(metricName)
	if sample.Date, err = parseDate(date); err != nil {
		return nil, fmt.Errorf("invalid sample_date on %s: %w", sample.ID, err)
	}
	if sample.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("invalid created_at on %s: %w", sample.ID, err)
	}
	if sample.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("invalid updated_at on %s: %w", sample.ID, err)
	}
	return &sample, nil
}

// --- correlation results ---

// UpsertCorrelationResult atomically inserts or updates the result under key, keeping
// the original created_at
func (s *Store) UpsertCorrelationResult(ctx context.Context, key model.CorrelationKey, result *model.CorrelationResult) error {
	observations, err := json.Marshal(result.Observations)
	if err != nil {
		s.logger.Error("failed to encode observations", zap.Error(err), zap.String("medication_id", key.MedicationID))
		return fmt.Errorf("failed to encode observations: %w", err)
	}

	var id, createdAt string
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO correlation_results (
			id, user_id, medication_id, metric, correlation_coefficient, impact_direction,
			data_points, confidence_level, observations, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, medication_id, metric) DO UPDATE
		SET correlation_coefficient = excluded.correlation_coefficient,
		    impact_direction = excluded.impact_direction,
		    data_points = excluded.data_points,
		    confidence_level = excluded.confidence_level,
		    observations = excluded.observations,
		    updated_at = excluded.updated_at
		RETURNING id, created_at`,
		result.ID, key.UserID, key.MedicationID, string(key.Metric), result.CorrelationCoefficient,
		string(result.ImpactDirection), result.DataPoints, string(result.ConfidenceLevel),
		string(observations), formatTime(result.CreatedAt), formatTime(result.UpdatedAt),
	).Scan(&id, &createdAt)
	if err != nil {
		s.logger.Error("failed to upsert correlation result",
			zap.Error(err),
			zap.String("user_id", key.UserID),
			zap.String("medication_id", key.MedicationID),
			zap.String("metric", string(key.Metric)),
		)
		return fmt.Errorf("failed to upsert correlation result: %w", err)
	}

	result.ID = id
	result.UserID = key.UserID
	result.MedicationID = key.MedicationID
	result.Metric = key.Metric
	if result.CreatedAt, err = parseTime(createdAt); err != nil {
		s.logger.Error("failed to parse correlation result created_at", zap.Error(err), zap.String("correlation_id", id))
		return fmt.Errorf("failed to parse correlation result created_at: %w", err)
	}
	return nil
}

// ListCorrelationResults returns a user's results with medication names, most recently
// updated first
func (s *Store) ListCorrelationResults(ctx context.Context, userID string) ([]model.CorrelationResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.user_id, c.medication_id, COALESCE(m.name, ''), c.metric,
		       c.correlation_coefficient, c.impact_direction, c.data_points,
		       c.confidence_level, c.observations, c.created_at, c.updated_at
		FROM correlation_results c
		LEFT JOIN medications m ON m.id = c.medication_id
		WHERE c.user_id = ?
		ORDER BY c.updated_at DESC, c.metric`, userID)
	if err != nil {
		s.logger.Error("failed to list correlation results", zap.Error(err), zap.String("user_id", userID))
		return nil, fmt.Errorf("failed to list correlation results: %w", err)
	}
	defer rows.Close()

	results := []model.CorrelationResult{}
	for rows.Next() {
		res, err := scanCorrelationResult(rows)
		if err != nil {
			s.logger.Error("failed to scan correlation result", zap.Error(err), zap.String("user_id", userID))
			return nil, fmt.Errorf("failed to scan correlation result: %w", err)
		}
		results = append(results, *res)
	}
	if err := rows.Err(); err != nil {
		s.logger.Error("error iterating correlation results", zap.Error(err), zap.String("user_id", userID))
		return nil, fmt.Errorf("error iterating correlation results: %w", err)
	}
	return results, nil
}

func scanCorrelationResult(row rowScanner) (*model.CorrelationResult, error) {
	var (
		res                                model.CorrelationResult
		metric, direction, confidence      string
		observations, createdAt, updatedAt string
	)
	err := row.Scan(&res.ID, &res.UserID, &res.MedicationID, &res.MedicationName, &metric,
		&res.CorrelationCoefficient, &direction, &res.DataPoints, &confidence,
		&observations, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	res.Metric = model.MetricType(metric)
	res.ImpactDirection = model.ImpactDirection(direction)
	res.ConfidenceLevel = model.ConfidenceLevel(confidence)
	if err := json.Unmarshal([]byte(observations), &res.Observations); err != nil {
		return nil, fmt.Errorf("failed to decode observations on %s: %w", res.ID, err)
	}
	if res.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("invalid created_at on %s: %w", res.ID, err)
	}
	if res.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("invalid updated_at on %s: %w", res.ID, err)
	}
	return &res, nil
}
