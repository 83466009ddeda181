package database

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"
)

// Migration is one forward-only schema change
type Migration struct {
	Version int
	Name    string
	SQL     string
}

// Migrations is the ordered Postgres schema history
var Migrations = []Migration{
	{
		Version: 1,
		Name:    "create_medications",
		SQL: `
			CREATE TABLE IF NOT EXISTS medications (
				id UUID PRIMARY KEY,
				user_id UUID NOT NULL,
				name VARCHAR(255) NOT NULL,
				dosage VARCHAR(100) NOT NULL,
				schedule JSONB NOT NULL,
				start_date DATE NOT NULL,
				end_date DATE,
				notes TEXT,
				active BOOLEAN NOT NULL DEFAULT TRUE,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			);
			CREATE INDEX IF NOT EXISTS idx_medications_user_active ON medications(user_id, active);
		`,
	},
	{
		Version: 2,
		Name:    "create_dose_records",
		SQL: `
			CREATE TABLE IF NOT EXISTS dose_records (
				id UUID PRIMARY KEY,
				user_id UUID NOT NULL,
				medication_id UUID NOT NULL REFERENCES medications(id) ON DELETE CASCADE,
				scheduled_time TIMESTAMPTZ NOT NULL,
				status VARCHAR(16) NOT NULL CHECK (status IN ('pending', 'taken', 'skipped', 'missed')),
				taken_at TIMESTAMPTZ,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				UNIQUE (medication_id, scheduled_time)
			);
			CREATE INDEX IF NOT EXISTS idx_dose_records_user_time ON dose_records(user_id, scheduled_time);
		`,
	},
	{
		Version: 3,
		Name:    "create_metric_samples",
		SQL: `
			CREATE TABLE IF NOT EXISTS metric_samples (
				id UUID PRIMARY KEY,
				user_id UUID NOT NULL,
				metric VARCHAR(64) NOT NULL,
				sample_date DATE NOT NULL,
				value DOUBLE PRECISION NOT NULL,
				unit VARCHAR(32) NOT NULL DEFAULT '',
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				UNIQUE (user_id, metric, sample_date)
			);
		`,
	},
	{
		Version: 4,
		Name:    "create_correlation_results",
		SQL: `
			CREATE TABLE IF NOT EXISTS correlation_results (
				id UUID PRIMARY KEY,
				user_id UUID NOT NULL,
				medication_id UUID NOT NULL REFERENCES medications(id) ON DELETE CASCADE,
				metric VARCHAR(64) NOT NULL,
				correlation_coefficient DOUBLE PRECISION NOT NULL
					CHECK (correlation_coefficient BETWEEN -1 AND 1),
				impact_direction VARCHAR(16) NOT NULL,
				data_points INTEGER NOT NULL,
				confidence_level VARCHAR(16) NOT NULL,
				observations JSONB NOT NULL DEFAULT '[]',
				created_at TIMESTAMPTZ NOT NULL,
				updated_at TIMESTAMPTZ NOT NULL,
				UNIQUE (user_id, medication_id, metric)
			);
		`,
	},
	{
		Version: 5,
		Name:    "create_audit_logs",
		SQL: `
			CREATE TABLE IF NOT EXISTS audit_logs (
				id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
				user_id UUID NOT NULL,
				operation_type VARCHAR(16) NOT NULL,
				resource_type VARCHAR(64) NOT NULL,
				resource_id VARCHAR(255) NOT NULL,
				timestamp TIMESTAMPTZ NOT NULL,
				ip_address VARCHAR(64),
				user_agent TEXT,
				additional_data JSONB
			);
			CREATE INDEX IF NOT EXISTS idx_audit_logs_user ON audit_logs(user_id, timestamp DESC);
		`,
	},
}

// Migrate applies every migration not yet recorded in schema_migrations, each in its own
// transaction. It returns the number of migrations applied.
func Migrate(ctx context.Context, db *sql.DB, logger *zap.Logger) (int, error) {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to create schema_migrations: %w", err)
	}

	applied, err := appliedVersions(ctx, db)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, m := range Migrations {
		if applied[m.Version] {
			continue
		}
		if err := apply(ctx, db, m); err != nil {
			logger.Error("migration failed",
				zap.Error(err),
				zap.Int("version", m.Version),
				zap.String("name", m.Name),
			)
			return count, err
		}
		logger.Info("migration applied",
			zap.Int("version", m.Version),
			zap.String("name", m.Name),
		)
		count++
	}

	return count, nil
}

func appliedVersions(ctx context.Context, db *sql.DB) (map[int]bool, error) {
	rows, err := db.QueryContext(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("failed to read applied migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[int]bool)
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("failed to scan migration version: %w", err)
		}
		applied[v] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating migrations: %w", err)
	}
	return applied, nil
}

func apply(ctx context.Context, db *sql.DB, m Migration) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, m.SQL); err != nil {
		return fmt.Errorf("failed to apply migration %d (%s): %w", m.Version, m.Name, err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO schema_migrations (version, name) VALUES ($1, $2)`, m.Version, m.Name); err != nil {
		return fmt.Errorf("failed to record migration %d: %w", m.Version, err)
	}

	return tx.Commit()
}
