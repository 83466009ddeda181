package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vcscsvcscs/medadherence/pkg/model"
	"go.uber.org/zap"
)

// CorrelationRepository persists correlation analysis results
type CorrelationRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

// NewCorrelationRepository creates a new CorrelationRepository
func NewCorrelationRepository(db *pgxpool.Pool, logger *zap.Logger) *CorrelationRepository {
	return &CorrelationRepository{
		db:     db,
		logger: logger,
	}
}

// UpsertCorrelationResult atomically inserts or updates the result stored under key.
// On conflict created_at is preserved and every other column is replaced. The stored
// id and created_at are written back into result.
func (r *CorrelationRepository) UpsertCorrelationResult(ctx context.Context, key model.CorrelationKey, result *model.CorrelationResult) error {
	observations, err := json.Marshal(result.Observations)
	if err != nil {
		return fmt.Errorf("failed to encode observations: %w", err)
	}

	query := `
		INSERT INTO correlation_results (
			id, user_id, medication_id, metric,
			correlation_coefficient, impact_direction, data_points,
			confidence_level, observations, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (user_id, medication_id, metric) DO UPDATE
		SET correlation_coefficient = EXCLUDED.correlation_coefficient,
		    impact_direction = EXCLUDED.impact_direction,
		    data_points = EXCLUDED.data_points,
		    confidence_level = EXCLUDED.confidence_level,
		    observations = EXCLUDED.observations,
		    updated_at = EXCLUDED.updated_at
		RETURNING id, created_at
	`

	err = r.db.QueryRow(ctx, query,
		result.ID,
		key.UserID,
		key.MedicationID,
		key.Metric,
		result.CorrelationCoefficient,
		result.ImpactDirection,
		result.DataPoints,
		result.ConfidenceLevel,
		observations,
		result.CreatedAt,
		result.UpdatedAt,
	).Scan(&result.ID, &result.CreatedAt)

	if err != nil {
		r.logger.Error("failed to upsert correlation result",
			zap.Error(err),
			zap.String("user_id", key.UserID),
			zap.String("medication_id", key.MedicationID),
			zap.String("metric", string(key.Metric)),
		)
		return fmt.Errorf("failed to upsert correlation result: %w", err)
	}

	result.UserID = key.UserID
	result.MedicationID = key.MedicationID
	result.Metric = key.Metric
	return nil
}

// ListCorrelationResults retrieves a user's persisted results with the medication's
// display name, most recently updated first
func (r *CorrelationRepository) ListCorrelationResults(ctx context.Context, userID string) ([]model.CorrelationResult, error) {
	query := `
		SELECT c.id, c.user_id, c.medication_id, COALESCE(m.name, ''), c.metric,
		       c.correlation_coefficient, c.impact_direction, c.data_points,
		       c.confidence_level, c.observations, c.created_at, c.updated_at
		FROM correlation_results c
		LEFT JOIN medications m ON m.id = c.medication_id
		WHERE c.user_id = $1
		ORDER BY c.updated_at DESC, c.metric
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		r.logger.Error("failed to list correlation results", zap.Error(err), zap.String("user_id", userID))
		return nil, fmt.Errorf("failed to list correlation results: %w", err)
	}
	defer rows.Close()

	results := []model.CorrelationResult{}
	for rows.Next() {
		var res model.CorrelationResult
		var observations []byte
		err := rows.Scan(
			&res.ID,
			&res.UserID,
			&res.MedicationID,
			&res.MedicationName,
			&res.Metric,
			&res.CorrelationCoefficient,
			&res.ImpactDirection,
			&res.DataPoints,
			&res.ConfidenceLevel,
			&observations,
			&res.CreatedAt,
			&res.UpdatedAt,
		)
		if err != nil {
			r.logger.Error("failed to scan correlation result", zap.Error(err))
			return nil, fmt.Errorf("failed to scan correlation result: %w", err)
		}
		if err := json.Unmarshal(observations, &res.Observations); err != nil {
			return nil, fmt.Errorf("failed to decode observations: %w", err)
		}
		results = append(results, res)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("error iterating correlation results", zap.Error(err))
		return nil, fmt.Errorf("error iterating correlation results: %w", err)
	}

	return results, nil
}
