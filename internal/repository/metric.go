package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vcscsvcscs/medadherence/pkg/model"
	"go.uber.org/zap"
)

// dateLayout renders a range bound as the calendar date of its own location
const dateLayout = "2006-01-02"

// MetricRepository manages body metric samples
type MetricRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

// NewMetricRepository creates a new MetricRepository
func NewMetricRepository(db *pgxpool.Pool, logger *zap.Logger) *MetricRepository {
	return &MetricRepository{
		db:     db,
		logger: logger,
	}
}

// UpsertMetricSample stores a sample, overwriting any earlier sample for the same user,
// metric and date
func (r *MetricRepository) UpsertMetricSample(ctx context.Context, sample *model.MetricSample) error {
	query := `
		INSERT INTO metric_samples (
			id, user_id, metric, sample_date, value, unit, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id, metric, sample_date) DO UPDATE
		SET value = EXCLUDED.value,
		    unit = EXCLUDED.unit,
		    updated_at = EXCLUDED.updated_at
		RETURNING id, created_at
	`

	err := r.db.QueryRow(ctx, query,
		sample.ID,
		sample.UserID,
		sample.Metric,
		sample.Date,
		sample.Value,
		sample.Unit,
		sample.CreatedAt,
		sample.UpdatedAt,
	).Scan(&sample.ID, &sample.CreatedAt)

	if err != nil {
		r.logger.Error("failed to upsert metric sample",
			zap.Error(err),
			zap.String("user_id", sample.UserID),
			zap.String("metric", string(sample.Metric)),
		)
		return fmt.Errorf("failed to upsert metric sample: %w", err)
	}

	return nil
}

// ListMetricSamples retrieves a user's samples of one metric whose date falls in the range,
// ordered by date
func (r *MetricRepository) ListMetricSamples(ctx context.Context, userID string, metric model.MetricType, dateRange model.DateRange) ([]model.MetricSample, error) {
	var where strings.Builder
	args := []any{userID, metric}
	where.WriteString("user_id = $1 AND metric = $2")

	if !dateRange.Start.IsZero() {
		args = append(args, dateRange.Start.Format(dateLayout))
		fmt.Fprintf(&where, " AND sample_date >= $%d::date", len(args))
	}
	if !dateRange.End.IsZero() {
		args = append(args, dateRange.End.Format(dateLayout))
		fmt.Fprintf(&where, " AND sample_date < $%d::date", len(args))
	}

	query := `
		SELECT id, user_id, metric, sample_date, value, unit, created_at, updated_at
		FROM metric_samples
		WHERE ` + where.String() + `
		ORDER BY sample_date
	`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("failed to list metric samples",
			zap.Error(err),
			zap.String("user_id", userID),
			zap.String("metric", string(metric)),
		)
		return nil, fmt.Errorf("failed to list metric samples: %w", err)
	}
	defer rows.Close()

	samples := []model.MetricSample{}
	for rows.Next() {
		var s model.MetricSample
		err := rows.Scan(
			&s.ID,
			&s.UserID,
			&s.Metric,
			&s.Date,
			&s.Value,
			&s.Unit,
			&s.CreatedAt,
			&s.UpdatedAt,
		)
		if err != nil {
			r.logger.Error("failed to scan metric sample", zap.Error(err))
			return nil, fmt.Errorf("failed to scan metric sample: %w", err)
		}
		samples = append(samples, s)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("error iterating metric samples", zap.Error(err))
		return nil, fmt.Errorf("error iterating metric samples: %w", err)
	}

	return samples, nil
}
