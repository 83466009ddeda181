package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vcscsvcscs/medadherence/internal/audit"
	"github.com/vcscsvcscs/medadherence/internal/config"
	"github.com/vcscsvcscs/medadherence/internal/database"
	"github.com/vcscsvcscs/medadherence/internal/handler"
	"github.com/vcscsvcscs/medadherence/internal/repository"
	"github.com/vcscsvcscs/medadherence/internal/repository/sqlite"
	"github.com/vcscsvcscs/medadherence/internal/service"
	"go.uber.org/zap"
)

// backend bundles the stores of the configured driver
type backend struct {
	meds    service.MedicationStore
	doses   service.DoseRecordStore
	metrics service.MetricSampleStore
	results service.CorrelationStore
	users   service.UserLister
	pinger  handler.Pinger
	audit   service.AuditRecorder // nil on sqlite
	close   func()
}

func openBackend(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*backend, error) {
	switch cfg.Driver {
	case "sqlite":
		store, err := sqlite.Open(ctx, cfg.SQLitePath, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		logger.Info("Using sqlite store", zap.String("path", cfg.SQLitePath))
		return &backend{
			meds:    store,
			doses:   store,
			metrics: store,
			results: store,
			users:   store,
			pinger:  store,
			close:   func() { store.Close() },
		}, nil

	case "postgres":
		if cfg.AutoMigrate {
			if err := migratePostgres(ctx, cfg.URL, logger); err != nil {
				return nil, err
			}
		}

		pool, err := newPool(ctx, cfg)
		if err != nil {
			return nil, err
		}
		logger.Info("Successfully connected to database")

		meds := repository.NewMedicationRepository(pool, logger)
		return &backend{
			meds:    meds,
			doses:   repository.NewDoseRecordRepository(pool, logger),
			metrics: repository.NewMetricRepository(pool, logger),
			results: repository.NewCorrelationRepository(pool, logger),
			users:   meds,
			pinger:  pool,
			audit:   audit.NewLogger(pool, logger),
			close:   pool.Close,
		}, nil

	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func newPool(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.ConnMaxLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.ConnMaxLifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return pool, nil
}

func migratePostgres(ctx context.Context, url string, logger *zap.Logger) error {
	db, err := database.OpenPostgres(ctx, url)
	if err != nil {
		return err
	}
	defer db.Close()

	applied, err := database.Migrate(ctx, db, logger)
	if err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	logger.Info("Database schema up to date", zap.Int("applied", applied))
	return nil
}

// services builds the service layer over a backend
type services struct {
	medication  *service.MedicationService
	adherence   *service.AdherenceService
	metric      *service.MetricService
	correlation *service.CorrelationService
}

func newServices(b *backend, cfg *config.Config, logger *zap.Logger) services {
	settings := service.Settings{
		Thresholds:          cfg.Analytics.Thresholds(),
		DefaultWindowDays:   cfg.Analytics.DefaultWindowDays,
		DefaultLookbackDays: cfg.Analytics.DefaultLookbackDays,
		MaxWindowDays:       cfg.Analytics.MaxWindowDays,
		SupportedMetrics:    cfg.Analytics.Metrics(),
		Location:            cfg.Analytics.Location(),
	}

	svc := services{
		medication:  service.NewMedicationService(b.meds, b.doses, settings.Location, logger),
		adherence:   service.NewAdherenceService(b.meds, b.doses, settings, logger),
		metric:      service.NewMetricService(b.metrics, settings, logger),
		correlation: service.NewCorrelationService(b.meds, b.doses, b.metrics, b.results, settings, logger),
	}
	if b.audit != nil {
		svc.medication = svc.medication.WithAudit(b.audit)
		svc.correlation = svc.correlation.WithAudit(b.audit)
	}
	return svc
}
