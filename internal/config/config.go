package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/vcscsvcscs/medadherence/internal/analytics"
	"github.com/vcscsvcscs/medadherence/internal/observability"
	"github.com/vcscsvcscs/medadherence/pkg/model"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Analytics AnalyticsConfig
	Analysis  AnalysisConfig
	Tracing   TracingConfig
	Logging   LoggingConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port            string
	Environment     string
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	Driver          string // postgres or sqlite
	URL             string
	SQLitePath      string
	MaxConns        int32
	MinConns        int32
	ConnMaxLifetime time.Duration
	AutoMigrate     bool
}

// AnalyticsConfig holds the adherence and correlation tunables
type AnalyticsConfig struct {
	StreakPraiseDays          int
	LowAdherencePercent       int
	LowAdherenceMinDoses      int
	TimePatternMinDoses       int
	TimePatternMissedPercent  int
	TimePatternGapPercent     int
	TimePatternWarningPercent int

	MinCorrelationPoints     int
	MediumConfidencePoints   int
	MediumConfidenceStrength float64
	HighConfidencePoints     int
	HighConfidenceStrength   float64
	WeakStrength             float64

	DefaultWindowDays   int
	DefaultLookbackDays int
	MaxWindowDays       int
	SupportedMetrics    []string
	TimeZone            string
}

// AnalysisConfig controls the batch correlation runner
type AnalysisConfig struct {
	Concurrency int
	Interval    time.Duration // 0 disables the periodic pass
}

// TracingConfig holds OpenTelemetry configuration
type TracingConfig struct {
	Enabled     bool
	Exporter    string
	Endpoint    string
	Insecure    bool
	SampleRatio float64
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string // json or console
}

// Load reads configuration from environment variables and config files
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("medadherence")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/medadherence")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	th := analytics.DefaultThresholds()

	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.shutdowntimeout", 30*time.Second)

	// Database defaults
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.sqlitepath", "medadherence.db")
	v.SetDefault("database.maxconns", 25)
	v.SetDefault("database.minconns", 2)
	v.SetDefault("database.connmaxlifetime", 5*time.Minute)
	v.SetDefault("database.automigrate", true)

	// Analytics defaults
	v.SetDefault("analytics.streakpraisedays", th.StreakPraiseDays)
	v.SetDefault("analytics.lowadherencepercent", th.LowAdherencePercent)
	v.SetDefault("analytics.lowadherencemindoses", th.LowAdherenceMinDoses)
	v.SetDefault("analytics.timepatternmindoses", th.TimePatternMinDoses)
	v.SetDefault("analytics.timepatternmissedpercent", th.TimePatternMissedPercent)
	v.SetDefault("analytics.timepatterngappercent", th.TimePatternGapPercent)
	v.SetDefault("analytics.timepatternwarningpercent", th.TimePatternWarningPercent)
	v.SetDefault("analytics.mincorrelationpoints", th.MinCorrelationPoints)
	v.SetDefault("analytics.mediumconfidencepoints", th.MediumConfidencePoints)
	v.SetDefault("analytics.mediumconfidencestrength", th.MediumConfidenceStrength)
	v.SetDefault("analytics.highconfidencepoints", th.HighConfidencePoints)
	v.SetDefault("analytics.highconfidencestrength", th.HighConfidenceStrength)
	v.SetDefault("analytics.weakstrength", th.WeakStrength)
	v.SetDefault("analytics.defaultwindowdays", 30)
	v.SetDefault("analytics.defaultlookbackdays", 90)
	v.SetDefault("analytics.maxwindowdays", 365)
	v.SetDefault("analytics.supportedmetrics", []string{string(model.MetricWeight)})
	v.SetDefault("analytics.timezone", "UTC")

	// Analysis defaults
	v.SetDefault("analysis.concurrency", 4)
	v.SetDefault("analysis.interval", 0)

	// Tracing defaults
	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.exporter", "stdout")
	v.SetDefault("tracing.sampleratio", 0.1)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// bindEnvVars binds environment variables to config keys
func bindEnvVars(v *viper.Viper) {
	// Server
	v.BindEnv("server.port", "PORT")
	v.BindEnv("server.environment", "ENV", "ENVIRONMENT")

	// Database
	v.BindEnv("database.driver", "DATABASE_DRIVER")
	v.BindEnv("database.url", "DATABASE_URL")
	v.BindEnv("database.sqlitepath", "SQLITE_PATH")

	// Analytics
	v.BindEnv("analytics.timezone", "TZ_NAME")
	v.BindEnv("analytics.supportedmetrics", "CORRELATION_METRICS")

	// Analysis
	v.BindEnv("analysis.concurrency", "ANALYSIS_CONCURRENCY")
	v.BindEnv("analysis.interval", "ANALYSIS_INTERVAL")

	// Tracing
	v.BindEnv("tracing.enabled", "OTEL_ENABLED")
	v.BindEnv("tracing.exporter", "OTEL_EXPORTER")
	v.BindEnv("tracing.endpoint", "OTEL_EXPORTER_OTLP_ENDPOINT")
	v.BindEnv("tracing.insecure", "OTEL_EXPORTER_OTLP_INSECURE")
	v.BindEnv("tracing.sampleratio", "OTEL_SAMPLER_RATIO")

	// Logging
	v.BindEnv("logging.level", "LOG_LEVEL")
	v.BindEnv("logging.format", "LOG_FORMAT")
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres":
		if c.Database.URL == "" {
			return fmt.Errorf("database.url is required for the postgres driver")
		}
	case "sqlite":
		if c.Database.SQLitePath == "" {
			return fmt.Errorf("database.sqlitepath is required for the sqlite driver")
		}
	default:
		return fmt.Errorf("unsupported database driver: %q", c.Database.Driver)
	}

	if c.Analytics.MinCorrelationPoints < 2 {
		return fmt.Errorf("analytics.mincorrelationpoints must be at least 2")
	}
	if c.Analytics.MaxWindowDays < 1 {
		return fmt.Errorf("analytics.maxwindowdays must be positive")
	}
	for _, m := range c.Analytics.SupportedMetrics {
		if !model.MetricType(m).Recordable() {
			return fmt.Errorf("unsupported correlation metric: %q", m)
		}
	}
	if _, err := time.LoadLocation(c.Analytics.TimeZone); err != nil {
		return fmt.Errorf("invalid analytics.timezone: %w", err)
	}

	if c.Analysis.Concurrency < 1 {
		return fmt.Errorf("analysis.concurrency must be at least 1")
	}
	if c.Analysis.Interval < 0 {
		return fmt.Errorf("analysis.interval must not be negative")
	}

	return nil
}

// Thresholds returns the engine cutoffs
func (a AnalyticsConfig) Thresholds() analytics.Thresholds {
	th := analytics.DefaultThresholds()
	th.StreakPraiseDays = a.StreakPraiseDays
	th.LowAdherencePercent = a.LowAdherencePercent
	th.LowAdherenceMinDoses = a.LowAdherenceMinDoses
	th.TimePatternMinDoses = a.TimePatternMinDoses
	th.TimePatternMissedPercent = a.TimePatternMissedPercent
	th.TimePatternGapPercent = a.TimePatternGapPercent
	th.TimePatternWarningPercent = a.TimePatternWarningPercent
	th.MinCorrelationPoints = a.MinCorrelationPoints
	th.MediumConfidencePoints = a.MediumConfidencePoints
	th.MediumConfidenceStrength = a.MediumConfidenceStrength
	th.HighConfidencePoints = a.HighConfidencePoints
	th.HighConfidenceStrength = a.HighConfidenceStrength
	th.WeakStrength = a.WeakStrength
	return th
}

// Metrics returns the correlation-supported metrics
func (a AnalyticsConfig) Metrics() []model.MetricType {
	metrics := make([]model.MetricType, 0, len(a.SupportedMetrics))
	for _, m := range a.SupportedMetrics {
		metrics = append(metrics, model.MetricType(strings.TrimSpace(m)))
	}
	return metrics
}

// Location resolves the default time zone. Validate has already checked it.
func (a AnalyticsConfig) Location() *time.Location {
	loc, err := time.LoadLocation(a.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Observability converts the tracing section for the observability package
func (c *Config) Observability(version string) observability.TracingConfig {
	return observability.TracingConfig{
		Enabled:     c.Tracing.Enabled,
		Exporter:    c.Tracing.Exporter,
		Endpoint:    c.Tracing.Endpoint,
		Insecure:    c.Tracing.Insecure,
		SampleRatio: c.Tracing.SampleRatio,
		ServiceName: "medadherence",
		Environment: c.Server.Environment,
		Version:     version,
	}
}
