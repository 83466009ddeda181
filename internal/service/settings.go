package service

import (
	"context"
	"time"

	"github.com/vcscsvcscs/medadherence/internal/analytics"
	"github.com/vcscsvcscs/medadherence/internal/audit"
	"github.com/vcscsvcscs/medadherence/pkg/model"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("github.com/vcscsvcscs/medadherence/internal/service")

// Settings carries the engine's tunables
type Settings struct {
	Thresholds          analytics.Thresholds
	DefaultWindowDays   int
	DefaultLookbackDays int
	MaxWindowDays       int
	SupportedMetrics    []model.MetricType
	Location            *time.Location
}

// DefaultSettings returns the production defaults
func DefaultSettings() Settings {
	return Settings{
		Thresholds:          analytics.DefaultThresholds(),
		DefaultWindowDays:   30,
		DefaultLookbackDays: 90,
		MaxWindowDays:       365,
		SupportedMetrics:    []model.MetricType{model.MetricWeight},
		Location:            time.UTC,
	}
}

// clampDays applies the default for non-positive values and caps at the configured maximum
func (s Settings) clampDays(days, def int) int {
	if days <= 0 {
		days = def
	}
	if s.MaxWindowDays > 0 && days > s.MaxWindowDays {
		days = s.MaxWindowDays
	}
	return days
}

func (s Settings) location(loc *time.Location) *time.Location {
	if loc != nil {
		return loc
	}
	if s.Location != nil {
		return s.Location
	}
	return time.UTC
}

func (s Settings) supports(metric model.MetricType) bool {
	for _, m := range s.SupportedMetrics {
		if m == metric {
			return true
		}
	}
	return false
}

// endSpan records err on the span before ending it
func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// recordAudit writes an audit entry when a recorder is configured. Failures are logged only.
func recordAudit(ctx context.Context, recorder AuditRecorder, logger *zap.Logger, entry audit.Entry) {
	if recorder == nil {
		return
	}
	if err := recorder.Log(ctx, entry); err != nil {
		logger.Warn("failed to write audit entry",
			zap.Error(err),
			zap.String("user_id", entry.UserID),
			zap.String("action", string(entry.Action)),
			zap.String("resource", string(entry.Resource)),
			zap.String("resource_id", entry.ResourceID),
		)
	}
}
