// Package audit records who changed which medication data, and from where.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Action is what happened to a resource
type Action string

const (
	ActionCreate     Action = "create"
	ActionUpdate     Action = "update"
	ActionDeactivate Action = "deactivate"
	ActionDelete     Action = "delete"
	ActionLogDose    Action = "log_dose"
	ActionAnalyze    Action = "analyze"
)

// Resource is the kind of record an entry refers to
type Resource string

const (
	ResourceMedication   Resource = "medication"
	ResourceDoseRecord   Resource = "dose_record"
	ResourceCorrelations Resource = "correlation_result"
)

// Entry is one row of the audit trail
type Entry struct {
	ID         string
	UserID     string
	Action     Action
	Resource   Resource
	ResourceID string
	At         time.Time
	ClientIP   string
	UserAgent  string
	Details    map[string]any
}

type clientKey struct{}

type client struct {
	ip        string
	userAgent string
}

// WithClient attaches the caller's address and user agent to ctx
func WithClient(ctx context.Context, ipAddress, userAgent string) context.Context {
	return context.WithValue(ctx, clientKey{}, client{ip: ipAddress, userAgent: userAgent})
}

// ClientFrom returns the caller details attached by WithClient
func ClientFrom(ctx context.Context) (ipAddress, userAgent string, ok bool) {
	c, ok := ctx.Value(clientKey{}).(client)
	return c.ip, c.userAgent, ok
}

// withDefaults stamps the time and fills client details from ctx
func (e Entry) withDefaults(ctx context.Context, now time.Time) Entry {
	if e.At.IsZero() {
		e.At = now
	}
	if ip, ua, ok := ClientFrom(ctx); ok {
		if e.ClientIP == "" {
			e.ClientIP = ip
		}
		if e.UserAgent == "" {
			e.UserAgent = ua
		}
	}
	return e
}

// Logger writes entries to the audit_logs table
type Logger struct {
	db     *pgxpool.Pool
	logger *zap.Logger
	now    func() time.Time
}

// NewLogger creates a new audit logger
func NewLogger(db *pgxpool.Pool, logger *zap.Logger) *Logger {
	return &Logger{
		db:     db,
		logger: logger,
		now:    time.Now,
	}
}

// Log appends an entry to the trail
func (l *Logger) Log(ctx context.Context, entry Entry) error {
	entry = entry.withDefaults(ctx, l.now())

	details, err := encodeDetails(entry.Details)
	if err != nil {
		return err
	}

	_, err = l.db.Exec(ctx, `
		INSERT INTO audit_logs (
			user_id, operation_type, resource_type, resource_id,
			timestamp, ip_address, user_agent, additional_data
		) VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), NULLIF($7, ''), $8)
	`,
		entry.UserID, entry.Action, entry.Resource, entry.ResourceID,
		entry.At, entry.ClientIP, entry.UserAgent, details,
	)
	if err != nil {
		l.logger.Error("failed to write audit entry",
			zap.Error(err),
			zap.String("user_id", entry.UserID),
			zap.String("action", string(entry.Action)),
			zap.String("resource", string(entry.Resource)),
			zap.String("resource_id", entry.ResourceID),
		)
		return fmt.Errorf("failed to write audit entry: %w", err)
	}

	l.logger.Debug("audit entry written",
		zap.String("user_id", entry.UserID),
		zap.String("action", string(entry.Action)),
		zap.String("resource", string(entry.Resource)),
		zap.String("resource_id", entry.ResourceID),
	)
	return nil
}

// Recent returns a user's latest entries, newest first
func (l *Logger) Recent(ctx context.Context, userID string, limit int) ([]Entry, error) {
	rows, err := l.db.Query(ctx, `
		SELECT id, user_id, operation_type, resource_type, resource_id,
		       timestamp, COALESCE(ip_address, ''), COALESCE(user_agent, ''), additional_data
		FROM audit_logs
		WHERE user_id = $1
		ORDER BY timestamp DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		l.logger.Error("failed to query audit entries", zap.Error(err), zap.String("user_id", userID))
		return nil, fmt.Errorf("failed to query audit entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var details []byte
		if err := rows.Scan(&e.ID, &e.UserID, &e.Action, &e.Resource, &e.ResourceID,
			&e.At, &e.ClientIP, &e.UserAgent, &details); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		if e.Details, err = decodeDetails(details); err != nil {
			l.logger.Warn("undecodable audit details", zap.Error(err), zap.String("id", e.ID))
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read audit entries: %w", err)
	}

	return entries, nil
}

func encodeDetails(details map[string]any) ([]byte, error) {
	if len(details) == 0 {
		return nil, nil
	}
	raw, err := json.Marshal(details)
	if err != nil {
		return nil, fmt.Errorf("failed to encode audit details: %w", err)
	}
	return raw, nil
}

func decodeDetails(raw []byte) (map[string]any, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var details map[string]any
	if err := json.Unmarshal(raw, &details); err != nil {
		return nil, err
	}
	return details, nil
}
