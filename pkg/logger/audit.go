package logger

import (
	"context"
	"log/slog"
	"time"
)

// AuditEvent mirrors a persistent audit entry for the operational log channel.
type AuditEvent struct {
	ActionType string
	ActorID    string
	ActorName  string
	Status     string
	Message    string
	IPAddress  string
}

// AuditLogger is the operational side channel for security events. The
// durable audit trail lives in the database; this logger duplicates entries
// into structured logs and, more importantly, is the destination for audit
// write failures that must not abort their primary operation.
type AuditLogger struct {
	logger *slog.Logger
}

// NewAuditLogger creates a new audit logger
func NewAuditLogger(logger *slog.Logger) *AuditLogger {
	return &AuditLogger{
		logger: logger,
	}
}

// LogAction records a security-relevant action attempt.
func (al *AuditLogger) LogAction(event AuditEvent) {
	attrs := []slog.Attr{
		slog.String("audit_type", "action"),
		slog.String("action_type", event.ActionType),
		slog.String("status", event.Status),
		slog.String("timestamp", time.Now().UTC().Format(time.RFC3339)),
	}

	if event.ActorID != "" {
		attrs = append(attrs, slog.String("actor_id", event.ActorID))
	}
	if event.IPAddress != "" {
		attrs = append(attrs, slog.String("ip_address", event.IPAddress))
	}
	if event.Message != "" {
		attrs = append(attrs, slog.String("message", event.Message))
	}

	level := slog.LevelInfo
	if event.Status == "Failed" {
		level = slog.LevelWarn
	}
	al.logger.LogAttrs(context.Background(), level, "audit", attrs...)
}

// LogAuditWriteFailure records that a persistent audit entry could not be
// written. The primary operation's outcome is never affected by this.
func (al *AuditLogger) LogAuditWriteFailure(event AuditEvent, err error) {
	al.logger.LogAttrs(context.Background(), slog.LevelError, "audit_write_failed",
		slog.String("action_type", event.ActionType),
		slog.String("status", event.Status),
		slog.String("actor_id", event.ActorID),
		slog.Any("error", err),
	)
}
