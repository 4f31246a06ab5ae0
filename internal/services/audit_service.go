package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/ironvault/ironvault/internal/auth"
	"github.com/ironvault/ironvault/internal/database"
	"github.com/ironvault/ironvault/internal/models"
	pkglogger "github.com/ironvault/ironvault/pkg/logger"
)

// AuditLogRepository defines the interface for the persistent audit trail
type AuditLogRepository interface {
	Insert(ctx context.Context, q database.Querier, entry *models.AuditLog) error
	Record(ctx context.Context, entry *models.AuditLog) error
	List(ctx context.Context, limit int) ([]*models.AuditLog, error)
	DeleteByUserID(ctx context.Context, q database.Querier, userID uuid.UUID) error
}

// AuditService records security events that happen outside any primary
// operation, such as role check failures in the web layer.
type AuditService struct {
	audits      AuditLogRepository
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
}

// NewAuditService creates a new AuditService
func NewAuditService(audits AuditLogRepository, logger *slog.Logger, auditLogger *pkglogger.AuditLogger) *AuditService {
	return &AuditService{
		audits:      audits,
		logger:      logger,
		auditLogger: auditLogger,
	}
}

// RecordUnauthorized writes a Failed audit entry for a denied authorization
// attempt. Best-effort: a storage failure is logged and swallowed so the
// denial response is never affected.
func (s *AuditService) RecordUnauthorized(ctx context.Context, actor auth.Actor, ip string) {
	actorID := actor.ID
	entry := &models.AuditLog{
		UserID:     &actorID,
		UserName:   actor.Name,
		RoleName:   string(actor.Role),
		ActionType: models.AuditActionUnauthorized,
		Status:     models.AuditStatusFailed,
		Message:    "Role not permitted for requested resource",
		IPAddress:  ip,
	}
	recordFailureAudit(ctx, s.audits, s.auditLogger, entry)
}

// auditEvent projects a persistent audit entry onto the operational log channel
func auditEvent(entry *models.AuditLog) pkglogger.AuditEvent {
	event := pkglogger.AuditEvent{
		ActionType: entry.ActionType,
		ActorName:  entry.UserName,
		Status:     entry.Status,
		Message:    entry.Message,
		IPAddress:  entry.IPAddress,
	}
	if entry.UserID != nil {
		event.ActorID = entry.UserID.String()
	}
	return event
}

// recordFailureAudit writes a Failed audit entry in its own transaction.
// Failure entries follow a rolled-back primary transaction, so they cannot
// ride inside it; a failure of the audit write itself is logged and swallowed
// so it never masks the primary operation's outcome.
func recordFailureAudit(ctx context.Context, audits AuditLogRepository, auditLogger *pkglogger.AuditLogger, entry *models.AuditLog) {
	entry.Status = models.AuditStatusFailed
	auditLogger.LogAction(auditEvent(entry))
	if err := audits.Record(ctx, entry); err != nil {
		auditLogger.LogAuditWriteFailure(auditEvent(entry), err)
	}
}

// failureMessage maps an operation error onto the single human-readable
// status message stored with the audit entry. Internal detail never leaks.
func failureMessage(err error) string {
	switch {
	case errors.Is(err, models.ErrInvalidCredentials):
		return "Invalid credentials"
	case errors.Is(err, models.ErrInsufficientFunds):
		return "Insufficient funds"
	case errors.Is(err, models.ErrSelfTransfer):
		return "Cannot transfer to the same account"
	case errors.Is(err, models.ErrReceiverNotFound):
		return "Receiver account not found"
	case errors.Is(err, models.ErrAccountNotFound):
		return "Account not found"
	case errors.Is(err, models.ErrForbidden):
		return "Operation not permitted"
	case errors.Is(err, models.ErrNotFound):
		return "Resource not found"
	default:
		return "Operation failed"
	}
}
