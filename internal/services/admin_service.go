package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/ironvault/ironvault/internal/auth"
	"github.com/ironvault/ironvault/internal/database"
	"github.com/ironvault/ironvault/internal/models"
	pkglogger "github.com/ironvault/ironvault/pkg/logger"
)

const defaultAuditLogLimit = 50

// AdminService serves the privileged Admin and Manager operations
type AdminService struct {
	db           Store
	users        UserRepository
	accounts     AccountRepository
	transactions TransactionRepository
	audits       AuditLogRepository
	logger       *slog.Logger
	auditLogger  *pkglogger.AuditLogger
}

// NewAdminService creates a new AdminService
func NewAdminService(db Store, users UserRepository, accounts AccountRepository, transactions TransactionRepository, audits AuditLogRepository, logger *slog.Logger, auditLogger *pkglogger.AuditLogger) *AdminService {
	return &AdminService{
		db:           db,
		users:        users,
		accounts:     accounts,
		transactions: transactions,
		audits:       audits,
		logger:       logger,
		auditLogger:  auditLogger,
	}
}

// ListAuditLogs returns the most recent audit entries. A non-positive limit
// falls back to the default page size.
func (s *AdminService) ListAuditLogs(ctx context.Context, actor auth.Actor, limit int) ([]*models.AuditLog, error) {
	if !auth.CanPerform(actor.Role, auth.ActionViewAuditLogs) {
		return nil, models.ErrForbidden
	}

	if limit <= 0 {
		limit = defaultAuditLogLimit
	}

	entries, err := s.audits.List(ctx, limit)
	if err != nil {
		s.logger.Error("failed to list audit logs", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return entries, nil
}

// ListAllUsers returns the full user roster
func (s *AdminService) ListAllUsers(ctx context.Context, actor auth.Actor, limit, offset int) ([]*models.User, error) {
	if !auth.CanPerform(actor.Role, auth.ActionViewAllUsers) {
		return nil, models.ErrForbidden
	}

	if limit <= 0 {
		limit = defaultAuditLogLimit
	}
	if offset < 0 {
		offset = 0
	}

	users, err := s.users.List(ctx, limit, offset)
	if err != nil {
		s.logger.Error("failed to list users", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return users, nil
}

// UpdateUserRoleAndStatus applies an Admin change to a user's role and/or
// status. Both fields are optional; if neither actually changes the operation
// is a no-op and no audit entry is written.
func (s *AdminService) UpdateUserRoleAndStatus(ctx context.Context, actor auth.Actor, targetID uuid.UUID, newRole *models.Role, newStatus *string, ip string) (*models.User, error) {
	if !auth.CanPerform(actor.Role, auth.ActionUpdateUser) {
		s.recordFailure(ctx, actor, models.AuditActionUnauthorized, "Role not permitted for requested resource", ip)
		return nil, models.ErrForbidden
	}

	if newRole != nil && !models.ValidRole(*newRole) {
		return nil, &models.ValidationError{Errors: []string{"Unknown role."}}
	}
	if newStatus != nil && !models.ValidStatus(*newStatus) {
		return nil, &models.ValidationError{Errors: []string{"Unknown status."}}
	}

	target, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.recordFailure(ctx, actor, models.AuditActionUpdateUser, "Resource not found", ip)
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get user", slog.String("target_id", targetID.String()), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	role := target.Role
	if newRole != nil {
		role = *newRole
	}
	status := target.Status
	if newStatus != nil {
		status = *newStatus
	}

	if role == target.Role && status == target.Status {
		return target, nil
	}

	err = s.db.WithTransaction(ctx, func(q database.Querier) error {
		if err := s.users.UpdateRoleAndStatus(ctx, q, targetID, role, status); err != nil {
			return err
		}
		actorID := actor.ID
		return s.audits.Insert(ctx, q, &models.AuditLog{
			UserID:     &actorID,
			UserName:   actor.Name,
			RoleName:   string(actor.Role),
			ActionType: models.AuditActionUpdateUser,
			Status:     models.AuditStatusSuccess,
			Message:    fmt.Sprintf("Updated user %s: role=%s status=%s", target.Email, role, status),
			IPAddress:  ip,
		})
	})
	if err != nil {
		s.logger.Error("failed to update user",
			slog.String("target_id", targetID.String()),
			slog.Any("error", err))
		s.recordFailure(ctx, actor, models.AuditActionUpdateUser, failureMessage(err), ip)
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, models.ErrInternalServer
	}

	s.logger.Info("user updated",
		slog.String("actor_id", actor.ID.String()),
		slog.String("target_id", targetID.String()),
		slog.String("role", string(role)),
		slog.String("status", status))

	target.Role = role
	target.Status = status
	return target, nil
}

// DeleteUser removes a user and everything referencing them: audit entries,
// transactions touching their accounts, the accounts, then the user row, all
// in one transaction in that dependency order. A failure anywhere rolls the
// whole cascade back.
func (s *AdminService) DeleteUser(ctx context.Context, actor auth.Actor, targetID uuid.UUID, ip string) error {
	if !auth.CanPerform(actor.Role, auth.ActionDeleteUser) {
		s.recordFailure(ctx, actor, models.AuditActionUnauthorized, "Role not permitted for requested resource", ip)
		return models.ErrForbidden
	}

	if targetID == actor.ID {
		return &models.ValidationError{Errors: []string{"Cannot delete your own user."}}
	}

	target, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.recordFailure(ctx, actor, models.AuditActionDeleteUser, "Resource not found", ip)
			return models.ErrNotFound
		}
		s.logger.Error("failed to get user", slog.String("target_id", targetID.String()), slog.Any("error", err))
		return models.ErrInternalServer
	}

	err = s.db.WithTransaction(ctx, func(q database.Querier) error {
		accounts, err := s.accounts.ListByUser(ctx, q, targetID)
		if err != nil {
			return err
		}

		if err := s.audits.DeleteByUserID(ctx, q, targetID); err != nil {
			return err
		}

		if len(accounts) > 0 {
			accountIDs := make([]uuid.UUID, 0, len(accounts))
			for _, account := range accounts {
				accountIDs = append(accountIDs, account.ID)
			}
			if err := s.transactions.DeleteByAccounts(ctx, q, accountIDs); err != nil {
				return err
			}
			if err := s.accounts.DeleteByUser(ctx, q, targetID); err != nil {
				return err
			}
		}

		if err := s.users.Delete(ctx, q, targetID); err != nil {
			return err
		}

		// The success entry references the acting manager, not the deleted
		// user, so it survives the cascade it describes.
		actorID := actor.ID
		return s.audits.Insert(ctx, q, &models.AuditLog{
			UserID:     &actorID,
			UserName:   actor.Name,
			RoleName:   string(actor.Role),
			ActionType: models.AuditActionDeleteUser,
			Status:     models.AuditStatusSuccess,
			Message:    fmt.Sprintf("Deleted user %s", target.Email),
			IPAddress:  ip,
		})
	})
	if err != nil {
		s.logger.Error("failed to delete user",
			slog.String("target_id", targetID.String()),
			slog.Any("error", err))
		s.recordFailure(ctx, actor, models.AuditActionDeleteUser, failureMessage(err), ip)
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNotFound
		}
		return models.ErrInternalServer
	}

	s.logger.Info("user deleted",
		slog.String("actor_id", actor.ID.String()),
		slog.String("target_id", targetID.String()))

	return nil
}

func (s *AdminService) recordFailure(ctx context.Context, actor auth.Actor, action, message, ip string) {
	actorID := actor.ID
	recordFailureAudit(ctx, s.audits, s.auditLogger, &models.AuditLog{
		UserID:     &actorID,
		UserName:   actor.Name,
		RoleName:   string(actor.Role),
		ActionType: action,
		Message:    message,
		IPAddress:  ip,
	})
}
