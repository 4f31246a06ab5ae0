package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/ironvault/ironvault/internal/auth"
	"github.com/ironvault/ironvault/internal/database"
	"github.com/ironvault/ironvault/internal/models"
	pkglogger "github.com/ironvault/ironvault/pkg/logger"
	"github.com/shopspring/decimal"
)

// Store is the transactional boundary the services run on. *database.DB
// satisfies it; tests substitute a fake that hands the callback a nil Querier.
type Store interface {
	WithTransaction(ctx context.Context, fn func(database.Querier) error) error
	WithActorTransaction(ctx context.Context, actor database.ActorContext, fn func(database.Querier) error) error
}

// AccountRepository defines the interface for ledger storage operations
type AccountRepository interface {
	Create(ctx context.Context, q database.Querier, account *models.Account) (*models.Account, error)
	FirstByUser(ctx context.Context, q database.Querier, userID uuid.UUID) (*models.Account, error)
	GetByAccountNumber(ctx context.Context, q database.Querier, number string) (*models.Account, error)
	LockForUpdate(ctx context.Context, q database.Querier, ids ...uuid.UUID) (map[uuid.UUID]decimal.Decimal, error)
	Debit(ctx context.Context, q database.Querier, accountID uuid.UUID, amount decimal.Decimal) error
	Credit(ctx context.Context, q database.Querier, accountID uuid.UUID, amount decimal.Decimal) error
	ListByUser(ctx context.Context, q database.Querier, userID uuid.UUID) ([]*models.Account, error)
	ListAllCustomerAccounts(ctx context.Context) ([]*models.CustomerAccount, error)
	DeleteByUser(ctx context.Context, q database.Querier, userID uuid.UUID) error
}

// TransactionRepository defines the interface for the transaction history
type TransactionRepository interface {
	Insert(ctx context.Context, q database.Querier, txn *models.Transaction) (*models.Transaction, error)
	ListByUser(ctx context.Context, q database.Querier, userID uuid.UUID) ([]*models.Transaction, error)
	DeleteByAccounts(ctx context.Context, q database.Querier, accountIDs []uuid.UUID) error
}

// Descriptions stamped onto transaction records
const (
	transferDescription = "Online Transfer"
	depositDescription  = "ATM Cash Deposit"
)

// TransferService moves funds between accounts. Every movement runs as one
// atomic transaction: resolve accounts, lock rows, debit, credit, append the
// transaction record and the audit entry, then commit. Any failure inside the
// block rolls the whole thing back.
type TransferService struct {
	db           Store
	accounts     AccountRepository
	transactions TransactionRepository
	audits       AuditLogRepository
	logger       *slog.Logger
	auditLogger  *pkglogger.AuditLogger
}

// NewTransferService creates a new TransferService
func NewTransferService(db Store, accounts AccountRepository, transactions TransactionRepository, audits AuditLogRepository, logger *slog.Logger, auditLogger *pkglogger.AuditLogger) *TransferService {
	return &TransferService{
		db:           db,
		accounts:     accounts,
		transactions: transactions,
		audits:       audits,
		logger:       logger,
		auditLogger:  auditLogger,
	}
}

// Transfer moves amount from the actor's default account to the account with
// the given number. On success the ledger mutation, the transaction record
// and the Success audit entry commit together; on failure everything rolls
// back and a Failed audit entry is written in a separate transaction.
func (s *TransferService) Transfer(ctx context.Context, actor auth.Actor, receiverNumber string, amount decimal.Decimal, ip string) (*models.Transaction, error) {
	if !auth.CanPerform(actor.Role, auth.ActionTransfer) {
		s.logger.Warn("transfer denied by role check",
			slog.String("actor_id", actor.ID.String()),
			slog.String("role", string(actor.Role)))
		s.recordFailure(ctx, actor, models.AuditActionUnauthorized, "Role not permitted for requested resource", ip)
		return nil, models.ErrForbidden
	}

	// Validation failures are rejected before any transaction opens and are
	// never audited.
	receiverNumber = strings.TrimSpace(receiverNumber)
	if receiverNumber == "" {
		return nil, &models.ValidationError{Errors: []string{"Receiver account number is required."}}
	}
	if !models.ValidAmount(amount) {
		return nil, models.ErrInvalidAmount
	}

	var txn *models.Transaction
	err := s.db.WithTransaction(ctx, func(q database.Querier) error {
		sender, err := s.accounts.FirstByUser(ctx, q, actor.ID)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				return models.ErrAccountNotFound
			}
			return err
		}

		receiver, err := s.accounts.GetByAccountNumber(ctx, q, receiverNumber)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				return models.ErrReceiverNotFound
			}
			return err
		}

		if sender.ID == receiver.ID {
			return models.ErrSelfTransfer
		}

		// Both rows stay locked until commit or rollback, so concurrent
		// transfers touching either account serialize here.
		if _, err := s.accounts.LockForUpdate(ctx, q, sender.ID, receiver.ID); err != nil {
			return err
		}

		if err := s.accounts.Debit(ctx, q, sender.ID, amount); err != nil {
			return err
		}
		if err := s.accounts.Credit(ctx, q, receiver.ID, amount); err != nil {
			return err
		}

		txn, err = s.transactions.Insert(ctx, q, &models.Transaction{
			SenderAccountID:   &sender.ID,
			ReceiverAccountID: &receiver.ID,
			Amount:            amount,
			Type:              models.TransactionTypeTransfer,
			Description:       transferDescription,
		})
		if err != nil {
			return err
		}

		entry := s.auditEntry(actor, models.AuditActionTransfer, models.AuditStatusSuccess,
			fmt.Sprintf("Transferred %s to account %s", amount.StringFixed(2), receiver.AccountNumber), ip)
		return s.audits.Insert(ctx, q, entry)
	})
	if err != nil {
		s.logger.Info("transfer failed",
			slog.String("actor_id", actor.ID.String()),
			slog.Any("error", err))
		s.recordFailure(ctx, actor, models.AuditActionTransfer, failureMessage(err), ip)
		return nil, err
	}

	s.logger.Info("transfer committed",
		slog.String("actor_id", actor.ID.String()),
		slog.String("transaction_id", txn.ID.String()),
		slog.String("amount", amount.StringFixed(2)))
	s.auditLogger.LogAction(pkglogger.AuditEvent{
		ActionType: models.AuditActionTransfer,
		ActorID:    actor.ID.String(),
		ActorName:  actor.Name,
		Status:     models.AuditStatusSuccess,
		IPAddress:  ip,
	})

	return txn, nil
}

// Deposit credits amount to the actor's default account
func (s *TransferService) Deposit(ctx context.Context, actor auth.Actor, amount decimal.Decimal, ip string) (*models.Transaction, error) {
	if !auth.CanPerform(actor.Role, auth.ActionDeposit) {
		s.logger.Warn("deposit denied by role check",
			slog.String("actor_id", actor.ID.String()),
			slog.String("role", string(actor.Role)))
		s.recordFailure(ctx, actor, models.AuditActionUnauthorized, "Role not permitted for requested resource", ip)
		return nil, models.ErrForbidden
	}

	if !models.ValidAmount(amount) {
		return nil, models.ErrInvalidAmount
	}

	var txn *models.Transaction
	err := s.db.WithTransaction(ctx, func(q database.Querier) error {
		account, err := s.accounts.FirstByUser(ctx, q, actor.ID)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				return models.ErrAccountNotFound
			}
			return err
		}

		if _, err := s.accounts.LockForUpdate(ctx, q, account.ID); err != nil {
			return err
		}

		if err := s.accounts.Credit(ctx, q, account.ID, amount); err != nil {
			return err
		}

		txn, err = s.transactions.Insert(ctx, q, &models.Transaction{
			ReceiverAccountID: &account.ID,
			Amount:            amount,
			Type:              models.TransactionTypeDeposit,
			Description:       depositDescription,
		})
		if err != nil {
			return err
		}

		entry := s.auditEntry(actor, models.AuditActionDeposit, models.AuditStatusSuccess,
			fmt.Sprintf("Deposited %s", amount.StringFixed(2)), ip)
		return s.audits.Insert(ctx, q, entry)
	})
	if err != nil {
		s.logger.Info("deposit failed",
			slog.String("actor_id", actor.ID.String()),
			slog.Any("error", err))
		s.recordFailure(ctx, actor, models.AuditActionDeposit, failureMessage(err), ip)
		return nil, err
	}

	s.logger.Info("deposit committed",
		slog.String("actor_id", actor.ID.String()),
		slog.String("transaction_id", txn.ID.String()),
		slog.String("amount", amount.StringFixed(2)))

	return txn, nil
}

func (s *TransferService) auditEntry(actor auth.Actor, action, status, message, ip string) *models.AuditLog {
	actorID := actor.ID
	return &models.AuditLog{
		UserID:     &actorID,
		UserName:   actor.Name,
		RoleName:   string(actor.Role),
		ActionType: action,
		Status:     status,
		Message:    message,
		IPAddress:  ip,
	}
}

func (s *TransferService) recordFailure(ctx context.Context, actor auth.Actor, action, message, ip string) {
	entry := s.auditEntry(actor, action, models.AuditStatusFailed, message, ip)
	recordFailureAudit(ctx, s.audits, s.auditLogger, entry)
}
