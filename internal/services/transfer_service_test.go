package services

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/ironvault/ironvault/internal/database"
	"github.com/ironvault/ironvault/internal/models"
	pkglogger "github.com/ironvault/ironvault/pkg/logger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTransferService(accounts *MockAccountRepository, transactions *MockTransactionRepository, audits *MockAuditLogRepository) *TransferService {
	logger := slog.Default()
	return NewTransferService(&MockStore{}, accounts, transactions, audits, logger, pkglogger.NewAuditLogger(logger))
}

func transferFixtures(t *testing.T) (*models.User, *models.Account, *models.Account, *MockAccountRepository) {
	t.Helper()

	sender := NewTestUser("Alice", "alice@example.com", "Sup3r-secret!")
	senderAccount := NewTestAccount(sender.ID, "100.00")
	receiverAccount := NewTestAccount(uuid.New(), "0.00")

	accounts := &MockAccountRepository{
		FirstByUserFunc: func(ctx context.Context, q database.Querier, userID uuid.UUID) (*models.Account, error) {
			if userID == sender.ID {
				return senderAccount, nil
			}
			return nil, models.ErrNotFound
		},
		GetByAccountNumberFunc: func(ctx context.Context, q database.Querier, number string) (*models.Account, error) {
			switch number {
			case senderAccount.AccountNumber:
				return senderAccount, nil
			case receiverAccount.AccountNumber:
				return receiverAccount, nil
			}
			return nil, models.ErrNotFound
		},
	}

	return sender, senderAccount, receiverAccount, accounts
}

func TestTransferService_Transfer_Success(t *testing.T) {
	sender, senderAccount, receiverAccount, accounts := transferFixtures(t)

	var debited, credited uuid.UUID
	var lockedIDs []uuid.UUID
	accounts.LockForUpdateFunc = func(ctx context.Context, q database.Querier, ids ...uuid.UUID) (map[uuid.UUID]decimal.Decimal, error) {
		lockedIDs = ids
		return map[uuid.UUID]decimal.Decimal{
			senderAccount.ID:   senderAccount.Balance,
			receiverAccount.ID: receiverAccount.Balance,
		}, nil
	}
	accounts.DebitFunc = func(ctx context.Context, q database.Querier, accountID uuid.UUID, amount decimal.Decimal) error {
		debited = accountID
		return nil
	}
	accounts.CreditFunc = func(ctx context.Context, q database.Querier, accountID uuid.UUID, amount decimal.Decimal) error {
		credited = accountID
		return nil
	}

	transactions := &MockTransactionRepository{}
	audits := &MockAuditLogRepository{}
	svc := newTransferService(accounts, transactions, audits)

	txn, err := svc.Transfer(context.Background(), ActorFor(sender), receiverAccount.AccountNumber, decimal.RequireFromString("40.00"), "10.0.0.1")

	require.NoError(t, err)
	require.NotNil(t, txn)
	assert.Equal(t, models.TransactionTypeTransfer, txn.Type)
	assert.Equal(t, "Online Transfer", txn.Description)
	assert.True(t, txn.Amount.Equal(decimal.RequireFromString("40.00")))

	assert.ElementsMatch(t, []uuid.UUID{senderAccount.ID, receiverAccount.ID}, lockedIDs)
	assert.Equal(t, senderAccount.ID, debited)
	assert.Equal(t, receiverAccount.ID, credited)

	require.Len(t, transactions.Inserted, 1)
	require.Len(t, audits.Inserted, 1)
	assert.Equal(t, models.AuditActionTransfer, audits.Inserted[0].ActionType)
	assert.Equal(t, models.AuditStatusSuccess, audits.Inserted[0].Status)
	assert.Empty(t, audits.Recorded)
}

func TestTransferService_Transfer_InsufficientFunds(t *testing.T) {
	sender, _, receiverAccount, accounts := transferFixtures(t)
	accounts.DebitFunc = func(ctx context.Context, q database.Querier, accountID uuid.UUID, amount decimal.Decimal) error {
		return models.ErrInsufficientFunds
	}

	transactions := &MockTransactionRepository{}
	audits := &MockAuditLogRepository{}
	svc := newTransferService(accounts, transactions, audits)

	_, err := svc.Transfer(context.Background(), ActorFor(sender), receiverAccount.AccountNumber, decimal.RequireFromString("1000.00"), "10.0.0.1")

	assert.ErrorIs(t, err, models.ErrInsufficientFunds)
	assert.Empty(t, transactions.Inserted)
	require.Len(t, audits.Recorded, 1)
	assert.Equal(t, models.AuditActionTransfer, audits.Recorded[0].ActionType)
	assert.Equal(t, models.AuditStatusFailed, audits.Recorded[0].Status)
	assert.Equal(t, "Insufficient funds", audits.Recorded[0].Message)
}

func TestTransferService_Transfer_FailedAuditWriteDoesNotMaskOutcome(t *testing.T) {
	sender, _, receiverAccount, accounts := transferFixtures(t)
	accounts.DebitFunc = func(ctx context.Context, q database.Querier, accountID uuid.UUID, amount decimal.Decimal) error {
		return models.ErrInsufficientFunds
	}

	transactions := &MockTransactionRepository{}
	audits := &MockAuditLogRepository{
		RecordFunc: func(ctx context.Context, entry *models.AuditLog) error {
			return errors.New("audit store down")
		},
	}
	svc := newTransferService(accounts, transactions, audits)

	_, err := svc.Transfer(context.Background(), ActorFor(sender), receiverAccount.AccountNumber, decimal.RequireFromString("1000.00"), "10.0.0.1")

	// The actor still gets the real outcome; the failed audit write goes to
	// the operational channel only.
	assert.ErrorIs(t, err, models.ErrInsufficientFunds)
	assert.Empty(t, transactions.Inserted)
}

func TestTransferService_Transfer_SelfTransfer(t *testing.T) {
	sender, senderAccount, _, accounts := transferFixtures(t)

	transactions := &MockTransactionRepository{}
	audits := &MockAuditLogRepository{}
	svc := newTransferService(accounts, transactions, audits)

	_, err := svc.Transfer(context.Background(), ActorFor(sender), senderAccount.AccountNumber, decimal.RequireFromString("5.00"), "10.0.0.1")

	assert.ErrorIs(t, err, models.ErrSelfTransfer)
	assert.Empty(t, transactions.Inserted)
	require.Len(t, audits.Recorded, 1)
	assert.Equal(t, models.AuditStatusFailed, audits.Recorded[0].Status)
}

func TestTransferService_Transfer_ReceiverNotFound(t *testing.T) {
	sender, _, _, accounts := transferFixtures(t)

	audits := &MockAuditLogRepository{}
	svc := newTransferService(accounts, &MockTransactionRepository{}, audits)

	_, err := svc.Transfer(context.Background(), ActorFor(sender), "100-does-not-exist", decimal.RequireFromString("5.00"), "10.0.0.1")

	assert.ErrorIs(t, err, models.ErrReceiverNotFound)
	require.Len(t, audits.Recorded, 1)
	assert.Equal(t, "Receiver account not found", audits.Recorded[0].Message)
}

func TestTransferService_Transfer_InvalidAmountSkipsStorage(t *testing.T) {
	sender, _, receiverAccount, accounts := transferFixtures(t)

	storeTouched := false
	store := &MockStore{
		WithTransactionFunc: func(ctx context.Context, fn func(database.Querier) error) error {
			storeTouched = true
			return fn(nil)
		},
	}
	audits := &MockAuditLogRepository{}
	logger := slog.Default()
	svc := NewTransferService(store, accounts, &MockTransactionRepository{}, audits, logger, pkglogger.NewAuditLogger(logger))

	for _, raw := range []string{"-5.00", "0", "1.234"} {
		_, err := svc.Transfer(context.Background(), ActorFor(sender), receiverAccount.AccountNumber, decimal.RequireFromString(raw), "10.0.0.1")
		assert.ErrorIs(t, err, models.ErrInvalidAmount, "amount %s", raw)
	}

	assert.False(t, storeTouched)
	assert.Empty(t, audits.Inserted)
	assert.Empty(t, audits.Recorded)
}

func TestTransferService_Transfer_RoleDenied(t *testing.T) {
	actor := NewTestActor(models.RoleManager)

	audits := &MockAuditLogRepository{}
	svc := newTransferService(&MockAccountRepository{}, &MockTransactionRepository{}, audits)

	_, err := svc.Transfer(context.Background(), actor, "100-whatever", decimal.RequireFromString("5.00"), "10.0.0.1")

	assert.ErrorIs(t, err, models.ErrForbidden)
	require.Len(t, audits.Recorded, 1)
	assert.Equal(t, models.AuditActionUnauthorized, audits.Recorded[0].ActionType)
}

func TestTransferService_Deposit_Success(t *testing.T) {
	user := NewTestUser("Alice", "alice@example.com", "Sup3r-secret!")
	account := NewTestAccount(user.ID, "10.00")

	var credited uuid.UUID
	accounts := &MockAccountRepository{
		FirstByUserFunc: func(ctx context.Context, q database.Querier, userID uuid.UUID) (*models.Account, error) {
			return account, nil
		},
		CreditFunc: func(ctx context.Context, q database.Querier, accountID uuid.UUID, amount decimal.Decimal) error {
			credited = accountID
			return nil
		},
	}
	transactions := &MockTransactionRepository{}
	audits := &MockAuditLogRepository{}
	svc := newTransferService(accounts, transactions, audits)

	txn, err := svc.Deposit(context.Background(), ActorFor(user), decimal.RequireFromString("25.50"), "10.0.0.1")

	require.NoError(t, err)
	assert.Equal(t, models.TransactionTypeDeposit, txn.Type)
	assert.Equal(t, "ATM Cash Deposit", txn.Description)
	assert.Nil(t, txn.SenderAccountID)
	assert.Equal(t, account.ID, credited)

	require.Len(t, audits.Inserted, 1)
	assert.Equal(t, models.AuditActionDeposit, audits.Inserted[0].ActionType)
}

func TestTransferService_Deposit_NegativeAmountSkipsStorage(t *testing.T) {
	user := NewTestUser("Alice", "alice@example.com", "Sup3r-secret!")

	storeTouched := false
	store := &MockStore{
		WithTransactionFunc: func(ctx context.Context, fn func(database.Querier) error) error {
			storeTouched = true
			return fn(nil)
		},
	}
	audits := &MockAuditLogRepository{}
	logger := slog.Default()
	svc := NewTransferService(store, &MockAccountRepository{}, &MockTransactionRepository{}, audits, logger, pkglogger.NewAuditLogger(logger))

	_, err := svc.Deposit(context.Background(), ActorFor(user), decimal.RequireFromString("-5.00"), "10.0.0.1")

	assert.ErrorIs(t, err, models.ErrInvalidAmount)
	assert.False(t, storeTouched)
	assert.Empty(t, audits.Inserted)
	assert.Empty(t, audits.Recorded)
}
