package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ironvault/ironvault/internal/database"
	"github.com/ironvault/ironvault/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// AccountRepository is the ledger's storage layer. Balance mutations require
// the caller's transaction and assume the rows were locked via LockForUpdate.
type AccountRepository struct {
	db *database.DB
}

func NewAccountRepository(db *database.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

const accountColumns = `id, user_id, account_number, balance, created_at`

func scanAccountRow(scanner rowScanner) (*models.Account, error) {
	var account models.Account

	err := scanner.Scan(
		&account.ID, &account.UserID, &account.AccountNumber, &account.Balance, &account.CreatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &account, nil
}

func scanAccountRows(rows pgx.Rows) ([]*models.Account, error) {
	defer rows.Close()

	accounts := make([]*models.Account, 0)

	for rows.Next() {
		account, err := scanAccountRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, account)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating account rows: %w", err)
	}

	return accounts, nil
}

// Create inserts a new account inside the caller's transaction
func (r *AccountRepository) Create(ctx context.Context, q database.Querier, account *models.Account) (*models.Account, error) {
	account.ID = uuid.New()
	account.CreatedAt = time.Now()

	query := `
		INSERT INTO accounts (id, user_id, account_number, balance, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := q.Exec(ctx, query,
		account.ID, account.UserID, account.AccountNumber, account.Balance, account.CreatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return account, nil
}

// FirstByUser resolves the user's default account (oldest first)
func (r *AccountRepository) FirstByUser(ctx context.Context, q database.Querier, userID uuid.UUID) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE user_id = $1 ORDER BY created_at ASC LIMIT 1`
	return scanAccountRow(q.QueryRow(ctx, query, userID))
}

// GetByAccountNumber resolves an externally addressable account number
func (r *AccountRepository) GetByAccountNumber(ctx context.Context, q database.Querier, number string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE account_number = $1`
	return scanAccountRow(q.QueryRow(ctx, query, number))
}

// GetBalance returns the committed balance of an account
func (r *AccountRepository) GetBalance(ctx context.Context, accountID uuid.UUID) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := r.db.Pool.QueryRow(ctx, `SELECT balance FROM accounts WHERE id = $1`, accountID).Scan(&balance)
	if err != nil {
		return decimal.Zero, database.MapPostgresError(err)
	}
	return balance, nil
}

// LockForUpdate takes row locks on the given accounts for the remainder of
// the caller's transaction. Rows are locked in ascending id order so two
// transfers touching the same pair of accounts cannot deadlock. Returns the
// locked balances keyed by account id.
func (r *AccountRepository) LockForUpdate(ctx context.Context, q database.Querier, ids ...uuid.UUID) (map[uuid.UUID]decimal.Decimal, error) {
	query := `SELECT id, balance FROM accounts WHERE id = ANY($1) ORDER BY id FOR UPDATE`

	rows, err := q.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to lock accounts: %w", err)
	}
	defer rows.Close()

	balances := make(map[uuid.UUID]decimal.Decimal, len(ids))
	for rows.Next() {
		var id uuid.UUID
		var balance decimal.Decimal
		if err := rows.Scan(&id, &balance); err != nil {
			return nil, fmt.Errorf("failed to scan locked account: %w", err)
		}
		balances[id] = balance
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating locked accounts: %w", err)
	}

	if len(balances) != len(ids) {
		return nil, models.ErrAccountNotFound
	}

	return balances, nil
}

// Debit subtracts amount from the account, refusing to take the balance
// negative. The check and the write are a single statement, so combined with
// the row lock no concurrent reader can observe an intermediate state.
func (r *AccountRepository) Debit(ctx context.Context, q database.Querier, accountID uuid.UUID, amount decimal.Decimal) error {
	query := `UPDATE accounts SET balance = balance - $1 WHERE id = $2 AND balance >= $1`

	tag, err := q.Exec(ctx, query, amount, accountID)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrInsufficientFunds
	}
	return nil
}

// Credit adds amount to the account inside the caller's transaction
func (r *AccountRepository) Credit(ctx context.Context, q database.Querier, accountID uuid.UUID, amount decimal.Decimal) error {
	query := `UPDATE accounts SET balance = balance + $1 WHERE id = $2`

	tag, err := q.Exec(ctx, query, amount, accountID)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrAccountNotFound
	}
	return nil
}

// ListByUser returns all accounts owned by the user
func (r *AccountRepository) ListByUser(ctx context.Context, q database.Querier, userID uuid.UUID) ([]*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE user_id = $1 ORDER BY created_at ASC`

	rows, err := q.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}

	return scanAccountRows(rows)
}

// ListAllCustomerAccounts is the manager view: every customer account joined
// with its owner.
func (r *AccountRepository) ListAllCustomerAccounts(ctx context.Context) ([]*models.CustomerAccount, error) {
	query := `
		SELECT a.id, a.user_id, a.account_number, a.balance, a.created_at, u.name, u.email
		FROM accounts a
		JOIN users u ON u.id = a.user_id
		WHERE u.role = $1
		ORDER BY u.name ASC, a.created_at ASC
	`

	rows, err := r.db.Pool.Query(ctx, query, models.RoleCustomer)
	if err != nil {
		return nil, fmt.Errorf("failed to query customer accounts: %w", err)
	}
	defer rows.Close()

	accounts := make([]*models.CustomerAccount, 0)
	for rows.Next() {
		var ca models.CustomerAccount
		err := rows.Scan(
			&ca.ID, &ca.UserID, &ca.AccountNumber, &ca.Balance, &ca.CreatedAt,
			&ca.OwnerName, &ca.OwnerEmail,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan customer account: %w", err)
		}
		accounts = append(accounts, &ca)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating customer account rows: %w", err)
	}

	return accounts, nil
}

// DeleteByUser removes all of the user's accounts inside the caller's
// transaction (cascade step before deleting the user row).
func (r *AccountRepository) DeleteByUser(ctx context.Context, q database.Querier, userID uuid.UUID) error {
	_, err := q.Exec(ctx, `DELETE FROM accounts WHERE user_id = $1`, userID)
	return database.MapPostgresError(err)
}
