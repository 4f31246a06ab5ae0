package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ironvault/ironvault/internal/database"
	"github.com/ironvault/ironvault/internal/models"
	"github.com/jackc/pgx/v5"
)

// TransactionRepository handles the append-only transaction history
type TransactionRepository struct {
	db *database.DB
}

func NewTransactionRepository(db *database.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

const transactionColumns = `id, sender_account_id, receiver_account_id, amount, type, description, created_at`

func scanTransactionRow(scanner rowScanner) (*models.Transaction, error) {
	var txn models.Transaction

	err := scanner.Scan(
		&txn.ID, &txn.SenderAccountID, &txn.ReceiverAccountID,
		&txn.Amount, &txn.Type, &txn.Description, &txn.CreatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &txn, nil
}

func scanTransactionRows(rows pgx.Rows) ([]*models.Transaction, error) {
	defer rows.Close()

	txns := make([]*models.Transaction, 0)

	for rows.Next() {
		txn, err := scanTransactionRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txns = append(txns, txn)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transaction rows: %w", err)
	}

	return txns, nil
}

// Insert appends a committed movement of funds. Must run inside the same
// transaction as the balance mutation it records.
func (r *TransactionRepository) Insert(ctx context.Context, q database.Querier, txn *models.Transaction) (*models.Transaction, error) {
	txn.ID = uuid.New()
	txn.CreatedAt = time.Now()

	query := `
		INSERT INTO transactions (id, sender_account_id, receiver_account_id, amount, type, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := q.Exec(ctx, query,
		txn.ID, txn.SenderAccountID, txn.ReceiverAccountID,
		txn.Amount, txn.Type, txn.Description, txn.CreatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return txn, nil
}

// ListByUser returns every transaction touching any account of the user,
// newest first.
func (r *TransactionRepository) ListByUser(ctx context.Context, q database.Querier, userID uuid.UUID) ([]*models.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE sender_account_id IN (SELECT id FROM accounts WHERE user_id = $1)
		   OR receiver_account_id IN (SELECT id FROM accounts WHERE user_id = $1)
		ORDER BY created_at DESC
	`

	rows, err := q.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}

	return scanTransactionRows(rows)
}

// CountByAccounts counts transactions touching any of the given accounts
func (r *TransactionRepository) CountByAccounts(ctx context.Context, accountIDs []uuid.UUID) (int64, error) {
	query := `
		SELECT COUNT(*) FROM transactions
		WHERE sender_account_id = ANY($1) OR receiver_account_id = ANY($1)
	`

	var count int64
	err := r.db.Pool.QueryRow(ctx, query, accountIDs).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}
	return count, nil
}

// DeleteByAccounts removes all transactions touching the given accounts
// inside the caller's transaction (cascade step of a user deletion).
func (r *TransactionRepository) DeleteByAccounts(ctx context.Context, q database.Querier, accountIDs []uuid.UUID) error {
	query := `DELETE FROM transactions WHERE sender_account_id = ANY($1) OR receiver_account_id = ANY($1)`
	_, err := q.Exec(ctx, query, accountIDs)
	return database.MapPostgresError(err)
}
