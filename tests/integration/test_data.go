package integration

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/ironvault/ironvault/internal/database"
	"github.com/ironvault/ironvault/internal/models"
	"github.com/ironvault/ironvault/internal/repositories"
	pkgauth "github.com/ironvault/ironvault/pkg/auth"
)

// TestCredentials generates unique test user credentials using a timestamp.
func TestCredentials(suffix string) (email, password string) {
	ts := time.Now().UnixNano()
	email = fmt.Sprintf("test-%d-%s@example.com", ts, suffix)
	password = "TestPassword123!"
	return
}

// SeedUser inserts a user with a properly salted and hashed password.
func SeedUser(ctx context.Context, pool *pgxpool.Pool, name, email, password string, role models.Role) (*models.User, error) {
	salt, err := pkgauth.GenerateSalt()
	if err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	hash, err := pkgauth.HashPassword(password, salt)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &models.User{
		ID:           uuid.New(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		PasswordSalt: salt,
		Role:         role,
		Status:       models.StatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	query := `
		INSERT INTO users (id, name, email, password_hash, password_salt, role, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err = pool.Exec(ctx, query,
		user.ID, user.Name, user.Email, user.PasswordHash, user.PasswordSalt,
		user.Role, user.Status, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}

	return user, nil
}

// SeedAccount inserts an account with the given balance for a user.
func SeedAccount(ctx context.Context, pool *pgxpool.Pool, userID uuid.UUID, balance string) (*models.Account, error) {
	amount, err := decimal.NewFromString(balance)
	if err != nil {
		return nil, fmt.Errorf("invalid balance %q: %w", balance, err)
	}

	account := &models.Account{
		ID:            uuid.New(),
		UserID:        userID,
		AccountNumber: fmt.Sprintf("100-%s", userID),
		Balance:       amount,
		CreatedAt:     time.Now().UTC(),
	}

	query := `
		INSERT INTO accounts (id, user_id, account_number, balance, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err = pool.Exec(ctx, query,
		account.ID, account.UserID, account.AccountNumber, account.Balance, account.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert account: %w", err)
	}

	return account, nil
}

// SeedCustomer inserts a customer user together with one funded account.
func SeedCustomer(ctx context.Context, pool *pgxpool.Pool, name, balance string) (*models.User, *models.Account, error) {
	email, password := TestCredentials(name)
	user, err := SeedUser(ctx, pool, name, email, password, models.RoleCustomer)
	if err != nil {
		return nil, nil, err
	}
	account, err := SeedAccount(ctx, pool, user.ID, balance)
	if err != nil {
		return nil, nil, err
	}
	return user, account, nil
}

// TotalBalance sums every account balance, used for conservation checks.
func TotalBalance(ctx context.Context, pool *pgxpool.Pool) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := pool.QueryRow(ctx, `SELECT COALESCE(SUM(balance), 0) FROM accounts`).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum balances: %w", err)
	}
	return total, nil
}

// AccountBalance reads a committed account balance through the ledger.
func AccountBalance(ctx context.Context, db *database.DB, accountID uuid.UUID) (decimal.Decimal, error) {
	return repositories.NewAccountRepository(db).GetBalance(ctx, accountID)
}

// CountAuditLogs counts audit entries matching an action type and status.
func CountAuditLogs(ctx context.Context, pool *pgxpool.Pool, actionType, status string) (int64, error) {
	var count int64
	err := pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM audit_logs WHERE action_type = $1 AND status = $2`,
		actionType, status,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count audit logs: %w", err)
	}
	return count, nil
}

// CountTransactions counts stored ledger entries.
func CountTransactions(ctx context.Context, pool *pgxpool.Pool) (int64, error) {
	var count int64
	err := pool.QueryRow(ctx, `SELECT COUNT(*) FROM transactions`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}
	return count, nil
}
