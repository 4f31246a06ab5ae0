package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/ironvault/ironvault/internal/auth"
	"github.com/ironvault/ironvault/internal/database"
	"github.com/ironvault/ironvault/internal/models"
	pkgauth "github.com/ironvault/ironvault/pkg/auth"
	"github.com/shopspring/decimal"
)

// MockStore implements Store for testing. By default both methods run the
// callback immediately with a nil Querier; mocks never touch it.
type MockStore struct {
	WithTransactionFunc      func(ctx context.Context, fn func(database.Querier) error) error
	WithActorTransactionFunc func(ctx context.Context, actor database.ActorContext, fn func(database.Querier) error) error

	// Actors records every actor context passed to WithActorTransaction
	Actors []database.ActorContext
}

func (m *MockStore) WithTransaction(ctx context.Context, fn func(database.Querier) error) error {
	if m.WithTransactionFunc != nil {
		return m.WithTransactionFunc(ctx, fn)
	}
	return fn(nil)
}

func (m *MockStore) WithActorTransaction(ctx context.Context, actor database.ActorContext, fn func(database.Querier) error) error {
	m.Actors = append(m.Actors, actor)
	if m.WithActorTransactionFunc != nil {
		return m.WithActorTransactionFunc(ctx, actor, fn)
	}
	return fn(nil)
}

// MockUserRepository implements UserRepository for testing
type MockUserRepository struct {
	GetByIDFunc             func(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmailFunc          func(ctx context.Context, email string) (*models.User, error)
	ListFunc                func(ctx context.Context, limit, offset int) ([]*models.User, error)
	CreateFunc              func(ctx context.Context, q database.Querier, user *models.User) (*models.User, error)
	UpdateLastLoginFunc     func(ctx context.Context, q database.Querier, id uuid.UUID, when time.Time) error
	UpdateRoleAndStatusFunc func(ctx context.Context, q database.Querier, id uuid.UUID, role models.Role, status string) error
	DeleteFunc              func(ctx context.Context, q database.Querier, id uuid.UUID) error
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, email)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) List(ctx context.Context, limit, offset int) ([]*models.User, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, limit, offset)
	}
	return []*models.User{}, nil
}

func (m *MockUserRepository) Create(ctx context.Context, q database.Querier, user *models.User) (*models.User, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, q, user)
	}
	user.ID = uuid.New()
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	return user, nil
}

func (m *MockUserRepository) UpdateLastLogin(ctx context.Context, q database.Querier, id uuid.UUID, when time.Time) error {
	if m.UpdateLastLoginFunc != nil {
		return m.UpdateLastLoginFunc(ctx, q, id, when)
	}
	return nil
}

func (m *MockUserRepository) UpdateRoleAndStatus(ctx context.Context, q database.Querier, id uuid.UUID, role models.Role, status string) error {
	if m.UpdateRoleAndStatusFunc != nil {
		return m.UpdateRoleAndStatusFunc(ctx, q, id, role, status)
	}
	return nil
}

func (m *MockUserRepository) Delete(ctx context.Context, q database.Querier, id uuid.UUID) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, q, id)
	}
	return nil
}

// MockAccountRepository implements AccountRepository for testing
type MockAccountRepository struct {
	CreateFunc                  func(ctx context.Context, q database.Querier, account *models.Account) (*models.Account, error)
	FirstByUserFunc             func(ctx context.Context, q database.Querier, userID uuid.UUID) (*models.Account, error)
	GetByAccountNumberFunc      func(ctx context.Context, q database.Querier, number string) (*models.Account, error)
	LockForUpdateFunc           func(ctx context.Context, q database.Querier, ids ...uuid.UUID) (map[uuid.UUID]decimal.Decimal, error)
	DebitFunc                   func(ctx context.Context, q database.Querier, accountID uuid.UUID, amount decimal.Decimal) error
	CreditFunc                  func(ctx context.Context, q database.Querier, accountID uuid.UUID, amount decimal.Decimal) error
	ListByUserFunc              func(ctx context.Context, q database.Querier, userID uuid.UUID) ([]*models.Account, error)
	ListAllCustomerAccountsFunc func(ctx context.Context) ([]*models.CustomerAccount, error)
	DeleteByUserFunc            func(ctx context.Context, q database.Querier, userID uuid.UUID) error
}

func (m *MockAccountRepository) Create(ctx context.Context, q database.Querier, account *models.Account) (*models.Account, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, q, account)
	}
	account.ID = uuid.New()
	account.CreatedAt = time.Now()
	return account, nil
}

func (m *MockAccountRepository) FirstByUser(ctx context.Context, q database.Querier, userID uuid.UUID) (*models.Account, error) {
	if m.FirstByUserFunc != nil {
		return m.FirstByUserFunc(ctx, q, userID)
	}
	return nil, models.ErrNotFound
}

func (m *MockAccountRepository) GetByAccountNumber(ctx context.Context, q database.Querier, number string) (*models.Account, error) {
	if m.GetByAccountNumberFunc != nil {
		return m.GetByAccountNumberFunc(ctx, q, number)
	}
	return nil, models.ErrNotFound
}

func (m *MockAccountRepository) LockForUpdate(ctx context.Context, q database.Querier, ids ...uuid.UUID) (map[uuid.UUID]decimal.Decimal, error) {
	if m.LockForUpdateFunc != nil {
		return m.LockForUpdateFunc(ctx, q, ids...)
	}
	balances := make(map[uuid.UUID]decimal.Decimal, len(ids))
	for _, id := range ids {
		balances[id] = decimal.Zero
	}
	return balances, nil
}

func (m *MockAccountRepository) Debit(ctx context.Context, q database.Querier, accountID uuid.UUID, amount decimal.Decimal) error {
	if m.DebitFunc != nil {
		return m.DebitFunc(ctx, q, accountID, amount)
	}
	return nil
}

func (m *MockAccountRepository) Credit(ctx context.Context, q database.Querier, accountID uuid.UUID, amount decimal.Decimal) error {
	if m.CreditFunc != nil {
		return m.CreditFunc(ctx, q, accountID, amount)
	}
	return nil
}

func (m *MockAccountRepository) ListByUser(ctx context.Context, q database.Querier, userID uuid.UUID) ([]*models.Account, error) {
	if m.ListByUserFunc != nil {
		return m.ListByUserFunc(ctx, q, userID)
	}
	return []*models.Account{}, nil
}

func (m *MockAccountRepository) ListAllCustomerAccounts(ctx context.Context) ([]*models.CustomerAccount, error) {
	if m.ListAllCustomerAccountsFunc != nil {
		return m.ListAllCustomerAccountsFunc(ctx)
	}
	return []*models.CustomerAccount{}, nil
}

func (m *MockAccountRepository) DeleteByUser(ctx context.Context, q database.Querier, userID uuid.UUID) error {
	if m.DeleteByUserFunc != nil {
		return m.DeleteByUserFunc(ctx, q, userID)
	}
	return nil
}

// MockTransactionRepository implements TransactionRepository for testing
type MockTransactionRepository struct {
	InsertFunc           func(ctx context.Context, q database.Querier, txn *models.Transaction) (*models.Transaction, error)
	ListByUserFunc       func(ctx context.Context, q database.Querier, userID uuid.UUID) ([]*models.Transaction, error)
	DeleteByAccountsFunc func(ctx context.Context, q database.Querier, accountIDs []uuid.UUID) error

	// Inserted records every transaction handed to Insert
	Inserted []*models.Transaction
}

func (m *MockTransactionRepository) Insert(ctx context.Context, q database.Querier, txn *models.Transaction) (*models.Transaction, error) {
	if m.InsertFunc != nil {
		return m.InsertFunc(ctx, q, txn)
	}
	txn.ID = uuid.New()
	txn.CreatedAt = time.Now()
	m.Inserted = append(m.Inserted, txn)
	return txn, nil
}

func (m *MockTransactionRepository) ListByUser(ctx context.Context, q database.Querier, userID uuid.UUID) ([]*models.Transaction, error) {
	if m.ListByUserFunc != nil {
		return m.ListByUserFunc(ctx, q, userID)
	}
	return []*models.Transaction{}, nil
}

func (m *MockTransactionRepository) DeleteByAccounts(ctx context.Context, q database.Querier, accountIDs []uuid.UUID) error {
	if m.DeleteByAccountsFunc != nil {
		return m.DeleteByAccountsFunc(ctx, q, accountIDs)
	}
	return nil
}

// MockAuditLogRepository implements AuditLogRepository for testing. It records
// every entry so tests can assert audit completeness.
type MockAuditLogRepository struct {
	InsertFunc         func(ctx context.Context, q database.Querier, entry *models.AuditLog) error
	RecordFunc         func(ctx context.Context, entry *models.AuditLog) error
	ListFunc           func(ctx context.Context, limit int) ([]*models.AuditLog, error)
	DeleteByUserIDFunc func(ctx context.Context, q database.Querier, userID uuid.UUID) error

	// Inserted holds entries written inside a primary transaction; Recorded
	// holds entries written in their own follow-up transaction.
	Inserted []*models.AuditLog
	Recorded []*models.AuditLog
}

func (m *MockAuditLogRepository) Insert(ctx context.Context, q database.Querier, entry *models.AuditLog) error {
	if m.InsertFunc != nil {
		return m.InsertFunc(ctx, q, entry)
	}
	m.Inserted = append(m.Inserted, entry)
	return nil
}

func (m *MockAuditLogRepository) Record(ctx context.Context, entry *models.AuditLog) error {
	if m.RecordFunc != nil {
		return m.RecordFunc(ctx, entry)
	}
	m.Recorded = append(m.Recorded, entry)
	return nil
}

func (m *MockAuditLogRepository) List(ctx context.Context, limit int) ([]*models.AuditLog, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, limit)
	}
	return []*models.AuditLog{}, nil
}

func (m *MockAuditLogRepository) DeleteByUserID(ctx context.Context, q database.Querier, userID uuid.UUID) error {
	if m.DeleteByUserIDFunc != nil {
		return m.DeleteByUserIDFunc(ctx, q, userID)
	}
	return nil
}

// NewTestUser creates a user with a known password for login tests
func NewTestUser(name, email, password string) *models.User {
	salt, err := pkgauth.GenerateSalt()
	if err != nil {
		panic(err)
	}
	hash, err := pkgauth.HashPassword(password, salt)
	if err != nil {
		panic(err)
	}
	now := time.Now()
	return &models.User{
		ID:           uuid.New(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		PasswordSalt: salt,
		Role:         models.RoleCustomer,
		Status:       models.StatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// NewTestAccount creates an account owned by the user with the given balance
func NewTestAccount(userID uuid.UUID, balance string) *models.Account {
	return &models.Account{
		ID:            uuid.New(),
		UserID:        userID,
		AccountNumber: accountNumberFor(userID),
		Balance:       decimal.RequireFromString(balance),
		CreatedAt:     time.Now(),
	}
}

// NewTestActor creates an actor with the given role
func NewTestActor(role models.Role) auth.Actor {
	return auth.Actor{
		ID:   uuid.New(),
		Name: "Test Actor",
		Role: role,
	}
}

// ActorFor derives the actor identity of a user
func ActorFor(user *models.User) auth.Actor {
	return auth.Actor{
		ID:   user.ID,
		Name: user.Name,
		Role: user.Role,
	}
}
