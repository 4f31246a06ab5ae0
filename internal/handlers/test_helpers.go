package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/ironvault/ironvault/internal/auth"
	"github.com/ironvault/ironvault/internal/models"
	"github.com/ironvault/ironvault/internal/services"
	"github.com/shopspring/decimal"
)

// MockAuthService implements AuthServiceInterface for testing
type MockAuthService struct {
	LoginFunc    func(ctx context.Context, email, password, ip string) (*services.SessionResponse, error)
	RegisterFunc func(ctx context.Context, name, email, password, ip string) (*services.UserResponse, error)
}

func (m *MockAuthService) Login(ctx context.Context, email, password, ip string) (*services.SessionResponse, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, email, password, ip)
	}
	return nil, models.ErrInvalidCredentials
}

func (m *MockAuthService) Register(ctx context.Context, name, email, password, ip string) (*services.UserResponse, error) {
	if m.RegisterFunc != nil {
		return m.RegisterFunc(ctx, name, email, password, ip)
	}
	return nil, models.ErrInternalServer
}

// MockTransferService implements TransferServiceInterface for testing
type MockTransferService struct {
	TransferFunc func(ctx context.Context, actor auth.Actor, receiverNumber string, amount decimal.Decimal, ip string) (*models.Transaction, error)
	DepositFunc  func(ctx context.Context, actor auth.Actor, amount decimal.Decimal, ip string) (*models.Transaction, error)
}

func (m *MockTransferService) Transfer(ctx context.Context, actor auth.Actor, receiverNumber string, amount decimal.Decimal, ip string) (*models.Transaction, error) {
	if m.TransferFunc != nil {
		return m.TransferFunc(ctx, actor, receiverNumber, amount, ip)
	}
	return nil, models.ErrInternalServer
}

func (m *MockTransferService) Deposit(ctx context.Context, actor auth.Actor, amount decimal.Decimal, ip string) (*models.Transaction, error) {
	if m.DepositFunc != nil {
		return m.DepositFunc(ctx, actor, amount, ip)
	}
	return nil, models.ErrInternalServer
}

// MockAccountService implements AccountServiceInterface for testing
type MockAccountService struct {
	ListAccountsFunc            func(ctx context.Context, actor auth.Actor) ([]*models.Account, error)
	ListTransactionsFunc        func(ctx context.Context, actor auth.Actor) ([]*models.TransactionView, error)
	ListAllCustomerAccountsFunc func(ctx context.Context, actor auth.Actor) ([]*models.CustomerAccount, error)
}

func (m *MockAccountService) ListAccounts(ctx context.Context, actor auth.Actor) ([]*models.Account, error) {
	if m.ListAccountsFunc != nil {
		return m.ListAccountsFunc(ctx, actor)
	}
	return []*models.Account{}, nil
}

func (m *MockAccountService) ListTransactions(ctx context.Context, actor auth.Actor) ([]*models.TransactionView, error) {
	if m.ListTransactionsFunc != nil {
		return m.ListTransactionsFunc(ctx, actor)
	}
	return []*models.TransactionView{}, nil
}

func (m *MockAccountService) ListAllCustomerAccounts(ctx context.Context, actor auth.Actor) ([]*models.CustomerAccount, error) {
	if m.ListAllCustomerAccountsFunc != nil {
		return m.ListAllCustomerAccountsFunc(ctx, actor)
	}
	return []*models.CustomerAccount{}, nil
}

// MockAdminService implements AdminServiceInterface for testing
type MockAdminService struct {
	ListAuditLogsFunc           func(ctx context.Context, actor auth.Actor, limit int) ([]*models.AuditLog, error)
	ListAllUsersFunc            func(ctx context.Context, actor auth.Actor, limit, offset int) ([]*models.User, error)
	UpdateUserRoleAndStatusFunc func(ctx context.Context, actor auth.Actor, targetID uuid.UUID, newRole *models.Role, newStatus *string, ip string) (*models.User, error)
	DeleteUserFunc              func(ctx context.Context, actor auth.Actor, targetID uuid.UUID, ip string) error
}

func (m *MockAdminService) ListAuditLogs(ctx context.Context, actor auth.Actor, limit int) ([]*models.AuditLog, error) {
	if m.ListAuditLogsFunc != nil {
		return m.ListAuditLogsFunc(ctx, actor, limit)
	}
	return []*models.AuditLog{}, nil
}

func (m *MockAdminService) ListAllUsers(ctx context.Context, actor auth.Actor, limit, offset int) ([]*models.User, error) {
	if m.ListAllUsersFunc != nil {
		return m.ListAllUsersFunc(ctx, actor, limit, offset)
	}
	return []*models.User{}, nil
}

func (m *MockAdminService) UpdateUserRoleAndStatus(ctx context.Context, actor auth.Actor, targetID uuid.UUID, newRole *models.Role, newStatus *string, ip string) (*models.User, error) {
	if m.UpdateUserRoleAndStatusFunc != nil {
		return m.UpdateUserRoleAndStatusFunc(ctx, actor, targetID, newRole, newStatus, ip)
	}
	return nil, models.ErrNotFound
}

func (m *MockAdminService) DeleteUser(ctx context.Context, actor auth.Actor, targetID uuid.UUID, ip string) error {
	if m.DeleteUserFunc != nil {
		return m.DeleteUserFunc(ctx, actor, targetID, ip)
	}
	return models.ErrNotFound
}

// withActor injects an authenticated actor into the request context, the way
// the auth middleware does in production.
func withActor(r *http.Request, actor auth.Actor) *http.Request {
	ctx := context.WithValue(r.Context(), auth.ActorContextKey, actor)
	return r.WithContext(ctx)
}

// testActor creates an actor with the given role
func testActor(role models.Role) auth.Actor {
	return auth.Actor{
		ID:   uuid.New(),
		Name: "Test Actor",
		Role: role,
	}
}
