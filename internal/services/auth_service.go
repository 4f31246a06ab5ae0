package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/ironvault/ironvault/internal/auth"
	"github.com/ironvault/ironvault/internal/database"
	"github.com/ironvault/ironvault/internal/models"
	pkgauth "github.com/ironvault/ironvault/pkg/auth"
	pkglogger "github.com/ironvault/ironvault/pkg/logger"
	"github.com/shopspring/decimal"
)

// UserRepository defines the interface for user storage operations
type UserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context, limit, offset int) ([]*models.User, error)
	Create(ctx context.Context, q database.Querier, user *models.User) (*models.User, error)
	UpdateLastLogin(ctx context.Context, q database.Querier, id uuid.UUID, when time.Time) error
	UpdateRoleAndStatus(ctx context.Context, q database.Querier, id uuid.UUID, role models.Role, status string) error
	Delete(ctx context.Context, q database.Querier, id uuid.UUID) error
}

// AuthService handles authentication business logic
type AuthService struct {
	db          Store
	users       UserRepository
	accounts    AccountRepository
	audits      AuditLogRepository
	lockout     *auth.LockoutTracker
	tm          *auth.TokenManager
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
}

// NewAuthService creates a new AuthService
func NewAuthService(db Store, users UserRepository, accounts AccountRepository, audits AuditLogRepository, lockout *auth.LockoutTracker, tm *auth.TokenManager, logger *slog.Logger, auditLogger *pkglogger.AuditLogger) *AuthService {
	return &AuthService{
		db:          db,
		users:       users,
		accounts:    accounts,
		audits:      audits,
		lockout:     lockout,
		tm:          tm,
		logger:      logger,
		auditLogger: auditLogger,
	}
}

// UserResponse represents a user in the HTTP response
type UserResponse struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Email     string  `json:"email"`
	Role      string  `json:"role"`
	Status    string  `json:"status"`
	LastLogin *string `json:"last_login,omitempty"`
	CreatedAt string  `json:"created_at"`
}

// SessionResponse represents a successful authentication. The web layer owns
// how the token travels back to the client.
type SessionResponse struct {
	Token string        `json:"token"`
	User  *UserResponse `json:"user"`
}

// Login authenticates a user and returns a session token. Every attempt,
// success or failure, produces exactly one audit entry; a locked email is
// rejected without consulting stored credentials.
func (s *AuthService) Login(ctx context.Context, email, password, ip string) (*SessionResponse, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, &models.ValidationError{Errors: []string{"Email and password are required."}}
	}

	if wait, locked := s.lockout.Remaining(email); locked {
		s.logger.Info("login rejected: email locked out")
		s.recordLoginFailure(ctx, nil, email, "Account temporarily locked", ip)
		return nil, &models.AccountLockedError{RetryAfter: wait}
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			// Track the failure even for unknown emails so enumeration
			// probing trips the same lockout as password guessing.
			s.lockout.RecordFailure(email)
			s.logger.Info("login failed: invalid credentials")
			s.recordLoginFailure(ctx, nil, email, "Invalid credentials", ip)
			return nil, models.ErrInvalidCredentials
		}
		s.logger.Error("failed to get user by email", slog.Any("error", err))
		s.recordLoginFailure(ctx, nil, email, "Operation failed", ip)
		return nil, models.ErrInternalServer
	}

	if user.Status != models.StatusActive {
		s.logger.Info("login blocked: account not active",
			slog.String("user_id", user.ID.String()),
			slog.String("status", user.Status))
		s.recordLoginFailure(ctx, user, email, "Account suspended", ip)
		return nil, models.ErrForbidden
	}

	if !pkgauth.VerifyPassword(user.PasswordHash, user.PasswordSalt, password) {
		remaining, lockedNow := s.lockout.RecordFailure(email)
		s.logger.Info("login failed: invalid credentials",
			slog.Int("attempts_remaining", remaining))
		message := "Invalid credentials"
		if lockedNow {
			message = "Invalid credentials, account locked"
		}
		s.recordLoginFailure(ctx, user, email, message, ip)
		return nil, models.ErrInvalidCredentials
	}

	s.lockout.Reset(email)

	// The last-login stamp and the Success audit entry commit together.
	now := time.Now()
	err = s.db.WithTransaction(ctx, func(q database.Querier) error {
		if err := s.users.UpdateLastLogin(ctx, q, user.ID, now); err != nil {
			return err
		}
		userID := user.ID
		return s.audits.Insert(ctx, q, &models.AuditLog{
			UserID:     &userID,
			UserName:   user.Name,
			RoleName:   string(user.Role),
			ActionType: models.AuditActionLogin,
			Status:     models.AuditStatusSuccess,
			Message:    "Login successful",
			IPAddress:  ip,
		})
	})
	if err != nil {
		s.logger.Error("failed to finalize login", slog.String("user_id", user.ID.String()), slog.Any("error", err))
		s.recordLoginFailure(ctx, user, email, "Operation failed", ip)
		return nil, models.ErrInternalServer
	}
	user.LastLogin = &now

	actor := auth.Actor{ID: user.ID, Name: user.Name, Role: user.Role}
	token, err := s.tm.GenerateSessionToken(actor)
	if err != nil {
		s.logger.Error("failed to generate session token", slog.String("user_id", user.ID.String()), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("user logged in", slog.String("user_id", user.ID.String()))
	s.auditLogger.LogAction(pkglogger.AuditEvent{
		ActionType: models.AuditActionLogin,
		ActorID:    user.ID.String(),
		ActorName:  user.Name,
		Status:     models.AuditStatusSuccess,
		IPAddress:  ip,
	})

	return &SessionResponse{
		Token: token,
		User:  userModelToResponse(user),
	}, nil
}

// Register creates a new user with a default zero-balance account. The user
// row, the account row and the Register audit entry commit as one
// transaction.
func (s *AuthService) Register(ctx context.Context, name, email, password, ip string) (*UserResponse, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))

	validationErrs := make([]string, 0)
	if utf8.RuneCountInString(name) < 2 {
		validationErrs = append(validationErrs, "Name must be at least 2 characters.")
	}
	if email == "" {
		validationErrs = append(validationErrs, "Email is required.")
	}
	var passwordErr *pkgauth.PasswordValidationError
	if err := pkgauth.ValidatePassword(password); err != nil {
		if errors.As(err, &passwordErr) {
			validationErrs = append(validationErrs, passwordErr.Errors...)
		} else {
			validationErrs = append(validationErrs, "Invalid password.")
		}
	}
	if len(validationErrs) > 0 {
		return nil, &models.ValidationError{Errors: validationErrs}
	}

	salt, err := pkgauth.GenerateSalt()
	if err != nil {
		s.logger.Error("failed to generate salt", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	hash, err := pkgauth.HashPassword(password, salt)
	if err != nil {
		s.logger.Error("failed to hash password", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	user := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		PasswordSalt: salt,
		Role:         models.RoleCustomer,
		Status:       models.StatusActive,
	}

	err = s.db.WithTransaction(ctx, func(q database.Querier) error {
		created, err := s.users.Create(ctx, q, user)
		if err != nil {
			return err
		}

		_, err = s.accounts.Create(ctx, q, &models.Account{
			UserID:        created.ID,
			AccountNumber: accountNumberFor(created.ID),
			Balance:       decimal.Zero,
		})
		if err != nil {
			return err
		}

		userID := created.ID
		return s.audits.Insert(ctx, q, &models.AuditLog{
			UserID:     &userID,
			UserName:   created.Name,
			RoleName:   string(created.Role),
			ActionType: models.AuditActionRegister,
			Status:     models.AuditStatusSuccess,
			Message:    "User registered",
			IPAddress:  ip,
		})
	})
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			s.logger.Info("registration failed: email already registered")
			recordFailureAudit(ctx, s.audits, s.auditLogger, &models.AuditLog{
				UserName:   email,
				ActionType: models.AuditActionRegister,
				Message:    "Email already registered",
				IPAddress:  ip,
			})
			return nil, models.ErrDuplicateEmail
		}
		s.logger.Error("failed to register user", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("user registered", slog.String("user_id", user.ID.String()))

	return userModelToResponse(user), nil
}

func (s *AuthService) recordLoginFailure(ctx context.Context, user *models.User, email, message, ip string) {
	entry := &models.AuditLog{
		UserName:   email,
		ActionType: models.AuditActionLogin,
		Message:    message,
	}
	entry.IPAddress = ip
	if user != nil {
		userID := user.ID
		entry.UserID = &userID
		entry.UserName = user.Name
		entry.RoleName = string(user.Role)
	}
	recordFailureAudit(ctx, s.audits, s.auditLogger, entry)
}

// accountNumberFor derives the externally addressable number of a user's
// default account.
func accountNumberFor(userID uuid.UUID) string {
	return fmt.Sprintf("100-%s", userID)
}

// userModelToResponse converts a user model to its response DTO
func userModelToResponse(user *models.User) *UserResponse {
	resp := &UserResponse{
		ID:        user.ID.String(),
		Name:      user.Name,
		Email:     user.Email,
		Role:      string(user.Role),
		Status:    user.Status,
		CreatedAt: user.CreatedAt.Format(time.RFC3339),
	}
	if user.LastLogin != nil {
		lastLogin := user.LastLogin.Format(time.RFC3339)
		resp.LastLogin = &lastLogin
	}
	return resp
}
