package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/ironvault/ironvault/internal/models"
	"github.com/ironvault/ironvault/internal/services"
	pkghttp "github.com/ironvault/ironvault/pkg/http"
)

// AccountResponse represents an account in the HTTP response. Balances travel
// as fixed-point decimal strings, never floats.
type AccountResponse struct {
	ID            string `json:"id"`
	AccountNumber string `json:"account_number"`
	Balance       string `json:"balance"`
	CreatedAt     string `json:"created_at"`
}

// CustomerAccountResponse is the manager view of an account with its owner
type CustomerAccountResponse struct {
	AccountResponse
	OwnerName  string `json:"owner_name"`
	OwnerEmail string `json:"owner_email"`
}

// TransactionResponse represents a transaction as seen by the requesting actor
type TransactionResponse struct {
	ID          string `json:"id"`
	Amount      string `json:"amount"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Direction   string `json:"direction"`
	CreatedAt   string `json:"created_at"`
}

// AuditLogResponse represents one audit trail entry
type AuditLogResponse struct {
	ID         string `json:"id"`
	UserID     string `json:"user_id,omitempty"`
	UserName   string `json:"user_name"`
	RoleName   string `json:"role_name"`
	ActionType string `json:"action_type"`
	Status     string `json:"status"`
	Message    string `json:"message"`
	IPAddress  string `json:"ip_address"`
	CreatedAt  string `json:"created_at"`
}

func accountToResponse(account *models.Account) AccountResponse {
	return AccountResponse{
		ID:            account.ID.String(),
		AccountNumber: account.AccountNumber,
		Balance:       account.Balance.StringFixed(2),
		CreatedAt:     account.CreatedAt.Format(time.RFC3339),
	}
}

func customerAccountToResponse(account *models.CustomerAccount) CustomerAccountResponse {
	return CustomerAccountResponse{
		AccountResponse: accountToResponse(&account.Account),
		OwnerName:       account.OwnerName,
		OwnerEmail:      account.OwnerEmail,
	}
}

func transactionViewToResponse(view *models.TransactionView) TransactionResponse {
	return TransactionResponse{
		ID:          view.ID.String(),
		Amount:      view.Amount.StringFixed(2),
		Type:        view.Type,
		Description: view.Description,
		Direction:   view.Direction,
		CreatedAt:   view.CreatedAt.Format(time.RFC3339),
	}
}

func auditLogToResponse(entry *models.AuditLog) AuditLogResponse {
	resp := AuditLogResponse{
		ID:         entry.ID.String(),
		UserName:   entry.UserName,
		RoleName:   entry.RoleName,
		ActionType: entry.ActionType,
		Status:     entry.Status,
		Message:    entry.Message,
		IPAddress:  entry.IPAddress,
		CreatedAt:  entry.CreatedAt.Format(time.RFC3339),
	}
	if entry.UserID != nil {
		resp.UserID = entry.UserID.String()
	}
	return resp
}

func userToResponse(user *models.User) *services.UserResponse {
	resp := &services.UserResponse{
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

// writeServiceError maps a service error onto its HTTP response. Every
// outcome is a single human-readable message; internal detail never reaches
// the client.
func writeServiceError(w http.ResponseWriter, err error) {
	var validationErr *models.ValidationError
	var lockedErr *models.AccountLockedError

	switch {
	case errors.As(err, &validationErr):
		pkghttp.WriteBadRequest(w, validationErr.Error())
	case errors.As(err, &lockedErr):
		pkghttp.WriteTooManyRequests(w, lockedErr.Error())
	case errors.Is(err, models.ErrInvalidCredentials), errors.Is(err, models.ErrUnauthorized):
		pkghttp.WriteUnauthorized(w, "Authentication failed")
	case errors.Is(err, models.ErrForbidden):
		pkghttp.WriteForbidden(w, "Unauthorized")
	case errors.Is(err, models.ErrDuplicateEmail), errors.Is(err, models.ErrConflict):
		pkghttp.WriteConflict(w, models.ErrDuplicateEmail.Error())
	case errors.Is(err, models.ErrInvalidAmount),
		errors.Is(err, models.ErrInsufficientFunds),
		errors.Is(err, models.ErrSelfTransfer):
		pkghttp.WriteUnprocessable(w, err.Error())
	case errors.Is(err, models.ErrReceiverNotFound),
		errors.Is(err, models.ErrAccountNotFound),
		errors.Is(err, models.ErrNotFound):
		pkghttp.WriteNotFound(w, err.Error())
	default:
		pkghttp.WriteInternalError(w, "Internal server error")
	}
}
