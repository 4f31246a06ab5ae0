package handlers

import (
	"context"
	"net/http"

	"github.com/ironvault/ironvault/internal/auth"
	"github.com/ironvault/ironvault/internal/models"
	pkghttp "github.com/ironvault/ironvault/pkg/http"
)

// AccountServiceInterface defines the interface for ledger reads
type AccountServiceInterface interface {
	ListAccounts(ctx context.Context, actor auth.Actor) ([]*models.Account, error)
	ListTransactions(ctx context.Context, actor auth.Actor) ([]*models.TransactionView, error)
	ListAllCustomerAccounts(ctx context.Context, actor auth.Actor) ([]*models.CustomerAccount, error)
}

// AccountHandler handles account and transaction view HTTP requests
type AccountHandler struct {
	service AccountServiceInterface
}

// NewAccountHandler creates a new AccountHandler
func NewAccountHandler(service AccountServiceInterface) *AccountHandler {
	return &AccountHandler{service: service}
}

// ListAccounts returns the actor's own accounts
func (h *AccountHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.ActorFromContext(r.Context())
	if !ok {
		pkghttp.WriteUnauthorized(w, "Unauthorized")
		return
	}

	accounts, err := h.service.ListAccounts(r.Context(), actor)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	resp := make([]AccountResponse, 0, len(accounts))
	for _, account := range accounts {
		resp = append(resp, accountToResponse(account))
	}
	pkghttp.WriteJSON(w, http.StatusOK, resp)
}

// ListTransactions returns the actor's transaction history
func (h *AccountHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.ActorFromContext(r.Context())
	if !ok {
		pkghttp.WriteUnauthorized(w, "Unauthorized")
		return
	}

	views, err := h.service.ListTransactions(r.Context(), actor)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	resp := make([]TransactionResponse, 0, len(views))
	for _, view := range views {
		resp = append(resp, transactionViewToResponse(view))
	}
	pkghttp.WriteJSON(w, http.StatusOK, resp)
}

// ListAllCustomerAccounts returns every customer account for the manager view
func (h *AccountHandler) ListAllCustomerAccounts(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.ActorFromContext(r.Context())
	if !ok {
		pkghttp.WriteUnauthorized(w, "Unauthorized")
		return
	}

	accounts, err := h.service.ListAllCustomerAccounts(r.Context(), actor)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	resp := make([]CustomerAccountResponse, 0, len(accounts))
	for _, account := range accounts {
		resp = append(resp, customerAccountToResponse(account))
	}
	pkghttp.WriteJSON(w, http.StatusOK, resp)
}
