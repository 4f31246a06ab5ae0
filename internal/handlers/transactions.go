package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/ironvault/ironvault/internal/auth"
	"github.com/ironvault/ironvault/internal/models"
	pkghttp "github.com/ironvault/ironvault/pkg/http"
	"github.com/shopspring/decimal"
)

// TransferServiceInterface defines the interface for moving funds
type TransferServiceInterface interface {
	Transfer(ctx context.Context, actor auth.Actor, receiverNumber string, amount decimal.Decimal, ip string) (*models.Transaction, error)
	Deposit(ctx context.Context, actor auth.Actor, amount decimal.Decimal, ip string) (*models.Transaction, error)
}

// TransferHandler handles fund movement HTTP requests
type TransferHandler struct {
	service  TransferServiceInterface
	ipConfig *pkghttp.IPConfig
}

// NewTransferHandler creates a new TransferHandler
func NewTransferHandler(service TransferServiceInterface, ipConfig *pkghttp.IPConfig) *TransferHandler {
	return &TransferHandler{
		service:  service,
		ipConfig: ipConfig,
	}
}

// TransferRequest represents the request body for a transfer. Amount is a
// decimal string to keep exact cents across the wire.
type TransferRequest struct {
	ReceiverAccountNumber string `json:"receiver_account_number" validate:"required"`
	Amount                string `json:"amount" validate:"required"`
}

// DepositRequest represents the request body for a deposit
type DepositRequest struct {
	Amount string `json:"amount" validate:"required"`
}

// TransferOutcome represents the response for a committed movement of funds
type TransferOutcome struct {
	TransactionID string `json:"transaction_id"`
	Amount        string `json:"amount"`
	Type          string `json:"type"`
	Message       string `json:"message"`
}

// Transfer handles a peer-to-peer transfer from the actor's account
func (h *TransferHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.ActorFromContext(r.Context())
	if !ok {
		pkghttp.WriteUnauthorized(w, "Unauthorized")
		return
	}

	var req TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		pkghttp.WriteUnprocessable(w, models.ErrInvalidAmount.Error())
		return
	}

	ip := pkghttp.ExtractClientIP(r, h.ipConfig)
	txn, err := h.service.Transfer(r.Context(), actor, req.ReceiverAccountNumber, amount, ip)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, TransferOutcome{
		TransactionID: txn.ID.String(),
		Amount:        txn.Amount.StringFixed(2),
		Type:          txn.Type,
		Message:       "Transfer successful",
	})
}

// Deposit handles a cash deposit into the actor's account
func (h *TransferHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.ActorFromContext(r.Context())
	if !ok {
		pkghttp.WriteUnauthorized(w, "Unauthorized")
		return
	}

	var req DepositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		pkghttp.WriteUnprocessable(w, models.ErrInvalidAmount.Error())
		return
	}

	ip := pkghttp.ExtractClientIP(r, h.ipConfig)
	txn, err := h.service.Deposit(r.Context(), actor, amount, ip)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, TransferOutcome{
		TransactionID: txn.ID.String(),
		Amount:        txn.Amount.StringFixed(2),
		Type:          txn.Type,
		Message:       "Deposit successful",
	})
}
