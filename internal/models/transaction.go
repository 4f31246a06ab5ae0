package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Transaction types
const (
	TransactionTypeTransfer = "TRANSFER"
	TransactionTypeDeposit  = "DEPOSIT"
)

// Directions of a transaction relative to an observing actor
const (
	DirectionDebit  = "Debit"
	DirectionCredit = "Credit"
)

// Transaction is an immutable, append-only record of a committed movement of
// funds. SenderAccountID is nil for deposits.
type Transaction struct {
	ID                uuid.UUID
	SenderAccountID   *uuid.UUID
	ReceiverAccountID *uuid.UUID
	Amount            decimal.Decimal
	Type              string
	Description       string
	CreatedAt         time.Time
}

// TransactionView is a transaction as presented to an actor, with the
// Debit/Credit direction derived relative to the actor's own accounts.
type TransactionView struct {
	ID          uuid.UUID
	Amount      decimal.Decimal
	Type        string
	Description string
	Direction   string
	CreatedAt   time.Time
}
