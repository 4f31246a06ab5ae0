package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Account holds a user's balance. Balance is a fixed-point currency amount
// with two fractional digits and never goes below zero at a committed
// transaction boundary.
type Account struct {
	ID            uuid.UUID
	UserID        uuid.UUID
	AccountNumber string
	Balance       decimal.Decimal
	CreatedAt     time.Time
}

// CustomerAccount is the manager view of an account joined with its owner.
type CustomerAccount struct {
	Account
	OwnerName  string
	OwnerEmail string
}

// ValidAmount reports whether amount is usable for a transfer or deposit:
// strictly positive with at most two decimal places.
func ValidAmount(amount decimal.Decimal) bool {
	return amount.IsPositive() && amount.Exponent() >= -2
}
