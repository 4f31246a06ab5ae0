package models

import (
	"time"

	"github.com/google/uuid"
)

// Action types for audit logging
const (
	AuditActionLogin        = "LOGIN"
	AuditActionRegister     = "REGISTER"
	AuditActionTransfer     = "TRANSFER"
	AuditActionDeposit      = "DEPOSIT"
	AuditActionDeleteUser   = "DELETE_USER"
	AuditActionUpdateUser   = "UPDATE_USER"
	AuditActionUnauthorized = "UNAUTHORIZED"
)

// Audit entry statuses
const (
	AuditStatusSuccess = "Success"
	AuditStatusFailed  = "Failed"
)

// AuditLog is one append-only entry in the security audit trail. Every
// mutating operation attempt produces exactly one entry, success or failure.
type AuditLog struct {
	ID         uuid.UUID
	UserID     *uuid.UUID
	UserName   string
	RoleName   string
	ActionType string
	Status     string
	Message    string
	IPAddress  string
	CreatedAt  time.Time
}
