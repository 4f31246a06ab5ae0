package models

import (
	"time"

	"github.com/google/uuid"
)

// Role is the access level assigned to a user.
type Role string

const (
	RoleAdmin    Role = "Admin"
	RoleCustomer Role = "Customer"
	RoleManager  Role = "Manager"
)

// ValidRole reports whether r is one of the known roles.
func ValidRole(r Role) bool {
	switch r {
	case RoleAdmin, RoleCustomer, RoleManager:
		return true
	}
	return false
}

// User account statuses
const (
	StatusActive    = "Active"
	StatusSuspended = "Suspended"
)

// ValidStatus reports whether s is a known account status.
func ValidStatus(s string) bool {
	return s == StatusActive || s == StatusSuspended
}

type User struct {
	ID           uuid.UUID
	Name         string
	Email        string
	PasswordHash string
	PasswordSalt string
	Role         Role
	Status       string
	LastLogin    *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
