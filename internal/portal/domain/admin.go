package domain

import "time"

// Admin roles.
const (
	RoleAdmin   = "admin"
	RoleSupport = "support"
)

// AdminUser is an internal operator account. Admins always authenticate
// locally and MFA is mandatory for them.
type AdminUser struct {
	ID           string
	Email        string // unique
	Name         string
	Role         string // "admin" or "support"
	CredentialID string // Foreign key to credentials table, never null
	Active       bool
	LastLogin    *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
