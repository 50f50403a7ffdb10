package domain

import (
	"strings"
	"time"
)

// Auth types for portal users. AuthType is fixed at account creation and
// never changes.
const (
	AuthTypeLocal = "local"
	AuthTypeOAuth = "oauth"
)

// OAuth providers supported for user sign-in.
const (
	ProviderMicrosoft = "microsoft"
	ProviderGoogle    = "google"
)

// User is an organisation member of the support portal.
type User struct {
	ID            string
	CompanyID     string // Foreign key to companies table
	Email         string // stored lowercase, unique
	Name          string
	AuthType      string  // "local" or "oauth"
	OAuthProvider *string // nullable, set iff AuthType == "oauth"
	OAuthID       *string // provider-scoped subject id
	CredentialID  *string // nullable, set iff AuthType == "local"
	Active        bool
	EmailVerified bool
	LastLogin     *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// IsLocal reports whether the user authenticates with a password.
func (u *User) IsLocal() bool { return u.AuthType == AuthTypeLocal }

// NormalizeEmail lowercases and trims an address; emails are stored and
// compared in this form everywhere.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
