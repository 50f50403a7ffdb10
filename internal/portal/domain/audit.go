package domain

import "time"

// Audit actor types.
const (
	ActorUser   = "user"
	ActorAdmin  = "admin"
	ActorSystem = "system"
)

// Audit action names recorded by the authentication flows.
const (
	ActionLogin                  = "login"
	ActionLogout                 = "logout"
	ActionRegister               = "local_user_registered"
	ActionMFASetup               = "mfa_setup"
	ActionMFAEnabled             = "mfa_enabled"
	ActionMFADisabled            = "mfa_disabled"
	ActionMFAVerificationFailed  = "mfa_verification_failed"
	ActionBackupCodesRegenerated = "backup_codes_regenerated"
	ActionPasswordResetRequested = "password_reset_requested"
	ActionPasswordResetCompleted = "password_reset_completed"
	ActionOAuthUserCreated       = "oauth_user_created"
)

// AuditEntry is one append-only audit trail record. Exactly one of UserID
// or AdminID is set, or neither for system events.
type AuditEntry struct {
	ID           string
	UserID       *string
	AdminID      *string
	UserType     string // "user", "admin" or "system"
	Action       string
	Resource     *string
	ResourceID   *string
	Details      map[string]any // marshalled to JSON at the store boundary
	IPAddress    string
	UserAgent    string
	Success      bool
	ErrorMessage *string
	CreatedAt    time.Time
}
