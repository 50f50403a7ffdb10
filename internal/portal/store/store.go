package store

import (
	"context"
	"errors"
	"time"

	"github.com/copperfort/deskauth/internal/portal/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite for now)
// implement this. It exposes sub-repositories to keep concerns tidy and
// testable, and to actively stop callers from accidentally opening
// transactions within transactions.
type Store interface {
	Companies() Companies
	Users() Users
	Admins() Admins
	Credentials() Credentials
	BackupCodes() BackupCodes
	PasswordHistory() PasswordHistory
	AuditLogs() AuditLogs

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Companies interface {
	// GetCompanyByID returns a company by id.
	GetCompanyByID(ctx context.Context, id string) (domain.Company, error)

	// ListActiveCompanies returns all active companies, used for email-domain
	// resolution during OAuth login and registration.
	ListActiveCompanies(ctx context.Context) ([]domain.Company, error)

	// CreateCompany inserts a new company (id provided via ULID).
	CreateCompany(ctx context.Context, c domain.Company) error

	// UpdateCompany replaces the mutable fields and bumps updated_at.
	UpdateCompany(ctx context.Context, c domain.Company) error
}

type Users interface {
	// GetUserByID returns a user by id.
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByEmail looks a user up by its lowercase email.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// GetUserByOAuth looks a user up by (provider, provider subject id).
	GetUserByOAuth(ctx context.Context, provider, oauthID string) (domain.User, error)

	// GetUserByCredentialID returns the local-auth user owning a credential.
	GetUserByCredentialID(ctx context.Context, credentialID string) (domain.User, error)

	// CreateUser inserts a new user (id provided via ULID).
	CreateUser(ctx context.Context, u domain.User) error

	// UpdateName refreshes the display name and bumps updated_at.
	UpdateName(ctx context.Context, userID, name string) error

	// SetActive toggles whether the account may authenticate.
	SetActive(ctx context.Context, userID string, active bool) error

	// UpdateLastLogin stamps last_login.
	UpdateLastLogin(ctx context.Context, userID string) error
}

type Admins interface {
	// GetAdminByID returns an admin by id.
	GetAdminByID(ctx context.Context, id string) (domain.AdminUser, error)

	// GetAdminByCredentialID returns the admin owning a credential.
	GetAdminByCredentialID(ctx context.Context, credentialID string) (domain.AdminUser, error)

	// CreateAdmin inserts a new admin (id provided via ULID).
	CreateAdmin(ctx context.Context, a domain.AdminUser) error

	// SetActive toggles whether the admin may authenticate.
	SetActive(ctx context.Context, adminID string, active bool) error

	// UpdateLastLogin stamps last_login.
	UpdateLastLogin(ctx context.Context, adminID string) error
}

type Credentials interface {
	// GetCredentialByID returns a credential by id.
	GetCredentialByID(ctx context.Context, id string) (domain.Credential, error)

	// GetCredentialByUsername is the primary login lookup.
	GetCredentialByUsername(ctx context.Context, username string) (domain.Credential, error)

	// GetCredentialByResetTokenHash finds the credential holding an active
	// reset token fingerprint.
	GetCredentialByResetTokenHash(ctx context.Context, hash string) (domain.Credential, error)

	// CreateCredential inserts a new credential (id provided via ULID).
	CreateCredential(ctx context.Context, c domain.Credential) error

	// IncrementFailedAttempts bumps the counter in place and sets locked_until
	// when the new count reaches threshold and no lock is already active.
	// Returns the updated credential. The increment is a single SQL statement
	// so concurrent failures never under-count.
	IncrementFailedAttempts(ctx context.Context, id string, threshold int, lockDuration time.Duration) (domain.Credential, error)

	// ResetFailedAttempts zeroes the counter and clears locked_until.
	ResetFailedAttempts(ctx context.Context, id string) error

	// UpdatePasswordHash sets the password_hash and password_changed_at.
	UpdatePasswordHash(ctx context.Context, id, newHash string) error

	// UpdateMFASecret stores a provisioned (not yet enabled) TOTP secret.
	UpdateMFASecret(ctx context.Context, id, secret string) error

	// EnableMFA flips mfa_enabled after a verified enrollment.
	EnableMFA(ctx context.Context, id string) error

	// DisableMFA clears the secret and the enabled flag.
	DisableMFA(ctx context.Context, id string) error

	// SetResetToken stores a reset token fingerprint and expiry, replacing
	// any previous token.
	SetResetToken(ctx context.Context, id, tokenHash string, expiresAt time.Time) error

	// ClearResetToken removes the active reset token.
	ClearResetToken(ctx context.Context, id string) error

	// ClearExpiredResetTokens is housekeeping.
	ClearExpiredResetTokens(ctx context.Context) error
}

type BackupCodes interface {
	// CreateBackupCode stores a backup code hash for a credential.
	CreateBackupCode(ctx context.Context, credentialID, codeHash string) error

	// ConsumeBackupCode deletes the matching code in one statement and
	// reports whether a row was removed. This is the single-use guarantee.
	ConsumeBackupCode(ctx context.Context, credentialID, codeHash string) (bool, error)

	// DeleteAllBackupCodes removes all codes for a credential.
	DeleteAllBackupCodes(ctx context.Context, credentialID string) error

	// CountBackupCodes returns the number of remaining codes.
	CountBackupCodes(ctx context.Context, credentialID string) (int, error)
}

type PasswordHistory interface {
	// AppendPasswordHistory records a hash the credential has used.
	AppendPasswordHistory(ctx context.Context, credentialID, passwordHash string) error

	// ListRecentPasswordHashes returns the most recent n hashes, newest first.
	ListRecentPasswordHashes(ctx context.Context, credentialID string, n int) ([]string, error)
}

type AuditLogs interface {
	// AppendAuditEntry writes one audit row. The audit log is append-only;
	// no update or delete methods exist.
	AppendAuditEntry(ctx context.Context, e domain.AuditEntry) error

	// ListAuditEntries returns recent entries, newest first, for inspection.
	ListAuditEntries(ctx context.Context, limit int) ([]domain.AuditEntry, error)
}
