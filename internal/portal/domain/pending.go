package domain

import "time"

// MFAChallengeResponse is returned when login pauses at the MFA step.
type MFAChallengeResponse struct {
	MFARequired   bool     `json:"mfa_required"` // always true
	MFAToken      string   `json:"mfa_token"`    // opaque pending-auth handle
	Methods       []string `json:"methods"`      // e.g. ["totp", "backup_codes"]
	SetupRequired bool     `json:"setup_required,omitempty"`
}

// PendingAuthentication is the record behind an mfa_token handle: a login
// that has passed the password step and is waiting on the second factor.
// The handle is single-use; it is consumed on the successful transition.
type PendingAuthentication struct {
	PrincipalKind string // PrincipalUser or PrincipalAdmin
	PrincipalID   string
	RememberMe    bool
	SetupRequired bool // admin first login, TOTP not yet enrolled
	Attempts      int  // failed verification attempts against this handle
	CreatedAt     time.Time
	ExpiresAt     time.Time
}

// Session is an authenticated browser session referenced by an opaque
// cookie handle.
type Session struct {
	PrincipalKind string
	PrincipalID   string
	MFAVerified   bool
	RememberMe    bool
	CreatedAt     time.Time
	ExpiresAt     time.Time
}
