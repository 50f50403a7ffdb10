package domain

import "time"

// Credential holds the local password state shared by users and admins:
// the argon2 hash, TOTP material, the failure counter and any active
// reset token. Exactly one credential exists per local principal.
type Credential struct {
	ID           string
	Username     string // unique login name
	PasswordHash string // argon2 encoded

	MFASecret  *string // TOTP secret (nullable, base32 encoded)
	MFAEnabled bool    // true only after a verified enrollment

	FailedAttempts int
	LockedUntil    *time.Time

	ResetTokenHash *string // sha256 fingerprint of the active reset token
	ResetExpiresAt *time.Time

	PasswordChangedAt time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Locked reports whether the credential is currently locked out, and if so
// when the lock expires.
func (c *Credential) Locked(now time.Time) (bool, time.Time) {
	if c.LockedUntil == nil || !now.Before(*c.LockedUntil) {
		return false, time.Time{}
	}
	return true, *c.LockedUntil
}

// RecordFailure increments the failure counter and, once the counter reaches
// threshold, sets the lock. An existing lock is never extended: failures
// during a lock still count but the unlock time stays put.
func (c *Credential) RecordFailure(now time.Time, threshold int, duration time.Duration) {
	c.FailedAttempts++

	if locked, _ := c.Locked(now); locked {
		return
	}
	if c.FailedAttempts >= threshold {
		until := now.Add(duration)
		c.LockedUntil = &until
	}
}

// RecordSuccess clears the failure counter and any lock.
func (c *Credential) RecordSuccess() {
	c.FailedAttempts = 0
	c.LockedUntil = nil
}

// HasMFA reports whether TOTP is fully enrolled.
func (c *Credential) HasMFA() bool {
	return c.MFAEnabled && c.MFASecret != nil && *c.MFASecret != ""
}

// ResetTokenValid reports whether the stored reset fingerprint matches and
// has not expired.
func (c *Credential) ResetTokenValid(fingerprint string, now time.Time) bool {
	if c.ResetTokenHash == nil || c.ResetExpiresAt == nil {
		return false
	}
	return *c.ResetTokenHash == fingerprint && now.Before(*c.ResetExpiresAt)
}
