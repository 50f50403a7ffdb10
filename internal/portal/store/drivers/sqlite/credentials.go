package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/copperfort/deskauth/internal/portal/domain"
)

type credentialsRepo struct {
	db dbtx
}

const credentialColumns = `id, username, password_hash, mfa_secret, mfa_enabled,
	failed_attempts, locked_until, reset_token_hash, reset_expires_at,
	password_changed_at, created_at, updated_at`

func scanCredential(row interface{ Scan(...any) error }) (domain.Credential, error) {
	var (
		c              domain.Credential
		mfaSecret      sql.NullString
		lockedUntil    sql.NullTime
		resetTokenHash sql.NullString
		resetExpiresAt sql.NullTime
	)
	err := row.Scan(
		&c.ID, &c.Username, &c.PasswordHash, &mfaSecret, &c.MFAEnabled,
		&c.FailedAttempts, &lockedUntil, &resetTokenHash, &resetExpiresAt,
		&c.PasswordChangedAt, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return domain.Credential{}, err
	}

	c.MFASecret = mapNullStringPtr(mfaSecret)
	c.LockedUntil = mapNullTimePtr(lockedUntil)
	c.ResetTokenHash = mapNullStringPtr(resetTokenHash)
	c.ResetExpiresAt = mapNullTimePtr(resetExpiresAt)
	return c, nil
}

func (r *credentialsRepo) GetCredentialByID(ctx context.Context, id string) (domain.Credential, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+credentialColumns+` FROM credentials WHERE id = ?`, id)

	c, err := scanCredential(row)
	if err != nil {
		return domain.Credential{}, mapNotFound(err)
	}
	return c, nil
}

func (r *credentialsRepo) GetCredentialByUsername(ctx context.Context, username string) (domain.Credential, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+credentialColumns+` FROM credentials WHERE username = ?`, username)

	c, err := scanCredential(row)
	if err != nil {
		return domain.Credential{}, mapNotFound(err)
	}
	return c, nil
}

func (r *credentialsRepo) GetCredentialByResetTokenHash(ctx context.Context, hash string) (domain.Credential, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+credentialColumns+` FROM credentials WHERE reset_token_hash = ?`, hash)

	c, err := scanCredential(row)
	if err != nil {
		return domain.Credential{}, mapNotFound(err)
	}
	return c, nil
}

func (r *credentialsRepo) CreateCredential(ctx context.Context, c domain.Credential) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO credentials (id, username, password_hash, mfa_secret, mfa_enabled,
			failed_attempts, locked_until, password_changed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)`,
		c.ID, c.Username, c.PasswordHash, mapOptionalString(c.MFASecret),
		c.MFAEnabled, c.FailedAttempts, mapOptionalTime(c.LockedUntil))
	return mapConstraint(err)
}

// IncrementFailedAttempts bumps the counter with a single in-place UPDATE so
// concurrent failures never under-count, then applies the lock decision. An
// already-active lock is left untouched.
func (r *credentialsRepo) IncrementFailedAttempts(
	ctx context.Context,
	id string,
	threshold int,
	lockDuration time.Duration,
) (domain.Credential, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE credentials
		SET failed_attempts = failed_attempts + 1, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`, id)
	if err != nil {
		return domain.Credential{}, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.Credential{}, mapNotFound(sql.ErrNoRows)
	}

	cred, err := r.GetCredentialByID(ctx, id)
	if err != nil {
		return domain.Credential{}, err
	}

	now := time.Now().UTC()
	if locked, _ := cred.Locked(now); !locked && cred.FailedAttempts >= threshold {
		until := now.Add(lockDuration)
		_, err := r.db.ExecContext(ctx, `
			UPDATE credentials SET locked_until = ?, updated_at = CURRENT_TIMESTAMP
			WHERE id = ?`, until, id)
		if err != nil {
			return domain.Credential{}, err
		}
		cred.LockedUntil = &until
	}

	return cred, nil
}

func (r *credentialsRepo) ResetFailedAttempts(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE credentials
		SET failed_attempts = 0, locked_until = NULL, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`, id)
	return err
}

func (r *credentialsRepo) UpdatePasswordHash(ctx context.Context, id, newHash string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE credentials
		SET password_hash = ?, password_changed_at = CURRENT_TIMESTAMP,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`, newHash, id)
	return err
}

func (r *credentialsRepo) UpdateMFASecret(ctx context.Context, id, secret string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE credentials SET mfa_secret = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`, secret, id)
	return err
}

func (r *credentialsRepo) EnableMFA(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE credentials SET mfa_enabled = 1, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`, id)
	return err
}

func (r *credentialsRepo) DisableMFA(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE credentials
		SET mfa_enabled = 0, mfa_secret = NULL, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`, id)
	return err
}

func (r *credentialsRepo) SetResetToken(ctx context.Context, id, tokenHash string, expiresAt time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE credentials
		SET reset_token_hash = ?, reset_expires_at = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`, tokenHash, expiresAt, id)
	return mapConstraint(err)
}

func (r *credentialsRepo) ClearResetToken(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE credentials
		SET reset_token_hash = NULL, reset_expires_at = NULL, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`, id)
	return err
}

func (r *credentialsRepo) ClearExpiredResetTokens(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE credentials
		SET reset_token_hash = NULL, reset_expires_at = NULL, updated_at = CURRENT_TIMESTAMP
		WHERE reset_expires_at IS NOT NULL AND reset_expires_at <= ?`, time.Now().UTC())
	return err
}
