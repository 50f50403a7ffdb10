package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/copperfort/deskauth/internal/portal/domain"
	"github.com/copperfort/deskauth/internal/portal/store"
	"github.com/copperfort/deskauth/pkg/cryptox"
)

// ResetNotifier delivers a reset token out of band. The default wiring logs
// the token for operator delivery; an SMTP notifier can replace it.
type ResetNotifier interface {
	SendPasswordReset(ctx context.Context, email, token string) error
}

// LogNotifier is the development notifier: the reset link only appears in
// the service log.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n *LogNotifier) SendPasswordReset(_ context.Context, email, token string) error {
	n.Logger.Info("password reset token issued", "email", email, "token", token)
	return nil
}

// ResetService implements the forgot-password flow: an enumeration-resistant
// request step and a single-use token redemption with history checks.
type ResetService struct {
	Store     store.Store
	Directory *Directory
	Audit     *AuditService
	Notifier  ResetNotifier
	Clock     Clock
	Logger    *slog.Logger

	TokenTTL     time.Duration
	HistoryCount int
	Policy       PasswordPolicy
}

// Request starts a reset. The outcome is uniform regardless of whether the
// email matches a local account; only matching accounts get a token.
func (s *ResetService) Request(ctx context.Context, email string, meta RequestMeta) error {
	email = domain.NormalizeEmail(email)

	user, err := s.Store.Users().GetUserByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		s.Logger.Debug("reset requested for unknown email")
		return nil
	}
	if err != nil {
		return fmt.Errorf("lookup user: %w", err)
	}
	if !user.IsLocal() || user.CredentialID == nil || !user.Active {
		s.Logger.Debug("reset requested for non-local or inactive account")
		return nil
	}

	token, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return fmt.Errorf("generate reset token: %w", err)
	}

	// Storing only the fingerprint; a new request overwrites any prior token.
	hash := cryptox.FingerprintToken(token)
	expires := s.Clock.Now().Add(s.TokenTTL)
	if err := s.Store.Credentials().SetResetToken(ctx, *user.CredentialID, hash, expires); err != nil {
		return fmt.Errorf("store reset token: %w", err)
	}

	if err := s.Notifier.SendPasswordReset(ctx, email, token); err != nil {
		s.Logger.Error("failed to deliver reset token", "error", err)
	}

	principal := &domain.UserPrincipal{User: &user, Cred: &domain.Credential{ID: *user.CredentialID}}
	s.Audit.LogPrincipal(ctx, principal, domain.ActionPasswordResetRequested, true, "", meta)
	return nil
}

// Redeem sets a new password for a valid token. The token is single-use:
// it is cleared in the same transaction as the password update.
func (s *ResetService) Redeem(ctx context.Context, token, newPassword string, meta RequestMeta) error {
	if err := s.Policy.Validate(newPassword); err != nil {
		return err
	}

	hash := cryptox.FingerprintToken(token)
	cred, err := s.Store.Credentials().GetCredentialByResetTokenHash(ctx, hash)
	if errors.Is(err, store.ErrNotFound) {
		return ErrInvalidOrExpiredToken
	}
	if err != nil {
		return fmt.Errorf("lookup reset token: %w", err)
	}
	if !cred.ResetTokenValid(hash, s.Clock.Now()) {
		return ErrInvalidOrExpiredToken
	}

	if err := s.checkHistory(ctx, cred, newPassword); err != nil {
		return err
	}

	newHash, err := cryptox.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Credentials().UpdatePasswordHash(ctx, cred.ID, newHash); err != nil {
			return fmt.Errorf("update password: %w", err)
		}
		if err := tx.PasswordHistory().AppendPasswordHistory(ctx, cred.ID, newHash); err != nil {
			return fmt.Errorf("append history: %w", err)
		}
		if err := tx.Credentials().ClearResetToken(ctx, cred.ID); err != nil {
			return fmt.Errorf("clear reset token: %w", err)
		}
		// A completed reset also clears any lockout.
		if err := tx.Credentials().ResetFailedAttempts(ctx, cred.ID); err != nil {
			return fmt.Errorf("reset failed attempts: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	principal, err := s.Directory.ResolveOwner(ctx, cred)
	if err != nil {
		s.Logger.Warn("reset completed for orphaned credential", "error", err)
		return nil
	}
	s.Audit.LogPrincipal(ctx, principal, domain.ActionPasswordResetCompleted, true, "", meta)
	return nil
}

// checkHistory rejects a candidate matching the current password or any of
// the last HistoryCount stored hashes.
func (s *ResetService) checkHistory(ctx context.Context, cred domain.Credential, candidate string) error {
	if err := cryptox.VerifyPassword(candidate, cred.PasswordHash); err == nil {
		return ErrPasswordReused
	}

	hashes, err := s.Store.PasswordHistory().ListRecentPasswordHashes(ctx, cred.ID, s.HistoryCount)
	if err != nil {
		return fmt.Errorf("list password history: %w", err)
	}
	for _, h := range hashes {
		if err := cryptox.VerifyPassword(candidate, h); err == nil {
			return ErrPasswordReused
		}
	}
	return nil
}
