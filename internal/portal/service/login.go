package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/copperfort/deskauth/internal/portal/domain"
	"github.com/copperfort/deskauth/internal/portal/session"
	"github.com/copperfort/deskauth/internal/portal/store"
	"github.com/copperfort/deskauth/pkg/cryptox"
)

// maxMFAAttempts bounds failed verifications against one pending handle
// before the handle is destroyed and the login must restart.
const maxMFAAttempts = 5

// LoginResult is either a finalized session or an MFA challenge, never both.
type LoginResult struct {
	Session   *SessionGrant
	Challenge *domain.MFAChallengeResponse
}

// LoginService runs the local login state machine for both principal kinds.
// The password step ends in a session, a pending-MFA handle, or a failure;
// CompleteMFA moves a pending login to a session. Every attempt produces
// exactly one audit entry.
type LoginService struct {
	Store     store.Store
	Pending   session.Store
	Sessions  *SessionManager
	Directory *Directory
	Audit     *AuditService
	Clock     Clock
	Logger    *slog.Logger

	LockoutThreshold int
	LockoutDuration  time.Duration
	PendingTTL       time.Duration
}

// Login executes the password step.
func (s *LoginService) Login(ctx context.Context, kind, identifier, password string, rememberMe bool, meta RequestMeta) (LoginResult, error) {
	principal, err := s.Directory.ResolveLocal(ctx, kind, identifier)
	if errors.Is(err, ErrInvalidCredentials) {
		s.Audit.LogAnonymous(ctx, domain.ActionLogin, false, "user_not_found",
			map[string]any{"identifier": identifier, "kind": kind}, meta)
		return LoginResult{}, ErrInvalidCredentials
	}
	if errors.Is(err, ErrAuthMethodMismatch) {
		s.Audit.LogAnonymous(ctx, domain.ActionLogin, false, "auth_method_mismatch",
			map[string]any{"identifier": identifier, "kind": kind}, meta)
		return LoginResult{}, ErrAuthMethodMismatch
	}
	if err != nil {
		return LoginResult{}, err
	}

	cred := principal.Credential()
	now := s.Clock.Now()

	// Attempts during a lock still count, but the lock is never extended.
	if locked, _ := cred.Locked(now); locked {
		s.recordFailure(ctx, cred.ID)
		s.Audit.LogPrincipal(ctx, principal, domain.ActionLogin, false, "account_locked", meta)
		return LoginResult{}, ErrAccountLocked
	}

	if err := cryptox.VerifyPassword(password, cred.PasswordHash); err != nil {
		if !errors.Is(err, cryptox.ErrPasswordMismatch) {
			return LoginResult{}, fmt.Errorf("verify password: %w", err)
		}
		s.recordFailure(ctx, cred.ID)
		s.Audit.LogPrincipal(ctx, principal, domain.ActionLogin, false, "invalid_password", meta)
		return LoginResult{}, ErrInvalidCredentials
	}

	if !principal.IsActive() {
		s.Audit.LogPrincipal(ctx, principal, domain.ActionLogin, false, "account_deactivated", meta)
		return LoginResult{}, ErrAccountDeactivated
	}

	if companyID := principal.CompanyRef(); companyID != "" {
		company, err := s.Store.Companies().GetCompanyByID(ctx, companyID)
		if err != nil {
			return LoginResult{}, fmt.Errorf("lookup company: %w", err)
		}
		if !company.Active {
			s.Audit.LogPrincipal(ctx, principal, domain.ActionLogin, false, "company_deactivated", meta)
			return LoginResult{}, ErrCompanyDeactivated
		}
	}

	if err := s.Store.Credentials().ResetFailedAttempts(ctx, cred.ID); err != nil {
		return LoginResult{}, fmt.Errorf("reset failed attempts: %w", err)
	}

	// A principal with MFA, or one that must have it, never finalizes from
	// the password step alone.
	switch {
	case cred.HasMFA():
		return s.challenge(ctx, principal, rememberMe, false)
	case principal.RequiresMandatoryMFA():
		return s.challenge(ctx, principal, rememberMe, true)
	default:
		return s.finalize(ctx, principal, rememberMe, false, meta)
	}
}

// CompleteMFA moves a pending login through the MFA step. TOTP is tried
// first, then backup codes. The handle is consumed only on success.
func (s *LoginService) CompleteMFA(ctx context.Context, mfaToken, code string, meta RequestMeta) (LoginResult, error) {
	pending, err := s.Pending.GetPending(ctx, mfaToken)
	if errors.Is(err, session.ErrNotFound) {
		return LoginResult{}, ErrInvalidToken
	}
	if err != nil {
		return LoginResult{}, fmt.Errorf("lookup pending auth: %w", err)
	}

	principal, err := s.Directory.ResolveRef(ctx, pending.PrincipalKind, pending.PrincipalID)
	if err != nil {
		return LoginResult{}, fmt.Errorf("resolve pending principal: %w", err)
	}

	cred := principal.Credential()
	if pending.SetupRequired && !cred.HasMFA() {
		return LoginResult{}, ErrMFASetupRequired
	}
	if !cred.HasMFA() {
		return LoginResult{}, ErrMFANotEnabled
	}

	if !s.verifySecondFactor(ctx, cred, code) {
		s.Audit.LogPrincipal(ctx, principal, domain.ActionMFAVerificationFailed, false, "invalid_code", meta)

		updated, err := s.Pending.IncrementPendingAttempts(ctx, mfaToken)
		if err == nil && updated.Attempts >= maxMFAAttempts {
			_ = s.Pending.DeletePending(ctx, mfaToken)
			return LoginResult{}, ErrMFAAttemptsExceeded
		}
		return LoginResult{}, ErrInvalidMFACode
	}

	if err := s.Pending.DeletePending(ctx, mfaToken); err != nil {
		return LoginResult{}, fmt.Errorf("consume pending auth: %w", err)
	}
	return s.finalize(ctx, principal, pending.RememberMe, true, meta)
}

// Logout destroys the session and records the event.
func (s *LoginService) Logout(ctx context.Context, token string, meta RequestMeta) error {
	sess, err := s.Sessions.Get(ctx, token)
	if errors.Is(err, session.ErrNotFound) {
		return nil // already gone, nothing to record
	}
	if err != nil {
		return fmt.Errorf("lookup session: %w", err)
	}

	if err := s.Sessions.Revoke(ctx, token); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}

	principal, err := s.Directory.ResolveRef(ctx, sess.PrincipalKind, sess.PrincipalID)
	if err != nil {
		s.Logger.Warn("logout: principal no longer resolvable", "error", err)
		return nil
	}
	s.Audit.LogPrincipal(ctx, principal, domain.ActionLogout, true, "", meta)
	return nil
}

// challenge parks the login in the pending-MFA state and returns the opaque
// handle the client must present to CompleteMFA.
func (s *LoginService) challenge(ctx context.Context, principal domain.Principal, rememberMe, setupRequired bool) (LoginResult, error) {
	token, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return LoginResult{}, fmt.Errorf("generate mfa token: %w", err)
	}

	now := s.Clock.Now()
	pending := domain.PendingAuthentication{
		PrincipalKind: principal.Kind(),
		PrincipalID:   principal.PrincipalID(),
		RememberMe:    rememberMe,
		SetupRequired: setupRequired,
		CreatedAt:     now,
		ExpiresAt:     now.Add(s.PendingTTL),
	}
	if err := s.Pending.CreatePending(ctx, token, pending); err != nil {
		return LoginResult{}, fmt.Errorf("store pending auth: %w", err)
	}

	methods := []string{"totp", "backup_codes"}
	if setupRequired {
		methods = []string{"totp"}
	}
	return LoginResult{
		Challenge: &domain.MFAChallengeResponse{
			MFARequired:   true,
			MFAToken:      token,
			Methods:       methods,
			SetupRequired: setupRequired,
		},
	}, nil
}

// finalize stamps last_login, issues the session and writes the success
// audit entry.
func (s *LoginService) finalize(ctx context.Context, principal domain.Principal, rememberMe, mfaVerified bool, meta RequestMeta) (LoginResult, error) {
	switch principal.Kind() {
	case domain.PrincipalAdmin:
		err := s.Store.Admins().UpdateLastLogin(ctx, principal.PrincipalID())
		if err != nil {
			return LoginResult{}, fmt.Errorf("update last login: %w", err)
		}
	default:
		err := s.Store.Users().UpdateLastLogin(ctx, principal.PrincipalID())
		if err != nil {
			return LoginResult{}, fmt.Errorf("update last login: %w", err)
		}
	}

	grant, err := s.Sessions.Issue(ctx, principal.Kind(), principal.PrincipalID(), mfaVerified, rememberMe)
	if err != nil {
		return LoginResult{}, err
	}

	s.Audit.LogPrincipal(ctx, principal, domain.ActionLogin, true, "", meta)
	return LoginResult{Session: &grant}, nil
}

// verifySecondFactor checks a TOTP code, falling back to the backup-code
// set. Backup codes are consumed by the check itself.
func (s *LoginService) verifySecondFactor(ctx context.Context, cred *domain.Credential, code string) bool {
	code = strings.ReplaceAll(strings.TrimSpace(code), " ", "")

	if validateTOTP(code, *cred.MFASecret, s.Clock.Now()) {
		return true
	}

	hash := cryptox.FingerprintToken(cryptox.NormalizeBackupCode(code))
	consumed, err := s.Store.BackupCodes().ConsumeBackupCode(ctx, cred.ID, hash)
	if err != nil {
		s.Logger.Error("backup code check failed", "error", err)
		return false
	}
	return consumed
}

// recordFailure bumps the failure counter atomically; the lock decision
// happens in the store so concurrent failures never under-count.
func (s *LoginService) recordFailure(ctx context.Context, credentialID string) {
	_, err := s.Store.Credentials().IncrementFailedAttempts(ctx, credentialID, s.LockoutThreshold, s.LockoutDuration)
	if err != nil {
		s.Logger.Error("failed to record login failure", "error", err)
	}
}
