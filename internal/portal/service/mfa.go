package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/copperfort/deskauth/internal/portal/domain"
	"github.com/copperfort/deskauth/internal/portal/session"
	"github.com/copperfort/deskauth/internal/portal/store"
	"github.com/copperfort/deskauth/pkg/cryptox"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

const (
	backupCodeCount = 10
	totpSecretSize  = 20 // 160-bit secret
	totpPeriod      = 30
	totpSkew        = 1 // accept one step either side
)

// validateTOTP checks a 6-digit code against the secret at the given time,
// with a one-step window in both directions.
func validateTOTP(code, secret string, at time.Time) bool {
	valid, err := totp.ValidateCustom(code, secret, at, totp.ValidateOpts{
		Period:    totpPeriod,
		Skew:      totpSkew,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	return err == nil && valid
}

// MFAService handles TOTP enrollment, backup codes and the admin
// first-login setup flow.
type MFAService struct {
	Store     store.Store
	Pending   session.Store
	Directory *Directory
	Audit     *AuditService
	Clock     Clock
	Issuer    string // Issuer name for TOTP (e.g., "Copperfort Desk")
}

// issuerFor appends the admin marker so operator enrollments are
// distinguishable in the authenticator app.
func (s *MFAService) issuerFor(p domain.Principal) string {
	if p.IsPrivileged() {
		return s.Issuer + " Admin"
	}
	return s.Issuer
}

// EnrollTOTP generates and stores a TOTP secret for the principal.
// This does NOT enable MFA yet; the principal must verify a code first.
func (s *MFAService) EnrollTOTP(ctx context.Context, principal domain.Principal) (domain.MFAEnrollResponse, error) {
	cred := principal.Credential()
	if cred.HasMFA() {
		return domain.MFAEnrollResponse{}, ErrMFAAlreadyEnabled
	}

	issuer := s.issuerFor(principal)
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      issuer,
		AccountName: principal.DisplayEmail(),
		Period:      totpPeriod,
		SecretSize:  totpSecretSize,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return domain.MFAEnrollResponse{}, fmt.Errorf("generate TOTP key: %w", err)
	}

	if err := s.Store.Credentials().UpdateMFASecret(ctx, cred.ID, key.Secret()); err != nil {
		return domain.MFAEnrollResponse{}, fmt.Errorf("store MFA secret: %w", err)
	}

	return domain.MFAEnrollResponse{
		Secret:  key.Secret(),
		QRCode:  key.URL(),
		Issuer:  issuer,
		Account: principal.DisplayEmail(),
	}, nil
}

// ActivateTOTP verifies a code against the enrolled secret, enables MFA and
// returns the freshly generated backup codes. The codes are shown exactly
// once; only their fingerprints are stored.
func (s *MFAService) ActivateTOTP(ctx context.Context, principal domain.Principal, code string, meta RequestMeta) ([]string, error) {
	cred := principal.Credential()
	if cred.MFASecret == nil || *cred.MFASecret == "" {
		return nil, ErrMFANotEnabled
	}
	if cred.MFAEnabled {
		return nil, ErrMFAAlreadyEnabled
	}

	if !validateTOTP(code, *cred.MFASecret, s.Clock.Now()) {
		s.Audit.LogPrincipal(ctx, principal, domain.ActionMFAVerificationFailed, false, "invalid_code", meta)
		return nil, ErrInvalidMFACode
	}

	codes, err := s.replaceBackupCodes(ctx, cred.ID, true)
	if err != nil {
		return nil, err
	}

	s.Audit.LogPrincipal(ctx, principal, domain.ActionMFAEnabled, true, "", meta)
	return codes, nil
}

// RegenerateBackupCodes replaces all backup codes after TOTP re-verification.
func (s *MFAService) RegenerateBackupCodes(ctx context.Context, principal domain.Principal, totpCode string, meta RequestMeta) ([]string, error) {
	if err := s.requireTOTP(ctx, principal, totpCode, meta); err != nil {
		return nil, err
	}

	codes, err := s.replaceBackupCodes(ctx, principal.Credential().ID, false)
	if err != nil {
		return nil, err
	}

	s.Audit.LogPrincipal(ctx, principal, domain.ActionBackupCodesRegenerated, true, "", meta)
	return codes, nil
}

// Disable turns MFA off after TOTP verification, clearing the secret and
// all backup codes. Principals with mandatory MFA cannot disable it.
func (s *MFAService) Disable(ctx context.Context, principal domain.Principal, totpCode string, meta RequestMeta) error {
	if principal.RequiresMandatoryMFA() {
		return ErrMFASetupRequired
	}
	if err := s.requireTOTP(ctx, principal, totpCode, meta); err != nil {
		return err
	}

	credID := principal.Credential().ID
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.BackupCodes().DeleteAllBackupCodes(ctx, credID); err != nil {
			return fmt.Errorf("delete backup codes: %w", err)
		}
		if err := tx.Credentials().DisableMFA(ctx, credID); err != nil {
			return fmt.Errorf("disable MFA: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.Audit.LogPrincipal(ctx, principal, domain.ActionMFADisabled, true, "", meta)
	return nil
}

// BeginPendingSetup starts the first-login enrollment for a pending handle
// flagged setup_required (admins without a configured secret).
func (s *MFAService) BeginPendingSetup(ctx context.Context, mfaToken string) (domain.MFAEnrollResponse, error) {
	principal, err := s.pendingPrincipal(ctx, mfaToken)
	if err != nil {
		return domain.MFAEnrollResponse{}, err
	}
	return s.EnrollTOTP(ctx, principal)
}

// CompletePendingSetup verifies the first code for a setup_required handle,
// enabling MFA and returning the backup codes. The login itself still
// finalizes through CompleteMFA.
func (s *MFAService) CompletePendingSetup(ctx context.Context, mfaToken, code string, meta RequestMeta) ([]string, error) {
	principal, err := s.pendingPrincipal(ctx, mfaToken)
	if err != nil {
		return nil, err
	}
	return s.ActivateTOTP(ctx, principal, code, meta)
}

func (s *MFAService) pendingPrincipal(ctx context.Context, mfaToken string) (domain.Principal, error) {
	pending, err := s.Pending.GetPending(ctx, mfaToken)
	if errors.Is(err, session.ErrNotFound) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, fmt.Errorf("lookup pending auth: %w", err)
	}
	if !pending.SetupRequired {
		return nil, ErrInvalidToken
	}
	return s.Directory.ResolveRef(ctx, pending.PrincipalKind, pending.PrincipalID)
}

// requireTOTP gates the sensitive MFA mutations on a fresh TOTP code.
// Backup codes are deliberately not accepted here.
func (s *MFAService) requireTOTP(ctx context.Context, principal domain.Principal, code string, meta RequestMeta) error {
	cred := principal.Credential()
	if !cred.HasMFA() {
		return ErrMFANotEnabled
	}
	if !validateTOTP(code, *cred.MFASecret, s.Clock.Now()) {
		s.Audit.LogPrincipal(ctx, principal, domain.ActionMFAVerificationFailed, false, "invalid_code", meta)
		return ErrInvalidMFACode
	}
	return nil
}

// replaceBackupCodes swaps the full code set in one transaction, optionally
// flipping mfa_enabled in the same step.
func (s *MFAService) replaceBackupCodes(ctx context.Context, credentialID string, enable bool) ([]string, error) {
	codes := make([]string, backupCodeCount)
	for i := range codes {
		code, err := cryptox.GenerateBackupCode()
		if err != nil {
			return nil, fmt.Errorf("generate backup code: %w", err)
		}
		codes[i] = code
	}

	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.BackupCodes().DeleteAllBackupCodes(ctx, credentialID); err != nil {
			return fmt.Errorf("delete old backup codes: %w", err)
		}
		for _, code := range codes {
			hash := cryptox.FingerprintToken(cryptox.NormalizeBackupCode(code))
			if err := tx.BackupCodes().CreateBackupCode(ctx, credentialID, hash); err != nil {
				return fmt.Errorf("store backup code: %w", err)
			}
		}
		if enable {
			if err := tx.Credentials().EnableMFA(ctx, credentialID); err != nil {
				return fmt.Errorf("enable MFA: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return codes, nil
}
