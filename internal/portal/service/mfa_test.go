package service

import (
	"context"
	"testing"
	"time"

	"github.com/copperfort/deskauth/internal/portal/domain"
	"github.com/stretchr/testify/require"
)

func TestEnrollAndActivateTOTP(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	company := env.createCompany(t, "example.com", true)
	user, cred := env.createLocalUser(t, company.ID, "alice@example.com", testPassword)

	secret, codes := env.enableTOTP(t, domain.PrincipalUser, user.ID)
	require.NotEmpty(t, secret)
	require.Len(t, codes, 10)
	for _, code := range codes {
		require.Regexp(t, `^[0-9A-F]{4}-[0-9A-F]{4}$`, code)
	}

	updated, err := env.Store.Credentials().GetCredentialByID(ctx, cred.ID)
	require.NoError(t, err)
	require.True(t, updated.MFAEnabled)
	require.NotNil(t, updated.MFASecret)
}

func TestEnrollRejectedWhenAlreadyEnabled(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	company := env.createCompany(t, "example.com", true)
	user, _ := env.createLocalUser(t, company.ID, "alice@example.com", testPassword)
	env.enableTOTP(t, domain.PrincipalUser, user.ID)

	principal, err := env.MFA.Directory.ResolveRef(ctx, domain.PrincipalUser, user.ID)
	require.NoError(t, err)

	_, err = env.MFA.EnrollTOTP(ctx, principal)
	require.ErrorIs(t, err, ErrMFAAlreadyEnabled)
}

func TestActivateRejectsWrongCode(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	company := env.createCompany(t, "example.com", true)
	user, cred := env.createLocalUser(t, company.ID, "alice@example.com", testPassword)

	principal, err := env.MFA.Directory.ResolveRef(ctx, domain.PrincipalUser, user.ID)
	require.NoError(t, err)
	_, err = env.MFA.EnrollTOTP(ctx, principal)
	require.NoError(t, err)

	principal, err = env.MFA.Directory.ResolveRef(ctx, domain.PrincipalUser, user.ID)
	require.NoError(t, err)
	_, err = env.MFA.ActivateTOTP(ctx, principal, "000000", testMeta)
	require.ErrorIs(t, err, ErrInvalidMFACode)

	updated, err := env.Store.Credentials().GetCredentialByID(ctx, cred.ID)
	require.NoError(t, err)
	require.False(t, updated.MFAEnabled)
}

func TestTOTPAcceptsAdjacentSteps(t *testing.T) {
	env := newTestEnv(t)

	company := env.createCompany(t, "example.com", true)
	user, _ := env.createLocalUser(t, company.ID, "alice@example.com", testPassword)
	secret, _ := env.enableTOTP(t, domain.PrincipalUser, user.ID)

	now := env.Clock.Now()

	prev := totpCodeAt(t, secret, now.Add(-totpPeriod*time.Second))
	require.True(t, validateTOTP(prev, secret, now))

	next := totpCodeAt(t, secret, now.Add(totpPeriod*time.Second))
	require.True(t, validateTOTP(next, secret, now))

	tooOld := totpCodeAt(t, secret, now.Add(-3*totpPeriod*time.Second))
	require.False(t, validateTOTP(tooOld, secret, now))
}

func TestRegenerateBackupCodesReplacesSet(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	company := env.createCompany(t, "example.com", true)
	user, cred := env.createLocalUser(t, company.ID, "alice@example.com", testPassword)
	secret, oldCodes := env.enableTOTP(t, domain.PrincipalUser, user.ID)

	principal, err := env.MFA.Directory.ResolveRef(ctx, domain.PrincipalUser, user.ID)
	require.NoError(t, err)

	newCodes, err := env.MFA.RegenerateBackupCodes(ctx, principal, env.totpCode(t, secret), testMeta)
	require.NoError(t, err)
	require.Len(t, newCodes, 10)
	require.NotEqual(t, oldCodes, newCodes)

	count, err := env.Store.BackupCodes().CountBackupCodes(ctx, cred.ID)
	require.NoError(t, err)
	require.Equal(t, 10, count)

	// Old codes no longer verify.
	result, err := env.Login.Login(ctx, domain.PrincipalUser, "alice@example.com", testPassword, false, testMeta)
	require.NoError(t, err)
	_, err = env.Login.CompleteMFA(ctx, result.Challenge.MFAToken, oldCodes[0], testMeta)
	require.ErrorIs(t, err, ErrInvalidMFACode)
}

func TestRegenerateRejectsBackupCodeAsGate(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	company := env.createCompany(t, "example.com", true)
	user, _ := env.createLocalUser(t, company.ID, "alice@example.com", testPassword)
	_, codes := env.enableTOTP(t, domain.PrincipalUser, user.ID)

	principal, err := env.MFA.Directory.ResolveRef(ctx, domain.PrincipalUser, user.ID)
	require.NoError(t, err)

	_, err = env.MFA.RegenerateBackupCodes(ctx, principal, codes[0], testMeta)
	require.ErrorIs(t, err, ErrInvalidMFACode)
}

func TestDisableMFA(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	company := env.createCompany(t, "example.com", true)
	user, cred := env.createLocalUser(t, company.ID, "alice@example.com", testPassword)
	secret, _ := env.enableTOTP(t, domain.PrincipalUser, user.ID)

	principal, err := env.MFA.Directory.ResolveRef(ctx, domain.PrincipalUser, user.ID)
	require.NoError(t, err)

	require.NoError(t, env.MFA.Disable(ctx, principal, env.totpCode(t, secret), testMeta))

	updated, err := env.Store.Credentials().GetCredentialByID(ctx, cred.ID)
	require.NoError(t, err)
	require.False(t, updated.MFAEnabled)
	require.Nil(t, updated.MFASecret)

	count, err := env.Store.BackupCodes().CountBackupCodes(ctx, cred.ID)
	require.NoError(t, err)
	require.Zero(t, count)
}

func TestAdminCannotDisableMFA(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	admin, _ := env.createAdmin(t, "root@copperfort.dev", testPassword)
	secret, _ := env.enableTOTP(t, domain.PrincipalAdmin, admin.ID)

	principal, err := env.MFA.Directory.ResolveRef(ctx, domain.PrincipalAdmin, admin.ID)
	require.NoError(t, err)

	err = env.MFA.Disable(ctx, principal, env.totpCode(t, secret), testMeta)
	require.ErrorIs(t, err, ErrMFASetupRequired)
}
