package service

import (
	"context"
	"testing"
	"time"

	"github.com/copperfort/deskauth/internal/portal/domain"
	"github.com/stretchr/testify/require"
)

type captureNotifier struct {
	email string
	token string
	sent  int
}

func (n *captureNotifier) SendPasswordReset(_ context.Context, email, token string) error {
	n.email = email
	n.token = token
	n.sent++
	return nil
}

func (e *testEnv) requestReset(t *testing.T, email string) string {
	t.Helper()
	notifier := &captureNotifier{}
	e.Reset.Notifier = notifier
	require.NoError(t, e.Reset.Request(context.Background(), email, testMeta))
	require.Equal(t, 1, notifier.sent)
	return notifier.token
}

func TestResetRequestAndRedeem(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	company := env.createCompany(t, "example.com", true)
	_, cred := env.createLocalUser(t, company.ID, "alice@example.com", testPassword)

	token := env.requestReset(t, "alice@example.com")
	require.NotEmpty(t, token)

	// Only the fingerprint is stored.
	stored, err := env.Store.Credentials().GetCredentialByID(ctx, cred.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.ResetTokenHash)
	require.NotEqual(t, token, *stored.ResetTokenHash)

	newPassword := "brand new Passphrase 42"
	require.NoError(t, env.Reset.Redeem(ctx, token, newPassword, testMeta))

	result, err := env.Login.Login(ctx, domain.PrincipalUser, "alice@example.com", newPassword, false, testMeta)
	require.NoError(t, err)
	require.NotNil(t, result.Session)

	_, err = env.Login.Login(ctx, domain.PrincipalUser, "alice@example.com", testPassword, false, testMeta)
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestResetTokenSingleUse(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	company := env.createCompany(t, "example.com", true)
	env.createLocalUser(t, company.ID, "alice@example.com", testPassword)

	token := env.requestReset(t, "alice@example.com")
	require.NoError(t, env.Reset.Redeem(ctx, token, "brand new Passphrase 42", testMeta))

	err := env.Reset.Redeem(ctx, token, "another new Passphrase 43", testMeta)
	require.ErrorIs(t, err, ErrInvalidOrExpiredToken)
}

func TestResetTokenExpires(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	company := env.createCompany(t, "example.com", true)
	env.createLocalUser(t, company.ID, "alice@example.com", testPassword)

	token := env.requestReset(t, "alice@example.com")
	env.Clock.Advance(time.Hour + time.Minute)

	err := env.Reset.Redeem(ctx, token, "brand new Passphrase 42", testMeta)
	require.ErrorIs(t, err, ErrInvalidOrExpiredToken)
}

func TestResetNewRequestReplacesToken(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	company := env.createCompany(t, "example.com", true)
	env.createLocalUser(t, company.ID, "alice@example.com", testPassword)

	first := env.requestReset(t, "alice@example.com")
	second := env.requestReset(t, "alice@example.com")
	require.NotEqual(t, first, second)

	err := env.Reset.Redeem(ctx, first, "brand new Passphrase 42", testMeta)
	require.ErrorIs(t, err, ErrInvalidOrExpiredToken)

	require.NoError(t, env.Reset.Redeem(ctx, second, "brand new Passphrase 42", testMeta))
}

func TestResetRejectsReusedPassword(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	company := env.createCompany(t, "example.com", true)
	env.createLocalUser(t, company.ID, "alice@example.com", testPassword)

	token := env.requestReset(t, "alice@example.com")

	err := env.Reset.Redeem(ctx, token, testPassword, testMeta)
	require.ErrorIs(t, err, ErrPasswordReused)

	// The failed redeem keeps the token alive.
	require.NoError(t, env.Reset.Redeem(ctx, token, "brand new Passphrase 42", testMeta))
}

func TestResetRejectsHistoricalPassword(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	company := env.createCompany(t, "example.com", true)
	env.createLocalUser(t, company.ID, "alice@example.com", testPassword)

	token := env.requestReset(t, "alice@example.com")
	require.NoError(t, env.Reset.Redeem(ctx, token, "brand new Passphrase 42", testMeta))

	// The original password sits in history now.
	token = env.requestReset(t, "alice@example.com")
	err := env.Reset.Redeem(ctx, token, testPassword, testMeta)
	require.ErrorIs(t, err, ErrPasswordReused)
}

func TestResetAppendsHistoryOnce(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	company := env.createCompany(t, "example.com", true)
	_, cred := env.createLocalUser(t, company.ID, "alice@example.com", testPassword)

	token := env.requestReset(t, "alice@example.com")
	require.NoError(t, env.Reset.Redeem(ctx, token, "brand new Passphrase 42", testMeta))

	hashes, err := env.Store.PasswordHistory().ListRecentPasswordHashes(ctx, cred.ID, 10)
	require.NoError(t, err)
	require.Len(t, hashes, 2)
}

func TestResetClearsLockout(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	company := env.createCompany(t, "example.com", true)
	env.createLocalUser(t, company.ID, "alice@example.com", testPassword)

	for i := 0; i < 5; i++ {
		_, err := env.Login.Login(ctx, domain.PrincipalUser, "alice@example.com", "wrong password x", false, testMeta)
		require.ErrorIs(t, err, ErrInvalidCredentials)
	}
	_, err := env.Login.Login(ctx, domain.PrincipalUser, "alice@example.com", testPassword, false, testMeta)
	require.ErrorIs(t, err, ErrAccountLocked)

	token := env.requestReset(t, "alice@example.com")
	require.NoError(t, env.Reset.Redeem(ctx, token, "brand new Passphrase 42", testMeta))

	result, err := env.Login.Login(ctx, domain.PrincipalUser, "alice@example.com", "brand new Passphrase 42", false, testMeta)
	require.NoError(t, err)
	require.NotNil(t, result.Session)
}

func TestResetUnknownEmailIsSilent(t *testing.T) {
	env := newTestEnv(t)

	notifier := &captureNotifier{}
	env.Reset.Notifier = notifier

	require.NoError(t, env.Reset.Request(context.Background(), "ghost@example.com", testMeta))
	require.Zero(t, notifier.sent)
}

func TestResetOAuthAccountIsSilent(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	company := env.createCompany(t, "example.com", true)
	provider := domain.ProviderGoogle
	oauthID := "google-sub-1"
	user := domain.User{
		ID:            "01USER0OAUTH00000000000000",
		CompanyID:     company.ID,
		Email:         "sso@example.com",
		AuthType:      domain.AuthTypeOAuth,
		OAuthProvider: &provider,
		OAuthID:       &oauthID,
		Active:        true,
	}
	require.NoError(t, env.Store.Users().CreateUser(ctx, user))

	notifier := &captureNotifier{}
	env.Reset.Notifier = notifier

	require.NoError(t, env.Reset.Request(ctx, "sso@example.com", testMeta))
	require.Zero(t, notifier.sent)
}

func TestResetWeakPasswordRejectedBeforeTokenSpend(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	company := env.createCompany(t, "example.com", true)
	env.createLocalUser(t, company.ID, "alice@example.com", testPassword)

	token := env.requestReset(t, "alice@example.com")

	err := env.Reset.Redeem(ctx, token, "short", testMeta)
	require.ErrorIs(t, err, ErrPasswordTooWeak)

	require.NoError(t, env.Reset.Redeem(ctx, token, "brand new Passphrase 42", testMeta))
}
