package service

import (
	"context"
	"testing"

	"github.com/copperfort/deskauth/internal/portal/domain"
	"github.com/stretchr/testify/require"
)

func TestRegisterLocalUser(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	company := env.createCompany(t, "example.com", true)

	user, err := env.Register.Register(ctx, "New.Person@Example.com", "New Person", testPassword, testMeta)
	require.NoError(t, err)
	require.Equal(t, "new.person@example.com", user.Email)
	require.Equal(t, company.ID, user.CompanyID)
	require.Equal(t, domain.AuthTypeLocal, user.AuthType)
	require.NotNil(t, user.CredentialID)

	// The credential is usable immediately.
	result, err := env.Login.Login(ctx, domain.PrincipalUser, "new.person@example.com", testPassword, false, testMeta)
	require.NoError(t, err)
	require.NotNil(t, result.Session)

	// The initial password counts toward history.
	hashes, err := env.Store.PasswordHistory().ListRecentPasswordHashes(ctx, *user.CredentialID, 10)
	require.NoError(t, err)
	require.Len(t, hashes, 1)

	require.Equal(t, 1, env.auditCount(t, domain.ActionRegister))
}

func TestRegisterRejectsUnknownDomain(t *testing.T) {
	env := newTestEnv(t)
	env.createCompany(t, "example.com", true)

	_, err := env.Register.Register(context.Background(), "ghost@elsewhere.org", "Ghost", testPassword, testMeta)
	require.ErrorIs(t, err, ErrDomainNotAuthorized)
}

func TestRegisterRejectsOAuthOnlyCompany(t *testing.T) {
	env := newTestEnv(t)
	env.createCompany(t, "ssocorp.com", false)

	_, err := env.Register.Register(context.Background(), "worker@ssocorp.com", "Worker", testPassword, testMeta)
	require.ErrorIs(t, err, ErrLocalAuthNotAllowed)
}

func TestRegisterRejectsWeakPassword(t *testing.T) {
	env := newTestEnv(t)
	env.createCompany(t, "example.com", true)

	cases := []string{
		"short1A",
		"all lowercase with digits 123",
		"ALL UPPERCASE WITH DIGITS 123",
		"No Digits At All Here",
	}
	for _, password := range cases {
		_, err := env.Register.Register(context.Background(), "new@example.com", "New", password, testMeta)
		require.ErrorIs(t, err, ErrPasswordTooWeak, "password %q", password)
	}
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	company := env.createCompany(t, "example.com", true)
	env.createLocalUser(t, company.ID, "alice@example.com", testPassword)

	_, err := env.Register.Register(ctx, "alice@example.com", "Alice Again", testPassword, testMeta)
	require.ErrorIs(t, err, ErrEmailAlreadyRegistered)
}

func TestRegisterRoutesToMatchingCompany(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	env.createCompany(t, "first.com", true)
	second := env.createCompany(t, "second.com,second.io", true)

	user, err := env.Register.Register(ctx, "dev@second.io", "Dev", testPassword, testMeta)
	require.NoError(t, err)
	require.Equal(t, second.ID, user.CompanyID)
}

func TestRegisterIgnoresInactiveCompany(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	company := env.createCompany(t, "example.com", true)
	company.Active = false
	require.NoError(t, env.Store.Companies().UpdateCompany(ctx, company))

	_, err := env.Register.Register(ctx, "late@example.com", "Late", testPassword, testMeta)
	require.ErrorIs(t, err, ErrDomainNotAuthorized)
}
