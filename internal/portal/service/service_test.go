package service

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/copperfort/deskauth/internal/portal/domain"
	"github.com/copperfort/deskauth/internal/portal/session"
	"github.com/copperfort/deskauth/internal/portal/store/drivers/sqlite"
	"github.com/copperfort/deskauth/pkg/cryptox"
	"github.com/copperfort/deskauth/pkg/idx"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/require"
)

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time          { return c.now }
func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type testEnv struct {
	Store    *sqlite.Store
	Pending  *session.MemoryStore
	Clock    *testClock
	Login    *LoginService
	MFA      *MFAService
	OAuth    *OAuthService
	Reset    *ResetService
	Register *RegistrationService
	Audit    *AuditService
}

var testMeta = RequestMeta{IP: "192.0.2.1", UserAgent: "test-agent"}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	cryptox.SetPepperPath(filepath.Join(t.TempDir(), "pepper"))

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	pending := session.NewMemoryStore()
	t.Cleanup(func() { _ = pending.Close() })

	clock := &testClock{now: time.Now().UTC()}
	logger := slog.New(slog.DiscardHandler)

	audit := &AuditService{Store: st, Logger: logger, Clock: clock}
	directory := &Directory{Store: st}
	sessions := &SessionManager{
		Sessions:    pending,
		Clock:       clock,
		SessionTTL:  time.Hour,
		RememberTTL: 30 * 24 * time.Hour,
	}

	login := &LoginService{
		Store:            st,
		Pending:          pending,
		Sessions:         sessions,
		Directory:        directory,
		Audit:            audit,
		Clock:            clock,
		Logger:           logger,
		LockoutThreshold: 5,
		LockoutDuration:  30 * time.Minute,
		PendingTTL:       5 * time.Minute,
	}

	mfa := &MFAService{
		Store:     st,
		Pending:   pending,
		Directory: directory,
		Audit:     audit,
		Clock:     clock,
		Issuer:    "Copperfort Desk",
	}

	reset := &ResetService{
		Store:        st,
		Directory:    directory,
		Audit:        audit,
		Notifier:     &LogNotifier{Logger: logger},
		Clock:        clock,
		Logger:       logger,
		TokenTTL:     time.Hour,
		HistoryCount: 5,
		Policy:       DefaultPasswordPolicy(),
	}

	register := &RegistrationService{
		Store:  st,
		Audit:  audit,
		Clock:  clock,
		Logger: logger,
		Policy: DefaultPasswordPolicy(),
	}

	oauthSvc := &OAuthService{
		Store:    st,
		Sessions: sessions,
		Audit:    audit,
		Clock:    clock,
		Logger:   logger,
	}

	return &testEnv{
		Store:    st,
		Pending:  pending,
		Clock:    clock,
		Login:    login,
		MFA:      mfa,
		OAuth:    oauthSvc,
		Reset:    reset,
		Register: register,
		Audit:    audit,
	}
}

func (e *testEnv) createCompany(t *testing.T, domains string, allowLocal bool) domain.Company {
	t.Helper()
	c := domain.Company{
		ID:             idx.New().String(),
		Name:           "company-" + idx.New().String(),
		Domains:        domains,
		ContactInfo:    "{}",
		Active:         true,
		AllowLocalAuth: allowLocal,
	}
	require.NoError(t, e.Store.Companies().CreateCompany(context.Background(), c))
	return c
}

func (e *testEnv) createLocalUser(t *testing.T, companyID, email, password string) (domain.User, domain.Credential) {
	t.Helper()
	ctx := context.Background()

	hash, err := cryptox.HashPassword(password)
	require.NoError(t, err)

	cred := domain.Credential{
		ID:           idx.New().String(),
		Username:     email,
		PasswordHash: hash,
	}
	require.NoError(t, e.Store.Credentials().CreateCredential(ctx, cred))
	require.NoError(t, e.Store.PasswordHistory().AppendPasswordHistory(ctx, cred.ID, hash))

	user := domain.User{
		ID:           idx.New().String(),
		CompanyID:    companyID,
		Email:        email,
		AuthType:     domain.AuthTypeLocal,
		CredentialID: &cred.ID,
		Active:       true,
	}
	require.NoError(t, e.Store.Users().CreateUser(ctx, user))
	return user, cred
}

func (e *testEnv) createAdmin(t *testing.T, email, password string) (domain.AdminUser, domain.Credential) {
	t.Helper()
	ctx := context.Background()

	hash, err := cryptox.HashPassword(password)
	require.NoError(t, err)

	cred := domain.Credential{
		ID:           idx.New().String(),
		Username:     email,
		PasswordHash: hash,
	}
	require.NoError(t, e.Store.Credentials().CreateCredential(ctx, cred))

	admin := domain.AdminUser{
		ID:           idx.New().String(),
		Email:        email,
		Role:         domain.RoleAdmin,
		CredentialID: cred.ID,
		Active:       true,
	}
	require.NoError(t, e.Store.Admins().CreateAdmin(ctx, admin))
	return admin, cred
}

// enableTOTP enrolls and activates MFA for the principal behind the
// credential, returning the secret and the plaintext backup codes.
func (e *testEnv) enableTOTP(t *testing.T, kind, principalID string) (string, []string) {
	t.Helper()
	ctx := context.Background()

	principal, err := e.MFA.Directory.ResolveRef(ctx, kind, principalID)
	require.NoError(t, err)

	enroll, err := e.MFA.EnrollTOTP(ctx, principal)
	require.NoError(t, err)

	// Re-resolve so the credential carries the stored secret.
	principal, err = e.MFA.Directory.ResolveRef(ctx, kind, principalID)
	require.NoError(t, err)

	code := e.totpCode(t, enroll.Secret)
	codes, err := e.MFA.ActivateTOTP(ctx, principal, code, testMeta)
	require.NoError(t, err)
	return enroll.Secret, codes
}

func (e *testEnv) totpCode(t *testing.T, secret string) string {
	t.Helper()
	return totpCodeAt(t, secret, e.Clock.Now())
}

func totpCodeAt(t *testing.T, secret string, at time.Time) string {
	t.Helper()
	code, err := totp.GenerateCodeCustom(secret, at, totp.ValidateOpts{
		Period:    totpPeriod,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	require.NoError(t, err)
	return code
}

func (e *testEnv) auditCount(t *testing.T, action string) int {
	t.Helper()
	entries, err := e.Store.AuditLogs().ListAuditEntries(context.Background(), 100)
	require.NoError(t, err)

	count := 0
	for _, entry := range entries {
		if entry.Action == action {
			count++
		}
	}
	return count
}
