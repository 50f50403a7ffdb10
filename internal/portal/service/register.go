package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/copperfort/deskauth/internal/portal/domain"
	"github.com/copperfort/deskauth/internal/portal/store"
	"github.com/copperfort/deskauth/pkg/cryptox"
	"github.com/copperfort/deskauth/pkg/idx"
)

// matchCompanyByEmail returns the first active company whose domain list
// covers the address. Registration and OAuth resolution share this rule.
func matchCompanyByEmail(ctx context.Context, repo store.Companies, email string) (domain.Company, error) {
	emailDomain := domain.EmailDomain(email)
	if emailDomain == "" {
		return domain.Company{}, ErrDomainNotAuthorized
	}

	companies, err := repo.ListActiveCompanies(ctx)
	if err != nil {
		return domain.Company{}, fmt.Errorf("list companies: %w", err)
	}
	for _, c := range companies {
		if c.MatchesDomain(emailDomain) {
			return c, nil
		}
	}
	return domain.Company{}, ErrDomainNotAuthorized
}

// RegistrationService creates local accounts for companies that allow
// password sign-in. User and credential are created atomically.
type RegistrationService struct {
	Store  store.Store
	Audit  *AuditService
	Clock  Clock
	Logger *slog.Logger
	Policy PasswordPolicy
}

// Register creates a local user. The email domain routes the account to
// its company; the email doubles as the credential username.
func (s *RegistrationService) Register(ctx context.Context, email, name, password string, meta RequestMeta) (domain.User, error) {
	email = domain.NormalizeEmail(email)
	if domain.EmailDomain(email) == "" {
		return domain.User{}, ErrDomainNotAuthorized
	}

	if err := s.Policy.Validate(password); err != nil {
		return domain.User{}, err
	}

	company, err := matchCompanyByEmail(ctx, s.Store.Companies(), email)
	if err != nil {
		return domain.User{}, err
	}
	if !company.AllowLocalAuth {
		return domain.User{}, ErrLocalAuthNotAllowed
	}

	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}

	credID := idx.New().String()
	user := domain.User{
		ID:           idx.New().String(),
		CompanyID:    company.ID,
		Email:        email,
		Name:         name,
		AuthType:     domain.AuthTypeLocal,
		CredentialID: &credID,
		Active:       true,
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		cred := domain.Credential{
			ID:           credID,
			Username:     email,
			PasswordHash: hash,
		}
		if err := tx.Credentials().CreateCredential(ctx, cred); err != nil {
			return fmt.Errorf("create credential: %w", err)
		}
		if err := tx.PasswordHistory().AppendPasswordHistory(ctx, credID, hash); err != nil {
			return fmt.Errorf("append history: %w", err)
		}
		if err := tx.Users().CreateUser(ctx, user); err != nil {
			return fmt.Errorf("create user: %w", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.User{}, ErrEmailAlreadyRegistered
		}
		return domain.User{}, err
	}

	principal := &domain.UserPrincipal{User: &user, Cred: &domain.Credential{ID: credID}}
	s.Audit.LogPrincipal(ctx, principal, domain.ActionRegister, true, "", meta)
	return user, nil
}
