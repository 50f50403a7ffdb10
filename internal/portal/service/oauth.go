package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/copperfort/deskauth/internal/portal/domain"
	"github.com/copperfort/deskauth/internal/portal/oauth"
	"github.com/copperfort/deskauth/internal/portal/store"
	"github.com/copperfort/deskauth/pkg/idx"
)

// OAuthService runs the IdP login processor: redirect initiation with a
// signed state parameter, and account resolution on the callback.
type OAuthService struct {
	Store     store.Store
	Providers *oauth.Registry
	State     *oauth.StateSigner
	Sessions  *SessionManager
	Audit     *AuditService
	Clock     Clock
	Logger    *slog.Logger
}

// Begin returns the IdP authorization URL carrying a signed state token.
func (s *OAuthService) Begin(ctx context.Context, providerName, nextURL string) (string, error) {
	provider, err := s.Providers.Get(providerName)
	if err != nil {
		return "", err
	}

	state, err := s.State.Issue(providerName, nextURL)
	if err != nil {
		return "", fmt.Errorf("issue state: %w", err)
	}
	return provider.AuthURL(ctx, state)
}

// Callback verifies the state, exchanges the code and resolves the profile
// to a portal user, creating one when the email domain maps to a company.
func (s *OAuthService) Callback(ctx context.Context, providerName, state, code string, meta RequestMeta) (LoginResult, string, error) {
	provider, err := s.Providers.Get(providerName)
	if err != nil {
		return LoginResult{}, "", err
	}

	claims, err := s.State.Verify(state, providerName)
	if err != nil {
		return LoginResult{}, "", ErrInvalidToken
	}

	profile, err := provider.FetchProfile(ctx, code)
	if err != nil {
		s.Logger.Warn("oauth profile fetch failed", "provider", providerName, "error", err)
		return LoginResult{}, "", fmt.Errorf("%w: %v", ErrProviderError, err)
	}

	result, err := s.resolve(ctx, providerName, profile, meta)
	if err != nil {
		return LoginResult{}, "", err
	}
	return result, claims.NextURL, nil
}

// resolve implements the account resolution algorithm. Order matters:
// existing link wins, a clashing email is rejected before any company
// lookup, and a rejected domain creates no principal.
func (s *OAuthService) resolve(ctx context.Context, providerName string, profile *oauth.Profile, meta RequestMeta) (LoginResult, error) {
	email := domain.NormalizeEmail(profile.Email)

	user, err := s.Store.Users().GetUserByOAuth(ctx, providerName, profile.ID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return LoginResult{}, fmt.Errorf("lookup user by oauth: %w", err)
	}
	if err == nil {
		return s.loginExisting(ctx, user, profile, meta)
	}

	// No link for this subject. An existing account under the same email
	// means a different sign-in method owns it.
	if _, err := s.Store.Users().GetUserByEmail(ctx, email); err == nil {
		s.Audit.LogAnonymous(ctx, domain.ActionLogin, false, "auth_method_mismatch",
			map[string]any{"email": email, "provider": providerName}, meta)
		return LoginResult{}, ErrAuthMethodMismatch
	} else if !errors.Is(err, store.ErrNotFound) {
		return LoginResult{}, fmt.Errorf("lookup user by email: %w", err)
	}

	company, err := s.companyForEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrDomainNotAuthorized) {
			s.Audit.LogAnonymous(ctx, domain.ActionLogin, false, "domain_not_authorized",
				map[string]any{"email": email, "provider": providerName}, meta)
		}
		return LoginResult{}, err
	}

	return s.createAndLogin(ctx, company, providerName, profile, email, meta)
}

func (s *OAuthService) loginExisting(ctx context.Context, user domain.User, profile *oauth.Profile, meta RequestMeta) (LoginResult, error) {
	principal := &domain.UserPrincipal{User: &user, Cred: &domain.Credential{}}

	if !user.Active {
		s.Audit.LogPrincipal(ctx, principal, domain.ActionLogin, false, "account_deactivated", meta)
		return LoginResult{}, ErrAccountDeactivated
	}

	company, err := s.Store.Companies().GetCompanyByID(ctx, user.CompanyID)
	if err != nil {
		return LoginResult{}, fmt.Errorf("lookup company: %w", err)
	}
	if !company.Active {
		s.Audit.LogPrincipal(ctx, principal, domain.ActionLogin, false, "company_deactivated", meta)
		return LoginResult{}, ErrCompanyDeactivated
	}

	// Keep the display name in step with the IdP.
	if profile.Name != "" && profile.Name != user.Name {
		if err := s.Store.Users().UpdateName(ctx, user.ID, profile.Name); err != nil {
			s.Logger.Warn("failed to refresh user name", "error", err)
		}
	}

	if err := s.Store.Users().UpdateLastLogin(ctx, user.ID); err != nil {
		return LoginResult{}, fmt.Errorf("update last login: %w", err)
	}

	grant, err := s.Sessions.Issue(ctx, domain.PrincipalUser, user.ID, false, false)
	if err != nil {
		return LoginResult{}, err
	}

	s.Audit.LogPrincipal(ctx, principal, domain.ActionLogin, true, "", meta)
	return LoginResult{Session: &grant}, nil
}

func (s *OAuthService) companyForEmail(ctx context.Context, email string) (domain.Company, error) {
	return matchCompanyByEmail(ctx, s.Store.Companies(), email)
}

func (s *OAuthService) createAndLogin(ctx context.Context, company domain.Company, providerName string, profile *oauth.Profile, email string, meta RequestMeta) (LoginResult, error) {
	emailVerified := profile.EmailVerified == nil || *profile.EmailVerified

	user := domain.User{
		ID:            idx.New().String(),
		CompanyID:     company.ID,
		Email:         email,
		Name:          profile.Name,
		AuthType:      domain.AuthTypeOAuth,
		OAuthProvider: &providerName,
		OAuthID:       &profile.ID,
		Active:        true,
		EmailVerified: emailVerified,
	}
	if err := s.Store.Users().CreateUser(ctx, user); err != nil {
		// A racing callback may have created the link first; fall back to
		// the existing account so repeat callbacks stay idempotent.
		if errors.Is(err, store.ErrAlreadyExists) {
			existing, lookupErr := s.Store.Users().GetUserByOAuth(ctx, providerName, profile.ID)
			if lookupErr == nil {
				return s.loginExisting(ctx, existing, profile, meta)
			}
		}
		return LoginResult{}, fmt.Errorf("create oauth user: %w", err)
	}

	principal := &domain.UserPrincipal{User: &user, Cred: &domain.Credential{}}
	s.Audit.LogPrincipal(ctx, principal, domain.ActionOAuthUserCreated, true, "", meta)

	if err := s.Store.Users().UpdateLastLogin(ctx, user.ID); err != nil {
		return LoginResult{}, fmt.Errorf("update last login: %w", err)
	}

	grant, err := s.Sessions.Issue(ctx, domain.PrincipalUser, user.ID, false, false)
	if err != nil {
		return LoginResult{}, err
	}

	s.Audit.LogPrincipal(ctx, principal, domain.ActionLogin, true, "", meta)
	return LoginResult{Session: &grant}, nil
}
