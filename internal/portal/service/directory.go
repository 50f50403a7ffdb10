package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/copperfort/deskauth/internal/portal/domain"
	"github.com/copperfort/deskauth/internal/portal/store"
)

// Directory resolves login identifiers and principal refs to the Principal
// capability view. It is the only place that knows which concrete account
// type backs a credential.
type Directory struct {
	Store store.Store
}

// ResolveLocal finds a local principal of the given kind by its login
// identifier: username first, then (for users) email fallback.
func (d *Directory) ResolveLocal(ctx context.Context, kind, identifier string) (domain.Principal, error) {
	identifier = strings.TrimSpace(identifier)

	cred, err := d.Store.Credentials().GetCredentialByUsername(ctx, identifier)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("lookup credential: %w", err)
	}

	if err == nil {
		return d.principalForCredential(ctx, kind, cred)
	}

	// Username miss. Users may also sign in with their email address.
	if kind != domain.PrincipalUser || !strings.Contains(identifier, "@") {
		return nil, ErrInvalidCredentials
	}

	user, err := d.Store.Users().GetUserByEmail(ctx, identifier)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("lookup user by email: %w", err)
	}

	if !user.IsLocal() || user.CredentialID == nil {
		return nil, ErrAuthMethodMismatch
	}

	cred, err = d.Store.Credentials().GetCredentialByID(ctx, *user.CredentialID)
	if err != nil {
		return nil, fmt.Errorf("lookup credential by id: %w", err)
	}
	return &domain.UserPrincipal{User: &user, Cred: &cred}, nil
}

// ResolveRef loads the principal behind a (kind, id) reference from a
// pending-auth or session record.
func (d *Directory) ResolveRef(ctx context.Context, kind, id string) (domain.Principal, error) {
	switch kind {
	case domain.PrincipalAdmin:
		admin, err := d.Store.Admins().GetAdminByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("lookup admin: %w", err)
		}
		cred, err := d.Store.Credentials().GetCredentialByID(ctx, admin.CredentialID)
		if err != nil {
			return nil, fmt.Errorf("lookup admin credential: %w", err)
		}
		return &domain.AdminPrincipal{Admin: &admin, Cred: &cred}, nil

	case domain.PrincipalUser:
		user, err := d.Store.Users().GetUserByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("lookup user: %w", err)
		}
		if user.CredentialID == nil {
			return nil, ErrAuthMethodMismatch
		}
		cred, err := d.Store.Credentials().GetCredentialByID(ctx, *user.CredentialID)
		if err != nil {
			return nil, fmt.Errorf("lookup user credential: %w", err)
		}
		return &domain.UserPrincipal{User: &user, Cred: &cred}, nil

	default:
		return nil, fmt.Errorf("unknown principal kind %q", kind)
	}
}

// ResolveOwner finds the account owning a credential without knowing its
// kind up front. Used by the reset flow, where only the token is presented.
func (d *Directory) ResolveOwner(ctx context.Context, cred domain.Credential) (domain.Principal, error) {
	user, err := d.Store.Users().GetUserByCredentialID(ctx, cred.ID)
	if err == nil {
		return &domain.UserPrincipal{User: &user, Cred: &cred}, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("lookup user by credential: %w", err)
	}

	admin, err := d.Store.Admins().GetAdminByCredentialID(ctx, cred.ID)
	if err != nil {
		return nil, fmt.Errorf("lookup admin by credential: %w", err)
	}
	return &domain.AdminPrincipal{Admin: &admin, Cred: &cred}, nil
}

// principalForCredential finds which account owns a credential, restricted
// to the expected kind so an admin username cannot log in through the user
// endpoint or vice versa.
func (d *Directory) principalForCredential(ctx context.Context, kind string, cred domain.Credential) (domain.Principal, error) {
	switch kind {
	case domain.PrincipalAdmin:
		admin, err := d.Store.Admins().GetAdminByCredentialID(ctx, cred.ID)
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		if err != nil {
			return nil, fmt.Errorf("lookup admin by credential: %w", err)
		}
		return &domain.AdminPrincipal{Admin: &admin, Cred: &cred}, nil

	case domain.PrincipalUser:
		user, err := d.Store.Users().GetUserByCredentialID(ctx, cred.ID)
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		if err != nil {
			return nil, fmt.Errorf("lookup user by credential: %w", err)
		}
		return &domain.UserPrincipal{User: &user, Cred: &cred}, nil

	default:
		return nil, fmt.Errorf("unknown principal kind %q", kind)
	}
}
