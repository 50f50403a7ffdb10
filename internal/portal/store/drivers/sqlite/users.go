package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"github.com/copperfort/deskauth/internal/portal/domain"
)

type usersRepo struct {
	db dbtx
}

const userColumns = `id, company_id, email, name, auth_type, oauth_provider, oauth_id,
	credential_id, active, email_verified, last_login, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (domain.User, error) {
	var (
		u             domain.User
		oauthProvider sql.NullString
		oauthID       sql.NullString
		credentialID  sql.NullString
		lastLogin     sql.NullTime
	)
	err := row.Scan(
		&u.ID, &u.CompanyID, &u.Email, &u.Name, &u.AuthType,
		&oauthProvider, &oauthID, &credentialID,
		&u.Active, &u.EmailVerified, &lastLogin, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return domain.User{}, err
	}

	u.OAuthProvider = mapNullStringPtr(oauthProvider)
	u.OAuthID = mapNullStringPtr(oauthID)
	u.CredentialID = mapNullStringPtr(credentialID)
	u.LastLogin = mapNullTimePtr(lastLogin)
	return u, nil
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id)

	u, err := scanUser(row)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return u, nil
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, strings.ToLower(email))

	u, err := scanUser(row)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return u, nil
}

func (r *usersRepo) GetUserByOAuth(ctx context.Context, provider, oauthID string) (domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE oauth_provider = ? AND oauth_id = ?`,
		provider, oauthID)

	u, err := scanUser(row)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return u, nil
}

func (r *usersRepo) GetUserByCredentialID(ctx context.Context, credentialID string) (domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE credential_id = ?`, credentialID)

	u, err := scanUser(row)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return u, nil
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, company_id, email, name, auth_type, oauth_provider,
			oauth_id, credential_id, active, email_verified)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.CompanyID, strings.ToLower(u.Email), u.Name, u.AuthType,
		mapOptionalString(u.OAuthProvider), mapOptionalString(u.OAuthID),
		mapOptionalString(u.CredentialID), u.Active, u.EmailVerified)
	return mapConstraint(err)
}

func (r *usersRepo) UpdateName(ctx context.Context, userID, name string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users SET name = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		name, userID)
	return err
}

func (r *usersRepo) SetActive(ctx context.Context, userID string, active bool) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users SET active = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		active, userID)
	return err
}

func (r *usersRepo) UpdateLastLogin(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users SET last_login = CURRENT_TIMESTAMP, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`, userID)
	return err
}
