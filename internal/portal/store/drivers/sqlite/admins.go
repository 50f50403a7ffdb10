package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"github.com/copperfort/deskauth/internal/portal/domain"
)

type adminsRepo struct {
	db dbtx
}

const adminColumns = `id, email, name, role, credential_id, active, last_login, created_at, updated_at`

func scanAdmin(row interface{ Scan(...any) error }) (domain.AdminUser, error) {
	var (
		a         domain.AdminUser
		lastLogin sql.NullTime
	)
	err := row.Scan(
		&a.ID, &a.Email, &a.Name, &a.Role, &a.CredentialID,
		&a.Active, &lastLogin, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return domain.AdminUser{}, err
	}
	a.LastLogin = mapNullTimePtr(lastLogin)
	return a, nil
}

func (r *adminsRepo) GetAdminByID(ctx context.Context, id string) (domain.AdminUser, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+adminColumns+` FROM admin_users WHERE id = ?`, id)

	a, err := scanAdmin(row)
	if err != nil {
		return domain.AdminUser{}, mapNotFound(err)
	}
	return a, nil
}

func (r *adminsRepo) GetAdminByCredentialID(ctx context.Context, credentialID string) (domain.AdminUser, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+adminColumns+` FROM admin_users WHERE credential_id = ?`, credentialID)

	a, err := scanAdmin(row)
	if err != nil {
		return domain.AdminUser{}, mapNotFound(err)
	}
	return a, nil
}

func (r *adminsRepo) CreateAdmin(ctx context.Context, a domain.AdminUser) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO admin_users (id, email, name, role, credential_id, active)
		VALUES (?, ?, ?, ?, ?, ?)`,
		a.ID, strings.ToLower(a.Email), a.Name, a.Role, a.CredentialID, a.Active)
	return mapConstraint(err)
}

func (r *adminsRepo) SetActive(ctx context.Context, adminID string, active bool) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE admin_users SET active = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		active, adminID)
	return err
}

func (r *adminsRepo) UpdateLastLogin(ctx context.Context, adminID string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE admin_users SET last_login = CURRENT_TIMESTAMP, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`, adminID)
	return err
}
