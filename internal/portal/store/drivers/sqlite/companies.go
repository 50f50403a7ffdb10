package sqlite

import (
	"context"

	"github.com/copperfort/deskauth/internal/portal/domain"
)

type companiesRepo struct {
	db dbtx
}

const companyColumns = `id, name, domains, contact_info, active, allow_local_auth, created_at, updated_at`

func scanCompany(row interface{ Scan(...any) error }) (domain.Company, error) {
	var c domain.Company
	err := row.Scan(
		&c.ID, &c.Name, &c.Domains, &c.ContactInfo,
		&c.Active, &c.AllowLocalAuth, &c.CreatedAt, &c.UpdatedAt,
	)
	return c, err
}

func (r *companiesRepo) GetCompanyByID(ctx context.Context, id string) (domain.Company, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+companyColumns+` FROM companies WHERE id = ?`, id)

	c, err := scanCompany(row)
	if err != nil {
		return domain.Company{}, mapNotFound(err)
	}
	return c, nil
}

func (r *companiesRepo) ListActiveCompanies(ctx context.Context) ([]domain.Company, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+companyColumns+` FROM companies WHERE active = 1 ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var companies []domain.Company
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, err
		}
		companies = append(companies, c)
	}
	return companies, rows.Err()
}

func (r *companiesRepo) CreateCompany(ctx context.Context, c domain.Company) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO companies (id, name, domains, contact_info, active, allow_local_auth)
		VALUES (?, ?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.Domains, c.ContactInfo, c.Active, c.AllowLocalAuth)
	return mapConstraint(err)
}

func (r *companiesRepo) UpdateCompany(ctx context.Context, c domain.Company) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE companies
		SET name = ?, domains = ?, contact_info = ?, active = ?, allow_local_auth = ?,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		c.Name, c.Domains, c.ContactInfo, c.Active, c.AllowLocalAuth, c.ID)
	return mapConstraint(err)
}
