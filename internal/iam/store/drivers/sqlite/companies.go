package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/taskgrid/iam/internal/iam/domain"
	"github.com/taskgrid/iam/internal/iam/store"
)

type companiesRepo struct {
	db dbtx
}

const companyColumns = `id, name, identifier, email, phone, address, created_at, updated_at`

func scanCompany(row interface{ Scan(...any) error }) (domain.Company, error) {
	var c domain.Company
	err := row.Scan(&c.ID, &c.Name, &c.Identifier, &c.Email, &c.Phone, &c.Address, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func (r *companiesRepo) GetCompanyByID(ctx context.Context, id string) (domain.Company, error) {
	c, err := scanCompany(r.db.QueryRowContext(ctx,
		`SELECT `+companyColumns+` FROM companies WHERE id = ?`, id))
	if err != nil {
		return domain.Company{}, mapNotFound(err)
	}
	return c, nil
}

func (r *companiesRepo) GetCompanyByIdentifier(ctx context.Context, identifier string) (domain.Company, error) {
	c, err := scanCompany(r.db.QueryRowContext(ctx,
		`SELECT `+companyColumns+` FROM companies WHERE identifier = ?`, identifier))
	if err != nil {
		return domain.Company{}, mapNotFound(err)
	}
	return c, nil
}

func (r *companiesRepo) CreateCompany(ctx context.Context, c domain.Company) error {
	now := time.Now().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = now
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO companies (id, name, identifier, email, phone, address, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.Identifier, c.Email, c.Phone, c.Address, c.CreatedAt, c.UpdatedAt)
	return mapConstraint(err)
}

func (r *companiesRepo) UpdateCompany(ctx context.Context, c domain.Company) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE companies SET name = ?, email = ?, phone = ?, address = ?, updated_at = ? WHERE id = ?`,
		c.Name, c.Email, c.Phone, c.Address, time.Now().UTC(), c.ID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// requireAffected maps zero-row writes to ErrNotFound so callers can tell
// "updated nothing" apart from success.
func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
