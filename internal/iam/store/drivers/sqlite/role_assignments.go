package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/taskgrid/iam/internal/iam/domain"
)

type roleAssignmentsRepo struct {
	db dbtx
}

func (r *roleAssignmentsRepo) CreateAssignment(ctx context.Context, a domain.RoleAssignment) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO role_assignments (id, user_id, role_id, company_id, resource_type, resource_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.UserID, a.RoleID, a.CompanyID,
		mapOptionalString(a.ResourceType), mapOptionalInt64(a.ResourceID), a.CreatedAt)
	return mapConstraint(err)
}

func (r *roleAssignmentsRepo) DeleteAssignment(ctx context.Context, a domain.RoleAssignment) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM role_assignments
		  WHERE user_id = ? AND role_id = ? AND company_id = ?
		    AND COALESCE(resource_type, '') = COALESCE(?, '')
		    AND COALESCE(resource_id, -1) = COALESCE(?, -1)`,
		a.UserID, a.RoleID, a.CompanyID,
		mapOptionalString(a.ResourceType), mapOptionalInt64(a.ResourceID))
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *roleAssignmentsRepo) ListUserAssignments(ctx context.Context, userID, companyID string) ([]domain.RoleAssignment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, role_id, company_id, resource_type, resource_id, created_at
		   FROM role_assignments
		  WHERE user_id = ? AND company_id = ?
		  ORDER BY created_at, id`,
		userID, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assignments []domain.RoleAssignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		assignments = append(assignments, a)
	}
	return assignments, rows.Err()
}

func (r *roleAssignmentsRepo) ListUserGlobalRoles(ctx context.Context, userID, companyID string) ([]domain.Role, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT ro.id, ro.slug, ro.name, ro.description, ro.created_at, ro.updated_at
		   FROM roles ro
		   JOIN role_assignments ra ON ra.role_id = ro.id
		  WHERE ra.user_id = ? AND ra.company_id = ?
		    AND ra.resource_type IS NULL AND ra.resource_id IS NULL
		  ORDER BY ro.slug`,
		userID, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []domain.Role
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

func (r *roleAssignmentsRepo) DeleteUserAssignments(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM role_assignments WHERE user_id = ?`, userID)
	return err
}

func scanAssignment(row interface{ Scan(...any) error }) (domain.RoleAssignment, error) {
	var (
		a            domain.RoleAssignment
		resourceType sql.NullString
		resourceID   sql.NullInt64
	)
	err := row.Scan(&a.ID, &a.UserID, &a.RoleID, &a.CompanyID, &resourceType, &resourceID, &a.CreatedAt)
	if err != nil {
		return domain.RoleAssignment{}, err
	}
	a.ResourceType = mapNullStringPtr(resourceType)
	a.ResourceID = mapNullInt64Ptr(resourceID)
	return a, nil
}
