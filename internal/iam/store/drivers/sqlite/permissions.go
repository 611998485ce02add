package sqlite

import (
	"context"
	"strings"

	"github.com/taskgrid/iam/internal/iam/domain"
)

type permissionsRepo struct {
	db dbtx
}

func (r *permissionsRepo) ListRolePermissionSlugs(ctx context.Context, roleIDs []string) ([]string, error) {
	if len(roleIDs) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(roleIDs)), ", ")
	args := make([]any, len(roleIDs))
	for i, id := range roleIDs {
		args[i] = id
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT p.slug
		   FROM permissions p
		   JOIN role_permissions rp ON rp.permission_id = p.id
		  WHERE rp.role_id IN (`+placeholders+`)
		  ORDER BY p.slug`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var slugs []string
	for rows.Next() {
		var slug string
		if err := rows.Scan(&slug); err != nil {
			return nil, err
		}
		slugs = append(slugs, slug)
	}
	return slugs, rows.Err()
}

func (r *permissionsRepo) ListRolePermissions(ctx context.Context, roleID string) ([]domain.Permission, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT p.id, p.slug, p.name, p.resource_type, p.description, p.created_at
		   FROM permissions p
		   JOIN role_permissions rp ON rp.permission_id = p.id
		  WHERE rp.role_id = ?
		  ORDER BY p.slug`, roleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var perms []domain.Permission
	for rows.Next() {
		var p domain.Permission
		if err := rows.Scan(&p.ID, &p.Slug, &p.Name, &p.ResourceType, &p.Description, &p.CreatedAt); err != nil {
			return nil, err
		}
		perms = append(perms, p)
	}
	return perms, rows.Err()
}
