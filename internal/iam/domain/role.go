package domain

import "time"

type Role struct {
	ID          string
	Slug        string // stable machine name, e.g. "project-manager"
	Name        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// RoleWithPermissions is the listing shape: a role plus the permission
// slugs it grants.
type RoleWithPermissions struct {
	Role
	Permissions []string
}
