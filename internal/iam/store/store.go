package store

import (
	"context"
	"errors"

	"github.com/taskgrid/iam/internal/iam/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite,
// postgres) implement this. It exposes sub-repositories to keep concerns
// tidy and testable, and to stop callers from accidentally nesting
// transactions.
type Store interface {
	Users() Users
	Companies() Companies
	Roles() Roles
	Permissions() Permissions
	RoleAssignments() RoleAssignments

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction. If fn returns an error the
	// transaction is rolled back, otherwise committed. This is the
	// recommended way to handle multi-step writes (e.g., register).
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds
// Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	// GetUserByID returns a user by id.
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByEmail is used during login. Email is unique system-wide.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// CreateUser inserts a new user (id is provided by app via ULID).
	CreateUser(ctx context.Context, u domain.User) error

	// UpdateUser mutates name and email and bumps updated_at.
	UpdateUser(ctx context.Context, userID, name, email string) error

	// UpdatePasswordHash sets the password_hash (argon2) and bumps updated_at.
	UpdatePasswordHash(ctx context.Context, userID, newHash string) error

	// DeleteUser cascades to role_assignments (per schema).
	DeleteUser(ctx context.Context, userID string) error

	// ListCompanyUsers returns all users in a company, newest first.
	ListCompanyUsers(ctx context.Context, companyID string) ([]domain.User, error)
}

type Companies interface {
	// GetCompanyByID returns a company by id.
	GetCompanyByID(ctx context.Context, id string) (domain.Company, error)

	// GetCompanyByIdentifier looks up a company by its public slug.
	GetCompanyByIdentifier(ctx context.Context, identifier string) (domain.Company, error)

	// CreateCompany inserts a new company (id is ULID).
	CreateCompany(ctx context.Context, c domain.Company) error

	// UpdateCompany mutates contact fields and bumps updated_at.
	UpdateCompany(ctx context.Context, c domain.Company) error
}

type Roles interface {
	// GetRoleByID fetches a role by its id.
	GetRoleByID(ctx context.Context, id string) (domain.Role, error)

	// GetRoleBySlug fetches a role by its stable slug.
	GetRoleBySlug(ctx context.Context, slug string) (domain.Role, error)

	// ListAll returns all roles ordered by slug.
	ListAll(ctx context.Context) ([]domain.Role, error)
}

type Permissions interface {
	// ListRolePermissionSlugs returns the distinct permission slugs granted
	// by any of the given roles, sorted.
	ListRolePermissionSlugs(ctx context.Context, roleIDs []string) ([]string, error)

	// ListRolePermissions returns the permissions for a single role.
	ListRolePermissions(ctx context.Context, roleID string) ([]domain.Permission, error)
}

type RoleAssignments interface {
	// CreateAssignment inserts an assignment (id is ULID). Duplicate
	// (user, role, company, resource) tuples return ErrAlreadyExists.
	CreateAssignment(ctx context.Context, a domain.RoleAssignment) error

	// DeleteAssignment removes one assignment by the same tuple.
	DeleteAssignment(ctx context.Context, a domain.RoleAssignment) error

	// ListUserAssignments returns every assignment a user holds within a
	// company, global and resource-scoped alike.
	ListUserAssignments(ctx context.Context, userID, companyID string) ([]domain.RoleAssignment, error)

	// ListUserGlobalRoles returns the user's company-wide roles.
	// Resource-scoped assignments are excluded; token claims only carry
	// global roles.
	ListUserGlobalRoles(ctx context.Context, userID, companyID string) ([]domain.Role, error)

	// DeleteUserAssignments removes all assignments for a user.
	DeleteUserAssignments(ctx context.Context, userID string) error
}
