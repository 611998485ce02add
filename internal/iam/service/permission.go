package service

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/taskgrid/iam/internal/iam/domain"
	"github.com/taskgrid/iam/internal/iam/store"
)

var ErrUserNotFound = errors.New("user_not_found")

// PermissionService answers "may user U do P in company C" questions by
// unioning the permissions of the role assignments that cover the query.
type PermissionService struct {
	Store store.Store
}

// ResourceScope narrows a check to one resource instance. The zero value
// means no scope: only company-wide assignments qualify.
type ResourceScope struct {
	Type string
	ID   int64
}

func (rs ResourceScope) isZero() bool {
	return rs.Type == "" && rs.ID == 0
}

// Snapshot computes the user's company-wide role slugs and the union of
// those roles' permissions. This is what gets embedded into access tokens;
// resource-scoped assignments deliberately stay out of the snapshot.
func (s *PermissionService) Snapshot(ctx context.Context, userID, companyID string) (roles, permissions []string, err error) {
	globalRoles, err := s.Store.RoleAssignments().ListUserGlobalRoles(ctx, userID, companyID)
	if err != nil {
		return nil, nil, fmt.Errorf("list global roles: %w", err)
	}

	roleIDs := make([]string, 0, len(globalRoles))
	roles = make([]string, 0, len(globalRoles))
	for _, r := range globalRoles {
		roleIDs = append(roleIDs, r.ID)
		roles = append(roles, r.Slug)
	}

	permissions, err = s.Store.Permissions().ListRolePermissionSlugs(ctx, roleIDs)
	if err != nil {
		return nil, nil, fmt.Errorf("list role permissions: %w", err)
	}
	if permissions == nil {
		permissions = []string{}
	}
	return roles, permissions, nil
}

// Check reports whether the user holds the permission in the company,
// optionally scoped to a resource. An unknown slug or a user with no
// qualifying assignments resolves to false, never an error.
func (s *PermissionService) Check(ctx context.Context, userID, companyID, permission string, scope ResourceScope) (bool, error) {
	allowed, err := s.resolve(ctx, userID, companyID, scope)
	if err != nil {
		return false, err
	}
	return slices.Contains(allowed, permission), nil
}

// CheckBatch evaluates several permission slugs against a single resolution
// pass. Assignments and role permissions are fetched once, not per slug.
func (s *PermissionService) CheckBatch(ctx context.Context, userID, companyID string, permissions []string, scope ResourceScope) (map[string]bool, error) {
	allowed, err := s.resolve(ctx, userID, companyID, scope)
	if err != nil {
		return nil, err
	}

	results := make(map[string]bool, len(permissions))
	for _, p := range permissions {
		results[p] = slices.Contains(allowed, p)
	}
	return results, nil
}

// resolve computes the effective permission set for the query. Assignments
// from other companies never qualify; a user whose home company differs
// from the query company resolves to the empty set.
func (s *PermissionService) resolve(ctx context.Context, userID, companyID string, scope ResourceScope) ([]string, error) {
	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	if user.CompanyID != companyID {
		return nil, nil
	}

	assignments, err := s.Store.RoleAssignments().ListUserAssignments(ctx, userID, companyID)
	if err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}

	roleIDs := qualifyingRoleIDs(assignments, scope)
	if len(roleIDs) == 0 {
		return nil, nil
	}

	slugs, err := s.Store.Permissions().ListRolePermissionSlugs(ctx, roleIDs)
	if err != nil {
		return nil, fmt.Errorf("list role permissions: %w", err)
	}
	return slugs, nil
}

// qualifyingRoleIDs filters assignments down to the roles that cover the
// scope. Global assignments always qualify; scoped ones only on an exact
// type and id match, and never for an unscoped query.
func qualifyingRoleIDs(assignments []domain.RoleAssignment, scope ResourceScope) []string {
	var roleIDs []string
	for _, a := range assignments {
		var covered bool
		if scope.isZero() {
			covered = a.IsGlobal()
		} else {
			covered = a.Covers(scope.Type, scope.ID)
		}
		if covered && !slices.Contains(roleIDs, a.RoleID) {
			roleIDs = append(roleIDs, a.RoleID)
		}
	}
	return roleIDs
}
