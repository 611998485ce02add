package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/taskgrid/iam/internal/iam/domain"
	"github.com/taskgrid/iam/internal/iam/store"
	"github.com/taskgrid/iam/pkg/idx"
)

var (
	ErrRoleNotFound       = errors.New("role_not_found")
	ErrAssignmentNotFound = errors.New("assignment_not_found")
	ErrDuplicateRole      = errors.New("role_already_assigned")
	ErrInvalidScope       = errors.New("invalid_resource_scope")
)

// RoleService manages role assignments and role listings. Roles themselves
// are static reference data; only their assignment to users changes at
// runtime.
type RoleService struct {
	Store store.Store
}

// AssignmentInput identifies one assignment by its natural key. Resource
// fields follow the both-or-neither rule.
type AssignmentInput struct {
	UserID       string
	RoleSlug     string
	CompanyID    string
	ResourceType *string
	ResourceID   *int64
}

func (in AssignmentInput) validateScope() error {
	if (in.ResourceType == nil) != (in.ResourceID == nil) {
		return ErrInvalidScope
	}
	return nil
}

// Assign grants a role to a user, globally or scoped to one resource.
// Assigning the same role twice at the same scope fails with
// ErrDuplicateRole.
func (s *RoleService) Assign(ctx context.Context, in AssignmentInput) error {
	if err := in.validateScope(); err != nil {
		return err
	}

	role, err := s.Store.Roles().GetRoleBySlug(ctx, in.RoleSlug)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrRoleNotFound
		}
		return fmt.Errorf("load role: %w", err)
	}

	err = s.Store.RoleAssignments().CreateAssignment(ctx, domain.RoleAssignment{
		ID:           idx.New().String(),
		UserID:       in.UserID,
		RoleID:       role.ID,
		CompanyID:    in.CompanyID,
		ResourceType: in.ResourceType,
		ResourceID:   in.ResourceID,
	})
	if errors.Is(err, store.ErrAlreadyExists) {
		return ErrDuplicateRole
	}
	return err
}

// Remove deletes an assignment by its natural key.
func (s *RoleService) Remove(ctx context.Context, in AssignmentInput) error {
	if err := in.validateScope(); err != nil {
		return err
	}

	role, err := s.Store.Roles().GetRoleBySlug(ctx, in.RoleSlug)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrRoleNotFound
		}
		return fmt.Errorf("load role: %w", err)
	}

	err = s.Store.RoleAssignments().DeleteAssignment(ctx, domain.RoleAssignment{
		UserID:       in.UserID,
		RoleID:       role.ID,
		CompanyID:    in.CompanyID,
		ResourceType: in.ResourceType,
		ResourceID:   in.ResourceID,
	})
	if errors.Is(err, store.ErrNotFound) {
		return ErrAssignmentNotFound
	}
	return err
}

// ListRoles returns every role with its permission slugs.
func (s *RoleService) ListRoles(ctx context.Context) ([]domain.RoleWithPermissions, error) {
	roles, err := s.Store.Roles().ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}

	out := make([]domain.RoleWithPermissions, 0, len(roles))
	for _, role := range roles {
		slugs, err := s.Store.Permissions().ListRolePermissionSlugs(ctx, []string{role.ID})
		if err != nil {
			return nil, fmt.Errorf("list permissions for %s: %w", role.Slug, err)
		}
		if slugs == nil {
			slugs = []string{}
		}
		out = append(out, domain.RoleWithPermissions{Role: role, Permissions: slugs})
	}
	return out, nil
}

// UserAssignment pairs an assignment with its resolved role.
type UserAssignment struct {
	Assignment domain.RoleAssignment
	Role       domain.Role
}

// UserRoles lists every assignment a user holds within a company, with the
// role data resolved.
func (s *RoleService) UserRoles(ctx context.Context, userID, companyID string) ([]UserAssignment, error) {
	assignments, err := s.Store.RoleAssignments().ListUserAssignments(ctx, userID, companyID)
	if err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}

	// Roles repeat across assignments; cache resolved ones.
	rolesByID := make(map[string]domain.Role)
	out := make([]UserAssignment, 0, len(assignments))
	for _, a := range assignments {
		role, ok := rolesByID[a.RoleID]
		if !ok {
			role, err = s.Store.Roles().GetRoleByID(ctx, a.RoleID)
			if err != nil {
				return nil, fmt.Errorf("load role %s: %w", a.RoleID, err)
			}
			rolesByID[a.RoleID] = role
		}
		out = append(out, UserAssignment{Assignment: a, Role: role})
	}
	return out, nil
}
