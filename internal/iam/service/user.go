package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/taskgrid/iam/internal/iam/domain"
	"github.com/taskgrid/iam/internal/iam/store"
	"github.com/taskgrid/iam/pkg/cryptox"
	"github.com/taskgrid/iam/pkg/idx"
)

// temporaryPasswordLength is used for invited users until they set their own.
const temporaryPasswordLength = 24

var ErrCompanyNotFound = errors.New("company_not_found")

// UserService handles user CRUD within a company. Every operation is keyed
// by (user, company) so one company can never touch another's users.
type UserService struct {
	Store store.Store
	Roles *RoleService
}

// InviteInput creates a user inside an existing company, optionally with an
// initial role. An empty Password gets a random temporary one; the invitee
// is expected to change it.
type InviteInput struct {
	Name         string
	Email        string
	Password     string
	RoleSlug     string
	ResourceType *string
	ResourceID   *int64
}

// UserWithRoles is the listing shape: a user plus their company-wide role
// slugs.
type UserWithRoles struct {
	User  domain.User
	Roles []string
}

// Invite creates a user in the company and assigns the requested role, all
// in one transaction so a failed role assignment leaves no orphan user.
func (s *UserService) Invite(ctx context.Context, companyID string, in InviteInput) (domain.User, error) {
	if _, err := s.Store.Companies().GetCompanyByID(ctx, companyID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, ErrCompanyNotFound
		}
		return domain.User{}, fmt.Errorf("load company: %w", err)
	}

	password := in.Password
	if password == "" {
		var err error
		password, err = cryptox.GenerateIdentifier(temporaryPasswordLength)
		if err != nil {
			return domain.User{}, fmt.Errorf("generate temporary password: %w", err)
		}
	}

	passwordHash, err := cryptox.HashPassword(password)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}

	user := domain.User{
		ID:           idx.New().String(),
		CompanyID:    companyID,
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: passwordHash,
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().CreateUser(ctx, user); err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				return ErrEmailTaken
			}
			return fmt.Errorf("create user: %w", err)
		}

		if in.RoleSlug == "" {
			return nil
		}

		role, err := tx.Roles().GetRoleBySlug(ctx, in.RoleSlug)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrRoleNotFound
			}
			return fmt.Errorf("load role: %w", err)
		}

		return tx.RoleAssignments().CreateAssignment(ctx, domain.RoleAssignment{
			ID:           idx.New().String(),
			UserID:       user.ID,
			RoleID:       role.ID,
			CompanyID:    companyID,
			ResourceType: in.ResourceType,
			ResourceID:   in.ResourceID,
		})
	})
	if err != nil {
		return domain.User{}, err
	}

	return user, nil
}

// List returns the company's users with their company-wide roles.
func (s *UserService) List(ctx context.Context, companyID string) ([]UserWithRoles, error) {
	users, err := s.Store.Users().ListCompanyUsers(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	out := make([]UserWithRoles, 0, len(users))
	for _, u := range users {
		roles, err := s.Store.RoleAssignments().ListUserGlobalRoles(ctx, u.ID, companyID)
		if err != nil {
			return nil, fmt.Errorf("list roles for %s: %w", u.ID, err)
		}
		slugs := make([]string, 0, len(roles))
		for _, r := range roles {
			slugs = append(slugs, r.Slug)
		}
		out = append(out, UserWithRoles{User: u, Roles: slugs})
	}
	return out, nil
}

// Get returns one user, scoped to the company.
func (s *UserService) Get(ctx context.Context, userID, companyID string) (domain.User, error) {
	user, err := s.companyUser(ctx, userID, companyID)
	if err != nil {
		return domain.User{}, err
	}
	return user, nil
}

// UpdateInput carries the mutable profile fields. Nil means "leave as is".
type UpdateInput struct {
	Name     *string
	Email    *string
	Password *string
}

// Update mutates a user's profile. An all-nil input is a no-op read.
func (s *UserService) Update(ctx context.Context, userID, companyID string, in UpdateInput) (domain.User, error) {
	user, err := s.companyUser(ctx, userID, companyID)
	if err != nil {
		return domain.User{}, err
	}

	name := user.Name
	if in.Name != nil {
		name = *in.Name
	}
	email := user.Email
	if in.Email != nil {
		email = *in.Email
	}

	if in.Name != nil || in.Email != nil {
		if err := s.Store.Users().UpdateUser(ctx, userID, name, email); err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				return domain.User{}, ErrEmailTaken
			}
			return domain.User{}, fmt.Errorf("update user: %w", err)
		}
	}

	if in.Password != nil {
		hash, err := cryptox.HashPassword(*in.Password)
		if err != nil {
			return domain.User{}, fmt.Errorf("hash password: %w", err)
		}
		if err := s.Store.Users().UpdatePasswordHash(ctx, userID, hash); err != nil {
			return domain.User{}, fmt.Errorf("update password: %w", err)
		}
	}

	return s.companyUser(ctx, userID, companyID)
}

// Delete removes a user and, via schema cascade, their role assignments.
func (s *UserService) Delete(ctx context.Context, userID, companyID string) error {
	if _, err := s.companyUser(ctx, userID, companyID); err != nil {
		return err
	}
	return s.Store.Users().DeleteUser(ctx, userID)
}

// companyUser loads a user and enforces that they belong to the company.
// A cross-company id is indistinguishable from a missing one.
func (s *UserService) companyUser(ctx context.Context, userID, companyID string) (domain.User, error) {
	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, fmt.Errorf("load user: %w", err)
	}
	if user.CompanyID != companyID {
		return domain.User{}, ErrUserNotFound
	}
	return user, nil
}
