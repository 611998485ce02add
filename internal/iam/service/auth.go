package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/taskgrid/iam/internal/iam/domain"
	"github.com/taskgrid/iam/internal/iam/store"
	"github.com/taskgrid/iam/pkg/cryptox"
	"github.com/taskgrid/iam/pkg/idx"
	"github.com/taskgrid/iam/pkg/slogx"
)

var (
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrEmailTaken         = errors.New("email_taken")
	ErrTokenNotProvided   = errors.New("token_not_provided")
)

// RoleSuperAdmin is the role granted to a company's founding user.
const RoleSuperAdmin = "super-admin"

// companyIdentifierLength matches the public signup-link slug length.
const companyIdentifierLength = 12

type CompanyInput struct {
	Name    string
	Email   string
	Phone   string
	Address string
}

type UserInput struct {
	Name     string
	Email    string
	Password string
}

// AuthResult is what register and login hand back: the user, their company,
// their company-wide roles and a fresh token pair.
type AuthResult struct {
	User    domain.User
	Company domain.Company
	Roles   []string
	Tokens  domain.TokenPair
}

// AuthService orchestrates registration, login, refresh and logout on top
// of the token and permission services.
type AuthService struct {
	Store       store.Store
	Tokens      *TokenService
	Permissions *PermissionService
}

// RegisterCompany creates a company together with its first user in one
// transaction and grants that user the super-admin role. The company's
// public identifier is generated randomly and retried on collision;
// uniqueness is enforced by the store constraint, not by the lookup.
func (s *AuthService) RegisterCompany(ctx context.Context, company CompanyInput, user UserInput) (AuthResult, error) {
	l := slogx.FromContext(ctx)

	identifier, err := s.uniqueCompanyIdentifier(ctx)
	if err != nil {
		return AuthResult{}, err
	}

	passwordHash, err := cryptox.HashPassword(user.Password)
	if err != nil {
		return AuthResult{}, fmt.Errorf("hash password: %w", err)
	}

	newCompany := domain.Company{
		ID:         idx.New().String(),
		Name:       company.Name,
		Identifier: identifier,
		Email:      company.Email,
		Phone:      company.Phone,
		Address:    company.Address,
	}
	newUser := domain.User{
		ID:           idx.New().String(),
		CompanyID:    newCompany.ID,
		Name:         user.Name,
		Email:        user.Email,
		PasswordHash: passwordHash,
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Companies().CreateCompany(ctx, newCompany); err != nil {
			return fmt.Errorf("create company: %w", err)
		}

		if err := tx.Users().CreateUser(ctx, newUser); err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				return ErrEmailTaken
			}
			return fmt.Errorf("create user: %w", err)
		}

		role, err := tx.Roles().GetRoleBySlug(ctx, RoleSuperAdmin)
		if err != nil {
			return fmt.Errorf("load %s role: %w", RoleSuperAdmin, err)
		}

		return tx.RoleAssignments().CreateAssignment(ctx, domain.RoleAssignment{
			ID:        idx.New().String(),
			UserID:    newUser.ID,
			RoleID:    role.ID,
			CompanyID: newCompany.ID,
		})
	})
	if err != nil {
		return AuthResult{}, err
	}

	l.Info("company registered",
		slog.String("company_id", newCompany.ID),
		slog.String("user_id", newUser.ID),
	)

	return s.issueFor(ctx, newUser, newCompany)
}

// Login authenticates by email and password. Unknown email and wrong
// password produce the same ErrInvalidCredentials; only the log line tells
// them apart.
func (s *AuthService) Login(ctx context.Context, email, password string) (AuthResult, error) {
	l := slogx.FromContext(ctx)

	user, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			l.Warn("login failed, unknown email", slog.String("email", email))
			return AuthResult{}, ErrInvalidCredentials
		}
		return AuthResult{}, fmt.Errorf("load user: %w", err)
	}

	if err := cryptox.VerifyPassword(password, user.PasswordHash); err != nil {
		l.Warn("login failed, password mismatch", slog.String("user_id", user.ID))
		return AuthResult{}, ErrInvalidCredentials
	}

	company, err := s.Store.Companies().GetCompanyByID(ctx, user.CompanyID)
	if err != nil {
		return AuthResult{}, fmt.Errorf("load company: %w", err)
	}

	return s.issueFor(ctx, user, company)
}

// Refresh validates a refresh token and issues a new access token with a
// freshly resolved permission snapshot. The refresh token itself is not
// rotated; the caller keeps using it until it expires.
func (s *AuthService) Refresh(ctx context.Context, rawRefresh string) (AuthResult, error) {
	claims, err := s.Tokens.ValidateRefresh(ctx, rawRefresh)
	if err != nil {
		return AuthResult{}, err
	}

	user, err := s.Store.Users().GetUserByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return AuthResult{}, ErrTokenInvalid
		}
		return AuthResult{}, fmt.Errorf("load user: %w", err)
	}
	if user.CompanyID != claims.CompanyID {
		// User moved companies since issuance; the token no longer
		// describes reality.
		return AuthResult{}, ErrTokenInvalid
	}

	company, err := s.Store.Companies().GetCompanyByID(ctx, user.CompanyID)
	if err != nil {
		return AuthResult{}, fmt.Errorf("load company: %w", err)
	}

	result, err := s.issueFor(ctx, user, company)
	if err != nil {
		return AuthResult{}, err
	}

	// Hand the original refresh token back so clients can treat the
	// response shape uniformly with login.
	result.Tokens.RefreshToken = rawRefresh
	return result, nil
}

// Logout revokes an access token until its natural expiry. Revoking an
// already-revoked token succeeds again; logout is idempotent.
func (s *AuthService) Logout(ctx context.Context, rawAccess string) error {
	if rawAccess == "" {
		return ErrTokenNotProvided
	}
	return s.Tokens.Revoke(ctx, rawAccess)
}

// Me returns the current user and company view.
func (s *AuthService) Me(ctx context.Context, userID string) (domain.User, domain.Company, error) {
	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, domain.Company{}, ErrUserNotFound
		}
		return domain.User{}, domain.Company{}, fmt.Errorf("load user: %w", err)
	}

	company, err := s.Store.Companies().GetCompanyByID(ctx, user.CompanyID)
	if err != nil {
		return domain.User{}, domain.Company{}, fmt.Errorf("load company: %w", err)
	}

	return user, company, nil
}

func (s *AuthService) issueFor(ctx context.Context, user domain.User, company domain.Company) (AuthResult, error) {
	roles, permissions, err := s.Permissions.Snapshot(ctx, user.ID, user.CompanyID)
	if err != nil {
		return AuthResult{}, err
	}

	tokens, err := s.Tokens.IssueTokens(user, company, roles, permissions)
	if err != nil {
		return AuthResult{}, err
	}

	return AuthResult{
		User:    user,
		Company: company,
		Roles:   roles,
		Tokens:  tokens,
	}, nil
}

// uniqueCompanyIdentifier draws random identifiers until one is free. The
// collision probability is negligible at 12 alphanumeric chars, but the
// loop has to exist; the store's unique constraint is the real guarantee.
func (s *AuthService) uniqueCompanyIdentifier(ctx context.Context) (string, error) {
	for range 10 {
		identifier, err := cryptox.GenerateIdentifier(companyIdentifierLength)
		if err != nil {
			return "", fmt.Errorf("generate identifier: %w", err)
		}

		_, err = s.Store.Companies().GetCompanyByIdentifier(ctx, identifier)
		if errors.Is(err, store.ErrNotFound) {
			return identifier, nil
		}
		if err != nil {
			return "", fmt.Errorf("check identifier: %w", err)
		}
	}
	return "", errors.New("could not generate a unique company identifier")
}
