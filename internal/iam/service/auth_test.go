package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func registerAcme(t *testing.T, env *testEnv) AuthResult {
	t.Helper()

	result, err := env.Auth.RegisterCompany(context.Background(),
		CompanyInput{Name: "Acme", Email: "hello@acme.test", Phone: "555-0100"},
		UserInput{Name: "Alice", Email: "alice@acme.test", Password: "pw123456"},
	)
	require.NoError(t, err)
	return result
}

func TestRegisterCompanyCreatesFounderAsSuperAdmin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	result := registerAcme(t, env)

	require.Equal(t, "Acme", result.Company.Name)
	require.Len(t, result.Company.Identifier, 12)
	require.Equal(t, result.Company.ID, result.User.CompanyID)
	require.Equal(t, []string{RoleSuperAdmin}, result.Roles)
	require.NotEmpty(t, result.Tokens.AccessToken)
	require.NotEmpty(t, result.Tokens.RefreshToken)

	// The founder's snapshot carries every seeded permission.
	claims, err := env.Tokens.ValidateAccess(ctx, result.Tokens.AccessToken)
	require.NoError(t, err)
	require.Contains(t, claims.Permissions, "user:invite")
	require.Contains(t, claims.Permissions, "project:delete")
	require.Equal(t, []string{RoleSuperAdmin}, claims.Roles)
}

func TestRegisterCompanyRejectsDuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	registerAcme(t, env)

	_, err := env.Auth.RegisterCompany(ctx,
		CompanyInput{Name: "Acme Two", Email: "two@acme.test"},
		UserInput{Name: "Alice", Email: "alice@acme.test", Password: "pw123456"},
	)
	require.ErrorIs(t, err, ErrEmailTaken)

	// The original account is untouched by the failed registration.
	result, err := env.Auth.Login(ctx, "alice@acme.test", "pw123456")
	require.NoError(t, err)
	require.Equal(t, "Acme", result.Company.Name)
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	registerAcme(t, env)

	t.Run("success returns tokens and roles", func(t *testing.T) {
		result, err := env.Auth.Login(ctx, "alice@acme.test", "pw123456")
		require.NoError(t, err)
		require.Equal(t, []string{RoleSuperAdmin}, result.Roles)
		require.NotEmpty(t, result.Tokens.AccessToken)
	})

	t.Run("wrong password and unknown email fail identically", func(t *testing.T) {
		_, errWrongPassword := env.Auth.Login(ctx, "alice@acme.test", "nope")
		_, errUnknownEmail := env.Auth.Login(ctx, "nobody@acme.test", "pw123456")

		require.ErrorIs(t, errWrongPassword, ErrInvalidCredentials)
		require.ErrorIs(t, errUnknownEmail, ErrInvalidCredentials)
		require.Equal(t, errWrongPassword, errUnknownEmail)
	})
}

func TestRefreshIssuesFreshSnapshot(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	result := registerAcme(t, env)

	// Drop the founder's super-admin role after issuance.
	require.NoError(t, env.Roles.Remove(ctx, AssignmentInput{
		UserID:    result.User.ID,
		RoleSlug:  RoleSuperAdmin,
		CompanyID: result.Company.ID,
	}))
	env.assignRole(t, result.User, "viewer", nil, nil)

	refreshed, err := env.Auth.Refresh(ctx, result.Tokens.RefreshToken)
	require.NoError(t, err)

	// The refresh token is not rotated.
	require.Equal(t, result.Tokens.RefreshToken, refreshed.Tokens.RefreshToken)

	// The new access token reflects the role change, the old one does not.
	claims, err := env.Tokens.ValidateAccess(ctx, refreshed.Tokens.AccessToken)
	require.NoError(t, err)
	require.Equal(t, []string{"viewer"}, claims.Roles)
	require.NotContains(t, claims.Permissions, "user:invite")

	oldClaims, err := env.Tokens.ValidateAccess(ctx, result.Tokens.AccessToken)
	require.NoError(t, err)
	require.Equal(t, []string{RoleSuperAdmin}, oldClaims.Roles)
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	env := newTestEnv(t)

	result := registerAcme(t, env)

	_, err := env.Auth.Refresh(context.Background(), result.Tokens.AccessToken)
	require.ErrorIs(t, err, ErrWrongTokenType)
}

func TestLogoutRevokesImmediatelyAndIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	result := registerAcme(t, env)

	require.NoError(t, env.Auth.Logout(ctx, result.Tokens.AccessToken))

	// The token is dead well before its natural expiry.
	_, err := env.Tokens.ValidateAccess(ctx, result.Tokens.AccessToken)
	require.ErrorIs(t, err, ErrTokenRevoked)

	// Logging out again succeeds the same way.
	require.NoError(t, env.Auth.Logout(ctx, result.Tokens.AccessToken))

	require.ErrorIs(t, env.Auth.Logout(ctx, ""), ErrTokenNotProvided)
}

func TestMe(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	result := registerAcme(t, env)

	user, company, err := env.Auth.Me(ctx, result.User.ID)
	require.NoError(t, err)
	require.Equal(t, result.User.ID, user.ID)
	require.Equal(t, result.Company.ID, company.ID)
	require.Equal(t, result.Company.Identifier, company.Identifier)

	_, _, err = env.Auth.Me(ctx, "missing")
	require.ErrorIs(t, err, ErrUserNotFound)
}
