package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/taskgrid/iam/internal/iam/domain"
	"github.com/taskgrid/iam/internal/iam/store"
	"github.com/taskgrid/iam/internal/iam/store/drivers/sqlite"
	"github.com/taskgrid/iam/pkg/cachex"
	"github.com/taskgrid/iam/pkg/cryptox"
	"github.com/taskgrid/iam/pkg/idx"
	"github.com/taskgrid/iam/pkg/jwtx"
)

type testEnv struct {
	Store  store.Store
	Cache  *cachex.Memory
	Tokens *TokenService
	Perms  *PermissionService
	Auth   *AuthService
	Roles  *RoleService
	Users  *UserService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	cache := cachex.NewMemory()
	signer := &jwtx.Signer{Secret: []byte("test-secret-test-secret-test-sec"), Issuer: "iam-test"}

	tokens := &TokenService{
		Signer:     signer,
		Blacklist:  cache,
		AccessTTL:  time.Minute,
		RefreshTTL: time.Hour,
	}
	perms := &PermissionService{Store: st}
	roles := &RoleService{Store: st}

	return &testEnv{
		Store:  st,
		Cache:  cache,
		Tokens: tokens,
		Perms:  perms,
		Auth:   &AuthService{Store: st, Tokens: tokens, Permissions: perms},
		Roles:  roles,
		Users:  &UserService{Store: st, Roles: roles},
	}
}

// seedUser creates a company plus one user with the given password and
// returns both.
func (e *testEnv) seedUser(t *testing.T, email, password string) (domain.User, domain.Company) {
	t.Helper()
	ctx := context.Background()

	company := domain.Company{
		ID:         idx.New().String(),
		Name:       "Acme",
		Identifier: idx.New().String()[14:],
		Email:      "hello@acme.test",
	}
	require.NoError(t, e.Store.Companies().CreateCompany(ctx, company))

	hash, err := cryptox.HashPassword(password)
	require.NoError(t, err)

	user := domain.User{
		ID:           idx.New().String(),
		CompanyID:    company.ID,
		Name:         "Alice",
		Email:        email,
		PasswordHash: hash,
	}
	require.NoError(t, e.Store.Users().CreateUser(ctx, user))

	return user, company
}

// seedOtherCompanyUser creates a second, unrelated company with one user.
func (e *testEnv) seedOtherCompanyUser(t *testing.T) (domain.User, domain.Company) {
	t.Helper()
	ctx := context.Background()

	company := domain.Company{
		ID:         idx.New().String(),
		Name:       "Globex",
		Identifier: idx.New().String()[14:],
		Email:      "hello@globex.test",
	}
	require.NoError(t, e.Store.Companies().CreateCompany(ctx, company))

	hash, err := cryptox.HashPassword("pw123456")
	require.NoError(t, err)

	user := domain.User{
		ID:           idx.New().String(),
		CompanyID:    company.ID,
		Name:         "Bob",
		Email:        "bob@globex.test",
		PasswordHash: hash,
	}
	require.NoError(t, e.Store.Users().CreateUser(ctx, user))

	return user, company
}

// assignRole grants a seeded role to the user, optionally resource-scoped.
func (e *testEnv) assignRole(t *testing.T, user domain.User, slug string, resourceType *string, resourceID *int64) {
	t.Helper()
	require.NoError(t, e.Roles.Assign(context.Background(), AssignmentInput{
		UserID:       user.ID,
		RoleSlug:     slug,
		CompanyID:    user.CompanyID,
		ResourceType: resourceType,
		ResourceID:   resourceID,
	}))
}

func strPtr(s string) *string { return &s }
func i64Ptr(i int64) *int64   { return &i }
