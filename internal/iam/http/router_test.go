package http

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/taskgrid/iam/internal/iam/service"
	"github.com/taskgrid/iam/internal/iam/store/drivers/sqlite"
	"github.com/taskgrid/iam/pkg/cachex"
	"github.com/taskgrid/iam/pkg/iamsdk"
	"github.com/taskgrid/iam/pkg/jwtx"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	signer := &jwtx.Signer{Secret: []byte("test-secret-test-secret-test-sec"), Issuer: "iam-test"}
	tokens := &service.TokenService{
		Signer:     signer,
		Blacklist:  cachex.NewMemory(),
		AccessTTL:  time.Minute,
		RefreshTTL: time.Hour,
	}
	perms := &service.PermissionService{Store: st}
	roles := &service.RoleService{Store: st}

	router := NewRouter("test", st, slog.New(slog.DiscardHandler))
	router.TokenService = tokens
	router.PermissionService = perms
	router.RoleService = roles
	router.AuthService = &service.AuthService{Store: st, Tokens: tokens, Permissions: perms}
	router.UserService = &service.UserService{Store: st, Roles: roles}
	router.ApplyRoutes()

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

// doJSON issues a request and decodes the response body into out (when out
// is non-nil). It returns the response for status and header assertions.
func doJSON(t *testing.T, method, url, token string, body, out any) *http.Response {
	t.Helper()

	var reqBody io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, url, reqBody)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func registerAcme(t *testing.T, srv *httptest.Server) iamsdk.RegisterResponse {
	t.Helper()

	var resp iamsdk.RegisterResponse
	r := doJSON(t, http.MethodPost, srv.URL+"/api/auth/register", "", iamsdk.RegisterRequest{
		Company: iamsdk.RegisterCompany{Name: "Acme", Email: "hello@acme.test"},
		User: iamsdk.RegisterUser{
			Name:                 "Alice",
			Email:                "alice@acme.test",
			Password:             "pw123456",
			PasswordConfirmation: "pw123456",
		},
	}, &resp)
	require.Equal(t, http.StatusCreated, r.StatusCode)
	return resp
}

func TestRegisterThenMe(t *testing.T) {
	srv := newTestServer(t)

	reg := registerAcme(t, srv)
	require.NotEmpty(t, reg.AccessToken)
	require.NotEmpty(t, reg.RefreshToken)
	require.Equal(t, "Bearer", reg.TokenType)
	require.Contains(t, reg.User.Roles, "super-admin")
	require.Len(t, reg.Company.Identifier, 12)

	var me iamsdk.MeResponse
	r := doJSON(t, http.MethodGet, srv.URL+"/api/auth/me", reg.AccessToken, nil, &me)
	require.Equal(t, http.StatusOK, r.StatusCode)
	require.Equal(t, "alice@acme.test", me.Email)
	require.NotNil(t, me.Company)
	require.Equal(t, reg.Company.ID, me.Company.ID)
}

func TestMeWithoutTokenIsRejected(t *testing.T) {
	srv := newTestServer(t)

	var errResp iamsdk.ErrorResponse
	r := doJSON(t, http.MethodGet, srv.URL+"/api/auth/me", "", nil, &errResp)
	require.Equal(t, http.StatusUnauthorized, r.StatusCode)
	require.Equal(t, iamsdk.ErrorCodeTokenNotProvided, errResp.Error)
	require.NotEmpty(t, r.Header.Get("WWW-Authenticate"))
}

func TestRegisterValidation(t *testing.T) {
	srv := newTestServer(t)

	req := iamsdk.RegisterRequest{
		Company: iamsdk.RegisterCompany{Name: "Acme", Email: "hello@acme.test"},
		User: iamsdk.RegisterUser{
			Name:                 "Alice",
			Email:                "alice@acme.test",
			Password:             "pw123456",
			PasswordConfirmation: "different",
		},
	}

	var errResp iamsdk.ErrorResponse
	r := doJSON(t, http.MethodPost, srv.URL+"/api/auth/register", "", req, &errResp)
	require.Equal(t, http.StatusUnprocessableEntity, r.StatusCode)
	require.Equal(t, iamsdk.ErrorCodeValidationFailed, errResp.Error)
	require.Equal(t, "user.password_confirmation", errResp.Field)

	req.User.PasswordConfirmation = req.User.Password
	req.User.Email = "not-an-email"
	r = doJSON(t, http.MethodPost, srv.URL+"/api/auth/register", "", req, &errResp)
	require.Equal(t, http.StatusUnprocessableEntity, r.StatusCode)
	require.Equal(t, "user.email", errResp.Field)
}

func TestLoginWrongPassword(t *testing.T) {
	srv := newTestServer(t)
	registerAcme(t, srv)

	var errResp iamsdk.ErrorResponse
	r := doJSON(t, http.MethodPost, srv.URL+"/api/auth/login", "", iamsdk.LoginRequest{
		Email:    "alice@acme.test",
		Password: "wrong-password",
	}, &errResp)
	require.Equal(t, http.StatusUnauthorized, r.StatusCode)
	require.Equal(t, iamsdk.ErrorCodeInvalidCredentials, errResp.Error)
}

func TestLoginThenRefresh(t *testing.T) {
	srv := newTestServer(t)
	reg := registerAcme(t, srv)

	var login iamsdk.LoginResponse
	r := doJSON(t, http.MethodPost, srv.URL+"/api/auth/login", "", iamsdk.LoginRequest{
		Email:    "alice@acme.test",
		Password: "pw123456",
	}, &login)
	require.Equal(t, http.StatusOK, r.StatusCode)

	var refreshed iamsdk.LoginResponse
	r = doJSON(t, http.MethodPost, srv.URL+"/api/auth/refresh", "", iamsdk.RefreshRequest{
		RefreshToken: login.RefreshToken,
	}, &refreshed)
	require.Equal(t, http.StatusOK, r.StatusCode)
	require.NotEmpty(t, refreshed.AccessToken)
	// The refresh token is not rotated; the original stays valid.
	require.Equal(t, login.RefreshToken, refreshed.RefreshToken)

	r = doJSON(t, http.MethodGet, srv.URL+"/api/auth/me", refreshed.AccessToken, nil, nil)
	require.Equal(t, http.StatusOK, r.StatusCode)

	// An access token is not accepted where a refresh token is expected.
	var errResp iamsdk.ErrorResponse
	r = doJSON(t, http.MethodPost, srv.URL+"/api/auth/refresh", "", iamsdk.RefreshRequest{
		RefreshToken: reg.AccessToken,
	}, &errResp)
	require.Equal(t, http.StatusUnauthorized, r.StatusCode)
	require.Equal(t, iamsdk.ErrorCodeInvalidToken, errResp.Error)
}

func TestLogoutInvalidatesImmediately(t *testing.T) {
	srv := newTestServer(t)
	reg := registerAcme(t, srv)

	r := doJSON(t, http.MethodGet, srv.URL+"/api/auth/me", reg.AccessToken, nil, nil)
	require.Equal(t, http.StatusOK, r.StatusCode)

	r = doJSON(t, http.MethodPost, srv.URL+"/api/auth/logout", reg.AccessToken, nil, nil)
	require.Equal(t, http.StatusNoContent, r.StatusCode)

	var errResp iamsdk.ErrorResponse
	r = doJSON(t, http.MethodGet, srv.URL+"/api/auth/me", reg.AccessToken, nil, &errResp)
	require.Equal(t, http.StatusUnauthorized, r.StatusCode)
	require.Equal(t, iamsdk.ErrorCodeInvalidToken, errResp.Error)

	// Logout is idempotent.
	r = doJSON(t, http.MethodPost, srv.URL+"/api/auth/logout", reg.AccessToken, nil, nil)
	require.Equal(t, http.StatusNoContent, r.StatusCode)

	r = doJSON(t, http.MethodPost, srv.URL+"/api/auth/logout", "", nil, nil)
	require.Equal(t, http.StatusUnauthorized, r.StatusCode)
}

func TestPermissionCheckEndpoints(t *testing.T) {
	srv := newTestServer(t)
	reg := registerAcme(t, srv)

	// The founder is super-admin and holds every permission.
	var check iamsdk.CheckResponse
	r := doJSON(t, http.MethodPost, srv.URL+"/api/permissions/check", reg.AccessToken,
		iamsdk.CheckRequest{Permission: "task:delete"}, &check)
	require.Equal(t, http.StatusOK, r.StatusCode)
	require.True(t, check.Allowed)

	// Invite a viewer and check on their behalf.
	var invited iamsdk.UserView
	r = doJSON(t, http.MethodPost, srv.URL+"/api/users", reg.AccessToken, iamsdk.InviteUserRequest{
		Name:     "Victor",
		Email:    "victor@acme.test",
		RoleSlug: "viewer",
	}, &invited)
	require.Equal(t, http.StatusCreated, r.StatusCode)

	var batch iamsdk.BatchCheckResponse
	r = doJSON(t, http.MethodPost, srv.URL+"/api/permissions/check-batch", reg.AccessToken,
		iamsdk.BatchCheckRequest{
			Permissions: []string{"task:view", "task:create"},
			UserID:      invited.ID,
		}, &batch)
	require.Equal(t, http.StatusOK, r.StatusCode)
	require.True(t, batch.Results["task:view"])
	require.False(t, batch.Results["task:create"])

	// A scope with only one half is a validation error.
	resourceType := "project"
	var errResp iamsdk.ErrorResponse
	r = doJSON(t, http.MethodPost, srv.URL+"/api/permissions/check", reg.AccessToken,
		iamsdk.CheckRequest{Permission: "task:view", ResourceType: &resourceType}, &errResp)
	require.Equal(t, http.StatusUnprocessableEntity, r.StatusCode)
}

func TestRoleEndpoints(t *testing.T) {
	srv := newTestServer(t)
	reg := registerAcme(t, srv)

	var list iamsdk.ListRolesResponse
	r := doJSON(t, http.MethodGet, srv.URL+"/api/roles", reg.AccessToken, nil, &list)
	require.Equal(t, http.StatusOK, r.StatusCode)
	require.Len(t, list.Roles, 4)

	byID := map[string]iamsdk.RoleView{}
	for _, role := range list.Roles {
		byID[role.Slug] = role
	}
	require.Len(t, byID["super-admin"].Permissions, 16)
	require.ElementsMatch(t,
		[]string{"project:view", "task:view", "file:view"},
		byID["viewer"].Permissions)

	var invited iamsdk.UserView
	r = doJSON(t, http.MethodPost, srv.URL+"/api/users", reg.AccessToken, iamsdk.InviteUserRequest{
		Name:     "Mallory",
		Email:    "mallory@acme.test",
		Password: "pw123456",
	}, &invited)
	require.Equal(t, http.StatusCreated, r.StatusCode)

	resourceType := "project"
	resourceID := int64(42)
	r = doJSON(t, http.MethodPost, srv.URL+"/api/roles/assign", reg.AccessToken, iamsdk.AssignRoleRequest{
		UserID:       invited.ID,
		RoleSlug:     "project-manager",
		ResourceType: &resourceType,
		ResourceID:   &resourceID,
	}, nil)
	require.Equal(t, http.StatusNoContent, r.StatusCode)

	// Duplicate assignment at the same scope conflicts.
	r = doJSON(t, http.MethodPost, srv.URL+"/api/roles/assign", reg.AccessToken, iamsdk.AssignRoleRequest{
		UserID:       invited.ID,
		RoleSlug:     "project-manager",
		ResourceType: &resourceType,
		ResourceID:   &resourceID,
	}, nil)
	require.Equal(t, http.StatusConflict, r.StatusCode)

	var userRoles iamsdk.ListUserRolesResponse
	r = doJSON(t, http.MethodGet, srv.URL+"/api/roles/user/"+invited.ID, reg.AccessToken, nil, &userRoles)
	require.Equal(t, http.StatusOK, r.StatusCode)
	require.Len(t, userRoles.Roles, 1)
	require.Equal(t, "project-manager", userRoles.Roles[0].Role.Slug)
	require.NotNil(t, userRoles.Roles[0].ResourceType)

	r = doJSON(t, http.MethodPost, srv.URL+"/api/roles/remove", reg.AccessToken, iamsdk.AssignRoleRequest{
		UserID:       invited.ID,
		RoleSlug:     "project-manager",
		ResourceType: &resourceType,
		ResourceID:   &resourceID,
	}, nil)
	require.Equal(t, http.StatusNoContent, r.StatusCode)

	// A non-super-admin may not manage assignments.
	var login iamsdk.LoginResponse
	r = doJSON(t, http.MethodPost, srv.URL+"/api/auth/login", "", iamsdk.LoginRequest{
		Email:    "mallory@acme.test",
		Password: "pw123456",
	}, &login)
	require.Equal(t, http.StatusOK, r.StatusCode)

	r = doJSON(t, http.MethodPost, srv.URL+"/api/roles/assign", login.AccessToken, iamsdk.AssignRoleRequest{
		UserID:   invited.ID,
		RoleSlug: "viewer",
	}, nil)
	require.Equal(t, http.StatusForbidden, r.StatusCode)
}

func TestUserEndpoints(t *testing.T) {
	srv := newTestServer(t)
	reg := registerAcme(t, srv)

	var invited iamsdk.UserView
	r := doJSON(t, http.MethodPost, srv.URL+"/api/users", reg.AccessToken, iamsdk.InviteUserRequest{
		Name:     "Bob",
		Email:    "bob@acme.test",
		Password: "pw123456",
		RoleSlug: "team-member",
	}, &invited)
	require.Equal(t, http.StatusCreated, r.StatusCode)

	// Duplicate email conflicts.
	r = doJSON(t, http.MethodPost, srv.URL+"/api/users", reg.AccessToken, iamsdk.InviteUserRequest{
		Name:  "Bob Again",
		Email: "bob@acme.test",
	}, nil)
	require.Equal(t, http.StatusConflict, r.StatusCode)

	var list iamsdk.ListUsersResponse
	r = doJSON(t, http.MethodGet, srv.URL+"/api/users", reg.AccessToken, nil, &list)
	require.Equal(t, http.StatusOK, r.StatusCode)
	require.Len(t, list.Users, 2)

	newName := "Robert"
	var updated iamsdk.UserView
	r = doJSON(t, http.MethodPatch, srv.URL+"/api/users/"+invited.ID, reg.AccessToken,
		iamsdk.UpdateUserRequest{Name: &newName}, &updated)
	require.Equal(t, http.StatusOK, r.StatusCode)
	require.Equal(t, "Robert", updated.Name)

	// The invitee can update themselves but not delete others.
	var login iamsdk.LoginResponse
	r = doJSON(t, http.MethodPost, srv.URL+"/api/auth/login", "", iamsdk.LoginRequest{
		Email:    "bob@acme.test",
		Password: "pw123456",
	}, &login)
	require.Equal(t, http.StatusOK, r.StatusCode)

	selfName := "Rob"
	r = doJSON(t, http.MethodPatch, srv.URL+"/api/users/"+invited.ID, login.AccessToken,
		iamsdk.UpdateUserRequest{Name: &selfName}, nil)
	require.Equal(t, http.StatusOK, r.StatusCode)

	r = doJSON(t, http.MethodDelete, srv.URL+"/api/users/"+reg.User.ID, login.AccessToken, nil, nil)
	require.Equal(t, http.StatusForbidden, r.StatusCode)

	r = doJSON(t, http.MethodDelete, srv.URL+"/api/users/"+invited.ID, reg.AccessToken, nil, nil)
	require.Equal(t, http.StatusNoContent, r.StatusCode)

	r = doJSON(t, http.MethodGet, srv.URL+"/api/users/"+invited.ID, reg.AccessToken, nil, nil)
	require.Equal(t, http.StatusNotFound, r.StatusCode)
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t)

	var live iamsdk.HealthResponse
	r := doJSON(t, http.MethodGet, srv.URL+"/livez", "", nil, &live)
	require.Equal(t, http.StatusOK, r.StatusCode)
	require.Equal(t, "ok", live.Status)
	require.Equal(t, "test", live.Version)

	var ready iamsdk.HealthResponse
	r = doJSON(t, http.MethodGet, srv.URL+"/readyz", "", nil, &ready)
	require.Equal(t, http.StatusOK, r.StatusCode)
	require.Equal(t, "ok", ready.Checks.Database)
}
