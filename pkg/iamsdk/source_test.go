package iamsdk

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/taskgrid/iam/pkg/jwtx"
)

var testSecret = []byte("unit-test-secret-unit-test-secre")

func signedAccessToken(t *testing.T, permissions []string, ttl time.Duration) string {
	t.Helper()

	signer := &jwtx.Signer{Secret: testSecret, Issuer: "iam-test"}
	raw, err := signer.SignAccess(jwtx.NewAccessClaims(
		"user-1", "alice@acme.test", "Alice",
		"company-1", "Acme",
		[]string{"viewer"}, permissions,
		ttl, signer.Issuer, time.Now(),
	))
	require.NoError(t, err)
	return raw
}

func TestLocalVerifier(t *testing.T) {
	v := NewLocalVerifier(testSecret, "iam-test")

	raw := signedAccessToken(t, []string{"task:view"}, time.Minute)

	claims, err := v.Verify(raw)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.Subject)
	require.True(t, v.HasPermission(claims, "task:view"))
	require.False(t, v.HasPermission(claims, "task:delete"))

	_, err = v.Verify("not-a-token")
	require.ErrorIs(t, err, ErrInvalidToken)

	expired := signedAccessToken(t, nil, -time.Minute)
	_, err = v.Verify(expired)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestLocalSourceAnswersFromSnapshot(t *testing.T) {
	src, err := NewPermissionSource(ModeLocal, testSecret, "iam-test", "")
	require.NoError(t, err)

	raw := signedAccessToken(t, []string{"task:view"}, time.Minute)
	ctx := context.Background()

	allowed, err := src.Allowed(ctx, raw, CheckRequest{Permission: "task:view"})
	require.NoError(t, err)
	require.True(t, allowed)

	allowed, err = src.Allowed(ctx, raw, CheckRequest{Permission: "task:delete"})
	require.NoError(t, err)
	require.False(t, allowed)

	// Questions the snapshot cannot answer come back denied.
	allowed, err = src.Allowed(ctx, raw, CheckRequest{Permission: "task:view", UserID: "someone-else"})
	require.NoError(t, err)
	require.False(t, allowed)

	scoped := "project"
	allowed, err = src.Allowed(ctx, raw, CheckRequest{Permission: "task:view", ResourceType: &scoped})
	require.NoError(t, err)
	require.False(t, allowed)
}

func TestRemoteSourceCallsCheckEndpoint(t *testing.T) {
	var gotAuth, gotPermission string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/permissions/check", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")

		var req CheckRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		gotPermission = req.Permission

		_ = json.NewEncoder(w).Encode(CheckResponse{Allowed: true})
	}))
	t.Cleanup(srv.Close)

	src, err := NewPermissionSource(ModeRemote, nil, "", srv.URL)
	require.NoError(t, err)

	allowed, err := src.Allowed(context.Background(), "some-token", CheckRequest{Permission: "task:view"})
	require.NoError(t, err)
	require.True(t, allowed)
	require.Equal(t, "Bearer some-token", gotAuth)
	require.Equal(t, "task:view", gotPermission)
}

func TestNewPermissionSourceRejectsUnknownMode(t *testing.T) {
	_, err := NewPermissionSource("psychic", nil, "", "")
	require.Error(t, err)
}
