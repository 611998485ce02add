package iamsdk

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClientLoginDecodesResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/auth/login", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)

		var req LoginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "alice@acme.test", req.Email)

		_ = json.NewEncoder(w).Encode(LoginResponse{
			User: UserView{ID: "u1", Email: req.Email, CompanyID: "c1"},
			TokenResponse: TokenResponse{
				AccessToken:  "access",
				RefreshToken: "refresh",
				TokenType:    "Bearer",
				ExpiresIn:    300,
			},
		})
	}))
	t.Cleanup(srv.Close)

	client := NewClient(srv.URL)
	resp, err := client.Login(context.Background(), "alice@acme.test", "pw123456")
	require.NoError(t, err)
	require.Equal(t, "u1", resp.User.ID)
	require.Equal(t, "access", resp.AccessToken)
}

func TestClientSurfacesTypedErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(ErrorResponse{
			Error:            ErrorCodeInvalidCredentials,
			ErrorDescription: "Invalid credentials",
		})
	}))
	t.Cleanup(srv.Close)

	client := NewClient(srv.URL)
	_, err := client.Login(context.Background(), "alice@acme.test", "wrong")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	require.Equal(t, ErrorCodeInvalidCredentials, apiErr.Code)
}

func TestClientLogout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/auth/logout", r.URL.Path)
		require.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)

	client := NewClient(srv.URL)
	require.NoError(t, client.Logout(context.Background(), "tok"))
}
