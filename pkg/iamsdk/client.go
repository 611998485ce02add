package iamsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/taskgrid/iam/pkg/slogx"
)

// Client talks to the identity service over HTTP. The zero value is not
// usable; construct with NewClient.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Register creates a company with its founding user.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (RegisterResponse, error) {
	var out RegisterResponse
	err := c.doJSON(ctx, http.MethodPost, "/api/auth/register", "", req, &out, http.StatusCreated)
	return out, err
}

// Login authenticates with email and password.
func (c *Client) Login(ctx context.Context, email, password string) (LoginResponse, error) {
	var out LoginResponse
	err := c.doJSON(ctx, http.MethodPost, "/api/auth/login",
		"", LoginRequest{Email: email, Password: password}, &out, http.StatusOK)
	return out, err
}

// Refresh exchanges a refresh token for a fresh access token.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (TokenResponse, error) {
	var out TokenResponse
	err := c.doJSON(ctx, http.MethodPost, "/api/auth/refresh",
		"", RefreshRequest{RefreshToken: refreshToken}, &out, http.StatusOK)
	return out, err
}

// Logout revokes the access token.
func (c *Client) Logout(ctx context.Context, accessToken string) error {
	resp, err := c.do(ctx, http.MethodPost, "/api/auth/logout", accessToken, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		body, _ := io.ReadAll(resp.Body)
		return parseErrorResponse(resp, body)
	}
	return nil
}

// Me returns the live user view for the bearer token. A revoked token fails
// here even before its natural expiry.
func (c *Client) Me(ctx context.Context, accessToken string) (MeResponse, error) {
	var out MeResponse
	err := c.doJSON(ctx, http.MethodGet, "/api/auth/me", accessToken, nil, &out, http.StatusOK)
	return out, err
}

// Check asks the identity service for a live permission answer.
func (c *Client) Check(ctx context.Context, accessToken string, req CheckRequest) (bool, error) {
	var out CheckResponse
	err := c.doJSON(ctx, http.MethodPost, "/api/permissions/check", accessToken, req, &out, http.StatusOK)
	return out.Allowed, err
}

// CheckBatch evaluates several slugs in one round trip.
func (c *Client) CheckBatch(ctx context.Context, accessToken string, req BatchCheckRequest) (map[string]bool, error) {
	var out BatchCheckResponse
	err := c.doJSON(ctx, http.MethodPost, "/api/permissions/check-batch", accessToken, req, &out, http.StatusOK)
	return out.Results, err
}

func (c *Client) do(ctx context.Context, method, path, bearer string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	// Propagate the correlation id so the identity service's logs line up
	// with the caller's.
	if id := slogx.CorrelationID(ctx); id != "" {
		req.Header.Set(slogx.CorrelationHeader, id)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	return resp, nil
}

func (c *Client) doJSON(ctx context.Context, method, path, bearer string, body, target any, expectedStatus int) error {
	resp, err := c.do(ctx, method, path, bearer, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != expectedStatus {
		return parseErrorResponse(resp, raw)
	}

	if err := json.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
