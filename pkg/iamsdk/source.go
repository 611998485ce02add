package iamsdk

import (
	"context"
	"fmt"
)

// Trust modes for consuming services. The choice is a deliberate
// latency/freshness trade-off: local mode answers from the token snapshot
// without a network hop, remote mode gets a live, revocation-aware answer
// from the identity service.
const (
	ModeLocal  = "local"
	ModeRemote = "remote"
)

// PermissionSource answers permission questions for a bearer token. Both
// trust modes implement it, so consuming services pick a mode once at
// startup and the rest of their code stays mode-agnostic.
type PermissionSource interface {
	// Allowed reports whether the token's user holds the permission,
	// optionally scoped by req.ResourceType/ResourceID.
	Allowed(ctx context.Context, accessToken string, req CheckRequest) (bool, error)
}

// NewPermissionSource selects a trust mode. Local mode needs the shared
// secret; remote mode needs the identity service base URL.
func NewPermissionSource(mode string, secret []byte, issuer, baseURL string) (PermissionSource, error) {
	switch mode {
	case ModeLocal:
		return &localSource{verifier: NewLocalVerifier(secret, issuer)}, nil
	case ModeRemote:
		return &remoteSource{client: NewClient(baseURL)}, nil
	default:
		return nil, fmt.Errorf("iamsdk: unknown trust mode %q", mode)
	}
}

type localSource struct {
	verifier *LocalVerifier
}

func (s *localSource) Allowed(_ context.Context, accessToken string, req CheckRequest) (bool, error) {
	claims, err := s.verifier.Verify(accessToken)
	if err != nil {
		return false, err
	}

	// The snapshot cannot answer for other users or resource scopes;
	// those questions are remote-only.
	if req.UserID != "" && req.UserID != claims.Subject {
		return false, nil
	}
	if req.CompanyID != "" && req.CompanyID != claims.CompanyID {
		return false, nil
	}
	if req.ResourceType != nil || req.ResourceID != nil {
		return false, nil
	}

	return s.verifier.HasPermission(claims, req.Permission), nil
}

type remoteSource struct {
	client *Client
}

func (s *remoteSource) Allowed(ctx context.Context, accessToken string, req CheckRequest) (bool, error) {
	return s.client.Check(ctx, accessToken, req)
}
