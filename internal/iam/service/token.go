package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/taskgrid/iam/internal/iam/domain"
	"github.com/taskgrid/iam/pkg/cachex"
	"github.com/taskgrid/iam/pkg/cryptox"
	"github.com/taskgrid/iam/pkg/jwtx"
)

var (
	ErrTokenInvalid   = errors.New("invalid_token")
	ErrTokenExpired   = errors.New("token_expired")
	ErrTokenRevoked   = errors.New("token_revoked")
	ErrWrongTokenType = errors.New("wrong_token_type")
)

// TokenService issues, validates and revokes the two token kinds. It is the
// only place that touches the revocation cache; the cache key is a sha256
// fingerprint of the raw token so the cache never holds usable credentials.
type TokenService struct {
	Signer     *jwtx.Signer
	Blacklist  cachex.Cache
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// IssueTokens mints an access/refresh pair for a user. The roles and
// permissions slices are snapshotted into the access token as-is.
func (s *TokenService) IssueTokens(
	user domain.User,
	company domain.Company,
	roles, permissions []string,
) (domain.TokenPair, error) {
	now := time.Now()

	access, err := s.Signer.SignAccess(jwtx.NewAccessClaims(
		user.ID, user.Email, user.Name,
		company.ID, company.Name,
		roles, permissions,
		s.AccessTTL, s.Signer.Issuer, now,
	))
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("sign access token: %w", err)
	}

	refresh, err := s.Signer.SignRefresh(jwtx.NewRefreshClaims(
		user.ID, company.ID,
		s.RefreshTTL, s.Signer.Issuer, now,
	))
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("sign refresh token: %w", err)
	}

	return domain.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    s.AccessTTL,
	}, nil
}

// ValidateAccess verifies the signature, expiry and type of an access token
// and rejects revoked tokens. The revocation check runs after the signature
// check so unauthenticated garbage never reaches the cache.
func (s *TokenService) ValidateAccess(ctx context.Context, raw string) (jwtx.AccessClaims, error) {
	claims, err := s.Signer.ParseAccess(raw)
	if err != nil {
		return jwtx.AccessClaims{}, mapTokenError(err)
	}

	revoked, err := s.Blacklist.Has(ctx, cryptox.FingerprintToken(raw))
	if err != nil {
		return jwtx.AccessClaims{}, fmt.Errorf("revocation check: %w", err)
	}
	if revoked {
		return jwtx.AccessClaims{}, ErrTokenRevoked
	}

	return claims, nil
}

// ValidateRefresh is ValidateAccess for refresh tokens.
func (s *TokenService) ValidateRefresh(ctx context.Context, raw string) (jwtx.RefreshClaims, error) {
	claims, err := s.Signer.ParseRefresh(raw)
	if err != nil {
		return jwtx.RefreshClaims{}, mapTokenError(err)
	}

	revoked, err := s.Blacklist.Has(ctx, cryptox.FingerprintToken(raw))
	if err != nil {
		return jwtx.RefreshClaims{}, fmt.Errorf("revocation check: %w", err)
	}
	if revoked {
		return jwtx.RefreshClaims{}, ErrTokenRevoked
	}

	return claims, nil
}

// Revoke blacklists a token until its natural expiry. Only tokens we signed
// are accepted; the signature is still verified even though expiry is not,
// so an already-expired token revokes as a harmless no-op instead of an
// error. Revoking the same token twice is also a no-op.
func (s *TokenService) Revoke(ctx context.Context, raw string) error {
	expiresAt, err := s.Signer.ExpiresAt(raw)
	if err != nil {
		return mapTokenError(err)
	}

	ttl := time.Until(expiresAt)
	return s.Blacklist.Put(ctx, cryptox.FingerprintToken(raw), ttl)
}

func mapTokenError(err error) error {
	switch {
	case errors.Is(err, jwtx.ErrExpired):
		return ErrTokenExpired
	case errors.Is(err, jwtx.ErrWrongType):
		return ErrWrongTokenType
	default:
		return ErrTokenInvalid
	}
}
