package jwtx

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMalformed    = errors.New("jwtx: malformed token")
	ErrInvalidSig   = errors.New("jwtx: invalid signature")
	ErrExpired      = errors.New("jwtx: token expired")
	ErrWrongType    = errors.New("jwtx: wrong token type")
	ErrMissingClaim = errors.New("jwtx: missing required claim")
)

// Signer signs and parses tokens with a single shared HS256 secret. Every
// service in the deployment shares the same secret, which is what lets
// consumers verify access tokens locally without a callback.
//
// Expiry is validated with zero leeway: a token one second past exp is
// expired. Clock skew is not compensated for; hosts are expected to run NTP.
type Signer struct {
	Secret []byte
	Issuer string
}

// SignAccess signs access claims.
func (s *Signer) SignAccess(c AccessClaims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.Secret)
}

// SignRefresh signs refresh claims.
func (s *Signer) SignRefresh(c RefreshClaims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.Secret)
}

// ParseAccess verifies the signature and expiry of raw and enforces the
// access type discriminator. Any failure is terminal; callers get either a
// fully valid claim set or an error.
func (s *Signer) ParseAccess(raw string) (AccessClaims, error) {
	var claims AccessClaims
	if err := s.parse(raw, &claims); err != nil {
		return AccessClaims{}, err
	}
	if claims.TokenType != TokenTypeAccess {
		return AccessClaims{}, ErrWrongType
	}
	if claims.Subject == "" || claims.CompanyID == "" {
		return AccessClaims{}, ErrMissingClaim
	}
	return claims, nil
}

// ParseRefresh is ParseAccess for refresh tokens.
func (s *Signer) ParseRefresh(raw string) (RefreshClaims, error) {
	var claims RefreshClaims
	if err := s.parse(raw, &claims); err != nil {
		return RefreshClaims{}, err
	}
	if claims.TokenType != TokenTypeRefresh {
		return RefreshClaims{}, ErrWrongType
	}
	if claims.Subject == "" || claims.CompanyID == "" {
		return RefreshClaims{}, ErrMissingClaim
	}
	return claims, nil
}

// ExpiresAt verifies the signature of raw and returns its expiry without
// validating it. Revocation bookkeeping needs the expiry of tokens that may
// already be expired, but only for tokens we actually signed.
func (s *Signer) ExpiresAt(raw string) (time.Time, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	var claims jwt.RegisteredClaims
	if _, err := parser.ParseWithClaims(raw, &claims, s.keyfunc); err != nil {
		return time.Time{}, mapParseError(err)
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, ErrMissingClaim
	}
	return claims.ExpiresAt.Time, nil
}

func (s *Signer) parse(raw string, claims jwt.Claims) error {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	_, err := parser.ParseWithClaims(raw, claims, s.keyfunc)
	if err != nil {
		return mapParseError(err)
	}
	return nil
}

func (s *Signer) keyfunc(*jwt.Token) (any, error) {
	return s.Secret, nil
}

func mapParseError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrInvalidSig
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ErrMalformed
	default:
		return ErrMalformed
	}
}
