package jwtx

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Default token TTLs. Access tokens are deliberately short-lived because
// they carry a permission snapshot that goes stale; refresh tokens only
// carry enough to mint a new access token, so they can live longer.
const (
	DefaultAccessTokenTTL  = 5 * time.Minute
	DefaultRefreshTokenTTL = 24 * time.Hour
)

// Token type discriminators embedded in every token we issue. Validation
// always checks the discriminator, so a refresh token can never pass where
// an access token is expected and vice versa.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// AccessClaims is the closed claim set of an access token. The roles and
// permissions lists are a snapshot computed at issuance time; consumers that
// decode locally trust the snapshot until exp.
type AccessClaims struct {
	jwt.RegisteredClaims

	Email       string   `json:"email"`
	Name        string   `json:"name"`
	CompanyID   string   `json:"company_id"`
	CompanyName string   `json:"company_name,omitempty"`
	Roles       []string `json:"roles"`
	Permissions []string `json:"permissions"`
	TokenType   string   `json:"type"`
}

// RefreshClaims is the closed claim set of a refresh token. It is kept to
// subject + company on purpose: a leaked refresh token reveals nothing about
// the user's permissions.
type RefreshClaims struct {
	jwt.RegisteredClaims

	CompanyID string `json:"company_id"`
	TokenType string `json:"type"`
}

// NewAccessClaims builds access claims for a user with the given role and
// permission snapshot. Subject carries the user id.
func NewAccessClaims(
	userID, email, name string,
	companyID, companyName string,
	roles, permissions []string,
	ttl time.Duration,
	issuer string,
	now time.Time,
) AccessClaims {
	return AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Email:       email,
		Name:        name,
		CompanyID:   companyID,
		CompanyName: companyName,
		Roles:       roles,
		Permissions: permissions,
		TokenType:   TokenTypeAccess,
	}
}

// NewRefreshClaims builds refresh claims for a user.
func NewRefreshClaims(
	userID, companyID string,
	ttl time.Duration,
	issuer string,
	now time.Time,
) RefreshClaims {
	return RefreshClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		CompanyID: companyID,
		TokenType: TokenTypeRefresh,
	}
}
