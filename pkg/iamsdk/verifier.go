package iamsdk

import (
	"slices"

	"github.com/taskgrid/iam/pkg/jwtx"
)

// LocalVerifier validates access tokens with the shared secret and trusts
// the embedded permission snapshot. It never talks to the identity service,
// so it cannot see revocations or role changes made after issuance; that
// staleness is bounded by the access token TTL and is the accepted price of
// local mode.
type LocalVerifier struct {
	signer *jwtx.Signer
}

func NewLocalVerifier(secret []byte, issuer string) *LocalVerifier {
	return &LocalVerifier{
		signer: &jwtx.Signer{Secret: secret, Issuer: issuer},
	}
}

// Verify checks the token's signature, expiry and type, and returns its
// claims.
func (v *LocalVerifier) Verify(raw string) (jwtx.AccessClaims, error) {
	claims, err := v.signer.ParseAccess(raw)
	if err != nil {
		return jwtx.AccessClaims{}, ErrInvalidToken
	}
	return claims, nil
}

// HasPermission reports whether the snapshot inside a verified token grants
// the slug. Snapshots only carry company-wide permissions; resource-scoped
// grants require a remote check.
func (v *LocalVerifier) HasPermission(claims jwtx.AccessClaims, permission string) bool {
	return slices.Contains(claims.Permissions, permission)
}
