package cryptox

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"math/big"
)

// FingerprintToken returns a deterministic SHA-256 fingerprint of a token,
// base64url-encoded. The fingerprint identifies a token in the revocation
// cache without storing the token itself.
func FingerprintToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// identifierCharset deliberately excludes symbols so identifiers stay
// URL- and filename-safe.
const identifierCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GenerateIdentifier returns a random alphanumeric identifier of the given
// length. Used for company external identifiers; uniqueness is the caller's
// concern (retry on collision against the store).
func GenerateIdentifier(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("cryptox: identifier length must be positive, got %d", length)
	}

	out := make([]byte, length)
	for i := range out {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(identifierCharset))))
		if err != nil {
			return "", fmt.Errorf("cryptox: failed to generate identifier: %w", err)
		}
		out[i] = identifierCharset[n.Int64()]
	}
	return string(out), nil
}
