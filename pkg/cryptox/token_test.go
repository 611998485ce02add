package cryptox

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFingerprintToken(t *testing.T) {
	t.Parallel()

	fp1 := FingerprintToken("some.jwt.token")
	fp2 := FingerprintToken("some.jwt.token")
	fp3 := FingerprintToken("other.jwt.token")

	require.Equal(t, fp1, fp2, "fingerprint must be deterministic")
	require.NotEqual(t, fp1, fp3)
	require.Len(t, fp1, 43) // base64url(sha256) without padding
}

func TestGenerateIdentifier(t *testing.T) {
	t.Parallel()

	t.Run("length and charset", func(t *testing.T) {
		id, err := GenerateIdentifier(12)
		require.NoError(t, err)
		require.Len(t, id, 12)
		require.Regexp(t, "^[a-zA-Z0-9]+$", id)
	})

	t.Run("rejects non-positive length", func(t *testing.T) {
		_, err := GenerateIdentifier(0)
		require.Error(t, err)
	})

	t.Run("identifiers are random", func(t *testing.T) {
		seen := make(map[string]struct{})
		for range 50 {
			id, err := GenerateIdentifier(12)
			require.NoError(t, err)
			seen[id] = struct{}{}
		}
		require.Len(t, seen, 50)
	})
}
