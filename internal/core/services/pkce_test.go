package services

import (
	"crypto/sha256"
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateCodeVerifier(t *testing.T) {
	t.Run("is 64 characters from the unreserved alphabet", func(t *testing.T) {
		verifier, err := generateCodeVerifier()

		require.NoError(t, err)
		assert.Len(t, verifier, 64)
		for _, r := range verifier {
			assert.True(t, strings.ContainsRune(pkceAlphabet, r), "unexpected character %q", r)
		}
	})

	t.Run("generates unique verifiers", func(t *testing.T) {
		seen := make(map[string]bool)
		for i := 0; i < 100; i++ {
			v, err := generateCodeVerifier()
			require.NoError(t, err)
			assert.False(t, seen[v], "verifier repeated")
			seen[v] = true
		}
	})
}

func TestGenerateState(t *testing.T) {
	state, err := generateState()

	require.NoError(t, err)
	assert.Len(t, state, 32)
	for _, r := range state {
		assert.True(t, strings.ContainsRune(pkceAlphabet, r))
	}
}

func TestGenerateCodeChallenge(t *testing.T) {
	t.Run("matches RFC 7636 appendix B", func(t *testing.T) {
		verifier := "dBjftJeZ4CVP-mJ92K9mkK4Fu0ALEc56X3vCEw7FyM8"
		assert.Equal(t, "E9Melhoa2OwvFrEMTJguCHaoeK1t8URWbuGJSstw-cM", generateCodeChallenge(verifier))
	})

	t.Run("is unpadded base64url of sha256", func(t *testing.T) {
		for i := 0; i < 50; i++ {
			verifier, err := generateCodeVerifier()
			require.NoError(t, err)

			challenge := generateCodeChallenge(verifier)
			sum := sha256.Sum256([]byte(verifier))

			assert.Equal(t, base64.RawURLEncoding.EncodeToString(sum[:]), challenge)
			assert.NotContains(t, challenge, "=")
			assert.NotContains(t, challenge, "+")
			assert.NotContains(t, challenge, "/")
			assert.Len(t, challenge, 43)
		}
	})
}

func TestNewExchangeState(t *testing.T) {
	ex, err := newExchangeState()

	require.NoError(t, err)
	assert.Len(t, ex.State, 32)
	assert.Len(t, ex.CodeVerifier, 64)
	assert.Equal(t, generateCodeChallenge(ex.CodeVerifier), ex.CodeChallenge)
}
