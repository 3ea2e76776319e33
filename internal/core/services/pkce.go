package services

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"

	"github.com/custodia-labs/gitscope/internal/core/domain"
)

// Lengths of the generated PKCE values.
const (
	stateLength        = 32
	codeVerifierLength = 64
)

// pkceAlphabet is the RFC 7636 unreserved character set.
const pkceAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-._~"

// randomString returns n characters drawn uniformly from pkceAlphabet.
func randomString(n int) (string, error) {
	// Largest multiple of the alphabet size that fits in a byte; bytes at
	// or above it are rejected so every character is equally likely.
	limit := byte(256 - 256%len(pkceAlphabet))

	out := make([]byte, 0, n)
	buf := make([]byte, n)
	for len(out) < n {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("read random bytes: %w", err)
		}
		for _, b := range buf {
			if b >= limit {
				continue
			}
			out = append(out, pkceAlphabet[int(b)%len(pkceAlphabet)])
			if len(out) == n {
				break
			}
		}
	}
	return string(out), nil
}

// generateCodeVerifier creates a cryptographically random code verifier for PKCE.
func generateCodeVerifier() (string, error) {
	return randomString(codeVerifierLength)
}

// generateCodeChallenge creates a S256 code challenge from the verifier.
func generateCodeChallenge(verifier string) string {
	hash := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(hash[:])
}

// generateState creates a random state parameter for CSRF protection.
func generateState() (string, error) {
	return randomString(stateLength)
}

// newExchangeState generates the PKCE material for one attempt.
func newExchangeState() (domain.ExchangeState, error) {
	state, err := generateState()
	if err != nil {
		return domain.ExchangeState{}, err
	}
	verifier, err := generateCodeVerifier()
	if err != nil {
		return domain.ExchangeState{}, err
	}
	return domain.ExchangeState{
		State:         state,
		CodeVerifier:  verifier,
		CodeChallenge: generateCodeChallenge(verifier),
	}, nil
}
