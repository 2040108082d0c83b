package cryptox

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

// SigningKeyBytes is the raw size of generated HMAC signing keys.
const SigningKeyBytes = 32

// GenerateSigningKey creates a fresh random symmetric signing key and
// returns it base64-encoded, ready for AUTH_SIGNING_KEY. Used for ephemeral
// dev keys; production deployments supply their own.
func GenerateSigningKey() (string, error) {
	raw := make([]byte, SigningKeyBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("cryptox: failed to generate signing key: %w", err)
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// FingerprintToken returns a deterministic SHA-256 fingerprint of a token
// string, base64url-encoded (43 chars). The ledger stores fingerprints
// instead of raw token material so a database leak does not leak usable
// bearer tokens.
func FingerprintToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
