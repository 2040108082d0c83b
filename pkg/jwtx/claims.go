package jwtx

import (
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Default token TTL constants. These are the fallbacks when the config does
// not supply explicit TTLs.
const (
	// DefaultAccessTokenTTL is the default lifetime for access tokens.
	// Short-lived so a leaked token has a small window.
	DefaultAccessTokenTTL = 15 * time.Minute

	// DefaultRefreshTokenTTL is the default lifetime for refresh tokens.
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour
)

// Claims is the fixed, strongly-typed token payload. Access and refresh
// tokens share the same shape; they differ only in TTL. Extension fields are
// additive to keep older tokens decodable.
type Claims struct {
	jwt.RegisteredClaims

	// Role is the subject's role name ("USER", "MANAGER", "ADMIN").
	Role string `json:"role,omitempty"`

	// Name is a display name for the subject.
	Name string `json:"name,omitempty"`
}

// NewClaims builds minimally-correct claims for a token whose subject is the
// account's login identifier (email).
func NewClaims(
	subject string,
	role, name string,
	ttl time.Duration,
	issuer string,
	now time.Time,
) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        NewJTI(),
		},
		Role: role,
		Name: name,
	}
}

// NewJTI returns a URL-safe random identifier for the "jti" claim. The jti
// is what keeps two tokens minted in the same millisecond from colliding in
// the ledger.
func NewJTI() string {
	var b [20]byte
	_, _ = rand.Read(b[:])
	return base64.RawURLEncoding.EncodeToString(b[:])
}

// ValidateIssuer checks if the issuer matches the expected value.
func (c *Claims) ValidateIssuer(expected string) error {
	if expected == "" {
		return nil // nothing to enforce
	}

	if c.Issuer != expected {
		return ErrIssuer
	}

	return nil
}

// ValidateExpiry ensures the token hasn't expired (exp) and isn't before nbf.
// Expiry is judged against the wall clock at call time, never issuance time.
func (c *Claims) ValidateExpiry() error {
	now := time.Now().UTC()

	if c.ExpiresAt == nil {
		return ErrInvalidClaim
	}
	if now.After(c.ExpiresAt.Time) {
		return ErrExpired
	}
	if c.NotBefore != nil && now.Before(c.NotBefore.Time) {
		return ErrNotYetValid
	}

	return nil
}
