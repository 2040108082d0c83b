package jwtx

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

// Verifier validates a JWT and gives you back the claims if it's legit.
type Verifier interface {
	Verify(token string) (Claims, error)

	// ExtractSubject is a convenience wrapper returning just the subject
	// claim. It performs its own full verification, so it is safe to call
	// on tokens the caller has not separately validated.
	ExtractSubject(token string) (string, error)
}

var (
	ErrBadKey     = errors.New("jwtx: signing key missing or not usable key material")
	ErrMalformed  = errors.New("jwtx: malformed token")
	ErrInvalidSig = errors.New("jwtx: invalid signature")

	ErrIssuer       = errors.New("jwtx: issuer mismatch")
	ErrExpired      = errors.New("jwtx: token expired")
	ErrNotYetValid  = errors.New("jwtx: token not yet valid")
	ErrInvalidClaim = errors.New("jwtx: invalid claims")
)

// HS256Verifier validates JWTs signed with the shared symmetric key.
type HS256Verifier struct {
	key    []byte
	issuer string
}

// NewVerifierHS256 creates a verifier from the same base64-encoded key the
// signer was built with. issuer may be empty to skip issuer enforcement.
func NewVerifierHS256(base64Key, issuer string) (*HS256Verifier, error) {
	key, err := decodeSigningKey(base64Key)
	if err != nil {
		return nil, err
	}
	return &HS256Verifier{key: key, issuer: issuer}, nil
}

// Verify parses and cryptographically verifies the token string, then checks
// the registered claims. Expiry is judged against the wall clock now, so a
// token that once verified fine can come back ErrExpired later.
func (v *HS256Verifier) Verify(tokenStr string) (Claims, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	token, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		return v.key, nil
	})
	if err != nil {
		return Claims{}, mapParseError(err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return Claims{}, ErrInvalidClaim
	}

	if err := claims.ValidateIssuer(v.issuer); err != nil {
		return Claims{}, err
	}
	if err := claims.ValidateExpiry(); err != nil {
		return Claims{}, err
	}

	return *claims, nil
}

// ExtractSubject verifies the token and returns its subject claim.
func (v *HS256Verifier) ExtractSubject(tokenStr string) (string, error) {
	claims, err := v.Verify(tokenStr)
	if err != nil {
		return "", err
	}
	if claims.Subject == "" {
		return "", ErrInvalidClaim
	}
	return claims.Subject, nil
}

// mapParseError collapses golang-jwt's error surface onto our sentinels so
// callers can switch on errors.Is without importing the jwt package.
func mapParseError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return errors.Join(ErrExpired, err)
	case errors.Is(err, jwt.ErrTokenNotValidYet):
		return errors.Join(ErrNotYetValid, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrSignatureInvalid):
		return errors.Join(ErrInvalidSig, err)
	case errors.Is(err, jwt.ErrTokenMalformed):
		return errors.Join(ErrMalformed, err)
	default:
		return errors.Join(ErrInvalidClaim, err)
	}
}
