package jwtx

import (
	"encoding/base64"
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

// MinKeyBytes is the smallest HMAC key we accept. HS256 keys shorter than
// the hash output weaken the MAC.
const MinKeyBytes = 32

// Signer is our interface for anything that can sign JWTs.
type Signer interface {
	Alg() string
	Sign(Claims) (string, error)
	Validate() error
}

// HS256Signer signs tokens with a single shared symmetric key.
type HS256Signer struct {
	key []byte
}

// NewSignerHS256 builds a signer from a base64-encoded symmetric key. A
// missing key, undecodable input, or a key below MinKeyBytes is a
// configuration error (ErrBadKey).
func NewSignerHS256(base64Key string) (*HS256Signer, error) {
	key, err := decodeSigningKey(base64Key)
	if err != nil {
		return nil, err
	}
	return &HS256Signer{key: key}, nil
}

func (s *HS256Signer) Alg() string { return jwt.SigningMethodHS256.Alg() }

// Sign takes the claims and turns them into a signed compact JWT string.
func (s *HS256Signer) Sign(claims Claims) (string, error) {
	if err := s.Validate(); err != nil {
		return "", err
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(s.key)
}

// Validate is a quick sanity check that key material is actually loaded.
func (s *HS256Signer) Validate() error {
	if len(s.key) < MinKeyBytes {
		return ErrBadKey
	}
	return nil
}

func decodeSigningKey(base64Key string) ([]byte, error) {
	if base64Key == "" {
		return nil, ErrBadKey
	}

	// Accept both standard and raw (unpadded) encodings; config files and
	// env vars are sloppy about padding.
	key, err := base64.StdEncoding.DecodeString(base64Key)
	if err != nil {
		key, err = base64.RawStdEncoding.DecodeString(base64Key)
	}
	if err != nil {
		return nil, errors.Join(ErrBadKey, err)
	}
	if len(key) < MinKeyBytes {
		return nil, ErrBadKey
	}
	return key, nil
}
