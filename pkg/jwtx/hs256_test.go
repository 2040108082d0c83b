package jwtx_test

import (
	"crypto/rand"
	"encoding/base64"
	"testing"
	"time"

	"github.com/eledevo/authledger/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func testKey(t *testing.T) string {
	t.Helper()
	raw := make([]byte, 32)
	_, err := rand.Read(raw)
	require.NoError(t, err)
	return base64.StdEncoding.EncodeToString(raw)
}

func TestNewSignerHS256(t *testing.T) {
	t.Parallel()

	t.Run("valid key", func(t *testing.T) {
		s, err := jwtx.NewSignerHS256(testKey(t))
		require.NoError(t, err)
		require.Equal(t, "HS256", s.Alg())
		require.NoError(t, s.Validate())
	})

	t.Run("missing key", func(t *testing.T) {
		_, err := jwtx.NewSignerHS256("")
		require.ErrorIs(t, err, jwtx.ErrBadKey)
	})

	t.Run("not base64", func(t *testing.T) {
		_, err := jwtx.NewSignerHS256("!!!not-base64!!!")
		require.ErrorIs(t, err, jwtx.ErrBadKey)
	})

	t.Run("key too short", func(t *testing.T) {
		short := base64.StdEncoding.EncodeToString([]byte("tiny"))
		_, err := jwtx.NewSignerHS256(short)
		require.ErrorIs(t, err, jwtx.ErrBadKey)
	})

	t.Run("unpadded raw encoding accepted", func(t *testing.T) {
		raw := make([]byte, 33) // 33 bytes pads under StdEncoding
		key := base64.RawStdEncoding.EncodeToString(raw)
		_, err := jwtx.NewSignerHS256(key)
		require.NoError(t, err)
	})
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	key := testKey(t)
	signer, err := jwtx.NewSignerHS256(key)
	require.NoError(t, err)
	verifier, err := jwtx.NewVerifierHS256(key, "auth-service")
	require.NoError(t, err)

	now := time.Now().UTC()
	claims := jwtx.NewClaims("a@x.com", "USER", "Alice Example", time.Minute, "auth-service", now)

	token, err := signer.Sign(claims)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	got, err := verifier.Verify(token)
	require.NoError(t, err)
	require.Equal(t, "a@x.com", got.Subject)
	require.Equal(t, "USER", got.Role)
	require.Equal(t, "Alice Example", got.Name)
	require.Equal(t, "auth-service", got.Issuer)
	require.NotEmpty(t, got.ID)

	sub, err := verifier.ExtractSubject(token)
	require.NoError(t, err)
	require.Equal(t, "a@x.com", sub)
}

func TestVerifyFailures(t *testing.T) {
	t.Parallel()

	key := testKey(t)
	signer, err := jwtx.NewSignerHS256(key)
	require.NoError(t, err)
	verifier, err := jwtx.NewVerifierHS256(key, "")
	require.NoError(t, err)

	now := time.Now().UTC()

	t.Run("expired token", func(t *testing.T) {
		claims := jwtx.NewClaims("a@x.com", "", "", time.Minute, "", now.Add(-2*time.Minute))
		token, err := signer.Sign(claims)
		require.NoError(t, err)

		_, err = verifier.Verify(token)
		require.ErrorIs(t, err, jwtx.ErrExpired)

		_, err = verifier.ExtractSubject(token)
		require.ErrorIs(t, err, jwtx.ErrExpired)
	})

	t.Run("wrong key", func(t *testing.T) {
		otherSigner, err := jwtx.NewSignerHS256(testKey(t))
		require.NoError(t, err)

		token, err := otherSigner.Sign(jwtx.NewClaims("a@x.com", "", "", time.Minute, "", now))
		require.NoError(t, err)

		_, err = verifier.Verify(token)
		require.ErrorIs(t, err, jwtx.ErrInvalidSig)
	})

	t.Run("structurally invalid", func(t *testing.T) {
		_, err := verifier.Verify("not.a.jwt-at-all")
		require.ErrorIs(t, err, jwtx.ErrMalformed)

		_, err = verifier.Verify("")
		require.ErrorIs(t, err, jwtx.ErrMalformed)
	})

	t.Run("issuer mismatch", func(t *testing.T) {
		strict, err := jwtx.NewVerifierHS256(key, "auth-service")
		require.NoError(t, err)

		token, err := signer.Sign(jwtx.NewClaims("a@x.com", "", "", time.Minute, "someone-else", now))
		require.NoError(t, err)

		_, err = strict.Verify(token)
		require.ErrorIs(t, err, jwtx.ErrIssuer)
	})
}

func TestValidateExpiry(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()

	t.Run("valid", func(t *testing.T) {
		c := jwtx.NewClaims("a@x.com", "", "", time.Minute, "", now)
		require.NoError(t, c.ValidateExpiry())
	})

	t.Run("expired", func(t *testing.T) {
		c := jwtx.NewClaims("a@x.com", "", "", time.Minute, "", now.Add(-time.Hour))
		require.ErrorIs(t, c.ValidateExpiry(), jwtx.ErrExpired)
	})

	t.Run("not yet valid", func(t *testing.T) {
		c := jwtx.NewClaims("a@x.com", "", "", time.Minute, "", now.Add(time.Hour))
		require.ErrorIs(t, c.ValidateExpiry(), jwtx.ErrNotYetValid)
	})
}
