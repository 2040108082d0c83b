package service_test

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/eledevo/authledger/internal/auth/domain"
	"github.com/eledevo/authledger/internal/auth/service"
	"github.com/eledevo/authledger/internal/auth/store"
	"github.com/eledevo/authledger/internal/auth/store/drivers/sqlite"
	"github.com/eledevo/authledger/pkg/cryptox"
	"github.com/eledevo/authledger/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

const (
	testIssuer   = "authledger-test"
	testPassword = "correct horse battery staple"
)

func jsonDiscardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "authledger-service-test")
	if err != nil {
		panic(err)
	}
	cryptox.SetPepperPath(filepath.Join(dir, "pepper"))

	code := m.Run()
	_ = os.RemoveAll(dir)
	os.Exit(code)
}

func newFixture(t *testing.T) (*service.AuthService, *service.Authenticator, store.Store) {
	t.Helper()

	key, err := cryptox.GenerateSigningKey()
	require.NoError(t, err)

	signer, err := jwtx.NewSignerHS256(key)
	require.NoError(t, err)
	verifier, err := jwtx.NewVerifierHS256(key, testIssuer)
	require.NoError(t, err)

	st, err := sqlite.NewStore(filepath.Join(t.TempDir(), "auth.db"))
	require.NoError(t, err)
	require.NoError(t, st.ApplyMigrations())
	t.Cleanup(func() { _ = st.Close() })

	svc := &service.AuthService{
		Signer:     signer,
		Verifier:   verifier,
		Store:      st,
		Issuer:     testIssuer,
		AccessTTL:  time.Minute,
		RefreshTTL: time.Hour,
	}
	authn := &service.Authenticator{Verifier: verifier, Store: st}

	return svc, authn, st
}

func registerUser(t *testing.T, svc *service.AuthService, email string) *domain.TokenPair {
	t.Helper()

	pair, err := svc.Register(context.Background(), service.RegisterParams{
		Firstname: "Ada",
		Lastname:  "Lovelace",
		Email:     email,
		Password:  testPassword,
	})
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	return pair
}

func usable(t *testing.T, st store.Store, token string) bool {
	t.Helper()

	ok, err := st.Tokens().IsUsable(context.Background(), cryptox.FingerprintToken(token))
	require.NoError(t, err)
	return ok
}

func TestRegister(t *testing.T) {
	svc, _, st := newFixture(t)
	ctx := context.Background()

	pair := registerUser(t, svc, "ada@example.com")

	t.Run("access token is ledgered and usable", func(t *testing.T) {
		require.True(t, usable(t, st, pair.AccessToken))
	})

	t.Run("refresh token is never ledgered", func(t *testing.T) {
		_, err := st.Tokens().GetByHash(ctx, cryptox.FingerprintToken(pair.RefreshToken))
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("email is normalised to lower case", func(t *testing.T) {
		_, err := svc.Authenticate(ctx, "ADA@Example.COM", testPassword)
		require.NoError(t, err)
	})

	t.Run("duplicate email", func(t *testing.T) {
		_, err := svc.Register(ctx, service.RegisterParams{
			Firstname: "Other",
			Lastname:  "Person",
			Email:     "ada@example.com",
			Password:  "something else",
		})
		require.ErrorIs(t, err, service.ErrEmailTaken)
	})
}

func TestAuthenticate(t *testing.T) {
	svc, _, st := newFixture(t)
	ctx := context.Background()

	first := registerUser(t, svc, "ada@example.com")

	pair, err := svc.Authenticate(ctx, "ada@example.com", testPassword)
	require.NoError(t, err)

	t.Run("new access token is usable, old one is revoked", func(t *testing.T) {
		require.True(t, usable(t, st, pair.AccessToken))
		require.False(t, usable(t, st, first.AccessToken))
	})

	t.Run("both tokens still pass signature verification", func(t *testing.T) {
		// Revocation lives in the ledger only; the old token remains a
		// perfectly valid JWT.
		_, err := svc.Verifier.Verify(first.AccessToken)
		require.NoError(t, err)
		_, err = svc.Verifier.Verify(pair.AccessToken)
		require.NoError(t, err)
	})

	t.Run("revoked record survives as audit trail", func(t *testing.T) {
		rec, err := st.Tokens().GetByHash(ctx, cryptox.FingerprintToken(first.AccessToken))
		require.NoError(t, err)
		require.True(t, rec.Expired)
		require.True(t, rec.Revoked)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Authenticate(ctx, "ada@example.com", "wrong")
		require.ErrorIs(t, err, service.ErrInvalidCredentials)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := svc.Authenticate(ctx, "nobody@example.com", testPassword)
		require.ErrorIs(t, err, service.ErrInvalidCredentials)
	})
}

func TestRefresh(t *testing.T) {
	svc, _, st := newFixture(t)
	ctx := context.Background()

	login := registerUser(t, svc, "ada@example.com")

	pair, err := svc.Refresh(ctx, login.RefreshToken)
	require.NoError(t, err)

	t.Run("refresh token is echoed unchanged", func(t *testing.T) {
		require.Equal(t, login.RefreshToken, pair.RefreshToken)
	})

	t.Run("old access token revoked, new one usable", func(t *testing.T) {
		require.NotEqual(t, login.AccessToken, pair.AccessToken)
		require.False(t, usable(t, st, login.AccessToken))
		require.True(t, usable(t, st, pair.AccessToken))
	})

	t.Run("garbage refresh token", func(t *testing.T) {
		_, err := svc.Refresh(ctx, "not.a.jwt")
		require.ErrorIs(t, err, service.ErrInvalidRefresh)
	})

	t.Run("access token works as refresh input", func(t *testing.T) {
		// Access and refresh tokens share claims and key, so a valid
		// access token passes refresh verification. That matches the
		// codec's contract: refresh is judged by signature and expiry.
		_, err := svc.Refresh(ctx, pair.AccessToken)
		require.NoError(t, err)
	})
}

func TestRefreshUnknownSubject(t *testing.T) {
	svc, _, _ := newFixture(t)
	ctx := context.Background()

	// A token signed with our key whose subject was never registered.
	claims := jwtx.NewClaims("ghost@example.com", "USER", "Ghost", time.Hour, testIssuer, time.Now())
	token, err := svc.Signer.Sign(claims)
	require.NoError(t, err)

	_, err = svc.Refresh(ctx, token)
	require.ErrorIs(t, err, service.ErrUnknownSubject)
}

func TestLogout(t *testing.T) {
	svc, _, st := newFixture(t)
	ctx := context.Background()

	pair := registerUser(t, svc, "ada@example.com")

	require.NoError(t, svc.Logout(ctx, pair.AccessToken))
	require.False(t, usable(t, st, pair.AccessToken))

	t.Run("idempotent", func(t *testing.T) {
		require.NoError(t, svc.Logout(ctx, pair.AccessToken))
	})

	t.Run("unknown token is a no-op", func(t *testing.T) {
		require.NoError(t, svc.Logout(ctx, "never-issued"))
	})
}

func TestAuthenticator(t *testing.T) {
	svc, authn, _ := newFixture(t)
	ctx := context.Background()

	pair := registerUser(t, svc, "ada@example.com")

	t.Run("valid token resolves a principal", func(t *testing.T) {
		p, err := authn.Authenticate(ctx, pair.AccessToken)
		require.NoError(t, err)
		require.Equal(t, "ada@example.com", p.Email)
		require.Equal(t, domain.RoleUser, p.Role)
		require.True(t, p.HasRole(domain.RoleUser))
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := authn.Authenticate(ctx, "garbage")
		require.ErrorIs(t, err, jwtx.ErrMalformed)
	})

	t.Run("logged-out token fails the ledger check", func(t *testing.T) {
		require.NoError(t, svc.Logout(ctx, pair.AccessToken))

		_, err := authn.Authenticate(ctx, pair.AccessToken)
		require.ErrorIs(t, err, service.ErrTokenNotUsable)
	})

	t.Run("valid refresh token is not ledgered, so it cannot authenticate", func(t *testing.T) {
		_, err := authn.Authenticate(ctx, pair.RefreshToken)
		require.ErrorIs(t, err, service.ErrTokenNotUsable)
	})
}

func TestHousekeeping(t *testing.T) {
	svc, _, st := newFixture(t)
	ctx := context.Background()

	pair := registerUser(t, svc, "ada@example.com")

	logger := jsonDiscardLogger()
	hk := service.NewHousekeepingService(st, logger, time.Hour, time.Minute)

	// With records younger than the TTL nothing is swept.
	hk.Start()
	hk.Stop()
	require.True(t, usable(t, st, pair.AccessToken))

	// Push the cutoff past the record's creation time.
	n, err := st.Tokens().MarkExpiredBefore(ctx, time.Now().UTC().Add(time.Second))
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	rec, err := st.Tokens().GetByHash(ctx, cryptox.FingerprintToken(pair.AccessToken))
	require.NoError(t, err)
	require.True(t, rec.Expired)
	require.False(t, rec.Revoked)
}
