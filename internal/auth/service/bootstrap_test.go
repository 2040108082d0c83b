package service_test

import (
	"context"
	"testing"

	"github.com/eledevo/authledger/internal/auth/domain"
	"github.com/eledevo/authledger/internal/auth/service"
	"github.com/stretchr/testify/require"
)

func TestBootstrap(t *testing.T) {
	svc, authn, st := newFixture(t)
	ctx := context.Background()

	boot := &service.BootstrapService{Store: st}

	bootstrapped, err := boot.IsBootstrapped(ctx)
	require.NoError(t, err)
	require.False(t, bootstrapped)

	id, err := boot.SeedAdmin(ctx, "Root@Example.com", testPassword)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	t.Run("seeded admin logs in with the admin role", func(t *testing.T) {
		pair, err := svc.Authenticate(ctx, "root@example.com", testPassword)
		require.NoError(t, err)

		p, err := authn.Authenticate(ctx, pair.AccessToken)
		require.NoError(t, err)
		require.Equal(t, domain.RoleAdmin, p.Role)
		require.True(t, p.HasAuthority(domain.AuthorityAdminRead))
	})

	t.Run("second seed is refused", func(t *testing.T) {
		_, err := boot.SeedAdmin(ctx, "other@example.com", testPassword)
		require.ErrorIs(t, err, service.ErrBootstrapAlready)
	})

	t.Run("any existing user blocks seeding", func(t *testing.T) {
		svc2, _, st2 := newFixture(t)
		registerUser(t, svc2, "ada@example.com")

		_, err := (&service.BootstrapService{Store: st2}).SeedAdmin(ctx, "root@example.com", testPassword)
		require.ErrorIs(t, err, service.ErrBootstrapAlready)
	})
}
