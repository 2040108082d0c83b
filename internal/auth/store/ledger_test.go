package store_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/eledevo/authledger/internal/auth/domain"
	"github.com/eledevo/authledger/internal/auth/store"
	redisdriver "github.com/eledevo/authledger/internal/auth/store/drivers/redis"
	"github.com/eledevo/authledger/internal/auth/store/drivers/sqlite"
	"github.com/eledevo/authledger/pkg/idx"
)

// newMixedStore backs users with sqlite and the token ledger with redis,
// the combination the decorator exists for.
func newMixedStore(t *testing.T) store.Store {
	t.Helper()

	base, err := sqlite.NewStore(filepath.Join(t.TempDir(), "auth.db"))
	require.NoError(t, err)
	require.NoError(t, base.ApplyMigrations())
	t.Cleanup(func() { _ = base.Close() })

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return store.WithTokenLedger(base, redisdriver.NewLedgerFromClient(client))
}

func TestWithTokenLedger(t *testing.T) {
	st := newMixedStore(t)
	ctx := context.Background()

	user := domain.User{
		ID:           idx.New().String(),
		Firstname:    "Mixed",
		Lastname:     "Store",
		Email:        "mixed@example.com",
		PasswordHash: "$argon2id$v=19$m=19456,t=2,p=1$c2FsdA$aGFzaA",
		Role:         domain.RoleUser,
	}
	require.NoError(t, st.Users().CreateUser(ctx, user))

	require.NoError(t, st.Tokens().Record(ctx, domain.Token{
		ID:        idx.New().String(),
		UserID:    user.ID,
		TokenHash: "hash-a",
		Kind:      domain.KindAccess,
	}))

	t.Run("both repos are reachable", func(t *testing.T) {
		got, err := st.Users().GetUserByEmail(ctx, "mixed@example.com")
		require.NoError(t, err)
		require.Equal(t, user.ID, got.ID)

		usable, err := st.Tokens().IsUsable(ctx, "hash-a")
		require.NoError(t, err)
		require.True(t, usable)
	})

	t.Run("transactions see the overriding ledger", func(t *testing.T) {
		err := st.WithTx(ctx, func(tx store.Tx) error {
			if err := tx.Tokens().RevokeAllForUser(ctx, user.ID); err != nil {
				return err
			}
			return tx.Tokens().Record(ctx, domain.Token{
				ID:        idx.New().String(),
				UserID:    user.ID,
				TokenHash: "hash-b",
				Kind:      domain.KindAccess,
			})
		})
		require.NoError(t, err)

		usable, err := st.Tokens().IsUsable(ctx, "hash-a")
		require.NoError(t, err)
		require.False(t, usable)

		usable, err = st.Tokens().IsUsable(ctx, "hash-b")
		require.NoError(t, err)
		require.True(t, usable)
	})
}
