package sqlite

import (
	"context"
	"errors"
	"time"

	"github.com/eledevo/authledger/internal/auth/domain"
	"github.com/eledevo/authledger/internal/auth/store"
)

type tokensRepo struct {
	q querier
}

const tokenColumns = `id, user_id, token_hash, kind, expired, revoked, created_at, updated_at`

func (r *tokensRepo) Record(ctx context.Context, t domain.Token) error {
	now := time.Now().UTC()
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO tokens (id, user_id, token_hash, kind, expired, revoked, created_at, updated_at)
		 VALUES (?, ?, ?, ?, 0, 0, ?, ?)`,
		t.ID, t.UserID, t.TokenHash, string(t.Kind), now, now)
	return mapConstraint(err)
}

func (r *tokensRepo) GetByHash(ctx context.Context, hash string) (domain.Token, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT `+tokenColumns+` FROM tokens WHERE token_hash = ?`, hash)

	var t domain.Token
	var kind string
	err := row.Scan(
		&t.ID,
		&t.UserID,
		&t.TokenHash,
		&kind,
		&t.Expired,
		&t.Revoked,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return domain.Token{}, mapNotFound(err)
	}
	t.Kind = domain.TokenKind(kind)
	return t, nil
}

func (r *tokensRepo) IsUsable(ctx context.Context, hash string) (bool, error) {
	t, err := r.GetByHash(ctx, hash)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, nil // closed world: unledgered tokens are not usable
		}
		return false, err
	}
	return t.Usable(), nil
}

func (r *tokensRepo) Revoke(ctx context.Context, hash string) error {
	// Idempotent by construction: zero rows matched is fine.
	_, err := r.q.ExecContext(ctx,
		`UPDATE tokens SET expired = 1, revoked = 1, updated_at = ?
		 WHERE token_hash = ? AND (expired = 0 OR revoked = 0)`,
		time.Now().UTC(), hash)
	return err
}

func (r *tokensRepo) RevokeAllForUser(ctx context.Context, userID string) error {
	// Single UPDATE so concurrent IsUsable readers see either the old or
	// the new flags, never a half-swept set.
	_, err := r.q.ExecContext(ctx,
		`UPDATE tokens SET expired = 1, revoked = 1, updated_at = ?
		 WHERE user_id = ? AND expired = 0 AND revoked = 0`,
		time.Now().UTC(), userID)
	return err
}

func (r *tokensRepo) MarkExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.q.ExecContext(ctx,
		`UPDATE tokens SET expired = 1, updated_at = ?
		 WHERE expired = 0 AND revoked = 0 AND created_at < ?`,
		time.Now().UTC(), cutoff.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
