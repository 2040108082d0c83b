// Package redis provides a token ledger backed by Redis. It implements
// store.Tokens only; pair it with a relational driver for users via
// store.WithTokenLedger. Useful when several auth replicas need to share
// one revocation view without sharing a database file.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/eledevo/authledger/internal/auth/domain"
	"github.com/eledevo/authledger/internal/auth/store"
)

const (
	tokenKeyPrefix   = "tok"
	userSetKeyPrefix = "usr"

	// Optimistic transactions retry on contention, bounded so a hot key
	// cannot spin forever.
	maxTxRetries = 4
)

// Ledger is a store.Tokens implementation on a Redis client. Each record
// lives in a hash keyed by the token fingerprint, with a per-user set
// indexing fingerprints for the revoke-all sweep.
type Ledger struct {
	client *redis.Client
}

var _ store.Tokens = (*Ledger)(nil)

// NewLedger connects to the given Redis address and verifies it is
// reachable before returning.
func NewLedger(ctx context.Context, addr string) (*Ledger, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ledger: ping %s: %w", addr, err)
	}
	return &Ledger{client: client}, nil
}

// NewLedgerFromClient wraps an existing client. The caller keeps
// ownership of the client's lifecycle.
func NewLedgerFromClient(client *redis.Client) *Ledger {
	return &Ledger{client: client}
}

// Close releases the underlying client.
func (l *Ledger) Close() error {
	return l.client.Close()
}

// Ping verifies the backend is reachable.
func (l *Ledger) Ping(ctx context.Context) error {
	return l.client.Ping(ctx).Err()
}

func tokenKey(hash string) string {
	return tokenKeyPrefix + ":" + hash
}

func userSetKey(userID string) string {
	return userSetKeyPrefix + ":" + userID + ":tokens"
}

func (l *Ledger) Record(ctx context.Context, t domain.Token) error {
	key := tokenKey(t.TokenHash)
	now := time.Now().UTC()

	for i := 0; i < maxTxRetries; i++ {
		err := l.client.Watch(ctx, func(tx *redis.Tx) error {
			exists, err := tx.Exists(ctx, key).Result()
			if err != nil {
				return err
			}
			if exists > 0 {
				return store.ErrAlreadyExists
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.HSet(ctx, key, map[string]interface{}{
					"id":         t.ID,
					"user_id":    t.UserID,
					"kind":       string(t.Kind),
					"expired":    "0",
					"revoked":    "0",
					"created_at": now.Format(time.RFC3339Nano),
					"updated_at": now.Format(time.RFC3339Nano),
				})
				pipe.SAdd(ctx, userSetKey(t.UserID), t.TokenHash)
				return nil
			})
			return err
		}, key)

		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("redis ledger: record %s: too much contention", t.TokenHash)
}

func (l *Ledger) GetByHash(ctx context.Context, hash string) (domain.Token, error) {
	fields, err := l.client.HGetAll(ctx, tokenKey(hash)).Result()
	if err != nil {
		return domain.Token{}, fmt.Errorf("redis ledger: get %s: %w", hash, err)
	}
	if len(fields) == 0 {
		return domain.Token{}, store.ErrNotFound
	}
	return decodeToken(hash, fields)
}

func (l *Ledger) IsUsable(ctx context.Context, hash string) (bool, error) {
	t, err := l.GetByHash(ctx, hash)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, nil // closed world: unledgered tokens are not usable
		}
		return false, err
	}
	return t.Usable(), nil
}

func (l *Ledger) Revoke(ctx context.Context, hash string) error {
	key := tokenKey(hash)

	for i := 0; i < maxTxRetries; i++ {
		err := l.client.Watch(ctx, func(tx *redis.Tx) error {
			exists, err := tx.Exists(ctx, key).Result()
			if err != nil {
				return err
			}
			if exists == 0 {
				return nil // idempotent: unknown fingerprints are a no-op
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				markRevoked(ctx, pipe, key)
				return nil
			})
			return err
		}, key)

		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("redis ledger: revoke %s: too much contention", hash)
}

func (l *Ledger) RevokeAllForUser(ctx context.Context, userID string) error {
	setKey := userSetKey(userID)

	for i := 0; i < maxTxRetries; i++ {
		err := l.client.Watch(ctx, func(tx *redis.Tx) error {
			hashes, err := tx.SMembers(ctx, setKey).Result()
			if err != nil {
				return err
			}
			if len(hashes) == 0 {
				return nil
			}

			// One pipeline so the sweep lands as a unit relative to the
			// watched set.
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				for _, hash := range hashes {
					markRevoked(ctx, pipe, tokenKey(hash))
				}
				return nil
			})
			return err
		}, setKey)

		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("redis ledger: revoke all for %s: too much contention", userID)
}

func (l *Ledger) MarkExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	var (
		cursor  uint64
		touched int64
	)
	now := time.Now().UTC().Format(time.RFC3339Nano)

	for {
		keys, next, err := l.client.Scan(ctx, cursor, tokenKeyPrefix+":*", 100).Result()
		if err != nil {
			return touched, fmt.Errorf("redis ledger: scan: %w", err)
		}

		for _, key := range keys {
			fields, err := l.client.HMGet(ctx, key, "expired", "revoked", "created_at").Result()
			if err != nil {
				return touched, fmt.Errorf("redis ledger: inspect %s: %w", key, err)
			}
			expired, _ := fields[0].(string)
			revoked, _ := fields[1].(string)
			createdAt, _ := fields[2].(string)
			if expired != "0" || revoked != "0" {
				continue
			}
			created, err := time.Parse(time.RFC3339Nano, createdAt)
			if err != nil || !created.Before(cutoff) {
				continue
			}

			if err := l.client.HSet(ctx, key, "expired", "1", "updated_at", now).Err(); err != nil {
				return touched, fmt.Errorf("redis ledger: expire %s: %w", key, err)
			}
			touched++
		}

		cursor = next
		if cursor == 0 {
			return touched, nil
		}
	}
}

// markRevoked queues the flag flip for one record on the pipeline.
func markRevoked(ctx context.Context, pipe redis.Pipeliner, key string) {
	pipe.HSet(ctx, key,
		"expired", "1",
		"revoked", "1",
		"updated_at", time.Now().UTC().Format(time.RFC3339Nano),
	)
}

func decodeToken(hash string, fields map[string]string) (domain.Token, error) {
	t := domain.Token{
		ID:        fields["id"],
		UserID:    fields["user_id"],
		TokenHash: hash,
		Kind:      domain.TokenKind(fields["kind"]),
	}

	var err error
	if t.Expired, err = parseFlag(fields["expired"]); err != nil {
		return domain.Token{}, fmt.Errorf("redis ledger: decode %s: %w", hash, err)
	}
	if t.Revoked, err = parseFlag(fields["revoked"]); err != nil {
		return domain.Token{}, fmt.Errorf("redis ledger: decode %s: %w", hash, err)
	}
	if t.CreatedAt, err = time.Parse(time.RFC3339Nano, fields["created_at"]); err != nil {
		return domain.Token{}, fmt.Errorf("redis ledger: decode %s: %w", hash, err)
	}
	if t.UpdatedAt, err = time.Parse(time.RFC3339Nano, fields["updated_at"]); err != nil {
		return domain.Token{}, fmt.Errorf("redis ledger: decode %s: %w", hash, err)
	}
	return t, nil
}

func parseFlag(s string) (bool, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return false, err
	}
	return n != 0, nil
}
