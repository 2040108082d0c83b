package store

import (
	"context"
	"errors"
	"time"

	"github.com/eledevo/authledger/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers implement this.
// It exposes sub-repositories to keep concerns tidy and testable.
type Store interface {
	Users() Users
	Tokens() Tokens

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction. If fn returns an error the
	// transaction is rolled back, otherwise it is committed. Prefer this
	// over Tx for multi-step operations that must be atomic (e.g. the
	// revoke-all-then-record sweep on login).
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the backing store is still reachable.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds
// Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

// Users is the credential store the authentication service collaborates
// with.
type Users interface {
	// GetUserByID returns a user by its ULID.
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByEmail resolves the login identifier used as the token
	// subject.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// CreateUser inserts a new user (id provided by the app via ULID).
	// Returns ErrAlreadyExists when the email is taken.
	CreateUser(ctx context.Context, u domain.User) error

	// IsEmpty returns true if there are no users.
	IsEmpty(ctx context.Context) (bool, error)
}

// Tokens is the access-token ledger: the single source of truth for
// whether an issued token is still usable. Only explicitly recorded tokens
// are ever usable (closed world); signature validity is checked elsewhere.
type Tokens interface {
	// Record inserts a new ledger record with expired=false, revoked=false.
	// Returns ErrAlreadyExists if the fingerprint is already ledgered;
	// that is an invariant violation the caller must surface, not swallow.
	Record(ctx context.Context, t domain.Token) error

	// GetByHash returns the record for a token fingerprint.
	GetByHash(ctx context.Context, hash string) (domain.Token, error)

	// IsUsable reports whether a record exists and is neither expired nor
	// revoked. Unknown fingerprints are not usable.
	IsUsable(ctx context.Context, hash string) (bool, error)

	// Revoke marks one record expired and revoked. Idempotent: unknown or
	// already-revoked fingerprints are a no-op, never an error.
	Revoke(ctx context.Context, hash string) error

	// RevokeAllForUser marks every currently-usable record for the user as
	// expired and revoked in a single logical operation. No-op when the
	// user has no usable records.
	RevokeAllForUser(ctx context.Context, userID string) error

	// MarkExpiredBefore flips the expired flag on usable records created
	// before the cutoff and returns how many were touched. Housekeeping
	// only; verification never relies on it.
	MarkExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
