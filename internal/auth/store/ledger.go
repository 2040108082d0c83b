package store

import "context"

// WithTokenLedger returns a Store whose token ledger is served by ledger
// while everything else stays on base. This is how the redis ledger driver
// is swapped in without moving the user store off sqlite.
//
// Transactions only span the base store; an overriding ledger applies its
// operations in call order instead. Rotation stays correct because its
// requirement is ordering (revoke-all before record), not atomicity across
// the two steps.
func WithTokenLedger(base Store, ledger Tokens) Store {
	return &ledgerOverride{base: base, ledger: ledger}
}

type ledgerOverride struct {
	base   Store
	ledger Tokens
}

func (s *ledgerOverride) Users() Users           { return s.base.Users() }
func (s *ledgerOverride) Tokens() Tokens         { return s.ledger }
func (s *ledgerOverride) ApplyMigrations() error { return s.base.ApplyMigrations() }
func (s *ledgerOverride) Close() error           { return s.base.Close() }

func (s *ledgerOverride) Ping(ctx context.Context) error {
	return s.base.Ping(ctx)
}

func (s *ledgerOverride) Tx(ctx context.Context) (Tx, error) {
	tx, err := s.base.Tx(ctx)
	if err != nil {
		return nil, err
	}
	return &ledgerOverrideTx{ledgerOverride: ledgerOverride{base: tx, ledger: s.ledger}, tx: tx}, nil
}

func (s *ledgerOverride) WithTx(ctx context.Context, fn func(tx Tx) error) error {
	return s.base.WithTx(ctx, func(tx Tx) error {
		return fn(&ledgerOverrideTx{ledgerOverride: ledgerOverride{base: tx, ledger: s.ledger}, tx: tx})
	})
}

type ledgerOverrideTx struct {
	ledgerOverride
	tx Tx
}

func (t *ledgerOverrideTx) Commit() error   { return t.tx.Commit() }
func (t *ledgerOverrideTx) Rollback() error { return t.tx.Rollback() }
