package domain

import "time"

// TokenPair is what the register/authenticate/refresh endpoints return: a
// short-lived ledgered access token and a longer-lived refresh token.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// TokenKind classifies ledger records. Only access tokens are ledgered;
// refresh tokens live and die by their signature and expiry alone, so the
// only kind that ever reaches the ledger is ACCESS.
type TokenKind string

const KindAccess TokenKind = "ACCESS"

// Token is a ledger record for one issued access token. The Expired and
// Revoked flags are monotonic: once set they are never cleared, and records
// are never deleted, which keeps the ledger usable as an audit trail.
type Token struct {
	ID        string
	UserID    string
	TokenHash string // SHA-256 fingerprint of the JWT string, unique
	Kind      TokenKind
	Expired   bool
	Revoked   bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Usable reports whether the record still authorizes requests.
func (t Token) Usable() bool {
	return !t.Expired && !t.Revoked
}
