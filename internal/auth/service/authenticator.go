package service

import (
	"context"
	"errors"

	"github.com/eledevo/authledger/internal/auth/domain"
	"github.com/eledevo/authledger/internal/auth/store"
	"github.com/eledevo/authledger/pkg/cryptox"
	"github.com/eledevo/authledger/pkg/jwtx"
)

var (
	ErrTokenNotUsable = errors.New("token_not_usable")
	ErrSubjectGone    = errors.New("subject_gone")
)

// Authenticator resolves a raw bearer token to a Principal. A token must
// pass BOTH checks to authenticate: the signature and expiry must verify,
// and the ledger record must still be usable. Any failure leaves the
// request anonymous; the authenticator never hard-rejects on its own.
type Authenticator struct {
	Verifier jwtx.Verifier
	Store    store.Store
}

// Authenticate verifies the token and returns the principal it denotes.
// The returned error says why authentication failed; callers that degrade
// to anonymous can treat every error the same way.
func (a *Authenticator) Authenticate(ctx context.Context, token string) (domain.Principal, error) {
	claims, err := a.Verifier.Verify(token)
	if err != nil {
		return domain.Principal{}, err
	}

	user, err := a.Store.Users().GetUserByEmail(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Principal{}, ErrSubjectGone
		}
		return domain.Principal{}, err
	}

	usable, err := a.Store.Tokens().IsUsable(ctx, cryptox.FingerprintToken(token))
	if err != nil {
		return domain.Principal{}, err
	}
	if !usable {
		return domain.Principal{}, ErrTokenNotUsable
	}

	return domain.Principal{
		UserID:      user.ID,
		Email:       user.Email,
		Role:        user.Role,
		Authorities: user.Role.Authorities(),
	}, nil
}
