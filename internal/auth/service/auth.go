package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/eledevo/authledger/internal/auth/domain"
	"github.com/eledevo/authledger/internal/auth/store"
	"github.com/eledevo/authledger/pkg/cryptox"
	"github.com/eledevo/authledger/pkg/idx"
	"github.com/eledevo/authledger/pkg/jwtx"
	"github.com/eledevo/authledger/pkg/slogx"
)

var (
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrEmailTaken         = errors.New("email_taken")
	ErrUnknownSubject     = errors.New("unknown_subject")
	ErrInvalidRefresh     = errors.New("invalid_refresh_token")

	// ErrDuplicateToken means a freshly minted token collided with one
	// already in the ledger. The jti makes this astronomically unlikely,
	// so it is surfaced as fatal rather than retried.
	ErrDuplicateToken = errors.New("duplicate_token")
)

// AuthService owns the account lifecycle: registration, login, refresh
// and logout. Every access token it mints is recorded in the ledger;
// refresh tokens are self-contained and never ledgered.
type AuthService struct {
	Signer     jwtx.Signer
	Verifier   jwtx.Verifier
	Store      store.Store
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// RegisterParams is the input for Register.
type RegisterParams struct {
	Firstname string
	Lastname  string
	Email     string
	Password  string
	Role      domain.Role
}

// Register creates an account and signs the user straight in, returning a
// fresh token pair. Returns ErrEmailTaken when the email is already used.
func (s *AuthService) Register(ctx context.Context, p RegisterParams) (*domain.TokenPair, error) {
	l := slogx.FromContext(ctx)

	email := strings.ToLower(strings.TrimSpace(p.Email))
	if email == "" || p.Password == "" {
		return nil, ErrInvalidCredentials
	}

	role := p.Role
	if !role.Valid() {
		role = domain.RoleUser
	}

	hash, err := cryptox.HashPassword(p.Password)
	if err != nil {
		return nil, err
	}

	user := domain.User{
		ID:           idx.New().String(),
		Firstname:    strings.TrimSpace(p.Firstname),
		Lastname:     strings.TrimSpace(p.Lastname),
		Email:        email,
		PasswordHash: hash,
		Role:         role,
	}

	pair, err := s.mintPair(user, time.Now())
	if err != nil {
		return nil, err
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().CreateUser(ctx, user); err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				return ErrEmailTaken
			}
			return err
		}
		return s.recordAccess(ctx, tx.Tokens(), user.ID, pair.AccessToken)
	})
	if err != nil {
		return nil, err
	}

	l.Info("user registered", slog.String("user_id", user.ID))
	return pair, nil
}

// Authenticate checks the credentials and issues a fresh token pair. All
// previously usable ledger records for the user are revoked before the
// new access token is recorded, so at most one access token per user is
// usable at any time.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*domain.TokenPair, error) {
	l := slogx.FromContext(ctx)

	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := cryptox.VerifyPassword(password, user.PasswordHash); err != nil {
		l.Info("login rejected", slog.String("user_id", user.ID))
		return nil, ErrInvalidCredentials
	}

	pair, err := s.mintPair(user, time.Now())
	if err != nil {
		return nil, err
	}

	// Revoke first, then record. The fresh token must never be caught by
	// its own login's sweep.
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Tokens().RevokeAllForUser(ctx, user.ID); err != nil {
			return err
		}
		return s.recordAccess(ctx, tx.Tokens(), user.ID, pair.AccessToken)
	})
	if err != nil {
		return nil, err
	}

	l.Info("user authenticated", slog.String("user_id", user.ID))
	return pair, nil
}

// Refresh mints a new access token from a valid refresh token. The
// refresh token is judged by signature and expiry alone, never against
// the ledger, and is echoed back unchanged: refresh does not rotate.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	l := slogx.FromContext(ctx)

	subject, err := s.Verifier.ExtractSubject(refreshToken)
	if err != nil {
		return nil, ErrInvalidRefresh
	}

	user, err := s.Store.Users().GetUserByEmail(ctx, subject)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUnknownSubject
		}
		return nil, err
	}

	now := time.Now()
	claims := jwtx.NewClaims(user.Email, string(user.Role), user.DisplayName(), s.AccessTTL, s.Issuer, now)
	accessToken, err := s.Signer.Sign(claims)
	if err != nil {
		return nil, err
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Tokens().RevokeAllForUser(ctx, user.ID); err != nil {
			return err
		}
		return s.recordAccess(ctx, tx.Tokens(), user.ID, accessToken)
	})
	if err != nil {
		return nil, err
	}

	l.Info("access token refreshed", slog.String("user_id", user.ID))
	return &domain.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// Logout revokes the ledger record for the presented access token.
// Idempotent: logging out an already-revoked or unknown token succeeds.
func (s *AuthService) Logout(ctx context.Context, accessToken string) error {
	return s.Store.Tokens().Revoke(ctx, cryptox.FingerprintToken(accessToken))
}

// mintPair signs an access/refresh pair for the user. Both carry the same
// claim shape; they differ only in TTL.
func (s *AuthService) mintPair(user domain.User, now time.Time) (*domain.TokenPair, error) {
	access, err := s.Signer.Sign(
		jwtx.NewClaims(user.Email, string(user.Role), user.DisplayName(), s.AccessTTL, s.Issuer, now))
	if err != nil {
		return nil, err
	}

	refresh, err := s.Signer.Sign(
		jwtx.NewClaims(user.Email, string(user.Role), user.DisplayName(), s.RefreshTTL, s.Issuer, now))
	if err != nil {
		return nil, err
	}

	return &domain.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
	}, nil
}

// recordAccess ledgers the fingerprint of a freshly minted access token.
func (s *AuthService) recordAccess(ctx context.Context, tokens store.Tokens, userID, accessToken string) error {
	err := tokens.Record(ctx, domain.Token{
		ID:        idx.New().String(),
		UserID:    userID,
		TokenHash: cryptox.FingerprintToken(accessToken),
		Kind:      domain.KindAccess,
	})
	if errors.Is(err, store.ErrAlreadyExists) {
		return ErrDuplicateToken
	}
	return err
}
