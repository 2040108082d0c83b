package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/eledevo/authledger/internal/auth/domain"
	"github.com/eledevo/authledger/internal/auth/store"
	"github.com/eledevo/authledger/pkg/cryptox"
	"github.com/eledevo/authledger/pkg/idx"
	"github.com/eledevo/authledger/pkg/slogx"
)

var (
	ErrBootstrapAlready             = errors.New("system already bootstrapped")
	ErrBootstrapFailedToCreateAdmin = errors.New("failed to create admin user")
)

// BootstrapService seeds the first admin account on an empty store so a
// fresh deployment starts with a known administrator. The account logs in
// through the normal flow; bootstrap never mints tokens.
type BootstrapService struct {
	Store store.Store
}

// IsBootstrapped reports whether any user account exists.
func (s *BootstrapService) IsBootstrapped(ctx context.Context) (bool, error) {
	empty, err := s.Store.Users().IsEmpty(ctx)
	if err != nil {
		return false, err
	}
	return !empty, nil
}

// SeedAdmin creates the initial admin user and returns its id. Refuses to
// run once any user exists, so it is safe to call on every startup.
func (s *BootstrapService) SeedAdmin(ctx context.Context, email, password string) (string, error) {
	l := slogx.FromContext(ctx)

	if bootstrapped, err := s.IsBootstrapped(ctx); err != nil {
		return "", err
	} else if bootstrapped {
		l.Warn("attempted admin seed on already-bootstrapped system")
		return "", ErrBootstrapAlready
	}

	passHash, err := cryptox.HashPassword(password)
	if err != nil {
		l.Error("failed to hash admin password", slog.Any("error", err))
		return "", ErrBootstrapFailedToCreateAdmin
	}

	admin := domain.User{
		ID:           idx.New().String(),
		Firstname:    "System",
		Lastname:     "Admin",
		Email:        strings.ToLower(strings.TrimSpace(email)),
		PasswordHash: passHash,
		Role:         domain.RoleAdmin,
	}
	if err := s.Store.Users().CreateUser(ctx, admin); err != nil {
		l.Error("failed to create admin user",
			slog.String("admin_user_id", admin.ID),
			slog.Any("error", err),
		)
		return "", ErrBootstrapFailedToCreateAdmin
	}

	l.Info("seeded initial admin user", slog.String("admin_user_id", admin.ID))
	return admin.ID, nil
}
