// Package app wires configuration, storage, services and the HTTP server
// into one runnable application.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpapi "github.com/eledevo/authledger/internal/auth/http"
	"github.com/eledevo/authledger/internal/auth/service"
	"github.com/eledevo/authledger/internal/auth/store"
	redisdriver "github.com/eledevo/authledger/internal/auth/store/drivers/redis"
	"github.com/eledevo/authledger/internal/auth/store/drivers/sqlite"
	"github.com/eledevo/authledger/pkg/cryptox"
	"github.com/eledevo/authledger/pkg/jwtx"
	"github.com/eledevo/authledger/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"
)

// Application encapsulates the auth service with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db          store.Store
	redisLedger *redisdriver.Ledger

	authService         *service.AuthService
	authenticator       *service.Authenticator
	bootstrapService    *service.BootstrapService
	housekeepingService *service.HousekeepingService

	server *http.Server
	router *httpapi.Router
}

// New creates an Application with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "authledger",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	cryptox.SetPepperPath(app.cfg.PepperFile)

	if err := app.initStore(); err != nil {
		return nil, err
	}

	signer, verifier, err := app.initCodec()
	if err != nil {
		_ = app.db.Close()
		return nil, err
	}

	app.initServices(signer, verifier)
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	if err := app.seedAdmin(); err != nil {
		return err
	}

	app.housekeepingService.Start()

	app.logger.Info("auth service starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			if sderr := app.Shutdown(); sderr != nil {
				app.logger.Error("cleanup after server failure failed", "error", sderr)
			}
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts the application down.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down auth service...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeepingService.Stop()

	if app.redisLedger != nil {
		if err := app.redisLedger.Close(); err != nil {
			app.logger.Error("error closing redis ledger", "error", err)
		}
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("auth service stopped")
	return nil
}

// seedAdmin creates the configured initial admin account. Skipped when no
// admin credentials are configured or when any user already exists.
func (app *Application) seedAdmin() error {
	if app.cfg.AdminEmail == "" || app.cfg.AdminPassword == "" {
		return nil
	}

	ctx := slogx.WithContext(context.Background(), app.logger)
	if _, err := app.bootstrapService.SeedAdmin(ctx, app.cfg.AdminEmail, app.cfg.AdminPassword); err != nil {
		if errors.Is(err, service.ErrBootstrapAlready) {
			return nil
		}
		return fmt.Errorf("failed to seed admin user: %w", err)
	}
	return nil
}

// initStore opens the sqlite store, applies migrations and, when
// configured, swaps the token ledger to redis. Users always live in
// sqlite; only the ledger is pluggable.
func (app *Application) initStore() error {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(dsn)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}
	app.logger.Info("database migrations applied successfully")

	app.db = db

	switch app.cfg.LedgerDriver {
	case "", "sqlite":
		// Ledger shares the relational store.
	case "redis":
		ledger, err := redisdriver.NewLedger(context.Background(), app.cfg.RedisAddr)
		if err != nil {
			_ = db.Close()
			return fmt.Errorf("failed to initialize redis ledger: %w", err)
		}
		app.redisLedger = ledger
		app.db = store.WithTokenLedger(db, ledger)
		app.logger.Info("token ledger backed by redis", "addr", app.cfg.RedisAddr)
	default:
		_ = db.Close()
		return fmt.Errorf("unknown ledger driver %q", app.cfg.LedgerDriver)
	}

	return nil
}

// initCodec builds the HS256 signer and verifier. Outside dev a signing
// key must be provided; in dev a missing key is generated, which makes
// every restart invalidate outstanding tokens.
func (app *Application) initCodec() (jwtx.Signer, jwtx.Verifier, error) {
	key := app.cfg.SigningKey
	if key == "" {
		if app.cfg.Env != "dev" {
			return nil, nil, fmt.Errorf("AUTH_SIGNING_KEY is required when ENV=%s", app.cfg.Env)
		}

		generated, err := cryptox.GenerateSigningKey()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to generate dev signing key: %w", err)
		}
		key = generated
		app.logger.Warn("no signing key configured, generated an ephemeral dev key")
	}

	signer, err := jwtx.NewSignerHS256(key)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize signer: %w", err)
	}
	verifier, err := jwtx.NewVerifierHS256(key, app.cfg.Issuer)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize verifier: %w", err)
	}

	return signer, verifier, nil
}

func (app *Application) initServices(signer jwtx.Signer, verifier jwtx.Verifier) {
	app.authService = &service.AuthService{
		Signer:     signer,
		Verifier:   verifier,
		Store:      app.db,
		Issuer:     app.cfg.Issuer,
		AccessTTL:  app.cfg.AccessTTL,
		RefreshTTL: app.cfg.RefreshTTL,
	}

	app.authenticator = &service.Authenticator{
		Verifier: verifier,
		Store:    app.db,
	}

	app.bootstrapService = &service.BootstrapService{Store: app.db}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
		app.cfg.AccessTTL,
	)
}

func (app *Application) initHTTP() {
	app.router = httpapi.NewRouter(BuildVersion, app.db, app.logger)
	app.router.AuthService = app.authService
	app.router.Authenticator = app.authenticator
	app.router.ApplyRoutes()

	app.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", app.cfg.Port),
		Handler: app.router,
	}
}
