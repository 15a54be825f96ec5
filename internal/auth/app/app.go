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

	httpapi "github.com/fourthandlong/pickpool/internal/auth/http"
	"github.com/fourthandlong/pickpool/internal/auth/mail"
	"github.com/fourthandlong/pickpool/internal/auth/service"
	"github.com/fourthandlong/pickpool/internal/auth/store"
	"github.com/fourthandlong/pickpool/internal/auth/store/drivers/sqlite"
	"github.com/fourthandlong/pickpool/pkg/cryptox"
	"github.com/fourthandlong/pickpool/pkg/jwtx"
	"github.com/fourthandlong/pickpool/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"
)

// Application encapsulates the auth service with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db     store.Store
	mailer mail.Mailer

	access  *jwtx.HS256
	refresh *jwtx.HS256

	authService         *service.AuthService
	tokenService        *service.TokenService
	bootstrapService    *service.BootstrapService
	housekeepingService *service.HousekeepingService

	server *http.Server
	router *httpapi.Router
}

// New creates an Application with all dependencies initialized, migrations
// applied, and the admin account bootstrapped when needed.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "pickpool-auth",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if err := app.initSigners(); err != nil {
		return nil, err
	}
	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	app.initMailer()
	app.initServices()

	if err := app.ensureAdmin(context.Background()); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	app.initHTTP()
	return app, nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
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
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
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

// Shutdown gracefully shuts down the application.
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

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("auth service stopped")
	return nil
}

// initSigners builds the HS256 signer pair. A missing access secret is fatal;
// a missing refresh secret falls back to the access secret with a warning.
func (app *Application) initSigners() error {
	access, err := jwtx.NewHS256([]byte(app.cfg.AccessSecret), app.cfg.Issuer)
	if err != nil {
		return fmt.Errorf("AUTH_ACCESS_SECRET: %w", err)
	}
	app.access = access

	refreshSecret := app.cfg.RefreshSecret
	if refreshSecret == "" {
		app.logger.Warn("AUTH_REFRESH_SECRET not set, refresh tokens share the access secret")
		refreshSecret = app.cfg.AccessSecret
	}
	refresh, err := jwtx.NewHS256([]byte(refreshSecret), app.cfg.Issuer)
	if err != nil {
		return fmt.Errorf("AUTH_REFRESH_SECRET: %w", err)
	}
	app.refresh = refresh

	return nil
}

// initDatabase initializes the database and applies migrations.
func (app *Application) initDatabase() error {
	host := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(host)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

func (app *Application) initMailer() {
	if app.cfg.SMTPHost == "" {
		app.logger.Info("no smtp host configured, using log-only mailer")
		app.mailer = mail.NewLogMailer(app.logger)
		return
	}
	app.mailer = mail.NewSMTPMailer(
		app.cfg.SMTPHost,
		app.cfg.SMTPPort,
		app.cfg.SMTPUsername,
		app.cfg.SMTPPassword,
		app.cfg.SMTPFrom,
	)
}

func (app *Application) initServices() {
	app.tokenService = &service.TokenService{
		Access:     app.access,
		Refresh:    app.refresh,
		Store:      app.db,
		AccessTTL:  app.cfg.AccessTTL,
		RefreshTTL: app.cfg.RefreshTTL,
	}

	app.authService = &service.AuthService{
		Store:         app.db,
		Tokens:        app.tokenService,
		Mailer:        app.mailer,
		AdminEmail:    app.cfg.AdminNotifyEmail,
		ResetLinkBase: app.cfg.ResetLinkBase,
		ResetTTL:      app.cfg.ResetTTL,
		HashCost:      app.hashCost(),
	}

	app.bootstrapService = &service.BootstrapService{
		Store:    app.db,
		HashCost: app.hashCost(),
	}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
	)
}

func (app *Application) initHTTP() {
	app.router = httpapi.NewRouter(app.access, BuildVersion, app.db, app.logger)
	app.router.AuthService = app.authService
	app.router.TokenService = app.tokenService
	app.router.ApplyRoutes()

	app.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", app.cfg.Port),
		Handler: app.router,
	}
}

func (app *Application) hashCost() int {
	if app.cfg.IsProduction() {
		return cryptox.ProductionCost
	}
	return cryptox.DefaultCost
}
