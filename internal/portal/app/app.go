// Package app wires configuration, storage, services and the HTTP server
// into a runnable authentication service.
package app

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/copperfort/deskauth/internal/portal/http"
	"github.com/copperfort/deskauth/internal/portal/oauth"
	"github.com/copperfort/deskauth/internal/portal/oauth/google"
	"github.com/copperfort/deskauth/internal/portal/oauth/microsoft"
	"github.com/copperfort/deskauth/internal/portal/service"
	"github.com/copperfort/deskauth/internal/portal/session"
	"github.com/copperfort/deskauth/internal/portal/store"
	"github.com/copperfort/deskauth/internal/portal/store/drivers/sqlite"
	"github.com/copperfort/deskauth/pkg/cryptox"
	"github.com/copperfort/deskauth/pkg/slogx"
)

// BuildVersion should be set at build time via ldflags.
const BuildVersion = "v0.1.0"

// Application encapsulates the service with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db       store.Store
	sessions session.Store

	auditService    *service.AuditService
	directory       *service.Directory
	sessionManager  *service.SessionManager
	loginService    *service.LoginService
	mfaService      *service.MFAService
	oauthService    *service.OAuthService
	resetService    *service.ResetService
	registerService *service.RegistrationService
	housekeeping    *service.HousekeepingService

	server *http.Server
	router *httpapi.Router
}

// New creates an Application with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "deskauth",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	cryptox.SetPepperPath(cfg.PepperFile)

	if err := app.initDatabase(); err != nil {
		return nil, err
	}
	if err := app.initSessions(); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	app.initServices()
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.housekeeping.Start()

	app.logger.Info("deskauth starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
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

// Shutdown gracefully stops the server, workers and storage.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down deskauth...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeeping.Stop()

	if err := app.sessions.Close(); err != nil {
		app.logger.Error("error closing session store", "error", err)
	}
	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("deskauth stopped")
	return nil
}

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

func (app *Application) initSessions() error {
	switch app.cfg.SessionBackend {
	case "redis":
		st, err := session.NewRedisStore(app.cfg.RedisAddr, app.cfg.RedisPassword, app.cfg.RedisDB)
		if err != nil {
			return fmt.Errorf("failed to connect session backend: %w", err)
		}
		app.sessions = st
		app.logger.Info("session backend: redis", "addr", app.cfg.RedisAddr)
	default:
		app.sessions = session.NewMemoryStore()
		app.logger.Info("session backend: memory")
	}
	return nil
}

func (app *Application) initServices() {
	clock := service.SystemClock()

	app.auditService = &service.AuditService{
		Store:  app.db,
		Logger: app.logger,
		Clock:  clock,
	}
	app.directory = &service.Directory{Store: app.db}
	app.sessionManager = &service.SessionManager{
		Sessions:    app.sessions,
		Clock:       clock,
		SessionTTL:  app.cfg.SessionTTL,
		RememberTTL: app.cfg.RememberTTL,
	}

	app.loginService = &service.LoginService{
		Store:            app.db,
		Pending:          app.sessions,
		Sessions:         app.sessionManager,
		Directory:        app.directory,
		Audit:            app.auditService,
		Clock:            clock,
		Logger:           app.logger,
		LockoutThreshold: app.cfg.LockoutThreshold,
		LockoutDuration:  app.cfg.LockoutDuration,
		PendingTTL:       app.cfg.PendingTTL,
	}

	app.mfaService = &service.MFAService{
		Store:     app.db,
		Pending:   app.sessions,
		Directory: app.directory,
		Audit:     app.auditService,
		Clock:     clock,
		Issuer:    app.cfg.Issuer,
	}

	policy := service.DefaultPasswordPolicy()
	if app.cfg.PasswordMinLength > 0 {
		policy.MinLength = app.cfg.PasswordMinLength
	}

	app.resetService = &service.ResetService{
		Store:        app.db,
		Directory:    app.directory,
		Audit:        app.auditService,
		Notifier:     &service.LogNotifier{Logger: app.logger},
		Clock:        clock,
		Logger:       app.logger,
		TokenTTL:     app.cfg.ResetTokenTTL,
		HistoryCount: app.cfg.PasswordHistoryCount,
		Policy:       policy,
	}

	app.registerService = &service.RegistrationService{
		Store:  app.db,
		Audit:  app.auditService,
		Clock:  clock,
		Logger: app.logger,
		Policy: policy,
	}

	app.oauthService = &service.OAuthService{
		Store:     app.db,
		Providers: app.buildProviderRegistry(),
		State:     oauth.NewStateSigner(app.stateSecret()),
		Sessions:  app.sessionManager,
		Audit:     app.auditService,
		Clock:     clock,
		Logger:    app.logger,
	}

	app.housekeeping = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
	)
}

// buildProviderRegistry registers every IdP with complete credentials.
func (app *Application) buildProviderRegistry() *oauth.Registry {
	var providers []oauth.Provider

	if app.cfg.GoogleClientID != "" && app.cfg.GoogleClientSecret != "" {
		providers = append(providers, google.New(
			app.cfg.GoogleClientID,
			app.cfg.GoogleClientSecret,
			app.cfg.GoogleRedirectURL,
		))
		app.logger.Info("oauth provider enabled", "provider", "google")
	}
	if app.cfg.MicrosoftClientID != "" && app.cfg.MicrosoftClientSecret != "" {
		providers = append(providers, microsoft.New(
			app.cfg.MicrosoftClientID,
			app.cfg.MicrosoftClientSecret,
			app.cfg.MicrosoftRedirectURL,
		))
		app.logger.Info("oauth provider enabled", "provider", "microsoft")
	}

	return oauth.NewRegistry(providers...)
}

// stateSecret returns the configured state-signing secret, generating an
// ephemeral one when unset. An ephemeral secret invalidates in-flight OAuth
// redirects on restart, so production deployments should set it.
func (app *Application) stateSecret() []byte {
	if app.cfg.StateSecret != "" {
		return []byte(app.cfg.StateSecret)
	}

	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		panic(fmt.Sprintf("generate state secret: %v", err))
	}
	app.logger.Warn("AUTH_STATE_SECRET not set, using an ephemeral secret")
	return secret
}

func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		BuildVersion,
		app.cfg.Env == "prod",
		app.db,
		app.sessions,
		app.logger,
	)

	router.Sessions = app.sessionManager
	router.Directory = app.directory
	router.LoginService = app.loginService
	router.MFAService = app.mfaService
	router.OAuthService = app.oauthService
	router.ResetService = app.resetService
	router.RegisterService = app.registerService
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
