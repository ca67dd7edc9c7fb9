// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	identity "codeberg.org/oliverandrich/accounts-api/internal/auth"
	"codeberg.org/oliverandrich/accounts-api/internal/config"
	"codeberg.org/oliverandrich/accounts-api/internal/database"
	"codeberg.org/oliverandrich/accounts-api/internal/dispatch"
	"codeberg.org/oliverandrich/accounts-api/internal/handlers"
	"codeberg.org/oliverandrich/accounts-api/internal/i18n"
	"codeberg.org/oliverandrich/accounts-api/internal/repository"
	"codeberg.org/oliverandrich/accounts-api/internal/services/auth"
	"codeberg.org/oliverandrich/accounts-api/internal/services/email"
	"codeberg.org/oliverandrich/accounts-api/internal/services/signup"
	"codeberg.org/oliverandrich/accounts-api/internal/services/token"
	"github.com/labstack/echo/v4"
	"github.com/urfave/cli/v3"
	"github.com/vinovest/sqlx"
)

// Run starts the server with the given CLI command.
func Run(ctx context.Context, cmd *cli.Command) error {
	cfg := config.NewFromCLI(cmd)
	SetupLogger(cfg.Log.Level, cfg.Log.Format)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	slog.Info("starting server",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"base_url", cfg.Server.BaseURL,
		"app_base_url", cfg.App.BaseURL,
		"smtp", cfg.SMTP.Enabled(),
	)

	// Database
	db, err := database.Open(cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("failed to close database", "error", closeErr)
		}
	}()

	// i18n
	if initErr := i18n.Init(); initErr != nil {
		return fmt.Errorf("failed to init i18n: %w", initErr)
	}

	e, err := New(cfg, db)
	if err != nil {
		return err
	}

	return startWithGracefulShutdown(ctx, e, cfg)
}

// New wires the services into an Echo instance serving the API.
func New(cfg *config.Config, db *sqlx.DB) (*echo.Echo, error) {
	mailer, err := newMailer(cfg)
	if err != nil {
		return nil, err
	}

	repo := repository.New(db)
	tokens := token.NewCodec([]byte(cfg.Auth.SecretKey), cfg.Auth.AccessTokenTTL, cfg.Auth.RefreshTokenTTL)
	signupTokens := signup.NewService(repo, cfg.Optimus.Codec(), cfg.Auth.SignupTokenExpiry, cfg.App.BaseURL)
	accounts := auth.NewService(repo, tokens, signupTokens, mailer)
	dispatcher := dispatch.New(identity.NewResolver(tokens, repo))

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = handlers.ErrorHandler

	setupMiddleware(e, cfg)
	setupRoutes(e, repo, handlers.NewAccounts(accounts, signupTokens), dispatcher)

	return e, nil
}

// newMailer returns the SMTP mailer, or one that only logs the links when no
// SMTP server is configured.
func newMailer(cfg *config.Config) (auth.Mailer, error) {
	if !cfg.SMTP.Enabled() {
		slog.Warn("smtp_disabled", "hint", "confirmation links are written to the log")
		return email.LogMailer{}, nil
	}

	svc, err := email.NewService(&cfg.SMTP, cfg.Auth.SignupTokenExpiry)
	if err != nil {
		return nil, fmt.Errorf("failed to create email service: %w", err)
	}
	return svc, nil
}

func setupRoutes(e *echo.Echo, repo *repository.Repository, accounts *handlers.Accounts, d *dispatch.Dispatcher) {
	h := handlers.New(repo)

	e.GET("/health", h.Health)
	accounts.Routes(e, d)
}

func startWithGracefulShutdown(ctx context.Context, e *echo.Echo, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Channel for server errors
	errChan := make(chan error, 1)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	go func() {
		var err error
		slog.Info("Server running", "url", cfg.Server.BaseURL, "tls", cfg.UseTLS())
		if cfg.UseTLS() {
			err = e.StartTLS(addr, cfg.TLS.CertFile, cfg.TLS.KeyFile)
		} else {
			err = e.Start(addr)
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutting down server")
	case err := <-errChan:
		slog.Error("server error", "error", err)
		return err
	}

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		slog.Error("failed to shutdown server", "error", err)
	}

	slog.Info("server stopped")
	return nil
}
