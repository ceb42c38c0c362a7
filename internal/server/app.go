// Package server initializes and runs the gatekeeper application: it opens
// the user store, runs migrations, wires services and serves the HTTP API
// until a termination signal arrives.
package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/gatekeeper/internal/logging"
	"github.com/dmitrijs2005/gatekeeper/internal/server/auth"
	"github.com/dmitrijs2005/gatekeeper/internal/server/config"
	"github.com/dmitrijs2005/gatekeeper/internal/server/httpapi"
	"github.com/dmitrijs2005/gatekeeper/internal/server/metrics"
	"github.com/dmitrijs2005/gatekeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gatekeeper/internal/server/services"
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	repomanager repomanager.RepositoryManager
	server      *httpapi.HTTPServer
}

// NewApp builds the application from c, logging to out.
func NewApp(ctx context.Context, c *config.Config, out io.Writer) (*App, error) {
	logger, err := logging.New(c.LogLevel, c.LogFormat, out)
	if err != nil {
		return nil, fmt.Errorf("logger init error: %w", err)
	}

	rm, err := repomanager.New(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	if err := rm.RunMigrations(ctx); err != nil {
		_ = rm.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	hasher, err := auth.NewPasswordHasher(c.BcryptCost)
	if err != nil {
		_ = rm.Close()
		return nil, fmt.Errorf("password hasher init error: %w", err)
	}
	tokens := auth.NewTokenManager([]byte(c.SecretKey), c.AccessTokenValidityDuration)
	logger.Info(ctx, "auth configured", "token_validity", tokens.Validity().String(), "bcrypt_cost", hasher.Cost())
	m := metrics.New()

	us := services.NewUserService(rm.Users(), hasher, tokens, logger.With("module", "user_service"), m)
	srv := httpapi.NewHTTPServer(httpapi.Options{
		Address:         c.EndpointAddrHTTP,
		MaxBodyBytes:    c.MaxBodyBytes,
		ShutdownTimeout: c.ShutdownTimeout,
	}, logger, us, tokens, m)

	return &App{config: c, logger: logger, repomanager: rm, server: srv}, nil
}

// Handler exposes the fully wired HTTP handler.
func (app *App) Handler() http.Handler {
	return app.server.Routes()
}

// Run serves until ctx is cancelled or SIGINT/SIGTERM/SIGQUIT arrives, then
// shuts the server down and closes the store.
func (app *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	app.logger.Info(ctx, "Starting app...", "driver", app.config.DatabaseDriver)

	runErr := app.server.Run(ctx)

	if err := app.repomanager.Close(); err != nil {
		app.logger.Error(ctx, "closing store", "error", err)
	}

	if runErr != nil {
		app.logger.Error(ctx, runErr.Error())
		return runErr
	}

	app.logger.Info(ctx, "App stopped")
	return nil
}
