// Package httpapi exposes the user services over HTTP+JSON. Every response,
// including errors raised by middleware, uses the envelope wire shape.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/gatekeeper/internal/logging"
	"github.com/dmitrijs2005/gatekeeper/internal/server/metrics"
	"github.com/dmitrijs2005/gatekeeper/internal/server/services"
)

// UserService is the business logic behind /users and /auth/login.
type UserService interface {
	Register(ctx context.Context, in services.RegisterInput) (*services.RegisterResult, error)
	Login(ctx context.Context, in services.LoginInput) (*services.LoginResult, error)
}

// TokenVerifier checks a bearer token and returns its subject.
type TokenVerifier interface {
	Verify(token string) (int64, error)
}

// Options tunes the HTTP server.
type Options struct {
	Address         string
	MaxBodyBytes    int64
	ShutdownTimeout time.Duration
}

type HTTPServer struct {
	opts    Options
	users   UserService
	tokens  TokenVerifier
	metrics *metrics.Metrics
	logger  logging.Logger
}

func NewHTTPServer(opts Options, l logging.Logger, us UserService, tokens TokenVerifier, m *metrics.Metrics) *HTTPServer {
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 1 << 20
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 10 * time.Second
	}
	if m == nil {
		m = metrics.New()
	}
	return &HTTPServer{
		opts:    opts,
		users:   us,
		tokens:  tokens,
		metrics: m,
		logger:  l.With("module", "http_server"),
	}
}

// Run listens on the configured address and serves until ctx is done, then
// drains in-flight requests for up to ShutdownTimeout.
func (s *HTTPServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.opts.Address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve is Run over an existing listener.
func (s *HTTPServer) Serve(ctx context.Context, listen net.Listener) error {
	srv := &http.Server{
		Handler:           s.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	serveErr := make(chan error, 1)
	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())
	go func() {
		serveErr <- srv.Serve(listen)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	}
}
