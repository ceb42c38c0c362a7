// Package services contains application services for the gatekeeper client.
// This file defines the authentication service: register, login, the
// protected hello call and a liveness probe. Input is checked against the
// server's published schemas before anything is sent.
package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/gatekeeper/internal/client/client"
	"github.com/dmitrijs2005/gatekeeper/internal/shared/schema"
)

// AuthService defines authentication operations for the CLI.
//
// All methods must honor context cancellation/timeouts.
type AuthService interface {
	Register(ctx context.Context, email string, password []byte, firstName, lastName string) (int64, error)
	Login(ctx context.Context, email string, password []byte) (int64, error)
	Hello(ctx context.Context) (string, error)
	Ping(ctx context.Context) error
	Logout()
	LoggedIn() bool
}

type authService struct {
	client client.Client

	mu      sync.Mutex
	token   string
	schemas map[string]schema.Schema
}

func NewAuthService(c client.Client) AuthService {
	return &authService{client: c, schemas: make(map[string]schema.Schema)}
}

// Register validates locally, then creates the account. A *schema.ValidationError
// means nothing was sent.
func (a *authService) Register(ctx context.Context, email string, password []byte, firstName, lastName string) (int64, error) {
	raw := map[string]any{"email": email, "password": string(password)}
	if firstName != "" {
		raw["firstName"] = firstName
	}
	if lastName != "" {
		raw["lastName"] = lastName
	}

	req, err := validate[client.RegisterRequest](ctx, a, "users", raw)
	if err != nil {
		return 0, err
	}

	return a.client.Register(ctx, req)
}

// Login validates locally, authenticates and keeps the token for Hello.
func (a *authService) Login(ctx context.Context, email string, password []byte) (int64, error) {
	raw := map[string]any{"email": email, "password": string(password)}

	in, err := validate[struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}](ctx, a, "login", raw)
	if err != nil {
		return 0, err
	}

	res, err := a.client.Login(ctx, in.Email, in.Password)
	if err != nil {
		return 0, err
	}

	a.mu.Lock()
	a.token = res.Token
	a.mu.Unlock()

	return res.ID, nil
}

// Hello calls the protected resource. An expired token logs the user out.
func (a *authService) Hello(ctx context.Context) (string, error) {
	a.mu.Lock()
	token := a.token
	a.mu.Unlock()

	if token == "" {
		return "", client.ErrNotLoggedIn
	}

	msg, err := a.client.Hello(ctx, token)
	if errors.Is(err, client.ErrUnauthorized) {
		a.Logout()
	}
	return msg, err
}

func (a *authService) Ping(ctx context.Context) error {
	return a.client.Ping(ctx)
}

func (a *authService) Logout() {
	a.mu.Lock()
	a.token = ""
	a.mu.Unlock()
}

func (a *authService) LoggedIn() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.token != ""
}

// schema returns the server's published schema, cached after the first
// fetch. If the server cannot be reached the built-in copy is used.
func (a *authService) schema(ctx context.Context, name string) (schema.Schema, error) {
	a.mu.Lock()
	s, ok := a.schemas[name]
	a.mu.Unlock()
	if ok {
		return s, nil
	}

	s, err := a.client.Schema(ctx, name)
	if err != nil {
		if !errors.Is(err, client.ErrUnavailable) {
			return schema.Schema{}, fmt.Errorf("fetch schema %q: %w", name, err)
		}
		builtin, found := schema.Lookup(name)
		if !found {
			return schema.Schema{}, fmt.Errorf("fetch schema %q: %w", name, err)
		}
		return builtin, nil
	}

	a.mu.Lock()
	a.schemas[name] = s
	a.mu.Unlock()
	return s, nil
}

func validate[T any](ctx context.Context, a *authService, name string, raw map[string]any) (T, error) {
	var zero T
	s, err := a.schema(ctx, name)
	if err != nil {
		return zero, err
	}
	return schema.Decode[T](s, raw)
}
