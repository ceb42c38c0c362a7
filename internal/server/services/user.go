// Package services contains server-side business logic. This file implements
// UserService, which handles registration and login and mints access tokens.
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gatekeeper/internal/common"
	"github.com/dmitrijs2005/gatekeeper/internal/logging"
	"github.com/dmitrijs2005/gatekeeper/internal/server/apierr"
	"github.com/dmitrijs2005/gatekeeper/internal/server/auth"
	"github.com/dmitrijs2005/gatekeeper/internal/server/metrics"
	"github.com/dmitrijs2005/gatekeeper/internal/server/models"
	"github.com/dmitrijs2005/gatekeeper/internal/server/repositories/users"
)

// AuthObserver receives the outcome of each login and registration.
type AuthObserver interface {
	ObserveAuth(operation, result string)
}

type nopObserver struct{}

func (nopObserver) ObserveAuth(string, string) {}

// RegisterInput is a validated registration request.
type RegisterInput struct {
	Email     string  `json:"email"`
	Password  string  `json:"password"`
	FirstName *string `json:"firstName,omitempty"`
	LastName  *string `json:"lastName,omitempty"`
}

// LoginInput is a validated login request.
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterResult struct {
	ID int64 `json:"id"`
}

type LoginResult struct {
	Token string `json:"token"`
	ID    int64  `json:"id"`
}

// UserService provides authentication-related operations:
// - Register: create users
// - Login: verify credentials and mint an access token
type UserService struct {
	users   users.Repository
	hasher  *auth.PasswordHasher
	tokens  *auth.TokenManager
	log     logging.Logger
	metrics AuthObserver
}

// NewUserService wires the service. A nil observer disables auth metrics.
func NewUserService(repo users.Repository, hasher *auth.PasswordHasher, tokens *auth.TokenManager, log logging.Logger, obs AuthObserver) *UserService {
	if obs == nil {
		obs = nopObserver{}
	}
	return &UserService{users: repo, hasher: hasher, tokens: tokens, log: log, metrics: obs}
}

// Register creates a user and returns only its id. A duplicate email yields
// USER_EXISTS, whether caught by the lookup or by the store's unique
// constraint at insert time.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*RegisterResult, error) {
	res, err := s.register(ctx, in)
	s.metrics.ObserveAuth(metrics.OperationRegister, outcome(err))
	return res, err
}

func (s *UserService) register(ctx context.Context, in RegisterInput) (*RegisterResult, error) {
	if in.Email == "" || in.Password == "" {
		return nil, apierr.InvalidInput("Invalid input: email and password are required")
	}

	_, err := s.users.GetUserByEmail(ctx, in.Email)
	switch {
	case err == nil:
		return nil, apierr.UserExists()
	case !errors.Is(err, common.ErrorNotFound):
		return nil, fmt.Errorf("error looking up user: %w", err)
	}

	hash, err := s.hasher.Hash(ctx, in.Password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooLong) {
			return nil, apierr.InvalidInput(fmt.Sprintf("Password must be at most %d bytes", auth.MaxPasswordBytes))
		}
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	u, err := s.users.Create(ctx, &models.User{
		Email:        in.Email,
		PasswordHash: hash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
	})
	if err != nil {
		if common.IsConflict(err) {
			return nil, apierr.UserExists()
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	s.log.Info(ctx, "user registered", "user_id", u.ID)
	return &RegisterResult{ID: u.ID}, nil
}

// Login verifies credentials and returns a signed access token. Unknown
// email and wrong password produce the same error.
func (s *UserService) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	res, err := s.login(ctx, in)
	s.metrics.ObserveAuth(metrics.OperationLogin, outcome(err))
	return res, err
}

func (s *UserService) login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	if in.Email == "" || in.Password == "" {
		return nil, apierr.InvalidInput("Email and password required")
	}

	user, err := s.users.GetUserByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.hasher.CompareDummy(in.Password)
			return nil, apierr.InvalidCredentials()
		}
		return nil, fmt.Errorf("error looking up user: %w", err)
	}

	ok, err := s.hasher.Compare(ctx, user.PasswordHash, in.Password)
	if err != nil {
		return nil, fmt.Errorf("error comparing password: %w", err)
	}
	if !ok {
		return nil, apierr.InvalidCredentials()
	}

	token, _, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("error issuing token: %w", err)
	}

	return &LoginResult{Token: token, ID: user.ID}, nil
}

func outcome(err error) string {
	if err == nil {
		return metrics.ResultSuccess
	}
	if e, ok := apierr.As(err); ok {
		switch e.Code {
		case apierr.CodeInvalidInput:
			return metrics.ResultInvalidInput
		case apierr.CodeInvalidCredentials:
			return metrics.ResultInvalidCredentials
		case apierr.CodeUserExists:
			return metrics.ResultUserExists
		}
	}
	return metrics.ResultError
}
