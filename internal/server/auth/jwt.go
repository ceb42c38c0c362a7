// Package auth mints and verifies the stateless bearer tokens handed out on
// login, hashes passwords, and carries the authenticated subject through a
// request context.
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dmitrijs2005/gatekeeper/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenValidity applies when no lifetime is configured.
const DefaultTokenValidity = time.Hour

// Claims is the token payload: sub (user id), iat and exp.
type Claims struct {
	jwt.RegisteredClaims
}

// TokenManager signs and verifies HS256 tokens with a server-held secret.
// It has no mutable state and is safe for concurrent use.
type TokenManager struct {
	secretKey []byte
	validity  time.Duration
	now       func() time.Time
}

// NewTokenManager returns a manager with the given secret and lifetime.
// A non-positive validity falls back to DefaultTokenValidity.
func NewTokenManager(secretKey []byte, validity time.Duration) *TokenManager {
	if validity <= 0 {
		validity = DefaultTokenValidity
	}
	return &TokenManager{secretKey: secretKey, validity: validity, now: time.Now}
}

// Validity reports the configured token lifetime.
func (m *TokenManager) Validity() time.Duration { return m.validity }

// Issue mints a token for subject and returns it with its expiry.
func (m *TokenManager) Issue(subject int64) (string, time.Time, error) {
	now := m.now()
	exp := now.Add(m.validity)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(subject, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	})

	tokenString, err := token.SignedString(m.secretKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}

	return tokenString, exp, nil
}

// Verify checks signature and expiry and returns the subject. Expired tokens
// yield common.ErrTokenExpired; every other failure wraps
// common.ErrInvalidToken.
func (m *TokenManager) Verify(tokenString string) (int64, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (any, error) { return m.secretKey, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, common.ErrTokenExpired
		}
		return 0, fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}

	if !token.Valid {
		return 0, common.ErrInvalidToken
	}

	subject, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || subject <= 0 {
		return 0, fmt.Errorf("%w: bad subject %q", common.ErrInvalidToken, claims.Subject)
	}

	return subject, nil
}
