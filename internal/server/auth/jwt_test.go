package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/gatekeeper/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newManagerAt(secret string, validity time.Duration, at time.Time) *TokenManager {
	m := NewTokenManager([]byte(secret), validity)
	m.now = func() time.Time { return at }
	return m
}

func TestIssueAndVerify_Success(t *testing.T) {
	t.Parallel()

	m := NewTokenManager([]byte("super-secret"), time.Hour)

	tok, exp, err := m.Issue(42)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	got, err := m.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, int64(42), got)
}

func TestIssue_EmbedsSubjectAndTimes(t *testing.T) {
	t.Parallel()

	t0 := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	m := newManagerAt("k", 30*time.Minute, t0)

	tok, _, err := m.Issue(7)
	require.NoError(t, err)

	claims := &Claims{}
	_, _, err = jwt.NewParser().ParseUnverified(tok, claims)
	require.NoError(t, err)

	assert.Equal(t, "7", claims.Subject)
	assert.Equal(t, t0.Unix(), claims.IssuedAt.Unix())
	assert.Equal(t, t0.Add(30*time.Minute).Unix(), claims.ExpiresAt.Unix())
}

func TestVerify_ExpiredAfterLifetime(t *testing.T) {
	t.Parallel()

	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m := newManagerAt("secret", time.Hour, t0)

	tok, _, err := m.Issue(1)
	require.NoError(t, err)

	m.now = func() time.Time { return t0.Add(59 * time.Minute) }
	_, err = m.Verify(tok)
	require.NoError(t, err)

	m.now = func() time.Time { return t0.Add(time.Hour + time.Second) }
	_, err = m.Verify(tok)
	assert.ErrorIs(t, err, common.ErrTokenExpired)
}

func TestVerify_WrongSecret(t *testing.T) {
	t.Parallel()

	tok, _, err := NewTokenManager([]byte("right-secret"), time.Hour).Issue(2)
	require.NoError(t, err)

	_, err = NewTokenManager([]byte("wrong-secret"), time.Hour).Verify(tok)
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestVerify_MalformedString(t *testing.T) {
	t.Parallel()

	_, err := NewTokenManager([]byte("k"), time.Hour).Verify("not.a.jwt")
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestVerify_RejectsOtherAlgorithms(t *testing.T) {
	t.Parallel()

	claims := Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "3",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewTokenManager([]byte("k"), time.Hour).Verify(tok)
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestVerify_RequiresExpiry(t *testing.T) {
	t.Parallel()

	secret := []byte("k")
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "3"}}).
		SignedString(secret)
	require.NoError(t, err)

	_, err = NewTokenManager(secret, time.Hour).Verify(tok)
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestVerify_RejectsNonNumericSubject(t *testing.T) {
	t.Parallel()

	secret := []byte("k")
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "alice",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}).SignedString(secret)
	require.NoError(t, err)

	_, err = NewTokenManager(secret, time.Hour).Verify(tok)
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrInvalidToken))
	assert.True(t, strings.Contains(err.Error(), "alice"))
}

func TestNewTokenManager_DefaultValidity(t *testing.T) {
	t.Parallel()

	assert.Equal(t, DefaultTokenValidity, NewTokenManager([]byte("k"), 0).Validity())
	assert.Equal(t, 5*time.Minute, NewTokenManager([]byte("k"), 5*time.Minute).Validity())
}

func TestSubjectContext(t *testing.T) {
	t.Parallel()

	_, ok := SubjectFromContext(context.Background())
	assert.False(t, ok)

	ctx := WithSubject(context.Background(), 99)
	got, ok := SubjectFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, int64(99), got)
}
