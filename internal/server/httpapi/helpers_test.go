package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/gatekeeper/internal/logging"
	"github.com/dmitrijs2005/gatekeeper/internal/server/auth"
	"github.com/dmitrijs2005/gatekeeper/internal/server/metrics"
	"github.com/dmitrijs2005/gatekeeper/internal/server/models"
	"github.com/dmitrijs2005/gatekeeper/internal/server/repositories/users"
	"github.com/dmitrijs2005/gatekeeper/internal/server/services"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var testSecret = []byte("test-secret")

type testEnv struct {
	server  *HTTPServer
	handler http.Handler
	repo    *countingRepo
	tokens  *auth.TokenManager
}

// countingRepo counts every call that reaches the store.
type countingRepo struct {
	*users.MemoryRepository
	calls   atomic.Int64
	created atomic.Int64
}

func (r *countingRepo) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	r.calls.Add(1)
	return r.MemoryRepository.GetUserByEmail(ctx, email)
}

func (r *countingRepo) Create(ctx context.Context, user *models.User) (*models.User, error) {
	r.calls.Add(1)
	u, err := r.MemoryRepository.Create(ctx, user)
	if err == nil {
		r.created.Add(1)
	}
	return u, err
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	repo := &countingRepo{MemoryRepository: users.NewMemoryRepository()}
	hasher, err := auth.NewPasswordHasher(bcrypt.MinCost)
	require.NoError(t, err)
	tokens := auth.NewTokenManager(testSecret, time.Hour)
	m := metrics.New()
	log := logging.Discard()

	svc := services.NewUserService(repo, hasher, tokens, log, m)
	srv := NewHTTPServer(Options{MaxBodyBytes: 1 << 10}, log, svc, tokens, m)

	return &testEnv{server: srv, handler: srv.Routes(), repo: repo, tokens: tokens}
}

type wireError struct {
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Details json.RawMessage `json:"details,omitempty"`
}

type wireEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   *wireError      `json:"error,omitempty"`
}

func do(t *testing.T, h http.Handler, method, path, body string, header http.Header) (*httptest.ResponseRecorder, wireEnvelope) {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env wireEnvelope
	if ct := rec.Header().Get("Content-Type"); ct == "application/json; charset=utf-8" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec, env
}

func bearer(token string) http.Header {
	return http.Header{"Authorization": []string{"Bearer " + token}}
}

func decodeData[T any](t *testing.T, env wireEnvelope) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out
}
