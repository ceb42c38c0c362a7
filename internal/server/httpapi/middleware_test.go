package httpapi

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/gatekeeper/internal/common"
	"github.com/dmitrijs2005/gatekeeper/internal/logging"
	"github.com/dmitrijs2005/gatekeeper/internal/server/auth"
	"github.com/dmitrijs2005/gatekeeper/internal/server/services"
	"github.com/dmitrijs2005/gatekeeper/internal/shared/schema"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubVerifier struct {
	subject int64
	err     error
	got     string
}

func (s *stubVerifier) Verify(token string) (int64, error) {
	s.got = token
	return s.subject, s.err
}

func TestAuthenticate(t *testing.T) {
	tests := []struct {
		name      string
		header    string
		verifyErr error
		wantCode  int
		wantToken string
	}{
		{name: "missing header", header: "", wantCode: http.StatusUnauthorized},
		{name: "no scheme", header: "abc.def.ghi", wantCode: http.StatusUnauthorized},
		{name: "basic scheme", header: "Basic dXNlcjpwYXNz", wantCode: http.StatusUnauthorized},
		{name: "empty token", header: "Bearer   ", wantCode: http.StatusUnauthorized},
		{name: "rejected token", header: "Bearer bad", verifyErr: common.ErrInvalidToken, wantCode: http.StatusUnauthorized, wantToken: "bad"},
		{name: "expired token", header: "Bearer old", verifyErr: common.ErrTokenExpired, wantCode: http.StatusUnauthorized, wantToken: "old"},
		{name: "valid", header: "Bearer good", wantCode: http.StatusOK, wantToken: "good"},
		{name: "scheme is case-insensitive", header: "bearer good", wantCode: http.StatusOK, wantToken: "good"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := &stubVerifier{subject: 7, err: tt.verifyErr}
			reached := false
			h := Authenticate(v, logging.Discard())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				reached = true
				sub, ok := auth.SubjectFromContext(r.Context())
				assert.True(t, ok)
				assert.Equal(t, int64(7), sub)
				w.WriteHeader(http.StatusOK)
			}))

			hdr := http.Header{}
			if tt.header != "" {
				hdr.Set("Authorization", tt.header)
			}
			rec, body := do(t, h, http.MethodGet, "/", "", hdr)

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantToken, v.got)
			if tt.wantCode == http.StatusUnauthorized {
				assert.False(t, reached)
				require.NotNil(t, body.Error)
				assert.Equal(t, "UNAUTHORIZED", body.Error.Code)
				assert.Equal(t, "Unauthorized", body.Error.Message)
				assert.Empty(t, body.Error.Details)
			} else {
				assert.True(t, reached)
			}
		})
	}
}

func TestValidate_RejectsBadBodies(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		message string
	}{
		{name: "empty", body: "", message: "Request body is empty"},
		{name: "malformed", body: `{"email":`, message: "Malformed JSON body"},
		{name: "trailing data", body: `{"email":"a@b.com"} x`, message: "Malformed JSON body"},
		{name: "array", body: `[1,2]`, message: "Request body must be a JSON object"},
		{name: "string", body: `"hi"`, message: "Request body must be a JSON object"},
		{name: "too large", body: `{"email":"` + strings.Repeat("a", 2048) + `"}`, message: "Request body too large"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reached := false
			h := Validate[services.LoginInput](schema.Login, 1<<10, logging.Discard())(
				http.HandlerFunc(func(http.ResponseWriter, *http.Request) { reached = true }))

			rec, body := do(t, h, http.MethodPost, "/", tt.body, nil)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.False(t, reached)
			require.NotNil(t, body.Error)
			assert.Equal(t, "INVALID_INPUT", body.Error.Code)
			assert.Equal(t, tt.message, body.Error.Message)
		})
	}
}

func TestValidate_SchemaIssuesAreDetails(t *testing.T) {
	h := Validate[services.RegisterInput](schema.Users, 1<<10, logging.Discard())(
		http.HandlerFunc(func(http.ResponseWriter, *http.Request) { t.Fatal("handler must not run") }))

	rec, _ := do(t, h, http.MethodPost, "/", `{"email":"not-an-email","password":123}`, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"success":false,"error":{"code":"INVALID_INPUT","message":"Invalid input","details":[
		{"path":"email","message":"Invalid email"},
		{"path":"password","message":"Expected string, received number"}
	]}}`, rec.Body.String())
}

func TestValidate_PassesTypedInput(t *testing.T) {
	var got services.RegisterInput
	h := Validate[services.RegisterInput](schema.Users, 1<<10, logging.Discard())(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var ok bool
			got, ok = InputFromContext[services.RegisterInput](r.Context())
			assert.True(t, ok)
			w.WriteHeader(http.StatusNoContent)
		}))

	rec, _ := do(t, h, http.MethodPost, "/", `{"email":"a@b.com","password":"secret123","lastName":"Lovelace","extra":true}`, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "a@b.com", got.Email)
	assert.Equal(t, "secret123", got.Password)
	assert.Nil(t, got.FirstName)
	require.NotNil(t, got.LastName)
	assert.Equal(t, "Lovelace", *got.LastName)
}

func TestInputFromContext_Missing(t *testing.T) {
	_, ok := InputFromContext[services.LoginInput](context.Background())
	assert.False(t, ok)
}

func TestRecoverer_PanicIsInternalError(t *testing.T) {
	env := newTestEnv(t)
	h := env.server.recoverer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("kaboom")
	}))

	rec, _ := do(t, h, http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"success":false,"error":{"code":"INTERNAL_ERROR","message":"Internal Server Error"}}`, rec.Body.String())
}

func TestRequestID(t *testing.T) {
	env := newTestEnv(t)

	rec, _ := do(t, env.handler, http.MethodGet, "/healthz", "", http.Header{"X-Request-Id": []string{"abc-123"}})
	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))

	rec, _ = do(t, env.handler, http.MethodGet, "/healthz", "", nil)
	_, err := uuid.Parse(rec.Header().Get("X-Request-ID"))
	assert.NoError(t, err)

	var logs bytes.Buffer
	log, err := logging.New("debug", "json", &logs)
	require.NoError(t, err)
	srv := NewHTTPServer(Options{}, log, env.server.users, env.tokens, nil)

	rec, _ = do(t, srv.Routes(), http.MethodGet, "/healthz", "", http.Header{"X-Request-Id": []string{"abc-123"}})
	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))
	assert.Contains(t, logs.String(), `"request_id":"abc-123"`)
}

func TestRoutes_NotFoundAndMethodNotAllowed(t *testing.T) {
	env := newTestEnv(t)

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/nope"},
		{http.MethodGet, "/users"},
		{http.MethodDelete, "/auth/login"},
	} {
		rec, body := do(t, env.handler, tc.method, tc.path, "", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code, tc.method+" "+tc.path)
		require.NotNil(t, body.Error)
		assert.Equal(t, "NOT_FOUND", body.Error.Code)
		assert.Equal(t, "Not Found", body.Error.Message)
	}
}

func TestRoutes_SchemasHealthAndMetrics(t *testing.T) {
	env := newTestEnv(t)

	rec, body := do(t, env.handler, http.MethodGet, "/schemas/users", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decodeData[schema.Schema](t, body)
	assert.Equal(t, schema.Users, got)

	rec, _ = do(t, env.handler, http.MethodGet, "/schemas/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = do(t, env.handler, http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true}`, rec.Body.String())
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

	rec, _ = do(t, env.handler, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `gatekeeper_http_requests_total{method="GET",route="/healthz",status="200"} 1`)
	assert.Contains(t, rec.Body.String(), `gatekeeper_http_requests_total{method="GET",route="/schemas/{name}",status="404"} 1`)
}

func TestServe_StopsOnCancel(t *testing.T) {
	env := newTestEnv(t)

	listen, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- env.server.Serve(ctx, listen) }()

	url := "http://" + listen.Addr().String() + "/healthz"
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestRun_BadAddress(t *testing.T) {
	srv := NewHTTPServer(Options{Address: "not-an-address"}, logging.Discard(), nil, nil, nil)
	err := srv.Run(context.Background())
	require.Error(t, err)
	assert.False(t, errors.Is(err, http.ErrServerClosed))
}

func TestWriteError_InternalDoesNotLeak(t *testing.T) {
	env := newTestEnv(t)

	rec := httptest.NewRecorder()
	env.server.writeError(rec, httptest.NewRequest(http.MethodGet, "/", nil), errors.New("disk on fire"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "disk on fire")
}
