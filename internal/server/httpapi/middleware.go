package httpapi

import (
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/dmitrijs2005/gatekeeper/internal/common"
	"github.com/dmitrijs2005/gatekeeper/internal/logging"
	"github.com/dmitrijs2005/gatekeeper/internal/server/apierr"
	"github.com/dmitrijs2005/gatekeeper/internal/server/auth"
	"github.com/dmitrijs2005/gatekeeper/internal/server/envelope"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

const maxRequestIDLen = 128

// requestID keeps a caller-supplied X-Request-ID or assigns a new UUID, echoes
// it on the response and attaches it to every log line for the request.
func (s *HTTPServer) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(common.RequestIDHeaderName))
		if id == "" || len(id) > maxRequestIDLen {
			id = uuid.NewString()
		}

		w.Header().Set(common.RequestIDHeaderName, id)

		ctx := logging.ContextWithAttrs(r.Context(), "request_id", id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// observe writes the access log line and request metrics once the handler
// is done.
func (s *HTTPServer) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		elapsed := time.Since(start)

		s.metrics.ObserveRequest(route, r.Method, status, elapsed)
		s.logger.Info(r.Context(), "request handled",
			"method", r.Method,
			"route", route,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration", elapsed,
		)
	})
}

// recoverer turns a handler panic into the generic 500 envelope.
func (s *HTTPServer) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			s.logger.Error(r.Context(), "panic in handler", "panic", rec, "stack", string(debug.Stack()))
			envelope.WriteError(w, apierr.Internal())
		}()
		next.ServeHTTP(w, r)
	})
}

// Authenticate admits only requests carrying a valid bearer token and puts
// the token subject into the request context. Every rejection is the same
// 401 UNAUTHORIZED; the reason is only logged.
func Authenticate(tokens TokenVerifier, log logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, reason := bearerToken(r.Header.Get(common.AuthorizationHeaderName))
			if reason != "" {
				log.Warn(r.Context(), "authentication failed", "reason", reason)
				envelope.WriteError(w, apierr.Unauthorized())
				return
			}

			subject, err := tokens.Verify(token)
			if err != nil {
				log.Warn(r.Context(), "authentication failed", "reason", "token rejected", "error", err)
				envelope.WriteError(w, apierr.Unauthorized())
				return
			}

			ctx := auth.WithSubject(r.Context(), subject)
			ctx = logging.ContextWithAttrs(ctx, "user_id", subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(header string) (token, reason string) {
	if header == "" {
		return "", "missing authorization header"
	}
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok {
		return "", "malformed authorization header"
	}
	if !strings.EqualFold(scheme, common.BearerScheme) {
		return "", "unsupported authorization scheme"
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", "empty bearer token"
	}
	return token, ""
}
