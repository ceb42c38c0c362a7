package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/gatekeeper/internal/server/apierr"
	"github.com/dmitrijs2005/gatekeeper/internal/server/envelope"
	"github.com/dmitrijs2005/gatekeeper/internal/server/services"
	"github.com/dmitrijs2005/gatekeeper/internal/shared/schema"
	"github.com/go-chi/chi/v5"
)

// Routes builds the router with the full middleware chain.
func (s *HTTPServer) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestID)
	r.Use(s.observe)
	r.Use(s.recoverer)

	r.NotFound(notFound)
	r.MethodNotAllowed(notFound)

	r.Get("/healthz", s.healthz)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	r.Get("/schemas/{name}", s.getSchema)

	r.With(Validate[services.RegisterInput](schema.Users, s.opts.MaxBodyBytes, s.logger)).
		Post("/users", s.createUser)
	r.With(Validate[services.LoginInput](schema.Login, s.opts.MaxBodyBytes, s.logger)).
		Post("/auth/login", s.login)

	r.Group(func(r chi.Router) {
		r.Use(Authenticate(s.tokens, s.logger))
		r.Get("/protected/hello", s.hello)
	})

	return r
}

func notFound(w http.ResponseWriter, _ *http.Request) {
	envelope.WriteError(w, apierr.NotFound())
}
