package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/gatekeeper/internal/server/apierr"
	"github.com/dmitrijs2005/gatekeeper/internal/server/auth"
	"github.com/dmitrijs2005/gatekeeper/internal/server/envelope"
	"github.com/dmitrijs2005/gatekeeper/internal/server/services"
	"github.com/dmitrijs2005/gatekeeper/internal/shared/schema"
	"github.com/go-chi/chi/v5"
)

func (s *HTTPServer) createUser(w http.ResponseWriter, r *http.Request) {
	in, _ := InputFromContext[services.RegisterInput](r.Context())

	res, err := s.users.Register(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	envelope.WriteSuccess(w, http.StatusCreated, res)
}

func (s *HTTPServer) login(w http.ResponseWriter, r *http.Request) {
	in, _ := InputFromContext[services.LoginInput](r.Context())

	res, err := s.users.Login(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	envelope.WriteSuccess(w, http.StatusOK, res)
}

type helloResponse struct {
	Message string `json:"message"`
}

func (s *HTTPServer) hello(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.SubjectFromContext(r.Context()); !ok {
		envelope.WriteError(w, apierr.Unauthorized())
		return
	}
	envelope.WriteSuccess(w, http.StatusOK, helloResponse{Message: "hello world"})
}

func (s *HTTPServer) getSchema(w http.ResponseWriter, r *http.Request) {
	sc, ok := schema.Lookup(chi.URLParam(r, "name"))
	if !ok {
		envelope.WriteError(w, apierr.NotFound())
		return
	}
	envelope.WriteSuccess(w, http.StatusOK, sc)
}

func (s *HTTPServer) healthz(w http.ResponseWriter, _ *http.Request) {
	envelope.WriteSuccess(w, http.StatusOK, nil)
}
