package httpapi

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/gatekeeper/internal/common"
	"github.com/dmitrijs2005/gatekeeper/internal/server/apierr"
	"github.com/dmitrijs2005/gatekeeper/internal/server/envelope"
	"github.com/dmitrijs2005/gatekeeper/internal/shared/schema"
)

// ConflictDetails describes which fields a uniqueness violation hit.
type ConflictDetails struct {
	Target []string `json:"target"`
}

// MapError turns any error into a status and failure envelope. Checks run in
// order: domain error, schema validation error, store conflict, anything
// else. It never panics; a failure while mapping yields the generic 500.
func MapError(err error) (status int, resp envelope.Response) {
	defer func() {
		if recover() != nil {
			status, resp = internalError()
		}
	}()

	if e, ok := apierr.As(err); ok {
		code := e.Code
		if code == "" {
			code = apierr.CodeInternal
		}
		st := e.Status
		if st == 0 {
			st = http.StatusInternalServerError
		}
		message := e.Message
		if message == "" {
			message = apierr.MessageInternal
		}
		return st, envelope.Failure(code, message, e.Details)
	}

	var ve *schema.ValidationError
	if errors.As(err, &ve) && ve != nil {
		return http.StatusUnprocessableEntity,
			envelope.Failure(apierr.CodeValidation, apierr.MessageValidation, ve.Issues)
	}

	var ce common.ConflictError
	if errors.As(err, &ce) {
		var details any
		if ce.Field != "" {
			details = ConflictDetails{Target: []string{ce.Field}}
		}
		return http.StatusConflict,
			envelope.Failure(apierr.CodeUniqueConstraint, apierr.MessageConflict, details)
	}

	return internalError()
}

func internalError() (int, envelope.Response) {
	return http.StatusInternalServerError,
		envelope.Failure(apierr.CodeInternal, apierr.MessageInternal, nil)
}

// writeError maps err and writes it. Server-side failures are logged with
// the original error, which never reaches the client.
func (s *HTTPServer) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, resp := MapError(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error(r.Context(), "request failed", "error", err)
	} else {
		s.logger.Debug(r.Context(), "request rejected", "status", status, "error", err)
	}
	envelope.Write(w, status, resp)
}
