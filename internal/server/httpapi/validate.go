package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/dmitrijs2005/gatekeeper/internal/logging"
	"github.com/dmitrijs2005/gatekeeper/internal/server/apierr"
	"github.com/dmitrijs2005/gatekeeper/internal/server/envelope"
	"github.com/dmitrijs2005/gatekeeper/internal/shared/schema"
)

type inputKey[T any] struct{}

// InputFromContext returns the typed input stored by Validate.
func InputFromContext[T any](ctx context.Context) (T, bool) {
	v, ok := ctx.Value(inputKey[T]{}).(T)
	return v, ok
}

// Validate gates a route on s: the body must be a JSON object of at most
// maxBytes that satisfies s. Failures answer 400 INVALID_INPUT, with the
// field issues as details when the schema rejected the payload, and the
// handler never runs. On success the decoded T is placed in the context.
func Validate[T any](s schema.Schema, maxBytes int64, log logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, bodyErr := readObject(w, r, maxBytes)
			if bodyErr != nil {
				log.Debug(r.Context(), "request body rejected", "schema", s.Name, "error", bodyErr)
				envelope.WriteError(w, bodyErr)
				return
			}

			in, err := schema.Decode[T](s, raw)
			if err != nil {
				var ve *schema.ValidationError
				if errors.As(err, &ve) {
					log.Debug(r.Context(), "validation failed", "schema", s.Name, "issues", ve.Issues)
					envelope.WriteError(w, apierr.InvalidInput("").WithDetails(ve.Issues))
					return
				}
				log.Error(r.Context(), "decode validated input", "schema", s.Name, "error", err)
				envelope.WriteError(w, apierr.Internal())
				return
			}

			ctx := context.WithValue(r.Context(), inputKey[T]{}, in)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func readObject(w http.ResponseWriter, r *http.Request, maxBytes int64) (map[string]any, *apierr.Error) {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBytes))
	dec.UseNumber()

	var body any
	if err := dec.Decode(&body); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return nil, apierr.InvalidInput("Request body too large")
		case errors.Is(err, io.EOF):
			return nil, apierr.InvalidInput("Request body is empty")
		default:
			return nil, apierr.InvalidInput("Malformed JSON body")
		}
	}
	if dec.More() {
		return nil, apierr.InvalidInput("Malformed JSON body")
	}

	obj, ok := body.(map[string]any)
	if !ok {
		return nil, apierr.InvalidInput("Request body must be a JSON object")
	}
	return obj, nil
}
