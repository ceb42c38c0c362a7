// Package envelope builds and writes the uniform JSON wrapper every API
// response uses:
//
//	success: { "success": true, "data"?: T }
//	failure: { "success": false, "error": { "code", "message", "details"? } }
//
// Clients branch on "success" before reading "data" or "error".
package envelope

import (
	"encoding/json"
	"net/http"

	"github.com/dmitrijs2005/gatekeeper/internal/server/apierr"
)

// ErrorBody is the failure payload.
type ErrorBody struct {
	Code    apierr.Code `json:"code"`
	Message string      `json:"message"`
	Details any         `json:"details,omitempty"`
}

// Response is either a success or a failure, never both.
type Response struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorBody `json:"error,omitempty"`
}

// Success wraps data. A nil data yields {"success":true}.
func Success(data any) Response {
	return Response{Success: true, Data: data}
}

// Failure wraps an error code, message and optional details.
func Failure(code apierr.Code, message string, details any) Response {
	return Response{Error: &ErrorBody{Code: code, Message: message, Details: details}}
}

// FromError renders a domain error.
func FromError(e *apierr.Error) Response {
	return Failure(e.Code, e.Message, e.Details)
}

// fallback is written verbatim when a response cannot be marshalled.
var fallback = []byte(`{"success":false,"error":{"code":"INTERNAL_ERROR","message":"Internal Server Error"}}`)

// Write serializes resp with status. If marshalling fails the client gets the
// fixed 500 failure envelope instead.
func Write(w http.ResponseWriter, status int, resp Response) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")

	data, err := json.Marshal(resp)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write(fallback)
		return
	}

	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// WriteSuccess is Write(w, status, Success(data)).
func WriteSuccess(w http.ResponseWriter, status int, data any) {
	Write(w, status, Success(data))
}

// WriteError writes a domain error with its own status.
func WriteError(w http.ResponseWriter, e *apierr.Error) {
	Write(w, e.Status, FromError(e))
}
