// Package apierr is the error vocabulary of the HTTP API: the machine-readable
// codes, their canonical messages and HTTP statuses, and the domain error type
// services return when a business rule rejects a request.
package apierr

import "net/http"

// Code is a stable, machine-readable error code sent as error.code.
type Code string

const (
	CodeInvalidInput       Code = "INVALID_INPUT"
	CodeValidation         Code = "VALIDATION_ERROR"
	CodeBadRequest         Code = "BAD_REQUEST"
	CodeInvalidCredentials Code = "INVALID_CREDENTIALS"
	CodeUnauthorized       Code = "UNAUTHORIZED"
	CodeNotFound           Code = "NOT_FOUND"
	CodeUserExists         Code = "USER_EXISTS"
	CodeUniqueConstraint   Code = "UNIQUE_CONSTRAINT"
	CodeInternal           Code = "INTERNAL_ERROR"
)

// Human-readable messages sent as error.message.
const (
	MessageInternal           = "Internal Server Error"
	MessageValidation         = "Validation Error"
	MessageInvalidInput       = "Invalid input"
	MessageInvalidCredentials = "Invalid credentials"
	MessageUnauthorized       = "Unauthorized"
	MessageConflict           = "Conflict"
	MessageNotFound           = "Not Found"
	MessageUserExists         = "User already exists"
	MessageBadRequest         = "Bad Request"
)

var statusByCode = map[Code]int{
	CodeInvalidInput:       http.StatusBadRequest,
	CodeBadRequest:         http.StatusBadRequest,
	CodeValidation:         http.StatusUnprocessableEntity,
	CodeInvalidCredentials: http.StatusUnauthorized,
	CodeUnauthorized:       http.StatusUnauthorized,
	CodeNotFound:           http.StatusNotFound,
	CodeUserExists:         http.StatusConflict,
	CodeUniqueConstraint:   http.StatusConflict,
	CodeInternal:           http.StatusInternalServerError,
}

// StatusOf returns the canonical HTTP status for c. Unknown codes are 500.
func StatusOf(c Code) int {
	if s, ok := statusByCode[c]; ok {
		return s
	}
	return http.StatusInternalServerError
}
