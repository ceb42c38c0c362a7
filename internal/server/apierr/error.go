package apierr

import (
	"errors"
	"fmt"
)

// Error is a business-rule failure carrying exactly what the client should
// see. Services return it unchanged; the HTTP layer writes it as-is.
type Error struct {
	Status  int
	Code    Code
	Message string
	Details any
}

func (e *Error) Error() string {
	return fmt.Sprintf("%d %s: %s", e.Status, e.Code, e.Message)
}

// WithDetails returns a copy of e carrying details.
func (e *Error) WithDetails(details any) *Error {
	cp := *e
	cp.Details = details
	return &cp
}

// New builds an Error with an explicit status.
func New(status int, code Code, message string) *Error {
	return &Error{Status: status, Code: code, Message: message}
}

func coded(code Code, message string) *Error {
	return New(StatusOf(code), code, message)
}

// InvalidInput reports missing or malformed required fields (400).
func InvalidInput(message string) *Error {
	if message == "" {
		message = MessageInvalidInput
	}
	return coded(CodeInvalidInput, message)
}

// InvalidCredentials is the single answer for an unknown email and a wrong
// password alike.
func InvalidCredentials() *Error {
	return coded(CodeInvalidCredentials, MessageInvalidCredentials)
}

// Unauthorized reports a missing, malformed, or rejected bearer token.
func Unauthorized() *Error {
	return coded(CodeUnauthorized, MessageUnauthorized)
}

func UserExists() *Error {
	return coded(CodeUserExists, MessageUserExists)
}

func NotFound() *Error {
	return coded(CodeNotFound, MessageNotFound)
}

func Internal() *Error {
	return coded(CodeInternal, MessageInternal)
}

// As extracts an *Error from err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) && e != nil {
		return e, true
	}
	return nil, false
}
