// Package client talks to the gatekeeper HTTP API. It unwraps the response
// envelope, returning data on success and an *APIError carrying the server's
// code, message and details on failure.
package client
