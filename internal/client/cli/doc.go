// Package cli implements the interactive gatekeeper command-line client: a
// small REPL that registers, logs in and calls the protected resource.
package cli
