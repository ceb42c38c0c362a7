package cli

import (
	"bufio"
	"context"
	"io"
	"os"
	"time"

	"github.com/dmitrijs2005/gatekeeper/internal/client/client"
	"github.com/dmitrijs2005/gatekeeper/internal/client/config"
	"github.com/dmitrijs2005/gatekeeper/internal/client/services"
)

type App struct {
	config      *config.Config
	authService services.AuthService
	email       string
	reader      *bufio.Reader
	out         io.Writer
}

func NewApp(c *config.Config) *App {
	apiClient := client.NewHTTPClient(c.ServerURL, c.RequestTimeout)
	return &App{
		config:      c,
		authService: services.NewAuthService(apiClient),
		reader:      bufio.NewReader(os.Stdin),
		out:         os.Stdout,
	}
}

// Run greets the user, probes the server and starts the REPL on stdin.
func (a *App) Run(ctx context.Context) {
	printlnFn("Welcome to gatekeeper CLI (type 'help' for commands)")

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	if err := a.authService.Ping(pingCtx); err != nil {
		printlnFn("Warning: server", a.config.ServerURL, "is not reachable:", err)
	}
	cancel()

	runREPL(ctx, a, a.status, a.reader)
}

func (a *App) isLoggedIn() bool {
	return a.authService.LoggedIn()
}

func (a *App) status() string {
	if a.isLoggedIn() && a.email != "" {
		return "(" + a.email + ")"
	}
	return ""
}
