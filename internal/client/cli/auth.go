package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/gatekeeper/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Register prompts for an email, a password and optional names, and creates
// the account. Field problems are reported before anything is sent.
func (a *App) Register(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	firstName, err := getSimpleText(a.reader, "First name (optional)", a.out)
	if err != nil {
		return err
	}
	lastName, err := getSimpleText(a.reader, "Last name (optional)", a.out)
	if err != nil {
		return err
	}

	id, err := a.authService.Register(ctx, email, password, firstName, lastName)
	if err != nil {
		report(a.out, err)
		return err
	}

	fmt.Fprintf(a.out, "Registered, id=%d\n", id)
	return nil
}

// Login prompts for credentials and keeps the returned token for later calls.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	id, err := a.authService.Login(ctx, email, password)
	if err != nil {
		report(a.out, err)
		return err
	}

	a.email = email
	fmt.Fprintf(a.out, "Logged in, id=%d\n", id)
	return nil
}

// Hello calls the protected resource with the current token.
func (a *App) Hello(ctx context.Context) error {
	msg, err := a.authService.Hello(ctx)
	if err != nil {
		report(a.out, err)
		return err
	}
	fmt.Fprintln(a.out, msg)
	return nil
}

func (a *App) Logout(context.Context) error {
	a.authService.Logout()
	a.email = ""
	fmt.Fprintln(a.out, "Logged out")
	return nil
}
