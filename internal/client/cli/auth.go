package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/tvportal/internal/client/models"
	"github.com/dmitrijs2005/tvportal/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Login authenticates with the given or prompted email and a hidden
// password, and saves the token for later runs.
func (a *App) Login(ctx context.Context, args []string) error {
	var (
		email string
		err   error
	)
	if len(args) > 0 {
		email = args[0]
	} else {
		email, err = getSimpleText(a.reader, "Enter email", a.out)
		if err != nil {
			return err
		}
	}

	password, err := getPassword(a.out, "Enter password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	token, expiresAt, err := a.api.Login(ctx, email, password)
	if err != nil {
		return err
	}

	a.email = common.NormalizeEmail(email)
	a.loggedIn = true

	if err := a.sessions.Save(ctx, &models.Session{
		Server:    a.config.ServerEndpointAddr,
		Email:     a.email,
		Token:     token,
		ExpiresAt: expiresAt,
	}); err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Logged in as %s, session valid until %s\n", a.email, expiresAt)
	return nil
}

// Logout forgets the local session. The server-side epoch is untouched, so
// a copied token stays valid until kicked or expired.
func (a *App) Logout(ctx context.Context) error {
	a.api.SetToken("")
	a.email = ""
	a.loggedIn = false
	return a.sessions.Delete(ctx, a.config.ServerEndpointAddr)
}

func (a *App) Whoami(ctx context.Context) error {
	who, err := a.api.Whoami(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s  %s  %s\n", who.ID, who.Email, who.Role)
	return nil
}

// ChangePassword changes the caller's own password. The server revokes the
// current session, so the stored one is dropped too.
func (a *App) ChangePassword(ctx context.Context) error {
	current, err := getPassword(a.out, "Current password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(current)

	next, err := getPassword(a.out, "New password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(next)

	if err := a.api.ChangePassword(ctx, current, next); err != nil {
		return err
	}

	fmt.Fprintln(a.out, "Password changed, please log in again")
	return a.Logout(ctx)
}
