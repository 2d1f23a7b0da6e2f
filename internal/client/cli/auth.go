package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/vehiclefeed/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Login authenticates the operator. The user name comes from the first
// argument, then the configured default, then a prompt.
func (a *App) Login(ctx context.Context, args []string) error {
	userName := a.config.Username
	if len(args) > 0 {
		userName = args[0]
	}
	if userName == "" {
		var err error
		if userName, err = getSimpleText(a.reader, "Enter user name", a.out); err != nil {
			return err
		}
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if err := a.api.Login(ctx, userName, string(password)); err != nil {
		a.loggedIn = false
		return fmt.Errorf("login unsuccessful: %w", err)
	}

	a.userName = userName
	a.loggedIn = true
	fmt.Fprintln(a.out, "Login successful")
	return nil
}

// Logout revokes the session on the server and forgets the user locally.
func (a *App) Logout(ctx context.Context, args []string) error {
	err := a.api.Logout(ctx)
	a.userName = ""
	a.loggedIn = false
	return err
}
