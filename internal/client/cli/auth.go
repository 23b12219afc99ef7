package cli

import (
	"context"
	"errors"
	"log"
	"os"

	"github.com/dmitrijs2005/tsheet/internal/common"
)

// getSimpleText and getPIN are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPIN = GetPIN

// restoreLogin loads a stored login record so the user is not prompted again
// after a restart. Expired or absent records fall through to Login.
func (a *App) restoreLogin(ctx context.Context) {
	user, err := a.auth.CurrentUser(ctx)
	if err != nil {
		if errors.Is(err, common.ErrSessionExpired) {
			log.Println("Stored login has expired, please log in again")
		}
	}
	if user == nil {
		a.Login(ctx)
		return
	}

	a.user = user
	a.session.SetScope(user.UserID, user.SiteID)
	log.Printf("Welcome back, %s", user.UserName)
}

// Login prompts for the site, user and PIN and authenticates: against the
// server when online, against the stored record when not. On success the
// session scope switches to the logged-in user.
func (a *App) Login(ctx context.Context) error {
	siteID, err := getSimpleText(a.reader, "Enter site ID", os.Stdout)
	if err != nil {
		return err
	}
	userID, err := getSimpleText(a.reader, "Enter user ID", os.Stdout)
	if err != nil {
		return err
	}
	userName, err := getSimpleText(a.reader, "Enter your name", os.Stdout)
	if err != nil {
		return err
	}
	pin, err := getPIN(os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(pin)

	user, err := a.auth.Login(ctx, userID, userName, siteID, pin)
	if err != nil {
		log.Printf("Login unsuccessful: %s", err.Error())
		return err
	}

	a.user = user
	a.session.SetScope(user.UserID, user.SiteID)
	log.Printf("Login successful")
	return nil
}

// Logout removes the stored login record and drops the in-memory user.
// Queued actions stay queued; they belong to the device, not the login.
func (a *App) Logout(ctx context.Context) error {
	if err := a.auth.Logout(ctx); err != nil {
		return err
	}
	a.user = nil
	return nil
}
