package cli

import (
	"context"

	"github.com/dmitrijs2005/pmanager/internal/common"
)

func (a *App) promptPassword(prompt string) (string, error) {
	pw, err := GetPassword(a.reader, prompt, a.out)
	if err != nil {
		return "", err
	}
	defer common.WipeByteArray(pw)
	return string(pw), nil
}

// Register prompts for a username and a password twice and creates the
// user. On success the new user is logged in.
func (a *App) Register(ctx context.Context, _ []string) error {
	username, err := GetSimpleText(a.reader, "Username", a.out)
	if err != nil {
		return err
	}
	password, err := a.promptPassword("Password")
	if err != nil {
		return err
	}
	confirm, err := a.promptPassword("Confirm password")
	if err != nil {
		return err
	}

	a.closeBrowser()
	if err := a.auth.Register(ctx, username, password, confirm); err != nil {
		return err
	}
	a.println("Registered and logged in as", a.auth.CurrentUsername())
	return a.openBrowser(ctx)
}

// Login prompts for credentials and opens a session.
func (a *App) Login(ctx context.Context, _ []string) error {
	username, err := GetSimpleText(a.reader, "Username", a.out)
	if err != nil {
		return err
	}
	password, err := a.promptPassword("Password")
	if err != nil {
		return err
	}

	a.closeBrowser()
	if err := a.auth.Login(ctx, username, password); err != nil {
		return err
	}
	a.println("Logged in as", a.auth.CurrentUsername())
	return a.openBrowser(ctx)
}

// Logout stops the entry list and drops the session.
func (a *App) Logout(ctx context.Context, _ []string) error {
	a.closeBrowser()
	a.auth.Logout()
	a.println("Logged out")
	return nil
}

// Profile shows the account screen.
func (a *App) Profile(ctx context.Context, _ []string) error {
	u, err := a.auth.Profile(ctx)
	if err != nil {
		return err
	}
	sess, err := a.session()
	if err != nil {
		return err
	}
	n, err := a.entries.Count(ctx, sess)
	if err != nil {
		return err
	}

	backup := "off"
	if a.backup.Enabled() {
		backup = "on"
	}
	a.printf("Username:    %s\n", u.UserName)
	a.printf("User ID:     %d\n", u.ID)
	a.printf("Entries:     %d\n", n)
	a.printf("Auto-lock:   %s\n", a.config.SessionTTL)
	a.printf("Cloud:       %s\n", backup)
	return nil
}

// Rename changes the username of the logged in user.
func (a *App) Rename(ctx context.Context, _ []string) error {
	if _, err := a.session(); err != nil {
		return err
	}
	name, err := GetSimpleText(a.reader, "New username", a.out)
	if err != nil {
		return err
	}
	// the browser shares the session that is about to be wiped; it is
	// reopened on success or lazily by the next list or search
	a.closeBrowser()
	if err := a.auth.UpdateUsername(ctx, name); err != nil {
		return err
	}
	a.println("Username changed to", a.auth.CurrentUsername())
	return a.openBrowser(ctx)
}

// Passwd changes the master password; all secrets are re-encrypted.
func (a *App) Passwd(ctx context.Context, _ []string) error {
	if _, err := a.session(); err != nil {
		return err
	}
	oldPassword, err := a.promptPassword("Current password")
	if err != nil {
		return err
	}
	newPassword, err := a.promptPassword("New password")
	if err != nil {
		return err
	}
	confirm, err := a.promptPassword("Confirm new password")
	if err != nil {
		return err
	}

	a.closeBrowser()
	if err := a.auth.ChangePassword(ctx, oldPassword, newPassword, confirm); err != nil {
		return err
	}
	a.println("Password changed")
	return a.openBrowser(ctx)
}
