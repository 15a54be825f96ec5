package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"
)

var errNoAdmin = errors.New(
	"no admin account exists and none is configured; " +
		"set ADMIN_USERNAME, ADMIN_EMAIL, and ADMIN_PASSWORD")

// ensureAdmin guarantees an admin account exists before the service accepts
// traffic. Resolution order:
//
//  1. An admin already exists: nothing to do.
//  2. ADMIN_USERNAME/ADMIN_EMAIL/ADMIN_PASSWORD are all set: create it
//     non-interactively.
//  3. Outside production, prompt on the terminal.
//  4. In production with nothing configured, fail loudly.
func (app *Application) ensureAdmin(ctx context.Context) error {
	has, err := app.bootstrapService.HasAdmin(ctx)
	if err != nil {
		return fmt.Errorf("admin lookup failed: %w", err)
	}
	if has {
		return nil
	}

	username := app.cfg.AdminUsername
	email := app.cfg.AdminEmail
	password := app.cfg.AdminPassword

	if username == "" || email == "" || password == "" {
		if app.cfg.IsProduction() {
			return errNoAdmin
		}
		username, email, password, err = promptAdmin()
		if err != nil {
			return err
		}
	}

	if _, err := app.bootstrapService.CreateAdmin(ctx, username, email, password); err != nil {
		return fmt.Errorf("admin creation failed: %w", err)
	}

	app.logger.Info("admin account created", "username", username)
	return nil
}

// promptAdmin asks for the initial admin credentials on the terminal. The
// password is read with echo disabled.
func promptAdmin() (username, email, password string, err error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return "", "", "", errNoAdmin
	}

	fmt.Println("No admin account found. Creating one now.")
	reader := bufio.NewReader(os.Stdin)

	fmt.Print("Admin username: ")
	username, err = reader.ReadString('\n')
	if err != nil {
		return "", "", "", err
	}
	username = strings.TrimSpace(username)

	fmt.Print("Admin email: ")
	email, err = reader.ReadString('\n')
	if err != nil {
		return "", "", "", err
	}
	email = strings.TrimSpace(email)

	fmt.Print("Admin password: ")
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", "", "", err
	}

	return username, email, string(raw), nil
}
