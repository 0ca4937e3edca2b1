// ABOUTME: Session CLI commands: login, logout, whoami and register
// ABOUTME: The access token lives in the local store and is read on every request
package cli

import (
	"context"
	"flag"
	"fmt"
	"time"
)

// LoginCommand exchanges an email for an access token.
func LoginCommand(ctx context.Context, app *App, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	email := fs.String("email", "", "Account email")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" && fs.NArg() > 0 {
		*email = fs.Arg(0)
	}

	if err := app.Auth.Login(ctx, *email); err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	fmt.Fprintf(app.Out, "✓ Logged in as %s\n", *email)
	return nil
}

// LogoutCommand clears the stored token.
func LogoutCommand(ctx context.Context, app *App, args []string) error {
	if err := app.Auth.Logout(); err != nil {
		return err
	}
	fmt.Fprintln(app.Out, "✓ Logged out")
	return nil
}

// WhoamiCommand checks the session and prints the current user.
func WhoamiCommand(ctx context.Context, app *App, args []string) error {
	ok, err := app.Auth.Check(ctx)
	if err != nil {
		return fmt.Errorf("session check failed: %w", err)
	}
	if !ok {
		fmt.Fprintln(app.Out, "Not logged in. Run 'crmlink login <email>'.")
		return nil
	}

	user, err := app.Auth.Identity(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(app.Out, "%s <%s>\n", user.Name, user.Email)
	if user.JobTitle != "" {
		fmt.Fprintf(app.Out, "  Title: %s\n", user.JobTitle)
	}
	fmt.Fprintf(app.Out, "  ID: %s\n", user.ID)

	info, err := app.Auth.TokenInfo()
	if err != nil {
		app.Log.Debug().Err(err).Msg("access token is not a readable JWT")
		return nil
	}
	if info != nil && info.ExpiresAt != nil {
		fmt.Fprintf(app.Out, "  Token expires: %s\n", info.ExpiresAt.Local().Format(time.RFC1123))
	}
	return nil
}

// RegisterCommand creates an account. The password is prompted for.
func RegisterCommand(ctx context.Context, app *App, args []string) error {
	fs := flag.NewFlagSet("register", flag.ContinueOnError)
	email := fs.String("email", "", "Account email (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" {
		return fmt.Errorf("--email is required")
	}

	password, err := app.ReadPassword("Password: ")
	if err != nil {
		return err
	}
	user, err := app.Auth.Register(ctx, *email, password)
	if err != nil {
		return fmt.Errorf("registration failed: %w", err)
	}
	fmt.Fprintf(app.Out, "✓ Registered %s (ID: %s)\n", user.Email, user.ID)
	fmt.Fprintln(app.Out, "Run 'crmlink login' to start a session.")
	return nil
}
