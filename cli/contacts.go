// ABOUTME: Contact CLI commands
// ABOUTME: Moves a contact through the status pipeline optimistically
package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/harperreed/crmlink/models"
	"github.com/harperreed/crmlink/objects"
)

// SetStatusCommand sets a contact's status.
func SetStatusCommand(ctx context.Context, app *App, args []string) error {
	pos, _, err := splitArgs(args, 2, "set-status <contact-id> <status>")
	if err != nil {
		return err
	}
	status, err := models.ParseContactStatus(pos[1])
	if err != nil {
		return err
	}

	rec, err := app.Coordinator.Update(ctx, models.ResourceContacts, pos[0], objects.Patch{"status": string(status)})
	if err != nil {
		return fmt.Errorf("failed to set status: %w", err)
	}
	fmt.Fprintf(app.Out, "✓ %s is now %s\n", rec.String("name"), rec.String("status"))
	return nil
}

// StatusesCommand lists the contact statuses in pipeline order.
func StatusesCommand(ctx context.Context, app *App, args []string) error {
	names := make([]string, 0, len(models.ContactStatuses()))
	for _, s := range models.ContactStatuses() {
		names = append(names, string(s))
	}
	fmt.Fprintln(app.Out, strings.Join(names, " → "))
	return nil
}
