// ABOUTME: Live update CLI command
// ABOUTME: Streams remote changes into the cache and reports per-resource sync status
package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/harperreed/crmlink/db"
	"github.com/harperreed/crmlink/live"
	"github.com/harperreed/crmlink/models"
)

var defaultWatchResources = []string{
	models.ResourceCompanies,
	models.ResourceContacts,
	models.ResourceDeals,
	models.ResourceTasks,
}

// WatchCommand subscribes to live updates until interrupted.
func WatchCommand(ctx context.Context, app *App, args []string) error {
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	only := fs.String("resources", strings.Join(defaultWatchResources, ","), "Comma separated resources to watch")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var resources []string
	for _, r := range strings.Split(*only, ",") {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		if !models.IsKnownResource(r) {
			return fmt.Errorf("unknown resource %q", r)
		}
		resources = append(resources, r)
	}
	if len(resources) == 0 {
		return fmt.Errorf("no resources to watch")
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(app.Out, "Watching %s (Ctrl+C to stop)\n", strings.Join(resources, ", "))
	syncer := live.NewSyncer(app.Live, app.Coordinator, app.DB, app.Log)
	err := syncer.Run(ctx, resources...)
	if err != nil {
		return fmt.Errorf("live updates failed: %w", err)
	}
	fmt.Fprintln(app.Out, "✓ Stopped")
	return nil
}

// SyncStatusCommand prints the stored live sync state of each resource.
func SyncStatusCommand(ctx context.Context, app *App, args []string) error {
	states, err := db.GetAllSyncStates(app.DB)
	if err != nil {
		return fmt.Errorf("failed to read sync state: %w", err)
	}
	if len(states) == 0 {
		fmt.Fprintln(app.Out, "No live updates recorded. Run 'crmlink watch'.")
		return nil
	}

	w := tabwriter.NewWriter(app.Out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "RESOURCE\tSTATUS\tLAST EVENT\tERROR")
	for _, s := range states {
		last := "never"
		if s.LastEventTime != nil {
			last = s.LastEventTime.Local().Format(time.DateTime)
		}
		errMsg := "-"
		if s.ErrorMessage != nil {
			errMsg = *s.ErrorMessage
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", s.Resource, s.Status, last, errMsg)
	}
	return w.Flush()
}
