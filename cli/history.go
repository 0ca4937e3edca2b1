// ABOUTME: Mutation journal CLI command
// ABOUTME: Shows recent, pending or per-record mutations from the local database
package cli

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"text/tabwriter"

	"github.com/harperreed/crmlink/db"
)

// HistoryCommand lists journaled mutations.
func HistoryCommand(ctx context.Context, app *App, args []string) error {
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	pending := fs.Bool("pending", false, "Only mutations still awaiting a response")
	limit := fs.Int("limit", 20, "Maximum entries")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var (
		entries []db.MutationEntry
		err     error
	)
	switch {
	case *pending:
		entries, err = db.PendingMutations(app.DB)
	case fs.NArg() >= 2:
		entries, err = db.MutationsForRecord(app.DB, fs.Arg(0), fs.Arg(1))
	case fs.NArg() == 1:
		return fmt.Errorf("usage: history [--pending] [--limit n] [<resource> <id>]")
	default:
		entries, err = db.RecentMutations(app.DB, *limit)
	}
	if err != nil {
		return fmt.Errorf("failed to read history: %w", err)
	}

	if len(entries) == 0 {
		fmt.Fprintln(app.Out, "No mutations recorded")
		return nil
	}

	w := tabwriter.NewWriter(app.Out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "WHEN\tOP\tRECORD\tSTATUS\tPATCH")
	for _, e := range entries {
		status := e.Status
		if e.Error != nil {
			status += ": " + *e.Error
		}
		patch := "-"
		if len(e.Patch) > 0 {
			if data, err := json.Marshal(e.Patch); err == nil {
				patch = string(data)
			}
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s/%s\t%s\t%s\n",
			e.CreatedAt.Local().Format("2006-01-02 15:04:05"), e.Op, e.Resource, e.RecordID, status, patch)
	}
	_ = w.Flush()

	fmt.Fprintf(app.Out, "\nTotal: %d mutation(s)\n", len(entries))
	return nil
}
