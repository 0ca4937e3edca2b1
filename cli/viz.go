// ABOUTME: Visualization CLI commands
// ABOUTME: Pipeline graph, deals chart and text dashboard over a fresh snapshot
package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/harperreed/crmlink/display"
	"github.com/harperreed/crmlink/viz"
)

// PipelineCommand renders the deal pipeline as DOT, or the won/lost chart
// series with --chart.
func PipelineCommand(ctx context.Context, app *App, args []string) error {
	fs := flag.NewFlagSet("pipeline", flag.ContinueOnError)
	output := fs.String("output", "", "Output file (default: stdout)")
	chart := fs.Bool("chart", false, "Print monthly won/lost deal value instead of the graph")
	companies := fs.Bool("companies", false, "Graph companies with their contacts and deals")
	if err := fs.Parse(args); err != nil {
		return err
	}

	snap, err := viz.LoadSnapshot(ctx, app.Coordinator)
	if err != nil {
		return err
	}

	if *chart {
		points := viz.DealsChart(snap.DealStages)
		if len(points) == 0 {
			fmt.Fprintln(app.Out, "No closed deals")
			return nil
		}
		w := tabwriter.NewWriter(app.Out, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(w, "MONTH\tSTATE\tVALUE")
		for _, p := range points {
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", p.TimeText, p.State, display.USD(p.Value))
		}
		return w.Flush()
	}

	generator := viz.NewGraphGenerator(snap, app.Log)
	var dot string
	if *companies {
		dot, err = generator.GenerateCompanyGraph(ctx)
	} else {
		dot, err = generator.GeneratePipelineGraph(ctx)
	}
	if err != nil {
		return err
	}

	if *output != "" {
		if err := os.WriteFile(*output, []byte(dot), 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", *output, err)
		}
		fmt.Fprintf(app.Out, "✓ Graph written to %s\n", *output)
		return nil
	}
	fmt.Fprintln(app.Out, dot)
	return nil
}

// DashboardCommand prints pipeline totals, counts and overdue tasks.
func DashboardCommand(ctx context.Context, app *App, args []string) error {
	snap, err := viz.LoadSnapshot(ctx, app.Coordinator)
	if err != nil {
		return err
	}
	stats := viz.GenerateDashboardStats(snap, app.now())
	fmt.Fprint(app.Out, viz.RenderDashboard(stats))
	return nil
}
