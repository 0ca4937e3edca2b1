// ABOUTME: Task CLI commands: move a task between stages and show the board
// ABOUTME: The board opens the TUI unless --text asks for a plain listing
package cli

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/harperreed/crmlink/display"
	"github.com/harperreed/crmlink/live"
	"github.com/harperreed/crmlink/models"
	"github.com/harperreed/crmlink/objects"
	"github.com/harperreed/crmlink/tui"
)

// MoveTaskCommand moves a task to a stage. "unassigned" clears the stage.
func MoveTaskCommand(ctx context.Context, app *App, args []string) error {
	pos, _, err := splitArgs(args, 2, "move-task <task-id> <stage-id|unassigned>")
	if err != nil {
		return err
	}

	rec, err := app.Coordinator.Update(ctx, models.ResourceTasks, pos[0], objects.MoveTaskPatch(pos[1]))
	if err != nil {
		return fmt.Errorf("failed to move task: %w", err)
	}
	stage := objects.StageID(rec)
	if stage == "" {
		stage = objects.UnassignedColumnID
	}
	fmt.Fprintf(app.Out, "✓ Moved %q to %s\n", rec.String(objects.TaskFieldTitle), stage)
	return nil
}

// BoardCommand shows the task board.
func BoardCommand(ctx context.Context, app *App, args []string) error {
	fs := flag.NewFlagSet("board", flag.ContinueOnError)
	text := fs.Bool("text", false, "Print the board instead of opening the TUI")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if !*text {
		if app.Config.Live {
			liveCtx, cancel := context.WithCancel(ctx)
			defer cancel()
			syncer := live.NewSyncer(app.Live, app.Coordinator, app.DB, app.Log)
			go func() {
				if err := syncer.Run(liveCtx, models.ResourceTasks, models.ResourceTaskStages); err != nil {
					app.Log.Warn().Err(err).Msg("live updates stopped")
				}
			}()
		}
		return tui.Run(app.Coordinator, app.DB)
	}

	if err := tui.LoadBoard(ctx, app.Coordinator); err != nil {
		return fmt.Errorf("failed to load board: %w", err)
	}
	now := app.now()
	for _, column := range tui.BoardColumns(app.Coordinator.Cache()) {
		fmt.Fprintf(app.Out, "%s (%d)\n", strings.ToUpper(column.Title), len(column.Tasks))
		for _, task := range column.Tasks {
			line := "  • " + task.String(objects.TaskFieldTitle)
			if due := objects.DueDate(task); due != nil {
				marker := ""
				switch display.DateColor(*due, now) {
				case display.ColorError:
					marker = " (overdue)"
				case display.ColorWarning:
					marker = " (due soon)"
				}
				line += fmt.Sprintf("  [%s%s]", display.DueLabel(*due), marker)
			}
			fmt.Fprintln(app.Out, line)
		}
	}
	return nil
}
