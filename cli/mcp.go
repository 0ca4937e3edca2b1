// ABOUTME: MCP server subcommand
// ABOUTME: Serves CRM tools, resources and prompts over stdio for Claude Desktop
package cli

import (
	"context"

	"github.com/harperreed/crmlink/handlers"
	"github.com/harperreed/crmlink/live"
	"github.com/harperreed/crmlink/models"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// MCPCommand starts the MCP server on stdio. Logs go to stderr so they never
// interleave with the protocol stream.
func MCPCommand(ctx context.Context, app *App, version string) error {
	app.Log.Info().Str("api", app.Config.APIURL).Msg("starting CRM MCP server")

	if app.Config.Live {
		liveCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		syncer := live.NewSyncer(app.Live, app.Coordinator, app.DB, app.Log)
		go func() {
			if err := syncer.Run(liveCtx, models.ResourceContacts, models.ResourceDeals, models.ResourceTasks); err != nil {
				app.Log.Warn().Err(err).Msg("live updates stopped")
			}
		}()
	}

	server := handlers.NewServer(app.Coordinator, version, app.Log)
	return server.Run(ctx, &mcp.StdioTransport{})
}
