// ABOUTME: Entry point for the crmlink CLI, MCP server and task board
// ABOUTME: Loads config, wires the app and routes to subcommands
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/harperreed/crmlink/cli"
	"github.com/harperreed/crmlink/config"
	"github.com/harperreed/crmlink/crmerr"
	"github.com/harperreed/crmlink/logging"
)

const version = "0.2.0"

type command func(ctx context.Context, app *cli.App, args []string) error

var commands = map[string]command{
	"login":       cli.LoginCommand,
	"logout":      cli.LogoutCommand,
	"whoami":      cli.WhoamiCommand,
	"register":    cli.RegisterCommand,
	"list":        cli.ListCommand,
	"show":        cli.ShowCommand,
	"create":      cli.CreateCommand,
	"update":      cli.UpdateCommand,
	"delete":      cli.DeleteCommand,
	"set-status":  cli.SetStatusCommand,
	"statuses":    cli.StatusesCommand,
	"move-task":   cli.MoveTaskCommand,
	"board":       cli.BoardCommand,
	"pipeline":    cli.PipelineCommand,
	"dashboard":   cli.DashboardCommand,
	"history":     cli.HistoryCommand,
	"watch":       cli.WatchCommand,
	"sync-status": cli.SyncStatusCommand,
}

func main() {
	// Global flags
	showVersion := flag.Bool("version", false, "Show version and exit")
	configPath := flag.String("config", "", "Config file (default: ~/.config/crmlink/config.json)")
	logLevel := flag.String("log-level", "", "Override the configured log level")
	flag.Usage = printUsage

	// Parse global flags but leave subcommand flags alone
	_ = flag.CommandLine.Parse(os.Args[1:])

	if *showVersion {
		fmt.Printf("crmlink version %s\n", version)
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(0)
	}

	name, commandArgs := args[0], args[1:]
	run, ok := commands[name]
	if !ok && name != "mcp" {
		fmt.Printf("Unknown command: %s\n\n", name)
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	logger := logging.New(logging.Options{Format: cfg.LogFormat, Level: cfg.LogLevel})

	app, err := cli.Open(cfg, logger)
	if err != nil {
		log.Fatalf("Failed to start: %v", err)
	}

	ctx := context.Background()
	if name == "mcp" {
		err = cli.MCPCommand(ctx, app, version)
	} else {
		err = run(ctx, app, commandArgs)
	}
	_ = app.Close()

	if err != nil {
		if errors.Is(err, crmerr.ErrAuthentication) {
			log.Fatalf("Error: %v\nYour session is no longer valid. Run 'crmlink login <email>'.", err)
		}
		log.Fatalf("Error: %v", err)
	}
}

func printUsage() {
	fmt.Printf(`crmlink v%s - CRM client with optimistic updates

USAGE:
  crmlink [global flags] <command> [args] [flags]

GLOBAL FLAGS:
  --version              Show version and exit
  --config <path>        Config file (default: ~/.config/crmlink/config.json)
  --log-level <level>    trace, debug, info, warn or error

SESSION:
  crmlink login <email>          Log in and store the access token
  crmlink logout                 Forget the access token
  crmlink whoami                 Show the current user
  crmlink register --email <e>   Create an account (prompts for password)

RECORDS:
  crmlink list <resource>        List records
    --filter field:op[:value]      Filter (repeatable): eq ne lt gt lte gte in nin
                                   contains ncontains startswith endswith null nnull between
    --sort field[:asc|desc]        Sort (repeatable)
    --page <n> --page-size <n>     Pagination (default page size: 20)
    --json                         Print JSON
    --offline                      Read records saved by earlier runs
  crmlink show <resource> <id>   Show one record (--json)
  crmlink create <resource> --set field=value ...
  crmlink update <resource> <id> --set field=value ...
  crmlink delete <resource> <id>

  Resources: companies contacts deals tasks users events dealStages taskStages
  Values are read as JSON when possible: --set value=1200 --set stageId=null

PIPELINE:
  crmlink set-status <contact-id> <status>     Move a contact through the pipeline
  crmlink statuses                             List contact statuses
  crmlink move-task <task-id> <stage-id>       Move a task ("unassigned" clears the stage)
  crmlink board [--text]                       Task board (TUI unless --text)
  crmlink pipeline [--chart] [--companies] [--output <file>]
  crmlink dashboard

LOCAL STATE:
  crmlink history [--pending] [--limit n] [<resource> <id>]
  crmlink watch [--resources a,b]              Stream live updates
  crmlink sync-status

MCP SERVER:
  crmlink mcp                    Start MCP server (for Claude Desktop integration)

EXAMPLES:
  crmlink login demo@refine.dev
  crmlink list contacts --filter status:in:NEW,CONTACTED --sort name
  crmlink set-status 42 qualified
  crmlink pipeline --output pipeline.dot

`, version)
}
