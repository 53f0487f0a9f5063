// ABOUTME: Entry point for the crmpulse CLI, MCP server and HTTP API
// ABOUTME: Routes to MCP server, HTTP server or CLI commands based on arguments
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/harperreed/crmpulse/cli"
	"github.com/harperreed/crmpulse/config"
	"github.com/harperreed/crmpulse/db"
	"github.com/harperreed/crmpulse/logging"
	"go.uber.org/zap"
)

const version = "0.2.0"

type command func(args []string) error

func main() {
	// Global flags
	showVersion := flag.Bool("version", false, "Show version and exit")
	dbPath := flag.String("db-path", "", "Database path (default: ~/.local/share/crmpulse/crmpulse.db)")
	initOnly := flag.Bool("init", false, "Initialize database and exit")

	// Parse global flags but don't fail on unknown (for subcommands)
	_ = flag.CommandLine.Parse(os.Args[1:])

	if *showVersion {
		fmt.Printf("crmpulse version %s\n", version)
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) == 0 && !*initOnly {
		printUsage()
		os.Exit(0)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}

	logger, err := logging.New(cfg.LogLevel, cfg.PrettyLogs)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	database, err := db.OpenDatabase(cfg.DBPath)
	if err != nil {
		logger.Fatal("failed to open database", zap.String("path", cfg.DBPath), zap.Error(err))
	}
	defer database.Close()

	logger.Debug("database opened", zap.String("path", cfg.DBPath))

	if *initOnly {
		fmt.Printf("Database initialized at %s\n", cfg.DBPath)
		return
	}

	app := cli.NewApp(database, cfg, logger)

	name := args[0]
	commandArgs := args[1:]

	switch name {
	case "mcp":
		if err := app.MCPCommand(version); err != nil {
			logger.Fatal("MCP server failed", zap.Error(err))
		}

	case "serve":
		if err := app.ServeCommand(commandArgs); err != nil {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}

	case "crm":
		dispatch("crm", commandArgs, map[string]command{
			"add-company":      app.AddCompanyCommand,
			"list-companies":   app.ListCompaniesCommand,
			"add-lead":         app.AddLeadCommand,
			"list-leads":       app.ListLeadsCommand,
			"add-subscription": app.AddSubscriptionCommand,
			"add-user":         app.AddUserCommand,
			"record-activity":  app.RecordActivityCommand,
			"add-page":         app.AddPageCommand,
			"set-feature":      app.SetFeatureCommand,
		})

	case "ops":
		dispatch("ops", commandArgs, map[string]command{
			"bulk":           app.BulkCommand,
			"bulk-log":       app.BulkLogCommand,
			"health":         app.HealthCommand,
			"health-history": app.HealthHistoryCommand,
			"at-risk":        app.AtRiskCommand,
			"dashboard":      app.DashboardCommand,
		})

	default:
		fmt.Printf("Unknown command: %s\n\n", name)
		printUsage()
		os.Exit(1)
	}
}

// dispatch runs the named subcommand of group, exiting non-zero on error.
func dispatch(group string, args []string, commands map[string]command) {
	if len(args) == 0 {
		fmt.Printf("Error: %s requires a subcommand\n\n", group)
		printUsage()
		os.Exit(1)
	}

	run, ok := commands[args[0]]
	if !ok {
		fmt.Printf("Unknown %s command: %s\n\n", group, args[0])
		printUsage()
		os.Exit(1)
	}

	if err := run(args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Printf(`crmpulse v%s - account health scoring and bulk CRM operations

USAGE:
  crmpulse [global flags] <command> [subcommand] [flags]

GLOBAL FLAGS:
  --version              Show version and exit
  --db-path <path>       Database path (default: ~/.local/share/crmpulse/crmpulse.db)
  --init                 Initialize database and exit

COMMANDS:
  mcp                    Start MCP server on stdio
  serve                  Start the JSON API and /metrics
    --addr <addr>          Listen address (default: HTTP_ADDR or :8080)
  crm                    Record companies, leads, subscriptions and usage
  ops                    Bulk operations and health scoring

CRM COMMANDS:
  crmpulse crm add-company        --name <name> [--domain <d>] [--tags a,b]
  crmpulse crm list-companies     [--query <text>] [--limit <n>]
  crmpulse crm add-lead           --name <name> [--email <e>] [--company <id>] [--status <s>]
  crmpulse crm list-leads         [--query <text>] [--company <id>] [--status <s>] [--limit <n>]
  crmpulse crm add-subscription   --company <id> --plan <plan> [--cycle monthly]
                                  [--status active] [--period-end YYYY-MM-DD]
                                  [--next-billing YYYY-MM-DD]
  crmpulse crm add-user           --company <id> --email <email>
  crmpulse crm record-activity    --company <id> --user <id> [--type login] [--at RFC3339]
  crmpulse crm add-page           --company <id> --title <title> [--published]
  crmpulse crm set-feature        --company <id> --feature <name> [--count <n>]

OPS COMMANDS:
  crmpulse ops bulk               --entity <type> --op <operation> [--ids a,b] [id...]
                                  [--params '{"status":"qualified"}'] [--executed-by <who>]
  crmpulse ops bulk-log [id]      Show one run log, or list recent runs
    --limit <n>                   Max runs to list (default: 20)
  crmpulse ops health [--save] <company-id>
  crmpulse ops health-history     [--from YYYY-MM-DD] [--to YYYY-MM-DD] <company-id>
  crmpulse ops at-risk            [--date YYYY-MM-DD]
  crmpulse ops dashboard          [--date YYYY-MM-DD] [--runs <n>]

BULK OPERATIONS:
  lead:          change_status, add_tags, remove_tags, assign, delete, add_note
  company:       change_status, add_tags, remove_tags, recalculate_health,
                 assign_cs_manager, add_note
  subscription:  change_plan, change_billing_cycle, change_status, extend_next_billing

EXAMPLES:
  # Tag two leads
  crmpulse ops bulk --entity lead --op add_tags --params '{"tags":["vip"]}' <id1> <id2>

  # Recalculate and store today's health snapshot
  crmpulse ops health --save <company-id>

`, version)
}
