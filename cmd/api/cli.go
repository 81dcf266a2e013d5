package main

import (
	"database/sql"
	"fmt"
	"os"
	"slices"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/MixxMasterMike123/b8s-reseller-app-sub001/internal/config"
)

const (
	exitOK      = 0
	exitUsage   = 2
	exitConfig  = 3
	exitMigrate = 4
)

const migrationsDir = "./migrations"

type gooseCommand struct {
	name string
	help string
	run  func(db *sql.DB, dir string, opts ...goose.OptionsFunc) error
}

// gooseCommands maps migrate subcommands to goose, in help order.
var gooseCommands = []gooseCommand{
	{"up", "Apply pending migrations", goose.Up},
	{"down", "Roll back the last migration", goose.Down},
	{"redo", "Roll back and re-apply the last migration", goose.Redo},
	{"status", "Print migration status", goose.Status},
	{"version", "Print the current schema version", goose.Version},
}

var (
	migrateRunner = realMigrateRunner
	osExit        = os.Exit
)

// handleCLICommand runs a one-shot command and exits. It reports false
// when args should start the server instead.
func handleCLICommand(args []string) bool {
	if len(args) == 0 {
		return false
	}
	switch args[0] {
	case "migrate":
		osExit(runMigrate(args[1:]))
	case "help", "-h", "--help":
		printHelp()
		osExit(exitOK)
	default:
		return false
	}
	return true
}

func knownSubcommand(name string) bool {
	return slices.ContainsFunc(gooseCommands, func(c gooseCommand) bool { return c.name == name })
}

func runMigrate(args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "usage: courier migrate <up|down|redo|status|version>")
		return exitUsage
	}
	if !knownSubcommand(args[0]) {
		fmt.Fprintf(os.Stderr, "unknown migrate subcommand: %s\n", args[0])
		return exitUsage
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		return exitConfig
	}
	if err := migrateRunner(args[0], cfg.DatabaseURL); err != nil {
		fmt.Fprintf(os.Stderr, "migrate %s: %v\n", args[0], err)
		return exitMigrate
	}
	return exitOK
}

func realMigrateRunner(subcmd, databaseURL string) error {
	if databaseURL == "" {
		return fmt.Errorf("DATABASE_URL is empty")
	}
	for _, c := range gooseCommands {
		if c.name != subcmd {
			continue
		}
		db, err := sql.Open("pgx", databaseURL)
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()
		if err := goose.SetDialect("postgres"); err != nil {
			return fmt.Errorf("set goose dialect: %w", err)
		}
		return c.run(db, migrationsDir)
	}
	return fmt.Errorf("unsupported migrate subcommand %q", subcmd)
}

func printHelp() {
	fmt.Println("courier: transactional notification API")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  courier                     Serve HTTP and consume order events")
	for _, c := range gooseCommands {
		fmt.Printf("  courier migrate %-11s %s\n", c.name, c.help)
	}
	fmt.Println()
	fmt.Printf("Migrations are read from %s. Environment is read from .env when present.\n", migrationsDir)
}
