package main

import (
	"database/sql"
	"flag"
	"fmt"
	"os"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/wms/backend/internal/infrastructure/config"
	"github.com/wms/backend/internal/infrastructure/logger"
	"github.com/wms/backend/internal/infrastructure/migration"
)

func main() {
	var (
		command = flag.String("command", "up", "migration command: up, down, version, force, steps")
		path    = flag.String("path", "migrations", "path to migration files")
		steps   = flag.Int("steps", 0, "number of steps for the steps command")
		force   = flag.Int("force", 0, "version for the force command")
	)
	flag.Parse()

	if err := run(*command, *path, *steps, *force); err != nil {
		fmt.Fprintf(os.Stderr, "migrate failed: %v\n", err)
		os.Exit(1)
	}
}

func run(command, path string, steps, forceVersion int) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer log.Sync() //nolint:errcheck

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	migrator, err := migration.New(db, path, log)
	if err != nil {
		return err
	}
	defer migrator.Close() //nolint:errcheck

	switch command {
	case "up":
		return migrator.Up()
	case "down":
		return migrator.Down()
	case "steps":
		if steps == 0 {
			return fmt.Errorf("steps command requires a non-zero -steps value")
		}
		return migrator.Steps(steps)
	case "version":
		version, dirty, err := migrator.Version()
		if err != nil {
			return err
		}
		log.Info("current migration version",
			zap.Uint("version", version),
			zap.Bool("dirty", dirty))
		return nil
	case "force":
		return migrator.Force(forceVersion)
	default:
		return fmt.Errorf("unknown command %q", command)
	}
}
