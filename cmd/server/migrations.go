package main

import (
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"

	"github.com/vedhika/samsara-api/internal/config"
)

// migrationsDir is the path to the goose SQL migration files, relative to
// the process working directory.
const migrationsDir = "internal/platform/postgres/migrations"

// runMigrations executes the requested goose command (up, down, or status)
// against the configured database.
func runMigrations(cfg *config.Config, command string) error {
	db, err := sql.Open("pgx", cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to open database for migrations: %w", err)
	}
	defer func() {
		_ = db.Close()
	}()

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	switch command {
	case "up":
		if err := goose.Up(db, migrationsDir); err != nil {
			return fmt.Errorf("goose up failed: %w", err)
		}
	case "down":
		if err := goose.Down(db, migrationsDir); err != nil {
			return fmt.Errorf("goose down failed: %w", err)
		}
	case "status":
		if err := goose.Status(db, migrationsDir); err != nil {
			return fmt.Errorf("goose status failed: %w", err)
		}
	default:
		return fmt.Errorf("unknown migration command: %q (expected up, down, or status)", command)
	}

	return nil
}
