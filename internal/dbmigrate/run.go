package dbmigrate

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"

	"github.com/fdg312/meal-planner/internal/storage/sqlite"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Apply runs command against the target. The sqlite schema is embedded in
// the storage package and only supports "up".
func Apply(ctx context.Context, command string, target Target, migrationsDir string) error {
	switch target.Driver {
	case DriverSQLite:
		if command != "up" {
			return fmt.Errorf("command %q is not supported for sqlite (only up)", command)
		}
		return sqlite.RunMigrations(target.DSN)
	case DriverPostgres:
		return Run(ctx, command, target.DSN, migrationsDir)
	default:
		return fmt.Errorf("unknown migration driver %q", target.Driver)
	}
}

// Run applies goose migrations from migrationsDir to a postgres database.
func Run(ctx context.Context, command string, dbURL string, migrationsDir string) error {
	if dbURL == "" {
		return fmt.Errorf("database URL is empty")
	}
	if migrationsDir == "" {
		migrationsDir = DefaultMigrationsDir
	}

	db, err := sql.Open("pgx", dbURL)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}

	if err := goose.RunContext(ctx, command, db, migrationsDir); err != nil {
		return fmt.Errorf("goose %s failed: %w", command, err)
	}

	return nil
}
