package dbmigrate

import (
	"fmt"

	"github.com/fdg312/meal-planner/internal/config"
)

const DefaultMigrationsDir = "migrations"

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Target describes where migrations are applied.
type Target struct {
	Driver  string // postgres | sqlite
	DSN     string // connection URL or sqlite file path
	Source  string // env var the DSN came from
	Warning string
}

// SelectTarget picks the migration target for the configured storage mode.
// STORAGE_MODE=sqlite migrates SQLITE_PATH; every other mode needs a postgres URL.
func SelectTarget(cfg *config.Config, requireDirect bool) (Target, error) {
	if cfg.StorageMode == config.StorageModeSQLite {
		return Target{Driver: DriverSQLite, DSN: cfg.SQLitePath, Source: "SQLITE_PATH"}, nil
	}

	dbURL, source, warning, err := SelectDatabaseURL(cfg, requireDirect)
	if err != nil {
		return Target{}, err
	}
	return Target{Driver: DriverPostgres, DSN: dbURL, Source: source, Warning: warning}, nil
}

// SelectDatabaseURL selects DB URL for migrations.
// Priority for migration command: DIRECT > DATABASE_URL > POOLED (with warning).
// If requireDirect is true, only DATABASE_URL_DIRECT is accepted.
func SelectDatabaseURL(cfg *config.Config, requireDirect bool) (dbURL string, source string, warning string, err error) {
	if requireDirect {
		if cfg.DatabaseURLDirect == "" {
			return "", "", "", fmt.Errorf("DATABASE_URL_DIRECT is required for DDL/migrations")
		}
		return cfg.DatabaseURLDirect, "DATABASE_URL_DIRECT", "", nil
	}

	if cfg.DatabaseURLDirect != "" {
		return cfg.DatabaseURLDirect, "DATABASE_URL_DIRECT", "", nil
	}
	if cfg.DatabaseURLRaw != "" {
		return cfg.DatabaseURLRaw, "DATABASE_URL", "", nil
	}
	if cfg.DatabaseURLPooled != "" {
		return cfg.DatabaseURLPooled, "DATABASE_URL_POOLED", "using pooled connection for DDL is not recommended; set DATABASE_URL_DIRECT", nil
	}

	return "", "", "", fmt.Errorf("no database URL configured (set DATABASE_URL_DIRECT or DATABASE_URL)")
}
