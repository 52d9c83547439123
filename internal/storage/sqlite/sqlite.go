// Package sqlite is the single-file storage backend used by planctl and by
// the API when STORAGE_MODE=sqlite.
package sqlite

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/fdg312/meal-planner/internal/storage"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// fixed width so ORDER BY created_at sorts chronologically
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteStorage implements storage.Storage on a local SQLite file.
type SQLiteStorage struct {
	db        *sql.DB
	mealPlans *mealPlansStorage
	templates *templatesStorage
	exports   *exportsStorage
}

// Open creates the parent directory, applies pending migrations and opens the database.
func Open(dbPath string) (*SQLiteStorage, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("sqlite path is empty")
	}

	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	if err := RunMigrations(dbPath); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// один writer, иначе SQLITE_BUSY под нагрузкой
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &SQLiteStorage{
		db:        db,
		mealPlans: &mealPlansStorage{db: db},
		templates: &templatesStorage{db: db},
		exports:   &exportsStorage{db: db},
	}, nil
}

// RunMigrations applies the embedded migrations using golang-migrate.
func RunMigrations(dbPath string) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create iofs driver: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, fmt.Sprintf("sqlite://%s", dbPath))
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			return nil
		}
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	log.Printf("INFO sqlite: migrations applied to %s", dbPath)
	return nil
}

func (s *SQLiteStorage) GetMealPlansStorage() storage.MealPlansStorage {
	return s.mealPlans
}

func (s *SQLiteStorage) GetTemplatesStorage() storage.TemplatesStorage {
	return s.templates
}

func (s *SQLiteStorage) GetExportsStorage() storage.ExportsStorage {
	return s.exports
}

func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(value string) (time.Time, error) {
	t, err := time.Parse(timeLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", value, err)
	}
	return t, nil
}
