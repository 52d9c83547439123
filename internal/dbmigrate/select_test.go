package dbmigrate

import (
	"testing"

	"github.com/fdg312/meal-planner/internal/config"
)

func TestSelectDatabaseURL_Priority(t *testing.T) {
	cfg := &config.Config{
		DatabaseURLDirect: "postgres://direct",
		DatabaseURLRaw:    "postgres://url",
		DatabaseURLPooled: "postgres://pooled",
	}

	dbURL, source, warning, err := SelectDatabaseURL(cfg, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dbURL != "postgres://direct" || source != "DATABASE_URL_DIRECT" {
		t.Fatalf("expected direct URL, got dbURL=%q source=%q", dbURL, source)
	}
	if warning != "" {
		t.Fatalf("unexpected warning: %q", warning)
	}
}

func TestSelectDatabaseURL_FallbackToDatabaseURL(t *testing.T) {
	cfg := &config.Config{
		DatabaseURLRaw:    "postgres://url",
		DatabaseURLPooled: "postgres://pooled",
	}

	dbURL, source, warning, err := SelectDatabaseURL(cfg, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dbURL != "postgres://url" || source != "DATABASE_URL" {
		t.Fatalf("expected DATABASE_URL, got dbURL=%q source=%q", dbURL, source)
	}
	if warning != "" {
		t.Fatalf("unexpected warning: %q", warning)
	}
}

func TestSelectDatabaseURL_PooledWarning(t *testing.T) {
	cfg := &config.Config{
		DatabaseURLPooled: "postgres://pooled",
	}

	dbURL, source, warning, err := SelectDatabaseURL(cfg, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dbURL != "postgres://pooled" || source != "DATABASE_URL_POOLED" {
		t.Fatalf("expected pooled URL, got dbURL=%q source=%q", dbURL, source)
	}
	if warning == "" {
		t.Fatal("expected warning for pooled DDL usage")
	}
}

func TestSelectDatabaseURL_RequireDirect(t *testing.T) {
	cfg := &config.Config{
		DatabaseURLRaw:    "postgres://url",
		DatabaseURLPooled: "postgres://pooled",
	}

	_, _, _, err := SelectDatabaseURL(cfg, true)
	if err == nil {
		t.Fatal("expected error when direct is required but missing")
	}
}

func TestSelectTarget_SQLite(t *testing.T) {
	cfg := &config.Config{
		StorageMode:       config.StorageModeSQLite,
		SQLitePath:        "data/plan.db",
		DatabaseURLDirect: "postgres://direct",
	}

	target, err := SelectTarget(cfg, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if target.Driver != DriverSQLite || target.DSN != "data/plan.db" {
		t.Fatalf("expected sqlite target, got %+v", target)
	}
}

func TestSelectTarget_Postgres(t *testing.T) {
	cfg := &config.Config{
		StorageMode:       config.StorageModeAuto,
		DatabaseURLPooled: "postgres://pooled",
	}

	target, err := SelectTarget(cfg, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if target.Driver != DriverPostgres || target.Source != "DATABASE_URL_POOLED" || target.Warning == "" {
		t.Fatalf("unexpected target %+v", target)
	}

	if _, err := SelectTarget(&config.Config{}, false); err == nil {
		t.Fatal("expected error without any database URL")
	}
}

func TestApply_SQLiteRejectsDown(t *testing.T) {
	target := Target{Driver: DriverSQLite, DSN: t.TempDir() + "/plan.db"}
	if err := Apply(t.Context(), "down", target, ""); err == nil {
		t.Fatal("expected error for sqlite down")
	}
	if err := Apply(t.Context(), "up", target, ""); err != nil {
		t.Fatalf("sqlite up: %v", err)
	}
}
