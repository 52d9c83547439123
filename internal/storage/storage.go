package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrTemplateNotFound = errors.New("template not found")
	ErrExportNotFound   = errors.New("export not found")
)

// Storage aggregates every store the API needs.
type Storage interface {
	GetMealPlansStorage() MealPlansStorage
	GetTemplatesStorage() TemplatesStorage
	GetExportsStorage() ExportsStorage

	// Close releases connections (no-op for memory)
	Close() error
}

// MealPlansStorage persists one meal plan per (owner, profile).
type MealPlansStorage interface {
	// GetPlan returns the plan header and its rows ordered by week order, day, position.
	GetPlan(ctx context.Context, ownerUserID string, profileID string) (MealPlan, []PlannedMealRow, []PlannedGoalRow, bool, error)
	// SavePlan atomically replaces every row of the plan, creating the plan if needed.
	SavePlan(ctx context.Context, ownerUserID string, profileID string, title string, meals []PlannedMealRow, goals []PlannedGoalRow) (MealPlan, error)
	// DeletePlan removes the plan and its rows
	DeletePlan(ctx context.Context, ownerUserID string, profileID string) error
}

type MealPlan struct {
	ID          uuid.UUID
	OwnerUserID string
	ProfileID   string
	Title       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// PlannedMealRow is one meal occurrence. WeekOrder keeps the plan's week
// order stable across a reload; Position is the order inside the slot.
type PlannedMealRow struct {
	Week      string
	WeekOrder int
	Day       int
	Position  int
	MealID    int
}

type PlannedGoalRow struct {
	Week        string
	WeekOrder   int
	Day         int
	CaloriesMin float64
	CaloriesMax float64
	CarbsMin    float64
	CarbsMax    float64
	FatMin      float64
	FatMax      float64
	ProteinMin  float64
	ProteinMax  float64
}

// TemplatesStorage stores named daily/weekly templates.
type TemplatesStorage interface {
	CreateTemplate(ctx context.Context, tmpl *Template) error
	// GetTemplate returns ErrTemplateNotFound for unknown ids or foreign owners
	GetTemplate(ctx context.Context, ownerUserID string, id uuid.UUID) (*Template, error)
	ListTemplates(ctx context.Context, ownerUserID string) ([]Template, error)
	CountTemplates(ctx context.Context, ownerUserID string) (int, error)
	DeleteTemplate(ctx context.Context, ownerUserID string, id uuid.UUID) error
}

// Template is a reusable plan fragment. Body is the JSON encoded template.
type Template struct {
	ID          uuid.UUID
	OwnerUserID string
	Name        string
	Kind        string // "daily" or "weekly"
	Body        []byte
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ExportsStorage keeps metadata of rendered week exports.
type ExportsStorage interface {
	CreateExport(ctx context.Context, export *ExportMeta) error
	GetExport(ctx context.Context, ownerUserID string, id uuid.UUID) (*ExportMeta, error)
	ListExports(ctx context.Context, ownerUserID string, profileID string, limit, offset int) ([]ExportMeta, error)
	DeleteExport(ctx context.Context, ownerUserID string, id uuid.UUID) error
}

type ExportMeta struct {
	ID          uuid.UUID
	OwnerUserID string
	ProfileID   string
	Week        string
	Format      string  // "csv" or "pdf"
	ObjectKey   *string // blob key (nil when bytes are kept in Data)
	SizeBytes   int64
	CreatedAt   time.Time
	Data        []byte // inline bytes when no blob store is configured
}
