package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/fdg312/meal-planner/internal/storage"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresExportsStorage: Postgres storage для экспортов недели
type PostgresExportsStorage struct {
	pool *pgxpool.Pool
}

func NewPostgresExportsStorage(pool *pgxpool.Pool) *PostgresExportsStorage {
	return &PostgresExportsStorage{pool: pool}
}

func (s *PostgresExportsStorage) CreateExport(ctx context.Context, export *storage.ExportMeta) error {
	query := `
		INSERT INTO meal_exports (id, owner_user_id, profile_id, week, format, object_key, size_bytes, data, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		RETURNING created_at
	`

	if export.ID == uuid.Nil {
		export.ID = uuid.New()
	}

	err := s.pool.QueryRow(ctx, query,
		export.ID,
		export.OwnerUserID,
		export.ProfileID,
		export.Week,
		export.Format,
		export.ObjectKey,
		export.SizeBytes,
		export.Data,
	).Scan(&export.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create export: %w", err)
	}

	return nil
}

func (s *PostgresExportsStorage) GetExport(ctx context.Context, ownerUserID string, id uuid.UUID) (*storage.ExportMeta, error) {
	query := `
		SELECT id, owner_user_id, profile_id, week, format, object_key, size_bytes, data, created_at
		FROM meal_exports
		WHERE id = $1 AND owner_user_id = $2
	`

	var export storage.ExportMeta
	err := s.pool.QueryRow(ctx, query, id, ownerUserID).Scan(
		&export.ID,
		&export.OwnerUserID,
		&export.ProfileID,
		&export.Week,
		&export.Format,
		&export.ObjectKey,
		&export.SizeBytes,
		&export.Data,
		&export.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrExportNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get export: %w", err)
	}

	return &export, nil
}

// ListExports не читает колонку data
func (s *PostgresExportsStorage) ListExports(ctx context.Context, ownerUserID string, profileID string, limit, offset int) ([]storage.ExportMeta, error) {
	query := `
		SELECT id, owner_user_id, profile_id, week, format, object_key, size_bytes, created_at
		FROM meal_exports
		WHERE owner_user_id = $1 AND profile_id = $2
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`

	rows, err := s.pool.Query(ctx, query, ownerUserID, profileID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list exports: %w", err)
	}
	defer rows.Close()

	exports := []storage.ExportMeta{}
	for rows.Next() {
		var export storage.ExportMeta
		err := rows.Scan(
			&export.ID,
			&export.OwnerUserID,
			&export.ProfileID,
			&export.Week,
			&export.Format,
			&export.ObjectKey,
			&export.SizeBytes,
			&export.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan export: %w", err)
		}
		exports = append(exports, export)
	}

	return exports, rows.Err()
}

func (s *PostgresExportsStorage) DeleteExport(ctx context.Context, ownerUserID string, id uuid.UUID) error {
	result, err := s.pool.Exec(ctx, `DELETE FROM meal_exports WHERE id = $1 AND owner_user_id = $2`, id, ownerUserID)
	if err != nil {
		return fmt.Errorf("failed to delete export: %w", err)
	}

	if result.RowsAffected() == 0 {
		return storage.ErrExportNotFound
	}

	return nil
}
