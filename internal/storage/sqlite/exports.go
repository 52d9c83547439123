package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fdg312/meal-planner/internal/storage"
	"github.com/google/uuid"
)

type exportsStorage struct {
	db *sql.DB
}

func (s *exportsStorage) CreateExport(ctx context.Context, export *storage.ExportMeta) error {
	if export.ID == uuid.Nil {
		export.ID = uuid.New()
	}
	export.CreatedAt = time.Now().UTC()

	var objectKey sql.NullString
	if export.ObjectKey != nil {
		objectKey = sql.NullString{String: *export.ObjectKey, Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO meal_exports (id, owner_user_id, profile_id, week, format, object_key, size_bytes, data, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, export.ID, export.OwnerUserID, export.ProfileID, export.Week, export.Format,
		objectKey, export.SizeBytes, export.Data, formatTime(export.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to create export: %w", err)
	}

	return nil
}

func (s *exportsStorage) GetExport(ctx context.Context, ownerUserID string, id uuid.UUID) (*storage.ExportMeta, error) {
	var (
		export    storage.ExportMeta
		objectKey sql.NullString
		createdAt string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, owner_user_id, profile_id, week, format, object_key, size_bytes, data, created_at
		FROM meal_exports
		WHERE id = ? AND owner_user_id = ?
	`, id, ownerUserID).Scan(
		&export.ID,
		&export.OwnerUserID,
		&export.ProfileID,
		&export.Week,
		&export.Format,
		&objectKey,
		&export.SizeBytes,
		&export.Data,
		&createdAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrExportNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get export: %w", err)
	}

	if objectKey.Valid {
		export.ObjectKey = &objectKey.String
	}
	if export.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}

	return &export, nil
}

func (s *exportsStorage) ListExports(ctx context.Context, ownerUserID string, profileID string, limit, offset int) ([]storage.ExportMeta, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, owner_user_id, profile_id, week, format, object_key, size_bytes, created_at
		FROM meal_exports
		WHERE owner_user_id = ? AND profile_id = ?
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?
	`, ownerUserID, profileID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list exports: %w", err)
	}
	defer rows.Close()

	exports := []storage.ExportMeta{}
	for rows.Next() {
		var (
			export    storage.ExportMeta
			objectKey sql.NullString
			createdAt string
		)
		err := rows.Scan(
			&export.ID,
			&export.OwnerUserID,
			&export.ProfileID,
			&export.Week,
			&export.Format,
			&objectKey,
			&export.SizeBytes,
			&createdAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan export: %w", err)
		}
		if objectKey.Valid {
			key := objectKey.String
			export.ObjectKey = &key
		}
		if export.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		exports = append(exports, export)
	}

	return exports, rows.Err()
}

func (s *exportsStorage) DeleteExport(ctx context.Context, ownerUserID string, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM meal_exports WHERE id = ? AND owner_user_id = ?`, id, ownerUserID)
	if err != nil {
		return fmt.Errorf("failed to delete export: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete export: %w", err)
	}
	if n == 0 {
		return storage.ErrExportNotFound
	}

	return nil
}
