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

// PostgresTemplatesStorage: Postgres storage для шаблонов плана
type PostgresTemplatesStorage struct {
	pool *pgxpool.Pool
}

func NewPostgresTemplatesStorage(pool *pgxpool.Pool) *PostgresTemplatesStorage {
	return &PostgresTemplatesStorage{pool: pool}
}

func (s *PostgresTemplatesStorage) CreateTemplate(ctx context.Context, tmpl *storage.Template) error {
	query := `
		INSERT INTO meal_templates (id, owner_user_id, name, kind, body, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		RETURNING created_at, updated_at
	`

	if tmpl.ID == uuid.Nil {
		tmpl.ID = uuid.New()
	}

	err := s.pool.QueryRow(ctx, query,
		tmpl.ID,
		tmpl.OwnerUserID,
		tmpl.Name,
		tmpl.Kind,
		tmpl.Body,
	).Scan(&tmpl.CreatedAt, &tmpl.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create template: %w", err)
	}

	return nil
}

func (s *PostgresTemplatesStorage) GetTemplate(ctx context.Context, ownerUserID string, id uuid.UUID) (*storage.Template, error) {
	query := `
		SELECT id, owner_user_id, name, kind, body, created_at, updated_at
		FROM meal_templates
		WHERE id = $1 AND owner_user_id = $2
	`

	var tmpl storage.Template
	err := s.pool.QueryRow(ctx, query, id, ownerUserID).Scan(
		&tmpl.ID,
		&tmpl.OwnerUserID,
		&tmpl.Name,
		&tmpl.Kind,
		&tmpl.Body,
		&tmpl.CreatedAt,
		&tmpl.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrTemplateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get template: %w", err)
	}

	return &tmpl, nil
}

func (s *PostgresTemplatesStorage) ListTemplates(ctx context.Context, ownerUserID string) ([]storage.Template, error) {
	query := `
		SELECT id, owner_user_id, name, kind, body, created_at, updated_at
		FROM meal_templates
		WHERE owner_user_id = $1
		ORDER BY name ASC, created_at ASC
	`

	rows, err := s.pool.Query(ctx, query, ownerUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	defer rows.Close()

	templates := []storage.Template{}
	for rows.Next() {
		var tmpl storage.Template
		err := rows.Scan(
			&tmpl.ID,
			&tmpl.OwnerUserID,
			&tmpl.Name,
			&tmpl.Kind,
			&tmpl.Body,
			&tmpl.CreatedAt,
			&tmpl.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan template: %w", err)
		}
		templates = append(templates, tmpl)
	}

	return templates, rows.Err()
}

func (s *PostgresTemplatesStorage) CountTemplates(ctx context.Context, ownerUserID string) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM meal_templates WHERE owner_user_id = $1`, ownerUserID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count templates: %w", err)
	}
	return n, nil
}

func (s *PostgresTemplatesStorage) DeleteTemplate(ctx context.Context, ownerUserID string, id uuid.UUID) error {
	result, err := s.pool.Exec(ctx, `DELETE FROM meal_templates WHERE id = $1 AND owner_user_id = $2`, id, ownerUserID)
	if err != nil {
		return fmt.Errorf("failed to delete template: %w", err)
	}

	if result.RowsAffected() == 0 {
		return storage.ErrTemplateNotFound
	}

	return nil
}
