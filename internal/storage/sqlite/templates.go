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

type templatesStorage struct {
	db *sql.DB
}

func (s *templatesStorage) CreateTemplate(ctx context.Context, tmpl *storage.Template) error {
	if tmpl.ID == uuid.Nil {
		tmpl.ID = uuid.New()
	}

	now := time.Now().UTC()
	tmpl.CreatedAt = now
	tmpl.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO meal_templates (id, owner_user_id, name, kind, body, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, tmpl.ID, tmpl.OwnerUserID, tmpl.Name, tmpl.Kind, tmpl.Body, formatTime(now), formatTime(now))
	if err != nil {
		return fmt.Errorf("failed to create template: %w", err)
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTemplate(row rowScanner) (storage.Template, error) {
	var (
		tmpl               storage.Template
		createdAt, updated string
	)
	if err := row.Scan(&tmpl.ID, &tmpl.OwnerUserID, &tmpl.Name, &tmpl.Kind, &tmpl.Body, &createdAt, &updated); err != nil {
		return storage.Template{}, err
	}

	var err error
	if tmpl.CreatedAt, err = parseTime(createdAt); err != nil {
		return storage.Template{}, err
	}
	if tmpl.UpdatedAt, err = parseTime(updated); err != nil {
		return storage.Template{}, err
	}
	return tmpl, nil
}

func (s *templatesStorage) GetTemplate(ctx context.Context, ownerUserID string, id uuid.UUID) (*storage.Template, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, owner_user_id, name, kind, body, created_at, updated_at
		FROM meal_templates
		WHERE id = ? AND owner_user_id = ?
	`, id, ownerUserID)

	tmpl, err := scanTemplate(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrTemplateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get template: %w", err)
	}

	return &tmpl, nil
}

func (s *templatesStorage) ListTemplates(ctx context.Context, ownerUserID string) ([]storage.Template, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, owner_user_id, name, kind, body, created_at, updated_at
		FROM meal_templates
		WHERE owner_user_id = ?
		ORDER BY name ASC, created_at ASC
	`, ownerUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	defer rows.Close()

	templates := []storage.Template{}
	for rows.Next() {
		tmpl, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan template: %w", err)
		}
		templates = append(templates, tmpl)
	}

	return templates, rows.Err()
}

func (s *templatesStorage) CountTemplates(ctx context.Context, ownerUserID string) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM meal_templates WHERE owner_user_id = ?`, ownerUserID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count templates: %w", err)
	}
	return n, nil
}

func (s *templatesStorage) DeleteTemplate(ctx context.Context, ownerUserID string, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM meal_templates WHERE id = ? AND owner_user_id = ?`, id, ownerUserID)
	if err != nil {
		return fmt.Errorf("failed to delete template: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete template: %w", err)
	}
	if n == 0 {
		return storage.ErrTemplateNotFound
	}

	return nil
}
