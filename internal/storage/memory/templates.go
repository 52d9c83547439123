package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/fdg312/meal-planner/internal/storage"
	"github.com/google/uuid"
)

// TemplatesMemoryStorage: in-memory storage для шаблонов
type TemplatesMemoryStorage struct {
	mu        sync.RWMutex
	templates map[uuid.UUID]*storage.Template
}

func NewTemplatesMemoryStorage() *TemplatesMemoryStorage {
	return &TemplatesMemoryStorage{
		templates: make(map[uuid.UUID]*storage.Template),
	}
}

func (s *TemplatesMemoryStorage) CreateTemplate(ctx context.Context, tmpl *storage.Template) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if tmpl.ID == uuid.Nil {
		tmpl.ID = uuid.New()
	}

	now := time.Now().UTC()
	tmpl.CreatedAt = now
	tmpl.UpdatedAt = now

	copied := *tmpl
	copied.Body = append([]byte(nil), tmpl.Body...)
	s.templates[tmpl.ID] = &copied
	return nil
}

func (s *TemplatesMemoryStorage) GetTemplate(ctx context.Context, ownerUserID string, id uuid.UUID) (*storage.Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tmpl, ok := s.templates[id]
	if !ok || tmpl.OwnerUserID != ownerUserID {
		return nil, storage.ErrTemplateNotFound
	}

	copied := *tmpl
	return &copied, nil
}

func (s *TemplatesMemoryStorage) ListTemplates(ctx context.Context, ownerUserID string) ([]storage.Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []storage.Template{}
	for _, tmpl := range s.templates {
		if tmpl.OwnerUserID == ownerUserID {
			result = append(result, *tmpl)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Name != result[j].Name {
			return result[i].Name < result[j].Name
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})

	return result, nil
}

func (s *TemplatesMemoryStorage) CountTemplates(ctx context.Context, ownerUserID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, tmpl := range s.templates {
		if tmpl.OwnerUserID == ownerUserID {
			n++
		}
	}
	return n, nil
}

func (s *TemplatesMemoryStorage) DeleteTemplate(ctx context.Context, ownerUserID string, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tmpl, ok := s.templates[id]
	if !ok || tmpl.OwnerUserID != ownerUserID {
		return storage.ErrTemplateNotFound
	}

	delete(s.templates, id)
	return nil
}
