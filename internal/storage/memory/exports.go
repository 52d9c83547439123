package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/fdg312/meal-planner/internal/storage"
	"github.com/google/uuid"
)

// ExportsMemoryStorage: in-memory storage для экспортов
type ExportsMemoryStorage struct {
	mu      sync.RWMutex
	exports map[uuid.UUID]*storage.ExportMeta
}

func NewExportsMemoryStorage() *ExportsMemoryStorage {
	return &ExportsMemoryStorage{
		exports: make(map[uuid.UUID]*storage.ExportMeta),
	}
}

func (s *ExportsMemoryStorage) CreateExport(ctx context.Context, export *storage.ExportMeta) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if export.ID == uuid.Nil {
		export.ID = uuid.New()
	}
	export.CreatedAt = time.Now().UTC()

	copied := *export
	s.exports[export.ID] = &copied
	return nil
}

func (s *ExportsMemoryStorage) GetExport(ctx context.Context, ownerUserID string, id uuid.UUID) (*storage.ExportMeta, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	export, ok := s.exports[id]
	if !ok || export.OwnerUserID != ownerUserID {
		return nil, storage.ErrExportNotFound
	}

	copied := *export
	return &copied, nil
}

// ListExports возвращает экспорты профиля, новые первыми
func (s *ExportsMemoryStorage) ListExports(ctx context.Context, ownerUserID string, profileID string, limit, offset int) ([]storage.ExportMeta, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var filtered []storage.ExportMeta
	for _, e := range s.exports {
		if e.OwnerUserID == ownerUserID && e.ProfileID == profileID {
			meta := *e
			meta.Data = nil
			filtered = append(filtered, meta)
		}
	}

	sort.Slice(filtered, func(i, j int) bool {
		return filtered[i].CreatedAt.After(filtered[j].CreatedAt)
	})

	start := offset
	if start > len(filtered) {
		return []storage.ExportMeta{}, nil
	}

	end := start + limit
	if end > len(filtered) {
		end = len(filtered)
	}

	return filtered[start:end], nil
}

func (s *ExportsMemoryStorage) DeleteExport(ctx context.Context, ownerUserID string, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	export, ok := s.exports[id]
	if !ok || export.OwnerUserID != ownerUserID {
		return storage.ErrExportNotFound
	}

	delete(s.exports, id)
	return nil
}
