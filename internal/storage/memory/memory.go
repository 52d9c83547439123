package memory

import (
	"github.com/fdg312/meal-planner/internal/storage"
)

// MemoryStorage: in-memory реализация storage.Storage
type MemoryStorage struct {
	mealPlans *mealPlansStorage
	templates *TemplatesMemoryStorage
	exports   *ExportsMemoryStorage
}

// New создаёт новый пустой MemoryStorage
func New() *MemoryStorage {
	return &MemoryStorage{
		mealPlans: newMealPlansStorage(),
		templates: NewTemplatesMemoryStorage(),
		exports:   NewExportsMemoryStorage(),
	}
}

// GetMealPlansStorage returns the meal plans storage
func (m *MemoryStorage) GetMealPlansStorage() storage.MealPlansStorage {
	return m.mealPlans
}

// GetTemplatesStorage returns the templates storage
func (m *MemoryStorage) GetTemplatesStorage() storage.TemplatesStorage {
	return m.templates
}

// GetExportsStorage returns the exports storage
func (m *MemoryStorage) GetExportsStorage() storage.ExportsStorage {
	return m.exports
}

func (m *MemoryStorage) Close() error {
	// no-op для memory
	return nil
}
