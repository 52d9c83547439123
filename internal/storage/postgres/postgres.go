package postgres

import (
	"context"

	"github.com/fdg312/meal-planner/internal/storage"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStorage: Postgres реализация storage.Storage
type PostgresStorage struct {
	pool      *pgxpool.Pool
	mealPlans *mealPlansStorage
	templates *PostgresTemplatesStorage
	exports   *PostgresExportsStorage
}

// New открывает пул соединений и проверяет доступность базы
func New(ctx context.Context, databaseURL string) (*PostgresStorage, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStorage{
		pool:      pool,
		mealPlans: newMealPlansStorage(pool),
		templates: NewPostgresTemplatesStorage(pool),
		exports:   NewPostgresExportsStorage(pool),
	}, nil
}

func (p *PostgresStorage) GetMealPlansStorage() storage.MealPlansStorage {
	return p.mealPlans
}

func (p *PostgresStorage) GetTemplatesStorage() storage.TemplatesStorage {
	return p.templates
}

func (p *PostgresStorage) GetExportsStorage() storage.ExportsStorage {
	return p.exports
}

func (p *PostgresStorage) Close() error {
	p.pool.Close()
	return nil
}
