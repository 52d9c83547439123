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

type mealPlansStorage struct {
	pool *pgxpool.Pool
}

func newMealPlansStorage(pool *pgxpool.Pool) *mealPlansStorage {
	return &mealPlansStorage{pool: pool}
}

func (s *mealPlansStorage) GetPlan(ctx context.Context, ownerUserID string, profileID string) (storage.MealPlan, []storage.PlannedMealRow, []storage.PlannedGoalRow, bool, error) {
	planQuery := `
		SELECT id, owner_user_id, profile_id, title, created_at, updated_at
		FROM meal_plans
		WHERE owner_user_id = $1 AND profile_id = $2
	`

	var plan storage.MealPlan
	err := s.pool.QueryRow(ctx, planQuery, ownerUserID, profileID).Scan(
		&plan.ID,
		&plan.OwnerUserID,
		&plan.ProfileID,
		&plan.Title,
		&plan.CreatedAt,
		&plan.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return storage.MealPlan{}, nil, nil, false, nil
	}
	if err != nil {
		return storage.MealPlan{}, nil, nil, false, fmt.Errorf("failed to get meal plan: %w", err)
	}

	meals, err := s.listMeals(ctx, plan.ID)
	if err != nil {
		return storage.MealPlan{}, nil, nil, false, err
	}

	goals, err := s.listGoals(ctx, plan.ID)
	if err != nil {
		return storage.MealPlan{}, nil, nil, false, err
	}

	return plan, meals, goals, true, nil
}

func (s *mealPlansStorage) listMeals(ctx context.Context, planID uuid.UUID) ([]storage.PlannedMealRow, error) {
	query := `
		SELECT week, week_order, day_of_week, position, meal_id
		FROM planned_meals
		WHERE plan_id = $1
		ORDER BY week_order, day_of_week, position
	`

	rows, err := s.pool.Query(ctx, query, planID)
	if err != nil {
		return nil, fmt.Errorf("failed to get planned meals: %w", err)
	}
	defer rows.Close()

	meals := []storage.PlannedMealRow{}
	for rows.Next() {
		var m storage.PlannedMealRow
		if err := rows.Scan(&m.Week, &m.WeekOrder, &m.Day, &m.Position, &m.MealID); err != nil {
			return nil, fmt.Errorf("failed to scan planned meal: %w", err)
		}
		meals = append(meals, m)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating planned meals: %w", rows.Err())
	}

	return meals, nil
}

func (s *mealPlansStorage) listGoals(ctx context.Context, planID uuid.UUID) ([]storage.PlannedGoalRow, error) {
	query := `
		SELECT week, week_order, day_of_week,
		       calories_min, calories_max, carbs_min, carbs_max,
		       fat_min, fat_max, protein_min, protein_max
		FROM planned_goals
		WHERE plan_id = $1
		ORDER BY week_order, day_of_week
	`

	rows, err := s.pool.Query(ctx, query, planID)
	if err != nil {
		return nil, fmt.Errorf("failed to get planned goals: %w", err)
	}
	defer rows.Close()

	goals := []storage.PlannedGoalRow{}
	for rows.Next() {
		var g storage.PlannedGoalRow
		err := rows.Scan(
			&g.Week, &g.WeekOrder, &g.Day,
			&g.CaloriesMin, &g.CaloriesMax,
			&g.CarbsMin, &g.CarbsMax,
			&g.FatMin, &g.FatMax,
			&g.ProteinMin, &g.ProteinMax,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan planned goal: %w", err)
		}
		goals = append(goals, g)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating planned goals: %w", rows.Err())
	}

	return goals, nil
}

// SavePlan upserts the plan header and replaces all of its rows in one transaction.
func (s *mealPlansStorage) SavePlan(ctx context.Context, ownerUserID string, profileID string, title string, meals []storage.PlannedMealRow, goals []storage.PlannedGoalRow) (storage.MealPlan, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return storage.MealPlan{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	planQuery := `
		INSERT INTO meal_plans (owner_user_id, profile_id, title)
		VALUES ($1, $2, $3)
		ON CONFLICT (owner_user_id, profile_id)
		DO UPDATE SET title = EXCLUDED.title, updated_at = NOW()
		RETURNING id, owner_user_id, profile_id, title, created_at, updated_at
	`

	var plan storage.MealPlan
	err = tx.QueryRow(ctx, planQuery, ownerUserID, profileID, title).Scan(
		&plan.ID,
		&plan.OwnerUserID,
		&plan.ProfileID,
		&plan.Title,
		&plan.CreatedAt,
		&plan.UpdatedAt,
	)
	if err != nil {
		return storage.MealPlan{}, fmt.Errorf("failed to upsert meal plan: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM planned_meals WHERE plan_id = $1`, plan.ID); err != nil {
		return storage.MealPlan{}, fmt.Errorf("failed to clear planned meals: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM planned_goals WHERE plan_id = $1`, plan.ID); err != nil {
		return storage.MealPlan{}, fmt.Errorf("failed to clear planned goals: %w", err)
	}

	batch := &pgx.Batch{}
	for _, m := range meals {
		batch.Queue(`
			INSERT INTO planned_meals (plan_id, week, week_order, day_of_week, position, meal_id)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, plan.ID, m.Week, m.WeekOrder, m.Day, m.Position, m.MealID)
	}
	for _, g := range goals {
		batch.Queue(`
			INSERT INTO planned_goals (plan_id, week, week_order, day_of_week,
			                           calories_min, calories_max, carbs_min, carbs_max,
			                           fat_min, fat_max, protein_min, protein_max)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		`, plan.ID, g.Week, g.WeekOrder, g.Day,
			g.CaloriesMin, g.CaloriesMax, g.CarbsMin, g.CarbsMax,
			g.FatMin, g.FatMax, g.ProteinMin, g.ProteinMax)
	}

	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return storage.MealPlan{}, fmt.Errorf("failed to insert plan rows: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return storage.MealPlan{}, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return plan, nil
}

func (s *mealPlansStorage) DeletePlan(ctx context.Context, ownerUserID string, profileID string) error {
	query := `
		DELETE FROM meal_plans
		WHERE owner_user_id = $1 AND profile_id = $2
	`

	// строки planned_* удаляются каскадом
	if _, err := s.pool.Exec(ctx, query, ownerUserID, profileID); err != nil {
		return fmt.Errorf("failed to delete meal plan: %w", err)
	}

	return nil
}
