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

type mealPlansStorage struct {
	db *sql.DB
}

func (s *mealPlansStorage) GetPlan(ctx context.Context, ownerUserID string, profileID string) (storage.MealPlan, []storage.PlannedMealRow, []storage.PlannedGoalRow, bool, error) {
	plan, found, err := s.getHeader(ctx, s.db, ownerUserID, profileID)
	if err != nil || !found {
		return storage.MealPlan{}, nil, nil, false, err
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

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *mealPlansStorage) getHeader(ctx context.Context, q queryRower, ownerUserID, profileID string) (storage.MealPlan, bool, error) {
	query := `
		SELECT id, owner_user_id, profile_id, title, created_at, updated_at
		FROM meal_plans
		WHERE owner_user_id = ? AND profile_id = ?
	`

	var (
		plan               storage.MealPlan
		createdAt, updated string
	)
	err := q.QueryRowContext(ctx, query, ownerUserID, profileID).Scan(
		&plan.ID,
		&plan.OwnerUserID,
		&plan.ProfileID,
		&plan.Title,
		&createdAt,
		&updated,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.MealPlan{}, false, nil
	}
	if err != nil {
		return storage.MealPlan{}, false, fmt.Errorf("failed to get meal plan: %w", err)
	}

	if plan.CreatedAt, err = parseTime(createdAt); err != nil {
		return storage.MealPlan{}, false, err
	}
	if plan.UpdatedAt, err = parseTime(updated); err != nil {
		return storage.MealPlan{}, false, err
	}

	return plan, true, nil
}

func (s *mealPlansStorage) listMeals(ctx context.Context, planID uuid.UUID) ([]storage.PlannedMealRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT week, week_order, day_of_week, position, meal_id
		FROM planned_meals
		WHERE plan_id = ?
		ORDER BY week_order, day_of_week, position
	`, planID)
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

	return meals, rows.Err()
}

func (s *mealPlansStorage) listGoals(ctx context.Context, planID uuid.UUID) ([]storage.PlannedGoalRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT week, week_order, day_of_week,
		       calories_min, calories_max, carbs_min, carbs_max,
		       fat_min, fat_max, protein_min, protein_max
		FROM planned_goals
		WHERE plan_id = ?
		ORDER BY week_order, day_of_week
	`, planID)
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

	return goals, rows.Err()
}

func (s *mealPlansStorage) SavePlan(ctx context.Context, ownerUserID string, profileID string, title string, meals []storage.PlannedMealRow, goals []storage.PlannedGoalRow) (storage.MealPlan, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storage.MealPlan{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()

	plan, found, err := s.getHeader(ctx, tx, ownerUserID, profileID)
	if err != nil {
		return storage.MealPlan{}, err
	}

	if !found {
		plan = storage.MealPlan{
			ID:          uuid.New(),
			OwnerUserID: ownerUserID,
			ProfileID:   profileID,
			Title:       title,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO meal_plans (id, owner_user_id, profile_id, title, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`, plan.ID, ownerUserID, profileID, title, formatTime(now), formatTime(now))
		if err != nil {
			return storage.MealPlan{}, fmt.Errorf("failed to create meal plan: %w", err)
		}
	} else {
		plan.Title = title
		plan.UpdatedAt = now
		_, err = tx.ExecContext(ctx, `UPDATE meal_plans SET title = ?, updated_at = ? WHERE id = ?`,
			title, formatTime(now), plan.ID)
		if err != nil {
			return storage.MealPlan{}, fmt.Errorf("failed to update meal plan: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM planned_meals WHERE plan_id = ?`, plan.ID); err != nil {
		return storage.MealPlan{}, fmt.Errorf("failed to clear planned meals: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM planned_goals WHERE plan_id = ?`, plan.ID); err != nil {
		return storage.MealPlan{}, fmt.Errorf("failed to clear planned goals: %w", err)
	}

	mealStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO planned_meals (plan_id, week, week_order, day_of_week, position, meal_id)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return storage.MealPlan{}, fmt.Errorf("failed to prepare meal insert: %w", err)
	}
	defer mealStmt.Close()

	for _, m := range meals {
		if _, err := mealStmt.ExecContext(ctx, plan.ID, m.Week, m.WeekOrder, m.Day, m.Position, m.MealID); err != nil {
			return storage.MealPlan{}, fmt.Errorf("failed to insert planned meal: %w", err)
		}
	}

	goalStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO planned_goals (plan_id, week, week_order, day_of_week,
		                           calories_min, calories_max, carbs_min, carbs_max,
		                           fat_min, fat_max, protein_min, protein_max)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return storage.MealPlan{}, fmt.Errorf("failed to prepare goal insert: %w", err)
	}
	defer goalStmt.Close()

	for _, g := range goals {
		_, err := goalStmt.ExecContext(ctx, plan.ID, g.Week, g.WeekOrder, g.Day,
			g.CaloriesMin, g.CaloriesMax, g.CarbsMin, g.CarbsMax,
			g.FatMin, g.FatMax, g.ProteinMin, g.ProteinMax)
		if err != nil {
			return storage.MealPlan{}, fmt.Errorf("failed to insert planned goal: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return storage.MealPlan{}, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return plan, nil
}

func (s *mealPlansStorage) DeletePlan(ctx context.Context, ownerUserID string, profileID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	plan, found, err := s.getHeader(ctx, tx, ownerUserID, profileID)
	if err != nil {
		return err
	}
	if !found {
		return nil
	}

	for _, q := range []string{
		`DELETE FROM planned_meals WHERE plan_id = ?`,
		`DELETE FROM planned_goals WHERE plan_id = ?`,
		`DELETE FROM meal_plans WHERE id = ?`,
	} {
		if _, err := tx.ExecContext(ctx, q, plan.ID); err != nil {
			return fmt.Errorf("failed to delete meal plan: %w", err)
		}
	}

	return tx.Commit()
}
