package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/fdg312/meal-planner/internal/storage"
	"github.com/google/uuid"
)

type mealPlansStorage struct {
	mu    sync.RWMutex
	plans map[string]*storage.MealPlan // key: "ownerUserID:profileID"
	meals map[uuid.UUID][]storage.PlannedMealRow
	goals map[uuid.UUID][]storage.PlannedGoalRow
}

func newMealPlansStorage() *mealPlansStorage {
	return &mealPlansStorage{
		plans: make(map[string]*storage.MealPlan),
		meals: make(map[uuid.UUID][]storage.PlannedMealRow),
		goals: make(map[uuid.UUID][]storage.PlannedGoalRow),
	}
}

func planKey(ownerUserID, profileID string) string {
	return fmt.Sprintf("%s:%s", ownerUserID, profileID)
}

func (s *mealPlansStorage) GetPlan(ctx context.Context, ownerUserID string, profileID string) (storage.MealPlan, []storage.PlannedMealRow, []storage.PlannedGoalRow, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	plan, ok := s.plans[planKey(ownerUserID, profileID)]
	if !ok {
		return storage.MealPlan{}, nil, nil, false, nil
	}

	meals := append([]storage.PlannedMealRow{}, s.meals[plan.ID]...)
	goals := append([]storage.PlannedGoalRow{}, s.goals[plan.ID]...)

	return *plan, meals, goals, true, nil
}

func (s *mealPlansStorage) SavePlan(ctx context.Context, ownerUserID string, profileID string, title string, meals []storage.PlannedMealRow, goals []storage.PlannedGoalRow) (storage.MealPlan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	key := planKey(ownerUserID, profileID)

	plan, ok := s.plans[key]
	if !ok {
		plan = &storage.MealPlan{
			ID:          uuid.New(),
			OwnerUserID: ownerUserID,
			ProfileID:   profileID,
			CreatedAt:   now,
		}
		s.plans[key] = plan
	}
	plan.Title = title
	plan.UpdatedAt = now

	sortedMeals := append([]storage.PlannedMealRow{}, meals...)
	sort.SliceStable(sortedMeals, func(i, j int) bool {
		a, b := sortedMeals[i], sortedMeals[j]
		if a.WeekOrder != b.WeekOrder {
			return a.WeekOrder < b.WeekOrder
		}
		if a.Day != b.Day {
			return a.Day < b.Day
		}
		return a.Position < b.Position
	})
	sortedGoals := append([]storage.PlannedGoalRow{}, goals...)
	sort.SliceStable(sortedGoals, func(i, j int) bool {
		a, b := sortedGoals[i], sortedGoals[j]
		if a.WeekOrder != b.WeekOrder {
			return a.WeekOrder < b.WeekOrder
		}
		return a.Day < b.Day
	})

	s.meals[plan.ID] = sortedMeals
	s.goals[plan.ID] = sortedGoals

	return *plan, nil
}

func (s *mealPlansStorage) DeletePlan(ctx context.Context, ownerUserID string, profileID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := planKey(ownerUserID, profileID)
	plan, ok := s.plans[key]
	if !ok {
		return nil // nothing to delete
	}

	delete(s.meals, plan.ID)
	delete(s.goals, plan.ID)
	delete(s.plans, key)

	return nil
}
