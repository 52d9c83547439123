package mealplans

import (
	"context"
	"fmt"
	"sync"

	"github.com/fdg312/meal-planner/internal/planstore"
	"github.com/fdg312/meal-planner/internal/storage"
)

const (
	DefaultMaxMealsPerDay = 50
	defaultPlanTitle      = "Meal plan"
)

// Service handles meal plan business logic. Every mutation loads the stored
// plan into a planstore.Store, applies one operation and saves the result
// while holding the (owner, profile) lock.
type Service struct {
	storage        storage.MealPlansStorage
	maxMealsPerDay int

	mu    sync.Mutex
	locks map[string]*planLock
}

// planLock is dropped from Service.locks once nobody holds or waits on it.
type planLock struct {
	mu   sync.Mutex
	refs int
}

// NewService creates a new meal plans service. maxMealsPerDay <= 0 selects the default.
func NewService(storage storage.MealPlansStorage, maxMealsPerDay int) *Service {
	if maxMealsPerDay <= 0 {
		maxMealsPerDay = DefaultMaxMealsPerDay
	}
	return &Service{
		storage:        storage,
		maxMealsPerDay: maxMealsPerDay,
		locks:          make(map[string]*planLock),
	}
}

func (s *Service) lock(ownerUserID, profileID string) func() {
	key := ownerUserID + "\x00" + profileID

	s.mu.Lock()
	l, ok := s.locks[key]
	if !ok {
		l = &planLock{}
		s.locks[key] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()

		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, key)
		}
		s.mu.Unlock()
	}
}

func (s *Service) load(ctx context.Context, ownerUserID, profileID string) (storage.MealPlan, *planstore.Store, bool, error) {
	plan, mealRows, goalRows, found, err := s.storage.GetPlan(ctx, ownerUserID, profileID)
	if err != nil {
		return storage.MealPlan{}, nil, false, fmt.Errorf("load meal plan: %w", err)
	}

	meals := make([]planstore.PlannedMeal, len(mealRows))
	for i, row := range mealRows {
		meals[i] = planstore.PlannedMeal{Week: row.Week, Day: planstore.DayOfWeek(row.Day), ID: row.MealID}
	}

	goals := make([]planstore.PlannedGoal, len(goalRows))
	for i, row := range goalRows {
		goals[i] = planstore.PlannedGoal{
			Week: row.Week,
			Day:  planstore.DayOfWeek(row.Day),
			DayGoals: planstore.DayGoals{
				Calories: planstore.Range{Min: row.CaloriesMin, Max: row.CaloriesMax},
				Carbs:    planstore.Range{Min: row.CarbsMin, Max: row.CarbsMax},
				Fat:      planstore.Range{Min: row.FatMin, Max: row.FatMax},
				Protein:  planstore.Range{Min: row.ProteinMin, Max: row.ProteinMax},
			},
		}
	}

	return plan, planstore.NewWithGoals(meals, goals), found, nil
}

// mutate runs fn against the current plan and persists it when fn reports a change.
func (s *Service) mutate(ctx context.Context, ownerUserID, profileID string, fn func(st *planstore.Store) (bool, error)) (*planstore.Store, error) {
	unlock := s.lock(ownerUserID, profileID)
	defer unlock()

	plan, st, found, err := s.load(ctx, ownerUserID, profileID)
	if err != nil {
		return nil, err
	}

	changed, err := fn(st)
	if err != nil {
		return nil, err
	}
	if !changed {
		return st, nil
	}

	title := defaultPlanTitle
	if found {
		title = plan.Title
	}

	meals, goals := toRows(st)
	if _, err := s.storage.SavePlan(ctx, ownerUserID, profileID, title, meals, goals); err != nil {
		return nil, fmt.Errorf("save meal plan: %w", err)
	}

	return st, nil
}

// toRows flattens st into storage rows. WeekOrder and Position are derived
// from the flat traversal so a reload rebuilds the same order.
func toRows(st *planstore.Store) ([]storage.PlannedMealRow, []storage.PlannedGoalRow) {
	meals := st.AllPlannedMeals()
	mealRows := make([]storage.PlannedMealRow, 0, len(meals))

	weekOrder, position := -1, 0
	for i, m := range meals {
		if i == 0 || m.Week != meals[i-1].Week {
			weekOrder++
			position = 0
		} else if m.Day != meals[i-1].Day {
			position = 0
		}
		mealRows = append(mealRows, storage.PlannedMealRow{
			Week:      m.Week,
			WeekOrder: weekOrder,
			Day:       int(m.Day),
			Position:  position,
			MealID:    m.ID,
		})
		position++
	}

	goals := st.Goals()
	goalRows := make([]storage.PlannedGoalRow, 0, len(goals))

	weekOrder = -1
	for i, g := range goals {
		if i == 0 || g.Week != goals[i-1].Week {
			weekOrder++
		}
		goalRows = append(goalRows, storage.PlannedGoalRow{
			Week:        g.Week,
			WeekOrder:   weekOrder,
			Day:         int(g.Day),
			CaloriesMin: g.Calories.Min,
			CaloriesMax: g.Calories.Max,
			CarbsMin:    g.Carbs.Min,
			CarbsMax:    g.Carbs.Max,
			FatMin:      g.Fat.Min,
			FatMax:      g.Fat.Max,
			ProteinMin:  g.Protein.Min,
			ProteinMax:  g.Protein.Max,
		})
	}

	return mealRows, goalRows
}

func dayView(st *planstore.Store, week string, day planstore.DayOfWeek) DayView {
	return DayView{
		Week:    week,
		Day:     int(day),
		DayName: day.String(),
		MealIDs: st.MealsByDay(week, day),
		Goals:   st.GoalsByDay(week, day),
	}
}

func weekView(st *planstore.Store, week string) WeekView {
	days := make([]DayView, planstore.DaysPerWeek)
	for d := range days {
		days[d] = dayView(st, week, planstore.DayOfWeek(d))
	}
	return WeekView{
		Week:    week,
		Days:    days,
		MealIDs: st.MealsByWeek(week),
	}
}

// Store returns a detached copy of the profile's plan for read-only use.
func (s *Service) Store(ctx context.Context, ownerUserID string, profileID string) (*planstore.Store, error) {
	_, st, _, err := s.load(ctx, ownerUserID, profileID)
	return st, err
}

// GetPlan returns the flat view of the plan plus its goals.
func (s *Service) GetPlan(ctx context.Context, ownerUserID string, profileID string) (*GetMealPlanResponse, error) {
	plan, st, found, err := s.load(ctx, ownerUserID, profileID)
	if err != nil {
		return nil, err
	}

	resp := &GetMealPlanResponse{
		Meals: st.AllPlannedMeals(),
		Goals: st.Goals(),
		Weeks: st.Weeks(),
	}
	if found {
		resp.Plan = &MealPlanDTO{
			ID:         plan.ID.String(),
			ProfileID:  plan.ProfileID,
			Title:      plan.Title,
			MealsCount: st.Len(),
			CreatedAt:  plan.CreatedAt,
			UpdatedAt:  plan.UpdatedAt,
		}
	}
	return resp, nil
}

// GetWeek returns the seven days of week; an unknown week yields empty days.
func (s *Service) GetWeek(ctx context.Context, ownerUserID string, ref WeekRef) (*WeekView, error) {
	if err := ref.Validate(); err != nil {
		return nil, err
	}

	st, err := s.Store(ctx, ownerUserID, ref.ProfileID)
	if err != nil {
		return nil, err
	}

	view := weekView(st, ref.Week)
	return &view, nil
}

func (s *Service) GetDay(ctx context.Context, ownerUserID string, slot Slot) (*DayView, error) {
	if err := slot.Validate(); err != nil {
		return nil, err
	}

	st, err := s.Store(ctx, ownerUserID, slot.ProfileID)
	if err != nil {
		return nil, err
	}

	view := dayView(st, slot.Week, slot.dayOfWeek())
	return &view, nil
}

// AddMeals appends the request's ids to the end of the slot.
func (s *Service) AddMeals(ctx context.Context, ownerUserID string, req AddMealRequest) (*DayView, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	ids := req.ids()
	day := req.dayOfWeek()
	st, err := s.mutate(ctx, ownerUserID, req.ProfileID, func(st *planstore.Store) (bool, error) {
		if n := len(st.MealsByDay(req.Week, day)) + len(ids); n > s.maxMealsPerDay {
			return false, validationError("a day can hold at most %d meals", s.maxMealsPerDay)
		}
		for _, id := range ids {
			st.AddMeal(planstore.PlannedMeal{Week: req.Week, Day: day, ID: id})
		}
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	view := dayView(st, req.Week, day)
	return &view, nil
}

// RemoveMeal removes the entry at position. An out-of-range position is not
// an error: the response reports removed=false and nothing is saved.
func (s *Service) RemoveMeal(ctx context.Context, ownerUserID string, slot Slot, position int) (*RemoveMealResponse, error) {
	if err := slot.Validate(); err != nil {
		return nil, err
	}

	resp := &RemoveMealResponse{}
	st, err := s.mutate(ctx, ownerUserID, slot.ProfileID, func(st *planstore.Store) (bool, error) {
		id, ok := st.RemoveMeal(slot.Week, slot.dayOfWeek(), position)
		if ok {
			resp.Removed = true
			resp.MealID = &id
		}
		return ok, nil
	})
	if err != nil {
		return nil, err
	}

	resp.Day = dayView(st, slot.Week, slot.dayOfWeek())
	return resp, nil
}

func (s *Service) ReorderMeal(ctx context.Context, ownerUserID string, req ReorderMealRequest) (*ReorderMealResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	resp := &ReorderMealResponse{}
	st, err := s.mutate(ctx, ownerUserID, req.ProfileID, func(st *planstore.Store) (bool, error) {
		resp.Moved = st.ReorderMeal(req.Week, req.dayOfWeek(), req.From, req.To)
		return resp.Moved, nil
	})
	if err != nil {
		return nil, err
	}

	resp.MealIDs = st.MealsByDay(req.Week, req.dayOfWeek())
	return resp, nil
}

// ApplyDailyTemplate replaces one day with a copy of ids.
func (s *Service) ApplyDailyTemplate(ctx context.Context, ownerUserID string, req DayTemplateRequest) (*DayView, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if len(req.MealIDs) > s.maxMealsPerDay {
		return nil, validationError("a day can hold at most %d meals", s.maxMealsPerDay)
	}

	st, err := s.mutate(ctx, ownerUserID, req.ProfileID, func(st *planstore.Store) (bool, error) {
		st.ApplyDailyTemplate(req.Week, req.dayOfWeek(), req.MealIDs)
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	view := dayView(st, req.Week, req.dayOfWeek())
	return &view, nil
}

// ApplyWeeklyTemplate replaces every day of the week, and its goals when the
// request carries any.
func (s *Service) ApplyWeeklyTemplate(ctx context.Context, ownerUserID string, req WeekTemplateRequest) (*WeekView, error) {
	if err := req.WeekRef.Validate(); err != nil {
		return nil, err
	}

	tmpl, err := req.template()
	if err != nil {
		return nil, err
	}

	return s.applyWeekly(ctx, ownerUserID, req.WeekRef, tmpl)
}

// ApplyWeeklyStoreTemplate applies an already built template.
func (s *Service) ApplyWeeklyStoreTemplate(ctx context.Context, ownerUserID string, ref WeekRef, tmpl planstore.WeeklyTemplate) (*WeekView, error) {
	if err := ref.Validate(); err != nil {
		return nil, err
	}
	for _, ids := range tmpl.Days {
		if err := validateMealIDs(ids); err != nil {
			return nil, err
		}
	}
	return s.applyWeekly(ctx, ownerUserID, ref, tmpl)
}

func (s *Service) applyWeekly(ctx context.Context, ownerUserID string, ref WeekRef, tmpl planstore.WeeklyTemplate) (*WeekView, error) {
	for _, ids := range tmpl.Days {
		if len(ids) > s.maxMealsPerDay {
			return nil, validationError("a day can hold at most %d meals", s.maxMealsPerDay)
		}
	}

	st, err := s.mutate(ctx, ownerUserID, ref.ProfileID, func(st *planstore.Store) (bool, error) {
		st.ApplyWeeklyTemplate(ref.Week, tmpl)
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	view := weekView(st, ref.Week)
	return &view, nil
}

func (s *Service) ClearDay(ctx context.Context, ownerUserID string, slot Slot) (*DayView, error) {
	if err := slot.Validate(); err != nil {
		return nil, err
	}

	st, err := s.mutate(ctx, ownerUserID, slot.ProfileID, func(st *planstore.Store) (bool, error) {
		st.ClearDay(slot.Week, slot.dayOfWeek())
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	view := dayView(st, slot.Week, slot.dayOfWeek())
	return &view, nil
}

func (s *Service) ClearWeek(ctx context.Context, ownerUserID string, ref WeekRef) (*WeekView, error) {
	if err := ref.Validate(); err != nil {
		return nil, err
	}

	st, err := s.mutate(ctx, ownerUserID, ref.ProfileID, func(st *planstore.Store) (bool, error) {
		st.ClearWeek(ref.Week)
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	view := weekView(st, ref.Week)
	return &view, nil
}

// ClearPlan removes every meal and goal of the profile.
func (s *Service) ClearPlan(ctx context.Context, ownerUserID string, profileID string) error {
	if profileID == "" {
		return validationError("profile_id is required")
	}

	unlock := s.lock(ownerUserID, profileID)
	defer unlock()

	if err := s.storage.DeletePlan(ctx, ownerUserID, profileID); err != nil {
		return fmt.Errorf("delete meal plan: %w", err)
	}
	return nil
}

func (s *Service) SetGoal(ctx context.Context, ownerUserID string, req SetGoalRequest) (*DayView, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	st, err := s.mutate(ctx, ownerUserID, req.ProfileID, func(st *planstore.Store) (bool, error) {
		st.SetGoal(req.goal())
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	view := dayView(st, req.Week, req.dayOfWeek())
	return &view, nil
}

func (s *Service) RemoveGoal(ctx context.Context, ownerUserID string, slot Slot) (*DayView, error) {
	if err := slot.Validate(); err != nil {
		return nil, err
	}

	st, err := s.mutate(ctx, ownerUserID, slot.ProfileID, func(st *planstore.Store) (bool, error) {
		st.RemoveGoal(slot.Week, slot.dayOfWeek())
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	view := dayView(st, slot.Week, slot.dayOfWeek())
	return &view, nil
}

// ClearWeekGoals resets the goals of every day of the week.
func (s *Service) ClearWeekGoals(ctx context.Context, ownerUserID string, ref WeekRef) (*WeekView, error) {
	if err := ref.Validate(); err != nil {
		return nil, err
	}

	st, err := s.mutate(ctx, ownerUserID, ref.ProfileID, func(st *planstore.Store) (bool, error) {
		st.ClearWeekGoals(ref.Week)
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	view := weekView(st, ref.Week)
	return &view, nil
}
