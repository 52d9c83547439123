package mealplans

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fdg312/meal-planner/internal/planstore"
)

const maxWeekLength = 32

// ErrValidation prefixes every request validation failure.
var ErrValidation = errors.New("validation failed")

func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// ValidationMessage returns err's message without the "validation failed: " prefix.
func ValidationMessage(err error) string {
	return strings.TrimPrefix(err.Error(), ErrValidation.Error()+": ")
}

type MealPlanDTO struct {
	ID         string    `json:"id"`
	ProfileID  string    `json:"profile_id"`
	Title      string    `json:"title"`
	MealsCount int       `json:"meals_count"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type GetMealPlanResponse struct {
	Plan  *MealPlanDTO            `json:"plan"`
	Meals []planstore.PlannedMeal `json:"meals"`
	Goals []planstore.PlannedGoal `json:"goals"`
	Weeks []string                `json:"weeks"`
}

type DayView struct {
	Week    string             `json:"week"`
	Day     int                `json:"day"`
	DayName string             `json:"day_name"`
	MealIDs []int              `json:"meal_ids"`
	Goals   planstore.DayGoals `json:"goals"`
}

type WeekView struct {
	Week    string    `json:"week"`
	Days    []DayView `json:"days"`
	MealIDs []int     `json:"meal_ids"`
}

type RemoveMealResponse struct {
	Removed bool    `json:"removed"`
	MealID  *int    `json:"meal_id,omitempty"`
	Day     DayView `json:"day"`
}

type ReorderMealResponse struct {
	Moved   bool  `json:"moved"`
	MealIDs []int `json:"meal_ids"`
}

// Slot addresses one (week, day) of a profile's plan.
type Slot struct {
	ProfileID string `json:"profile_id"`
	Week      string `json:"week"`
	Day       int    `json:"day"`
}

func (s Slot) Validate() error {
	if err := validateWeek(s.ProfileID, s.Week); err != nil {
		return err
	}
	return validateDay(s.Day)
}

func (s Slot) dayOfWeek() planstore.DayOfWeek {
	return planstore.DayOfWeek(s.Day)
}

// WeekRef addresses one week of a profile's plan.
type WeekRef struct {
	ProfileID string `json:"profile_id"`
	Week      string `json:"week"`
}

func (w WeekRef) Validate() error {
	return validateWeek(w.ProfileID, w.Week)
}

// AddMealRequest appends meal_id (or every id of meal_ids, in order) to a slot.
type AddMealRequest struct {
	Slot
	MealID  *int  `json:"meal_id,omitempty"`
	MealIDs []int `json:"meal_ids,omitempty"`
}

func (r *AddMealRequest) ids() []int {
	ids := make([]int, 0, len(r.MealIDs)+1)
	if r.MealID != nil {
		ids = append(ids, *r.MealID)
	}
	return append(ids, r.MealIDs...)
}

func (r *AddMealRequest) Validate() error {
	if err := r.Slot.Validate(); err != nil {
		return err
	}
	ids := r.ids()
	if len(ids) == 0 {
		return validationError("meal_id or meal_ids is required")
	}
	return validateMealIDs(ids)
}

type ReorderMealRequest struct {
	Slot
	From int `json:"from"`
	To   int `json:"to"`
}

func (r *ReorderMealRequest) Validate() error {
	if err := r.Slot.Validate(); err != nil {
		return err
	}
	return nil
}

type DayTemplateRequest struct {
	Slot
	MealIDs []int `json:"meal_ids"`
}

func (r *DayTemplateRequest) Validate() error {
	if err := r.Slot.Validate(); err != nil {
		return err
	}
	return validateMealIDs(r.MealIDs)
}

// WeekTemplateRequest replaces a whole week. Days is keyed by day number
// ("0".."6") or day name; missing days become empty. Goals replace the
// week's goals only when at least one day is given.
type WeekTemplateRequest struct {
	WeekRef
	Days  map[string][]int              `json:"days"`
	Goals map[string]planstore.DayGoals `json:"goals,omitempty"`
}

func (r *WeekTemplateRequest) Validate() error {
	if err := r.WeekRef.Validate(); err != nil {
		return err
	}
	_, err := r.template()
	return err
}

func (r *WeekTemplateRequest) template() (planstore.WeeklyTemplate, error) {
	var tmpl planstore.WeeklyTemplate
	var seen [planstore.DaysPerWeek]bool
	for key, ids := range r.Days {
		day, err := planstore.ParseDayOfWeek(key)
		if err != nil {
			return tmpl, validationError("days: %v", err)
		}
		if seen[day] {
			return tmpl, validationError("days: %s given twice", day)
		}
		seen[day] = true
		if err := validateMealIDs(ids); err != nil {
			return tmpl, err
		}
		tmpl.Days[day] = append([]int{}, ids...)
	}
	// пустой goals не трогает цели недели, как и у сохранённых шаблонов
	if len(r.Goals) > 0 {
		goals := planstore.WeekGoals{}
		seen = [planstore.DaysPerWeek]bool{}
		for key, g := range r.Goals {
			day, err := planstore.ParseDayOfWeek(key)
			if err != nil {
				return tmpl, validationError("goals: %v", err)
			}
			if seen[day] {
				return tmpl, validationError("goals: %s given twice", day)
			}
			seen[day] = true
			goals[day] = g
		}
		tmpl.Goals = &goals
	}
	return tmpl, nil
}

type SetGoalRequest struct {
	Slot
	Calories planstore.Range `json:"calories"`
	Carbs    planstore.Range `json:"carbs"`
	Fat      planstore.Range `json:"fat"`
	Protein  planstore.Range `json:"protein"`
}

func (r *SetGoalRequest) goal() planstore.PlannedGoal {
	return planstore.PlannedGoal{
		Week: r.Week,
		Day:  r.dayOfWeek(),
		DayGoals: planstore.DayGoals{
			Calories: r.Calories,
			Carbs:    r.Carbs,
			Fat:      r.Fat,
			Protein:  r.Protein,
		},
	}
}

func validateWeek(profileID, week string) error {
	if profileID == "" {
		return validationError("profile_id is required")
	}
	if strings.TrimSpace(week) == "" {
		return validationError("week is required")
	}
	if len(week) > maxWeekLength {
		return validationError("week must be at most %d characters", maxWeekLength)
	}
	return nil
}

func validateDay(day int) error {
	if !planstore.DayOfWeek(day).Valid() {
		return validationError("day must be 0-6")
	}
	return nil
}

func validateMealIDs(ids []int) error {
	for i, id := range ids {
		if id < 0 {
			return validationError("meal_ids[%d] must be >= 0", i)
		}
	}
	return nil
}
