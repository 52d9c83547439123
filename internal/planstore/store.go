// Package planstore keeps planned meals and nutrition goals indexed by
// (week, day) slot.
//
// The week -> [7]ordered ids structure is the only source of truth; the flat
// list returned by AllPlannedMeals is derived from it on every call by walking
// weeks in store order, then Sunday..Saturday, then each day in order.
//
// A Store does no locking. Positions passed to RemoveMeal and ReorderMeal are
// only meaningful against the state observed right before the call.
package planstore

import "sort"

// Store is a meal plan: planned meals plus optional per-slot goals.
type Store struct {
	weeks     []string // first-reference order
	meals     map[string]*WeekMeals
	goalWeeks []string
	goals     map[string]*WeekGoals
}

func newEmpty() *Store {
	return &Store{
		meals: make(map[string]*WeekMeals),
		goals: make(map[string]*WeekGoals),
	}
}

// New builds a plan from a flat list, keeping input order within each slot.
func New(meals []PlannedMeal) *Store {
	return NewWithGoals(meals, nil)
}

// NewWithGoals builds a plan from a flat list of meals and a list of goals.
// Later goals for the same slot overwrite earlier ones.
func NewWithGoals(meals []PlannedMeal, goals []PlannedGoal) *Store {
	s := newEmpty()
	for _, m := range meals {
		s.AddMeal(m)
	}
	for _, g := range goals {
		s.SetGoal(g)
	}
	return s
}

// NewFromIndex builds a plan from a pre-built nested mapping. Weeks are
// taken in lexicographic order since map order is undefined.
func NewFromIndex(index Index) *Store {
	s := newEmpty()
	labels := make([]string, 0, len(index))
	for label := range index {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	for _, label := range labels {
		days := index[label]
		w := s.week(label)
		for d := range days {
			w[d] = cloneIDs(days[d])
		}
	}
	return s
}

// week returns the buckets of label, creating all seven on first reference.
func (s *Store) week(label string) *WeekMeals {
	w, ok := s.meals[label]
	if !ok {
		w = &WeekMeals{}
		s.meals[label] = w
		s.weeks = append(s.weeks, label)
	}
	return w
}

// AllPlannedMeals returns the flat view of the plan.
func (s *Store) AllPlannedMeals() []PlannedMeal {
	out := make([]PlannedMeal, 0, s.Len())
	for _, label := range s.weeks {
		w := s.meals[label]
		for d := range w {
			for _, id := range w[d] {
				out = append(out, PlannedMeal{Week: label, Day: DayOfWeek(d), ID: id})
			}
		}
	}
	return out
}

// MealsByWeek returns the ids of all seven days of week, Sunday first.
// An unknown week yields an empty slice.
func (s *Store) MealsByWeek(week string) []int {
	out := []int{}
	w, ok := s.meals[week]
	if !ok {
		return out
	}
	for d := range w {
		out = append(out, w[d]...)
	}
	return out
}

// MealsByDay returns the ordered ids of one slot.
func (s *Store) MealsByDay(week string, day DayOfWeek) []int {
	w, ok := s.meals[week]
	if !ok || !day.Valid() {
		return []int{}
	}
	return cloneIDs(w[day])
}

// Len returns the total number of planned meals.
func (s *Store) Len() int {
	n := 0
	for _, w := range s.meals {
		for d := range w {
			n += len(w[d])
		}
	}
	return n
}

// Weeks returns the known week labels in store order.
func (s *Store) Weeks() []string {
	return append([]string{}, s.weeks...)
}

// Index returns a deep copy of the nested view.
func (s *Store) Index() Index {
	out := make(Index, len(s.meals))
	for label, w := range s.meals {
		var cp WeekMeals
		for d := range w {
			cp[d] = cloneIDs(w[d])
		}
		out[label] = cp
	}
	return out
}

// AddMeal appends meal to the end of its slot. Meals with an invalid day are ignored.
func (s *Store) AddMeal(meal PlannedMeal) {
	if !meal.Day.Valid() {
		return
	}
	w := s.week(meal.Week)
	w[meal.Day] = append(w[meal.Day], meal.ID)
}

// RemoveMeal removes the entry at position within the slot and returns its id.
// ok is false, and nothing changes, when the slot has no such position.
func (s *Store) RemoveMeal(week string, day DayOfWeek, position int) (id int, ok bool) {
	w, found := s.meals[week]
	if !found || !day.Valid() {
		return 0, false
	}
	ids := w[day]
	if position < 0 || position >= len(ids) {
		return 0, false
	}
	id = ids[position]
	w[day] = append(ids[:position], ids[position+1:]...)
	return id, true
}

// ReorderMeal moves the entry at from to to within the same slot. to is
// clamped into the slot. It reports whether anything moved.
func (s *Store) ReorderMeal(week string, day DayOfWeek, from, to int) bool {
	w, found := s.meals[week]
	if !found || !day.Valid() {
		return false
	}
	ids := w[day]
	if from < 0 || from >= len(ids) {
		return false
	}
	if to < 0 {
		to = 0
	}
	if to > len(ids)-1 {
		to = len(ids) - 1
	}

	id := ids[from]
	ids = append(ids[:from], ids[from+1:]...)
	ids = append(ids[:to], append([]int{id}, ids[to:]...)...)
	w[day] = ids
	return true
}

// ApplyDailyTemplate replaces the slot's sequence with ids.
func (s *Store) ApplyDailyTemplate(week string, day DayOfWeek, ids []int) {
	if !day.Valid() {
		return
	}
	w := s.week(week)
	w[day] = cloneIDs(ids)
}

// ApplyWeeklyTemplate replaces every day of week with the template's days,
// and the week's goals when the template carries any.
func (s *Store) ApplyWeeklyTemplate(week string, tmpl WeeklyTemplate) {
	w := s.week(week)
	for d := range tmpl.Days {
		w[d] = cloneIDs(tmpl.Days[d])
	}
	if tmpl.Goals != nil {
		*s.goalWeek(week) = *tmpl.Goals
	}
}

// ClearDay empties one slot. The slot stays present.
func (s *Store) ClearDay(week string, day DayOfWeek) {
	if !day.Valid() {
		return
	}
	w := s.week(week)
	w[day] = nil
}

// ClearWeek empties all seven days of week. The week stays present.
func (s *Store) ClearWeek(week string) {
	*s.week(week) = WeekMeals{}
}

// ClearPlan drops every meal and goal.
func (s *Store) ClearPlan() {
	*s = *newEmpty()
}

func cloneIDs(ids []int) []int {
	if len(ids) == 0 {
		return []int{}
	}
	return append(make([]int, 0, len(ids)), ids...)
}
