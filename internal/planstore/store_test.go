package planstore

import (
	"reflect"
	"testing"
)

func seedStore() *Store {
	return New([]PlannedMeal{
		{Week: "1/7/24", Day: Monday, ID: 0},
		{Week: "1/7/24", Day: Monday, ID: 1},
		{Week: "1/7/24", Day: Tuesday, ID: 2},
		{Week: "1/7/24", Day: Wednesday, ID: 3},
		{Week: "1/7/24", Day: Thursday, ID: 4},
		{Week: "1/14/24", Day: Sunday, ID: 5},
		{Week: "1/14/24", Day: Saturday, ID: 6},
	})
}

// assertCoherent checks that the flat view and the nested view describe the same plan.
func assertCoherent(t *testing.T, s *Store) {
	t.Helper()

	flat := s.AllPlannedMeals()
	total := 0
	rebuilt := make(map[string][DaysPerWeek][]int)
	for _, week := range s.Weeks() {
		var days [DaysPerWeek][]int
		for d := Sunday; d <= Saturday; d++ {
			ids := s.MealsByDay(week, d)
			total += len(ids)
			days[d] = ids
		}
		rebuilt[week] = days
	}
	if len(flat) != total {
		t.Fatalf("flat view has %d meals, nested view has %d", len(flat), total)
	}
	if s.Len() != total {
		t.Fatalf("Len() = %d, nested view has %d", s.Len(), total)
	}

	cursor := make(map[string]*[DaysPerWeek]int)
	for _, m := range flat {
		if cursor[m.Week] == nil {
			cursor[m.Week] = &[DaysPerWeek]int{}
		}
		pos := cursor[m.Week][m.Day]
		ids := rebuilt[m.Week][m.Day]
		if pos >= len(ids) || ids[pos] != m.ID {
			t.Fatalf("flat entry %+v does not match slot order %v at %d", m, ids, pos)
		}
		cursor[m.Week][m.Day]++
	}
}

func TestSeed_Counts(t *testing.T) {
	s := seedStore()

	if got := len(s.AllPlannedMeals()); got != 7 {
		t.Errorf("expected 7 meals, got %d", got)
	}
	if got := len(s.MealsByDay("1/7/24", Monday)); got != 2 {
		t.Errorf("expected 2 meals on Monday, got %d", got)
	}
	if got := len(s.MealsByWeek("1/7/24")); got != 5 {
		t.Errorf("expected 5 meals for week 1/7/24, got %d", got)
	}
	if got := s.MealsByWeek("1/21/24"); got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil slice for unknown week, got %v", got)
	}
	if got := s.MealsByDay("1/21/24", Sunday); got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil slice for unknown day, got %v", got)
	}
	assertCoherent(t, s)
}

func TestMealsByWeek_DayOrder(t *testing.T) {
	s := New([]PlannedMeal{
		{Week: "w", Day: Saturday, ID: 9},
		{Week: "w", Day: Sunday, ID: 1},
		{Week: "w", Day: Wednesday, ID: 4},
		{Week: "w", Day: Sunday, ID: 2},
	})

	want := []int{1, 2, 4, 9}
	if got := s.MealsByWeek("w"); !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestRemoveMeal(t *testing.T) {
	s := seedStore()

	id, ok := s.RemoveMeal("1/7/24", Monday, 0)
	if !ok || id != 0 {
		t.Fatalf("expected to remove id 0, got id=%d ok=%v", id, ok)
	}
	if _, ok := s.RemoveMeal("1/7/24", Monday, 10); ok {
		t.Error("expected out-of-range removal to be a no-op")
	}

	if got := len(s.AllPlannedMeals()); got != 6 {
		t.Errorf("expected 6 meals, got %d", got)
	}
	if got := s.MealsByDay("1/7/24", Monday); !reflect.DeepEqual(got, []int{1}) {
		t.Errorf("expected [1] on Monday, got %v", got)
	}
	assertCoherent(t, s)
}

func TestRemoveMeal_OutOfRangeKeepsCount(t *testing.T) {
	s := seedStore()

	before := len(s.AllPlannedMeals())
	s.RemoveMeal("1/7/24", Monday, 999)
	s.RemoveMeal("1/7/24", Monday, -1)
	s.RemoveMeal("9/9/99", Monday, 0)
	s.RemoveMeal("1/7/24", DayOfWeek(12), 0)

	if got := len(s.AllPlannedMeals()); got != before {
		t.Errorf("expected %d meals, got %d", before, got)
	}
	if weeks := s.Weeks(); len(weeks) != 2 {
		t.Errorf("removal from unknown week must not create it, weeks=%v", weeks)
	}
}

func TestAddMeal(t *testing.T) {
	s := seedStore()

	s.AddMeal(PlannedMeal{Week: "1/7/24", Day: Monday, ID: 7})

	if got := len(s.AllPlannedMeals()); got != 8 {
		t.Errorf("expected 8 meals, got %d", got)
	}
	if got := s.MealsByDay("1/7/24", Monday); !reflect.DeepEqual(got, []int{0, 1, 7}) {
		t.Errorf("expected [0 1 7], got %v", got)
	}
	assertCoherent(t, s)
}

func TestAddMeal_CreatesWeek(t *testing.T) {
	s := seedStore()

	s.AddMeal(PlannedMeal{Week: "1/21/24", Day: Monday, ID: 7})

	if got := len(s.AllPlannedMeals()); got != 8 {
		t.Errorf("expected 8 meals, got %d", got)
	}
	if got := len(s.MealsByDay("1/21/24", Monday)); got != 1 {
		t.Errorf("expected 1 meal, got %d", got)
	}
	for d := Sunday; d <= Saturday; d++ {
		if d == Monday {
			continue
		}
		if got := s.MealsByDay("1/21/24", d); got == nil || len(got) != 0 {
			t.Errorf("expected empty bucket for %s, got %v", d, got)
		}
	}
}

func TestAddMeal_DuplicatesPreserved(t *testing.T) {
	s := seedStore()

	for i := 0; i < 5; i++ {
		s.AddMeal(PlannedMeal{Week: "1/21/24", Day: Monday, ID: 0})
	}

	if got := len(s.MealsByDay("1/21/24", Monday)); got != 5 {
		t.Errorf("expected 5 meals, got %d", got)
	}
	assertCoherent(t, s)
}

func TestAddMeal_InvalidDayIgnored(t *testing.T) {
	s := New(nil)

	s.AddMeal(PlannedMeal{Week: "w", Day: DayOfWeek(7), ID: 1})

	if s.Len() != 0 || len(s.Weeks()) != 0 {
		t.Errorf("expected empty plan, got len=%d weeks=%v", s.Len(), s.Weeks())
	}
}

func TestReorderMeal(t *testing.T) {
	s := New([]PlannedMeal{
		{Week: "w", Day: Friday, ID: 10},
		{Week: "w", Day: Friday, ID: 20},
		{Week: "w", Day: Friday, ID: 30},
		{Week: "w", Day: Friday, ID: 40},
	})

	if !s.ReorderMeal("w", Friday, 0, 2) {
		t.Fatal("expected reorder to succeed")
	}
	if got := s.MealsByDay("w", Friday); !reflect.DeepEqual(got, []int{20, 30, 10, 40}) {
		t.Errorf("expected [20 30 10 40], got %v", got)
	}

	if !s.ReorderMeal("w", Friday, 3, 0) {
		t.Fatal("expected reorder to succeed")
	}
	if got := s.MealsByDay("w", Friday); !reflect.DeepEqual(got, []int{40, 20, 30, 10}) {
		t.Errorf("expected [40 20 30 10], got %v", got)
	}

	// to past the end is clamped to the last position
	if !s.ReorderMeal("w", Friday, 0, 100) {
		t.Fatal("expected reorder to succeed")
	}
	if got := s.MealsByDay("w", Friday); !reflect.DeepEqual(got, []int{20, 30, 10, 40}) {
		t.Errorf("expected [20 30 10 40], got %v", got)
	}
	assertCoherent(t, s)
}

func TestReorderMeal_OutOfRangeNoop(t *testing.T) {
	s := seedStore()

	if s.ReorderMeal("1/7/24", Monday, 5, 0) {
		t.Error("expected out-of-range reorder to report false")
	}
	if s.ReorderMeal("nope", Monday, 0, 0) {
		t.Error("expected reorder on unknown week to report false")
	}
	if got := s.MealsByDay("1/7/24", Monday); !reflect.DeepEqual(got, []int{0, 1}) {
		t.Errorf("expected [0 1], got %v", got)
	}
}

func TestApplyDailyTemplate(t *testing.T) {
	s := seedStore()
	template := []int{100, 200, 300, 400, 500, 600, 700, 800, 900, 1000}

	s.ApplyDailyTemplate("1/7/24", Monday, template)

	if got := len(s.AllPlannedMeals()); got != 15 {
		t.Errorf("expected 15 meals, got %d", got)
	}
	if got := s.MealsByDay("1/7/24", Monday); !reflect.DeepEqual(got, template) {
		t.Errorf("expected %v, got %v", template, got)
	}

	// the store must not alias the caller's slice
	template[0] = -1
	if got := s.MealsByDay("1/7/24", Monday)[0]; got != 100 {
		t.Errorf("expected first id 100 after caller mutation, got %d", got)
	}
	assertCoherent(t, s)
}

func TestApplyWeeklyTemplate(t *testing.T) {
	s := seedStore()
	goals := WeekGoals{}
	goals[Sunday].Protein = Range{Min: 500}

	s.ApplyWeeklyTemplate("1/7/24", WeeklyTemplate{
		Days: WeekMeals{
			Sunday: {0, 1, 2},
			Monday: {3, 4, 5},
		},
		Goals: &goals,
	})

	if got := len(s.MealsByWeek("1/7/24")); got != 6 {
		t.Errorf("expected 6 meals in week, got %d", got)
	}
	if got := len(s.MealsByDay("1/7/24", Monday)); got != 3 {
		t.Errorf("expected 3 meals on Monday, got %d", got)
	}
	if got := len(s.MealsByDay("1/7/24", Thursday)); got != 0 {
		t.Errorf("expected Thursday to be emptied, got %d", got)
	}
	if got := len(s.AllPlannedMeals()); got != 8 {
		t.Errorf("expected 8 meals in plan, got %d", got)
	}
	if got := s.GoalsByDay("1/7/24", Sunday).Protein.Min; got != 500 {
		t.Errorf("expected protein min 500, got %v", got)
	}
	assertCoherent(t, s)
}

func TestApplyWeeklyTemplate_WithoutGoalsKeepsGoals(t *testing.T) {
	s := seedStore()
	s.SetGoal(PlannedGoal{Week: "1/7/24", Day: Monday, DayGoals: DayGoals{Calories: Range{Min: 1800, Max: 2200}}})

	s.ApplyWeeklyTemplate("1/7/24", WeeklyTemplate{Days: WeekMeals{Tuesday: {6, 7, 8}}})

	if got := s.GoalsByDay("1/7/24", Monday).Calories.Max; got != 2200 {
		t.Errorf("expected goals to survive, got calories max %v", got)
	}
}

func TestClearDay_Idempotent(t *testing.T) {
	s := seedStore()

	s.ClearDay("1/7/24", Monday)
	if got := s.MealsByDay("1/7/24", Monday); len(got) != 0 {
		t.Errorf("expected empty Monday, got %v", got)
	}
	s.ClearDay("1/7/24", Monday)
	if got := s.MealsByDay("1/7/24", Monday); len(got) != 0 {
		t.Errorf("expected empty Monday, got %v", got)
	}
	if got := len(s.AllPlannedMeals()); got != 5 {
		t.Errorf("expected 5 meals, got %d", got)
	}
	assertCoherent(t, s)
}

func TestClearWeek_KeepsWeek(t *testing.T) {
	s := seedStore()

	s.ClearWeek("1/7/24")

	if got := len(s.MealsByWeek("1/7/24")); got != 0 {
		t.Errorf("expected empty week, got %d", got)
	}
	if got := len(s.AllPlannedMeals()); got != 2 {
		t.Errorf("expected 2 meals, got %d", got)
	}
	if _, ok := s.Index()["1/7/24"]; !ok {
		t.Error("expected cleared week to stay in the index")
	}
	assertCoherent(t, s)
}

func TestClearPlan(t *testing.T) {
	s := seedStore()
	s.SetGoal(PlannedGoal{Week: "1/7/24", Day: Sunday, DayGoals: DayGoals{Fat: Range{Min: 1, Max: 2}}})

	s.ClearPlan()

	if s.Len() != 0 || len(s.AllPlannedMeals()) != 0 {
		t.Errorf("expected empty plan, got %d meals", s.Len())
	}
	if len(s.Weeks()) != 0 || len(s.Index()) != 0 {
		t.Errorf("expected no weeks, got %v", s.Weeks())
	}
	if len(s.GoalsByWeek("1/7/24")) != 0 || len(s.Goals()) != 0 {
		t.Error("expected goals to be cleared")
	}

	s.AddMeal(PlannedMeal{Week: "x", Day: Sunday, ID: 1})
	if s.Len() != 1 {
		t.Errorf("expected store to be usable after clear, got %d meals", s.Len())
	}
}

func TestNewFromIndex_Traversal(t *testing.T) {
	s := NewFromIndex(Index{
		"b": WeekMeals{Monday: {1, 2}},
		"a": WeekMeals{Saturday: {4}, Sunday: {3}},
	})

	want := []PlannedMeal{
		{Week: "a", Day: Sunday, ID: 3},
		{Week: "a", Day: Saturday, ID: 4},
		{Week: "b", Day: Monday, ID: 1},
		{Week: "b", Day: Monday, ID: 2},
	}
	if got := s.AllPlannedMeals(); !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
	assertCoherent(t, s)
}

func TestRoundTrip_FlatToIndexToFlat(t *testing.T) {
	s := seedStore()
	s.AddMeal(PlannedMeal{Week: "1/7/24", Day: Monday, ID: 0})

	rebuilt := NewFromIndex(s.Index())

	if got, want := rebuilt.Index(), s.Index(); !reflect.DeepEqual(got, want) {
		t.Errorf("expected index %v, got %v", want, got)
	}
	if rebuilt.Len() != s.Len() {
		t.Errorf("expected %d meals, got %d", s.Len(), rebuilt.Len())
	}
	assertCoherent(t, rebuilt)
}

func TestIndex_IsCopy(t *testing.T) {
	s := seedStore()

	idx := s.Index()
	week := idx["1/7/24"]
	week[Monday][0] = 999

	if got := s.MealsByDay("1/7/24", Monday)[0]; got != 0 {
		t.Errorf("expected store to be unaffected, got %d", got)
	}
}

func TestCoherence_OperationSequence(t *testing.T) {
	s := seedStore()

	s.AddMeal(PlannedMeal{Week: "1/14/24", Day: Sunday, ID: 11})
	assertCoherent(t, s)
	s.RemoveMeal("1/14/24", Sunday, 0)
	assertCoherent(t, s)
	s.ReorderMeal("1/7/24", Monday, 1, 0)
	assertCoherent(t, s)
	s.ApplyDailyTemplate("1/28/24", Friday, []int{1, 1, 2})
	assertCoherent(t, s)
	s.ClearDay("1/7/24", Tuesday)
	assertCoherent(t, s)
	s.ApplyWeeklyTemplate("1/14/24", WeeklyTemplate{Days: WeekMeals{Wednesday: {5}}})
	assertCoherent(t, s)
	s.ClearWeek("1/28/24")
	assertCoherent(t, s)

	want := 2 + 1 + 1 + 1 // Monday(2) + Wednesday + Thursday of 1/7/24, Wednesday of 1/14/24
	if got := len(s.AllPlannedMeals()); got != want {
		t.Errorf("expected %d meals, got %d", want, got)
	}
}
