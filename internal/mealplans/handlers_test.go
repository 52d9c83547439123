package mealplans

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fdg312/meal-planner/internal/storage"
	"github.com/fdg312/meal-planner/internal/userctx"
	"github.com/google/uuid"
)

type mockMealPlansRepo struct {
	plans     map[string]storage.MealPlan
	meals     map[string][]storage.PlannedMealRow
	goals     map[string][]storage.PlannedGoalRow
	saveCalls int
	failGet   bool
}

func newMockRepo() *mockMealPlansRepo {
	return &mockMealPlansRepo{
		plans: make(map[string]storage.MealPlan),
		meals: make(map[string][]storage.PlannedMealRow),
		goals: make(map[string][]storage.PlannedGoalRow),
	}
}

func (m *mockMealPlansRepo) GetPlan(ctx context.Context, ownerUserID, profileID string) (storage.MealPlan, []storage.PlannedMealRow, []storage.PlannedGoalRow, bool, error) {
	if m.failGet {
		return storage.MealPlan{}, nil, nil, false, errors.New("db down")
	}
	key := ownerUserID + ":" + profileID
	plan, ok := m.plans[key]
	if !ok {
		return storage.MealPlan{}, nil, nil, false, nil
	}
	return plan, m.meals[key], m.goals[key], true, nil
}

func (m *mockMealPlansRepo) SavePlan(ctx context.Context, ownerUserID, profileID, title string, meals []storage.PlannedMealRow, goals []storage.PlannedGoalRow) (storage.MealPlan, error) {
	m.saveCalls++
	key := ownerUserID + ":" + profileID
	plan, ok := m.plans[key]
	if !ok {
		plan = storage.MealPlan{
			ID:          uuid.New(),
			OwnerUserID: ownerUserID,
			ProfileID:   profileID,
			CreatedAt:   time.Now(),
		}
	}
	plan.Title = title
	plan.UpdatedAt = time.Now()
	m.plans[key] = plan
	m.meals[key] = append([]storage.PlannedMealRow{}, meals...)
	m.goals[key] = append([]storage.PlannedGoalRow{}, goals...)
	return plan, nil
}

func (m *mockMealPlansRepo) DeletePlan(ctx context.Context, ownerUserID, profileID string) error {
	key := ownerUserID + ":" + profileID
	delete(m.plans, key)
	delete(m.meals, key)
	delete(m.goals, key)
	return nil
}

func newTestHandler() (*Handler, *mockMealPlansRepo) {
	repo := newMockRepo()
	return NewHandler(NewService(repo, 5)), repo
}

func doRequest(t *testing.T, handler http.HandlerFunc, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, target, &buf)
	req = req.WithContext(userctx.WithUserID(req.Context(), "user1"))
	rr := httptest.NewRecorder()
	handler(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rr.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func TestHandleAddMeal_Success(t *testing.T) {
	handler, repo := newTestHandler()

	rr := doRequest(t, handler.HandleAddMeal, http.MethodPost, "/v1/meal/plan/meals", map[string]any{
		"profile_id": "p1",
		"week":       "2024-W10",
		"day":        1,
		"meal_ids":   []int{4, 5, 4},
	})

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rr.Code, rr.Body.String())
	}

	view := decode[DayView](t, rr)
	if len(view.MealIDs) != 3 || view.MealIDs[0] != 4 || view.MealIDs[2] != 4 {
		t.Errorf("unexpected meal ids: %v", view.MealIDs)
	}
	if view.DayName != "Monday" {
		t.Errorf("expected Monday, got %s", view.DayName)
	}
	if repo.saveCalls != 1 {
		t.Errorf("expected 1 save, got %d", repo.saveCalls)
	}
}

func TestHandleAddMeal_ValidationError(t *testing.T) {
	handler, _ := newTestHandler()

	tests := []map[string]any{
		{"week": "w1", "day": 1, "meal_id": 1},
		{"profile_id": "p1", "day": 1, "meal_id": 1},
		{"profile_id": "p1", "week": "w1", "day": 7, "meal_id": 1},
		{"profile_id": "p1", "week": "w1", "day": 1},
		{"profile_id": "p1", "week": "w1", "day": 1, "meal_id": -3},
	}

	for _, body := range tests {
		rr := doRequest(t, handler.HandleAddMeal, http.MethodPost, "/v1/meal/plan/meals", body)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("body %v: expected status 400, got %d", body, rr.Code)
		}
	}
}

func TestHandleAddMeal_DayLimit(t *testing.T) {
	handler, _ := newTestHandler()

	rr := doRequest(t, handler.HandleAddMeal, http.MethodPost, "/v1/meal/plan/meals", map[string]any{
		"profile_id": "p1", "week": "w1", "day": 2, "meal_ids": []int{1, 2, 3, 4, 5, 6},
	})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}

func TestHandleAddMeal_InvalidJSON(t *testing.T) {
	handler, _ := newTestHandler()

	req := httptest.NewRequest(http.MethodPost, "/v1/meal/plan/meals", bytes.NewBufferString("{"))
	req = req.WithContext(userctx.WithUserID(req.Context(), "user1"))
	rr := httptest.NewRecorder()
	handler.HandleAddMeal(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}

func TestHandleGetPlan_Empty(t *testing.T) {
	handler, _ := newTestHandler()

	rr := doRequest(t, handler.HandleGetPlan, http.MethodGet, "/v1/meal/plan?profile_id=p1", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	resp := decode[GetMealPlanResponse](t, rr)
	if resp.Plan != nil {
		t.Error("expected nil plan")
	}
	if resp.Meals == nil || len(resp.Meals) != 0 {
		t.Errorf("expected empty meals array, got %v", resp.Meals)
	}
}

func TestHandleGetPlan_MissingProfile(t *testing.T) {
	handler, _ := newTestHandler()

	rr := doRequest(t, handler.HandleGetPlan, http.MethodGet, "/v1/meal/plan", nil)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}

func TestHandleGetPlan_Unauthorized(t *testing.T) {
	handler, _ := newTestHandler()

	req := httptest.NewRequest(http.MethodGet, "/v1/meal/plan?profile_id=p1", nil)
	rr := httptest.NewRecorder()
	handler.HandleGetPlan(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rr.Code)
	}
}

func TestHandleGetPlan_StorageError(t *testing.T) {
	handler, repo := newTestHandler()
	repo.failGet = true

	rr := doRequest(t, handler.HandleGetPlan, http.MethodGet, "/v1/meal/plan?profile_id=p1", nil)
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", rr.Code)
	}
}

func TestHandleGetDay_AcceptsDayName(t *testing.T) {
	handler, _ := newTestHandler()

	doRequest(t, handler.HandleAddMeal, http.MethodPost, "/v1/meal/plan/meals", map[string]any{
		"profile_id": "p1", "week": "w1", "day": 3, "meal_id": 9,
	})

	rr := doRequest(t, handler.HandleGetDay, http.MethodGet, "/v1/meal/plan/day?profile_id=p1&week=w1&day=wed", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	view := decode[DayView](t, rr)
	if view.Day != 3 || len(view.MealIDs) != 1 || view.MealIDs[0] != 9 {
		t.Errorf("unexpected day view: %+v", view)
	}
}

func TestHandleGetDay_BadDay(t *testing.T) {
	handler, _ := newTestHandler()

	rr := doRequest(t, handler.HandleGetDay, http.MethodGet, "/v1/meal/plan/day?profile_id=p1&week=w1&day=funday", nil)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}

func TestHandleGetWeek_UnknownWeek(t *testing.T) {
	handler, _ := newTestHandler()

	rr := doRequest(t, handler.HandleGetWeek, http.MethodGet, "/v1/meal/plan/week?profile_id=p1&week=nope", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	view := decode[WeekView](t, rr)
	if len(view.Days) != 7 {
		t.Fatalf("expected 7 days, got %d", len(view.Days))
	}
	if len(view.MealIDs) != 0 {
		t.Errorf("expected no meals, got %v", view.MealIDs)
	}
}

func TestHandleRemoveMeal_OutOfRange(t *testing.T) {
	handler, repo := newTestHandler()

	doRequest(t, handler.HandleAddMeal, http.MethodPost, "/v1/meal/plan/meals", map[string]any{
		"profile_id": "p1", "week": "w1", "day": 0, "meal_id": 1,
	})

	rr := doRequest(t, handler.HandleRemoveMeal, http.MethodDelete, "/v1/meal/plan/meals?profile_id=p1&week=w1&day=0&position=4", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	resp := decode[RemoveMealResponse](t, rr)
	if resp.Removed || resp.MealID != nil {
		t.Errorf("expected no removal, got %+v", resp)
	}
	if repo.saveCalls != 1 {
		t.Errorf("no-op removal must not save, got %d saves", repo.saveCalls)
	}
}

func TestHandleRemoveMeal_Success(t *testing.T) {
	handler, _ := newTestHandler()

	doRequest(t, handler.HandleAddMeal, http.MethodPost, "/v1/meal/plan/meals", map[string]any{
		"profile_id": "p1", "week": "w1", "day": 0, "meal_ids": []int{1, 2, 3},
	})

	rr := doRequest(t, handler.HandleRemoveMeal, http.MethodDelete, "/v1/meal/plan/meals?profile_id=p1&week=w1&day=0&position=1", nil)
	resp := decode[RemoveMealResponse](t, rr)
	if !resp.Removed || resp.MealID == nil || *resp.MealID != 2 {
		t.Fatalf("expected meal 2 removed, got %+v", resp)
	}
	if len(resp.Day.MealIDs) != 2 || resp.Day.MealIDs[0] != 1 || resp.Day.MealIDs[1] != 3 {
		t.Errorf("unexpected remaining ids: %v", resp.Day.MealIDs)
	}
}

func TestHandleRemoveMeal_BadPosition(t *testing.T) {
	handler, _ := newTestHandler()

	rr := doRequest(t, handler.HandleRemoveMeal, http.MethodDelete, "/v1/meal/plan/meals?profile_id=p1&week=w1&day=0&position=x", nil)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}

func TestHandleReorderMeal(t *testing.T) {
	handler, _ := newTestHandler()

	doRequest(t, handler.HandleAddMeal, http.MethodPost, "/v1/meal/plan/meals", map[string]any{
		"profile_id": "p1", "week": "w1", "day": 5, "meal_ids": []int{1, 2, 3},
	})

	rr := doRequest(t, handler.HandleReorderMeal, http.MethodPost, "/v1/meal/plan/meals/reorder", map[string]any{
		"profile_id": "p1", "week": "w1", "day": 5, "from": 0, "to": 2,
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	resp := decode[ReorderMealResponse](t, rr)
	want := []int{2, 3, 1}
	if !resp.Moved || len(resp.MealIDs) != 3 {
		t.Fatalf("unexpected response %+v", resp)
	}
	for i := range want {
		if resp.MealIDs[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, resp.MealIDs)
		}
	}
}

func TestHandleReorderMeal_NegativePositions(t *testing.T) {
	handler, _ := newTestHandler()

	doRequest(t, handler.HandleAddMeal, http.MethodPost, "/v1/meal/plan/meals", map[string]any{
		"profile_id": "p1", "week": "w1", "day": 5, "meal_ids": []int{1, 2, 3},
	})

	rr := doRequest(t, handler.HandleReorderMeal, http.MethodPost, "/v1/meal/plan/meals/reorder", map[string]any{
		"profile_id": "p1", "week": "w1", "day": 5, "from": -1, "to": 0,
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	resp := decode[ReorderMealResponse](t, rr)
	if resp.Moved || len(resp.MealIDs) != 3 || resp.MealIDs[0] != 1 {
		t.Fatalf("expected unchanged day, got %+v", resp)
	}

	// to < 0 is clamped to the front
	rr = doRequest(t, handler.HandleReorderMeal, http.MethodPost, "/v1/meal/plan/meals/reorder", map[string]any{
		"profile_id": "p1", "week": "w1", "day": 5, "from": 2, "to": -4,
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	resp = decode[ReorderMealResponse](t, rr)
	if !resp.Moved || resp.MealIDs[0] != 3 || resp.MealIDs[1] != 1 {
		t.Fatalf("expected [3 1 2], got %+v", resp)
	}
}

func TestHandleApplyWeekTemplate_WithGoals(t *testing.T) {
	handler, _ := newTestHandler()

	rr := doRequest(t, handler.HandleApplyWeekTemplate, http.MethodPut, "/v1/meal/plan/week/template", map[string]any{
		"profile_id": "p1",
		"week":       "w2",
		"days":       map[string][]int{"0": {1, 2}, "sat": {3}},
		"goals": map[string]any{
			"monday": map[string]any{"protein": map[string]float64{"min": 100, "max": 150}},
		},
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	view := decode[WeekView](t, rr)
	if len(view.MealIDs) != 3 {
		t.Errorf("expected 3 meals in week, got %v", view.MealIDs)
	}
	if view.Days[6].MealIDs[0] != 3 {
		t.Errorf("expected saturday meal 3, got %v", view.Days[6].MealIDs)
	}
	if view.Days[1].Goals.Protein.Min != 100 {
		t.Errorf("expected monday protein min 100, got %v", view.Days[1].Goals.Protein)
	}
}

func TestHandleApplyWeekTemplate_BadDayKey(t *testing.T) {
	handler, _ := newTestHandler()

	rr := doRequest(t, handler.HandleApplyWeekTemplate, http.MethodPut, "/v1/meal/plan/week/template", map[string]any{
		"profile_id": "p1",
		"week":       "w2",
		"days":       map[string][]int{"9": {1}},
	})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}

func TestHandleApplyWeekTemplate_DuplicateGoalDay(t *testing.T) {
	handler, repo := newTestHandler()

	rr := doRequest(t, handler.HandleApplyWeekTemplate, http.MethodPut, "/v1/meal/plan/week/template", map[string]any{
		"profile_id": "p1",
		"week":       "w2",
		"days":       map[string][]int{"mon": {1}},
		"goals": map[string]any{
			"0":      map[string]any{"calories": map[string]float64{"min": 1, "max": 1}},
			"sunday": map[string]any{"calories": map[string]float64{"min": 2, "max": 2}},
		},
	})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
	if len(repo.meals) != 0 || len(repo.goals) != 0 {
		t.Errorf("rejected template must not be saved")
	}
}

func TestHandleApplyWeekTemplate_EmptyGoalsKeepsGoals(t *testing.T) {
	handler, _ := newTestHandler()

	doRequest(t, handler.HandleSetGoal, http.MethodPut, "/v1/meal/goals", map[string]any{
		"profile_id": "p1", "week": "w1", "day": 2,
		"fat": map[string]float64{"min": 40, "max": 70},
	})

	rr := doRequest(t, handler.HandleApplyWeekTemplate, http.MethodPut, "/v1/meal/plan/week/template", map[string]any{
		"profile_id": "p1",
		"week":       "w1",
		"days":       map[string][]int{"tue": {4}},
		"goals":      map[string]any{},
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	view := decode[WeekView](t, rr)
	if view.Days[2].Goals.Fat.Max != 70 {
		t.Errorf("expected tuesday goals to be kept, got %+v", view.Days[2].Goals)
	}
}

func TestHandleSetAndRemoveGoal(t *testing.T) {
	handler, _ := newTestHandler()

	rr := doRequest(t, handler.HandleSetGoal, http.MethodPut, "/v1/meal/goals", map[string]any{
		"profile_id": "p1", "week": "w1", "day": 2,
		"calories": map[string]float64{"min": 1800, "max": 2200},
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	view := decode[DayView](t, rr)
	if view.Goals.Calories.Max != 2200 {
		t.Fatalf("expected calories max 2200, got %v", view.Goals.Calories)
	}

	rr = doRequest(t, handler.HandleRemoveGoal, http.MethodDelete, "/v1/meal/goals?profile_id=p1&week=w1&day=2", nil)
	view = decode[DayView](t, rr)
	if !view.Goals.IsZero() {
		t.Errorf("expected zero goals, got %+v", view.Goals)
	}
}

func TestHandleRemoveGoal_WholeWeek(t *testing.T) {
	handler, _ := newTestHandler()

	for _, day := range []int{1, 4} {
		doRequest(t, handler.HandleSetGoal, http.MethodPut, "/v1/meal/goals", map[string]any{
			"profile_id": "p1", "week": "w1", "day": day,
			"fat": map[string]float64{"min": 10, "max": 20},
		})
	}

	rr := doRequest(t, handler.HandleRemoveGoal, http.MethodDelete, "/v1/meal/goals?profile_id=p1&week=w1", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	view := decode[WeekView](t, rr)
	for _, d := range view.Days {
		if !d.Goals.IsZero() {
			t.Errorf("day %d still has goals: %+v", d.Day, d.Goals)
		}
	}
}

func TestHandleDeletePlan(t *testing.T) {
	handler, repo := newTestHandler()

	doRequest(t, handler.HandleAddMeal, http.MethodPost, "/v1/meal/plan/meals", map[string]any{
		"profile_id": "p1", "week": "w1", "day": 0, "meal_id": 1,
	})

	rr := doRequest(t, handler.HandleDeletePlan, http.MethodDelete, "/v1/meal/plan?profile_id=p1", nil)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", rr.Code)
	}
	if len(repo.plans) != 0 {
		t.Errorf("expected plan to be deleted")
	}
}

func TestHandleClearWeek(t *testing.T) {
	handler, _ := newTestHandler()

	doRequest(t, handler.HandleAddMeal, http.MethodPost, "/v1/meal/plan/meals", map[string]any{
		"profile_id": "p1", "week": "w1", "day": 0, "meal_ids": []int{1, 2},
	})

	rr := doRequest(t, handler.HandleClearWeek, http.MethodPost, "/v1/meal/plan/week/clear", map[string]any{
		"profile_id": "p1", "week": "w1",
	})
	view := decode[WeekView](t, rr)
	if len(view.MealIDs) != 0 {
		t.Errorf("expected empty week, got %v", view.MealIDs)
	}
}
