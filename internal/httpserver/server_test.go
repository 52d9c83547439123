package httpserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/fdg312/meal-planner/internal/auth"
	"github.com/fdg312/meal-planner/internal/config"
	"github.com/fdg312/meal-planner/internal/exports"
	"github.com/fdg312/meal-planner/internal/mealplans"
	"github.com/fdg312/meal-planner/internal/storage/memory"
	"github.com/fdg312/meal-planner/internal/storage/sqlite"
	"github.com/fdg312/meal-planner/internal/templates"
)

func newTestServer(cfg *config.Config) *Server {
	return NewWithStorage(cfg, memory.New())
}

func do(t *testing.T, h http.Handler, method, target string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(&config.Config{Port: 8080})

	w := do(t, srv.Handler(), http.MethodGet, "/healthz", nil, "")
	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}

	var resp map[string]string
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp["status"] != "ok" {
		t.Errorf("expected status=ok, got %s", resp["status"])
	}
}

func TestHealthzMethodNotAllowed(t *testing.T) {
	srv := newTestServer(&config.Config{Port: 8080})

	w := do(t, srv.Handler(), http.MethodPost, "/healthz", nil, "")
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected status 405, got %d", w.Code)
	}
}

func TestMealPlanFlow_DefaultUser(t *testing.T) {
	srv := newTestServer(&config.Config{})
	h := srv.Handler()

	for _, id := range []int{10, 11, 12} {
		w := do(t, h, http.MethodPost, "/v1/meal/plan/meals", map[string]any{
			"profile_id": "p1", "week": "2024-W01", "day": 1, "meal_id": id,
		}, "")
		if w.Code != http.StatusCreated {
			t.Fatalf("add meal %d: expected 201, got %d: %s", id, w.Code, w.Body.String())
		}
	}

	w := do(t, h, http.MethodPost, "/v1/meal/plan/meals/reorder", map[string]any{
		"profile_id": "p1", "week": "2024-W01", "day": 1, "from": 2, "to": 0,
	}, "")
	if w.Code != http.StatusOK {
		t.Fatalf("reorder: expected 200, got %d", w.Code)
	}

	w = do(t, h, http.MethodDelete, "/v1/meal/plan/meals?profile_id=p1&week=2024-W01&day=mon&position=1", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("remove: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	w = do(t, h, http.MethodGet, "/v1/meal/plan/day?profile_id=p1&week=2024-W01&day=1", nil, "")
	var day mealplans.DayView
	json.NewDecoder(w.Body).Decode(&day)
	if len(day.MealIDs) != 2 || day.MealIDs[0] != 12 || day.MealIDs[1] != 11 {
		t.Fatalf("expected [12 11], got %v", day.MealIDs)
	}

	w = do(t, h, http.MethodPut, "/v1/meal/goals", map[string]any{
		"profile_id": "p1", "week": "2024-W01", "day": 1,
		"calories": map[string]float64{"min": 1800, "max": 2200},
	}, "")
	if w.Code != http.StatusOK {
		t.Fatalf("set goal: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	w = do(t, h, http.MethodGet, "/v1/meal/plan?profile_id=p1", nil, "")
	var plan mealplans.GetMealPlanResponse
	json.NewDecoder(w.Body).Decode(&plan)
	if len(plan.Meals) != 2 || len(plan.Goals) != 1 || len(plan.Weeks) != 1 {
		t.Fatalf("unexpected plan: %+v", plan)
	}

	w = do(t, h, http.MethodDelete, "/v1/meal/plan?profile_id=p1", nil, "")
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete plan: expected 204, got %d", w.Code)
	}

	w = do(t, h, http.MethodGet, "/v1/meal/plan?profile_id=p1", nil, "")
	plan = mealplans.GetMealPlanResponse{}
	json.NewDecoder(w.Body).Decode(&plan)
	if len(plan.Meals) != 0 || len(plan.Goals) != 0 {
		t.Fatalf("expected empty plan after delete, got %+v", plan)
	}
}

func TestTemplatesAndExportsRoutes(t *testing.T) {
	srv := newTestServer(&config.Config{})
	h := srv.Handler()

	w := do(t, h, http.MethodPost, "/v1/meal/templates", templates.Document{
		Name: "Workday", Kind: templates.KindDaily, MealIDs: []int{1, 2, 3},
	}, "")
	if w.Code != http.StatusCreated {
		t.Fatalf("create template: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var tmpl templates.TemplateDTO
	json.NewDecoder(w.Body).Decode(&tmpl)

	w = do(t, h, http.MethodPost, "/v1/meal/templates/"+tmpl.ID+"/apply", map[string]any{
		"profile_id": "p1", "week": "w1", "day": 4,
	}, "")
	if w.Code != http.StatusOK {
		t.Fatalf("apply template: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	w = do(t, h, http.MethodPost, "/v1/meal/exports", exports.CreateExportRequest{
		ProfileID: "p1", Week: "w1", Format: exports.FormatCSV,
	}, "")
	if w.Code != http.StatusCreated {
		t.Fatalf("create export: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var exp exports.ExportDTO
	json.NewDecoder(w.Body).Decode(&exp)

	w = do(t, h, http.MethodGet, "/v1/meal/exports/"+exp.ID+"/download", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("download: expected 200, got %d", w.Code)
	}
	if !bytes.Contains(w.Body.Bytes(), []byte("meal,w1,4,")) {
		t.Errorf("expected meal rows for day 4, got %s", w.Body.String())
	}
}

func TestAuthRequired_DevTokenFlow(t *testing.T) {
	cfg := &config.Config{
		AuthMode:      config.AuthModeDev,
		AuthRequired:  true,
		JWTSecret:     "server-test-secret",
		JWTIssuer:     "meal-planner-test",
		JWTTTLMinutes: 5,
	}
	srv := newTestServer(cfg)
	h := srv.Handler()

	w := do(t, h, http.MethodGet, "/v1/meal/plan?profile_id=p1", nil, "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", w.Code)
	}

	w = do(t, h, http.MethodPost, "/v1/auth/dev", auth.DevAuthRequest{UserID: "alice"}, "")
	if w.Code != http.StatusOK {
		t.Fatalf("dev auth: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var tok auth.DevAuthResponse
	json.NewDecoder(w.Body).Decode(&tok)

	w = do(t, h, http.MethodPost, "/v1/meal/plan/meals", map[string]any{
		"profile_id": "p1", "week": "w1", "day": 0, "meal_id": 7,
	}, tok.AccessToken)
	if w.Code != http.StatusCreated {
		t.Fatalf("add meal: expected 201, got %d", w.Code)
	}

	// alice's plan is not visible to another user
	w = do(t, h, http.MethodPost, "/v1/auth/dev", auth.DevAuthRequest{UserID: "bob"}, "")
	var bob auth.DevAuthResponse
	json.NewDecoder(w.Body).Decode(&bob)

	w = do(t, h, http.MethodGet, "/v1/meal/plan?profile_id=p1", nil, bob.AccessToken)
	var plan mealplans.GetMealPlanResponse
	json.NewDecoder(w.Body).Decode(&plan)
	if len(plan.Meals) != 0 {
		t.Fatalf("expected empty plan for bob, got %+v", plan.Meals)
	}
}

func TestDevAuthNotRoutedWhenAuthOff(t *testing.T) {
	srv := newTestServer(&config.Config{AuthMode: config.AuthModeNone})

	w := do(t, srv.Handler(), http.MethodPost, "/v1/auth/dev", nil, "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestOpenStorage_Modes(t *testing.T) {
	ctx := t.Context()

	st, mode, err := openStorage(ctx, &config.Config{StorageMode: config.StorageModeAuto})
	if err != nil || mode != config.StorageModeMemory {
		t.Fatalf("auto without DATABASE_URL: expected memory, got mode=%q err=%v", mode, err)
	}
	st.Close()

	if _, _, err := openStorage(ctx, &config.Config{StorageMode: config.StorageModePostgres}); err == nil {
		t.Fatal("expected error for postgres mode without DATABASE_URL")
	}

	path := filepath.Join(t.TempDir(), "plan.db")
	st, mode, err = openStorage(ctx, &config.Config{StorageMode: config.StorageModeSQLite, SQLitePath: path})
	if err != nil || mode != config.StorageModeSQLite {
		t.Fatalf("sqlite: got mode=%q err=%v", mode, err)
	}
	if _, ok := st.(*sqlite.SQLiteStorage); !ok {
		t.Fatalf("expected *sqlite.SQLiteStorage, got %T", st)
	}
	st.Close()
}
