// Package storagetest holds behaviour checks shared by every storage backend.
package storagetest

import (
	"context"
	"errors"
	"testing"

	"github.com/fdg312/meal-planner/internal/storage"
	"github.com/google/uuid"
)

// Run exercises st through the storage.Storage contract.
func Run(t *testing.T, st storage.Storage) {
	t.Run("MealPlans", func(t *testing.T) { testMealPlans(t, st.GetMealPlansStorage()) })
	t.Run("Templates", func(t *testing.T) { testTemplates(t, st.GetTemplatesStorage()) })
	t.Run("Exports", func(t *testing.T) { testExports(t, st.GetExportsStorage()) })
}

func testMealPlans(t *testing.T, s storage.MealPlansStorage) {
	ctx := context.Background()

	if _, _, _, found, err := s.GetPlan(ctx, "u1", "p1"); err != nil || found {
		t.Fatalf("expected no plan, got found=%v err=%v", found, err)
	}

	// rows are saved out of order on purpose
	meals := []storage.PlannedMealRow{
		{Week: "w2", WeekOrder: 1, Day: 0, Position: 0, MealID: 7},
		{Week: "w1", WeekOrder: 0, Day: 3, Position: 1, MealID: 2},
		{Week: "w1", WeekOrder: 0, Day: 3, Position: 0, MealID: 1},
		{Week: "w1", WeekOrder: 0, Day: 1, Position: 0, MealID: 9},
	}
	goals := []storage.PlannedGoalRow{
		{Week: "w1", WeekOrder: 0, Day: 3, CaloriesMin: 1800, CaloriesMax: 2200.5, ProteinMin: 90},
	}

	created, err := s.SavePlan(ctx, "u1", "p1", "Meal plan", meals, goals)
	if err != nil {
		t.Fatalf("SavePlan: %v", err)
	}
	if created.ID == uuid.Nil || created.Title != "Meal plan" {
		t.Fatalf("unexpected plan header %+v", created)
	}

	plan, gotMeals, gotGoals, found, err := s.GetPlan(ctx, "u1", "p1")
	if err != nil || !found {
		t.Fatalf("GetPlan: found=%v err=%v", found, err)
	}
	if plan.ID != created.ID {
		t.Errorf("plan id changed: %s != %s", plan.ID, created.ID)
	}
	wantOrder := []int{9, 1, 2, 7}
	if len(gotMeals) != len(wantOrder) {
		t.Fatalf("expected %d meals, got %d", len(wantOrder), len(gotMeals))
	}
	for i, id := range wantOrder {
		if gotMeals[i].MealID != id {
			t.Fatalf("meal %d: expected id %d, got %+v", i, id, gotMeals)
		}
	}
	if len(gotGoals) != 1 || gotGoals[0].CaloriesMax != 2200.5 || gotGoals[0].ProteinMin != 90 {
		t.Fatalf("unexpected goals %+v", gotGoals)
	}

	// save replaces every row and keeps the plan id
	again, err := s.SavePlan(ctx, "u1", "p1", "Meal plan", meals[:1], nil)
	if err != nil {
		t.Fatalf("SavePlan (replace): %v", err)
	}
	if again.ID != created.ID {
		t.Errorf("expected plan id to survive a save")
	}
	_, gotMeals, gotGoals, _, _ = s.GetPlan(ctx, "u1", "p1")
	if len(gotMeals) != 1 || len(gotGoals) != 0 {
		t.Fatalf("expected rows to be replaced, got %d meals %d goals", len(gotMeals), len(gotGoals))
	}

	// plans are scoped by owner and profile
	if _, _, _, found, _ := s.GetPlan(ctx, "u2", "p1"); found {
		t.Error("plan of u1 leaked to u2")
	}
	if _, _, _, found, _ := s.GetPlan(ctx, "u1", "p2"); found {
		t.Error("plan of p1 leaked to p2")
	}

	if err := s.DeletePlan(ctx, "u1", "p1"); err != nil {
		t.Fatalf("DeletePlan: %v", err)
	}
	if _, _, _, found, _ := s.GetPlan(ctx, "u1", "p1"); found {
		t.Error("expected plan to be deleted")
	}
	if err := s.DeletePlan(ctx, "u1", "p1"); err != nil {
		t.Errorf("deleting a missing plan should succeed, got %v", err)
	}
}

func testTemplates(t *testing.T, s storage.TemplatesStorage) {
	ctx := context.Background()

	b := &storage.Template{OwnerUserID: "u1", Name: "b", Kind: "daily", Body: []byte(`{"meal_ids":[1]}`)}
	a := &storage.Template{OwnerUserID: "u1", Name: "a", Kind: "weekly", Body: []byte(`{"days":{}}`)}
	other := &storage.Template{OwnerUserID: "u2", Name: "c", Kind: "daily", Body: []byte(`{}`)}
	for _, tmpl := range []*storage.Template{b, a, other} {
		if err := s.CreateTemplate(ctx, tmpl); err != nil {
			t.Fatalf("CreateTemplate: %v", err)
		}
		if tmpl.ID == uuid.Nil || tmpl.CreatedAt.IsZero() {
			t.Fatalf("expected id and timestamps to be assigned, got %+v", tmpl)
		}
	}

	got, err := s.GetTemplate(ctx, "u1", b.ID)
	if err != nil {
		t.Fatalf("GetTemplate: %v", err)
	}
	if got.Name != "b" || got.Kind != "daily" || string(got.Body) != `{"meal_ids":[1]}` {
		t.Errorf("unexpected template %+v", got)
	}

	if _, err := s.GetTemplate(ctx, "u2", b.ID); !errors.Is(err, storage.ErrTemplateNotFound) {
		t.Errorf("expected ErrTemplateNotFound for foreign owner, got %v", err)
	}

	list, err := s.ListTemplates(ctx, "u1")
	if err != nil {
		t.Fatalf("ListTemplates: %v", err)
	}
	if len(list) != 2 || list[0].Name != "a" || list[1].Name != "b" {
		t.Fatalf("expected [a b], got %+v", list)
	}

	if n, err := s.CountTemplates(ctx, "u1"); err != nil || n != 2 {
		t.Errorf("expected count 2, got %d err=%v", n, err)
	}

	if err := s.DeleteTemplate(ctx, "u2", a.ID); !errors.Is(err, storage.ErrTemplateNotFound) {
		t.Errorf("expected ErrTemplateNotFound deleting foreign template, got %v", err)
	}
	if err := s.DeleteTemplate(ctx, "u1", a.ID); err != nil {
		t.Fatalf("DeleteTemplate: %v", err)
	}
	if n, _ := s.CountTemplates(ctx, "u1"); n != 1 {
		t.Errorf("expected count 1 after delete, got %d", n)
	}
}

func testExports(t *testing.T, s storage.ExportsStorage) {
	ctx := context.Background()

	key := "exports/u1/x.pdf"
	inline := &storage.ExportMeta{OwnerUserID: "u1", ProfileID: "p1", Week: "w1", Format: "csv", SizeBytes: 3, Data: []byte("a,b")}
	remote := &storage.ExportMeta{OwnerUserID: "u1", ProfileID: "p1", Week: "w2", Format: "pdf", ObjectKey: &key, SizeBytes: 100}
	otherProfile := &storage.ExportMeta{OwnerUserID: "u1", ProfileID: "p2", Week: "w1", Format: "csv"}
	for _, e := range []*storage.ExportMeta{inline, remote, otherProfile} {
		if err := s.CreateExport(ctx, e); err != nil {
			t.Fatalf("CreateExport: %v", err)
		}
	}

	got, err := s.GetExport(ctx, "u1", inline.ID)
	if err != nil {
		t.Fatalf("GetExport: %v", err)
	}
	if got.ObjectKey != nil || string(got.Data) != "a,b" || got.SizeBytes != 3 {
		t.Errorf("unexpected inline export %+v", got)
	}

	got, err = s.GetExport(ctx, "u1", remote.ID)
	if err != nil {
		t.Fatalf("GetExport: %v", err)
	}
	if got.ObjectKey == nil || *got.ObjectKey != key || len(got.Data) != 0 {
		t.Errorf("unexpected blob export %+v", got)
	}

	if _, err := s.GetExport(ctx, "u2", inline.ID); !errors.Is(err, storage.ErrExportNotFound) {
		t.Errorf("expected ErrExportNotFound for foreign owner, got %v", err)
	}

	list, err := s.ListExports(ctx, "u1", "p1", 10, 0)
	if err != nil {
		t.Fatalf("ListExports: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 exports for p1, got %d", len(list))
	}
	if list, _ := s.ListExports(ctx, "u1", "p1", 1, 1); len(list) != 1 {
		t.Errorf("expected limit/offset to return 1 export, got %d", len(list))
	}

	if err := s.DeleteExport(ctx, "u1", inline.ID); err != nil {
		t.Fatalf("DeleteExport: %v", err)
	}
	if err := s.DeleteExport(ctx, "u1", inline.ID); !errors.Is(err, storage.ErrExportNotFound) {
		t.Errorf("expected ErrExportNotFound on second delete, got %v", err)
	}
}
