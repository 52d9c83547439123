package templates

import (
	"errors"
	"testing"

	"github.com/fdg312/meal-planner/internal/planstore"
)

func TestParseYAML_Weekly(t *testing.T) {
	doc, err := ParseYAML([]byte(`
name: "  Cut week "
kind: weekly
days:
  sunday: [10, 11]
  "3": [12]
goals:
  sun:
    calories: {min: 1800, max: 2000}
`))
	if err != nil {
		t.Fatalf("ParseYAML: %v", err)
	}
	if doc.Name != "Cut week" {
		t.Errorf("expected trimmed name, got %q", doc.Name)
	}

	weekly, err := doc.Weekly()
	if err != nil {
		t.Fatalf("Weekly: %v", err)
	}
	if len(weekly.Days[0]) != 2 || weekly.Days[3][0] != 12 {
		t.Errorf("unexpected days: %v", weekly.Days)
	}
	if weekly.Goals == nil || weekly.Goals[0].Calories.Max != 2000 {
		t.Errorf("unexpected goals: %+v", weekly.Goals)
	}
}

func TestParseYAML_UnknownField(t *testing.T) {
	_, err := ParseYAML([]byte("name: x\nkind: daily\nmeals: [1]\n"))
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestParseYAML_DuplicateDay(t *testing.T) {
	_, err := ParseYAML([]byte("name: x\nkind: weekly\ndays:\n  mon: [1]\n  \"1\": [2]\n"))
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestParseYAML_DuplicateGoalDay(t *testing.T) {
	_, err := ParseYAML([]byte(`name: x
kind: weekly
days:
  sun: [1]
goals:
  "0":
    calories: {min: 1, max: 1}
  sunday:
    calories: {min: 2, max: 2}
`))
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDocumentWeekly_EmptyGoalsKeepsGoals(t *testing.T) {
	doc := &Document{Name: "x", Kind: KindWeekly, Days: map[string][]int{"mon": {1}}, Goals: map[string]planstore.DayGoals{}}
	tmpl, err := doc.Weekly()
	if err != nil {
		t.Fatalf("Weekly: %v", err)
	}
	if tmpl.Goals != nil {
		t.Errorf("empty goals should leave the week's goals alone, got %+v", tmpl.Goals)
	}
}

func TestMarshalYAML_RoundTrip(t *testing.T) {
	in := Document{Name: "Daily", Kind: KindDaily, MealIDs: []int{3, 3, 1}}

	data, err := MarshalYAML(in)
	if err != nil {
		t.Fatalf("MarshalYAML: %v", err)
	}

	out, err := ParseYAML(data)
	if err != nil {
		t.Fatalf("ParseYAML: %v", err)
	}
	if out.Name != in.Name || out.Kind != in.Kind || len(out.MealIDs) != 3 || out.MealIDs[2] != 1 {
		t.Errorf("round trip mismatch: %+v", out)
	}
}
