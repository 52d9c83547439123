package templates

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fdg312/meal-planner/internal/planstore"
)

const (
	KindDaily  = "daily"
	KindWeekly = "weekly"

	DefaultMaxPerUser = 100
	maxNameLength     = 100
)

var ErrValidation = errors.New("validation failed")

// ErrLimitReached is returned by Create when the owner already has the maximum number of templates.
var ErrLimitReached = errors.New("template limit reached")

func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// Document is a template as stored, imported and exported. A daily template
// uses MealIDs; a weekly one uses Days (keyed by day number or name) and
// optionally Goals.
type Document struct {
	Name    string                        `json:"name" yaml:"name"`
	Kind    string                        `json:"kind" yaml:"kind"`
	MealIDs []int                         `json:"meal_ids,omitempty" yaml:"meal_ids,omitempty"`
	Days    map[string][]int              `json:"days,omitempty" yaml:"days,omitempty"`
	Goals   map[string]planstore.DayGoals `json:"goals,omitempty" yaml:"goals,omitempty"`
}

func (d *Document) Validate() error {
	d.Name = strings.TrimSpace(d.Name)
	if d.Name == "" {
		return validationError("name is required")
	}
	if len(d.Name) > maxNameLength {
		return validationError("name must be at most %d characters", maxNameLength)
	}

	switch d.Kind {
	case KindDaily:
		if len(d.Days) > 0 || len(d.Goals) > 0 {
			return validationError("daily template takes meal_ids only")
		}
		return validateIDs(d.MealIDs)
	case KindWeekly:
		if len(d.MealIDs) > 0 {
			return validationError("weekly template takes days, not meal_ids")
		}
		_, err := d.Weekly()
		return err
	default:
		return validationError("kind must be %q or %q", KindDaily, KindWeekly)
	}
}

// Weekly converts a weekly document into a planstore template.
func (d *Document) Weekly() (planstore.WeeklyTemplate, error) {
	var tmpl planstore.WeeklyTemplate
	var seen [planstore.DaysPerWeek]bool
	for key, ids := range d.Days {
		day, err := planstore.ParseDayOfWeek(key)
		if err != nil {
			return tmpl, validationError("days: %v", err)
		}
		if seen[day] {
			return tmpl, validationError("days: %s given twice", day)
		}
		seen[day] = true
		if err := validateIDs(ids); err != nil {
			return tmpl, err
		}
		tmpl.Days[day] = append([]int{}, ids...)
	}

	if len(d.Goals) > 0 {
		goals := planstore.WeekGoals{}
		seen = [planstore.DaysPerWeek]bool{}
		for key, g := range d.Goals {
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

func validateIDs(ids []int) error {
	for i, id := range ids {
		if id < 0 {
			return validationError("meal_ids[%d] must be >= 0", i)
		}
	}
	return nil
}

type TemplateDTO struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Document
}

type ListTemplatesResponse struct {
	Templates []TemplateDTO `json:"templates"`
}

// ApplyRequest targets a week, and a day for daily templates.
type ApplyRequest struct {
	ProfileID string `json:"profile_id"`
	Week      string `json:"week"`
	Day       *int   `json:"day,omitempty"`
}
