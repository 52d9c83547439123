package planstore

import (
	"fmt"
	"strconv"
	"strings"
)

// DayOfWeek is a day bucket inside a week. Sunday=0 .. Saturday=6.
type DayOfWeek int

const (
	Sunday DayOfWeek = iota
	Monday
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
)

// DaysPerWeek is the fixed number of day buckets every week carries.
const DaysPerWeek = 7

var dayNames = [DaysPerWeek]string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

// Valid reports whether d is one of the seven days.
func (d DayOfWeek) Valid() bool {
	return d >= Sunday && d <= Saturday
}

func (d DayOfWeek) String() string {
	if !d.Valid() {
		return fmt.Sprintf("DayOfWeek(%d)", int(d))
	}
	return dayNames[d]
}

// ParseDayOfWeek accepts a day number ("0".."6"), a full name ("monday")
// or a three letter abbreviation ("mon"), case-insensitive.
func ParseDayOfWeek(s string) (DayOfWeek, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		d := DayOfWeek(n)
		if !d.Valid() {
			return 0, fmt.Errorf("day must be 0-6, got %d", n)
		}
		return d, nil
	}

	lower := strings.ToLower(s)
	for i, name := range dayNames {
		name = strings.ToLower(name)
		if lower == name || (len(lower) == 3 && strings.HasPrefix(name, lower)) {
			return DayOfWeek(i), nil
		}
	}
	return 0, fmt.Errorf("unknown day %q", s)
}

// Range is a min/max pair stored verbatim (min <= max is not enforced).
type Range struct {
	Min float64 `json:"min" yaml:"min"`
	Max float64 `json:"max" yaml:"max"`
}

// DayGoals is the nutrition goal quad of a single slot.
type DayGoals struct {
	Calories Range `json:"calories" yaml:"calories"`
	Carbs    Range `json:"carbs" yaml:"carbs"`
	Fat      Range `json:"fat" yaml:"fat"`
	Protein  Range `json:"protein" yaml:"protein"`
}

// IsZero reports whether every range of g is {0, 0}.
func (g DayGoals) IsZero() bool {
	return g == DayGoals{}
}

// PlannedMeal places an opaque meal id into a (week, day) slot.
type PlannedMeal struct {
	Week string    `json:"week"`
	Day  DayOfWeek `json:"day"`
	ID   int       `json:"id"`
}

// PlannedGoal places a goal quad into a (week, day) slot.
type PlannedGoal struct {
	Week string    `json:"week"`
	Day  DayOfWeek `json:"day"`
	DayGoals
}

// WeekMeals holds the ordered meal ids of each day of one week.
type WeekMeals [DaysPerWeek][]int

// WeekGoals holds the goal quad of each day of one week.
type WeekGoals [DaysPerWeek]DayGoals

// Index is the nested week -> day -> ordered ids view of a plan.
type Index map[string]WeekMeals

// WeeklyTemplate replaces a whole week. Days left empty become empty.
// When Goals is non-nil the week's goals are replaced as well.
type WeeklyTemplate struct {
	Days  WeekMeals
	Goals *WeekGoals
}
