package planstore

func (s *Store) goalWeek(label string) *WeekGoals {
	g, ok := s.goals[label]
	if !ok {
		g = &WeekGoals{}
		s.goals[label] = g
		s.goalWeeks = append(s.goalWeeks, label)
	}
	return g
}

// GoalsByDay returns the goals of one slot, or the zero quad when none are recorded.
func (s *Store) GoalsByDay(week string, day DayOfWeek) DayGoals {
	g, ok := s.goals[week]
	if !ok || !day.Valid() {
		return DayGoals{}
	}
	return g[day]
}

// GoalsByWeek returns the seven day goals of week, or an empty slice for an unknown week.
func (s *Store) GoalsByWeek(week string) []DayGoals {
	g, ok := s.goals[week]
	if !ok {
		return []DayGoals{}
	}
	return append([]DayGoals{}, g[:]...)
}

// SetGoal overwrites the goals of the goal's slot.
func (s *Store) SetGoal(goal PlannedGoal) {
	if !goal.Day.Valid() {
		return
	}
	s.goalWeek(goal.Week)[goal.Day] = goal.DayGoals
}

// RemoveGoal resets one slot to the zero quad.
func (s *Store) RemoveGoal(week string, day DayOfWeek) {
	g, ok := s.goals[week]
	if !ok || !day.Valid() {
		return
	}
	g[day] = DayGoals{}
}

// ClearWeekGoals resets every day of week to the zero quad.
func (s *Store) ClearWeekGoals(week string) {
	if g, ok := s.goals[week]; ok {
		*g = WeekGoals{}
	}
}

// Goals flattens the non-zero goals in goal-week order, then Sunday..Saturday.
func (s *Store) Goals() []PlannedGoal {
	out := []PlannedGoal{}
	for _, label := range s.goalWeeks {
		g := s.goals[label]
		for d := range g {
			if g[d].IsZero() {
				continue
			}
			out = append(out, PlannedGoal{Week: label, Day: DayOfWeek(d), DayGoals: g[d]})
		}
	}
	return out
}
