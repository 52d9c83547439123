package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"

	"github.com/fdg312/meal-planner/internal/mealplans"
	"github.com/fdg312/meal-planner/internal/planstore"
)

var (
	successColor = color.New(color.FgGreen, color.Bold)
	headerColor  = color.New(color.FgBlue, color.Bold)
	labelColor   = color.New(color.FgWhite, color.Bold)
	valueColor   = color.New(color.FgHiBlack)
	dimColor     = color.New(color.FgHiBlack)
)

func printSection(w io.Writer, title string) {
	fmt.Fprintln(w)
	headerColor.Fprintf(w, "▸ %s\n", title)
	fmt.Fprintln(w)
}

func printSuccess(w io.Writer, format string, args ...any) {
	successColor.Fprintf(w, "✓ %s\n", fmt.Sprintf(format, args...))
}

func printEmptyState(w io.Writer, msg string) {
	dimColor.Fprintf(w, "  %s\n", msg)
}

func printLabelValue(w io.Writer, label, value string) {
	labelColor.Fprintf(w, "  %s: ", label)
	valueColor.Fprintln(w, value)
}

// printTable prints left-aligned columns with a header row.
func printTable(w io.Writer, headers []string, rows [][]string) {
	if len(headers) == 0 || len(rows) == 0 {
		return
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	fmt.Fprint(w, "  ")
	for i, h := range headers {
		if i > 0 {
			fmt.Fprint(w, "  ")
		}
		headerColor.Fprintf(w, "%-*s", widths[i], h)
	}
	fmt.Fprintln(w)

	fmt.Fprint(w, "  ")
	for i, width := range widths {
		if i > 0 {
			fmt.Fprint(w, "  ")
		}
		fmt.Fprint(w, strings.Repeat("-", width))
	}
	fmt.Fprintln(w)

	for _, row := range rows {
		fmt.Fprint(w, "  ")
		for i, cell := range row {
			if i >= len(widths) {
				break
			}
			if i > 0 {
				fmt.Fprint(w, "  ")
			}
			valueColor.Fprintf(w, "%-*s", widths[i], cell)
		}
		fmt.Fprintln(w)
	}
}

func outputJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printDay(w io.Writer, day mealplans.DayView) {
	printSection(w, fmt.Sprintf("%s / %s", day.Week, day.DayName))
	if len(day.MealIDs) == 0 {
		printEmptyState(w, "No meals planned")
	} else {
		rows := make([][]string, 0, len(day.MealIDs))
		for i, id := range day.MealIDs {
			rows = append(rows, []string{strconv.Itoa(i), strconv.Itoa(id)})
		}
		printTable(w, []string{"Position", "Meal"}, rows)
	}
	if !day.Goals.IsZero() {
		fmt.Fprintln(w)
		printGoals(w, day.Goals)
	}
}

func printWeek(w io.Writer, week mealplans.WeekView) {
	printSection(w, "Week "+week.Week)
	rows := make([][]string, 0, len(week.Days))
	for _, day := range week.Days {
		rows = append(rows, []string{day.DayName, joinIDs(day.MealIDs), goalsSummary(day.Goals)})
	}
	printTable(w, []string{"Day", "Meals", "Goals"}, rows)
}

func printGoals(w io.Writer, g planstore.DayGoals) {
	printLabelValue(w, "Calories", formatRange(g.Calories))
	printLabelValue(w, "Carbs", formatRange(g.Carbs))
	printLabelValue(w, "Fat", formatRange(g.Fat))
	printLabelValue(w, "Protein", formatRange(g.Protein))
}

func goalsSummary(g planstore.DayGoals) string {
	if g.IsZero() {
		return "-"
	}
	var parts []string
	for _, m := range []struct {
		name string
		r    planstore.Range
	}{
		{"kcal", g.Calories}, {"carbs", g.Carbs}, {"fat", g.Fat}, {"protein", g.Protein},
	} {
		if m.r != (planstore.Range{}) {
			parts = append(parts, m.name+" "+formatRange(m.r))
		}
	}
	return strings.Join(parts, ", ")
}

func formatRange(r planstore.Range) string {
	return strconv.FormatFloat(r.Min, 'f', -1, 64) + ":" + strconv.FormatFloat(r.Max, 'f', -1, 64)
}

func joinIDs(ids []int) string {
	if len(ids) == 0 {
		return "-"
	}
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, " ")
}

// parseDay accepts 0..6 or a day name.
func parseDay(s string) (int, error) {
	d, err := planstore.ParseDayOfWeek(s)
	if err != nil {
		return 0, err
	}
	return int(d), nil
}

func parseInts(args []string, what string) ([]int, error) {
	out := make([]int, 0, len(args))
	for _, a := range args {
		n, err := strconv.Atoi(a)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: must be an integer", what, a)
		}
		out = append(out, n)
	}
	return out, nil
}

// parseRange parses "min:max"; a single number sets both bounds.
func parseRange(s string) (planstore.Range, error) {
	if s == "" {
		return planstore.Range{}, nil
	}
	minStr, maxStr, found := strings.Cut(s, ":")
	if !found {
		maxStr = minStr
	}
	lo, err := strconv.ParseFloat(strings.TrimSpace(minStr), 64)
	if err != nil {
		return planstore.Range{}, fmt.Errorf("invalid range %q: expected min:max", s)
	}
	hi, err := strconv.ParseFloat(strings.TrimSpace(maxStr), 64)
	if err != nil {
		return planstore.Range{}, fmt.Errorf("invalid range %q: expected min:max", s)
	}
	return planstore.Range{Min: lo, Max: hi}, nil
}

// envLimit reads a positive int from the environment; 0 selects the service default.
func envLimit(key string) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil || n < 0 {
		return 0
	}
	return n
}
