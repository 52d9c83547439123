package exports

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"github.com/fdg312/meal-planner/internal/mealplans"
	"github.com/fdg312/meal-planner/internal/planstore"
	"github.com/jung-kurt/gofpdf"
)

// Render encodes a week view in the requested format.
func Render(week *mealplans.WeekView, format string) ([]byte, error) {
	switch format {
	case FormatCSV:
		return renderCSV(week)
	case FormatPDF:
		return renderPDF(week)
	default:
		return nil, ErrInvalidFormat
	}
}

var csvHeader = []string{"record", "week", "day", "day_name", "position", "meal_id", "metric", "min", "max"}

// renderCSV writes one "meal" row per planned meal in day order, then one
// "goal" row per non-zero goal metric.
func renderCSV(week *mealplans.WeekView) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(csvHeader); err != nil {
		return nil, err
	}

	for _, day := range week.Days {
		for pos, id := range day.MealIDs {
			row := []string{"meal", week.Week, strconv.Itoa(day.Day), day.DayName, strconv.Itoa(pos), strconv.Itoa(id), "", "", ""}
			if err := w.Write(row); err != nil {
				return nil, err
			}
		}
	}

	for _, day := range week.Days {
		for _, m := range goalMetrics(day.Goals) {
			row := []string{"goal", week.Week, strconv.Itoa(day.Day), day.DayName, "", "", m.name,
				formatAmount(m.r.Min), formatAmount(m.r.Max)}
			if err := w.Write(row); err != nil {
				return nil, err
			}
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("write csv: %w", err)
	}
	return buf.Bytes(), nil
}

type metric struct {
	name string
	r    planstore.Range
}

func goalMetrics(g planstore.DayGoals) []metric {
	all := []metric{
		{"calories", g.Calories},
		{"carbs", g.Carbs},
		{"fat", g.Fat},
		{"protein", g.Protein},
	}
	out := all[:0]
	for _, m := range all {
		if m.r != (planstore.Range{}) {
			out = append(out, m)
		}
	}
	return out
}

// renderPDF draws a one-page table: a row per day with its meal ids and goals.
// Core Helvetica is enough, the content is ASCII.
func renderPDF(week *mealplans.WeekView) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Meal plan "+week.Week, false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, "Meal plan")
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Week: %s    Meals: %d", week.Week, len(week.MealIDs)))
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(30, 7, "Day", "1", 0, "C", false, 0, "")
	pdf.CellFormat(80, 7, "Meals", "1", 0, "C", false, 0, "")
	pdf.CellFormat(80, 7, "Goals", "1", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	for _, day := range week.Days {
		pdf.CellFormat(30, 7, day.DayName, "1", 0, "L", false, 0, "")
		pdf.CellFormat(80, 7, truncate(joinIDs(day.MealIDs), 60), "1", 0, "L", false, 0, "")
		pdf.CellFormat(80, 7, truncate(formatGoals(day.Goals), 60), "1", 1, "L", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func joinIDs(ids []int) string {
	if len(ids) == 0 {
		return "-"
	}
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, ", ")
}

func formatGoals(g planstore.DayGoals) string {
	metrics := goalMetrics(g)
	if len(metrics) == 0 {
		return "-"
	}
	parts := make([]string, len(metrics))
	for i, m := range metrics {
		parts[i] = fmt.Sprintf("%s %s-%s", m.name, formatAmount(m.r.Min), formatAmount(m.r.Max))
	}
	return strings.Join(parts, "; ")
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
