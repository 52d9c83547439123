package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fdg312/meal-planner/internal/exports"
	"github.com/fdg312/meal-planner/internal/mealplans"
	"github.com/fdg312/meal-planner/internal/storage"
)

func newExportCmd(opts *options) *cobra.Command {
	var format, output string

	cmd := &cobra.Command{
		Use:   "export WEEK",
		Short: "Render a week as CSV or PDF",
		Long: `Render a week as CSV or PDF. Without -o the file is named
mealplan_<week>.<format>; "-o -" writes to stdout.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format = strings.ToLower(strings.TrimSpace(format))
			if format != exports.FormatCSV && format != exports.FormatPDF {
				return fmt.Errorf("%w: %q", exports.ErrInvalidFormat, format)
			}

			return opts.run(cmd, func(ctx context.Context, a *app) error {
				week, err := a.plans.GetWeek(ctx, a.owner, mealplans.WeekRef{ProfileID: a.profile, Week: args[0]})
				if err != nil {
					return err
				}
				data, err := exports.Render(week, format)
				if err != nil {
					return err
				}

				if output == "-" {
					_, err := cmd.OutOrStdout().Write(data)
					return err
				}
				if output == "" {
					output = exports.Filename(&storage.ExportMeta{Week: week.Week, Format: format})
				}
				if err := os.WriteFile(output, data, 0o644); err != nil {
					return fmt.Errorf("write %s: %w", output, err)
				}

				out := cmd.OutOrStdout()
				if opts.jsonOutput {
					return outputJSON(out, map[string]any{"file": output, "format": format, "size_bytes": len(data)})
				}
				printSuccess(out, "Wrote %s (%d bytes)", output, len(data))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&format, "format", exports.FormatCSV, "Output format: csv or pdf")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file")
	return cmd
}
