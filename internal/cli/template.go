package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/fdg312/meal-planner/internal/mealplans"
	"github.com/fdg312/meal-planner/internal/templates"
)

func newTemplateCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "template",
		Aliases: []string{"tpl"},
		Short:   "Manage reusable daily and weekly templates",
	}
	cmd.AddCommand(
		newTemplateImportCmd(opts),
		newTemplateLsCmd(opts),
		newTemplateApplyCmd(opts),
		newTemplateExportCmd(opts),
		newTemplateRmCmd(opts),
	)
	return cmd
}

func newTemplateImportCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE.yaml",
		Short: "Create a template from a YAML document",
		Long: `Create a template from a YAML document, for example:

  name: Workday
  kind: daily
  meal_ids: [12, 40, 7]

or

  name: Cutting week
  kind: weekly
  days:
    mon: [1, 2]
    fri: [3]
  goals:
    mon:
      calories: {min: 1800, max: 2100}`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			doc, err := templates.ParseYAML(data)
			if err != nil {
				return err
			}

			return opts.run(cmd, func(ctx context.Context, a *app) error {
				dto, err := a.templates.Create(ctx, a.owner, doc)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if opts.jsonOutput {
					return outputJSON(out, dto)
				}
				printSuccess(out, "Imported %s template %q", dto.Kind, dto.Name)
				printLabelValue(out, "ID", dto.ID)
				return nil
			})
		},
	}
}

func newTemplateLsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "ls",
		Short: "List templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context, a *app) error {
				list, err := a.templates.List(ctx, a.owner)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if opts.jsonOutput {
					return outputJSON(out, templates.ListTemplatesResponse{Templates: list})
				}

				printSection(out, "Templates")
				if len(list) == 0 {
					printEmptyState(out, "No templates found")
					return nil
				}
				rows := make([][]string, 0, len(list))
				for _, t := range list {
					rows = append(rows, []string{t.ID, t.Name, t.Kind, templateSummary(t)})
				}
				printTable(out, []string{"ID", "Name", "Kind", "Meals"}, rows)
				return nil
			})
		},
	}
}

func newTemplateApplyCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "apply NAME|ID WEEK [DAY]",
		Short: "Apply a template to a week (weekly) or a day (daily)",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := templates.ApplyRequest{Week: args[1]}
			if len(args) == 3 {
				day, err := parseDay(args[2])
				if err != nil {
					return err
				}
				req.Day = &day
			}

			return opts.run(cmd, func(ctx context.Context, a *app) error {
				tmpl, err := a.templates.Resolve(ctx, a.owner, args[0])
				if err != nil {
					return fmt.Errorf("template %q: %w", args[0], err)
				}
				req.ProfileID = a.profile
				result, err := a.templates.Apply(ctx, a.owner, tmpl, req)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if opts.jsonOutput {
					return outputJSON(out, result)
				}
				printSuccess(out, "Applied %q to %s", tmpl.Name, req.Week)
				switch view := result.(type) {
				case *mealplans.DayView:
					printDay(out, *view)
				case *mealplans.WeekView:
					printWeek(out, *view)
				}
				return nil
			})
		},
	}
}

func newTemplateExportCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "export NAME|ID",
		Short: "Print a template as YAML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context, a *app) error {
				tmpl, err := a.templates.Resolve(ctx, a.owner, args[0])
				if err != nil {
					return fmt.Errorf("template %q: %w", args[0], err)
				}
				if opts.jsonOutput {
					return outputJSON(cmd.OutOrStdout(), tmpl)
				}
				data, err := templates.MarshalYAML(tmpl.Document)
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(data)
				return err
			})
		},
	}
}

func newTemplateRmCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "rm NAME|ID",
		Short: "Delete a template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context, a *app) error {
				tmpl, err := a.templates.Resolve(ctx, a.owner, args[0])
				if err != nil {
					return fmt.Errorf("template %q: %w", args[0], err)
				}
				id, err := uuid.Parse(tmpl.ID)
				if err != nil {
					return err
				}
				if err := a.templates.Delete(ctx, a.owner, id); err != nil {
					return err
				}
				printSuccess(cmd.OutOrStdout(), "Deleted template %q", tmpl.Name)
				return nil
			})
		},
	}
}

func templateSummary(t templates.TemplateDTO) string {
	if t.Kind == templates.KindDaily {
		return joinIDs(t.MealIDs)
	}
	n := 0
	for _, ids := range t.Days {
		n += len(ids)
	}
	return strconv.Itoa(len(t.Days)) + " days, " + strconv.Itoa(n) + " meals"
}
