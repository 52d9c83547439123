package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/fdg312/meal-planner/internal/mealplans"
)

func newGoalCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "goal",
		Short: "Set or remove nutrition goals of a day",
	}
	cmd.AddCommand(newGoalSetCmd(opts), newGoalRmCmd(opts))
	return cmd
}

func newGoalSetCmd(opts *options) *cobra.Command {
	var calories, carbs, fat, protein string

	cmd := &cobra.Command{
		Use:   "set WEEK DAY",
		Short: "Replace the goals of a day",
		Long: `Replace the goals of a day. Each range is "min:max"; a single
number sets both bounds. Ranges that are not given are reset to 0:0.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := parseDay(args[1])
			if err != nil {
				return err
			}

			req := mealplans.SetGoalRequest{
				Slot: mealplans.Slot{Week: args[0], Day: day},
			}
			if req.Calories, err = parseRange(calories); err != nil {
				return err
			}
			if req.Carbs, err = parseRange(carbs); err != nil {
				return err
			}
			if req.Fat, err = parseRange(fat); err != nil {
				return err
			}
			if req.Protein, err = parseRange(protein); err != nil {
				return err
			}

			return opts.run(cmd, func(ctx context.Context, a *app) error {
				req.ProfileID = a.profile
				view, err := a.plans.SetGoal(ctx, a.owner, req)
				if err != nil {
					return err
				}
				return reportDay(cmd, opts, *view, "Goals set for %s %s", view.Week, view.DayName)
			})
		},
	}

	cmd.Flags().StringVar(&calories, "calories", "", "Calories range min:max")
	cmd.Flags().StringVar(&carbs, "carbs", "", "Carbohydrates range min:max")
	cmd.Flags().StringVar(&fat, "fat", "", "Fat range min:max")
	cmd.Flags().StringVar(&protein, "protein", "", "Protein range min:max")
	return cmd
}

func newGoalRmCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "rm WEEK DAY",
		Short: "Reset the goals of a day",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := parseDay(args[1])
			if err != nil {
				return err
			}
			return opts.run(cmd, func(ctx context.Context, a *app) error {
				view, err := a.plans.RemoveGoal(ctx, a.owner, mealplans.Slot{ProfileID: a.profile, Week: args[0], Day: day})
				if err != nil {
					return err
				}
				return reportDay(cmd, opts, *view, "Goals removed from %s %s", view.Week, view.DayName)
			})
		},
	}
}
