package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/fdg312/meal-planner/internal/mealplans"
)

func newShowCmd(opts *options) *cobra.Command {
	var week, day string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the plan, one week or one day",
		Long: `Show the whole plan grouped by week, a single week with --week,
or a single day with --week and --day.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if day != "" && week == "" {
				return errors.New("--day requires --week")
			}
			out := cmd.OutOrStdout()

			return opts.run(cmd, func(ctx context.Context, a *app) error {
				switch {
				case day != "":
					d, err := parseDay(day)
					if err != nil {
						return err
					}
					view, err := a.plans.GetDay(ctx, a.owner, mealplans.Slot{ProfileID: a.profile, Week: week, Day: d})
					if err != nil {
						return err
					}
					if opts.jsonOutput {
						return outputJSON(out, view)
					}
					printDay(out, *view)

				case week != "":
					view, err := a.plans.GetWeek(ctx, a.owner, mealplans.WeekRef{ProfileID: a.profile, Week: week})
					if err != nil {
						return err
					}
					if opts.jsonOutput {
						return outputJSON(out, view)
					}
					printWeek(out, *view)

				default:
					plan, err := a.plans.GetPlan(ctx, a.owner, a.profile)
					if err != nil {
						return err
					}
					if opts.jsonOutput {
						return outputJSON(out, plan)
					}
					if len(plan.Weeks) == 0 {
						printSection(out, "Plan "+a.profile)
						printEmptyState(out, "No meals planned")
						return nil
					}
					for _, w := range plan.Weeks {
						view, err := a.plans.GetWeek(ctx, a.owner, mealplans.WeekRef{ProfileID: a.profile, Week: w})
						if err != nil {
							return err
						}
						printWeek(out, *view)
					}
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&week, "week", "", "Week to show")
	cmd.Flags().StringVar(&day, "day", "", "Day to show (requires --week)")
	return cmd
}

func newAddCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "add WEEK DAY MEAL_ID...",
		Short: "Append meals to a day",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := parseDay(args[1])
			if err != nil {
				return err
			}
			ids, err := parseInts(args[2:], "meal id")
			if err != nil {
				return err
			}

			return opts.run(cmd, func(ctx context.Context, a *app) error {
				view, err := a.plans.AddMeals(ctx, a.owner, mealplans.AddMealRequest{
					Slot:    mealplans.Slot{ProfileID: a.profile, Week: args[0], Day: day},
					MealIDs: ids,
				})
				if err != nil {
					return err
				}
				return reportDay(cmd, opts, *view, "Added %d meal(s) to %s %s", len(ids), view.Week, view.DayName)
			})
		},
	}
}

func newRmCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "rm WEEK DAY POSITION",
		Short: "Remove the meal at a position of a day",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := parseDay(args[1])
			if err != nil {
				return err
			}
			position, err := strconv.Atoi(args[2])
			if err != nil {
				return fmt.Errorf("invalid position %q", args[2])
			}

			return opts.run(cmd, func(ctx context.Context, a *app) error {
				resp, err := a.plans.RemoveMeal(ctx, a.owner, mealplans.Slot{ProfileID: a.profile, Week: args[0], Day: day}, position)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if opts.jsonOutput {
					return outputJSON(out, resp)
				}
				if !resp.Removed {
					printEmptyState(out, fmt.Sprintf("Nothing at position %d", position))
					return nil
				}
				printSuccess(out, "Removed meal %d", *resp.MealID)
				printDay(out, resp.Day)
				return nil
			})
		},
	}
}

func newMvCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "mv WEEK DAY FROM TO",
		Short: "Move a meal to another position within its day",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := parseDay(args[1])
			if err != nil {
				return err
			}
			pos, err := parseInts(args[2:], "position")
			if err != nil {
				return err
			}

			return opts.run(cmd, func(ctx context.Context, a *app) error {
				resp, err := a.plans.ReorderMeal(ctx, a.owner, mealplans.ReorderMealRequest{
					Slot: mealplans.Slot{ProfileID: a.profile, Week: args[0], Day: day},
					From: pos[0],
					To:   pos[1],
				})
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if opts.jsonOutput {
					return outputJSON(out, resp)
				}
				if !resp.Moved {
					printEmptyState(out, "Nothing moved")
					return nil
				}
				printSuccess(out, "Order: %s", joinIDs(resp.MealIDs))
				return nil
			})
		},
	}
}

func newClearCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Clear a day, a week or the whole plan",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "day WEEK DAY",
		Short: "Remove every meal of a day",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := parseDay(args[1])
			if err != nil {
				return err
			}
			return opts.run(cmd, func(ctx context.Context, a *app) error {
				view, err := a.plans.ClearDay(ctx, a.owner, mealplans.Slot{ProfileID: a.profile, Week: args[0], Day: day})
				if err != nil {
					return err
				}
				return reportDay(cmd, opts, *view, "Cleared %s %s", view.Week, view.DayName)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "week WEEK",
		Short: "Remove every meal of a week",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context, a *app) error {
				view, err := a.plans.ClearWeek(ctx, a.owner, mealplans.WeekRef{ProfileID: a.profile, Week: args[0]})
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if opts.jsonOutput {
					return outputJSON(out, view)
				}
				printSuccess(out, "Cleared week %s", view.Week)
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "plan",
		Short: "Delete the whole plan of the profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context, a *app) error {
				if err := a.plans.ClearPlan(ctx, a.owner, a.profile); err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if opts.jsonOutput {
					return outputJSON(out, map[string]bool{"cleared": true})
				}
				printSuccess(out, "Cleared plan of %s", a.profile)
				return nil
			})
		},
	})

	return cmd
}

// reportDay prints the day as JSON or as a success line plus the day table.
func reportDay(cmd *cobra.Command, opts *options, view mealplans.DayView, format string, args ...any) error {
	out := cmd.OutOrStdout()
	if opts.jsonOutput {
		return outputJSON(out, view)
	}
	printSuccess(out, format, args...)
	printDay(out, view)
	return nil
}
