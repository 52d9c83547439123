// Package cli implements planctl, a command line client that edits a meal
// plan stored in a local SQLite file.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/fdg312/meal-planner/internal/auth"
	"github.com/fdg312/meal-planner/internal/config"
	"github.com/fdg312/meal-planner/internal/mealplans"
	"github.com/fdg312/meal-planner/internal/storage/sqlite"
	"github.com/fdg312/meal-planner/internal/templates"
)

var version = "dev"

var (
	groupTitleColor   = color.New(color.FgCyan, color.Bold)
	sectionTitleColor = color.New(color.FgBlue, color.Bold)
)

// SetVersion overrides the version reported by `planctl version`.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// options holds the persistent flags shared by every command.
type options struct {
	dbPath     string
	profile    string
	jsonOutput bool
}

// app is the set of services a command runs against.
type app struct {
	owner     string
	profile   string
	plans     *mealplans.Service
	templates *templates.Service
}

// run opens the database, builds the services and closes everything after fn.
func (o *options) run(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	db, err := sqlite.Open(o.dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	plans := mealplans.NewService(db.GetMealPlansStorage(), envLimit("PLAN_MAX_MEALS_PER_DAY"))
	a := &app{
		owner:     auth.DefaultUserID,
		profile:   o.profile,
		plans:     plans,
		templates: templates.NewService(db.GetTemplatesStorage(), plans, envLimit("TEMPLATES_MAX_PER_USER")),
	}
	return fn(cmd.Context(), a)
}

// NewRootCmd builds the planctl command tree.
func NewRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "planctl",
		Short: "Edit a weekly meal plan stored in a local SQLite file",
		Long: `planctl edits a meal plan kept in a local SQLite database.

Meals are opaque integer ids placed into (week, day) slots. Days accept
numbers (0 = Sunday) or names such as "mon" and "Monday".`,
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}
	rootCmd.SetHelpFunc(helpFunc)

	defaultDB := os.Getenv("SQLITE_PATH")
	if defaultDB == "" {
		defaultDB = config.DefaultSQLitePath
	}
	defaultProfile := os.Getenv("PLANCTL_PROFILE")
	if defaultProfile == "" {
		defaultProfile = "default"
	}

	rootCmd.PersistentFlags().StringVar(&opts.dbPath, "db", defaultDB, "Path to the SQLite plan database")
	rootCmd.PersistentFlags().StringVar(&opts.profile, "profile", defaultProfile, "Profile whose plan is edited")
	rootCmd.PersistentFlags().BoolVar(&opts.jsonOutput, "json", false, "Output in JSON format")

	rootCmd.AddGroup(&cobra.Group{ID: "plan", Title: "Plan:"})
	rootCmd.AddGroup(&cobra.Group{ID: "reuse", Title: "Templates & Exports:"})
	rootCmd.AddGroup(&cobra.Group{ID: "tooling", Title: "CLI & Tooling:"})

	for _, c := range []*cobra.Command{
		newShowCmd(opts),
		newAddCmd(opts),
		newRmCmd(opts),
		newMvCmd(opts),
		newClearCmd(opts),
		newGoalCmd(opts),
	} {
		c.GroupID = "plan"
		rootCmd.AddCommand(c)
	}
	for _, c := range []*cobra.Command{
		newTemplateCmd(opts),
		newExportCmd(opts),
	} {
		c.GroupID = "reuse"
		rootCmd.AddCommand(c)
	}

	rootCmd.AddCommand(&cobra.Command{
		Use:     "version",
		Short:   "Print the planctl version",
		Args:    cobra.NoArgs,
		GroupID: "tooling",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	})
	rootCmd.SetHelpCommandGroupID("tooling")

	return rootCmd
}

// Execute runs planctl with os.Args.
func Execute() error {
	return NewRootCmd().Execute()
}

// helpFunc prints help with colored group titles.
func helpFunc(cmd *cobra.Command, args []string) {
	out := cmd.OutOrStdout()

	if cmd.Long != "" {
		fmt.Fprintf(out, "%s\n\n", cmd.Long)
	} else if cmd.Short != "" {
		fmt.Fprintf(out, "%s\n\n", cmd.Short)
	}

	sectionTitleColor.Fprintln(out, "Usage:")
	fmt.Fprintf(out, "  %s\n\n", cmd.UseLine())

	for _, group := range cmd.Groups() {
		groupTitleColor.Fprintln(out, group.Title)
		for _, c := range cmd.Commands() {
			if c.GroupID == group.ID && c.IsAvailableCommand() {
				fmt.Fprintf(out, "  %-11s %s\n", c.Name(), c.Short)
			}
		}
		fmt.Fprintln(out)
	}

	hasUngrouped := false
	for _, c := range cmd.Commands() {
		if c.GroupID != "" || !c.IsAvailableCommand() {
			continue
		}
		if !hasUngrouped {
			sectionTitleColor.Fprintln(out, "Commands:")
			hasUngrouped = true
		}
		fmt.Fprintf(out, "  %-11s %s\n", c.Name(), c.Short)
	}
	if hasUngrouped {
		fmt.Fprintln(out)
	}

	if cmd.HasAvailableLocalFlags() || cmd.HasAvailableInheritedFlags() {
		sectionTitleColor.Fprintln(out, "Flags:")
		fmt.Fprint(out, cmd.LocalFlags().FlagUsages())
		fmt.Fprint(out, cmd.InheritedFlags().FlagUsages())
		fmt.Fprintln(out)
	}

	fmt.Fprintf(out, "Use \"%s [command] --help\" for more information about a command.\n", cmd.Root().CommandPath())
}
