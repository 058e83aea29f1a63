package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"dinner-aide/internal/app"
	"dinner-aide/internal/menu"
	"dinner-aide/internal/planner"
	"dinner-aide/internal/preprocess"
	"dinner-aide/internal/shopping"
)

// referenceDate parses --date, defaulting to today in the configured timezone.
func referenceDate(a *app.App, raw string) (time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return a.Today(), nil
	}
	d, err := menu.ParseDate(raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --date %q (want YYYY-MM-DD): %w", raw, err)
	}
	return d, nil
}

func windowMode(fromToday bool) planner.WindowMode {
	if fromToday {
		return planner.ModeRolling
	}
	return planner.ModeNextWeek
}

func printPreprocess(out io.Writer, res preprocess.Result) {
	fmt.Fprintf(out, "Preprocessed %d logs, created %d history rows\n", res.ProcessedCount, res.CreatedCount)
	for _, e := range res.Errors {
		fmt.Fprintf(out, "  warning: %s\n", e)
	}
}

func newWeeklyCommand(ctx *commandContext) *cobra.Command {
	var date string
	var fromToday bool

	cmd := &cobra.Command{
		Use:   "weekly",
		Short: "Structure pending logs and plan the coming week",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, func(a *app.App) error {
				ref, err := referenceDate(a, date)
				if err != nil {
					return err
				}
				res, err := a.RunWeekly(cmd.Context(), ref, windowMode(fromToday))
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				printPreprocess(out, res.Preprocess)
				s := res.Schedule
				if s.Skipped {
					fmt.Fprintf(out, "Menu generation for %s skipped: %s\n", s.Window.Label(), s.SkipReason)
				} else {
					fmt.Fprintf(out, "Generated %d dishes for %s\n", s.GeneratedCount, s.Window.Label())
				}
				for _, e := range s.Errors {
					fmt.Fprintf(out, "  warning: %s\n", e)
				}
				if s.Failed() {
					return fmt.Errorf("menu generation failed: %s", s.SkipReason)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "Reference date (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&fromToday, "from-today", false, "Plan the seven days starting at the reference date")
	return cmd
}

func newDailyCommand(ctx *commandContext) *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "daily",
		Short: "Structure pending logs and send today's reminder",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, func(a *app.App) error {
				day, err := referenceDate(a, date)
				if err != nil {
					return err
				}
				res, err := a.RunDaily(cmd.Context(), day)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Preprocessed %d logs, created %d history rows\n", res.PreprocessedCount, res.StructuredCount)
				if !res.Sent {
					return fmt.Errorf("daily reminder not sent: %s", res.Error)
				}
				fmt.Fprintf(out, "Reminder sent (%d dishes planned)\n", res.MenuCount)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "Reminder date (YYYY-MM-DD)")
	return cmd
}

func newPreprocessCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "preprocess",
		Short: "Structure pending meal logs into history",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, func(a *app.App) error {
				printPreprocess(cmd.OutOrStdout(), a.Preprocess(cmd.Context()))
				return nil
			})
		},
	}
}

func newLogCommand(ctx *commandContext) *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "log <text>",
		Short: "Record what was eaten",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, func(a *app.App) error {
				day, err := referenceDate(a, date)
				if err != nil {
					return err
				}
				entry, err := a.LogMeal(cmd.Context(), day, strings.Join(args, " "))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Logged %s for %s\n", entry.ID, menu.FormatDate(entry.Date))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "Date eaten (YYYY-MM-DD)")
	return cmd
}

func newWeekCommand(ctx *commandContext) *cobra.Command {
	var date string
	var fromToday bool

	cmd := &cobra.Command{
		Use:   "week",
		Short: "Show the planned menu",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, func(a *app.App) error {
				ref, err := referenceDate(a, date)
				if err != nil {
					return err
				}
				w, entries, err := a.Week(cmd.Context(), ref, windowMode(fromToday))
				if err != nil {
					return err
				}
				fmt.Fprint(cmd.OutOrStdout(), renderWeek(w, entries, a.ShoppingDelimiter()))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "Reference date (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&fromToday, "from-today", false, "Show the seven days starting at the reference date")
	return cmd
}

func renderWeek(w planner.Window, entries []menu.ProposedEntry, delimiter string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Menu %s\n", w.Label())
	if len(entries) == 0 {
		b.WriteString("Nothing planned.\n")
		return b.String()
	}

	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			e.Date.Format("2006-01-02 Mon"),
			string(e.Category),
			e.DishName,
			string(e.Status),
			e.ID,
		})
	}
	b.WriteString(renderTable([]string{"Date", "Category", "Dish", "Status", "ID"}, rows, nil))
	b.WriteString("\n")

	if items := shopping.Aggregate(entries, delimiter); len(items) > 0 {
		fmt.Fprintf(&b, "\nShopping list: %s\n", strings.Join(items, ", "))
	}
	return b.String()
}

func newSetStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "set-status <id> <Proposed|Confirmed|EatingOut>",
		Short: "Change the status of a planned dish",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			status, ok := menu.ParseStatus(args[1])
			if !ok {
				return fmt.Errorf("unknown status %q", args[1])
			}
			return ctx.withApp(cmd, func(a *app.App) error {
				entry, err := a.SetStatus(cmd.Context(), args[0], status)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s (%s) is now %s\n", entry.DishName, menu.FormatDate(entry.Date), entry.Status)
				return nil
			})
		},
	}
}

func newTestCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "test",
		Short: "Check the database, the LLM provider and notifications",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, func(a *app.App) error {
				checks := a.TestConnections(cmd.Context())
				rows := make([][]string, 0, len(checks))
				failed := 0
				for _, c := range checks {
					status, detail := "OK", ""
					if !c.OK() {
						status, detail = "FAILED", c.Err.Error()
						failed++
					}
					rows = append(rows, []string{c.Name, status, detail})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Service", "Status", "Detail"}, rows, nil))
				if failed > 0 {
					return fmt.Errorf("%d connection checks failed", failed)
				}
				return nil
			})
		},
	}
}

func newResetCommand(ctx *commandContext) *cobra.Command {
	var tables []string
	var force bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete all data from the selected tables (development only)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !force {
				return errors.New("reset deletes data permanently; pass --force to confirm")
			}
			return ctx.withApp(cmd, func(a *app.App) error {
				deleted, err := a.Reset(cmd.Context(), tables)
				rows := make([][]string, 0, len(deleted))
				for _, t := range []string{app.TableProposed, app.TableRaw, app.TableStructured} {
					if n, ok := deleted[t]; ok {
						rows = append(rows, []string{t, fmt.Sprintf("%d", n)})
					}
				}
				if len(rows) > 0 {
					fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Table", "Deleted"}, rows, []columnAlignment{alignLeft, alignRight}))
				}
				return err
			})
		},
	}
	cmd.Flags().StringSliceVar(&tables, "tables", []string{app.TableAll}, "Tables to reset: proposed, raw, structured or all")
	cmd.Flags().BoolVar(&force, "force", false, "Confirm the deletion")
	return cmd
}

func newSeedCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert sample meal logs (development only)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, func(a *app.App) error {
				created, err := a.Seed(cmd.Context())
				for _, e := range created {
					fmt.Fprintf(cmd.OutOrStdout(), "Created %s %s: %s\n", e.ID, menu.FormatDate(e.Date), e.FreeText)
				}
				return err
			})
		},
	}
}

func newMetricsCleanupCommand(ctx *commandContext) *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "metrics-cleanup",
		Short: "Remove old LLM execution metrics",
		RunE: func(cmd *cobra.Command, args []string) error {
			if days < 0 {
				return fmt.Errorf("--days must not be negative")
			}
			return ctx.withApp(cmd, func(a *app.App) error {
				affected, err := a.CleanupMetrics(days)
				if err != nil {
					return fmt.Errorf("cleanup failed: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Successfully removed %d old metric records.\n", affected)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&days, "days", 30, "Keep records for the last N days")
	return cmd
}
