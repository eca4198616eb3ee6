package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/horacerta/timeclock/api"
	"github.com/horacerta/timeclock/clock"
	"github.com/horacerta/timeclock/config"
	"github.com/horacerta/timeclock/export"
	"github.com/horacerta/timeclock/logging"
	"github.com/horacerta/timeclock/store/sqlite"
	"github.com/horacerta/timeclock/timesheet"
)

// environment is what every command runs against.
type environment struct {
	Config  *config.Config
	Logger  *zap.Logger
	Store   *sqlite.Store
	Service *timesheet.Service
}

func openEnvironment(configPath string) (*environment, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, err
	}
	store, err := sqlite.New(cfg.DB.Path, sqlite.WithLogger(logger.Named("sqlite")))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return &environment{
		Config:  cfg,
		Logger:  logger,
		Store:   store,
		Service: timesheet.NewService(store, store, logger.Named("timesheet")),
	}, nil
}

func (e *environment) Close() {
	e.Store.Close()
	_ = e.Logger.Sync()
}

type envFunc func() (*environment, error)

// =============================================================================
// USERS
// =============================================================================

func newUsersCmd(open envFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "users",
		Short: "List users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := open()
			if err != nil {
				return err
			}
			defer env.Close()

			users, err := env.Store.ListUsers(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tEMAIL")
			for _, u := range users {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", u.ID, u.Name, u.Email)
			}
			return tw.Flush()
		},
	}
}

// =============================================================================
// REPORT
// =============================================================================

func newReportCmd(open envFunc) *cobra.Command {
	var userID, month string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print the monthly report of a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := open()
			if err != nil {
				return err
			}
			defer env.Close()

			key := env.Service.Today().MonthKey()
			if month != "" {
				if key, err = clock.ParseMonthKey(month); err != nil {
					return err
				}
			}
			id := clock.UserID(userID)
			if _, err := env.Store.GetUser(cmd.Context(), id); err != nil {
				return err
			}
			report, err := env.Service.MonthlyReport(cmd.Context(), id, key)
			if err != nil {
				return err
			}
			return printReport(cmd.OutOrStdout(), report)
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "user ID")
	cmd.Flags().StringVar(&month, "month", "", "month as YYYY-MM (default: current month)")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func printReport(w io.Writer, r timesheet.MonthlyReport) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Month\t%s\n", r.Month)
	fmt.Fprintf(tw, "Worked days\t%d\n", r.WorkedDays)
	fmt.Fprintf(tw, "Total\t%s\n", clock.FormatDuration(r.Total))
	fmt.Fprintf(tw, "Daily average\t%s\n", clock.FormatDuration(r.Average))
	fmt.Fprintf(tw, "Balance\t%s\n", clock.FormatBalance(r.Balance))
	fmt.Fprintln(tw)

	fmt.Fprintln(tw, "DATE\tENTRY\tLUNCH OUT\tLUNCH RETURN\tEXIT\tTOTAL\tBALANCE")
	for _, row := range clock.BuildExportRows(r.Days) {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			row.Date, row.Entry, row.LunchOut, row.LunchReturn, row.Exit, row.TotalFormatted, row.BalanceFormatted)
	}
	return tw.Flush()
}

// =============================================================================
// EXPORT
// =============================================================================

func newExportCmd(open envFunc) *cobra.Command {
	var userID, from, to, out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a user's records to an .xlsx workbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			period, err := parsePeriod(from, to)
			if err != nil {
				return err
			}

			env, err := open()
			if err != nil {
				return err
			}
			defer env.Close()

			id := clock.UserID(userID)
			u, err := env.Store.GetUser(cmd.Context(), id)
			if err != nil {
				return err
			}
			if out == "" {
				out = export.Filename(id, period)
			}

			f, err := os.Create(out)
			if err != nil {
				return err
			}
			sink := export.NewWorkbook(f, u.Name, env.Logger)
			if err := env.Service.Export(cmd.Context(), id, period, sink); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "user ID")
	cmd.Flags().StringVar(&from, "from", "", "first day, YYYY-MM-DD")
	cmd.Flags().StringVar(&to, "to", "", "last day, YYYY-MM-DD")
	cmd.Flags().StringVarP(&out, "output", "o", "", "output file (default: derived from user and range)")
	_ = cmd.MarkFlagRequired("user")
	cmd.MarkFlagsRequiredTogether("from", "to")
	return cmd
}

func parsePeriod(from, to string) (clock.Period, error) {
	if from == "" && to == "" {
		return clock.Period{}, nil
	}
	start, err := clock.ParseDate(from)
	if err != nil {
		return clock.Period{}, err
	}
	end, err := clock.ParseDate(to)
	if err != nil {
		return clock.Period{}, err
	}
	if end.Before(start) {
		return clock.Period{}, fmt.Errorf("--to %s is before --from %s", to, from)
	}
	return clock.Period{Start: start, End: end}, nil
}

// =============================================================================
// AUDIT
// =============================================================================

func newAuditCmd(open envFunc) *cobra.Command {
	var lookback int

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "List past days left open, once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := open()
			if err != nil {
				return err
			}
			defer env.Close()

			auditor := api.NewOpenDayAuditor(env.Store, env.Service, env.Logger)
			auditor.LookbackDays = env.Config.Auditor.LookbackDays
			if cmd.Flags().Changed("lookback") {
				auditor.LookbackDays = lookback
			}

			report, err := auditor.Audit(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "USER\tDATE\tMISSING")
			for _, d := range report.Open {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", d.UserID, d.Date, d.Missing)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVar(&lookback, "lookback", 0, "days to look back; 0 means no limit (default: auditor.lookback_days)")
	return cmd
}
