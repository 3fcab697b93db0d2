package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/sessioncut/internal/calendar"
	"github.com/verte-zerg/sessioncut/internal/model"
	"github.com/verte-zerg/sessioncut/internal/report"
	"github.com/verte-zerg/sessioncut/internal/sessionsui"
)

const defaultCurveWindow = 5

var (
	listInventory   int
	listStatus      string
	listSince       string
	listLimit       int
	listShow        string
	listRuns        int
	listCurveWindow int

	calDate   string
	calYear   int
	calMapper string
)

func addFilterFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&listInventory, "inventory", 0, "inventory filter")
	cmd.Flags().StringVar(&listStatus, "status", "", "date status filter (normal, set_back, quarantined)")
	cmd.Flags().StringVar(&listSince, "since", "", "first session date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&listLimit, "limit", 0, "limit to N sessions")
}

func newSessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List stored sessions",
		Args:  cobra.NoArgs,
		RunE:  runSessionsCmd,
	}
	addFilterFlags(cmd)
	cmd.Flags().StringVar(&listShow, "show", "", "print one session with its evidence and lines")
	cmd.Flags().IntVar(&listRuns, "runs", 5, "number of recent runs to list")
	cmd.Flags().IntVar(&listCurveWindow, "curve-window", defaultCurveWindow, "moving average window for the line curve")
	return cmd
}

func newBrowseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse stored sessions",
		Args:  cobra.NoArgs,
		RunE:  runBrowseCmd,
	}
	addFilterFlags(cmd)
	return cmd
}

func sessionFilter() (model.SessionFilter, error) {
	status := model.DateShiftStatus(strings.TrimSpace(listStatus))
	switch status {
	case "", model.StatusNormal, model.StatusSetBack, model.StatusQuarantined:
	default:
		return model.SessionFilter{}, fmt.Errorf("invalid --status value %q", listStatus)
	}
	if listSince != "" {
		if _, err := time.Parse(time.DateOnly, listSince); err != nil {
			return model.SessionFilter{}, fmt.Errorf("invalid --since value: %w", err)
		}
	}
	if listLimit < 0 {
		return model.SessionFilter{}, fmt.Errorf("--limit must be >= 0")
	}
	return model.SessionFilter{
		Inventory: listInventory,
		Status:    status,
		Since:     listSince,
		Limit:     listLimit,
	}, nil
}

func runSessionsCmd(cmd *cobra.Command, _ []string) error {
	filter, err := sessionFilter()
	if err != nil {
		return err
	}
	fileCfg, err := loadFileConfig()
	if err != nil {
		return err
	}
	st, err := openStore(fileCfg)
	if err != nil {
		return err
	}
	defer closeStore(st)

	ctx := context.Background()
	out := cmd.OutOrStdout()
	if listShow != "" {
		s, err := st.GetSession(ctx, listShow)
		if err != nil {
			return fmt.Errorf("failed to load session: %w", err)
		}
		return report.RenderSession(out, s)
	}

	rep, err := report.BuildReport(ctx, st, filter, listRuns)
	if err != nil {
		return fmt.Errorf("failed to load sessions: %w", err)
	}
	if err := report.RenderSummary(out, rep.Summary); err != nil {
		return err
	}
	if err := report.RenderLineCurve(out, rep.Sessions, listCurveWindow, 0); err != nil {
		return err
	}
	if err := report.RenderSessions(out, rep.Sessions); err != nil {
		return err
	}
	if len(rep.Runs) > 0 {
		if _, err := fmt.Fprintln(out, ""); err != nil {
			return err
		}
	}
	return report.RenderRuns(out, rep.Runs)
}

func runBrowseCmd(_ *cobra.Command, _ []string) error {
	filter, err := sessionFilter()
	if err != nil {
		return err
	}
	fileCfg, err := loadFileConfig()
	if err != nil {
		return err
	}
	st, err := openStore(fileCfg)
	if err != nil {
		return err
	}
	defer closeStore(st)

	program := tea.NewProgram(sessionsui.NewModel(st, filter), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run session browser: %w", err)
	}
	return nil
}

func newCalendarCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "calendar",
		Short: "Show how a date is named and whether the assembly sat",
		Args:  cobra.NoArgs,
		RunE:  runCalendarCmd,
	}
	cmd.Flags().StringVar(&calDate, "date", "", "date to describe (YYYY-MM-DD)")
	cmd.Flags().IntVar(&calYear, "year", 0, "list the holidays of a year")
	cmd.Flags().StringVar(&calMapper, "mapper", "printed", "date name mapper (printed, handwritten)")
	return cmd
}

func runCalendarCmd(cmd *cobra.Command, _ []string) error {
	if (calDate == "") == (calYear == 0) {
		return fmt.Errorf("exactly one of --date and --year is required")
	}
	fileCfg, err := loadFileConfig()
	if err != nil {
		return err
	}
	cal, err := fileCfg.Calendar(calMapper)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if calYear != 0 {
		return describeYear(out, cal, calYear)
	}
	d, err := cal.ParseISO(calDate)
	if err != nil {
		return err
	}
	return describeDate(out, d)
}

func describeDate(w io.Writer, d calendar.Date) error {
	lines := []string{
		fmt.Sprintf("Date: %s", d.ISO()),
		fmt.Sprintf("Weekday: %s", d.WeekdayName()),
		fmt.Sprintf("Month: %s", d.MonthName()),
	}
	if h, ok := d.Holiday(); ok {
		lines = append(lines, "Holiday: "+h.Name)
	}
	if d.IsWorkday() {
		lines = append(lines, "Workday: yes")
	} else {
		lines = append(lines, fmt.Sprintf("Workday: no (next %s)", d.NextWorkday().ISO()))
	}
	if shift, ok := d.ExceptionShift(); ok {
		lines = append(lines, fmt.Sprintf("Exception: next session %d days later", shift))
	}
	lines = append(lines, "Date strings:")
	for _, p := range d.DatePhrases() {
		line := "  " + p.Text
		if len(p.Variants) > 0 {
			line += " (" + strings.Join(p.Variants, ", ") + ")"
		}
		lines = append(lines, line)
	}
	lines = append(lines, "Year strings: "+strings.Join(d.YearStrings(), ", "))
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func describeYear(w io.Writer, cal *calendar.Calendar, year int) error {
	for _, h := range calendar.Holidays(year) {
		d, err := cal.Date(year, h.Date.Month(), h.Date.Day())
		if err != nil {
			return err
		}
		note := ""
		if d.IsWorkday() {
			note = " (sitting day)"
		}
		if _, err := fmt.Fprintf(w, "%s  %-9s %s%s\n", d.ISO(), d.WeekdayName(), h.Name, note); err != nil {
			return err
		}
	}
	return nil
}
