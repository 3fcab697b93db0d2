package report

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/verte-zerg/sessioncut/internal/model"
)

const sparkChars = " .:-=+*#%@"

// Summary aggregates session metadata.
type Summary struct {
	Sessions          int
	Lines             int
	Normal            int
	Quarantined       int
	SetBack           int
	ForcedCuts        int
	RestDaySessions   int
	Dates             int
	MultiSessionDates int
	FirstDate         string
	LastDate          string
	LargestGapDays    int
	LargestGapAfter   string
}

// Summarize computes a Summary. Sessions are expected in emission order.
func Summarize(sessions []model.SessionMetadata) Summary {
	var s Summary
	perDate := make(map[string]int)
	var prev time.Time
	for _, m := range sessions {
		s.Sessions++
		s.Lines += m.LineCount
		switch m.Status {
		case model.StatusQuarantined:
			s.Quarantined++
		case model.StatusSetBack:
			s.SetBack++
		default:
			s.Normal++
		}
		if m.ForcedCut {
			s.ForcedCuts++
		}
		if !m.IsWorkday {
			s.RestDaySessions++
		}
		perDate[m.Date]++
		if s.FirstDate == "" {
			s.FirstDate = m.Date
		}
		s.LastDate = m.Date

		t, err := time.Parse(time.DateOnly, m.Date)
		if err != nil {
			continue
		}
		if !prev.IsZero() {
			if gap := int(t.Sub(prev).Hours() / 24); gap > s.LargestGapDays {
				s.LargestGapDays = gap
				s.LargestGapAfter = prev.Format(time.DateOnly)
			}
		}
		prev = t
	}
	s.Dates = len(perDate)
	for _, n := range perDate {
		if n > 1 {
			s.MultiSessionDates++
		}
	}
	return s
}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	if window <= 1 {
		copy(out, values)
		return out
	}
	var sum float64
	for i := 0; i < len(values); i++ {
		sum += values[i]
		if i >= window {
			sum -= values[i-window]
		}
		den := float64(i + 1)
		if i >= window {
			den = float64(window)
		}
		out[i] = sum / den
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal := values[0]
	maxVal := values[0]
	for _, v := range values[1:] {
		minVal = math.Min(minVal, v)
		maxVal = math.Max(maxVal, v)
	}
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		idx = max(0, min(idx, len(sparkChars)-1))
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// RenderSummary prints the aggregate counts.
func RenderSummary(w io.Writer, s Summary) error {
	if s.Sessions == 0 {
		_, err := fmt.Fprintln(w, "No sessions found.")
		return err
	}
	lines := []string{
		"Summary",
		fmt.Sprintf("Sessions: %d (%d lines)", s.Sessions, s.Lines),
		fmt.Sprintf("Period: %s .. %s (%d dates, %d with several sessions)", s.FirstDate, s.LastDate, s.Dates, s.MultiSessionDates),
		fmt.Sprintf("Date status: %d normal, %d set back, %d quarantined", s.Normal, s.SetBack, s.Quarantined),
		fmt.Sprintf("Forced cuts: %d", s.ForcedCuts),
		fmt.Sprintf("Sessions on rest days: %d", s.RestDaySessions),
	}
	if s.LargestGapDays > 0 {
		lines = append(lines, fmt.Sprintf("Largest gap: %d days after %s", s.LargestGapDays, s.LargestGapAfter))
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// RenderLineCurve prints a sparkline of smoothed session lengths. A width of
// zero uses the terminal width.
func RenderLineCurve(w io.Writer, sessions []model.SessionMetadata, window, width int) error {
	if len(sessions) == 0 {
		return nil
	}
	if width <= 0 {
		width = TerminalWidth()
	}
	width = max(width, minCurveWidth)
	counts := make([]float64, len(sessions))
	peak := 0
	for i, s := range sessions {
		counts[i] = float64(s.LineCount)
		peak = max(peak, s.LineCount)
	}
	counts = resampleSeries(MovingAverage(counts, window), width)
	if _, err := fmt.Fprintf(w, "Lines per session (max %d)\n", peak); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, Sparkline(counts)); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// RenderSessions prints one row per session.
func RenderSessions(w io.Writer, sessions []model.SessionMetadata) error {
	if len(sessions) == 0 {
		_, err := fmt.Fprintln(w, "No sessions found.")
		return err
	}
	headers := []string{"Num", "ID", "Date", "Weekday", "#", "Status", "Lines", "President"}
	rows := make([][]string, 0, len(sessions))
	for _, s := range sessions {
		status := string(s.Status)
		if s.ForcedCut {
			status += " (forced)"
		}
		rows = append(rows, []string{
			strconv.Itoa(s.Num),
			s.ID,
			s.Date,
			s.WeekdayName,
			strconv.Itoa(s.DateSessionNum),
			status,
			strconv.Itoa(s.LineCount),
			Truncate(s.President, 30),
		})
	}
	return writeLines(w, formatTable(headers, rows, map[int]bool{0: true, 4: true, 6: true}))
}

// RenderSession prints the metadata, evidence and lines of one session.
func RenderSession(w io.Writer, s model.Session) error {
	m := s.Metadata
	header := []string{
		fmt.Sprintf("Session %s", m.ID),
		fmt.Sprintf("Date: %s (%s), session %d of the day, %s", m.Date, m.WeekdayName, m.DateSessionNum, m.Status),
		fmt.Sprintf("Lines: %d (%s .. %s)", m.LineCount, m.FirstLineID, m.LastLineID),
	}
	if m.President != "" {
		header = append(header, "President: "+m.President)
	}
	header = append(header, "")
	if err := writeLines(w, header); err != nil {
		return err
	}
	if len(m.Evidence) > 0 {
		rows := make([][]string, 0, len(m.Evidence))
		for _, e := range m.Evidence {
			rows = append(rows, []string{
				e.Label,
				e.LineID,
				fmt.Sprintf("%d-%d", e.Offset, e.End),
				fmt.Sprintf("%.2f", e.Score),
				Truncate(e.Matched, 40),
			})
		}
		lines := formatTable([]string{"Label", "Line", "Chars", "Score", "Matched"}, rows, map[int]bool{3: true})
		if err := writeLines(w, append(lines, "")); err != nil {
			return err
		}
	}
	for _, line := range s.Lines {
		if _, err := fmt.Fprintf(w, "%s  %s\n", line.ID, line.Text); err != nil {
			return err
		}
	}
	return nil
}

// RenderRuns prints recent segmentation runs.
func RenderRuns(w io.Writer, runs []model.RunSummary) error {
	if len(runs) == 0 {
		return nil
	}
	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		ended := "running"
		if !r.EndedAt.IsZero() {
			ended = r.EndedAt.Sub(r.StartedAt).Round(time.Millisecond).String()
		}
		rows = append(rows, []string{
			r.StartedAt.Format(time.DateTime),
			strconv.Itoa(r.Inventory),
			strconv.Itoa(r.Sessions),
			strconv.Itoa(r.SetBack),
			strconv.Itoa(r.Quarantined),
			ended,
			r.InputPath,
		})
	}
	headers := []string{"Started", "Inventory", "Sessions", "Set back", "Quarantined", "Took", "Input"}
	lines := formatTable(headers, rows, map[int]bool{1: true, 2: true, 3: true, 4: true})
	if _, err := fmt.Fprintln(w, "Runs"); err != nil {
		return err
	}
	return writeLines(w, append(lines, ""))
}

func writeLines(w io.Writer, lines []string) error {
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
