package session

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/verte-zerg/sessioncut/internal/calendar"
	"github.com/verte-zerg/sessioncut/internal/model"
)

const filler = "ontfangen een missive van"

func newSearcher(t *testing.T, iso string, workdays int) *Searcher {
	t.Helper()
	return newSearcherOn(t, calendar.New(nil), iso, workdays)
}

func newSearcherOn(t *testing.T, cal *calendar.Calendar, iso string, workdays int) *Searcher {
	t.Helper()
	start, err := cal.ParseISO(iso)
	if err != nil {
		t.Fatalf("parse %s: %v", iso, err)
	}
	cfg := DefaultConfig()
	if workdays > 0 {
		cfg.VocabularyWorkdays = workdays
	}
	s, err := New(cfg, start, nil)
	if err != nil {
		t.Fatalf("failed to create searcher: %v", err)
	}
	return s
}

func feed(s *Searcher, lines ...string) {
	for i, text := range lines {
		s.AddLine(fmt.Sprintf("line-%d", i), text)
	}
}

func opening(date string) []string {
	return []string{date, "Anno 1727.", filler, "PRAESIDE, Den Heere Van Welderen.", filler, filler, "PRAESENTIBUS,", filler}
}

func labelsOf(t *testing.T, s *Searcher) []Label {
	t.Helper()
	elems, err := s.OpeningElements()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return elems.Labels()
}

func TestScoreLabels(t *testing.T) {
	canonical := []Label{LabelSessionDate, LabelSessionYear, LabelPresident, LabelAttendants}
	if got := ScoreLabels(canonical, 4); got != 1 {
		t.Fatalf("canonical order scored %v", got)
	}
	if got := ScoreLabels(canonical[:3], 2); got != 0 {
		t.Fatalf("three labels must score 0, got %v", got)
	}
	if got := ScoreLabels(canonical, 5); got != 0 {
		t.Fatalf("fewer than min labels must score 0, got %v", got)
	}
	withExtract := append([]Label{LabelExtract}, canonical...)
	if got := ScoreLabels(withExtract, 4); got != 1 {
		t.Fatalf("unranked labels must be ignored, got %v", got)
	}
	swapped := []Label{LabelSessionYear, LabelSessionDate, LabelPresident, LabelAttendants}
	if got := ScoreLabels(swapped, 4); got != 5.0/6.0 {
		t.Fatalf("one inversion of four must score 5/6, got %v", got)
	}
}

func TestScoreDropsWhenElementOutOfOrder(t *testing.T) {
	ordered := []Label{LabelSessionDate, LabelSessionYear, LabelPresident, LabelAttendants}
	base := ScoreLabels(ordered, 4)
	for _, extra := range []Label{LabelHoliday, LabelReviewed} {
		for pos := 0; pos <= len(ordered); pos++ {
			labels := append(append(append([]Label{}, ordered[:pos]...), extra), ordered[pos:]...)
			rank, _ := extra.Rank()
			inOrder := true
			for i := 1; i < len(labels); i++ {
				a, _ := labels[i-1].Rank()
				b, _ := labels[i].Rank()
				if a > b {
					inOrder = false
				}
			}
			got := ScoreLabels(labels, 4)
			if inOrder && got != base {
				t.Fatalf("in-order insertion of rank %d at %d scored %v", rank, pos, got)
			}
			if !inOrder && got >= base {
				t.Fatalf("out-of-order insertion of rank %d at %d scored %v, not below %v", rank, pos, got, base)
			}
		}
	}
}

func TestPositionsDistance(t *testing.T) {
	p := DefaultPositions()
	r, ok := p.Distance(LabelAttendants, LabelPresident)
	if !ok || r != (Range{Min: 1, Max: 4}) {
		t.Fatalf("unexpected attendants after president range %+v", r)
	}
	if _, ok := p.Distance(LabelSessionYear, LabelPresident); ok {
		t.Fatalf("year is not positioned relative to president")
	}
	if !p.PresidentAfterDate.Contains(0) || p.AttendantsAfterDate.Contains(13) {
		t.Fatalf("range bounds are inclusive")
	}
}

func TestVocabularyCoversFollowingWorkdays(t *testing.T) {
	cal := calendar.New(nil)
	start, _ := cal.ParseISO("1727-12-08")
	v, err := NewDateVocabulary(start, 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	dates := v.Dates()
	if len(dates) != 9 || dates[len(dates)-1].ISO() != "1727-12-16" {
		t.Fatalf("unexpected date range %v..%v (%d)", dates[0], dates[len(dates)-1], len(dates))
	}
	d, ok := v.Lookup("Lunae den 8en December")
	if !ok || d.ISO() != "1727-12-08" {
		t.Fatalf("lookup failed: %v %v", d, ok)
	}
	if _, ok := v.Model().Lookup("Anno 1727"); !ok {
		t.Fatalf("expected year phrase in vocabulary")
	}

	xmas, _ := cal.ParseISO("1727-12-22")
	v, err = NewDateVocabulary(xmas, 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p, ok := v.Model().Lookup(calendar.FirstChristmasDay)
	if !ok || !p.HasLabel(LabelHoliday.String()) {
		t.Fatalf("expected holiday phrase in vocabulary")
	}
}

func TestOpeningElementsInCanonicalOrder(t *testing.T) {
	s := newSearcher(t, "1727-12-08", 0)
	feed(s, opening("Lunae den 8en December.")...)
	labels := labelsOf(t, s)
	want := []Label{LabelSessionDate, LabelSessionYear, LabelPresident, LabelAttendants}
	if fmt.Sprint(labels) != fmt.Sprint(want) {
		t.Fatalf("labels = %v, want %v", labels, want)
	}
	if !s.IsOpening() {
		t.Fatalf("expected opening, score %v", s.Score())
	}
	e, err := s.SessionDateMatch(true)
	if err != nil || e.Date.ISO() != "1727-12-08" {
		t.Fatalf("unexpected date match %v %v", e.Date, err)
	}
}

func TestAttendantsOnPresidentLineCollapse(t *testing.T) {
	s := newSearcher(t, "1727-12-08", 0)
	feed(s, "Lunae den 8en December.", filler, filler, "PRAESIDE, Den Heere Van Welderen, PRAESENTIBUS")
	elems, err := s.OpeningElements()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !elems.Has(LabelPresident) || elems.Has(LabelAttendants) {
		t.Fatalf("expected president only, got %v", elems.Labels())
	}
}

func TestAttendantsPositionalRules(t *testing.T) {
	s := newSearcher(t, "1727-12-08", 0)
	lines := []string{"Lunae den 8en December."}
	for i := 0; i < 12; i++ {
		lines = append(lines, filler)
	}
	lines = append(lines, "PRAESENTIBUS,")
	feed(s, lines...)
	if labels := labelsOf(t, s); len(labels) != 1 {
		t.Fatalf("attendants 13 lines after the date must be rejected, got %v", labels)
	}

	s = newSearcher(t, "1727-12-08", 0)
	feed(s, "Lunae den 8en December.", "PRAESIDE, Den Heere Van Welderen.", filler, filler, filler, filler, "PRAESENTIBUS,")
	elems, _ := s.OpeningElements()
	if elems.Has(LabelAttendants) {
		t.Fatalf("attendants 5 lines after the president must be rejected")
	}
}

func TestDateMatchMustStartTheLine(t *testing.T) {
	s := newSearcher(t, "1727-12-08", 0)
	feed(s, "ende is goedgevonden Lunae den 8en December.")
	if s.HasSessionDateMatch() {
		t.Fatalf("stale elements before evaluation")
	}
	elems, _ := s.OpeningElements()
	if elems.Has(LabelSessionDate) {
		t.Fatalf("date match far into the line must be rejected")
	}
}

func TestWorkdayMatchSupersedesRestDay(t *testing.T) {
	s := newSearcher(t, "1727-12-08", 0)
	feed(s, "Dominica den 14en Decembcr.", "Lunae den 15en December.")
	if _, err := s.OpeningElements(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	e, err := s.SessionDateMatch(true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.Date.ISO() != "1727-12-15" || e.Line != 1 {
		t.Fatalf("expected superseding workday match, got %s on line %d", e.Date.ISO(), e.Line)
	}
}

func TestSessionDateMatchRequired(t *testing.T) {
	s := newSearcher(t, "1727-12-08", 0)
	feed(s, filler)
	if _, err := s.OpeningElements(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := s.SessionDateMatch(true); !errors.Is(err, ErrMissingDateEvidence) {
		t.Fatalf("expected ErrMissingDateEvidence, got %v", err)
	}
	if e, err := s.SessionDateMatch(false); err != nil || !e.Date.IsZero() {
		t.Fatalf("optional miss must return a zero element, got %v %v", e, err)
	}
}

func TestUpdateSessionDate(t *testing.T) {
	s := newSearcher(t, "1727-12-13", 0)
	_, _ = s.OpeningElements()
	d, err := s.UpdateSessionDate()
	if err != nil || d.ISO() != "1727-12-15" {
		t.Fatalf("default advance from Saturday must skip Sunday, got %v %v", d, err)
	}

	s = newSearcher(t, "1727-12-08", 0)
	feed(s, "Dominica den 14en December.")
	_, _ = s.OpeningElements()
	d, _ = s.UpdateSessionDate()
	if d.ISO() != "1727-12-15" {
		t.Fatalf("rest-day match must move to the next workday, got %s", d.ISO())
	}

	s = newSearcher(t, "1726-12-23", 0)
	feed(s, "Martis den 24en December.")
	_, _ = s.OpeningElements()
	d, _ = s.UpdateSessionDate()
	if d.ISO() != "1726-12-27" {
		t.Fatalf("exception shift must take precedence, got %s", d.ISO())
	}
}

func TestExceptionShiftLandsOnWorkday(t *testing.T) {
	cal := calendar.New(nil, calendar.WithExceptions(calendar.ExceptionTable{
		"1727-12-09": {ShiftDays: 5},
	}))
	s := newSearcherOn(t, cal, "1727-12-09", 0)
	_, _ = s.OpeningElements()
	d, err := s.UpdateSessionDate()
	if err != nil || d.ISO() != "1727-12-15" {
		t.Fatalf("shift onto Sunday must move to Monday, got %v %v", d, err)
	}
}

func advanceTo(t *testing.T, s *Searcher, date string, lines int) model.DateShiftStatus {
	t.Helper()
	s.ResetWindow(0)
	feed(s, date)
	if _, err := s.OpeningElements(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	status, err := s.Advance(lines)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return status
}

func TestSetBackOnImplausibleJump(t *testing.T) {
	s := newSearcher(t, "1727-12-08", 8)
	status := advanceTo(t, s, "Mercurii den 17en December.", 40)
	if status != model.StatusSetBack {
		t.Fatalf("expected set_back, got %s", status)
	}
	if got := s.Current().ISO(); got != "1727-12-10" {
		t.Fatalf("expected date moved back to 1727-12-10, got %s", got)
	}
	if !s.Vocabulary().Start().Equal(s.Current()) {
		t.Fatalf("vocabulary not rebuilt for the corrected date")
	}
}

func TestLongSessionsKeepJump(t *testing.T) {
	s := newSearcher(t, "1727-12-08", 8)
	status := advanceTo(t, s, "Mercurii den 17en December.", 2000)
	if status != model.StatusNormal || s.Current().ISO() != "1727-12-17" {
		t.Fatalf("expected normal 1727-12-17, got %s %s", status, s.Current().ISO())
	}
}

func TestQuarantineOnJumpFromPrevious(t *testing.T) {
	s := newSearcher(t, "1727-12-08", 0)
	if status := advanceTo(t, s, "Martis den 9en December.", 30); status != model.StatusNormal {
		t.Fatalf("expected normal, got %s", status)
	}
	status := advanceTo(t, s, "Lunae den 15en December.", 30)
	if status != model.StatusQuarantined {
		t.Fatalf("expected quarantined, got %s", status)
	}
	if s.Current().ISO() != "1727-12-15" {
		t.Fatalf("quarantine must keep the date, got %s", s.Current().ISO())
	}
}

func TestExceptionDateSuppressesQuarantine(t *testing.T) {
	tests := []struct {
		name   string
		table  calendar.ExceptionTable
		status model.DateShiftStatus
	}{
		{"exception", calendar.ExceptionTable{"1727-12-09": {ShiftDays: 6}}, model.StatusNormal},
		{"no exception", calendar.ExceptionTable{}, model.StatusQuarantined},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cal := calendar.New(nil, calendar.WithExceptions(tt.table))
			s := newSearcherOn(t, cal, "1727-12-08", 0)
			if status := advanceTo(t, s, "Martis den 9en December.", 30); status != model.StatusNormal {
				t.Fatalf("expected normal, got %s", status)
			}
			status := advanceTo(t, s, "Lunae den 15en December.", 30)
			if status != tt.status {
				t.Fatalf("expected %s, got %s", tt.status, status)
			}
			if s.Current().ISO() != "1727-12-15" {
				t.Fatalf("expected 1727-12-15, got %s", s.Current().ISO())
			}
		})
	}
}

func TestPeriodEndQuarantines(t *testing.T) {
	s := newSearcher(t, "1727-12-08", 0)
	end, _ := calendar.New(nil).ParseISO("1727-12-09")
	s.SetPeriodEnd(end)
	if status := advanceTo(t, s, "Mercurii den 10en December.", 300); status != model.StatusQuarantined {
		t.Fatalf("expected quarantined after period end, got %s", status)
	}
}

func TestAdoptAndShiftPastElements(t *testing.T) {
	s := newSearcher(t, "1727-12-01", 0)
	feed(s, opening("Lunae den 8en December.")...)
	if _, err := s.OpeningElements(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.Adopt(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Current().ISO() != "1727-12-08" || s.Status() != model.StatusNormal {
		t.Fatalf("adopt failed: %s %s", s.Current().ISO(), s.Status())
	}
	s.ShiftPastElements()
	if len(s.Window()) != 1 || s.Window()[0].Text != filler {
		t.Fatalf("expected only the trailing line, got %d lines", len(s.Window()))
	}
}

func TestVocabularyDesyncError(t *testing.T) {
	s := newSearcher(t, "1727-12-08", 0)
	feed(s, filler)
	_, err := s.resolveDate("Jovis den 1en Januarii")
	if !errors.Is(err, ErrVocabularyDesync) {
		t.Fatalf("expected ErrVocabularyDesync, got %v", err)
	}
	var desync *VocabularyDesyncError
	if !errors.As(err, &desync) || len(desync.Window) != 1 || len(desync.DateStrings) == 0 {
		t.Fatalf("expected diagnostic context, got %+v", desync)
	}
	if !strings.Contains(err.Error(), "line-0: "+filler) {
		t.Fatalf("window dump missing from message: %s", err)
	}
}
