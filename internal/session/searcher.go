// Package session recognises the opening of a new session in a window of
// annotated lines and keeps the current session date.
package session

import (
	"fmt"

	"github.com/verte-zerg/sessioncut/internal/calendar"
	"github.com/verte-zerg/sessioncut/internal/event"
	"github.com/verte-zerg/sessioncut/internal/fuzzy"
	"github.com/verte-zerg/sessioncut/internal/model"
)

// Searcher names registered on the event window.
const (
	PhraseSearcher = "session_phrases"
	DateSearcher   = "session_dates"
)

// ShiftRules bound plausible forward jumps of the session date.
type ShiftRules struct {
	// PenultimateMaxWorkdays triggers a set-back when exceeded relative to
	// the penultimate session date.
	PenultimateMaxWorkdays int
	// PreviousMaxWorkdays triggers quarantine when exceeded relative to the
	// previous session date.
	PreviousMaxWorkdays int
	// LinesPerWorkday is the line count that makes a jump plausible.
	LinesPerWorkday int
	SetBackDays     int
}

// Config holds the tunable constants of a Searcher.
type Config struct {
	WindowSize         int
	ScoreThreshold     float64
	MinLabels          int
	VocabularyWorkdays int
	Positions          Positions
	Shift              ShiftRules
	Fuzzy              fuzzy.Config
}

// DefaultConfig returns the empirically tuned defaults.
func DefaultConfig() Config {
	return Config{
		WindowSize:         event.DefaultWindowSize,
		ScoreThreshold:     0.99,
		MinLabels:          DefaultMinLabels,
		VocabularyWorkdays: 7,
		Positions:          DefaultPositions(),
		Shift: ShiftRules{
			PenultimateMaxWorkdays: 7,
			PreviousMaxWorkdays:    4,
			LinesPerWorkday:        200,
			SetBackDays:            7,
		},
		Fuzzy: fuzzy.DefaultConfig(),
	}
}

// WindowLine is one annotated line of the window.
type WindowLine = event.Line

type committed struct {
	date  calendar.Date
	lines int
}

// Searcher is the session specialisation of the event window. It owns the
// window, the current date and its vocabulary.
type Searcher struct {
	cfg      Config
	events   *event.Searcher
	vocab    *DateVocabulary
	current  calendar.Date
	end      calendar.Date
	status   model.DateShiftStatus
	history  []committed
	elements OpeningElements
}

// New builds a Searcher positioned at start. phrases are the fixed role and
// marker phrases; nil selects DefaultPhrases.
func New(cfg Config, start calendar.Date, phrases []fuzzy.Phrase) (*Searcher, error) {
	if phrases == nil {
		phrases = DefaultPhrases()
	}
	static, err := fuzzy.NewPhraseModel(phrases)
	if err != nil {
		return nil, fmt.Errorf("failed to build session phrases: %w", err)
	}
	s := &Searcher{
		cfg:      cfg,
		events:   event.New(cfg.WindowSize),
		status:   model.StatusNormal,
		elements: OpeningElements{byLabel: map[Label]Element{}},
	}
	if err := s.events.AddSearcher(PhraseSearcher, cfg.Fuzzy, static); err != nil {
		return nil, err
	}
	vocab, err := NewDateVocabulary(start, cfg.VocabularyWorkdays)
	if err != nil {
		return nil, err
	}
	if err := s.events.AddSearcher(DateSearcher, cfg.Fuzzy, vocab.Model()); err != nil {
		return nil, err
	}
	s.vocab = vocab
	s.current = start
	s.setDateOffsets(nil, vocab)
	return s, nil
}

// SetPeriodEnd makes dates after end quarantined.
func (s *Searcher) SetPeriodEnd(end calendar.Date) {
	s.end = end
}

// Current returns the current session date.
func (s *Searcher) Current() calendar.Date {
	return s.current
}

// Status returns the shift status of the current date.
func (s *Searcher) Status() model.DateShiftStatus {
	return s.status
}

// Vocabulary returns the active date vocabulary.
func (s *Searcher) Vocabulary() *DateVocabulary {
	return s.vocab
}

// AddLine admits a line into the window.
func (s *Searcher) AddLine(id, text string) {
	s.events.AddDocument(id, text)
}

// AddEmptyLine admits a placeholder for a line the gate dropped.
func (s *Searcher) AddEmptyLine() {
	s.events.AddEmptyDocument()
}

// Window returns the current window, oldest first.
func (s *Searcher) Window() []WindowLine {
	return s.events.Window()
}

// ResetWindow discards the window except its first keepFirst lines.
func (s *Searcher) ResetWindow(keepFirst int) {
	s.events.ResetWindow(keepFirst)
	s.elements = OpeningElements{byLabel: map[Label]Element{}}
}

// ShiftWindow drops the n oldest window lines.
func (s *Searcher) ShiftWindow(n int) {
	s.events.ShiftWindow(n)
	s.elements = OpeningElements{byLabel: map[Label]Element{}}
}

// Len returns the number of lines in the window.
func (s *Searcher) Len() int {
	return s.events.Len()
}

// OpeningElements recomputes the opening elements from the window.
func (s *Searcher) OpeningElements() (OpeningElements, error) {
	elems, err := extractElements(s.events.Window(), s.cfg.Positions, s.resolveDate)
	if err != nil {
		return OpeningElements{}, err
	}
	s.elements = elems
	return elems, nil
}

func (s *Searcher) resolveDate(phrase string) (calendar.Date, error) {
	if d, ok := s.vocab.Lookup(phrase); ok {
		return d, nil
	}
	win := s.events.Window()
	dump := make([]string, len(win))
	for i, line := range win {
		if line.Placeholder {
			dump[i] = "<dropped>"
			continue
		}
		dump[i] = line.ID + ": " + line.Text
	}
	return calendar.Date{}, &VocabularyDesyncError{
		Phrase:      phrase,
		Current:     s.current.ISO(),
		DateStrings: s.vocab.DateStrings(),
		Window:      dump,
	}
}

// Score scores the last computed opening elements.
func (s *Searcher) Score() float64 {
	return ScoreOpeningElements(s.elements, s.cfg.MinLabels)
}

// IsOpening reports whether the last computed elements mark a session start.
func (s *Searcher) IsOpening() bool {
	return s.Score() > s.cfg.ScoreThreshold
}

// HasSessionDateMatch reports whether the last computed elements hold a date.
func (s *Searcher) HasSessionDateMatch() bool {
	return s.elements.Has(LabelSessionDate)
}

// SessionDateMatch returns the accepted date element. Without a date match it
// fails with ErrMissingDateEvidence when requireMatch is set and otherwise
// returns a zero Element.
func (s *Searcher) SessionDateMatch(requireMatch bool) (Element, error) {
	e, ok := s.elements.Get(LabelSessionDate)
	if !ok && requireMatch {
		return Element{}, fmt.Errorf("failed to get session date match at %s: %w", s.current.ISO(), ErrMissingDateEvidence)
	}
	return e, nil
}

// UpdateSessionDate proposes the date of the session that opens at the
// current elements. An exception-table entry for the current date takes
// precedence over the matched date or the next day. The result is moved
// forward to a workday.
func (s *Searcher) UpdateSessionDate() (calendar.Date, error) {
	if next, ok := s.current.ExceptionShift(); ok {
		return s.current.AddDays(next).NextWorkday(), nil
	}
	if s.HasSessionDateMatch() {
		e, err := s.SessionDateMatch(true)
		if err != nil {
			return calendar.Date{}, err
		}
		return e.Date.NextWorkday(), nil
	}
	return s.current.AddDays(1).NextWorkday(), nil
}

// CheckDateShiftValidity compares a proposed date with the previous and
// penultimate committed dates and returns the date to use with its status.
// A set-back is applied at most once per call.
func (s *Searcher) CheckDateShiftValidity(proposed calendar.Date) (calendar.Date, model.DateShiftStatus) {
	status := model.StatusNormal
	date := proposed
	if n := len(s.history); n > 0 {
		prev := s.history[n-1]
		pen := prev
		lines := prev.lines
		if n > 1 {
			pen = s.history[n-2]
			lines += pen.lines
		}
		rules := s.cfg.Shift
		penShift := calendar.WorkdayShift(pen.date, proposed)
		prevShift := calendar.WorkdayShift(prev.date, proposed)
		exempt := hasException(prev.date) || hasException(pen.date)
		switch {
		case penShift > rules.PenultimateMaxWorkdays && lines < penShift*rules.LinesPerWorkday:
			date = proposed.AddDays(-rules.SetBackDays)
			if date.IsHoliday() {
				date = date.NextWorkday()
			}
			status = model.StatusSetBack
		case prevShift > rules.PreviousMaxWorkdays && lines < prevShift*rules.LinesPerWorkday && !exempt:
			status = model.StatusQuarantined
		}
	}
	if !s.end.IsZero() && date.After(s.end) {
		status = model.StatusQuarantined
	}
	return date, status
}

// Advance commits the session that just finished with finishedLines lines
// and moves to the date of the session opening at the current elements.
func (s *Searcher) Advance(finishedLines int) (model.DateShiftStatus, error) {
	proposed, err := s.UpdateSessionDate()
	if err != nil {
		return "", err
	}
	s.history = append(s.history, committed{date: s.current, lines: finishedLines})
	if len(s.history) > 2 {
		s.history = s.history[len(s.history)-2:]
	}
	date, status := s.CheckDateShiftValidity(proposed)
	if err := s.setDate(date); err != nil {
		return "", err
	}
	s.status = status
	return status, nil
}

// Adopt takes the date of the current date match without validation. It is
// used while no session has been committed yet.
func (s *Searcher) Adopt() error {
	s.status = model.StatusNormal
	e, err := s.SessionDateMatch(false)
	if err != nil || e.Date.IsZero() {
		return err
	}
	return s.setDate(e.Date)
}

func (s *Searcher) setDate(d calendar.Date) error {
	if d.Equal(s.current) {
		return nil
	}
	vocab, err := NewDateVocabulary(d, s.cfg.VocabularyWorkdays)
	if err != nil {
		return err
	}
	s.setDateOffsets(s.vocab, vocab)
	if err := s.events.ReplaceSearcher(DateSearcher, s.cfg.Fuzzy, vocab.Model()); err != nil {
		return err
	}
	s.vocab = vocab
	s.current = d
	return nil
}

func hasException(d calendar.Date) bool {
	_, ok := d.ExceptionShift()
	return ok
}

func (s *Searcher) setDateOffsets(old, next *DateVocabulary) {
	if old != nil {
		for _, p := range old.Model().Phrases() {
			s.events.RemoveKeywordMatchOffsets(p.Text)
		}
	}
	for _, p := range next.Model().Phrases() {
		if p.HasLabel(LabelSessionDate.String()) || p.HasLabel(LabelSessionYear.String()) {
			s.events.SetKeywordMatchOffsets(p.Text, 0, s.cfg.Positions.DateMaxOffset)
		}
	}
}

// ShiftPastElements drops the window lines up to and including the last
// accepted element.
func (s *Searcher) ShiftPastElements() {
	if last := s.elements.LastLine(); last >= 0 {
		s.events.ShiftWindow(last + 1)
	}
	s.elements = OpeningElements{byLabel: map[Label]Element{}}
}
