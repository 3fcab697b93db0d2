// Package segment cuts an ordered line stream into session documents.
package segment

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/verte-zerg/sessioncut/internal/calendar"
	"github.com/verte-zerg/sessioncut/internal/fuzzy"
	"github.com/verte-zerg/sessioncut/internal/gate"
	"github.com/verte-zerg/sessioncut/internal/model"
	"github.com/verte-zerg/sessioncut/internal/session"
)

// DefaultMaxPendingLines caps the lines held for one session before a forced cut.
const DefaultMaxPendingLines = 10000

var (
	// ErrPendingDesync is returned when the line opening a session is not in
	// the pending buffer.
	ErrPendingDesync = errors.New("opening line not in pending buffer")
	// ErrUnknownMapper is returned for an inventory naming an unknown date name mapper.
	ErrUnknownMapper = errors.New("unknown date name mapper")
)

// Source yields lines in reading order and io.EOF at the end.
type Source interface {
	Next() (model.Line, error)
}

// Config holds the driver constants.
type Config struct {
	GateSize        int
	ShutThreshold   int
	MaxPendingLines int
	Session         session.Config
}

// DefaultConfig returns the defaults of every stage.
func DefaultConfig() Config {
	return Config{
		GateSize:        gate.DefaultSize,
		ShutThreshold:   gate.DefaultShutThreshold,
		MaxPendingLines: DefaultMaxPendingLines,
		Session:         session.DefaultConfig(),
	}
}

// Options configures a Segmenter.
type Options struct {
	Inventory model.Inventory
	Config    Config
	// Calendar overrides the calendar built from Inventory.Mapper.
	Calendar *calendar.Calendar
	// Phrases overrides the fixed role and marker phrases.
	Phrases []fuzzy.Phrase
	Logger  *slog.Logger
}

// Segmenter runs the segmentation of one inventory. Session numbers keep
// counting across runs; everything else is reset by Run.
type Segmenter struct {
	inv     model.Inventory
	cfg     Config
	cal     *calendar.Calendar
	start   calendar.Date
	end     calendar.Date
	logger  *slog.Logger
	phrases []fuzzy.Phrase
	num     int

	gate        *gate.Window
	searcher    *session.Searcher
	pending     []model.Line
	evidence    []model.Evidence
	president   string
	provisional string
	cutSeen     bool
	dateNum     int
}

// New validates opts and returns a Segmenter.
func New(opts Options) (*Segmenter, error) {
	if opts.Config == (Config{}) {
		opts.Config = DefaultConfig()
	}
	if opts.Config.MaxPendingLines <= 0 {
		opts.Config.MaxPendingLines = DefaultMaxPendingLines
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	cal := opts.Calendar
	if cal == nil {
		var names *calendar.DateNameMapper
		if opts.Inventory.Mapper != "" {
			m, ok := calendar.BuiltinNames(opts.Inventory.Mapper)
			if !ok {
				return nil, fmt.Errorf("failed to create segmenter: %w: %q", ErrUnknownMapper, opts.Inventory.Mapper)
			}
			names = m
		}
		cal = calendar.New(names)
	}
	start, err := cal.ParseISO(opts.Inventory.Start)
	if err != nil {
		return nil, fmt.Errorf("failed to parse inventory start: %w", err)
	}
	var end calendar.Date
	if opts.Inventory.End != "" {
		end, err = cal.ParseISO(opts.Inventory.End)
		if err != nil {
			return nil, fmt.Errorf("failed to parse inventory end: %w", err)
		}
	}
	s := &Segmenter{
		inv:     opts.Inventory,
		cfg:     opts.Config,
		cal:     cal,
		start:   start,
		end:     end,
		logger:  logger.With("inventory", opts.Inventory.Num),
		phrases: opts.Phrases,
	}
	if err := s.newSearcher(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Segmenter) newSearcher() error {
	searcher, err := session.New(s.cfg.Session, s.start, s.phrases)
	if err != nil {
		return fmt.Errorf("failed to create session searcher: %w", err)
	}
	if !s.end.IsZero() {
		searcher.SetPeriodEnd(s.end)
	}
	s.searcher = searcher
	return nil
}

// Calendar returns the calendar in use.
func (s *Segmenter) Calendar() *calendar.Calendar {
	return s.cal
}

// Run consumes src to the end and calls emit for every finished session in
// stream order. Emit errors and structural errors abort the run.
func (s *Segmenter) Run(src Source, emit func(model.Session) error) error {
	if err := s.reset(); err != nil {
		return err
	}
	for {
		line, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read line: %w", err)
		}
		s.pending = append(s.pending, line)
		if !line.IsBlank() {
			s.gate.AddLine(line)
			s.gate.CheckThreshold()
			if s.gate.Pending() {
				admitted, ok := s.gate.First()
				if err := s.admit(admitted, ok, emit); err != nil {
					return err
				}
			}
		}
		if len(s.pending) > s.cfg.MaxPendingLines {
			if err := s.forceCut(emit); err != nil {
				return err
			}
		}
	}
	for _, r := range s.gate.Drain() {
		if err := s.admit(r.Line, r.LetThrough, emit); err != nil {
			return err
		}
	}
	if err := s.drainWindow(emit); err != nil {
		return err
	}
	if len(s.pending) > 0 {
		if err := s.emit(s.pending, false, emit); err != nil {
			return err
		}
		s.pending = nil
	}
	return nil
}

func (s *Segmenter) reset() error {
	s.gate = gate.New(s.cfg.GateSize, s.cfg.ShutThreshold)
	s.pending = nil
	s.evidence = nil
	s.president = ""
	s.provisional = ""
	s.cutSeen = false
	s.dateNum = 1
	return s.newSearcher()
}

func (s *Segmenter) admit(line model.Line, letThrough bool, emit func(model.Session) error) error {
	if letThrough {
		s.searcher.AddLine(line.ID, line.Text)
	} else {
		s.searcher.AddEmptyLine()
	}
	return s.evaluate(emit)
}

// drainWindow brings every line left in the window to the front once, so an
// opening among the last lines of the stream is still evaluated.
func (s *Segmenter) drainWindow(emit func(model.Session) error) error {
	for s.searcher.Len() > 1 {
		s.searcher.ShiftWindow(1)
		if err := s.evaluate(emit); err != nil {
			return err
		}
	}
	return nil
}

func (s *Segmenter) evaluate(emit func(model.Session) error) error {
	win := s.searcher.Window()
	if len(win) == 0 || !win[0].HasMatches() {
		return nil
	}
	elems, err := s.searcher.OpeningElements()
	if err != nil {
		return err
	}
	if elems.Has(session.LabelExtract) || elems.Has(session.LabelInsertion) {
		s.logger.Debug("quoted fragment in window", "line", win[0].ID)
		s.searcher.ResetWindow(0)
		return nil
	}
	if !s.searcher.IsOpening() {
		s.recordProvisional(win, elems)
		return nil
	}
	idx := s.pendingIndex(win[0].ID)
	if idx < 0 {
		return fmt.Errorf("failed to cut at line %q: %w", win[0].ID, ErrPendingDesync)
	}
	return s.cut(idx, win, elems, emit)
}

// recordProvisional keeps the elements of a session that has no opening
// evidence yet. Before the first cut the session also takes their date.
func (s *Segmenter) recordProvisional(win []session.WindowLine, elems session.OpeningElements) {
	if !elems.Has(session.LabelSessionDate) {
		return
	}
	if s.evidence != nil && s.provisional != win[0].ID {
		return
	}
	s.provisional = win[0].ID
	s.evidence = elems.Evidence()
	s.president = presidentName(win, elems)
	if !s.cutSeen {
		if err := s.searcher.Adopt(); err != nil {
			s.logger.Warn("failed to adopt date", "line", win[0].ID, "err", err)
		}
	}
}

func (s *Segmenter) cut(idx int, win []session.WindowLine, elems session.OpeningElements, emit func(model.Session) error) error {
	finished := s.pending[:idx]
	rest := append([]model.Line(nil), s.pending[idx:]...)
	prev := s.searcher.Current()
	s.logger.Debug("session opening", "line", win[0].ID, "labels", fmt.Sprint(elems.Labels()), "score", s.searcher.Score())

	if !informative(finished) {
		if err := s.searcher.Adopt(); err != nil {
			return err
		}
		if len(finished) > 0 {
			s.logger.Warn("suppressed empty session", "date", prev.ISO(), "rolled_back_to", s.searcher.Current().ISO())
		}
		s.dateNum = 1
	} else {
		if err := s.emit(finished, false, emit); err != nil {
			return err
		}
		status, err := s.searcher.Advance(len(finished))
		if err != nil {
			return err
		}
		cur := s.searcher.Current()
		if cur.Equal(prev) {
			s.dateNum++
		} else {
			s.dateNum = 1
		}
		if status != model.StatusNormal {
			s.logger.Warn("session date corrected", "date", cur.ISO(), "status", string(status), "previous", prev.ISO())
		}
	}

	s.cutSeen = true
	s.provisional = ""
	s.evidence = elems.Evidence()
	s.president = presidentName(win, elems)
	s.searcher.ShiftPastElements()
	s.pending = rest
	return nil
}

func (s *Segmenter) forceCut(emit func(model.Session) error) error {
	keep := len(s.pending)
	for _, line := range s.searcher.Window() {
		if line.Placeholder {
			continue
		}
		if i := s.pendingIndex(line.ID); i >= 0 {
			keep = min(keep, i)
		}
		break
	}
	if oldest, ok := s.gate.Oldest(); ok {
		if i := s.pendingIndex(oldest.ID); i >= 0 {
			keep = min(keep, i)
		}
	}
	if keep == 0 {
		return nil
	}
	s.logger.Warn("forced session cut", "date", s.searcher.Current().ISO(), "lines", keep)
	if err := s.emit(s.pending[:keep], true, emit); err != nil {
		return err
	}
	s.pending = append([]model.Line(nil), s.pending[keep:]...)
	s.dateNum++
	s.evidence = nil
	s.president = ""
	s.provisional = ""
	return nil
}

func (s *Segmenter) emit(lines []model.Line, forced bool, emit func(model.Session) error) error {
	s.num++
	cur := s.searcher.Current()
	md := model.SessionMetadata{
		ID:             fmt.Sprintf("session-%d-num-%d", s.inv.Num, s.num),
		Inventory:      s.inv.Num,
		Num:            s.num,
		Date:           cur.ISO(),
		DateSessionNum: s.dateNum,
		WeekdayName:    cur.WeekdayName(),
		IsWorkday:      cur.IsWorkday(),
		Status:         s.searcher.Status(),
		Evidence:       s.evidence,
		President:      s.president,
		LineCount:      len(lines),
		ForcedCut:      forced,
	}
	if len(lines) > 0 {
		md.FirstLineID = lines[0].ID
		md.LastLineID = lines[len(lines)-1].ID
	}
	s.logger.Info("session", "session", md.ID, "date", md.Date, "status", string(md.Status), "lines", md.LineCount)
	out := model.Session{Metadata: md, Lines: append([]model.Line(nil), lines...)}
	if err := emit(out); err != nil {
		return fmt.Errorf("failed to emit %s: %w", md.ID, err)
	}
	return nil
}

func (s *Segmenter) pendingIndex(id string) int {
	for i, line := range s.pending {
		if line.ID == id {
			return i
		}
	}
	return -1
}

func informative(lines []model.Line) bool {
	for _, line := range lines {
		if !line.IsBlank() {
			return true
		}
	}
	return false
}

// presidentName returns the text after the president phrase on its line.
func presidentName(win []session.WindowLine, elems session.OpeningElements) string {
	e, ok := elems.Get(session.LabelPresident)
	if !ok || e.Line >= len(win) {
		return ""
	}
	text := win[e.Line].Text
	if e.Match.End > utf8.RuneCountInString(text) {
		return ""
	}
	name := string([]rune(text)[e.Match.End:])
	return strings.Trim(name, " \t,.;:")
}
