// Package event keeps a fixed-size window of lines annotated with the
// matches of several named phrase searchers.
package event

import (
	"errors"
	"fmt"
	"sort"

	"github.com/verte-zerg/sessioncut/internal/fuzzy"
)

// DefaultWindowSize is the number of admitted lines kept in the window.
const DefaultWindowSize = 30

var (
	// ErrSearcherExists is returned when a searcher name is registered twice.
	ErrSearcherExists = errors.New("searcher already registered")
	// ErrUnknownSearcher is returned when replacing a searcher that was never added.
	ErrUnknownSearcher = errors.New("unknown searcher")
)

// Match is a phrase match tagged with the searcher that found it.
type Match struct {
	fuzzy.Match
	Searcher string
}

// Line is one window entry. Placeholder lines stand in for lines the gate
// dropped and never carry matches.
type Line struct {
	ID          string
	Text        string
	Placeholder bool
	Matches     []Match
}

// HasMatches reports whether any match survived on the line.
func (l Line) HasMatches() bool {
	return len(l.Matches) > 0
}

type namedSearcher struct {
	name     string
	searcher *fuzzy.Searcher
}

type offsetRange struct {
	min, max int
}

// Searcher runs the registered phrase searchers over every admitted line.
type Searcher struct {
	size      int
	searchers []namedSearcher
	offsets   map[string]offsetRange
	window    []Line
}

// New returns an empty Searcher. Non-positive sizes select DefaultWindowSize.
func New(size int) *Searcher {
	if size <= 0 {
		size = DefaultWindowSize
	}
	return &Searcher{
		size:    size,
		offsets: make(map[string]offsetRange),
		window:  make([]Line, 0, size),
	}
}

// Size returns the window capacity.
func (s *Searcher) Size() int {
	return s.size
}

// AddSearcher registers a named phrase searcher.
func (s *Searcher) AddSearcher(name string, cfg fuzzy.Config, model *fuzzy.PhraseModel) error {
	if s.index(name) >= 0 {
		return fmt.Errorf("failed to add searcher %q: %w", name, ErrSearcherExists)
	}
	s.searchers = append(s.searchers, namedSearcher{name: name, searcher: fuzzy.NewSearcher(cfg, model)})
	return nil
}

// ReplaceSearcher swaps the phrase model of a registered searcher and
// re-annotates the lines already in the window with the new set.
func (s *Searcher) ReplaceSearcher(name string, cfg fuzzy.Config, model *fuzzy.PhraseModel) error {
	i := s.index(name)
	if i < 0 {
		return fmt.Errorf("failed to replace searcher %q: %w", name, ErrUnknownSearcher)
	}
	s.searchers[i].searcher = fuzzy.NewSearcher(cfg, model)
	for j := range s.window {
		if s.window[j].Placeholder {
			continue
		}
		s.window[j].Matches = s.annotate(s.window[j].Text)
	}
	return nil
}

// HasSearcher reports whether name is registered.
func (s *Searcher) HasSearcher(name string) bool {
	return s.index(name) >= 0
}

func (s *Searcher) index(name string) int {
	for i, ns := range s.searchers {
		if ns.name == name {
			return i
		}
	}
	return -1
}

// SetKeywordMatchOffsets restricts matches of a phrase to start offsets
// within [lo, hi]. A negative hi removes the upper bound.
func (s *Searcher) SetKeywordMatchOffsets(phrase string, lo, hi int) {
	s.offsets[phrase] = offsetRange{min: lo, max: hi}
}

// RemoveKeywordMatchOffsets lifts the offset limits of a phrase.
func (s *Searcher) RemoveKeywordMatchOffsets(phrase string) {
	delete(s.offsets, phrase)
}

// AddDocument annotates text and appends it to the window.
func (s *Searcher) AddDocument(id, text string) {
	s.push(Line{ID: id, Text: text, Matches: s.annotate(text)})
}

// AddEmptyDocument appends a placeholder to keep window positions aligned
// with the line stream.
func (s *Searcher) AddEmptyDocument() {
	s.push(Line{Placeholder: true})
}

func (s *Searcher) push(line Line) {
	if len(s.window) == s.size {
		s.window[0] = Line{}
		s.window = s.window[1:]
	}
	s.window = append(s.window, line)
}

func (s *Searcher) annotate(text string) []Match {
	var out []Match
	for _, ns := range s.searchers {
		for _, m := range ns.searcher.FindMatches(text) {
			if !s.offsetAllowed(m) {
				continue
			}
			out = append(out, Match{Match: m, Searcher: ns.name})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Offset < out[j].Offset
	})
	return out
}

func (s *Searcher) offsetAllowed(m fuzzy.Match) bool {
	r, ok := s.offsets[m.Phrase]
	if !ok {
		return true
	}
	if m.Offset < r.min {
		return false
	}
	return r.max < 0 || m.Offset <= r.max
}

// ResetWindow discards the window except its first keepFirst lines.
func (s *Searcher) ResetWindow(keepFirst int) {
	keepFirst = max(0, min(keepFirst, len(s.window)))
	for i := keepFirst; i < len(s.window); i++ {
		s.window[i] = Line{}
	}
	s.window = s.window[:keepFirst]
}

// ShiftWindow drops the n oldest lines.
func (s *Searcher) ShiftWindow(n int) {
	n = max(0, min(n, len(s.window)))
	s.window = append(s.window[:0], s.window[n:]...)
}

// Window returns the current lines, oldest first. The slice must not be modified.
func (s *Searcher) Window() []Line {
	return s.window
}

// Len returns the number of lines in the window.
func (s *Searcher) Len() int {
	return len(s.window)
}
