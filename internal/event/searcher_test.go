package event

import (
	"errors"
	"fmt"
	"testing"

	"github.com/verte-zerg/sessioncut/internal/fuzzy"
)

func mustModel(t *testing.T, phrases ...fuzzy.Phrase) *fuzzy.PhraseModel {
	t.Helper()
	m, err := fuzzy.NewPhraseModel(phrases)
	if err != nil {
		t.Fatalf("failed to build model: %v", err)
	}
	return m
}

func TestAddSearcherRejectsDuplicateName(t *testing.T) {
	s := New(5)
	model := mustModel(t, fuzzy.Phrase{Text: "PRAESIDE", Labels: []string{"president"}})
	if err := s.AddSearcher("roles", fuzzy.DefaultConfig(), model); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := s.AddSearcher("roles", fuzzy.DefaultConfig(), model)
	if !errors.Is(err, ErrSearcherExists) {
		t.Fatalf("expected ErrSearcherExists, got %v", err)
	}
}

func TestAddDocumentTagsSearcher(t *testing.T) {
	s := New(5)
	_ = s.AddSearcher("roles", fuzzy.DefaultConfig(), mustModel(t, fuzzy.Phrase{Text: "PRAESIDE, Den Heere", Labels: []string{"president"}}))
	_ = s.AddSearcher("extra", fuzzy.DefaultConfig(), mustModel(t, fuzzy.Phrase{Text: "PRAESENTIBUS", Labels: []string{"attendants"}}))

	s.AddDocument("l1", "PRAESIDE, Den Heere van Welderen")
	s.AddDocument("l2", "PRAESENTIBUS,")
	win := s.Window()
	if len(win) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(win))
	}
	if !win[0].HasMatches() || win[0].Matches[0].Searcher != "roles" {
		t.Fatalf("expected roles match on first line, got %+v", win[0].Matches)
	}
	if !win[1].HasMatches() || win[1].Matches[0].Searcher != "extra" {
		t.Fatalf("expected extra match on second line, got %+v", win[1].Matches)
	}
}

func TestWindowEvictsOldest(t *testing.T) {
	s := New(3)
	for i := 0; i < 5; i++ {
		s.AddDocument(fmt.Sprintf("l%d", i), "text")
	}
	s.AddEmptyDocument()
	win := s.Window()
	if len(win) != 3 {
		t.Fatalf("expected window of 3, got %d", len(win))
	}
	if win[0].ID != "l3" || win[1].ID != "l4" || !win[2].Placeholder {
		t.Fatalf("unexpected window: %+v", win)
	}
}

func TestKeywordMatchOffsets(t *testing.T) {
	s := New(5)
	_ = s.AddSearcher("roles", fuzzy.DefaultConfig(), mustModel(t, fuzzy.Phrase{Text: "PRAESENTIBUS", Labels: []string{"attendants"}}))
	s.SetKeywordMatchOffsets("PRAESENTIBUS", 0, 4)

	s.AddDocument("start", "PRAESENTIBUS,")
	s.AddDocument("late", "de Heeren waren PRAESENTIBUS")
	win := s.Window()
	if !win[0].HasMatches() {
		t.Fatalf("match at line start must survive")
	}
	if win[1].HasMatches() {
		t.Fatalf("match at offset %d must be filtered", win[1].Matches[0].Offset)
	}
}

func TestResetAndShiftWindow(t *testing.T) {
	s := New(10)
	for i := 0; i < 6; i++ {
		s.AddDocument(fmt.Sprintf("l%d", i), "")
	}
	s.ShiftWindow(2)
	if s.Len() != 4 || s.Window()[0].ID != "l2" {
		t.Fatalf("unexpected window after shift: %+v", s.Window())
	}
	s.ResetWindow(1)
	if s.Len() != 1 || s.Window()[0].ID != "l2" {
		t.Fatalf("unexpected window after reset: %+v", s.Window())
	}
	s.ResetWindow(0)
	if s.Len() != 0 {
		t.Fatalf("expected empty window")
	}
	s.ShiftWindow(3)
	if s.Len() != 0 {
		t.Fatalf("shift past end must leave an empty window")
	}
}

func TestReplaceSearcherReannotatesWindow(t *testing.T) {
	s := New(5)
	_ = s.AddSearcher("dates", fuzzy.DefaultConfig(), mustModel(t, fuzzy.Phrase{Text: "Lunae den 8en December", Labels: []string{"session_date"}}))
	s.AddDocument("a", "Martis den 9en December.")
	if s.Window()[0].HasMatches() {
		t.Fatalf("unexpected match before replacement")
	}
	err := s.ReplaceSearcher("dates", fuzzy.DefaultConfig(), mustModel(t, fuzzy.Phrase{Text: "Martis den 9en December", Labels: []string{"session_date"}}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !s.Window()[0].HasMatches() {
		t.Fatalf("expected match after replacement")
	}
	if err := s.ReplaceSearcher("missing", fuzzy.DefaultConfig(), nil); !errors.Is(err, ErrUnknownSearcher) {
		t.Fatalf("expected ErrUnknownSearcher, got %v", err)
	}
}
