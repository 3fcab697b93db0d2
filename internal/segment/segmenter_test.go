package segment

import (
	"errors"
	"fmt"
	"io"
	"reflect"
	"testing"

	"github.com/verte-zerg/sessioncut/internal/model"
)

var fillerTexts = []string{
	"Ontfangen een missive van den",
	"Resident Hop geschreven uyt",
	"Brussel den derden deser,",
	"waer by advertentie gegeven wert",
	"is goedgevonden ende verstaen",
	"dat copie van de voorschreve",
	"missive sal werden gestelt in",
	"handen van de Heeren haer Ho. Mo.",
}

type sliceSource struct {
	lines []model.Line
	next  int
}

func (s *sliceSource) Next() (model.Line, error) {
	if s.next >= len(s.lines) {
		return model.Line{}, io.EOF
	}
	line := s.lines[s.next]
	s.next++
	return line, nil
}

type stream struct {
	lines []model.Line
}

func (b *stream) add(texts ...string) {
	for _, text := range texts {
		b.lines = append(b.lines, model.Line{ID: fmt.Sprintf("line-%04d", len(b.lines)), Text: text})
	}
}

func (b *stream) filler(n int) {
	for i := 0; i < n; i++ {
		b.add(fillerTexts[len(b.lines)%len(fillerTexts)])
	}
}

func (b *stream) opening(date string) {
	b.add(date, "Anno 1727.")
	b.filler(1)
	b.add("PRAESIDE, Den Heere Van Welderen.")
	b.filler(2)
	b.add("PRAESENTIBUS,")
}

func (b *stream) source() *sliceSource {
	return &sliceSource{lines: b.lines}
}

var inventory = model.Inventory{Num: 3760, Start: "1727-12-08", End: "1727-12-31"}

func run(t *testing.T, seg *Segmenter, b *stream) []model.Session {
	t.Helper()
	var out []model.Session
	err := seg.Run(b.source(), func(s model.Session) error {
		out = append(out, s)
		return nil
	})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	return out
}

func newSegmenter(t *testing.T, cfg Config) *Segmenter {
	t.Helper()
	seg, err := New(Options{Inventory: inventory, Config: cfg})
	if err != nil {
		t.Fatalf("failed to create segmenter: %v", err)
	}
	return seg
}

func checkCoverage(t *testing.T, sessions []model.Session, b *stream) {
	t.Helper()
	var ids []string
	for _, s := range sessions {
		if s.Metadata.LineCount != len(s.Lines) {
			t.Fatalf("%s line count %d, has %d lines", s.Metadata.ID, s.Metadata.LineCount, len(s.Lines))
		}
		for _, l := range s.Lines {
			ids = append(ids, l.ID)
		}
	}
	if len(ids) != len(b.lines) {
		t.Fatalf("sessions hold %d lines, stream has %d", len(ids), len(b.lines))
	}
	for i, id := range ids {
		if id != b.lines[i].ID {
			t.Fatalf("line %d is %s, want %s", i, id, b.lines[i].ID)
		}
	}
}

func threeElementStream() *stream {
	b := &stream{}
	b.add("Lunae den 8en December.")
	b.filler(2)
	b.add("PRAESIDE, Den Heere Van Welderen.")
	b.filler(2)
	b.add("PRAESENTIBUS,")
	b.filler(39)
	b.add("Martis den 9en December.")
	b.filler(10)
	return b
}

func TestSingleSessionKeepsOpeningEvidence(t *testing.T) {
	b := threeElementStream()
	sessions := run(t, newSegmenter(t, DefaultConfig()), b)
	if len(sessions) != 1 {
		t.Fatalf("expected one session, got %d", len(sessions))
	}
	md := sessions[0].Metadata
	if md.Status != model.StatusNormal || md.Date != "1727-12-08" {
		t.Fatalf("unexpected metadata %+v", md)
	}
	if md.ID != "session-3760-num-1" || md.WeekdayName != "Lunae" || !md.IsWorkday {
		t.Fatalf("unexpected identity %+v", md)
	}
	var got []string
	for _, e := range md.Evidence {
		got = append(got, e.Label+"@"+e.LineID)
	}
	want := []string{"session_date@line-0000", "president@line-0003", "attendants@line-0006"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("evidence = %v, want %v", got, want)
	}
	if md.President != "Van Welderen" {
		t.Fatalf("president = %q", md.President)
	}
	checkCoverage(t, sessions, b)
}

func setBackStream(firstFiller int) *stream {
	b := &stream{}
	b.opening("Lunae den 8en December.")
	b.filler(firstFiller)
	b.opening("Mercurii den 17en December.")
	b.filler(40)
	return b
}

func setBackConfig() Config {
	cfg := DefaultConfig()
	cfg.Session.VocabularyWorkdays = 8
	return cfg
}

func TestShortSessionsAreSetBack(t *testing.T) {
	b := setBackStream(13)
	sessions := run(t, newSegmenter(t, setBackConfig()), b)
	if len(sessions) != 2 {
		t.Fatalf("expected two sessions, got %d", len(sessions))
	}
	first, second := sessions[0].Metadata, sessions[1].Metadata
	if first.Date != "1727-12-08" || first.Status != model.StatusNormal || first.LineCount != 20 {
		t.Fatalf("unexpected first session %+v", first)
	}
	if len(first.Evidence) != 4 {
		t.Fatalf("expected four opening elements, got %d", len(first.Evidence))
	}
	if second.Date != "1727-12-10" || second.Status != model.StatusSetBack {
		t.Fatalf("expected set_back to 1727-12-10, got %s %s", second.Date, second.Status)
	}
	if second.Evidence[0].LineID != "line-0020" {
		t.Fatalf("second session evidence starts at %s", second.Evidence[0].LineID)
	}
	checkCoverage(t, sessions, b)
}

func TestLongSessionsKeepMatchedDate(t *testing.T) {
	b := setBackStream(2000)
	sessions := run(t, newSegmenter(t, setBackConfig()), b)
	if len(sessions) != 2 {
		t.Fatalf("expected two sessions, got %d", len(sessions))
	}
	second := sessions[1].Metadata
	if second.Date != "1727-12-17" || second.Status != model.StatusNormal {
		t.Fatalf("expected normal 1727-12-17, got %s %s", second.Date, second.Status)
	}
	checkCoverage(t, sessions, b)
}

func TestReplayProducesIdenticalMetadata(t *testing.T) {
	seg := newSegmenter(t, DefaultConfig())
	first := run(t, seg, threeElementStream())
	second := run(t, seg, threeElementStream())
	if len(first) != 1 || len(second) != 1 {
		t.Fatalf("expected one session per run, got %d and %d", len(first), len(second))
	}
	a, b := first[0].Metadata, second[0].Metadata
	if a.Num != 1 || b.Num != 2 || b.ID != "session-3760-num-2" {
		t.Fatalf("session numbering must continue across runs: %s %s", a.ID, b.ID)
	}
	a.ID, a.Num = "", 0
	b.ID, b.Num = "", 0
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("replay differs:\n%+v\n%+v", a, b)
	}
}

func TestShortFinalSessionIsCut(t *testing.T) {
	for _, trailing := range []int{0, 15, 29} {
		b := &stream{}
		b.opening("Lunae den 8en December.")
		b.filler(40)
		b.opening("Martis den 9en December.")
		b.filler(trailing)
		sessions := run(t, newSegmenter(t, DefaultConfig()), b)
		if len(sessions) != 2 {
			t.Fatalf("trailing %d: expected two sessions, got %d", trailing, len(sessions))
		}
		first, last := sessions[0].Metadata, sessions[1].Metadata
		if first.Date != "1727-12-08" || first.LineCount != 47 {
			t.Fatalf("trailing %d: unexpected first session %+v", trailing, first)
		}
		if last.Date != "1727-12-09" || last.Status != model.StatusNormal || last.LineCount != 7+trailing {
			t.Fatalf("trailing %d: unexpected last session %+v", trailing, last)
		}
		if last.FirstLineID != "line-0047" || len(last.Evidence) != 4 {
			t.Fatalf("trailing %d: last session starts at %s with %d elements", trailing, last.FirstLineID, len(last.Evidence))
		}
		checkCoverage(t, sessions, b)
	}
}

func TestQuotedOpeningDoesNotCut(t *testing.T) {
	b := &stream{}
	b.opening("Lunae den 8en December.")
	b.filler(13)
	b.add("Extract uyt het Register der Resolutien")
	b.opening("Martis den 9en December.")
	b.filler(40)
	sessions := run(t, newSegmenter(t, DefaultConfig()), b)
	if len(sessions) != 1 {
		t.Fatalf("quoted opening must not cut, got %d sessions", len(sessions))
	}
	checkCoverage(t, sessions, b)

	b = &stream{}
	b.opening("Lunae den 8en December.")
	b.filler(14)
	b.opening("Martis den 9en December.")
	b.filler(40)
	if sessions := run(t, newSegmenter(t, DefaultConfig()), b); len(sessions) != 2 {
		t.Fatalf("expected a cut without the extract marker, got %d sessions", len(sessions))
	}
}

func TestLeadingBlankLinesAreSuppressed(t *testing.T) {
	b := &stream{}
	b.add("", "  ")
	b.opening("Lunae den 8en December.")
	b.filler(40)
	sessions := run(t, newSegmenter(t, DefaultConfig()), b)
	if len(sessions) != 1 {
		t.Fatalf("expected one session, got %d", len(sessions))
	}
	md := sessions[0].Metadata
	if md.FirstLineID != "line-0002" || md.LineCount != len(b.lines)-2 {
		t.Fatalf("blank prefix must be dropped, got first %s count %d", md.FirstLineID, md.LineCount)
	}
}

func TestBlankLinesStayInSession(t *testing.T) {
	b := &stream{}
	b.opening("Lunae den 8en December.")
	b.filler(5)
	b.add("")
	b.filler(40)
	sessions := run(t, newSegmenter(t, DefaultConfig()), b)
	checkCoverage(t, sessions, b)
}

func TestForcedCutBoundsPendingLines(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxPendingLines = 50
	b := &stream{}
	b.filler(130)
	sessions := run(t, newSegmenter(t, cfg), b)
	if len(sessions) < 2 {
		t.Fatalf("expected forced cuts, got %d sessions", len(sessions))
	}
	for i, s := range sessions[:len(sessions)-1] {
		if !s.Metadata.ForcedCut {
			t.Fatalf("session %d not marked as forced", i)
		}
		if s.Metadata.DateSessionNum != i+1 {
			t.Fatalf("session %d has date session num %d", i, s.Metadata.DateSessionNum)
		}
		if s.Metadata.Date != "1727-12-08" {
			t.Fatalf("forced cut must keep the date, got %s", s.Metadata.Date)
		}
	}
	if sessions[len(sessions)-1].Metadata.ForcedCut {
		t.Fatalf("final flush is not a forced cut")
	}
	checkCoverage(t, sessions, b)
}

func TestEmitErrorAbortsRun(t *testing.T) {
	seg := newSegmenter(t, DefaultConfig())
	boom := errors.New("boom")
	err := seg.Run(threeElementStream().source(), func(model.Session) error { return boom })
	if !errors.Is(err, boom) {
		t.Fatalf("expected emit error, got %v", err)
	}
}

func TestUnknownMapper(t *testing.T) {
	inv := inventory
	inv.Mapper = "nope"
	if _, err := New(Options{Inventory: inv}); !errors.Is(err, ErrUnknownMapper) {
		t.Fatalf("expected ErrUnknownMapper, got %v", err)
	}
	inv.Mapper = "handwritten"
	if _, err := New(Options{Inventory: inv}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
