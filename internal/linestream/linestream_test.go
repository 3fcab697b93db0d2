package linestream

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/verte-zerg/sessioncut/internal/model"
)

func TestJSONLNullTextIsBlank(t *testing.T) {
	input := `{"id":"a","text":"Lunae den 8en December.","page_id":"p1","coordinates":[{"x":1,"y":2}]}
{"id":"b","text":null}

{"id":"c"}
`
	lines, err := ReadAll(NewReader(strings.NewReader(input), FormatJSONL, ""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if lines[0].PageID != "p1" || len(lines[0].Coordinates) != 1 || lines[0].Coordinates[0].Y != 2 {
		t.Fatalf("unexpected first line %+v", lines[0])
	}
	if !lines[1].IsBlank() || !lines[2].IsBlank() {
		t.Fatalf("null and missing text must be blank")
	}
}

func TestJSONLMissingID(t *testing.T) {
	_, err := ReadAll(NewReader(strings.NewReader(`{"text":"x"}`), FormatJSONL, ""))
	if !errors.Is(err, ErrMissingID) {
		t.Fatalf("expected ErrMissingID, got %v", err)
	}
}

func TestTextLinesKeepBlanks(t *testing.T) {
	lines, err := ReadAll(NewReader(strings.NewReader("one\r\n\nthree\n"), FormatText, "inv"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(lines) != 3 || lines[0].ID != "inv-000001" || lines[0].Text != "one" || !lines[1].IsBlank() {
		t.Fatalf("unexpected lines %+v", lines)
	}
}

func TestWriteLinesRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out", "stream.jsonl")
	want := []model.Line{{ID: "a", Text: "PRAESIDE, Den Heere"}, {ID: "b"}}
	if err := WriteLines(path, want); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f, err := Open(path, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			_ = cerr
		}
	}()
	got, err := ReadAll(f.Reader)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0].Text != want[0].Text || got[1].ID != "b" {
		t.Fatalf("unexpected lines %+v", got)
	}
	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("temp files left behind: %d entries", len(entries))
	}
}

func TestDetectFormat(t *testing.T) {
	if DetectFormat("x/inv.JSONL") != FormatJSONL || DetectFormat("inv.txt") != FormatText {
		t.Fatalf("unexpected format detection")
	}
}
