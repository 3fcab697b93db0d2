// Package linestream reads transcribed line streams and writes JSONL files.
package linestream

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/verte-zerg/sessioncut/internal/model"
)

// Format names an input encoding.
type Format string

// Input formats.
const (
	FormatJSONL Format = "jsonl"
	FormatText  Format = "text"
)

const maxLineBytes = 4 << 20

// ErrMissingID is returned for a JSONL record without an id.
var ErrMissingID = errors.New("line record has no id")

type record struct {
	ID          string        `json:"id"`
	Text        *string       `json:"text"`
	PageID      string        `json:"page_id"`
	ScanID      string        `json:"scan_id"`
	Coordinates []model.Point `json:"coordinates"`
}

// Reader yields lines from an io.Reader in reading order.
type Reader struct {
	scanner *bufio.Scanner
	format  Format
	prefix  string
	n       int
}

// NewReader returns a Reader for the given format. Text lines get the ids
// "{prefix}-{n}" counted from 1.
func NewReader(r io.Reader, format Format, prefix string) *Reader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	if prefix == "" {
		prefix = "line"
	}
	return &Reader{scanner: scanner, format: format, prefix: prefix}
}

// Next returns the next line or io.EOF.
func (r *Reader) Next() (model.Line, error) {
	for r.scanner.Scan() {
		r.n++
		raw := r.scanner.Text()
		if r.format == FormatText {
			return model.Line{ID: fmt.Sprintf("%s-%06d", r.prefix, r.n), Text: strings.TrimRight(raw, "\r")}, nil
		}
		if strings.TrimSpace(raw) == "" {
			continue
		}
		var rec record
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return model.Line{}, fmt.Errorf("failed to decode line record %d: %w", r.n, err)
		}
		if rec.ID == "" {
			return model.Line{}, fmt.Errorf("record %d: %w", r.n, ErrMissingID)
		}
		line := model.Line{ID: rec.ID, PageID: rec.PageID, ScanID: rec.ScanID, Coordinates: rec.Coordinates}
		if rec.Text != nil {
			line.Text = *rec.Text
		}
		return line, nil
	}
	if err := r.scanner.Err(); err != nil {
		return model.Line{}, fmt.Errorf("failed to read line stream: %w", err)
	}
	return model.Line{}, io.EOF
}

// File is a Reader over an opened file.
type File struct {
	*Reader
	file *os.File
}

// DetectFormat picks the format from the file extension.
func DetectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jsonl", ".ndjson":
		return FormatJSONL
	default:
		return FormatText
	}
}

// Open opens path as a line stream. An empty format is detected from the
// extension; "-" reads standard input.
func Open(path string, format Format) (*File, error) {
	if format == "" {
		format = DetectFormat(path)
	}
	if path == "-" {
		return &File{Reader: NewReader(os.Stdin, format, "stdin")}, nil
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open line stream: %w", err)
	}
	prefix := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return &File{Reader: NewReader(file, format, prefix), file: file}, nil
}

// Close closes the underlying file.
func (f *File) Close() error {
	if f.file == nil {
		return nil
	}
	return f.file.Close()
}

// ReadAll drains a Reader. It is meant for small streams and tests.
func ReadAll(r *Reader) ([]model.Line, error) {
	var lines []model.Line
	for {
		line, err := r.Next()
		if errors.Is(err, io.EOF) {
			return lines, nil
		}
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
}
