package linestream

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/verte-zerg/sessioncut/internal/model"
)

// JSONLWriter writes one JSON value per line to a temporary file that
// replaces the target on Commit.
type JSONLWriter struct {
	path    string
	tmpPath string
	file    *os.File
	buf     *bufio.Writer
	enc     *json.Encoder
}

// CreateJSONL starts an atomic JSONL write to path.
func CreateJSONL(path string) (*JSONLWriter, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output dir: %w", err)
	}
	tmpFile, err := os.CreateTemp(dir, filepath.Base(path)+"-*.tmp")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp output: %w", err)
	}
	buf := bufio.NewWriter(tmpFile)
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	return &JSONLWriter{path: path, tmpPath: tmpFile.Name(), file: tmpFile, buf: buf, enc: enc}, nil
}

// Write encodes v as one line.
func (w *JSONLWriter) Write(v any) error {
	if err := w.enc.Encode(v); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}
	return nil
}

// Commit flushes the data and moves it into place.
func (w *JSONLWriter) Commit() error {
	if err := w.buf.Flush(); err != nil {
		w.Abort()
		return fmt.Errorf("failed to flush output: %w", err)
	}
	if err := w.file.Close(); err != nil {
		_ = os.Remove(w.tmpPath)
		return fmt.Errorf("failed to close output: %w", err)
	}
	if err := os.Rename(w.tmpPath, w.path); err != nil {
		_ = os.Remove(w.tmpPath)
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// Abort discards the temporary file.
func (w *JSONLWriter) Abort() {
	_ = w.file.Close()
	_ = os.Remove(w.tmpPath)
}

// WriteLines writes a line stream as JSONL.
func WriteLines(path string, lines []model.Line) error {
	w, err := CreateJSONL(path)
	if err != nil {
		return err
	}
	for _, line := range lines {
		if err := w.Write(line); err != nil {
			w.Abort()
			return err
		}
	}
	return w.Commit()
}
