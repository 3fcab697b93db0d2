package synth

import (
	"io"

	"github.com/verte-zerg/sessioncut/internal/model"
)

// Source replays generated lines in order.
type Source struct {
	lines []model.Line
	next  int
}

// NewSource returns a Source over lines.
func NewSource(lines []model.Line) *Source {
	return &Source{lines: lines}
}

// Next returns the next line or io.EOF.
func (s *Source) Next() (model.Line, error) {
	if s.next >= len(s.lines) {
		return model.Line{}, io.EOF
	}
	line := s.lines[s.next]
	s.next++
	return line, nil
}
