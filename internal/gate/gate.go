// Package gate delays lines until their neighbourhood is known and lets
// through only lines that do not sit in a dense block of noise.
package gate

import (
	"unicode/utf8"

	"github.com/verte-zerg/sessioncut/internal/model"
)

// Defaults for the gated window.
const (
	DefaultSize          = 10
	DefaultShutThreshold = 400
)

type slot struct {
	line       model.Line
	chars      int
	letThrough bool
	decided    bool
}

// Result is the admission decision for one line.
type Result struct {
	Line       model.Line
	LetThrough bool
}

// Window is a fixed-capacity ring of lines with a running character total.
type Window struct {
	size      int
	threshold int
	slots     []slot
	chars     int
}

// New returns a Window. Non-positive arguments select the defaults.
func New(size, shutThreshold int) *Window {
	if size <= 0 {
		size = DefaultSize
	}
	if shutThreshold <= 0 {
		shutThreshold = DefaultShutThreshold
	}
	return &Window{size: size, threshold: shutThreshold, slots: make([]slot, 0, size)}
}

// Size returns the capacity.
func (w *Window) Size() int {
	return w.size
}

// Len returns the number of buffered lines.
func (w *Window) Len() int {
	return len(w.slots)
}

// Full reports whether the buffer is at capacity.
func (w *Window) Full() bool {
	return len(w.slots) == w.size
}

// Chars returns the character total of the buffered lines.
func (w *Window) Chars() int {
	return w.chars
}

// AddLine appends a line, evicting the oldest one when full.
func (w *Window) AddLine(line model.Line) {
	if len(w.slots) == w.size {
		w.evict()
	}
	n := utf8.RuneCountInString(line.Text)
	w.slots = append(w.slots, slot{line: line, chars: n})
	w.chars += n
}

func (w *Window) evict() {
	w.chars -= w.slots[0].chars
	w.slots[0] = slot{}
	w.slots = w.slots[1:]
}

// CheckThreshold marks the middle line as let through when the buffer's
// character total is below the shut threshold. A mark is never withdrawn.
func (w *Window) CheckThreshold() {
	if len(w.slots) == 0 {
		return
	}
	if w.chars < w.threshold {
		w.slots[len(w.slots)/2].letThrough = true
	}
}

// First returns the oldest line of a full buffer if it was let through. Each
// line is decided once; later calls for the same line report false.
func (w *Window) First() (model.Line, bool) {
	if !w.Full() {
		return model.Line{}, false
	}
	s := &w.slots[0]
	if s.decided {
		return model.Line{}, false
	}
	s.decided = true
	return s.line, s.letThrough
}

// Oldest returns the oldest buffered line.
func (w *Window) Oldest() (model.Line, bool) {
	if len(w.slots) == 0 {
		return model.Line{}, false
	}
	return w.slots[0].line, true
}

// Pending reports whether the oldest line of a full buffer awaits its decision.
func (w *Window) Pending() bool {
	return w.Full() && !w.slots[0].decided
}

// Drain empties the buffer at stream end, re-checking the threshold as the
// buffer shrinks, and returns the undecided lines in order.
func (w *Window) Drain() []Result {
	var out []Result
	for len(w.slots) > 0 {
		w.CheckThreshold()
		s := w.slots[0]
		w.evict()
		if s.decided {
			continue
		}
		out = append(out, Result{Line: s.line, LetThrough: s.letThrough})
	}
	return out
}
