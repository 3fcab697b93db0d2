package gate

import (
	"fmt"
	"strings"
	"testing"

	"github.com/verte-zerg/sessioncut/internal/model"
)

func line(i, chars int) model.Line {
	return model.Line{ID: fmt.Sprintf("line-%d", i), Text: strings.Repeat("x", chars)}
}

func TestSparseLinesAreLetThrough(t *testing.T) {
	w := New(10, 400)
	var got []string
	for i := 0; i < 30; i++ {
		w.AddLine(line(i, 20))
		w.CheckThreshold()
		if l, ok := w.First(); ok {
			got = append(got, l.ID)
		}
	}
	for _, r := range w.Drain() {
		if r.LetThrough {
			got = append(got, r.Line.ID)
		}
	}
	if len(got) != 30 {
		t.Fatalf("expected all 30 lines let through, got %d", len(got))
	}
	for i, id := range got {
		if id != fmt.Sprintf("line-%d", i) {
			t.Fatalf("unexpected order at %d: %s", i, id)
		}
	}
}

func TestDenseBlockIsDropped(t *testing.T) {
	w := New(10, 400)
	results := map[string]bool{}
	for i := 0; i < 40; i++ {
		chars := 20
		if i >= 10 && i < 30 {
			chars = 80
		}
		w.AddLine(line(i, chars))
		w.CheckThreshold()
		if w.Pending() {
			id := w.slots[0].line.ID
			_, ok := w.First()
			results[id] = ok
		}
	}
	for _, r := range w.Drain() {
		results[r.Line.ID] = r.LetThrough
	}
	if len(results) != 40 {
		t.Fatalf("expected a decision for every line, got %d", len(results))
	}
	if results["line-20"] {
		t.Fatalf("line inside the dense block must be dropped")
	}
	if !results["line-2"] || !results["line-38"] {
		t.Fatalf("sparse lines must be let through: %v", results)
	}
}

func TestNoLineEmittedTwice(t *testing.T) {
	w := New(4, 1000)
	seen := map[string]int{}
	for i := 0; i < 12; i++ {
		w.AddLine(line(i, 5))
		w.CheckThreshold()
		for j := 0; j < 3; j++ {
			if l, ok := w.First(); ok {
				seen[l.ID]++
			}
		}
	}
	for _, r := range w.Drain() {
		if r.LetThrough {
			seen[r.Line.ID]++
		}
	}
	for id, n := range seen {
		if n != 1 {
			t.Fatalf("line %s emitted %d times", id, n)
		}
	}
	if len(seen) != 12 {
		t.Fatalf("expected 12 lines, got %d", len(seen))
	}
}

func TestCharTotalExcludesEvictedLines(t *testing.T) {
	w := New(3, 400)
	sizes := []int{10, 200, 30, 40, 7}
	for i, n := range sizes {
		w.AddLine(line(i, n))
		start := max(0, i-2)
		want := 0
		for _, s := range sizes[start : i+1] {
			want += s
		}
		if w.Chars() != want {
			t.Fatalf("after line %d chars = %d, want %d", i, w.Chars(), want)
		}
	}
}

func TestFirstRequiresFullBuffer(t *testing.T) {
	w := New(3, 400)
	w.AddLine(line(0, 1))
	w.CheckThreshold()
	if _, ok := w.First(); ok {
		t.Fatalf("first must wait for a full buffer")
	}
	if w.Pending() {
		t.Fatalf("pending must be false before the buffer is full")
	}
}
