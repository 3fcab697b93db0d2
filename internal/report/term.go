package report

import (
	"math"
	"os"

	"golang.org/x/term"
)

const (
	terminalWidthBackup = 80
	minCurveWidth       = 10
)

// TerminalWidth returns the width of stdout or a fallback when it is not a terminal.
func TerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return terminalWidthBackup
	}
	return width
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

func resampleSeries(values []float64, width int) []float64 {
	if len(values) == 0 || width <= 0 {
		return nil
	}
	if len(values) <= width {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	// Each bucket keeps its maximum so a single oversized session stays visible.
	out := make([]float64, width)
	for i := 0; i < width; i++ {
		start := i * len(values) / width
		end := (i + 1) * len(values) / width
		if end <= start {
			end = start + 1
		}
		peak := math.Inf(-1)
		for _, v := range values[start:end] {
			peak = math.Max(peak, v)
		}
		out[i] = peak
	}
	return out
}
