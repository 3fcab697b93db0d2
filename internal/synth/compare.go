package synth

import "github.com/verte-zerg/sessioncut/internal/model"

// Score compares segmenter output with the generated truth.
type Score struct {
	Expected   int
	Found      int
	Boundaries int
	Dates      int
}

// BoundaryRecall is the share of true session starts that were cut.
func (s Score) BoundaryRecall() float64 {
	if s.Expected == 0 {
		return 0
	}
	return float64(s.Boundaries) / float64(s.Expected)
}

// DateAccuracy is the share of found boundaries that also carry the true date.
func (s Score) DateAccuracy() float64 {
	if s.Boundaries == 0 {
		return 0
	}
	return float64(s.Dates) / float64(s.Boundaries)
}

// Compare matches sessions to truth by their first line.
func Compare(truth []Truth, sessions []model.SessionMetadata) Score {
	byFirst := make(map[string]Truth, len(truth))
	for _, t := range truth {
		byFirst[t.FirstLineID] = t
	}
	score := Score{Expected: len(truth), Found: len(sessions)}
	for _, s := range sessions {
		t, ok := byFirst[s.FirstLineID]
		if !ok {
			continue
		}
		score.Boundaries++
		if t.Date == s.Date {
			score.Dates++
		}
	}
	return score
}
