package fuzzy

import (
	"sort"
	"strings"
	"unicode"
)

// Config holds the thresholds of a Searcher.
type Config struct {
	// CharMatchThreshold is the share of phrase characters that must occur
	// anywhere in the text before candidates are generated.
	CharMatchThreshold float64
	// NgramThreshold is the share of phrase skip-grams a candidate window must contain.
	NgramThreshold float64
	// LevenshteinThreshold is the minimum similarity of an accepted match.
	LevenshteinThreshold float64
	MaxLengthVariance    int
	NgramSize            int
	SkipSize             int
	IgnoreCase           bool
}

// DefaultConfig returns thresholds tuned for session headings.
func DefaultConfig() Config {
	return Config{
		CharMatchThreshold:   0.6,
		NgramThreshold:       0.5,
		LevenshteinThreshold: 0.8,
		MaxLengthVariance:    3,
		NgramSize:            2,
		SkipSize:             2,
		IgnoreCase:           true,
	}
}

// Match is one approximate occurrence of a phrase. Offsets count characters
// (runes) into the searched text; End is exclusive.
type Match struct {
	Phrase  string
	Variant string
	Text    string
	Offset  int
	End     int
	Score   float64
	Labels  []string
}

// HasLabel reports whether the match carries label.
func (m Match) HasLabel(label string) bool {
	for _, l := range m.Labels {
		if l == label {
			return true
		}
	}
	return false
}

type skipgram struct {
	a, b rune
	gap  int
}

type preparedText struct {
	text  string
	runes []rune
	chars map[rune]int
	total int
	grams map[skipgram]struct{}
}

type preparedPhrase struct {
	phrase Phrase
	texts  []preparedText
}

// Searcher matches one PhraseModel against text. It is immutable and safe
// for concurrent use.
type Searcher struct {
	cfg     Config
	model   *PhraseModel
	phrases []preparedPhrase
}

// NewSearcher prepares the phrases of model for matching.
func NewSearcher(cfg Config, model *PhraseModel) *Searcher {
	if cfg.NgramSize != 2 {
		cfg.NgramSize = 2
	}
	if cfg.SkipSize < 1 {
		cfg.SkipSize = 1
	}
	s := &Searcher{cfg: cfg, model: model}
	for _, p := range model.phrases {
		pp := preparedPhrase{phrase: p}
		pp.texts = append(pp.texts, s.prepare(p.Text))
		for _, v := range p.Variants {
			if strings.TrimSpace(v) == "" {
				continue
			}
			pp.texts = append(pp.texts, s.prepare(v))
		}
		s.phrases = append(s.phrases, pp)
	}
	return s
}

// Config returns the searcher thresholds.
func (s *Searcher) Config() Config {
	return s.cfg
}

// Model returns the phrase model.
func (s *Searcher) Model() *PhraseModel {
	return s.model
}

func (s *Searcher) normalize(text string) []rune {
	if s.cfg.IgnoreCase {
		text = strings.ToLower(text)
	}
	return []rune(text)
}

func (s *Searcher) prepare(text string) preparedText {
	runes := s.normalize(text)
	chars, total := charCounts(runes)
	return preparedText{
		text:  text,
		runes: runes,
		chars: chars,
		total: total,
		grams: skipgrams(runes, s.cfg.SkipSize),
	}
}

// FindMatches returns the non-overlapping best matches of every phrase in
// text, ordered by offset.
func (s *Searcher) FindMatches(text string) []Match {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	original := []rune(text)
	norm := s.normalize(text)
	if len(norm) != len(original) {
		// Case folding changed the rune count; fall back to the raw text so
		// offsets stay valid.
		norm = original
	}
	textChars, _ := charCounts(norm)
	starts := wordStarts(norm)

	var out []Match
	for _, pp := range s.phrases {
		var candidates []Match
		for _, pt := range pp.texts {
			if charOverlap(pt, textChars) < s.cfg.CharMatchThreshold {
				continue
			}
			for _, start := range starts {
				m, ok := s.matchAt(pt, norm, start)
				if !ok {
					continue
				}
				m.Phrase = pp.phrase.Text
				m.Labels = append([]string(nil), pp.phrase.Labels...)
				m.Text = string(original[m.Offset:m.End])
				candidates = append(candidates, m)
			}
		}
		out = append(out, selectNonOverlapping(candidates)...)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Offset == out[j].Offset {
			return out[i].Score > out[j].Score
		}
		return out[i].Offset < out[j].Offset
	})
	return out
}

func (s *Searcher) matchAt(pt preparedText, text []rune, start int) (Match, bool) {
	length := len(pt.runes)
	variance := s.cfg.MaxLengthVariance
	windowEnd := min(len(text), start+length+variance)
	if windowEnd-start < length-variance || windowEnd <= start {
		return Match{}, false
	}
	if gramOverlap(pt.grams, skipgrams(text[start:windowEnd], s.cfg.SkipSize)) < s.cfg.NgramThreshold {
		return Match{}, false
	}
	bestScore := -1.0
	bestEnd := 0
	for l := max(1, length-variance); l <= length+variance; l++ {
		end := start + l
		if end > len(text) {
			break
		}
		score := Similarity(pt.runes, text[start:end])
		if score > bestScore || (score == bestScore && abs(l-length) < abs(bestEnd-start-length)) {
			bestScore = score
			bestEnd = end
		}
	}
	if bestScore < s.cfg.LevenshteinThreshold {
		return Match{}, false
	}
	return Match{Variant: pt.text, Offset: start, End: bestEnd, Score: bestScore}, true
}

// selectNonOverlapping keeps the highest scoring candidates that do not overlap.
func selectNonOverlapping(candidates []Match) []Match {
	if len(candidates) <= 1 {
		return candidates
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Score == candidates[j].Score {
			return candidates[i].Offset < candidates[j].Offset
		}
		return candidates[i].Score > candidates[j].Score
	})
	var kept []Match
	for _, c := range candidates {
		overlaps := false
		for _, k := range kept {
			if c.Offset < k.End && k.Offset < c.End {
				overlaps = true
				break
			}
		}
		if !overlaps {
			kept = append(kept, c)
		}
	}
	return kept
}

func wordStarts(text []rune) []int {
	var starts []int
	for i, r := range text {
		if unicode.IsSpace(r) {
			continue
		}
		if i == 0 || unicode.IsSpace(text[i-1]) {
			starts = append(starts, i)
		}
	}
	return starts
}

func charCounts(runes []rune) (map[rune]int, int) {
	counts := make(map[rune]int, len(runes))
	total := 0
	for _, r := range runes {
		if unicode.IsSpace(r) {
			continue
		}
		counts[r]++
		total++
	}
	return counts, total
}

func charOverlap(pt preparedText, textChars map[rune]int) float64 {
	if pt.total == 0 {
		return 0
	}
	shared := 0
	for r, n := range pt.chars {
		shared += min(n, textChars[r])
	}
	return float64(shared) / float64(pt.total)
}

func skipgrams(runes []rune, skipSize int) map[skipgram]struct{} {
	grams := make(map[skipgram]struct{}, len(runes)*skipSize)
	for i := range runes {
		for gap := 1; gap <= skipSize && i+gap < len(runes); gap++ {
			grams[skipgram{a: runes[i], b: runes[i+gap], gap: gap}] = struct{}{}
		}
	}
	return grams
}

func gramOverlap(phrase, window map[skipgram]struct{}) float64 {
	if len(phrase) == 0 {
		return 0
	}
	shared := 0
	for g := range phrase {
		if _, ok := window[g]; ok {
			shared++
		}
	}
	return float64(shared) / float64(len(phrase))
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
