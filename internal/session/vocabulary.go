package session

import (
	"fmt"

	"github.com/verte-zerg/sessioncut/internal/calendar"
	"github.com/verte-zerg/sessioncut/internal/fuzzy"
)

// DateVocabulary is the immutable set of date, year and holiday phrases for
// a run of dates starting at the current session date. A new vocabulary is
// built on every date advance and swapped in whole.
type DateVocabulary struct {
	start    calendar.Date
	dates    []calendar.Date
	phrases  []fuzzy.Phrase
	byPhrase map[string]calendar.Date
	model    *fuzzy.PhraseModel
}

// NewDateVocabulary covers start and the following days up to and including
// the workdays-th workday after it.
func NewDateVocabulary(start calendar.Date, workdays int) (*DateVocabulary, error) {
	if start.IsZero() {
		return nil, fmt.Errorf("failed to build date vocabulary: %w", calendar.ErrInvalidDate)
	}
	v := &DateVocabulary{start: start, byPhrase: make(map[string]calendar.Date)}
	d := start
	v.dates = append(v.dates, d)
	for count := 0; count < workdays; {
		d = d.AddDays(1)
		v.dates = append(v.dates, d)
		if d.IsWorkday() {
			count++
		}
	}

	seen := make(map[string]struct{})
	add := func(p fuzzy.Phrase) bool {
		if _, ok := seen[p.Text]; ok {
			return false
		}
		seen[p.Text] = struct{}{}
		v.phrases = append(v.phrases, p)
		return true
	}
	for _, date := range v.dates {
		for _, dp := range date.DatePhrases() {
			if add(fuzzy.Phrase{Text: dp.Text, Variants: dp.Variants, Labels: []string{LabelSessionDate.String()}}) {
				v.byPhrase[dp.Text] = date
			}
		}
		for _, ys := range date.YearStrings() {
			add(fuzzy.Phrase{Text: ys, Labels: []string{LabelSessionYear.String()}})
		}
		if h, ok := date.Holiday(); ok {
			add(fuzzy.Phrase{Text: h.Name, Labels: []string{LabelHoliday.String()}})
		}
	}

	model, err := fuzzy.NewPhraseModel(v.phrases)
	if err != nil {
		return nil, fmt.Errorf("failed to build date vocabulary: %w", err)
	}
	v.model = model
	return v, nil
}

// Start returns the date the vocabulary was built for.
func (v *DateVocabulary) Start() calendar.Date {
	return v.start
}

// Dates returns the covered dates in order.
func (v *DateVocabulary) Dates() []calendar.Date {
	return append([]calendar.Date(nil), v.dates...)
}

// Contains reports whether d is covered.
func (v *DateVocabulary) Contains(d calendar.Date) bool {
	for _, date := range v.dates {
		if date.Equal(d) {
			return true
		}
	}
	return false
}

// Model returns the phrase model for the fuzzy searcher.
func (v *DateVocabulary) Model() *fuzzy.PhraseModel {
	return v.model
}

// DateStrings returns the canonical text of every date phrase.
func (v *DateVocabulary) DateStrings() []string {
	var out []string
	for _, p := range v.phrases {
		if _, ok := v.byPhrase[p.Text]; ok {
			out = append(out, p.Text)
		}
	}
	return out
}

// Lookup returns the date a canonical date phrase belongs to.
func (v *DateVocabulary) Lookup(phrase string) (calendar.Date, bool) {
	d, ok := v.byPhrase[phrase]
	return d, ok
}
