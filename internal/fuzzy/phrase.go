// Package fuzzy finds approximate occurrences of known phrases in noisy OCR
// text and reports them with character offsets and similarity scores.
package fuzzy

import (
	"errors"
	"fmt"
	"strings"
)

// ErrDuplicatePhrase reports a phrase registered twice in one model.
var ErrDuplicatePhrase = errors.New("duplicate phrase")

// Phrase is a keyword phrase with optional spelling variants and labels.
type Phrase struct {
	Text     string
	Variants []string
	Labels   []string
}

// HasLabel reports whether the phrase carries label.
func (p Phrase) HasLabel(label string) bool {
	for _, l := range p.Labels {
		if l == label {
			return true
		}
	}
	return false
}

// PhraseModel is an immutable set of phrases indexed by text.
type PhraseModel struct {
	phrases []Phrase
	index   map[string]int
}

// NewPhraseModel builds a model. Empty phrases are rejected, as is a phrase
// text that appears twice.
func NewPhraseModel(phrases []Phrase) (*PhraseModel, error) {
	m := &PhraseModel{
		phrases: make([]Phrase, 0, len(phrases)),
		index:   make(map[string]int, len(phrases)),
	}
	for _, p := range phrases {
		text := strings.TrimSpace(p.Text)
		if text == "" {
			return nil, errors.New("phrase text is empty")
		}
		if _, ok := m.index[text]; ok {
			return nil, fmt.Errorf("%w: %q", ErrDuplicatePhrase, text)
		}
		p.Text = text
		p.Variants = append([]string(nil), p.Variants...)
		p.Labels = append([]string(nil), p.Labels...)
		m.index[text] = len(m.phrases)
		m.phrases = append(m.phrases, p)
	}
	return m, nil
}

// Phrases returns the phrases in registration order.
func (m *PhraseModel) Phrases() []Phrase {
	return append([]Phrase(nil), m.phrases...)
}

// Lookup returns the phrase registered under text.
func (m *PhraseModel) Lookup(text string) (Phrase, bool) {
	i, ok := m.index[text]
	if !ok {
		return Phrase{}, false
	}
	return m.phrases[i], true
}

// Len returns the number of phrases.
func (m *PhraseModel) Len() int {
	return len(m.phrases)
}
