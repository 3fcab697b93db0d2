package session

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMissingDateEvidence is returned when a date match is required but
	// the opening elements hold none.
	ErrMissingDateEvidence = errors.New("missing session date evidence")
	// ErrVocabularyDesync marks a date match whose phrase is not part of the
	// active date vocabulary.
	ErrVocabularyDesync = errors.New("date phrase not in active vocabulary")
)

// VocabularyDesyncError carries the state needed to inspect a desync offline.
type VocabularyDesyncError struct {
	Phrase      string
	Current     string
	DateStrings []string
	Window      []string
}

func (e *VocabularyDesyncError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%v: %q (current date %s)", ErrVocabularyDesync, e.Phrase, e.Current)
	b.WriteString("\nactive date strings:")
	for _, s := range e.DateStrings {
		b.WriteString("\n  ")
		b.WriteString(s)
	}
	b.WriteString("\nwindow:")
	for i, line := range e.Window {
		fmt.Fprintf(&b, "\n  %2d %s", i, line)
	}
	return b.String()
}

func (e *VocabularyDesyncError) Unwrap() error {
	return ErrVocabularyDesync
}
