package session

import "github.com/verte-zerg/sessioncut/internal/fuzzy"

// DefaultPhrases returns the fixed role and marker phrases of printed
// resolutions. Date, year and holiday names come from the DateVocabulary.
func DefaultPhrases() []fuzzy.Phrase {
	return []fuzzy.Phrase{
		{
			Text:     "PRAESIDE, Den Heere",
			Variants: []string{"PRAESIDE Den Heere", "PRAESIDE, De Heer"},
			Labels:   []string{LabelPresident.String()},
		},
		{
			Text:     "PRAESENTIBUS",
			Variants: []string{"PRAESENTIEBUS"},
			Labels:   []string{LabelAttendants.String()},
		},
		{
			Text:   "Nihil actum est",
			Labels: []string{LabelHoliday.String()},
		},
		{
			Text:     "Zyn gelesen ende gearresteert",
			Variants: []string{"Zijn gelesen ende gearresteert"},
			Labels:   []string{LabelReviewed.String()},
		},
		{
			Text:   "Extract uyt het Register der Resolutien",
			Labels: []string{LabelExtract.String()},
		},
		{
			Text:     "Geinsereert",
			Variants: []string{"Geinsereerd", "Insertie"},
			Labels:   []string{LabelInsertion.String()},
		},
	}
}
