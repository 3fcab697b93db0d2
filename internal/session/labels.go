package session

// Label classifies a phrase match as one kind of session opening element.
type Label int

// Opening element labels.
const (
	LabelSessionDate Label = iota
	LabelSessionYear
	LabelHoliday
	LabelPresident
	LabelAttendants
	LabelReviewed
	LabelExtract
	LabelInsertion
)

var labelNames = [...]string{
	LabelSessionDate: "session_date",
	LabelSessionYear: "session_year",
	LabelHoliday:     "holiday",
	LabelPresident:   "president",
	LabelAttendants:  "attendants",
	LabelReviewed:    "reviewed",
	LabelExtract:     "extract",
	LabelInsertion:   "insertion",
}

// String returns the label name used on phrases.
func (l Label) String() string {
	if l < 0 || int(l) >= len(labelNames) {
		return "unknown"
	}
	return labelNames[l]
}

// ParseLabel maps a phrase label name to a Label.
func ParseLabel(name string) (Label, bool) {
	for i, n := range labelNames {
		if n == name {
			return Label(i), true
		}
	}
	return 0, false
}

// Rank returns the position of l in the canonical opening order. Labels that
// mark quoted fragments have no rank.
func (l Label) Rank() (int, bool) {
	switch l {
	case LabelSessionDate:
		return 0, true
	case LabelSessionYear:
		return 1, true
	case LabelHoliday:
		return 2, true
	case LabelPresident:
		return 3, true
	case LabelAttendants:
		return 4, true
	case LabelReviewed:
		return 5, true
	default:
		return 0, false
	}
}

// Range is an inclusive interval of line distances.
type Range struct {
	Min int
	Max int
}

// Contains reports whether n lies in the range.
func (r Range) Contains(n int) bool {
	return n >= r.Min && n <= r.Max
}

// Positions holds the positional tolerances of opening elements.
type Positions struct {
	// DateMaxOffset is the last character offset at which a date or year
	// match may start on its line.
	DateMaxOffset int
	// DateMaxLine is the last window line that may hold a date or year match.
	DateMaxLine              int
	PresidentAfterDate       Range
	AttendantsAfterDate      Range
	AttendantsAfterPresident Range
	HolidayAfterDate         Range
	ReviewedAfterAttendants  Range
}

// DefaultPositions returns the empirically fixed tolerances.
func DefaultPositions() Positions {
	return Positions{
		DateMaxOffset:            4,
		DateMaxLine:              9,
		PresidentAfterDate:       Range{Min: 0, Max: 5},
		AttendantsAfterDate:      Range{Min: 3, Max: 12},
		AttendantsAfterPresident: Range{Min: 1, Max: 4},
		HolidayAfterDate:         Range{Min: 0, Max: 3},
		ReviewedAfterAttendants:  Range{Min: 1, Max: 15},
	}
}

// Distance returns the allowed line distance of label after anchor. The
// second result is false when label is not positioned relative to anchor.
func (p Positions) Distance(label, anchor Label) (Range, bool) {
	switch {
	case label == LabelPresident && anchor == LabelSessionDate:
		return p.PresidentAfterDate, true
	case label == LabelAttendants && anchor == LabelSessionDate:
		return p.AttendantsAfterDate, true
	case label == LabelAttendants && anchor == LabelPresident:
		return p.AttendantsAfterPresident, true
	case label == LabelHoliday && anchor == LabelSessionDate:
		return p.HolidayAfterDate, true
	case label == LabelReviewed && anchor == LabelAttendants:
		return p.ReviewedAfterAttendants, true
	default:
		return Range{}, false
	}
}
