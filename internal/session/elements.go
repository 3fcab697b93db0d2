package session

import (
	"sort"

	"github.com/verte-zerg/sessioncut/internal/calendar"
	"github.com/verte-zerg/sessioncut/internal/event"
	"github.com/verte-zerg/sessioncut/internal/model"
)

// Element is the accepted match for one opening label.
type Element struct {
	Label  Label
	Line   int
	LineID string
	Match  event.Match
	// Date is set for session_date elements.
	Date calendar.Date
}

// Evidence converts the element for session metadata.
func (e Element) Evidence() model.Evidence {
	return model.Evidence{
		Label:   e.Label.String(),
		Phrase:  e.Match.Phrase,
		Matched: e.Match.Text,
		LineID:  e.LineID,
		Offset:  e.Match.Offset,
		End:     e.Match.End,
		Score:   e.Match.Score,
	}
}

// OpeningElements maps each label to its accepted match. It is rebuilt from
// the window on every evaluation.
type OpeningElements struct {
	byLabel map[Label]Element
}

// Get returns the element for l.
func (o OpeningElements) Get(l Label) (Element, bool) {
	e, ok := o.byLabel[l]
	return e, ok
}

// Has reports whether l was accepted.
func (o OpeningElements) Has(l Label) bool {
	_, ok := o.byLabel[l]
	return ok
}

// Len returns the number of accepted labels.
func (o OpeningElements) Len() int {
	return len(o.byLabel)
}

// Elements returns the accepted elements in window order.
func (o OpeningElements) Elements() []Element {
	out := make([]Element, 0, len(o.byLabel))
	for _, e := range o.byLabel {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Line != out[j].Line {
			return out[i].Line < out[j].Line
		}
		if out[i].Match.Offset != out[j].Match.Offset {
			return out[i].Match.Offset < out[j].Match.Offset
		}
		return out[i].Label < out[j].Label
	})
	return out
}

// Labels returns the accepted labels in window order.
func (o OpeningElements) Labels() []Label {
	elems := o.Elements()
	out := make([]Label, len(elems))
	for i, e := range elems {
		out[i] = e.Label
	}
	return out
}

// LastLine returns the window index of the latest element, or -1.
func (o OpeningElements) LastLine() int {
	last := -1
	for _, e := range o.byLabel {
		last = max(last, e.Line)
	}
	return last
}

// Evidence returns the elements as metadata evidence in window order.
func (o OpeningElements) Evidence() []model.Evidence {
	elems := o.Elements()
	out := make([]model.Evidence, len(elems))
	for i, e := range elems {
		out[i] = e.Evidence()
	}
	return out
}

type dateResolver func(phrase string) (calendar.Date, error)

// extractElements applies the positional rules to the window. Dates and
// years are settled first so that the other labels are anchored on the final
// date match.
func extractElements(window []event.Line, pos Positions, resolve dateResolver) (OpeningElements, error) {
	elems := OpeningElements{byLabel: make(map[Label]Element)}

	for i, line := range window {
		if i > pos.DateMaxLine {
			break
		}
		for _, m := range line.Matches {
			if m.Offset > pos.DateMaxOffset {
				continue
			}
			if m.HasLabel(LabelSessionDate.String()) {
				d, err := resolve(m.Phrase)
				if err != nil {
					return OpeningElements{}, err
				}
				cand := Element{Label: LabelSessionDate, Line: i, LineID: line.ID, Match: m, Date: d}
				cur, ok := elems.byLabel[LabelSessionDate]
				switch {
				case !ok:
					elems.byLabel[LabelSessionDate] = cand
				case cur.Date.IsRestDay() && d.IsWorkday() && m.Score > cur.Match.Score:
					elems.byLabel[LabelSessionDate] = cand
				}
			}
			if m.HasLabel(LabelSessionYear.String()) && !elems.Has(LabelSessionYear) {
				elems.byLabel[LabelSessionYear] = Element{Label: LabelSessionYear, Line: i, LineID: line.ID, Match: m}
			}
		}
	}

	date, hasDate := elems.Get(LabelSessionDate)
	within := func(label, anchor Label, line int, a Element) bool {
		r, ok := pos.Distance(label, anchor)
		return ok && r.Contains(line-a.Line)
	}
	for i, line := range window {
		for _, m := range line.Matches {
			for _, name := range m.Labels {
				label, ok := ParseLabel(name)
				if !ok || elems.Has(label) {
					continue
				}
				el := Element{Label: label, Line: i, LineID: line.ID, Match: m}
				switch label {
				case LabelExtract, LabelInsertion:
					elems.byLabel[label] = el
				case LabelHoliday, LabelPresident:
					if !hasDate || !within(label, LabelSessionDate, i, date) {
						continue
					}
					elems.byLabel[label] = el
					if label == LabelPresident {
						if att, ok := elems.Get(LabelAttendants); ok && att.Line == i {
							delete(elems.byLabel, LabelAttendants)
						}
					}
				case LabelAttendants:
					if !hasDate || !within(label, LabelSessionDate, i, date) {
						continue
					}
					if pres, ok := elems.Get(LabelPresident); ok && !within(label, LabelPresident, i, pres) {
						continue
					}
					elems.byLabel[label] = el
				case LabelReviewed:
					att, ok := elems.Get(LabelAttendants)
					if !ok || !within(label, LabelAttendants, i, att) {
						continue
					}
					elems.byLabel[label] = el
				}
			}
		}
	}
	return elems, nil
}
