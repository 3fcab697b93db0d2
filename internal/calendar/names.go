package calendar

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Day styles understood in NamePeriod.DayStyles.
const (
	DayNumeric    = "numeric"
	DayNumericEn  = "numeric_en"
	DayNumericE   = "numeric_e"
	DayNumericDot = "numeric_dot"
	DayOrdinal    = "ordinal"
)

// Pattern placeholders.
const (
	placeholderWeekday = "{weekday}"
	placeholderDay     = "{day}"
	placeholderMonth   = "{month}"
	placeholderYear    = "{year}"
)

var weekdayKeys = [7]string{"sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday"}

var monthKeys = [12]string{
	"january", "february", "march", "april", "may", "june",
	"july", "august", "september", "october", "november", "december",
}

// DateNameMapper holds period-specific naming tables for one text type
// (printed or handwritten resolutions).
type DateNameMapper struct {
	Name    string       `yaml:"name"`
	Periods []NamePeriod `yaml:"periods"`
}

// NamePeriod is the naming table valid for the years From..To inclusive.
// Name lists start with the canonical spelling followed by variants.
type NamePeriod struct {
	From         int                 `yaml:"from"`
	To           int                 `yaml:"to"`
	Weekdays     map[string][]string `yaml:"weekdays"`
	Months       map[string][]string `yaml:"months"`
	DayStyles    []string            `yaml:"day_styles"`
	DatePatterns []string            `yaml:"date_patterns"`
	YearPatterns []string            `yaml:"year_patterns"`
}

// DatePhrase is a canonical date string with its spelling variants.
type DatePhrase struct {
	Text     string
	Variants []string
}

// Validate checks that every period names all weekdays and months and has
// at least one date pattern.
func (m *DateNameMapper) Validate() error {
	if m == nil {
		return errors.New("date name mapper is nil")
	}
	if len(m.Periods) == 0 {
		return fmt.Errorf("date name mapper %q has no periods", m.Name)
	}
	for i, p := range m.Periods {
		if p.To != 0 && p.To < p.From {
			return fmt.Errorf("period %d of %q ends before it starts", i, m.Name)
		}
		for _, key := range weekdayKeys {
			if len(p.Weekdays[key]) == 0 {
				return fmt.Errorf("period %d of %q has no name for %s", i, m.Name, key)
			}
		}
		for _, key := range monthKeys {
			if len(p.Months[key]) == 0 {
				return fmt.Errorf("period %d of %q has no name for %s", i, m.Name, key)
			}
		}
		if len(p.DatePatterns) == 0 {
			return fmt.Errorf("period %d of %q has no date patterns", i, m.Name)
		}
		for _, style := range p.DayStyles {
			switch style {
			case DayNumeric, DayNumericEn, DayNumericE, DayNumericDot, DayOrdinal:
			default:
				return fmt.Errorf("period %d of %q has unknown day style %q", i, m.Name, style)
			}
		}
	}
	return nil
}

func (m *DateNameMapper) period(year int) *NamePeriod {
	for i := range m.Periods {
		p := &m.Periods[i]
		if year >= p.From && (p.To == 0 || year <= p.To) {
			return p
		}
	}
	if len(m.Periods) > 0 && year < m.Periods[0].From {
		return &m.Periods[0]
	}
	return &m.Periods[len(m.Periods)-1]
}

// WeekdayName returns the canonical weekday name for the year's period.
func (m *DateNameMapper) WeekdayName(year int, weekday time.Weekday) string {
	return m.period(year).Weekdays[weekdayKeys[weekday]][0]
}

// MonthName returns the canonical month name for the year's period.
func (m *DateNameMapper) MonthName(year int, month time.Month) string {
	return m.period(year).Months[monthKeys[month-1]][0]
}

// DayNames returns the day-of-month renderings for the year's period.
func (m *DateNameMapper) DayNames(year, day int) []string {
	p := m.period(year)
	styles := p.DayStyles
	if len(styles) == 0 {
		styles = []string{DayNumeric}
	}
	out := make([]string, 0, len(styles))
	for _, style := range styles {
		out = appendUnique(out, renderDay(style, day))
	}
	return out
}

// YearStrings returns the year phrases for the year's period.
func (m *DateNameMapper) YearStrings(year int) []string {
	p := m.period(year)
	out := make([]string, 0, len(p.YearPatterns))
	for _, pattern := range p.YearPatterns {
		out = appendUnique(out, strings.ReplaceAll(pattern, placeholderYear, strconv.Itoa(year)))
	}
	return out
}

// DatePhrases renders every date pattern with every day style. The canonical
// text uses the first weekday and month spelling; each further spelling adds
// one variant.
func (m *DateNameMapper) DatePhrases(year int, month time.Month, day int, weekday time.Weekday) []DatePhrase {
	p := m.period(year)
	weekdays := p.Weekdays[weekdayKeys[weekday]]
	months := p.Months[monthKeys[month-1]]
	var out []DatePhrase
	seen := map[string]struct{}{}
	for _, pattern := range p.DatePatterns {
		for _, dayName := range m.DayNames(year, day) {
			text := fillPattern(pattern, weekdays[0], dayName, months[0], year)
			if _, ok := seen[text]; ok {
				continue
			}
			seen[text] = struct{}{}
			var variants []string
			if strings.Contains(pattern, placeholderWeekday) {
				for _, alt := range weekdays[1:] {
					variants = appendUnique(variants, fillPattern(pattern, alt, dayName, months[0], year))
				}
			}
			if strings.Contains(pattern, placeholderMonth) {
				for _, alt := range months[1:] {
					variants = appendUnique(variants, fillPattern(pattern, weekdays[0], dayName, alt, year))
				}
			}
			out = append(out, DatePhrase{Text: text, Variants: variants})
		}
	}
	return out
}

func fillPattern(pattern, weekday, day, month string, year int) string {
	r := strings.NewReplacer(
		placeholderWeekday, weekday,
		placeholderDay, day,
		placeholderMonth, month,
		placeholderYear, strconv.Itoa(year),
	)
	return strings.Join(strings.Fields(r.Replace(pattern)), " ")
}

func renderDay(style string, day int) string {
	n := strconv.Itoa(day)
	switch style {
	case DayNumericEn:
		return n + "en"
	case DayNumericE:
		return n + "e"
	case DayNumericDot:
		return n + "."
	case DayOrdinal:
		return DutchOrdinal(day)
	default:
		return n
	}
}

var ordinalWords = map[int]string{
	1: "eersten", 2: "tweeden", 3: "derden", 4: "vierden", 5: "vijfden",
	6: "sesden", 7: "sevenden", 8: "achtsten", 9: "negenden", 10: "thienden",
	11: "elfden", 12: "twaalfden", 13: "dertienden", 14: "veertienden",
	15: "vijftienden", 16: "sestienden", 17: "seventienden", 18: "achtienden",
	19: "negentienden", 20: "twintighsten", 30: "dertighsten",
}

var unitWords = map[int]string{
	1: "een", 2: "twee", 3: "drie", 4: "vier", 5: "vijf", 6: "ses", 7: "seven", 8: "acht", 9: "negen",
}

// DutchOrdinal spells a day of the month the way the clerks wrote it.
func DutchOrdinal(day int) string {
	if word, ok := ordinalWords[day]; ok {
		return word
	}
	tens := day / 10 * 10
	unit := day % 10
	tensWord, ok := ordinalWords[tens]
	if !ok || unit == 0 {
		return strconv.Itoa(day)
	}
	return unitWords[unit] + " en " + tensWord
}

func appendUnique(list []string, value string) []string {
	for _, v := range list {
		if v == value {
			return list
		}
	}
	return append(list, value)
}

var dutchMonths = map[string][]string{
	"january":   {"Januarij", "Januarii", "January"},
	"february":  {"Februarij", "Februarii", "February"},
	"march":     {"Maart", "Maert", "Martii"},
	"april":     {"April", "Aprilis"},
	"may":       {"Mey", "Meij", "Maij"},
	"june":      {"Junij", "Junii", "Juny"},
	"july":      {"Julij", "Julii", "July"},
	"august":    {"Augusti", "Augustus"},
	"september": {"September", "Septembris"},
	"october":   {"October", "Octobris"},
	"november":  {"November", "Novembris"},
	"december":  {"December", "Decembris"},
}

var latinWeekdays = map[string][]string{
	"monday":    {"Lunae", "Luna"},
	"tuesday":   {"Martis"},
	"wednesday": {"Mercurii", "Mercurij"},
	"thursday":  {"Jovis"},
	"friday":    {"Veneris"},
	"saturday":  {"Sabbathi", "Sabbati"},
	"sunday":    {"Dominica", "Dominicae"},
}

var dutchWeekdays = map[string][]string{
	"monday":    {"Maandag", "Maendagh", "Maandagh"},
	"tuesday":   {"Dingsdag", "Dinsdagh", "Dingsdagh"},
	"wednesday": {"Woensdag", "Woensdagh"},
	"thursday":  {"Donderdag", "Donderdagh"},
	"friday":    {"Vrijdag", "Vrydagh", "Vrijdagh"},
	"saturday":  {"Saturdag", "Saterdagh", "Saturdagh"},
	"sunday":    {"Sondag", "Sondagh", "Zondag"},
}

// PrintedNames returns the mapper for the printed resolution volumes.
func PrintedNames() *DateNameMapper {
	return &DateNameMapper{
		Name: "printed",
		Periods: []NamePeriod{
			{
				From:         1576,
				To:           1704,
				Weekdays:     latinWeekdays,
				Months:       dutchMonths,
				DayStyles:    []string{DayNumeric, DayNumericEn},
				DatePatterns: []string{"{weekday} den {day} {month}", "{weekday} {day} {month}"},
				YearPatterns: []string{"Anno {year}"},
			},
			{
				From:         1705,
				To:           1796,
				Weekdays:     latinWeekdays,
				Months:       dutchMonths,
				DayStyles:    []string{DayNumericEn, DayNumeric},
				DatePatterns: []string{"{weekday} den {day} {month}"},
				YearPatterns: []string{"Anno {year}"},
			},
		},
	}
}

// HandwrittenNames returns the mapper for the handwritten resolution volumes.
func HandwrittenNames() *DateNameMapper {
	return &DateNameMapper{
		Name: "handwritten",
		Periods: []NamePeriod{
			{
				From:         1576,
				To:           1796,
				Weekdays:     dutchWeekdays,
				Months:       dutchMonths,
				DayStyles:    []string{DayOrdinal, DayNumericEn},
				DatePatterns: []string{"{weekday} den {day} {month}"},
				YearPatterns: []string{"Anno {year}"},
			},
		},
	}
}

// BuiltinNames returns a built-in mapper by name.
func BuiltinNames(name string) (*DateNameMapper, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "printed":
		return PrintedNames(), true
	case "handwritten":
		return HandwrittenNames(), true
	default:
		return nil, false
	}
}
