package calendar

import "time"

const isoLayout = "2006-01-02"

// Date is an immutable calendar day bound to the Calendar that named it.
type Date struct {
	t   time.Time
	cal *Calendar
}

// IsZero reports whether d is the zero Date.
func (d Date) IsZero() bool {
	return d.cal == nil
}

// Year returns the year.
func (d Date) Year() int { return d.t.Year() }

// Month returns the month.
func (d Date) Month() time.Month { return d.t.Month() }

// Day returns the day of the month.
func (d Date) Day() int { return d.t.Day() }

// Weekday returns the day of the week.
func (d Date) Weekday() time.Weekday { return d.t.Weekday() }

// Time returns the date at midnight UTC.
func (d Date) Time() time.Time { return d.t }

// ISO returns the date as YYYY-MM-DD.
func (d Date) ISO() string {
	return d.t.Format(isoLayout)
}

func (d Date) String() string {
	return d.ISO()
}

// WeekdayName returns the period-specific weekday name.
func (d Date) WeekdayName() string {
	return d.cal.names.WeekdayName(d.Year(), d.Weekday())
}

// MonthName returns the period-specific month name.
func (d Date) MonthName() string {
	return d.cal.names.MonthName(d.Year(), d.Month())
}

// DateStrings returns the canonical date phrases for d, most common first.
func (d Date) DateStrings() []string {
	phrases := d.cal.names.DatePhrases(d.Year(), d.Month(), d.Day(), d.Weekday())
	out := make([]string, 0, len(phrases))
	for _, p := range phrases {
		out = append(out, p.Text)
	}
	return out
}

// DatePhrases returns the canonical date phrases with their spelling variants.
func (d Date) DatePhrases() []DatePhrase {
	return d.cal.names.DatePhrases(d.Year(), d.Month(), d.Day(), d.Weekday())
}

// YearStrings returns the year phrases for the year of d.
func (d Date) YearStrings() []string {
	return d.cal.names.YearStrings(d.Year())
}

// AddDays returns the date n days later (earlier for negative n).
func (d Date) AddDays(n int) Date {
	return Date{t: d.t.AddDate(0, 0, n), cal: d.cal}
}

// DaysUntil returns the number of calendar days from d to other.
func (d Date) DaysUntil(other Date) int {
	return int(other.t.Sub(d.t).Hours() / 24)
}

// Before reports whether d is earlier than other.
func (d Date) Before(other Date) bool { return d.t.Before(other.t) }

// After reports whether d is later than other.
func (d Date) After(other Date) bool { return d.t.After(other.t) }

// Equal reports whether d and other are the same day.
func (d Date) Equal(other Date) bool { return sameDay(d.t, other.t) }

// Holiday returns the holiday falling on d, if any.
func (d Date) Holiday() (Holiday, bool) {
	return d.cal.holiday(d.t)
}

// IsHoliday reports whether d is a holiday.
func (d Date) IsHoliday() bool {
	_, ok := d.Holiday()
	return ok
}

// IsRestDay reports whether the assembly did not sit on d.
func (d Date) IsRestDay() bool {
	return d.IsHoliday() || d.cal.isWeekendRest(d.t)
}

// IsWorkday is the negation of IsRestDay.
func (d Date) IsWorkday() bool {
	return !d.IsRestDay()
}

// NextWorkday returns d if it is a workday, otherwise the first workday after it.
func (d Date) NextWorkday() Date {
	for d.IsRestDay() {
		d = d.AddDays(1)
	}
	return d
}

// ExceptionShift returns the exception-table shift registered for d.
func (d Date) ExceptionShift() (int, bool) {
	return d.cal.exceptions.Lookup(d)
}
