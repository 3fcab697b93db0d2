// Package calendar models dates of the Republic's meeting records: weekday and
// month naming per period, holidays, rest days and known printing errors.
package calendar

import (
	"errors"
	"fmt"
	"time"
)

// DefaultSaturdayRestFrom is the first year in which Saturday is a rest day.
const DefaultSaturdayRestFrom = 1754

// ErrInvalidDate reports a year/month/day triple that is not a calendar date.
var ErrInvalidDate = errors.New("invalid date")

// Calendar combines a name mapper with the rest-day rule and exception table.
// It is read-only after construction and safe to share.
type Calendar struct {
	names            *DateNameMapper
	exceptions       ExceptionTable
	saturdayRestFrom int
}

// Option configures a Calendar.
type Option func(*Calendar)

// WithExceptions sets the table of known date misprints.
func WithExceptions(table ExceptionTable) Option {
	return func(c *Calendar) {
		c.exceptions = table
	}
}

// WithSaturdayRestFrom overrides the first year with Saturday as a rest day.
func WithSaturdayRestFrom(year int) Option {
	return func(c *Calendar) {
		c.saturdayRestFrom = year
	}
}

// New returns a Calendar. A nil mapper selects the printed-resolution names.
func New(names *DateNameMapper, opts ...Option) *Calendar {
	if names == nil {
		names = PrintedNames()
	}
	c := &Calendar{
		names:            names,
		exceptions:       DefaultExceptions(),
		saturdayRestFrom: DefaultSaturdayRestFrom,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.exceptions == nil {
		c.exceptions = ExceptionTable{}
	}
	return c
}

// Names returns the date name mapper.
func (c *Calendar) Names() *DateNameMapper {
	return c.names
}

// Exceptions returns the exception table.
func (c *Calendar) Exceptions() ExceptionTable {
	return c.exceptions
}

// Date builds a validated Date.
func (c *Calendar) Date(year int, month time.Month, day int) (Date, error) {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || t.Month() != month || t.Day() != day {
		return Date{}, fmt.Errorf("%w: %04d-%02d-%02d", ErrInvalidDate, year, int(month), day)
	}
	return Date{t: t, cal: c}, nil
}

// ParseISO parses a YYYY-MM-DD date.
func (c *Calendar) ParseISO(value string) (Date, error) {
	t, err := time.ParseInLocation(isoLayout, value, time.UTC)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, value)
	}
	return Date{t: t, cal: c}, nil
}

// AdvanceFrom returns the date following d. A date listed in the exception
// table advances by its configured shift instead of one day; the second
// result reports whether the table was used.
func (c *Calendar) AdvanceFrom(d Date) (Date, bool) {
	if shift, ok := c.exceptions.Lookup(d); ok {
		return d.AddDays(shift), true
	}
	return d.AddDays(1), false
}

func (c *Calendar) holiday(t time.Time) (Holiday, bool) {
	for _, h := range Holidays(t.Year()) {
		if !sameDay(h.Date, t) {
			continue
		}
		// Before Saturdays became rest days the assembly sat on a second
		// Christmas day that fell on a Saturday.
		if h.Name == SecondChristmasDay && t.Weekday() == time.Saturday && t.Year() < c.saturdayRestFrom {
			return Holiday{}, false
		}
		return h, true
	}
	return Holiday{}, false
}

func (c *Calendar) isWeekendRest(t time.Time) bool {
	switch t.Weekday() {
	case time.Sunday:
		return true
	case time.Saturday:
		return t.Year() >= c.saturdayRestFrom
	default:
		return false
	}
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}
