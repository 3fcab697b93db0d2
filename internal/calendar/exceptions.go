package calendar

// Exception is a curated correction for a day whose printed date is known to
// be wrong in the source volumes.
type Exception struct {
	ShiftDays int `yaml:"shift_days" toml:"shift-days"`
}

// ExceptionTable maps an ISO date to its correction.
type ExceptionTable map[string]Exception

// Lookup returns the shift registered for d.
func (t ExceptionTable) Lookup(d Date) (int, bool) {
	if t == nil || d.IsZero() {
		return 0, false
	}
	e, ok := t[d.ISO()]
	if !ok {
		return 0, false
	}
	return e.ShiftDays, true
}

// Has reports whether d has an entry.
func (t ExceptionTable) Has(d Date) bool {
	_, ok := t.Lookup(d)
	return ok
}

// DefaultExceptions returns the built-in exception table. Each entry is a day
// after which the next printed session heading skips ahead.
func DefaultExceptions() ExceptionTable {
	return ExceptionTable{
		"1705-03-09": {ShiftDays: 2},
		"1713-10-21": {ShiftDays: 3},
		"1721-07-04": {ShiftDays: 3},
		"1726-12-23": {ShiftDays: 4},
		"1738-05-20": {ShiftDays: 2},
		"1747-02-13": {ShiftDays: 3},
		"1761-11-27": {ShiftDays: 3},
		"1779-08-06": {ShiftDays: 3},
	}
}
