package calendar

import "time"

// Holiday names.
const (
	NewYearsDay        = "Nieuwjaarsdag"
	EasterMonday       = "Paasmaandag"
	AscensionDay       = "Hemelvaartsdag"
	WhitMonday         = "Pinkstermaandag"
	FirstChristmasDay  = "Eerste Kerstdag"
	SecondChristmasDay = "Tweede Kerstdag"
)

// Holiday is a named public holiday.
type Holiday struct {
	Name string
	Date time.Time
}

// Easter returns Easter Sunday of the Gregorian year using the anonymous
// Gregorian (Meeus/Jones/Butcher) algorithm.
func Easter(year int) time.Time {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := (h+l-7*m+114)%31 + 1
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

// Holidays returns the holidays of a year in calendar order.
func Holidays(year int) []Holiday {
	easter := Easter(year)
	return []Holiday{
		{Name: NewYearsDay, Date: time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)},
		{Name: EasterMonday, Date: easter.AddDate(0, 0, 1)},
		{Name: AscensionDay, Date: easter.AddDate(0, 0, 39)},
		{Name: WhitMonday, Date: easter.AddDate(0, 0, 50)},
		{Name: FirstChristmasDay, Date: time.Date(year, time.December, 25, 0, 0, 0, 0, time.UTC)},
		{Name: SecondChristmasDay, Date: time.Date(year, time.December, 26, 0, 0, 0, 0, time.UTC)},
	}
}
