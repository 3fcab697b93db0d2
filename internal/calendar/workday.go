package calendar

// WorkdayShift counts the workdays in (from, to]. When to precedes from the
// result is the negated count of workdays in (to, from].
func WorkdayShift(from, to Date) int {
	if to.Before(from) {
		return -WorkdayShift(to, from)
	}
	count := 0
	for d := from.AddDays(1); !d.After(to); d = d.AddDays(1) {
		if d.IsWorkday() {
			count++
		}
	}
	return count
}
