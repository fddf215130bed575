package commission

import "time"

// TenureMonths returns the number of whole months from hireDate to now.
// A missing hire date counts as hired today. Future hire dates give a
// negative tenure.
func TenureMonths(hireDate *time.Time, now time.Time) int {
	if hireDate == nil {
		return 0
	}
	return wholeMonthsBetween(*hireDate, now)
}

// wholeMonthsBetween counts complete calendar months from a to b, truncating
// toward zero.
func wholeMonthsBetween(a, b time.Time) int {
	a = a.In(b.Location())

	sign := 1
	if b.Before(a) {
		a, b = b, a
		sign = -1
	}

	months := (b.Year()-a.Year())*12 + int(b.Month()) - int(a.Month())

	// Step back one month if b has not reached a's day and time of month yet.
	// A start day past the end of b's month counts as reached on b's last day.
	anniversary := addMonthsClamped(a, months)
	if anniversary.After(b) {
		months--
	}

	return sign * months
}

func addMonthsClamped(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(months), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	lastDay := first.AddDate(0, 1, -1).Day()
	if d > lastDay {
		d = lastDay
	}
	return time.Date(first.Year(), first.Month(), d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}
