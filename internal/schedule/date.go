package schedule

import "time"

const day = 24 * time.Hour

// Date returns the civil date y-m-d as a UTC midnight time.Time.
func Date(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

// Truncate drops the time-of-day and location of t, keeping its calendar
// date as seen in t's own location.
func Truncate(t time.Time) time.Time {
	y, m, d := t.Date()
	return Date(y, m, d)
}

// AddDays shifts a civil date by n days.
func AddDays(t time.Time, n int) time.Time {
	return Truncate(t).AddDate(0, 0, n)
}

// DaysBetween returns the whole number of days from a to b (negative when b
// is before a). Both arguments are truncated to their calendar dates first.
func DaysBetween(a, b time.Time) int {
	return int(Truncate(b).Sub(Truncate(a)) / day)
}

// AddMonthsClamped adds n calendar months to t, clamping the day of month to
// the last day of the target month (Jan 31 + 1 month = Feb 28/29).
func AddMonthsClamped(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := Date(y, m, 1).AddDate(0, n, 0)
	last := first.AddDate(0, 1, -1).Day()
	if d > last {
		d = last
	}
	return Date(first.Year(), first.Month(), d)
}

// ParseDate parses a YYYY-MM-DD string into a civil date.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(time.DateOnly, s)
}

// FormatDate renders a civil date as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(time.DateOnly)
}
